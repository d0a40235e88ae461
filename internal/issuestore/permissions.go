// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package issuestore

import (
	"context"
	"fmt"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
)

// HasPermission checks the project grants of user (or of AnyUser) and, for
// issues with a security level, membership of that level.
func (s *Store) HasPermission(ctx context.Context, perm issue.Permission, target issue.Issue, user issue.User) (bool, error) {
	var granted int
	err := s.db.GetContext(ctx, &granted, `
		SELECT COUNT(*) FROM grants
		WHERE project_id = ? AND permission = ? AND (user_name = ? OR user_name = ?)`,
		target.ProjectID, string(perm), user.Name, AnyUser)
	if err != nil {
		return false, fmt.Errorf("permission %s on %s: %w", perm, target.Key, err)
	}
	if granted == 0 {
		return false, nil
	}
	if target.SecurityLevelID == nil {
		return true, nil
	}
	var member int
	err = s.db.GetContext(ctx, &member,
		`SELECT COUNT(*) FROM security_level_members WHERE level_id = ? AND (user_name = ? OR user_name = ?)`,
		*target.SecurityLevelID, user.Name, AnyUser)
	if err != nil {
		return false, fmt.Errorf("security level of %s: %w", target.Key, err)
	}
	return member > 0, nil
}

// Grant gives user perm on every issue of a project.
func (s *Store) Grant(ctx context.Context, user string, projectID int64, perm issue.Permission) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO grants (user_name, project_id, permission) VALUES (?, ?, ?)`,
		user, projectID, string(perm))
	return err
}

// Revoke removes a grant.
func (s *Store) Revoke(ctx context.Context, user string, projectID int64, perm issue.Permission) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM grants WHERE user_name = ? AND project_id = ? AND permission = ?`,
		user, projectID, string(perm))
	return err
}
