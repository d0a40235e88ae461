// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package issuestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
)

// ValidateDelete checks the issue exists and user may delete it.
func (s *Store) ValidateDelete(ctx context.Context, user issue.User, id int64) (issue.DeleteValidation, error) {
	v := issue.DeleteValidation{TargetID: id}
	target, err := s.IssueByID(ctx, id)
	if errors.Is(err, issue.ErrNotFound) {
		v.Errors.AddMessage("The issue no longer exists.")
		return v, nil
	}
	if err != nil {
		return v, err
	}
	v.Issue = target

	ok, err := s.HasPermission(ctx, issue.PermissionDelete, target, user)
	if err != nil {
		return v, err
	}
	if !ok {
		v.Errors.AddMessage("You do not have permission to delete issue %s.", target.Key)
		return v, nil
	}
	v.Valid = true
	return v, nil
}

// Delete removes a validated issue. Sub-tasks and field values go with it.
func (s *Store) Delete(ctx context.Context, _ issue.User, v issue.DeleteValidation) error {
	if !v.Valid || v.Errors.HasAny() {
		var errs issue.ErrorCollection
		errs.AddMessage("The delete request was not validated.")
		errs.Merge(v.Errors)
		return errs.Err()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, v.TargetID)
	if err != nil {
		return fmt.Errorf("deleting issue %d: %w", v.TargetID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var errs issue.ErrorCollection
		errs.AddMessage("The issue no longer exists.")
		return errs.Err()
	}
	return tx.Commit()
}
