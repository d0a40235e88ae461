// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package issuestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
)

// EligibleTargetTypes lists the types enabled in the source's project.
func (s *Store) EligibleTargetTypes(ctx context.Context, source issue.Issue) ([]issue.IssueType, error) {
	var out []issue.IssueType
	err := s.db.SelectContext(ctx, &out, `
		SELECT t.id, t.name, t.subtask FROM issue_types t
		JOIN project_issue_types p ON p.type_id = t.id
		WHERE p.project_id = ?
		ORDER BY t.subtask, t.name`, source.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("issue types of project %d: %w", source.ProjectID, err)
	}
	return out, nil
}

// IsStatusChangeRequired reports whether the source status is missing from
// the target type's workflow.
func (s *Store) IsStatusChangeRequired(ctx context.Context, source issue.Issue, targetTypeID string) (bool, error) {
	ok, err := s.statusInWorkflow(ctx, s.db, targetTypeID, source.StatusID)
	return !ok, err
}

// ValidTargetStatuses lists the statuses of the target type's workflow.
func (s *Store) ValidTargetStatuses(ctx context.Context, _ issue.Issue, targetTypeID string) ([]issue.Status, error) {
	var out []issue.Status
	err := s.db.SelectContext(ctx, &out, `
		SELECT st.id, st.name FROM statuses st
		JOIN workflow_statuses w ON w.status_id = st.id
		WHERE w.type_id = ?
		ORDER BY w.position, st.id`, targetTypeID)
	if err != nil {
		return nil, fmt.Errorf("workflow of %s: %w", targetTypeID, err)
	}
	return out, nil
}

// RequiredFields lists the fields the target type requires.
func (s *Store) RequiredFields(ctx context.Context, target issue.Issue) ([]string, error) {
	var out []string
	err := s.db.SelectContext(ctx, &out,
		`SELECT field FROM field_requirements WHERE type_id = ? ORDER BY field`, target.TypeID)
	if err != nil {
		return nil, fmt.Errorf("required fields of %s: %w", target.TypeID, err)
	}
	return out, nil
}

// Convert rewrites source as target: type, status, parent link, summary and
// field values change in one transaction.
func (s *Store) Convert(ctx context.Context, user issue.User, source, target issue.Issue) error {
	if source.ID != target.ID {
		return fmt.Errorf("convert: target id %d does not match source %d", target.ID, source.ID)
	}
	ok, err := s.HasPermission(ctx, issue.PermissionEdit, source, user)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("convert %s: %w", source.Key, issue.ErrPermissionDenied)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if errs, err := s.validateTarget(ctx, tx, target); err != nil {
		return err
	} else if errs.HasAny() {
		return errs.Err()
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE issues SET type_id = ?, status_id = ?, parent_id = ?, summary = ?
		WHERE id = ?`,
		target.TypeID, target.StatusID, target.ParentID, target.Summary, target.ID)
	if err != nil {
		return fmt.Errorf("updating issue %s: %w", source.Key, err)
	}
	if err := writeFields(ctx, tx, target.ID, target.Fields); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) validateTarget(ctx context.Context, tx *sqlx.Tx, target issue.Issue) (issue.ErrorCollection, error) {
	var errs issue.ErrorCollection

	var t issue.IssueType
	err := tx.GetContext(ctx, &t, `
		SELECT t.id, t.name, t.subtask FROM issue_types t
		JOIN project_issue_types p ON p.type_id = t.id
		WHERE p.project_id = ? AND t.id = ?`, target.ProjectID, target.TypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			errs.AddField("issuetype", "Issue type %s is not available in this project.", target.TypeID)
			return errs, nil
		}
		return errs, err
	}

	ok, err := s.statusInWorkflow(ctx, tx, target.TypeID, target.StatusID)
	if err != nil {
		return errs, err
	}
	if !ok {
		errs.AddField("targetStatusId", "Status %s is not part of the %s workflow.", target.StatusID, t.Name)
	}

	switch {
	case t.SubTask && target.ParentID == nil:
		errs.AddField("parentIssueKey", "A sub-task needs a parent issue.")
	case !t.SubTask && target.ParentID != nil:
		errs.AddField("issuetype", "Only sub-task types may have a parent issue.")
	case target.ParentID != nil:
		var parent issue.Issue
		err := tx.GetContext(ctx, &parent, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, *target.ParentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				errs.AddField("parentIssueKey", "The parent issue does not exist.")
				return errs, nil
			}
			return errs, err
		}
		if parent.IsSubTask() || parent.ProjectID != target.ProjectID || parent.ID == target.ID {
			errs.AddField("parentIssueKey", "Issue %s cannot be the parent.", parent.Key)
		}
	}
	return errs, nil
}

func (s *Store) statusInWorkflow(ctx context.Context, q sqlx.QueryerContext, typeID, statusID string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n,
		`SELECT COUNT(*) FROM workflow_statuses WHERE type_id = ? AND status_id = ?`, typeID, statusID)
	if err != nil {
		return false, fmt.Errorf("workflow of %s: %w", typeID, err)
	}
	return n > 0, nil
}

func writeFields(ctx context.Context, tx *sqlx.Tx, issueID int64, fields map[string]string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM issue_fields WHERE issue_id = ?`, issueID); err != nil {
		return fmt.Errorf("clearing fields of %d: %w", issueID, err)
	}
	for name, value := range fields {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO issue_fields (issue_id, name, value) VALUES (?, ?, ?)`, issueID, name, value); err != nil {
			return fmt.Errorf("writing field %s of %d: %w", name, issueID, err)
		}
	}
	return nil
}
