// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package issuestore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
)

const issueColumns = `id, issue_key, project_id, type_id, status_id, parent_id, security_level_id, summary`

type field struct {
	IssueID int64  `db:"issue_id"`
	Name    string `db:"name"`
	Value   string `db:"value"`
}

// IssueByID loads an issue with its field values.
func (s *Store) IssueByID(ctx context.Context, id int64) (issue.Issue, error) {
	var out issue.Issue
	if err := s.db.GetContext(ctx, &out, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id); err != nil {
		return issue.Issue{}, notFound(err, fmt.Sprintf("issue %d", id))
	}
	return out, s.loadFields(ctx, s.db, &out)
}

// IssueByKey loads an issue by its key.
func (s *Store) IssueByKey(ctx context.Context, key string) (issue.Issue, error) {
	var out issue.Issue
	if err := s.db.GetContext(ctx, &out, `SELECT `+issueColumns+` FROM issues WHERE issue_key = ?`, key); err != nil {
		return issue.Issue{}, notFound(err, fmt.Sprintf("issue %s", key))
	}
	return out, s.loadFields(ctx, s.db, &out)
}

// IssueType loads an issue type.
func (s *Store) IssueType(ctx context.Context, id string) (issue.IssueType, error) {
	var out issue.IssueType
	if err := s.db.GetContext(ctx, &out, `SELECT id, name, subtask FROM issue_types WHERE id = ?`, id); err != nil {
		return issue.IssueType{}, notFound(err, "issue type "+id)
	}
	return out, nil
}

// Status loads a workflow status.
func (s *Store) Status(ctx context.Context, id string) (issue.Status, error) {
	var out issue.Status
	if err := s.db.GetContext(ctx, &out, `SELECT id, name FROM statuses WHERE id = ?`, id); err != nil {
		return issue.Status{}, notFound(err, "status "+id)
	}
	return out, nil
}

// SubTasks lists the sub-tasks of parentID ordered by id.
func (s *Store) SubTasks(ctx context.Context, parentID int64) ([]issue.Issue, error) {
	var out []issue.Issue
	if err := s.db.SelectContext(ctx, &out, `SELECT `+issueColumns+` FROM issues WHERE parent_id = ? ORDER BY id`, parentID); err != nil {
		return nil, fmt.Errorf("sub-tasks of %d: %w", parentID, err)
	}
	return out, nil
}

// ListIssues returns one page of issues ordered by id and the total count.
func (s *Store) ListIssues(ctx context.Context, start, limit int) ([]issue.Issue, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM issues`); err != nil {
		return nil, 0, fmt.Errorf("counting issues: %w", err)
	}
	var out []issue.Issue
	if err := s.db.SelectContext(ctx, &out,
		`SELECT `+issueColumns+` FROM issues ORDER BY id LIMIT ? OFFSET ?`, limit, start); err != nil {
		return nil, 0, fmt.Errorf("listing issues: %w", err)
	}
	return out, total, nil
}

func (s *Store) loadFields(ctx context.Context, q sqlx.QueryerContext, target *issue.Issue) error {
	var rows []field
	if err := sqlx.SelectContext(ctx, q, &rows, `SELECT issue_id, name, value FROM issue_fields WHERE issue_id = ?`, target.ID); err != nil {
		return fmt.Errorf("fields of %s: %w", target.Key, err)
	}
	if len(rows) == 0 {
		return nil
	}
	target.Fields = make(map[string]string, len(rows))
	for _, r := range rows {
		target.Fields[r.Name] = r.Value
	}
	return nil
}
