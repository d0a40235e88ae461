// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package issuestore

import (
	"context"
	"fmt"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
)

// Project groups issues under a key prefix.
type Project struct {
	ID   int64  `db:"id"`
	Key  string `db:"project_key"`
	Name string `db:"name"`
}

// CreateProject adds a project with the given enabled issue types.
func (s *Store) CreateProject(ctx context.Context, key, name string, typeIDs ...string) (Project, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Project{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT INTO projects (project_key, name) VALUES (?, ?)`, key, name)
	if err != nil {
		return Project{}, fmt.Errorf("creating project %s: %w", key, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Project{}, err
	}
	for _, t := range typeIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_issue_types (project_id, type_id) VALUES (?, ?)`, id, t); err != nil {
			return Project{}, fmt.Errorf("enabling type %s in %s: %w", t, key, err)
		}
	}
	return Project{ID: id, Key: key, Name: name}, tx.Commit()
}

// CreateIssueType adds an issue type and its workflow statuses in order.
func (s *Store) CreateIssueType(ctx context.Context, t issue.IssueType, statusIDs []string, requiredFields ...string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO issue_types (id, name, subtask) VALUES (?, ?, ?)`, t.ID, t.Name, t.SubTask); err != nil {
		return fmt.Errorf("creating issue type %s: %w", t.ID, err)
	}
	for i, st := range statusIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workflow_statuses (type_id, status_id, position) VALUES (?, ?, ?)`, t.ID, st, i); err != nil {
			return fmt.Errorf("adding status %s to %s: %w", st, t.ID, err)
		}
	}
	for _, f := range requiredFields {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO field_requirements (type_id, field) VALUES (?, ?)`, t.ID, f); err != nil {
			return fmt.Errorf("requiring %s on %s: %w", f, t.ID, err)
		}
	}
	return tx.Commit()
}

// CreateStatus adds a workflow status.
func (s *Store) CreateStatus(ctx context.Context, st issue.Status) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO statuses (id, name) VALUES (?, ?)`, st.ID, st.Name)
	return err
}

// CreateIssue inserts in as the next issue of its project and returns it with
// its id and key assigned.
func (s *Store) CreateIssue(ctx context.Context, in issue.Issue) (issue.Issue, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return issue.Issue{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var p struct {
		Key  string `db:"project_key"`
		Next int64  `db:"next_number"`
	}
	if err := tx.GetContext(ctx, &p, `SELECT project_key, next_number FROM projects WHERE id = ?`, in.ProjectID); err != nil {
		return issue.Issue{}, notFound(err, fmt.Sprintf("project %d", in.ProjectID))
	}
	if _, err := tx.ExecContext(ctx, `UPDATE projects SET next_number = next_number + 1 WHERE id = ?`, in.ProjectID); err != nil {
		return issue.Issue{}, err
	}

	out := in.Clone()
	out.Key = fmt.Sprintf("%s-%d", p.Key, p.Next)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO issues (issue_key, project_id, type_id, status_id, parent_id, security_level_id, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		out.Key, out.ProjectID, out.TypeID, out.StatusID, out.ParentID, out.SecurityLevelID, out.Summary)
	if err != nil {
		return issue.Issue{}, fmt.Errorf("creating issue %s: %w", out.Key, err)
	}
	if out.ID, err = res.LastInsertId(); err != nil {
		return issue.Issue{}, err
	}
	if err := writeFields(ctx, tx, out.ID, out.Fields); err != nil {
		return issue.Issue{}, err
	}
	return out, tx.Commit()
}

// Seed installs a demo project when the database is empty. It reports
// whether anything was written.
func (s *Store) Seed(ctx context.Context, admin string) (bool, error) {
	var projects int
	if err := s.db.GetContext(ctx, &projects, `SELECT COUNT(*) FROM projects`); err != nil {
		return false, err
	}
	if projects > 0 {
		return false, nil
	}

	for _, st := range []issue.Status{
		{ID: "open", Name: "Open"},
		{ID: "in-progress", Name: "In Progress"},
		{ID: "triage", Name: "Triage"},
		{ID: "done", Name: "Done"},
	} {
		if err := s.CreateStatus(ctx, st); err != nil {
			return false, err
		}
	}
	types := []struct {
		t        issue.IssueType
		statuses []string
		required []string
	}{
		{issue.IssueType{ID: "bug", Name: "Bug"}, []string{"triage", "open", "in-progress", "done"}, nil},
		{issue.IssueType{ID: "task", Name: "Task"}, []string{"open", "in-progress", "done"}, nil},
		{issue.IssueType{ID: "story", Name: "Story"}, []string{"open", "in-progress", "done"}, []string{"storyPoints"}},
		{issue.IssueType{ID: "sub-task", Name: "Sub-task", SubTask: true}, []string{"open", "done"}, nil},
	}
	var typeIDs []string
	for _, t := range types {
		if err := s.CreateIssueType(ctx, t.t, t.statuses, t.required...); err != nil {
			return false, err
		}
		typeIDs = append(typeIDs, t.t.ID)
	}

	p, err := s.CreateProject(ctx, "DEMO", "Demo project", typeIDs...)
	if err != nil {
		return false, err
	}
	for _, perm := range []issue.Permission{issue.PermissionBrowse, issue.PermissionEdit, issue.PermissionDelete} {
		if err := s.Grant(ctx, admin, p.ID, perm); err != nil {
			return false, err
		}
	}
	if err := s.Grant(ctx, AnyUser, p.ID, issue.PermissionBrowse); err != nil {
		return false, err
	}

	parent, err := s.CreateIssue(ctx, issue.Issue{ProjectID: p.ID, TypeID: "bug", StatusID: "open", Summary: "Login fails with expired session"})
	if err != nil {
		return false, err
	}
	parentID := parent.ID
	if _, err := s.CreateIssue(ctx, issue.Issue{ProjectID: p.ID, TypeID: "sub-task", StatusID: "open", ParentID: &parentID, Summary: "Write regression test"}); err != nil {
		return false, err
	}
	if _, err := s.CreateIssue(ctx, issue.Issue{ProjectID: p.ID, TypeID: "task", StatusID: "in-progress", Summary: "Rotate signing keys"}); err != nil {
		return false, err
	}
	return true, nil
}
