// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package issue holds the issue domain types and the collaborator ports the
// web workflows depend on.
package issue

import (
	"maps"
	"strings"
)

// Issue is a tracked work item.
type Issue struct {
	ID              int64             `json:"id" db:"id"`
	Key             string            `json:"key" db:"issue_key"`
	ProjectID       int64             `json:"projectId" db:"project_id"`
	TypeID          string            `json:"typeId" db:"type_id"`
	StatusID        string            `json:"statusId" db:"status_id"`
	ParentID        *int64            `json:"parentId,omitempty" db:"parent_id"`
	SecurityLevelID *int64            `json:"securityLevelId,omitempty" db:"security_level_id"`
	Summary         string            `json:"summary" db:"summary"`
	Fields          map[string]string `json:"fields,omitempty" db:"-"`
}

// IsSubTask reports whether the issue is linked to a parent.
func (i Issue) IsSubTask() bool {
	return i.ParentID != nil
}

// Clone returns a deep copy of the issue.
func (i Issue) Clone() Issue {
	out := i
	if i.ParentID != nil {
		p := *i.ParentID
		out.ParentID = &p
	}
	if i.SecurityLevelID != nil {
		s := *i.SecurityLevelID
		out.SecurityLevelID = &s
	}
	out.Fields = maps.Clone(i.Fields)
	return out
}

// CloneNoParent returns a deep copy with the parent link removed.
func (i Issue) CloneNoParent() Issue {
	out := i.Clone()
	out.ParentID = nil
	return out
}

// IssueType describes an issue kind. Sub-task types form their own category.
type IssueType struct {
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	SubTask bool   `json:"subTask" db:"subtask"`
}

// Status is a workflow status.
type Status struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// User identifies the acting user. The zero value is the anonymous user.
type User struct {
	Name string `json:"name"`
}

// Anonymous reports whether no user is logged in.
func (u User) Anonymous() bool {
	return strings.TrimSpace(u.Name) == ""
}

// Permission is an action a user may be granted on a project's issues.
type Permission string

const (
	PermissionBrowse Permission = "BROWSE"
	PermissionEdit   Permission = "EDIT"
	PermissionDelete Permission = "DELETE"
)

// BrowsePath returns the detail page path for an issue key.
func BrowsePath(key string) string {
	return "/browse/" + key
}
