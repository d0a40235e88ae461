// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package conversion

import (
	"context"
	"errors"
	"strings"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
)

// FieldParentIssueKey names the parent picked when converting into a sub-task.
const FieldParentIssueKey = "parentIssueKey"

// Strategy holds the per-kind hooks of the shared conversion engine.
type Strategy struct {
	// Name is the URL kind, e.g. "subtask-to-issue".
	Name string
	// CheckSource reports why source cannot be converted by this strategy.
	CheckSource func(ctx context.Context, lookup issue.Lookup, source issue.Issue) issue.ErrorCollection
	// CandidateTargetTypes filters the types the converter deems eligible.
	CandidateTargetTypes func(source issue.Issue, eligible []issue.IssueType) []issue.IssueType
	// ExtraFields are request fields the strategy owns on top of regular fields.
	ExtraFields []string
	// PrepareTarget derives the draft target from the source and the bean.
	PrepareTarget func(ctx context.Context, lookup issue.Lookup, source issue.Issue, bean Bean) (issue.Issue, issue.ErrorCollection)
}

// SubTaskToIssue converts a sub-task into a standalone issue.
func SubTaskToIssue() Strategy {
	return Strategy{
		Name: "subtask-to-issue",
		CheckSource: func(_ context.Context, _ issue.Lookup, source issue.Issue) issue.ErrorCollection {
			var errs issue.ErrorCollection
			if !source.IsSubTask() {
				errs.AddMessage("Issue %s is not a sub-task.", source.Key)
			}
			return errs
		},
		CandidateTargetTypes: func(_ issue.Issue, eligible []issue.IssueType) []issue.IssueType {
			return filterTypes(eligible, false)
		},
		PrepareTarget: func(_ context.Context, _ issue.Lookup, source issue.Issue, _ Bean) (issue.Issue, issue.ErrorCollection) {
			return source.CloneNoParent(), issue.ErrorCollection{}
		},
	}
}

// IssueToSubTask converts a standalone issue into a sub-task of another issue.
func IssueToSubTask() Strategy {
	return Strategy{
		Name: "issue-to-subtask",
		CheckSource: func(ctx context.Context, lookup issue.Lookup, source issue.Issue) issue.ErrorCollection {
			var errs issue.ErrorCollection
			if source.IsSubTask() {
				errs.AddMessage("Issue %s is already a sub-task.", source.Key)
				return errs
			}
			subs, err := lookup.SubTasks(ctx, source.ID)
			if err != nil {
				errs.AddMessage("Sub-tasks of %s could not be loaded.", source.Key)
				return errs
			}
			if len(subs) > 0 {
				errs.AddMessage("Issue %s has sub-tasks and cannot become a sub-task.", source.Key)
			}
			return errs
		},
		CandidateTargetTypes: func(_ issue.Issue, eligible []issue.IssueType) []issue.IssueType {
			return filterTypes(eligible, true)
		},
		ExtraFields: []string{FieldParentIssueKey},
		PrepareTarget: func(ctx context.Context, lookup issue.Lookup, source issue.Issue, bean Bean) (issue.Issue, issue.ErrorCollection) {
			var errs issue.ErrorCollection
			target := source.Clone()
			key := strings.TrimSpace(bean.FieldValues[FieldParentIssueKey])
			if key == "" {
				errs.AddField(FieldParentIssueKey, "A parent issue is required.")
				return target, errs
			}
			parent, err := lookup.IssueByKey(ctx, key)
			switch {
			case errors.Is(err, issue.ErrNotFound):
				errs.AddField(FieldParentIssueKey, "Parent issue %s does not exist.", key)
			case err != nil:
				errs.AddMessage("Parent issue %s could not be loaded.", key)
			case parent.ID == source.ID:
				errs.AddField(FieldParentIssueKey, "An issue cannot be its own parent.")
			case parent.IsSubTask():
				errs.AddField(FieldParentIssueKey, "Parent issue %s is itself a sub-task.", key)
			case parent.ProjectID != source.ProjectID:
				errs.AddField(FieldParentIssueKey, "Parent issue %s belongs to another project.", key)
			default:
				id := parent.ID
				target.ParentID = &id
			}
			return target, errs
		},
	}
}

// Strategies returns the built-in strategies keyed by name.
func Strategies() map[string]Strategy {
	out := make(map[string]Strategy, 2)
	for _, s := range []Strategy{SubTaskToIssue(), IssueToSubTask()} {
		out[s.Name] = s
	}
	return out
}

func filterTypes(types []issue.IssueType, subTask bool) []issue.IssueType {
	var out []issue.IssueType
	for _, t := range types {
		if t.SubTask == subTask {
			out = append(out, t)
		}
	}
	return out
}
