// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package issue

import "context"

// Lookup resolves issues and their metadata. Missing entities yield ErrNotFound.
type Lookup interface {
	IssueByID(ctx context.Context, id int64) (Issue, error)
	IssueByKey(ctx context.Context, key string) (Issue, error)
	IssueType(ctx context.Context, id string) (IssueType, error)
	Status(ctx context.Context, id string) (Status, error)
	SubTasks(ctx context.Context, parentID int64) ([]Issue, error)
}

// Permissions answers permission questions; the decision algorithm is owned by the implementation.
type Permissions interface {
	HasPermission(ctx context.Context, perm Permission, target Issue, user User) (bool, error)
}

// DeleteValidation is the outcome of validating a delete request for one issue.
type DeleteValidation struct {
	TargetID int64           `json:"targetId"`
	Valid    bool            `json:"valid"`
	Errors   ErrorCollection `json:"errors"`
	Issue    Issue           `json:"issue"`
}

// Deleter validates and performs issue deletion.
type Deleter interface {
	// ValidateDelete reports business problems in the returned Errors; the
	// error return is reserved for infrastructure failures.
	ValidateDelete(ctx context.Context, user User, id int64) (DeleteValidation, error)
	// Delete performs a delete previously validated. Business failures are
	// returned as *ValidationError.
	Delete(ctx context.Context, user User, v DeleteValidation) error
}

// Converter owns the conversion rules and the final create/update/relink sequence.
type Converter interface {
	EligibleTargetTypes(ctx context.Context, source Issue) ([]IssueType, error)
	IsStatusChangeRequired(ctx context.Context, source Issue, targetTypeID string) (bool, error)
	ValidTargetStatuses(ctx context.Context, source Issue, targetTypeID string) ([]Status, error)
	RequiredFields(ctx context.Context, target Issue) ([]string, error)
	Convert(ctx context.Context, user User, source, target Issue) error
}

// Preferences exposes user preferences. Values are stored as raw strings, so a
// page size may be present yet unparsable.
type Preferences interface {
	PageSize(ctx context.Context, user User) (value string, ok bool, err error)
}
