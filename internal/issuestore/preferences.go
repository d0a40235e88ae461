// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package issuestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
)

// PreferencePageSize is the preference holding the issue navigator page size.
const PreferencePageSize = "page_size"

// PageSize returns the raw page size preference of user.
func (s *Store) PageSize(ctx context.Context, user issue.User) (string, bool, error) {
	if user.Anonymous() {
		return "", false, nil
	}
	return s.Preference(ctx, user.Name, PreferencePageSize)
}

// Preference returns a raw preference value.
func (s *Store) Preference(ctx context.Context, user, name string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value,
		`SELECT value FROM preferences WHERE user_name = ? AND name = ?`, user, name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("preference %s of %s: %w", name, user, err)
	}
	return value, true, nil
}

// SetPreference stores a raw preference value.
func (s *Store) SetPreference(ctx context.Context, user, name, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (user_name, name, value) VALUES (?, ?, ?)
		ON CONFLICT (user_name, name) DO UPDATE SET value = excluded.value`,
		user, name, value)
	return err
}
