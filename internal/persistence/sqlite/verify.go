// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CheckMode selects the integrity pragma.
type CheckMode string

const (
	QuickCheck CheckMode = "quick_check"
	FullCheck  CheckMode = "integrity_check"
)

// IntegrityError lists the rows SQLite reported for a damaged database.
type IntegrityError struct {
	Mode     CheckMode
	Problems []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s reported %d problem(s): %s", e.Mode, len(e.Problems), strings.Join(e.Problems, "; "))
}

// CheckIntegrity returns nil for a healthy database and an *IntegrityError
// when SQLite reports anything other than a single "ok" row.
func CheckIntegrity(ctx context.Context, db *sql.DB, mode CheckMode) error {
	if mode != FullCheck {
		mode = QuickCheck
	}
	rows, err := db.QueryContext(ctx, "PRAGMA "+string(mode))
	if err != nil {
		return fmt.Errorf("%s: %w", mode, err)
	}
	defer rows.Close()

	var problems []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return fmt.Errorf("%s: scan: %w", mode, err)
		}
		problems = append(problems, line)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%s: %w", mode, err)
	}

	switch {
	case len(problems) == 1 && strings.EqualFold(problems[0], "ok"):
		return nil
	case len(problems) == 0:
		problems = []string{"no rows returned"}
	}
	return &IntegrityError{Mode: mode, Problems: problems}
}
