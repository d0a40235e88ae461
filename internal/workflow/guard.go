// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workflow

import (
	"context"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
)

// Step is one executable workflow step.
type Step func(ctx context.Context) Result

// Guard runs before a destructive step. A non-nil error blocks the step.
type Guard func(ctx context.Context) error

// Guarded wraps step so every guard runs first, in order. The first failing
// guard short-circuits with an error outcome and the step is never invoked.
func Guarded(step Step, guards ...Guard) Step {
	return func(ctx context.Context) Result {
		for _, g := range guards {
			if g == nil {
				continue
			}
			if err := g(ctx); err != nil {
				return Failure(issue.AsErrorCollection(err))
			}
		}
		return step(ctx)
	}
}
