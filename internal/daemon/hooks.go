// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

type namedHook struct {
	name string
	hook ShutdownHook
}

// hooks is a LIFO list of shutdown hooks that runs at most once.
type hooks struct {
	mu   sync.Mutex
	list []namedHook
	ran  bool
}

func (h *hooks) register(name string, hook ShutdownHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.list = append(h.list, namedHook{name: name, hook: hook})
}

// run executes every hook, newest first, and joins their errors. Later
// calls are no-ops.
func (h *hooks) run(ctx context.Context, logger zerolog.Logger) error {
	h.mu.Lock()
	if h.ran {
		h.mu.Unlock()
		return nil
	}
	h.ran = true
	list := h.list
	h.mu.Unlock()

	var errs []error
	for i := len(list) - 1; i >= 0; i-- {
		nh := list[i]
		if err := nh.hook(ctx); err != nil {
			logger.Error().Err(err).Str("hook", nh.name).Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("%s: %w", nh.name, err))
			continue
		}
		logger.Debug().Str("hook", nh.name).Msg("shutdown hook completed")
	}
	return errors.Join(errs...)
}
