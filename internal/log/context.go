// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	sessionIDKey
	userKey
)

// contextFields lists the values WithContext copies onto a logger, in order.
var contextFields = []struct {
	key   ctxKey
	field string
}{
	{requestIDKey, FieldRequestID},
	{sessionIDKey, FieldSessionID},
	{userKey, FieldUser},
}

func withString(ctx context.Context, key ctxKey, v string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, v)
}

func stringFromContext(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// ContextWithRequestID stores the request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

// annotate adds a field to the request logger installed by Middleware, so
// values learned after the access logger was created still reach its lines.
func annotate(ctx context.Context, field, v string) {
	if ctx == nil {
		return
	}
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		l.UpdateContext(func(c zerolog.Context) zerolog.Context { return c.Str(field, v) })
	}
}

// ContextWithSessionID stores the web session ID in the context.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	annotate(ctx, FieldSessionID, id)
	return withString(ctx, sessionIDKey, id)
}

// ContextWithUser stores the acting user name in the context. Anonymous
// requests carry no user field.
func ContextWithUser(ctx context.Context, name string) context.Context {
	annotate(ctx, FieldUser, name)
	return withString(ctx, userKey, name)
}

func RequestIDFromContext(ctx context.Context) string { return stringFromContext(ctx, requestIDKey) }
func SessionIDFromContext(ctx context.Context) string { return stringFromContext(ctx, sessionIDKey) }
func UserFromContext(ctx context.Context) string      { return stringFromContext(ctx, userKey) }

// WithContext enriches logger with the request, session and user fields found in ctx.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return logger
	}
	var builder *zerolog.Context
	for _, f := range contextFields {
		v := stringFromContext(ctx, f.key)
		if v == "" {
			continue
		}
		if builder == nil {
			c := logger.With()
			builder = &c
		}
		*builder = builder.Str(f.field, v)
	}
	if builder == nil {
		return logger
	}
	return builder.Logger()
}

// WithComponentFromContext is WithComponent plus the fields of ctx.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	return WithContext(ctx, WithComponent(component))
}

// FromContext returns the logger attached by Middleware, or the base logger
// enriched with the fields of ctx.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		l := Base()
		return &l
	}
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	b := WithContext(ctx, Base())
	return &b
}
