// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package issue

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrNotFound is returned when the target issue (or a related entity) does not exist.
	ErrNotFound = errors.New("issue: not found")
	// ErrPermissionDenied is returned when the user lacks a permission. Callers
	// surface it as ErrNotFound so existence is not leaked.
	ErrPermissionDenied = errors.New("issue: permission denied")
)

// ErrorCollection gathers general messages and per-field errors for a step.
type ErrorCollection struct {
	Messages []string          `json:"errorMessages,omitempty"`
	Fields   map[string]string `json:"errors,omitempty"`
}

// AddMessage appends a general error message.
func (c *ErrorCollection) AddMessage(format string, args ...any) {
	c.Messages = append(c.Messages, fmt.Sprintf(format, args...))
}

// AddField records an error against a field. The first error per field wins.
func (c *ErrorCollection) AddField(field, format string, args ...any) {
	if c.Fields == nil {
		c.Fields = make(map[string]string)
	}
	if _, exists := c.Fields[field]; exists {
		return
	}
	c.Fields[field] = fmt.Sprintf(format, args...)
}

// Merge appends all errors of other into c.
func (c *ErrorCollection) Merge(other ErrorCollection) {
	c.Messages = append(c.Messages, other.Messages...)
	for k, v := range other.Fields {
		c.AddField(k, "%s", v)
	}
}

// HasAny reports whether any error was recorded.
func (c ErrorCollection) HasAny() bool {
	return len(c.Messages) > 0 || len(c.Fields) > 0
}

// Clone returns an independent copy.
func (c ErrorCollection) Clone() ErrorCollection {
	return ErrorCollection{
		Messages: slices.Clone(c.Messages),
		Fields:   maps.Clone(c.Fields),
	}
}

// Err returns a *ValidationError carrying c, or nil when c is empty.
func (c ErrorCollection) Err() error {
	if !c.HasAny() {
		return nil
	}
	return &ValidationError{Errors: c.Clone()}
}

func (c ErrorCollection) String() string {
	parts := slices.Clone(c.Messages)
	for _, k := range slices.Sorted(maps.Keys(c.Fields)) {
		parts = append(parts, k+": "+c.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// ValidationError reports business-rule failures collected by a service.
type ValidationError struct {
	Errors ErrorCollection
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Errors.String()
}

// AsErrorCollection converts any error into an ErrorCollection. Validation
// errors keep their structure; anything else becomes a single message.
func AsErrorCollection(err error) ErrorCollection {
	if err == nil {
		return ErrorCollection{}
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Errors.Clone()
	}
	var c ErrorCollection
	c.AddMessage("%s", err.Error())
	return c
}
