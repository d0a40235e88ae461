// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package problem writes RFC 7807 problem details responses.
package problem

import (
	"encoding/json"
	"maps"
	"net/http"

	"github.com/ManuGH/issuedesk/internal/log"
)

const (
	// HeaderRequestID carries the request correlation id.
	HeaderRequestID = "X-Request-ID"
	// JSONKeyRequestID is the problem body member holding the request id.
	JSONKeyRequestID = "requestId"
	// ContentType is the media type of every problem body.
	ContentType = "application/problem+json"
)

var reserved = map[string]struct{}{
	"type": {}, "title": {}, "status": {}, "code": {},
	"detail": {}, "instance": {}, JSONKeyRequestID: {},
}

// Details is one problem document. Type is a machine identifier such as
// "issue/not_found"; Code is the stable upper-case code clients switch on.
type Details struct {
	Type      string
	Title     string
	Status    int
	Code      string
	Detail    string
	Instance  string
	RequestID string
	// Extra members are merged at top level. Reserved names are dropped.
	Extra map[string]any
}

// MarshalJSON flattens Extra next to the standard members.
func (d Details) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(d.Extra)+7)
	for k, v := range d.Extra {
		if _, ok := reserved[k]; ok {
			log.L().Warn().Str("key", k).Str("problem_type", d.Type).Msg("ignoring reserved key in problem extras")
			continue
		}
		body[k] = v
	}
	maps.Copy(body, map[string]any{"type": d.Type, "title": d.Title, "status": d.Status, "code": d.Code})
	for k, v := range map[string]string{"detail": d.Detail, "instance": d.Instance, JSONKeyRequestID: d.RequestID} {
		if v != "" {
			body[k] = v
		}
	}
	return json.Marshal(body)
}

// Send writes d with its status code. The request id header is repeated so
// clients can quote it without parsing the body.
func (d Details) Send(w http.ResponseWriter) {
	if d.RequestID != "" {
		w.Header().Set(HeaderRequestID, d.RequestID)
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(d.Status)
	if err := json.NewEncoder(w).Encode(d); err != nil {
		log.L().Error().Err(err).Str("type", d.Type).Int("status", d.Status).Msg("failed to encode problem response")
	}
}

// Write builds Details for r and sends it.
func Write(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string, extra map[string]any) {
	d := Details{
		Type:   problemType,
		Title:  title,
		Status: status,
		Code:   code,
		Detail: detail,
		Extra:  extra,
	}
	if r != nil {
		d.Instance = r.URL.EscapedPath()
		d.RequestID = log.RequestIDFromContext(r.Context())
	}
	if d.RequestID == "" {
		d.RequestID = w.Header().Get(HeaderRequestID)
	}
	d.Send(w)
}
