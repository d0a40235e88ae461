// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package problem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/issuedesk/internal/log"
)

func TestWrite(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/issues/9/delete", nil)
	req = req.WithContext(log.ContextWithRequestID(req.Context(), "req-1"))
	rec := httptest.NewRecorder()

	Write(rec, req, http.StatusNotFound, "issue/not_found", "Not Found", "NOT_FOUND", "The issue no longer exists.",
		map[string]any{"status": 200, "errorMessages": []string{"gone"}})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "req-1", rec.Header().Get(HeaderRequestID))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "issue/not_found", body["type"])
	assert.EqualValues(t, 404, body["status"], "reserved keys are not overridden")
	assert.Equal(t, "/issues/9/delete", body["instance"])
	assert.Equal(t, "req-1", body[JSONKeyRequestID])
	assert.Equal(t, []any{"gone"}, body["errorMessages"])
}

func TestDetails_MarshalOmitsEmptyOptionalMembers(t *testing.T) {
	raw, err := json.Marshal(Details{Type: "system/rate_limited", Title: "Too Many Requests", Status: 429, Code: "RATE_LIMITED"})
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Len(t, body, 4)
	assert.NotContains(t, body, "detail")
	assert.NotContains(t, body, JSONKeyRequestID)
}

func TestWrite_FallsBackToResponseHeaderID(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set(HeaderRequestID, "from-header")
	Write(rec, nil, http.StatusServiceUnavailable, "session/unavailable", "Service Unavailable", "SESSION_UNAVAILABLE", "", nil)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "from-header", body[JSONKeyRequestID])
	assert.NotContains(t, body, "instance")
}
