// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Empty(t *testing.T) {
	v := New()
	assert.True(t, v.IsValid())
	assert.NoError(t, v.Err())
}

func TestValidator_CollectsAll(t *testing.T) {
	v := New()
	v.Range("PageSize", 0, 1, 100)
	v.OneOf("Backend", "mongo", []string{"memory", "redis"})
	v.NotEmpty("Listen", "  ")

	err := v.Err()
	require.Error(t, err)
	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Errors(), 3)
	assert.Equal(t, "PageSize", ve.Errors()[0].Field)
	assert.Contains(t, err.Error(), "Backend")
	assert.Contains(t, err.Error(), "; ")
}

func TestValidator_ErrIsSnapshot(t *testing.T) {
	v := New()
	v.NonNegative("A", -1)
	err := v.Err()
	v.NonNegative("B", -1)

	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Errors(), 1)
}

func TestListenAddr(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{":8080", true},
		{"127.0.0.1:8080", true},
		{"[::1]:80", true},
		{"8080", false},
		{"localhost:", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			v := New()
			v.ListenAddr("Listen", tt.value)
			assert.Equal(t, tt.ok, v.IsValid(), v.Errors())
		})
	}
}

func TestHostPort(t *testing.T) {
	v := New()
	v.HostPort("Redis", "localhost:6379")
	assert.True(t, v.IsValid())

	v = New()
	v.HostPort("Redis", ":6379")
	assert.False(t, v.IsValid())
}

func TestDirectory(t *testing.T) {
	root := t.TempDir()

	v := New()
	v.Directory("DataDir", filepath.Join(root, "created"), false)
	assert.True(t, v.IsValid())
	assert.DirExists(t, filepath.Join(root, "created"))

	v = New()
	v.Directory("DataDir", filepath.Join(root, "missing"), true)
	assert.False(t, v.IsValid())

	v = New()
	v.Directory("DataDir", "../escape", false)
	assert.False(t, v.IsValid())

	file := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	v = New()
	v.Directory("DataDir", file, false)
	assert.False(t, v.IsValid())
}

func TestIPOrCIDR(t *testing.T) {
	v := New()
	v.IPOrCIDR("TrustedProxies", []string{"10.0.0.0/8", "192.168.1.1", " "})
	assert.True(t, v.IsValid())

	v = New()
	v.IPOrCIDR("TrustedProxies", []string{"10.0.0.0/33"})
	assert.False(t, v.IsValid())
}

func TestRangesAndDurations(t *testing.T) {
	v := New()
	v.Range("DB", 16, 0, 15)
	v.FloatRange("SamplingRate", 1.5, 0, 1)
	v.PositiveDuration("TTL", 0)
	v.NonNegative("RPM", -1)
	v.Custom("X", 1, func(any) error { return errors.New("nope") })
	assert.Len(t, v.Errors(), 5)

	v = New()
	v.Range("DB", 0, 0, 15)
	v.FloatRange("SamplingRate", 0.5, 0, 1)
	v.PositiveDuration("TTL", time.Minute)
	v.NonNegative("RPM", 0)
	assert.True(t, v.IsValid())
}
