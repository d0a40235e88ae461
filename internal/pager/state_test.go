// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pager

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestState_Navigation(t *testing.T) {
	s := NewState(10)
	s = s.Next().Next()
	if s.Start != 20 {
		t.Fatalf("Start = %d, want 20", s.Start)
	}
	s = s.Previous().Previous().Previous()
	if s.Start != 0 {
		t.Fatalf("Start = %d, want clamp to 0", s.Start)
	}
	if got := NewState(0).PageSize; got != DefaultPageSize {
		t.Fatalf("NewState(0).PageSize = %d, want %d", got, DefaultPageSize)
	}
	if got := NewState(10).WithStart(30).WithPageSize(25); got != (State{PageSize: 25}) {
		t.Fatalf("page size change must restart at first page, got %+v", got)
	}
	if got := NewState(10).WithStart(30).WithPageSize(10); got.Start != 30 {
		t.Fatalf("same page size must keep offset, got %+v", got)
	}
}

func TestState_Window(t *testing.T) {
	tests := []struct {
		name  string
		state State
		total int
		want  Window
	}{
		{
			name:  "first page",
			state: State{PageSize: 20},
			total: 45,
			want:  Window{Start: 0, End: 20, Total: 45, Page: 1, Pages: 3, HasNext: true},
		},
		{
			name:  "last partial page",
			state: State{PageSize: 20, Start: 40},
			total: 45,
			want:  Window{Start: 40, End: 45, Total: 45, Page: 3, Pages: 3, HasPrevious: true},
		},
		{
			name:  "offset past end snaps to last page",
			state: State{PageSize: 20, Start: 200},
			total: 45,
			want:  Window{Start: 40, End: 45, Total: 45, Page: 3, Pages: 3, HasPrevious: true},
		},
		{
			name:  "empty result",
			state: State{PageSize: 20, Start: 60},
			total: 0,
			want:  Window{Page: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.state.Window(tt.total)); diff != "" {
				t.Errorf("Window mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
