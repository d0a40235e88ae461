// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package pager keeps the per-session page size and position of the issue list.
package pager

// DefaultPageSize applies when the user has no usable page-size preference.
const DefaultPageSize = 20

// State is the page size and start offset of a paged issue list.
type State struct {
	PageSize int `json:"pageSize"`
	Start    int `json:"start"`
}

// NewState returns a state at the first page. Non-positive sizes fall back to DefaultPageSize.
func NewState(pageSize int) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return State{PageSize: pageSize}
}

// WithPageSize returns s with a new page size. Changing the size restarts at
// the first page since the old offset no longer lines up with page boundaries.
func (s State) WithPageSize(n int) State {
	if n <= 0 || n == s.PageSize {
		return s
	}
	return State{PageSize: n}
}

// WithStart returns s positioned at start, clamped to >= 0.
func (s State) WithStart(start int) State {
	s.Start = max(start, 0)
	return s
}

// Next moves one page forward.
func (s State) Next() State {
	return s.WithStart(s.Start + s.PageSize)
}

// Previous moves one page back, stopping at the first page.
func (s State) Previous() State {
	return s.WithStart(s.Start - s.PageSize)
}

// Window describes the visible slice of a result set of a given total size.
type Window struct {
	Start       int  `json:"start"`
	End         int  `json:"end"`
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	Pages       int  `json:"pages"`
	HasNext     bool `json:"hasNext"`
	HasPrevious bool `json:"hasPrevious"`
}

// Window computes the visible slice for total results. An offset beyond the
// end is pulled back to the start of the last page.
func (s State) Window(total int) Window {
	size := s.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	total = max(total, 0)

	start := s.Start
	if start >= total && total > 0 {
		start = ((total - 1) / size) * size
	}
	if total == 0 {
		start = 0
	}
	end := min(start+size, total)

	pages := (total + size - 1) / size
	return Window{
		Start:       start,
		End:         end,
		Total:       total,
		Page:        start/size + 1,
		Pages:       pages,
		HasNext:     end < total,
		HasPrevious: start > 0,
	}
}
