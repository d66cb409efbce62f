package models

// PaginationState tracks one user collection through Unloaded → Loading → Loaded(partial) → Loaded(complete).
//
// Offset-based collections advance NextOffset; cursor-based collections (followed artists) advance NextCursor.
// IsLoaded never reverts to false except through [PaginationState.Reset].
type PaginationState struct {
	IsLoaded   bool   `json:"is_loaded"`
	IsLoading  bool   `json:"is_loading"`
	HasMore    bool   `json:"has_more"`
	NextOffset int    `json:"next_offset"`
	NextCursor string `json:"next_cursor,omitempty"`
	Total      int    `json:"total"`
	Err        error  `json:"-"`
}

// Done reports the terminal state: loaded with no further pages.
func (p PaginationState) Done() bool {
	return p.IsLoaded && !p.HasMore
}

// Begin marks a request in flight.
func (p PaginationState) Begin() PaginationState {
	p.IsLoading = true
	return p
}

// CompleteOffset records a successful offset page of pageLen items.
func (p PaginationState) CompleteOffset(pageLen int, hasMore bool, total int) PaginationState {
	p.IsLoaded = true
	p.IsLoading = false
	p.HasMore = hasMore
	p.NextOffset += pageLen
	p.Total = total
	p.Err = nil
	return p
}

// CompleteCursor records a successful cursor page. An empty cursor is terminal.
func (p PaginationState) CompleteCursor(cursor string, total int) PaginationState {
	p.IsLoaded = true
	p.IsLoading = false
	p.NextCursor = cursor
	p.HasMore = cursor != ""
	p.Total = total
	p.Err = nil
	return p
}

// Fail clears the loading flag and records err. Loaded data stays visible.
func (p PaginationState) Fail(err error) PaginationState {
	p.IsLoading = false
	p.Err = err
	return p
}

// Reset returns the Unloaded state.
func (p PaginationState) Reset() PaginationState {
	return PaginationState{}
}
