package store

import (
	"slices"

	"github.com/desertthunder/spotifly/internal/models"
)

// PlaylistOp is an edit to a playlist's ordered track listing.
type PlaylistOp interface {
	apply(ids []string, st *state) ([]string, bool)
	// countDelta is the change to an unloaded playlist's known count. ok is false when
	// the change cannot be known without the listing.
	countDelta() (delta int, ok bool)
}

type appendOp struct{ trackID string }

type removeOp struct{ trackID string }

type reorderOp struct{ from, to int }

// Append adds trackID at the end of the playlist. The track must already be in the store.
func Append(trackID string) PlaylistOp { return appendOp{trackID} }

// Remove drops every occurrence of trackID from the playlist.
func Remove(trackID string) PlaylistOp { return removeOp{trackID} }

// Reorder moves the item at index from so that it ends up at index to.
func Reorder(from, to int) PlaylistOp { return reorderOp{from, to} }

func (o appendOp) apply(ids []string, st *state) ([]string, bool) {
	if !st.has(models.KindTrack, o.trackID) {
		return ids, false
	}
	return append(ids, o.trackID), true
}

func (o appendOp) countDelta() (int, bool) { return 1, true }

func (o removeOp) apply(ids []string, _ *state) ([]string, bool) {
	n := len(ids)
	ids = slices.DeleteFunc(ids, func(id string) bool { return id == o.trackID })
	return ids, len(ids) != n
}

// The track may appear any number of times, or not at all.
func (o removeOp) countDelta() (int, bool) { return 0, false }

func (o reorderOp) apply(ids []string, _ *state) ([]string, bool) {
	if o.from == o.to || o.from < 0 || o.to < 0 || o.from >= len(ids) || o.to >= len(ids) {
		return ids, false
	}
	item := ids[o.from]
	ids = slices.Delete(ids, o.from, o.from+1)
	return slices.Insert(ids, o.to, item), true
}

func (o reorderOp) countDelta() (int, bool) { return 0, true }
