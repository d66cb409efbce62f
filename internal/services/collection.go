package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifly/internal/models"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/desertthunder/spotifly/internal/store"
	"golang.org/x/sync/singleflight"
)

// loadMode selects how a collection load treats existing pagination state.
type loadMode int

const (
	// loadFirst fetches the first page unless the collection is already loaded.
	loadFirst loadMode = iota
	// loadNext fetches the page after the last one loaded, or the first page of an unloaded collection.
	loadNext
	// loadForce refetches the first page and replaces the collection's IDs.
	loadForce
)

func (m loadMode) String() string {
	switch m {
	case loadNext:
		return "next"
	case loadForce:
		return "force"
	default:
		return "first"
	}
}

func modeFor(force bool) loadMode {
	if force {
		return loadForce
	}
	return loadFirst
}

// page is one converted collection page, ready to commit.
type page struct {
	ids     []string
	commit  func(tx *store.Tx) // entity upserts
	pageLen int                // raw item count, used to advance the offset
	hasMore bool
	total   int
	cursor  string
}

// fetchPage fetches the page described by the starting state.
type fetchPage func(ctx context.Context, from models.PaginationState) (page, error)

// loader implements the fetch → convert → commit protocol shared by every collection.
//
// Loads are single-flight per collection: a concurrent call joins the request already in flight
// and receives its result. A forced refresh that joins a non-forced flight runs again afterwards,
// and a caller whose own context is live retries when the flight it joined was cancelled.
type loader struct {
	store    *store.Store
	logger   *log.Logger
	group    singleflight.Group
	maxPages int
}

func (l *loader) load(ctx context.Context, c store.Collection, mode loadMode, fetch fetchPage) error {
	forced := false
	for attempt := 0; ; attempt++ {
		v, err, joined := l.group.Do(string(c), func() (any, error) {
			return mode, l.run(ctx, c, mode, fetch)
		})
		if err != nil {
			if joined && attempt < maxJoinRetries && cancelledElsewhere(ctx, err) {
				l.logger.Debug("joined load was cancelled, retrying", "collection", c)
				continue
			}
			return err
		}
		if !joined || mode != loadForce || v.(loadMode) == loadForce || forced {
			return nil
		}
		forced = true
	}
}

// maxJoinRetries bounds how often a caller rejoins after another caller's cancellation.
const maxJoinRetries = 3

// cancelledElsewhere reports whether err is a cancellation that ctx did not cause.
func cancelledElsewhere(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (l *loader) run(ctx context.Context, c store.Collection, mode loadMode, fetch fetchPage) error {
	var from models.PaginationState
	skip := false

	l.store.Update(func(tx *store.Tx) {
		current := tx.Pagination(c)
		switch {
		case mode == loadFirst && current.IsLoaded:
			skip = true
			return
		case mode == loadNext && current.Done():
			skip = true
			return
		case mode == loadForce:
			from = models.PaginationState{}
		default:
			from = current
		}
		tx.SetPagination(c, current.Begin())
	})
	if skip {
		return nil
	}

	l.logger.Debug("fetching page", "collection", c, "mode", mode, "offset", from.NextOffset, "cursor", from.NextCursor)

	p, err := fetch(ctx, from)
	if err != nil {
		l.store.Update(func(tx *store.Tx) {
			tx.SetPagination(c, tx.Pagination(c).Fail(err))
		})
		if !errors.Is(err, context.Canceled) {
			l.logger.Warn("page fetch failed", "collection", c, "error", err)
		}
		return err
	}

	l.store.Update(func(tx *store.Tx) {
		if p.commit != nil {
			p.commit(tx)
		}
		// The first page replaces whatever the list held; later pages append.
		firstPage := from.NextOffset == 0 && from.NextCursor == ""
		tx.SetCollectionIDs(c, p.ids, !firstPage)

		var next models.PaginationState
		if c.Cursor() {
			next = from.CompleteCursor(p.cursor, p.total)
		} else {
			next = from.CompleteOffset(p.pageLen, p.hasMore, p.total)
		}
		tx.SetPagination(c, next)
	})

	l.logger.Debug("committed page", "collection", c, "items", len(p.ids), "has_more", p.hasMore)
	return nil
}

// expand runs fn single-flight under key. It serves nested listings (album and playlist tracks)
// that have no pagination state of their own. fn must use the ctx it is given.
func (l *loader) expand(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		_, err, joined := l.group.Do(key, func() (any, error) {
			return nil, fn(ctx)
		})
		if err != nil && joined && attempt < maxJoinRetries && cancelledElsewhere(ctx, err) {
			l.logger.Debug("joined expansion was cancelled, retrying", "key", key)
			continue
		}
		return err
	}
}

// loadAll loads the first page and then follows pages until the collection is complete or maxPages pages were requested.
func (l *loader) loadAll(ctx context.Context, c store.Collection, fetch fetchPage) error {
	mode := loadFirst
	for range l.pageBudget() {
		if err := l.load(ctx, c, mode, fetch); err != nil {
			return err
		}
		if l.store.Pagination(c).Done() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		mode = loadNext
	}
	return nil
}

func (l *loader) pageBudget() int {
	if l.maxPages <= 0 {
		return 1 << 16
	}
	return l.maxPages
}

// collectPages follows offset pages for a nested listing (album or playlist tracks) and returns every item.
//
// fetch reports the raw number of items the server returned so skipped items still advance the offset.
func collectPages[T any](ctx context.Context, maxPages int, fetch func(ctx context.Context, offset int) (items []T, raw int, more bool, err error)) ([]T, error) {
	if maxPages <= 0 {
		maxPages = 1 << 16
	}

	var all []T
	offset := 0
	for range maxPages {
		batch, raw, more, err := fetch(ctx, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		offset += raw
		if !more || raw == 0 {
			break
		}
	}
	return all, nil
}

func requireID(kind models.Kind, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty %s id", shared.ErrInvalidRequest, kind)
	}
	return nil
}

func errMissingEntity(kind models.Kind) error {
	return fmt.Errorf("%w: %s missing from response", shared.ErrMalformedResponse, kind)
}

// prependID inserts id at the head of a loaded collection, as the server does for a newly saved or created item.
func prependID(tx *store.Tx, c store.Collection, id string) {
	ids := tx.IDs(c)
	if slices.Contains(ids, id) {
		return
	}
	tx.SetCollectionIDs(c, append([]string{id}, ids...), false)
	shiftPagination(tx, c, 1)
}

// dropID removes id from the collection, shifting a loaded offset back by one.
func dropID(tx *store.Tx, c store.Collection, id string) {
	if !slices.Contains(tx.IDs(c), id) {
		return
	}
	tx.RemoveCollectionID(c, id)
	shiftPagination(tx, c, -1)
}
