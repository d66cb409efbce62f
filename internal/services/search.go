package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/desertthunder/spotifly/internal/mapper"
	"github.com/desertthunder/spotifly/internal/models"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/desertthunder/spotifly/internal/store"
	"github.com/zmb3/spotify/v2"
)

// searchCollections maps each searchable kind to its result collection.
var searchCollections = map[models.Kind]store.Collection{
	models.KindTrack:    store.SearchTracks,
	models.KindAlbum:    store.SearchAlbums,
	models.KindArtist:   store.SearchArtists,
	models.KindPlaylist: store.SearchPlaylists,
}

var searchTypes = map[models.Kind]spotify.SearchType{
	models.KindTrack:    spotify.SearchTypeTrack,
	models.KindAlbum:    spotify.SearchTypeAlbum,
	models.KindArtist:   spotify.SearchTypeArtist,
	models.KindPlaylist: spotify.SearchTypePlaylist,
}

// SearchService replaces the search result collections. Only the most recent search commits its results.
type SearchService struct {
	base
	limit int
	seq   atomic.Uint64
	// owner records which search last marked each result collection as loading. Guarded by the store's write lock.
	owner map[store.Collection]uint64
}

// Search runs query over the given kinds (all four when none are given) and replaces their result collections.
// An empty query clears every result collection.
func (s *SearchService) Search(ctx context.Context, query string, kinds ...models.Kind) error {
	query = strings.TrimSpace(query)
	seq := s.seq.Add(1)
	if query == "" {
		s.Clear()
		return nil
	}

	if len(kinds) == 0 {
		kinds = []models.Kind{models.KindTrack, models.KindAlbum, models.KindArtist, models.KindPlaylist}
	}
	var types spotify.SearchType
	targets := make([]store.Collection, 0, len(kinds))
	for _, k := range kinds {
		t, ok := searchTypes[k]
		if !ok {
			return fmt.Errorf("%w: cannot search %q", shared.ErrInvalidRequest, k)
		}
		types |= t
		targets = append(targets, searchCollections[k])
	}

	s.store.Update(func(tx *store.Tx) {
		if s.owner == nil {
			s.owner = make(map[store.Collection]uint64, len(searchCollections))
		}
		for _, c := range targets {
			s.owner[c] = seq
			tx.SetPagination(c, tx.Pagination(c).Begin())
		}
	})

	s.logger.Debug("searching", "query", query, "kinds", kinds, "limit", s.limit)
	res, err := s.api.Search(ctx, query, types, s.limit)
	if s.seq.Load() != seq {
		s.release(targets, seq)
		s.logger.Debug("discarded stale search", "query", query)
		return err
	}
	if err != nil {
		s.store.Update(func(tx *store.Tx) {
			for _, c := range targets {
				tx.SetPagination(c, tx.Pagination(c).Fail(err))
			}
		})
		return fmt.Errorf("search %q: %w", query, err)
	}

	s.store.Update(func(tx *store.Tx) {
		for _, c := range targets {
			commitSearch(tx, c, res)
		}
	})
	return nil
}

// release clears the loading flag on the targets no newer search has claimed since seq began.
func (s *SearchService) release(targets []store.Collection, seq uint64) {
	s.store.Update(func(tx *store.Tx) {
		for _, c := range targets {
			if s.owner[c] != seq {
				continue
			}
			p := tx.Pagination(c)
			p.IsLoading = false
			tx.SetPagination(c, p)
		}
	})
}

// Clear empties every search result collection and drops any search still in flight.
func (s *SearchService) Clear() {
	s.seq.Add(1)
	s.store.Update(func(tx *store.Tx) {
		for _, c := range searchCollections {
			tx.SetCollectionIDs(c, nil, false)
			tx.ResetPagination(c)
		}
	})
}

func commitSearch(tx *store.Tx, c store.Collection, res *spotify.SearchResult) {
	var (
		ids            []string
		pageLen, total int
		hasMore        bool
	)

	switch c {
	case store.SearchTracks:
		if res.Tracks == nil {
			break
		}
		tracks := mapper.TracksFromFull(res.Tracks.Tracks)
		commitFullTracks(tx, res.Tracks.Tracks, tracks)
		ids = mapper.IDs(tracks)
		pageLen, total, hasMore = len(res.Tracks.Tracks), int(res.Tracks.Total), res.Tracks.Next != ""
	case store.SearchAlbums:
		if res.Albums == nil {
			break
		}
		albums := mapper.AlbumsFromSimple(res.Albums.Albums)
		for _, a := range res.Albums.Albums {
			tx.UpsertArtists(artistsFromCredits(a.Artists))
		}
		tx.UpsertAlbums(albums)
		for _, a := range albums {
			ids = append(ids, a.ID)
		}
		pageLen, total, hasMore = len(res.Albums.Albums), int(res.Albums.Total), res.Albums.Next != ""
	case store.SearchArtists:
		if res.Artists == nil {
			break
		}
		p := artistPage(res.Artists.Artists, res.Artists.Next != "", int(res.Artists.Total), "")
		p.commit(tx)
		ids, pageLen, total, hasMore = p.ids, p.pageLen, p.total, p.hasMore
	case store.SearchPlaylists:
		if res.Playlists == nil {
			break
		}
		playlists := mapper.PlaylistsFromSimple(res.Playlists.Playlists)
		tx.UpsertPlaylists(playlists)
		for _, p := range playlists {
			ids = append(ids, p.ID)
		}
		pageLen, total, hasMore = len(res.Playlists.Playlists), int(res.Playlists.Total), res.Playlists.Next != ""
	}

	tx.SetCollectionIDs(c, ids, false)
	tx.ResetPagination(c)
	tx.SetPagination(c, models.PaginationState{}.CompleteOffset(pageLen, hasMore, total))
}
