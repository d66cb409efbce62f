package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotifly/internal/api"
	"github.com/desertthunder/spotifly/internal/mapper"
	"github.com/desertthunder/spotifly/internal/models"
	"github.com/desertthunder/spotifly/internal/store"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/sync/errgroup"
)

// TrackService loads the saved and top track collections and owns the favorite toggle.
type TrackService struct {
	base
}

func (s *TrackService) LoadSaved(ctx context.Context, force bool) error {
	return s.loader.load(ctx, store.SavedTracks, modeFor(force), s.fetchSaved)
}

func (s *TrackService) LoadMoreSaved(ctx context.Context) error {
	return s.loader.load(ctx, store.SavedTracks, loadNext, s.fetchSaved)
}

func (s *TrackService) LoadAllSaved(ctx context.Context) error {
	return s.loader.loadAll(ctx, store.SavedTracks, s.fetchSaved)
}

func (s *TrackService) LoadTop(ctx context.Context, force bool) error {
	return s.loader.load(ctx, store.TopTracks, modeFor(force), s.fetchTop)
}

func (s *TrackService) LoadMoreTop(ctx context.Context) error {
	return s.loader.load(ctx, store.TopTracks, loadNext, s.fetchTop)
}

func (s *TrackService) fetchSaved(ctx context.Context, from models.PaginationState) (page, error) {
	resp, err := s.api.SavedTracks(ctx, api.Page{Limit: s.pageSize, Offset: from.NextOffset})
	if err != nil {
		return page{}, err
	}

	full := make([]spotify.FullTrack, len(resp.Tracks))
	for i, t := range resp.Tracks {
		full[i] = t.FullTrack
	}
	tracks := mapper.TracksFromSaved(resp.Tracks)
	return page{
		ids:     mapper.IDs(tracks),
		commit:  func(tx *store.Tx) { commitFullTracks(tx, full, tracks) },
		pageLen: len(resp.Tracks),
		hasMore: resp.Next != "",
		total:   int(resp.Total),
	}, nil
}

func (s *TrackService) fetchTop(ctx context.Context, from models.PaginationState) (page, error) {
	resp, err := s.api.TopTracks(ctx, api.Page{Limit: s.pageSize, Offset: from.NextOffset})
	if err != nil {
		return page{}, err
	}

	tracks := mapper.TracksFromFull(resp.Tracks)
	return page{
		ids:     mapper.IDs(tracks),
		commit:  func(tx *store.Tx) { commitFullTracks(tx, resp.Tracks, tracks) },
		pageLen: len(resp.Tracks),
		hasMore: resp.Next != "",
		total:   int(resp.Total),
	}, nil
}

// Track returns the stored track, fetching it only when the store does not have it.
func (s *TrackService) Track(ctx context.Context, id string) (models.Track, error) {
	commit, err := s.prepareTrack(ctx, id)
	if err != nil {
		return models.Track{}, err
	}
	if commit != nil {
		s.store.Update(commit)
	}

	t, ok := s.store.Track(id)
	if !ok {
		return models.Track{}, fmt.Errorf("fetch track %s: %w", id, errMissingEntity(models.KindTrack))
	}
	return t, nil
}

// prepareTrack fetches a track the store does not have and returns its commit without applying it.
// The commit is nil when the track is already stored.
func (s *TrackService) prepareTrack(ctx context.Context, id string) (func(tx *store.Tx), error) {
	if err := requireID(models.KindTrack, id); err != nil {
		return nil, err
	}
	if _, ok := s.store.Track(id); ok {
		return nil, nil
	}

	resp, err := s.api.Track(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch track %s: %w", id, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("fetch track %s: %w", id, errMissingEntity(models.KindTrack))
	}
	full := []spotify.FullTrack{*resp}
	tracks := mapper.TracksFromFull(full)
	return func(tx *store.Tx) { commitFullTracks(tx, full, tracks) }, nil
}

// withCommit runs the optional entity commit ahead of fn in one transaction.
func withCommit(commit func(tx *store.Tx), fn func(tx *store.Tx)) func(tx *store.Tx) {
	return func(tx *store.Tx) {
		if commit != nil {
			commit(tx)
		}
		fn(tx)
	}
}

// ToggleFavorite saves or removes the track and returns whether it is now a favorite.
//
// Membership comes from the store. When saved tracks are not fully loaded the server is asked as well,
// since an unloaded page may hold the track. The store changes only after the remote call succeeds,
// including the track record itself when it had to be fetched.
func (s *TrackService) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	if err := requireID(models.KindTrack, id); err != nil {
		return false, err
	}
	logger := s.opLogger("toggle-favorite")

	saved := s.store.IsFavorite(id)
	if !saved && !s.store.Pagination(store.SavedTracks).Done() {
		flags, err := s.api.ContainsSavedTracks(ctx, id)
		if err != nil {
			return false, fmt.Errorf("check saved track %s: %w", id, err)
		}
		saved = len(flags) > 0 && flags[0]
	}

	if saved {
		if err := s.api.RemoveSavedTracks(ctx, id); err != nil {
			return true, fmt.Errorf("remove saved track %s: %w", id, err)
		}
		s.store.Update(func(tx *store.Tx) { removeFavorite(tx, id) })
		logger.Info("removed favorite", "track", id)
		return false, nil
	}

	commit, err := s.prepareTrack(ctx, id)
	if err != nil {
		return false, err
	}
	if err := s.api.SaveTracks(ctx, id); err != nil {
		return false, fmt.Errorf("save track %s: %w", id, err)
	}
	s.store.Update(withCommit(commit, func(tx *store.Tx) { insertFavorite(tx, id) }))
	logger.Info("added favorite", "track", id)
	return true, nil
}

// SyncFavorites asks the server which of ids are saved and reconciles the favorite set for stored tracks.
// It returns the number of tracks whose favorite state changed.
func (s *TrackService) SyncFavorites(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	saved := make([]bool, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(ids); start += membershipBatch {
		end := min(start+membershipBatch, len(ids))
		g.Go(func() error {
			flags, err := s.api.ContainsSavedTracks(gctx, ids[start:end]...)
			if err != nil {
				return err
			}
			copy(saved[start:end], flags)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("check saved tracks: %w", err)
	}

	changed := 0
	s.store.Update(func(tx *store.Tx) {
		for i, id := range ids {
			if _, ok := tx.Track(id); !ok || tx.IsFavorite(id) == saved[i] {
				continue
			}
			if saved[i] {
				insertFavorite(tx, id)
			} else {
				removeFavorite(tx, id)
			}
			changed++
		}
	})
	s.logger.Debug("synced favorites", "checked", len(ids), "changed", changed)
	return changed, nil
}

// insertFavorite adds a favorite and shifts the saved-tracks offset so the next page does not repeat an item.
func insertFavorite(tx *store.Tx, id string) {
	if tx.IsFavorite(id) {
		return
	}
	tx.InsertFavorite(id)
	shiftPagination(tx, store.SavedTracks, 1)
}

func removeFavorite(tx *store.Tx, id string) {
	if !tx.IsFavorite(id) {
		return
	}
	tx.RemoveFavorite(id)
	shiftPagination(tx, store.SavedTracks, -1)
}

// shiftPagination moves a loaded offset collection's offset and total by delta after a local head insert or removal.
func shiftPagination(tx *store.Tx, c store.Collection, delta int) {
	p := tx.Pagination(c)
	if !p.IsLoaded {
		return
	}
	p.NextOffset = max(p.NextOffset+delta, 0)
	p.Total = max(p.Total+delta, 0)
	tx.SetPagination(c, p)
}

// commitFullTracks upserts album and artist summaries before the tracks that reference them.
func commitFullTracks(tx *store.Tx, full []spotify.FullTrack, tracks []models.Track) {
	tx.UpsertAlbums(mapper.AlbumsFromTracks(full))
	tx.UpsertArtists(mapper.ArtistsFromTracks(full))
	tx.UpsertTracks(tracks)
}
