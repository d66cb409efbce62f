package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotifly/internal/api"
	"github.com/desertthunder/spotifly/internal/mapper"
	"github.com/desertthunder/spotifly/internal/models"
	"github.com/desertthunder/spotifly/internal/store"
	"github.com/zmb3/spotify/v2"
)

// AlbumService loads saved albums and expands album track listings on demand.
type AlbumService struct {
	base
}

func (s *AlbumService) LoadSaved(ctx context.Context, force bool) error {
	return s.loader.load(ctx, store.SavedAlbums, modeFor(force), s.fetchSaved)
}

func (s *AlbumService) LoadMoreSaved(ctx context.Context) error {
	return s.loader.load(ctx, store.SavedAlbums, loadNext, s.fetchSaved)
}

func (s *AlbumService) LoadAllSaved(ctx context.Context) error {
	return s.loader.loadAll(ctx, store.SavedAlbums, s.fetchSaved)
}

func (s *AlbumService) fetchSaved(ctx context.Context, from models.PaginationState) (page, error) {
	resp, err := s.api.SavedAlbums(ctx, api.Page{Limit: s.pageSize, Offset: from.NextOffset})
	if err != nil {
		return page{}, err
	}

	albums := mapper.AlbumsFromSaved(resp.Albums)
	ids := make([]string, len(albums))
	for i, a := range albums {
		ids[i] = a.ID
	}
	return page{
		ids: ids,
		commit: func(tx *store.Tx) {
			for _, saved := range resp.Albums {
				tx.UpsertArtists(artistsFromCredits(saved.Artists))
			}
			tx.UpsertAlbums(albums)
		},
		pageLen: len(resp.Albums),
		hasMore: resp.Next != "",
		total:   int(resp.Total),
	}, nil
}

// Album returns the stored album, fetching it when missing. A fetched album whose embedded
// listing holds every track is stored expanded.
func (s *AlbumService) Album(ctx context.Context, id string) (models.Album, error) {
	if err := requireID(models.KindAlbum, id); err != nil {
		return models.Album{}, err
	}
	if a, ok := s.store.Album(id); ok {
		return a, nil
	}
	if err := s.fetchAlbum(ctx, id); err != nil {
		return models.Album{}, err
	}

	a, ok := s.store.Album(id)
	if !ok {
		return models.Album{}, fmt.Errorf("fetch album %s: %w", id, errMissingEntity(models.KindAlbum))
	}
	return a, nil
}

func (s *AlbumService) fetchAlbum(ctx context.Context, id string) error {
	commit, err := s.prepareAlbum(ctx, id)
	if err != nil {
		return err
	}
	s.store.Update(commit)
	return nil
}

// prepareAlbum fetches the album and returns its commit without applying it.
func (s *AlbumService) prepareAlbum(ctx context.Context, id string) (func(tx *store.Tx), error) {
	resp, err := s.api.Album(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch album %s: %w", id, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("fetch album %s: %w", id, errMissingEntity(models.KindAlbum))
	}

	album, tracks, complete := mapper.ExpandFullAlbum(*resp)
	return func(tx *store.Tx) {
		tx.UpsertArtists(artistsFromCredits(resp.Artists))
		tx.UpsertAlbum(album)
		if complete {
			tx.UpsertTracks(tracks)
			tx.SetAlbumTracks(album.ID, mapper.IDs(tracks))
		}
	}, nil
}

// LoadTracks expands the album with its full track listing. An expanded album is left alone unless force is set.
func (s *AlbumService) LoadTracks(ctx context.Context, id string, force bool) error {
	if err := requireID(models.KindAlbum, id); err != nil {
		return err
	}
	return s.loader.expand(ctx, "album-tracks:"+id, func(ctx context.Context) error {
		album, ok := s.store.Album(id)
		if ok && album.TracksLoaded() && !force {
			return nil
		}
		if !ok {
			if err := s.fetchAlbum(ctx, id); err != nil {
				return err
			}
			if album, ok = s.store.Album(id); !ok {
				return fmt.Errorf("fetch album %s: %w", id, errMissingEntity(models.KindAlbum))
			}
			if album.TracksLoaded() {
				return nil
			}
		}

		var raw []spotify.SimpleTrack
		tracks, err := collectPages(ctx, s.maxPages, func(ctx context.Context, offset int) ([]models.Track, int, bool, error) {
			resp, err := s.api.AlbumTracks(ctx, id, api.Page{Limit: s.pageSize, Offset: offset})
			if err != nil {
				return nil, 0, false, err
			}
			raw = append(raw, resp.Tracks...)
			return mapper.TracksFromAlbumItems(resp.Tracks, album), len(resp.Tracks), resp.Next != "", nil
		})
		if err != nil {
			s.logger.Warn("album track listing failed", "album", id, "error", err)
			return fmt.Errorf("load album tracks %s: %w", id, err)
		}

		s.store.Update(func(tx *store.Tx) {
			for _, t := range raw {
				tx.UpsertArtists(artistsFromCredits(t.Artists))
			}
			tx.UpsertTracks(tracks)
			tx.SetAlbumTracks(id, mapper.IDs(tracks))
		})
		s.logger.Debug("expanded album", "album", id, "tracks", len(tracks))
		return nil
	})
}

// Save adds the album to the library and to the head of saved albums. An album the store does not know
// is fetched first but only stored once the save succeeds.
func (s *AlbumService) Save(ctx context.Context, id string) error {
	if err := requireID(models.KindAlbum, id); err != nil {
		return err
	}
	var commit func(tx *store.Tx)
	if _, ok := s.store.Album(id); !ok {
		var err error
		if commit, err = s.prepareAlbum(ctx, id); err != nil {
			return err
		}
	}
	if err := s.api.SaveAlbums(ctx, id); err != nil {
		return fmt.Errorf("save album %s: %w", id, err)
	}
	s.store.Update(withCommit(commit, func(tx *store.Tx) { prependID(tx, store.SavedAlbums, id) }))
	s.opLogger("save-album").Info("saved album", "album", id)
	return nil
}

// Remove removes the album from the library and from saved albums.
func (s *AlbumService) Remove(ctx context.Context, id string) error {
	if err := requireID(models.KindAlbum, id); err != nil {
		return err
	}
	if err := s.api.RemoveSavedAlbums(ctx, id); err != nil {
		return fmt.Errorf("remove saved album %s: %w", id, err)
	}
	s.store.Update(func(tx *store.Tx) { dropID(tx, store.SavedAlbums, id) })
	s.opLogger("remove-album").Info("removed album", "album", id)
	return nil
}

func artistsFromCredits(credits []spotify.SimpleArtist) []models.Artist {
	out := make([]models.Artist, 0, len(credits))
	for _, a := range credits {
		if a.ID != "" {
			out = append(out, mapper.ArtistFromSimple(a))
		}
	}
	return out
}
