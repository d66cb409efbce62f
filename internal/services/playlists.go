package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/spotifly/internal/api"
	"github.com/desertthunder/spotifly/internal/mapper"
	"github.com/desertthunder/spotifly/internal/models"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/desertthunder/spotifly/internal/store"
	"github.com/zmb3/spotify/v2"
)

// PlaylistService loads the user's playlists and performs every playlist edit.
//
// Edits are pessimistic: the remote call runs first and the store is only touched after it succeeds.
type PlaylistService struct {
	base
	tracks *TrackService
}

func (s *PlaylistService) LoadOwned(ctx context.Context, force bool) error {
	return s.loader.load(ctx, store.OwnedPlaylists, modeFor(force), s.fetchOwned)
}

func (s *PlaylistService) LoadMoreOwned(ctx context.Context) error {
	return s.loader.load(ctx, store.OwnedPlaylists, loadNext, s.fetchOwned)
}

func (s *PlaylistService) LoadAllOwned(ctx context.Context) error {
	return s.loader.loadAll(ctx, store.OwnedPlaylists, s.fetchOwned)
}

func (s *PlaylistService) fetchOwned(ctx context.Context, from models.PaginationState) (page, error) {
	resp, err := s.api.UserPlaylists(ctx, api.Page{Limit: s.pageSize, Offset: from.NextOffset})
	if err != nil {
		return page{}, err
	}

	playlists := mapper.PlaylistsFromSimple(resp.Playlists)
	ids := make([]string, len(playlists))
	for i, p := range playlists {
		ids[i] = p.ID
	}
	return page{
		ids:     ids,
		commit:  func(tx *store.Tx) { tx.UpsertPlaylists(playlists) },
		pageLen: len(resp.Playlists),
		hasMore: resp.Next != "",
		total:   int(resp.Total),
	}, nil
}

// LoadTracks expands a stored playlist with its full track listing.
//
// Episodes, local files and removed tracks are skipped. An expanded playlist is left alone unless force is set.
func (s *PlaylistService) LoadTracks(ctx context.Context, id string, force bool) error {
	if err := requireID(models.KindPlaylist, id); err != nil {
		return err
	}
	return s.loader.expand(ctx, "playlist-tracks:"+id, func(ctx context.Context) error {
		p, ok := s.store.Playlist(id)
		if !ok {
			return fmt.Errorf("load playlist tracks %s: %w", id, shared.ErrNotFound)
		}
		if p.TracksLoaded() && !force {
			return nil
		}

		var full []spotify.FullTrack
		tracks, err := collectPages(ctx, s.maxPages, func(ctx context.Context, offset int) ([]models.Track, int, bool, error) {
			resp, err := s.api.PlaylistItems(ctx, id, api.Page{Limit: s.pageSize, Offset: offset})
			if err != nil {
				return nil, 0, false, err
			}
			for _, item := range resp.Items {
				if _, ok := mapper.TrackFromPlaylistItem(item); ok {
					full = append(full, *item.Track.Track)
				}
			}
			return mapper.TracksFromPlaylistItems(resp.Items), len(resp.Items), resp.Next != "", nil
		})
		if err != nil {
			s.logger.Warn("playlist track listing failed", "playlist", id, "error", err)
			return fmt.Errorf("load playlist tracks %s: %w", id, err)
		}

		s.store.Update(func(tx *store.Tx) {
			commitFullTracks(tx, full, tracks)
			tx.SetPlaylistTracks(id, mapper.IDs(tracks))
		})
		s.logger.Debug("expanded playlist", "playlist", id, "tracks", len(tracks))
		return nil
	})
}

// Create creates a playlist for the current user and puts it at the head of owned playlists.
func (s *PlaylistService) Create(ctx context.Context, name, description string, public bool) (models.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Playlist{}, fmt.Errorf("%w: playlist name is empty", shared.ErrInvalidRequest)
	}
	logger := s.opLogger("create-playlist")

	resp, err := s.api.CreatePlaylist(ctx, name, description, public)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("create playlist %q: %w", name, err)
	}

	created := mapper.PlaylistFromFull(*resp)
	s.store.Update(func(tx *store.Tx) {
		tx.UpsertPlaylist(created)
		prependID(tx, store.OwnedPlaylists, created.ID)
	})
	logger.Info("created playlist", "playlist", created.ID, "name", name, "visibility", shared.VisibilityString(public))

	p, ok := s.store.Playlist(created.ID)
	if !ok {
		return models.Playlist{}, fmt.Errorf("create playlist %q: %w", name, errMissingEntity(models.KindPlaylist))
	}
	return p, nil
}

func (s *PlaylistService) Rename(ctx context.Context, id, name string) error {
	if err := requireID(models.KindPlaylist, id); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: playlist name is empty", shared.ErrInvalidRequest)
	}

	if err := s.api.RenamePlaylist(ctx, id, name); err != nil {
		return fmt.Errorf("rename playlist %s: %w", id, err)
	}
	s.store.RenamePlaylist(id, name)
	s.opLogger("rename-playlist").Info("renamed playlist", "playlist", id, "name", name)
	return nil
}

// Delete unfollows the playlist and removes it from owned playlists.
func (s *PlaylistService) Delete(ctx context.Context, id string) error {
	if err := requireID(models.KindPlaylist, id); err != nil {
		return err
	}
	if err := s.api.DeletePlaylist(ctx, id); err != nil {
		return fmt.Errorf("delete playlist %s: %w", id, err)
	}

	s.store.Update(func(tx *store.Tx) {
		listed := slices.Contains(tx.IDs(store.OwnedPlaylists), id)
		tx.DeletePlaylist(id)
		if listed {
			shiftPagination(tx, store.OwnedPlaylists, -1)
		}
	})
	s.opLogger("delete-playlist").Info("deleted playlist", "playlist", id)
	return nil
}

// AddTrack appends the track to the playlist. A track the store does not know is fetched first and stored
// together with the append.
func (s *PlaylistService) AddTrack(ctx context.Context, id, trackID string) error {
	if err := requireID(models.KindPlaylist, id); err != nil {
		return err
	}
	commit, err := s.tracks.prepareTrack(ctx, trackID)
	if err != nil {
		return err
	}

	snapshot, err := s.api.AddPlaylistTracks(ctx, id, trackID)
	if err != nil {
		return fmt.Errorf("add track %s to playlist %s: %w", trackID, id, err)
	}
	s.store.Update(withCommit(commit, func(tx *store.Tx) {
		tx.MutatePlaylistTracks(id, store.Append(trackID))
		tx.SetPlaylistSnapshot(id, snapshot)
	}))
	s.opLogger("add-playlist-track").Info("added track", "playlist", id, "track", trackID)
	return nil
}

// RemoveTrack removes every occurrence of the track from the playlist.
func (s *PlaylistService) RemoveTrack(ctx context.Context, id, trackID string) error {
	if err := requireID(models.KindPlaylist, id); err != nil {
		return err
	}
	if err := requireID(models.KindTrack, trackID); err != nil {
		return err
	}

	snapshot, err := s.api.RemovePlaylistTracks(ctx, id, trackID)
	if err != nil {
		return fmt.Errorf("remove track %s from playlist %s: %w", trackID, id, err)
	}
	s.store.Update(func(tx *store.Tx) {
		tx.MutatePlaylistTracks(id, store.Remove(trackID))
		tx.SetPlaylistSnapshot(id, snapshot)
	})
	s.opLogger("remove-playlist-track").Info("removed track", "playlist", id, "track", trackID)
	return nil
}

// Reorder moves the item at index from so it ends up at index to.
func (s *PlaylistService) Reorder(ctx context.Context, id string, from, to int) error {
	if err := requireID(models.KindPlaylist, id); err != nil {
		return err
	}
	p, ok := s.store.Playlist(id)
	if !ok {
		return fmt.Errorf("reorder playlist %s: %w", id, shared.ErrNotFound)
	}
	if n := p.TrackCount(); from < 0 || to < 0 || from >= n || to >= n {
		return fmt.Errorf("%w: reorder %d → %d out of range for %d tracks", shared.ErrInvalidRequest, from, to, n)
	}
	if from == to {
		return nil
	}

	insertBefore := to
	if to > from {
		insertBefore = to + 1
	}
	snapshot, err := s.api.ReorderPlaylistTracks(ctx, id, from, insertBefore)
	if err != nil {
		return fmt.Errorf("reorder playlist %s: %w", id, err)
	}
	s.store.Update(func(tx *store.Tx) {
		tx.MutatePlaylistTracks(id, store.Reorder(from, to))
		tx.SetPlaylistSnapshot(id, snapshot)
	})
	s.opLogger("reorder-playlist").Info("reordered playlist", "playlist", id, "from", from, "to", to)
	return nil
}
