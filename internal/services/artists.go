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

// ArtistService loads followed artists (cursor paged) and top artists.
type ArtistService struct {
	base
}

func (s *ArtistService) LoadFollowed(ctx context.Context, force bool) error {
	return s.loader.load(ctx, store.FollowedArtists, modeFor(force), s.fetchFollowed)
}

func (s *ArtistService) LoadMoreFollowed(ctx context.Context) error {
	return s.loader.load(ctx, store.FollowedArtists, loadNext, s.fetchFollowed)
}

func (s *ArtistService) LoadAllFollowed(ctx context.Context) error {
	return s.loader.loadAll(ctx, store.FollowedArtists, s.fetchFollowed)
}

func (s *ArtistService) LoadTop(ctx context.Context, force bool) error {
	return s.loader.load(ctx, store.TopArtists, modeFor(force), s.fetchTop)
}

func (s *ArtistService) LoadMoreTop(ctx context.Context) error {
	return s.loader.load(ctx, store.TopArtists, loadNext, s.fetchTop)
}

func (s *ArtistService) fetchFollowed(ctx context.Context, from models.PaginationState) (page, error) {
	resp, err := s.api.FollowedArtists(ctx, s.pageSize, from.NextCursor)
	if err != nil {
		return page{}, err
	}
	return artistPage(resp.Artists, resp.Cursor.After != "", int(resp.Total), resp.Cursor.After), nil
}

func (s *ArtistService) fetchTop(ctx context.Context, from models.PaginationState) (page, error) {
	resp, err := s.api.TopArtists(ctx, api.Page{Limit: s.pageSize, Offset: from.NextOffset})
	if err != nil {
		return page{}, err
	}
	return artistPage(resp.Artists, resp.Next != "", int(resp.Total), ""), nil
}

func artistPage(items []spotify.FullArtist, hasMore bool, total int, cursor string) page {
	artists := mapper.ArtistsFromFull(items)
	ids := make([]string, len(artists))
	for i, a := range artists {
		ids[i] = a.ID
	}
	return page{
		ids:     ids,
		commit:  func(tx *store.Tx) { tx.UpsertArtists(artists) },
		pageLen: len(items),
		hasMore: hasMore,
		total:   total,
		cursor:  cursor,
	}
}

// Artist returns the stored artist. Artists only known from a track credit are fetched in full.
func (s *ArtistService) Artist(ctx context.Context, id string) (models.Artist, error) {
	if err := requireID(models.KindArtist, id); err != nil {
		return models.Artist{}, err
	}
	if a, ok := s.store.Artist(id); ok && a.Followers >= 0 {
		return a, nil
	}

	resp, err := s.api.Artist(ctx, id)
	if err != nil {
		return models.Artist{}, fmt.Errorf("fetch artist %s: %w", id, err)
	}
	s.store.UpsertArtist(mapper.ArtistFromFull(*resp))

	a, ok := s.store.Artist(id)
	if !ok {
		return models.Artist{}, fmt.Errorf("fetch artist %s: %w", id, errMissingEntity(models.KindArtist))
	}
	return a, nil
}

// TopTracks fetches the artist's most popular tracks.
func (s *ArtistService) TopTracks(ctx context.Context, id string) ([]models.Track, error) {
	if err := requireID(models.KindArtist, id); err != nil {
		return nil, err
	}
	resp, err := s.api.ArtistTopTracks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch artist top tracks %s: %w", id, err)
	}

	tracks := mapper.TracksFromFull(resp)
	s.store.Update(func(tx *store.Tx) { commitFullTracks(tx, resp, tracks) })

	out := make([]models.Track, 0, len(tracks))
	for _, t := range tracks {
		if stored, ok := s.store.Track(t.ID); ok {
			out = append(out, stored)
		}
	}
	return out, nil
}
