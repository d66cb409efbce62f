package services

import (
	"context"

	"github.com/desertthunder/spotifly/internal/mapper"
	"github.com/desertthunder/spotifly/internal/models"
	"github.com/desertthunder/spotifly/internal/store"
)

// recentLimit is the most plays the recently-played endpoint returns.
const recentLimit = 50

// RecentlyPlayedService loads the recently-played list, most recent first with repeats collapsed.
type RecentlyPlayedService struct {
	base
}

func (s *RecentlyPlayedService) Load(ctx context.Context, force bool) error {
	return s.loader.load(ctx, store.RecentlyPlayed, modeFor(force), s.fetch)
}

func (s *RecentlyPlayedService) fetch(ctx context.Context, _ models.PaginationState) (page, error) {
	items, err := s.api.RecentlyPlayed(ctx, recentLimit)
	if err != nil {
		return page{}, err
	}

	seen := make(map[string]bool, len(items))
	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		t := mapper.TrackFromRecent(item)
		if t.ID == "" || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		tracks = append(tracks, t)
	}

	return page{
		ids: mapper.IDs(tracks),
		commit: func(tx *store.Tx) {
			for _, item := range items {
				tx.UpsertArtists(artistsFromCredits(item.Track.Artists))
			}
			tx.UpsertTracks(tracks)
		},
		pageLen: len(items),
		total:   len(tracks),
	}, nil
}
