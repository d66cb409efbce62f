package services

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifly/internal/api"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/desertthunder/spotifly/internal/store"
)

const (
	defaultPageSize    = 50
	defaultSearchLimit = 20
	membershipBatch    = 50
)

// Deps are the collaborators shared by every service.
type Deps struct {
	API         api.Client
	Store       *store.Store
	Logger      *log.Logger
	PageSize    int // items per collection page, 1..50
	MaxPages    int // page cap for load-all operations; 0 means unbounded
	SearchLimit int // results per search type
}

// Services groups one service per resource family over a shared store and loader.
type Services struct {
	Tracks    *TrackService
	Albums    *AlbumService
	Artists   *ArtistService
	Playlists *PlaylistService
	Search    *SearchService
	Recent    *RecentlyPlayedService
	Playback  *PlaybackService
}

// base carries what every service needs.
type base struct {
	api      api.Client
	store    *store.Store
	logger   *log.Logger
	loader   *loader
	pageSize int
	maxPages int
}

// opLogger returns a child logger tagged with a fresh operation id.
func (b *base) opLogger(op string) *log.Logger {
	return b.logger.With("op", op, "op_id", shared.GenerateID())
}

// New wires every service from deps.
func New(deps Deps) (*Services, error) {
	if deps.API == nil {
		return nil, fmt.Errorf("%w: api client is required", shared.ErrMissingArgument)
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("%w: store is required", shared.ErrMissingArgument)
	}
	if deps.Logger == nil {
		deps.Logger = shared.NewLogger(nil)
	}
	if deps.PageSize <= 0 || deps.PageSize > 50 {
		deps.PageSize = defaultPageSize
	}
	if deps.SearchLimit <= 0 || deps.SearchLimit > 50 {
		deps.SearchLimit = defaultSearchLimit
	}

	ld := &loader{store: deps.Store, logger: shared.WithLogger(deps.Logger, "component", "loader"), maxPages: deps.MaxPages}
	newBase := func(name string) base {
		return base{
			api:      deps.API,
			store:    deps.Store,
			logger:   shared.WithLogger(deps.Logger, "service", name),
			loader:   ld,
			pageSize: deps.PageSize,
			maxPages: deps.MaxPages,
		}
	}

	tracks := &TrackService{base: newBase("tracks")}
	return &Services{
		Tracks:    tracks,
		Albums:    &AlbumService{base: newBase("albums")},
		Artists:   &ArtistService{base: newBase("artists")},
		Playlists: &PlaylistService{base: newBase("playlists"), tracks: tracks},
		Search:    &SearchService{base: newBase("search"), limit: deps.SearchLimit},
		Recent:    &RecentlyPlayedService{base: newBase("recent")},
		Playback:  &PlaybackService{base: newBase("playback"), tracks: tracks},
	}, nil
}
