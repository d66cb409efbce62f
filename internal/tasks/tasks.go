// package tasks runs long library operations on top of the services layer.
package tasks

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifly/internal/services"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/desertthunder/spotifly/internal/store"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 10
	defaultRateLimit = 10.0
)

// SyncEngine defines the library-wide operations.
type SyncEngine interface {
	Sync(ctx context.Context, progress chan<- ProgressUpdate, opts SyncOpts) (*SyncResult, error)
	BulkExport(ctx context.Context, progress chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error)
}

// SyncOpts configures [LibraryEngine.Sync].
type SyncOpts struct {
	Force      bool    // Refetch collections and listings that are already loaded
	Albums     bool    // Also expand every saved album
	NumWorkers int     // Concurrent expansions (default: 4, max: 10)
	RateLimit  float64 // Expansions started per second (default: 10)
}

func (o SyncOpts) withDefaults() SyncOpts {
	o.NumWorkers = clampWorkers(o.NumWorkers)
	if o.RateLimit <= 0 {
		o.RateLimit = defaultRateLimit
	}
	return o
}

func clampWorkers(n int) int {
	if n <= 0 {
		return defaultWorkers
	}
	return min(n, maxWorkers)
}

// CollectionResult is the outcome of loading one user collection.
type CollectionResult struct {
	Collection store.Collection
	Count      int // IDs held after the load
	Err        error
}

// ItemResult is the outcome of expanding one playlist or album.
type ItemResult struct {
	ID     string
	Name   string
	Tracks int
	Err    error
}

// SyncResult summarises a library sync.
type SyncResult struct {
	Collections []CollectionResult
	Playlists   []ItemResult
	Albums      []ItemResult
	Stats       store.Stats
	Elapsed     time.Duration
}

// Failed counts the collections and listings that could not be loaded.
func (r *SyncResult) Failed() int {
	n := 0
	for _, c := range r.Collections {
		if c.Err != nil {
			n++
		}
	}
	for _, items := range [][]ItemResult{r.Playlists, r.Albums} {
		for _, it := range items {
			if it.Err != nil {
				n++
			}
		}
	}
	return n
}

// LibraryEngine implements [SyncEngine] over a [services.Services] and the store it writes to.
type LibraryEngine struct {
	services *services.Services
	store    *store.Store
	logger   *log.Logger
}

// NewLibraryEngine creates a new [LibraryEngine]. The logger defaults to [shared.NewLogger].
func NewLibraryEngine(svc *services.Services, st *store.Store, logger *log.Logger) (*LibraryEngine, error) {
	if svc == nil || st == nil {
		return nil, fmt.Errorf("%w: services and store are required", shared.ErrMissingArgument)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LibraryEngine{services: svc, store: st, logger: shared.WithLogger(logger, "task", "library")}, nil
}

// sendProgress sends a progress update through the channel without blocking.
func (e *LibraryEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

type collectionLoad struct {
	collection store.Collection
	load       func(ctx context.Context, force bool) error
}

// loadThrough refreshes the first page when forced and then follows every remaining page.
func loadThrough(first func(context.Context, bool) error, rest func(context.Context) error) func(context.Context, bool) error {
	return func(ctx context.Context, force bool) error {
		if force {
			if err := first(ctx, true); err != nil {
				return err
			}
		}
		return rest(ctx)
	}
}

func (e *LibraryEngine) collectionLoads() []collectionLoad {
	s := e.services
	return []collectionLoad{
		{store.SavedTracks, loadThrough(s.Tracks.LoadSaved, s.Tracks.LoadAllSaved)},
		{store.OwnedPlaylists, loadThrough(s.Playlists.LoadOwned, s.Playlists.LoadAllOwned)},
		{store.SavedAlbums, loadThrough(s.Albums.LoadSaved, s.Albums.LoadAllSaved)},
		{store.FollowedArtists, loadThrough(s.Artists.LoadFollowed, s.Artists.LoadAllFollowed)},
		{store.TopArtists, s.Artists.LoadTop},
		{store.TopTracks, s.Tracks.LoadTop},
		{store.RecentlyPlayed, s.Recent.Load},
	}
}

// Sync loads every user collection concurrently, then expands owned playlists (and optionally saved
// albums) with a bounded, rate-limited worker pool.
//
// A failed collection or listing is recorded in the result and does not stop the others. The returned
// error is non-nil only when ctx ends before the sync completes.
func (e *LibraryEngine) Sync(ctx context.Context, progress chan<- ProgressUpdate, opts SyncOpts) (*SyncResult, error) {
	start := time.Now()
	opts = opts.withDefaults()
	logger := e.logger.With("op_id", shared.GenerateID())
	logger.Info("library sync started", "force", opts.Force, "albums", opts.Albums, "workers", opts.NumWorkers)

	result := &SyncResult{Collections: e.loadCollections(ctx, progress, opts.Force)}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	result.Playlists = e.expandAll(ctx, progress, ExpandPlaylists, e.store.IDs(store.OwnedPlaylists), opts.NumWorkers, limiter,
		func(ctx context.Context, id string) ItemResult {
			err := e.services.Playlists.LoadTracks(ctx, id, opts.Force)
			p, _ := e.store.Playlist(id)
			return ItemResult{ID: id, Name: cmp.Or(p.Name, id), Tracks: p.TrackCount(), Err: err}
		})

	if opts.Albums {
		result.Albums = e.expandAll(ctx, progress, ExpandAlbums, e.store.IDs(store.SavedAlbums), opts.NumWorkers, limiter,
			func(ctx context.Context, id string) ItemResult {
				err := e.services.Albums.LoadTracks(ctx, id, opts.Force)
				a, _ := e.store.Album(id)
				return ItemResult{ID: id, Name: cmp.Or(a.Name, id), Tracks: a.TrackCount(), Err: err}
			})
	}

	result.Stats = e.store.Stats()
	result.Elapsed = time.Since(start)
	if err := ctx.Err(); err != nil {
		return result, err
	}

	logger.Info("library sync finished",
		"tracks", result.Stats.Tracks,
		"albums", result.Stats.Albums,
		"artists", result.Stats.Artists,
		"playlists", result.Stats.Playlists,
		"failed", result.Failed(),
		"elapsed", result.Elapsed.Round(time.Millisecond),
	)
	return result, nil
}

func (e *LibraryEngine) loadCollections(ctx context.Context, progress chan<- ProgressUpdate, force bool) []CollectionResult {
	loads := e.collectionLoads()
	results := make([]CollectionResult, len(loads))
	e.sendProgress(progress, loadingCollectionsUpdate(len(loads)))

	var done atomic.Int32
	var g errgroup.Group
	for i, l := range loads {
		g.Go(func() error {
			err := l.load(ctx, force)
			res := CollectionResult{Collection: l.collection, Count: e.store.Len(l.collection), Err: err}
			if err != nil {
				e.logger.Warn("collection load failed", "collection", l.collection, "error", err)
			}
			results[i] = res
			e.sendProgress(progress, collectionLoadedUpdate(int(done.Add(1)), len(loads), res))
			return nil
		})
	}
	g.Wait()
	return results
}

// expandAll runs fn for every id on a pool of workers, starting at most one call per limiter token.
// Results come back in the order of ids.
func (e *LibraryEngine) expandAll(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	phase Phase,
	ids []string,
	workers int,
	limiter *rate.Limiter,
	fn func(ctx context.Context, id string) ItemResult,
) []ItemResult {
	if len(ids) == 0 {
		return nil
	}

	jobs := make(chan string, len(ids))
	results := make(chan ItemResult, len(ids))

	var wg sync.WaitGroup
	for range min(workers, len(ids)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					results <- ItemResult{ID: id, Name: id, Err: err}
					continue
				}
				results <- fn(ctx, id)
			}
		}()
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]ItemResult, 0, len(ids))
	for res := range results {
		out = append(out, res)
		e.sendProgress(progress, expandedUpdate(phase, len(out), len(ids), res))
	}

	order := make(map[string]int, len(ids))
	for i, id := range ids {
		order[id] = i
	}
	slices.SortFunc(out, func(a, b ItemResult) int { return order[a.ID] - order[b.ID] })
	return out
}
