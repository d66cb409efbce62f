package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spotifly/internal/formatter"
	"github.com/desertthunder/spotifly/internal/models"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/desertthunder/spotifly/internal/store"
	"github.com/desertthunder/spotifly/internal/tasks"
	"github.com/urfave/cli/v3"
)

// idArg reads an ID argument, accepting a bare ID, a spotify: URI or an open.spotify.com link.
func idArg(cmd *cli.Command, name string, kind models.Kind) (string, error) {
	raw := strings.TrimSpace(cmd.StringArg(name))
	if raw == "" {
		return "", fmt.Errorf("%w: <%s> is required", shared.ErrMissingArgument, name)
	}
	if !strings.ContainsAny(raw, ":/") {
		return raw, nil
	}
	uri, err := models.ParseURI(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	if uri.Kind != string(kind) {
		return "", fmt.Errorf("%w: expected a %s, got a %s", shared.ErrInvalidArgument, kind, uri.Kind)
	}
	return uri.ID, nil
}

// positionArg reads a 1-based position argument and returns it 0-based.
func positionArg(cmd *cli.Command, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(cmd.StringArg(name)))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: <%s> must be a position starting at 1", shared.ErrInvalidArgument, name)
	}
	return n - 1, nil
}

// loadCollection loads the first page (refreshing with --force) and, with --all, every remaining page.
func loadCollection(ctx context.Context, cmd *cli.Command, first func(context.Context, bool) error, all func(context.Context) error) error {
	if err := first(ctx, cmd.Bool("force")); err != nil {
		return err
	}
	if all != nil && cmd.Bool("all") {
		return all(ctx)
	}
	return nil
}

// footer notes how much of a collection is loaded when more pages exist.
func (r *Runner) footer(cmd *cli.Command, c store.Collection) error {
	if r.structured(cmd) {
		return nil
	}
	p := r.store.Pagination(c)
	if !p.HasMore {
		return nil
	}
	return r.writePlain("%s\n", formatter.Muted(fmt.Sprintf("Showing %d of %d. Use --all to load everything.", r.store.Len(c), p.Total)))
}

func (r *Runner) listTracks(cmd *cli.Command, c store.Collection) error {
	if err := r.render(cmd, formatter.TrackTable(r.store.Tracks(c), r.store.IsFavorite), r.store.Tracks(c)); err != nil {
		return err
	}
	return r.footer(cmd, c)
}

// TracksSaved lists saved tracks.
func (r *Runner) TracksSaved(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if err := loadCollection(ctx, cmd, svc.Tracks.LoadSaved, svc.Tracks.LoadAllSaved); err != nil {
		return err
	}
	return r.listTracks(cmd, store.SavedTracks)
}

// TracksTop lists the user's top tracks.
func (r *Runner) TracksTop(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if err := loadCollection(ctx, cmd, svc.Tracks.LoadTop, nil); err != nil {
		return err
	}
	return r.listTracks(cmd, store.TopTracks)
}

// TracksFavorite toggles a track's saved state.
func (r *Runner) TracksFavorite(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "track", models.KindTrack)
	if err != nil {
		return err
	}
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}

	saved, err := svc.Tracks.ToggleFavorite(ctx, id)
	if err != nil {
		return err
	}
	track, _ := r.store.Track(id)

	if r.structured(cmd) {
		return r.writeJSON(map[string]any{"track": track, "saved": saved}, cmd.Bool("pretty"))
	}
	if saved {
		return r.writePlain("%s\n", formatter.OK("♥ Saved "+track.Name))
	}
	return r.writePlain("%s\n", formatter.OK("Removed "+track.Name+" from saved tracks"))
}

// AlbumsSaved lists saved albums.
func (r *Runner) AlbumsSaved(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if err := loadCollection(ctx, cmd, svc.Albums.LoadSaved, svc.Albums.LoadAllSaved); err != nil {
		return err
	}
	albums := r.store.Albums(store.SavedAlbums)
	if err := r.render(cmd, formatter.AlbumTable(albums), albums); err != nil {
		return err
	}
	return r.footer(cmd, store.SavedAlbums)
}

// AlbumTracks lists an album's tracks.
func (r *Runner) AlbumTracks(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "album", models.KindAlbum)
	if err != nil {
		return err
	}
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if err := svc.Albums.LoadTracks(ctx, id, cmd.Bool("force")); err != nil {
		return err
	}

	album, _ := r.store.Album(id)
	tracks := r.store.AlbumTracks(id)
	if !r.structured(cmd) {
		r.writePlain("%s\n", formatter.Title(fmt.Sprintf("%s · %s · %s", album.Name, album.ArtistName, album.FormattedDuration())))
	}
	return r.render(cmd, formatter.TrackTable(tracks, r.store.IsFavorite), struct {
		Album  models.Album   `json:"album"`
		Tracks []models.Track `json:"tracks"`
	}{album, tracks})
}

// AlbumSave saves an album to the library.
func (r *Runner) AlbumSave(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "album", models.KindAlbum)
	if err != nil {
		return err
	}
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if err := svc.Albums.Save(ctx, id); err != nil {
		return err
	}
	album, _ := r.store.Album(id)
	return r.writePlain("%s\n", formatter.OK("✓ Saved "+album.Name))
}

// AlbumRemove removes an album from the library.
func (r *Runner) AlbumRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "album", models.KindAlbum)
	if err != nil {
		return err
	}
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if err := svc.Albums.Remove(ctx, id); err != nil {
		return err
	}
	return r.writePlain("%s\n", formatter.OK("✓ Removed album "+id))
}

// ArtistsFollowed lists followed artists.
func (r *Runner) ArtistsFollowed(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if err := loadCollection(ctx, cmd, svc.Artists.LoadFollowed, svc.Artists.LoadAllFollowed); err != nil {
		return err
	}
	artists := r.store.Artists(store.FollowedArtists)
	if err := r.render(cmd, formatter.ArtistTable(artists), artists); err != nil {
		return err
	}
	return r.footer(cmd, store.FollowedArtists)
}

// ArtistsTop lists the user's top artists.
func (r *Runner) ArtistsTop(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if err := loadCollection(ctx, cmd, svc.Artists.LoadTop, nil); err != nil {
		return err
	}
	artists := r.store.Artists(store.TopArtists)
	return r.render(cmd, formatter.ArtistTable(artists), artists)
}

// ArtistTopTracks lists an artist's most popular tracks.
func (r *Runner) ArtistTopTracks(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "artist", models.KindArtist)
	if err != nil {
		return err
	}
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	tracks, err := svc.Artists.TopTracks(ctx, id)
	if err != nil {
		return err
	}
	return r.render(cmd, formatter.TrackTable(tracks, r.store.IsFavorite), tracks)
}

// LibrarySync loads the whole library and prints a summary.
func (r *Runner) LibrarySync(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(ctx)
	if err != nil {
		return err
	}

	workers := cmd.Int("workers")
	if workers <= 0 {
		workers = r.config.Store.SyncWorkers
	}

	progress, wait := r.progress(cmd)
	result, err := engine.Sync(ctx, progress, tasks.SyncOpts{
		Force:      cmd.Bool("force"),
		Albums:     cmd.Bool("albums"),
		NumWorkers: workers,
		RateLimit:  r.config.API.RequestsPerSecond,
	})
	wait()
	if err != nil {
		return err
	}

	if r.structured(cmd) {
		return r.writeJSON(syncSummary(result), cmd.Bool("pretty"))
	}

	s := result.Stats
	r.writePlainln("%s", formatter.Title("Library synced"))
	r.writePlain("Tracks: %d  Albums: %d  Artists: %d  Playlists: %d  Saved: %d\n", s.Tracks, s.Albums, s.Artists, s.Playlists, s.Favorites)
	r.writePlain("Elapsed: %s\n", result.Elapsed.Round(time.Millisecond))
	if n := result.Failed(); n > 0 {
		return r.writePlain("%s\n", formatter.Err(fmt.Sprintf("%d collections or listings failed; see the log above", n)))
	}
	return nil
}

type syncReport struct {
	Collections map[string]int `json:"collections"`
	Playlists   int            `json:"playlists_expanded"`
	Albums      int            `json:"albums_expanded"`
	Failures    []string       `json:"failures,omitempty"`
	Stats       store.Stats    `json:"stats"`
	ElapsedMs   int64          `json:"elapsed_ms"`
}

func syncSummary(res *tasks.SyncResult) syncReport {
	rep := syncReport{Collections: map[string]int{}, Stats: res.Stats, ElapsedMs: res.Elapsed.Milliseconds()}
	for _, c := range res.Collections {
		rep.Collections[c.Collection.String()] = c.Count
		if c.Err != nil {
			rep.Failures = append(rep.Failures, fmt.Sprintf("%s: %v", c.Collection, c.Err))
		}
	}
	for _, items := range []struct {
		list  []tasks.ItemResult
		count *int
	}{{res.Playlists, &rep.Playlists}, {res.Albums, &rep.Albums}} {
		for _, it := range items.list {
			if it.Err != nil {
				rep.Failures = append(rep.Failures, fmt.Sprintf("%s: %v", it.Name, it.Err))
				continue
			}
			*items.count++
		}
	}
	return rep
}

// LibraryExport writes playlists to a directory.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("as"))
	if err != nil {
		return err
	}
	engine, err := r.engine(ctx)
	if err != nil {
		return err
	}

	progress, wait := r.progress(cmd)
	result, err := engine.BulkExport(ctx, progress, cmd.Args().Slice(), tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  r.config.API.RequestsPerSecond,
	})
	wait()
	if err != nil {
		return err
	}

	r.writePlainln("%s", formatter.Title("Export complete"))
	r.writePlain("Exported: %d/%d\n", result.SuccessfulExports, result.TotalPlaylists)
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	return r.writePlain("Manifest: %s\n", result.ManifestPath)
}

// progress returns a channel that prints task updates and a function that waits for it to drain.
func (r *Runner) progress(cmd *cli.Command) (chan<- tasks.ProgressUpdate, func()) {
	ch := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	quiet := r.structured(cmd)

	go func() {
		defer close(done)
		for u := range ch {
			if quiet {
				r.logger.Debug(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
				continue
			}
			r.writePlain("[%s %d/%d] %s\n", u.Phase, u.Step, u.Total, u.Message)
		}
	}()

	return ch, func() {
		close(ch)
		<-done
	}
}
