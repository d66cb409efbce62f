package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/spotifly/internal/formatter"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/desertthunder/spotifly/internal/store"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format (default: json)
	OutputDir  string           // Base output directory (default: spotifly_export_{epoch})
	NumWorkers int              // Concurrent writers (default: 4, max: 10)
	RateLimit  float64          // Playlist fetches per second (default: 10)
	Force      bool             // Refetch listings that are already loaded
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   string
	PlaylistName string
	Tracks       int
	Success      bool
	Files        []string
	Error        error
}

// BulkExportResult summarises a bulk export.
type BulkExportResult struct {
	TotalPlaylists    int
	SuccessfulExports int
	FailedExports     int
	Results           []PlaylistExportResult
	OutputDirectory   string
	ManifestPath      string
}

type playlistExportJob struct {
	playlistID string
	export     *formatter.PlaylistExport
}

// BulkExport writes playlists to opts.OutputDir with a pool of workers and a manifest summarising the run.
//
// Listings are fetched through the playlist service, so playlists already expanded in the store are not
// refetched. With no ids every owned playlist is exported. A playlist that fails to fetch or write is
// recorded in the result and does not stop the others.
func (e *LibraryEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	ids []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if len(ids) == 0 {
		if err := e.services.Playlists.LoadAllOwned(ctx); err != nil {
			return nil, fmt.Errorf("failed to list playlists: %w", err)
		}
		ids = e.store.IDs(store.OwnedPlaylists)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("spotifly_export_%d", time.Now().Unix())
	}
	opts.NumWorkers = clampWorkers(opts.NumWorkers)
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan playlistExportJob, len(ids))
	results := make(chan PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, playlistID := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			e.sendProgress(prog, fetchingPlaylistUpdate(i+1, len(ids), playlistID))
			export, err := e.playlistExport(ctx, playlistID, opts.Force)
			if err != nil {
				results <- PlaylistExportResult{
					PlaylistID:   playlistID,
					PlaylistName: fmt.Sprintf("Unknown (%s)", playlistID),
					Error:        fmt.Errorf("failed to fetch playlist: %w", err),
				}
				continue
			}
			jobs <- playlistExportJob{playlistID: playlistID, export: export}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.PlaylistName, len(res.Files)))
		} else {
			result.FailedExports++
			e.logger.Warn("playlist export failed", "playlist", res.PlaylistID, "error", res.Error)
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res.PlaylistName, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	e.sendProgress(prog, manifestUpdate(manifestPath))
	if err := formatter.WriteManifest(manifestFor(result, opts.Format), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.logger.Info("bulk export finished", "dir", opts.OutputDir, "ok", result.SuccessfulExports, "failed", result.FailedExports)
	return result, nil
}

// playlistExport expands the playlist and reads it back from the store.
func (e *LibraryEngine) playlistExport(ctx context.Context, id string, force bool) (*formatter.PlaylistExport, error) {
	if _, ok := e.store.Playlist(id); !ok {
		if err := e.services.Playlists.LoadAllOwned(ctx); err != nil {
			return nil, err
		}
	}
	if err := e.services.Playlists.LoadTracks(ctx, id, force); err != nil {
		return nil, err
	}
	p, ok := e.store.Playlist(id)
	if !ok {
		return nil, fmt.Errorf("playlist %s: %w", id, shared.ErrNotFound)
	}
	return &formatter.PlaylistExport{Playlist: p, Tracks: e.store.PlaylistTracks(id)}, nil
}

func (e *LibraryEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan playlistExportJob,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		res := PlaylistExportResult{
			PlaylistID:   job.playlistID,
			PlaylistName: job.export.Playlist.Name,
			Tracks:       len(job.export.Tracks),
		}
		if err := ctx.Err(); err != nil {
			res.Error = err
			results <- res
			continue
		}

		files, err := formatter.WritePlaylistExport(ctx, job.export, opts.Format, opts.OutputDir)
		if err != nil {
			res.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		} else {
			res.Files = files
			res.Success = true
		}
		results <- res
	}
}

func manifestFor(r *BulkExportResult, format formatter.Format) formatter.Manifest {
	m := formatter.Manifest{
		Format:            format,
		ExportedAt:        time.Now().UTC(),
		TotalPlaylists:    r.TotalPlaylists,
		SuccessfulExports: r.SuccessfulExports,
		FailedExports:     r.FailedExports,
		Playlists:         make([]formatter.ManifestEntry, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		entry := formatter.ManifestEntry{
			PlaylistID:   res.PlaylistID,
			PlaylistName: res.PlaylistName,
			Status:       "success",
			Tracks:       res.Tracks,
			Files:        res.Files,
		}
		if !res.Success {
			entry.Status = "failed"
			if res.Error != nil {
				entry.Error = res.Error.Error()
			}
		}
		m.Playlists = append(m.Playlists, entry)
	}
	return m
}
