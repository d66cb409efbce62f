package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/spotifly/internal/formatter"
	"github.com/desertthunder/spotifly/internal/models"
	"github.com/desertthunder/spotifly/internal/services"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/desertthunder/spotifly/internal/store"
	"github.com/sahilm/fuzzy"
	"github.com/urfave/cli/v3"
)

// Search queries the catalog and prints a table per requested kind.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("%w: <query> is required", shared.ErrMissingArgument)
	}

	kinds := make([]models.Kind, 0, 4)
	for _, t := range cmd.StringSlice("type") {
		switch k := models.Kind(strings.ToLower(strings.TrimSuffix(t, "s"))); k {
		case models.KindTrack, models.KindAlbum, models.KindArtist, models.KindPlaylist:
			kinds = append(kinds, k)
		default:
			return fmt.Errorf("%w: unknown search type %q", shared.ErrInvalidArgument, t)
		}
	}
	if len(kinds) == 0 {
		kinds = []models.Kind{models.KindTrack, models.KindAlbum, models.KindArtist, models.KindPlaylist}
	}

	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if err := svc.Search.Search(ctx, query, kinds...); err != nil {
		return err
	}

	results := map[models.Kind]any{}
	for _, k := range kinds {
		switch k {
		case models.KindTrack:
			results[k] = r.store.Tracks(store.SearchTracks)
		case models.KindAlbum:
			results[k] = r.store.Albums(store.SearchAlbums)
		case models.KindArtist:
			results[k] = r.store.Artists(store.SearchArtists)
		case models.KindPlaylist:
			results[k] = r.store.Playlists(store.SearchPlaylists)
		}
	}
	if r.structured(cmd) {
		if opts, _ := r.renderOptions(cmd); opts.Format == formatter.FormatJSON {
			return r.writeJSON(results, cmd.Bool("pretty"))
		}
	}

	for _, k := range kinds {
		var t formatter.Table
		switch v := results[k].(type) {
		case []models.Track:
			t = formatter.TrackTable(v, r.store.IsFavorite)
		case []models.Album:
			t = formatter.AlbumTable(v)
		case []models.Artist:
			t = formatter.ArtistTable(v)
		case []models.Playlist:
			t = formatter.PlaylistTable(v)
		}
		if len(t.Rows) == 0 {
			continue
		}
		if !r.structured(cmd) {
			r.writePlainln("%s", formatter.Title(strings.ToUpper(string(k[:1]))+string(k[1:])+"s"))
		}
		if err := r.render(cmd, t, results[k]); err != nil {
			return err
		}
	}
	return nil
}

// Recent lists recently played tracks, most recent first.
func (r *Runner) Recent(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if err := svc.Recent.Load(ctx, cmd.Bool("force")); err != nil {
		return err
	}
	tracks := r.store.Tracks(store.RecentlyPlayed)
	return r.render(cmd, formatter.TrackTable(tracks, r.store.IsFavorite), tracks)
}

// Devices lists Connect devices.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	devices, err := svc.Playback.LoadDevices(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 && !r.structured(cmd) {
		return r.writePlain("%s\n", formatter.Muted("No devices available. Open Spotify on a device first."))
	}
	return r.render(cmd, formatter.DeviceTable(devices), devices)
}

// DeviceTransfer moves playback to a device, matched by ID or case-insensitive name.
func (r *Runner) DeviceTransfer(ctx context.Context, cmd *cli.Command) error {
	target := strings.TrimSpace(cmd.StringArg("device"))
	if target == "" {
		return fmt.Errorf("%w: <device> is required", shared.ErrMissingArgument)
	}
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	devices, err := svc.Playback.LoadDevices(ctx)
	if err != nil {
		return err
	}

	device, ok := matchDevice(devices, target)
	if !ok {
		return fmt.Errorf("%w: no device named %q", shared.ErrInvalidArgument, target)
	}
	if err := svc.Playback.Transfer(ctx, device.ID); err != nil {
		return err
	}
	return r.writePlain("%s\n", formatter.OK("✓ Playing on "+device.Name))
}

// matchDevice finds a device by exact ID or name, falling back to the best fuzzy name match.
func matchDevice(devices []models.Device, target string) (models.Device, bool) {
	names := make([]string, len(devices))
	for i, d := range devices {
		if d.ID == target || strings.EqualFold(d.Name, target) {
			return d, true
		}
		names[i] = strings.ToLower(d.Name)
	}

	matches := fuzzy.Find(strings.ToLower(target), names)
	if len(matches) == 0 {
		return models.Device{}, false
	}
	return devices[matches[0].Index], true
}

// QueueShow prints the queue with the current item marked.
func (r *Runner) QueueShow(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	q, err := svc.Playback.RefreshQueue(ctx)
	if err != nil {
		return err
	}
	tracks := r.store.QueueTracks()
	if len(tracks) == 0 && !r.structured(cmd) {
		return r.writePlain("%s\n", formatter.Muted("The queue is empty."))
	}
	return r.render(cmd, formatter.QueueTable(tracks, q.CurrentIndex), struct {
		CurrentIndex int            `json:"current_index"`
		Tracks       []models.Track `json:"tracks"`
	}{q.CurrentIndex, tracks})
}

// QueueAdd appends a track to the queue.
func (r *Runner) QueueAdd(ctx context.Context, cmd *cli.Command) error {
	return r.enqueue(ctx, cmd, false)
}

// QueueNext queues a track to play after the current one.
func (r *Runner) QueueNext(ctx context.Context, cmd *cli.Command) error {
	return r.enqueue(ctx, cmd, true)
}

func (r *Runner) enqueue(ctx context.Context, cmd *cli.Command, next bool) error {
	id, err := idArg(cmd, "track", models.KindTrack)
	if err != nil {
		return err
	}
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if _, err := svc.Playback.RefreshQueue(ctx); err != nil {
		r.logger.Warn("could not refresh queue", "error", err)
	}

	if next {
		err = svc.Playback.PlayNext(ctx, id)
	} else {
		err = svc.Playback.AddToQueue(ctx, id)
	}
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", formatter.OK("✓ Queued "+id))
}

// NowPlaying prints the current track and position.
func (r *Runner) NowPlaying(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	np, err := svc.Playback.RefreshNowPlaying(ctx)
	if err != nil {
		return err
	}
	track, ok := r.store.Track(np.TrackID)

	if r.structured(cmd) {
		return r.writeJSON(struct {
			models.NowPlaying
			Track *models.Track `json:"track,omitempty"`
		}{np, trackOrNil(track, ok)}, cmd.Bool("pretty"))
	}
	if !ok {
		return r.writePlain("%s\n", formatter.Muted("Nothing is playing."))
	}

	state := "▶"
	if !np.IsPlaying {
		state = "⏸"
	}
	return r.writePlain("%s %s · %s  %s / %s\n",
		state,
		formatter.Title(track.Name),
		track.ArtistName,
		models.FormatDuration(np.ProgressMs),
		track.FormattedDuration(),
	)
}

func trackOrNil(t models.Track, ok bool) *models.Track {
	if !ok {
		return nil
	}
	return &t
}

// Play starts playback of the given tracks, albums or playlists.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("%w: at least one <track> is required", shared.ErrMissingArgument)
	}
	uris := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, ":/") {
			uris[i] = a
			continue
		}
		uris[i] = models.TrackURI(a)
	}

	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if _, err := svc.Playback.LoadDevices(ctx); err != nil {
		r.logger.Warn("could not list devices", "error", err)
	}
	if err := svc.Playback.Play(ctx, uris...); err != nil {
		return err
	}
	return r.writePlain("%s\n", formatter.OK(fmt.Sprintf("▶ Playing %d item(s)", len(uris))))
}

// control runs a player command and reports it with msg.
func (r *Runner) control(ctx context.Context, msg string, call func(svc *services.Services) error) error {
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if _, err := svc.Playback.LoadDevices(ctx); err != nil {
		r.logger.Warn("could not list devices", "error", err)
	}
	if err := call(svc); err != nil {
		return err
	}
	return r.writePlain("%s\n", formatter.OK(msg))
}

// Pause pauses playback on the active device.
func (r *Runner) Pause(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, "⏸ Paused", func(svc *services.Services) error { return svc.Playback.Pause(ctx) })
}

// Resume resumes playback on the active device.
func (r *Runner) Resume(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, "▶ Resumed", func(svc *services.Services) error { return svc.Playback.Resume(ctx) })
}

// Skip moves to the next item.
func (r *Runner) Skip(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, "⏭ Skipped", func(svc *services.Services) error { return svc.Playback.Next(ctx) })
}

// Previous moves to the previous item.
func (r *Runner) Previous(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, "⏮ Previous", func(svc *services.Services) error { return svc.Playback.Previous(ctx) })
}

// Seek jumps within the current item.
func (r *Runner) Seek(ctx context.Context, cmd *cli.Command) error {
	ms, err := parsePosition(cmd.StringArg("position"))
	if err != nil {
		return err
	}
	return r.control(ctx, "✓ Seeked to "+models.FormatDuration(ms), func(svc *services.Services) error {
		return svc.Playback.Seek(ctx, ms)
	})
}

// parsePosition reads milliseconds, or minutes and seconds written m:ss.
func parsePosition(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: <position> is required", shared.ErrMissingArgument)
	}
	invalid := fmt.Errorf("%w: position %q must be milliseconds or m:ss", shared.ErrInvalidArgument, raw)

	minutes, seconds, found := strings.Cut(raw, ":")
	if !found {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms < 0 {
			return 0, invalid
		}
		return ms, nil
	}
	m, errM := strconv.Atoi(minutes)
	sec, errS := strconv.Atoi(seconds)
	if errM != nil || errS != nil || m < 0 || sec < 0 || sec > 59 {
		return 0, invalid
	}
	return (m*60 + sec) * 1000, nil
}

// Volume sets the active device's volume.
func (r *Runner) Volume(ctx context.Context, cmd *cli.Command) error {
	raw := strings.TrimSpace(cmd.StringArg("percent"))
	if raw == "" {
		return fmt.Errorf("%w: <percent> is required", shared.ErrMissingArgument)
	}
	percent, err := strconv.Atoi(strings.TrimSuffix(raw, "%"))
	if err != nil || percent < 0 || percent > 100 {
		return fmt.Errorf("%w: <percent> must be between 0 and 100", shared.ErrInvalidArgument)
	}
	return r.control(ctx, fmt.Sprintf("✓ Volume %d%%", percent), func(svc *services.Services) error {
		return svc.Playback.SetVolume(ctx, percent)
	})
}

// Jump plays the queue from a 1-based position.
func (r *Runner) Jump(ctx context.Context, cmd *cli.Command) error {
	index, err := positionArg(cmd, "position")
	if err != nil {
		return err
	}
	return r.control(ctx, fmt.Sprintf("▶ Playing from %d", index+1), func(svc *services.Services) error {
		if _, err := svc.Playback.RefreshQueue(ctx); err != nil {
			return err
		}
		return svc.Playback.JumpTo(ctx, index)
	})
}

// Radio lists tracks recommended from a seed track, optionally queueing them.
func (r *Runner) Radio(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "track", models.KindTrack)
	if err != nil {
		return err
	}
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	tracks, err := svc.Playback.Radio(ctx, id, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("queue") {
		for _, t := range tracks {
			if err := svc.Playback.AddToQueue(ctx, t.ID); err != nil {
				return err
			}
		}
		return r.writePlain("%s\n", formatter.OK(fmt.Sprintf("✓ Queued %d radio track(s)", len(tracks))))
	}
	return r.render(cmd, formatter.TrackTable(tracks, r.store.IsFavorite), tracks)
}
