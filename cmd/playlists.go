package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spotifly/internal/formatter"
	"github.com/desertthunder/spotifly/internal/models"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/desertthunder/spotifly/internal/store"
	"github.com/urfave/cli/v3"
)

// PlaylistsList lists the user's playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if err := loadCollection(ctx, cmd, svc.Playlists.LoadOwned, svc.Playlists.LoadAllOwned); err != nil {
		return err
	}
	playlists := r.store.Playlists(store.OwnedPlaylists)
	if err := r.render(cmd, formatter.PlaylistTable(playlists), playlists); err != nil {
		return err
	}
	return r.footer(cmd, store.OwnedPlaylists)
}

// PlaylistTracks lists a playlist's tracks in order.
func (r *Runner) PlaylistTracks(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "playlist", models.KindPlaylist)
	if err != nil {
		return err
	}
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if err := svc.Playlists.LoadTracks(ctx, id, cmd.Bool("force")); err != nil {
		return err
	}

	playlist, _ := r.store.Playlist(id)
	tracks := r.store.PlaylistTracks(id)
	if !r.structured(cmd) {
		r.writePlain("%s\n", formatter.Title(fmt.Sprintf("%s · %d tracks · %s", playlist.Name, playlist.TrackCount(), playlist.FormattedDuration())))
	}
	return r.render(cmd, formatter.TrackTable(tracks, r.store.IsFavorite), formatter.PlaylistExport{Playlist: playlist, Tracks: tracks})
}

// PlaylistCreate creates a playlist owned by the current user.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: <name> is required", shared.ErrMissingArgument)
	}
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}

	playlist, err := svc.Playlists.Create(ctx, name, cmd.String("description"), cmd.Bool("public"))
	if err != nil {
		return err
	}
	if r.structured(cmd) {
		return r.writeJSON(playlist, cmd.Bool("pretty"))
	}
	return r.writePlain("%s %s\n", formatter.OK("✓ Created "+playlist.Name), formatter.Muted(playlist.ID))
}

// PlaylistRename changes a playlist's name.
func (r *Runner) PlaylistRename(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "playlist", models.KindPlaylist)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: <name> is required", shared.ErrMissingArgument)
	}
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if err := svc.Playlists.Rename(ctx, id, name); err != nil {
		return err
	}
	return r.writePlain("%s\n", formatter.OK("✓ Renamed to "+name))
}

// PlaylistDelete unfollows a playlist, which deletes it for its owner.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "playlist", models.KindPlaylist)
	if err != nil {
		return err
	}
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if err := svc.Playlists.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("%s\n", formatter.OK("✓ Deleted playlist "+id))
}

// PlaylistAdd appends a track to a playlist.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	return r.editPlaylist(ctx, cmd, func(ctx context.Context, id, trackID string) (string, error) {
		if err := r.svc.Playlists.AddTrack(ctx, id, trackID); err != nil {
			return "", err
		}
		return "✓ Added " + trackID, nil
	})
}

// PlaylistRemove removes every occurrence of a track from a playlist.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	return r.editPlaylist(ctx, cmd, func(ctx context.Context, id, trackID string) (string, error) {
		if err := r.svc.Playlists.RemoveTrack(ctx, id, trackID); err != nil {
			return "", err
		}
		return "✓ Removed " + trackID, nil
	})
}

func (r *Runner) editPlaylist(ctx context.Context, cmd *cli.Command, edit func(ctx context.Context, id, trackID string) (string, error)) error {
	id, err := idArg(cmd, "playlist", models.KindPlaylist)
	if err != nil {
		return err
	}
	trackID, err := idArg(cmd, "track", models.KindTrack)
	if err != nil {
		return err
	}
	if _, err := r.loadServices(ctx); err != nil {
		return err
	}
	msg, err := edit(ctx, id, trackID)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", formatter.OK(msg))
}

// PlaylistMove moves the track at position from to position to, both counted from 1.
func (r *Runner) PlaylistMove(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "playlist", models.KindPlaylist)
	if err != nil {
		return err
	}
	from, err := positionArg(cmd, "from")
	if err != nil {
		return err
	}
	to, err := positionArg(cmd, "to")
	if err != nil {
		return err
	}
	svc, err := r.loadServices(ctx)
	if err != nil {
		return err
	}
	if err := svc.Playlists.LoadTracks(ctx, id, false); err != nil {
		return err
	}
	if err := svc.Playlists.Reorder(ctx, id, from, to); err != nil {
		return err
	}
	return r.writePlain("%s\n", formatter.OK(fmt.Sprintf("✓ Moved track %d to position %d", from+1, to+1)))
}
