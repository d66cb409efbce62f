// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error); overrides the config",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output (styled tables, indented JSON)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, csv, md, json",
			Value:   "text",
		},
	}
}

func forceFlag() cli.Flag {
	return &cli.BoolFlag{Name: "force", Usage: "Refetch even if already loaded"}
}

func allFlag() cli.Flag {
	return &cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "Follow every page instead of the first"}
}

// setupCommand writes a starter config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create a config file from the built-in template",
		Action: r.Setup,
	}
}

// authCommand handles the Spotify session.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Spotify session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in through the browser (authorization code with PKCE)",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: 5 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening it",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the cached session and the signed-in user",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Delete the cached token",
				Action: r.AuthLogout,
			},
		},
	}
}

// libraryCommand handles whole-library operations.
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "library",
		Usage: "Whole-library operations",
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Load every collection and expand owned playlists",
				Flags: []cli.Flag{
					forceFlag(),
					&cli.BoolFlag{Name: "albums", Usage: "Also expand saved albums"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent expansions (defaults to store.sync_workers)"},
				},
				Action: r.LibrarySync,
			},
			{
				Name:      "export",
				Usage:     "Export playlists to a directory",
				ArgsUsage: "[playlist]...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory"},
					&cli.StringFlag{Name: "as", Usage: "Export format: json, csv, md, text", Value: "json"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent writers"},
				},
				Action: r.LibraryExport,
			},
		},
	}
}

func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "Saved and top tracks",
		Commands: []*cli.Command{
			{
				Name:   "saved",
				Usage:  "List saved tracks",
				Flags:  []cli.Flag{allFlag(), forceFlag()},
				Action: r.TracksSaved,
			},
			{
				Name:   "top",
				Usage:  "List top tracks",
				Flags:  []cli.Flag{forceFlag()},
				Action: r.TracksTop,
			},
			{
				Name:      "favorite",
				Usage:     "Toggle whether a track is saved",
				Arguments: []cli.Argument{&cli.StringArg{Name: "track"}},
				Action:    r.TracksFavorite,
			},
		},
	}
}

func albumsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "albums",
		Usage: "Saved albums",
		Commands: []*cli.Command{
			{
				Name:   "saved",
				Usage:  "List saved albums",
				Flags:  []cli.Flag{allFlag(), forceFlag()},
				Action: r.AlbumsSaved,
			},
			{
				Name:      "tracks",
				Usage:     "List an album's tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "album"}},
				Flags:     []cli.Flag{forceFlag()},
				Action:    r.AlbumTracks,
			},
			{
				Name:      "save",
				Usage:     "Save an album to the library",
				Arguments: []cli.Argument{&cli.StringArg{Name: "album"}},
				Action:    r.AlbumSave,
			},
			{
				Name:      "remove",
				Usage:     "Remove an album from the library",
				Arguments: []cli.Argument{&cli.StringArg{Name: "album"}},
				Action:    r.AlbumRemove,
			},
		},
	}
}

func artistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artists",
		Usage: "Followed and top artists",
		Commands: []*cli.Command{
			{
				Name:   "followed",
				Usage:  "List followed artists",
				Flags:  []cli.Flag{allFlag(), forceFlag()},
				Action: r.ArtistsFollowed,
			},
			{
				Name:   "top",
				Usage:  "List top artists",
				Flags:  []cli.Flag{forceFlag()},
				Action: r.ArtistsTop,
			},
			{
				Name:      "top-tracks",
				Usage:     "List an artist's most popular tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "artist"}},
				Action:    r.ArtistTopTracks,
			},
		},
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Owned playlists",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List owned playlists",
				Flags:  []cli.Flag{allFlag(), forceFlag()},
				Action: r.PlaylistsList,
			},
			{
				Name:      "tracks",
				Usage:     "List a playlist's tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}},
				Flags:     []cli.Flag{forceFlag()},
				Action:    r.PlaylistTracks,
			},
			{
				Name:      "create",
				Usage:     "Create a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Usage: "Playlist description"},
					&cli.BoolFlag{Name: "public", Usage: "Make the playlist public"},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:  "rename",
				Usage: "Rename a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
					&cli.StringArg{Name: "name"},
				},
				Action: r.PlaylistRename,
			},
			{
				Name:      "delete",
				Usage:     "Unfollow (delete) a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}},
				Action:    r.PlaylistDelete,
			},
			{
				Name:  "add",
				Usage: "Append a track to a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
					&cli.StringArg{Name: "track"},
				},
				Action: r.PlaylistAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove every occurrence of a track from a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
					&cli.StringArg{Name: "track"},
				},
				Action: r.PlaylistRemove,
			},
			{
				Name:  "move",
				Usage: "Move the track at one position to another (1-based)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
					&cli.StringArg{Name: "from"},
					&cli.StringArg{Name: "to"},
				},
				Action: r.PlaylistMove,
			},
		},
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the catalog",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Kinds to search: track, album, artist, playlist (default: all)",
			},
		},
		Action: r.Search,
	}
}

func recentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "recent",
		Usage:  "List recently played tracks",
		Flags:  []cli.Flag{forceFlag()},
		Action: r.Recent,
	}
}

func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "devices",
		Usage:  "List Connect devices",
		Action: r.Devices,
		Commands: []*cli.Command{
			{
				Name:      "transfer",
				Usage:     "Move playback to a device",
				Arguments: []cli.Argument{&cli.StringArg{Name: "device"}},
				Action:    r.DeviceTransfer,
			},
		},
	}
}

func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "Playback queue",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the current queue",
				Action: r.QueueShow,
			},
			{
				Name:      "add",
				Usage:     "Add a track to the end of the queue",
				Arguments: []cli.Argument{&cli.StringArg{Name: "track"}},
				Action:    r.QueueAdd,
			},
			{
				Name:      "next",
				Usage:     "Play a track after the current one",
				Arguments: []cli.Argument{&cli.StringArg{Name: "track"}},
				Action:    r.QueueNext,
			},
			{
				Name:   "now",
				Usage:  "Show what is playing",
				Action: r.NowPlaying,
			},
			{
				Name:      "play",
				Usage:     "Start playback of tracks on the active device",
				ArgsUsage: "<track>...",
				Action:    r.Play,
			},
			{Name: "pause", Usage: "Pause playback", Action: r.Pause},
			{Name: "resume", Usage: "Resume playback", Action: r.Resume},
			{Name: "skip", Usage: "Skip to the next item", Action: r.Skip},
			{Name: "prev", Usage: "Go back to the previous item", Action: r.Previous},
			{
				Name:      "seek",
				Usage:     "Seek within the current item (milliseconds or m:ss)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "position"}},
				Action:    r.Seek,
			},
			{
				Name:      "volume",
				Usage:     "Set the device volume (0-100)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "percent"}},
				Action:    r.Volume,
			},
			{
				Name:      "jump",
				Usage:     "Play the queue from a position",
				Arguments: []cli.Argument{&cli.StringArg{Name: "position"}},
				Action:    r.Jump,
			},
			{
				Name:      "radio",
				Usage:     "List tracks recommended from a seed track",
				Arguments: []cli.Argument{&cli.StringArg{Name: "track"}},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Number of tracks", Value: 20},
					&cli.BoolFlag{Name: "queue", Usage: "Add the tracks to the queue"},
				},
				Action: r.Radio,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for browsing the library interactively.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse playlists interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Export directory"},
			&cli.StringFlag{Name: "as", Usage: "Export format: json, csv, md, text", Value: "json"},
			&cli.StringFlag{Name: "log-file", Usage: "Rotating log file used while the TUI owns the terminal", Value: "spotifly-tui.log"},
		},
		Action: r.TUI,
	}
}
