package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifly/internal/api"
	"github.com/desertthunder/spotifly/internal/models"
	"github.com/desertthunder/spotifly/internal/shared"
	tu "github.com/desertthunder/spotifly/internal/testing"
	"github.com/zmb3/spotify/v2"
)

// newTestRunner returns a runner over client whose token cache lives in a temp dir.
func newTestRunner(t *testing.T, client api.Client) (*Runner, *bytes.Buffer) {
	t.Helper()
	config := shared.DefaultConfig()
	config.Auth.TokenPath = filepath.Join(t.TempDir(), "token.json")

	output := &bytes.Buffer{}
	return NewRunner(RunnerOpts{
		Config:      config,
		ConfigPath:  filepath.Join(t.TempDir(), "config.toml"),
		Client:      client,
		Logger:      log.New(io.Discard),
		Output:      output,
		OpenBrowser: func(string) error { return nil },
	}), output
}

func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	return newApp(r).Run(context.Background(), append([]string{"spotifly"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := log.New(io.Discard)
			output := &bytes.Buffer{}
			client := &tu.FakeClient{}

			runner := NewRunner(RunnerOpts{Config: config, Logger: logger, Output: output, Client: client, ConfigPath: "/test/config.toml"})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.client != client {
				t.Error("expected client to be set")
			}
			if runner.configPath != "/test/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nothing provided uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.configPath != "config.toml" {
				t.Errorf("expected default configPath, got %s", runner.configPath)
			}
			if runner.openBrowser == nil {
				t.Error("expected a browser opener")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(math.NaN(), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("Hello %s\n", "World"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "Hello World\n" {
				t.Errorf("expected 'Hello World\\n', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writePlain("test"); err == nil {
				t.Error("expected error, got nil")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for _, cmd := range commands {
			if cmd == nil {
				t.Fatal("expected non-nil command")
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "auth", "library", "tracks", "albums", "artists", "playlists", "search", "recent", "devices", "queue", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})
}

func TestCommands(t *testing.T) {
	t.Run("tracks saved prints the first page as JSON", func(t *testing.T) {
		client := &tu.FakeClient{
			SavedTracksFunc: func(ctx context.Context, page api.Page) (*spotify.SavedTrackPage, error) {
				return tu.SavedTrackPage(0, 2, tu.FullTrack("t1", 180000), tu.FullTrack("t2", 200000)), nil
			},
		}
		r, out := newTestRunner(t, client)

		if err := run(t, r, "--json", "tracks", "saved"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var tracks []models.Track
		if err := json.Unmarshal(out.Bytes(), &tracks); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", out.String(), err)
		}
		if len(tracks) != 2 || tracks[0].ID != "t1" || tracks[1].ID != "t2" {
			t.Errorf("unexpected tracks %+v", tracks)
		}
	})

	t.Run("tracks saved notes remaining pages in text mode", func(t *testing.T) {
		client := &tu.FakeClient{
			SavedTracksFunc: func(ctx context.Context, page api.Page) (*spotify.SavedTrackPage, error) {
				return tu.SavedTrackPage(0, 5, tu.FullTrack("t1", 180000), tu.FullTrack("t2", 200000)), nil
			},
		}
		r, out := newTestRunner(t, client)

		if err := run(t, r, "tracks", "saved"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "Track t1") {
			t.Errorf("expected track row, got %q", out.String())
		}
		if !strings.Contains(out.String(), "Showing 2 of 5") {
			t.Errorf("expected pagination footer, got %q", out.String())
		}
	})

	t.Run("tracks favorite accepts a link", func(t *testing.T) {
		client := &tu.FakeClient{
			TrackFunc: func(ctx context.Context, id string) (*spotify.FullTrack, error) {
				track := tu.FullTrack(id, 1000)
				return &track, nil
			},
		}
		r, out := newTestRunner(t, client)

		if err := run(t, r, "tracks", "favorite", "https://open.spotify.com/track/t9?si=abc"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if client.Calls("SaveTracks") != 1 {
			t.Errorf("expected 1 SaveTracks call, got %d", client.Calls("SaveTracks"))
		}
		if !strings.Contains(out.String(), "Saved Track t9") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("tracks favorite rejects a URI of another kind", func(t *testing.T) {
		client := &tu.FakeClient{}
		r, _ := newTestRunner(t, client)

		err := run(t, r, "tracks", "favorite", "spotify:album:a1")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if client.TotalCalls() != 0 {
			t.Errorf("expected no API calls, got %d", client.TotalCalls())
		}
	})

	t.Run("playlists tracks requires a playlist", func(t *testing.T) {
		r, _ := newTestRunner(t, &tu.FakeClient{})

		if err := run(t, r, "playlists", "tracks"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("playlists move rejects positions below one", func(t *testing.T) {
		r, _ := newTestRunner(t, &tu.FakeClient{})

		if err := run(t, r, "playlists", "move", "p1", "0", "2"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("playlists create prints the new playlist", func(t *testing.T) {
		client := &tu.FakeClient{}
		r, out := newTestRunner(t, client)

		if err := run(t, r, "--json", "playlists", "create", "Road Trip"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var p models.Playlist
		if err := json.Unmarshal(out.Bytes(), &p); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", out.String(), err)
		}
		if p.ID != "created" || p.Name != "Road Trip" {
			t.Errorf("unexpected playlist %+v", p)
		}
	})

	t.Run("search returns results keyed by kind", func(t *testing.T) {
		client := &tu.FakeClient{
			SearchFunc: func(ctx context.Context, query string, types spotify.SearchType, limit int) (*spotify.SearchResult, error) {
				if query != "night drive" {
					t.Errorf("unexpected query %q", query)
				}
				return &spotify.SearchResult{Tracks: tu.FullTrackPage(0, 1, tu.FullTrack("s1", 1000))}, nil
			},
		}
		r, out := newTestRunner(t, client)

		if err := run(t, r, "--json", "search", "--type", "tracks", "night", "drive"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var results map[string][]models.Track
		if err := json.Unmarshal(out.Bytes(), &results); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", out.String(), err)
		}
		if len(results["track"]) != 1 || results["track"][0].ID != "s1" {
			t.Errorf("unexpected results %+v", results)
		}
	})

	t.Run("search rejects unknown types", func(t *testing.T) {
		r, _ := newTestRunner(t, &tu.FakeClient{})

		if err := run(t, r, "search", "--type", "podcasts", "x"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("devices transfer matches by name", func(t *testing.T) {
		var target string
		client := &tu.FakeClient{
			DevicesFunc: func(ctx context.Context) ([]api.SpotifyDevice, error) {
				return []api.SpotifyDevice{{ID: "d1", Name: "Kitchen"}, {ID: "d2", Name: "Desk"}}, nil
			},
			TransferPlaybackFunc: func(ctx context.Context, deviceID string, play bool) error {
				target = deviceID
				return nil
			},
		}
		r, out := newTestRunner(t, client)

		if err := run(t, r, "devices", "transfer", "desk"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if target != "d2" {
			t.Errorf("expected transfer to d2, got %q", target)
		}
		if !strings.Contains(out.String(), "Playing on Desk") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("devices transfer falls back to fuzzy name matching", func(t *testing.T) {
		var target string
		client := &tu.FakeClient{
			DevicesFunc: func(ctx context.Context) ([]api.SpotifyDevice, error) {
				return []api.SpotifyDevice{{ID: "d1", Name: "Kitchen Speaker"}, {ID: "d2", Name: "Desk"}}, nil
			},
			TransferPlaybackFunc: func(ctx context.Context, deviceID string, play bool) error {
				target = deviceID
				return nil
			},
		}
		r, _ := newTestRunner(t, client)

		if err := run(t, r, "devices", "transfer", "kspk"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if target != "d1" {
			t.Errorf("expected transfer to d1, got %q", target)
		}
	})

	t.Run("devices transfer fails for unknown devices", func(t *testing.T) {
		r, _ := newTestRunner(t, &tu.FakeClient{})

		if err := run(t, r, "devices", "transfer", "nowhere"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("queue seek accepts minutes and seconds on the active device", func(t *testing.T) {
		var gotDevice string
		var gotMs int
		client := &tu.FakeClient{
			DevicesFunc: func(ctx context.Context) ([]api.SpotifyDevice, error) {
				return []api.SpotifyDevice{{ID: "d1", Name: "Desk", IsActive: true}}, nil
			},
			SeekFunc: func(ctx context.Context, deviceID string, positionMs int) error {
				gotDevice, gotMs = deviceID, positionMs
				return nil
			},
		}
		r, out := newTestRunner(t, client)

		if err := run(t, r, "queue", "seek", "1:30"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotDevice != "d1" || gotMs != 90000 {
			t.Errorf("expected seek to 90000 on d1, got %d on %q", gotMs, gotDevice)
		}
		if !strings.Contains(out.String(), "Seeked to 1:30") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("queue player controls reach the client", func(t *testing.T) {
		client := &tu.FakeClient{}
		r, _ := newTestRunner(t, client)

		for _, args := range [][]string{{"pause"}, {"resume"}, {"skip"}, {"prev"}, {"volume", "40%"}} {
			if err := run(t, r, append([]string{"queue"}, args...)...); err != nil {
				t.Fatalf("queue %v failed: %v", args, err)
			}
		}
		for _, name := range []string{"Pause", "Resume", "Next", "Previous", "SetVolume"} {
			if client.Calls(name) != 1 {
				t.Errorf("expected one %s call, got %d", name, client.Calls(name))
			}
		}
	})

	t.Run("queue rejects bad control arguments", func(t *testing.T) {
		r, _ := newTestRunner(t, &tu.FakeClient{})

		for _, args := range [][]string{{"seek", "1:75"}, {"seek", "soon"}, {"volume", "150"}, {"jump", "0"}} {
			if err := run(t, r, append([]string{"queue"}, args...)...); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("queue %v: expected ErrInvalidArgument, got %v", args, err)
			}
		}
	})

	t.Run("queue jump plays from a 1-based position", func(t *testing.T) {
		var gotURIs []string
		client := &tu.FakeClient{
			QueueFunc: func(ctx context.Context) (*api.SpotifyQueue, error) {
				cur := tu.FullTrack("cur", 1000)
				return &api.SpotifyQueue{CurrentlyPlaying: &cur, Queue: []spotify.FullTrack{tu.FullTrack("q1", 1000)}}, nil
			},
			PlayFunc: func(ctx context.Context, deviceID string, uris ...string) error {
				gotURIs = uris
				return nil
			},
		}
		r, _ := newTestRunner(t, client)

		if err := run(t, r, "queue", "jump", "2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(gotURIs) != 1 || gotURIs[0] != "spotify:track:q1" {
			t.Errorf("expected to play q1, got %v", gotURIs)
		}
	})

	t.Run("queue radio lists recommended tracks as JSON", func(t *testing.T) {
		var gotLimit int
		client := &tu.FakeClient{
			RecommendationsFunc: func(ctx context.Context, seed string, limit int) ([]spotify.SimpleTrack, error) {
				gotLimit = limit
				return []spotify.SimpleTrack{tu.SimpleTrack("r1", 1, 1000)}, nil
			},
		}
		r, out := newTestRunner(t, client)

		if err := run(t, r, "--json", "queue", "radio", "--limit", "5", "seed"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var tracks []models.Track
		if err := json.Unmarshal(out.Bytes(), &tracks); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", out.String(), err)
		}
		if gotLimit != 5 || len(tracks) != 1 || tracks[0].ID != "r1" {
			t.Errorf("unexpected radio %d %+v", gotLimit, tracks)
		}
	})

	t.Run("library sync reports stats as JSON", func(t *testing.T) {
		client := &tu.FakeClient{
			SavedTracksFunc: func(ctx context.Context, page api.Page) (*spotify.SavedTrackPage, error) {
				return tu.SavedTrackPage(0, 1, tu.FullTrack("t1", 1000)), nil
			},
		}
		r, out := newTestRunner(t, client)

		if err := run(t, r, "--json", "library", "sync"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var rep syncReport
		if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", out.String(), err)
		}
		if rep.Stats.Tracks != 1 || rep.Stats.Favorites != 1 {
			t.Errorf("unexpected stats %+v", rep.Stats)
		}
		if len(rep.Failures) != 0 {
			t.Errorf("expected no failures, got %v", rep.Failures)
		}
	})

	t.Run("commands without a cached token report not authenticated", func(t *testing.T) {
		r, _ := newTestRunner(t, nil)

		if err := run(t, r, "recent"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("auth status reports the signed in user", func(t *testing.T) {
		r, out := newTestRunner(t, &tu.FakeClient{})

		if err := run(t, r, "--json", "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var status authStatus
		if err := json.Unmarshal(out.Bytes(), &status); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", out.String(), err)
		}
		if !status.Authenticated || status.UserID != "user" {
			t.Errorf("unexpected status %+v", status)
		}
	})

	t.Run("auth logout deletes the cached token", func(t *testing.T) {
		r, _ := newTestRunner(t, &tu.FakeClient{})
		path := r.config.Auth.TokenPath
		if err := os.WriteFile(path, []byte(`{"access_token":"x"}`), 0600); err != nil {
			t.Fatalf("failed to seed token: %v", err)
		}

		if err := run(t, r, "auth", "logout"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("expected token file to be removed, got %v", err)
		}
	})

	t.Run("setup writes a config file once", func(t *testing.T) {
		r, out := newTestRunner(t, nil)

		if err := run(t, r, "setup"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, r.configPath)

		out.Reset()
		if err := run(t, r, "setup"); err != nil {
			t.Fatalf("expected second setup to succeed, got %v", err)
		}
		if !strings.Contains(out.String(), "already present") {
			t.Errorf("expected existing config notice, got %q", out.String())
		}
	})

}
