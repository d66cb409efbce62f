package ui

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifly/internal/api"
	"github.com/desertthunder/spotifly/internal/formatter"
	"github.com/desertthunder/spotifly/internal/services"
	"github.com/desertthunder/spotifly/internal/store"
	"github.com/desertthunder/spotifly/internal/tasks"
	tu "github.com/desertthunder/spotifly/internal/testing"
	"github.com/zmb3/spotify/v2"
)

func newTestModel(t *testing.T) (*Model, *tu.FakeClient) {
	t.Helper()
	client := &tu.FakeClient{
		UserPlaylistsFunc: func(ctx context.Context, page api.Page) (*spotify.SimplePlaylistPage, error) {
			return tu.SimplePlaylistPage(0, 2, tu.SimplePlaylist("p1", "Mix", 2), tu.SimplePlaylist("p2", "Chill", 1)), nil
		},
		PlaylistItemsFunc: func(ctx context.Context, id string, page api.Page) (*spotify.PlaylistItemPage, error) {
			return tu.PlaylistItemPage(0, 2, tu.FullTrack("t1", 60000), tu.FullTrack("t2", 90000)), nil
		},
		TrackFunc: func(ctx context.Context, id string) (*spotify.FullTrack, error) {
			track := tu.FullTrack(id, 60000)
			return &track, nil
		},
	}

	logger := log.New(io.Discard)
	st := store.New()
	svc, err := services.New(services.Deps{API: client, Store: st, Logger: logger})
	if err != nil {
		t.Fatalf("services.New failed: %v", err)
	}
	engine, err := tasks.NewLibraryEngine(svc, st, logger)
	if err != nil {
		t.Fatalf("NewLibraryEngine failed: %v", err)
	}

	m := NewModel(context.Background(), svc, st, engine, tasks.BulkExportOpts{
		Format:    formatter.FormatJSON,
		OutputDir: t.TempDir(),
		RateLimit: 1000,
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, client
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send delivers msg and runs the returned command once, feeding its message back.
func send(m *Model, msg tea.Msg) {
	_, cmd := m.Update(msg)
	if cmd == nil {
		return
	}
	if next := cmd(); next != nil {
		m.Update(next)
	}
}

// openFirstPlaylist loads playlists and opens the selected one.
func openFirstPlaylist(t *testing.T, m *Model) {
	t.Helper()
	m.Update(m.Init()())
	send(m, keyPress("enter"))
	if m.view != TrackListView {
		t.Fatalf("expected TrackListView, got %v", m.view)
	}
}

func TestModel(t *testing.T) {
	t.Run("Init fills the playlist list from the store", func(t *testing.T) {
		m, _ := newTestModel(t)

		m.Update(m.Init()())

		items := m.playlistList.Items()
		if len(items) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(items))
		}
		if items[0].(playlistItem).playlist.ID != "p1" {
			t.Errorf("expected p1 first, got %+v", items[0])
		}
	})

	t.Run("enter opens the selected playlist", func(t *testing.T) {
		m, client := newTestModel(t)
		openFirstPlaylist(t, m)

		if m.playlistID != "p1" {
			t.Errorf("expected p1 to be open, got %q", m.playlistID)
		}
		if len(m.trackList.Items()) != 2 {
			t.Errorf("expected 2 tracks, got %d", len(m.trackList.Items()))
		}
		if client.Calls("PlaylistItems") != 1 {
			t.Errorf("expected 1 PlaylistItems call, got %d", client.Calls("PlaylistItems"))
		}
	})

	t.Run("favorite marks the track from store state", func(t *testing.T) {
		m, client := newTestModel(t)
		openFirstPlaylist(t, m)

		send(m, keyPress("f"))

		item := m.trackList.Items()[0].(trackItem)
		if !item.favorite || !strings.HasPrefix(item.Title(), "♥") {
			t.Errorf("expected favorite marker, got %q", item.Title())
		}
		if !m.store.IsFavorite("t1") {
			t.Error("expected store to hold the favorite")
		}
		if client.Calls("SaveTracks") != 1 {
			t.Errorf("expected 1 SaveTracks call, got %d", client.Calls("SaveTracks"))
		}
	})

	t.Run("play reports playback failures in the status line", func(t *testing.T) {
		m, client := newTestModel(t)
		client.PlayFunc = func(ctx context.Context, deviceID string, uris ...string) error {
			return tu.NotFound("play")
		}
		openFirstPlaylist(t, m)

		send(m, keyPress("p"))

		if !strings.Contains(m.status, "Could not start playback") {
			t.Errorf("expected playback error in status, got %q", m.status)
		}
	})

	t.Run("declining the export returns to the tracks", func(t *testing.T) {
		m, _ := newTestModel(t)
		openFirstPlaylist(t, m)

		send(m, keyPress("e"))
		if m.view != ConfirmView {
			t.Fatalf("expected ConfirmView, got %v", m.view)
		}
		send(m, keyPress("n"))
		if m.view != TrackListView {
			t.Errorf("expected TrackListView, got %v", m.view)
		}
	})

	t.Run("confirming the export runs it to a result", func(t *testing.T) {
		m, _ := newTestModel(t)
		openFirstPlaylist(t, m)
		send(m, keyPress("e"))

		_, cmd := m.Update(keyPress("y"))
		for cmd != nil && m.view == ExportView {
			_, cmd = m.Update(cmd())
		}

		if m.view != ResultView {
			t.Fatalf("expected ResultView, got %v", m.view)
		}
		if m.err != nil {
			t.Fatalf("expected no error, got %v", m.err)
		}
		if m.result == nil || m.result.SuccessfulExports != 1 {
			t.Fatalf("expected one successful export, got %+v", m.result)
		}
		if !strings.Contains(m.View(), "Export Complete") {
			t.Errorf("expected completion view, got %q", m.View())
		}

		send(m, keyPress("r"))
		if m.view != PlaylistListView {
			t.Errorf("expected PlaylistListView after restart, got %v", m.view)
		}
	})

	t.Run("load failure shows an error view", func(t *testing.T) {
		m, client := newTestModel(t)
		client.UserPlaylistsFunc = func(ctx context.Context, page api.Page) (*spotify.SimplePlaylistPage, error) {
			return nil, tu.TransportFailure("playlists")
		}

		m.Update(m.Init()())

		if m.err == nil {
			t.Fatal("expected an error")
		}
		if !strings.Contains(m.View(), "Error:") {
			t.Errorf("expected error view, got %q", m.View())
		}
	})
}
