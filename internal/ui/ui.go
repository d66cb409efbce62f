package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotifly/internal/formatter"
	"github.com/desertthunder/spotifly/internal/models"
	"github.com/desertthunder/spotifly/internal/services"
	"github.com/desertthunder/spotifly/internal/store"
	"github.com/desertthunder/spotifly/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	ConfirmView
	ExportView
	ResultView
)

// Model represents the TUI application state. Lists are rebuilt from the store after every service call.
type Model struct {
	ctx          context.Context
	view         ViewState
	services     *services.Services
	store        *store.Store
	engine       tasks.SyncEngine
	exportOpts   tasks.BulkExportOpts
	width        int
	height       int
	playlistList list.Model
	trackList    list.Model
	playlistID   string
	status       string
	progressChan chan tasks.ProgressUpdate
	doneChan     chan exportCompleteMsg
	progress     tasks.ProgressUpdate
	result       *tasks.BulkExportResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, svc *services.Services, st *store.Store, engine tasks.SyncEngine, opts tasks.BulkExportOpts) *Model {
	playlists := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	playlists.Title = "Playlists"
	tracks := list.New(nil, list.NewDefaultDelegate(), 0, 0)

	return &Model{
		ctx:          ctx,
		view:         PlaylistListView,
		services:     svc,
		store:        st,
		engine:       engine,
		exportOpts:   opts,
		playlistList: playlists,
		trackList:    tracks,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init loads the owned playlists.
func (m *Model) Init() tea.Cmd {
	return m.loadPlaylists(false)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		if key.Matches(msg, m.keys.quit) && msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	case playlistsLoadedMsg:
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		return m, m.refreshPlaylists()

	case tracksLoadedMsg:
		if msg.err != nil {
			m.status = formatter.Err(fmt.Sprintf("Could not load tracks: %v", msg.err))
			return m, nil
		}
		m.playlistID = msg.playlistID
		m.status = ""
		m.view = TrackListView
		return m, tea.Batch(m.refreshTracks(), m.refreshPlaylists())

	case favoriteToggledMsg:
		switch {
		case msg.err != nil:
			m.status = formatter.Err(fmt.Sprintf("Could not update favorite: %v", msg.err))
		case msg.saved:
			m.status = formatter.OK("♥ Saved to your library")
		default:
			m.status = formatter.Muted("Removed from your library")
		}
		return m, m.refreshTracks()

	case playStartedMsg:
		if msg.err != nil {
			m.status = formatter.Err(fmt.Sprintf("Could not start playback: %v", msg.err))
		} else if t, ok := m.store.Track(msg.trackID); ok {
			m.status = formatter.OK("▶ " + t.Name)
		}
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case exportCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		m.doneChan = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return formatter.Err(fmt.Sprintf("Error: %v\n\nPress ctrl+r to retry, q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case ExportView:
		return m.renderExport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		m.err = nil
		return m, m.loadPlaylists(true)
	case m.err != nil:
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.status = formatter.Muted("Loading " + pl.playlist.Name + "...")
			return m, m.loadTracks(pl.playlist.ID)
		}
	}

	return m.updateLists(msg)
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		if t, ok := m.trackList.SelectedItem().(trackItem); ok {
			return m, m.toggleFavorite(t.track.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.play):
		if t, ok := m.trackList.SelectedItem().(trackItem); ok {
			return m, m.play(t.track.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.export):
		m.view = ConfirmView
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = TrackListView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = ExportView
		m.progress = tasks.ProgressUpdate{}
		return m, m.startExport()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = PlaylistListView
		m.result = nil
		m.err = nil
		m.status = ""
		return m, m.refreshPlaylists()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) refreshPlaylists() tea.Cmd {
	playlists := m.store.Playlists(store.OwnedPlaylists)
	items := make([]list.Item, len(playlists))
	for i, pl := range playlists {
		items[i] = playlistItem{playlist: pl}
	}
	return m.playlistList.SetItems(items)
}

func (m *Model) refreshTracks() tea.Cmd {
	if pl, ok := m.store.Playlist(m.playlistID); ok {
		m.trackList.Title = fmt.Sprintf("%s · %d tracks · %s", pl.Name, pl.TrackCount(), pl.FormattedDuration())
	}
	tracks := m.store.PlaylistTracks(m.playlistID)
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t, favorite: m.store.IsFavorite(t.ID)}
	}
	return m.trackList.SetItems(items)
}

func (m *Model) loadPlaylists(force bool) tea.Cmd {
	return func() tea.Msg {
		return playlistsLoadedMsg{err: m.services.Playlists.LoadOwned(m.ctx, force)}
	}
}

func (m *Model) loadTracks(playlistID string) tea.Cmd {
	return func() tea.Msg {
		return tracksLoadedMsg{playlistID: playlistID, err: m.services.Playlists.LoadTracks(m.ctx, playlistID, false)}
	}
}

func (m *Model) toggleFavorite(trackID string) tea.Cmd {
	return func() tea.Msg {
		saved, err := m.services.Tracks.ToggleFavorite(m.ctx, trackID)
		return favoriteToggledMsg{trackID: trackID, saved: saved, err: err}
	}
}

func (m *Model) play(trackID string) tea.Cmd {
	return func() tea.Msg {
		return playStartedMsg{trackID: trackID, err: m.services.Playback.Play(m.ctx, models.TrackURI(trackID))}
	}
}

func (m *Model) startExport() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan exportCompleteMsg, 1)
	m.progressChan = progress
	m.doneChan = done

	ids := []string{m.playlistID}
	opts := m.exportOpts
	go func() {
		result, err := m.engine.BulkExport(m.ctx, progress, ids, opts)
		close(progress)
		done <- exportCompleteMsg{result: result, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	return func() tea.Msg {
		if progress == nil {
			return exportCompleteMsg{result: m.result, err: m.err}
		}
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.refresh, m.keys.quit}
	return m.withStatus(m.playlistList.View(), helpKeys)
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.favorite, m.keys.play, m.keys.export, m.keys.back, m.keys.quit}
	return m.withStatus(m.trackList.View(), helpKeys)
}

func (m *Model) withStatus(body string, helpKeys []key.Binding) string {
	helpView := m.help.ShortHelpView(helpKeys)
	if m.status == "" {
		return fmt.Sprintf("%s\n\n%s", body, helpView)
	}
	return fmt.Sprintf("%s\n%s\n%s", body, m.status, helpView)
}

func (m *Model) renderConfirm() string {
	pl, _ := m.store.Playlist(m.playlistID)
	title := formatter.Title(fmt.Sprintf("Export '%s'?", pl.Name))
	info := fmt.Sprintf("\nTracks: %d\nFormat: %s\nDirectory: %s\n", pl.TrackCount(), m.exportFormat(), m.exportDir())

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderExport() string {
	title := formatter.Title("Exporting Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchPlaylist:
		phase = fmt.Sprintf("Fetching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.ExportPlaylist:
		phase = fmt.Sprintf("Writing files (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.WriteManifest:
		phase = "Writing manifest..."
	default:
		phase = "Starting..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, formatter.Muted(m.progress.Message))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.err != nil {
		return formatter.Err(fmt.Sprintf("Export failed: %v", m.err)) + "\n\n" + helpView
	}
	if m.result == nil || len(m.result.Results) == 0 {
		return formatter.Err("No result available") + "\n\n" + helpView
	}

	res := m.result.Results[0]
	if !res.Success {
		return formatter.Err(fmt.Sprintf("Export of %s failed: %v", res.PlaylistName, res.Error)) + "\n\n" + helpView
	}

	var b strings.Builder
	b.WriteString(formatter.OK("✓ Export Complete!"))
	fmt.Fprintf(&b, "\n\nPlaylist: %s (%d tracks)\n", res.PlaylistName, res.Tracks)
	for _, f := range res.Files {
		fmt.Fprintf(&b, "  • %s\n", f)
	}
	fmt.Fprintf(&b, "Manifest: %s\n\n%s", m.result.ManifestPath, helpView)
	return b.String()
}

func (m *Model) exportFormat() formatter.Format {
	if m.exportOpts.Format == "" {
		return formatter.FormatJSON
	}
	return m.exportOpts.Format
}

func (m *Model) exportDir() string {
	if m.exportOpts.OutputDir == "" {
		return "(new timestamped directory)"
	}
	return m.exportOpts.OutputDir
}
