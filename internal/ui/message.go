package ui

import (
	"github.com/desertthunder/spotifly/internal/tasks"
)

type playlistsLoadedMsg struct {
	err error
}

type tracksLoadedMsg struct {
	playlistID string
	err        error
}

type favoriteToggledMsg struct {
	trackID string
	saved   bool
	err     error
}

type playStartedMsg struct {
	trackID string
	err     error
}

type progressUpdateMsg tasks.ProgressUpdate

type exportCompleteMsg struct {
	result *tasks.BulkExportResult
	err    error
}
