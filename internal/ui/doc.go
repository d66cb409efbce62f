// Package ui implements an interactive library browser using bubbletea's Elm architecture.
//
// The TUI reads everything it shows from the store and mutates it only through the services:
//  1. [PlaylistListView] : Browse owned playlists
//  2. [TrackListView] : Browse a playlist's tracks, toggle favorites and start playback
//  3. [ConfirmView] : Confirm exporting the playlist
//  4. [ExportView] : Monitor export progress
//  5. [ResultView] : Show written files or the failure
//
// Progress updates flow through a channel from the [tasks.SyncEngine], the same way the CLI consumes them.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
