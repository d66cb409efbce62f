// Response types for endpoints decoded directly rather than through the spotify client.
//
// Based on https://developer.spotify.com/documentation/web-api/reference/
package api

import "github.com/zmb3/spotify/v2"

// SpotifyDevice represents a Connect device from GET /me/player/devices.
type SpotifyDevice struct {
	ID               string `json:"id"`
	IsActive         bool   `json:"is_active"`
	IsPrivateSession bool   `json:"is_private_session"`
	IsRestricted     bool   `json:"is_restricted"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	VolumePercent    *int   `json:"volume_percent"`
}

type devicesResponse struct {
	Devices []SpotifyDevice `json:"devices"`
}

// SpotifyQueue represents GET /me/player/queue.
type SpotifyQueue struct {
	CurrentlyPlaying *spotify.FullTrack  `json:"currently_playing"`
	Queue            []spotify.FullTrack `json:"queue"`
}

type reorderRequest struct {
	RangeStart   int    `json:"range_start"`
	RangeLength  int    `json:"range_length"`
	InsertBefore int    `json:"insert_before"`
	SnapshotID   string `json:"snapshot_id,omitempty"`
}

type snapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}
