// Package api is the Web API client used by the collection services.
package api

import (
	"context"

	"github.com/zmb3/spotify/v2"
)

// Page selects an offset page.
type Page struct {
	Limit  int
	Offset int
}

// Client exposes one typed operation per remote call the services make.
//
// Every method returns the Web API's own response shape; conversion into store entities happens in the mapper package.
// Failures are always [*shared.APIError] values (or the context's error when cancelled).
type Client interface {
	CurrentUserID(ctx context.Context) (string, error)

	SavedTracks(ctx context.Context, page Page) (*spotify.SavedTrackPage, error)
	TopTracks(ctx context.Context, page Page) (*spotify.FullTrackPage, error)
	Track(ctx context.Context, id string) (*spotify.FullTrack, error)
	SaveTracks(ctx context.Context, ids ...string) error
	RemoveSavedTracks(ctx context.Context, ids ...string) error
	ContainsSavedTracks(ctx context.Context, ids ...string) ([]bool, error)

	SavedAlbums(ctx context.Context, page Page) (*spotify.SavedAlbumPage, error)
	Album(ctx context.Context, id string) (*spotify.FullAlbum, error)
	AlbumTracks(ctx context.Context, id string, page Page) (*spotify.SimpleTrackPage, error)
	SaveAlbums(ctx context.Context, ids ...string) error
	RemoveSavedAlbums(ctx context.Context, ids ...string) error

	FollowedArtists(ctx context.Context, limit int, after string) (*spotify.FullArtistCursorPage, error)
	TopArtists(ctx context.Context, page Page) (*spotify.FullArtistPage, error)
	Artist(ctx context.Context, id string) (*spotify.FullArtist, error)
	ArtistTopTracks(ctx context.Context, id string) ([]spotify.FullTrack, error)

	UserPlaylists(ctx context.Context, page Page) (*spotify.SimplePlaylistPage, error)
	PlaylistItems(ctx context.Context, id string, page Page) (*spotify.PlaylistItemPage, error)
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*spotify.FullPlaylist, error)
	RenamePlaylist(ctx context.Context, id, name string) error
	DeletePlaylist(ctx context.Context, id string) error
	AddPlaylistTracks(ctx context.Context, id string, trackIDs ...string) (string, error)
	RemovePlaylistTracks(ctx context.Context, id string, trackIDs ...string) (string, error)
	ReorderPlaylistTracks(ctx context.Context, id string, from, insertBefore int) (string, error)

	Search(ctx context.Context, query string, types spotify.SearchType, limit int) (*spotify.SearchResult, error)
	RecentlyPlayed(ctx context.Context, limit int) ([]spotify.RecentlyPlayedItem, error)

	Devices(ctx context.Context) ([]SpotifyDevice, error)
	PlayerState(ctx context.Context) (*spotify.PlayerState, error)
	Queue(ctx context.Context) (*SpotifyQueue, error)
	QueueTrack(ctx context.Context, trackID string) error
	Play(ctx context.Context, deviceID string, uris ...string) error
	TransferPlayback(ctx context.Context, deviceID string, play bool) error

	// Player controls target deviceID, or the active device when it is empty.
	Pause(ctx context.Context, deviceID string) error
	Resume(ctx context.Context, deviceID string) error
	Next(ctx context.Context, deviceID string) error
	Previous(ctx context.Context, deviceID string) error
	Seek(ctx context.Context, deviceID string, positionMs int) error
	SetVolume(ctx context.Context, deviceID string, percent int) error

	// Recommendations returns tracks seeded by one track, used as a track radio.
	Recommendations(ctx context.Context, seedTrackID string, limit int) ([]spotify.SimpleTrack, error)
}
