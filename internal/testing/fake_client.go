package testing

import (
	"context"
	"net/http"
	"sync"

	"github.com/desertthunder/spotifly/internal/api"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/zmb3/spotify/v2"
)

// FakeClient is a scriptable [api.Client]. Each method calls its Func field when set and otherwise
// returns an empty page (listings), a not-found error (single fetches) or success (mutations).
//
// Calls are counted per method name for idempotence and single-flight assertions.
type FakeClient struct {
	mu    sync.Mutex
	calls map[string]int

	CurrentUserIDFunc        func(ctx context.Context) (string, error)
	SavedTracksFunc          func(ctx context.Context, page api.Page) (*spotify.SavedTrackPage, error)
	TopTracksFunc            func(ctx context.Context, page api.Page) (*spotify.FullTrackPage, error)
	TrackFunc                func(ctx context.Context, id string) (*spotify.FullTrack, error)
	SaveTracksFunc           func(ctx context.Context, ids ...string) error
	RemoveSavedTracksFunc    func(ctx context.Context, ids ...string) error
	ContainsSavedTracksFunc  func(ctx context.Context, ids ...string) ([]bool, error)
	SavedAlbumsFunc          func(ctx context.Context, page api.Page) (*spotify.SavedAlbumPage, error)
	AlbumFunc                func(ctx context.Context, id string) (*spotify.FullAlbum, error)
	AlbumTracksFunc          func(ctx context.Context, id string, page api.Page) (*spotify.SimpleTrackPage, error)
	SaveAlbumsFunc           func(ctx context.Context, ids ...string) error
	RemoveSavedAlbumsFunc    func(ctx context.Context, ids ...string) error
	FollowedArtistsFunc      func(ctx context.Context, limit int, after string) (*spotify.FullArtistCursorPage, error)
	TopArtistsFunc           func(ctx context.Context, page api.Page) (*spotify.FullArtistPage, error)
	ArtistFunc               func(ctx context.Context, id string) (*spotify.FullArtist, error)
	ArtistTopTracksFunc      func(ctx context.Context, id string) ([]spotify.FullTrack, error)
	UserPlaylistsFunc        func(ctx context.Context, page api.Page) (*spotify.SimplePlaylistPage, error)
	PlaylistItemsFunc        func(ctx context.Context, id string, page api.Page) (*spotify.PlaylistItemPage, error)
	CreatePlaylistFunc       func(ctx context.Context, name, description string, public bool) (*spotify.FullPlaylist, error)
	RenamePlaylistFunc       func(ctx context.Context, id, name string) error
	DeletePlaylistFunc       func(ctx context.Context, id string) error
	AddPlaylistTracksFunc    func(ctx context.Context, id string, trackIDs ...string) (string, error)
	RemovePlaylistTracksFunc func(ctx context.Context, id string, trackIDs ...string) (string, error)
	ReorderPlaylistFunc      func(ctx context.Context, id string, from, insertBefore int) (string, error)
	SearchFunc               func(ctx context.Context, query string, types spotify.SearchType, limit int) (*spotify.SearchResult, error)
	RecentlyPlayedFunc       func(ctx context.Context, limit int) ([]spotify.RecentlyPlayedItem, error)
	DevicesFunc              func(ctx context.Context) ([]api.SpotifyDevice, error)
	PlayerStateFunc          func(ctx context.Context) (*spotify.PlayerState, error)
	QueueFunc                func(ctx context.Context) (*api.SpotifyQueue, error)
	QueueTrackFunc           func(ctx context.Context, trackID string) error
	PlayFunc                 func(ctx context.Context, deviceID string, uris ...string) error
	TransferPlaybackFunc     func(ctx context.Context, deviceID string, play bool) error
	PauseFunc                func(ctx context.Context, deviceID string) error
	ResumeFunc               func(ctx context.Context, deviceID string) error
	NextFunc                 func(ctx context.Context, deviceID string) error
	PreviousFunc             func(ctx context.Context, deviceID string) error
	SeekFunc                 func(ctx context.Context, deviceID string, positionMs int) error
	SetVolumeFunc            func(ctx context.Context, deviceID string, percent int) error
	RecommendationsFunc      func(ctx context.Context, seedTrackID string, limit int) ([]spotify.SimpleTrack, error)
}

func (f *FakeClient) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

// Calls returns how many times the named method was invoked.
func (f *FakeClient) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// TotalCalls returns the number of calls across all methods.
func (f *FakeClient) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// NotFound builds the error the real client returns for a 404.
func NotFound(op string) error {
	return shared.NewAPIError(op, shared.ErrNotFound, http.StatusNotFound, nil)
}

// Unauthorized builds the error the real client returns for a 401.
func Unauthorized(op string) error {
	return shared.NewAPIError(op, shared.ErrUnauthorized, http.StatusUnauthorized, nil)
}

// TransportFailure builds a network-level error.
func TransportFailure(op string) error {
	return shared.NewAPIError(op, shared.ErrTransport, 0, nil)
}

func (f *FakeClient) CurrentUserID(ctx context.Context) (string, error) {
	f.record("CurrentUserID")
	if f.CurrentUserIDFunc != nil {
		return f.CurrentUserIDFunc(ctx)
	}
	return "user", nil
}

func (f *FakeClient) SavedTracks(ctx context.Context, page api.Page) (*spotify.SavedTrackPage, error) {
	f.record("SavedTracks")
	if f.SavedTracksFunc != nil {
		return f.SavedTracksFunc(ctx, page)
	}
	return SavedTrackPage(page.Offset, 0), nil
}

func (f *FakeClient) TopTracks(ctx context.Context, page api.Page) (*spotify.FullTrackPage, error) {
	f.record("TopTracks")
	if f.TopTracksFunc != nil {
		return f.TopTracksFunc(ctx, page)
	}
	return FullTrackPage(page.Offset, 0), nil
}

func (f *FakeClient) Track(ctx context.Context, id string) (*spotify.FullTrack, error) {
	f.record("Track")
	if f.TrackFunc != nil {
		return f.TrackFunc(ctx, id)
	}
	return nil, NotFound("track")
}

func (f *FakeClient) SaveTracks(ctx context.Context, ids ...string) error {
	f.record("SaveTracks")
	if f.SaveTracksFunc != nil {
		return f.SaveTracksFunc(ctx, ids...)
	}
	return nil
}

func (f *FakeClient) RemoveSavedTracks(ctx context.Context, ids ...string) error {
	f.record("RemoveSavedTracks")
	if f.RemoveSavedTracksFunc != nil {
		return f.RemoveSavedTracksFunc(ctx, ids...)
	}
	return nil
}

func (f *FakeClient) ContainsSavedTracks(ctx context.Context, ids ...string) ([]bool, error) {
	f.record("ContainsSavedTracks")
	if f.ContainsSavedTracksFunc != nil {
		return f.ContainsSavedTracksFunc(ctx, ids...)
	}
	return make([]bool, len(ids)), nil
}

func (f *FakeClient) SavedAlbums(ctx context.Context, page api.Page) (*spotify.SavedAlbumPage, error) {
	f.record("SavedAlbums")
	if f.SavedAlbumsFunc != nil {
		return f.SavedAlbumsFunc(ctx, page)
	}
	return SavedAlbumPage(page.Offset, 0), nil
}

func (f *FakeClient) Album(ctx context.Context, id string) (*spotify.FullAlbum, error) {
	f.record("Album")
	if f.AlbumFunc != nil {
		return f.AlbumFunc(ctx, id)
	}
	return nil, NotFound("album")
}

func (f *FakeClient) AlbumTracks(ctx context.Context, id string, page api.Page) (*spotify.SimpleTrackPage, error) {
	f.record("AlbumTracks")
	if f.AlbumTracksFunc != nil {
		return f.AlbumTracksFunc(ctx, id, page)
	}
	return SimpleTrackPage(page.Offset, 0), nil
}

func (f *FakeClient) SaveAlbums(ctx context.Context, ids ...string) error {
	f.record("SaveAlbums")
	if f.SaveAlbumsFunc != nil {
		return f.SaveAlbumsFunc(ctx, ids...)
	}
	return nil
}

func (f *FakeClient) RemoveSavedAlbums(ctx context.Context, ids ...string) error {
	f.record("RemoveSavedAlbums")
	if f.RemoveSavedAlbumsFunc != nil {
		return f.RemoveSavedAlbumsFunc(ctx, ids...)
	}
	return nil
}

func (f *FakeClient) FollowedArtists(ctx context.Context, limit int, after string) (*spotify.FullArtistCursorPage, error) {
	f.record("FollowedArtists")
	if f.FollowedArtistsFunc != nil {
		return f.FollowedArtistsFunc(ctx, limit, after)
	}
	return ArtistCursorPage("", 0), nil
}

func (f *FakeClient) TopArtists(ctx context.Context, page api.Page) (*spotify.FullArtistPage, error) {
	f.record("TopArtists")
	if f.TopArtistsFunc != nil {
		return f.TopArtistsFunc(ctx, page)
	}
	return FullArtistPage(page.Offset, 0), nil
}

func (f *FakeClient) Artist(ctx context.Context, id string) (*spotify.FullArtist, error) {
	f.record("Artist")
	if f.ArtistFunc != nil {
		return f.ArtistFunc(ctx, id)
	}
	return nil, NotFound("artist")
}

func (f *FakeClient) ArtistTopTracks(ctx context.Context, id string) ([]spotify.FullTrack, error) {
	f.record("ArtistTopTracks")
	if f.ArtistTopTracksFunc != nil {
		return f.ArtistTopTracksFunc(ctx, id)
	}
	return nil, nil
}

func (f *FakeClient) UserPlaylists(ctx context.Context, page api.Page) (*spotify.SimplePlaylistPage, error) {
	f.record("UserPlaylists")
	if f.UserPlaylistsFunc != nil {
		return f.UserPlaylistsFunc(ctx, page)
	}
	return SimplePlaylistPage(page.Offset, 0), nil
}

func (f *FakeClient) PlaylistItems(ctx context.Context, id string, page api.Page) (*spotify.PlaylistItemPage, error) {
	f.record("PlaylistItems")
	if f.PlaylistItemsFunc != nil {
		return f.PlaylistItemsFunc(ctx, id, page)
	}
	return PlaylistItemPage(page.Offset, 0), nil
}

func (f *FakeClient) CreatePlaylist(ctx context.Context, name, description string, public bool) (*spotify.FullPlaylist, error) {
	f.record("CreatePlaylist")
	if f.CreatePlaylistFunc != nil {
		return f.CreatePlaylistFunc(ctx, name, description, public)
	}
	p := FullPlaylist("created", name, 0)
	return &p, nil
}

func (f *FakeClient) RenamePlaylist(ctx context.Context, id, name string) error {
	f.record("RenamePlaylist")
	if f.RenamePlaylistFunc != nil {
		return f.RenamePlaylistFunc(ctx, id, name)
	}
	return nil
}

func (f *FakeClient) DeletePlaylist(ctx context.Context, id string) error {
	f.record("DeletePlaylist")
	if f.DeletePlaylistFunc != nil {
		return f.DeletePlaylistFunc(ctx, id)
	}
	return nil
}

func (f *FakeClient) AddPlaylistTracks(ctx context.Context, id string, trackIDs ...string) (string, error) {
	f.record("AddPlaylistTracks")
	if f.AddPlaylistTracksFunc != nil {
		return f.AddPlaylistTracksFunc(ctx, id, trackIDs...)
	}
	return "snapshot", nil
}

func (f *FakeClient) RemovePlaylistTracks(ctx context.Context, id string, trackIDs ...string) (string, error) {
	f.record("RemovePlaylistTracks")
	if f.RemovePlaylistTracksFunc != nil {
		return f.RemovePlaylistTracksFunc(ctx, id, trackIDs...)
	}
	return "snapshot", nil
}

func (f *FakeClient) ReorderPlaylistTracks(ctx context.Context, id string, from, insertBefore int) (string, error) {
	f.record("ReorderPlaylistTracks")
	if f.ReorderPlaylistFunc != nil {
		return f.ReorderPlaylistFunc(ctx, id, from, insertBefore)
	}
	return "snapshot", nil
}

func (f *FakeClient) Search(ctx context.Context, query string, types spotify.SearchType, limit int) (*spotify.SearchResult, error) {
	f.record("Search")
	if f.SearchFunc != nil {
		return f.SearchFunc(ctx, query, types, limit)
	}
	return &spotify.SearchResult{}, nil
}

func (f *FakeClient) RecentlyPlayed(ctx context.Context, limit int) ([]spotify.RecentlyPlayedItem, error) {
	f.record("RecentlyPlayed")
	if f.RecentlyPlayedFunc != nil {
		return f.RecentlyPlayedFunc(ctx, limit)
	}
	return nil, nil
}

func (f *FakeClient) Devices(ctx context.Context) ([]api.SpotifyDevice, error) {
	f.record("Devices")
	if f.DevicesFunc != nil {
		return f.DevicesFunc(ctx)
	}
	return nil, nil
}

func (f *FakeClient) PlayerState(ctx context.Context) (*spotify.PlayerState, error) {
	f.record("PlayerState")
	if f.PlayerStateFunc != nil {
		return f.PlayerStateFunc(ctx)
	}
	return nil, nil
}

func (f *FakeClient) Queue(ctx context.Context) (*api.SpotifyQueue, error) {
	f.record("Queue")
	if f.QueueFunc != nil {
		return f.QueueFunc(ctx)
	}
	return &api.SpotifyQueue{}, nil
}

func (f *FakeClient) QueueTrack(ctx context.Context, trackID string) error {
	f.record("QueueTrack")
	if f.QueueTrackFunc != nil {
		return f.QueueTrackFunc(ctx, trackID)
	}
	return nil
}

func (f *FakeClient) Play(ctx context.Context, deviceID string, uris ...string) error {
	f.record("Play")
	if f.PlayFunc != nil {
		return f.PlayFunc(ctx, deviceID, uris...)
	}
	return nil
}

func (f *FakeClient) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	f.record("TransferPlayback")
	if f.TransferPlaybackFunc != nil {
		return f.TransferPlaybackFunc(ctx, deviceID, play)
	}
	return nil
}

// control records name and runs fn when set, for the player controls that only return an error.
func (f *FakeClient) control(name string, fn func() error) error {
	f.record(name)
	if fn != nil {
		return fn()
	}
	return nil
}

func (f *FakeClient) Pause(ctx context.Context, deviceID string) error {
	var fn func() error
	if f.PauseFunc != nil {
		fn = func() error { return f.PauseFunc(ctx, deviceID) }
	}
	return f.control("Pause", fn)
}

func (f *FakeClient) Resume(ctx context.Context, deviceID string) error {
	var fn func() error
	if f.ResumeFunc != nil {
		fn = func() error { return f.ResumeFunc(ctx, deviceID) }
	}
	return f.control("Resume", fn)
}

func (f *FakeClient) Next(ctx context.Context, deviceID string) error {
	var fn func() error
	if f.NextFunc != nil {
		fn = func() error { return f.NextFunc(ctx, deviceID) }
	}
	return f.control("Next", fn)
}

func (f *FakeClient) Previous(ctx context.Context, deviceID string) error {
	var fn func() error
	if f.PreviousFunc != nil {
		fn = func() error { return f.PreviousFunc(ctx, deviceID) }
	}
	return f.control("Previous", fn)
}

func (f *FakeClient) Seek(ctx context.Context, deviceID string, positionMs int) error {
	var fn func() error
	if f.SeekFunc != nil {
		fn = func() error { return f.SeekFunc(ctx, deviceID, positionMs) }
	}
	return f.control("Seek", fn)
}

func (f *FakeClient) SetVolume(ctx context.Context, deviceID string, percent int) error {
	var fn func() error
	if f.SetVolumeFunc != nil {
		fn = func() error { return f.SetVolumeFunc(ctx, deviceID, percent) }
	}
	return f.control("SetVolume", fn)
}

func (f *FakeClient) Recommendations(ctx context.Context, seedTrackID string, limit int) ([]spotify.SimpleTrack, error) {
	f.record("Recommendations")
	if f.RecommendationsFunc != nil {
		return f.RecommendationsFunc(ctx, seedTrackID, limit)
	}
	return nil, nil
}

var _ api.Client = (*FakeClient)(nil)
