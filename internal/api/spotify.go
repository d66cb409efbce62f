// Spotify Web API implementation of [Client]
//
// Most endpoints go through github.com/zmb3/spotify/v2. Devices, queue and playlist reordering are
// decoded directly so fields the spotify package does not model (is_private_session) survive.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifly/internal/auth"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"
)

const spotifyBaseURL = "https://api.spotify.com/v1/"

// tokenTransport adds the session's current token to each request and waits on the limiter.
type tokenTransport struct {
	base    http.RoundTripper
	session auth.Session
	limiter *rate.Limiter
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	token, err := t.session.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	req = req.Clone(ctx)
	req.Header.Set("Authorization", "Bearer "+token)

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// Options configures a [SpotifyClient].
type Options struct {
	Session           auth.Session
	BaseURL           string // defaults to the public Web API
	RequestsPerSecond float64
	Burst             int
	Retry             bool
	Timeout           time.Duration // per request, zero for none
	Transport         http.RoundTripper
	Logger            *log.Logger
}

// SpotifyClient implements [Client] against the Spotify Web API.
type SpotifyClient struct {
	api        *spotify.Client
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger

	userOnce sync.Mutex
	userID   string
}

// NewSpotifyClient creates a client whose requests carry the session's token and share one rate limiter.
func NewSpotifyClient(opts Options) (*SpotifyClient, error) {
	if opts.Session == nil {
		return nil, fmt.Errorf("%w: session is required", shared.ErrMissingArgument)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := max(opts.Burst, 1)
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	httpClient := &http.Client{
		Transport: &tokenTransport{base: opts.Transport, session: opts.Session, limiter: limiter},
		Timeout:   opts.Timeout,
	}

	clientOpts := []spotify.ClientOption{spotify.WithBaseURL(opts.BaseURL)}
	if opts.Retry {
		clientOpts = append(clientOpts, spotify.WithRetry(true))
	}

	return &SpotifyClient{
		api:        spotify.New(httpClient, clientOpts...),
		httpClient: httpClient,
		baseURL:    opts.BaseURL,
		logger:     shared.WithLogger(opts.Logger, "component", "api"),
	}, nil
}

// doRequest performs an authenticated request and decodes a JSON result.
func (c *SpotifyClient) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: failed to encode request: %v", shared.ErrInvalidRequest, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &statusError{Status: resp.StatusCode, Message: payload.Error.Message}
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func pageOpts(p Page) []spotify.RequestOption {
	opts := []spotify.RequestOption{}
	if p.Limit > 0 {
		opts = append(opts, spotify.Limit(p.Limit))
	}
	if p.Offset > 0 {
		opts = append(opts, spotify.Offset(p.Offset))
	}
	return opts
}

func toIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}

// CurrentUserID returns the authenticated user's ID, fetched once.
func (c *SpotifyClient) CurrentUserID(ctx context.Context) (string, error) {
	c.userOnce.Lock()
	defer c.userOnce.Unlock()

	if c.userID != "" {
		return c.userID, nil
	}

	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", classify("current-user", err)
	}
	c.userID = user.ID
	return c.userID, nil
}

func (c *SpotifyClient) SavedTracks(ctx context.Context, page Page) (*spotify.SavedTrackPage, error) {
	res, err := c.api.CurrentUsersTracks(ctx, pageOpts(page)...)
	return res, classify("saved-tracks", err)
}

func (c *SpotifyClient) TopTracks(ctx context.Context, page Page) (*spotify.FullTrackPage, error) {
	res, err := c.api.CurrentUsersTopTracks(ctx, pageOpts(page)...)
	return res, classify("top-tracks", err)
}

func (c *SpotifyClient) Track(ctx context.Context, id string) (*spotify.FullTrack, error) {
	res, err := c.api.GetTrack(ctx, spotify.ID(id))
	return res, classify("track", err)
}

func (c *SpotifyClient) SaveTracks(ctx context.Context, ids ...string) error {
	return classify("save-tracks", c.api.AddTracksToLibrary(ctx, toIDs(ids)...))
}

func (c *SpotifyClient) RemoveSavedTracks(ctx context.Context, ids ...string) error {
	return classify("remove-saved-tracks", c.api.RemoveTracksFromLibrary(ctx, toIDs(ids)...))
}

func (c *SpotifyClient) ContainsSavedTracks(ctx context.Context, ids ...string) ([]bool, error) {
	res, err := c.api.UserHasTracks(ctx, toIDs(ids)...)
	return res, classify("contains-saved-tracks", err)
}

func (c *SpotifyClient) SavedAlbums(ctx context.Context, page Page) (*spotify.SavedAlbumPage, error) {
	res, err := c.api.CurrentUsersAlbums(ctx, pageOpts(page)...)
	return res, classify("saved-albums", err)
}

func (c *SpotifyClient) Album(ctx context.Context, id string) (*spotify.FullAlbum, error) {
	res, err := c.api.GetAlbum(ctx, spotify.ID(id))
	return res, classify("album", err)
}

func (c *SpotifyClient) AlbumTracks(ctx context.Context, id string, page Page) (*spotify.SimpleTrackPage, error) {
	res, err := c.api.GetAlbumTracks(ctx, spotify.ID(id), pageOpts(page)...)
	return res, classify("album-tracks", err)
}

func (c *SpotifyClient) SaveAlbums(ctx context.Context, ids ...string) error {
	return classify("save-albums", c.api.AddAlbumsToLibrary(ctx, toIDs(ids)...))
}

func (c *SpotifyClient) RemoveSavedAlbums(ctx context.Context, ids ...string) error {
	return classify("remove-saved-albums", c.api.RemoveAlbumsFromLibrary(ctx, toIDs(ids)...))
}

func (c *SpotifyClient) FollowedArtists(ctx context.Context, limit int, after string) (*spotify.FullArtistCursorPage, error) {
	opts := []spotify.RequestOption{}
	if limit > 0 {
		opts = append(opts, spotify.Limit(limit))
	}
	if after != "" {
		opts = append(opts, spotify.After(after))
	}
	res, err := c.api.CurrentUsersFollowedArtists(ctx, opts...)
	return res, classify("followed-artists", err)
}

func (c *SpotifyClient) TopArtists(ctx context.Context, page Page) (*spotify.FullArtistPage, error) {
	res, err := c.api.CurrentUsersTopArtists(ctx, pageOpts(page)...)
	return res, classify("top-artists", err)
}

func (c *SpotifyClient) Artist(ctx context.Context, id string) (*spotify.FullArtist, error) {
	res, err := c.api.GetArtist(ctx, spotify.ID(id))
	return res, classify("artist", err)
}

func (c *SpotifyClient) ArtistTopTracks(ctx context.Context, id string) ([]spotify.FullTrack, error) {
	res, err := c.api.GetArtistsTopTracks(ctx, spotify.ID(id), "from_token")
	return res, classify("artist-top-tracks", err)
}

func (c *SpotifyClient) UserPlaylists(ctx context.Context, page Page) (*spotify.SimplePlaylistPage, error) {
	res, err := c.api.CurrentUsersPlaylists(ctx, pageOpts(page)...)
	return res, classify("user-playlists", err)
}

func (c *SpotifyClient) PlaylistItems(ctx context.Context, id string, page Page) (*spotify.PlaylistItemPage, error) {
	res, err := c.api.GetPlaylistItems(ctx, spotify.ID(id), pageOpts(page)...)
	return res, classify("playlist-items", err)
}

func (c *SpotifyClient) CreatePlaylist(ctx context.Context, name, description string, public bool) (*spotify.FullPlaylist, error) {
	userID, err := c.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}
	res, err := c.api.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	return res, classify("create-playlist", err)
}

func (c *SpotifyClient) RenamePlaylist(ctx context.Context, id, name string) error {
	return classify("rename-playlist", c.api.ChangePlaylistName(ctx, spotify.ID(id), name))
}

// DeletePlaylist unfollows the playlist, which is how the Web API deletes an owned playlist.
func (c *SpotifyClient) DeletePlaylist(ctx context.Context, id string) error {
	return classify("delete-playlist", c.api.UnfollowPlaylist(ctx, spotify.ID(id)))
}

func (c *SpotifyClient) AddPlaylistTracks(ctx context.Context, id string, trackIDs ...string) (string, error) {
	snapshot, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(id), toIDs(trackIDs)...)
	return snapshot, classify("add-playlist-tracks", err)
}

func (c *SpotifyClient) RemovePlaylistTracks(ctx context.Context, id string, trackIDs ...string) (string, error) {
	snapshot, err := c.api.RemoveTracksFromPlaylist(ctx, spotify.ID(id), toIDs(trackIDs)...)
	return snapshot, classify("remove-playlist-tracks", err)
}

func (c *SpotifyClient) ReorderPlaylistTracks(ctx context.Context, id string, from, insertBefore int) (string, error) {
	body := reorderRequest{RangeStart: from, RangeLength: 1, InsertBefore: insertBefore}
	var res snapshotResponse
	if err := c.doRequest(ctx, http.MethodPut, "playlists/"+id+"/tracks", body, &res); err != nil {
		return "", classify("reorder-playlist-tracks", err)
	}
	return res.SnapshotID, nil
}

func (c *SpotifyClient) Search(ctx context.Context, query string, types spotify.SearchType, limit int) (*spotify.SearchResult, error) {
	opts := []spotify.RequestOption{}
	if limit > 0 {
		opts = append(opts, spotify.Limit(limit))
	}
	res, err := c.api.Search(ctx, query, types, opts...)
	return res, classify("search", err)
}

func (c *SpotifyClient) RecentlyPlayed(ctx context.Context, limit int) ([]spotify.RecentlyPlayedItem, error) {
	res, err := c.api.PlayerRecentlyPlayedOpt(ctx, &spotify.RecentlyPlayedOptions{Limit: spotify.Numeric(limit)})
	return res, classify("recently-played", err)
}

func (c *SpotifyClient) Devices(ctx context.Context) ([]SpotifyDevice, error) {
	var res devicesResponse
	if err := c.doRequest(ctx, http.MethodGet, "me/player/devices", nil, &res); err != nil {
		return nil, classify("devices", err)
	}
	return res.Devices, nil
}

func (c *SpotifyClient) PlayerState(ctx context.Context) (*spotify.PlayerState, error) {
	res, err := c.api.PlayerState(ctx)
	return res, classify("player-state", err)
}

func (c *SpotifyClient) Queue(ctx context.Context) (*SpotifyQueue, error) {
	var res SpotifyQueue
	if err := c.doRequest(ctx, http.MethodGet, "me/player/queue", nil, &res); err != nil {
		return nil, classify("queue", err)
	}
	return &res, nil
}

func (c *SpotifyClient) QueueTrack(ctx context.Context, trackID string) error {
	return classify("queue-track", c.api.QueueSong(ctx, spotify.ID(trackID)))
}

// playOpts targets deviceID, leaving the choice to the server when it is empty.
func playOpts(deviceID string) *spotify.PlayOptions {
	opt := &spotify.PlayOptions{}
	if deviceID != "" {
		id := spotify.ID(deviceID)
		opt.DeviceID = &id
	}
	return opt
}

func (c *SpotifyClient) Play(ctx context.Context, deviceID string, uris ...string) error {
	opt := playOpts(deviceID)
	for _, u := range uris {
		opt.URIs = append(opt.URIs, spotify.URI(u))
	}
	return classify("play", c.api.PlayOpt(ctx, opt))
}

func (c *SpotifyClient) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	return classify("transfer-playback", c.api.TransferPlayback(ctx, spotify.ID(deviceID), play))
}

func (c *SpotifyClient) Pause(ctx context.Context, deviceID string) error {
	return classify("pause", c.api.PauseOpt(ctx, playOpts(deviceID)))
}

// Resume continues the current context; a play request without URIs does not replace it.
func (c *SpotifyClient) Resume(ctx context.Context, deviceID string) error {
	return classify("resume", c.api.PlayOpt(ctx, playOpts(deviceID)))
}

func (c *SpotifyClient) Next(ctx context.Context, deviceID string) error {
	return classify("next", c.api.NextOpt(ctx, playOpts(deviceID)))
}

func (c *SpotifyClient) Previous(ctx context.Context, deviceID string) error {
	return classify("previous", c.api.PreviousOpt(ctx, playOpts(deviceID)))
}

func (c *SpotifyClient) Seek(ctx context.Context, deviceID string, positionMs int) error {
	return classify("seek", c.api.SeekOpt(ctx, positionMs, playOpts(deviceID)))
}

func (c *SpotifyClient) SetVolume(ctx context.Context, deviceID string, percent int) error {
	return classify("volume", c.api.VolumeOpt(ctx, percent, playOpts(deviceID)))
}

func (c *SpotifyClient) Recommendations(ctx context.Context, seedTrackID string, limit int) ([]spotify.SimpleTrack, error) {
	seeds := spotify.Seeds{Tracks: []spotify.ID{spotify.ID(seedTrackID)}}
	res, err := c.api.GetRecommendations(ctx, seeds, nil, spotify.Limit(limit))
	if err != nil {
		return nil, classify("recommendations", err)
	}
	return res.Tracks, nil
}

var _ Client = (*SpotifyClient)(nil)
