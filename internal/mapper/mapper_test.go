package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/desertthunder/spotifly/internal/api"
	"github.com/desertthunder/spotifly/internal/models"
	"github.com/zmb3/spotify/v2"
)

func decode[T any](t *testing.T, raw string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("failed to decode fixture: %v", err)
	}
	return v
}

const fullTrackJSON = `{
	"id": "t1", "name": "Song", "uri": "spotify:track:t1", "duration_ms": 200000, "track_number": 4,
	"external_urls": {"spotify": "https://open.spotify.com/track/t1"},
	"album": {"id": "a1", "name": "Album", "images": [
		{"url": "small", "width": 64, "height": 64},
		{"url": "large", "width": 640, "height": 640}
	]},
	"artists": [{"id": "ar1", "name": "First"}, {"id": "ar2", "name": "Second"}]
}`

func TestBestImageURL(t *testing.T) {
	tests := []struct {
		name   string
		images []spotify.Image
		want   string
	}{
		{"no images", nil, ""},
		{"largest area wins", []spotify.Image{{URL: "a", Width: 10, Height: 10}, {URL: "b", Width: 300, Height: 300}, {URL: "c", Width: 64, Height: 64}}, "b"},
		{"unsized keeps first", []spotify.Image{{URL: "a"}, {URL: "b"}}, "a"},
		{"empty url skipped", []spotify.Image{{URL: "", Width: 900, Height: 900}, {URL: "b", Width: 1, Height: 1}}, "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BestImageURL(tt.images); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTrackConversion(t *testing.T) {
	t.Run("full track", func(t *testing.T) {
		track := TrackFromFull(decode[spotify.FullTrack](t, fullTrackJSON))

		if track.ID != "t1" || track.Name != "Song" || track.DurationMs != 200000 {
			t.Errorf("unexpected track %+v", track)
		}
		if track.TrackNumber != 0 {
			t.Errorf("track number should be unknown outside an album, got %d", track.TrackNumber)
		}
		if track.AlbumID != "a1" || track.AlbumName != "Album" || track.ImageURL != "large" {
			t.Errorf("unexpected album context %+v", track)
		}
		if track.ArtistID != "ar1" || track.ArtistName != "First, Second" {
			t.Errorf("unexpected artist credit %q/%q", track.ArtistID, track.ArtistName)
		}
		if track.ExternalURL != "https://open.spotify.com/track/t1" {
			t.Errorf("unexpected external url %q", track.ExternalURL)
		}
	})

	t.Run("external url derived from uri when missing", func(t *testing.T) {
		track := TrackFromFull(decode[spotify.FullTrack](t, `{"id": "t9", "uri": "spotify:track:t9"}`))
		if track.ExternalURL != "https://open.spotify.com/track/t9" {
			t.Errorf("unexpected external url %q", track.ExternalURL)
		}
	})

	t.Run("saved track", func(t *testing.T) {
		saved := decode[spotify.SavedTrack](t, `{"added_at": "2024-05-01T00:00:00Z", "track": `+fullTrackJSON+`}`)
		if got := TrackFromSaved(saved); got.ID != "t1" || got.AlbumID != "a1" {
			t.Errorf("unexpected track %+v", got)
		}
	})

	t.Run("album item takes album context", func(t *testing.T) {
		album := models.Album{ID: "a1", Name: "Album", ImageURL: "cover", ArtistID: "ar1", ArtistName: "Band"}
		item := decode[spotify.SimpleTrack](t, `{"id": "t2", "name": "Two", "duration_ms": 1000, "track_number": 2}`)

		track := TrackFromAlbumItem(item, album)
		if track.TrackNumber != 2 || track.AlbumID != "a1" || track.ImageURL != "cover" {
			t.Errorf("unexpected track %+v", track)
		}
		if track.ArtistID != "ar1" || track.ArtistName != "Band" {
			t.Errorf("expected album artist fallback, got %q/%q", track.ArtistID, track.ArtistName)
		}
	})

	t.Run("playlist items skip episodes and local files", func(t *testing.T) {
		items := decode[[]spotify.PlaylistItem](t, `[
			{"is_local": false, "track": {"type": "track", "id": "t1", "name": "Song"}},
			{"is_local": true, "track": {"type": "track", "id": "", "name": "local.mp3"}},
			{"is_local": false, "track": {"type": "episode", "id": "e1", "name": "Episode"}}
		]`)

		tracks := TracksFromPlaylistItems(items)
		if len(tracks) != 1 || tracks[0].ID != "t1" {
			t.Errorf("expected only t1, got %+v", tracks)
		}
	})

	t.Run("recommended tracks keep their embedded album", func(t *testing.T) {
		items := decode[[]spotify.SimpleTrack](t, `[
			{"id": "r1", "name": "Radio", "uri": "spotify:track:r1", "album": {"id": "a7", "name": "Seventh"},
			 "artists": [{"id": "ar7", "name": "Band"}]}
		]`)

		full := FullTracksFromSimple(items)
		tracks := TracksFromFull(full)
		if len(tracks) != 1 || tracks[0].AlbumID != "a7" || tracks[0].AlbumName != "Seventh" || tracks[0].ArtistID != "ar7" {
			t.Errorf("unexpected tracks %+v", tracks)
		}
		if albums := AlbumsFromTracks(full); len(albums) != 1 || albums[0].ID != "a7" {
			t.Errorf("expected album a7, got %+v", albums)
		}
	})

	t.Run("summary and expanded shapes converge", func(t *testing.T) {
		fromSearch := TrackFromFull(decode[spotify.FullTrack](t, fullTrackJSON))
		fromRecent := TrackFromSimple(decode[spotify.SimpleTrack](t, `{"id": "t1", "name": "Song", "duration_ms": 200000}`))

		merged := fromRecent.Merge(fromSearch)
		if merged.AlbumID != "a1" || merged.ImageURL != "large" || merged.Name != "Song" {
			t.Errorf("sparser shape should not erase known fields, got %+v", merged)
		}
	})

	t.Run("TotalDuration", func(t *testing.T) {
		total, ok := TotalDuration([]models.Track{{DurationMs: 1000}, {DurationMs: 500}})
		if !ok || total != 1500 {
			t.Errorf("expected (1500, true), got (%d, %v)", total, ok)
		}
		if _, ok := TotalDuration([]models.Track{{DurationMs: 1000}, {}}); ok {
			t.Error("expected unknown total when a duration is missing")
		}
	})
}

func TestAlbumConversion(t *testing.T) {
	const fullAlbumJSON = `{
		"id": "a1", "name": "Album", "uri": "spotify:album:a1", "release_date": "2020-01-01",
		"artists": [{"id": "ar1", "name": "Band"}],
		"tracks": {"total": 2, "items": [
			{"id": "t1", "name": "One", "duration_ms": 1000, "track_number": 1},
			{"id": "t2", "name": "Two", "duration_ms": 2000, "track_number": 2}
		]}
	}`

	t.Run("saved album is a summary", func(t *testing.T) {
		saved := decode[spotify.SavedAlbum](t, `{"added_at": "2024-01-01T00:00:00Z", "album": `+fullAlbumJSON+`}`)
		album := AlbumFromSaved(saved)

		if album.TracksLoaded() {
			t.Error("saved album listing should not be expanded")
		}
		if album.TrackCount() != 2 || album.ArtistName != "Band" || album.ReleaseDate != "2020-01-01" {
			t.Errorf("unexpected album %+v", album)
		}
	})

	t.Run("complete embedded tracks expand the album", func(t *testing.T) {
		album, tracks, complete := ExpandFullAlbum(decode[spotify.FullAlbum](t, fullAlbumJSON))
		if !complete || !album.TracksLoaded() || len(tracks) != 2 {
			t.Fatalf("expected expanded album, got %+v (%d tracks)", album, len(tracks))
		}
		if album.TotalDurationMs != 3000 {
			t.Errorf("expected total 3000, got %d", album.TotalDurationMs)
		}
	})

	t.Run("partial embedded page stays a summary", func(t *testing.T) {
		partial := decode[spotify.FullAlbum](t, `{"id": "a2", "tracks": {"total": 30, "items": [{"id": "t1", "duration_ms": 1}]}}`)
		album, _, complete := ExpandFullAlbum(partial)
		if complete || album.TracksLoaded() || album.TrackCount() != 30 {
			t.Errorf("unexpected album %+v", album)
		}
	})
}

func TestArtistAndPlaylistConversion(t *testing.T) {
	t.Run("simple artist has unknown followers", func(t *testing.T) {
		a := ArtistFromSimple(spotify.SimpleArtist{ID: "ar1", Name: "Band"})
		if a.Followers != -1 {
			t.Errorf("expected -1, got %d", a.Followers)
		}
	})

	t.Run("full artist", func(t *testing.T) {
		a := ArtistFromFull(decode[spotify.FullArtist](t, `{
			"id": "ar1", "name": "Band", "genres": ["rock", "pop"], "followers": {"total": 42},
			"images": [{"url": "img", "width": 10, "height": 10}]
		}`))
		if a.Followers != 42 || !a.HasGenre("rock") || a.ImageURL != "img" {
			t.Errorf("unexpected artist %+v", a)
		}
	})

	t.Run("artists derived from track credits are de-duplicated", func(t *testing.T) {
		tracks := decode[[]spotify.FullTrack](t, `[
			{"id": "t1", "artists": [{"id": "ar1", "name": "A"}, {"id": "ar2", "name": "B"}]},
			{"id": "t2", "artists": [{"id": "ar1", "name": "A"}]}
		]`)
		if got := ArtistsFromTracks(tracks); len(got) != 2 {
			t.Errorf("expected 2 artists, got %d", len(got))
		}
	})

	t.Run("playlist summary carries the listing count", func(t *testing.T) {
		p := PlaylistFromSimple(decode[spotify.SimplePlaylist](t, `{
			"id": "p1", "name": "Mix", "public": true, "snapshot_id": "s1",
			"owner": {"id": "u1", "display_name": "User"}, "tracks": {"total": 12}
		}`))
		if p.TrackCount() != 12 || p.TracksLoaded() || p.OwnerName != "User" || !p.Public {
			t.Errorf("unexpected playlist %+v", p)
		}
	})
}

func TestPlaybackConversion(t *testing.T) {
	t.Run("device volume unknown", func(t *testing.T) {
		d := DeviceFromAPI(api.SpotifyDevice{ID: "d1", IsPrivateSession: true})
		if d.VolumePercent != -1 || !d.IsPrivateSession {
			t.Errorf("unexpected device %+v", d)
		}
	})

	t.Run("now playing", func(t *testing.T) {
		at := time.Unix(1000, 0)
		state := decode[spotify.PlayerState](t, `{
			"device": {"id": "d1"}, "is_playing": true, "progress_ms": 1500, "item": `+fullTrackJSON+`
		}`)

		np, track := NowPlayingFrom(&state, at)
		if track == nil || np.TrackID != "t1" || np.DeviceID != "d1" || !np.IsPlaying || np.ProgressMs != 1500 {
			t.Errorf("unexpected now playing %+v / %v", np, track)
		}
		if !np.FetchedAt.Equal(at) {
			t.Errorf("unexpected fetched at %v", np.FetchedAt)
		}
	})

	t.Run("nothing playing", func(t *testing.T) {
		np, track := NowPlayingFrom(nil, time.Now())
		if track != nil || np.TrackID != "" {
			t.Errorf("expected empty snapshot, got %+v", np)
		}
	})

	t.Run("queue puts current first", func(t *testing.T) {
		q := decode[api.SpotifyQueue](t, `{"currently_playing": {"id": "t1"}, "queue": [{"id": "t2"}, {"id": "t3"}]}`)
		tracks, state := QueueFrom(&q)
		if len(tracks) != 3 || state.CurrentIndex != 0 {
			t.Fatalf("unexpected queue %+v", state)
		}
		if up := state.Upcoming(); len(up) != 2 || up[0] != "t2" {
			t.Errorf("unexpected upcoming %v", up)
		}
	})

	t.Run("queue without current item", func(t *testing.T) {
		q := decode[api.SpotifyQueue](t, `{"queue": [{"id": "t2"}]}`)
		_, state := QueueFrom(&q)
		if state.CurrentIndex != -1 || len(state.Upcoming()) != 1 {
			t.Errorf("unexpected queue %+v", state)
		}
	})
}
