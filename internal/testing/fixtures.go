package testing

import (
	"encoding/json"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// Fixture builders go through JSON so they decode exactly like real responses.

func mustDecode(v any, out any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("fixture encode: %v", err))
	}
	if err := json.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("fixture decode: %v", err))
	}
}

func asMap(v any) map[string]any {
	var m map[string]any
	mustDecode(v, &m)
	return m
}

func pageBody(offset, total int, items []any) map[string]any {
	next := ""
	if offset+len(items) < total {
		next = fmt.Sprintf("https://api.spotify.com/v1/next?offset=%d", offset+len(items))
	}
	return map[string]any{
		"href":   "https://api.spotify.com/v1/page",
		"limit":  len(items),
		"offset": offset,
		"total":  total,
		"next":   next,
		"items":  items,
	}
}

// FullTrack builds a track on album "album-<id>" by artist "artist-<id>".
func FullTrack(id string, durationMs int) spotify.FullTrack {
	var t spotify.FullTrack
	mustDecode(map[string]any{
		"id":          id,
		"name":        "Track " + id,
		"uri":         "spotify:track:" + id,
		"type":        "track",
		"duration_ms": durationMs,
		"album":       map[string]any{"id": "album-" + id, "name": "Album " + id},
		"artists":     []any{map[string]any{"id": "artist-" + id, "name": "Artist " + id}},
	}, &t)
	return t
}

// SimpleTrack builds an album-track listing item.
func SimpleTrack(id string, number, durationMs int) spotify.SimpleTrack {
	var t spotify.SimpleTrack
	mustDecode(map[string]any{
		"id":           id,
		"name":         "Track " + id,
		"uri":          "spotify:track:" + id,
		"duration_ms":  durationMs,
		"track_number": number,
	}, &t)
	return t
}

func FullArtist(id, name string) spotify.FullArtist {
	var a spotify.FullArtist
	mustDecode(map[string]any{
		"id":        id,
		"name":      name,
		"uri":       "spotify:artist:" + id,
		"genres":    []string{"indie"},
		"followers": map[string]any{"total": 100},
	}, &a)
	return a
}

// FullAlbum builds an album whose listing reports total tracks and embeds none.
func FullAlbum(id, name string, total int) spotify.FullAlbum {
	var a spotify.FullAlbum
	mustDecode(map[string]any{
		"id":      id,
		"name":    name,
		"uri":     "spotify:album:" + id,
		"artists": []any{map[string]any{"id": "artist-" + id, "name": "Artist " + id}},
		"tracks":  pageBody(0, total, []any{}),
	}, &a)
	return a
}

func SimplePlaylist(id, name string, total int) spotify.SimplePlaylist {
	var p spotify.SimplePlaylist
	mustDecode(map[string]any{
		"id":          id,
		"name":        name,
		"uri":         "spotify:playlist:" + id,
		"snapshot_id": "snap-" + id,
		"owner":       map[string]any{"id": "user", "display_name": "User"},
		"tracks":      map[string]any{"total": total},
	}, &p)
	return p
}

func FullPlaylist(id, name string, total int) spotify.FullPlaylist {
	var p spotify.FullPlaylist
	mustDecode(map[string]any{
		"id":          id,
		"name":        name,
		"uri":         "spotify:playlist:" + id,
		"snapshot_id": "snap-" + id,
		"owner":       map[string]any{"id": "user", "display_name": "User"},
		"tracks":      pageBody(0, total, []any{}),
	}, &p)
	return p
}

func SavedTrackPage(offset, total int, tracks ...spotify.FullTrack) *spotify.SavedTrackPage {
	items := make([]any, len(tracks))
	for i, t := range tracks {
		items[i] = map[string]any{"added_at": "2024-01-01T00:00:00Z", "track": t}
	}
	var p spotify.SavedTrackPage
	mustDecode(pageBody(offset, total, items), &p)
	return &p
}

func FullTrackPage(offset, total int, tracks ...spotify.FullTrack) *spotify.FullTrackPage {
	items := make([]any, len(tracks))
	for i, t := range tracks {
		items[i] = t
	}
	var p spotify.FullTrackPage
	mustDecode(pageBody(offset, total, items), &p)
	return &p
}

func SimpleTrackPage(offset, total int, tracks ...spotify.SimpleTrack) *spotify.SimpleTrackPage {
	items := make([]any, len(tracks))
	for i, t := range tracks {
		items[i] = t
	}
	var p spotify.SimpleTrackPage
	mustDecode(pageBody(offset, total, items), &p)
	return &p
}

func SavedAlbumPage(offset, total int, albums ...spotify.FullAlbum) *spotify.SavedAlbumPage {
	items := make([]any, len(albums))
	for i, a := range albums {
		items[i] = map[string]any{"added_at": "2024-01-01T00:00:00Z", "album": a}
	}
	var p spotify.SavedAlbumPage
	mustDecode(pageBody(offset, total, items), &p)
	return &p
}

func SimplePlaylistPage(offset, total int, playlists ...spotify.SimplePlaylist) *spotify.SimplePlaylistPage {
	items := make([]any, len(playlists))
	for i, p := range playlists {
		items[i] = p
	}
	var p spotify.SimplePlaylistPage
	mustDecode(pageBody(offset, total, items), &p)
	return &p
}

// PlaylistItemPage wraps tracks as playlist items.
func PlaylistItemPage(offset, total int, tracks ...spotify.FullTrack) *spotify.PlaylistItemPage {
	items := make([]any, len(tracks))
	for i, t := range tracks {
		track := asMap(t)
		track["type"] = "track"
		items[i] = map[string]any{"added_at": "2024-01-01T00:00:00Z", "is_local": false, "track": track}
	}
	var p spotify.PlaylistItemPage
	mustDecode(pageBody(offset, total, items), &p)
	return &p
}

func FullArtistPage(offset, total int, artists ...spotify.FullArtist) *spotify.FullArtistPage {
	items := make([]any, len(artists))
	for i, a := range artists {
		items[i] = a
	}
	var p spotify.FullArtistPage
	mustDecode(pageBody(offset, total, items), &p)
	return &p
}

// ArtistCursorPage builds a followed-artists page. An empty after cursor marks the last page.
func ArtistCursorPage(after string, total int, artists ...spotify.FullArtist) *spotify.FullArtistCursorPage {
	items := make([]any, len(artists))
	for i, a := range artists {
		items[i] = a
	}
	next := ""
	if after != "" {
		next = "https://api.spotify.com/v1/me/following?type=artist&after=" + after
	}
	var p spotify.FullArtistCursorPage
	mustDecode(map[string]any{
		"href":    "https://api.spotify.com/v1/me/following",
		"limit":   len(artists),
		"total":   total,
		"next":    next,
		"cursors": map[string]any{"after": after},
		"items":   items,
	}, &p)
	return &p
}

// RecentlyPlayed builds recently-played items, most recent first.
func RecentlyPlayed(tracks ...spotify.SimpleTrack) []spotify.RecentlyPlayedItem {
	items := make([]any, len(tracks))
	for i, t := range tracks {
		items[i] = map[string]any{"track": t, "played_at": fmt.Sprintf("2024-01-01T00:%02d:00Z", 59-i)}
	}
	var out []spotify.RecentlyPlayedItem
	mustDecode(items, &out)
	return out
}

// PlayerState builds a playback snapshot for track on device.
func PlayerState(track *spotify.FullTrack, deviceID string, playing bool, progressMs int) *spotify.PlayerState {
	body := map[string]any{
		"device":      map[string]any{"id": deviceID, "name": "Device " + deviceID},
		"is_playing":  playing,
		"progress_ms": progressMs,
	}
	if track != nil {
		body["item"] = track
	}
	var s spotify.PlayerState
	mustDecode(body, &s)
	return &s
}
