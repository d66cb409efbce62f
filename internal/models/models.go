// package models defines the catalog entities shared by the store and services
package models

import (
	"fmt"
	"slices"
	"time"
)

// Kind identifies an entity table.
type Kind string

const (
	KindTrack    Kind = "track"
	KindAlbum    Kind = "album"
	KindArtist   Kind = "artist"
	KindPlaylist Kind = "playlist"
	KindDevice   Kind = "device"
)

// Track is a playable recording.
//
// ArtistName, AlbumName and ImageURL are display copies; AlbumID and ArtistID are the relationships.
type Track struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URI         string `json:"uri"`
	DurationMs  int    `json:"duration_ms"`
	TrackNumber int    `json:"track_number,omitempty"` // 0 when unknown; only meaningful inside an album
	ExternalURL string `json:"external_url,omitempty"`
	AlbumID     string `json:"album_id,omitempty"`
	ArtistID    string `json:"artist_id,omitempty"`
	ArtistName  string `json:"artist_name,omitempty"`
	AlbumName   string `json:"album_name,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// FormattedDuration renders the track length as m:ss.
func (t Track) FormattedDuration() string {
	return FormatDuration(t.DurationMs)
}

// Merge fills every field t leaves unknown with the value from prev.
func (t Track) Merge(prev Track) Track {
	if prev.ID != t.ID {
		return t
	}
	t.Name = orString(t.Name, prev.Name)
	t.URI = orString(t.URI, prev.URI)
	t.ExternalURL = orString(t.ExternalURL, prev.ExternalURL)
	t.AlbumID = orString(t.AlbumID, prev.AlbumID)
	t.ArtistID = orString(t.ArtistID, prev.ArtistID)
	t.ArtistName = orString(t.ArtistName, prev.ArtistName)
	t.AlbumName = orString(t.AlbumName, prev.AlbumName)
	t.ImageURL = orString(t.ImageURL, prev.ImageURL)
	if t.DurationMs == 0 {
		t.DurationMs = prev.DurationMs
	}
	if t.TrackNumber == 0 {
		t.TrackNumber = prev.TrackNumber
	}
	return t
}

// Album is a release with an ordered track listing.
type Album struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	URI             string   `json:"uri"`
	ImageURL        string   `json:"image_url,omitempty"`
	ArtistID        string   `json:"artist_id,omitempty"`
	ArtistName      string   `json:"artist_name,omitempty"`
	ReleaseDate     string   `json:"release_date,omitempty"`
	TrackIDs        []string `json:"track_ids,omitempty"`
	TotalDurationMs int      `json:"total_duration_ms,omitempty"`
	KnownTrackCount int      `json:"known_track_count"`
}

// TrackCount is len(TrackIDs) once tracks are loaded, else the count reported by the listing.
func (a Album) TrackCount() int {
	return trackCount(a.TrackIDs, a.KnownTrackCount)
}

// TracksLoaded reports whether the album has been expanded.
func (a Album) TracksLoaded() bool {
	return len(a.TrackIDs) > 0
}

// FormattedDuration renders the total album length, or "" when unknown.
func (a Album) FormattedDuration() string {
	if a.TotalDurationMs <= 0 {
		return ""
	}
	return FormatDuration(a.TotalDurationMs)
}

// WithTrackIDs returns a copy of a with the given track listing.
func (a Album) WithTrackIDs(ids []string, totalDurationMs int) Album {
	a.TrackIDs = slices.Clone(ids)
	a.TotalDurationMs = totalDurationMs
	if len(ids) > 0 {
		a.KnownTrackCount = len(ids)
	}
	return a
}

// Clone returns a deep copy of a.
func (a Album) Clone() Album {
	a.TrackIDs = slices.Clone(a.TrackIDs)
	return a
}

// Merge fills unknown fields from prev and keeps prev's loaded track listing when a is a summary
// reporting the same track count.
func (a Album) Merge(prev Album) Album {
	if prev.ID != a.ID {
		return a
	}
	a.Name = orString(a.Name, prev.Name)
	a.URI = orString(a.URI, prev.URI)
	a.ImageURL = orString(a.ImageURL, prev.ImageURL)
	a.ArtistID = orString(a.ArtistID, prev.ArtistID)
	a.ArtistName = orString(a.ArtistName, prev.ArtistName)
	a.ReleaseDate = orString(a.ReleaseDate, prev.ReleaseDate)
	if len(a.TrackIDs) == 0 && len(prev.TrackIDs) > 0 {
		if a.KnownTrackCount == 0 || a.KnownTrackCount == len(prev.TrackIDs) {
			a.TrackIDs = slices.Clone(prev.TrackIDs)
			a.TotalDurationMs = prev.TotalDurationMs
			a.KnownTrackCount = len(prev.TrackIDs)
		}
	}
	if a.KnownTrackCount == 0 {
		a.KnownTrackCount = prev.KnownTrackCount
	}
	return a
}

// Artist is a performer.
type Artist struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	URI       string   `json:"uri"`
	ImageURL  string   `json:"image_url,omitempty"`
	Genres    []string `json:"genres,omitempty"`
	Followers int      `json:"followers"` // -1 when unknown
}

// HasGenre reports whether genre is one of the artist's genres.
func (a Artist) HasGenre(genre string) bool {
	return slices.Contains(a.Genres, genre)
}

// Clone returns a deep copy of a.
func (a Artist) Clone() Artist {
	a.Genres = slices.Clone(a.Genres)
	return a
}

// Merge fills unknown fields from prev.
func (a Artist) Merge(prev Artist) Artist {
	if prev.ID != a.ID {
		return a
	}
	a.Name = orString(a.Name, prev.Name)
	a.URI = orString(a.URI, prev.URI)
	a.ImageURL = orString(a.ImageURL, prev.ImageURL)
	if len(a.Genres) == 0 {
		a.Genres = slices.Clone(prev.Genres)
	}
	if a.Followers < 0 {
		a.Followers = prev.Followers
	}
	return a
}

// Playlist is a user-owned or followed playlist with an ordered track listing.
type Playlist struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	URI             string   `json:"uri"`
	ImageURL        string   `json:"image_url,omitempty"`
	OwnerID         string   `json:"owner_id,omitempty"`
	OwnerName       string   `json:"owner_name,omitempty"`
	SnapshotID      string   `json:"snapshot_id,omitempty"`
	Public          bool     `json:"public"`
	TrackIDs        []string `json:"track_ids,omitempty"`
	TotalDurationMs int      `json:"total_duration_ms,omitempty"`
	KnownTrackCount int      `json:"known_track_count"`
}

// TrackCount is len(TrackIDs) once tracks are loaded, else the count reported by the listing.
func (p Playlist) TrackCount() int {
	return trackCount(p.TrackIDs, p.KnownTrackCount)
}

// TracksLoaded reports whether the playlist has been expanded.
func (p Playlist) TracksLoaded() bool {
	return len(p.TrackIDs) > 0
}

// FormattedDuration renders the total playlist length, or "" when unknown.
func (p Playlist) FormattedDuration() string {
	if p.TotalDurationMs <= 0 {
		return ""
	}
	return FormatDuration(p.TotalDurationMs)
}

// WithName returns a renamed copy of p.
func (p Playlist) WithName(name string) Playlist {
	p.TrackIDs = slices.Clone(p.TrackIDs)
	p.Name = name
	return p
}

// WithTrackIDs returns a copy of p with the given track listing.
//
// KnownTrackCount follows the listing so an emptied playlist reports zero tracks.
func (p Playlist) WithTrackIDs(ids []string, totalDurationMs int) Playlist {
	p.TrackIDs = slices.Clone(ids)
	p.TotalDurationMs = totalDurationMs
	p.KnownTrackCount = len(ids)
	return p
}

// Clone returns a deep copy of p.
func (p Playlist) Clone() Playlist {
	p.TrackIDs = slices.Clone(p.TrackIDs)
	return p
}

// Merge fills unknown fields from prev and keeps prev's loaded track listing when p is a summary
// reporting the same track count. Public is always taken from p since every playlist payload carries it.
func (p Playlist) Merge(prev Playlist) Playlist {
	if prev.ID != p.ID {
		return p
	}
	p.Name = orString(p.Name, prev.Name)
	p.Description = orString(p.Description, prev.Description)
	p.URI = orString(p.URI, prev.URI)
	p.ImageURL = orString(p.ImageURL, prev.ImageURL)
	p.OwnerID = orString(p.OwnerID, prev.OwnerID)
	p.OwnerName = orString(p.OwnerName, prev.OwnerName)
	p.SnapshotID = orString(p.SnapshotID, prev.SnapshotID)
	if len(p.TrackIDs) == 0 && len(prev.TrackIDs) > 0 && p.KnownTrackCount == len(prev.TrackIDs) {
		p.TrackIDs = slices.Clone(prev.TrackIDs)
		p.TotalDurationMs = prev.TotalDurationMs
	}
	return p
}

// Device is a Connect playback target. Devices are replaced wholesale on every refresh.
type Device struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	IsActive         bool   `json:"is_active"`
	IsPrivateSession bool   `json:"is_private_session"`
	IsRestricted     bool   `json:"is_restricted"`
	VolumePercent    int    `json:"volume_percent"` // -1 when unknown
}

// NowPlaying is the most recent currently-playing snapshot.
type NowPlaying struct {
	TrackID    string    `json:"track_id,omitempty"`
	DeviceID   string    `json:"device_id,omitempty"`
	IsPlaying  bool      `json:"is_playing"`
	ProgressMs int       `json:"progress_ms"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Position interpolates the playback position at now.
func (n NowPlaying) Position(now time.Time) int {
	if !n.IsPlaying || n.FetchedAt.IsZero() {
		return n.ProgressMs
	}
	return n.ProgressMs + int(now.Sub(n.FetchedAt).Milliseconds())
}

// QueueState is the ordered playback queue. Items at or before CurrentIndex are playing or played.
type QueueState struct {
	TrackIDs     []string `json:"track_ids"`
	CurrentIndex int      `json:"current_index"`
}

// Upcoming returns the IDs after the current index.
func (q QueueState) Upcoming() []string {
	if q.CurrentIndex+1 >= len(q.TrackIDs) {
		return nil
	}
	return slices.Clone(q.TrackIDs[q.CurrentIndex+1:])
}

// Clone returns a deep copy of q.
func (q QueueState) Clone() QueueState {
	q.TrackIDs = slices.Clone(q.TrackIDs)
	return q
}

// FormatDuration renders milliseconds as m:ss, or h:mm:ss from one hour.
func FormatDuration(ms int) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func trackCount(ids []string, known int) int {
	if len(ids) > 0 {
		return len(ids)
	}
	return known
}

func orString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
