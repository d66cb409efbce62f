package mapper

import (
	"time"

	"github.com/desertthunder/spotifly/internal/api"
	"github.com/desertthunder/spotifly/internal/models"
	"github.com/zmb3/spotify/v2"
)

// AlbumFromSimple converts an album summary (search hit, track's album).
//
// The simplified shape carries no reliable track count, so KnownTrackCount stays unknown.
func AlbumFromSimple(a spotify.SimpleAlbum) models.Album {
	artistID, artistName := artistCredit(a.Artists)
	return models.Album{
		ID:          string(a.ID),
		Name:        a.Name,
		URI:         string(a.URI),
		ImageURL:    BestImageURL(a.Images),
		ArtistID:    artistID,
		ArtistName:  artistName,
		ReleaseDate: a.ReleaseDate,
	}
}

// AlbumFromFull converts a full album as a summary: the embedded first track page only sets the known count.
func AlbumFromFull(a spotify.FullAlbum) models.Album {
	album := AlbumFromSimple(a.SimpleAlbum)
	album.KnownTrackCount = int(a.Tracks.Total)
	return album
}

// AlbumFromSaved converts a saved-albums item.
func AlbumFromSaved(s spotify.SavedAlbum) models.Album {
	return AlbumFromFull(s.FullAlbum)
}

// ExpandFullAlbum converts a full album and its embedded tracks.
//
// The album is only returned expanded when the embedded page holds every track; otherwise
// complete is false and the caller must page through the album's tracks.
func ExpandFullAlbum(a spotify.FullAlbum) (album models.Album, tracks []models.Track, complete bool) {
	album = AlbumFromFull(a)
	tracks = TracksFromAlbumItems(a.Tracks.Tracks, album)
	if len(tracks) == 0 || len(tracks) < album.KnownTrackCount {
		return album, tracks, false
	}
	total, _ := TotalDuration(tracks)
	return album.WithTrackIDs(IDs(tracks), total), tracks, true
}

// AlbumsFromSaved converts a saved-albums page body.
func AlbumsFromSaved(items []spotify.SavedAlbum) []models.Album {
	out := make([]models.Album, 0, len(items))
	for _, a := range items {
		if a.ID == "" {
			continue
		}
		out = append(out, AlbumFromSaved(a))
	}
	return out
}

// AlbumsFromSimple converts album summaries, skipping items with no ID.
func AlbumsFromSimple(items []spotify.SimpleAlbum) []models.Album {
	out := make([]models.Album, 0, len(items))
	for _, a := range items {
		if a.ID == "" {
			continue
		}
		out = append(out, AlbumFromSimple(a))
	}
	return out
}

// AlbumsFromTracks derives album summaries from the album context of full tracks.
func AlbumsFromTracks(ts []spotify.FullTrack) []models.Album {
	seen := map[spotify.ID]bool{}
	out := []models.Album{}
	for _, t := range ts {
		if t.Album.ID == "" || seen[t.Album.ID] {
			continue
		}
		seen[t.Album.ID] = true
		out = append(out, AlbumFromSimple(t.Album))
	}
	return out
}

// ArtistFromSimple converts an artist credit. Followers are unknown.
func ArtistFromSimple(a spotify.SimpleArtist) models.Artist {
	return models.Artist{
		ID:        string(a.ID),
		Name:      a.Name,
		URI:       string(a.URI),
		Followers: -1,
	}
}

// ArtistFromFull converts a full artist.
func ArtistFromFull(a spotify.FullArtist) models.Artist {
	artist := ArtistFromSimple(a.SimpleArtist)
	artist.ImageURL = BestImageURL(a.Images)
	artist.Genres = append([]string(nil), a.Genres...)
	artist.Followers = int(a.Followers.Count)
	return artist
}

// ArtistsFromFull converts full artists, skipping items with no ID.
func ArtistsFromFull(items []spotify.FullArtist) []models.Artist {
	out := make([]models.Artist, 0, len(items))
	for _, a := range items {
		if a.ID == "" {
			continue
		}
		out = append(out, ArtistFromFull(a))
	}
	return out
}

// ArtistsFromTracks derives artist stubs from every credit on the given tracks.
func ArtistsFromTracks(ts []spotify.FullTrack) []models.Artist {
	seen := map[spotify.ID]bool{}
	out := []models.Artist{}
	for _, t := range ts {
		for _, a := range t.Artists {
			if a.ID == "" || seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			out = append(out, ArtistFromSimple(a))
		}
	}
	return out
}

// PlaylistFromSimple converts a playlist summary. KnownTrackCount comes from the listing's track total.
func PlaylistFromSimple(p spotify.SimplePlaylist) models.Playlist {
	return models.Playlist{
		ID:              string(p.ID),
		Name:            p.Name,
		Description:     p.Description,
		URI:             string(p.URI),
		ImageURL:        BestImageURL(p.Images),
		OwnerID:         p.Owner.ID,
		OwnerName:       p.Owner.DisplayName,
		SnapshotID:      p.SnapshotID,
		Public:          p.IsPublic,
		KnownTrackCount: int(p.Tracks.Total),
	}
}

// PlaylistFromFull converts a full playlist as a summary.
func PlaylistFromFull(p spotify.FullPlaylist) models.Playlist {
	playlist := PlaylistFromSimple(p.SimplePlaylist)
	playlist.KnownTrackCount = int(p.Tracks.Total)
	return playlist
}

// PlaylistsFromSimple converts playlist summaries, skipping items with no ID.
func PlaylistsFromSimple(items []spotify.SimplePlaylist) []models.Playlist {
	out := make([]models.Playlist, 0, len(items))
	for _, p := range items {
		if p.ID == "" {
			continue
		}
		out = append(out, PlaylistFromSimple(p))
	}
	return out
}

// DeviceFromAPI converts a Connect device. A missing volume maps to -1.
func DeviceFromAPI(d api.SpotifyDevice) models.Device {
	volume := -1
	if d.VolumePercent != nil {
		volume = *d.VolumePercent
	}
	return models.Device{
		ID:               d.ID,
		Name:             d.Name,
		Type:             d.Type,
		IsActive:         d.IsActive,
		IsPrivateSession: d.IsPrivateSession,
		IsRestricted:     d.IsRestricted,
		VolumePercent:    volume,
	}
}

// DevicesFromAPI converts a device list, preserving order.
func DevicesFromAPI(ds []api.SpotifyDevice) []models.Device {
	out := make([]models.Device, len(ds))
	for i, d := range ds {
		out[i] = DeviceFromAPI(d)
	}
	return out
}

// NowPlayingFrom converts a player snapshot taken at fetchedAt.
//
// The returned track is nil when nothing is playing or the item is not a track.
func NowPlayingFrom(state *spotify.PlayerState, fetchedAt time.Time) (models.NowPlaying, *models.Track) {
	if state == nil {
		return models.NowPlaying{FetchedAt: fetchedAt}, nil
	}

	np := models.NowPlaying{
		DeviceID:   string(state.Device.ID),
		IsPlaying:  state.Playing,
		ProgressMs: int(state.Progress),
		FetchedAt:  fetchedAt,
	}

	if state.Item == nil || state.Item.ID == "" {
		return np, nil
	}

	track := TrackFromFull(*state.Item)
	np.TrackID = track.ID
	return np, &track
}

// QueueFrom converts a queue snapshot into tracks (current item first) and the queue state.
//
// CurrentIndex is -1 when nothing is playing.
func QueueFrom(q *api.SpotifyQueue) ([]models.Track, models.QueueState) {
	state := models.QueueState{CurrentIndex: -1}
	if q == nil {
		return nil, state
	}

	tracks := []models.Track{}
	if q.CurrentlyPlaying != nil && q.CurrentlyPlaying.ID != "" {
		tracks = append(tracks, TrackFromFull(*q.CurrentlyPlaying))
		state.CurrentIndex = 0
	}
	tracks = append(tracks, TracksFromFull(q.Queue)...)
	state.TrackIDs = IDs(tracks)
	return tracks, state
}
