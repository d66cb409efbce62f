// Package mapper converts Web API response shapes into store entities.
//
// Every function is pure and total: a missing optional field becomes the entity's "unknown" value
// (zero, or -1 for Artist.Followers and Device.VolumePercent), never an error. All shapes describing
// the same entity converge on one models type so [models.Track.Merge] and friends can combine them.
package mapper

import (
	"strings"

	"github.com/desertthunder/spotifly/internal/models"
	"github.com/zmb3/spotify/v2"
)

// BestImageURL returns the URL of the image with the largest area, or "" when there are none.
//
// Images without dimensions count as zero area, so the first one wins when no sizes are reported.
func BestImageURL(images []spotify.Image) string {
	best, bestArea := "", -1
	for _, img := range images {
		if img.URL == "" {
			continue
		}
		area := int(img.Width) * int(img.Height)
		if area > bestArea {
			best, bestArea = img.URL, area
		}
	}
	return best
}

func externalURL(urls map[string]string, uri string) string {
	if u := urls["spotify"]; u != "" {
		return u
	}
	return models.ExternalURLFromURI(uri)
}

// artistCredit returns the first artist's ID and the joined display names.
func artistCredit(artists []spotify.SimpleArtist) (string, string) {
	if len(artists) == 0 {
		return "", ""
	}
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return string(artists[0].ID), strings.Join(names, ", ")
}

// TrackFromFull converts a full track (search hit, top track, saved item, queue item, now playing).
//
// TrackNumber is left unknown: it only has meaning in an album listing.
func TrackFromFull(t spotify.FullTrack) models.Track {
	artistID, artistName := artistCredit(t.Artists)
	uri := string(t.URI)
	return models.Track{
		ID:          string(t.ID),
		Name:        t.Name,
		URI:         uri,
		DurationMs:  int(t.Duration),
		ExternalURL: externalURL(t.ExternalURLs, uri),
		AlbumID:     string(t.Album.ID),
		AlbumName:   t.Album.Name,
		ImageURL:    BestImageURL(t.Album.Images),
		ArtistID:    artistID,
		ArtistName:  artistName,
	}
}

// TrackFromSaved converts a saved-tracks item. The added-at timestamp is not part of the entity.
func TrackFromSaved(s spotify.SavedTrack) models.Track {
	return TrackFromFull(s.FullTrack)
}

// TrackFromSimple converts a simplified track with no album context (recently played).
func TrackFromSimple(t spotify.SimpleTrack) models.Track {
	artistID, artistName := artistCredit(t.Artists)
	uri := string(t.URI)
	return models.Track{
		ID:          string(t.ID),
		Name:        t.Name,
		URI:         uri,
		DurationMs:  int(t.Duration),
		ExternalURL: externalURL(t.ExternalURLs, uri),
		ArtistID:    artistID,
		ArtistName:  artistName,
	}
}

// TrackFromAlbumItem converts an album-track listing item, taking album fields from the parent album.
func TrackFromAlbumItem(t spotify.SimpleTrack, album models.Album) models.Track {
	track := TrackFromSimple(t)
	track.TrackNumber = int(t.TrackNumber)
	track.AlbumID = album.ID
	track.AlbumName = album.Name
	track.ImageURL = album.ImageURL
	if track.ArtistID == "" {
		track.ArtistID = album.ArtistID
		track.ArtistName = album.ArtistName
	}
	return track
}

// TrackFromPlaylistItem converts a playlist-track item. ok is false for episodes, local files and removed tracks.
func TrackFromPlaylistItem(item spotify.PlaylistItem) (models.Track, bool) {
	if item.IsLocal || item.Track.Track == nil || item.Track.Track.ID == "" {
		return models.Track{}, false
	}
	return TrackFromFull(*item.Track.Track), true
}

// TrackFromRecent converts a recently-played item.
func TrackFromRecent(item spotify.RecentlyPlayedItem) models.Track {
	return TrackFromSimple(item.Track)
}

// FullTracksFromSimple lifts simplified tracks that embed their album (recommendations) to the full shape.
func FullTracksFromSimple(ts []spotify.SimpleTrack) []spotify.FullTrack {
	out := make([]spotify.FullTrack, 0, len(ts))
	for _, t := range ts {
		out = append(out, spotify.FullTrack{SimpleTrack: t, Album: t.Album})
	}
	return out
}

// TracksFromFull converts a slice of full tracks, skipping items with no ID.
func TracksFromFull(ts []spotify.FullTrack) []models.Track {
	out := make([]models.Track, 0, len(ts))
	for _, t := range ts {
		if t.ID == "" {
			continue
		}
		out = append(out, TrackFromFull(t))
	}
	return out
}

// TracksFromSaved converts a saved-tracks page body.
func TracksFromSaved(ts []spotify.SavedTrack) []models.Track {
	out := make([]models.Track, 0, len(ts))
	for _, t := range ts {
		if t.ID == "" {
			continue
		}
		out = append(out, TrackFromSaved(t))
	}
	return out
}

// TracksFromAlbumItems converts an album-track page body.
func TracksFromAlbumItems(ts []spotify.SimpleTrack, album models.Album) []models.Track {
	out := make([]models.Track, 0, len(ts))
	for _, t := range ts {
		if t.ID == "" {
			continue
		}
		out = append(out, TrackFromAlbumItem(t, album))
	}
	return out
}

// TracksFromPlaylistItems converts a playlist-track page body, dropping non-track items.
func TracksFromPlaylistItems(items []spotify.PlaylistItem) []models.Track {
	out := make([]models.Track, 0, len(items))
	for _, item := range items {
		if t, ok := TrackFromPlaylistItem(item); ok {
			out = append(out, t)
		}
	}
	return out
}

// IDs returns the track IDs in order.
func IDs(tracks []models.Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

// TotalDuration sums track durations. ok is false when any duration is unknown.
func TotalDuration(tracks []models.Track) (int, bool) {
	total := 0
	for _, t := range tracks {
		if t.DurationMs <= 0 {
			return 0, false
		}
		total += t.DurationMs
	}
	return total, true
}
