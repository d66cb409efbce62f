package store

import "github.com/desertthunder/spotifly/internal/models"

// Collection names an ordered list of entity IDs owned by the store.
type Collection string

const (
	SavedTracks     Collection = "saved_tracks"
	TopTracks       Collection = "top_tracks"
	RecentlyPlayed  Collection = "recently_played"
	SavedAlbums     Collection = "saved_albums"
	FollowedArtists Collection = "followed_artists"
	TopArtists      Collection = "top_artists"
	OwnedPlaylists  Collection = "owned_playlists"
	SearchTracks    Collection = "search_tracks"
	SearchAlbums    Collection = "search_albums"
	SearchArtists   Collection = "search_artists"
	SearchPlaylists Collection = "search_playlists"
)

// Collections lists every collection in display order.
var Collections = []Collection{
	SavedTracks, TopTracks, RecentlyPlayed,
	SavedAlbums,
	FollowedArtists, TopArtists,
	OwnedPlaylists,
	SearchTracks, SearchAlbums, SearchArtists, SearchPlaylists,
}

// UserCollections are the paged collections belonging to the signed-in user.
var UserCollections = []Collection{SavedTracks, OwnedPlaylists, SavedAlbums, FollowedArtists, TopArtists, TopTracks}

// Kind returns the entity table a collection's IDs refer to.
func (c Collection) Kind() models.Kind {
	switch c {
	case SavedTracks, TopTracks, RecentlyPlayed, SearchTracks:
		return models.KindTrack
	case SavedAlbums, SearchAlbums:
		return models.KindAlbum
	case FollowedArtists, TopArtists, SearchArtists:
		return models.KindArtist
	case OwnedPlaylists, SearchPlaylists:
		return models.KindPlaylist
	default:
		return ""
	}
}

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	return c.Kind() != ""
}

// Cursor reports whether the collection pages with an opaque cursor instead of an offset.
func (c Collection) Cursor() bool {
	return c == FollowedArtists
}

func (c Collection) String() string {
	return string(c)
}

// ParseCollection returns the collection with the given name.
func ParseCollection(name string) (Collection, bool) {
	for _, c := range Collections {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}
