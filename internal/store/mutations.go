package store

import "github.com/desertthunder/spotifly/internal/models"

// Single-mutation shorthands for [Store.Update].

func (s *Store) UpsertTrack(t models.Track) { s.Update(func(tx *Tx) { tx.UpsertTrack(t) }) }
func (s *Store) UpsertTracks(ts []models.Track) { s.Update(func(tx *Tx) { tx.UpsertTracks(ts) }) }
func (s *Store) UpsertAlbum(a models.Album) { s.Update(func(tx *Tx) { tx.UpsertAlbum(a) }) }
func (s *Store) UpsertAlbums(as []models.Album) { s.Update(func(tx *Tx) { tx.UpsertAlbums(as) }) }
func (s *Store) UpsertArtist(a models.Artist) { s.Update(func(tx *Tx) { tx.UpsertArtist(a) }) }
func (s *Store) UpsertArtists(as []models.Artist) { s.Update(func(tx *Tx) { tx.UpsertArtists(as) }) }
func (s *Store) UpsertPlaylist(p models.Playlist) { s.Update(func(tx *Tx) { tx.UpsertPlaylist(p) }) }
func (s *Store) UpsertPlaylists(ps []models.Playlist) { s.Update(func(tx *Tx) { tx.UpsertPlaylists(ps) }) }

func (s *Store) SetCollectionIDs(c Collection, ids []string, appendIDs bool) {
	s.Update(func(tx *Tx) { tx.SetCollectionIDs(c, ids, appendIDs) })
}

func (s *Store) RemoveCollectionID(c Collection, id string) {
	s.Update(func(tx *Tx) { tx.RemoveCollectionID(c, id) })
}

func (s *Store) InsertFavorite(trackID string) { s.Update(func(tx *Tx) { tx.InsertFavorite(trackID) }) }
func (s *Store) RemoveFavorite(trackID string) { s.Update(func(tx *Tx) { tx.RemoveFavorite(trackID) }) }

func (s *Store) MutatePlaylistTracks(playlistID string, op PlaylistOp) {
	s.Update(func(tx *Tx) { tx.MutatePlaylistTracks(playlistID, op) })
}

func (s *Store) RenamePlaylist(playlistID, name string) {
	s.Update(func(tx *Tx) { tx.RenamePlaylist(playlistID, name) })
}

func (s *Store) DeletePlaylist(playlistID string) { s.Update(func(tx *Tx) { tx.DeletePlaylist(playlistID) }) }

func (s *Store) SetPagination(c Collection, p models.PaginationState) {
	s.Update(func(tx *Tx) { tx.SetPagination(c, p) })
}

func (s *Store) ResetPagination(c Collection) { s.Update(func(tx *Tx) { tx.ResetPagination(c) }) }

func (s *Store) ReplaceDevices(devices []models.Device) {
	s.Update(func(tx *Tx) { tx.ReplaceDevices(devices) })
}

func (s *Store) SetQueue(q models.QueueState) { s.Update(func(tx *Tx) { tx.SetQueue(q) }) }
func (s *Store) SetNowPlaying(np models.NowPlaying) { s.Update(func(tx *Tx) { tx.SetNowPlaying(np) }) }
