package store

import (
	"slices"

	"github.com/desertthunder/spotifly/internal/models"
)

// Tx is the mutation surface handed to [Store.Update]. It must not be retained after the callback returns.
//
// A Tx obtained from [Store.View] ignores every mutation.
type Tx struct {
	st       *state
	readOnly bool
	changes  []Change
}

func (tx *Tx) record(kind models.Kind, c Collection, id string) {
	tx.changes = append(tx.changes, Change{Kind: kind, Collection: c, ID: id})
}

func (tx *Tx) Track(id string) (models.Track, bool) {
	t, ok := tx.st.tracks[id]
	return t, ok
}

func (tx *Tx) Album(id string) (models.Album, bool) {
	a, ok := tx.st.albums[id]
	return a.Clone(), ok
}

func (tx *Tx) Artist(id string) (models.Artist, bool) {
	a, ok := tx.st.artists[id]
	return a.Clone(), ok
}

func (tx *Tx) Playlist(id string) (models.Playlist, bool) {
	p, ok := tx.st.playlists[id]
	return p.Clone(), ok
}

func (tx *Tx) IDs(c Collection) []string {
	return slices.Clone(tx.st.lists[c])
}

func (tx *Tx) IsFavorite(id string) bool {
	_, ok := tx.st.favorites[id]
	return ok
}

func (tx *Tx) Pagination(c Collection) models.PaginationState {
	return tx.st.pages[c]
}

func (tx *Tx) Queue() models.QueueState {
	return tx.st.queue.Clone()
}

// UpsertTrack inserts t or merges it over the existing record with the same ID.
func (tx *Tx) UpsertTrack(t models.Track) {
	if tx.readOnly || t.ID == "" {
		return
	}
	if prev, ok := tx.st.tracks[t.ID]; ok {
		t = t.Merge(prev)
	}
	tx.st.tracks[t.ID] = t
	tx.record(models.KindTrack, "", t.ID)
}

func (tx *Tx) UpsertTracks(ts []models.Track) {
	for _, t := range ts {
		tx.UpsertTrack(t)
	}
}

func (tx *Tx) UpsertAlbum(a models.Album) {
	if tx.readOnly || a.ID == "" {
		return
	}
	a = a.Clone()
	if prev, ok := tx.st.albums[a.ID]; ok {
		a = a.Merge(prev)
	}
	tx.st.albums[a.ID] = a
	tx.record(models.KindAlbum, "", a.ID)
}

func (tx *Tx) UpsertAlbums(as []models.Album) {
	for _, a := range as {
		tx.UpsertAlbum(a)
	}
}

func (tx *Tx) UpsertArtist(a models.Artist) {
	if tx.readOnly || a.ID == "" {
		return
	}
	a = a.Clone()
	if prev, ok := tx.st.artists[a.ID]; ok {
		a = a.Merge(prev)
	}
	tx.st.artists[a.ID] = a
	tx.record(models.KindArtist, "", a.ID)
}

func (tx *Tx) UpsertArtists(as []models.Artist) {
	for _, a := range as {
		tx.UpsertArtist(a)
	}
}

func (tx *Tx) UpsertPlaylist(p models.Playlist) {
	if tx.readOnly || p.ID == "" {
		return
	}
	p = p.Clone()
	if prev, ok := tx.st.playlists[p.ID]; ok {
		p = p.Merge(prev)
	}
	tx.st.playlists[p.ID] = p
	tx.record(models.KindPlaylist, "", p.ID)
}

func (tx *Tx) UpsertPlaylists(ps []models.Playlist) {
	for _, p := range ps {
		tx.UpsertPlaylist(p)
	}
}

// SetCollectionIDs replaces the collection's list with ids, or appends them when appendIDs is set.
//
// Duplicates are dropped (first occurrence wins) and so are IDs with no record in the collection's table.
// Writing [SavedTracks] also rewrites the favorite set.
func (tx *Tx) SetCollectionIDs(c Collection, ids []string, appendIDs bool) {
	if tx.readOnly || !c.Valid() {
		return
	}

	var next []string
	seen := map[string]bool{}
	if appendIDs {
		next = slices.Clone(tx.st.lists[c])
		for _, id := range next {
			seen[id] = true
		}
	}

	kind := c.Kind()
	for _, id := range ids {
		if id == "" || seen[id] || !tx.st.has(kind, id) {
			continue
		}
		seen[id] = true
		next = append(next, id)
	}

	tx.st.lists[c] = next
	if c == SavedTracks {
		tx.st.favorites = make(map[string]struct{}, len(next))
		for _, id := range next {
			tx.st.favorites[id] = struct{}{}
		}
	}
	tx.record(kind, c, "")
}

// RemoveCollectionID removes id from the collection. Removing from [SavedTracks] also unfavorites.
func (tx *Tx) RemoveCollectionID(c Collection, id string) {
	if tx.readOnly || !slices.Contains(tx.st.lists[c], id) {
		return
	}
	tx.st.lists[c] = slices.DeleteFunc(slices.Clone(tx.st.lists[c]), func(v string) bool { return v == id })
	if c == SavedTracks {
		delete(tx.st.favorites, id)
	}
	tx.record(c.Kind(), c, id)
}

// InsertFavorite adds a known track to the favorite set and at the head of [SavedTracks].
func (tx *Tx) InsertFavorite(trackID string) {
	if tx.readOnly || !tx.st.has(models.KindTrack, trackID) {
		return
	}
	if _, ok := tx.st.favorites[trackID]; ok {
		return
	}
	tx.st.favorites[trackID] = struct{}{}
	tx.st.lists[SavedTracks] = append([]string{trackID}, tx.st.lists[SavedTracks]...)
	tx.record(models.KindTrack, SavedTracks, trackID)
}

// RemoveFavorite removes the track from the favorite set and from [SavedTracks], keeping relative order.
func (tx *Tx) RemoveFavorite(trackID string) {
	tx.RemoveCollectionID(SavedTracks, trackID)
}

// SetAlbumTracks expands the album with its ordered track listing.
func (tx *Tx) SetAlbumTracks(albumID string, trackIDs []string) {
	if tx.readOnly {
		return
	}
	a, ok := tx.st.albums[albumID]
	if !ok {
		return
	}
	ids := tx.knownTracks(trackIDs)
	tx.st.albums[albumID] = a.WithTrackIDs(ids, tx.totalDuration(ids))
	tx.record(models.KindAlbum, "", albumID)
}

// SetPlaylistTracks expands the playlist with its ordered track listing. Duplicate entries are kept.
func (tx *Tx) SetPlaylistTracks(playlistID string, trackIDs []string) {
	if tx.readOnly {
		return
	}
	p, ok := tx.st.playlists[playlistID]
	if !ok {
		return
	}
	ids := tx.knownTracks(trackIDs)
	tx.st.playlists[playlistID] = p.WithTrackIDs(ids, tx.totalDuration(ids))
	tx.record(models.KindPlaylist, "", playlistID)
}

// MutatePlaylistTracks applies op to the playlist's track listing. It never touches the network.
//
// A playlist whose tracks were never loaded only has its known count adjusted, and only when the
// op's effect on the count is certain. The count is refreshed by the next summary or listing load.
func (tx *Tx) MutatePlaylistTracks(playlistID string, op PlaylistOp) {
	if tx.readOnly || op == nil {
		return
	}
	p, ok := tx.st.playlists[playlistID]
	if !ok {
		return
	}

	if !p.TracksLoaded() && p.KnownTrackCount > 0 {
		delta, known := op.countDelta()
		if !known || delta == 0 {
			return
		}
		p.KnownTrackCount = max(p.KnownTrackCount+delta, 0)
		tx.st.playlists[playlistID] = p
		tx.record(models.KindPlaylist, "", playlistID)
		return
	}

	ids, changed := op.apply(slices.Clone(p.TrackIDs), tx.st)
	if !changed {
		return
	}
	tx.st.playlists[playlistID] = p.WithTrackIDs(ids, tx.totalDuration(ids))
	tx.record(models.KindPlaylist, "", playlistID)
}

// RenamePlaylist replaces the playlist's name, leaving its tracks untouched.
func (tx *Tx) RenamePlaylist(playlistID, name string) {
	if tx.readOnly {
		return
	}
	p, ok := tx.st.playlists[playlistID]
	if !ok {
		return
	}
	tx.st.playlists[playlistID] = p.WithName(name)
	tx.record(models.KindPlaylist, "", playlistID)
}

// SetPlaylistSnapshot records the server's snapshot ID after an edit.
func (tx *Tx) SetPlaylistSnapshot(playlistID, snapshotID string) {
	if tx.readOnly || snapshotID == "" {
		return
	}
	p, ok := tx.st.playlists[playlistID]
	if !ok {
		return
	}
	p = p.Clone()
	p.SnapshotID = snapshotID
	tx.st.playlists[playlistID] = p
	tx.record(models.KindPlaylist, "", playlistID)
}

// DeletePlaylist removes the playlist from [OwnedPlaylists] and drops the record once no collection references it.
func (tx *Tx) DeletePlaylist(playlistID string) {
	if tx.readOnly {
		return
	}
	tx.RemoveCollectionID(OwnedPlaylists, playlistID)
	if tx.referenced(models.KindPlaylist, playlistID) {
		return
	}
	if _, ok := tx.st.playlists[playlistID]; ok {
		delete(tx.st.playlists, playlistID)
		tx.record(models.KindPlaylist, "", playlistID)
	}
}

// SetPagination stores the collection's pagination state. IsLoaded never reverts to false here;
// use [Tx.ResetPagination] for that.
func (tx *Tx) SetPagination(c Collection, p models.PaginationState) {
	if tx.readOnly || !c.Valid() {
		return
	}
	if tx.st.pages[c].IsLoaded {
		p.IsLoaded = true
	}
	tx.st.pages[c] = p
	tx.record(c.Kind(), c, "")
}

// ResetPagination returns the collection to the Unloaded state. The ID list is left as is.
func (tx *Tx) ResetPagination(c Collection) {
	if tx.readOnly || !c.Valid() {
		return
	}
	tx.st.pages[c] = tx.st.pages[c].Reset()
	tx.record(c.Kind(), c, "")
}

// ReplaceDevices swaps the whole device list.
func (tx *Tx) ReplaceDevices(devices []models.Device) {
	if tx.readOnly {
		return
	}
	tx.st.devices = slices.Clone(devices)
	tx.record(models.KindDevice, "", "")
}

// SetActiveDevice marks id as the only active device.
func (tx *Tx) SetActiveDevice(id string) {
	if tx.readOnly || !slices.ContainsFunc(tx.st.devices, func(d models.Device) bool { return d.ID == id }) {
		return
	}
	devices := slices.Clone(tx.st.devices)
	for i := range devices {
		devices[i].IsActive = devices[i].ID == id
	}
	tx.st.devices = devices
	tx.record(models.KindDevice, "", id)
}

// SetQueue replaces the queue. IDs with no track record are dropped and the current index is clamped.
func (tx *Tx) SetQueue(q models.QueueState) {
	if tx.readOnly {
		return
	}
	current := -1
	ids := make([]string, 0, len(q.TrackIDs))
	for i, id := range q.TrackIDs {
		if !tx.st.has(models.KindTrack, id) {
			continue
		}
		if i <= q.CurrentIndex {
			current = len(ids)
		}
		ids = append(ids, id)
	}
	tx.st.queue = models.QueueState{TrackIDs: ids, CurrentIndex: current}
	tx.record(models.KindTrack, "", "")
}

func (tx *Tx) SetNowPlaying(np models.NowPlaying) {
	if tx.readOnly {
		return
	}
	if np.TrackID != "" && !tx.st.has(models.KindTrack, np.TrackID) {
		np.TrackID = ""
	}
	tx.st.nowPlaying = np
	tx.record(models.KindTrack, "", np.TrackID)
}

func (tx *Tx) knownTracks(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if tx.st.has(models.KindTrack, id) {
			out = append(out, id)
		}
	}
	return out
}

// totalDuration sums member durations, or returns 0 (unknown) when any member's duration is unknown.
func (tx *Tx) totalDuration(ids []string) int {
	total := 0
	for _, id := range ids {
		t := tx.st.tracks[id]
		if t.DurationMs <= 0 {
			return 0
		}
		total += t.DurationMs
	}
	return total
}

func (tx *Tx) referenced(kind models.Kind, id string) bool {
	for c, ids := range tx.st.lists {
		if c.Kind() == kind && slices.Contains(ids, id) {
			return true
		}
	}
	return false
}
