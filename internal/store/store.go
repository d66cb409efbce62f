// Package store is the normalized, in-memory entity store.
//
// The store keeps exactly one record per (kind, ID) and expresses every relationship as IDs:
//   - one table per entity kind (tracks, albums, artists, playlists) plus the ordered device list
//   - an ordered ID list per [Collection]
//   - the favorite-track set, kept in lockstep with the [SavedTracks] list
//   - a [models.PaginationState] per collection
//   - the playback queue and the now-playing snapshot
//
// All state sits behind one RWMutex. Reads return copies and never fail. Mutations never fail either:
// an unknown ID is a silent no-op. A batch of mutations is committed atomically with [Store.Update],
// so readers never observe half of a service's commit.
package store

import (
	"maps"
	"slices"
	"sync"

	"github.com/desertthunder/spotifly/internal/models"
)

// Change describes one committed mutation. Collection is empty for entity-only changes.
type Change struct {
	Kind       models.Kind
	Collection Collection
	ID         string
}

type state struct {
	tracks     map[string]models.Track
	albums     map[string]models.Album
	artists    map[string]models.Artist
	playlists  map[string]models.Playlist
	devices    []models.Device
	lists      map[Collection][]string
	favorites  map[string]struct{}
	pages      map[Collection]models.PaginationState
	queue      models.QueueState
	nowPlaying models.NowPlaying
}

// Store is the single source of truth for catalog entities.
type Store struct {
	mu sync.RWMutex
	st state

	subsMu  sync.Mutex
	subs    map[int]chan Change
	nextSub int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		st: state{
			tracks:    map[string]models.Track{},
			albums:    map[string]models.Album{},
			artists:   map[string]models.Artist{},
			playlists: map[string]models.Playlist{},
			lists:     map[Collection][]string{},
			favorites: map[string]struct{}{},
			pages:     map[Collection]models.PaginationState{},
			queue:     models.QueueState{CurrentIndex: -1},
		},
		subs: map[int]chan Change{},
	}
}

// Update applies fn under the write lock. Every mutation made through the [Tx] becomes visible at once.
func (s *Store) Update(fn func(tx *Tx)) {
	s.mu.Lock()
	tx := &Tx{st: &s.st}
	fn(tx)
	changes := tx.changes
	s.mu.Unlock()

	s.publish(changes)
}

// View runs fn under the read lock.
func (s *Store) View(fn func(tx *Tx)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&Tx{st: &s.st, readOnly: true})
}

// Subscribe registers for change notifications. Sends never block: a full buffer drops changes.
// The returned function unsubscribes and closes the channel.
func (s *Store) Subscribe(buffer int) (<-chan Change, func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	ch := make(chan Change, max(buffer, 1))
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *Store) publish(changes []Change) {
	if len(changes) == 0 {
		return
	}
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		for _, c := range changes {
			select {
			case ch <- c:
			default:
			}
		}
	}
}

func (s *Store) Track(id string) (models.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.st.tracks[id]
	return t, ok
}

func (s *Store) Album(id string) (models.Album, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.st.albums[id]
	return a.Clone(), ok
}

func (s *Store) Artist(id string) (models.Artist, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.st.artists[id]
	return a.Clone(), ok
}

func (s *Store) Playlist(id string) (models.Playlist, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.st.playlists[id]
	return p.Clone(), ok
}

// IDs returns a copy of the collection's ordered ID list.
func (s *Store) IDs(c Collection) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.st.lists[c])
}

// Len returns the number of IDs in the collection.
func (s *Store) Len(c Collection) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.st.lists[c])
}

// Tracks projects a track collection onto track records.
func (s *Store) Tracks(c Collection) []models.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c.Kind() != models.KindTrack {
		return nil
	}
	return s.st.trackList(s.st.lists[c])
}

// Albums projects an album collection onto album records.
func (s *Store) Albums(c Collection) []models.Album {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c.Kind() != models.KindAlbum {
		return nil
	}
	out := make([]models.Album, 0, len(s.st.lists[c]))
	for _, id := range s.st.lists[c] {
		if a, ok := s.st.albums[id]; ok {
			out = append(out, a.Clone())
		}
	}
	return out
}

// Artists projects an artist collection onto artist records.
func (s *Store) Artists(c Collection) []models.Artist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c.Kind() != models.KindArtist {
		return nil
	}
	out := make([]models.Artist, 0, len(s.st.lists[c]))
	for _, id := range s.st.lists[c] {
		if a, ok := s.st.artists[id]; ok {
			out = append(out, a.Clone())
		}
	}
	return out
}

// Playlists projects a playlist collection onto playlist records.
func (s *Store) Playlists(c Collection) []models.Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c.Kind() != models.KindPlaylist {
		return nil
	}
	out := make([]models.Playlist, 0, len(s.st.lists[c]))
	for _, id := range s.st.lists[c] {
		if p, ok := s.st.playlists[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out
}

// PlaylistTracks returns the playlist's loaded tracks in order.
func (s *Store) PlaylistTracks(id string) []models.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.trackList(s.st.playlists[id].TrackIDs)
}

// AlbumTracks returns the album's loaded tracks in order.
func (s *Store) AlbumTracks(id string) []models.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.trackList(s.st.albums[id].TrackIDs)
}

func (s *Store) IsFavorite(trackID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.st.favorites[trackID]
	return ok
}

// FavoriteIDs returns the favorite track IDs in saved-tracks order.
func (s *Store) FavoriteIDs() []string {
	return s.IDs(SavedTracks)
}

// Pagination returns the collection's pagination state.
func (s *Store) Pagination(c Collection) models.PaginationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.pages[c]
}

func (s *Store) Devices() []models.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.st.devices)
}

// ActiveDevice returns the active device, if any.
func (s *Store) ActiveDevice() (models.Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.st.devices {
		if d.IsActive {
			return d, true
		}
	}
	return models.Device{}, false
}

func (s *Store) Queue() models.QueueState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.queue.Clone()
}

// QueueTracks projects the queue onto track records.
func (s *Store) QueueTracks() []models.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.trackList(s.st.queue.TrackIDs)
}

func (s *Store) NowPlaying() models.NowPlaying {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.nowPlaying
}

// Stats counts records per entity kind.
type Stats struct {
	Tracks    int
	Albums    int
	Artists   int
	Playlists int
	Devices   int
	Favorites int
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Tracks:    len(s.st.tracks),
		Albums:    len(s.st.albums),
		Artists:   len(s.st.artists),
		Playlists: len(s.st.playlists),
		Devices:   len(s.st.devices),
		Favorites: len(s.st.favorites),
	}
}

// Snapshot is a deep copy of the whole store, comparable with reflect.DeepEqual.
type Snapshot struct {
	Tracks     map[string]models.Track
	Albums     map[string]models.Album
	Artists    map[string]models.Artist
	Playlists  map[string]models.Playlist
	Devices    []models.Device
	Lists      map[Collection][]string
	Favorites  map[string]struct{}
	Pages      map[Collection]models.PaginationState
	Queue      models.QueueState
	NowPlaying models.NowPlaying
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Tracks:     maps.Clone(s.st.tracks),
		Albums:     make(map[string]models.Album, len(s.st.albums)),
		Artists:    make(map[string]models.Artist, len(s.st.artists)),
		Playlists:  make(map[string]models.Playlist, len(s.st.playlists)),
		Devices:    slices.Clone(s.st.devices),
		Lists:      make(map[Collection][]string, len(s.st.lists)),
		Favorites:  maps.Clone(s.st.favorites),
		Pages:      maps.Clone(s.st.pages),
		Queue:      s.st.queue.Clone(),
		NowPlaying: s.st.nowPlaying,
	}
	for id, a := range s.st.albums {
		snap.Albums[id] = a.Clone()
	}
	for id, a := range s.st.artists {
		snap.Artists[id] = a.Clone()
	}
	for id, p := range s.st.playlists {
		snap.Playlists[id] = p.Clone()
	}
	for c, ids := range s.st.lists {
		snap.Lists[c] = slices.Clone(ids)
	}
	return snap
}

func (st *state) trackList(ids []string) []models.Track {
	out := make([]models.Track, 0, len(ids))
	for _, id := range ids {
		if t, ok := st.tracks[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (st *state) has(kind models.Kind, id string) bool {
	var ok bool
	switch kind {
	case models.KindTrack:
		_, ok = st.tracks[id]
	case models.KindAlbum:
		_, ok = st.albums[id]
	case models.KindArtist:
		_, ok = st.artists[id]
	case models.KindPlaylist:
		_, ok = st.playlists[id]
	}
	return ok
}
