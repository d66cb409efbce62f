package store

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"slices"
	"sort"
	"sync"
	"testing"

	"github.com/desertthunder/spotifly/internal/models"
)

func seedTracks(s *Store, ids ...string) {
	ts := make([]models.Track, len(ids))
	for i, id := range ids {
		ts[i] = models.Track{ID: id, Name: "Track " + id, DurationMs: 1000 * (i + 1)}
	}
	s.UpsertTracks(ts)
}

func favoriteSet(s *Store) []string {
	snap := s.Snapshot()
	out := make([]string, 0, len(snap.Favorites))
	for id := range snap.Favorites {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func TestUpsert(t *testing.T) {
	t.Run("one record per id, latest complete upsert wins", func(t *testing.T) {
		s := New()
		s.UpsertTrack(models.Track{ID: "t1", Name: "Old", URI: "spotify:track:t1", DurationMs: 1, AlbumID: "a1"})
		s.UpsertTrack(models.Track{ID: "t1", Name: "New", URI: "spotify:track:t1", DurationMs: 2, AlbumID: "a2"})

		got, ok := s.Track("t1")
		if !ok {
			t.Fatal("expected track")
		}
		want := models.Track{ID: "t1", Name: "New", URI: "spotify:track:t1", DurationMs: 2, AlbumID: "a2"}
		if got != want {
			t.Errorf("expected %+v, got %+v", want, got)
		}
		if s.Stats().Tracks != 1 {
			t.Errorf("expected 1 track, got %d", s.Stats().Tracks)
		}
	})

	t.Run("sparse upsert keeps known fields", func(t *testing.T) {
		s := New()
		s.UpsertTrack(models.Track{ID: "t1", Name: "Song", TrackNumber: 3, AlbumID: "a1", ImageURL: "img"})
		s.UpsertTrack(models.Track{ID: "t1", Name: "Song (Remastered)"})

		got, _ := s.Track("t1")
		if got.Name != "Song (Remastered)" || got.TrackNumber != 3 || got.AlbumID != "a1" || got.ImageURL != "img" {
			t.Errorf("unexpected merge result %+v", got)
		}
	})

	t.Run("summary upsert keeps an expanded album with matching count", func(t *testing.T) {
		s := New()
		seedTracks(s, "t1", "t2")
		s.UpsertAlbum(models.Album{ID: "a1", Name: "Album", KnownTrackCount: 2})
		s.Update(func(tx *Tx) { tx.SetAlbumTracks("a1", []string{"t1", "t2"}) })

		s.UpsertAlbum(models.Album{ID: "a1", Name: "Album", KnownTrackCount: 2})
		if a, _ := s.Album("a1"); !a.TracksLoaded() || a.TotalDurationMs != 3000 {
			t.Errorf("expected expanded album to survive, got %+v", a)
		}

		s.UpsertAlbum(models.Album{ID: "a1", Name: "Album", KnownTrackCount: 3})
		if a, _ := s.Album("a1"); a.TracksLoaded() || a.TrackCount() != 3 {
			t.Errorf("expected stale listing to be dropped, got %+v", a)
		}
	})

	t.Run("empty id is ignored", func(t *testing.T) {
		s := New()
		s.UpsertTrack(models.Track{Name: "nameless"})
		s.UpsertPlaylist(models.Playlist{Name: "nameless"})
		if st := s.Stats(); st.Tracks != 0 || st.Playlists != 0 {
			t.Errorf("expected empty store, got %+v", st)
		}
	})
}

func TestCollections(t *testing.T) {
	t.Run("append de-duplicates and drops dangling ids", func(t *testing.T) {
		s := New()
		seedTracks(s, "t1", "t2", "t3")

		s.SetCollectionIDs(TopTracks, []string{"t1", "t2", "t1", "missing"}, false)
		s.SetCollectionIDs(TopTracks, []string{"t2", "t3"}, true)

		if got := s.IDs(TopTracks); !slices.Equal(got, []string{"t1", "t2", "t3"}) {
			t.Errorf("unexpected ids %v", got)
		}
	})

	t.Run("replace discards previous ids", func(t *testing.T) {
		s := New()
		seedTracks(s, "t1", "t2")
		s.SetCollectionIDs(TopTracks, []string{"t1"}, false)
		s.SetCollectionIDs(TopTracks, []string{"t2"}, false)

		if got := s.IDs(TopTracks); !slices.Equal(got, []string{"t2"}) {
			t.Errorf("unexpected ids %v", got)
		}
	})

	t.Run("ids must match the collection kind", func(t *testing.T) {
		s := New()
		seedTracks(s, "x")
		s.SetCollectionIDs(SavedAlbums, []string{"x"}, false)
		if s.Len(SavedAlbums) != 0 {
			t.Error("track id should not enter an album collection")
		}
	})

	t.Run("projections return records in order", func(t *testing.T) {
		s := New()
		s.UpsertPlaylists([]models.Playlist{{ID: "p2", Name: "B"}, {ID: "p1", Name: "A"}})
		s.SetCollectionIDs(OwnedPlaylists, []string{"p2", "p1"}, false)

		got := s.Playlists(OwnedPlaylists)
		if len(got) != 2 || got[0].Name != "B" || got[1].Name != "A" {
			t.Errorf("unexpected projection %+v", got)
		}
		if s.Tracks(OwnedPlaylists) != nil {
			t.Error("track projection of a playlist collection should be nil")
		}
	})

	t.Run("returned slices never alias store state", func(t *testing.T) {
		s := New()
		seedTracks(s, "t1", "t2")
		s.UpsertPlaylist(models.Playlist{ID: "p1", Name: "Mix"})
		s.Update(func(tx *Tx) { tx.SetPlaylistTracks("p1", []string{"t1", "t2"}) })
		s.SetCollectionIDs(TopTracks, []string{"t1"}, false)

		ids := s.IDs(TopTracks)
		ids[0] = "mutated"
		p, _ := s.Playlist("p1")
		p.TrackIDs[0] = "mutated"

		if s.IDs(TopTracks)[0] != "t1" {
			t.Error("collection list was aliased")
		}
		if got, _ := s.Playlist("p1"); got.TrackIDs[0] != "t1" {
			t.Error("playlist track ids were aliased")
		}
	})
}

func TestFavorites(t *testing.T) {
	t.Run("insert goes to the head, remove keeps order", func(t *testing.T) {
		s := New()
		seedTracks(s, "t1", "t2", "t3", "t4")
		s.SetCollectionIDs(SavedTracks, []string{"t1", "t2", "t3"}, false)

		s.InsertFavorite("t4")
		s.RemoveFavorite("t2")

		if got := s.FavoriteIDs(); !slices.Equal(got, []string{"t4", "t1", "t3"}) {
			t.Errorf("unexpected order %v", got)
		}
		if !s.IsFavorite("t4") || s.IsFavorite("t2") {
			t.Error("favorite set out of sync")
		}
	})

	t.Run("unknown track cannot be favorited", func(t *testing.T) {
		s := New()
		s.InsertFavorite("ghost")
		if s.IsFavorite("ghost") || s.Len(SavedTracks) != 0 {
			t.Error("dangling favorite inserted")
		}
	})

	t.Run("set equals saved list after any sequence", func(t *testing.T) {
		s := New()
		ids := []string{"a", "b", "c", "d", "e", "f"}
		seedTracks(s, ids...)
		rng := rand.New(rand.NewPCG(1, 2))

		for i := range 500 {
			id := ids[rng.IntN(len(ids))]
			switch rng.IntN(4) {
			case 0, 1:
				s.InsertFavorite(id)
			case 2:
				s.RemoveFavorite(id)
			default:
				s.SetCollectionIDs(SavedTracks, []string{id}, rng.IntN(2) == 0)
			}

			list := s.IDs(SavedTracks)
			sort.Strings(list)
			if set := favoriteSet(s); !slices.Equal(set, list) {
				t.Fatalf("step %d: favorites %v != saved %v", i, set, list)
			}
		}
	})
}

func TestPlaylistMutations(t *testing.T) {
	newStore := func() *Store {
		s := New()
		seedTracks(s, "t1", "t2", "t3")
		s.UpsertPlaylist(models.Playlist{ID: "p1", Name: "Mix"})
		s.SetCollectionIDs(OwnedPlaylists, []string{"p1"}, false)
		return s
	}

	t.Run("lifecycle", func(t *testing.T) {
		s := newStore()

		s.MutatePlaylistTracks("p1", Append("t1"))
		p, _ := s.Playlist("p1")
		if !slices.Equal(p.TrackIDs, []string{"t1"}) || p.TrackCount() != 1 {
			t.Fatalf("unexpected playlist after append %+v", p)
		}

		s.RenamePlaylist("p1", "New Name")
		p, _ = s.Playlist("p1")
		if p.Name != "New Name" || !slices.Equal(p.TrackIDs, []string{"t1"}) {
			t.Fatalf("unexpected playlist after rename %+v", p)
		}

		s.DeletePlaylist("p1")
		if slices.Contains(s.IDs(OwnedPlaylists), "p1") {
			t.Error("deleted playlist still owned")
		}
		if _, ok := s.Playlist("p1"); ok {
			t.Error("unreferenced playlist should be garbage collected")
		}
		if _, ok := s.Track("t1"); !ok {
			t.Error("tracks of a deleted playlist stay in the store")
		}
	})

	t.Run("delete keeps a record still referenced by search", func(t *testing.T) {
		s := newStore()
		s.SetCollectionIDs(SearchPlaylists, []string{"p1"}, false)
		s.DeletePlaylist("p1")

		if _, ok := s.Playlist("p1"); !ok {
			t.Error("record referenced by search results was dropped")
		}
		if s.Len(OwnedPlaylists) != 0 {
			t.Error("expected playlist removed from owned list")
		}
	})

	t.Run("remove drops every occurrence and recomputes duration", func(t *testing.T) {
		s := newStore()
		s.Update(func(tx *Tx) { tx.SetPlaylistTracks("p1", []string{"t1", "t2", "t1"}) })
		s.MutatePlaylistTracks("p1", Remove("t1"))

		p, _ := s.Playlist("p1")
		if !slices.Equal(p.TrackIDs, []string{"t2"}) || p.TotalDurationMs != 2000 {
			t.Errorf("unexpected playlist %+v", p)
		}
	})

	t.Run("reorder", func(t *testing.T) {
		tests := []struct {
			name     string
			from, to int
			want     []string
		}{
			{"forward", 0, 2, []string{"t2", "t3", "t1"}},
			{"backward", 2, 0, []string{"t3", "t1", "t2"}},
			{"same index", 1, 1, []string{"t1", "t2", "t3"}},
			{"out of range", 0, 9, []string{"t1", "t2", "t3"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s := newStore()
				s.Update(func(tx *Tx) { tx.SetPlaylistTracks("p1", []string{"t1", "t2", "t3"}) })
				s.MutatePlaylistTracks("p1", Reorder(tt.from, tt.to))

				if p, _ := s.Playlist("p1"); !slices.Equal(p.TrackIDs, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, p.TrackIDs)
				}
			})
		}
	})

	t.Run("unloaded playlist only adjusts its count", func(t *testing.T) {
		s := New()
		seedTracks(s, "t1")
		s.UpsertPlaylist(models.Playlist{ID: "p1", KnownTrackCount: 10})
		s.MutatePlaylistTracks("p1", Append("t1"))

		p, _ := s.Playlist("p1")
		if p.TracksLoaded() || p.TrackCount() != 11 {
			t.Errorf("unexpected playlist %+v", p)
		}
	})

	t.Run("remove on an unloaded playlist leaves its count alone", func(t *testing.T) {
		s := New()
		s.UpsertPlaylist(models.Playlist{ID: "p1", KnownTrackCount: 10})
		before := s.Snapshot()
		s.MutatePlaylistTracks("p1", Remove("t1"))

		if !reflect.DeepEqual(before, s.Snapshot()) {
			t.Error("expected the unloaded playlist to stay as it was")
		}
	})

	t.Run("unknown playlist or track is a no-op", func(t *testing.T) {
		s := newStore()
		before := s.Snapshot()

		s.MutatePlaylistTracks("ghost", Append("t1"))
		s.MutatePlaylistTracks("p1", Append("ghost"))
		s.RenamePlaylist("ghost", "x")
		s.DeletePlaylist("ghost")

		if !reflect.DeepEqual(before, s.Snapshot()) {
			t.Error("store changed on invalid ids")
		}
	})
}

func TestPagination(t *testing.T) {
	t.Run("loaded never reverts without reset", func(t *testing.T) {
		s := New()
		s.SetPagination(SavedTracks, models.PaginationState{}.CompleteOffset(50, true, 120))
		s.SetPagination(SavedTracks, models.PaginationState{IsLoading: true})

		if !s.Pagination(SavedTracks).IsLoaded {
			t.Fatal("IsLoaded reverted")
		}

		s.ResetPagination(SavedTracks)
		if s.Pagination(SavedTracks).IsLoaded {
			t.Error("reset should return to unloaded")
		}
	})

	t.Run("failure is recorded without losing progress", func(t *testing.T) {
		s := New()
		s.SetPagination(TopArtists, models.PaginationState{}.CompleteOffset(20, true, 40))
		s.SetPagination(TopArtists, s.Pagination(TopArtists).Begin().Fail(errors.New("boom")))

		p := s.Pagination(TopArtists)
		if p.IsLoading || p.Err == nil || p.NextOffset != 20 || !p.IsLoaded {
			t.Errorf("unexpected state %+v", p)
		}
	})
}

func TestPlayback(t *testing.T) {
	t.Run("devices are replaced wholesale", func(t *testing.T) {
		s := New()
		s.ReplaceDevices([]models.Device{{ID: "d1", IsActive: true}, {ID: "d2"}})
		s.ReplaceDevices([]models.Device{{ID: "d3"}})

		if got := s.Devices(); len(got) != 1 || got[0].ID != "d3" {
			t.Errorf("unexpected devices %+v", got)
		}
		if _, ok := s.ActiveDevice(); ok {
			t.Error("expected no active device")
		}

		s.Update(func(tx *Tx) { tx.SetActiveDevice("d3") })
		if d, ok := s.ActiveDevice(); !ok || d.ID != "d3" {
			t.Errorf("expected d3 active, got %+v", d)
		}
	})

	t.Run("queue drops unknown tracks and keeps the current item", func(t *testing.T) {
		s := New()
		seedTracks(s, "t1", "t2", "t3")
		s.SetQueue(models.QueueState{TrackIDs: []string{"ghost", "t1", "t2", "t3"}, CurrentIndex: 1})

		q := s.Queue()
		if !slices.Equal(q.TrackIDs, []string{"t1", "t2", "t3"}) || q.CurrentIndex != 0 {
			t.Errorf("unexpected queue %+v", q)
		}
		if got := s.QueueTracks(); len(got) != 3 {
			t.Errorf("expected 3 queue tracks, got %d", len(got))
		}
	})

	t.Run("now playing requires a known track", func(t *testing.T) {
		s := New()
		s.SetNowPlaying(models.NowPlaying{TrackID: "ghost", IsPlaying: true})
		if np := s.NowPlaying(); np.TrackID != "" || !np.IsPlaying {
			t.Errorf("unexpected now playing %+v", np)
		}
	})
}

func TestUpdate(t *testing.T) {
	t.Run("view ignores mutations", func(t *testing.T) {
		s := New()
		s.View(func(tx *Tx) {
			tx.UpsertTrack(models.Track{ID: "t1"})
		})
		if _, ok := s.Track("t1"); ok {
			t.Error("view mutated the store")
		}
	})

	t.Run("subscribers receive batch changes", func(t *testing.T) {
		s := New()
		ch, cancel := s.Subscribe(16)
		defer cancel()

		s.Update(func(tx *Tx) {
			tx.UpsertTrack(models.Track{ID: "t1"})
			tx.SetCollectionIDs(TopTracks, []string{"t1"}, false)
		})

		first, second := <-ch, <-ch
		if first.ID != "t1" || second.Collection != TopTracks {
			t.Errorf("unexpected changes %+v %+v", first, second)
		}
	})

	t.Run("full subscriber does not block commits", func(t *testing.T) {
		s := New()
		_, cancel := s.Subscribe(1)
		for i := range 10 {
			s.UpsertTrack(models.Track{ID: fmt.Sprintf("t%d", i)})
		}
		cancel()
		cancel()
		if s.Stats().Tracks != 10 {
			t.Errorf("expected 10 tracks, got %d", s.Stats().Tracks)
		}
	})

	t.Run("concurrent writers and readers", func(t *testing.T) {
		s := New()
		var wg sync.WaitGroup
		for w := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range 50 {
					id := fmt.Sprintf("w%d-%d", w, i)
					s.Update(func(tx *Tx) {
						tx.UpsertTrack(models.Track{ID: id})
						tx.InsertFavorite(id)
					})
					_ = s.FavoriteIDs()
					_ = s.IsFavorite(id)
				}
			}()
		}
		wg.Wait()

		if s.Len(SavedTracks) != 400 || len(favoriteSet(s)) != 400 {
			t.Errorf("expected 400 favorites, got %d/%d", s.Len(SavedTracks), len(favoriteSet(s)))
		}
	})
}

func TestCollectionKinds(t *testing.T) {
	for _, c := range Collections {
		if !c.Valid() {
			t.Errorf("%s has no kind", c)
		}
		if got, ok := ParseCollection(c.String()); !ok || got != c {
			t.Errorf("ParseCollection(%q) = %q", c, got)
		}
	}
	if !FollowedArtists.Cursor() || SavedTracks.Cursor() {
		t.Error("only followed artists page by cursor")
	}
}
