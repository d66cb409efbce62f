package services

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/spotifly/internal/models"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/desertthunder/spotifly/internal/store"
	tu "github.com/desertthunder/spotifly/internal/testing"
	"github.com/zmb3/spotify/v2"
)

func searchResult(prefix string) *spotify.SearchResult {
	return &spotify.SearchResult{
		Tracks:    tu.FullTrackPage(0, 10, tu.FullTrack(prefix+"-t1", 1000), tu.FullTrack(prefix+"-t2", 1000)),
		Artists:   tu.FullArtistPage(0, 1, tu.FullArtist(prefix+"-ar", "Artist")),
		Playlists: tu.SimplePlaylistPage(0, 1, tu.SimplePlaylist(prefix+"-pl", "List", 4)),
	}
}

func TestSearchService(t *testing.T) {
	ctx := context.Background()

	t.Run("results replace the search collections", func(t *testing.T) {
		var gotTypes spotify.SearchType
		fake := &tu.FakeClient{}
		fake.SearchFunc = func(ctx context.Context, q string, types spotify.SearchType, limit int) (*spotify.SearchResult, error) {
			gotTypes = types
			return searchResult(q), nil
		}
		svc, st := newTestServices(t, fake)

		if err := svc.Search.Search(ctx, "q"); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		assertIDs(t, st, store.SearchTracks, "q-t1", "q-t2")
		assertIDs(t, st, store.SearchArtists, "q-ar")
		assertIDs(t, st, store.SearchPlaylists, "q-pl")
		assertIDs(t, st, store.SearchAlbums)

		want := spotify.SearchTypeTrack | spotify.SearchTypeAlbum | spotify.SearchTypeArtist | spotify.SearchTypePlaylist
		if gotTypes != want {
			t.Errorf("expected all search types, got %v", gotTypes)
		}
		if p := st.Pagination(store.SearchTracks); !p.IsLoaded || !p.HasMore || p.Total != 10 {
			t.Errorf("unexpected pagination %+v", p)
		}

		if err := svc.Search.Search(ctx, "r", models.KindTrack); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		assertIDs(t, st, store.SearchTracks, "r-t1", "r-t2")
		assertIDs(t, st, store.SearchArtists, "q-ar")
		if gotTypes != spotify.SearchTypeTrack {
			t.Errorf("expected track search only, got %v", gotTypes)
		}
	})

	t.Run("an empty query clears results without a call", func(t *testing.T) {
		fake := &tu.FakeClient{}
		fake.SearchFunc = func(ctx context.Context, q string, types spotify.SearchType, limit int) (*spotify.SearchResult, error) {
			return searchResult(q), nil
		}
		svc, st := newTestServices(t, fake)
		_ = svc.Search.Search(ctx, "q")

		if err := svc.Search.Search(ctx, "   "); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		for _, c := range []store.Collection{store.SearchTracks, store.SearchArtists, store.SearchPlaylists} {
			if st.Len(c) != 0 || st.Pagination(c).IsLoaded {
				t.Errorf("expected %s to be cleared", c)
			}
		}
		if n := fake.Calls("Search"); n != 1 {
			t.Errorf("expected 1 call, got %d", n)
		}
		if _, ok := st.Track("q-t1"); !ok {
			t.Error("clearing results must not drop entities")
		}
	})

	t.Run("the latest search wins", func(t *testing.T) {
		entered, release := make(chan struct{}), make(chan struct{})
		fake := &tu.FakeClient{}
		fake.SearchFunc = func(ctx context.Context, q string, types spotify.SearchType, limit int) (*spotify.SearchResult, error) {
			if q == "slow" {
				close(entered)
				<-release
			}
			return searchResult(q), nil
		}
		svc, st := newTestServices(t, fake)

		done := make(chan error, 1)
		go func() { done <- svc.Search.Search(ctx, "slow") }()
		<-entered
		if err := svc.Search.Search(ctx, "fast"); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		close(release)
		if err := <-done; err != nil {
			t.Fatalf("stale Search failed: %v", err)
		}

		assertIDs(t, st, store.SearchTracks, "fast-t1", "fast-t2")
	})

	t.Run("a superseded search clears loading on kinds the newer search skipped", func(t *testing.T) {
		entered, release := make(chan struct{}), make(chan struct{})
		fake := &tu.FakeClient{}
		fake.SearchFunc = func(ctx context.Context, q string, types spotify.SearchType, limit int) (*spotify.SearchResult, error) {
			if q == "first" {
				close(entered)
				<-release
			}
			return searchResult(q), nil
		}
		svc, st := newTestServices(t, fake)

		done := make(chan error, 1)
		go func() { done <- svc.Search.Search(ctx, "first", models.KindTrack) }()
		<-entered
		if p := st.Pagination(store.SearchTracks); !p.IsLoading {
			t.Fatalf("expected track results to be loading, got %+v", p)
		}
		if err := svc.Search.Search(ctx, "second", models.KindArtist); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		close(release)
		if err := <-done; err != nil {
			t.Fatalf("stale Search failed: %v", err)
		}

		if p := st.Pagination(store.SearchTracks); p.IsLoading || p.IsLoaded {
			t.Errorf("expected track results idle and unloaded, got %+v", p)
		}
		assertIDs(t, st, store.SearchTracks)
		assertIDs(t, st, store.SearchArtists, "second-ar")
	})

	t.Run("failure records the error on the searched collections", func(t *testing.T) {
		fake := &tu.FakeClient{}
		fake.SearchFunc = func(ctx context.Context, q string, types spotify.SearchType, limit int) (*spotify.SearchResult, error) {
			return nil, tu.TransportFailure("search")
		}
		svc, st := newTestServices(t, fake)

		err := svc.Search.Search(ctx, "q", models.KindArtist)
		if !errors.Is(err, shared.ErrTransport) {
			t.Fatalf("expected ErrTransport, got %v", err)
		}
		if p := st.Pagination(store.SearchArtists); p.IsLoading || p.Err == nil {
			t.Errorf("unexpected pagination %+v", p)
		}
		if p := st.Pagination(store.SearchTracks); p.Err != nil {
			t.Error("unsearched collections must not record the error")
		}
	})

	t.Run("unsearchable kinds are rejected", func(t *testing.T) {
		fake := &tu.FakeClient{}
		svc, _ := newTestServices(t, fake)
		if err := svc.Search.Search(ctx, "q", models.KindDevice); !errors.Is(err, shared.ErrInvalidRequest) {
			t.Errorf("expected ErrInvalidRequest, got %v", err)
		}
		if fake.TotalCalls() != 0 {
			t.Error("expected no calls")
		}
	})
}
