package services

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifly/internal/api"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/desertthunder/spotifly/internal/store"
	tu "github.com/desertthunder/spotifly/internal/testing"
	"github.com/zmb3/spotify/v2"
)

func newTestServices(t *testing.T, fake *tu.FakeClient, opts ...func(*Deps)) (*Services, *store.Store) {
	t.Helper()
	st := store.New()
	deps := Deps{API: fake, Store: st, Logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&deps)
	}
	svc, err := New(deps)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return svc, st
}

func assertIDs(t *testing.T, st *store.Store, c store.Collection, want ...string) {
	t.Helper()
	got := st.IDs(c)
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s: expected %v, got %v", c, want, got)
	}
}

func assertUnchanged(t *testing.T, st *store.Store, before store.Snapshot) {
	t.Helper()
	if after := st.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Errorf("expected store to be unchanged\nbefore: %+v\nafter:  %+v", before, after)
	}
}

func TestNew(t *testing.T) {
	t.Run("requires an api client", func(t *testing.T) {
		_, err := New(Deps{Store: store.New()})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("requires a store", func(t *testing.T) {
		_, err := New(Deps{API: &tu.FakeClient{}})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("clamps the page size", func(t *testing.T) {
		var limits []int
		fake := &tu.FakeClient{}
		fake.SavedTracksFunc = func(ctx context.Context, page api.Page) (*spotify.SavedTrackPage, error) {
			limits = append(limits, page.Limit)
			return tu.SavedTrackPage(page.Offset, 0), nil
		}
		svc, _ := newTestServices(t, fake, func(d *Deps) { d.PageSize = 500 })

		if err := svc.Tracks.LoadSaved(context.Background(), false); err != nil {
			t.Fatalf("LoadSaved failed: %v", err)
		}
		if len(limits) != 1 || limits[0] != defaultPageSize {
			t.Errorf("expected one request with limit %d, got %v", defaultPageSize, limits)
		}
	})

	t.Run("services share one store", func(t *testing.T) {
		svc, st := newTestServices(t, &tu.FakeClient{})
		if svc.Tracks.store != st || svc.Playlists.store != st || svc.Playback.store != st {
			t.Error("expected every service to use the given store")
		}
		if svc.Tracks.loader != svc.Albums.loader {
			t.Error("expected services to share one loader")
		}
	})
}
