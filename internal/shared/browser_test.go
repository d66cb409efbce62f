package shared

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func withPlatform(t *testing.T, goos string, env map[string]string) {
	t.Helper()
	prevRuntime, prevLookup := getRuntime, lookupEnv
	getRuntime = func() string { return goos }
	lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	t.Cleanup(func() { getRuntime, lookupEnv = prevRuntime, prevLookup })
}

func TestBrowserCommand(t *testing.T) {
	tests := []struct {
		name string
		goos string
		env  map[string]string
		want string
	}{
		{"macOS uses open", "darwin", nil, "open"},
		{"linux with a display uses xdg-open", "linux", map[string]string{"DISPLAY": ":0"}, "xdg-open"},
		{"wayland counts as a display", "linux", map[string]string{"WAYLAND_DISPLAY": "wayland-0"}, "xdg-open"},
		{"windows uses the url handler", "windows", nil, "rundll32"},
		{"BROWSER overrides the platform", "linux", map[string]string{"BROWSER": "firefox"}, "firefox"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withPlatform(t, tt.goos, tt.env)

			cmd, err := browserCommand("https://example.com")
			if err != nil {
				t.Fatalf("browserCommand failed: %v", err)
			}
			if cmd.Args[0] != tt.want || cmd.Args[len(cmd.Args)-1] != "https://example.com" {
				t.Errorf("unexpected command %v", cmd.Args)
			}
		})
	}

	t.Run("headless linux has no browser", func(t *testing.T) {
		withPlatform(t, "linux", nil)
		if _, err := browserCommand("https://example.com"); !errors.Is(err, ErrNoBrowser) {
			t.Errorf("expected ErrNoBrowser, got %v", err)
		}
	})

	t.Run("unknown platforms have no browser", func(t *testing.T) {
		withPlatform(t, "plan9", nil)
		if err := OpenBrowser("https://example.com"); !errors.Is(err, ErrNoBrowser) {
			t.Errorf("expected ErrNoBrowser, got %v", err)
		}
	})
}

func TestPresentURL(t *testing.T) {
	const url = "https://accounts.example/authorize"

	t.Run("a launched browser prints nothing", func(t *testing.T) {
		var buf bytes.Buffer
		opened, err := PresentURL(&buf, url, true, func(string) error { return nil })
		if !opened || err != nil || buf.Len() != 0 {
			t.Errorf("expected a silent launch, got opened=%v err=%v out=%q", opened, err, buf.String())
		}
	})

	t.Run("a failed launch falls back to printing", func(t *testing.T) {
		var buf bytes.Buffer
		opened, err := PresentURL(&buf, url, true, func(string) error { return ErrNoBrowser })
		if opened || !errors.Is(err, ErrNoBrowser) {
			t.Errorf("expected (false, ErrNoBrowser), got (%v, %v)", opened, err)
		}
		if !strings.Contains(buf.String(), url) {
			t.Errorf("expected the URL in %q", buf.String())
		}
	})

	t.Run("launch disabled never calls open", func(t *testing.T) {
		var buf bytes.Buffer
		called := false
		opened, err := PresentURL(&buf, url, false, func(string) error { called = true; return nil })
		if opened || err != nil || called {
			t.Errorf("expected print only, got opened=%v err=%v called=%v", opened, err, called)
		}
		if !strings.Contains(buf.String(), url) {
			t.Errorf("expected the URL in %q", buf.String())
		}
	})
}
