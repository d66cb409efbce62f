package shared

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestAPIError(t *testing.T) {
	cause := errors.New("boom")

	tc := []struct {
		name      string
		err       error
		kind      error
		retryable bool
	}{
		{name: "unauthorized", err: NewAPIError("saved-tracks", ErrUnauthorized, 401, cause), kind: ErrUnauthorized},
		{name: "not found", err: NewAPIError("album", ErrNotFound, 404, cause), kind: ErrNotFound},
		{name: "invalid request", err: NewAPIError("playlist", ErrInvalidRequest, 400, cause), kind: ErrInvalidRequest},
		{name: "malformed response", err: NewAPIError("search", ErrMalformedResponse, 0, cause), kind: ErrMalformedResponse, retryable: true},
		{name: "transport failure", err: NewAPIError("devices", ErrTransport, 0, cause), kind: ErrTransport, retryable: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Errorf("expected errors.Is(%v, %v)", tt.err, tt.kind)
			}
			if !errors.Is(tt.err, cause) {
				t.Error("expected cause to be reachable")
			}
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}

			wrapped := fmt.Errorf("loading: %w", tt.err)
			var apiErr *APIError
			if !errors.As(wrapped, &apiErr) {
				t.Fatal("expected errors.As to find APIError")
			}
		})
	}

	t.Run("nil cause falls back to kind", func(t *testing.T) {
		err := NewAPIError("me", ErrTransport, 0, nil)
		if !strings.Contains(err.Error(), "transport failure") {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("message includes status", func(t *testing.T) {
		err := NewAPIError("album", ErrNotFound, 404, cause)
		if !strings.Contains(err.Error(), "status 404") {
			t.Errorf("expected status in %q", err.Error())
		}
	})
}

func TestLogger(t *testing.T) {
	t.Run("writes to given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		WithLogger(logger, "service", "tracks").Info("loaded")

		out := buf.String()
		if !strings.Contains(out, "loaded") || !strings.Contains(out, "service=tracks") {
			t.Errorf("unexpected log output %q", out)
		}
	})

	t.Run("ParseLogLevel", func(t *testing.T) {
		tc := []struct {
			in   string
			want log.Level
		}{
			{"", log.InfoLevel},
			{"debug", log.DebugLevel},
			{"WARN", log.WarnLevel},
			{"nonsense", log.InfoLevel},
		}
		for _, tt := range tc {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	})
}

func TestIDs(t *testing.T) {
	if a, b := GenerateID(), GenerateID(); a == b {
		t.Error("expected unique IDs")
	}

	state, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState failed: %v", err)
	}
	if len(state) != 32 || strings.Contains(state, "-") {
		t.Errorf("unexpected state %q", state)
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"tracks": 2}

	t.Run("compact", func(t *testing.T) {
		data, err := MarshalJSON(v, false)
		if err != nil {
			t.Fatalf("MarshalJSON failed: %v", err)
		}
		if string(data) != `{"tracks":2}` {
			t.Errorf("unexpected output %s", data)
		}
	})

	t.Run("pretty indents with two spaces", func(t *testing.T) {
		data, err := MarshalJSON(v, true)
		if err != nil {
			t.Fatalf("MarshalJSON failed: %v", err)
		}
		if string(data) != "{\n  \"tracks\": 2\n}" {
			t.Errorf("unexpected output %s", data)
		}
	})
}
