package models

import (
	"fmt"
	"strings"
)

const openSpotifyHost = "open.spotify.com/"

// URI is a parsed spotify:<kind>:<id> identifier.
type URI struct {
	Kind string
	ID   string
}

func (u URI) String() string {
	return "spotify:" + u.Kind + ":" + u.ID
}

// URLToURI converts an open.spotify.com link to a spotify: URI.
//
// Locale segments such as "intl-de" and query strings are dropped. Input that is already a URI,
// or that cannot be parsed, is returned unchanged.
func URLToURI(input string) string {
	if strings.HasPrefix(input, "spotify:") {
		return input
	}
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return input
	}

	pos := strings.Index(input, openSpotifyHost)
	if pos < 0 {
		return input
	}

	var parts []string
	for _, p := range strings.Split(input[pos+len(openSpotifyHost):], "/") {
		if strings.HasPrefix(p, "intl-") {
			continue
		}
		parts = append(parts, p)
	}
	if len(parts) < 2 {
		return input
	}

	id := parts[1]
	if q := strings.IndexByte(id, '?'); q >= 0 {
		id = id[:q]
	}
	return "spotify:" + parts[0] + ":" + id
}

// ParseURI parses a spotify: URI or open.spotify.com link.
func ParseURI(input string) (URI, error) {
	parts := strings.Split(URLToURI(strings.TrimSpace(input)), ":")
	if len(parts) != 3 || parts[0] != "spotify" || parts[1] == "" || parts[2] == "" {
		return URI{}, fmt.Errorf("invalid spotify uri %q", input)
	}
	switch parts[1] {
	case "track", "album", "artist", "playlist", "episode", "show":
	default:
		return URI{}, fmt.Errorf("unsupported spotify uri kind %q", parts[1])
	}
	return URI{Kind: parts[1], ID: parts[2]}, nil
}

// TrackURI builds the URI for a track ID.
func TrackURI(id string) string {
	return URI{Kind: "track", ID: id}.String()
}

// ExternalURLFromURI derives the web link for a track URI, or "" for anything else.
func ExternalURLFromURI(uri string) string {
	parts := strings.Split(uri, ":")
	if len(parts) == 3 && parts[0] == "spotify" && parts[1] == "track" && parts[2] != "" {
		return "https://" + openSpotifyHost + "track/" + parts[2]
	}
	return ""
}
