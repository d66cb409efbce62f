package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/desertthunder/spotifly/internal/models"
	"github.com/desertthunder/spotifly/internal/shared"
)

// Format selects how a [Table] or value is written.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or its short alias ("md", "txt").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
}

// Table is a store projection flattened into display rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Options controls rendering.
type Options struct {
	Format Format
	Pretty bool // styled text, indented JSON
}

// Render writes t, or v when the format is JSON.
func Render(w io.Writer, t Table, v any, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return WriteJSON(w, v, opts.Pretty)
	case FormatCSV:
		return writeCSV(w, t)
	case FormatMarkdown:
		_, err := io.WriteString(w, markdownTable(t))
		return err
	default:
		if opts.Pretty {
			_, err := fmt.Fprintln(w, styles.table(t).Render())
			return err
		}
		return writeText(w, t)
	}
}

// WriteJSON writes v followed by a newline.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	data, err := shared.MarshalJSON(v, pretty)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func writeCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write CSV records: %w", err)
	}
	return nil
}

func writeText(w io.Writer, t Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func markdownTable(t Table) string {
	var buf bytes.Buffer
	buf.WriteString("| " + strings.Join(escapeCells(t.Headers), " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(t.Headers)) + "\n")
	for _, row := range t.Rows {
		buf.WriteString("| " + strings.Join(escapeCells(row), " | ") + " |\n")
	}
	return buf.String()
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return out
}

// TrackTable lists tracks with a 1-based position. isFavorite may be nil.
func TrackTable(tracks []models.Track, isFavorite func(id string) bool) Table {
	t := Table{Headers: []string{"#", "Title", "Artist", "Album", "Duration", "Saved", "ID"}}
	for i, tr := range tracks {
		saved := ""
		if isFavorite != nil && isFavorite(tr.ID) {
			saved = "♥"
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(i + 1), tr.Name, tr.ArtistName, tr.AlbumName, tr.FormattedDuration(), saved, tr.ID,
		})
	}
	return t
}

func AlbumTable(albums []models.Album) Table {
	t := Table{Headers: []string{"#", "Album", "Artist", "Released", "Tracks", "Duration", "ID"}}
	for i, a := range albums {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(i + 1), a.Name, a.ArtistName, a.ReleaseDate, strconv.Itoa(a.TrackCount()), a.FormattedDuration(), a.ID,
		})
	}
	return t
}

func ArtistTable(artists []models.Artist) Table {
	t := Table{Headers: []string{"#", "Artist", "Genres", "Followers", "ID"}}
	for i, a := range artists {
		followers := "?"
		if a.Followers >= 0 {
			followers = strconv.Itoa(a.Followers)
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(i + 1), a.Name, strings.Join(a.Genres, ", "), followers, a.ID,
		})
	}
	return t
}

func PlaylistTable(playlists []models.Playlist) Table {
	t := Table{Headers: []string{"#", "Playlist", "Owner", "Tracks", "Duration", "Visibility", "ID"}}
	for i, p := range playlists {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(i + 1), p.Name, p.OwnerName, strconv.Itoa(p.TrackCount()), p.FormattedDuration(),
			shared.VisibilityString(p.Public), p.ID,
		})
	}
	return t
}

func DeviceTable(devices []models.Device) Table {
	t := Table{Headers: []string{"Device", "Type", "Active", "Volume", "ID"}}
	for _, d := range devices {
		active, volume := "", "?"
		if d.IsActive {
			active = "yes"
		}
		if d.VolumePercent >= 0 {
			volume = strconv.Itoa(d.VolumePercent) + "%"
		}
		t.Rows = append(t.Rows, []string{d.Name, d.Type, active, volume, d.ID})
	}
	return t
}

// QueueTable lists the queue, marking the current item and the played ones before it.
func QueueTable(tracks []models.Track, current int) Table {
	t := Table{Headers: []string{"#", "", "Title", "Artist", "Duration", "ID"}}
	for i, tr := range tracks {
		marker := ""
		switch {
		case i == current:
			marker = "▶"
		case i < current:
			marker = "played"
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(i + 1), marker, tr.Name, tr.ArtistName, tr.FormattedDuration(), tr.ID,
		})
	}
	return t
}
