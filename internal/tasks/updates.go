package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	LoadCollections Phase = iota
	ExpandPlaylists
	ExpandAlbums
	FetchPlaylist
	ExportPlaylist
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case LoadCollections:
		return "load_collections"
	case ExpandPlaylists:
		return "expand_playlists"
	case ExpandAlbums:
		return "expand_albums"
	case FetchPlaylist:
		return "fetch_playlist"
	case ExportPlaylist:
		return "export_playlist"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func collectionLoadedUpdate(step, total int, res CollectionResult) ProgressUpdate {
	msg := fmt.Sprintf("Loaded %s (%d items)", res.Collection, res.Count)
	if res.Err != nil {
		msg = fmt.Sprintf("Failed to load %s: %v", res.Collection, res.Err)
	}
	return ProgressUpdate{
		Phase:   LoadCollections,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func loadingCollectionsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadCollections,
		Total:   total,
		Message: "Loading library collections...",
	}
}

func expandedUpdate(phase Phase, step, total int, res ItemResult) ProgressUpdate {
	msg := fmt.Sprintf("Expanded %s", res.Name)
	if res.Err != nil {
		msg = fmt.Sprintf("Failed to expand %s: %v", res.Name, res.Err)
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func fetchingPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching playlist %s...", name),
	}
}

func exportCompletedUpdate(step, total int, name string, files int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Exported %s (%d files)", name, files),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Failed to export %s: %v", name, err),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing manifest to %s", path),
	}
}

