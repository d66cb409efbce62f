// Package models defines the canonical catalog entities held by the store.
//
// Every entity type has exactly one shape regardless of which Web API response it came from:
//   - [Track] : a playable recording, with denormalized display names
//   - [Album] : an album with ordered member track IDs
//   - [Artist] : an artist with genres and follower count
//   - [Playlist] : a user playlist with ordered member track IDs
//   - [Device] : a Connect playback device
//
// Relationships are expressed as IDs only. Album and Playlist model two lifecycle phases without a separate type:
// a summary (from a listing, only a known track count) and an expanded form (after a dedicated track fetch).
//
// Entities are values. Mutating helpers such as [Playlist.WithName] return copies, so a value read from the
// store can never alias the store's internal state.
//
// [PaginationState] is the per-collection state machine used by the services (Unloaded → Loading → Loaded).
package models
