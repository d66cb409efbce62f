// Package tasks runs library-wide operations on top of the services layer with progress reporting.
//
// # Operations
//
// [LibraryEngine] implements [SyncEngine]:
//
//  1. [LibraryEngine.Sync] : load the whole library into the store
//     - Loads every user collection concurrently (saved tracks, owned playlists, saved albums,
//     followed and top artists, top tracks, recently played)
//     - Expands each owned playlist, and optionally each saved album, on a bounded worker pool
//     gated by a rate limiter
//     - Records per-collection and per-listing failures without stopping the rest
//
//  2. [LibraryEngine.BulkExport] : write playlists to disk
//     - Fetches listings through the playlist service, reusing anything already expanded
//     - Writes each playlist with the formatter on a pool of workers
//     - Writes export_manifest.json summarising successes and failures
//
// Every store write goes through the services, so the store's single-flight and atomic commit
// guarantees hold while tasks run concurrently with other callers.
//
// # Progress Reporting
//
// All operations accept an optional channel for [ProgressUpdate] values. Sends use select with
// default so a slow or absent reader never blocks the task.
package tasks
