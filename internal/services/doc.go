// Package services implements the collection services: the only legal way to change the store.
//
// # Fetch, convert, commit
//
// Every collection load follows the same protocol (see loader):
//  1. return immediately when the collection is already loaded and no refresh was requested
//  2. mark the collection as loading
//  3. call the [api.Client]
//  4. on success convert the response with the mapper package and commit entities, IDs and pagination
//     in a single [store.Store.Update]
//  5. clear the loading flag, recording the error on failure
//
// Loads are single-flight per collection via golang.org/x/sync/singleflight.
//
// # Mutation policy
//
// Playlist edits, favorite toggles and album saves are pessimistic: the remote call runs first and the
// store changes only after it succeeds. Queue edits ([PlaybackService.PlayNext], [PlaybackService.AddToQueue])
// are optimistic: the local queue changes first and a recorded compensating action restores it on failure.
//
// # Errors
//
// Remote failures surface as [*shared.APIError] values and match the taxonomy sentinels with errors.Is:
//   - [shared.ErrUnauthorized] : re-authenticate through the session
//   - [shared.ErrNotFound] : the entity does not exist
//   - [shared.ErrInvalidRequest] : bad input, raised before any network call
//   - [shared.ErrMalformedResponse], [shared.ErrTransport] : retryable
package services
