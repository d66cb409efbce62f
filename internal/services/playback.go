package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifly/internal/mapper"
	"github.com/desertthunder/spotifly/internal/models"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/desertthunder/spotifly/internal/store"
	"github.com/zmb3/spotify/v2"
)

// PlaybackService refreshes devices, the player snapshot and the queue, and applies queue edits.
//
// PlayNext and AddToQueue are optimistic: the local queue changes first and is restored if the remote call fails.
// RemoveFromQueue, MoveQueueItem and ClearUpcoming are local edits limited to items after the current index.
// Player controls (Pause, Next, Seek, JumpTo and the rest) refresh both snapshots after the command lands.
type PlaybackService struct {
	base
	tracks *TrackService
	now    func() time.Time
}

func (s *PlaybackService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// LoadDevices replaces the device list.
func (s *PlaybackService) LoadDevices(ctx context.Context) ([]models.Device, error) {
	resp, err := s.api.Devices(ctx)
	if err != nil {
		return nil, fmt.Errorf("load devices: %w", err)
	}
	devices := mapper.DevicesFromAPI(resp)
	s.store.ReplaceDevices(devices)
	s.logger.Debug("loaded devices", "count", len(devices))
	return s.store.Devices(), nil
}

// Transfer moves playback to the device and marks it active.
func (s *PlaybackService) Transfer(ctx context.Context, deviceID string) error {
	if err := requireID(models.KindDevice, deviceID); err != nil {
		return err
	}
	if err := s.api.TransferPlayback(ctx, deviceID, false); err != nil {
		return fmt.Errorf("transfer playback to %s: %w", deviceID, err)
	}
	s.store.Update(func(tx *store.Tx) { tx.SetActiveDevice(deviceID) })
	s.opLogger("transfer").Info("transferred playback", "device", deviceID)
	return nil
}

// RefreshNowPlaying stores the current player snapshot.
func (s *PlaybackService) RefreshNowPlaying(ctx context.Context) (models.NowPlaying, error) {
	state, err := s.api.PlayerState(ctx)
	if err != nil {
		return models.NowPlaying{}, fmt.Errorf("refresh now playing: %w", err)
	}

	np, track := mapper.NowPlayingFrom(state, s.clock())
	s.store.Update(func(tx *store.Tx) {
		if track != nil {
			commitFullTracks(tx, []spotify.FullTrack{*state.Item}, []models.Track{*track})
		}
		tx.SetNowPlaying(np)
	})
	return s.store.NowPlaying(), nil
}

// RefreshQueue replaces the local queue with the server's snapshot.
func (s *PlaybackService) RefreshQueue(ctx context.Context) (models.QueueState, error) {
	resp, err := s.api.Queue(ctx)
	if err != nil {
		return models.QueueState{}, fmt.Errorf("refresh queue: %w", err)
	}

	tracks, q := mapper.QueueFrom(resp)
	s.store.Update(func(tx *store.Tx) {
		var full []spotify.FullTrack
		if resp != nil {
			if resp.CurrentlyPlaying != nil {
				full = append(full, *resp.CurrentlyPlaying)
			}
			full = append(full, resp.Queue...)
		}
		commitFullTracks(tx, full, tracks)
		tx.SetQueue(q)
	})
	return s.store.Queue(), nil
}

// Play starts the given URIs on the active device, or the server's default device when none is active.
func (s *PlaybackService) Play(ctx context.Context, uris ...string) error {
	normalized := make([]string, 0, len(uris))
	for _, raw := range uris {
		u, err := models.ParseURI(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidRequest, err)
		}
		normalized = append(normalized, u.String())
	}

	deviceID := s.activeDeviceID()
	if err := s.api.Play(ctx, deviceID, normalized...); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	s.opLogger("play").Info("started playback", "device", deviceID, "items", len(normalized))
	return nil
}

func (s *PlaybackService) activeDeviceID() string {
	if d, ok := s.store.ActiveDevice(); ok {
		return d.ID
	}
	return ""
}

// control sends a player command to the active device, then refreshes the player and queue snapshots.
// A failed refresh is logged; the command itself already succeeded.
func (s *PlaybackService) control(ctx context.Context, op string, call func(deviceID string) error, attrs ...any) error {
	deviceID := s.activeDeviceID()
	if err := call(deviceID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	logger := s.opLogger(op)
	logger.Info("sent player command", append([]any{"device", deviceID}, attrs...)...)
	s.refreshAfter(ctx, logger)
	return nil
}

func (s *PlaybackService) refreshAfter(ctx context.Context, logger *log.Logger) {
	if _, err := s.RefreshNowPlaying(ctx); err != nil {
		logger.Warn("refresh after command failed", "error", err)
	}
	if _, err := s.RefreshQueue(ctx); err != nil {
		logger.Warn("refresh after command failed", "error", err)
	}
}

// Pause pauses playback.
func (s *PlaybackService) Pause(ctx context.Context) error {
	return s.control(ctx, "pause", func(id string) error { return s.api.Pause(ctx, id) })
}

// Resume continues the paused context.
func (s *PlaybackService) Resume(ctx context.Context) error {
	return s.control(ctx, "resume", func(id string) error { return s.api.Resume(ctx, id) })
}

// Next skips to the next item.
func (s *PlaybackService) Next(ctx context.Context) error {
	return s.control(ctx, "next", func(id string) error { return s.api.Next(ctx, id) })
}

// Previous returns to the previous item.
func (s *PlaybackService) Previous(ctx context.Context) error {
	return s.control(ctx, "previous", func(id string) error { return s.api.Previous(ctx, id) })
}

// Seek moves to positionMs in the current item.
func (s *PlaybackService) Seek(ctx context.Context, positionMs int) error {
	if positionMs < 0 {
		return fmt.Errorf("%w: seek position %d is negative", shared.ErrInvalidRequest, positionMs)
	}
	return s.control(ctx, "seek", func(id string) error { return s.api.Seek(ctx, id, positionMs) }, "position_ms", positionMs)
}

// SetVolume sets the device volume, 0 to 100.
func (s *PlaybackService) SetVolume(ctx context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%w: volume %d is outside 0-100", shared.ErrInvalidRequest, percent)
	}
	return s.control(ctx, "volume", func(id string) error { return s.api.SetVolume(ctx, id, percent) }, "percent", percent)
}

// JumpTo plays the queue from index onward and makes index the current item.
func (s *PlaybackService) JumpTo(ctx context.Context, index int) error {
	q := s.store.Queue()
	if index < 0 || index >= len(q.TrackIDs) {
		return fmt.Errorf("%w: queue index %d is out of range", shared.ErrInvalidRequest, index)
	}

	uris := make([]string, 0, len(q.TrackIDs)-index)
	for _, id := range q.TrackIDs[index:] {
		if t, ok := s.store.Track(id); ok && t.URI != "" {
			uris = append(uris, t.URI)
			continue
		}
		uris = append(uris, models.TrackURI(id))
	}

	deviceID := s.activeDeviceID()
	if err := s.api.Play(ctx, deviceID, uris...); err != nil {
		return fmt.Errorf("jump to %d: %w", index, err)
	}
	s.store.Update(func(tx *store.Tx) {
		if cur := tx.Queue(); sameQueue(cur, q) {
			cur.CurrentIndex = index
			tx.SetQueue(cur)
		}
	})

	logger := s.opLogger("jump")
	logger.Info("jumped in queue", "device", deviceID, "index", index)
	s.refreshAfter(ctx, logger)
	return nil
}

// Radio fetches tracks recommended from a seed track and upserts them with their albums and artists.
func (s *PlaybackService) Radio(ctx context.Context, trackID string, limit int) ([]models.Track, error) {
	if err := requireID(models.KindTrack, trackID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRadioLimit
	}
	resp, err := s.api.Recommendations(ctx, trackID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch radio for %s: %w", trackID, err)
	}

	full := mapper.FullTracksFromSimple(resp)
	tracks := mapper.TracksFromFull(full)
	s.store.Update(func(tx *store.Tx) { commitFullTracks(tx, full, tracks) })

	out := make([]models.Track, 0, len(tracks))
	for _, t := range tracks {
		if stored, ok := s.store.Track(t.ID); ok {
			out = append(out, stored)
		}
	}
	s.opLogger("radio").Debug("loaded radio", "seed", trackID, "count", len(out))
	return out, nil
}

const defaultRadioLimit = 20

// PlayNext queues the track right after the current item.
func (s *PlaybackService) PlayNext(ctx context.Context, trackID string) error {
	return s.enqueue(ctx, "play-next", trackID, func(q models.QueueState) models.QueueState {
		if q.CurrentIndex < 0 {
			q.TrackIDs = append(q.TrackIDs, trackID)
			return q
		}
		q.TrackIDs = slices.Insert(q.TrackIDs, q.CurrentIndex+1, trackID)
		return q
	})
}

// AddToQueue queues the track at the end of the queue.
func (s *PlaybackService) AddToQueue(ctx context.Context, trackID string) error {
	return s.enqueue(ctx, "add-to-queue", trackID, func(q models.QueueState) models.QueueState {
		q.TrackIDs = append(q.TrackIDs, trackID)
		return q
	})
}

// enqueue applies edit to the local queue, then queues the track remotely.
// A failed remote call restores the previous queue unless something else replaced the queue meanwhile.
func (s *PlaybackService) enqueue(ctx context.Context, op, trackID string, edit func(models.QueueState) models.QueueState) error {
	if _, err := s.tracks.Track(ctx, trackID); err != nil {
		return err
	}
	logger := s.opLogger(op)

	var prev, applied models.QueueState
	s.store.Update(func(tx *store.Tx) {
		prev = tx.Queue()
		tx.SetQueue(edit(prev.Clone()))
		applied = tx.Queue()
	})

	if err := s.api.QueueTrack(ctx, trackID); err != nil {
		rolledBack := false
		s.store.Update(func(tx *store.Tx) {
			if sameQueue(tx.Queue(), applied) {
				tx.SetQueue(prev)
				rolledBack = true
			}
		})
		logger.Warn("queue edit failed", "track", trackID, "rolled_back", rolledBack, "error", err)
		return fmt.Errorf("queue track %s: %w", trackID, err)
	}
	logger.Info("queued track", "track", trackID)
	return nil
}

// RemoveFromQueue removes the upcoming item at index.
func (s *PlaybackService) RemoveFromQueue(index int) error {
	return s.editUpcoming(func(q *models.QueueState) error {
		if !upcoming(*q, index) {
			return fmt.Errorf("%w: queue index %d is not upcoming", shared.ErrInvalidRequest, index)
		}
		q.TrackIDs = slices.Delete(q.TrackIDs, index, index+1)
		return nil
	})
}

// MoveQueueItem moves the upcoming item at from to index to. Both must be after the current index.
func (s *PlaybackService) MoveQueueItem(from, to int) error {
	return s.editUpcoming(func(q *models.QueueState) error {
		if !upcoming(*q, from) || !upcoming(*q, to) {
			return fmt.Errorf("%w: cannot move queue item %d to %d", shared.ErrInvalidRequest, from, to)
		}
		id := q.TrackIDs[from]
		q.TrackIDs = slices.Insert(slices.Delete(q.TrackIDs, from, from+1), to, id)
		return nil
	})
}

// ClearUpcoming drops every item after the current index. The current and played items stay.
func (s *PlaybackService) ClearUpcoming() {
	_ = s.editUpcoming(func(q *models.QueueState) error {
		q.TrackIDs = q.TrackIDs[:q.CurrentIndex+1]
		return nil
	})
}

func (s *PlaybackService) editUpcoming(edit func(q *models.QueueState) error) error {
	var err error
	s.store.Update(func(tx *store.Tx) {
		q := tx.Queue()
		if err = edit(&q); err == nil {
			tx.SetQueue(q)
		}
	})
	return err
}

func upcoming(q models.QueueState, index int) bool {
	return index > q.CurrentIndex && index < len(q.TrackIDs)
}

func sameQueue(a, b models.QueueState) bool {
	return a.CurrentIndex == b.CurrentIndex && slices.Equal(a.TrackIDs, b.TrackIDs)
}
