// Package progress tracks which videos are watched and keeps that set in step with the API.
//
// The server is authoritative. The tracker holds a local overlay that is updated before each
// watch or unwatch request is sent, mirrored to the state store after every change, and
// reconciled against a fresh server listing when a request fails. A toggle and a concurrent
// reset are not ordered with respect to each other; the next [Tracker.Initialize] settles any
// disagreement.
//
// An imported set is the exception: until [Tracker.ConfirmPush] records that it reached the
// server, Initialize and reconciliation keep it instead of the server's flags.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ptt/internal/catalog"
	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/shared"
)

// API is the subset of the REST API the tracker talks to.
type API interface {
	Videos(ctx context.Context) ([]models.Video, error)
	MarkWatched(ctx context.Context, id models.VideoID) error
	MarkUnwatched(ctx context.Context, id models.VideoID) error
	ResetProgress(ctx context.Context) (int, error)
}

// Options configures a [Tracker]. Zero values are usable.
type Options struct {
	Logger   *log.Logger
	Notifier Notifier
}

// Tracker is the watched-set and its synchronization protocol.
type Tracker struct {
	mu       sync.Mutex
	api      API
	state    models.StateStore
	logger   *log.Logger
	notifier Notifier
	watched  map[models.VideoID]struct{}
	pending  map[models.VideoID]bool
	unpushed bool
}

// NewTracker creates a tracker seeded from the watched-set persisted in state.
func NewTracker(api API, state models.StateStore, opts Options) *Tracker {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}

	t := &Tracker{
		api:      api,
		state:    state,
		logger:   logger,
		notifier: notifier,
		watched:  make(map[models.VideoID]struct{}),
		pending:  make(map[models.VideoID]bool),
	}

	if state != nil {
		var saved []models.VideoID
		if _, err := state.Load(shared.KeyWatchedVideos, &saved); err != nil {
			logger.Warn("Discarding unreadable watched-set", "error", err)
		}
		for _, id := range saved {
			if id.Valid() {
				t.watched[id] = struct{}{}
			}
		}
		if _, err := state.Load(shared.KeyUnpushedImport, &t.unpushed); err != nil {
			logger.Warn("Discarding unreadable import marker", "error", err)
		}
	}
	return t
}

// Initialize fetches every video and replaces the watched-set with the ids the server reports as watched.
//
// While an import is waiting to be pushed the local set is kept and an info notice says so.
// On failure the current set is kept, a notice is sent and the error is returned; callers may ignore it.
func (t *Tracker) Initialize(ctx context.Context) ([]models.Video, error) {
	videos, err := t.api.Videos(ctx)
	if err != nil {
		t.notify(LevelError, "Failed to load progress from the server", err)
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	t.mu.Lock()
	unpushed := t.unpushed
	count := len(t.watched)
	if !unpushed {
		t.seedLocked(videos)
	}
	t.mu.Unlock()

	if unpushed {
		t.notify(LevelInfo, fmt.Sprintf("Keeping %d imported videos until they are pushed", count), nil)
	}
	return videos, nil
}

func (t *Tracker) seedLocked(videos []models.Video) {
	t.watched = make(map[models.VideoID]struct{}, len(videos))
	for _, v := range videos {
		if v.Watched && v.ID.Valid() {
			t.watched[v.ID] = struct{}{}
		}
	}
	t.persistLocked()
}

// IsWatched reports whether id is in the watched-set.
func (t *Tracker) IsWatched(id models.VideoID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.watched[id]
	return ok
}

// Pending reports whether a toggle of id is waiting on the server.
func (t *Tracker) Pending(id models.VideoID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending[id]
}

// Toggle flips the watched status of id and returns the resulting status.
//
// The local set changes first and the matching watch or unwatch request follows. If the request
// fails, a notice is sent and the set is rebuilt from a fresh server listing; if that listing also
// fails, only this toggle is undone. A second toggle of the same id while one is in flight is
// rejected with [shared.ErrRequestPending].
func (t *Tracker) Toggle(ctx context.Context, id models.VideoID) (bool, error) {
	if !id.Valid() {
		return false, fmt.Errorf("%w: video id %d", shared.ErrInvalidArgument, id)
	}

	t.mu.Lock()
	_, was := t.watched[id]
	if t.pending[id] {
		t.mu.Unlock()
		return was, fmt.Errorf("%w: video %d", shared.ErrRequestPending, id)
	}
	t.setLocked(id, !was)
	t.persistLocked()
	t.pending[id] = true
	t.mu.Unlock()

	var err error
	if was {
		err = t.api.MarkUnwatched(ctx, id)
	} else {
		err = t.api.MarkWatched(ctx, id)
	}

	t.mu.Lock()
	delete(t.pending, id)
	t.mu.Unlock()

	if err == nil {
		return !was, nil
	}

	t.notify(LevelError, fmt.Sprintf("Failed to update video %d", id), err)
	t.reconcile(ctx, id, was)
	return t.IsWatched(id), fmt.Errorf("failed to update video %d: %w", id, err)
}

// reconcile rebuilds the set from the server, or restores id to was when the server cannot be read.
func (t *Tracker) reconcile(ctx context.Context, id models.VideoID, was bool) {
	videos, err := t.api.Videos(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil || t.unpushed {
		t.logger.Warn("Reverting toggle", "video", id, "error", err, "unpushed_import", t.unpushed)
		t.setLocked(id, was)
		t.persistLocked()
		return
	}
	t.seedLocked(videos)
}

// Reset asks the server to clear every watched flag and, on success, empties the local set.
//
// Returns the number of videos the server reset. On failure nothing changes locally.
func (t *Tracker) Reset(ctx context.Context) (int, error) {
	count, err := t.api.ResetProgress(ctx)
	if err != nil {
		t.notify(LevelError, "Failed to reset progress", err)
		return 0, fmt.Errorf("failed to reset progress: %w", err)
	}

	t.mu.Lock()
	t.watched = make(map[models.VideoID]struct{})
	t.persistLocked()
	t.setUnpushedLocked(false)
	t.mu.Unlock()

	t.notify(LevelInfo, fmt.Sprintf("Reset progress for %d videos", count), nil)
	return count, nil
}

// WatchedIDs returns the watched-set in ascending order.
func (t *Tracker) WatchedIDs() []models.VideoID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.idsLocked()
}

// Count returns the size of the watched-set.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.watched)
}

// Summary counts watched videos among the distinct valid ids in videos.
func (t *Tracker) Summary(videos []models.Video) models.ProgressSummary {
	return catalog.Summary(videos, t.IsWatched)
}

// Export serializes the watched-set as a JSON array of ids in ascending order.
func (t *Tracker) Export() (string, error) {
	data, err := json.Marshal(t.WatchedIDs())
	if err != nil {
		return "", fmt.Errorf("failed to export progress: %w", err)
	}
	return string(data), nil
}

// Import replaces the watched-set with the ids in a JSON array.
//
// Elements may be numbers or numeric strings. Anything else, or a payload that is not an array,
// fails with [shared.ErrInvalidImport] and leaves the set unchanged. The server is not updated;
// the set is marked unpushed until [Tracker.ConfirmPush].
func (t *Tracker) Import(payload string) error {
	ids, err := ParseIDs(payload)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.watched = make(map[models.VideoID]struct{}, len(ids))
	for _, id := range ids {
		t.watched[id] = struct{}{}
	}
	t.persistLocked()
	t.setUnpushedLocked(true)
	return nil
}

// Unpushed reports whether the watched-set came from an import the server has not received yet.
func (t *Tracker) Unpushed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unpushed
}

// ConfirmPush records that the watched-set reached the server, so the next
// [Tracker.Initialize] follows the server's flags again.
func (t *Tracker) ConfirmPush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setUnpushedLocked(false)
}

// ParseIDs parses a JSON array of video ids, rejecting anything that is not a positive integer.
func ParseIDs(payload string) ([]models.VideoID, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON array of video ids: %v", shared.ErrInvalidImport, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected a JSON array of video ids", shared.ErrInvalidImport)
	}

	ids := make([]models.VideoID, 0, len(raw))
	for i, elem := range raw {
		var id models.VideoID
		if err := id.UnmarshalJSON(elem); err != nil || !id.Valid() {
			return nil, fmt.Errorf("%w: element %d (%s) is not a video id", shared.ErrInvalidImport, i, elem)
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (t *Tracker) setLocked(id models.VideoID, watched bool) {
	if watched {
		t.watched[id] = struct{}{}
	} else {
		delete(t.watched, id)
	}
}

func (t *Tracker) idsLocked() []models.VideoID {
	ids := make([]models.VideoID, 0, len(t.watched))
	for id := range t.watched {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (t *Tracker) persistLocked() {
	if t.state == nil {
		return
	}
	if err := t.state.Save(shared.KeyWatchedVideos, t.idsLocked()); err != nil {
		t.logger.Error("Failed to persist watched-set", "error", err)
	}
}

func (t *Tracker) setUnpushedLocked(v bool) {
	t.unpushed = v
	if t.state == nil {
		return
	}
	if err := t.state.Save(shared.KeyUnpushedImport, v); err != nil {
		t.logger.Error("Failed to persist import marker", "error", err)
	}
}

func (t *Tracker) notify(level Level, msg string, err error) {
	t.notifier.Notify(Notice{Level: level, Message: msg, Err: err})
}
