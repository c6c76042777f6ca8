package progress

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/shared"
	tu "github.com/desertthunder/ptt/internal/testing"
)

type recorder struct {
	notices []Notice
}

func (r *recorder) Notify(n Notice) { r.notices = append(r.notices, n) }

func (r *recorder) errors() int {
	n := 0
	for _, notice := range r.notices {
		if notice.Level == LevelError {
			n++
		}
	}
	return n
}

func testVideos() []models.Video {
	return []models.Video{
		{ID: 1, Title: "One", Watched: true},
		{ID: 2, Title: "Two"},
		{ID: 3, Title: "Three", Watched: true},
		{ID: models.NoVideoID, Title: "Broken", Watched: true},
	}
}

func newTestTracker(api *tu.FakeAPI, state models.StateStore) (*Tracker, *recorder) {
	rec := &recorder{}
	t := NewTracker(api, state, Options{Logger: shared.NewLogger(&bytes.Buffer{}), Notifier: rec})
	return t, rec
}

func TestInitialize(t *testing.T) {
	t.Run("Seeds From Server Flags", func(t *testing.T) {
		state := tu.NewMemoryState()
		tracker, _ := newTestTracker(tu.NewFakeAPI(testVideos(), nil), state)

		videos, err := tracker.Initialize(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(videos) != 4 {
			t.Errorf("expected videos to be returned, got %d", len(videos))
		}
		if !slices.Equal(tracker.WatchedIDs(), []models.VideoID{1, 3}) {
			t.Errorf("expected watched [1 3], got %v", tracker.WatchedIDs())
		}
		if state.Raw(shared.KeyWatchedVideos) != "[1,3]" {
			t.Errorf("expected persisted [1,3], got %s", state.Raw(shared.KeyWatchedVideos))
		}
	})

	t.Run("Failure Keeps Cached Set", func(t *testing.T) {
		state := tu.NewMemoryState()
		state.Put(shared.KeyWatchedVideos, "[7]")
		api := tu.NewFakeAPI(testVideos(), nil)
		api.FailVideos = true

		tracker, rec := newTestTracker(api, state)
		if _, err := tracker.Initialize(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if !tracker.IsWatched(7) || tracker.Count() != 1 {
			t.Errorf("expected cached set [7], got %v", tracker.WatchedIDs())
		}
		if rec.errors() != 1 {
			t.Errorf("expected one error notice, got %d", rec.errors())
		}
	})

	t.Run("Failure On First Run Leaves Set Empty", func(t *testing.T) {
		api := tu.NewFakeAPI(testVideos(), nil)
		api.FailVideos = true

		tracker, _ := newTestTracker(api, tu.NewMemoryState())
		tracker.Initialize(context.Background())
		if tracker.Count() != 0 {
			t.Errorf("expected empty set, got %v", tracker.WatchedIDs())
		}
	})
}

func TestToggle(t *testing.T) {
	t.Run("Negates Status On Success", func(t *testing.T) {
		for _, id := range []models.VideoID{1, 2, 3} {
			api := tu.NewFakeAPI(testVideos(), nil)
			tracker, _ := newTestTracker(api, tu.NewMemoryState())
			tracker.Initialize(context.Background())

			before := tracker.IsWatched(id)
			got, err := tracker.Toggle(context.Background(), id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got == before || tracker.IsWatched(id) == before {
				t.Errorf("video %d: expected status %v after toggle, got %v", id, !before, tracker.IsWatched(id))
			}
			if api.WatchedOnServer(id) != !before {
				t.Errorf("video %d: expected server flag %v", id, !before)
			}
		}
	})

	t.Run("Sends Watch Or Unwatch", func(t *testing.T) {
		api := tu.NewFakeAPI(testVideos(), nil)
		tracker, _ := newTestTracker(api, tu.NewMemoryState())
		tracker.Initialize(context.Background())

		tracker.Toggle(context.Background(), 2)
		tracker.Toggle(context.Background(), 1)

		if api.CallCount("MarkWatched") != 1 || api.CallCount("MarkUnwatched") != 1 {
			t.Errorf("unexpected calls: %v", api.Calls)
		}
	})

	t.Run("Failure Reconciles From Server", func(t *testing.T) {
		api := tu.NewFakeAPI(testVideos(), nil)
		tracker, rec := newTestTracker(api, tu.NewMemoryState())
		tracker.Initialize(context.Background())

		// Another client marked video 2 watched in the meantime.
		api.SetWatched(2, true)
		api.FailToggle = true

		got, err := tracker.Toggle(context.Background(), 1)
		if err == nil {
			t.Fatal("expected error")
		}
		if !got || !tracker.IsWatched(1) {
			t.Error("failed unwatch should leave video 1 watched after reconcile")
		}
		if !tracker.IsWatched(2) {
			t.Error("reconcile should pick up server-side changes")
		}
		if rec.errors() != 1 {
			t.Errorf("expected one error notice, got %d", rec.errors())
		}
		if api.CallCount("Videos") != 2 {
			t.Errorf("expected a refetch after failure, got %v", api.Calls)
		}
	})

	t.Run("Failure Without Server Reverts Flip", func(t *testing.T) {
		state := tu.NewMemoryState()
		api := tu.NewFakeAPI(testVideos(), nil)
		tracker, _ := newTestTracker(api, state)
		tracker.Initialize(context.Background())

		api.FailToggle = true
		api.FailVideos = true

		got, err := tracker.Toggle(context.Background(), 2)
		if err == nil {
			t.Fatal("expected error")
		}
		if got || tracker.IsWatched(2) {
			t.Error("failed toggle should be reverted")
		}
		if !slices.Equal(tracker.WatchedIDs(), []models.VideoID{1, 3}) {
			t.Errorf("other entries should be untouched, got %v", tracker.WatchedIDs())
		}
		if state.Raw(shared.KeyWatchedVideos) != "[1,3]" {
			t.Errorf("expected reverted state persisted, got %s", state.Raw(shared.KeyWatchedVideos))
		}
	})

	t.Run("Invalid ID", func(t *testing.T) {
		api := tu.NewFakeAPI(testVideos(), nil)
		tracker, _ := newTestTracker(api, tu.NewMemoryState())

		if _, err := tracker.Toggle(context.Background(), models.NoVideoID); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if len(api.Calls) != 0 {
			t.Errorf("no request should be sent, got %v", api.Calls)
		}
	})

	t.Run("Rejects Duplicate In Flight", func(t *testing.T) {
		tracker, _ := newTestTracker(tu.NewFakeAPI(testVideos(), nil), tu.NewMemoryState())
		tracker.pending[2] = true

		if _, err := tracker.Toggle(context.Background(), 2); !errors.Is(err, shared.ErrRequestPending) {
			t.Errorf("expected ErrRequestPending, got %v", err)
		}
		if tracker.IsWatched(2) {
			t.Error("rejected toggle should not change state")
		}
	})
}

func TestReset(t *testing.T) {
	t.Run("Success Clears Set", func(t *testing.T) {
		state := tu.NewMemoryState()
		tracker, rec := newTestTracker(tu.NewFakeAPI(testVideos(), nil), state)
		tracker.Initialize(context.Background())

		count, err := tracker.Reset(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 3 {
			t.Errorf("expected server count 3, got %d", count)
		}
		if tracker.Count() != 0 || state.Raw(shared.KeyWatchedVideos) != "[]" {
			t.Errorf("expected empty set persisted, got %v / %s", tracker.WatchedIDs(), state.Raw(shared.KeyWatchedVideos))
		}
		if len(rec.notices) != 1 || rec.notices[0].Level != LevelInfo {
			t.Errorf("expected one info notice, got %+v", rec.notices)
		}
	})

	t.Run("Failure Leaves State", func(t *testing.T) {
		api := tu.NewFakeAPI(testVideos(), nil)
		tracker, rec := newTestTracker(api, tu.NewMemoryState())
		tracker.Initialize(context.Background())
		api.FailReset = true

		if _, err := tracker.Reset(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if !slices.Equal(tracker.WatchedIDs(), []models.VideoID{1, 3}) {
			t.Errorf("expected unchanged set, got %v", tracker.WatchedIDs())
		}
		if rec.errors() != 1 {
			t.Errorf("expected one error notice, got %d", rec.errors())
		}
	})
}

func TestExportImport(t *testing.T) {
	t.Run("Round Trip", func(t *testing.T) {
		tracker, _ := newTestTracker(tu.NewFakeAPI(testVideos(), nil), tu.NewMemoryState())
		tracker.Initialize(context.Background())

		exported, err := tracker.Export()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if exported != "[1,3]" {
			t.Errorf("expected [1,3], got %s", exported)
		}

		other, _ := newTestTracker(tu.NewFakeAPI(nil, nil), tu.NewMemoryState())
		if err := other.Import(exported); err != nil {
			t.Fatalf("unexpected import error: %v", err)
		}
		if !slices.Equal(other.WatchedIDs(), tracker.WatchedIDs()) {
			t.Errorf("expected %v, got %v", tracker.WatchedIDs(), other.WatchedIDs())
		}
	})

	t.Run("Empty Export", func(t *testing.T) {
		tracker, _ := newTestTracker(tu.NewFakeAPI(nil, nil), nil)
		if got, _ := tracker.Export(); got != "[]" {
			t.Errorf("expected [], got %s", got)
		}
	})

	t.Run("Accepts Numeric Strings", func(t *testing.T) {
		tracker, _ := newTestTracker(tu.NewFakeAPI(nil, nil), tu.NewMemoryState())
		if err := tracker.Import(`[5, "6", 5]`); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(tracker.WatchedIDs(), []models.VideoID{5, 6}) {
			t.Errorf("expected [5 6], got %v", tracker.WatchedIDs())
		}
	})

	t.Run("Rejects Invalid Payloads", func(t *testing.T) {
		for _, payload := range []string{`{}`, `null`, `"[1]"`, `not json`, `[1, "x"]`, `[1, true]`, `[0]`, `[{"id": 1}]`, `[-3]`} {
			tracker, _ := newTestTracker(tu.NewFakeAPI(nil, nil), tu.NewMemoryState())
			tracker.Import("[9]")

			err := tracker.Import(payload)
			if !errors.Is(err, shared.ErrInvalidImport) {
				t.Errorf("Import(%s): expected ErrInvalidImport, got %v", payload, err)
			}
			if !slices.Equal(tracker.WatchedIDs(), []models.VideoID{9}) {
				t.Errorf("Import(%s): expected set unchanged, got %v", payload, tracker.WatchedIDs())
			}
		}
	})

	t.Run("Import Does Not Touch Server", func(t *testing.T) {
		api := tu.NewFakeAPI(testVideos(), nil)
		tracker, _ := newTestTracker(api, tu.NewMemoryState())
		tracker.Import("[2]")
		if len(api.Calls) != 0 {
			t.Errorf("expected no API calls, got %v", api.Calls)
		}
	})
}

func TestUnpushedImport(t *testing.T) {
	t.Run("Initialize Keeps Imported Set", func(t *testing.T) {
		state := tu.NewMemoryState()
		tracker, rec := newTestTracker(tu.NewFakeAPI(testVideos(), nil), state)
		if err := tracker.Import("[2]"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := tracker.Initialize(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(tracker.WatchedIDs(), []models.VideoID{2}) {
			t.Errorf("expected imported [2] to survive, got %v", tracker.WatchedIDs())
		}
		if !tracker.Unpushed() {
			t.Error("expected import to be unpushed")
		}
		if len(rec.notices) != 1 || rec.notices[0].Level != LevelInfo {
			t.Errorf("expected one info notice, got %+v", rec.notices)
		}
	})

	t.Run("Marker Survives Restart", func(t *testing.T) {
		state := tu.NewMemoryState()
		first, _ := newTestTracker(tu.NewFakeAPI(testVideos(), nil), state)
		first.Import("[2]")

		second, _ := newTestTracker(tu.NewFakeAPI(testVideos(), nil), state)
		second.Initialize(context.Background())
		if !second.Unpushed() || !slices.Equal(second.WatchedIDs(), []models.VideoID{2}) {
			t.Errorf("expected unpushed [2] after reload, got %v (unpushed=%v)", second.WatchedIDs(), second.Unpushed())
		}
	})

	t.Run("ConfirmPush Follows Server Again", func(t *testing.T) {
		state := tu.NewMemoryState()
		tracker, _ := newTestTracker(tu.NewFakeAPI(testVideos(), nil), state)
		tracker.Import("[2]")
		tracker.ConfirmPush()

		tracker.Initialize(context.Background())
		if tracker.Unpushed() {
			t.Error("expected marker to be cleared")
		}
		if !slices.Equal(tracker.WatchedIDs(), []models.VideoID{1, 3}) {
			t.Errorf("expected server flags [1 3], got %v", tracker.WatchedIDs())
		}
		if state.Raw(shared.KeyUnpushedImport) != "false" {
			t.Errorf("expected persisted false marker, got %s", state.Raw(shared.KeyUnpushedImport))
		}
	})

	t.Run("Failed Toggle Reverts Instead Of Reseeding", func(t *testing.T) {
		api := tu.NewFakeAPI(testVideos(), nil)
		tracker, _ := newTestTracker(api, tu.NewMemoryState())
		tracker.Import("[2]")
		api.FailToggle = true

		if _, err := tracker.Toggle(context.Background(), 3); err == nil {
			t.Fatal("expected toggle error")
		}
		if !slices.Equal(tracker.WatchedIDs(), []models.VideoID{2}) {
			t.Errorf("expected imported [2] unchanged, got %v", tracker.WatchedIDs())
		}
	})

	t.Run("Reset Clears Marker", func(t *testing.T) {
		tracker, _ := newTestTracker(tu.NewFakeAPI(testVideos(), nil), tu.NewMemoryState())
		tracker.Import("[2]")

		if _, err := tracker.Reset(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tracker.Unpushed() {
			t.Error("expected reset to clear the marker")
		}
	})
}

func TestPersistence(t *testing.T) {
	t.Run("Restores Saved Set", func(t *testing.T) {
		state := tu.NewMemoryState()
		state.Put(shared.KeyWatchedVideos, `[4, "5", 0]`)

		tracker, _ := newTestTracker(tu.NewFakeAPI(nil, nil), state)
		if !slices.Equal(tracker.WatchedIDs(), []models.VideoID{4, 5}) {
			t.Errorf("expected [4 5], got %v", tracker.WatchedIDs())
		}
	})

	t.Run("Save Failure Is Logged Not Returned", func(t *testing.T) {
		var buf bytes.Buffer
		state := tu.NewMemoryState()
		state.SaveErr = errors.New("disk full")

		tracker := NewTracker(tu.NewFakeAPI(testVideos(), nil), state, Options{Logger: shared.NewLogger(&buf), Notifier: &recorder{}})
		if err := tracker.Import("[1]"); err != nil {
			t.Fatalf("persistence failure should not surface: %v", err)
		}
		if !strings.Contains(buf.String(), "disk full") {
			t.Errorf("expected logged persistence error, got %q", buf.String())
		}
	})
}

func TestSummary(t *testing.T) {
	tracker, _ := newTestTracker(tu.NewFakeAPI(testVideos(), nil), nil)
	videos, _ := tracker.Initialize(context.Background())

	s := tracker.Summary(videos)
	if s.Total != 3 || s.Watched != 2 {
		t.Errorf("expected 2/3, got %d/%d", s.Watched, s.Total)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Logger: shared.NewLogger(&buf)}

	n.Notify(Notice{Level: LevelError, Message: "Failed to update video 3", Err: errors.New("boom")})
	n.Notify(Notice{Level: LevelInfo, Message: "Reset progress for 2 videos"})

	out := buf.String()
	if !strings.Contains(out, "Failed to update video 3") || !strings.Contains(out, "boom") || !strings.Contains(out, "Reset progress") {
		t.Errorf("unexpected log output: %q", out)
	}

	LogNotifier{}.Notify(Notice{Message: "ignored"})
}
