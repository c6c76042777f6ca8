package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/services"
	"github.com/desertthunder/ptt/internal/shared"
	tu "github.com/desertthunder/ptt/internal/testing"
)

// Mock API client for testing
type mockAPIClient struct {
	responses map[string]*services.APIResponse
	getErr    error
}

func (m *mockAPIClient) Get(ctx context.Context, path string) (*services.APIResponse, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if resp, ok := m.responses[path]; ok {
		return resp, nil
	}
	return &services.APIResponse{
		StatusCode: 404,
		Body:       []byte("not found"),
	}, nil
}

// flakyAPI fails watch requests for selected ids.
type flakyAPI struct {
	*tu.FakeAPI
	failing map[models.VideoID]bool
}

func (f *flakyAPI) MarkWatched(ctx context.Context, id models.VideoID) error {
	if f.failing[id] {
		return fmt.Errorf("video %d: %w", id, tu.ErrFakeAPI)
	}
	return f.FakeAPI.MarkWatched(ctx, id)
}

func pushVideos() []models.Video {
	return []models.Video{
		{ID: 1, Title: "One", Watched: true},
		{ID: 2, Title: "Two"},
		{ID: 3, Title: "Three", Watched: true},
		{ID: 4, Title: "Four"},
		{ID: 0, Title: "Broken"},
	}
}

func collect(ch chan ProgressUpdate) (func() []ProgressUpdate, chan<- ProgressUpdate) {
	updates := []ProgressUpdate{}
	done := make(chan bool)
	go func() {
		for update := range ch {
			updates = append(updates, update)
		}
		done <- true
	}()
	return func() []ProgressUpdate {
		close(ch)
		<-done
		return updates
	}, ch
}

func TestPlanPush(t *testing.T) {
	tests := []struct {
		name      string
		watched   []models.VideoID
		mirror    bool
		mark      []models.VideoID
		unmark    []models.VideoID
		skipped   []models.VideoID
		unchanged int
	}{
		{
			name:      "marks local only",
			watched:   []models.VideoID{1, 2, 4},
			mark:      []models.VideoID{2, 4},
			unchanged: 2,
		},
		{
			name:      "mirror unmarks server only",
			watched:   []models.VideoID{1, 2},
			mirror:    true,
			mark:      []models.VideoID{2},
			unmark:    []models.VideoID{3},
			unchanged: 2,
		},
		{
			name:      "unknown ids are skipped",
			watched:   []models.VideoID{1, 99, 0},
			skipped:   []models.VideoID{99},
			unchanged: 4,
		},
		{
			name:      "empty local set without mirror changes nothing",
			unchanged: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := planPush(pushVideos(), tt.watched, tt.mirror)
			if !slices.Equal(plan.mark, tt.mark) {
				t.Errorf("mark = %v, want %v", plan.mark, tt.mark)
			}
			if !slices.Equal(plan.unmark, tt.unmark) {
				t.Errorf("unmark = %v, want %v", plan.unmark, tt.unmark)
			}
			if !slices.Equal(plan.skipped, tt.skipped) {
				t.Errorf("skipped = %v, want %v", plan.skipped, tt.skipped)
			}
			if plan.unchanged != tt.unchanged {
				t.Errorf("unchanged = %d, want %d", plan.unchanged, tt.unchanged)
			}
		})
	}
}

func TestProgressEngine_Push(t *testing.T) {
	fast := PushOpts{NumWorkers: 2, RateLimit: 1000}

	t.Run("Marks Missing Videos", func(t *testing.T) {
		api := tu.NewFakeAPI(pushVideos(), nil)
		engine := NewProgressEngine(api, nil)
		finish, progressCh := collect(make(chan ProgressUpdate, 100))

		result, err := engine.Push(context.Background(), progressCh, []models.VideoID{1, 2, 4, 42}, fast)
		updates := finish()

		if err != nil {
			t.Fatalf("Push() error = %v", err)
		}
		if result.Total != 2 || !slices.Equal(result.Marked, []models.VideoID{2, 4}) {
			t.Errorf("unexpected result: %+v", result)
		}
		if !slices.Equal(result.Skipped, []models.VideoID{42}) {
			t.Errorf("Skipped = %v, want [42]", result.Skipped)
		}
		if !api.WatchedOnServer(2) || !api.WatchedOnServer(4) || !api.WatchedOnServer(3) {
			t.Error("server flags not updated as expected")
		}
		if api.CallCount("MarkUnwatched") != 0 {
			t.Error("no unwatch requests expected without mirror")
		}

		phases := make(map[Phase]bool)
		for _, update := range updates {
			phases[update.Phase] = true
		}
		for _, p := range []Phase{FetchVideos, Compare, PushProgress} {
			if !phases[p] {
				t.Errorf("expected %s phase in progress updates", p)
			}
		}
	})

	t.Run("Mirror", func(t *testing.T) {
		api := tu.NewFakeAPI(pushVideos(), nil)
		opts := fast
		opts.Mirror = true

		result, err := NewProgressEngine(api, nil).Push(context.Background(), nil, []models.VideoID{2}, opts)
		if err != nil {
			t.Fatalf("Push() error = %v", err)
		}
		if !slices.Equal(result.Unmarked, []models.VideoID{1, 3}) || !slices.Equal(result.Marked, []models.VideoID{2}) {
			t.Errorf("unexpected result: %+v", result)
		}
		if api.WatchedOnServer(1) || api.WatchedOnServer(3) || !api.WatchedOnServer(2) {
			t.Error("server should mirror the local set")
		}
	})

	t.Run("Dry Run", func(t *testing.T) {
		api := tu.NewFakeAPI(pushVideos(), nil)
		opts := fast
		opts.DryRun = true

		result, err := NewProgressEngine(api, nil).Push(context.Background(), nil, []models.VideoID{2}, opts)
		if err != nil {
			t.Fatalf("Push() error = %v", err)
		}
		if result.Total != 1 || len(result.Marked) != 0 {
			t.Errorf("unexpected result: %+v", result)
		}
		if api.CallCount("MarkWatched") != 0 {
			t.Error("dry run should not send requests")
		}
	})

	t.Run("Partial Failures", func(t *testing.T) {
		api := &flakyAPI{FakeAPI: tu.NewFakeAPI(pushVideos(), nil), failing: map[models.VideoID]bool{4: true}}

		result, err := NewProgressEngine(api, nil).Push(context.Background(), nil, []models.VideoID{2, 4}, fast)
		if err != nil {
			t.Fatalf("Push() error = %v", err)
		}
		if !slices.Equal(result.Marked, []models.VideoID{2}) {
			t.Errorf("Marked = %v, want [2]", result.Marked)
		}
		if len(result.Failed) != 1 || result.Failed[0].ID != 4 || !errors.Is(result.Failed[0].Error, tu.ErrFakeAPI) {
			t.Errorf("unexpected failures: %+v", result.Failed)
		}
	})

	t.Run("Fetch Failure", func(t *testing.T) {
		api := tu.NewFakeAPI(pushVideos(), nil)
		api.FailVideos = true

		if _, err := NewProgressEngine(api, nil).Push(context.Background(), nil, []models.VideoID{2}, fast); !errors.Is(err, tu.ErrFakeAPI) {
			t.Errorf("expected fetch error, got %v", err)
		}
	})

	t.Run("Nothing To Do", func(t *testing.T) {
		api := tu.NewFakeAPI(pushVideos(), nil)
		result, err := NewProgressEngine(api, nil).Push(context.Background(), nil, []models.VideoID{1, 3}, fast)
		if err != nil || result.Total != 0 || result.Unchanged != 4 {
			t.Errorf("unexpected result %+v, %v", result, err)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		api := tu.NewFakeAPI(pushVideos(), nil)
		ctx, cancel := context.WithCancel(context.Background())
		engine := NewProgressEngine(api, nil)

		// Fetch succeeds on the fake regardless of ctx; scheduling stops once cancelled.
		cancel()
		result, err := engine.Push(ctx, nil, []models.VideoID{2, 4}, PushOpts{NumWorkers: 1, RateLimit: 0.001})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if result == nil || len(result.Marked) != 0 {
			t.Errorf("expected empty partial result, got %+v", result)
		}
	})

	t.Run("Nil API", func(t *testing.T) {
		if _, err := NewProgressEngine(nil, nil).Push(context.Background(), nil, nil, fast); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Rate Limited", func(t *testing.T) {
		api := tu.NewFakeAPI(pushVideos(), nil)
		start := time.Now()
		_, err := NewProgressEngine(api, nil).Push(context.Background(), nil, []models.VideoID{2, 4}, PushOpts{NumWorkers: 2, RateLimit: 10})
		if err != nil {
			t.Fatalf("Push() error = %v", err)
		}
		if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
			t.Errorf("expected the second request to wait on the limiter, took %v", elapsed)
		}
	})
}

func TestProgressEngine_Dump(t *testing.T) {
	apiClient := &mockAPIClient{
		responses: map[string]*services.APIResponse{
			"/videos": {
				StatusCode: 200,
				IsJSON:     true,
				JSONData:   []any{map[string]any{"video_id": 1.0}},
			},
			"/categories": {
				StatusCode: 200,
				IsJSON:     true,
				JSONData:   []string{"Preflop", "ICM"},
			},
			"/tags": {
				StatusCode: 500,
				Body:       []byte("internal error"),
			},
		},
	}

	engine := NewProgressEngine(nil, apiClient)
	finish, progressCh := collect(make(chan ProgressUpdate, 100))

	result, err := engine.Dump(context.Background(), progressCh)
	updates := finish()

	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if result.Videos == nil || result.Categories == nil {
		t.Error("Dump() videos and categories should not be nil")
	}
	if len(result.Errors) != 2 {
		t.Errorf("Dump() should have errors for /tags and /youtubers, got %v", result.Errors)
	}
	if len(updates) != 4 {
		t.Errorf("Dump() should send one update per endpoint, got %d", len(updates))
	}

	data := result.Data()
	if len(data.Errors) != 2 || data.Errors[0] != "/tags: status 500" {
		t.Errorf("unexpected serialized errors: %v", data.Errors)
	}
}

func TestProgressEngine_Dump_APIClientError(t *testing.T) {
	t.Run("nil client", func(t *testing.T) {
		_, err := NewProgressEngine(nil, nil).Dump(context.Background(), nil)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("Dump() expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("transport errors are collected", func(t *testing.T) {
		result, err := NewProgressEngine(nil, &mockAPIClient{getErr: errors.New("connection refused")}).Dump(context.Background(), nil)
		if err != nil {
			t.Fatalf("Dump() error = %v", err)
		}
		if len(result.Errors) != 4 {
			t.Errorf("expected 4 endpoint errors, got %d", len(result.Errors))
		}
	})
}

func TestProgressUpdate_NonBlocking(t *testing.T) {
	engine := NewProgressEngine(tu.NewFakeAPI(pushVideos(), nil), nil)

	// Unbuffered and never read
	progressCh := make(chan ProgressUpdate)

	done := make(chan error)
	go func() {
		_, err := engine.Push(context.Background(), progressCh, []models.VideoID{2}, PushOpts{RateLimit: 1000})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Push() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("Push() should not block on progress sends")
	}
}

func TestPhaseString(t *testing.T) {
	for p := FetchVideos; p <= ExportCategory; p++ {
		if p.String() == "" {
			t.Errorf("phase %d has no name", p)
		}
	}
	if Phase(99).String() != "" {
		t.Error("unknown phase should have an empty name")
	}
}
