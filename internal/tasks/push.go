package tasks

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/shared"
	"golang.org/x/time/rate"
)

// PushOpts contains configuration for pushing local progress to the server.
type PushOpts struct {
	Mirror     bool    // Also unmark server-watched videos missing from the local set
	DryRun     bool    // Compute the plan without sending requests
	NumWorkers int     // Concurrent workers (default: 4)
	RateLimit  float64 // Requests per second (default: 5)
}

// PushFailure records a request that failed during a push.
type PushFailure struct {
	ID      models.VideoID
	Watched bool
	Error   error
}

// PushResult summarizes a push.
type PushResult struct {
	Total     int              // Requests planned
	Unchanged int              // Videos whose server flag already matched
	Marked    []models.VideoID // Videos marked watched
	Unmarked  []models.VideoID // Videos marked unwatched
	Skipped   []models.VideoID // Local ids the server does not know
	Failed    []PushFailure
}

type pushPlan struct {
	mark      []models.VideoID
	unmark    []models.VideoID
	skipped   []models.VideoID
	unchanged int
}

type pushJob struct {
	id      models.VideoID
	watched bool
}

type pushOutcome struct {
	job pushJob
	err error
}

// planPush compares the local watched-set with the server's flags.
func planPush(videos []models.Video, watched []models.VideoID, mirror bool) *pushPlan {
	local := make(map[models.VideoID]bool, len(watched))
	for _, id := range watched {
		if id.Valid() {
			local[id] = true
		}
	}

	plan := &pushPlan{}
	known := make(map[models.VideoID]bool, len(videos))
	for _, v := range videos {
		if !v.ID.Valid() || known[v.ID] {
			continue
		}
		known[v.ID] = true

		switch {
		case local[v.ID] && !v.Watched:
			plan.mark = append(plan.mark, v.ID)
		case !local[v.ID] && v.Watched && mirror:
			plan.unmark = append(plan.unmark, v.ID)
		default:
			plan.unchanged++
		}
	}

	for id := range local {
		if !known[id] {
			plan.skipped = append(plan.skipped, id)
		}
	}

	slices.Sort(plan.mark)
	slices.Sort(plan.unmark)
	slices.Sort(plan.skipped)
	return plan
}

// Push sends the local watched-set to the server.
//
// Requests run on a worker pool behind a rate limiter; individual failures are collected in the
// result rather than aborting the push. A cancelled context stops scheduling new requests and the
// partial result is returned with the context error.
func (e *ProgressEngine) Push(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	watched []models.VideoID,
	opts PushOpts,
) (*PushResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: API not initialized", shared.ErrServiceUnavailable)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	e.sendProgress(prog, fetchingVideosUpdate(1, 1))
	videos, err := e.api.Videos(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch videos: %w", err)
	}

	plan := planPush(videos, watched, opts.Mirror)
	e.sendProgress(prog, compareUpdate(1, 1, plan))

	jobList := make([]pushJob, 0, len(plan.mark)+len(plan.unmark))
	for _, id := range plan.mark {
		jobList = append(jobList, pushJob{id: id, watched: true})
	}
	for _, id := range plan.unmark {
		jobList = append(jobList, pushJob{id: id, watched: false})
	}

	result := &PushResult{
		Total:     len(jobList),
		Unchanged: plan.unchanged,
		Skipped:   plan.skipped,
		Marked:    []models.VideoID{},
		Unmarked:  []models.VideoID{},
	}
	if opts.DryRun || len(jobList) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan pushJob, len(jobList))
	outcomes := make(chan pushOutcome, len(jobList))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.pushWorker(ctx, &wg, jobs, outcomes)
	}

	go func() {
		defer close(jobs)
		e.sendProgress(prog, pushStartedUpdate(len(jobList)))
		for _, job := range jobList {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- job
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	completed := 0
	for out := range outcomes {
		completed++
		if out.err != nil {
			result.Failed = append(result.Failed, PushFailure{ID: out.job.id, Watched: out.job.watched, Error: out.err})
			e.sendProgress(prog, pushFailedUpdate(completed, len(jobList), out.job.id, out.err))
			continue
		}

		if out.job.watched {
			result.Marked = append(result.Marked, out.job.id)
		} else {
			result.Unmarked = append(result.Unmarked, out.job.id)
		}
		e.sendProgress(prog, pushCompletedUpdate(completed, len(jobList), out.job.id, out.job.watched))
	}

	slices.Sort(result.Marked)
	slices.Sort(result.Unmarked)
	slices.SortFunc(result.Failed, func(a, b PushFailure) int { return int(a.ID - b.ID) })

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("push interrupted: %w", err)
	}
	return result, nil
}

// pushWorker sends watch and unwatch requests from the jobs channel.
func (e *ProgressEngine) pushWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan pushJob,
	outcomes chan<- pushOutcome,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var err error
		if job.watched {
			err = e.api.MarkWatched(ctx, job.id)
		} else {
			err = e.api.MarkUnwatched(ctx, job.id)
		}
		outcomes <- pushOutcome{job: job, err: err}
	}
}
