package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/desertthunder/ptt/internal/catalog"
	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/progress"
	"github.com/desertthunder/ptt/internal/shared"
	"github.com/desertthunder/ptt/internal/tasks"
	"github.com/urfave/cli/v3"
)

type creatorProgress struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Watched int     `json:"watched"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

type progressStatus struct {
	Watched  int               `json:"watched"`
	Total    int               `json:"total"`
	Percent  float64           `json:"percent"`
	Selected string            `json:"selected,omitempty"`
	Unpushed bool              `json:"unpushed_import"`
	Creators []creatorProgress `json:"creators"`
}

// ProgressStatus prints overall and per-creator progress.
func (r *Runner) ProgressStatus(ctx context.Context, cmd *cli.Command) error {
	tracker, err := r.tracker(nil)
	if err != nil {
		return err
	}
	videos, err := tracker.Initialize(ctx)
	if err != nil {
		return err
	}
	sel, err := r.loadCreators(ctx)
	if err != nil {
		return err
	}

	overall := tracker.Summary(videos)
	status := progressStatus{
		Watched:  overall.Watched,
		Total:    overall.Total,
		Percent:  overall.Percent(),
		Selected: sel.SelectedID(),
		Unpushed: tracker.Unpushed(),
		Creators: []creatorProgress{},
	}
	for _, c := range sel.Creators() {
		s := tracker.Summary(catalog.FilterByCreator(videos, c.ID))
		status.Creators = append(status.Creators, creatorProgress{
			ID:      c.ID.String(),
			Name:    c.Name,
			Watched: s.Watched,
			Total:   s.Total,
			Percent: s.Percent(),
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlainHeader("Progress")
	r.writePlain("Overall: %d/%d watched (%.0f%%) %s\n\n", status.Watched, status.Total, status.Percent, shared.ProgressBar(status.Percent, 20))
	for _, c := range status.Creators {
		marker := " "
		if c.ID == status.Selected {
			marker = "▸"
		}
		r.writePlain("%s %-28s %3d/%-3d %s %3.0f%%\n", marker, truncate(c.Name, 28), c.Watched, c.Total, shared.ProgressBar(c.Percent, 20), c.Percent)
	}
	if status.Unpushed {
		r.writePlainln("Imported progress is not on the server yet. Run 'ptt progress push' to send it")
	}
	return nil
}

// ProgressToggle flips the watched flag of one video.
func (r *Runner) ProgressToggle(ctx context.Context, cmd *cli.Command) error {
	id, err := models.ParseVideoID(cmd.StringArg("id"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	tracker, err := r.tracker(progress.LogNotifier{Logger: r.logger})
	if err != nil {
		return err
	}
	videos, err := tracker.Initialize(ctx)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(videos, func(v models.Video) bool { return v.ID == id }) {
		return fmt.Errorf("%w: %d", shared.ErrVideoNotFound, id)
	}

	watched, err := tracker.Toggle(ctx, id)
	if err != nil {
		return err
	}

	if watched {
		r.writePlain("✓ Marked video %d as watched\n", id)
	} else {
		r.writePlain("○ Marked video %d as unwatched\n", id)
	}
	return nil
}

// ProgressReset clears every watched flag after confirmation.
func (r *Runner) ProgressReset(ctx context.Context, cmd *cli.Command) error {
	tracker, err := r.tracker(progress.LogNotifier{Logger: r.logger})
	if err != nil {
		return err
	}
	if _, err := tracker.Initialize(ctx); err != nil {
		return err
	}

	if !cmd.Bool("yes") {
		r.writePlain("%d videos are marked as watched. Reset all progress? [y/N] ", tracker.Count())
		line, err := bufio.NewReader(r.input).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			r.writePlain("Cancelled\n")
			return nil
		}
	}

	count, err := tracker.Reset(ctx)
	if err != nil {
		return err
	}
	r.writePlain("✓ Reset progress for %d videos\n", count)
	return nil
}

// ProgressExport prints the watched-set as a JSON array.
func (r *Runner) ProgressExport(ctx context.Context, cmd *cli.Command) error {
	tracker, err := r.tracker(nil)
	if err != nil {
		return err
	}
	if _, err := tracker.Initialize(ctx); err != nil {
		r.logger.Warn("exporting saved progress", "error", err)
	}

	payload, err := tracker.Export()
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := os.WriteFile(path, []byte(payload+"\n"), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		r.writePlain("✓ Exported %d ids to %s\n", tracker.Count(), path)
		return nil
	}

	if cmd.Bool("clipboard") {
		if err := r.copy(payload); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		r.writePlain("✓ Copied %d ids to the clipboard\n", tracker.Count())
		return nil
	}

	return r.writePlain("%s\n", payload)
}

// ProgressImport replaces the local watched-set from a file or stdin. The server is not updated.
func (r *Runner) ProgressImport(ctx context.Context, cmd *cli.Command) error {
	file := cmd.StringArg("file")
	if file == "" {
		return fmt.Errorf("%w: file is required (use - for stdin)", shared.ErrMissingArgument)
	}

	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(r.input)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	tracker, err := r.tracker(nil)
	if err != nil {
		return err
	}
	if err := tracker.Import(string(data)); err != nil {
		return err
	}

	r.writePlain("✓ Imported %d watched videos\n", tracker.Count())
	r.writePlain("Run 'ptt progress push' to send them to the server\n")
	return nil
}

// ProgressPush sends the local watched-set to the server.
func (r *Runner) ProgressPush(ctx context.Context, cmd *cli.Command) error {
	tracker, err := r.tracker(nil)
	if err != nil {
		return err
	}

	workers := cmd.Int("workers")
	if workers <= 0 {
		workers = r.config.API.PushWorkers
	}

	progressCh := make(chan tasks.ProgressUpdate, 10)
	done := r.reportProgress(progressCh)

	result, err := r.engine.Push(ctx, progressCh, tracker.WatchedIDs(), tasks.PushOpts{
		Mirror:     cmd.Bool("mirror"),
		DryRun:     cmd.Bool("dry-run"),
		NumWorkers: workers,
		RateLimit:  r.config.API.RateLimit,
	})
	close(progressCh)
	<-done

	if err != nil {
		return fmt.Errorf("push failed: %w", err)
	}

	if cmd.Bool("dry-run") {
		r.writePlainln("Would send %d requests, %d videos unchanged", result.Total, result.Unchanged)
	} else {
		r.writePlainln("Pushed %d changes: %d marked, %d unmarked, %d unchanged", result.Total, len(result.Marked), len(result.Unmarked), result.Unchanged)
	}
	if len(result.Skipped) > 0 {
		r.writePlain("Skipped %d ids unknown to the server\n", len(result.Skipped))
	}
	for _, f := range result.Failed {
		r.writePlain("✗ video %d: %v\n", f.ID, f.Error)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%w: %d of %d requests failed", shared.ErrAPIRequest, len(result.Failed), result.Total)
	}
	if !cmd.Bool("dry-run") {
		tracker.ConfirmPush()
	}
	return nil
}
