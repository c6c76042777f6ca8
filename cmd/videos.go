package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/ptt/internal/catalog"
	"github.com/desertthunder/ptt/internal/formatter"
	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/pagination"
	"github.com/desertthunder/ptt/internal/shared"
	"github.com/desertthunder/ptt/internal/tasks"
	"github.com/urfave/cli/v3"
)

const titleWidth = 48

func (r *Runner) pageSize(cmd *cli.Command) int {
	if limit := cmd.Int("limit"); limit > 0 {
		return limit
	}
	if r.config.UI.PageSize > 0 {
		return r.config.UI.PageSize
	}
	return pagination.DefaultPageSize
}

// VideosList prints one page of the selected creator's videos.
func (r *Runner) VideosList(ctx context.Context, cmd *cli.Command) error {
	tracker, err := r.tracker(nil)
	if err != nil {
		return err
	}
	videos, err := tracker.Initialize(ctx)
	if err != nil {
		return err
	}

	creatorID, err := r.creatorID(ctx, cmd)
	if err != nil {
		return err
	}
	store, err := r.categoryStore()
	if err != nil {
		return err
	}

	owned := catalog.FilterByCreator(videos, models.Ident(creatorID))
	title := "All videos"

	var selected []models.Video
	if name := cmd.String("category"); name != "" {
		m := catalog.BuildCategoryMap(owned, store.All(), creatorID)
		ids, ok := m[name]
		if !ok {
			return fmt.Errorf("%w: %s", shared.ErrCategoryNotFound, name)
		}
		selected = catalog.VideosIn(owned, ids)
		title = name
	} else {
		selected = slices.Clone(owned)
		catalog.SortBySequence(selected)
	}
	selected = catalog.Search(selected, cmd.String("search"))

	limit := r.pageSize(cmd)
	p := pagination.New(len(selected), limit)
	if n := cmd.Int("page"); n != 1 && !p.SetPage(n) {
		r.logger.Warn("page out of range, showing page 1", "page", n, "pages", p.TotalPages())
	}
	page := pagination.Slice(selected, p)

	if cmd.Bool("json") {
		return r.writeJSON(models.Page[models.Video]{
			Data:       page,
			Page:       p.Page(),
			Limit:      p.Size(),
			Total:      p.Total(),
			TotalPages: p.TotalPages(),
		}, true)
	}

	summary := tracker.Summary(selected)
	r.writePlainHeader(title)
	r.writePlain("%d/%d watched (%.0f%%) %s\n\n", summary.Watched, summary.Total, summary.Percent(), shared.ProgressBar(summary.Percent(), 20))

	if len(page) == 0 {
		r.writePlain("No videos found\n")
		return nil
	}

	for _, v := range page {
		mark := "○"
		if tracker.IsWatched(v.ID) {
			mark = "✓"
		}
		r.writePlain("%s %5d  #%-3d %-*s %s\n", mark, v.ID, v.Sequence, titleWidth, truncate(v.Title, titleWidth), shared.FormatDuration(v.Duration))
	}
	r.writePlainln("Page %d of %d", p.Page(), p.TotalPages())
	return nil
}

// VideosCategories prints per-category progress for the selected creator.
func (r *Runner) VideosCategories(ctx context.Context, cmd *cli.Command) error {
	tracker, err := r.tracker(nil)
	if err != nil {
		return err
	}
	videos, err := tracker.Initialize(ctx)
	if err != nil {
		return err
	}

	creatorID, err := r.creatorID(ctx, cmd)
	if err != nil {
		return err
	}
	store, err := r.categoryStore()
	if err != nil {
		return err
	}

	owned := catalog.FilterByCreator(videos, models.Ident(creatorID))
	userCats := store.All()
	summaries := catalog.Summarize(catalog.BuildCategoryMap(owned, userCats, creatorID), userCats, creatorID, tracker.IsWatched)

	if cmd.Bool("json") {
		return r.writeJSON(summaries, true)
	}

	r.writePlainHeader(fmt.Sprintf("Categories (%d)", len(summaries)))
	for _, c := range summaries {
		name := c.Name
		if c.UserDefined {
			name += " ★"
		}
		r.writePlain("%-32s %3d/%-3d %s %3.0f%%\n", truncate(name, 32), c.Watched, c.Total, shared.ProgressBar(c.Progress(), 20), c.Progress())
	}
	return nil
}

// VideosExport exports every video of one server category.
func (r *Runner) VideosExport(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.StringArg("category")
	if slug == "" {
		return fmt.Errorf("%w: category is required", shared.ErrMissingArgument)
	}

	tracker, err := r.tracker(nil)
	if err != nil {
		return err
	}
	if _, err := tracker.Initialize(ctx); err != nil {
		r.logger.Warn("using saved progress", "error", err)
	}

	var videos []models.Video
	for page := 1; ; page++ {
		res, err := r.service.VideosByCategory(ctx, slug, page, 50)
		if err != nil {
			return fmt.Errorf("failed to fetch category %s: %w", slug, err)
		}
		videos = append(videos, res.Data...)
		if page >= res.TotalPages {
			break
		}
	}

	name := slug
	for _, v := range videos {
		for _, c := range v.Categories {
			if c.Slug == slug || shared.SameName(c.Name, slug) {
				name = c.Name
			}
		}
	}

	export := formatter.NewCategoryExport(name, cmd.String("creator-name"), videos, tracker.IsWatched)
	format := cmd.String("format")

	dir := cmd.String("output")
	if dir == "" {
		data, err := formatter.Render(export, format)
		if err != nil {
			return err
		}
		r.output.Write(data)
		r.output.Write([]byte("\n"))
		return nil
	}

	files, err := formatter.WriteExport(export, format, dir, "")
	if err != nil {
		return err
	}
	r.logger.Info("exported category", "category", name, "files", len(files))
	for _, f := range files {
		r.writePlain("✓ %s\n", f)
	}
	return nil
}

// VideosExportAll exports every server category concurrently.
func (r *Runner) VideosExportAll(ctx context.Context, cmd *cli.Command) error {
	tracker, err := r.tracker(nil)
	if err != nil {
		return err
	}
	if _, err := tracker.Initialize(ctx); err != nil {
		r.logger.Warn("using saved progress", "error", err)
	}

	items, err := r.service.Categories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	slugs := make([]string, 0, len(items))
	for _, c := range items {
		slugs = append(slugs, c.Slug)
	}

	creator := ""
	if sel, err := r.loadCreators(ctx); err == nil {
		if c, ok := sel.Selected(); ok {
			creator = c.Name
		}
	}

	progressCh := make(chan tasks.ProgressUpdate, 10)
	done := r.reportProgress(progressCh)

	result, err := r.engine.BulkExport(ctx, progressCh, slugs, tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		Creator:    creator,
		NumWorkers: cmd.Int("workers"),
		RateLimit:  r.config.API.RateLimit,
		IsWatched:  tracker.IsWatched,
		Covers:     cmd.Bool("covers"),
	})
	close(progressCh)
	<-done

	if err != nil {
		return fmt.Errorf("bulk export failed: %w", err)
	}

	r.writePlainln("Exported %d/%d categories to %s", result.SuccessfulExports, result.TotalCategories, result.OutputDirectory)
	for _, res := range result.Results {
		if res.Error != nil {
			r.writePlain("✗ %s: %v\n", res.Name, res.Error)
		}
	}
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}
	return nil
}

// VideosOpen opens a video's URL in the browser.
func (r *Runner) VideosOpen(ctx context.Context, cmd *cli.Command) error {
	id, err := models.ParseVideoID(cmd.StringArg("id"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	if err := r.requireService(); err != nil {
		return err
	}

	videos, err := r.service.Videos(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch videos: %w", err)
	}

	idx := slices.IndexFunc(videos, func(v models.Video) bool { return v.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: %d", shared.ErrVideoNotFound, id)
	}
	video := videos[idx]
	if video.URL == "" {
		return fmt.Errorf("%w: video %d has no URL", shared.ErrInvalidInput, id)
	}

	r.logger.Info("opening video", "id", id, "url", video.URL)
	if err := r.open(video.URL); err != nil {
		return fmt.Errorf("failed to open %s: %w", video.URL, err)
	}
	r.writePlain("Opened %s\n", video.Title)
	return nil
}

// reportProgress prints engine updates until updates is closed. The returned channel closes when it finishes.
func (r *Runner) reportProgress(updates <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range updates {
			r.writePlain("[%d/%d] %s: %s\n", update.Step, update.Total, update.Phase, update.Message)
		}
	}()
	return done
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}
