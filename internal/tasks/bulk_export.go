package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/ptt/internal/formatter"
	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk category exports.
type BulkExportOpts struct {
	Format     string                    // Export format: json, csv, markdown, txt
	OutputDir  string                    // Base output directory (default: ptt_export_{epoch})
	Creator    string                    // Creator name written into each export
	NumWorkers int                       // Concurrent workers (default: 5)
	RateLimit  float64                   // Requests per second (default: 5)
	PageSize   int                       // Listing page size (default: 50)
	IsWatched  func(models.VideoID) bool // Watched lookup; defaults to the server's flag
	Covers     bool                      // Download the first thumbnail for markdown exports
}

// CategoryExportJob is a fetched category waiting to be written.
type CategoryExportJob struct {
	Slug   string
	Export *formatter.CategoryExport
}

// CategoryExportResult is the outcome of exporting one category.
type CategoryExportResult struct {
	Slug    string
	Name    string
	Success bool
	Files   []string
	Error   error
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	TotalCategories   int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []CategoryExportResult
}

// BulkExport exports multiple categories concurrently with rate limiting and progress tracking.
//
// Listings are fetched one at a time under the rate limit and handed to a worker pool that writes the files.
// Partial failures are recorded per category and an export_manifest.json summarizes the run.
func (e *ProgressEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	slugs []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: API not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("ptt_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalCategories: len(slugs),
		OutputDirectory: opts.OutputDir,
		Results:         make([]CategoryExportResult, 0, len(slugs)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan CategoryExportJob, len(slugs))
	results := make(chan CategoryExportResult, len(slugs))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		e.sendProgress(prog, fetchingCategoriesUpdate(1, len(slugs)))
		for i, slug := range slugs {
			select {
			case <-ctx.Done():
				return
			default:
			}

			videos, err := e.fetchCategory(ctx, limiter, slug, opts.PageSize)
			if err != nil {
				results <- CategoryExportResult{
					Slug:  slug,
					Name:  slug,
					Error: fmt.Errorf("failed to fetch category: %w", err),
				}
				continue
			}

			isWatched := opts.IsWatched
			if isWatched == nil {
				flags := make(map[models.VideoID]bool, len(videos))
				for _, v := range videos {
					flags[v.ID] = v.Watched
				}
				isWatched = func(id models.VideoID) bool { return flags[id] }
			}

			name := categoryName(videos, slug)
			jobs <- CategoryExportJob{
				Slug:   slug,
				Export: formatter.NewCategoryExport(name, opts.Creator, videos, isWatched),
			}

			e.sendProgress(prog, exportingCategoryUpdate(i+1, len(slugs), name))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(slugs), res.Name, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(slugs), res.Name, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(result.Manifest(opts), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// Manifest converts the result into the manifest written alongside the exports.
func (r *BulkExportResult) Manifest(opts BulkExportOpts) formatter.Manifest {
	m := formatter.Manifest{
		Format:     opts.Format,
		Creator:    opts.Creator,
		Total:      r.TotalCategories,
		Successful: r.SuccessfulExports,
		Failed:     r.FailedExports,
		Categories: make([]formatter.ManifestEntry, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		entry := formatter.ManifestEntry{Category: res.Name, Status: "success", Files: res.Files}
		if !res.Success {
			entry.Status = "failed"
			if res.Error != nil {
				entry.Error = res.Error.Error()
			}
		}
		m.Categories = append(m.Categories, entry)
	}
	return m
}

// fetchCategory reads every page of a category listing, waiting on the limiter before each request.
func (e *ProgressEngine) fetchCategory(ctx context.Context, limiter *rate.Limiter, slug string, limit int) ([]models.Video, error) {
	var videos []models.Video
	for page := 1; ; page++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		p, err := e.api.VideosByCategory(ctx, slug, page, limit)
		if err != nil {
			return nil, err
		}
		videos = append(videos, p.Data...)

		if page >= p.TotalPages || len(p.Data) == 0 {
			return videos, nil
		}
	}
}

func categoryName(videos []models.Video, slug string) string {
	for _, v := range videos {
		for _, c := range v.Categories {
			if c.Slug == slug && c.Name != "" {
				return c.Name
			}
		}
	}
	return slug
}

// exportWorker is a worker goroutine that writes categories from the jobs channel.
func (e *ProgressEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan CategoryExportJob,
	results chan<- CategoryExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.exportSingleCategory(job, opts)
	}
}

// exportSingleCategory writes a single category in the configured format.
func (e *ProgressEngine) exportSingleCategory(j CategoryExportJob, opts BulkExportOpts) CategoryExportResult {
	result := CategoryExportResult{
		Slug:  j.Slug,
		Name:  j.Export.Category,
		Files: []string{},
	}

	imageURL := ""
	if opts.Covers {
		imageURL = j.Export.Thumbnail
	}

	files, err := formatter.WriteExport(j.Export, opts.Format, opts.OutputDir, imageURL)
	if err != nil {
		result.Error = err
		return result
	}
	result.Files = files
	result.Success = true
	return result
}
