// Package tasks implements bulk progress operations against the tracker API.
//
// The core abstraction is SyncEngine, which orchestrates progress pushes, category exports, and data dumps.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/services"
	"github.com/desertthunder/ptt/internal/shared"
)

// EndpointResult represents the result of fetching data from a single API endpoint.
type EndpointResult struct {
	Endpoint string
	Data     any
	Error    error
}

// DumpResult contains all data fetched from the API.
type DumpResult struct {
	Videos     any              // Every video
	Categories any              // Server categories
	Tags       any              // Server tags
	Creators   any              // Creators (youtubers)
	Errors     []EndpointResult // Failed endpoint fetches
}

// DumpData is the serializable form of a [DumpResult].
type DumpData struct {
	Videos     any      `json:"videos,omitempty"`
	Categories any      `json:"categories,omitempty"`
	Tags       any      `json:"tags,omitempty"`
	Creators   any      `json:"creators,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

// Data converts the result for serialization.
func (d *DumpResult) Data() DumpData {
	data := DumpData{
		Videos:     d.Videos,
		Categories: d.Categories,
		Tags:       d.Tags,
		Creators:   d.Creators,
	}
	for _, e := range d.Errors {
		data.Errors = append(data.Errors, fmt.Sprintf("%s: %v", e.Endpoint, e.Error))
	}
	return data
}

type endpointOperation struct {
	name    string
	path    string
	target  *any
	phase   Phase
	message string
}

// SyncEngine defines bulk operations between local progress and the API.
type SyncEngine interface {
	// Push sends the local watched-set to the server, marking (and with Mirror, unmarking) videos as needed.
	Push(ctx context.Context, progress chan<- ProgressUpdate, watched []models.VideoID, opts PushOpts) (*PushResult, error)

	// BulkExport fetches and exports several categories concurrently.
	BulkExport(ctx context.Context, progress chan<- ProgressUpdate, slugs []string, opts BulkExportOpts) (*BulkExportResult, error)

	// Dump fetches a raw snapshot of videos, categories, tags and creators.
	Dump(ctx context.Context, progress chan<- ProgressUpdate) (*DumpResult, error)
}

// API is the subset of the typed tracker client the engine needs.
type API interface {
	Videos(ctx context.Context) ([]models.Video, error)
	VideosByCategory(ctx context.Context, slug string, page, limit int) (*models.Page[models.Video], error)
	MarkWatched(ctx context.Context, id models.VideoID) error
	MarkUnwatched(ctx context.Context, id models.VideoID) error
}

// APIClient defines the interface for making raw API requests.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type APIClient interface {
	Get(ctx context.Context, path string) (*services.APIResponse, error)
}

// ProgressEngine implements SyncEngine.
type ProgressEngine struct {
	api    API
	client APIClient
}

var _ SyncEngine = (*ProgressEngine)(nil)

// NewProgressEngine creates a new ProgressEngine. Either dependency may be nil; operations that need it fail.
func NewProgressEngine(api API, client APIClient) *ProgressEngine {
	return &ProgressEngine{api: api, client: client}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ProgressEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Dump fetches a raw snapshot of the API.
func (e *ProgressEngine) Dump(ctx context.Context, progress chan<- ProgressUpdate) (*DumpResult, error) {
	if e.client == nil {
		return nil, fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}

	result := &DumpResult{
		Errors: []EndpointResult{},
	}

	endpoints := []endpointOperation{
		{name: "videos", path: "/videos", target: &result.Videos, phase: FetchVideos, message: "Fetching videos..."},
		{name: "categories", path: "/categories", target: &result.Categories, phase: FetchCategories, message: "Fetching categories..."},
		{name: "tags", path: "/tags", target: &result.Tags, phase: FetchTags, message: "Fetching tags..."},
		{name: "creators", path: "/youtubers", target: &result.Creators, phase: FetchCreators, message: "Fetching creators..."},
	}

	totalSteps := len(endpoints)

	for i, endpoint := range endpoints {
		e.sendProgress(progress, operationUpdate(endpoint, i+1, totalSteps))

		resp, err := e.client.Get(ctx, endpoint.path)
		if err != nil || !resp.OK() {
			errMsg := ""
			if err != nil {
				errMsg = err.Error()
			} else {
				errMsg = fmt.Sprintf("status %d", resp.StatusCode)
			}
			result.Errors = append(result.Errors, EndpointResult{
				Endpoint: endpoint.path,
				Error:    fmt.Errorf("%s", errMsg),
			})
		} else {
			*endpoint.target = resp.JSONData
		}
	}

	return result, nil
}
