// HTTP client for the training tracker REST API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the API root used when no base URL is configured.
const DefaultBaseURL = "http://localhost:5000/api"

// APIService implements [Service] over HTTP.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewAPIService creates a new API client rooted at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// WithRateLimit throttles all requests from this client to rps requests per second.
//
// A non-positive rps disables throttling.
func (a *APIService) WithRateLimit(rps float64) *APIService {
	if rps <= 0 {
		a.limiter = nil
		return a
	}
	a.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	return a
}

// BaseURL returns the API root requests are sent to.
func (a *APIService) BaseURL() string { return a.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the response has a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v: status %d", shared.ErrAPIRequest, e.StatusCode)
	}
	return fmt.Sprintf("%v: status %d: %s", shared.ErrAPIRequest, e.StatusCode, e.Message)
}

// Unwrap exposes [shared.ErrAPIRequest], plus [shared.ErrNotFound] for 404 responses.
func (e *APIError) Unwrap() []error {
	if e.StatusCode == http.StatusNotFound {
		return []error{shared.ErrAPIRequest, shared.ErrNotFound}
	}
	return []error{shared.ErrAPIRequest}
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.send(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.send(ctx, http.MethodPost, path, data)
}

// Patch performs a PATCH request with optional JSON data and returns the raw response.
func (a *APIService) Patch(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.send(ctx, http.MethodPatch, path, data)
}

// Delete performs a DELETE request and returns the raw response.
func (a *APIService) Delete(ctx context.Context, path string) (*APIResponse, error) {
	return a.send(ctx, http.MethodDelete, path, nil)
}

func (a *APIService) send(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// fetch performs a JSON request and returns the payload with any envelope removed.
func (a *APIService) fetch(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	var data []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		data = encoded
	}

	resp, err := a.send(ctx, method, path, data)
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		return nil, newAPIError(resp)
	}

	return unwrapEnvelope(resp)
}

// do performs a JSON request and decodes the unwrapped payload into result when it is non-nil.
func (a *APIService) do(ctx context.Context, method, path string, payload, result any) error {
	data, err := a.fetch(ctx, method, path, payload)
	if err != nil {
		return err
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// unwrapEnvelope returns the "data" member of a {success, message, data} body, or the body itself.
func unwrapEnvelope(resp *APIResponse) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(resp.Body)
	if len(trimmed) == 0 {
		return json.RawMessage("null"), nil
	}
	if trimmed[0] != '{' {
		return trimmed, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil || env.Success == nil {
		return trimmed, nil
	}

	if !*env.Success {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if len(env.Data) == 0 {
		return json.RawMessage("null"), nil
	}
	return env.Data, nil
}

// newAPIError builds an [APIError] from a failed response, preferring the server's own message.
func newAPIError(resp *APIResponse) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	if obj, ok := resp.JSONData.(map[string]any); ok {
		for _, key := range []string{"message", "error", "detail"} {
			if msg, ok := obj[key].(string); ok && msg != "" {
				apiErr.Message = msg
				return apiErr
			}
		}
	}

	if text := strings.TrimSpace(string(resp.Body)); text != "" && !resp.IsJSON && len(text) <= 200 {
		apiErr.Message = text
		return apiErr
	}

	apiErr.Message = http.StatusText(resp.StatusCode)
	return apiErr
}

// decodePage decodes a paginated payload. A bare array is treated as a single page holding every item.
func decodePage[T any](data json.RawMessage) (*models.Page[T], error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}

		page := &models.Page[T]{Data: items, Page: 1, Limit: len(items), Total: len(items)}
		if len(items) > 0 {
			page.TotalPages = 1
		}
		return page, nil
	}

	var page models.Page[T]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	if page.Data == nil {
		page.Data = []T{}
	}
	return &page, nil
}

func pageQuery(page, limit int) string {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// Videos retrieves every video. Calls GET /videos.
func (a *APIService) Videos(ctx context.Context) ([]models.Video, error) {
	var videos []models.Video
	if err := a.do(ctx, http.MethodGet, "/videos", nil, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// VideosByCategory retrieves one page of a category's videos. Calls GET /videos/{slug}.
func (a *APIService) VideosByCategory(ctx context.Context, slug string, page, limit int) (*models.Page[models.Video], error) {
	if strings.TrimSpace(slug) == "" {
		return nil, fmt.Errorf("%w: category slug", shared.ErrMissingArgument)
	}

	data, err := a.fetch(ctx, http.MethodGet, "/videos/"+url.PathEscape(slug)+pageQuery(page, limit), nil)
	if err != nil {
		return nil, err
	}
	return decodePage[models.Video](data)
}

// VideosByCreator retrieves one page of a creator's videos. Calls GET /videos/by-creator/{id}.
func (a *APIService) VideosByCreator(ctx context.Context, creatorID models.Ident, page, limit int) (*models.Page[models.Video], error) {
	if creatorID == "" {
		return nil, fmt.Errorf("%w: creator id", shared.ErrMissingArgument)
	}

	path := "/videos/by-creator/" + url.PathEscape(creatorID.String()) + pageQuery(page, limit)
	data, err := a.fetch(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodePage[models.Video](data)
}

// CreateVideo adds a video. Calls POST /videos.
func (a *APIService) CreateVideo(ctx context.Context, video models.Video) (*models.Video, error) {
	var created models.Video
	if err := a.do(ctx, http.MethodPost, "/videos", video, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// MarkWatched sets a video's watched flag. Calls PATCH /videos/{id}/watch.
func (a *APIService) MarkWatched(ctx context.Context, id models.VideoID) error {
	if !id.Valid() {
		return fmt.Errorf("%w: video id %d", shared.ErrInvalidArgument, id)
	}
	return a.do(ctx, http.MethodPatch, "/videos/"+id.String()+"/watch", nil, nil)
}

// MarkUnwatched clears a video's watched flag. Calls PATCH /videos/{id}/unwatch.
func (a *APIService) MarkUnwatched(ctx context.Context, id models.VideoID) error {
	if !id.Valid() {
		return fmt.Errorf("%w: video id %d", shared.ErrInvalidArgument, id)
	}
	return a.do(ctx, http.MethodPatch, "/videos/"+id.String()+"/unwatch", nil, nil)
}

// ResetProgress clears all watched flags. Calls PATCH /videos/reset-progress.
//
// The reset count is read from {"count": n}, inside or outside an envelope.
func (a *APIService) ResetProgress(ctx context.Context) (int, error) {
	resp, err := a.send(ctx, http.MethodPatch, "/videos/reset-progress", nil)
	if err != nil {
		return 0, err
	}
	if !resp.OK() {
		return 0, newAPIError(resp)
	}

	data, err := unwrapEnvelope(resp)
	if err != nil {
		return 0, err
	}

	var result struct {
		Count *int `json:"count"`
	}
	for _, candidate := range []json.RawMessage{data, resp.Body} {
		if err := json.Unmarshal(candidate, &result); err == nil && result.Count != nil {
			return *result.Count, nil
		}
	}
	return 0, nil
}

func (a *APIService) listTaxonomy(ctx context.Context, path string) ([]models.TaxonomyItem, error) {
	var items []models.TaxonomyItem
	if err := a.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (a *APIService) createTaxonomy(ctx context.Context, path, name, slug string) (*models.TaxonomyItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}
	if slug == "" {
		slug = shared.Slugify(name)
	}

	var created models.TaxonomyItem
	payload := models.TaxonomyItem{Name: name, Slug: slug}
	if err := a.do(ctx, http.MethodPost, path, payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (a *APIService) deleteBySlug(ctx context.Context, path, slug string) error {
	if strings.TrimSpace(slug) == "" {
		return fmt.Errorf("%w: slug", shared.ErrMissingArgument)
	}
	return a.do(ctx, http.MethodDelete, path+"/"+url.PathEscape(slug), nil, nil)
}

// Categories lists server categories. Calls GET /categories.
func (a *APIService) Categories(ctx context.Context) ([]models.TaxonomyItem, error) {
	return a.listTaxonomy(ctx, "/categories")
}

// CreateCategory adds a server category. Calls POST /categories.
func (a *APIService) CreateCategory(ctx context.Context, name, slug string) (*models.TaxonomyItem, error) {
	return a.createTaxonomy(ctx, "/categories", name, slug)
}

// DeleteCategory removes a server category. Calls DELETE /categories/{slug}.
func (a *APIService) DeleteCategory(ctx context.Context, slug string) error {
	return a.deleteBySlug(ctx, "/categories", slug)
}

// Tags lists server tags. Calls GET /tags.
func (a *APIService) Tags(ctx context.Context) ([]models.TaxonomyItem, error) {
	return a.listTaxonomy(ctx, "/tags")
}

// CreateTag adds a server tag. Calls POST /tags.
func (a *APIService) CreateTag(ctx context.Context, name, slug string) (*models.TaxonomyItem, error) {
	return a.createTaxonomy(ctx, "/tags", name, slug)
}

// DeleteTag removes a server tag. Calls DELETE /tags/{slug}.
func (a *APIService) DeleteTag(ctx context.Context, slug string) error {
	return a.deleteBySlug(ctx, "/tags", slug)
}

// Creators lists creators. Calls GET /youtubers.
func (a *APIService) Creators(ctx context.Context) ([]models.Creator, error) {
	var creators []models.Creator
	if err := a.do(ctx, http.MethodGet, "/youtubers", nil, &creators); err != nil {
		return nil, err
	}
	return creators, nil
}

// CreateCreator adds a creator. Calls POST /youtubers.
func (a *APIService) CreateCreator(ctx context.Context, creator models.Creator) (*models.Creator, error) {
	creator.Name = strings.TrimSpace(creator.Name)
	if creator.Name == "" {
		return nil, fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}
	if creator.Slug == "" {
		creator.Slug = shared.Slugify(creator.Name)
	}

	var created models.Creator
	if err := a.do(ctx, http.MethodPost, "/youtubers", creator, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteCreator removes a creator. Calls DELETE /youtubers/{slug}.
func (a *APIService) DeleteCreator(ctx context.Context, slug string) error {
	return a.deleteBySlug(ctx, "/youtubers", slug)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
