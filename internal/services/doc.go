// Package services implements the HTTP client for the training tracker REST API.
//
// # Service Interface
//
// [Service] lists every remote operation the CLI, TUI and progress tracker depend on.
// [APIService] implements it over net/http; tests substitute in-memory fakes.
//
// # Response Shapes
//
// The API answers either with bare JSON or with an envelope:
//
//	{"success": true, "message": "...", "data": ...}
//
// Both are accepted everywhere. Paginated endpoints return
// {data, page, limit, total, total_pages}, with or without the envelope; a bare array is
// treated as a single page.
//
// # Error Handling
//
// Non-2xx responses become an [*APIError] carrying the status code and the server's message
// (taken from "message", "error" or "detail"). APIError unwraps to [shared.ErrAPIRequest].
// Transport failures wrap [shared.ErrServiceUnavailable].
//
// # Throttling
//
// [APIService.WithRateLimit] installs a [rate.Limiter] shared by all requests from the client.
package services
