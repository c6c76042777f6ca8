// Package server provides the reference REST API for the training tracker.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [ChiRouter] implementation uses a [chi.Mux] internally with method routing and URL parameters.
//
// # Handlers
//
// Resource handlers implement the [Handler] interface, which pairs a mount pattern with a sub-router
// so each handler encapsulates its own route definitions:
//
//   - [VideoHandler] : /videos listing, pagination, creation and watched flags
//   - [TaxonomyHandler] : /categories and /tags
//   - [CreatorHandler] : /youtubers
//
// # Responses
//
// Every response uses the {success, message, data} envelope. Errors carry success=false and a message;
// the status code is derived from the sentinel errors in the shared package.
//
// # Usage
//
// The serve command opens the SQLite database, builds a [Server] with [New], and runs it until the
// context is cancelled, shutting down gracefully.
package server
