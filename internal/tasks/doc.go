// Package tasks runs long-lived progress operations against the tracker API with real-time progress reporting.
//
// # Core Operations
//
// The [SyncEngine] interface defines three operations:
//
//  1. [SyncEngine.Push] : Local watched-set → server
//     - Fetches every video and its server-side watched flag
//     - Marks videos the local set has watched but the server does not
//     - With [PushOpts.Mirror], also unmarks videos missing from the local set
//     - Reports ids the server does not know as skipped
//
//  2. [SyncEngine.BulkExport] : Export many categories at once
//     - Fetches each category listing page by page under a rate limit
//     - Writes one export per category with a pool of workers
//     - Writes an export_manifest.json summarizing the run
//
//  3. [SyncEngine.Dump] : Fetch a raw snapshot of the API
//     - Retrieves videos, categories, tags and creators
//     - Returns structured data for backup or analysis
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Implementation
//
// [ProgressEngine] implements [SyncEngine] with dependencies on:
//   - [API] : typed tracker client (services.APIService)
//   - [APIClient] : raw HTTP access for snapshots
package tasks
