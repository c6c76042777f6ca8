// Package repositories implements SQLite persistence for local client state and the reference API.
//
// Key Implementations:
//   - [StateRepository] : Key/value store for watched videos, the selected creator and user categories
//   - [CreatorRepository] : Creator ("youtuber") persistence with slug lookups and soft deletes
//   - [TaxonomyRepository] : Server-side categories and tags, one instance per kind
//   - [VideoRepository] : Videos with category membership, watched flags and paginated queries
//
// Sequence numbers provide stable, human-readable ordering (e.g. video #42) independent of row ids.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
