// Package models defines the domain entities shared by the ptt client, TUI and reference API server.
//
// The package contains three categories of types:
//
// 1. API records decoded at the REST boundary
//   - [Video] : A training video with its category refs and server-reported watched flag
//   - [Creator] : A content creator ("youtuber" on the wire)
//   - [TaxonomyItem] : A server-side category or tag
//   - [Page] : A server-paginated slice of records
//
// 2. Client-side derived or owned entities
//   - [Category] : A system or user-defined category summary with watched counts
//   - [UserCategory] : A client-local, per-creator grouping of videos
//   - [ProgressSummary] : Watched / total counts for a set of videos
//
// 3. Persistence boundary
//   - [StateStore] : Key/value store holding JSON-serialized local state
//
// Identifiers are normalized when decoded: [VideoID] is a positive int64 and [Ident] is a string,
// both accepting JSON numbers or strings so that inconsistencies between API revisions stop at the edge.
package models
