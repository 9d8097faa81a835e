// Package docukit provides a uniform repository layer over document stores,
// built around cursor-based keyset pagination.
//
// docukit layers cross-cutting bookkeeping on top of a store's native
// operations: soft delete, optimistic versioning, audit timestamps,
// provenance tracing and tenant-style scoping. The core of the package is
// the keyset pagination engine:
//   - Orderings: multi-field ordering canonicalized with a unique tiebreaker.
//   - Condition: a composable AND/OR predicate tree that backend adapters
//     translate into their native filter representation.
//   - Pager: orchestrates a page fetch and derives the opaque next cursor
//     from the last returned row.
//   - Repository: CRUD plus paging over any Store implementation.
//
// Backends implement the small Store interface; adapters for MongoDB
// (mongodoc), Cloud Firestore (firedoc) and an in-memory reference store
// (memdoc) ship as subpackages.
package docukit
