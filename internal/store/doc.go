// Package store persists batches, boxes, pieces, and the product catalog in
// SQLite.
//
// Every multi-row mutation runs in a single BEGIN IMMEDIATE transaction so the
// write lock is held before the rows that inform the write are read. Box
// aggregates (accumulated weight and piece count) are recomputed from the
// surviving piece rows inside the same transaction; they are a cache and the
// pieces table stays the source of truth. State gates are re-checked inside
// the transaction, so a stale caller gets a typed domain error instead of a
// silent write.
//
// The schema ships embedded and is applied at Open; forward-only migrations
// are guarded by existence checks so re-application is a no-op.
package store
