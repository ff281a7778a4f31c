// Package batches opens, lists, archives and summarizes traceability
// batches. Opening is idempotent: scanning the same code twice returns the
// same ACTIVE batch.
package batches
