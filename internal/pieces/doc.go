// Package pieces validates piece mutations before they reach the store.
//
// The store knows about transactions and sequence numbers; this package adds
// the rules the store does not check on its own: a box must exist and be
// OPEN, weights must be positive, and product code and name must be present.
package pieces
