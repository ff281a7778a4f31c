// Package domain defines the packing-line records (batches, boxes, pieces,
// products), their state enums, and the state predicates that gate every
// mutating operation.
//
// Predicates are pure equality checks over the stored state; no package may
// mutate a box or piece without consulting them first. The error taxonomy
// shared by the store and the services also lives here so callers can
// classify failures with errors.Is and KindOf regardless of which layer
// produced them.
package domain
