// Package capture runs the weigh-and-label flow for one piece: resolve the
// product, apply the weight policy, register the piece and print its label.
//
// A piece label that fails to print does not undo the registration. The
// piece is already durable and can be reprinted; the failure is returned in
// Result.PrintErr so the operator sees it.
package capture
