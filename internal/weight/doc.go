// Package weight implements the weight policy applied at capture and at box
// closing: calibration correction, two-decimal rounding, plausibility limits
// and close-time reconciliation against a manual override.
//
// Everything here is pure; callers feed readings in and act on the result.
package weight
