// Package preflight provides readiness checks for the collaborators a
// packing station depends on: the database, the label printer, the serial
// scale, and the spool and log directories.
//
// These checks run in two contexts:
//   - The station runs RunAll at startup and logs every failed check. A
//     failed check does not stop the station; capture stays possible with
//     manual weights and labels can be reprinted later.
//   - The CLI "packline check" command prints each Result as a table.
//
// Each check is gated by its config toggle. Disabled features are skipped.
package preflight
