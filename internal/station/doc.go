// Package station assembles a packing workstation: configuration, logger,
// database, label printer, notifier and the batch, box, piece, catalog and
// capture services that sit on them.
//
// A gofrs/flock lock file next to the database keeps a second packline
// process from writing to the same station while one is capturing.
package station
