// Package notifications pushes station alerts to ntfy.
//
// Alerts cover the events a supervisor away from the line needs to see: a
// master label that failed to print (the box was reverted to OPEN), a piece
// label that failed to print, and a box closed with a weight discrepancy.
// Without a configured topic the service is a no-op.
package notifications
