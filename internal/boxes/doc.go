// Package boxes orchestrates the box lifecycle: opening numbered boxes inside
// a batch, closing them with a master label, reopening and deleting.
//
// Closing is the one operation with a side effect that can fail after the
// state change is durable. Close commits the CLOSED state first, then prints
// the master label; when printing fails the box is reopened and the caller
// receives a *CompensatedError explaining that the box is OPEN again.
package boxes
