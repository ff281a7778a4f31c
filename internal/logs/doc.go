// Package logs reads the station log file for the `packline logs` command.
//
// Reads are bounded: Last keeps only the requested number of lines in memory
// and Since/Follow resume from a byte offset, so a long-running station log
// never has to be loaded whole.
package logs
