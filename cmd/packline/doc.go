// Command packline is the packing-line station CLI: it opens batches and
// boxes, captures weighed pieces from the scale or the keyboard, closes boxes
// with their master label, and administers the product catalog.
//
// Every command works on the station database named in the config file.
// Commands that change records take the station lock, so a second packline
// process cannot write while a capture session is running.
package main
