// Package scale reads weights from a serial bench scale.
//
// The scale streams ASCII lines such as "ST,GS,  2.350kg". Reader keeps the
// serial port open, parses every line into a Reading, reports connection
// status changes, and reconnects after the cable is pulled. HotplugMonitor
// listens for udev tty events so a replugged scale reconnects immediately
// instead of waiting for the next retry tick.
package scale
