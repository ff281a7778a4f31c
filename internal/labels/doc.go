// Package labels builds piece and master label descriptions and sends them to
// a label printer.
//
// A PieceLabel is printed after every captured piece and a MasterLabel when a
// box closes. Both carry a Code 128 payload that downstream scanners decode
// back into lot, box and weight. Renderers turn a label into ZPL for Zebra
// printers (TCP port 9100 or a raw device node) or into a PDF page written to
// a spool directory when no printer is attached.
package labels
