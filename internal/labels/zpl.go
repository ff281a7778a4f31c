package labels

import (
	"strconv"
	"strings"
)

// Label stock is 480x768 dots (60x96 mm at 8 dpmm) printed rotated.
const zplHeader = "^XA^PW480^LL768^CI28"

type zplWriter struct {
	b strings.Builder
}

func newZPL() *zplWriter {
	w := &zplWriter{}
	w.b.WriteString(zplHeader)
	return w
}

// text writes a rotated A0 field at (x, y).
func (w *zplWriter) text(x, y, size int, value string) {
	w.origin(x, y)
	w.font(size)
	w.data(value)
}

// centered writes a rotated A0 field centered in a block of the given width.
func (w *zplWriter) centered(x, y, size, width int, value string) {
	w.origin(x, y)
	w.font(size)
	w.b.WriteString("^FB" + strconv.Itoa(width) + ",1,0,C,0")
	w.data(value)
}

// line draws a box of width x height with the given border thickness.
func (w *zplWriter) line(x, y, width, height, thickness int) {
	w.origin(x, y)
	w.b.WriteString("^GB" + strconv.Itoa(width) + "," + strconv.Itoa(height) + "," + strconv.Itoa(thickness))
	w.b.WriteString("^FS")
}

// code128 writes a rotated Code 128 symbol with the interpretation line below.
func (w *zplWriter) code128(x, y, height int, value string) {
	w.origin(x, y)
	w.b.WriteString("^BCR," + strconv.Itoa(height) + ",Y,N,N")
	w.data(value)
}

func (w *zplWriter) origin(x, y int) {
	w.b.WriteString("^FO" + strconv.Itoa(x) + "," + strconv.Itoa(y))
}

func (w *zplWriter) font(size int) {
	s := strconv.Itoa(size)
	w.b.WriteString("^A0R," + s + "," + s)
}

func (w *zplWriter) data(value string) {
	w.b.WriteString("^FD" + value + "^FS")
}

func (w *zplWriter) String() string {
	return w.b.String() + "^XZ"
}

// PieceZPL renders a piece label.
func PieceZPL(l PieceLabel) string {
	w := newZPL()
	w.centered(435, 0, 22, 768, l.Company)
	w.centered(345, 20, 40, 740, l.ProductName)
	w.line(335, 20, 0, 720, 3)
	w.text(285, 50, 25, "CODIGO")
	w.text(285, 180, 30, l.ProductCode)
	w.line(265, 50, 0, 250, 2)
	w.text(205, 50, 25, "PESO")
	w.text(145, 50, 60, l.WeightText())
	w.line(135, 330, 200, 0, 3)
	w.text(295, 360, 20, "FECHA:")
	w.text(295, 480, 25, l.DateText())
	w.text(265, 360, 20, "ESPECIE:")
	w.text(265, 480, 22, l.Species)
	w.text(235, 360, 20, "LOTE:")
	w.text(235, 480, 30, l.LotCode)
	w.text(205, 360, 20, "SINIIGA:")
	w.text(205, 480, 22, l.Traceability)
	w.text(175, 360, 20, "CAJA(PZA):")
	w.text(170, 480, 30, l.BoxMarker())
	w.code128(40, 80, 80, l.Barcode)
	return w.String()
}

// MasterZPL renders a master (box) label.
func MasterZPL(l MasterLabel) string {
	w := newZPL()
	w.centered(425, 20, 20, 728, l.Company)
	w.centered(365, 20, 50, 728, l.ProductLine)
	w.centered(325, 20, 25, 728, l.SpeciesLine+"  |  "+l.DateText())
	w.line(310, 20, 0, 728, 3)
	w.line(90, 410, 220, 0, 3)
	w.text(275, 40, 30, "CAJA No.")
	w.text(215, 220, 85, l.BoxText())
	w.text(275, 430, 28, "LOTE: "+l.LotCode)
	w.text(235, 430, 25, "SINIIGA: "+l.Traceability)
	w.line(200, 20, 0, 728, 2)
	w.text(165, 40, 30, "PESO NETO:")
	w.text(115, 160, 50, l.WeightText())
	w.text(165, 430, 30, "CANTIDAD:")
	w.text(120, 430, 45, l.CountText())
	w.line(90, 20, 0, 728, 3)
	w.code128(25, 120, 60, l.Barcode)
	return w.String()
}
