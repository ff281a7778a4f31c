package labels

import (
	"bytes"
	"fmt"
	"image/png"
	"io"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/go-pdf/fpdf"
)

// Label stock in millimetres, landscape.
const (
	pdfWidth  = 96.0
	pdfHeight = 60.0
	pdfMargin = 3.0
)

type pdfLabel struct {
	doc *fpdf.Fpdf
	tr  func(string) string
	w   float64
}

func newPDF() *pdfLabel {
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: pdfHeight, Ht: pdfWidth},
	})
	doc.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()
	pageW, _ := doc.GetPageSize()
	return &pdfLabel{
		doc: doc,
		tr:  doc.UnicodeTranslatorFromDescriptor(""),
		w:   pageW - 2*pdfMargin,
	}
}

func (p *pdfLabel) cell(width, height float64, style string, size float64, align, value string, ln int) {
	p.doc.SetFont("Helvetica", style, size)
	p.doc.CellFormat(width, height, p.tr(value), "", ln, align, false, 0, "")
}

func (p *pdfLabel) rule() {
	y := p.doc.GetY()
	p.doc.Line(pdfMargin, y, pdfMargin+p.w, y)
	p.doc.Ln(1)
}

func (p *pdfLabel) barcode(value string, height float64) error {
	bc, err := code128.Encode(value)
	if err != nil {
		return fmt.Errorf("encode barcode %q: %w", value, err)
	}
	scaled, err := barcode.Scale(bc, bc.Bounds().Dx()*2, 80)
	if err != nil {
		return fmt.Errorf("scale barcode: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return fmt.Errorf("encode barcode image: %w", err)
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	p.doc.RegisterImageOptionsReader(value, opts, &buf)
	y := p.doc.GetY()
	p.doc.ImageOptions(value, pdfMargin+4, y, p.w-8, height, false, opts, 0, "")
	p.doc.SetY(y + height)
	p.cell(p.w, 3.5, "", 7, "C", value, 1)
	return nil
}

func (p *pdfLabel) write(w io.Writer) error {
	if err := p.doc.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return p.doc.Output(w)
}

// WritePiecePDF renders a piece label as a single PDF page.
func WritePiecePDF(w io.Writer, l PieceLabel) error {
	p := newPDF()
	half := p.w / 2
	p.cell(p.w, 4, "", 6, "C", l.Company, 1)
	p.cell(p.w, 7, "B", 14, "C", l.ProductName, 1)
	p.rule()
	p.cell(half, 4, "", 7, "L", "CODIGO", 0)
	p.cell(half, 4, "", 7, "L", "FECHA: "+l.DateText(), 1)
	p.cell(half, 5, "B", 10, "L", l.ProductCode, 0)
	p.cell(half, 5, "", 8, "L", "ESPECIE: "+l.Species, 1)
	p.cell(half, 4, "", 7, "L", "PESO", 0)
	p.cell(half, 5, "B", 9, "L", "LOTE: "+l.LotCode, 1)
	p.cell(half, 8, "B", 18, "L", l.WeightText(), 0)
	p.cell(half, 4, "", 8, "L", "SINIIGA: "+l.Traceability, 2)
	p.doc.SetX(pdfMargin + half)
	p.cell(half, 4, "B", 9, "L", "CAJA(PZA): "+l.BoxMarker(), 1)
	p.doc.Ln(1)
	if err := p.barcode(l.Barcode, 12); err != nil {
		return err
	}
	return p.write(w)
}

// WriteMasterPDF renders a master label as a single PDF page.
func WriteMasterPDF(w io.Writer, l MasterLabel) error {
	p := newPDF()
	half := p.w / 2
	p.cell(p.w, 4, "", 6, "C", l.Company, 1)
	p.cell(p.w, 8, "B", 16, "C", l.ProductLine, 1)
	p.cell(p.w, 4, "", 8, "C", l.SpeciesLine+"  |  "+l.DateText(), 1)
	p.rule()
	p.cell(half, 4, "", 8, "L", "CAJA No.", 0)
	p.cell(half, 4, "B", 9, "L", "LOTE: "+l.LotCode, 1)
	p.cell(half, 10, "B", 26, "C", l.BoxText(), 0)
	p.cell(half, 4, "", 8, "L", "SINIIGA: "+l.Traceability, 1)
	p.doc.Ln(2)
	p.rule()
	p.cell(half, 4, "", 8, "L", "PESO NETO:", 0)
	p.cell(half, 4, "", 8, "L", "CANTIDAD:", 1)
	p.cell(half, 7, "B", 14, "L", l.WeightText(), 0)
	p.cell(half, 7, "B", 12, "L", l.CountText(), 1)
	p.rule()
	if err := p.barcode(l.Barcode, 10); err != nil {
		return err
	}
	return p.write(w)
}
