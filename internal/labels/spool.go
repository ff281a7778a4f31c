package labels

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// SpoolPrinter renders labels to PDF files in a directory. It stands in for a
// printer on stations without hardware.
type SpoolPrinter struct {
	dir string
}

func NewSpoolPrinter(dir string) *SpoolPrinter {
	return &SpoolPrinter{dir: dir}
}

func (p *SpoolPrinter) Name() string { return "pdf " + p.dir }

// Dir is the spool directory.
func (p *SpoolPrinter) Dir() string { return p.dir }

func (p *SpoolPrinter) PrintPieceLabel(ctx context.Context, label PieceLabel) error {
	return p.spool(ctx, "pieza", func(w io.Writer) error { return WritePiecePDF(w, label) })
}

func (p *SpoolPrinter) PrintMasterLabel(ctx context.Context, label MasterLabel) error {
	return p.spool(ctx, "caja", func(w io.Writer) error { return WriteMasterPDF(w, label) })
}

// Check verifies the spool directory exists and accepts new files.
func (p *SpoolPrinter) Check(context.Context) error {
	if p.dir == "" {
		return fmt.Errorf("spool directory is empty")
	}
	f, err := os.CreateTemp(p.dir, ".check-*")
	if err != nil {
		return fmt.Errorf("spool directory %s not writable: %w", p.dir, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func (p *SpoolPrinter) spool(ctx context.Context, kind string, render func(io.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.dir == "" {
		return fmt.Errorf("spool directory is empty")
	}
	final := filepath.Join(p.dir, fmt.Sprintf("%s-%s.pdf", kind, uuid.NewString()))
	tmp, err := os.CreateTemp(p.dir, ".spool-*")
	if err != nil {
		return fmt.Errorf("create spool file: %w", err)
	}
	tmpName := tmp.Name()
	if err := render(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close spool file: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish spool file: %w", err)
	}
	return nil
}
