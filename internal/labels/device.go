package labels

import (
	"context"
	"fmt"
	"os"
)

// DevicePrinter writes raw ZPL to a character device such as /dev/usb/lp0.
type DevicePrinter struct {
	path string
}

func NewDevicePrinter(path string) *DevicePrinter {
	return &DevicePrinter{path: path}
}

func (p *DevicePrinter) Name() string { return "device " + p.path }

func (p *DevicePrinter) PrintPieceLabel(ctx context.Context, label PieceLabel) error {
	return p.send(ctx, PieceZPL(label))
}

func (p *DevicePrinter) PrintMasterLabel(ctx context.Context, label MasterLabel) error {
	return p.send(ctx, MasterZPL(label))
}

// Check opens the device for writing without sending data.
func (p *DevicePrinter) Check(context.Context) error {
	f, err := p.open()
	if err != nil {
		return err
	}
	return f.Close()
}

func (p *DevicePrinter) open() (*os.File, error) {
	if p.path == "" {
		return nil, fmt.Errorf("printer device is empty")
	}
	f, err := os.OpenFile(p.path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return nil, fmt.Errorf("open printer device %s: %w", p.path, err)
	}
	return f, nil
}

func (p *DevicePrinter) send(ctx context.Context, zpl string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := p.open()
	if err != nil {
		return err
	}
	if _, err := f.WriteString(zpl); err != nil {
		_ = f.Close()
		return fmt.Errorf("write to printer device %s: %w", p.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close printer device %s: %w", p.path, err)
	}
	return nil
}
