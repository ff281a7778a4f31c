package labels

import (
	"context"
	"fmt"
	"net"
	"time"
)

const defaultTCPTimeout = 5 * time.Second

// TCPPrinter streams raw ZPL to a network printer, usually on port 9100.
type TCPPrinter struct {
	address string
	timeout time.Duration
	dialer  net.Dialer
}

// NewTCPPrinter returns a printer for host:port. A non-positive timeout
// falls back to five seconds.
func NewTCPPrinter(address string, timeout time.Duration) *TCPPrinter {
	if timeout <= 0 {
		timeout = defaultTCPTimeout
	}
	return &TCPPrinter{
		address: address,
		timeout: timeout,
		dialer:  net.Dialer{Timeout: timeout},
	}
}

func (p *TCPPrinter) Name() string { return "tcp " + p.address }

func (p *TCPPrinter) PrintPieceLabel(ctx context.Context, label PieceLabel) error {
	return p.send(ctx, PieceZPL(label))
}

func (p *TCPPrinter) PrintMasterLabel(ctx context.Context, label MasterLabel) error {
	return p.send(ctx, MasterZPL(label))
}

// Check dials the printer and closes the connection.
func (p *TCPPrinter) Check(ctx context.Context) error {
	conn, err := p.dial(ctx)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (p *TCPPrinter) dial(ctx context.Context) (net.Conn, error) {
	if p.address == "" {
		return nil, fmt.Errorf("printer address is empty")
	}
	conn, err := p.dialer.DialContext(ctx, "tcp", p.address)
	if err != nil {
		return nil, fmt.Errorf("connect printer %s: %w", p.address, err)
	}
	return conn, nil
}

func (p *TCPPrinter) send(ctx context.Context, zpl string) error {
	conn, err := p.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	deadline := time.Now().Add(p.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set printer deadline: %w", err)
	}
	if _, err := conn.Write([]byte(zpl)); err != nil {
		return fmt.Errorf("write to printer %s: %w", p.address, err)
	}
	return nil
}
