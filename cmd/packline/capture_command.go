package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"packline/internal/capture"
	"packline/internal/domain"
	"packline/internal/scale"
	"packline/internal/station"
)

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	var product string
	var correction string
	cmd := &cobra.Command{
		Use:   "capture <box-id>",
		Short: "Capture pieces into a box from the scale or typed weights",
		Long: `Capture reads one command per line:

  <weight>          register a piece of the current product
  <code> <weight>   register a piece of another product
  (empty line)      register the current scale reading
  p <code>          switch the current product
  close [weight]    close the box (optionally with a measured final weight) and stop
  q                 stop without closing`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			boxID, err := parseID("box", args[0])
			if err != nil {
				return err
			}
			return ctx.withStation(true, func(s *station.Station) error {
				apply, err := correctionFlag(correction, s.Config().Weight.ApplyCorrection)
				if err != nil {
					return err
				}
				runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer cancel()

				session := &captureSession{
					station: s,
					boxID:   boxID,
					apply:   apply,
					out:     cmd.OutOrStdout(),
					errOut:  cmd.ErrOrStderr(),
				}
				if product != "" {
					if err := session.selectProduct(runCtx, product); err != nil {
						return err
					}
				}
				if err := session.start(runCtx); err != nil {
					return err
				}
				if reader := s.Scale(); reader != nil {
					session.scale = reader
					go session.watchScale(runCtx)
				}
				return session.run(runCtx, cmd.InOrStdin(), isTerminal(cmd.InOrStdin()))
			})
		},
	}
	cmd.Flags().StringVarP(&product, "product", "p", "", "Initial product code")
	cmd.Flags().StringVar(&correction, "correct", "", "Apply the calibration offset (true|false, default from config)")
	return cmd
}

type captureSession struct {
	station *station.Station
	boxID   int64
	box     domain.Box
	product string
	apply   bool
	scale   *scale.Reader
	out     io.Writer
	errOut  io.Writer
}

func (c *captureSession) start(ctx context.Context) error {
	box, err := c.station.Boxes.Get(ctx, c.boxID)
	if err != nil {
		return err
	}
	if !box.IsOpen() {
		return domain.Fail(domain.ErrBoxNotOpen, "capture", "box %d is %s", box.Number, box.State)
	}
	c.box = box
	fmt.Fprintf(c.out, "Capturing into box %d (%d pieces, %s kg)\n", box.Number, box.PieceCount, formatWeight(box.AccumulatedWeight))
	return nil
}

func (c *captureSession) watchScale(ctx context.Context) {
	events := make(chan scale.Event, 16)
	go func() {
		_ = c.station.WatchScale(ctx, events)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if ev.Reading != nil {
				continue
			}
			if ev.Err != nil {
				fmt.Fprintf(c.errOut, "scale %s: %v\n", ev.Status, ev.Err)
				continue
			}
			fmt.Fprintf(c.errOut, "scale %s\n", ev.Status)
		}
	}
}

func (c *captureSession) run(ctx context.Context, in io.Reader, interactive bool) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	for {
		if interactive {
			fmt.Fprint(c.out, c.prompt())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			done, err := c.handle(ctx, line)
			if err != nil {
				if domain.KindOf(err) == domain.KindBootstrap || errors.Is(err, context.Canceled) {
					return err
				}
				fmt.Fprintln(c.errOut, describeError(err))
			}
			if done {
				return nil
			}
		}
	}
}

func (c *captureSession) prompt() string {
	product := c.product
	if product == "" {
		product = "-"
	}
	return fmt.Sprintf("box %d [%s]> ", c.box.Number, product)
}

// handle executes one input line and reports whether the session is over.
func (c *captureSession) handle(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, c.captureFromScale(ctx)
	}
	switch strings.ToLower(fields[0]) {
	case "q", "quit", "exit":
		return true, nil
	case "p", "product":
		if len(fields) != 2 {
			return false, plainError("usage: p <code>")
		}
		return false, c.selectProduct(ctx, fields[1])
	case "close":
		var override *decimal.Decimal
		if len(fields) == 2 {
			w, err := parseWeight(fields[1])
			if err != nil {
				return false, err
			}
			override = &w
		}
		result, err := c.station.Boxes.Close(ctx, c.boxID, override)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(c.out, "Closed box %d: %s, %s\n", result.Box.Number, result.Label.CountText(), result.Label.WeightText())
		if warning := result.Warning(); warning != "" {
			fmt.Fprintf(c.errOut, "warning: %s\n", warning)
		}
		return true, nil
	}

	switch len(fields) {
	case 1:
		w, err := parseWeight(fields[0])
		if err != nil {
			return false, err
		}
		return false, c.capture(ctx, c.product, w)
	case 2:
		w, err := parseWeight(fields[1])
		if err != nil {
			return false, err
		}
		return false, c.capture(ctx, fields[0], w)
	}
	return false, plainError(fmt.Sprintf("unrecognized input %q", line))
}

func (c *captureSession) selectProduct(ctx context.Context, code string) error {
	product, err := c.station.Catalog.Active(ctx, code)
	if err != nil {
		return err
	}
	c.product = product.Code
	fmt.Fprintf(c.out, "Product %s %s\n", product.Code, product.Name)
	return nil
}

func (c *captureSession) captureFromScale(ctx context.Context) error {
	if c.scale == nil {
		return plainError("scale disabled; type the weight")
	}
	reading, ok := c.scale.Latest()
	if !ok {
		return plainError(fmt.Sprintf("no scale reading (scale %s); type the weight", c.scale.Status()))
	}
	return c.capture(ctx, c.product, reading.Weight)
}

func (c *captureSession) capture(ctx context.Context, code string, raw decimal.Decimal) error {
	if strings.TrimSpace(code) == "" {
		return domain.Fail(domain.ErrEmptyCode, "capture", "select a product with `p <code>` first")
	}
	result, err := c.station.Capture.Capture(ctx, capture.Request{
		BoxID:           c.boxID,
		ProductCode:     code,
		Raw:             raw,
		ApplyCorrection: c.apply,
	})
	if err != nil {
		return err
	}
	p := result.Piece
	fmt.Fprintf(c.out, "#%d %s %s kg\n", p.Sequence, p.ProductCode, formatWeight(p.Weight))
	if result.PrintErr != nil {
		fmt.Fprintln(c.errOut, describeError(result.PrintErr))
	}
	return nil
}
