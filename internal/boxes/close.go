package boxes

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"packline/internal/domain"
	"packline/internal/labels"
	"packline/internal/logging"
	"packline/internal/notifications"
	"packline/internal/store"
	"packline/internal/weight"
)

// CloseResult describes a successful close.
type CloseResult struct {
	Box        domain.Box
	Resolution weight.Resolution
	Label      labels.MasterLabel
}

// Warning returns the operator-facing discrepancy notice, or "".
func (r CloseResult) Warning() string {
	if !r.Resolution.HasDiscrepancy {
		return ""
	}
	return fmt.Sprintf("final weight %s kg differs from pieces sum %s kg by %s kg",
		r.Resolution.Final.StringFixed(2), r.Resolution.Computed.StringFixed(2), r.Resolution.Delta.StringFixed(2))
}

// CompensatedError reports a close whose master label failed to print. The
// box was reopened and is OPEN again.
type CompensatedError struct {
	BoxID     int64
	BoxNumber int
	Cause     error
}

func (e *CompensatedError) Error() string {
	return fmt.Sprintf("master label for box %d did not print; box reverted to OPEN: %v", e.BoxNumber, e.Cause)
}

func (e *CompensatedError) Unwrap() []error {
	return []error{domain.ErrPrintFailed, e.Cause}
}

// Close closes an OPEN box. override, when set, replaces the pieces sum as
// the final weight. The CLOSED state is committed before the master label is
// printed; a print failure reopens the box and returns *CompensatedError.
func (s *Service) Close(ctx context.Context, boxID int64, override *decimal.Decimal) (CloseResult, error) {
	ctx = logging.WithBoxID(logging.WithOperation(ctx), boxID)

	box, err := s.store.GetBox(ctx, boxID)
	if err != nil {
		return CloseResult{}, err
	}
	if !domain.CanClose(box.State) {
		return CloseResult{}, domain.Fail(domain.ErrInvalidState, "close box", "box %d is %s", box.Number, box.State)
	}
	pieces, err := s.store.BoxContents(ctx, boxID)
	if err != nil {
		return CloseResult{}, err
	}
	if len(pieces) == 0 {
		return CloseResult{}, domain.Fail(domain.ErrEmptyBox, "close box", "box %d has no pieces", box.Number)
	}
	sum := weight.SumPieceWeights(pieces)
	resolution, err := s.policy.ResolveClosingWeight(sum, override)
	if err != nil {
		return CloseResult{}, err
	}
	batch, err := s.store.GetBatch(ctx, box.BatchID)
	if err != nil {
		return CloseResult{}, err
	}
	ctx = logging.WithBatchID(ctx, batch.ID)
	logger := logging.WithContext(ctx, s.logger)

	changed, err := s.store.CloseBox(ctx, boxID, store.CloseSnapshot{
		Pieces: len(pieces),
		Sum:    sum,
		Final:  resolution.Final,
	})
	if err != nil {
		return CloseResult{}, err
	}
	if !changed {
		return CloseResult{}, domain.Fail(domain.ErrInvalidState, "close box", "box %d is already closed", box.Number)
	}
	closed, err := s.store.GetBox(ctx, boxID)
	if err != nil {
		closed = box
		closed.State = domain.BoxClosed
	}

	label := labels.NewMasterLabel(s.company, batch, closed, pieces, resolution.Final, s.now())
	if printErr := s.printer.PrintMasterLabel(ctx, label); printErr != nil {
		return CloseResult{}, s.compensate(ctx, batch, box, printErr)
	}

	result := CloseResult{Box: closed, Resolution: resolution, Label: label}
	if resolution.HasDiscrepancy {
		logging.WarnWithContext(logger, "box closed with weight discrepancy", "close_discrepancy",
			logging.Int("box_number", box.Number),
			logging.String("computed", resolution.Computed.StringFixed(2)),
			logging.String("final", resolution.Final.StringFixed(2)),
			logging.String("delta", resolution.Delta.StringFixed(2)),
			logging.Hint("confirm the box on the scale"),
			logging.Impact("master label carries the manual weight"),
		)
		s.notify(ctx, notifications.EventDiscrepancy, notifications.Payload{
			"batch":    batch.DisplayCode(),
			"box":      box.Number,
			"computed": resolution.Computed.StringFixed(2),
			"final":    resolution.Final.StringFixed(2),
			"delta":    resolution.Delta.StringFixed(2),
		})
	}
	logger.Info("box closed",
		logging.Int("box_number", box.Number),
		logging.Int("pieces", len(pieces)),
		logging.String("final", resolution.Final.StringFixed(2)),
		logging.Bool("overridden", resolution.Overridden),
		logging.String("barcode", label.Barcode),
	)
	return result, nil
}

func (s *Service) compensate(ctx context.Context, batch domain.Batch, box domain.Box, printErr error) error {
	logger := logging.WithContext(ctx, s.logger)
	if _, err := s.store.ReopenBox(ctx, box.ID); err != nil {
		logging.ErrorWithContext(logger, "box closed without master label and could not be reopened", "close_compensation_failed",
			logging.Error(errors.Join(printErr, err)),
			logging.Int("box_number", box.Number),
			logging.Hint("reopen the box manually, then close it again once the printer works"),
			logging.Impact("box is CLOSED but has no master label"),
		)
		return domain.Fail(domain.ErrPrintFailed, "close box",
			"box %d is CLOSED without a master label and could not be reopened (%v); reopen it manually", box.Number, errors.Join(printErr, err))
	}
	logging.WarnWithContext(logger, "master label failed; box reverted to open", "close_compensated",
		logging.Error(printErr),
		logging.Int("box_number", box.Number),
		logging.String("printer", s.printer.Name()),
		logging.Hint("check the label printer and close the box again"),
		logging.Impact("box remains open"),
	)
	s.notify(ctx, notifications.EventCloseReverted, notifications.Payload{
		"batch": batch.DisplayCode(),
		"box":   box.Number,
		"error": printErr,
	})
	return &CompensatedError{BoxID: box.ID, BoxNumber: box.Number, Cause: printErr}
}

// ReprintMaster prints the master label of a CLOSED box again using the
// weight stored at close time.
func (s *Service) ReprintMaster(ctx context.Context, boxID int64) (labels.MasterLabel, error) {
	ctx = logging.WithBoxID(logging.WithOperation(ctx), boxID)
	box, err := s.store.GetBox(ctx, boxID)
	if err != nil {
		return labels.MasterLabel{}, err
	}
	if box.State != domain.BoxClosed {
		return labels.MasterLabel{}, domain.Fail(domain.ErrInvalidState, "reprint master label", "box %d is %s", box.Number, box.State)
	}
	pieces, err := s.store.BoxContents(ctx, boxID)
	if err != nil {
		return labels.MasterLabel{}, err
	}
	batch, err := s.store.GetBatch(ctx, box.BatchID)
	if err != nil {
		return labels.MasterLabel{}, err
	}
	final := weight.SumPieceWeights(pieces)
	if box.ClosedWeight != nil {
		final = *box.ClosedWeight
	}
	label := labels.NewMasterLabel(s.company, batch, box, pieces, final, s.now())
	if err := s.printer.PrintMasterLabel(ctx, label); err != nil {
		return label, &domain.Error{
			Kind:    domain.KindCollaborator,
			Op:      "reprint master label",
			Message: fmt.Sprintf("box %d: %v", box.Number, err),
			Err:     domain.ErrPrintFailed,
		}
	}
	logging.WithContext(ctx, s.logger).Info("master label reprinted",
		logging.Int("box_number", box.Number),
		logging.String("barcode", label.Barcode),
	)
	return label, nil
}

func (s *Service) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, event, payload); err != nil {
		logging.WithContext(ctx, s.logger).Debug("notification failed", logging.Error(err))
	}
}
