package capture

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"packline/internal/catalog"
	"packline/internal/domain"
	"packline/internal/labels"
	"packline/internal/logging"
	"packline/internal/notifications"
	"packline/internal/weight"
)

// Registrar stores validated pieces.
type Registrar interface {
	Register(ctx context.Context, boxID int64, code, name, species string, w decimal.Decimal) (domain.Piece, error)
}

// Store provides the records a piece label is built from.
type Store interface {
	GetBox(ctx context.Context, id int64) (domain.Box, error)
	GetBatch(ctx context.Context, id int64) (domain.Batch, error)
	GetPiece(ctx context.Context, id int64) (domain.Piece, error)
}

// Request is one capture attempt.
type Request struct {
	BoxID       int64
	ProductCode string
	// Raw is the weight read from the scale or typed by the operator.
	Raw             decimal.Decimal
	ApplyCorrection bool
}

// Result is a registered piece and the label sent for it.
type Result struct {
	Piece    domain.Piece
	Label    labels.PieceLabel
	PrintErr error
}

// Service captures pieces.
type Service struct {
	products catalog.Lookup
	pieces   Registrar
	store    Store
	printer  labels.Printer
	policy   weight.Policy
	notifier notifications.Service
	company  string
	logger   *slog.Logger
}

func NewService(products catalog.Lookup, pieces Registrar, store Store, printer labels.Printer, policy weight.Policy, notifier notifications.Service, company string, logger *slog.Logger) *Service {
	return &Service{
		products: products,
		pieces:   pieces,
		store:    store,
		printer:  printer,
		policy:   policy,
		notifier: notifier,
		company:  company,
		logger:   logging.NewComponentLogger(logger, "capture"),
	}
}

// Capture registers one piece and prints its label. An error means nothing
// was stored; a stored piece whose label failed is reported via
// Result.PrintErr.
func (s *Service) Capture(ctx context.Context, req Request) (Result, error) {
	ctx = logging.WithBoxID(logging.WithOperation(ctx), req.BoxID)

	product, err := s.products.Active(ctx, req.ProductCode)
	if err != nil {
		return Result{}, err
	}
	final, err := s.policy.ResolveCaptureWeight(req.Raw, req.ApplyCorrection)
	if err != nil {
		return Result{}, err
	}
	piece, err := s.pieces.Register(ctx, req.BoxID, product.Code, product.Name, product.Species, final)
	if err != nil {
		return Result{}, err
	}

	label, printErr := s.print(ctx, piece)
	return Result{Piece: piece, Label: label, PrintErr: printErr}, nil
}

// Reprint prints the label of an existing piece again.
func (s *Service) Reprint(ctx context.Context, pieceID int64) (labels.PieceLabel, error) {
	ctx = logging.WithOperation(ctx)
	piece, err := s.store.GetPiece(ctx, pieceID)
	if err != nil {
		return labels.PieceLabel{}, err
	}
	return s.print(logging.WithBoxID(ctx, piece.BoxID), piece)
}

func (s *Service) print(ctx context.Context, piece domain.Piece) (labels.PieceLabel, error) {
	box, err := s.store.GetBox(ctx, piece.BoxID)
	if err != nil {
		return labels.PieceLabel{}, err
	}
	batch, err := s.store.GetBatch(ctx, box.BatchID)
	if err != nil {
		return labels.PieceLabel{}, err
	}
	ctx = logging.WithBatchID(ctx, batch.ID)
	logger := logging.WithContext(ctx, s.logger)

	label := labels.NewPieceLabel(s.company, batch, box, piece)
	if err := s.printer.PrintPieceLabel(ctx, label); err != nil {
		logging.WarnWithContext(logger, "piece label failed", "piece_label_failed",
			logging.Error(err),
			logging.Int64(logging.FieldPieceID, piece.ID),
			logging.String("printer", s.printer.Name()),
			logging.Hint("check the printer, then reprint the piece"),
			logging.Impact("piece is saved without a label"),
		)
		if s.notifier != nil {
			if nerr := s.notifier.Publish(ctx, notifications.EventPieceLabelError, notifications.Payload{
				"batch": batch.DisplayCode(),
				"box":   box.Number,
				"piece": fmt.Sprintf("#%d", piece.Sequence),
				"error": err,
			}); nerr != nil {
				logger.Debug("notification failed", logging.Error(nerr))
			}
		}
		return label, &domain.Error{
			Kind:    domain.KindCollaborator,
			Op:      "print piece label",
			Message: fmt.Sprintf("piece #%d of box %d: %v", piece.Sequence, box.Number, err),
			Err:     domain.ErrPrintFailed,
		}
	}
	logger.Debug("piece label printed",
		logging.Int64(logging.FieldPieceID, piece.ID),
		logging.String("barcode", label.Barcode),
	)
	return label, nil
}
