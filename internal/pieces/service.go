package pieces

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"packline/internal/domain"
	"packline/internal/logging"
	"packline/internal/weight"
)

// Store is the persistence surface the piece service needs.
type Store interface {
	GetBox(ctx context.Context, id int64) (domain.Box, error)
	GetPiece(ctx context.Context, id int64) (domain.Piece, error)
	RegisterPiece(ctx context.Context, piece domain.Piece) (int, int64, error)
	EditPieceWeight(ctx context.Context, pieceID int64, weight decimal.Decimal) error
	DeletePiece(ctx context.Context, pieceID int64) error
}

// Service registers, edits and deletes pieces.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logging.NewComponentLogger(logger, "pieces")}
}

// Register stores a piece in an OPEN box and returns it with its sequence
// number and capture time.
func (s *Service) Register(ctx context.Context, boxID int64, code, name, species string, w decimal.Decimal) (domain.Piece, error) {
	ctx = logging.WithBoxID(logging.WithOperation(ctx), boxID)
	if err := s.requireOpenBox(ctx, "register piece", boxID); err != nil {
		return domain.Piece{}, err
	}
	piece, err := domain.NewPiece(boxID, code, name, species, w)
	if err != nil {
		return domain.Piece{}, err
	}
	seq, id, err := s.store.RegisterPiece(ctx, piece)
	if err != nil {
		return domain.Piece{}, err
	}
	stored, err := s.store.GetPiece(ctx, id)
	if err != nil {
		piece.ID = id
		piece.Sequence = seq
		stored = piece
	}
	logging.WithContext(ctx, s.logger).Info("piece registered",
		logging.Int64(logging.FieldPieceID, id),
		logging.Int("sequence", seq),
		logging.String("product", piece.ProductCode),
		logging.String("weight", piece.Weight.StringFixed(2)),
	)
	return stored, nil
}

// Edit replaces the weight of a piece whose box is still OPEN.
func (s *Service) Edit(ctx context.Context, pieceID int64, w decimal.Decimal) (domain.Piece, error) {
	ctx = logging.WithOperation(ctx)
	piece, err := s.store.GetPiece(ctx, pieceID)
	if err != nil {
		return domain.Piece{}, err
	}
	ctx = logging.WithBoxID(ctx, piece.BoxID)
	if err := s.requireOpenBox(ctx, "edit piece", piece.BoxID); err != nil {
		return domain.Piece{}, err
	}
	w = weight.Round(w)
	if !w.IsPositive() {
		return domain.Piece{}, domain.Fail(domain.ErrInvalidWeight, "edit piece", "weight must be greater than 0 (got %s)", w.StringFixed(2))
	}
	if err := s.store.EditPieceWeight(ctx, pieceID, w); err != nil {
		return domain.Piece{}, err
	}
	logging.WithContext(ctx, s.logger).Info("piece weight edited",
		logging.Int64(logging.FieldPieceID, pieceID),
		logging.String("old_weight", piece.Weight.StringFixed(2)),
		logging.String("new_weight", w.StringFixed(2)),
	)
	piece.Weight = w
	return piece, nil
}

// Delete removes a piece whose box is still OPEN. Sequence numbers of the
// remaining pieces are kept.
func (s *Service) Delete(ctx context.Context, pieceID int64) error {
	ctx = logging.WithOperation(ctx)
	piece, err := s.store.GetPiece(ctx, pieceID)
	if err != nil {
		return err
	}
	ctx = logging.WithBoxID(ctx, piece.BoxID)
	if err := s.requireOpenBox(ctx, "delete piece", piece.BoxID); err != nil {
		return err
	}
	if err := s.store.DeletePiece(ctx, pieceID); err != nil {
		return err
	}
	logging.WithContext(ctx, s.logger).Info("piece deleted",
		logging.Int64(logging.FieldPieceID, pieceID),
		logging.Int("sequence", piece.Sequence),
	)
	return nil
}

// Get returns one piece.
func (s *Service) Get(ctx context.Context, pieceID int64) (domain.Piece, error) {
	return s.store.GetPiece(ctx, pieceID)
}

func (s *Service) requireOpenBox(ctx context.Context, op string, boxID int64) error {
	box, err := s.store.GetBox(ctx, boxID)
	if err != nil {
		return err
	}
	if !domain.CanAddPiece(box.State) {
		return domain.Fail(domain.ErrBoxNotOpen, op, "box %d is %s", box.Number, box.State)
	}
	return nil
}
