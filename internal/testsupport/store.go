package testsupport

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"packline/internal/config"
	"packline/internal/domain"
	"packline/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// MustOpenBox creates (or finds) a batch for code and opens the numbered box.
func MustOpenBox(t testing.TB, s *store.Store, code string, number int) (domain.Batch, domain.Box) {
	t.Helper()

	ctx := context.Background()
	batch, err := s.FindOrCreateBatch(ctx, code)
	if err != nil {
		t.Fatalf("FindOrCreateBatch(%q): %v", code, err)
	}
	boxID, err := s.FindOrCreateBox(ctx, batch.ID, number)
	if err != nil {
		t.Fatalf("FindOrCreateBox(%d): %v", number, err)
	}
	box, err := s.GetBox(ctx, boxID)
	if err != nil {
		t.Fatalf("GetBox(%d): %v", boxID, err)
	}
	return batch, box
}

// MustRegister stores a piece with the given weight and returns its id.
func MustRegister(t testing.TB, s *store.Store, boxID int64, code, weight string) int64 {
	t.Helper()

	piece, err := domain.NewPiece(boxID, code, "PRODUCTO "+code, "RES", decimal.RequireFromString(weight))
	if err != nil {
		t.Fatalf("NewPiece: %v", err)
	}
	_, id, err := s.RegisterPiece(context.Background(), piece)
	if err != nil {
		t.Fatalf("RegisterPiece: %v", err)
	}
	return id
}

// MustSeedProduct upserts an active catalog entry.
func MustSeedProduct(t testing.TB, s *store.Store, code, name, species string) domain.Product {
	t.Helper()

	product, err := domain.NewProduct(code, name, species)
	if err != nil {
		t.Fatalf("NewProduct: %v", err)
	}
	if err := s.UpsertProduct(context.Background(), product); err != nil {
		t.Fatalf("UpsertProduct: %v", err)
	}
	return product
}

// MustCloseBox closes a box at its current pieces sum.
func MustCloseBox(t testing.TB, s *store.Store, boxID int64) domain.Box {
	t.Helper()

	ctx := context.Background()
	box, err := s.GetBox(ctx, boxID)
	if err != nil {
		t.Fatalf("GetBox(%d): %v", boxID, err)
	}
	snap := store.CloseSnapshot{Pieces: box.PieceCount, Sum: box.AccumulatedWeight, Final: box.AccumulatedWeight}
	if _, err := s.CloseBox(ctx, boxID, snap); err != nil {
		t.Fatalf("CloseBox(%d): %v", boxID, err)
	}
	closed, err := s.GetBox(ctx, boxID)
	if err != nil {
		t.Fatalf("GetBox(%d): %v", boxID, err)
	}
	return closed
}
