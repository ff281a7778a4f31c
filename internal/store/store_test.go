package store_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"packline/internal/domain"
	"packline/internal/store"
	"packline/internal/testsupport"
)

func TestOpenAppliesSchemaAndMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)

	health, err := s.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.Healthy() {
		t.Fatalf("expected healthy database, got %+v", health)
	}
	if len(health.AppliedMigrations) != 5 {
		t.Fatalf("expected 5 recorded migrations, got %v", health.AppliedMigrations)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	again, err := reopened.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth after reopen: %v", err)
	}
	if len(again.AppliedMigrations) != 5 {
		t.Fatalf("re-open must not duplicate migrations, got %v", again.AppliedMigrations)
	}
}

func TestOpenMigratesLegacyDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	legacy, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open legacy db: %v", err)
	}
	_, err = legacy.Exec(`
		CREATE TABLE products (code TEXT PRIMARY KEY, name TEXT NOT NULL, species TEXT NOT NULL);
		CREATE TABLE batches (id INTEGER PRIMARY KEY AUTOINCREMENT, traceability_code TEXT NOT NULL, lot_code TEXT NOT NULL, state TEXT NOT NULL DEFAULT 'ACTIVE', created_at TEXT NOT NULL);
		CREATE TABLE boxes (id INTEGER PRIMARY KEY AUTOINCREMENT, batch_id INTEGER NOT NULL, box_number INTEGER NOT NULL, state TEXT NOT NULL DEFAULT 'OPEN', closed_at TEXT, accumulated_weight REAL NOT NULL DEFAULT 0, piece_count INTEGER NOT NULL DEFAULT 0, created_at TEXT NOT NULL);
		CREATE TABLE pieces (id INTEGER PRIMARY KEY AUTOINCREMENT, box_id INTEGER NOT NULL, product_code TEXT NOT NULL, product_name TEXT NOT NULL, weight REAL NOT NULL, sequence_number INTEGER NOT NULL, captured_at TEXT NOT NULL);
		INSERT INTO products (code, name, species) VALUES ('101', 'PIERNA', 'CERDO');
		INSERT INTO batches (traceability_code, lot_code, created_at) VALUES ('0800001234', '010526', '2026-05-01T08:00:00Z');
		INSERT INTO boxes (batch_id, box_number, created_at) VALUES (1, 1, '2026-05-01T08:00:00Z');
		INSERT INTO pieces (box_id, product_code, product_name, weight, sequence_number, captured_at) VALUES (1, '101', 'PIERNA', 2.5, 7, '2026-05-01T08:01:00Z');
	`)
	if err != nil {
		t.Fatalf("seed legacy db: %v", err)
	}
	_ = legacy.Close()

	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	product, err := s.GetProduct(ctx, "101")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if product.State != domain.ProductActive {
		t.Fatalf("expected migrated product to be active, got %q", product.State)
	}
	piece, err := s.GetPiece(ctx, 1)
	if err != nil {
		t.Fatalf("GetPiece: %v", err)
	}
	if piece.Species != "CERDO" {
		t.Fatalf("expected species backfilled from catalog, got %q", piece.Species)
	}

	id := testsupport.MustRegister(t, s, 1, "101", "1.00")
	next, err := s.GetPiece(ctx, id)
	if err != nil {
		t.Fatalf("GetPiece: %v", err)
	}
	if next.Sequence != 8 {
		t.Fatalf("expected sequence to continue after legacy max, got %d", next.Sequence)
	}
}

func TestAggregatesFollowEveryMutation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	_, box := testsupport.MustOpenBox(t, s, "1234", 1)

	assertAggregates := func(step string) {
		t.Helper()
		current, err := s.GetBox(ctx, box.ID)
		if err != nil {
			t.Fatalf("%s: GetBox: %v", step, err)
		}
		pieces, err := s.BoxContents(ctx, box.ID)
		if err != nil {
			t.Fatalf("%s: BoxContents: %v", step, err)
		}
		sum := decimal.Zero
		for _, p := range pieces {
			sum = sum.Add(p.Weight)
		}
		if !current.AccumulatedWeight.Equal(sum.Round(2)) {
			t.Fatalf("%s: accumulated %s, pieces sum %s", step, current.AccumulatedWeight, sum)
		}
		if current.PieceCount != len(pieces) {
			t.Fatalf("%s: piece count %d, rows %d", step, current.PieceCount, len(pieces))
		}
	}

	first := testsupport.MustRegister(t, s, box.ID, "101", "1.10")
	testsupport.MustRegister(t, s, box.ID, "101", "2.20")
	third := testsupport.MustRegister(t, s, box.ID, "102", "3.35")
	assertAggregates("register")

	if err := s.EditPieceWeight(ctx, first, decimal.RequireFromString("0.95")); err != nil {
		t.Fatalf("EditPieceWeight: %v", err)
	}
	assertAggregates("edit")

	if err := s.DeletePiece(ctx, third); err != nil {
		t.Fatalf("DeletePiece: %v", err)
	}
	assertAggregates("delete")

	current, _ := s.GetBox(ctx, box.ID)
	if current.AccumulatedWeight.StringFixed(2) != "3.15" || current.PieceCount != 2 {
		t.Fatalf("unexpected aggregates %s/%d", current.AccumulatedWeight, current.PieceCount)
	}
}

func TestSequenceNumbersAreNeverReused(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	_, box := testsupport.MustOpenBox(t, s, "1234", 1)

	var ids []int64
	for i := 0; i < 3; i++ {
		ids = append(ids, testsupport.MustRegister(t, s, box.ID, "101", "1.00"))
	}
	for i, id := range ids {
		piece, err := s.GetPiece(ctx, id)
		if err != nil {
			t.Fatalf("GetPiece: %v", err)
		}
		if piece.Sequence != i+1 {
			t.Fatalf("piece %d has sequence %d", i, piece.Sequence)
		}
	}

	if err := s.DeletePiece(ctx, ids[1]); err != nil {
		t.Fatalf("DeletePiece: %v", err)
	}
	fourth, err := s.GetPiece(ctx, testsupport.MustRegister(t, s, box.ID, "101", "1.00"))
	if err != nil {
		t.Fatalf("GetPiece: %v", err)
	}
	if fourth.Sequence != 4 {
		t.Fatalf("expected sequence 4 after deleting #2, got %d", fourth.Sequence)
	}

	if err := s.DeletePiece(ctx, fourth.ID); err != nil {
		t.Fatalf("DeletePiece: %v", err)
	}
	fifth, err := s.GetPiece(ctx, testsupport.MustRegister(t, s, box.ID, "101", "1.00"))
	if err != nil {
		t.Fatalf("GetPiece: %v", err)
	}
	if fifth.Sequence != 5 {
		t.Fatalf("expected sequence 5 after deleting the highest piece, got %d", fifth.Sequence)
	}
}

func TestConcurrentRegistrationsGetDistinctSequences(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	_, box := testsupport.MustOpenBox(t, s, "1234", 1)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			piece, err := domain.NewPiece(box.ID, "101", "PIERNA", "CERDO", decimal.RequireFromString("1.25"))
			if err != nil {
				errs <- err
				return
			}
			if _, _, err := s.RegisterPiece(ctx, piece); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("RegisterPiece: %v", err)
	}

	pieces, err := s.BoxContents(ctx, box.ID)
	if err != nil {
		t.Fatalf("BoxContents: %v", err)
	}
	seen := make(map[int]bool)
	for _, p := range pieces {
		if seen[p.Sequence] {
			t.Fatalf("duplicate sequence %d", p.Sequence)
		}
		seen[p.Sequence] = true
	}
	if len(seen) != workers {
		t.Fatalf("expected %d pieces, got %d", workers, len(seen))
	}
	current, _ := s.GetBox(ctx, box.ID)
	if current.AccumulatedWeight.StringFixed(2) != "10.00" || current.PieceCount != workers {
		t.Fatalf("unexpected aggregates %s/%d", current.AccumulatedWeight, current.PieceCount)
	}
}

func TestFindOrCreateBatchIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	s.SetClock(func() time.Time { return time.Date(2026, time.May, 16, 7, 0, 0, 0, time.Local) })

	first, err := s.FindOrCreateBatch(ctx, "1234")
	if err != nil {
		t.Fatalf("FindOrCreateBatch: %v", err)
	}
	second, err := s.FindOrCreateBatch(ctx, " 1234 ")
	if err != nil {
		t.Fatalf("FindOrCreateBatch: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same batch, got %d and %d", first.ID, second.ID)
	}
	if first.TraceabilityCode != "0800001234" || first.LotCode != "160526" {
		t.Fatalf("unexpected batch %+v", first)
	}
}

func TestFindOrCreateBatchResolvesRacingInsert(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	var (
		fired  atomic.Bool
		winner domain.Batch
	)
	s.SetBeforeBatchInsert(func() {
		if !fired.CompareAndSwap(false, true) {
			return
		}
		var err error
		winner, err = s.FindOrCreateBatch(ctx, "5678")
		if err != nil {
			t.Errorf("competing FindOrCreateBatch: %v", err)
		}
	})

	loser, err := s.FindOrCreateBatch(ctx, "5678")
	if err != nil {
		t.Fatalf("FindOrCreateBatch: %v", err)
	}
	if !fired.Load() {
		t.Fatal("expected insert hook to run")
	}
	if winner.ID == 0 || loser.ID != winner.ID {
		t.Fatalf("expected both calls to resolve to the winner, got %d and %d", loser.ID, winner.ID)
	}
	assertSingleActive(t, s, "0800005678")
}

func TestFindOrCreateBatchConcurrentFirstCalls(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	const workers = 6
	ids := make([]int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			batch, err := s.FindOrCreateBatch(ctx, "9999")
			if err != nil {
				t.Errorf("FindOrCreateBatch: %v", err)
				return
			}
			ids[i] = batch.ID
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("expected a single winner, got ids %v", ids)
		}
	}
	assertSingleActive(t, s, "0800009999")
}

func assertSingleActive(t *testing.T, s *store.Store, code string) {
	t.Helper()
	batches, err := s.ListBatches(context.Background(), true)
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	active := 0
	for _, b := range batches {
		if b.TraceabilityCode == code && b.State == domain.BatchActive {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one ACTIVE batch for %s, got %d", code, active)
	}
}

func TestArchivedCodeCanStartNewBatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, err := s.FindOrCreateBatch(ctx, "1234")
	if err != nil {
		t.Fatalf("FindOrCreateBatch: %v", err)
	}
	if changed, err := s.SetBatchState(ctx, first.ID, domain.BatchClosed); err != nil || !changed {
		t.Fatalf("archive: changed=%v err=%v", changed, err)
	}
	second, err := s.FindOrCreateBatch(ctx, "1234")
	if err != nil {
		t.Fatalf("FindOrCreateBatch: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a fresh batch after archiving")
	}
	if _, err := s.SetBatchState(ctx, first.ID, domain.BatchActive); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected reactivation conflict, got %v", err)
	}
	if _, err := s.FindOrCreateBox(ctx, first.ID, 1); !errors.Is(err, domain.ErrBatchClosed) {
		t.Fatalf("expected ErrBatchClosed for archived batch, got %v", err)
	}
}

func TestDeleteBoxCascadesPieces(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	_, box := testsupport.MustOpenBox(t, s, "1234", 3)

	pieceIDs := []int64{
		testsupport.MustRegister(t, s, box.ID, "101", "1.00"),
		testsupport.MustRegister(t, s, box.ID, "101", "2.00"),
	}
	if err := s.DeleteBox(ctx, box.ID); err != nil {
		t.Fatalf("DeleteBox: %v", err)
	}
	if _, err := s.GetBox(ctx, box.ID); !errors.Is(err, domain.ErrBoxNotFound) {
		t.Fatalf("expected ErrBoxNotFound, got %v", err)
	}
	for _, id := range pieceIDs {
		if _, err := s.GetPiece(ctx, id); !errors.Is(err, domain.ErrPieceNotFound) {
			t.Fatalf("expected piece %d removed, got %v", id, err)
		}
	}
	pieces, err := s.BoxContents(ctx, box.ID)
	if err != nil {
		t.Fatalf("BoxContents: %v", err)
	}
	if len(pieces) != 0 {
		t.Fatalf("expected no rows for deleted box, got %d", len(pieces))
	}
}

func TestClosedBoxRejectsPieceMutations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	_, box := testsupport.MustOpenBox(t, s, "1234", 1)
	pieceID := testsupport.MustRegister(t, s, box.ID, "101", "1.00")

	snap := store.CloseSnapshot{Pieces: 1, Sum: decimal.RequireFromString("1.00"), Final: decimal.RequireFromString("1.00")}
	changed, err := s.CloseBox(ctx, box.ID, snap)
	if err != nil || !changed {
		t.Fatalf("CloseBox: changed=%v err=%v", changed, err)
	}
	if changed, err := s.CloseBox(ctx, box.ID, snap); err != nil || changed {
		t.Fatalf("second CloseBox: changed=%v err=%v", changed, err)
	}

	piece, _ := domain.NewPiece(box.ID, "101", "PIERNA", "CERDO", decimal.RequireFromString("1"))
	if _, _, err := s.RegisterPiece(ctx, piece); !errors.Is(err, domain.ErrBoxNotOpen) {
		t.Fatalf("RegisterPiece on closed box: %v", err)
	}
	if err := s.EditPieceWeight(ctx, pieceID, decimal.RequireFromString("2")); !errors.Is(err, domain.ErrBoxNotOpen) {
		t.Fatalf("EditPieceWeight on closed box: %v", err)
	}
	if err := s.DeletePiece(ctx, pieceID); !errors.Is(err, domain.ErrBoxNotOpen) {
		t.Fatalf("DeletePiece on closed box: %v", err)
	}
	if err := s.DeleteBox(ctx, box.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("DeleteBox on closed box: %v", err)
	}

	closed, _ := s.GetBox(ctx, box.ID)
	if closed.ClosedAt == nil || closed.ClosedWeight == nil || closed.ClosedWeight.StringFixed(2) != "1.00" {
		t.Fatalf("expected close stamp, got %+v", closed)
	}
	if changed, err := s.ReopenBox(ctx, box.ID); err != nil || !changed {
		t.Fatalf("ReopenBox: changed=%v err=%v", changed, err)
	}
	reopened, _ := s.GetBox(ctx, box.ID)
	if reopened.State != domain.BoxOpen || reopened.ClosedAt != nil || reopened.ClosedWeight != nil {
		t.Fatalf("expected cleared close stamp, got %+v", reopened)
	}
}

func TestReopenRefusesDuplicateOpenNumber(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	batch, box := testsupport.MustOpenBox(t, s, "1234", 2)
	testsupport.MustRegister(t, s, box.ID, "101", "1.00")
	testsupport.MustCloseBox(t, s, box.ID)

	reusedID, err := s.FindOrCreateBox(ctx, batch.ID, 2)
	if err != nil {
		t.Fatalf("FindOrCreateBox reuse: %v", err)
	}
	if reusedID == box.ID {
		t.Fatal("expected a new box for a reused number")
	}
	again, err := s.FindOrCreateBox(ctx, batch.ID, 2)
	if err != nil || again != reusedID {
		t.Fatalf("expected open box %d to be returned, got %d (%v)", reusedID, again, err)
	}
	if _, err := s.ReopenBox(ctx, box.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected reopen conflict, got %v", err)
	}
	if highest, err := s.MaxBoxNumber(ctx, batch.ID); err != nil || highest != 2 {
		t.Fatalf("MaxBoxNumber = %d (%v)", highest, err)
	}
}

func TestBatchSummaryAndDailyStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	batch, box := testsupport.MustOpenBox(t, s, "1234", 1)
	testsupport.MustRegister(t, s, box.ID, "101", "1.50")
	testsupport.MustRegister(t, s, box.ID, "101", "2.25")
	testsupport.MustCloseBox(t, s, box.ID)
	other, err := s.FindOrCreateBox(ctx, batch.ID, 2)
	if err != nil {
		t.Fatalf("FindOrCreateBox: %v", err)
	}
	testsupport.MustRegister(t, s, other, "102", "0.50")

	summary, err := s.BatchSummary(ctx, batch.ID)
	if err != nil {
		t.Fatalf("BatchSummary: %v", err)
	}
	if summary.TotalBoxes != 2 || summary.OpenBoxes != 1 || summary.ClosedBoxes != 1 {
		t.Fatalf("unexpected box counts %+v", summary)
	}
	if summary.PieceCount != 3 || summary.TotalWeight.StringFixed(2) != "4.25" {
		t.Fatalf("unexpected totals %+v", summary)
	}

	stats, err := s.DailyStats(ctx, time.Now())
	if err != nil {
		t.Fatalf("DailyStats: %v", err)
	}
	if stats.PieceCount != 3 || stats.TotalWeight.StringFixed(2) != "4.25" {
		t.Fatalf("unexpected daily stats %+v", stats)
	}
	yesterday, err := s.DailyStats(ctx, time.Now().AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("DailyStats: %v", err)
	}
	if yesterday.PieceCount != 0 {
		t.Fatalf("expected no pieces yesterday, got %d", yesterday.PieceCount)
	}
}

func TestProductCatalogRules(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	product := testsupport.MustSeedProduct(t, s, "101", "PIERNA", "CERDO")
	if err := s.CreateProduct(ctx, product); !errors.Is(err, domain.ErrDuplicateProduct) {
		t.Fatalf("expected ErrDuplicateProduct, got %v", err)
	}
	testsupport.MustSeedProduct(t, s, "102", "LOMO", "CERDO")
	if err := s.ChangeProductCode(ctx, "102", "101"); !errors.Is(err, domain.ErrDuplicateProduct) {
		t.Fatalf("expected rename collision, got %v", err)
	}
	if err := s.ChangeProductCode(ctx, "102", "103"); err != nil {
		t.Fatalf("ChangeProductCode: %v", err)
	}

	_, box := testsupport.MustOpenBox(t, s, "1234", 1)
	testsupport.MustRegister(t, s, box.ID, "101", "1.00")
	if err := s.ChangeProductCode(ctx, "101", "104"); !errors.Is(err, domain.ErrProductInUse) {
		t.Fatalf("expected ErrProductInUse on rename, got %v", err)
	}
	if err := s.DeleteProductIfUnused(ctx, "101"); !errors.Is(err, domain.ErrProductInUse) {
		t.Fatalf("expected ErrProductInUse on delete, got %v", err)
	}
	if err := s.DeleteProductIfUnused(ctx, "103"); err != nil {
		t.Fatalf("DeleteProductIfUnused: %v", err)
	}

	if err := s.SetProductState(ctx, "101", domain.ProductInactive); err != nil {
		t.Fatalf("SetProductState: %v", err)
	}
	active, err := s.ListProducts(ctx, false)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active products, got %+v", active)
	}
	all, _ := s.ListProducts(ctx, true)
	if len(all) != 1 || all[0].State != domain.ProductInactive {
		t.Fatalf("unexpected catalog %+v", all)
	}
	if err := s.UpdateProduct(ctx, "999", "X", "Y"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCloseBoxRefusesStaleSnapshot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	_, box := testsupport.MustOpenBox(t, s, "1234", 1)
	testsupport.MustRegister(t, s, box.ID, "101", "2.00")
	testsupport.MustRegister(t, s, box.ID, "101", "5.00")

	kg := decimal.RequireFromString
	tests := []struct {
		name string
		snap store.CloseSnapshot
	}{
		{name: "missing piece", snap: store.CloseSnapshot{Pieces: 1, Sum: kg("2.00"), Final: kg("2.00")}},
		{name: "stale weight", snap: store.CloseSnapshot{Pieces: 2, Sum: kg("6.00"), Final: kg("6.00")}},
	}
	for _, tt := range tests {
		changed, err := s.CloseBox(ctx, box.ID, tt.snap)
		if !errors.Is(err, domain.ErrInvalidState) || changed {
			t.Fatalf("%s: changed=%v err=%v", tt.name, changed, err)
		}
		got, _ := s.GetBox(ctx, box.ID)
		if got.State != domain.BoxOpen || got.ClosedWeight != nil {
			t.Fatalf("%s: box = %+v, want untouched OPEN box", tt.name, got)
		}
	}
}
