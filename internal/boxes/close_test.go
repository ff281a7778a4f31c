package boxes_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"packline/internal/boxes"
	"packline/internal/domain"
	"packline/internal/logging"
	"packline/internal/notifications"
	"packline/internal/store"
	"packline/internal/testsupport"
	"packline/internal/weight"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (n *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Events() []notifications.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifications.Event(nil), n.events...)
}

type fixture struct {
	store    *store.Store
	printer  *testsupport.RecordingPrinter
	notifier *recordingNotifier
	svc      *boxes.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	printer := &testsupport.RecordingPrinter{}
	notifier := &recordingNotifier{}
	svc := boxes.NewService(st, printer, weight.Default(), notifier, "ACME", logging.NewNop())
	return fixture{store: st, printer: printer, notifier: notifier, svc: svc}
}

func mustBox(t *testing.T, st *store.Store, id int64) domain.Box {
	t.Helper()
	box, err := st.GetBox(context.Background(), id)
	if err != nil {
		t.Fatalf("GetBox(%d): %v", id, err)
	}
	return box
}

func TestCloseEmptyBoxFails(t *testing.T) {
	f := newFixture(t)
	_, box := testsupport.MustOpenBox(t, f.store, "1234", 1)

	_, err := f.svc.Close(context.Background(), box.ID, nil)
	if !errors.Is(err, domain.ErrEmptyBox) {
		t.Fatalf("expected ErrEmptyBox, got %v", err)
	}
	if got := mustBox(t, f.store, box.ID); got.State != domain.BoxOpen {
		t.Fatalf("empty box state = %s, want OPEN", got.State)
	}
	if f.printer.MasterCount() != 0 {
		t.Fatal("no master label should print for an empty box")
	}
}

func TestClosePrintsMasterLabel(t *testing.T) {
	f := newFixture(t)
	batch, box := testsupport.MustOpenBox(t, f.store, "1234", 3)
	testsupport.MustRegister(t, f.store, box.ID, "101", "5.25")
	testsupport.MustRegister(t, f.store, box.ID, "101", "4.75")

	result, err := f.svc.Close(context.Background(), box.ID, nil)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if result.Resolution.HasDiscrepancy || result.Warning() != "" {
		t.Fatalf("unexpected discrepancy: %+v", result.Resolution)
	}

	closed := mustBox(t, f.store, box.ID)
	if closed.State != domain.BoxClosed || closed.ClosedAt == nil {
		t.Fatalf("box not closed: %+v", closed)
	}
	if closed.ClosedWeight == nil || closed.ClosedWeight.StringFixed(2) != "10.00" {
		t.Fatalf("closed weight = %v", closed.ClosedWeight)
	}
	if f.printer.MasterCount() != 1 {
		t.Fatalf("expected one master label, got %d", f.printer.MasterCount())
	}
	label := f.printer.Masters[0]
	if label.PieceCount != 2 || label.WeightText() != "10.00 Kg." {
		t.Fatalf("unexpected label %+v", label)
	}
	if label.Barcode != "M"+batch.LotCode+"031000" {
		t.Fatalf("barcode = %q", label.Barcode)
	}
	if label.ProductLine != "PRODUCTO 101" || label.SpeciesLine != "CORTE PRIMARIO" {
		t.Fatalf("product lines = %q / %q", label.ProductLine, label.SpeciesLine)
	}
}

func TestClosePrintFailureRevertsToOpen(t *testing.T) {
	f := newFixture(t)
	_, box := testsupport.MustOpenBox(t, f.store, "1234", 1)
	testsupport.MustRegister(t, f.store, box.ID, "101", "2.00")
	f.printer.Fail(errors.New("printer offline"))

	_, err := f.svc.Close(context.Background(), box.ID, nil)
	var compensated *boxes.CompensatedError
	if !errors.As(err, &compensated) {
		t.Fatalf("expected CompensatedError, got %v", err)
	}
	if compensated.BoxNumber != 1 {
		t.Fatalf("compensated box number = %d", compensated.BoxNumber)
	}
	if !errors.Is(err, domain.ErrPrintFailed) || !domain.Recoverable(err) {
		t.Fatalf("expected recoverable print failure, got %v (kind %s)", err, domain.KindOf(err))
	}

	reverted := mustBox(t, f.store, box.ID)
	if reverted.State != domain.BoxOpen || reverted.ClosedAt != nil || reverted.ClosedWeight != nil {
		t.Fatalf("box not reverted: %+v", reverted)
	}
	events := f.notifier.Events()
	if len(events) != 1 || events[0] != notifications.EventCloseReverted {
		t.Fatalf("notifications = %v", events)
	}

	f.printer.Fail(nil)
	if _, err := f.svc.Close(context.Background(), box.ID, nil); err != nil {
		t.Fatalf("retry Close: %v", err)
	}
	if got := mustBox(t, f.store, box.ID); got.State != domain.BoxClosed {
		t.Fatalf("retry left box %s", got.State)
	}
}

type stuckReopenStore struct {
	*store.Store
}

func (s stuckReopenStore) ReopenBox(context.Context, int64) (bool, error) {
	return false, errors.New("database is locked")
}

func TestCloseReportsFailedCompensation(t *testing.T) {
	f := newFixture(t)
	_, box := testsupport.MustOpenBox(t, f.store, "1234", 1)
	testsupport.MustRegister(t, f.store, box.ID, "101", "2.00")
	f.printer.Fail(errors.New("printer offline"))
	svc := boxes.NewService(stuckReopenStore{f.store}, f.printer, weight.Default(), nil, "ACME", logging.NewNop())

	_, err := svc.Close(context.Background(), box.ID, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var compensated *boxes.CompensatedError
	if errors.As(err, &compensated) {
		t.Fatal("failed compensation must not be reported as compensated")
	}
	if !errors.Is(err, domain.ErrPrintFailed) {
		t.Fatalf("expected ErrPrintFailed, got %v", err)
	}
	if got := mustBox(t, f.store, box.ID); got.State != domain.BoxClosed {
		t.Fatalf("box state = %s", got.State)
	}
}

func TestCloseWithOverrideReportsDiscrepancy(t *testing.T) {
	f := newFixture(t)
	_, box := testsupport.MustOpenBox(t, f.store, "1234", 2)
	testsupport.MustRegister(t, f.store, box.ID, "101", "6.00")
	testsupport.MustRegister(t, f.store, box.ID, "102", "4.00")
	override := decimal.RequireFromString("10.10")

	result, err := f.svc.Close(context.Background(), box.ID, &override)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	res := result.Resolution
	if !res.HasDiscrepancy || res.Delta.StringFixed(2) != "0.10" || res.Final.StringFixed(2) != "10.10" {
		t.Fatalf("resolution = %+v", res)
	}
	if result.Warning() == "" {
		t.Fatal("expected warning text")
	}
	if result.Label.ProductLine != "MULTIPRODUCTO" {
		t.Fatalf("product line = %q", result.Label.ProductLine)
	}
	events := f.notifier.Events()
	if len(events) != 1 || events[0] != notifications.EventDiscrepancy {
		t.Fatalf("notifications = %v", events)
	}
}

func TestCloseRejectsInvalidOverride(t *testing.T) {
	f := newFixture(t)
	_, box := testsupport.MustOpenBox(t, f.store, "1234", 1)
	testsupport.MustRegister(t, f.store, box.ID, "101", "2.00")
	zero := decimal.Zero

	if _, err := f.svc.Close(context.Background(), box.ID, &zero); !errors.Is(err, domain.ErrInvalidOverride) {
		t.Fatalf("expected ErrInvalidOverride, got %v", err)
	}
	if got := mustBox(t, f.store, box.ID); got.State != domain.BoxOpen {
		t.Fatalf("box state = %s", got.State)
	}
}

func TestCloseTwiceIsInvalidState(t *testing.T) {
	f := newFixture(t)
	_, box := testsupport.MustOpenBox(t, f.store, "1234", 1)
	testsupport.MustRegister(t, f.store, box.ID, "101", "2.00")
	if _, err := f.svc.Close(context.Background(), box.ID, nil); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := f.svc.Close(context.Background(), box.ID, nil); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if f.printer.MasterCount() != 1 {
		t.Fatalf("master labels = %d", f.printer.MasterCount())
	}
}

func TestReopenAndReprintMaster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, box := testsupport.MustOpenBox(t, f.store, "1234", 1)
	testsupport.MustRegister(t, f.store, box.ID, "101", "3.00")

	if _, err := f.svc.ReprintMaster(ctx, box.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("reprint of open box: expected ErrInvalidState, got %v", err)
	}
	if _, err := f.svc.Reopen(ctx, box.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("reopen of open box: expected ErrInvalidState, got %v", err)
	}

	override := decimal.RequireFromString("3.02")
	if _, err := f.svc.Close(ctx, box.ID, &override); err != nil {
		t.Fatalf("Close: %v", err)
	}
	label, err := f.svc.ReprintMaster(ctx, box.ID)
	if err != nil {
		t.Fatalf("ReprintMaster: %v", err)
	}
	if label.WeightText() != "3.02 Kg." {
		t.Fatalf("reprint should use stored closing weight, got %s", label.WeightText())
	}
	if f.printer.MasterCount() != 2 {
		t.Fatalf("master labels = %d", f.printer.MasterCount())
	}

	f.printer.Fail(errors.New("jam"))
	if _, err := f.svc.ReprintMaster(ctx, box.ID); !errors.Is(err, domain.ErrPrintFailed) {
		t.Fatalf("expected ErrPrintFailed, got %v", err)
	}
	if got := mustBox(t, f.store, box.ID); got.State != domain.BoxClosed {
		t.Fatal("failed reprint must not change box state")
	}

	reopened, err := f.svc.Reopen(ctx, box.ID)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if reopened.State != domain.BoxOpen || reopened.ClosedAt != nil {
		t.Fatalf("reopened box = %+v", reopened)
	}
}

// lateStore registers one more piece right before the close transaction, as
// a second writer would.
type lateStore struct {
	*store.Store
	t *testing.T
}

func (s lateStore) CloseBox(ctx context.Context, id int64, snap store.CloseSnapshot) (bool, error) {
	testsupport.MustRegister(s.t, s.Store, id, "101", "5.00")
	return s.Store.CloseBox(ctx, id, snap)
}

func TestCloseRefusesPiecesAddedDuringClose(t *testing.T) {
	f := newFixture(t)
	svc := boxes.NewService(lateStore{Store: f.store, t: t}, f.printer, weight.Default(), f.notifier, "ACME", logging.NewNop())
	_, box := testsupport.MustOpenBox(t, f.store, "1234", 1)
	testsupport.MustRegister(t, f.store, box.ID, "101", "2.00")

	_, err := svc.Close(context.Background(), box.ID, nil)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	got := mustBox(t, f.store, box.ID)
	if got.State != domain.BoxOpen || got.ClosedWeight != nil {
		t.Fatalf("box = %+v, want OPEN without closing weight", got)
	}
	if got.PieceCount != 2 {
		t.Fatalf("piece count = %d, want 2", got.PieceCount)
	}
	if f.printer.MasterCount() != 0 {
		t.Fatal("no master label should print for a box that changed while closing")
	}

	result, err := f.svc.Close(context.Background(), box.ID, nil)
	if err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if result.Label.PieceCount != 2 || result.Resolution.Final.StringFixed(2) != "7.00" {
		t.Fatalf("label = %+v resolution = %+v", result.Label, result.Resolution)
	}
}
