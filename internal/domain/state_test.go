package domain_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"packline/internal/domain"
)

func TestBoxPredicates(t *testing.T) {
	cases := []struct {
		state     domain.BoxState
		canAdd    bool
		canClose  bool
		canReopen bool
	}{
		{domain.BoxOpen, true, true, false},
		{domain.BoxClosed, false, false, true},
		{domain.BoxState("BROKEN"), false, false, false},
	}
	for _, tc := range cases {
		if got := domain.CanAddPiece(tc.state); got != tc.canAdd {
			t.Fatalf("CanAddPiece(%s) = %v, want %v", tc.state, got, tc.canAdd)
		}
		if got := domain.CanClose(tc.state); got != tc.canClose {
			t.Fatalf("CanClose(%s) = %v, want %v", tc.state, got, tc.canClose)
		}
		if got := domain.CanReopen(tc.state); got != tc.canReopen {
			t.Fatalf("CanReopen(%s) = %v, want %v", tc.state, got, tc.canReopen)
		}
	}
}

func TestBatchPredicates(t *testing.T) {
	if !domain.CanOpenBoxIn(domain.BatchActive) || domain.CanOpenBoxIn(domain.BatchClosed) {
		t.Fatal("boxes may only be opened in active batches")
	}
	if !domain.CanArchive(domain.BatchActive) || !domain.CanReactivate(domain.BatchClosed) {
		t.Fatal("unexpected batch transition predicates")
	}
}

func TestDisplayTraceabilityCode(t *testing.T) {
	cases := map[string]string{
		"0800001234-161026": "0800001234",
		"0812345678":        "0812345678",
		"  0811-x ":         "0811",
	}
	for in, want := range cases {
		if got := domain.DisplayTraceabilityCode(in); got != want {
			t.Fatalf("DisplayTraceabilityCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewPieceValidation(t *testing.T) {
	if _, err := domain.NewPiece(1, "101", "Pierna", "Res", decimal.Zero); !errors.Is(err, domain.ErrInvalidWeight) {
		t.Fatalf("expected ErrInvalidWeight, got %v", err)
	}
	if _, err := domain.NewPiece(1, " ", "Pierna", "Res", decimal.NewFromInt(1)); !errors.Is(err, domain.ErrEmptyCode) {
		t.Fatalf("expected ErrEmptyCode, got %v", err)
	}
	if _, err := domain.NewPiece(1, "101", "", "Res", decimal.NewFromInt(1)); !errors.Is(err, domain.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	piece, err := domain.NewPiece(1, " 101 ", " Pierna ", "Res", decimal.RequireFromString("2.345"))
	if err != nil {
		t.Fatalf("NewPiece: %v", err)
	}
	if piece.ProductCode != "101" || piece.ProductName != "Pierna" {
		t.Fatalf("expected trimmed fields, got %#v", piece)
	}
	if piece.Weight.StringFixed(2) != "2.35" {
		t.Fatalf("expected weight rounded to 2.35, got %s", piece.Weight)
	}
}

func TestKindOf(t *testing.T) {
	err := domain.Fail(domain.ErrBoxNotOpen, "register piece", "box %d is CLOSED", 4)
	if domain.KindOf(err) != domain.KindState {
		t.Fatalf("expected state kind, got %s", domain.KindOf(err))
	}
	if !errors.Is(err, domain.ErrBoxNotOpen) {
		t.Fatal("expected errors.Is to match sentinel")
	}
	if got := err.Error(); got != "register piece: box 4 is CLOSED: box is not open" {
		t.Fatalf("unexpected message %q", got)
	}
	if domain.KindOf(errors.New("disk I/O error")) != domain.KindTransaction {
		t.Fatal("unknown errors should classify as transactional")
	}
	if domain.Recoverable(errors.New("disk I/O error")) {
		t.Fatal("transactional failures are not operator-recoverable")
	}
}

func TestKindOfPrefersFirstListedSentinel(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.Kind
	}{
		{
			name: "print failure over missing box",
			err:  errors.Join(domain.ErrBoxNotFound, domain.ErrPrintFailed),
			want: domain.KindCollaborator,
		},
		{
			name: "print failure over failed reopen",
			err:  errors.Join(domain.ErrPrintFailed, errors.New("database is locked")),
			want: domain.KindCollaborator,
		},
		{
			name: "state over validation",
			err:  errors.Join(domain.ErrInvalidWeight, domain.ErrBoxNotOpen),
			want: domain.KindState,
		},
		{
			name: "missing schema over everything",
			err:  errors.Join(domain.ErrEmptyBox, domain.ErrPrintFailed, domain.ErrSchemaMissing),
			want: domain.KindBootstrap,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				if got := domain.KindOf(tt.err); got != tt.want {
					t.Fatalf("KindOf on attempt %d = %s, want %s", i, got, tt.want)
				}
			}
		})
	}
}
