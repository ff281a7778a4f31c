package domain_test

import (
	"errors"
	"testing"
	"time"

	"packline/internal/domain"
)

func TestNormalizeTraceabilityCode(t *testing.T) {
	rules := domain.DefaultCodeRules()
	cases := []struct {
		raw  string
		want string
	}{
		{"1234", "0800001234"},
		{"  12345678 ", "0812345678"},
		{"0812345678", "0812345678"},
		{"08123", "08123"},
		{"123456789", "123456789"},
		{"0800001234-160526", "0800001234-160526"},
	}
	for _, tc := range cases {
		got, err := rules.Normalize(tc.raw)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
	if _, err := rules.Normalize("   "); !errors.Is(err, domain.ErrEmptyCode) {
		t.Fatalf("expected ErrEmptyCode, got %v", err)
	}
}

func TestIntroCode(t *testing.T) {
	rules := domain.DefaultCodeRules()
	day := time.Date(2026, time.May, 16, 9, 30, 0, 0, time.Local)

	code, err := rules.IntroCode("4321", day)
	if err != nil {
		t.Fatalf("IntroCode: %v", err)
	}
	if code != "0800004321-160526" {
		t.Fatalf("unexpected intro code %q", code)
	}
	if display := domain.DisplayTraceabilityCode(code); display != "0800004321" {
		t.Fatalf("unexpected display %q", display)
	}
	for _, bad := range []string{"123", "12345", "12a4", ""} {
		if _, err := rules.IntroCode(bad, day); !errors.Is(err, domain.ErrInvalidCode) {
			t.Fatalf("IntroCode(%q): expected ErrInvalidCode, got %v", bad, err)
		}
	}
	if got := domain.LotCode(day); got != "160526" {
		t.Fatalf("LotCode = %q", got)
	}
}
