package testsupport

import (
	"context"
	"sync"

	"packline/internal/labels"
)

// RecordingPrinter captures printed labels in memory. Setting FailWith makes
// every print call fail with that error.
type RecordingPrinter struct {
	mu       sync.Mutex
	FailWith error
	Pieces   []labels.PieceLabel
	Masters  []labels.MasterLabel
}

// PrintPieceLabel records the label or returns FailWith.
func (p *RecordingPrinter) PrintPieceLabel(_ context.Context, label labels.PieceLabel) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailWith != nil {
		return p.FailWith
	}
	p.Pieces = append(p.Pieces, label)
	return nil
}

// PrintMasterLabel records the label or returns FailWith.
func (p *RecordingPrinter) PrintMasterLabel(_ context.Context, label labels.MasterLabel) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailWith != nil {
		return p.FailWith
	}
	p.Masters = append(p.Masters, label)
	return nil
}

// Fail switches the printer into failure mode.
func (p *RecordingPrinter) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.FailWith = err
}

// MasterCount returns how many master labels printed successfully.
func (p *RecordingPrinter) MasterCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Masters)
}

// PieceCount returns how many piece labels printed successfully.
func (p *RecordingPrinter) PieceCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Pieces)
}

// Name identifies the fake in logs.
func (p *RecordingPrinter) Name() string { return "recording" }
