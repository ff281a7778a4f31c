package boxes

import (
	"context"

	"packline/internal/domain"
)

// Choice classifies a box number the operator typed.
type Choice string

const (
	// ChoiceOpen selects a box that is already OPEN.
	ChoiceOpen Choice = "open"
	// ChoiceSequence is the suggested next number.
	ChoiceSequence Choice = "sequence"
	// ChoiceSkip jumps past the suggestion.
	ChoiceSkip Choice = "skip"
	// ChoiceReuse starts a new box with a number a closed box already used.
	ChoiceReuse Choice = "reuse"
)

// NumberCheck is the picker verdict for one number.
type NumberCheck struct {
	Number    int
	Choice    Choice
	Suggested int
	Skipped   int
	Box       *domain.Box
}

// NeedsConfirmation reports whether the operator should confirm before the
// box is opened.
func (c NumberCheck) NeedsConfirmation() bool {
	return c.Choice == ChoiceSkip || c.Choice == ChoiceReuse
}

// SuggestNumber returns the highest box number ever used in the batch plus one.
func (s *Service) SuggestNumber(ctx context.Context, batchID int64) (int, error) {
	if _, err := s.store.GetBatch(ctx, batchID); err != nil {
		return 0, err
	}
	highest, err := s.store.MaxBoxNumber(ctx, batchID)
	if err != nil {
		return 0, err
	}
	return highest + 1, nil
}

// ClassifyNumber tells the operator what opening number would do.
func (s *Service) ClassifyNumber(ctx context.Context, batchID int64, number int) (NumberCheck, error) {
	if number < 1 {
		return NumberCheck{}, domain.Fail(domain.ErrInvalidBoxNumber, "check box number", "got %d", number)
	}
	suggested, err := s.SuggestNumber(ctx, batchID)
	if err != nil {
		return NumberCheck{}, err
	}
	check := NumberCheck{Number: number, Suggested: suggested}

	box, ok, err := s.store.OpenBoxByNumber(ctx, batchID, number)
	if err != nil {
		return NumberCheck{}, err
	}
	switch {
	case ok:
		check.Choice = ChoiceOpen
		check.Box = &box
	case number == suggested:
		check.Choice = ChoiceSequence
	case number > suggested:
		check.Choice = ChoiceSkip
		check.Skipped = number - suggested
	default:
		check.Choice = ChoiceReuse
	}
	return check, nil
}
