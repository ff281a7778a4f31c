package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure for propagation and display.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindState        Kind = "state"
	KindTransaction  Kind = "transaction"
	KindCollaborator Kind = "collaborator"
	KindBootstrap    Kind = "bootstrap"
)

var (
	ErrInvalidWeight    = errors.New("invalid weight")
	ErrEmptyCode        = errors.New("code must not be empty")
	ErrEmptyName        = errors.New("name must not be empty")
	ErrInvalidCode      = errors.New("invalid traceability code")
	ErrInvalidBoxNumber = errors.New("box number must be positive")
	ErrInvalidOverride  = errors.New("invalid closing weight override")
	ErrEmptyBox         = errors.New("box has no pieces")
	ErrBoxNotOpen       = errors.New("box is not open")
	ErrInvalidState     = errors.New("invalid state for operation")
	ErrBoxNotFound      = errors.New("box not found")
	ErrPieceNotFound    = errors.New("piece not found")
	ErrBatchNotFound    = errors.New("batch not found")
	ErrBatchClosed      = errors.New("batch is closed")
	ErrProductNotFound  = errors.New("product not found")
	ErrProductInactive  = errors.New("product is inactive")
	ErrProductInUse     = errors.New("product has registered pieces")
	ErrDuplicateProduct = errors.New("product already exists")
	ErrPrintFailed      = errors.New("label printing failed")
	ErrSchemaMissing    = errors.New("database schema unavailable")
)

// sentinelKinds is ordered by precedence: when an error wraps several
// sentinels, KindOf reports the first one listed here.
var sentinelKinds = []struct {
	err  error
	kind Kind
}{
	{ErrSchemaMissing, KindBootstrap},
	{ErrPrintFailed, KindCollaborator},
	{ErrBoxNotOpen, KindState},
	{ErrInvalidState, KindState},
	{ErrBoxNotFound, KindState},
	{ErrPieceNotFound, KindState},
	{ErrBatchNotFound, KindState},
	{ErrBatchClosed, KindState},
	{ErrProductNotFound, KindState},
	{ErrProductInactive, KindState},
	{ErrInvalidWeight, KindValidation},
	{ErrEmptyCode, KindValidation},
	{ErrEmptyName, KindValidation},
	{ErrInvalidCode, KindValidation},
	{ErrInvalidBoxNumber, KindValidation},
	{ErrInvalidOverride, KindValidation},
	{ErrEmptyBox, KindValidation},
	{ErrDuplicateProduct, KindValidation},
	{ErrProductInUse, KindValidation},
}

// Error carries an operator-facing message alongside the sentinel it wraps.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if op := strings.TrimSpace(e.Op); op != "" {
		parts = append(parts, op)
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(parts) == 0 {
		return string(e.Kind) + " failure"
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorKind lets callers classify without knowing the concrete type.
func (e *Error) ErrorKind() string { return string(e.Kind) }

// Fail builds an Error for a sentinel, deriving its kind from the sentinel.
func Fail(sentinel error, op, format string, args ...any) error {
	kind := KindTransaction
	for _, sk := range sentinelKinds {
		if sk.err == sentinel {
			kind = sk.kind
			break
		}
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Op: op, Message: msg, Err: sentinel}
}

// KindOf classifies err. Unknown errors count as transactional failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) && de.Kind != "" {
		return de.Kind
	}
	for _, sk := range sentinelKinds {
		if errors.Is(err, sk.err) {
			return sk.kind
		}
	}
	return KindTransaction
}

// Recoverable reports whether the operator can retry after refreshing state
// or correcting input.
func Recoverable(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindState, KindCollaborator:
		return true
	default:
		return false
	}
}
