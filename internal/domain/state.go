package domain

// BatchState is the lifecycle state of a traceability batch.
type BatchState string

const (
	BatchActive BatchState = "ACTIVE"
	BatchClosed BatchState = "CLOSED"
)

// BoxState is the lifecycle state of a box.
type BoxState string

const (
	BoxOpen   BoxState = "OPEN"
	BoxClosed BoxState = "CLOSED"
)

// ProductState marks whether a catalog entry can be captured.
type ProductState string

const (
	ProductActive   ProductState = "ACTIVE"
	ProductInactive ProductState = "INACTIVE"
)

// CanAddPiece reports whether pieces may be registered, edited or deleted.
func CanAddPiece(state BoxState) bool {
	return state == BoxOpen
}

// CanClose reports whether a box may be closed.
func CanClose(state BoxState) bool {
	return state == BoxOpen
}

// CanReopen reports whether a closed box may be reopened.
func CanReopen(state BoxState) bool {
	return state == BoxClosed
}

// CanDelete reports whether a box may be deleted together with its pieces.
func CanDelete(state BoxState) bool {
	return state == BoxOpen
}

// CanOpenBoxIn reports whether new boxes may be opened in a batch.
func CanOpenBoxIn(state BatchState) bool {
	return state == BatchActive
}

// CanArchive reports whether a batch may be closed.
func CanArchive(state BatchState) bool {
	return state == BatchActive
}

// CanReactivate reports whether an archived batch may be reopened.
func CanReactivate(state BatchState) bool {
	return state == BatchClosed
}

// Valid reports whether the state is one of the known box states.
func (s BoxState) Valid() bool {
	return s == BoxOpen || s == BoxClosed
}

// Valid reports whether the state is one of the known batch states.
func (s BatchState) Valid() bool {
	return s == BatchActive || s == BatchClosed
}
