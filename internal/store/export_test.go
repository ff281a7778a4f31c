package store

import "time"

// SetBeforeBatchInsert installs the hook FindOrCreateBatch runs between its
// lookup and its insert.
func (s *Store) SetBeforeBatchInsert(fn func()) {
	s.beforeBatchInsert = fn
}

// SetClock overrides the store's time source.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}
