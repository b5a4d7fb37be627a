package storage

import (
	"sync/atomic"

	"a11y_tracker/logger"
)

// Selector decides whether persistence goes to the database or to memory.
// Once fallback is enabled it stays enabled for the life of the process.
type Selector struct {
	fallback atomic.Bool
	log      *logger.Logger
}

func NewSelector(log *logger.Logger) *Selector {
	return &Selector{log: log}
}

func (s *Selector) IsUsingFallback() bool {
	return s.fallback.Load()
}

func (s *Selector) EnableFallback() {
	if s.fallback.CompareAndSwap(false, true) {
		s.log.Warnw("In-memory storage mode enabled")
	}
}

// Mode reports the active backend for health output.
func (s *Selector) Mode() string {
	if s.IsUsingFallback() {
		return "memory"
	}
	return "database"
}
