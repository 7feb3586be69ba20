package invoice

import (
	"context"
	"sync"
	"time"
)

// Sequence hands out per-subject, per-day counters starting at 1.
type Sequence interface {
	Next(ctx context.Context, subjectID string, day time.Time) (int64, error)
}

type memorySequence struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemorySequence returns a process-local Sequence.
// Counters are never evicted; use the Redis sequence for long-running processes.
func NewMemorySequence() Sequence {
	return &memorySequence{counters: make(map[string]int64)}
}

func (s *memorySequence) Next(_ context.Context, subjectID string, day time.Time) (int64, error) {
	key := sequenceKey(subjectID, day)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[key]++
	return s.counters[key], nil
}

func sequenceKey(subjectID string, day time.Time) string {
	return DayKey(day) + ":" + subjectID
}
