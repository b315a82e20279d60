package testutil

import (
	"context"
	"sync"
	"time"
)

// SleepRecorder substitutes for real sleeps in retry and backoff tests. It
// records every requested duration and returns immediately.
type SleepRecorder struct {
	mu        sync.Mutex
	durations []time.Duration
}

// Sleep records d without waiting. Pass this method as the Sleep option.
func (s *SleepRecorder) Sleep(_ context.Context, d time.Duration) {
	s.mu.Lock()
	s.durations = append(s.durations, d)
	s.mu.Unlock()
}

// Durations returns the recorded sleep requests in order.
func (s *SleepRecorder) Durations() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.durations))
	copy(out, s.durations)
	return out
}

// Total returns the sum of all recorded sleep requests.
func (s *SleepRecorder) Total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total time.Duration
	for _, d := range s.durations {
		total += d
	}
	return total
}
