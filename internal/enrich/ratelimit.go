package enrich

import (
	"context"
	"sync"
	"time"
)

// slidingWindowSpan is the rolling window all call timestamps are counted
// over.
const slidingWindowSpan = time.Minute

// SlidingWindow limits outbound calls to at most maxCalls per rolling
// window. One instance gates all enrichment calls for a run; callers block
// in Wait until a slot opens. Timestamps use the monotonic clock carried by
// time.Time, so wall-clock jumps cannot widen or collapse the window.
type SlidingWindow struct {
	mu       sync.Mutex
	maxCalls int
	calls    []time.Time

	// now is swapped out by tests to simulate clock advancement.
	now func() time.Time
}

// NewSlidingWindow creates a limiter allowing maxCalls per rolling minute.
// A non-positive maxCalls disables limiting.
func NewSlidingWindow(maxCalls int) *SlidingWindow {
	return &SlidingWindow{
		maxCalls: maxCalls,
		now:      time.Now,
	}
}

// Wait blocks until a call slot is available or ctx is done. On success the
// slot is consumed and recorded.
func (s *SlidingWindow) Wait(ctx context.Context) error {
	if s.maxCalls <= 0 {
		return nil
	}

	for {
		s.mu.Lock()
		now := s.now()
		s.prune(now)

		if len(s.calls) < s.maxCalls {
			s.calls = append(s.calls, now)
			s.mu.Unlock()
			return nil
		}

		// Oldest recorded call bounds when the next slot opens.
		wait := slidingWindowSpan - now.Sub(s.calls[0])
		s.mu.Unlock()

		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// tryAcquire consumes a slot if one is free, without blocking.
func (s *SlidingWindow) tryAcquire() bool {
	if s.maxCalls <= 0 {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.prune(now)

	if len(s.calls) >= s.maxCalls {
		return false
	}
	s.calls = append(s.calls, now)
	return true
}

// inFlight returns how many calls currently count against the window.
func (s *SlidingWindow) inFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune(s.now())
	return len(s.calls)
}

// prune drops timestamps that have aged out of the window. Callers hold mu.
func (s *SlidingWindow) prune(now time.Time) {
	cutoff := 0
	for cutoff < len(s.calls) && now.Sub(s.calls[cutoff]) >= slidingWindowSpan {
		cutoff++
	}
	if cutoff > 0 {
		s.calls = append(s.calls[:0], s.calls[cutoff:]...)
	}
}
