package middleware

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local RateStore. Expired windows are swept
// periodically and the number of tracked keys is capped.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]RateRecord
	maxKeys int
	now     func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates a store that sweeps every sweepEvery (disabled when
// zero) and tracks at most maxKeys keys (unbounded when zero).
func NewMemoryStore(sweepEvery time.Duration, maxKeys int) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]RateRecord),
		maxKeys: maxKeys,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if sweepEvery > 0 {
		go s.sweepLoop(sweepEvery)
	}
	return s
}

func (s *MemoryStore) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.done:
			return
		}
	}
}

// Close stops the sweeper
func (s *MemoryStore) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Get returns the active window of key
func (s *MemoryStore) Get(_ context.Context, key string) (RateRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || !s.now().Before(rec.ResetAt) {
		return RateRecord{}, false, nil
	}
	return rec, true, nil
}

// Increment counts one hit for key
func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (RateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.records[key]
	if !ok || !now.Before(rec.ResetAt) {
		if !ok && s.maxKeys > 0 && len(s.records) >= s.maxKeys {
			s.evictLocked(now)
		}
		rec = RateRecord{Key: key, ResetAt: now.Add(window)}
	}
	rec.Count++
	s.records[key] = rec
	return rec, nil
}

// Reset forgets key
func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

// Sweep drops every expired window and returns how many were removed
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

// Len returns the number of tracked keys
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *MemoryStore) sweepLocked(now time.Time) int {
	removed := 0
	for k, rec := range s.records {
		if !now.Before(rec.ResetAt) {
			delete(s.records, k)
			removed++
		}
	}
	return removed
}

// evictLocked makes room for one key: expired windows go first, then the
// window closest to expiry.
func (s *MemoryStore) evictLocked(now time.Time) {
	if s.sweepLocked(now) > 0 {
		return
	}
	var (
		oldest string
		found  bool
	)
	for k, rec := range s.records {
		if !found || rec.ResetAt.Before(s.records[oldest].ResetAt) {
			oldest, found = k, true
		}
	}
	if found {
		delete(s.records, oldest)
		rateLimitEvictions.Inc()
	}
}
