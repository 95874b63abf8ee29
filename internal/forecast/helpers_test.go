package forecast

import (
	"context"
	"sync"
	"time"

	"github.com/bbernstein/eventcast/internal/models"
)

// fakeClock implements a controllable time source for testing
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// memoryStore is a minimal Store recording how it was used
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]models.ForecastResult
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	gets    int
	sets    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		entries: make(map[string]models.ForecastResult),
		ttls:    make(map[string]time.Duration),
	}
}

func (s *memoryStore) Get(_ context.Context, key string) (*models.ForecastResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	result, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return &result, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value models.ForecastResult, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.entries[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *memoryStore) counts() (gets, sets int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets, s.sets
}

var testNow = time.Date(2030, time.June, 1, 12, 0, 0, 0, time.UTC)

func point(t time.Time, temp, wind float64) models.ForecastPoint {
	return models.ForecastPoint{Time: t, AirTemperature: temp, WindSpeed: wind}
}

func rfc(t time.Time) string {
	return t.Format(time.RFC3339)
}
