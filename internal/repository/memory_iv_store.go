package repository

import (
	"context"
	"sync"
	"time"
)

type ivDay struct {
	day  string
	high float64
	low  float64
}

// MemoryIVStore is the in-process fallback when Redis is not configured.
// Ranges survive the process lifetime only.
type MemoryIVStore struct {
	mu      sync.RWMutex
	days    map[string][]ivDay
	horizon int
}

// NewMemoryIVStore creates the fallback store.
func NewMemoryIVStore(horizonDays int) *MemoryIVStore {
	if horizonDays <= 0 {
		horizonDays = 90
	}
	return &MemoryIVStore{days: make(map[string][]ivDay), horizon: horizonDays}
}

func (s *MemoryIVStore) RecordDailyIV(_ context.Context, key string, dayHigh, dayLow float64) error {
	day := time.Now().UTC().Format("2006-01-02")
	s.mu.Lock()
	defer s.mu.Unlock()
	window := s.days[key]
	if n := len(window); n > 0 && window[n-1].day == day {
		window[n-1].high = dayHigh
		window[n-1].low = dayLow
	} else {
		window = append(window, ivDay{day: day, high: dayHigh, low: dayLow})
		if len(window) > s.horizon {
			window = window[len(window)-s.horizon:]
		}
	}
	s.days[key] = window
	return nil
}

func (s *MemoryIVStore) Get90DayRange(_ context.Context, key string) (float64, float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	window := s.days[key]
	if len(window) == 0 {
		return 0, 0, nil
	}
	high, low := window[0].high, window[0].low
	for _, d := range window[1:] {
		if d.high > high {
			high = d.high
		}
		if d.low < low {
			low = d.low
		}
	}
	return high, low, nil
}
