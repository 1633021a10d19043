package engine

import (
	"context"
	"testing"

	"TapeLens/internal/domain/models"
)

func TestIVRank(t *testing.T) {
	cases := []struct {
		name                    string
		current, high, low, want float64
	}{
		{"midpoint", 20, 30, 10, 50},
		{"at low", 10, 30, 10, 0},
		{"at high", 30, 30, 10, 100},
		{"clamped below", 5, 30, 10, 0},
		{"clamped above", 40, 30, 10, 100},
		{"degenerate range", 20, 15, 15, 0},
		{"inverted range", 20, 10, 30, 0},
		{"half cent rounds up", 20.333, 30, 10, 51.67},
		{"half cent rounds up again", 20.111, 30, 10, 50.56},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IVRank(tc.current, tc.high, tc.low); got != tc.want {
				t.Fatalf("IVRank(%v, %v, %v) = %v, want %v", tc.current, tc.high, tc.low, got, tc.want)
			}
		})
	}
}

type fakeIVStore struct {
	high, low float64
	recorded  int
}

func (s *fakeIVStore) RecordDailyIV(_ context.Context, _ string, _, _ float64) error {
	s.recorded++
	return nil
}

func (s *fakeIVStore) Get90DayRange(_ context.Context, _ string) (float64, float64, error) {
	return s.high, s.low, nil
}

func TestIVContextObserve(t *testing.T) {
	store := &fakeIVStore{high: 30, low: 10}
	c := NewIVContext("NIFTY|20000.00|CE")

	rank, err := c.Observe(context.Background(), store, 20)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if rank != 50 {
		t.Fatalf("rank = %v, want 50", rank)
	}
	if c.DayHigh != 20 || c.DayLow != 20 {
		t.Fatalf("day extremes = [%v, %v], want [20, 20]", c.DayLow, c.DayHigh)
	}

	if _, err := c.Observe(context.Background(), store, 25); err != nil {
		t.Fatalf("observe: %v", err)
	}
	if c.DayHigh != 25 || c.DayLow != 20 {
		t.Fatalf("day extremes = [%v, %v], want [20, 25]", c.DayLow, c.DayHigh)
	}
	if store.recorded != 2 {
		t.Fatalf("recorded = %d, want 2", store.recorded)
	}
}

func TestIVContextIgnoresNonPositive(t *testing.T) {
	c := NewIVContext("k")
	c.LastRank = 42
	rank, err := c.Observe(context.Background(), nil, 0)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if rank != 42 {
		t.Fatalf("rank = %v, want prior 42", rank)
	}
}

func TestIVKey(t *testing.T) {
	tick := &models.Tick{Underlying: "NIFTY", Strike: 20000, Side: "CE"}
	if got := IVKey(tick); got != "NIFTY|20000.00|CE" {
		t.Fatalf("key = %q", got)
	}
}
