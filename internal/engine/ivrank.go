package engine

import (
	"context"
	"fmt"
	"math"

	"TapeLens/internal/domain/models"
	"TapeLens/internal/domain/repository"
)

// IVContext tracks one contract key's intraday implied volatility extremes.
type IVContext struct {
	Key      string
	DayHigh  float64
	DayLow   float64
	LastIV   float64
	LastRank float64
}

// IVKey derives the stable grouping key for an option tick.
func IVKey(t *models.Tick) string {
	return fmt.Sprintf("%s|%.2f|%s", t.Underlying, t.Strike, t.Side)
}

// NewIVContext initializes day extremes; the low starts at +Inf so the first
// observation always takes it.
func NewIVContext(key string) *IVContext {
	return &IVContext{Key: key, DayLow: math.Inf(1)}
}

// Observe folds a positive IV observation into the day extremes, persists
// the day range to the store, and recomputes the IV rank against the 90-day
// historical range. Store failures are reported but leave the intraday state
// intact.
func (c *IVContext) Observe(ctx context.Context, store repository.HistoricalIVStore, iv float64) (float64, error) {
	if iv <= 0 {
		return c.LastRank, nil
	}
	if iv > c.DayHigh {
		c.DayHigh = iv
	}
	if iv < c.DayLow {
		c.DayLow = iv
	}
	c.LastIV = iv

	var err error
	if store != nil {
		if serr := store.RecordDailyIV(ctx, c.Key, c.DayHigh, c.DayLow); serr != nil {
			err = fmt.Errorf("record daily iv: %w", serr)
		} else if hi, lo, gerr := store.Get90DayRange(ctx, c.Key); gerr != nil {
			err = fmt.Errorf("get 90d range: %w", gerr)
		} else {
			c.LastRank = IVRank(iv, hi, lo)
		}
	}
	return c.LastRank, err
}

// Reset clears the day extremes at session start.
func (c *IVContext) Reset() {
	c.DayHigh = 0
	c.DayLow = math.Inf(1)
}

// IVRank places the current IV inside the historical range as a percentage
// in [0, 100], rounded to 2 decimals. A degenerate range yields 0.
func IVRank(current, histHigh, histLow float64) float64 {
	span := histHigh - histLow
	if span <= 0 {
		return 0
	}
	rank := (current - histLow) / span * 100
	if rank < 0 {
		rank = 0
	}
	if rank > 100 {
		rank = 100
	}
	return round2(rank)
}

// round2 rounds to 2 decimals half-up. The nudge keeps exact half-cents
// (51.665) from landing just under the .5 boundary in binary.
func round2(v float64) float64 {
	return math.Round(v*100+1e-9) / 100
}
