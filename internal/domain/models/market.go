package models

import "time"

// Tick is a single trade observation for an instrument. Option ticks carry
// the implied volatility and contract identity used by the IV context engine.
type Tick struct {
	Instrument string
	Timestamp  time.Time
	LTP        float64
	Qty        float64
	OI         float64

	// Option fields; zero for futures/equity ticks.
	IV         float64
	Underlying string
	Strike     float64
	Side       string // "CE" or "PE"
}

// Candle is one OHLCV bar. Closed candles are immutable; the in-progress
// candle is mutated in place as ticks arrive.
type Candle struct {
	Timestamp    time.Time
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       float64
	OpenInterest float64
	VWAP         float64
	AnchoredVWAP float64
}

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool { return c.Close > c.Open }

// Body returns the absolute body size.
func (c Candle) Body() float64 {
	b := c.Close - c.Open
	if b < 0 {
		return -b
	}
	return b
}

// Range returns high minus low.
func (c Candle) Range() float64 { return c.High - c.Low }

// TickState holds the running VWAP accumulators for one instrument.
// CumVolume is monotonically non-decreasing within a session.
type TickState struct {
	CumPriceVolume float64
	CumVolume      float64
}

// SignalDriver is one weighted rule in the confluence configuration.
// Immutable during a scoring pass, editable between passes.
type SignalDriver struct {
	Name    string `yaml:"name"`
	Weight  int    `yaml:"weight"`
	Group   string `yaml:"group"` // structure, momentum, confirmation
	Enabled bool   `yaml:"enabled"`
}
