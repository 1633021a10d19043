package repository

import (
	"context"
	"time"

	"TapeLens/internal/domain/models"
)

// Settings is a read-only configuration snapshot for one scoring pass.
type Settings struct {
	VolumeHistoryLength   int
	VolumeBurstMultiplier float64
	BandMultiplier        float64
	IVHistoryLength       int
	IVSpikeThreshold      float64
	EMAFastPeriod         int
	EMASlowPeriod         int
	RSIPeriod             int
	ATRPeriod             int
	TickSize              float64
	IBDuration            time.Duration
	CandleInterval        time.Duration
	CandleHistoryLength   int
	SessionStart          time.Duration // offset from midnight, exchange local time
	SessionEnd            time.Duration
	OpeningWindow         time.Duration
	ClosingWindow         time.Duration
	DebounceWindow        time.Duration
	SqueezeThreshold      float64
	Drivers               []models.SignalDriver
}

// SettingsProvider supplies the thresholds and the weighted rule set.
type SettingsProvider interface {
	Snapshot() Settings
}

// SignalLogger accepts a finalized result snapshot whenever the primary
// signal changes outside the debounce window.
type SignalLogger interface {
	Log(ctx context.Context, res *models.AnalysisResult) error
}

// Notifier delivers a signal transition best-effort; the core never awaits
// success or failure.
type Notifier interface {
	Notify(ctx context.Context, res *models.AnalysisResult, prevSignal string) error
}

// HistoricalIVStore persists day-range IV per contract key across sessions.
type HistoricalIVStore interface {
	RecordDailyIV(ctx context.Context, key string, dayHigh, dayLow float64) error
	Get90DayRange(ctx context.Context, key string) (high, low float64, err error)
}

// TickStream is a live source of instrument ticks.
type TickStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics records operational counters for the pipeline.
type Metrics interface {
	RecordTick(instrument string)
	RecordError(kind string)
	RecordSignal(instrument, signal string)
	RecordConviction(instrument string, score float64)
	RecordLatency(op string, seconds float64)
}
