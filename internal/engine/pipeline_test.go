package engine

import (
	"context"
	"testing"
	"time"

	"TapeLens/internal/domain/models"
	"TapeLens/internal/domain/repository"
	applogger "TapeLens/pkg/logger"
)

type stubSettings struct{ s repository.Settings }

func (p stubSettings) Snapshot() repository.Settings { return p.s }

type nopMetrics struct{}

func (nopMetrics) RecordTick(string)                {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordSignal(string, string)      {}
func (nopMetrics) RecordConviction(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)    {}

type captureNotifier struct {
	calls chan string
}

func (n *captureNotifier) Notify(_ context.Context, res *models.AnalysisResult, _ string) error {
	n.calls <- res.PrimarySignal
	return nil
}

func testSettings() repository.Settings {
	return repository.Settings{
		VolumeHistoryLength:   20,
		VolumeBurstMultiplier: 2.0,
		BandMultiplier:        2.0,
		EMAFastPeriod:         9,
		EMASlowPeriod:         21,
		RSIPeriod:             14,
		ATRPeriod:             14,
		TickSize:              0.05,
		IBDuration:            time.Hour,
		CandleInterval:        time.Minute,
		CandleHistoryLength:   120,
		SessionStart:          9*time.Hour + 15*time.Minute,
		SessionEnd:            15*time.Hour + 30*time.Minute,
		OpeningWindow:         30 * time.Minute,
		ClosingWindow:         30 * time.Minute,
		DebounceWindow:        60 * time.Second,
		SqueezeThreshold:      0.005,
		Drivers: []models.SignalDriver{
			{Name: "price_above_vwap", Weight: 3, Group: GroupStructure, Enabled: true},
			{Name: "price_below_vwap", Weight: -3, Group: GroupStructure, Enabled: true},
			{Name: "long_buildup", Weight: 3, Group: GroupMomentum, Enabled: true},
			{Name: "short_buildup", Weight: -3, Group: GroupMomentum, Enabled: true},
		},
	}
}

func tick(instrument string, ts time.Time, ltp, qty float64) *models.Tick {
	return &models.Tick{Instrument: instrument, Timestamp: ts, LTP: ltp, Qty: qty}
}

func TestDebounceSkipsDispatchInsideWindow(t *testing.T) {
	notifier := &captureNotifier{calls: make(chan string, 16)}
	p := New(stubSettings{testSettings()}, nopMetrics{}, applogger.Nop(), 1, 1, WithNotifier(notifier))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.pool.Start(ctx)
	defer p.pool.Stop()

	st := &instrumentState{iv: make(map[string]*IVContext)}
	st.result.Instrument = "NIFTY"
	cfg := testSettings()
	base := time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC)

	st.result.PrimarySignal = models.SignalNeutral
	p.onTransition(st, base, cfg)
	select {
	case sig := <-notifier.calls:
		if sig != models.SignalNeutral {
			t.Fatalf("dispatched %q, want %q", sig, models.SignalNeutral)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("first transition not dispatched")
	}

	// A second transition 30s later lands inside the debounce window.
	st.result.PrimarySignal = models.SignalBullish
	p.onTransition(st, base.Add(30*time.Second), cfg)
	select {
	case sig := <-notifier.calls:
		t.Fatalf("debounced transition dispatched: %q", sig)
	case <-time.After(200 * time.Millisecond):
	}

	// 70s after the (suppressed) second transition the window has passed.
	st.result.PrimarySignal = models.SignalBearish
	p.onTransition(st, base.Add(100*time.Second), cfg)
	select {
	case sig := <-notifier.calls:
		if sig != models.SignalBearish {
			t.Fatalf("dispatched %q, want %q", sig, models.SignalBearish)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("post-window transition not dispatched")
	}
}

func TestApplyUpdatesLatestDuringDebounce(t *testing.T) {
	p := New(stubSettings{testSettings()}, nopMetrics{}, applogger.Nop(), 1, 1)
	st := &instrumentState{iv: make(map[string]*IVContext)}
	st.result.Instrument = "NIFTY"
	base := time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC)
	ctx := context.Background()

	// Establish a VWAP at 100, then trade above it for a bullish read.
	p.apply(ctx, st, tick("NIFTY", base, 100, 100))
	p.apply(ctx, st, tick("NIFTY", base.Add(time.Second), 105, 1))

	res, ok := p.Latest("NIFTY")
	if !ok {
		t.Fatalf("no latest snapshot")
	}
	if res.PrimarySignal != models.SignalBullish {
		t.Fatalf("signal = %q, want %q", res.PrimarySignal, models.SignalBullish)
	}

	// Flip bearish 10s later: still inside the debounce window, but the
	// snapshot must reflect the new assessment immediately.
	p.apply(ctx, st, tick("NIFTY", base.Add(10*time.Second), 80, 1))
	res, ok = p.Latest("NIFTY")
	if !ok {
		t.Fatalf("no latest snapshot")
	}
	if res.PrimarySignal != models.SignalBearish {
		t.Fatalf("signal = %q, want %q", res.PrimarySignal, models.SignalBearish)
	}
	if res.PreviousSignal != models.SignalBullish {
		t.Fatalf("previous = %q, want %q", res.PreviousSignal, models.SignalBullish)
	}
}

func TestApplyDayRollResetsSession(t *testing.T) {
	p := New(stubSettings{testSettings()}, nopMetrics{}, applogger.Nop(), 1, 1)
	st := &instrumentState{iv: make(map[string]*IVContext)}
	st.result.Instrument = "NIFTY"
	ctx := context.Background()

	day1 := time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC)
	p.apply(ctx, st, tick("NIFTY", day1, 100, 10))
	p.apply(ctx, st, tick("NIFTY", day1.Add(time.Minute), 102, 10))

	day2 := day1.Add(24 * time.Hour)
	p.apply(ctx, st, tick("NIFTY", day2, 110, 10))

	res, _ := p.Latest("NIFTY")
	if res.VWAP != 110 {
		t.Fatalf("vwap = %v, want fresh 110", res.VWAP)
	}
	if res.PrevClose != 102 {
		t.Fatalf("prev close = %v, want 102", res.PrevClose)
	}
	if len(st.history) != 1 {
		t.Fatalf("history = %d profiles, want 1 finalized", len(st.history))
	}
	if !st.history[0].Finalized() {
		t.Fatalf("prior session not finalized")
	}
}

func TestProcessRoutesByInstrument(t *testing.T) {
	p := New(stubSettings{testSettings()}, nopMetrics{}, applogger.Nop(), 4, 1)
	a := p.shardFor("NIFTY")
	b := p.shardFor("NIFTY")
	if a != b {
		t.Fatalf("shard not stable: %d != %d", a, b)
	}
	if a < 0 || a >= len(p.shards) {
		t.Fatalf("shard out of range: %d", a)
	}
}
