package engine

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"TapeLens/internal/domain/models"
	"TapeLens/internal/domain/repository"
	applogger "TapeLens/pkg/logger"
	"TapeLens/pkg/queue"
)

// instrumentState is the exclusive per-instrument state bundle. It is only
// ever touched by the shard goroutine that owns the instrument.
type instrumentState struct {
	agg        Aggregator
	candles    []models.Candle // last element is the forming candle
	bucket     time.Time
	sessionDay time.Time

	profile *SessionProfile
	history []*SessionProfile

	iv    map[string]*IVContext
	rules RuleState

	result         models.AnalysisResult
	dayHigh        float64
	dayLow         float64
	prevClose      float64
	lastTransition time.Time
}

// Pipeline drives the full tick-to-assessment path. Instruments are sharded
// across workers; ticks for one instrument are always applied in arrival
// order by a single goroutine, so the core needs no per-field locking.
type Pipeline struct {
	settings repository.SettingsProvider
	ivStore  repository.HistoricalIVStore
	siglog   repository.SignalLogger
	notifier repository.Notifier
	metrics  repository.Metrics
	log      *applogger.Logger
	pool     *queue.Pool

	shards []*shard

	// latest readable snapshots for the API; written by shard goroutines.
	latest sync.Map // instrument -> *models.AnalysisResult
}

type shard struct {
	in     chan *models.Tick
	states map[string]*instrumentState
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithSignalLogger sets the audit logger for signal transitions.
func WithSignalLogger(l repository.SignalLogger) Option {
	return func(p *Pipeline) { p.siglog = l }
}

// WithNotifier sets the outbound notifier for signal transitions.
func WithNotifier(n repository.Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithIVStore sets the historical IV range store.
func WithIVStore(s repository.HistoricalIVStore) Option {
	return func(p *Pipeline) { p.ivStore = s }
}

// New creates a pipeline with the given shard count.
func New(settings repository.SettingsProvider, metrics repository.Metrics, log *applogger.Logger, shardCount, notifyWorkers int, opts ...Option) *Pipeline {
	if shardCount <= 0 {
		shardCount = 4
	}
	p := &Pipeline{
		settings: settings,
		metrics:  metrics,
		log:      log,
		pool:     queue.NewPool(notifyWorkers, 512),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.shards = make([]*shard, shardCount)
	for i := range p.shards {
		p.shards[i] = &shard{
			in:     make(chan *models.Tick, 1024),
			states: make(map[string]*instrumentState),
		}
	}
	return p
}

// Start launches the shard workers and the notify pool.
func (p *Pipeline) Start(ctx context.Context) {
	p.pool.Start(ctx)
	for _, s := range p.shards {
		go p.run(ctx, s)
	}
}

// Stop drains the notify pool.
func (p *Pipeline) Stop() { p.pool.Stop() }

// Process routes a tick to its shard. The send preserves per-instrument
// arrival order; different instruments may progress in parallel.
func (p *Pipeline) Process(ctx context.Context, t *models.Tick) error {
	if t == nil || t.Instrument == "" {
		return nil
	}
	s := p.shards[p.shardFor(t.Instrument)]
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.in <- t:
		return nil
	}
}

// Latest returns the most recent result snapshot for an instrument.
func (p *Pipeline) Latest(instrument string) (*models.AnalysisResult, bool) {
	v, ok := p.latest.Load(instrument)
	if !ok {
		return nil, false
	}
	return v.(*models.AnalysisResult), true
}

// Instruments lists instruments with at least one processed tick.
func (p *Pipeline) Instruments() []string {
	var out []string
	p.latest.Range(func(k, _ any) bool {
		out = append(out, k.(string))
		return true
	})
	return out
}

func (p *Pipeline) shardFor(instrument string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(instrument))
	return int(h.Sum32()) % len(p.shards)
}

func (p *Pipeline) run(ctx context.Context, s *shard) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.in:
			start := time.Now()
			st, ok := s.states[t.Instrument]
			if !ok {
				st = &instrumentState{iv: make(map[string]*IVContext)}
				st.result.Instrument = t.Instrument
				s.states[t.Instrument] = st
			}
			p.apply(ctx, st, t)
			p.metrics.RecordTick(t.Instrument)
			p.metrics.RecordLatency("tick_apply", time.Since(start).Seconds())
		}
	}
}

// apply is the synchronous tick-in to result-update path. Nothing here is
// fatal: every degenerate input resolves to a documented fallback value and
// the pipeline keeps processing subsequent ticks.
func (p *Pipeline) apply(ctx context.Context, st *instrumentState, t *models.Tick) {
	cfg := p.settings.Snapshot()
	p.rollSession(st, t, cfg)

	vwap := st.agg.Apply(t.LTP, t.Qty)
	p.rollCandle(st, t, cfg, vwap)

	if t.LTP > st.dayHigh {
		st.dayHigh = t.LTP
	}
	if st.dayLow == 0 || t.LTP < st.dayLow {
		st.dayLow = t.LTP
	}

	res := &st.result
	res.UpdatedAt = t.Timestamp
	res.LTP = t.LTP
	res.VWAP = vwap
	res.DayHigh = st.dayHigh
	res.DayLow = st.dayLow
	res.PrevClose = st.prevClose

	res.VolumeSignal = VolumeSignal(st.candles, cfg.VolumeHistoryLength, cfg.VolumeBurstMultiplier)
	res.OISignal = OISignal(st.candles)
	res.UpperBand, res.LowerBand, res.BandSignal = VWAPBands(st.candles, t.LTP, cfg.BandMultiplier)
	res.VWAPSignal = PriceVsVWAP(t.LTP, vwap)
	res.AnchoredVWAP = AnchoredVWAP(st.candles)
	res.PriceVsClose = PriceVsClose(t.LTP, st.prevClose)
	res.DayRangeSignal = DayRangeSignal(t.LTP, st.dayHigh, st.dayLow)

	closed := st.candles
	if len(closed) > 0 {
		closed = closed[:len(closed)-1]
	}
	res.EMAFast = EMA(closed, cfg.EMAFastPeriod)
	res.EMASlow = EMA(closed, cfg.EMASlowPeriod)
	res.EMASignal = emaSignal(res.EMAFast, res.EMASlow)
	res.RSI = RSI(closed, cfg.RSIPeriod)
	res.ATR = ATR(closed, cfg.ATRPeriod)

	if st.profile != nil {
		res.IBSignal = st.profile.ObservePrice(t.LTP, t.Timestamp)
		res.ProfileSignal = CompareWithPrior(st.profile, lastProfile(st.history))
	}
	res.Structure = ClassifyStructure(st.history)

	atKey := res.DayRangeSignal != SigMidRange ||
		res.BandSignal == SigAboveUpperBand || res.BandSignal == SigBelowLowerBand ||
		res.ProfileSignal == SigAbovePriorValue || res.ProfileSignal == SigBelowPriorValue
	res.Pattern = RecognizePattern(st.candles, atKey)

	if t.IV > 0 {
		p.observeIV(ctx, st, t)
	}
	res.IVSpike = cfg.IVSpikeThreshold > 0 && res.IVRank >= cfg.IVSpikeThreshold

	// re-arm the squeeze when the band width compresses against the VWAP
	if vwap > 0 && res.UpperBand > res.LowerBand {
		if (res.UpperBand-res.LowerBand)/vwap < cfg.SqueezeThreshold {
			st.rules.SqueezeArmed = true
		}
	}

	drivers := cfg.Drivers
	if len(drivers) == 0 {
		drivers = DefaultDrivers()
	}
	card := Score(res, &st.rules, drivers)
	changed := Synthesize(res, card, PhaseFor(t.Timestamp, cfg))

	p.metrics.RecordConviction(t.Instrument, res.ConvictionScore)
	p.latest.Store(t.Instrument, res.Snapshot())

	if changed {
		p.onTransition(st, t.Timestamp, cfg)
	}
}

// onTransition dispatches logger and notifier calls for a primary signal
// change, unless the previous transition for this instrument happened inside
// the debounce window. The result itself is already updated either way.
func (p *Pipeline) onTransition(st *instrumentState, ts time.Time, cfg repository.Settings) {
	inWindow := !st.lastTransition.IsZero() && ts.Sub(st.lastTransition) < cfg.DebounceWindow
	st.lastTransition = ts
	p.metrics.RecordSignal(st.result.Instrument, st.result.PrimarySignal)
	if inWindow {
		return
	}

	snap := st.result.Snapshot()
	prev := snap.PreviousSignal
	submitted := p.pool.Submit(func(ctx context.Context) {
		if p.siglog != nil {
			if err := p.siglog.Log(ctx, snap); err != nil {
				p.metrics.RecordError("signal_log")
				p.log.Warn("signal log failed", applogger.String("instrument", snap.Instrument), applogger.Error(err))
			}
		}
		if p.notifier != nil {
			if err := p.notifier.Notify(ctx, snap, prev); err != nil {
				p.metrics.RecordError("notify")
				p.log.Warn("notify failed", applogger.String("instrument", snap.Instrument), applogger.Error(err))
			}
		}
	})
	if !submitted {
		p.metrics.RecordError("notify_queue_full")
	}
}

func (p *Pipeline) observeIV(ctx context.Context, st *instrumentState, t *models.Tick) {
	key := IVKey(t)
	ivc, ok := st.iv[key]
	if !ok {
		ivc = NewIVContext(key)
		st.iv[key] = ivc
	}
	rank, err := ivc.Observe(ctx, p.ivStore, t.IV)
	if err != nil {
		p.metrics.RecordError("iv_store")
		p.log.Warn("iv store failed", applogger.String("key", key), applogger.Error(err))
	}
	st.result.IV = t.IV
	st.result.IVRank = rank
}

// rollSession finalizes the previous session profile on a new trading day
// and resets the per-session accumulators.
func (p *Pipeline) rollSession(st *instrumentState, t *models.Tick, cfg repository.Settings) {
	day := time.Date(t.Timestamp.Year(), t.Timestamp.Month(), t.Timestamp.Day(), 0, 0, 0, 0, t.Timestamp.Location())
	if st.sessionDay.Equal(day) {
		return
	}
	if st.profile != nil {
		st.profile.Finalize()
		st.history = append(st.history, st.profile)
		if len(st.history) > 10 {
			st.history = st.history[len(st.history)-10:]
		}
	}
	if n := len(st.candles); n > 0 {
		st.prevClose = st.candles[n-1].Close
	}
	st.sessionDay = day
	st.agg.Reset()
	st.candles = nil
	st.bucket = time.Time{}
	st.dayHigh, st.dayLow = 0, 0
	for _, ivc := range st.iv {
		ivc.Reset()
	}
	st.profile = NewSessionProfile(t.Instrument, cfg.TickSize, day.Add(cfg.SessionStart), cfg.IBDuration)
}

// rollCandle mutates the forming candle in place, closing it into the
// profile when the tick crosses a candle boundary.
func (p *Pipeline) rollCandle(st *instrumentState, t *models.Tick, cfg repository.Settings, vwap float64) {
	interval := cfg.CandleInterval
	if interval <= 0 {
		interval = time.Minute
	}
	bucket := t.Timestamp.Truncate(interval)
	if len(st.candles) == 0 || bucket.After(st.bucket) {
		if n := len(st.candles); n > 0 && st.profile != nil {
			st.profile.ApplyCandle(st.candles[n-1])
		}
		st.candles = append(st.candles, models.Candle{
			Timestamp: bucket,
			Open:      t.LTP,
			High:      t.LTP,
			Low:       t.LTP,
			Close:     t.LTP,
		})
		st.bucket = bucket
		if max := cfg.CandleHistoryLength; max > 0 && len(st.candles) > max {
			st.candles = st.candles[len(st.candles)-max:]
		}
	}
	c := &st.candles[len(st.candles)-1]
	if t.LTP > c.High {
		c.High = t.LTP
	}
	if t.LTP < c.Low {
		c.Low = t.LTP
	}
	c.Close = t.LTP
	if t.Qty > 0 {
		c.Volume += t.Qty
	}
	if t.OI > 0 {
		c.OpenInterest = t.OI
	}
	c.VWAP = vwap
	c.AnchoredVWAP = AnchoredVWAP(st.candles)
}

func emaSignal(fast, slow float64) string {
	switch {
	case fast == 0 || slow == 0:
		return models.BuildingHistory
	case fast > slow:
		return "Bullish Cross"
	case fast < slow:
		return "Bearish Cross"
	}
	return SigNeutral
}

func lastProfile(history []*SessionProfile) *SessionProfile {
	if len(history) == 0 {
		return nil
	}
	return history[len(history)-1]
}
