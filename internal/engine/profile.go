package engine

import (
	"math"
	"sort"
	"time"

	"TapeLens/internal/domain/models"
)

// tpoPeriod is the letter bucket width for TPO assignment.
const tpoPeriod = 30 * time.Minute

// valueAreaShare is the fraction of total activity inside the value area.
const valueAreaShare = 0.70

// ProfileLevels is a computed point-of-control with its value area bounds.
type ProfileLevels struct {
	POC float64
	VAH float64
	VAL float64
}

// SessionProfile is one instrument's intraday TPO and volume profile.
// Price levels are quantized to the tick grid via round-to-nearest; the map
// key is the integer level index so the grid never suffers float drift.
type SessionProfile struct {
	Instrument   string
	TickSize     float64
	SessionStart time.Time
	IBEnd        time.Time

	tpoLevels    map[int64]string // level -> ordered period letters
	volumeLevels map[int64]float64

	IBHigh float64
	IBLow  float64
	IBSet  bool

	ibState   models.IBState
	latchUp   bool
	latchDown bool

	finalized   bool
	finalTPO    ProfileLevels
	finalVolume ProfileLevels
}

// NewSessionProfile creates a profile at session start. The initial balance
// window is sessionStart + ibDuration.
func NewSessionProfile(instrument string, tickSize float64, sessionStart time.Time, ibDuration time.Duration) *SessionProfile {
	if tickSize <= 0 {
		tickSize = 0.05
	}
	return &SessionProfile{
		Instrument:   instrument,
		TickSize:     tickSize,
		SessionStart: sessionStart,
		IBEnd:        sessionStart.Add(ibDuration),
		tpoLevels:    make(map[int64]string),
		volumeLevels: make(map[int64]float64),
		IBLow:        math.Inf(1),
		IBHigh:       math.Inf(-1),
		ibState:      models.IBForming,
	}
}

func (p *SessionProfile) level(price float64) int64 {
	return int64(math.Round(price / p.TickSize))
}

func (p *SessionProfile) price(level int64) float64 {
	return float64(level) * p.TickSize
}

// periodLetter maps elapsed session time to a letter bucket A, B, C, ...
// Buckets never regress because candles arrive in timestamp order.
func (p *SessionProfile) periodLetter(ts time.Time) byte {
	elapsed := ts.Sub(p.SessionStart)
	if elapsed < 0 {
		elapsed = 0
	}
	idx := int(elapsed / tpoPeriod)
	if idx > 25 {
		idx = 25
	}
	return byte('A' + idx)
}

// ApplyCandle folds one closed candle into the profile: extends the initial
// balance while its window is open, then stamps the candle's period letter
// and volume across every tick-sized level in [low, high].
func (p *SessionProfile) ApplyCandle(c models.Candle) {
	if p.finalized {
		return
	}
	if !p.IBSet {
		if c.Timestamp.Before(p.IBEnd) {
			if c.High > p.IBHigh {
				p.IBHigh = c.High
			}
			if c.Low < p.IBLow {
				p.IBLow = c.Low
			}
		} else {
			p.freezeIB()
		}
	}

	letter := p.periodLetter(c.Timestamp)
	lo, hi := p.level(c.Low), p.level(c.High)
	for lv := lo; lv <= hi; lv++ {
		letters := p.tpoLevels[lv]
		// a period letter is added at most once per price level
		if len(letters) == 0 || letters[len(letters)-1] != letter {
			p.tpoLevels[lv] = letters + string(letter)
		}
		p.volumeLevels[lv] += c.Volume
	}
}

func (p *SessionProfile) freezeIB() {
	if math.IsInf(p.IBLow, 1) || math.IsInf(p.IBHigh, -1) {
		// no candles traded inside the window; leave unset
		return
	}
	p.IBSet = true
	p.ibState = models.IBInside
}

// ObservePrice advances the latched initial-balance breakout state machine.
// The Breakout/Breakdown transition fires exactly once; later crossings while
// latched report Extension instead, and Inside is never re-entered once a
// latch is set.
func (p *SessionProfile) ObservePrice(ltp float64, ts time.Time) models.IBState {
	if !p.IBSet {
		if !ts.Before(p.IBEnd) {
			p.freezeIB()
		}
		if !p.IBSet {
			return models.IBForming
		}
	}
	switch {
	case ltp > p.IBHigh:
		if !p.latchUp {
			p.latchUp = true
			p.ibState = models.IBBreakout
		} else {
			p.ibState = models.IBExtensionUp
		}
	case ltp < p.IBLow:
		if !p.latchDown {
			p.latchDown = true
			p.ibState = models.IBBreakdown
		} else {
			p.ibState = models.IBExtensionDown
		}
	default:
		if !p.latchUp && !p.latchDown {
			p.ibState = models.IBInside
		}
	}
	return p.ibState
}

// IBState returns the current latched breakout state without advancing it.
func (p *SessionProfile) IBState() models.IBState { return p.ibState }

// DevelopingTPO returns the developing TPO point of control and value area.
func (p *SessionProfile) DevelopingTPO() ProfileLevels {
	if p.finalized {
		return p.finalTPO
	}
	counts := make(map[int64]float64, len(p.tpoLevels))
	for lv, letters := range p.tpoLevels {
		counts[lv] = float64(len(letters))
	}
	return p.valueArea(counts)
}

// DevelopingVolume returns the developing volume point of control and value area.
func (p *SessionProfile) DevelopingVolume() ProfileLevels {
	if p.finalized {
		return p.finalVolume
	}
	return p.valueArea(p.volumeLevels)
}

// valueArea finds the highest-count level (POC) and expands outward, taking
// the heavier neighbor first, until the configured share of total activity
// is inside the area.
func (p *SessionProfile) valueArea(counts map[int64]float64) ProfileLevels {
	if len(counts) == 0 {
		return ProfileLevels{}
	}
	levels := make([]int64, 0, len(counts))
	var total float64
	for lv, n := range counts {
		levels = append(levels, lv)
		total += n
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	pocIdx := 0
	for i, lv := range levels {
		if counts[lv] > counts[levels[pocIdx]] {
			pocIdx = i
		}
	}

	lo, hi := pocIdx, pocIdx
	acc := counts[levels[pocIdx]]
	for acc < total*valueAreaShare && (lo > 0 || hi < len(levels)-1) {
		var below, above float64 = -1, -1
		if lo > 0 {
			below = counts[levels[lo-1]]
		}
		if hi < len(levels)-1 {
			above = counts[levels[hi+1]]
		}
		if above >= below {
			hi++
			acc += above
		} else {
			lo--
			acc += below
		}
	}
	return ProfileLevels{
		POC: p.price(levels[pocIdx]),
		VAH: p.price(levels[hi]),
		VAL: p.price(levels[lo]),
	}
}

// Finalize freezes the profile at session end and caches its levels.
func (p *SessionProfile) Finalize() {
	if p.finalized {
		return
	}
	if !p.IBSet {
		p.freezeIB()
	}
	p.finalTPO = p.DevelopingTPO()
	p.finalVolume = p.DevelopingVolume()
	p.finalized = true
}

// Finalized reports whether the profile has been frozen.
func (p *SessionProfile) Finalized() bool { return p.finalized }

// TPOLetters returns the letter string recorded at a price, for inspection.
func (p *SessionProfile) TPOLetters(price float64) string {
	return p.tpoLevels[p.level(price)]
}

// VolumeAt returns the accumulated volume at a price level.
func (p *SessionProfile) VolumeAt(price float64) float64 {
	return p.volumeLevels[p.level(price)]
}

// Profile acceptance labels relative to the prior session's value area.
const (
	SigAbovePriorValue  = "Accepting Above Prior Value"
	SigBelowPriorValue  = "Accepting Below Prior Value"
	SigInsidePriorValue = "Overlapping Prior Value"
)

// CompareWithPrior relates the developing value area to the prior completed
// session's value area.
func CompareWithPrior(current, prior *SessionProfile) string {
	if current == nil || prior == nil {
		return models.BuildingHistory
	}
	dev := current.DevelopingTPO()
	pv := prior.DevelopingTPO()
	if dev.POC == 0 || pv.POC == 0 {
		return models.BuildingHistory
	}
	switch {
	case dev.VAL > pv.VAH:
		return SigAbovePriorValue
	case dev.VAH < pv.VAL:
		return SigBelowPriorValue
	}
	return SigInsidePriorValue
}

// ClassifyStructure looks at the most recent three finalized sessions and
// labels the tape trending when the value area stepped in the same direction
// twice in a row, by POC separation or outright value-area separation.
func ClassifyStructure(history []*SessionProfile) models.MarketStructure {
	if len(history) < 3 {
		return models.StructureBuildingHistory
	}
	last := history[len(history)-3:]
	up, down := 0, 0
	for i := 1; i < len(last); i++ {
		cur := last[i].DevelopingTPO()
		prev := last[i-1].DevelopingTPO()
		switch {
		case cur.VAL > prev.VAH || cur.POC > prev.VAH:
			up++
		case cur.VAH < prev.VAL || cur.POC < prev.VAL:
			down++
		}
	}
	switch {
	case up == 2:
		return models.StructureTrendingUp
	case down == 2:
		return models.StructureTrendingDown
	}
	return models.StructureBalancing
}
