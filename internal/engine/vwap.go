package engine

import "TapeLens/internal/domain/models"

// Aggregator maintains the running VWAP accumulators for one instrument.
// State is owned by the pipeline shard; no locking here.
type Aggregator struct {
	state models.TickState
}

// Apply folds one trade into the accumulators and returns the updated VWAP.
// Zero or negative quantity contributes nothing: upstream feeds occasionally
// emit snapshot ticks without traded quantity and those must not move the VWAP.
func (a *Aggregator) Apply(price, qty float64) float64 {
	if qty > 0 && price > 0 {
		a.state.CumPriceVolume += price * qty
		a.state.CumVolume += qty
	}
	return a.VWAP()
}

// VWAP returns cumulative price*volume over cumulative volume, or 0 when no
// volume has traded yet.
func (a *Aggregator) VWAP() float64 {
	if a.state.CumVolume == 0 {
		return 0
	}
	return a.state.CumPriceVolume / a.state.CumVolume
}

// CumVolume returns the session cumulative traded volume.
func (a *Aggregator) CumVolume() float64 { return a.state.CumVolume }

// Reset clears the accumulators at session start.
func (a *Aggregator) Reset() { a.state = models.TickState{} }
