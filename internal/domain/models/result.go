package models

import "time"

// AnalysisResult is the per-instrument aggregate output of the pipeline.
// One owner (the pipeline shard) mutates it in place per tick; external
// collaborators receive read-only snapshots.
type AnalysisResult struct {
	Instrument string
	UpdatedAt  time.Time
	Phase      MarketPhase

	// Price readings
	LTP           float64
	VWAP          float64
	UpperBand     float64
	LowerBand     float64
	AnchoredVWAP  float64
	DayHigh       float64
	DayLow        float64
	PrevClose     float64
	EMAFast       float64
	EMASlow       float64
	RSI           float64
	ATR           float64
	IV            float64
	IVRank        float64
	IVSpike       bool // IV rank at or above the configured spike threshold

	// Classified signals
	VolumeSignal   string
	OISignal       string
	VWAPSignal     string
	BandSignal     string
	PriceVsClose   string
	DayRangeSignal string
	EMASignal      string
	Pattern        string
	IBSignal       IBState
	ProfileSignal  string // developing value area vs prior session VAH

	// Synthesis
	Structure       MarketStructure
	DominantPlayer  DominantPlayer
	Thesis          MarketThesis
	Playbook        string
	ConvictionScore float64
	StructureScore  int
	MomentumScore   int
	BullishDrivers  []string
	BearishDrivers  []string

	PrimarySignal  string
	PreviousSignal string
}

// Snapshot returns a copy safe to hand to external collaborators while the
// pipeline keeps mutating the original.
func (r *AnalysisResult) Snapshot() *AnalysisResult {
	cp := *r
	cp.BullishDrivers = append([]string(nil), r.BullishDrivers...)
	cp.BearishDrivers = append([]string(nil), r.BearishDrivers...)
	return &cp
}
