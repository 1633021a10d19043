package engine

import (
	"testing"

	"TapeLens/internal/domain/models"
)

func TestScoreSumsAndGroups(t *testing.T) {
	res := &models.AnalysisResult{
		VWAPSignal: SigAboveVWAP,
		IBSignal:   models.IBBreakout,
		OISignal:   SigLongBuildup,
	}
	drivers := []models.SignalDriver{
		{Name: "price_above_vwap", Weight: 2, Enabled: true},
		{Name: "ib_breakout", Weight: 3, Enabled: true},
		{Name: "long_buildup", Weight: 2, Enabled: true},
		{Name: "short_buildup", Weight: -2, Enabled: true}, // not triggered
	}
	var st RuleState
	card := Score(res, &st, drivers)
	if card.Total != 7 {
		t.Fatalf("total = %d, want 7", card.Total)
	}
	if card.StructureScore != 5 || card.MomentumScore != 2 {
		t.Fatalf("sub-scores = %d/%d, want 5/2", card.StructureScore, card.MomentumScore)
	}
	if len(card.BullishDrivers) != 3 || len(card.BearishDrivers) != 0 {
		t.Fatalf("drivers = %v / %v", card.BullishDrivers, card.BearishDrivers)
	}
	if card.BullishDrivers[0] != "price_above_vwap (+2)" {
		t.Fatalf("driver entry = %q", card.BullishDrivers[0])
	}
}

func TestScoreNegativeWeights(t *testing.T) {
	res := &models.AnalysisResult{VWAPSignal: SigBelowVWAP}
	drivers := []models.SignalDriver{
		{Name: "price_below_vwap", Weight: -2, Enabled: true},
	}
	var st RuleState
	card := Score(res, &st, drivers)
	if card.Total != -2 {
		t.Fatalf("total = %d, want -2", card.Total)
	}
	if len(card.BearishDrivers) != 1 || card.BearishDrivers[0] != "price_below_vwap (-2)" {
		t.Fatalf("bearish drivers = %v", card.BearishDrivers)
	}
}

func TestScoreSkipsDisabledAndUnknown(t *testing.T) {
	res := &models.AnalysisResult{VWAPSignal: SigAboveVWAP}
	drivers := []models.SignalDriver{
		{Name: "price_above_vwap", Weight: 2, Enabled: false},
		{Name: "no_such_rule", Weight: 5, Enabled: true},
		{Name: "ib_breakout", Weight: 0, Enabled: true},
	}
	var st RuleState
	card := Score(res, &st, drivers)
	if card.Total != 0 {
		t.Fatalf("total = %d, want 0", card.Total)
	}
}

func TestSqueezeBreakoutConsumesArm(t *testing.T) {
	res := &models.AnalysisResult{
		VWAPSignal:   SigAboveVWAP,
		VolumeSignal: SigVolumeBurst,
	}
	drivers := []models.SignalDriver{
		{Name: "squeeze_breakout_up", Weight: 2, Enabled: true},
	}
	st := RuleState{SqueezeArmed: true}

	card := Score(res, &st, drivers)
	if card.Total != 2 {
		t.Fatalf("armed total = %d, want 2", card.Total)
	}
	if st.SqueezeArmed {
		t.Fatalf("squeeze arm not consumed")
	}

	// Same conditions without re-arming contribute nothing.
	card = Score(res, &st, drivers)
	if card.Total != 0 {
		t.Fatalf("consumed total = %d, want 0", card.Total)
	}

	st.SqueezeArmed = true
	card = Score(res, &st, drivers)
	if card.Total != 2 {
		t.Fatalf("re-armed total = %d, want 2", card.Total)
	}
}

func TestPatternBias(t *testing.T) {
	cases := []struct {
		pattern string
		want    int
	}{
		{PatternHammer, 1},
		{PatternEngulfingBull + " (volume confirmed)", 1},
		{PatternShootingStar, -1},
		{PatternThreeCrows + " at key support/resistance", -1},
		{PatternDoji, 0},
		{PatternNone, 0},
		{models.BuildingHistory, 0},
	}
	for _, tc := range cases {
		if got := patternBias(tc.pattern); got != tc.want {
			t.Fatalf("patternBias(%q) = %d, want %d", tc.pattern, got, tc.want)
		}
	}
}

func TestDefaultDriversResolve(t *testing.T) {
	for _, d := range DefaultDrivers() {
		if _, ok := ruleCatalog[d.Name]; !ok {
			t.Fatalf("default driver %q has no catalog rule", d.Name)
		}
	}
}
