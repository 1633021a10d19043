package engine

import (
	"fmt"
	"strings"

	"TapeLens/internal/domain/models"
)

// Rule groups used for the structure/momentum sub-score accounting.
const (
	GroupStructure    = "structure"
	GroupMomentum     = "momentum"
	GroupConfirmation = "confirmation"
)

// RuleState carries the per-instrument flags that stateful rules consume.
type RuleState struct {
	SqueezeArmed bool
}

// Rule is one confluence condition. Pure predicate rules only read the
// result; consuming rules may also clear flags in the rule state, which is
// the documented exception to otherwise pure evaluation.
type Rule interface {
	Name() string
	Group() string
	Evaluate(res *models.AnalysisResult, st *RuleState) bool
}

type predicateRule struct {
	name  string
	group string
	pred  func(*models.AnalysisResult) bool
}

func (r predicateRule) Name() string  { return r.name }
func (r predicateRule) Group() string { return r.group }
func (r predicateRule) Evaluate(res *models.AnalysisResult, _ *RuleState) bool {
	return r.pred(res)
}

type consumingRule struct {
	name  string
	group string
	pred  func(*models.AnalysisResult, *RuleState) bool
}

func (r consumingRule) Name() string  { return r.name }
func (r consumingRule) Group() string { return r.group }
func (r consumingRule) Evaluate(res *models.AnalysisResult, st *RuleState) bool {
	return r.pred(res, st)
}

// ruleCatalog maps driver names from configuration to their conditions.
// A configured driver with no catalog entry is skipped (treated as disabled).
var ruleCatalog = buildCatalog()

func buildCatalog() map[string]Rule {
	cat := map[string]Rule{}
	add := func(name, group string, pred func(*models.AnalysisResult) bool) {
		cat[name] = predicateRule{name: name, group: group, pred: pred}
	}

	// structure
	add("price_above_vwap", GroupStructure, func(r *models.AnalysisResult) bool {
		return r.VWAPSignal == SigAboveVWAP
	})
	add("price_below_vwap", GroupStructure, func(r *models.AnalysisResult) bool {
		return r.VWAPSignal == SigBelowVWAP
	})
	add("above_upper_band", GroupStructure, func(r *models.AnalysisResult) bool {
		return r.BandSignal == SigAboveUpperBand
	})
	add("below_lower_band", GroupStructure, func(r *models.AnalysisResult) bool {
		return r.BandSignal == SigBelowLowerBand
	})
	add("ib_breakout", GroupStructure, func(r *models.AnalysisResult) bool {
		return r.IBSignal == models.IBBreakout || r.IBSignal == models.IBExtensionUp
	})
	add("ib_breakdown", GroupStructure, func(r *models.AnalysisResult) bool {
		return r.IBSignal == models.IBBreakdown || r.IBSignal == models.IBExtensionDown
	})
	add("accepting_above_value", GroupStructure, func(r *models.AnalysisResult) bool {
		return r.ProfileSignal == SigAbovePriorValue
	})
	add("accepting_below_value", GroupStructure, func(r *models.AnalysisResult) bool {
		return r.ProfileSignal == SigBelowPriorValue
	})
	add("structure_trending_up", GroupStructure, func(r *models.AnalysisResult) bool {
		return r.Structure == models.StructureTrendingUp
	})
	add("structure_trending_down", GroupStructure, func(r *models.AnalysisResult) bool {
		return r.Structure == models.StructureTrendingDown
	})
	add("day_range_near_high", GroupStructure, func(r *models.AnalysisResult) bool {
		return r.DayRangeSignal == SigNearHigh
	})
	add("day_range_near_low", GroupStructure, func(r *models.AnalysisResult) bool {
		return r.DayRangeSignal == SigNearLow
	})

	// momentum
	add("volume_burst_up", GroupMomentum, func(r *models.AnalysisResult) bool {
		return r.VolumeSignal == SigVolumeBurst && r.PriceVsClose == SigAbovePrevClose
	})
	add("volume_burst_down", GroupMomentum, func(r *models.AnalysisResult) bool {
		return r.VolumeSignal == SigVolumeBurst && r.PriceVsClose == SigBelowPrevClose
	})
	add("long_buildup", GroupMomentum, func(r *models.AnalysisResult) bool {
		return r.OISignal == SigLongBuildup
	})
	add("short_buildup", GroupMomentum, func(r *models.AnalysisResult) bool {
		return r.OISignal == SigShortBuildup
	})
	add("short_covering", GroupMomentum, func(r *models.AnalysisResult) bool {
		return r.OISignal == SigShortCovering
	})
	add("long_unwinding", GroupMomentum, func(r *models.AnalysisResult) bool {
		return r.OISignal == SigLongUnwinding
	})
	add("ema_bullish", GroupMomentum, func(r *models.AnalysisResult) bool {
		return r.EMAFast > 0 && r.EMASlow > 0 && r.EMAFast > r.EMASlow
	})
	add("ema_bearish", GroupMomentum, func(r *models.AnalysisResult) bool {
		return r.EMAFast > 0 && r.EMASlow > 0 && r.EMAFast < r.EMASlow
	})
	add("rsi_strong", GroupMomentum, func(r *models.AnalysisResult) bool {
		return r.RSI >= 60
	})
	add("rsi_weak", GroupMomentum, func(r *models.AnalysisResult) bool {
		return r.RSI > 0 && r.RSI <= 40
	})

	// confirmation
	add("bullish_pattern", GroupConfirmation, func(r *models.AnalysisResult) bool {
		return patternBias(r.Pattern) > 0
	})
	add("bearish_pattern", GroupConfirmation, func(r *models.AnalysisResult) bool {
		return patternBias(r.Pattern) < 0
	})
	add("iv_elevated", GroupConfirmation, func(r *models.AnalysisResult) bool {
		return r.IVSpike
	})

	// stateful: a squeeze breakout fires once per armed squeeze and clears
	// the flag; it cannot re-fire until the squeeze is re-armed externally.
	cat["squeeze_breakout_up"] = consumingRule{
		name: "squeeze_breakout_up", group: GroupMomentum,
		pred: func(r *models.AnalysisResult, st *RuleState) bool {
			if st.SqueezeArmed && r.VWAPSignal == SigAboveVWAP && r.VolumeSignal == SigVolumeBurst {
				st.SqueezeArmed = false
				return true
			}
			return false
		},
	}
	cat["squeeze_breakout_down"] = consumingRule{
		name: "squeeze_breakout_down", group: GroupMomentum,
		pred: func(r *models.AnalysisResult, st *RuleState) bool {
			if st.SqueezeArmed && r.VWAPSignal == SigBelowVWAP && r.VolumeSignal == SigVolumeBurst {
				st.SqueezeArmed = false
				return true
			}
			return false
		},
	}
	return cat
}

func patternBias(pattern string) int {
	switch {
	case pattern == "" || pattern == PatternNone || pattern == models.BuildingHistory:
		return 0
	case strings.HasPrefix(pattern, PatternHammer),
		strings.HasPrefix(pattern, PatternInvertedHammer),
		strings.HasPrefix(pattern, PatternMarubozuBull),
		strings.HasPrefix(pattern, PatternEngulfingBull),
		strings.HasPrefix(pattern, PatternPiercingLine),
		strings.HasPrefix(pattern, PatternMorningStar),
		strings.HasPrefix(pattern, PatternThreeSoldiers):
		return 1
	case strings.HasPrefix(pattern, PatternHangingMan),
		strings.HasPrefix(pattern, PatternShootingStar),
		strings.HasPrefix(pattern, PatternMarubozuBear),
		strings.HasPrefix(pattern, PatternEngulfingBear),
		strings.HasPrefix(pattern, PatternDarkCloud),
		strings.HasPrefix(pattern, PatternEveningStar),
		strings.HasPrefix(pattern, PatternThreeCrows):
		return -1
	}
	return 0
}

// Scorecard is the outcome of one confluence pass.
type Scorecard struct {
	Total          int
	StructureScore int
	MomentumScore  int
	BullishDrivers []string
	BearishDrivers []string
}

// Score evaluates the configured weighted rule set against the result.
// Each enabled rule whose condition holds contributes its signed weight;
// triggered rule names are collected into the ordered driver lists.
func Score(res *models.AnalysisResult, st *RuleState, drivers []models.SignalDriver) Scorecard {
	var card Scorecard
	for _, d := range drivers {
		if !d.Enabled || d.Weight == 0 {
			continue
		}
		rule, ok := ruleCatalog[d.Name]
		if !ok {
			continue // unknown rule name: treated as disabled
		}
		if !rule.Evaluate(res, st) {
			continue
		}
		card.Total += d.Weight
		switch rule.Group() {
		case GroupStructure:
			card.StructureScore += d.Weight
		case GroupMomentum:
			card.MomentumScore += d.Weight
		}
		entry := fmt.Sprintf("%s (%+d)", d.Name, d.Weight)
		if d.Weight > 0 {
			card.BullishDrivers = append(card.BullishDrivers, entry)
		} else {
			card.BearishDrivers = append(card.BearishDrivers, entry)
		}
	}
	return card
}

// DefaultDrivers is the weighted rule set used when no configuration is
// supplied by the settings provider.
func DefaultDrivers() []models.SignalDriver {
	return []models.SignalDriver{
		{Name: "price_above_vwap", Weight: 2, Group: GroupStructure, Enabled: true},
		{Name: "price_below_vwap", Weight: -2, Group: GroupStructure, Enabled: true},
		{Name: "above_upper_band", Weight: 1, Group: GroupStructure, Enabled: true},
		{Name: "below_lower_band", Weight: -1, Group: GroupStructure, Enabled: true},
		{Name: "ib_breakout", Weight: 3, Group: GroupStructure, Enabled: true},
		{Name: "ib_breakdown", Weight: -3, Group: GroupStructure, Enabled: true},
		{Name: "accepting_above_value", Weight: 2, Group: GroupStructure, Enabled: true},
		{Name: "accepting_below_value", Weight: -2, Group: GroupStructure, Enabled: true},
		{Name: "structure_trending_up", Weight: 2, Group: GroupStructure, Enabled: true},
		{Name: "structure_trending_down", Weight: -2, Group: GroupStructure, Enabled: true},
		{Name: "day_range_near_high", Weight: 1, Group: GroupStructure, Enabled: true},
		{Name: "day_range_near_low", Weight: -1, Group: GroupStructure, Enabled: true},
		{Name: "volume_burst_up", Weight: 2, Group: GroupMomentum, Enabled: true},
		{Name: "volume_burst_down", Weight: -2, Group: GroupMomentum, Enabled: true},
		{Name: "long_buildup", Weight: 2, Group: GroupMomentum, Enabled: true},
		{Name: "short_buildup", Weight: -2, Group: GroupMomentum, Enabled: true},
		{Name: "short_covering", Weight: 1, Group: GroupMomentum, Enabled: true},
		{Name: "long_unwinding", Weight: -1, Group: GroupMomentum, Enabled: true},
		{Name: "ema_bullish", Weight: 1, Group: GroupMomentum, Enabled: true},
		{Name: "ema_bearish", Weight: -1, Group: GroupMomentum, Enabled: true},
		{Name: "squeeze_breakout_up", Weight: 2, Group: GroupMomentum, Enabled: true},
		{Name: "squeeze_breakout_down", Weight: -2, Group: GroupMomentum, Enabled: true},
		{Name: "bullish_pattern", Weight: 1, Group: GroupConfirmation, Enabled: true},
		{Name: "bearish_pattern", Weight: -1, Group: GroupConfirmation, Enabled: true},
	}
}
