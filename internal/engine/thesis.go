package engine

import (
	"time"

	"TapeLens/internal/domain/models"
	"TapeLens/internal/domain/repository"
)

// Playbook labels derived from the dampened conviction score.
const (
	PlaybookStrongBullish   = "Strong Bullish"
	PlaybookModerateBullish = "Moderate Bullish"
	PlaybookStrongBearish   = "Strong Bearish"
	PlaybookModerateBearish = "Moderate Bearish"
	PlaybookObserve         = "Neutral/Observe"
	PlaybookChoppy          = "Choppy/Conflicting"
)

const (
	strongThreshold   = 7
	moderateThreshold = 3
	weakSubScore      = 2
	divergenceLimit   = 4
	openingDampening  = 0.5
)

// DominantVote counts bullish vs bearish corroborating evidence (VWAP side,
// EMA cross, OI regime). The majority wins; a tie is Balance.
func DominantVote(res *models.AnalysisResult) models.DominantPlayer {
	bulls, bears := 0, 0
	switch res.VWAPSignal {
	case SigAboveVWAP:
		bulls++
	case SigBelowVWAP:
		bears++
	}
	if res.EMAFast > 0 && res.EMASlow > 0 {
		if res.EMAFast > res.EMASlow {
			bulls++
		} else if res.EMAFast < res.EMASlow {
			bears++
		}
	}
	switch res.OISignal {
	case SigLongBuildup, SigShortCovering:
		bulls++
	case SigShortBuildup, SigLongUnwinding:
		bears++
	}
	switch {
	case bulls > bears:
		return models.PlayerBuyers
	case bears > bulls:
		return models.PlayerSellers
	}
	return models.PlayerBalance
}

// Synthesize maps structure and dominant-player evidence into a thesis,
// applies phase dampening and chop detection, and derives the playbook and
// primary signal. It mutates the result in place and returns true when the
// primary signal label changed.
func Synthesize(res *models.AnalysisResult, card Scorecard, phase models.MarketPhase) bool {
	res.Phase = phase
	res.StructureScore = card.StructureScore
	res.MomentumScore = card.MomentumScore
	res.BullishDrivers = card.BullishDrivers
	res.BearishDrivers = card.BearishDrivers
	res.DominantPlayer = DominantVote(res)

	score := float64(card.Total)
	if phase == models.PhaseOpening {
		score *= openingDampening
	}
	res.ConvictionScore = score

	if isChop(card.StructureScore, card.MomentumScore) {
		res.Thesis = models.ThesisChoppy
		res.Playbook = PlaybookChoppy
		return setSignal(res, models.SignalNeutral)
	}

	res.Thesis = thesisFor(res.Structure, res.DominantPlayer)
	res.Playbook = playbookFor(score)

	switch {
	case score >= moderateThreshold:
		return setSignal(res, models.SignalBullish)
	case score <= -moderateThreshold:
		return setSignal(res, models.SignalBearish)
	}
	return setSignal(res, models.SignalNeutral)
}

// isChop flags conflicting tape: both sub-scores individually weak, or the
// two disagreeing in sign beyond the divergence limit.
func isChop(structure, momentum int) bool {
	absS, absM := structure, momentum
	if absS < 0 {
		absS = -absS
	}
	if absM < 0 {
		absM = -absM
	}
	if absS <= weakSubScore && absM <= weakSubScore {
		return true
	}
	if (structure > 0) != (momentum > 0) && structure != 0 && momentum != 0 {
		d := structure - momentum
		if d < 0 {
			d = -d
		}
		if d > divergenceLimit {
			return true
		}
	}
	return false
}

func thesisFor(structure models.MarketStructure, player models.DominantPlayer) models.MarketThesis {
	switch player {
	case models.PlayerBuyers:
		if structure == models.StructureTrendingUp {
			return models.ThesisBullishTrend
		}
		return models.ThesisBullishRotation
	case models.PlayerSellers:
		if structure == models.StructureTrendingDown {
			return models.ThesisBearishTrend
		}
		return models.ThesisBearishRotation
	}
	return models.ThesisBalancing
}

func playbookFor(score float64) string {
	switch {
	case score >= strongThreshold:
		return PlaybookStrongBullish
	case score >= moderateThreshold:
		return PlaybookModerateBullish
	case score <= -strongThreshold:
		return PlaybookStrongBearish
	case score <= -moderateThreshold:
		return PlaybookModerateBearish
	}
	return PlaybookObserve
}

func setSignal(res *models.AnalysisResult, signal string) bool {
	if res.PrimarySignal == signal {
		return false
	}
	res.PreviousSignal = res.PrimarySignal
	res.PrimarySignal = signal
	return true
}

// PhaseFor buckets a timestamp into the coarse session phase.
func PhaseFor(ts time.Time, s repository.Settings) models.MarketPhase {
	sinceMidnight := time.Duration(ts.Hour())*time.Hour +
		time.Duration(ts.Minute())*time.Minute +
		time.Duration(ts.Second())*time.Second
	switch {
	case sinceMidnight < s.SessionStart:
		return models.PhasePreOpen
	case sinceMidnight < s.SessionStart+s.OpeningWindow:
		return models.PhaseOpening
	case sinceMidnight >= s.SessionEnd-s.ClosingWindow:
		return models.PhaseClosing
	}
	return models.PhaseNormal
}
