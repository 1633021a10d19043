package engine

import (
	"testing"
	"time"

	"TapeLens/internal/domain/models"
	"TapeLens/internal/domain/repository"
)

func TestSynthesizeChopOnWeakSubScores(t *testing.T) {
	res := &models.AnalysisResult{}
	card := Scorecard{Total: 2, StructureScore: 1, MomentumScore: 1}
	changed := Synthesize(res, card, models.PhaseNormal)

	if res.Thesis != models.ThesisChoppy {
		t.Fatalf("thesis = %v, want %v", res.Thesis, models.ThesisChoppy)
	}
	if res.Playbook != PlaybookChoppy {
		t.Fatalf("playbook = %q, want %q", res.Playbook, PlaybookChoppy)
	}
	if res.PrimarySignal != models.SignalNeutral {
		t.Fatalf("signal = %q, want %q", res.PrimarySignal, models.SignalNeutral)
	}
	if !changed {
		t.Fatalf("expected initial transition to neutral")
	}
}

func TestSynthesizeChopOnDivergence(t *testing.T) {
	res := &models.AnalysisResult{}
	card := Scorecard{Total: 2, StructureScore: 5, MomentumScore: -3}
	Synthesize(res, card, models.PhaseNormal)
	if res.Thesis != models.ThesisChoppy {
		t.Fatalf("thesis = %v, want %v", res.Thesis, models.ThesisChoppy)
	}
}

func TestSynthesizeStrongBullish(t *testing.T) {
	res := &models.AnalysisResult{
		VWAPSignal: SigAboveVWAP,
		OISignal:   SigLongBuildup,
		Structure:  models.StructureTrendingUp,
	}
	card := Scorecard{Total: 8, StructureScore: 5, MomentumScore: 3}
	Synthesize(res, card, models.PhaseNormal)

	if res.Playbook != PlaybookStrongBullish {
		t.Fatalf("playbook = %q, want %q", res.Playbook, PlaybookStrongBullish)
	}
	if res.PrimarySignal != models.SignalBullish {
		t.Fatalf("signal = %q, want %q", res.PrimarySignal, models.SignalBullish)
	}
	if res.Thesis != models.ThesisBullishTrend {
		t.Fatalf("thesis = %v, want %v", res.Thesis, models.ThesisBullishTrend)
	}
	if res.ConvictionScore != 8 {
		t.Fatalf("score = %v, want 8", res.ConvictionScore)
	}
}

func TestSynthesizeOpeningDampening(t *testing.T) {
	res := &models.AnalysisResult{}
	card := Scorecard{Total: 8, StructureScore: 5, MomentumScore: 3}
	Synthesize(res, card, models.PhaseOpening)
	if res.ConvictionScore != 4 {
		t.Fatalf("dampened score = %v, want 4", res.ConvictionScore)
	}
	if res.Playbook != PlaybookModerateBullish {
		t.Fatalf("playbook = %q, want %q", res.Playbook, PlaybookModerateBullish)
	}

	res = &models.AnalysisResult{}
	card = Scorecard{Total: 5, StructureScore: 5, MomentumScore: 0}
	Synthesize(res, card, models.PhaseOpening)
	if res.PrimarySignal != models.SignalNeutral {
		t.Fatalf("signal = %q, want %q below threshold", res.PrimarySignal, models.SignalNeutral)
	}
	if res.Playbook != PlaybookObserve {
		t.Fatalf("playbook = %q, want %q", res.Playbook, PlaybookObserve)
	}
}

func TestSynthesizeSignalFlip(t *testing.T) {
	res := &models.AnalysisResult{PrimarySignal: models.SignalBullish}
	card := Scorecard{Total: -7, StructureScore: -4, MomentumScore: -3}
	changed := Synthesize(res, card, models.PhaseNormal)
	if !changed {
		t.Fatalf("expected transition")
	}
	if res.PrimarySignal != models.SignalBearish || res.PreviousSignal != models.SignalBullish {
		t.Fatalf("signal = %q prev %q", res.PrimarySignal, res.PreviousSignal)
	}

	// Same assessment again is not a transition.
	if Synthesize(res, card, models.PhaseNormal) {
		t.Fatalf("unexpected transition on unchanged signal")
	}
}

func TestDominantVote(t *testing.T) {
	bull := &models.AnalysisResult{
		VWAPSignal: SigAboveVWAP,
		EMAFast:    101, EMASlow: 100,
		OISignal: SigLongBuildup,
	}
	if got := DominantVote(bull); got != models.PlayerBuyers {
		t.Fatalf("bull vote = %v", got)
	}
	bear := &models.AnalysisResult{
		VWAPSignal: SigBelowVWAP,
		EMAFast:    100, EMASlow: 101,
		OISignal: SigShortBuildup,
	}
	if got := DominantVote(bear); got != models.PlayerSellers {
		t.Fatalf("bear vote = %v", got)
	}
	split := &models.AnalysisResult{
		VWAPSignal: SigAboveVWAP,
		EMAFast:    100, EMASlow: 101,
	}
	if got := DominantVote(split); got != models.PlayerBalance {
		t.Fatalf("split vote = %v", got)
	}
}

func TestPhaseFor(t *testing.T) {
	s := repository.Settings{
		SessionStart:  9*time.Hour + 15*time.Minute,
		SessionEnd:    15*time.Hour + 30*time.Minute,
		OpeningWindow: 30 * time.Minute,
		ClosingWindow: 30 * time.Minute,
	}
	at := func(h, m int) time.Time {
		return time.Date(2026, 1, 5, h, m, 0, 0, time.UTC)
	}
	cases := []struct {
		ts   time.Time
		want models.MarketPhase
	}{
		{at(9, 0), models.PhasePreOpen},
		{at(9, 30), models.PhaseOpening},
		{at(9, 45), models.PhaseNormal},
		{at(12, 0), models.PhaseNormal},
		{at(15, 10), models.PhaseClosing},
	}
	for _, tc := range cases {
		if got := PhaseFor(tc.ts, s); got != tc.want {
			t.Fatalf("PhaseFor(%v) = %v, want %v", tc.ts.Format("15:04"), got, tc.want)
		}
	}
}
