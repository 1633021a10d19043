package engine

import (
	"math"
	"testing"
)

func TestVWAPWeightedAverage(t *testing.T) {
	var a Aggregator
	a.Apply(100, 10)
	a.Apply(110, 30)
	want := (100.0*10 + 110.0*30) / 40.0
	if got := a.VWAP(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("vwap = %v, want %v", got, want)
	}
}

func TestVWAPNoVolume(t *testing.T) {
	var a Aggregator
	if got := a.VWAP(); got != 0 {
		t.Fatalf("empty vwap = %v, want 0", got)
	}
}

func TestVWAPIgnoresZeroQty(t *testing.T) {
	var a Aggregator
	a.Apply(100, 10)
	a.Apply(500, 0)
	a.Apply(500, -5)
	if got := a.VWAP(); got != 100 {
		t.Fatalf("vwap = %v, want 100", got)
	}
	if got := a.CumVolume(); got != 10 {
		t.Fatalf("cum volume = %v, want 10", got)
	}
}

func TestVWAPReset(t *testing.T) {
	var a Aggregator
	a.Apply(100, 10)
	a.Reset()
	if got := a.VWAP(); got != 0 {
		t.Fatalf("vwap after reset = %v, want 0", got)
	}
}
