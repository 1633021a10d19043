package engine

import (
	"testing"

	"TapeLens/internal/domain/models"
)

func candle(open, high, low, close, volume, oi float64) models.Candle {
	return models.Candle{Open: open, High: high, Low: low, Close: close, Volume: volume, OpenInterest: oi}
}

func TestDayRangeSignal(t *testing.T) {
	cases := []struct {
		name string
		ltp  float64
		want string
	}{
		{"near high boundary inclusive", 96, SigNearHigh},
		{"near low boundary inclusive", 84, SigNearLow},
		{"mid range", 90, SigMidRange},
		{"at high", 100, SigNearHigh},
		{"at low", 80, SigNearLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DayRangeSignal(tc.ltp, 100, 80); got != tc.want {
				t.Fatalf("DayRangeSignal(%v) = %q, want %q", tc.ltp, got, tc.want)
			}
		})
	}
}

func TestDayRangeSignalZeroRange(t *testing.T) {
	if got := DayRangeSignal(100, 100, 100); got != SigMidRange {
		t.Fatalf("zero range = %q, want %q", got, SigMidRange)
	}
}

func TestOISignalRegimes(t *testing.T) {
	cases := []struct {
		name       string
		prev, cur  models.Candle
		want       string
	}{
		{"long buildup", candle(0, 0, 0, 100, 0, 1000), candle(0, 0, 0, 101, 0, 1100), SigLongBuildup},
		{"short covering", candle(0, 0, 0, 100, 0, 1000), candle(0, 0, 0, 101, 0, 900), SigShortCovering},
		{"short buildup", candle(0, 0, 0, 100, 0, 1000), candle(0, 0, 0, 99, 0, 1100), SigShortBuildup},
		{"long unwinding", candle(0, 0, 0, 100, 0, 1000), candle(0, 0, 0, 99, 0, 900), SigLongUnwinding},
		{"flat price", candle(0, 0, 0, 100, 0, 1000), candle(0, 0, 0, 100, 0, 1100), SigNeutral},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := OISignal([]models.Candle{tc.prev, tc.cur}); got != tc.want {
				t.Fatalf("OISignal = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestOISignalZeroOI(t *testing.T) {
	candles := []models.Candle{
		candle(0, 0, 0, 100, 0, 0),
		candle(0, 0, 0, 101, 0, 1100),
	}
	if got := OISignal(candles); got != models.BuildingHistory {
		t.Fatalf("zero OI = %q, want %q", got, models.BuildingHistory)
	}
}

func TestOISignalInsufficientHistory(t *testing.T) {
	if got := OISignal([]models.Candle{candle(0, 0, 0, 100, 0, 1000)}); got != models.BuildingHistory {
		t.Fatalf("one candle = %q, want %q", got, models.BuildingHistory)
	}
}

func TestVolumeSignalBurst(t *testing.T) {
	candles := []models.Candle{
		candle(0, 0, 0, 100, 100, 0),
		candle(0, 0, 0, 100, 100, 0),
		candle(0, 0, 0, 100, 100, 0),
		candle(0, 0, 0, 100, 250, 0), // forming, 2.5x the mean
	}
	if got := VolumeSignal(candles, 20, 2.0); got != SigVolumeBurst {
		t.Fatalf("burst = %q, want %q", got, SigVolumeBurst)
	}
	candles[3].Volume = 150
	if got := VolumeSignal(candles, 20, 2.0); got != SigNeutral {
		t.Fatalf("no burst = %q, want %q", got, SigNeutral)
	}
}

func TestVolumeSignalInsufficientHistory(t *testing.T) {
	if got := VolumeSignal([]models.Candle{candle(0, 0, 0, 100, 50, 0)}, 20, 2.0); got != models.BuildingHistory {
		t.Fatalf("got %q, want %q", got, models.BuildingHistory)
	}
}

func TestPriceVsVWAP(t *testing.T) {
	if got := PriceVsVWAP(101, 100); got != SigAboveVWAP {
		t.Fatalf("above = %q", got)
	}
	if got := PriceVsVWAP(99, 100); got != SigBelowVWAP {
		t.Fatalf("below = %q", got)
	}
	if got := PriceVsVWAP(100, 100); got != SigAtVWAP {
		t.Fatalf("at = %q", got)
	}
	if got := PriceVsVWAP(100, 0); got != models.BuildingHistory {
		t.Fatalf("no vwap = %q", got)
	}
}

func TestVWAPBandsClassification(t *testing.T) {
	candles := []models.Candle{
		{Close: 99, VWAP: 100},
		{Close: 101, VWAP: 100},
		{Close: 100, VWAP: 100},
	}
	// stddev of closes {99,101,100} around mean 100 is sqrt(2/3)
	upper, lower, sig := VWAPBands(candles, 100, 2.0)
	if sig != SigInsideBands {
		t.Fatalf("inside = %q", sig)
	}
	if upper <= 100 || lower >= 100 {
		t.Fatalf("bands = [%v, %v], want straddling 100", lower, upper)
	}
	if _, _, sig := VWAPBands(candles, upper+1, 2.0); sig != SigAboveUpperBand {
		t.Fatalf("above = %q", sig)
	}
	if _, _, sig := VWAPBands(candles, lower-1, 2.0); sig != SigBelowLowerBand {
		t.Fatalf("below = %q", sig)
	}
}

func TestAnchoredVWAP(t *testing.T) {
	candles := []models.Candle{
		{Close: 100, Volume: 10},
		{Close: 110, Volume: 30},
	}
	want := (100.0*10 + 110.0*30) / 40.0
	if got := AnchoredVWAP(candles); got != want {
		t.Fatalf("anchored vwap = %v, want %v", got, want)
	}
	if got := AnchoredVWAP(nil); got != 0 {
		t.Fatalf("empty anchored vwap = %v, want 0", got)
	}
}
