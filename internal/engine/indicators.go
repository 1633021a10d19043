package engine

import (
	"math"

	"TapeLens/internal/domain/models"
)

// Signal labels produced by the indicator engine.
const (
	SigVolumeBurst = "Volume Burst"
	SigNeutral     = "Neutral"

	SigLongBuildup   = "Long Buildup"
	SigShortCovering = "Short Covering"
	SigShortBuildup  = "Short Buildup"
	SigLongUnwinding = "Long Unwinding"

	SigAboveUpperBand = "Above Upper Band"
	SigBelowLowerBand = "Below Lower Band"
	SigInsideBands    = "Inside Bands"

	SigAboveVWAP = "Above VWAP"
	SigBelowVWAP = "Below VWAP"
	SigAtVWAP    = "At VWAP"

	SigAbovePrevClose = "Above Prev Close"
	SigBelowPrevClose = "Below Prev Close"
	SigAtPrevClose    = "At Prev Close"

	SigNearHigh = "Near High"
	SigNearLow  = "Near Low"
	SigMidRange = "Mid-Range"
)

// VolumeSignal compares the most recent (possibly still forming) candle's
// volume to the mean of up to historyLen prior completed candles.
func VolumeSignal(candles []models.Candle, historyLen int, burstMult float64) string {
	if len(candles) < 2 {
		return models.BuildingHistory
	}
	prior := candles[:len(candles)-1]
	if len(prior) > historyLen {
		prior = prior[len(prior)-historyLen:]
	}
	var sum float64
	for _, c := range prior {
		sum += c.Volume
	}
	mean := sum / float64(len(prior))
	if mean == 0 {
		return SigNeutral
	}
	if candles[len(candles)-1].Volume/mean > burstMult {
		return SigVolumeBurst
	}
	return SigNeutral
}

// OISignal classifies the price/open-interest move of the last two candles
// into one of the four buildup/unwinding regimes. Both candles must carry
// nonzero open interest.
func OISignal(candles []models.Candle) string {
	if len(candles) < 2 {
		return models.BuildingHistory
	}
	cur, prev := candles[len(candles)-1], candles[len(candles)-2]
	if cur.OpenInterest == 0 || prev.OpenInterest == 0 {
		return models.BuildingHistory
	}
	priceUp := cur.Close > prev.Close
	priceDown := cur.Close < prev.Close
	oiUp := cur.OpenInterest > prev.OpenInterest
	oiDown := cur.OpenInterest < prev.OpenInterest
	switch {
	case priceUp && oiUp:
		return SigLongBuildup
	case priceUp && oiDown:
		return SigShortCovering
	case priceDown && oiUp:
		return SigShortBuildup
	case priceDown && oiDown:
		return SigLongUnwinding
	}
	return SigNeutral
}

// VWAPBands computes upper/lower bands as the latest candle VWAP plus/minus
// the population standard deviation of closes times mult, and classifies the
// LTP against them.
func VWAPBands(candles []models.Candle, ltp, mult float64) (upper, lower float64, signal string) {
	if len(candles) == 0 {
		return 0, 0, models.BuildingHistory
	}
	vwap := candles[len(candles)-1].VWAP
	var sum, sumSq float64
	for _, c := range candles {
		sum += c.Close
	}
	mean := sum / float64(len(candles))
	for _, c := range candles {
		d := c.Close - mean
		sumSq += d * d
	}
	stddev := math.Sqrt(sumSq / float64(len(candles)))
	upper = vwap + stddev*mult
	lower = vwap - stddev*mult
	switch {
	case ltp > upper:
		signal = SigAboveUpperBand
	case ltp < lower:
		signal = SigBelowLowerBand
	default:
		signal = SigInsideBands
	}
	return upper, lower, signal
}

// AnchoredVWAP is the volume-weighted average close over the full available
// window; the window itself starts at the session anchor.
func AnchoredVWAP(candles []models.Candle) float64 {
	var pv, v float64
	for _, c := range candles {
		pv += c.Close * c.Volume
		v += c.Volume
	}
	if v == 0 {
		return 0
	}
	return pv / v
}

// PriceVsVWAP classifies the LTP against the running VWAP.
func PriceVsVWAP(ltp, vwap float64) string {
	switch {
	case vwap == 0:
		return models.BuildingHistory
	case ltp > vwap:
		return SigAboveVWAP
	case ltp < vwap:
		return SigBelowVWAP
	}
	return SigAtVWAP
}

// PriceVsClose classifies the LTP against a reference close.
func PriceVsClose(ltp, prevClose float64) string {
	switch {
	case prevClose == 0:
		return models.BuildingHistory
	case ltp > prevClose:
		return SigAbovePrevClose
	case ltp < prevClose:
		return SigBelowPrevClose
	}
	return SigAtPrevClose
}

// DayRangeSignal places the LTP inside the session range. Position >= 0.8 is
// near the high and <= 0.2 near the low, both bounds inclusive. A zero range
// reports mid-range rather than dividing by zero.
func DayRangeSignal(ltp, high, low float64) string {
	if high <= low {
		return SigMidRange
	}
	pos := (ltp - low) / (high - low)
	switch {
	case pos >= 0.8:
		return SigNearHigh
	case pos <= 0.2:
		return SigNearLow
	}
	return SigMidRange
}
