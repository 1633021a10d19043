package engine

import "TapeLens/internal/domain/models"

// EMA computes an exponential moving average of closes over the given period.
// Returns 0 when there are not enough candles to seed the average.
func EMA(candles []models.Candle, period int) float64 {
	if period <= 0 || len(candles) < period {
		return 0
	}
	// Seed with SMA of the first period closes.
	var sum float64
	for _, c := range candles[:period] {
		sum += c.Close
	}
	ema := sum / float64(period)
	k := 2.0 / (float64(period) + 1.0)
	for _, c := range candles[period:] {
		ema = c.Close*k + ema*(1.0-k)
	}
	return ema
}

// RSI computes Wilder's relative strength index over the given period.
// Returns 50 (neutral) when history is insufficient.
func RSI(candles []models.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return 50
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		d := candles[i].Close - candles[i-1].Close
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	for i := period + 1; i < len(candles); i++ {
		d := candles[i].Close - candles[i-1].Close
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ATR computes Wilder's average true range over the given period.
func ATR(candles []models.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return 0
	}
	tr := func(i int) float64 {
		hl := candles[i].High - candles[i].Low
		hc := abs(candles[i].High - candles[i-1].Close)
		lc := abs(candles[i].Low - candles[i-1].Close)
		return max3(hl, hc, lc)
	}
	var sum float64
	for i := 1; i <= period; i++ {
		sum += tr(i)
	}
	atr := sum / float64(period)
	for i := period + 1; i < len(candles); i++ {
		atr = (atr*float64(period-1) + tr(i)) / float64(period)
	}
	return atr
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
