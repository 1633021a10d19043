package engine

import "TapeLens/internal/domain/models"

// Pattern names, in recognition precedence order.
const (
	PatternDoji           = "Doji"
	PatternHammer         = "Hammer"
	PatternHangingMan     = "Hanging Man"
	PatternInvertedHammer = "Inverted Hammer"
	PatternShootingStar   = "Shooting Star"
	PatternMarubozuBull   = "Bullish Marubozu"
	PatternMarubozuBear   = "Bearish Marubozu"
	PatternEngulfingBull  = "Bullish Engulfing"
	PatternEngulfingBear  = "Bearish Engulfing"
	PatternPiercingLine   = "Piercing Line"
	PatternDarkCloud      = "Dark Cloud Cover"
	PatternMorningStar    = "Morning Star"
	PatternEveningStar    = "Evening Star"
	PatternThreeSoldiers  = "Three White Soldiers"
	PatternThreeCrows     = "Three Black Crows"
	PatternNone           = "No Pattern"
)

// Body/shadow tolerance thresholds.
const (
	dojiBodyRatio     = 0.15
	shadowDominance   = 1.8
	shadowOpposite    = 0.9
	marubozuBodyRatio = 0.85
	volumeConfirmMult = 1.5
)

// RecognizePattern classifies the most recent 1-3 candles. The precedence
// order is fixed: single-candle shapes first, then two- and three-candle
// reversals; the first match wins. atKeyLevel appends a structural context
// note, and a volume confirmation suffix is added when the latest candle's
// volume exceeds the prior candle's by more than 50%.
func RecognizePattern(candles []models.Candle, atKeyLevel bool) string {
	if len(candles) < 3 {
		return models.BuildingHistory
	}
	c := candles[len(candles)-1]
	prev := candles[len(candles)-2]
	first := candles[len(candles)-3]

	name := matchPattern(first, prev, c)
	if name == PatternNone {
		return name
	}
	if atKeyLevel {
		name += " at key support/resistance"
	}
	if prev.Volume > 0 && c.Volume > prev.Volume*volumeConfirmMult {
		name += " (volume confirmed)"
	}
	return name
}

func matchPattern(first, prev, c models.Candle) string {
	body := c.Body()
	rng := c.Range()
	upper := c.High - maxf(c.Open, c.Close)
	lower := minf(c.Open, c.Close) - c.Low

	// 1. Doji. A zero-range candle has no directional information either.
	if rng == 0 || body/rng < dojiBodyRatio {
		return PatternDoji
	}
	// 2. Hammer family: long lower shadow, small upper shadow.
	if lower > shadowDominance*body && upper < shadowOpposite*body {
		if c.Bullish() {
			return PatternHammer
		}
		return PatternHangingMan
	}
	// 3. Inverted hammer family.
	if upper > shadowDominance*body && lower < shadowOpposite*body {
		if c.Bullish() {
			return PatternInvertedHammer
		}
		return PatternShootingStar
	}
	// 4. Marubozu.
	if body/rng > marubozuBodyRatio {
		if c.Bullish() {
			return PatternMarubozuBull
		}
		return PatternMarubozuBear
	}
	// 5. Engulfing: current body contains the prior opposite-colored body.
	if c.Bullish() && !prev.Bullish() && c.Open < prev.Close && c.Close > prev.Open {
		return PatternEngulfingBull
	}
	if !c.Bullish() && prev.Bullish() && c.Open > prev.Close && c.Close < prev.Open {
		return PatternEngulfingBear
	}
	// 6. Piercing line / dark cloud cover: open beyond the prior extreme,
	// close crossing the prior body midpoint.
	prevMid := (prev.Open + prev.Close) / 2
	if c.Bullish() && !prev.Bullish() && c.Open < prev.Low && c.Close > prevMid && c.Close < prev.Open {
		return PatternPiercingLine
	}
	if !c.Bullish() && prev.Bullish() && c.Open > prev.High && c.Close < prevMid && c.Close > prev.Open {
		return PatternDarkCloud
	}
	// 7. Morning / evening star.
	firstMid := (first.Open + first.Close) / 2
	if !first.Bullish() && prev.Body() < first.Body()*0.5 &&
		maxf(prev.Open, prev.Close) < first.Close &&
		c.Bullish() && c.Close > firstMid {
		return PatternMorningStar
	}
	if first.Bullish() && prev.Body() < first.Body()*0.5 &&
		minf(prev.Open, prev.Close) > first.Close &&
		!c.Bullish() && c.Close < firstMid {
		return PatternEveningStar
	}
	// 8. Three soldiers / crows: consecutive same-direction candles each
	// opening and closing beyond the previous.
	if first.Bullish() && prev.Bullish() && c.Bullish() &&
		prev.Open > first.Open && prev.Close > first.Close &&
		c.Open > prev.Open && c.Close > prev.Close {
		return PatternThreeSoldiers
	}
	if !first.Bullish() && !prev.Bullish() && !c.Bullish() &&
		prev.Open < first.Open && prev.Close < first.Close &&
		c.Open < prev.Open && c.Close < prev.Close {
		return PatternThreeCrows
	}
	return PatternNone
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
