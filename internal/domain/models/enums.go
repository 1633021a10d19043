package models

// MarketPhase is the coarse session-time bucket used to dampen open-of-session noise.
type MarketPhase int

const (
	PhasePreOpen MarketPhase = iota
	PhaseOpening
	PhaseNormal
	PhaseClosing
)

func (p MarketPhase) String() string {
	switch p {
	case PhasePreOpen:
		return "Pre-Open"
	case PhaseOpening:
		return "Opening"
	case PhaseNormal:
		return "Normal"
	case PhaseClosing:
		return "Closing"
	}
	return "Unknown"
}

// MarketThesis is the synthesized directional read of the market.
type MarketThesis int

const (
	ThesisBalancing MarketThesis = iota
	ThesisBullishTrend
	ThesisBullishRotation
	ThesisBearishTrend
	ThesisBearishRotation
	ThesisChoppy
)

func (t MarketThesis) String() string {
	switch t {
	case ThesisBullishTrend:
		return "Bullish Trend"
	case ThesisBullishRotation:
		return "Bullish Rotation"
	case ThesisBearishTrend:
		return "Bearish Trend"
	case ThesisBearishRotation:
		return "Bearish Rotation"
	case ThesisChoppy:
		return "Choppy"
	}
	return "Balancing"
}

// DominantPlayer is the majority-vote classification of buyer vs seller evidence.
type DominantPlayer int

const (
	PlayerBalance DominantPlayer = iota
	PlayerBuyers
	PlayerSellers
)

func (d DominantPlayer) String() string {
	switch d {
	case PlayerBuyers:
		return "Buyers"
	case PlayerSellers:
		return "Sellers"
	}
	return "Balance"
}

// MarketStructure classifies the multi-day profile shape.
type MarketStructure int

const (
	StructureBalancing MarketStructure = iota
	StructureTrendingUp
	StructureTrendingDown
	StructureBuildingHistory
)

func (s MarketStructure) String() string {
	switch s {
	case StructureTrendingUp:
		return "Trending Up"
	case StructureTrendingDown:
		return "Trending Down"
	case StructureBuildingHistory:
		return "Building History"
	}
	return "Balancing"
}

// IBState is the latched Initial Balance breakout state.
type IBState int

const (
	IBInside IBState = iota
	IBBreakout
	IBBreakdown
	IBExtensionUp
	IBExtensionDown
	IBForming
)

func (s IBState) String() string {
	switch s {
	case IBBreakout:
		return "IB Breakout"
	case IBBreakdown:
		return "IB Breakdown"
	case IBExtensionUp:
		return "IB Extension Up"
	case IBExtensionDown:
		return "IB Extension Down"
	case IBForming:
		return "IB Forming"
	}
	return "Inside IB"
}

// Primary signal labels.
const (
	SignalBullish = "Bullish"
	SignalBearish = "Bearish"
	SignalNeutral = "Neutral"
)

// Shared "not yet classifiable" label for insufficient-history conditions.
const BuildingHistory = "Building History"
