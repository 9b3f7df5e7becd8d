package strategy

import "time"

type Action string

const (
	Hold Action = "hold"
	Buy  Action = "buy"
	Sell Action = "sell"
)

// MarketSnapshot is what a detector sees on one tick.
type MarketSnapshot struct {
	Timestamp       time.Time
	Close           float64
	FastSMA         float64
	SlowSMA         float64
	HasOpenPosition bool
}

type Signal struct {
	Action Action
	Price  float64
	Reason string
}

// Detector emits at most one signal per snapshot.
type Detector interface {
	Detect(snapshot MarketSnapshot) (Signal, bool)
}
