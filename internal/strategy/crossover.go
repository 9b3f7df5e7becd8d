package strategy

// Crossover is the dual moving average rule. It keeps no memory between
// calls and trusts the position flag it is handed.
type Crossover struct{}

func (Crossover) Detect(snapshot MarketSnapshot) (Signal, bool) {
	if snapshot.FastSMA > snapshot.SlowSMA && !snapshot.HasOpenPosition {
		return Signal{
			Action: Buy,
			Price:  snapshot.Close,
			Reason: "fast_above_slow",
		}, true
	}
	if snapshot.FastSMA < snapshot.SlowSMA && snapshot.HasOpenPosition {
		return Signal{
			Action: Sell,
			Price:  snapshot.Close,
			Reason: "fast_below_slow",
		}, true
	}
	return Signal{Action: Hold, Price: snapshot.Close, Reason: "no_signal"}, false
}
