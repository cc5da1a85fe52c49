package strategy

import (
	"AwesomeSentinel/internal/calculator"
	"AwesomeSentinel/internal/model"
)

// Classify reduces the tails of the AO and AC series to a single signal.
//
// Only the last two positions of each series are inspected. Undefined or
// missing values read as 0, so a short or warming-up series compares as flat.
//
//	buy:  AO and AC both rising, AO above zero
//	sell: AO and AC both falling, AO below zero
func Classify(ao, ac calculator.Series) model.Signal {
	lastAO, prevAO := tail(ao)
	lastAC, prevAC := tail(ac)

	switch {
	case lastAO > prevAO && lastAC > prevAC && lastAO > 0:
		return model.SignalBuy
	case lastAO < prevAO && lastAC < prevAC && lastAO < 0:
		return model.SignalSell
	default:
		return model.SignalNeutral
	}
}

func tail(s calculator.Series) (last, prev float64) {
	n := len(s)
	if n >= 1 {
		last = s[n-1].OrZero()
	}
	if n >= 2 {
		prev = s[n-2].OrZero()
	}
	return last, prev
}
