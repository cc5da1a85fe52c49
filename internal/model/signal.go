package model

// Signal summarizes the most recent state of the AO/AC pair.
type Signal string

const (
	SignalBuy     Signal = "buy"
	SignalSell    Signal = "sell"
	SignalNeutral Signal = "neutral"
)

// MarkerKind is the direction of a chart annotation.
type MarkerKind string

const (
	MarkerEntry MarkerKind = "entry"
	MarkerExit  MarkerKind = "exit"
)

// MarkerReason tells which rule produced a marker.
type MarkerReason string

const (
	ReasonZeroCrossing     MarkerReason = "zero-crossing"
	ReasonBottomPercentile MarkerReason = "bottom-percentile-reversal"
	ReasonTopPercentile    MarkerReason = "top-percentile-reversal"
)

// Marker annotates a position of the normalized AO+AC series.
type Marker struct {
	Index  int          `json:"index"`
	Kind   MarkerKind   `json:"kind"`
	Reason MarkerReason `json:"reason"`
}
