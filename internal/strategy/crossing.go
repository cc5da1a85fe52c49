package strategy

import (
	"math"

	"AwesomeSentinel/internal/model"
)

// Reversal thresholds on the normalized AO+AC series.
const (
	BottomPercentile = -0.8
	TopPercentile    = 0.9
)

// reversalWindow is the trailing window inspected at each index.
const reversalWindow = 5

// Normalize scales sums into [-1, 1] by the largest absolute value.
// NaN entries are ignored when finding the scale. If every value is 0 the
// result is all zeros.
func Normalize(sums []float64) []float64 {
	maxAbs := 0.0
	for _, s := range sums {
		if math.IsNaN(s) {
			continue
		}
		if a := math.Abs(s); a > maxAbs {
			maxAbs = a
		}
	}
	out := make([]float64, len(sums))
	if maxAbs == 0 {
		return out
	}
	for i, s := range sums {
		out[i] = s / maxAbs
	}
	return out
}

// DetectMarkers scans a normalized series for entry and exit markers.
// The first reversalWindow-1 positions are never marked. A position can
// carry more than one marker; at each index the rules run in the order
// zero-crossing entry, bottom reversal, zero-crossing exit, top reversal.
func DetectMarkers(norm []float64) []model.Marker {
	var markers []model.Marker
	for i := reversalWindow - 1; i < len(norm); i++ {
		prev, cur := norm[i-1], norm[i]
		w := norm[i-reversalWindow+1 : i+1]

		if prev < 0 && cur >= 0 {
			markers = append(markers, model.Marker{Index: i, Kind: model.MarkerEntry, Reason: model.ReasonZeroCrossing})
		}
		if bottomReversal(w) {
			markers = append(markers, model.Marker{Index: i, Kind: model.MarkerEntry, Reason: model.ReasonBottomPercentile})
		}
		if prev > 0 && cur <= 0 {
			markers = append(markers, model.Marker{Index: i, Kind: model.MarkerExit, Reason: model.ReasonZeroCrossing})
		}
		if topReversal(w) {
			markers = append(markers, model.Marker{Index: i, Kind: model.MarkerExit, Reason: model.ReasonTopPercentile})
		}
	}
	return markers
}

// bottomReversal: three bars at or below the bottom threshold, then two
// strictly rising bars, the last back above the threshold.
func bottomReversal(w []float64) bool {
	for _, v := range w[:3] {
		if !(v <= BottomPercentile) {
			return false
		}
	}
	return w[3] > w[2] && w[4] > w[3] && w[4] > BottomPercentile
}

func topReversal(w []float64) bool {
	for _, v := range w[:3] {
		if !(v >= TopPercentile) {
			return false
		}
	}
	return w[3] < w[2] && w[4] < w[3] && w[4] < TopPercentile
}

// MarkersAt returns every marker recorded for index i, in detection order.
func MarkersAt(markers []model.Marker, i int) []model.Marker {
	var out []model.Marker
	for _, m := range markers {
		if m.Index == i {
			out = append(out, m)
		}
	}
	return out
}

// FirstMarkerAt returns the first marker recorded for index i, or nil.
func FirstMarkerAt(markers []model.Marker, i int) *model.Marker {
	for k := range markers {
		if markers[k].Index == i {
			m := markers[k]
			return &m
		}
	}
	return nil
}
