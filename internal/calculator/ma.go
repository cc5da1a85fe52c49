package calculator

import (
	"fmt"

	"AwesomeSentinel/internal/model"
)

// SMA computes the simple moving average of s over the given period.
// Position i is undefined while i < period-1 or when any value in its
// trailing window is undefined. Panics if period is not positive.
func SMA(s Series, period int) Series {
	if period <= 0 {
		panic(fmt.Sprintf("calculator: SMA period must be positive, got %d", period))
	}
	out := make(Series, len(s))
	for i := range s {
		if i < period-1 {
			continue
		}
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if !s[j].ok {
				ok = false
				break
			}
			sum += s[j].v
		}
		if ok {
			out[i] = Value{v: sum / float64(period), ok: true}
		}
	}
	return out
}

// MedianPrice returns (high+low)/2 element-wise. Panics if the lengths differ.
func MedianPrice(highs, lows []float64) Series {
	if len(highs) != len(lows) {
		panic(fmt.Sprintf("calculator: MedianPrice length mismatch (%d highs, %d lows)", len(highs), len(lows)))
	}
	out := make(Series, len(highs))
	for i := range highs {
		out[i] = Defined((highs[i] + lows[i]) / 2)
	}
	return out
}

// MedianPriceOf returns the median price series of the given bars.
func MedianPriceOf(bars []model.Bar) Series {
	return MedianPrice(model.Highs(bars), model.Lows(bars))
}
