package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window is a display window expressed in months.
type Window int

const (
	Window3M Window = 3
	Window6M Window = 6
	Window1Y Window = 12
	Window2Y Window = 24
	Window5Y Window = 60
)

// DefaultWindow matches the dashboard's initial selection.
const DefaultWindow = Window1Y

var windowLabels = map[string]Window{
	"3m": Window3M,
	"6m": Window6M,
	"1y": Window1Y,
	"2y": Window2Y,
	"5y": Window5Y,
}

// ParseWindow accepts the dashboard labels (3m, 6m, 1y, 2y, 5y) or a month count.
func ParseWindow(s string) (Window, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultWindow, nil
	}
	if w, ok := windowLabels[s]; ok {
		return w, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		w := Window(n)
		if w.Valid() {
			return w, nil
		}
	}
	return 0, fmt.Errorf("unsupported window %q", s)
}

// Valid reports whether w is one of the supported windows.
func (w Window) Valid() bool {
	switch w {
	case Window3M, Window6M, Window1Y, Window2Y, Window5Y:
		return true
	}
	return false
}

// String returns the dashboard label, e.g. "1y".
func (w Window) String() string {
	for label, v := range windowLabels {
		if v == w {
			return label
		}
	}
	return strconv.Itoa(int(w)) + "m"
}

// Cutoff returns now minus the window.
func (w Window) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, -int(w), 0)
}

// ChartPoint is one visible bar as consumed by the dashboard chart.
type ChartPoint struct {
	Date          time.Time `json:"date"`
	Close         float64   `json:"close"`
	Volume        float64   `json:"volume"`
	AO            float64   `json:"ao"`
	AC            float64   `json:"ac"`
	Sum           float64   `json:"sum"`
	NormalizedSum float64   `json:"normalized_sum"`
	Marker        *Marker   `json:"marker,omitempty"`  // first marker at this bar
	Markers       []Marker  `json:"markers,omitempty"` // every marker at this bar
}
