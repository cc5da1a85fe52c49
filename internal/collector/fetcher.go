package collector

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"time"

	"AwesomeSentinel/internal/model"
)

// Fetcher defines the interface for fetching weekly price history.
// Implementations return bars in ascending date order with unique dates,
// or an error wrapping one of the provider sentinel errors.
type Fetcher interface {
	FetchWeeklyBars(ctx context.Context, symbol string) ([]model.Bar, error)
	Name() string
}

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// sortBars orders bars by date and drops duplicate dates, keeping the later entry.
func sortBars(bars []model.Bar) []model.Bar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
