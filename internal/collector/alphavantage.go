package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"AwesomeSentinel/internal/model"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantageFetcher implements Fetcher using the Alpha Vantage weekly time series API.
type AlphaVantageFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewAlphaVantageFetcher creates a new fetcher with optional proxy support.
func NewAlphaVantageFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *AlphaVantageFetcher {
	if baseURL == "" {
		baseURL = alphaVantageBaseURL
	}
	return &AlphaVantageFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, timeout),
	}
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

// avResponse is the subset of the TIME_SERIES_WEEKLY payload we read.
type avResponse struct {
	ErrorMessage string                       `json:"Error Message"`
	Note         string                       `json:"Note"`
	Information  string                       `json:"Information"`
	Weekly       map[string]map[string]string `json:"Weekly Time Series"`
}

func (f *AlphaVantageFetcher) FetchWeeklyBars(ctx context.Context, symbol string) ([]model.Bar, error) {
	q := url.Values{}
	q.Set("function", "TIME_SERIES_WEEKLY")
	q.Set("symbol", symbol)
	q.Set("apikey", f.APIKey)
	endpoint := f.BaseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alphavantage fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("alphavantage read body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("alphavantage: %w", ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alphavantage: status %d, body: %s", resp.StatusCode, string(body))
	}
	return parseAlphaVantage(body)
}

func parseAlphaVantage(body []byte) ([]model.Bar, error) {
	var r avResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("alphavantage decode: %v: %w", err, ErrMalformedResponse)
	}
	switch {
	case r.ErrorMessage != "":
		return nil, fmt.Errorf("alphavantage: %s: %w", r.ErrorMessage, ErrInvalidSymbol)
	case r.Note != "":
		return nil, fmt.Errorf("alphavantage: %s: %w", r.Note, ErrRateLimited)
	case r.Information != "":
		return nil, fmt.Errorf("alphavantage: %s: %w", r.Information, ErrRateLimited)
	case r.Weekly == nil:
		return nil, fmt.Errorf("alphavantage: no weekly series in payload: %w", ErrMalformedResponse)
	case len(r.Weekly) == 0:
		return nil, fmt.Errorf("alphavantage: %w", ErrEmptySeries)
	}

	bars := make([]model.Bar, 0, len(r.Weekly))
	for date, values := range r.Weekly {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("alphavantage: bad date %q: %w", date, ErrMalformedResponse)
		}
		bar := model.Bar{Date: d}
		fields := []struct {
			key string
			dst *float64
		}{
			{"1. open", &bar.Open},
			{"2. high", &bar.High},
			{"3. low", &bar.Low},
			{"4. close", &bar.Close},
			{"5. volume", &bar.Volume},
		}
		for _, fl := range fields {
			v, err := strconv.ParseFloat(values[fl.key], 64)
			if err != nil {
				return nil, fmt.Errorf("alphavantage: %s %q on %s: %w", fl.key, values[fl.key], date, ErrMalformedResponse)
			}
			*fl.dst = v
		}
		bars = append(bars, bar)
	}
	return sortBars(bars), nil
}
