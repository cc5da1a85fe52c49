package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const yahooWeekly = `{"chart":{"result":[{"timestamp":[1704067200,1704672000,1705276800],
"indicators":{"quote":[{"open":[10,null,12],"high":[11,null,13],"low":[9,null,11],"close":[10.5,null,12.5],"volume":[100,null,300]}]}}],"error":null}}`

func TestYahoo_SkipsNullBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "interval=1wk") {
			t.Errorf("expected weekly interval, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(yahooWeekly))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 5*time.Second)
	f.BaseURL = srv.URL
	bars, err := f.FetchWeeklyBars(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars after skipping nulls, got %d", len(bars))
	}
	if bars[1].Close != 12.5 || bars[1].Volume != 300 {
		t.Errorf("unexpected last bar: %+v", bars[1])
	}
}

func TestYahoo_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not found", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, ErrInvalidSymbol},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, ErrMalformedResponse},
		{"all null", http.StatusOK, `{"chart":{"result":[{"timestamp":[1704067200],"indicators":{"quote":[{"open":[null],"high":[null],"low":[null],"close":[null],"volume":[null]}]}}],"error":null}}`, ErrEmptySeries},
	}
	for _, tt := range tests {
		_, err := parseYahoo(tt.status, []byte(tt.body))
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}
