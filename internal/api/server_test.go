package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"AwesomeSentinel/internal/analysis"
	"AwesomeSentinel/internal/chart"
	"AwesomeSentinel/internal/collector"
	"AwesomeSentinel/internal/metrics"
	"AwesomeSentinel/internal/model"
	"AwesomeSentinel/internal/recorder"
	"AwesomeSentinel/internal/screener"
)

var end = time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)

type fakeHistory struct {
	symbol string
	limit  int
	err    error
}

func (f *fakeHistory) SignalHistory(symbol string, limit int) ([]recorder.AnalysisEvent, error) {
	f.symbol, f.limit = symbol, limit
	if f.err != nil {
		return nil, f.err
	}
	return []recorder.AnalysisEvent{{Symbol: symbol, Signal: model.SignalBuy}}, nil
}

func newTestServer(t *testing.T, f *collector.MockFetcher) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)
	m := metrics.NewMetrics(prometheus.NewRegistry())
	svc := analysis.NewService(collector.NewCollector(f), analysis.NewStore(), recorder.NewNoopRecorder(), m, log)
	s := NewServer(Deps{
		Service:       svc,
		Charts:        chart.NewBuilder(m),
		Screener:      screener.Default(),
		Metrics:       m,
		Log:           log,
		RatePerSecond: 1000,
		RateBurst:     1000,
	})
	s.Now = func() time.Time { return end }
	return s
}

func do(s *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	s.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{})
	w := do(s, http.MethodGet, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header")
	}

	if w := do(s, http.MethodOptions, "/api/analysis"); w.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", w.Code)
	}
}

func TestAnalysisLifecycle(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{Bars: collector.GenerateMockBars(120, 300, end)})

	if w := do(s, http.MethodGet, "/api/analysis"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before load, got %d", w.Code)
	}
	if w := do(s, http.MethodPost, "/api/analysis/refresh"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 refresh before load, got %d", w.Code)
	}

	w := do(s, http.MethodPost, "/api/analysis/aapl")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var v analysisView
	decode(t, w, &v)
	if v.Symbol != "AAPL" || v.Company != "Apple Inc." || v.Weeks != 300 || v.Latest == nil {
		t.Errorf("unexpected view: %+v", v)
	}
	if !v.Latest.Date.Equal(end) {
		t.Errorf("expected latest bar at %v, got %v", end, v.Latest.Date)
	}

	w = do(s, http.MethodGet, "/api/analysis")
	var cur analysisView
	decode(t, w, &cur)
	if cur.ID != v.ID {
		t.Errorf("expected current record %s, got %s", v.ID, cur.ID)
	}

	w = do(s, http.MethodPost, "/api/analysis/refresh")
	var refreshed analysisView
	decode(t, w, &refreshed)
	if w.Code != http.StatusOK || refreshed.Symbol != "AAPL" || refreshed.ID == v.ID {
		t.Errorf("unexpected refresh result %d %+v", w.Code, refreshed)
	}
}

func TestAnalysisErrors(t *testing.T) {
	f := &collector.MockFetcher{}
	s := newTestServer(t, f)

	tests := []struct {
		err  error
		code int
		kind string
	}{
		{collector.ErrInvalidSymbol, http.StatusNotFound, "invalid_symbol"},
		{collector.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{collector.ErrEmptySeries, http.StatusUnprocessableEntity, "empty_series"},
		{collector.ErrMalformedResponse, http.StatusBadGateway, "malformed"},
		{errors.New("connection reset"), http.StatusInternalServerError, "other"},
	}
	for _, tt := range tests {
		f.Err = fmt.Errorf("provider: %w", tt.err)
		w := do(s, http.MethodPost, "/api/analysis/XYZ")
		if w.Code != tt.code {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.code, w.Code)
		}
		var body map[string]string
		decode(t, w, &body)
		if body["error"] != tt.kind || body["message"] != collector.UserMessage(tt.err) {
			t.Errorf("%v: unexpected body %v", tt.err, body)
		}
	}
	if s.Service.Store.Current() != nil {
		t.Error("failed runs must not publish a record")
	}
}

func TestChart(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{Bars: collector.GenerateMockBars(120, 300, end)})

	if w := do(s, http.MethodGet, "/api/chart"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before load, got %d", w.Code)
	}
	do(s, http.MethodPost, "/api/analysis/MSFT")

	if w := do(s, http.MethodGet, "/api/chart?window=7w"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad window, got %d", w.Code)
	}

	w := do(s, http.MethodGet, "/api/chart?window=6m")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Symbol string             `json:"symbol"`
		Window string             `json:"window"`
		Points []model.ChartPoint `json:"points"`
	}
	decode(t, w, &body)
	if body.Symbol != "MSFT" || body.Window != "6m" || len(body.Points) == 0 {
		t.Fatalf("unexpected chart: %s %s %d", body.Symbol, body.Window, len(body.Points))
	}
	cutoff := model.Window6M.Cutoff(end)
	for _, p := range body.Points {
		if p.Date.Before(cutoff) {
			t.Fatalf("point %v before cutoff %v", p.Date, cutoff)
		}
	}
}

func TestScreener(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{})

	w := do(s, http.MethodGet, "/api/screener")
	var all struct {
		Sectors []screener.Sector `json:"sectors"`
	}
	decode(t, w, &all)
	if len(all.Sectors) != 11 {
		t.Errorf("expected 11 sectors, got %d", len(all.Sectors))
	}

	w = do(s, http.MethodGet, "/api/screener/Technology")
	var sector struct {
		Industries []string      `json:"industries"`
		Companies  []companyView `json:"companies"`
	}
	decode(t, w, &sector)
	if len(sector.Industries) != 5 || len(sector.Companies) != 23 {
		t.Errorf("unexpected Technology listing: %d industries, %d companies", len(sector.Industries), len(sector.Companies))
	}

	w = do(s, http.MethodGet, "/api/screener/Nowhere")
	decode(t, w, &sector)
	if w.Code != http.StatusOK || len(sector.Industries) != 0 || len(sector.Companies) != 0 {
		t.Errorf("expected empty listing for unknown sector, got %d %+v", w.Code, sector)
	}
}

func TestHistory(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{Bars: collector.GenerateMockBars(120, 100, end)})
	if w := do(s, http.MethodGet, "/api/history"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without journal, got %d", w.Code)
	}

	h := &fakeHistory{}
	s.History = h
	if w := do(s, http.MethodGet, "/api/history?limit=0"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", w.Code)
	}
	w := do(s, http.MethodGet, "/api/history?symbol=nvda&limit=5")
	if w.Code != http.StatusOK || h.symbol != "NVDA" || h.limit != 5 {
		t.Errorf("unexpected history call: %d %+v", w.Code, h)
	}
	if !strings.Contains(w.Body.String(), `"signal":"buy"`) {
		t.Errorf("expected snake_case journal entries, got %s", w.Body.String())
	}

	h.err = errors.New("database is locked")
	w = do(s, http.MethodGet, "/api/history?symbol=nvda")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on journal error, got %d", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["error"] != "journal_unavailable" || strings.Contains(body["message"], "stock data") {
		t.Errorf("expected journal-specific error, got %v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{Bars: collector.GenerateMockBars(120, 100, end)})
	do(s, http.MethodPost, "/api/analysis/IBM")
	w := do(s, http.MethodGet, "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "sentinel_analyses_total") {
		t.Errorf("expected prometheus output, got %d", w.Code)
	}
}

func TestIPLimiter(t *testing.T) {
	l := NewIPLimiter(1, 2)
	if !l.Allow("1.1.1.1") || !l.Allow("1.1.1.1") {
		t.Fatal("burst should be allowed")
	}
	if l.Allow("1.1.1.1") {
		t.Error("third request should be limited")
	}
	if !l.Allow("2.2.2.2") {
		t.Error("other IPs have their own budget")
	}
}

func TestWebSocketPushesUpdates(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{Bars: collector.GenerateMockBars(120, 100, end)})
	if _, err := s.Service.Analyze(context.Background(), "AAPL", analysis.TriggerManual); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.RunHub(ctx)

	srv := httptest.NewServer(s.Router)
	defer srv.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	read := func() analysisView {
		var msg struct {
			Type string       `json:"type"`
			Data analysisView `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type != "analysis" {
			t.Fatalf("unexpected message type %q", msg.Type)
		}
		return msg.Data
	}

	if first := read(); first.Symbol != "AAPL" {
		t.Fatalf("expected initial AAPL state, got %+v", first)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		for i := 0; i < 200; i++ {
			select {
			case <-done:
				return
			case <-time.After(10 * time.Millisecond):
			}
			s.Service.Store.Replace(&model.AnalysisRecord{Symbol: "MSFT"})
		}
	}()
	if next := read(); next.Symbol != "MSFT" {
		t.Errorf("expected pushed MSFT update, got %+v", next)
	}
}
