// Package api exposes the dashboard over HTTP and WebSocket.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"AwesomeSentinel/internal/analysis"
	"AwesomeSentinel/internal/chart"
	"AwesomeSentinel/internal/metrics"
	"AwesomeSentinel/internal/recorder"
	"AwesomeSentinel/internal/screener"
)

// HistoryReader reads the signal journal. *recorder.SQLiteRecorder satisfies it.
type HistoryReader interface {
	SignalHistory(symbol string, limit int) ([]recorder.AnalysisEvent, error)
}

// Deps are the components the server routes to.
type Deps struct {
	Service  *analysis.Service
	Charts   *chart.Builder
	Screener *screener.Table
	History  HistoryReader // optional
	Metrics  *metrics.Metrics
	Log      logrus.FieldLogger

	// Per-IP request budget.
	RatePerSecond float64
	RateBurst     int
}

// Server wires HTTP endpoints around the analysis service.
type Server struct {
	Router   *gin.Engine
	Service  *analysis.Service
	Charts   *chart.Builder
	Screener *screener.Table
	History  HistoryReader
	Metrics  *metrics.Metrics
	Hub      *Hub
	Log      logrus.FieldLogger
	Now      func() time.Time
}

// NewServer builds the router and middleware stack.
func NewServer(d Deps) *Server {
	if d.RatePerSecond <= 0 {
		d.RatePerSecond = 10
	}
	if d.RateBurst <= 0 {
		d.RateBurst = 20
	}
	log := d.Log.WithField("component", "api")

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(log))
	r.Use(RateLimitMiddleware(NewIPLimiter(d.RatePerSecond, d.RateBurst), log))
	r.Use(CORSMiddleware())

	s := &Server{
		Router:   r,
		Service:  d.Service,
		Charts:   d.Charts,
		Screener: d.Screener,
		History:  d.History,
		Metrics:  d.Metrics,
		Hub:      NewHub(d.Metrics, log),
		Log:      log,
		Now:      time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.websocket)
	if s.Metrics != nil {
		s.Router.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}

	api := s.Router.Group("/api")
	{
		api.GET("/analysis", s.getAnalysis)
		api.POST("/analysis/refresh", s.refreshAnalysis)
		api.POST("/analysis/:symbol", s.analyzeSymbol)
		api.GET("/chart", s.getChart)
		api.GET("/history", s.getHistory)

		api.GET("/screener", s.listSectors)
		api.GET("/screener/:sector", s.getSector)
		api.GET("/screener/:sector/:industry", s.getIndustry)
	}
}

func (s *Server) health(c *gin.Context) {
	status := gin.H{"status": "ok", "ws_clients": s.Hub.ClientCount()}
	if rec := s.Service.Store.Current(); rec != nil {
		status["symbol"] = rec.Symbol
		status["last_updated"] = rec.LastUpdated
	}
	c.JSON(http.StatusOK, status)
}

// HTTPServer returns an *http.Server for addr so the caller controls shutdown.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
