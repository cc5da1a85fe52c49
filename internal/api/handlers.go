package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"AwesomeSentinel/internal/analysis"
	"AwesomeSentinel/internal/collector"
	"AwesomeSentinel/internal/model"
	"AwesomeSentinel/internal/recorder"
)

// latestView is the most recent bar with its oscillator values.
type latestView struct {
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	AO     float64   `json:"ao"`
	AC     float64   `json:"ac"`
}

// analysisView summarizes a record for the dashboard header.
type analysisView struct {
	ID          string       `json:"id"`
	Symbol      string       `json:"symbol"`
	Company     string       `json:"company"`
	Source      string       `json:"source"`
	LastUpdated time.Time    `json:"last_updated"`
	Signal      model.Signal `json:"signal"`
	Weeks       int          `json:"weeks"`
	Latest      *latestView  `json:"latest,omitempty"`
}

func (s *Server) view(rec *model.AnalysisRecord) analysisView {
	v := analysisView{
		ID:          rec.ID,
		Symbol:      rec.Symbol,
		Company:     s.Screener.CompanyName(rec.Symbol),
		Source:      rec.Source,
		LastUpdated: rec.LastUpdated,
		Signal:      rec.Signal,
		Weeks:       len(rec.Bars),
	}
	if bar, ind, ok := rec.Latest(); ok {
		v.Latest = &latestView{Date: bar.Date, Close: bar.Close, Volume: bar.Volume, AO: ind.AO, AC: ind.AC}
	}
	return v
}

// errorStatus maps pipeline failures to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, analysis.ErrNothingLoaded), errors.Is(err, collector.ErrInvalidSymbol):
		return http.StatusNotFound
	case errors.Is(err, collector.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, collector.ErrEmptySeries):
		return http.StatusUnprocessableEntity
	case errors.Is(err, collector.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	msg := collector.UserMessage(err)
	if errors.Is(err, analysis.ErrNothingLoaded) {
		msg = "No analysis loaded yet."
	}
	c.JSON(errorStatus(err), gin.H{
		"error":   collector.ErrorKind(err),
		"message": msg,
	})
}

func (s *Server) getAnalysis(c *gin.Context) {
	rec := s.Service.Store.Current()
	if rec == nil {
		writeError(c, analysis.ErrNothingLoaded)
		return
	}
	c.JSON(http.StatusOK, s.view(rec))
}

func (s *Server) analyzeSymbol(c *gin.Context) {
	rec, err := s.Service.Analyze(c.Request.Context(), c.Param("symbol"), analysis.TriggerManual)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.view(rec))
}

func (s *Server) refreshAnalysis(c *gin.Context) {
	rec, err := s.Service.Refresh(c.Request.Context(), analysis.TriggerManual)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.view(rec))
}

func (s *Server) getChart(c *gin.Context) {
	window, err := model.ParseWindow(c.Query("window"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_window", "message": err.Error()})
		return
	}
	rec := s.Service.Store.Current()
	if rec == nil {
		writeError(c, analysis.ErrNothingLoaded)
		return
	}
	points := s.Charts.Build(rec, window, s.Now())
	c.JSON(http.StatusOK, gin.H{
		"symbol": rec.Symbol,
		"window": window.String(),
		"signal": rec.Signal,
		"points": points,
	})
}

func (s *Server) getHistory(c *gin.Context) {
	if s.History == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "journal_disabled", "message": "Signal journal is not configured."})
		return
	}
	symbol := collector.NormalizeSymbol(c.Query("symbol"))
	if symbol == "" {
		rec := s.Service.Store.Current()
		if rec == nil {
			writeError(c, analysis.ErrNothingLoaded)
			return
		}
		symbol = rec.Symbol
	}
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_limit", "message": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	events, err := s.History.SignalHistory(symbol, limit)
	if err != nil {
		s.Log.WithError(err).WithField("symbol", symbol).Error("read signal history")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "journal_unavailable",
			"message": "Signal history could not be read. Please try again.",
		})
		return
	}
	if events == nil {
		events = []recorder.AnalysisEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "events": events})
}

type companyView struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

func (s *Server) companies(symbols []string) []companyView {
	out := make([]companyView, len(symbols))
	for i, sym := range symbols {
		out[i] = companyView{Symbol: sym, Name: s.Screener.CompanyName(sym)}
	}
	return out
}

func (s *Server) listSectors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sectors": s.Screener.Sectors})
}

func (s *Server) getSector(c *gin.Context) {
	sector := c.Param("sector")
	industries := s.Screener.Industries(sector)
	if industries == nil {
		industries = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"sector":     sector,
		"industries": industries,
		"companies":  s.companies(s.Screener.Screen(sector, "")),
	})
}

func (s *Server) getIndustry(c *gin.Context) {
	sector, industry := c.Param("sector"), c.Param("industry")
	c.JSON(http.StatusOK, gin.H{
		"sector":    sector,
		"industry":  industry,
		"companies": s.companies(s.Screener.Screen(sector, industry)),
	})
}
