package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"AwesomeSentinel/internal/metrics"
	"AwesomeSentinel/internal/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// envelope is the push message format.
type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans out analysis updates to connected WebSocket clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub. m may be nil.
func NewHub(m *metrics.Metrics, log logrus.FieldLogger) *Hub {
	return &Hub{clients: make(map[*wsClient]struct{}), metrics: m, log: log}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// join registers c and queues the snapshot as its first frame. Both happen
// under the hub lock, so every later broadcast queues after the snapshot and
// no update published in between is lost.
func (h *Hub) join(c *wsClient, snapshot func() []byte) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if msg := snapshot(); msg != nil {
		c.send <- msg
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.setGauge(n)
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.setGauge(n)
}

func (h *Hub) setGauge(n int) {
	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(n))
	}
}

// Broadcast sends msg to every client. Clients with a full queue miss it.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Warn("ws client too slow, dropping message")
		}
	}
}

// RunHub broadcasts every published record to WebSocket clients until ctx is cancelled.
func (s *Server) RunHub(ctx context.Context) {
	updates, cancel := s.Service.Store.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-updates:
			if !ok {
				return
			}
			msg, err := s.analysisMessage(rec)
			if err != nil {
				s.Log.WithError(err).Error("encode ws update")
				continue
			}
			s.Hub.Broadcast(msg)
		}
	}
}

// currentMessage encodes the live record, or returns nil when none is loaded.
func (s *Server) currentMessage() []byte {
	rec := s.Service.Store.Current()
	if rec == nil {
		return nil
	}
	msg, err := s.analysisMessage(rec)
	if err != nil {
		s.Log.WithError(err).Error("encode ws snapshot")
		return nil
	}
	return msg
}

func (s *Server) analysisMessage(rec *model.AnalysisRecord) ([]byte, error) {
	return json.Marshal(envelope{Type: "analysis", Data: s.view(rec)})
}

func (s *Server) websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Log.WithError(err).Warn("ws upgrade")
		return
	}
	client := &wsClient{conn: conn, send: make(chan []byte, 16)}
	s.Hub.join(client, s.currentMessage)

	go client.writePump()
	client.readPump(s.Hub)
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames and unregisters the client on disconnect.
func (c *wsClient) readPump(h *Hub) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
