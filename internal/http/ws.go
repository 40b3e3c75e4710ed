package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/olahol/melody"

	"github.com/jc9677/budget-app-2/internal/events"
)

// Hub broadcasts change events to every connected websocket client.
// Clients only listen; inbound messages are ignored.
type Hub struct {
	m *melody.Melody
}

var _ events.Publisher = (*Hub)(nil)

func NewHub() *Hub {
	m := melody.New()
	m.Config.MaxMessageSize = 512
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		slog.Debug("Websocket client connected", "remote_addr", s.Request.RemoteAddr)
	})
	m.HandleDisconnect(func(s *melody.Session) {
		slog.Debug("Websocket client disconnected", "remote_addr", s.Request.RemoteAddr)
	})
	m.HandleError(func(s *melody.Session, err error) {
		slog.Debug("Websocket error", "remote_addr", s.Request.RemoteAddr, "error", err)
	})

	return &Hub{m: m}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.m.HandleRequest(w, r); err != nil {
		slog.WarnContext(r.Context(), "Failed to upgrade websocket", "error", err)
	}
}

// Publish broadcasts e as JSON. With no clients connected it is a no-op.
func (h *Hub) Publish(_ context.Context, e events.Event) error {
	if h.m.IsClosed() || h.m.Len() == 0 {
		return nil
	}
	data, err := e.Marshal()
	if err != nil {
		return err
	}
	return h.m.Broadcast(data)
}

// Clients returns the number of connected sessions.
func (h *Hub) Clients() int {
	return h.m.Len()
}

func (h *Hub) Close() error {
	if h.m.IsClosed() {
		return nil
	}
	return h.m.Close()
}
