package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The delivery layer sits behind the operator's own ingress; origin
	// policy is enforced there.
	CheckOrigin: func(*http.Request) bool { return true },
}

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// handleWS upgrades the connection and streams admission events to it until
// the client goes away. Each connection is one hub subscriber; events
// published before the connection opened are never replayed.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	events := s.hub.Subscribe()
	defer s.hub.Unsubscribe(events)
	defer conn.Close()

	s.logger.Info("websocket connected", "remote", r.RemoteAddr)

	// Drain client frames so close/ping-pong handling works; we never use
	// their content.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			s.logger.Info("websocket disconnected", "remote", r.RemoteAddr)
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case evt, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(evt); err != nil {
				s.logger.Warn("websocket write failed", "remote", r.RemoteAddr, "error", err)
				return
			}
		}
	}
}
