package api

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// wsBufferSize is the read and write buffer size for upgraded connections.
const wsBufferSize = 1024

// upgrader returns the WebSocket upgrader. Origins are checked against the
// CORS allow list.
func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  wsBufferSize,
		WriteBufferSize: wsBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.isAllowedOrigin(origin)
		},
	}
}

// handleWebSocket upgrades the connection and hands it to the hub. The
// subscriber identity was attached by resolveTicket and is empty for
// anonymous connections.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) error {
	userID, _ := CallerFromContext(r.Context())

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		s.logger.Warn("websocket upgrade failed", "error", err)
		return nil
	}

	s.hub.NewClient(conn, userID).Serve()
	s.logger.Debug("websocket client connected",
		"user_id", userID,
		"clients", s.hub.ClientCount(),
	)
	return nil
}
