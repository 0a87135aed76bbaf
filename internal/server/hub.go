package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/lumenbar/lumen/internal/logging"
)

// hub tracks connected websocket clients and fans update frames out to
// them. A slow client's queue overflowing drops frames for that client
// only; the bar re-syncs on the next update.
type hub struct {
	logger  logging.Logger
	mutex   sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

func newHub(logger logging.Logger) *hub {
	return &hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

func (h *hub) add(conn *websocket.Conn) chan []byte {
	send := make(chan []byte, 64)

	h.mutex.Lock()
	h.clients[conn] = send
	h.mutex.Unlock()

	return send
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mutex.Lock()
	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
	h.mutex.Unlock()
}

func (h *hub) broadcast(ctx context.Context, message UpdateMessage) {
	frame, err := json.Marshal(message)
	if err != nil {
		h.logger.Error(ctx, err, "failed to marshal update frame", "widget", message.Widget)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, send := range h.clients {
		select {
		case send <- frame:
		default:
			// Skip if the client's queue is full
		}
	}
}

func (h *hub) count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, send := range h.clients {
		close(send)
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(h.clients, conn)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.allowedOrigin(r.Header.Get("Origin")) {
		s.logger.Warn(r.Context(), nil, "websocket rejected: origin not allowed",
			"origin", r.Header.Get("Origin"), "remote", r.RemoteAddr)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origin is validated above against the configured allowlist.
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed", "remote", r.RemoteAddr)
		return
	}

	send := s.hub.add(conn)
	defer s.hub.remove(conn)

	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case frame, ok := <-send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
		}
	}
}

// allowedOrigin reports whether a websocket upgrade from origin is
// permitted. Same-origin requests (no Origin header) and localhost origins
// are always allowed; anything else must appear in the configured allowlist.
func (s *Server) allowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	hostname := parsed.Hostname()
	if hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1" {
		return true
	}

	for _, allowed := range s.cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
