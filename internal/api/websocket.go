package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/bhanukaranwal/DharmaGuard/internal/surveillance"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// alertHub fans out generated alerts to every connected admin client over
// a websocket connection, following this codebase's channel-fan-out
// alerting style adapted to a push transport instead of email/slack/sms.
type alertHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newAlertHub() *alertHub {
	return &alertHub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *alertHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *alertHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	_ = conn.Close()
}

func (h *alertHub) broadcast(alert surveillance.Alert) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(alert); err != nil {
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
}

func (s *Server) handleAlertStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed")
		return
	}
	s.hub.add(conn)
	defer s.hub.remove(conn)

	// Block reading until the client disconnects; this connection is
	// write-only from the server's perspective.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
