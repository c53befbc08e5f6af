// Package ws exposes the game session registry over WebSocket. It is
// pure transport: frames are handed to the session loop untouched, and
// outbound frames are drained from the client's outbox.
package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lukeharby/wildspace/internal/auth"
	"github.com/lukeharby/wildspace/internal/game"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	// pingInterval must be under pongTimeout so a healthy peer is never
	// timed out between pings.
	pingInterval = 45 * time.Second

	maxFrameSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browsers send the game origin; cross-origin embedding is allowed
	// because the join token is the actual access control.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests into game session connections.
type Handler struct {
	registry *game.Registry
	secret   []byte
}

// NewHandler creates a WebSocket handler over the session registry.
// secret verifies scene join tokens.
func NewHandler(registry *game.Registry, secret []byte) *Handler {
	return &Handler{registry: registry, secret: secret}
}

// ServeHTTP upgrades the connection, verifies the join token from the
// "token" query parameter, and attaches the client to its scene session.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	grant, err := auth.ParseSceneToken(h.secret, r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid join token", http.StatusUnauthorized)
		return
	}

	client := game.NewClient(uuid.NewString(), grant.UserID)
	session, err := h.registry.Join(r.Context(), grant, client)
	if err != nil {
		http.Error(w, "scene unavailable", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		session.Leave(client.Key)
		return
	}

	go writePump(conn, client)
	readPump(conn, session, client)
}

// readPump relays inbound frames into the session loop until the
// connection dies, then detaches the client.
func readPump(conn *websocket.Conn, session *game.Session, client *game.Client) {
	defer func() {
		session.Leave(client.Key)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: client %s read: %v", client.Key, err)
			}
			return
		}
		session.Handle(client.Key, data)
	}
}

// writePump drains the client outbox to the socket and keeps the
// connection alive with pings.
func writePump(conn *websocket.Conn, client *game.Client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case frame, ok := <-client.Outbox():
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
