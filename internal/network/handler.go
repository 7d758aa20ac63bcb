package network

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"hanyang/internal/identity"
	"hanyang/pkg/logger"
	"hanyang/pkg/protocol"
)

// Close codes the observer channel uses beyond the standard websocket set,
// per the identity contract: 4001 for a token that does not resolve, 4003
// for a token that resolves but does not name a participant of the game.
const (
	CloseAuthFailed      = 4001
	CloseNotAParticipant = 4003
)

// Handler upgrades incoming HTTP requests into Hub-registered Sessions,
// enforcing the bearer-token identity contract before a Session is ever
// created.
type Handler struct {
	hub      *Hub
	resolver identity.Resolver
	upgrader websocket.Upgrader
	log      *logger.ColoredLogger
}

// NewHandler builds a Handler serving games through hub, authenticating
// every connection via resolver.
func NewHandler(hub *Hub, resolver identity.Resolver) *Handler {
	return &Handler{
		hub:      hub,
		resolver: resolver,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		log: logger.NewColoredLogger("Server", logger.ColorBrightGreen),
	}
}

// ServeWS upgrades the request into an observer session for the game_id
// query parameter, closing with 4001 if the bearer token does not resolve
// and 4003 if it resolves to a user who is not a participant in that game.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game_id")
	if gameID == "" {
		http.Error(w, "missing game_id", http.StatusBadRequest)
		return
	}

	token := bearerToken(r)
	userID, err := h.resolver.ResolveUserID(token)
	if err != nil {
		h.rejectAfterUpgrade(w, r, CloseAuthFailed, "authentication failed")
		return
	}

	game, err := h.hub.Engine.Store.LoadGame(gameID)
	if err != nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	if !game.InTurnOrder(userID) {
		h.rejectAfterUpgrade(w, r, CloseNotAParticipant, "not a participant in this game")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed: %v", err)
		return
	}

	session := NewSession(conn, h.hub, gameID, userID)
	if session == nil {
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "game's connection limit reached")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(5*time.Second))
		conn.Close()
		return
	}

	if snapshot, err := protocol.NewEnvelope(string(protocol.EventGameStateUpdate), game.StatePayload()); err == nil {
		session.SendEnvelope(snapshot)
	}
}

// rejectAfterUpgrade completes the handshake so the client's websocket
// library observes a proper close frame and code, rather than a bare HTTP
// error it would otherwise have to special-case.
func (h *Handler) rejectAfterUpgrade(w http.ResponseWriter, r *http.Request, code int, reason string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	msg := websocket.FormatCloseMessage(code, reason)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(5*time.Second))
	conn.Close()
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
