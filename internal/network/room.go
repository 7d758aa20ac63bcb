package network

import (
	"fmt"
	"sync"
	"time"

	"hanyang/internal/ai"
	"hanyang/internal/engine"
	"hanyang/internal/workers"
	"hanyang/pkg/logger"
	"hanyang/pkg/protocol"
)

// Room groups every session currently watching one game.
type Room struct {
	ID  string
	log *logger.ColoredLogger

	mu       sync.RWMutex
	byUser   map[int64][]*Session
	sessions map[string]*Session
}

func newRoom(gameID string) *Room {
	return &Room{
		ID:       gameID,
		log:      logger.CreateRoomLogger(gameID, logger.ColorBrightPurple),
		byUser:   make(map[int64][]*Session),
		sessions: make(map[string]*Session),
	}
}

// add registers s unless the room is already at maxConns connections; 0
// means unlimited. ok is false if the room is full; rejoined reports
// whether the same user already holds another live session here.
func (r *Room) add(s *Session, maxConns int) (ok, rejoined bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if maxConns > 0 && len(r.sessions) >= maxConns {
		return false, false
	}
	rejoined = len(r.byUser[s.UserID]) > 0
	r.sessions[s.ID] = s
	r.byUser[s.UserID] = append(r.byUser[s.UserID], s)
	return true, rejoined
}

func (r *Room) remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, s.ID)
	peers := r.byUser[s.UserID]
	for i, peer := range peers {
		if peer == s {
			r.byUser[s.UserID] = append(peers[:i], peers[i+1:]...)
			break
		}
	}
	if len(r.byUser[s.UserID]) == 0 {
		delete(r.byUser, s.UserID)
	}
}

func (r *Room) empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions) == 0
}

// Hub is the top-level registry of Rooms, and the engine.Broadcaster
// implementation GameEngine publishes through. It never imports the
// engine package's concrete Game/Action types beyond the Engine handle
// needed to route inbound actions from Session.readPump.
type Hub struct {
	Engine                *engine.Engine
	PingInterval          time.Duration
	MaxConnectionsPerGame int

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewHub builds a Hub bound to eng, the sole engine instance serving every
// game this process hosts. maxConnsPerGame caps concurrent observer
// sessions per room; 0 leaves it unlimited.
func NewHub(eng *engine.Engine, pingInterval time.Duration, maxConnsPerGame int) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		Engine:                eng,
		PingInterval:          pingInterval,
		MaxConnectionsPerGame: maxConnsPerGame,
		rooms:                 make(map[string]*Room),
	}
}

func (h *Hub) roomFor(gameID string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[gameID]
	if !ok {
		r = newRoom(gameID)
		h.rooms[gameID] = r
	}
	return r
}

// Register adds a connected session to its game's room, creating the room
// on first join, and announces the arrival to the room's other observers:
// player_joined for a user's first session, player_reconnected when the
// user already holds another live session. Returns false if the room is
// already at capacity.
func (h *Hub) Register(gameID string, s *Session) bool {
	ok, rejoined := h.roomFor(gameID).add(s, h.MaxConnectionsPerGame)
	if !ok {
		return false
	}
	exclude := s.UserID
	if rejoined {
		h.Broadcast(gameID, string(protocol.EventPlayerReconnected), protocol.PlayerReconnectedPayload{UserID: s.UserID}, &exclude)
	} else {
		h.Broadcast(gameID, string(protocol.EventPlayerJoined), protocol.PlayerJoinedPayload{UserID: s.UserID}, &exclude)
	}
	return true
}

// Deregister removes a session from its game's room. A player_left event
// is announced to the remaining observers only if no other live session
// for that user remains in the room. An emptied room is dropped so a
// finished game's broadcast state does not leak forever.
func (h *Hub) Deregister(gameID string, s *Session) {
	h.mu.Lock()
	r, ok := h.rooms[gameID]
	h.mu.Unlock()
	if !ok {
		return
	}
	r.remove(s)
	r.mu.RLock()
	_, stillPresent := r.byUser[s.UserID]
	r.mu.RUnlock()
	if !stillPresent {
		h.Broadcast(gameID, string(protocol.EventPlayerLeft), protocol.PlayerLeftPayload{UserID: s.UserID}, nil)
	}
	if r.empty() {
		h.mu.Lock()
		delete(h.rooms, gameID)
		h.mu.Unlock()
	}
}

// Broadcast implements engine.Broadcaster: fan payload out to every session
// in gameID's room except exclude's sessions, if set. A session whose
// delivery fails is closed and deregistered, which announces player_left
// for its user unless another of their sessions survives.
func (h *Hub) Broadcast(gameID string, kind engine.EventKind, payload interface{}, exclude *int64) {
	h.mu.RLock()
	r, ok := h.rooms[gameID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	env, err := protocol.NewEnvelope(kind, payload)
	if err != nil {
		r.log.Error("failed to encode broadcast envelope for %s: %v", kind, err)
		return
	}

	r.mu.RLock()
	var failed []*Session
	for userID, peers := range r.byUser {
		if exclude != nil && userID == *exclude {
			continue
		}
		for _, s := range peers {
			if !s.SendEnvelope(env) {
				failed = append(failed, s)
			}
		}
	}
	r.mu.RUnlock()
	h.dropSessions(gameID, r, failed)
}

// Send implements engine.Broadcaster: deliver payload to every live session
// of one user within gameID's room. Reports whether at least one session
// received it. Failed sessions are dropped the same way Broadcast drops them.
func (h *Hub) Send(gameID string, userID int64, kind engine.EventKind, payload interface{}) bool {
	h.mu.RLock()
	r, ok := h.rooms[gameID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	env, err := protocol.NewEnvelope(kind, payload)
	if err != nil {
		r.log.Error("failed to encode send envelope for %s: %v", kind, err)
		return false
	}

	r.mu.RLock()
	var failed []*Session
	delivered := false
	for _, s := range r.byUser[userID] {
		if s.SendEnvelope(env) {
			delivered = true
		} else {
			failed = append(failed, s)
		}
	}
	r.mu.RUnlock()
	h.dropSessions(gameID, r, failed)
	return delivered
}

// dropSessions closes and deregisters sessions whose delivery failed. Runs
// after the room lock is released since Deregister re-enters Broadcast for
// the player_left announcement.
func (h *Hub) dropSessions(gameID string, r *Room, failed []*Session) {
	for _, s := range failed {
		r.log.Warn("dropping unresponsive session %s (user %d)", s.ID, s.UserID)
		s.Close()
		h.Deregister(gameID, s)
	}
}

// scheduleAIPlay drives consecutive AI turns in the background after a
// committed action hands the turn to a computer-controlled seat. Bounded
// by the engine's MaxAITurns so two AI seats can never loop forever.
func (h *Hub) scheduleAIPlay(gameID string) {
	maxTurns := h.Engine.Config.MaxAITurns
	if maxTurns <= 0 {
		maxTurns = 50
	}
	log := h.roomFor(gameID).log
	go func() {
		if _, err := ai.RunAutoPlay(h.Engine, gameID, maxTurns); err != nil {
			log.Error("AI auto-play failed: %v", err)
		}
	}()
}

func workerKindFromString(s string) workers.Kind {
	if s == string(workers.Official) {
		return workers.Official
	}
	return workers.Apprentice
}

func errUnknownActionKind(kind protocol.ActionKind) error {
	return fmt.Errorf("unknown action kind %q", kind)
}
