// Package testutil holds the in-memory Store and Broadcaster fixtures
// used by the internal/ai tests, generalized from the private memStore
// and nullBroadcaster fixtures in internal/engine/engine_test.go so
// those tests don't reinvent them.
package testutil

import (
	"fmt"
	"sync"

	"hanyang/internal/actor"
	"hanyang/internal/blueprints"
	"hanyang/internal/engine"
	"hanyang/internal/tiles"
	"hanyang/models"
)

// MemStore is a goroutine-safe, process-local engine.Store, good enough
// to exercise Engine.Submit's load/mutate/persist sequence in tests
// without a real database.
type MemStore struct {
	mu      sync.Mutex
	games   map[string]*engine.Game
	byRoom  map[string]string
	actions map[string][]engine.ActionRecord
}

// NewMemStore builds an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		games:   make(map[string]*engine.Game),
		byRoom:  make(map[string]string),
		actions: make(map[string][]engine.ActionRecord),
	}
}

func (s *MemStore) LoadGame(id string) (*engine.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, fmt.Errorf("game %s not found", id)
	}
	clone := *g
	return &clone, nil
}

func (s *MemStore) LoadGameByRoom(roomID string) (*engine.Game, error) {
	s.mu.Lock()
	id, ok := s.byRoom[roomID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no game for room %s", roomID)
	}
	return s.LoadGame(id)
}

func (s *MemStore) SaveGame(game *engine.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *game
	s.games[game.ID] = &clone
	s.byRoom[game.RoomID] = game.ID
	return nil
}

func (s *MemStore) AppendAction(gameID string, record engine.ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[gameID] = append(s.actions[gameID], record)
	return nil
}

func (s *MemStore) CommitAction(game *engine.Game, record engine.ActionRecord) error {
	if err := s.SaveGame(game); err != nil {
		return err
	}
	return s.AppendAction(game.ID, record)
}

// Actions returns the append-only action log recorded for gameID, in
// commit order.
func (s *MemStore) Actions(gameID string) []engine.ActionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]engine.ActionRecord(nil), s.actions[gameID]...)
}

// NullBroadcaster discards every event; it satisfies engine.Broadcaster
// for tests and drivers that don't care about the broadcast fabric.
type NullBroadcaster struct{}

func (NullBroadcaster) Broadcast(gameID string, kind engine.EventKind, payload interface{}, exclude *int64) {
}

func (NullBroadcaster) Send(gameID string, userID int64, kind engine.EventKind, payload interface{}) bool {
	return true
}

// NewEngine builds an Engine over the package-level tile and blueprint
// catalogs, a fresh MemStore, and NullBroadcaster -- the fixture every
// table-driven engine/ai test starts from.
func NewEngine(cfg engine.Config) (*engine.Engine, *MemStore) {
	store := NewMemStore()
	return engine.New(tiles.Catalog, blueprints.Catalog, store, NullBroadcaster{}, cfg), store
}

// TwoHumanRoom is a minimal two-participant room for tests that don't
// care about AI seats.
func TwoHumanRoom() models.Room {
	return models.Room{
		ID: "room-humans",
		Participants: []models.Participant{
			{UserID: 1, Username: "alice", IsHost: true},
			{UserID: 2, Username: "bob"},
		},
	}
}

// HumanAndAIRoom is a one-human, one-AI fixture room at the given
// difficulty, for auto-play and AI decision tests.
func HumanAndAIRoom(difficulty actor.Difficulty) models.Room {
	return models.Room{
		ID: "room-solo-ai",
		Participants: []models.Participant{
			{UserID: 1, Username: "alice", IsHost: true},
			{UserID: -1, Username: "ai-1", IsAI: true, AIDifficulty: difficulty},
		},
	}
}
