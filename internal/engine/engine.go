// Package engine implements the authoritative game-state machine: the sole
// mutator of a Game, exposing Create/Submit/ValidActionsFor over a narrow
// persistence and broadcast contract. Each game is a single logical serial
// actor; a per-game lock covers the whole load-validate-mutate-persist-
// broadcast sequence.
package engine

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"hanyang/internal/blueprints"
	"hanyang/internal/board"
	"hanyang/internal/resources"
	"hanyang/internal/tiles"
	"hanyang/internal/workers"
	"hanyang/models"
	"hanyang/pkg/logger"
	"hanyang/pkg/protocol"
)

// Config tunes engine-level behavior that is not part of the core rules.
type Config struct {
	// RecallWorkersEachRound wires the otherwise-unused RecallAll helper
	// at the top of end_turn when the turn wrap crosses a round boundary.
	// Default false preserves the documented default flow.
	RecallWorkersEachRound bool
	// MaxAITurns bounds consecutive AI auto-play actions per auto-play
	// run, preventing a runaway loop.
	MaxAITurns int
}

// DefaultConfig matches the documented default rules flow.
func DefaultConfig() Config {
	return Config{RecallWorkersEachRound: false, MaxAITurns: 50}
}

// Engine is the sole mutator of Game state. One Engine instance serves
// every concurrently running game; per-game serialization is enforced by a
// lock acquired per game_id around the load-validate-mutate-persist-
// broadcast sequence.
type Engine struct {
	TileCatalog      map[string]tiles.Definition
	BlueprintCatalog map[string]blueprints.Card
	Store            Store
	Broadcaster      Broadcaster
	Config           Config

	log *logger.ColoredLogger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New builds an Engine over the given catalogs, store, and broadcaster.
// Catalogs are immutable, process-wide data built once at startup; tests
// may pass in their own fixture catalogs instead of the package-level
// defaults.
func New(tileCatalog map[string]tiles.Definition, blueprintCatalog map[string]blueprints.Card, store Store, broadcaster Broadcaster, cfg Config) *Engine {
	return &Engine{
		TileCatalog:      tileCatalog,
		BlueprintCatalog: blueprintCatalog,
		Store:            store,
		Broadcaster:      broadcaster,
		Config:           cfg,
		log:              logger.NewColoredLogger("Engine", logger.ColorBrightBlue),
		locks:            make(map[string]*sync.Mutex),
	}
}

func (e *Engine) lockFor(gameID string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	l, ok := e.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[gameID] = l
	}
	return l
}

// Create builds a new Game from an assembled room: deals blueprints,
// shuffles the tile pool, and starts the first round. Seed controls both
// shuffles; callers that want determinism (tests, replay) pass a fixed
// seed, everyone else passes time.Now().UnixNano().
func (e *Engine) Create(room models.Room, seed int64) (*Game, error) {
	if len(room.Participants) < 2 {
		return nil, newErr(PreconditionFailed, "a game requires at least 2 participants, got %d", len(room.Participants))
	}
	if len(room.Participants) > 4 {
		return nil, newErr(PreconditionFailed, "a game allows at most 4 participants, got %d", len(room.Participants))
	}

	rng := rand.New(rand.NewSource(seed))
	shuffle := func(s []string) {
		rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
	}

	pool := tiles.Pool(e.TileCatalog, shuffle)
	hands := blueprints.DealBlueprints(e.BlueprintCatalog, len(room.Participants), CardsPerPlayer, shuffle)

	players := make([]PlayerState, len(room.Participants))
	turnOrder := make([]int64, len(room.Participants))
	for i, p := range room.Participants {
		color := p.Color
		if color == "" {
			color = defaultColors[i]
		}
		players[i] = PlayerState{
			UserID:          p.UserID,
			Username:        p.Username,
			Color:           color,
			Position:        i,
			IsHost:          p.IsHost,
			IsAI:            p.IsAI,
			AIDifficulty:    p.AIDifficulty,
			Resources:       resources.Resources{Wood: InitialWood, Stone: InitialStone},
			Workers:         workers.NewPool(),
			DealtBlueprints: hands[i],
		}
		turnOrder[i] = p.UserID
	}

	now := time.Now()
	game := &Game{
		ID:                randomID(rng),
		RoomID:            room.ID,
		Status:            StatusInProgress,
		CurrentRound:      1,
		TotalRounds:       TotalRounds,
		CurrentTurnUserID: turnOrder[0],
		TurnOrder:         turnOrder,
		Board:             board.New(),
		Players:           players,
		AvailableTiles:    pool,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	e.log.Info("created game %s for room %s with %d players", game.ID, room.ID, len(players))
	return game, nil
}

// defaultColors fills seats whose lobby left the color unset; colors must
// be unique within a game.
var defaultColors = []string{"red", "blue", "yellow", "green"}

func randomID(rng *rand.Rand) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 20)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(b)
}

// Submit validates actorID's action against game's current state, applies
// it, appends the ActionRecord, advances turn/round/finalization, persists
// atomically, and broadcasts. It acquires the per-game lock for the whole
// sequence so a game is a single logical serial actor.
func (e *Engine) Submit(gameID string, actorID int64, action Action, deadline time.Time) (*Game, *Result, error) {
	if !deadline.IsZero() && time.Now().After(deadline) {
		return nil, nil, newErr(TimedOut, "deadline exceeded before lock acquisition")
	}

	lock := e.lockFor(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, err := e.Store.LoadGame(gameID)
	if err != nil {
		return nil, nil, wrapErr(NotFound, err, "game %s not found", gameID)
	}

	result, err := e.validateAndApply(game, actorID, action)
	if err != nil {
		return nil, nil, err
	}

	game.UpdatedAt = time.Now()
	game.LastAction = &ActionSummary{ActorUserID: actorID, ActionKind: action.Kind, Timestamp: game.UpdatedAt}

	record := ActionRecord{
		ID:          uuid.New().String(),
		GameID:      gameID,
		ActorUserID: actorID,
		ActionKind:  action.Kind,
		Payload:     action,
		Timestamp:   game.UpdatedAt,
	}

	if err := e.Store.CommitAction(game, record); err != nil {
		e.log.Error("failed to persist %s for game %s: %v", action.Kind, gameID, err)
		return nil, nil, wrapErr(Internal, err, "failed to persist action")
	}

	e.log.Debug("committed %s by %d on game %s (round %d)", action.Kind, actorID, gameID, game.CurrentRound)

	if e.Broadcaster != nil {
		e.publish(game, actorID, action, result)
	}

	return game, result, nil
}

func (e *Engine) validateAndApply(game *Game, actorID int64, action Action) (*Result, error) {
	if game.Status != StatusInProgress {
		return nil, newErr(IllegalState, "game is %s, not in_progress", game.Status)
	}
	if !game.InTurnOrder(actorID) {
		return nil, newErr(NotAParticipant, "actor %d is not a participant in this game", actorID)
	}

	switch action.Kind {
	case ActionSelectBlueprint:
		return e.applySelectBlueprint(game, actorID, action)
	case ActionPlaceTile:
		if err := e.requireTurn(game, actorID); err != nil {
			return nil, err
		}
		return e.applyPlaceTile(game, actorID, action)
	case ActionPlaceWorker:
		if err := e.requireTurn(game, actorID); err != nil {
			return nil, err
		}
		return e.applyPlaceWorker(game, actorID, action)
	case ActionEndTurn:
		if err := e.requireTurn(game, actorID); err != nil {
			return nil, err
		}
		return e.applyEndTurn(game, actorID)
	default:
		return nil, newErr(Malformed, "unknown action kind %q", action.Kind)
	}
}

func (e *Engine) requireTurn(game *Game, actorID int64) error {
	if game.CurrentTurnUserID != actorID {
		return newErr(NotYourTurn, "actor %d is not the current turn holder", actorID)
	}
	return nil
}

func (e *Engine) publish(game *Game, actorID int64, action Action, result *Result) {
	exclude := actorID
	state := game.StatePayload()
	e.Broadcaster.Broadcast(game.ID, "player_action", result, &exclude)
	e.Broadcaster.Send(game.ID, actorID, "action_result", result)
	e.Broadcaster.Broadcast(game.ID, "game_state_update", state, nil)
	if action.Kind != ActionEndTurn {
		return
	}
	e.Broadcaster.Broadcast(game.ID, "turn_changed", protocol.TurnChangedPayload{CurrentTurnUserID: game.CurrentTurnUserID}, nil)
	if game.Status == StatusFinished {
		winnerID, _ := game.Winner()
		e.Broadcaster.Broadcast(game.ID, "game_ended", protocol.GameEndedPayload{WinnerUserID: winnerID, State: state}, nil)
		return
	}
	if result.RoundAdvanced {
		e.Broadcaster.Broadcast(game.ID, "round_changed", protocol.RoundChangedPayload{CurrentRound: game.CurrentRound}, nil)
	}
	e.Broadcaster.Send(game.ID, game.CurrentTurnUserID, "your_turn", nil)
	e.Broadcaster.Send(game.ID, game.CurrentTurnUserID, "valid_actions_update", e.ValidActionsFor(game, game.CurrentTurnUserID))
}

// RecallAll recalls every worker of every player to available and strips
// them from the board's tiles, keeping pool counts and board occupancy
// consistent. Exposed as a rules-variant helper; the default flow never
// calls it directly -- Config.RecallWorkersEachRound wires it into
// end_turn when the turn wrap crosses a round boundary.
func (e *Engine) RecallAll(game *Game) {
	for i := range game.Players {
		game.Players[i].Workers = workers.RecallAll(game.Players[i].Workers)
	}
	game.Board = game.Board.ClearWorkers()
}
