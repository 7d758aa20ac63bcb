package engine

import (
	"time"

	"hanyang/internal/actor"
	"hanyang/internal/board"
	"hanyang/internal/resources"
	"hanyang/internal/workers"
)

// Status is the Game's lifecycle state.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// TotalRounds is the fixed round count every game plays.
const TotalRounds = 4

// InitialWood and InitialStone are the only two starting resource kinds a
// player holds; tile and ink start at zero.
const (
	InitialWood  = 2
	InitialStone = 2
)

// CardsPerPlayer is how many blueprint cards are dealt to each player.
const CardsPerPlayer = 3

// PlayerState is one player's per-game state. UserID is the canonical
// Actor id -- the same identifier stored in Game.CurrentTurnUserID and in
// every PlacedTile/PlacedWorker's ownership field on the board. Position
// is only ever a display/ordering index; it never doubles as an ownership
// key, closing the "player id vs user id duality" the source conflated.
type PlayerState struct {
	UserID             int64               `json:"user_id"`
	Username           string              `json:"username"`
	Color              string              `json:"color"`
	Position           int                 `json:"turn_order"`
	IsHost             bool                `json:"is_host"`
	IsAI               bool                `json:"is_ai"`
	AIDifficulty       actor.Difficulty    `json:"ai_difficulty,omitempty"`
	Resources          resources.Resources `json:"resources"`
	Workers            workers.Pool        `json:"workers"`
	DealtBlueprints    []string            `json:"dealt_blueprints"`
	SelectedBlueprints []string            `json:"selected_blueprints"`
	Score              int                 `json:"score"`
	ScoreBreakdown     *ScoreBreakdown     `json:"score_breakdown,omitempty"`
}

// ScoreBreakdown fixes one player's finalization arithmetic: the running
// placement total, the blueprint payout with per-card detail, the count of
// workers still on the board, and the leftover-resource penalty. Written
// once at finalization and never updated afterward.
type ScoreBreakdown struct {
	BaseScore       int            `json:"base_score"`
	BlueprintBonus  int            `json:"blueprint_bonus"`
	BlueprintDetail map[string]int `json:"blueprint_detail,omitempty"`
	WorkerScore     int            `json:"worker_score"`
	ResourcePenalty int            `json:"resource_penalty"`
	Total           int            `json:"total"`
	Rank            int            `json:"rank"`
}

// Actor returns this player's canonical identity.
func (p PlayerState) Actor() actor.Actor {
	if p.IsAI {
		return actor.NewAI(p.UserID, p.AIDifficulty)
	}
	return actor.NewHuman(p.UserID)
}

// ActionSummary is a compact record of the last committed action, kept on
// the aggregate for the externally-visible "last_action" field.
type ActionSummary struct {
	ActorUserID int64     `json:"actor_user_id"`
	ActionKind  string    `json:"action_kind"`
	Timestamp   time.Time `json:"timestamp"`
}

// ActionRecord is the append-only log entry GameEngine writes for every
// committed action. Never mutated; rehydration replays a Game from its
// ActionRecords.
type ActionRecord struct {
	ID          string
	GameID      string
	ActorUserID int64
	ActionKind  string
	Payload     interface{}
	Timestamp   time.Time
}

// Game is the aggregate root: the sole unit GameEngine mutates.
type Game struct {
	ID                string
	RoomID            string
	Status            Status
	CurrentRound      int
	TotalRounds       int
	CurrentTurnUserID int64
	TurnOrder         []int64
	Board             board.Board
	Players           []PlayerState
	AvailableTiles    []string
	DiscardedTiles    []string
	LastAction        *ActionSummary
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PlayerByUserID finds a player by canonical id; ok is false if absent.
func (g *Game) PlayerByUserID(userID int64) (*PlayerState, bool) {
	for i := range g.Players {
		if g.Players[i].UserID == userID {
			return &g.Players[i], true
		}
	}
	return nil, false
}

// InTurnOrder reports whether userID is a participant in this game.
func (g *Game) InTurnOrder(userID int64) bool {
	for _, id := range g.TurnOrder {
		if id == userID {
			return true
		}
	}
	return false
}

// Winner returns the user id ranked first at finalization; ok is false
// while the game is still in progress.
func (g *Game) Winner() (int64, bool) {
	if g.Status != StatusFinished {
		return 0, false
	}
	for i := range g.Players {
		if b := g.Players[i].ScoreBreakdown; b != nil && b.Rank == 1 {
			return g.Players[i].UserID, true
		}
	}
	return 0, false
}

// VisibleTiles returns only the first three available tiles -- the only
// ones legal to buy and visible to players; the remainder is hidden supply.
func (g *Game) VisibleTiles() []string {
	if len(g.AvailableTiles) <= 3 {
		return append([]string(nil), g.AvailableTiles...)
	}
	return append([]string(nil), g.AvailableTiles[:3]...)
}
