package protocol

// GameStatePayload is the externally-visible state snapshot: exactly the
// fields the engine is permitted to emit. DiscardedTiles and all but the
// first three AvailableTiles are never exposed externally.
type GameStatePayload struct {
	ID                string          `json:"id"`
	Status            string          `json:"status"`
	CurrentRound      int             `json:"current_round"`
	TotalRounds       int             `json:"total_rounds"`
	CurrentTurnUserID int64           `json:"current_turn_user_id"`
	TurnOrder         []int64         `json:"turn_order"`
	Board             interface{}     `json:"board"`
	Players           []PlayerPayload `json:"players"`
	AvailableTiles    []string        `json:"available_tiles"`
	CreatedAt         int64           `json:"created_at"`
	UpdatedAt         int64           `json:"updated_at"`
}

// PlayerPayload is one player's full externally-visible state.
type PlayerPayload struct {
	UserID             int64          `json:"user_id"`
	Username           string         `json:"username"`
	Color              string         `json:"color"`
	Position           int            `json:"turn_order"`
	IsHost             bool           `json:"is_host"`
	IsAI               bool           `json:"is_ai"`
	AIDifficulty       string         `json:"ai_difficulty,omitempty"`
	Resources          interface{}    `json:"resources"`
	Workers            interface{}    `json:"workers"`
	SelectedBlueprints []string       `json:"selected_blueprints"`
	Score              int         `json:"score"`
	ScoreBreakdown     interface{} `json:"score_breakdown,omitempty"`
	PlacedTiles        []Position  `json:"placed_tiles"`
}

// GameEndedPayload announces finalization: the winning actor and the final
// state snapshot with every player's score breakdown filled in.
type GameEndedPayload struct {
	WinnerUserID int64            `json:"winner_id"`
	State        GameStatePayload `json:"state"`
}

// ActionTemplate is one entry of ValidActionsFor's read-only result: a
// legal action kind and the concrete parameters that make it legal right
// now, for UIs and the AI decision engine to choose among.
type ActionTemplate struct {
	ActionKind ActionKind  `json:"action_kind"`
	Params     interface{} `json:"params"`
}
