package ai

import (
	"time"

	"hanyang/internal/actor"
	"hanyang/internal/engine"
)

// RunAutoPlay drives consecutive AI turns through eng.Submit, exactly the
// same entry point human actions use, until the current turn holder is
// human, the game finishes, or maxTurns consecutive AI actions have run.
// maxTurns is the upper bound against a runaway loop -- e.g. two AI seats
// with nothing left to do but trade end_turn forever.
func RunAutoPlay(eng *engine.Engine, gameID string, maxTurns int) (*engine.Game, error) {
	engines := make(map[actor.Difficulty]*DecisionEngine)

	var game *engine.Game
	for i := 0; i < maxTurns; i++ {
		g, err := eng.Store.LoadGame(gameID)
		if err != nil {
			return nil, err
		}
		game = g

		if game.Status != engine.StatusInProgress {
			return game, nil
		}
		current, ok := game.PlayerByUserID(game.CurrentTurnUserID)
		if !ok || !current.IsAI {
			return game, nil
		}

		d, ok := engines[current.AIDifficulty]
		if !ok {
			d = NewDecisionEngine(current.AIDifficulty)
			engines[current.AIDifficulty] = d
		}

		action := d.MakeDecision(eng, game, *current)
		if _, _, err := eng.Submit(gameID, current.UserID, action, time.Time{}); err != nil {
			return game, err
		}
	}

	return game, nil
}
