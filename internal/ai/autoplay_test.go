package ai

import (
	"testing"
	"time"

	"hanyang/internal/actor"
	"hanyang/internal/engine"
	"hanyang/test/testutil"
)

func TestRunAutoPlayReturnsTurnToTheHuman(t *testing.T) {
	eng, store := testutil.NewEngine(engine.DefaultConfig())
	game, err := eng.Create(testutil.HumanAndAIRoom(actor.Easy), 11)
	if err != nil {
		t.Fatal(err)
	}
	store.SaveGame(game)

	// Human ends their turn; it's now the AI's turn.
	if _, _, err := eng.Submit(game.ID, 1, engine.Action{Kind: engine.ActionEndTurn}, time.Time{}); err != nil {
		t.Fatalf("human end_turn failed: %v", err)
	}

	after, err := RunAutoPlay(eng, game.ID, 10)
	if err != nil {
		t.Fatalf("auto-play failed: %v", err)
	}

	if after.Status == engine.StatusInProgress && after.CurrentTurnUserID != 1 {
		t.Fatalf("expected turn back on the human after auto-play, got %d", after.CurrentTurnUserID)
	}
}

func TestRunAutoPlayRespectsMaxTurns(t *testing.T) {
	eng, store := testutil.NewEngine(engine.DefaultConfig())
	game, err := eng.Create(testutil.HumanAndAIRoom(actor.Easy), 12)
	if err != nil {
		t.Fatal(err)
	}
	store.SaveGame(game)

	if _, _, err := eng.Submit(game.ID, 1, engine.Action{Kind: engine.ActionEndTurn}, time.Time{}); err != nil {
		t.Fatalf("human end_turn failed: %v", err)
	}

	before := len(store.Actions(game.ID))
	if _, err := RunAutoPlay(eng, game.ID, 1); err != nil {
		t.Fatalf("auto-play failed: %v", err)
	}
	after := len(store.Actions(game.ID))

	if after-before > 1 {
		t.Fatalf("expected at most 1 committed AI action with maxTurns=1, got %d", after-before)
	}
}
