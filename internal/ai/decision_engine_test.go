package ai

import (
	"testing"
	"time"

	"hanyang/internal/actor"
	"hanyang/internal/engine"
	"hanyang/test/testutil"
)

func TestEasyNeverReturnsAnIllegalAction(t *testing.T) {
	eng, store := testutil.NewEngine(engine.DefaultConfig())
	game, err := eng.Create(testutil.HumanAndAIRoom(actor.Easy), 1)
	if err != nil {
		t.Fatal(err)
	}
	store.SaveGame(game)

	ai, ok := game.PlayerByUserID(-1)
	if !ok {
		t.Fatal("fixture expects an AI seat at user id -1")
	}

	d := NewDecisionEngine(actor.Easy)
	action := d.MakeDecision(eng, game, *ai)

	if _, _, err := eng.Submit(game.ID, -1, action, time.Time{}); err != nil {
		t.Fatalf("easy AI produced an action the engine rejected: %v (%+v)", err, action)
	}
}

func TestMediumPrefersSelectingBlueprintFirst(t *testing.T) {
	eng, store := testutil.NewEngine(engine.DefaultConfig())
	game, err := eng.Create(testutil.HumanAndAIRoom(actor.Medium), 2)
	if err != nil {
		t.Fatal(err)
	}
	store.SaveGame(game)

	ai, _ := game.PlayerByUserID(-1)
	if len(ai.DealtBlueprints) == 0 {
		t.Fatal("fixture expects a dealt hand")
	}

	d := NewDecisionEngine(actor.Medium)
	action := d.MakeDecision(eng, game, *ai)
	if action.Kind != engine.ActionSelectBlueprint {
		t.Fatalf("expected medium to select a blueprint before anything else, got %s", action.Kind)
	}
}

func TestHardNeverStallsAcrossAFullGame(t *testing.T) {
	eng, store := testutil.NewEngine(engine.DefaultConfig())
	game, err := eng.Create(testutil.HumanAndAIRoom(actor.Hard), 3)
	if err != nil {
		t.Fatal(err)
	}
	store.SaveGame(game)

	d := NewDecisionEngine(actor.Hard)
	const maxSteps = 500
	for i := 0; i < maxSteps; i++ {
		current, err := store.LoadGame(game.ID)
		if err != nil {
			t.Fatal(err)
		}
		if current.Status == engine.StatusFinished {
			return
		}
		if current.CurrentTurnUserID != -1 {
			// advance the human turn so the AI gets another chance
			if _, _, err := eng.Submit(current.ID, current.CurrentTurnUserID, engine.Action{Kind: engine.ActionEndTurn}, time.Time{}); err != nil {
				t.Fatalf("human end_turn failed: %v", err)
			}
			continue
		}
		ai, _ := current.PlayerByUserID(-1)
		action := d.MakeDecision(eng, current, *ai)
		if _, _, err := eng.Submit(current.ID, -1, action, time.Time{}); err != nil {
			t.Fatalf("hard AI produced an action the engine rejected: %v (%+v)", err, action)
		}
	}
	t.Fatalf("game did not finish within %d steps", maxSteps)
}
