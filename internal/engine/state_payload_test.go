package engine

import (
	"testing"

	"hanyang/internal/board"
)

func TestStatePayloadHidesDiscardedAndExtraAvailableTiles(t *testing.T) {
	game := &Game{
		ID:             "g1",
		Status:         StatusInProgress,
		AvailableTiles: []string{"a", "b", "c", "d", "e"},
		DiscardedTiles: []string{"x", "y"},
		Board:          board.New(),
		Players:        []PlayerState{{UserID: 1}},
	}

	payload := game.StatePayload()
	if len(payload.AvailableTiles) != 3 {
		t.Fatalf("expected only the first 3 available tiles, got %v", payload.AvailableTiles)
	}
	if payload.AvailableTiles[0] != "a" || payload.AvailableTiles[2] != "c" {
		t.Fatalf("unexpected visible tiles: %v", payload.AvailableTiles)
	}
}

func TestStatePayloadIncludesPlacedTilesPerPlayer(t *testing.T) {
	game := &Game{
		ID:      "g1",
		Status:  StatusInProgress,
		Board:   board.New(),
		Players: []PlayerState{{UserID: 9}},
	}
	game.Board = game.Board.Place(1, 1, board.PlacedTile{TileID: "seed", OwnerID: 9})

	payload := game.StatePayload()
	if len(payload.Players) != 1 {
		t.Fatalf("expected one player in payload, got %d", len(payload.Players))
	}
	if len(payload.Players[0].PlacedTiles) != 1 {
		t.Fatalf("expected the player's placed tile to surface, got %v", payload.Players[0].PlacedTiles)
	}
	got := payload.Players[0].PlacedTiles[0]
	if got.Row != 1 || got.Col != 1 {
		t.Fatalf("expected placed tile at (1,1), got (%d,%d)", got.Row, got.Col)
	}
}
