package ai

import (
	"testing"

	"hanyang/internal/blueprints"
	"hanyang/internal/board"
	"hanyang/internal/tiles"
)

func TestAchievabilityCategoryCountIsProportional(t *testing.T) {
	b := board.New()
	const owner = int64(7)

	// Place two commercial tiles for owner; category_count needs 4.
	var commercialID string
	for id, d := range tiles.Catalog {
		if d.Category == tiles.Commercial {
			commercialID = id
			break
		}
	}
	if commercialID == "" {
		t.Fatal("fixture expects at least one commercial tile in the catalog")
	}

	b = b.Place(1, 1, board.PlacedTile{TileID: commercialID, OwnerID: owner})
	b = b.Place(1, 2, board.PlacedTile{TileID: commercialID, OwnerID: owner})

	cond := blueprints.Condition{Type: blueprints.CategoryCount, TileCat: tiles.Commercial, MinCount: 4}
	got := achievability(b, tiles.Catalog, cond, owner)
	if got != 0.5 {
		t.Fatalf("expected 2/4 = 0.5 achievability, got %v", got)
	}
}

func TestAchievabilityCapsAtOne(t *testing.T) {
	b := board.New()
	const owner = int64(7)
	var commercialID string
	for id, d := range tiles.Catalog {
		if d.Category == tiles.Commercial {
			commercialID = id
			break
		}
	}
	b = b.Place(1, 1, board.PlacedTile{TileID: commercialID, OwnerID: owner})

	cond := blueprints.Condition{Type: blueprints.CategoryCount, TileCat: tiles.Commercial, MinCount: 1}
	if got := achievability(b, tiles.Catalog, cond, owner); got != 1.0 {
		t.Fatalf("expected achievability capped at 1.0, got %v", got)
	}
}

func TestAchievabilityDefaultsToHalfForUncountedConditions(t *testing.T) {
	b := board.New()
	cond := blueprints.Condition{Type: blueprints.Cluster2x2}
	if got := achievability(b, tiles.Catalog, cond, 1); got != 0.5 {
		t.Fatalf("expected the documented 0.5 default for cluster_2x2, got %v", got)
	}
}
