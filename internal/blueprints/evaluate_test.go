package blueprints

import (
	"testing"

	"hanyang/internal/board"
	"hanyang/internal/resources"
	"hanyang/internal/tiles"
	"hanyang/internal/workers"
)

func place(b board.Board, row, col int, tileID string, owner int64, fengshui bool) board.Board {
	return b.Place(row, col, board.PlacedTile{TileID: tileID, OwnerID: owner, FengshuiActive: fengshui})
}

func TestCategoryCountSatisfied(t *testing.T) {
	catalog := tiles.NewCatalog()
	b := board.New()
	b = place(b, 1, 1, "commercial_1", 7, false)
	b = place(b, 1, 2, "commercial_2", 7, false)
	b = place(b, 1, 3, "commercial_3", 7, false)
	b = place(b, 2, 1, "commercial_4", 7, false)

	card := Catalog["collection_commercial"]
	bonus := Evaluate(card, b, catalog, PlayerView{OwnerID: 7})
	if bonus != card.BonusPoints {
		t.Errorf("Evaluate = %d, want %d", bonus, card.BonusPoints)
	}
}

func TestCategoryCountNotSatisfied(t *testing.T) {
	catalog := tiles.NewCatalog()
	b := board.New()
	b = place(b, 1, 1, "commercial_1", 7, false)

	card := Catalog["collection_commercial"]
	if bonus := Evaluate(card, b, catalog, PlayerView{OwnerID: 7}); bonus != 0 {
		t.Errorf("Evaluate = %d, want 0", bonus)
	}
}

func TestAllConnectedRequiresSingleComponent(t *testing.T) {
	b := board.New()
	b = place(b, 1, 1, "residential_1", 3, false)
	b = place(b, 1, 2, "residential_2", 3, false)
	// disconnected third tile
	b = place(b, 3, 3, "residential_3", 3, false)

	if allTilesConnected(b, 3) {
		t.Error("expected disconnected tiles to fail all_connected")
	}

	b2 := board.New()
	b2 = place(b2, 1, 1, "residential_1", 3, false)
	b2 = place(b2, 1, 2, "residential_2", 3, false)
	b2 = place(b2, 1, 3, "residential_3", 3, false)
	if !allTilesConnected(b2, 3) {
		t.Error("expected adjacent run to be connected")
	}
}

func TestAllConnectedEmptyIsFalse(t *testing.T) {
	if allTilesConnected(board.New(), 1) {
		t.Error("an owner with no tiles cannot satisfy all_connected")
	}
}

func TestDiagonalCountRequiresConsecutive(t *testing.T) {
	b := board.New()
	b = place(b, 1, 1, "residential_1", 3, false)
	b = place(b, 3, 3, "residential_2", 3, false) // same diagonal, not consecutive
	if maxConsecutiveDiagonal(b, 3) >= 3 {
		t.Error("non-consecutive diagonal cells should not count toward a run of 3")
	}

	b2 := board.New()
	b2 = place(b2, 1, 1, "residential_1", 3, false)
	b2 = place(b2, 2, 2, "residential_2", 3, false)
	b2 = place(b2, 3, 3, "residential_3", 3, false)
	if got := maxConsecutiveDiagonal(b2, 3); got < 3 {
		t.Errorf("consecutive diagonal run = %d, want >= 3", got)
	}
}

func TestCluster2x2(t *testing.T) {
	b := board.New()
	b = place(b, 1, 1, "a", 1, false)
	b = place(b, 1, 2, "a", 1, false)
	b = place(b, 2, 1, "a", 1, false)
	b = place(b, 2, 2, "a", 1, false)
	if !hasOwned2x2Cluster(b, 1) {
		t.Error("expected 2x2 cluster to be detected")
	}
}

func TestAllWorkersPlacedCondition(t *testing.T) {
	full := PlayerView{Workers: workers.Pool{
		Apprentices: workers.Category{Total: 3, Placed: 3},
		Officials:   workers.Category{Total: 2, Placed: 2},
	}}
	if !satisfies(Condition{Type: AllWorkersPlaced}, board.New(), tiles.NewCatalog(), full) {
		t.Error("expected all_workers_placed to be satisfied when nothing is available")
	}

	partial := PlayerView{Workers: workers.NewPool()}
	if satisfies(Condition{Type: AllWorkersPlaced}, board.New(), tiles.NewCatalog(), partial) {
		t.Error("fresh pool should not satisfy all_workers_placed")
	}
}

func TestResourcesUnder(t *testing.T) {
	p := PlayerView{Resources: resources.Resources{Wood: 1, Stone: 1}}
	if !satisfies(Condition{Type: ResourcesUnder, MaxTotal: 3}, board.New(), tiles.NewCatalog(), p) {
		t.Error("total of 2 should satisfy resources_under 3")
	}
}

func TestDealBlueprintsUniqueAcrossPlayers(t *testing.T) {
	hands := DealBlueprints(Catalog, 3, 3, func(s []string) {})
	seen := map[string]bool{}
	for _, hand := range hands {
		if len(hand) != 3 {
			t.Fatalf("hand size = %d, want 3", len(hand))
		}
		for _, id := range hand {
			if seen[id] {
				t.Fatalf("card %s dealt twice", id)
			}
			seen[id] = true
		}
	}
	if len(seen) != 9 {
		t.Errorf("dealt %d distinct cards, want 9", len(seen))
	}
}

func TestCatalogHas24Cards(t *testing.T) {
	if len(Catalog) != 24 {
		t.Errorf("catalog has %d cards, want 24", len(Catalog))
	}
}
