package workers

import "testing"

func TestNewPoolInvariant(t *testing.T) {
	p := NewPool()
	if p.Apprentices.Available+p.Apprentices.Placed != p.Apprentices.Total {
		t.Error("apprentice invariant broken at construction")
	}
	if p.Officials.Available+p.Officials.Placed != p.Officials.Total {
		t.Error("official invariant broken at construction")
	}
}

func TestPlaceAndRecall(t *testing.T) {
	p := NewPool()
	p, ok := Place(p, Apprentice)
	if !ok || p.Apprentices.Available != 2 || p.Apprentices.Placed != 1 {
		t.Fatalf("Place = %+v, %v", p, ok)
	}
	p, ok = Recall(p, Apprentice)
	if !ok || p.Apprentices.Available != 3 || p.Apprentices.Placed != 0 {
		t.Fatalf("Recall = %+v, %v", p, ok)
	}
}

func TestPlaceExhausted(t *testing.T) {
	p := Pool{Officials: Category{Total: 2, Available: 0, Placed: 2}}
	if _, ok := Place(p, Official); ok {
		t.Error("Place succeeded with none available")
	}
}

func TestRecallAll(t *testing.T) {
	p := NewPool()
	p, _ = Place(p, Apprentice)
	p, _ = Place(p, Official)
	p = RecallAll(p)
	if p.Apprentices.Placed != 0 || p.Officials.Placed != 0 {
		t.Errorf("RecallAll left placed workers: %+v", p)
	}
}

func TestSlotCapacity(t *testing.T) {
	if SlotCapacity(Apprentice, false) != 2 {
		t.Error("non-gate apprentice capacity should be 2")
	}
	if SlotCapacity(Apprentice, true) != 1 {
		t.Error("gate apprentice capacity should be 1")
	}
	if SlotCapacity(Official, true) != 1 || SlotCapacity(Official, false) != 1 {
		t.Error("official capacity is always 1")
	}
}

func TestCanPlaceOnTileRejectsOutOfRangeAndFilled(t *testing.T) {
	existing := []Slot{{Kind: Apprentice, SlotIndex: 0}}
	if CanPlaceOnTile(existing, Apprentice, 0, false) {
		t.Error("slot 0 already filled")
	}
	if !CanPlaceOnTile(existing, Apprentice, 1, false) {
		t.Error("slot 1 should be free")
	}
	if CanPlaceOnTile(existing, Apprentice, 1, true) {
		t.Error("gate tiles only have slot 0 for apprentices")
	}
}
