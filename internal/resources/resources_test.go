package resources

import "testing"

func TestAddClampsAtMax(t *testing.T) {
	r := Resources{Wood: 9}
	r = Add(r, Wood, 5)
	if r.Wood != Max[Wood] {
		t.Errorf("Wood = %d, want clamped to %d", r.Wood, Max[Wood])
	}
}

func TestConsumeInsufficientFails(t *testing.T) {
	r := Resources{Stone: 1}
	if _, ok := Consume(r, Stone, 2); ok {
		t.Error("Consume succeeded with insufficient stone")
	}
}

func TestConsumeExact(t *testing.T) {
	r := Resources{Ink: 2}
	got, ok := Consume(r, Ink, 2)
	if !ok || got.Ink != 0 {
		t.Errorf("Consume(2,2) = %+v, %v; want {Ink:0}, true", got, ok)
	}
}

func TestCanAffordAndPayCost(t *testing.T) {
	r := Resources{Wood: 2, Stone: 2}
	cost := Resources{Wood: 2}
	if !CanAfford(r, cost) {
		t.Fatal("expected affordable")
	}
	paid, ok := PayCost(r, cost)
	if !ok || paid.Wood != 0 || paid.Stone != 2 {
		t.Errorf("PayCost = %+v, %v", paid, ok)
	}
}

func TestPayCostExactZeroesOut(t *testing.T) {
	r := Resources{Wood: 2, Stone: 2}
	cost := Resources{Wood: 2, Stone: 2}
	paid, ok := PayCost(r, cost)
	if !ok || paid != (Resources{}) {
		t.Errorf("PayCost exact = %+v, %v; want zero value", paid, ok)
	}
}

func TestPayCostInsufficientFails(t *testing.T) {
	r := Resources{Wood: 1}
	if _, ok := PayCost(r, Resources{Wood: 2}); ok {
		t.Error("PayCost succeeded without enough wood")
	}
}

func TestTotal(t *testing.T) {
	r := Resources{Wood: 1, Stone: 2, Tile: 3, Ink: 4}
	if r.Total() != 10 {
		t.Errorf("Total() = %d, want 10", r.Total())
	}
}
