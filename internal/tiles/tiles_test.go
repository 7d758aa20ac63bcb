package tiles

import "testing"

func TestCatalogHas36Entries(t *testing.T) {
	catalog := NewCatalog()
	if len(catalog) != 36 {
		t.Fatalf("catalog has %d entries, want 36", len(catalog))
	}

	counts := map[Category]int{}
	for _, d := range catalog {
		counts[d.Category]++
	}
	want := map[Category]int{
		Palace: 4, Government: 6, Religious: 6,
		Commercial: 8, Residential: 8, Gate: 4,
	}
	for cat, n := range want {
		if counts[cat] != n {
			t.Errorf("category %s has %d entries, want %d", cat, counts[cat], n)
		}
	}
}

func TestCatalogIsTotal(t *testing.T) {
	catalog := NewCatalog()
	if _, ok := Lookup(catalog, "palace_1"); !ok {
		t.Error("expected palace_1 to be present")
	}
	if _, ok := Lookup(catalog, "does_not_exist"); ok {
		t.Error("expected missing id to report false, not panic")
	}
}

func TestProducedResource(t *testing.T) {
	if k, ok := ProducedResource(Government); !ok || k != "ink" {
		t.Errorf("government should produce ink, got %v, %v", k, ok)
	}
	if _, ok := ProducedResource(Palace); ok {
		t.Error("palace should produce nothing")
	}
	if _, ok := ProducedResource(Gate); ok {
		t.Error("gate should produce nothing")
	}
}

func TestPoolProducesAll36(t *testing.T) {
	catalog := NewCatalog()
	ids := Pool(catalog, func(s []string) {})
	if len(ids) != 36 {
		t.Fatalf("pool has %d ids, want 36", len(ids))
	}
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %s in pool", id)
		}
		seen[id] = true
	}
}
