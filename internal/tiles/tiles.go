// Package tiles holds the immutable building-tile catalog: 36 entries
// across six categories, their costs, scoring, and adjacency bonuses.
package tiles

import (
	"sort"

	"hanyang/internal/resources"
)

// Category is one of the six building categories.
type Category string

const (
	Palace      Category = "palace"
	Government  Category = "government"
	Religious   Category = "religious"
	Commercial  Category = "commercial"
	Residential Category = "residential"
	Gate        Category = "gate"
)

// ProducedResource maps a category to the resource kind its worked tiles
// produce. Palace and gate tiles produce nothing.
func ProducedResource(cat Category) (resources.Kind, bool) {
	switch cat {
	case Government:
		return resources.Ink, true
	case Religious:
		return resources.Tile, true
	case Commercial:
		return resources.Stone, true
	case Residential:
		return resources.Wood, true
	default:
		return "", false
	}
}

// Definition is one immutable catalog entry.
type Definition struct {
	ID               string
	Category         Category
	NameKO           string
	NameEN           string
	Cost             resources.Resources
	BasePoints       int
	FengshuiBonus    int
	AdjacencyBonus   map[Category]int
	WorkerSlots      int
	SpecialEffect    string
}

// IsGate reports whether the definition is a gate tile (single apprentice
// slot instead of two).
func (d Definition) IsGate() bool {
	return d.Category == Gate
}

// Catalog is the constant, process-wide, immutable map of all 36 tile
// definitions, keyed by tile_id. Built once at startup via NewCatalog;
// tests may install their own fixture catalogs instead of relying on this
// package-level value.
var Catalog = NewCatalog()

// Lookup is a total function over the catalog: it reports ok=false for an
// unknown id rather than panicking.
func Lookup(catalog map[string]Definition, id string) (Definition, bool) {
	d, ok := catalog[id]
	return d, ok
}

// NewCatalog builds the 36-entry catalog: 4 palace, 6 government,
// 6 religious, 8 commercial, 8 residential, 4 gate.
func NewCatalog() map[string]Definition {
	defs := []Definition{
		// Palace (4)
		{ID: "palace_1", Category: Palace, NameKO: "경복궁", NameEN: "Gyeongbokgung Palace",
			Cost: resources.Resources{Wood: 3, Stone: 3, Tile: 2, Ink: 1}, BasePoints: 8, FengshuiBonus: 4,
			AdjacencyBonus: map[Category]int{Government: 2}, WorkerSlots: 2, SpecialEffect: "royal_blessing"},
		{ID: "palace_2", Category: Palace, NameKO: "창덕궁", NameEN: "Changdeokgung Palace",
			Cost: resources.Resources{Wood: 3, Stone: 2, Tile: 2, Ink: 1}, BasePoints: 7, FengshuiBonus: 4,
			AdjacencyBonus: map[Category]int{Religious: 2}, WorkerSlots: 2, SpecialEffect: "secret_garden"},
		{ID: "palace_3", Category: Palace, NameKO: "경희궁", NameEN: "Gyeonghuigung Palace",
			Cost: resources.Resources{Wood: 2, Stone: 3, Tile: 2, Ink: 1}, BasePoints: 6, FengshuiBonus: 3,
			AdjacencyBonus: map[Category]int{Palace: 3}, WorkerSlots: 2},
		{ID: "palace_4", Category: Palace, NameKO: "덕수궁", NameEN: "Deoksugung Palace",
			Cost: resources.Resources{Wood: 2, Stone: 2, Tile: 2, Ink: 1}, BasePoints: 5, FengshuiBonus: 3,
			AdjacencyBonus: map[Category]int{Commercial: 2}, WorkerSlots: 2},

		// Government (6)
		{ID: "government_1", Category: Government, NameKO: "의정부", NameEN: "State Council",
			Cost: resources.Resources{Wood: 2, Stone: 2, Ink: 1}, BasePoints: 4, FengshuiBonus: 2,
			AdjacencyBonus: map[Category]int{Palace: 2}, WorkerSlots: 2, SpecialEffect: "policy_maker"},
		{ID: "government_2", Category: Government, NameKO: "육조거리", NameEN: "Six Ministries Street",
			Cost: resources.Resources{Wood: 2, Stone: 1, Ink: 1}, BasePoints: 3, FengshuiBonus: 2,
			AdjacencyBonus: map[Category]int{Government: 1}, WorkerSlots: 2},
		{ID: "government_3", Category: Government, NameKO: "사헌부", NameEN: "Office of the Inspector General",
			Cost: resources.Resources{Wood: 2, Stone: 2}, BasePoints: 3, FengshuiBonus: 1,
			AdjacencyBonus: map[Category]int{Government: 1}, WorkerSlots: 2},
		{ID: "government_4", Category: Government, NameKO: "승정원", NameEN: "Royal Secretariat",
			Cost: resources.Resources{Wood: 1, Stone: 2, Ink: 1}, BasePoints: 3, FengshuiBonus: 1,
			AdjacencyBonus: map[Category]int{Palace: 1}, WorkerSlots: 2},
		{ID: "government_5", Category: Government, NameKO: "한성부", NameEN: "Hanseong Prefecture Office",
			Cost: resources.Resources{Wood: 2, Stone: 1}, BasePoints: 2, FengshuiBonus: 1,
			AdjacencyBonus: map[Category]int{Residential: 1}, WorkerSlots: 2},
		{ID: "government_6", Category: Government, NameKO: "종친부", NameEN: "Office of Royal Genealogy",
			Cost: resources.Resources{Wood: 1, Stone: 1, Ink: 1}, BasePoints: 2, FengshuiBonus: 1,
			AdjacencyBonus: map[Category]int{Palace: 1}, WorkerSlots: 2},

		// Religious (6)
		{ID: "religious_1", Category: Religious, NameKO: "종묘", NameEN: "Jongmyo Shrine",
			Cost: resources.Resources{Wood: 2, Stone: 2, Tile: 1}, BasePoints: 5, FengshuiBonus: 3,
			AdjacencyBonus: map[Category]int{Palace: 2}, WorkerSlots: 2, SpecialEffect: "ancestral_rites"},
		{ID: "religious_2", Category: Religious, NameKO: "사직단", NameEN: "Sajikdan Altar",
			Cost: resources.Resources{Wood: 1, Stone: 2, Tile: 1}, BasePoints: 4, FengshuiBonus: 2,
			AdjacencyBonus: map[Category]int{Palace: 1}, WorkerSlots: 2},
		{ID: "religious_3", Category: Religious, NameKO: "봉은사", NameEN: "Bongeunsa Temple",
			Cost: resources.Resources{Wood: 2, Stone: 1, Tile: 1}, BasePoints: 3, FengshuiBonus: 2,
			AdjacencyBonus: map[Category]int{Religious: 1}, WorkerSlots: 2},
		{ID: "religious_4", Category: Religious, NameKO: "문묘", NameEN: "Munmyo Confucian Shrine",
			Cost: resources.Resources{Wood: 1, Stone: 1, Tile: 1}, BasePoints: 3, FengshuiBonus: 1,
			AdjacencyBonus: map[Category]int{Government: 1}, WorkerSlots: 2},
		{ID: "religious_5", Category: Religious, NameKO: "성황당", NameEN: "Seonghwangdang Shrine",
			Cost: resources.Resources{Wood: 1, Tile: 1}, BasePoints: 2, FengshuiBonus: 1,
			AdjacencyBonus: map[Category]int{Religious: 1}, WorkerSlots: 2},
		{ID: "religious_6", Category: Religious, NameKO: "동관왕묘", NameEN: "Eastern Gwanwang Shrine",
			Cost: resources.Resources{Stone: 1, Tile: 1}, BasePoints: 2, FengshuiBonus: 1,
			AdjacencyBonus: map[Category]int{Residential: 1}, WorkerSlots: 2},

		// Commercial (8)
		{ID: "commercial_1", Category: Commercial, NameKO: "운종가", NameEN: "Unjonga Market Street",
			Cost: resources.Resources{Wood: 2, Stone: 1}, BasePoints: 3, FengshuiBonus: 1,
			AdjacencyBonus: map[Category]int{Commercial: 1}, WorkerSlots: 2, SpecialEffect: "trade_hub"},
		{ID: "commercial_2", Category: Commercial, NameKO: "육의전", NameEN: "Six Licensed Stores",
			Cost: resources.Resources{Wood: 1, Stone: 2}, BasePoints: 3, FengshuiBonus: 1,
			AdjacencyBonus: map[Category]int{Commercial: 1}, WorkerSlots: 2},
		{ID: "commercial_3", Category: Commercial, NameKO: "배오개장", NameEN: "Baeogae Market",
			Cost: resources.Resources{Wood: 1, Stone: 1}, BasePoints: 2, FengshuiBonus: 1,
			AdjacencyBonus: map[Category]int{Residential: 1}, WorkerSlots: 2},
		{ID: "commercial_4", Category: Commercial, NameKO: "칠패시장", NameEN: "Chilpae Market",
			Cost: resources.Resources{Wood: 1, Stone: 1}, BasePoints: 2, FengshuiBonus: 1,
			AdjacencyBonus: map[Category]int{Commercial: 1}, WorkerSlots: 2},
		{ID: "commercial_5", Category: Commercial, NameKO: "객주", NameEN: "Merchant Lodging House",
			Cost: resources.Resources{Wood: 1}, BasePoints: 2, FengshuiBonus: 0,
			AdjacencyBonus: map[Category]int{Commercial: 1}, WorkerSlots: 2},
		{ID: "commercial_6", Category: Commercial, NameKO: "방물전", NameEN: "Sundries Shop",
			Cost: resources.Resources{Stone: 1}, BasePoints: 2, FengshuiBonus: 0,
			AdjacencyBonus: map[Category]int{Residential: 1}, WorkerSlots: 2},
		{ID: "commercial_7", Category: Commercial, NameKO: "싸전", NameEN: "Rice Exchange",
			Cost: resources.Resources{Wood: 1, Stone: 1}, BasePoints: 1, FengshuiBonus: 0,
			AdjacencyBonus: map[Category]int{Commercial: 1}, WorkerSlots: 2},
		{ID: "commercial_8", Category: Commercial, NameKO: "어물전", NameEN: "Fish Market",
			Cost: resources.Resources{Stone: 1}, BasePoints: 1, FengshuiBonus: 0,
			AdjacencyBonus: map[Category]int{Commercial: 1}, WorkerSlots: 2},

		// Residential (8)
		{ID: "residential_1", Category: Residential, NameKO: "북촌한옥", NameEN: "Bukchon Hanok House",
			Cost: resources.Resources{Wood: 3}, BasePoints: 3, FengshuiBonus: 2,
			AdjacencyBonus: map[Category]int{Residential: 1}, WorkerSlots: 2, SpecialEffect: "family_seat"},
		{ID: "residential_2", Category: Residential, NameKO: "양반가옥", NameEN: "Nobleman's House",
			Cost: resources.Resources{Wood: 2, Stone: 1}, BasePoints: 3, FengshuiBonus: 1,
			AdjacencyBonus: map[Category]int{Government: 1}, WorkerSlots: 2},
		{ID: "residential_3", Category: Residential, NameKO: "중인가옥", NameEN: "Middle-Class House",
			Cost: resources.Resources{Wood: 2}, BasePoints: 2, FengshuiBonus: 1,
			AdjacencyBonus: map[Category]int{Commercial: 1}, WorkerSlots: 2},
		{ID: "residential_4", Category: Residential, NameKO: "서민가옥", NameEN: "Commoner's House",
			Cost: resources.Resources{Wood: 1}, BasePoints: 1, FengshuiBonus: 1,
			AdjacencyBonus: map[Category]int{Residential: 1}, WorkerSlots: 2},
		{ID: "residential_5", Category: Residential, NameKO: "초가집", NameEN: "Thatched Cottage",
			Cost: resources.Resources{Wood: 1}, BasePoints: 1, FengshuiBonus: 0,
			AdjacencyBonus: map[Category]int{Residential: 1}, WorkerSlots: 2},
		{ID: "residential_6", Category: Residential, NameKO: "기와집", NameEN: "Tiled-Roof House",
			Cost: resources.Resources{Wood: 2, Tile: 1}, BasePoints: 2, FengshuiBonus: 1,
			AdjacencyBonus: map[Category]int{Religious: 1}, WorkerSlots: 2},
		{ID: "residential_7", Category: Residential, NameKO: "행랑채", NameEN: "Servants' Quarters",
			Cost: resources.Resources{Wood: 2}, BasePoints: 1, FengshuiBonus: 0,
			AdjacencyBonus: map[Category]int{Residential: 1}, WorkerSlots: 2},
		{ID: "residential_8", Category: Residential, NameKO: "별채", NameEN: "Annex House",
			Cost: resources.Resources{Wood: 1}, BasePoints: 1, FengshuiBonus: 0,
			AdjacencyBonus: map[Category]int{Palace: 1}, WorkerSlots: 2},

		// Gate (4) -- single apprentice slot
		{ID: "gate_1", Category: Gate, NameKO: "숭례문", NameEN: "Sungnyemun (South Gate)",
			Cost: resources.Resources{Wood: 2, Stone: 3}, BasePoints: 6, FengshuiBonus: 3,
			AdjacencyBonus: map[Category]int{Commercial: 1}, WorkerSlots: 1, SpecialEffect: "grand_gate"},
		{ID: "gate_2", Category: Gate, NameKO: "흥인지문", NameEN: "Heunginjimun (East Gate)",
			Cost: resources.Resources{Wood: 2, Stone: 2}, BasePoints: 5, FengshuiBonus: 2,
			AdjacencyBonus: map[Category]int{Residential: 1}, WorkerSlots: 1},
		{ID: "gate_3", Category: Gate, NameKO: "돈의문", NameEN: "Donuimun (West Gate)",
			Cost: resources.Resources{Wood: 1, Stone: 2}, BasePoints: 4, FengshuiBonus: 2,
			AdjacencyBonus: map[Category]int{Government: 1}, WorkerSlots: 1},
		{ID: "gate_4", Category: Gate, NameKO: "숙정문", NameEN: "Sukjeongmun (North Gate)",
			Cost: resources.Resources{Stone: 2}, BasePoints: 3, FengshuiBonus: 1,
			AdjacencyBonus: map[Category]int{Religious: 1}, WorkerSlots: 1},
	}

	out := make(map[string]Definition, len(defs))
	for _, d := range defs {
		out[d.ID] = d
	}
	return out
}

// Pool generates the shuffled starting tile pool of all 36 ids using shuffle as
// the Fisher-Yates random source (caller supplies a seeded rand so
// determinism tests can replay the exact order).
func Pool(catalog map[string]Definition, shuffle func([]string)) []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	// Deterministic base ordering before shuffling so the same catalog
	// always produces the same pre-shuffle sequence.
	sort.Strings(ids)
	shuffle(ids)
	return ids
}
