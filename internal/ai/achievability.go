package ai

import (
	"hanyang/internal/blueprints"
	"hanyang/internal/board"
	"hanyang/internal/tiles"
)

// achievability is a 0-1 proxy for how close ownerID is to satisfying
// cond on the current board: current progress divided by the condition's
// required count, capped at 1.0. Conditions with no natural progress
// counter (surround/cluster/connectivity/resource-ceiling shapes) fall
// back to the documented default of 0.5 rather than guessing true or
// false. The per-condition counters mirror the algorithms in
// blueprints/evaluate.go's satisfies switch, just returning a count
// instead of a bool.
func achievability(b board.Board, catalog map[string]tiles.Definition, cond blueprints.Condition, ownerID int64) float64 {
	switch cond.Type {
	case blueprints.PalaceAdjacent:
		return progress(countAdjacentToCategory(b, catalog, ownerID, tiles.Palace), cond.MinCount)
	case blueprints.PalaceAdjacentCategory:
		return progress(countOwnedCategoryAdjacentToCategory(b, catalog, ownerID, cond.TileCat, tiles.Palace), cond.MinCount)
	case blueprints.CategoryCount:
		return progress(countOwnedCategory(b, catalog, ownerID, cond.TileCat), cond.MinCount)
	case blueprints.DiverseCategories:
		return progress(len(ownedCategorySet(b, catalog, ownerID)), cond.MinTypes)
	case blueprints.TileCount:
		return progress(len(b.TilesOwnedBy(ownerID)), cond.MinCount)
	case blueprints.RowCount:
		return progress(maxLineOwned(b, ownerID, true), cond.MinCount)
	case blueprints.ColumnCount:
		return progress(maxLineOwned(b, ownerID, false), cond.MinCount)
	case blueprints.CornerCount:
		return progress(countNearCorner(b, ownerID), cond.MinCount)
	case blueprints.CenterCount:
		return progress(countCentral3x3(b, ownerID), cond.MinCount)
	case blueprints.FengshuiCount:
		return progress(countFengshuiActive(b, ownerID), cond.MinCount)
	case blueprints.BalancedCategories:
		return progressBalanced(b, catalog, ownerID, cond.Categories, cond.MinEach)
	default:
		// palace_surround, diagonal_count, cluster_2x2, all_workers_placed,
		// resources_under, all_connected: no single scalar count tracks
		// partial progress toward these, so fall back to the neutral guess.
		return 0.5
	}
}

func progress(current, required int) float64 {
	if required <= 0 {
		return 1.0
	}
	p := float64(current) / float64(required)
	if p > 1.0 {
		p = 1.0
	}
	if p < 0 {
		p = 0
	}
	return p
}

// progressBalanced averages the per-category progress toward a
// balanced-categories condition, since no single count captures "is every
// category at MinEach".
func progressBalanced(b board.Board, catalog map[string]tiles.Definition, ownerID int64, cats []tiles.Category, minEach int) float64 {
	if len(cats) == 0 {
		return 0.5
	}
	total := 0.0
	for _, cat := range cats {
		total += progress(countOwnedCategory(b, catalog, ownerID, cat), minEach)
	}
	return total / float64(len(cats))
}

func categoryAt(b board.Board, catalog map[string]tiles.Definition, row, col int) (tiles.Category, bool) {
	cell, ok := b.At(row, col)
	if !ok || cell.Tile == nil {
		return "", false
	}
	def, ok := catalog[cell.Tile.TileID]
	if !ok {
		return "", false
	}
	return def.Category, true
}

func countAdjacentToCategory(b board.Board, catalog map[string]tiles.Definition, owner int64, target tiles.Category) int {
	n := 0
	for _, pos := range b.TilesOwnedBy(owner) {
		for _, nb := range board.Neighbors4(pos[0], pos[1]) {
			if cat, ok := categoryAt(b, catalog, nb[0], nb[1]); ok && cat == target {
				n++
				break
			}
		}
	}
	return n
}

func countOwnedCategoryAdjacentToCategory(b board.Board, catalog map[string]tiles.Definition, owner int64, ownedCat, target tiles.Category) int {
	n := 0
	for _, pos := range b.TilesOwnedBy(owner) {
		cell, _ := b.At(pos[0], pos[1])
		def, ok := catalog[cell.Tile.TileID]
		if !ok || def.Category != ownedCat {
			continue
		}
		for _, nb := range board.Neighbors4(pos[0], pos[1]) {
			if cat, ok := categoryAt(b, catalog, nb[0], nb[1]); ok && cat == target {
				n++
				break
			}
		}
	}
	return n
}

func countOwnedCategory(b board.Board, catalog map[string]tiles.Definition, owner int64, cat tiles.Category) int {
	n := 0
	for _, pos := range b.TilesOwnedBy(owner) {
		if c, ok := categoryAt(b, catalog, pos[0], pos[1]); ok && c == cat {
			n++
		}
	}
	return n
}

func ownedCategorySet(b board.Board, catalog map[string]tiles.Definition, owner int64) map[tiles.Category]bool {
	set := map[tiles.Category]bool{}
	for _, pos := range b.TilesOwnedBy(owner) {
		if c, ok := categoryAt(b, catalog, pos[0], pos[1]); ok {
			set[c] = true
		}
	}
	return set
}

// maxLineOwned returns the most-occupied row (byRow true) or column
// (byRow false) index's owned-tile count.
func maxLineOwned(b board.Board, owner int64, byRow bool) int {
	counts := make([]int, board.Size)
	for _, pos := range b.TilesOwnedBy(owner) {
		if byRow {
			counts[pos[0]]++
		} else {
			counts[pos[1]]++
		}
	}
	best := 0
	for _, c := range counts {
		if c > best {
			best = c
		}
	}
	return best
}

func isOwned(b board.Board, owner int64, row, col int) bool {
	cell, ok := b.At(row, col)
	return ok && cell.Tile != nil && cell.Tile.OwnerID == owner
}

func nearCornerCells() [][2]int {
	last := board.Size - 1
	return [][2]int{{1, 1}, {1, last - 1}, {last - 1, 1}, {last - 1, last - 1}}
}

func countNearCorner(b board.Board, owner int64) int {
	n := 0
	for _, pos := range nearCornerCells() {
		if isOwned(b, owner, pos[0], pos[1]) {
			n++
		}
	}
	return n
}

func countCentral3x3(b board.Board, owner int64) int {
	n := 0
	mid := board.Size / 2
	for r := mid - 1; r <= mid+1; r++ {
		for c := mid - 1; c <= mid+1; c++ {
			if isOwned(b, owner, r, c) {
				n++
			}
		}
	}
	return n
}

func countFengshuiActive(b board.Board, owner int64) int {
	n := 0
	for _, pos := range b.TilesOwnedBy(owner) {
		cell, _ := b.At(pos[0], pos[1])
		if cell.Tile.FengshuiActive {
			n++
		}
	}
	return n
}
