package blueprints

import (
	"hanyang/internal/board"
	"hanyang/internal/tiles"
)

// Evaluate scores a card's condition against a board snapshot using the
// player's canonical OwnerID as the owner key -- the same identifier the
// engine writes into PlacedTile.OwnerID and uses for current_turn_user_id.
// Returns the card's bonus_points if the condition holds, 0 otherwise.
func Evaluate(card Card, b board.Board, catalog map[string]tiles.Definition, player PlayerView) int {
	if satisfies(card.Condition, b, catalog, player) {
		return card.BonusPoints
	}
	return 0
}

func satisfies(cond Condition, b board.Board, catalog map[string]tiles.Definition, player PlayerView) bool {
	switch cond.Type {
	case PalaceAdjacent:
		return countAdjacentToCategory(b, catalog, player.OwnerID, tiles.Palace) >= cond.MinCount
	case PalaceSurround:
		return anyPalaceFullySurrounded(b, catalog, player.OwnerID, cond.Directions)
	case PalaceAdjacentCategory:
		return countOwnedCategoryAdjacentToCategory(b, catalog, player.OwnerID, cond.TileCat, tiles.Palace) >= cond.MinCount
	case CategoryCount:
		return countOwnedCategory(b, catalog, player.OwnerID, cond.TileCat) >= cond.MinCount
	case DiverseCategories:
		return len(ownedCategorySet(b, catalog, player.OwnerID)) >= cond.MinTypes
	case TileCount:
		return len(b.TilesOwnedBy(player.OwnerID)) >= cond.MinCount
	case RowCount:
		return maxRowOwned(b, player.OwnerID) >= cond.MinCount
	case ColumnCount:
		return maxColumnOwned(b, player.OwnerID) >= cond.MinCount
	case DiagonalCount:
		return maxConsecutiveDiagonal(b, player.OwnerID) >= cond.MinCount
	case Cluster2x2:
		return hasOwned2x2Cluster(b, player.OwnerID)
	case CornerCount:
		return countNearCorner(b, player.OwnerID) >= cond.MinCount
	case CenterCount:
		return countCentral3x3(b, player.OwnerID) >= cond.MinCount
	case FengshuiCount:
		return countFengshuiActive(b, player.OwnerID) >= cond.MinCount
	case AllWorkersPlaced:
		return player.Workers.Apprentices.Available == 0 && player.Workers.Officials.Available == 0
	case ResourcesUnder:
		return player.Resources.Total() <= cond.MaxTotal
	case AllConnected:
		return allTilesConnected(b, player.OwnerID)
	case BalancedCategories:
		for _, cat := range cond.Categories {
			if countOwnedCategory(b, catalog, player.OwnerID, cat) < cond.MinEach {
				return false
			}
		}
		return true
	default:
		return false
	}
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

func anyPalaceFullySurrounded(b board.Board, catalog map[string]tiles.Definition, owner int64, directions int) bool {
	for r := 0; r < board.Size; r++ {
		for c := 0; c < board.Size; c++ {
			cell, _ := b.At(r, c)
			if cell.Tile == nil {
				continue
			}
			def, ok := catalog[cell.Tile.TileID]
			if !ok || def.Category != tiles.Palace {
				continue
			}
			neighbors := board.Neighbors4(r, c)
			if len(neighbors) < directions {
				continue
			}
			owned := 0
			for _, nb := range neighbors {
				nc, _ := b.At(nb[0], nb[1])
				if nc.Tile != nil && nc.Tile.OwnerID == owner {
					owned++
				}
			}
			if owned >= directions {
				return true
			}
		}
	}
	return false
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

func maxRowOwned(b board.Board, owner int64) int {
	counts := make([]int, board.Size)
	for _, pos := range b.TilesOwnedBy(owner) {
		counts[pos[0]]++
	}
	return maxInt(counts)
}

func maxColumnOwned(b board.Board, owner int64) int {
	counts := make([]int, board.Size)
	for _, pos := range b.TilesOwnedBy(owner) {
		counts[pos[1]]++
	}
	return maxInt(counts)
}

func maxInt(xs []int) int {
	m := 0
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}

func isOwned(b board.Board, owner int64, row, col int) bool {
	cell, ok := b.At(row, col)
	return ok && cell.Tile != nil && cell.Tile.OwnerID == owner
}

// maxConsecutiveDiagonal scans both diagonal axes (down-right and
// down-left) for the longest run of consecutive player-owned cells.
func maxConsecutiveDiagonal(b board.Board, owner int64) int {
	best := 0
	// down-right diagonals (slope +1): start cells along top row and left column
	for startRow := 0; startRow < board.Size; startRow++ {
		best = maxInt2(best, runLength(b, owner, startRow, 0, 1, 1))
	}
	for startCol := 1; startCol < board.Size; startCol++ {
		best = maxInt2(best, runLength(b, owner, 0, startCol, 1, 1))
	}
	// down-left diagonals (slope -1)
	for startRow := 0; startRow < board.Size; startRow++ {
		best = maxInt2(best, runLength(b, owner, startRow, board.Size-1, 1, -1))
	}
	for startCol := 0; startCol < board.Size-1; startCol++ {
		best = maxInt2(best, runLength(b, owner, 0, startCol, 1, -1))
	}
	return best
}

func runLength(b board.Board, owner int64, row, col, dr, dc int) int {
	best, cur := 0, 0
	for board.InBounds(row, col) {
		if isOwned(b, owner, row, col) {
			cur++
			if cur > best {
				best = cur
			}
		} else {
			cur = 0
		}
		row += dr
		col += dc
	}
	return best
}

func maxInt2(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func hasOwned2x2Cluster(b board.Board, owner int64) bool {
	for r := 0; r < board.Size-1; r++ {
		for c := 0; c < board.Size-1; c++ {
			if isOwned(b, owner, r, c) && isOwned(b, owner, r, c+1) &&
				isOwned(b, owner, r+1, c) && isOwned(b, owner, r+1, c+1) {
				return true
			}
		}
	}
	return false
}

// nearCornerCells are the four non-mountain cells immediately diagonal to
// each mountain corner -- the board's actual corners can never hold a
// tile, so the "4 board corners" condition is scored against the nearest
// placeable cell to each corner instead.
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

// allTilesConnected reports whether every tile owned by owner forms a
// single 4-connected component. An owner with no tiles is not connected.
func allTilesConnected(b board.Board, owner int64) bool {
	owned := b.TilesOwnedBy(owner)
	if len(owned) == 0 {
		return false
	}
	seen := map[[2]int]bool{}
	queue := [][2]int{owned[0]}
	seen[owned[0]] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range board.Neighbors4(cur[0], cur[1]) {
			if seen[nb] {
				continue
			}
			if isOwned(b, owner, nb[0], nb[1]) {
				seen[nb] = true
				queue = append(queue, nb)
			}
		}
	}
	return len(seen) == len(owned)
}
