// Package board implements the fixed 5x5 grid: terrain assignment, cell
// lookups, and the PlacedTile/PlacedWorker realizations that sit on top of
// the tile catalog's definitions.
package board

import "hanyang/internal/workers"

// Size is the fixed board dimension in both directions.
const Size = 5

// Terrain is assigned once at board creation and never changes.
type Terrain string

const (
	Normal   Terrain = "normal"
	Mountain Terrain = "mountain"
	Water    Terrain = "water"
)

// PlacedWorker is one worker realized on a tile's slot.
type PlacedWorker struct {
	PlayerUserID int64        `json:"player_user_id"`
	WorkerKind   workers.Kind `json:"worker_kind"`
	SlotIndex    int          `json:"slot_index"`
}

// PlacedTile is a tile realized on the board, as opposed to a catalog
// definition. OwnerID is the Actor's canonical id -- the same identifier
// used for current_turn_user_id, never a separate intra-game player id.
type PlacedTile struct {
	TileID         string         `json:"tile_id"`
	OwnerID        int64          `json:"owner_id"`
	PlacedWorkers  []PlacedWorker `json:"placed_workers"`
	FengshuiActive bool           `json:"fengshui_active"`
}

// Cell is one board position.
type Cell struct {
	Row     int         `json:"row"`
	Col     int         `json:"col"`
	Terrain Terrain     `json:"terrain"`
	Tile    *PlacedTile `json:"tile"`
}

// Board is the fixed 5x5 grid.
type Board struct {
	Cells [Size][Size]Cell `json:"cells"`
}

// New builds the board with fixed terrain: mountains at the four corners,
// water at the exact center, normal elsewhere.
func New() Board {
	var b Board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			terrain := Normal
			if (r == 0 || r == Size-1) && (c == 0 || c == Size-1) {
				terrain = Mountain
			} else if r == Size/2 && c == Size/2 {
				terrain = Water
			}
			b.Cells[r][c] = Cell{Row: r, Col: c, Terrain: terrain}
		}
	}
	return b
}

// InBounds reports whether (row,col) addresses a cell on the board.
func InBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// At returns the cell at (row,col) and whether the position is in bounds.
func (b Board) At(row, col int) (Cell, bool) {
	if !InBounds(row, col) {
		return Cell{}, false
	}
	return b.Cells[row][col], true
}

// Place sets a PlacedTile at (row,col). Caller must have already validated
// legality (in bounds, non-mountain, empty).
func (b Board) Place(row, col int, tile PlacedTile) Board {
	b.Cells[row][col].Tile = &tile
	return b
}

// WithCell replaces the cell at (row,col), used to persist worker placement
// and fengshui-flag mutations onto an existing PlacedTile.
func (b Board) WithCell(row, col int, cell Cell) Board {
	b.Cells[row][col] = cell
	return b
}

// Neighbors4 returns the up-to-four orthogonal neighbor coordinates of
// (row,col) that are in bounds.
func Neighbors4(row, col int) [][2]int {
	candidates := [][2]int{
		{row - 1, col},
		{row + 1, col},
		{row, col - 1},
		{row, col + 1},
	}
	out := make([][2]int, 0, 4)
	for _, n := range candidates {
		if InBounds(n[0], n[1]) {
			out = append(out, n)
		}
	}
	return out
}

// Neighbors8 returns the up-to-eight cells in the 3x3 neighborhood around
// (row,col), excluding (row,col) itself, that are in bounds.
func Neighbors8(row, col int) [][2]int {
	out := make([][2]int, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if InBounds(r, c) {
				out = append(out, [2]int{r, c})
			}
		}
	}
	return out
}

// ClearWorkers strips every PlacedWorker from every tile, leaving the
// tiles themselves in place. Pairs with a pool-level recall so board
// occupancy and pool counts move together.
func (b Board) ClearWorkers() Board {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if t := b.Cells[r][c].Tile; t != nil && len(t.PlacedWorkers) > 0 {
				tile := *t
				tile.PlacedWorkers = nil
				b.Cells[r][c].Tile = &tile
			}
		}
	}
	return b
}

// TotalPlaced counts cells with a tile present.
func (b Board) TotalPlaced() int {
	n := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.Cells[r][c].Tile != nil {
				n++
			}
		}
	}
	return n
}

// NonMountainCells returns the count of cells that are not mountain terrain.
func (b Board) NonMountainCells() int {
	n := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.Cells[r][c].Terrain != Mountain {
				n++
			}
		}
	}
	return n
}

// TilesOwnedBy returns the (row,col) positions of every PlacedTile whose
// OwnerID matches owner.
func (b Board) TilesOwnedBy(owner int64) [][2]int {
	var out [][2]int
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if t := b.Cells[r][c].Tile; t != nil && t.OwnerID == owner {
				out = append(out, [2]int{r, c})
			}
		}
	}
	return out
}
