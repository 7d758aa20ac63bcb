package engine

import (
	"hanyang/internal/board"
	"hanyang/internal/resources"
	"hanyang/internal/tiles"
)

func tileProducedResource(def tiles.Definition) (resources.Kind, bool) {
	return tiles.ProducedResource(def.Category)
}

type placementScore struct {
	base           int
	adjacency      int
	fengshui       int
	total          int
	fengshuiActive bool
}

// scorePlacement computes the three-part placement score for placing def
// at (row,col) on the board-before-placement b. Fengshui: a mountain
// directly north of the target cell plus water directly south, or water
// anywhere in the 3x3 neighborhood (including diagonals), earns the full
// bonus and sets fengshuiActive; only one of those two conditions earns
// half, rounded down, without the flag.
func scorePlacement(b board.Board, catalog map[string]tiles.Definition, def tiles.Definition, row, col int) placementScore {
	adjacency := 0
	for _, nb := range board.Neighbors4(row, col) {
		cell, _ := b.At(nb[0], nb[1])
		if cell.Tile == nil {
			continue
		}
		neighborDef, ok := catalog[cell.Tile.TileID]
		if !ok {
			continue
		}
		adjacency += def.AdjacencyBonus[neighborDef.Category]
	}

	northMountain := false
	if cell, ok := b.At(row-1, col); ok {
		northMountain = cell.Terrain == board.Mountain
	}
	nearbyWater := false
	for _, nb := range board.Neighbors8(row, col) {
		cell, _ := b.At(nb[0], nb[1])
		if cell.Terrain == board.Water {
			nearbyWater = true
			break
		}
	}
	if selfCell, ok := b.At(row, col); ok && selfCell.Terrain == board.Water {
		nearbyWater = true
	}

	fengshui := 0
	active := false
	switch {
	case northMountain && nearbyWater:
		fengshui = def.FengshuiBonus
		active = true
	case northMountain || nearbyWater:
		fengshui = def.FengshuiBonus / 2
	}

	return placementScore{
		base:           def.BasePoints,
		adjacency:      adjacency,
		fengshui:       fengshui,
		total:          def.BasePoints + adjacency + fengshui,
		fengshuiActive: active,
	}
}
