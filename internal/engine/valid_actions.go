package engine

import (
	"hanyang/internal/board"
	"hanyang/internal/resources"
	"hanyang/internal/workers"
	"hanyang/pkg/protocol"
)

// ValidActionsFor is a read-only query used by UIs and the AI decision
// engine. select_blueprint is not turn-gated (any player with unresolved
// dealt cards may select at any time); place_tile, place_worker, and
// end_turn are only returned for the current turn holder.
func (e *Engine) ValidActionsFor(game *Game, actorID int64) []protocol.ActionTemplate {
	player, ok := game.PlayerByUserID(actorID)
	if !ok {
		return nil
	}

	var templates []protocol.ActionTemplate

	for _, bpID := range player.DealtBlueprints {
		templates = append(templates, protocol.ActionTemplate{
			ActionKind: protocol.ActionSelectBlueprint,
			Params:     protocol.SelectBlueprintPayload{BlueprintID: bpID},
		})
	}

	if game.Status != StatusInProgress || game.CurrentTurnUserID != actorID {
		return templates
	}

	for _, tileID := range game.VisibleTiles() {
		def, ok := e.TileCatalog[tileID]
		if !ok || !resources.CanAfford(player.Resources, def.Cost) {
			continue
		}
		for r := 0; r < board.Size; r++ {
			for c := 0; c < board.Size; c++ {
				cell := game.Board.Cells[r][c]
				if cell.Terrain == board.Mountain || cell.Tile != nil {
					continue
				}
				templates = append(templates, protocol.ActionTemplate{
					ActionKind: protocol.ActionPlaceTile,
					Params: protocol.PlaceTilePayload{
						TileID:   tileID,
						Position: protocol.Position{Row: r, Col: c},
					},
				})
			}
		}
	}

	for r := 0; r < board.Size; r++ {
		for c := 0; c < board.Size; c++ {
			cell := game.Board.Cells[r][c]
			if cell.Tile == nil {
				continue
			}
			def, ok := e.TileCatalog[cell.Tile.TileID]
			if !ok {
				continue
			}
			existing := make([]workers.Slot, len(cell.Tile.PlacedWorkers))
			for i, w := range cell.Tile.PlacedWorkers {
				existing[i] = workers.Slot{Kind: w.WorkerKind, SlotIndex: w.SlotIndex}
			}
			for _, kind := range []workers.Kind{workers.Apprentice, workers.Official} {
				if !workers.CanPlace(player.Workers, kind) {
					continue
				}
				capacity := workers.SlotCapacity(kind, def.IsGate())
				for slot := 0; slot < capacity; slot++ {
					if !workers.CanPlaceOnTile(existing, kind, slot, def.IsGate()) {
						continue
					}
					templates = append(templates, protocol.ActionTemplate{
						ActionKind: protocol.ActionPlaceWorker,
						Params: protocol.PlaceWorkerPayload{
							WorkerKind:     string(kind),
							TargetPosition: protocol.Position{Row: r, Col: c},
							SlotIndex:      slot,
						},
					})
				}
			}
		}
	}

	templates = append(templates, protocol.ActionTemplate{ActionKind: protocol.ActionEndTurn, Params: protocol.EndTurnPayload{}})

	return templates
}
