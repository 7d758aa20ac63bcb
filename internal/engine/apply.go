package engine

import (
	"sort"

	"hanyang/internal/board"
	"hanyang/internal/blueprints"
	"hanyang/internal/resources"
	"hanyang/internal/workers"
)

func (e *Engine) applySelectBlueprint(game *Game, actorID int64, action Action) (*Result, error) {
	player, ok := game.PlayerByUserID(actorID)
	if !ok {
		return nil, newErr(NotAParticipant, "actor %d has no player state", actorID)
	}
	idx := indexOf(player.DealtBlueprints, action.BlueprintID)
	if idx < 0 {
		return nil, newErr(PreconditionFailed, "blueprint %s is not among the actor's dealt cards", action.BlueprintID)
	}
	player.SelectedBlueprints = append(player.SelectedBlueprints, action.BlueprintID)
	player.DealtBlueprints = append(player.DealtBlueprints[:idx], player.DealtBlueprints[idx+1:]...)
	return &Result{ActionKind: action.Kind, ActorUserID: actorID}, nil
}

func indexOf(ss []string, target string) int {
	for i, s := range ss {
		if s == target {
			return i
		}
	}
	return -1
}

func (e *Engine) applyPlaceTile(game *Game, actorID int64, action Action) (*Result, error) {
	if indexOf(game.VisibleTiles(), action.TileID) < 0 {
		return nil, newErr(PreconditionFailed, "tile %s is not among the top-3 available tiles", action.TileID)
	}
	def, ok := e.TileCatalog[action.TileID]
	if !ok {
		return nil, newErr(NotFound, "unknown tile_id %s", action.TileID)
	}
	player, ok := game.PlayerByUserID(actorID)
	if !ok {
		return nil, newErr(NotAParticipant, "actor %d has no player state", actorID)
	}
	if !resources.CanAfford(player.Resources, def.Cost) {
		return nil, newErr(PreconditionFailed, "actor %d cannot afford tile %s", actorID, action.TileID)
	}
	cell, inBounds := game.Board.At(action.Row, action.Col)
	if !inBounds {
		return nil, newErr(PreconditionFailed, "position (%d,%d) is out of bounds", action.Row, action.Col)
	}
	if cell.Terrain == board.Mountain {
		return nil, newErr(PreconditionFailed, "cannot place a tile on mountain terrain")
	}
	if cell.Tile != nil {
		return nil, newErr(PreconditionFailed, "cell (%d,%d) is already occupied", action.Row, action.Col)
	}

	paid, ok := resources.PayCost(player.Resources, def.Cost)
	if !ok {
		return nil, newErr(PreconditionFailed, "actor %d cannot afford tile %s", actorID, action.TileID)
	}
	player.Resources = paid

	placement := scorePlacement(game.Board, e.TileCatalog, def, action.Row, action.Col)
	placed := board.PlacedTile{TileID: action.TileID, OwnerID: actorID, FengshuiActive: placement.fengshuiActive}
	game.Board = game.Board.Place(action.Row, action.Col, placed)

	player.Score += placement.total

	game.AvailableTiles = removeFirst(game.AvailableTiles, action.TileID)

	return &Result{
		ActionKind:     action.Kind,
		ActorUserID:    actorID,
		PlacementScore: placement.total,
		FengshuiActive: placement.fengshuiActive,
	}, nil
}

func removeFirst(ss []string, target string) []string {
	idx := indexOf(ss, target)
	if idx < 0 {
		return ss
	}
	return append(ss[:idx], ss[idx+1:]...)
}

func (e *Engine) applyPlaceWorker(game *Game, actorID int64, action Action) (*Result, error) {
	player, ok := game.PlayerByUserID(actorID)
	if !ok {
		return nil, newErr(NotAParticipant, "actor %d has no player state", actorID)
	}
	if !workers.CanPlace(player.Workers, action.WorkerKind) {
		return nil, newErr(PreconditionFailed, "actor %d has no available %s worker", actorID, action.WorkerKind)
	}
	cell, inBounds := game.Board.At(action.Row, action.Col)
	if !inBounds {
		return nil, newErr(PreconditionFailed, "position (%d,%d) is out of bounds", action.Row, action.Col)
	}
	if cell.Terrain == board.Mountain {
		return nil, newErr(PreconditionFailed, "mountain cells never hold a tile")
	}
	if cell.Tile == nil {
		return nil, newErr(PreconditionFailed, "cell (%d,%d) has no tile", action.Row, action.Col)
	}
	def, ok := e.TileCatalog[cell.Tile.TileID]
	if !ok {
		return nil, newErr(Internal, "placed tile %s missing from catalog", cell.Tile.TileID)
	}

	existing := make([]workers.Slot, len(cell.Tile.PlacedWorkers))
	for i, w := range cell.Tile.PlacedWorkers {
		existing[i] = workers.Slot{Kind: w.WorkerKind, SlotIndex: w.SlotIndex}
	}
	if !workers.CanPlaceOnTile(existing, action.WorkerKind, action.SlotIndex, def.IsGate()) {
		return nil, newErr(PreconditionFailed, "slot %d is not a legal, unfilled %s slot on this tile", action.SlotIndex, action.WorkerKind)
	}

	pool, ok := workers.Place(player.Workers, action.WorkerKind)
	if !ok {
		return nil, newErr(PreconditionFailed, "actor %d has no available %s worker", actorID, action.WorkerKind)
	}
	player.Workers = pool

	tile := *cell.Tile
	tile.PlacedWorkers = append(tile.PlacedWorkers, board.PlacedWorker{
		PlayerUserID: actorID, WorkerKind: action.WorkerKind, SlotIndex: action.SlotIndex,
	})
	cell.Tile = &tile
	game.Board = game.Board.WithCell(action.Row, action.Col, cell)

	return &Result{ActionKind: action.Kind, ActorUserID: actorID}, nil
}

func (e *Engine) applyEndTurn(game *Game, actorID int64) (*Result, error) {
	idx := indexOf64(game.TurnOrder, game.CurrentTurnUserID)
	next := (idx + 1) % len(game.TurnOrder)
	if next == 0 && e.Config.RecallWorkersEachRound {
		e.RecallAll(game)
	}

	e.collectProduction(game, actorID)

	game.CurrentTurnUserID = game.TurnOrder[next]

	finished := false
	roundAdvanced := false
	if next == 0 {
		game.CurrentRound++
		roundAdvanced = true
		if game.CurrentRound > game.TotalRounds {
			finished = true
		}
	}
	if len(game.AvailableTiles) == 0 {
		finished = true
	}
	if finished {
		e.finalize(game)
	}

	return &Result{ActionKind: ActionEndTurn, ActorUserID: actorID, RoundAdvanced: roundAdvanced, GameFinished: finished}, nil
}

func indexOf64(xs []int64, target int64) int {
	for i, x := range xs {
		if x == target {
			return i
		}
	}
	return -1
}

func (e *Engine) collectProduction(game *Game, actorID int64) {
	player, ok := game.PlayerByUserID(actorID)
	if !ok {
		return
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
			kind, produces := tileProducedResource(def)
			if !produces {
				continue
			}
			for _, w := range cell.Tile.PlacedWorkers {
				if w.PlayerUserID != actorID {
					continue
				}
				units := 1
				if w.WorkerKind == workers.Official {
					units = 2
				}
				player.Resources = resources.Add(player.Resources, kind, units)
			}
		}
	}
}

func (e *Engine) finalize(game *Game) {
	for i := range game.Players {
		p := &game.Players[i]
		blueprintBonus := 0
		detail := make(map[string]int)
		for _, bpID := range p.SelectedBlueprints {
			card, ok := e.BlueprintCatalog[bpID]
			if !ok {
				continue
			}
			bonus := blueprints.Evaluate(card, game.Board, e.TileCatalog, blueprints.PlayerView{
				OwnerID: p.UserID, Resources: p.Resources, Workers: p.Workers,
			})
			detail[bpID] = bonus
			blueprintBonus += bonus
		}
		workerScore := p.Workers.Apprentices.Placed + p.Workers.Officials.Placed
		penalty := p.Resources.Total() / 3
		total := p.Score + blueprintBonus + workerScore - penalty

		p.ScoreBreakdown = &ScoreBreakdown{
			BaseScore:       p.Score,
			BlueprintBonus:  blueprintBonus,
			BlueprintDetail: detail,
			WorkerScore:     workerScore,
			ResourcePenalty: penalty,
			Total:           total,
		}
		p.Score = total
	}
	rankPlayers(game)
	game.Status = StatusFinished
}

// rankPlayers writes the final standings into each breakdown: total
// descending, ties by base score, then by earlier turn order.
func rankPlayers(game *Game) {
	order := make([]*PlayerState, len(game.Players))
	for i := range game.Players {
		order[i] = &game.Players[i]
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.ScoreBreakdown.BaseScore != b.ScoreBreakdown.BaseScore {
			return a.ScoreBreakdown.BaseScore > b.ScoreBreakdown.BaseScore
		}
		return a.Position < b.Position
	})
	for rank, p := range order {
		p.ScoreBreakdown.Rank = rank + 1
	}
}
