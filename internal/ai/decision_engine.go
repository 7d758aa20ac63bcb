// Package ai implements the computer-controlled opponent: MakeDecision
// picks one legal Action for an AI-controlled player given the current
// game state and its assigned difficulty, scoring discrete candidate
// moves in a fixed blueprint/tile/worker/end_turn priority order.
package ai

import (
	"math/rand"
	"time"

	"hanyang/internal/actor"
	"hanyang/internal/board"
	"hanyang/internal/engine"
	"hanyang/internal/resources"
	"hanyang/internal/tiles"
	"hanyang/internal/workers"
	"hanyang/pkg/logger"
	"hanyang/pkg/protocol"
)

// DecisionEngine picks actions for one AI-controlled seat. Stateless
// across calls except for its private random source, so a single
// DecisionEngine may serve every AI player in a game.
type DecisionEngine struct {
	log *logger.ColoredLogger
	rng *rand.Rand
}

// NewDecisionEngine builds a DecisionEngine logging under the given
// difficulty's own context.
func NewDecisionEngine(difficulty actor.Difficulty) *DecisionEngine {
	return &DecisionEngine{
		log: logger.CreateAILogger(string(difficulty), colorForDifficulty(difficulty)),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func colorForDifficulty(d actor.Difficulty) string {
	switch d {
	case actor.Easy:
		return logger.ColorGreen
	case actor.Hard:
		return logger.ColorBrightRed
	default:
		return logger.ColorYellow
	}
}

// MakeDecision returns one legal action for player on game, dispatching
// on player.AIDifficulty. It never returns an action the engine would
// reject; when no candidate exists it falls back to end_turn.
func (d *DecisionEngine) MakeDecision(eng *engine.Engine, game *engine.Game, player engine.PlayerState) engine.Action {
	var action engine.Action
	switch player.AIDifficulty {
	case actor.Easy:
		action = d.decideEasy(eng, game, player)
	case actor.Hard:
		action = d.decideHard(eng, game, player)
	default:
		action = d.decideMedium(eng, game, player)
	}
	d.log.Debug("player %d (%s) chose %s", player.UserID, player.AIDifficulty, action.Kind)
	return action
}

// decideEasy enumerates every legal action and picks uniformly at random.
func (d *DecisionEngine) decideEasy(eng *engine.Engine, game *engine.Game, player engine.PlayerState) engine.Action {
	candidates := legalActions(eng, game, player.UserID)
	if len(candidates) == 0 {
		return engine.Action{Kind: engine.ActionEndTurn}
	}
	return candidates[d.rng.Intn(len(candidates))]
}

// decideMedium follows the fixed priority order: select the best dealt
// blueprint by raw bonus_points, else place the highest-scoring
// affordable tile, else place a worker (preferring officials), else end
// the turn.
func (d *DecisionEngine) decideMedium(eng *engine.Engine, game *engine.Game, player engine.PlayerState) engine.Action {
	if len(player.SelectedBlueprints) == 0 && len(player.DealtBlueprints) > 0 {
		best, ok := bestBlueprintByBonus(eng, player.DealtBlueprints)
		if ok {
			return engine.Action{Kind: engine.ActionSelectBlueprint, BlueprintID: best}
		}
	}

	if action, ok := bestPlacement(eng, game, player, false); ok {
		return action
	}

	if action, ok := bestWorkerPlacement(eng, game, player, true); ok {
		return action
	}

	return engine.Action{Kind: engine.ActionEndTurn}
}

// decideHard follows the same priority order as medium with sharper
// heuristics: achievability-weighted blueprint choice, placement-score-
// plus-efficiency tile scoring, and scarcity-ranked worker slots.
func (d *DecisionEngine) decideHard(eng *engine.Engine, game *engine.Game, player engine.PlayerState) engine.Action {
	if len(player.SelectedBlueprints) == 0 && len(player.DealtBlueprints) > 0 {
		best, ok := bestBlueprintByAchievability(eng, game, player)
		if ok {
			return engine.Action{Kind: engine.ActionSelectBlueprint, BlueprintID: best}
		}
	}

	if action, ok := bestPlacement(eng, game, player, true); ok {
		return action
	}

	if action, ok := bestWorkerPlacement(eng, game, player, false); ok {
		return action
	}

	return engine.Action{Kind: engine.ActionEndTurn}
}

func legalActions(eng *engine.Engine, game *engine.Game, userID int64) []engine.Action {
	templates := eng.ValidActionsFor(game, userID)
	out := make([]engine.Action, 0, len(templates))
	for _, t := range templates {
		if a, ok := actionFromTemplate(t); ok {
			out = append(out, a)
		}
	}
	return out
}

func actionFromTemplate(tpl protocol.ActionTemplate) (engine.Action, bool) {
	switch tpl.ActionKind {
	case protocol.ActionSelectBlueprint:
		p, ok := tpl.Params.(protocol.SelectBlueprintPayload)
		if !ok {
			return engine.Action{}, false
		}
		return engine.Action{Kind: engine.ActionSelectBlueprint, BlueprintID: p.BlueprintID}, true
	case protocol.ActionPlaceTile:
		p, ok := tpl.Params.(protocol.PlaceTilePayload)
		if !ok {
			return engine.Action{}, false
		}
		return engine.Action{Kind: engine.ActionPlaceTile, TileID: p.TileID, Row: p.Position.Row, Col: p.Position.Col}, true
	case protocol.ActionPlaceWorker:
		p, ok := tpl.Params.(protocol.PlaceWorkerPayload)
		if !ok {
			return engine.Action{}, false
		}
		return engine.Action{
			Kind:       engine.ActionPlaceWorker,
			Row:        p.TargetPosition.Row,
			Col:        p.TargetPosition.Col,
			WorkerKind: workerKindFromString(p.WorkerKind),
			SlotIndex:  p.SlotIndex,
		}, true
	case protocol.ActionEndTurn:
		return engine.Action{Kind: engine.ActionEndTurn}, true
	default:
		return engine.Action{}, false
	}
}

func workerKindFromString(s string) workers.Kind {
	if s == string(workers.Official) {
		return workers.Official
	}
	return workers.Apprentice
}

// bestBlueprintByBonus picks the dealt card with the highest raw
// bonus_points, breaking ties lexicographically by card id for
// determinism.
func bestBlueprintByBonus(eng *engine.Engine, dealt []string) (string, bool) {
	bestID := ""
	bestScore := -1
	for _, id := range dealt {
		card, ok := eng.BlueprintCatalog[id]
		if !ok {
			continue
		}
		if card.BonusPoints > bestScore || (card.BonusPoints == bestScore && id < bestID) {
			bestScore = card.BonusPoints
			bestID = id
		}
	}
	return bestID, bestScore >= 0
}

// bestBlueprintByAchievability picks the dealt card maximizing
// bonus_points * achievability(board, player, condition).
func bestBlueprintByAchievability(eng *engine.Engine, game *engine.Game, player engine.PlayerState) (string, bool) {
	bestID := ""
	bestScore := -1.0
	found := false
	for _, id := range player.DealtBlueprints {
		card, ok := eng.BlueprintCatalog[id]
		if !ok {
			continue
		}
		score := float64(card.BonusPoints) * achievability(game.Board, eng.TileCatalog, card.Condition, player.UserID)
		if !found || score > bestScore || (score == bestScore && id < bestID) {
			bestScore = score
			bestID = id
			found = true
		}
	}
	return bestID, found
}

type placementCandidate struct {
	tileID string
	row    int
	col    int
	score  float64
}

// bestPlacement evaluates every (tile, position) pair among the affordable
// top-3 tiles and legal board positions. With sharp=false it maximizes
// the raw placement score (medium); with sharp=true it maximizes the
// efficiency-weighted hard-difficulty score. Ties break lexicographically
// by (tile_id, row, col).
func bestPlacement(eng *engine.Engine, game *engine.Game, player engine.PlayerState, sharp bool) (engine.Action, bool) {
	var best *placementCandidate
	for _, tileID := range game.VisibleTiles() {
		def, ok := eng.TileCatalog[tileID]
		if !ok || !resources.CanAfford(player.Resources, def.Cost) {
			continue
		}
		for row := 0; row < boardSize(game); row++ {
			for col := 0; col < boardSize(game); col++ {
				cell := game.Board.Cells[row][col]
				if cell.Terrain == board.Mountain || cell.Tile != nil {
					continue
				}
				total, _, ok := eng.PreviewPlacementScore(game, tileID, row, col)
				if !ok {
					continue
				}
				score := float64(total)
				if sharp {
					totalCost := def.Cost.Total()
					efficiency := 0.0
					if totalCost > 0 {
						efficiency = float64(total) / float64(totalCost)
					}
					paid, _ := resources.PayCost(player.Resources, def.Cost)
					score = 2*float64(total) + efficiency + 0.1*float64(paid.Total())
				}
				cand := placementCandidate{tileID: tileID, row: row, col: col, score: score}
				if best == nil || cand.score > best.score || (cand.score == best.score && lessPlacement(cand, *best)) {
					c := cand
					best = &c
				}
			}
		}
	}
	if best == nil {
		return engine.Action{}, false
	}
	return engine.Action{Kind: engine.ActionPlaceTile, TileID: best.tileID, Row: best.row, Col: best.col}, true
}

func lessPlacement(a, b placementCandidate) bool {
	if a.tileID != b.tileID {
		return a.tileID < b.tileID
	}
	if a.row != b.row {
		return a.row < b.row
	}
	return a.col < b.col
}

func boardSize(game *engine.Game) int {
	return len(game.Board.Cells)
}

type workerCandidate struct {
	row, col, slot int
	kind           workers.Kind
	score          int
}

// bestWorkerPlacement ranks every legal worker placement. With
// preferOfficial=true (medium), officials always outrank apprentices,
// ties broken lexicographically by (row, col, slot_index). Otherwise
// (hard), slots are ranked by producing-resource scarcity plus a +10
// bonus for placing on a tile the player already owns; ties still
// resolve lexicographically.
func bestWorkerPlacement(eng *engine.Engine, game *engine.Game, player engine.PlayerState, preferOfficial bool) (engine.Action, bool) {
	var best *workerCandidate
	candidates := legalActions(eng, game, player.UserID)
	for _, a := range candidates {
		if a.Kind != engine.ActionPlaceWorker {
			continue
		}
		cell := game.Board.Cells[a.Row][a.Col]
		def, ok := eng.TileCatalog[cell.Tile.TileID]
		if !ok {
			continue
		}
		score := workerSlotScore(def, cell.Tile.OwnerID, player, preferOfficial, a.WorkerKind)
		cand := workerCandidate{row: a.Row, col: a.Col, slot: a.SlotIndex, kind: a.WorkerKind, score: score}
		if best == nil || cand.score > best.score || (cand.score == best.score && lessWorker(cand, *best)) {
			c := cand
			best = &c
		}
	}
	if best == nil {
		return engine.Action{}, false
	}
	return engine.Action{Kind: engine.ActionPlaceWorker, Row: best.row, Col: best.col, SlotIndex: best.slot, WorkerKind: best.kind}, true
}

// workerSlotScore implements the hard ranking (producing-resource
// scarcity, +10 for owning the tile), with an additional official-over-
// apprentice boost used by medium instead.
func workerSlotScore(def tiles.Definition, tileOwnerID int64, player engine.PlayerState, preferOfficial bool, kind workers.Kind) int {
	score := 0
	if preferOfficial && kind == workers.Official {
		score += 1000
	}
	if producedKind, produces := tiles.ProducedResource(def.Category); produces {
		score += resources.Max[producedKind] - currentAmount(player.Resources, producedKind)
	}
	if tileOwnerID == player.UserID {
		score += 10
	}
	return score
}

func currentAmount(r resources.Resources, kind resources.Kind) int {
	switch kind {
	case resources.Wood:
		return r.Wood
	case resources.Stone:
		return r.Stone
	case resources.Tile:
		return r.Tile
	case resources.Ink:
		return r.Ink
	default:
		return 0
	}
}

func lessWorker(a, b workerCandidate) bool {
	if a.row != b.row {
		return a.row < b.row
	}
	if a.col != b.col {
		return a.col < b.col
	}
	return a.slot < b.slot
}
