package engine

// PreviewPlacementScore reports the placement score that placing tileID at
// (row,col) would earn on game's current board, without mutating any
// state. ok is false if tileID is not in the catalog or (row,col) is out
// of bounds. Exported for the AI decision engine, which must rank
// candidate placements before submitting one through Submit.
func (e *Engine) PreviewPlacementScore(game *Game, tileID string, row, col int) (total int, fengshuiActive bool, ok bool) {
	def, known := e.TileCatalog[tileID]
	if !known {
		return 0, false, false
	}
	if _, inBounds := game.Board.At(row, col); !inBounds {
		return 0, false, false
	}
	s := scorePlacement(game.Board, e.TileCatalog, def, row, col)
	return s.total, s.fengshuiActive, true
}
