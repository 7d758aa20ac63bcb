package engine

import (
	"hanyang/pkg/protocol"
)

// StatePayload renders game into exactly the fields the observer channel is
// permitted to expose: discarded_tiles and every available tile past the
// visible three stay server-side.
func (g *Game) StatePayload() protocol.GameStatePayload {
	players := make([]protocol.PlayerPayload, len(g.Players))
	for i, p := range g.Players {
		players[i] = playerPayload(g, p)
	}

	return protocol.GameStatePayload{
		ID:                g.ID,
		Status:            string(g.Status),
		CurrentRound:      g.CurrentRound,
		TotalRounds:       g.TotalRounds,
		CurrentTurnUserID: g.CurrentTurnUserID,
		TurnOrder:         append([]int64(nil), g.TurnOrder...),
		Board:             g.Board,
		Players:           players,
		AvailableTiles:    g.VisibleTiles(),
		CreatedAt:         g.CreatedAt.Unix(),
		UpdatedAt:         g.UpdatedAt.Unix(),
	}
}

func playerPayload(g *Game, p PlayerState) protocol.PlayerPayload {
	owned := g.Board.TilesOwnedBy(p.UserID)
	placed := make([]protocol.Position, len(owned))
	for i, pos := range owned {
		placed[i] = protocol.Position{Row: pos[0], Col: pos[1]}
	}

	pp := protocol.PlayerPayload{
		UserID:             p.UserID,
		Username:           p.Username,
		Color:              p.Color,
		Position:           p.Position,
		IsHost:             p.IsHost,
		IsAI:               p.IsAI,
		AIDifficulty:       string(p.AIDifficulty),
		Resources:          p.Resources,
		Workers:            p.Workers,
		SelectedBlueprints: p.SelectedBlueprints,
		Score:              p.Score,
		PlacedTiles:        placed,
	}
	if p.ScoreBreakdown != nil {
		pp.ScoreBreakdown = p.ScoreBreakdown
	}
	return pp
}
