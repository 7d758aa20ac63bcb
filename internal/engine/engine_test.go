package engine

import (
	"testing"
	"time"

	"hanyang/internal/actor"
	"hanyang/internal/blueprints"
	"hanyang/internal/board"
	"hanyang/internal/tiles"
	"hanyang/internal/workers"
	"hanyang/models"
)

type memStore struct {
	byID   map[string]*Game
	byRoom map[string]string
	log    []ActionRecord
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[string]*Game), byRoom: make(map[string]string)}
}

func (s *memStore) LoadGame(id string) (*Game, error) {
	g, ok := s.byID[id]
	if !ok {
		return nil, newErr(NotFound, "no such game %s", id)
	}
	cp := *g
	return &cp, nil
}

func (s *memStore) LoadGameByRoom(roomID string) (*Game, error) {
	id, ok := s.byRoom[roomID]
	if !ok {
		return nil, newErr(NotFound, "no game for room %s", roomID)
	}
	return s.LoadGame(id)
}

func (s *memStore) SaveGame(game *Game) error {
	cp := *game
	s.byID[game.ID] = &cp
	s.byRoom[game.RoomID] = game.ID
	return nil
}

func (s *memStore) AppendAction(gameID string, record ActionRecord) error {
	s.log = append(s.log, record)
	return nil
}

func (s *memStore) CommitAction(game *Game, record ActionRecord) error {
	if err := s.SaveGame(game); err != nil {
		return err
	}
	return s.AppendAction(game.ID, record)
}

type sentEvent struct {
	kind    string
	userID  int64
	exclude *int64
}

// recordingBroadcaster captures the publish sequence so tests can assert
// event kinds, targets, and exclusions without a live websocket.
type recordingBroadcaster struct {
	broadcasts []sentEvent
	sends      []sentEvent
}

func (r *recordingBroadcaster) Broadcast(gameID string, kind EventKind, payload interface{}, exclude *int64) {
	r.broadcasts = append(r.broadcasts, sentEvent{kind: kind, exclude: exclude})
}

func (r *recordingBroadcaster) Send(gameID string, userID int64, kind EventKind, payload interface{}) bool {
	r.sends = append(r.sends, sentEvent{kind: kind, userID: userID})
	return true
}

type nullBroadcaster struct{}

func (nullBroadcaster) Broadcast(gameID string, kind EventKind, payload interface{}, exclude *int64) {
}
func (nullBroadcaster) Send(gameID string, userID int64, kind EventKind, payload interface{}) bool {
	return true
}

func testRoom() models.Room {
	return models.Room{
		ID: "room-1",
		Participants: []models.Participant{
			{UserID: 1, Username: "alice", IsHost: true},
			{UserID: 2, Username: "bob"},
			{UserID: 3, Username: "carol", IsAI: true, AIDifficulty: actor.Medium},
		},
	}
}

func newTestEngine() (*Engine, *memStore) {
	store := newMemStore()
	e := New(tiles.Catalog, blueprints.Catalog, store, nullBroadcaster{}, DefaultConfig())
	return e, store
}

func TestCreateIsDeterministicForAFixedSeed(t *testing.T) {
	e1, _ := newTestEngine()
	e2, _ := newTestEngine()

	g1, err := e1.Create(testRoom(), 42)
	if err != nil {
		t.Fatalf("create 1: %v", err)
	}
	g2, err := e2.Create(testRoom(), 42)
	if err != nil {
		t.Fatalf("create 2: %v", err)
	}

	if g1.ID != g2.ID {
		t.Fatalf("same seed produced different game ids: %s vs %s", g1.ID, g2.ID)
	}
	if len(g1.AvailableTiles) != len(g2.AvailableTiles) {
		t.Fatalf("pool length mismatch")
	}
	for i := range g1.AvailableTiles {
		if g1.AvailableTiles[i] != g2.AvailableTiles[i] {
			t.Fatalf("tile pool order diverged at index %d: %s vs %s", i, g1.AvailableTiles[i], g2.AvailableTiles[i])
		}
	}
	for i := range g1.Players {
		if len(g1.Players[i].DealtBlueprints) != len(g2.Players[i].DealtBlueprints) {
			t.Fatalf("dealt hand size mismatch for player %d", i)
		}
		for j := range g1.Players[i].DealtBlueprints {
			if g1.Players[i].DealtBlueprints[j] != g2.Players[i].DealtBlueprints[j] {
				t.Fatalf("dealt hand diverged for player %d", i)
			}
		}
	}
}

func TestCreateRequiresTwoToFourParticipants(t *testing.T) {
	e, _ := newTestEngine()

	solo := models.Room{ID: "solo", Participants: []models.Participant{{UserID: 1}}}
	if _, err := e.Create(solo, 1); err == nil {
		t.Fatal("expected an error for a single-participant room")
	} else if eng, ok := err.(*Error); !ok || eng.Kind != PreconditionFailed {
		t.Fatalf("expected PreconditionFailed, got %v", err)
	}

	crowded := models.Room{ID: "crowded", Participants: []models.Participant{
		{UserID: 1}, {UserID: 2}, {UserID: 3}, {UserID: 4}, {UserID: 5},
	}}
	if _, err := e.Create(crowded, 1); err == nil {
		t.Fatal("expected an error for a five-participant room")
	} else if eng, ok := err.(*Error); !ok || eng.Kind != PreconditionFailed {
		t.Fatalf("expected PreconditionFailed, got %v", err)
	}
}

func TestSubmitRejectsWrongTurnHolder(t *testing.T) {
	e, store := newTestEngine()
	game, err := e.Create(testRoom(), 7)
	if err != nil {
		t.Fatal(err)
	}
	store.SaveGame(game)

	notTurn := game.TurnOrder[1]
	_, _, err = e.Submit(game.ID, notTurn, Action{Kind: ActionEndTurn}, time.Time{})
	eng, ok := err.(*Error)
	if !ok || eng.Kind != NotYourTurn {
		t.Fatalf("expected NotYourTurn, got %v", err)
	}
}

func TestSubmitRejectsNonParticipant(t *testing.T) {
	e, store := newTestEngine()
	game, _ := e.Create(testRoom(), 7)
	store.SaveGame(game)

	_, _, err := e.Submit(game.ID, 999, Action{Kind: ActionEndTurn}, time.Time{})
	eng, ok := err.(*Error)
	if !ok || eng.Kind != NotAParticipant {
		t.Fatalf("expected NotAParticipant, got %v", err)
	}
}

func TestSelectBlueprintIsNotTurnGated(t *testing.T) {
	e, store := newTestEngine()
	game, _ := e.Create(testRoom(), 7)
	store.SaveGame(game)

	waiting := game.TurnOrder[1]
	p, _ := game.PlayerByUserID(waiting)
	if len(p.DealtBlueprints) == 0 {
		t.Fatal("fixture expects at least one dealt blueprint")
	}
	card := p.DealtBlueprints[0]

	_, result, err := e.Submit(game.ID, waiting, Action{Kind: ActionSelectBlueprint, BlueprintID: card}, time.Time{})
	if err != nil {
		t.Fatalf("select_blueprint from a non-turn-holder should succeed: %v", err)
	}
	if result.ActorUserID != waiting {
		t.Fatalf("unexpected actor in result: %d", result.ActorUserID)
	}
}

func TestPlaceTileOnMountainFails(t *testing.T) {
	e, store := newTestEngine()
	game, _ := e.Create(testRoom(), 7)
	store.SaveGame(game)

	actorID := game.CurrentTurnUserID
	tileID := game.VisibleTiles()[0]
	_, _, err := e.Submit(game.ID, actorID, Action{Kind: ActionPlaceTile, TileID: tileID, Row: 0, Col: 0}, time.Time{})
	eng, ok := err.(*Error)
	if !ok || eng.Kind != PreconditionFailed {
		t.Fatalf("expected PreconditionFailed placing on a mountain corner, got %v", err)
	}
}

func TestPlaceTileExactCostZeroesResourcesAndScores(t *testing.T) {
	e, store := newTestEngine()
	game, _ := e.Create(testRoom(), 11)
	store.SaveGame(game)

	actorID := game.CurrentTurnUserID
	p, _ := game.PlayerByUserID(actorID)
	tileID := game.VisibleTiles()[0]
	def := e.TileCatalog[tileID]
	p.Resources = def.Cost
	store.SaveGame(game)

	// (3,0) has neither a mountain due north nor any water in its 3x3
	// neighborhood, so the placement score is exactly base_points -- no
	// adjacency (no neighboring tiles yet) and no fengshui bonus.
	_, result, err := e.Submit(game.ID, actorID, Action{Kind: ActionPlaceTile, TileID: tileID, Row: 3, Col: 0}, time.Time{})
	if err != nil {
		t.Fatalf("affordable placement failed: %v", err)
	}
	if result.PlacementScore != def.BasePoints {
		t.Fatalf("expected base placement score %d with no neighbors, got %d", def.BasePoints, result.PlacementScore)
	}

	after, err := store.LoadGame(game.ID)
	if err != nil {
		t.Fatal(err)
	}
	ap, _ := after.PlayerByUserID(actorID)
	if ap.Resources.Total() != 0 {
		t.Fatalf("expected zeroed resources after an exact-cost purchase, got %+v", ap.Resources)
	}
	cell, _ := after.Board.At(3, 0)
	if cell.Tile == nil || cell.Tile.TileID != tileID {
		t.Fatalf("expected tile %s placed at (3,0)", tileID)
	}
}

func TestFengshuiFullBonusRequiresMountainNorthAndWaterNearby(t *testing.T) {
	b := board.New()
	var withTerrain board.Board
	for r := 0; r < board.Size; r++ {
		for c := 0; c < board.Size; c++ {
			cell, _ := b.At(r, c)
			cell.Terrain = board.Normal
			withTerrain = withTerrain.WithCell(r, c, cell)
		}
	}
	northCell, _ := withTerrain.At(0, 2)
	northCell.Terrain = board.Mountain
	withTerrain = withTerrain.WithCell(0, 2, northCell)
	southCell, _ := withTerrain.At(2, 2)
	southCell.Terrain = board.Water
	withTerrain = withTerrain.WithCell(2, 2, southCell)

	def := tiles.Definition{ID: "x", BasePoints: 3, FengshuiBonus: 4}
	score := scorePlacement(withTerrain, tiles.Catalog, def, 1, 2)
	if !score.fengshuiActive || score.fengshui != 4 {
		t.Fatalf("expected full fengshui bonus, got %+v", score)
	}
}

func TestFengshuiHalfBonusWhenOnlyOneConditionHolds(t *testing.T) {
	var withTerrain board.Board
	for r := 0; r < board.Size; r++ {
		for c := 0; c < board.Size; c++ {
			withTerrain = withTerrain.WithCell(r, c, board.Cell{Row: r, Col: c, Terrain: board.Normal})
		}
	}
	northCell, _ := withTerrain.At(0, 2)
	northCell.Terrain = board.Mountain
	withTerrain = withTerrain.WithCell(0, 2, northCell)

	def := tiles.Definition{ID: "x", BasePoints: 3, FengshuiBonus: 5}
	score := scorePlacement(withTerrain, tiles.Catalog, def, 1, 2)
	if score.fengshuiActive {
		t.Fatal("expected fengshuiActive false when only the mountain condition holds")
	}
	if score.fengshui != 2 {
		t.Fatalf("expected floor(5/2)=2 half bonus, got %d", score.fengshui)
	}
}

func TestEndTurnAdvancesToNextPlayer(t *testing.T) {
	e, store := newTestEngine()
	game, _ := e.Create(testRoom(), 3)
	store.SaveGame(game)

	first := game.CurrentTurnUserID
	_, _, err := e.Submit(game.ID, first, Action{Kind: ActionEndTurn}, time.Time{})
	if err != nil {
		t.Fatalf("end_turn failed: %v", err)
	}

	after, _ := store.LoadGame(game.ID)
	if after.CurrentTurnUserID == first {
		t.Fatal("turn did not advance")
	}
	idx := indexOf64(after.TurnOrder, first)
	want := after.TurnOrder[(idx+1)%len(after.TurnOrder)]
	if after.CurrentTurnUserID != want {
		t.Fatalf("expected turn to pass to %d, got %d", want, after.CurrentTurnUserID)
	}
}

func TestGameFinalizesAfterTotalRoundsWrap(t *testing.T) {
	e, store := newTestEngine()
	game, _ := e.Create(testRoom(), 5)
	store.SaveGame(game)

	for round := 0; round < TotalRounds; round++ {
		for range game.TurnOrder {
			current, err := store.LoadGame(game.ID)
			if err != nil {
				t.Fatal(err)
			}
			if current.Status == StatusFinished {
				return
			}
			actorID := current.CurrentTurnUserID
			_, _, err = e.Submit(game.ID, actorID, Action{Kind: ActionEndTurn}, time.Time{})
			if err != nil {
				t.Fatalf("end_turn failed: %v", err)
			}
		}
	}

	final, _ := store.LoadGame(game.ID)
	if final.Status != StatusFinished {
		t.Fatalf("expected game finished after %d full rounds, got status %s", TotalRounds, final.Status)
	}
}

func TestFinalizeRecordsBreakdownAndRanks(t *testing.T) {
	e, store := newTestEngine()
	game, _ := e.Create(testRoom(), 13)
	store.SaveGame(game)

	for {
		current, err := store.LoadGame(game.ID)
		if err != nil {
			t.Fatal(err)
		}
		if current.Status == StatusFinished {
			break
		}
		if _, _, err := e.Submit(game.ID, current.CurrentTurnUserID, Action{Kind: ActionEndTurn}, time.Time{}); err != nil {
			t.Fatalf("end_turn failed: %v", err)
		}
	}

	final, _ := store.LoadGame(game.ID)
	ranks := map[int]bool{}
	for _, p := range final.Players {
		b := p.ScoreBreakdown
		if b == nil {
			t.Fatalf("player %d has no score breakdown after finalization", p.UserID)
		}
		if b.Total != p.Score {
			t.Fatalf("player %d: breakdown total %d != score %d", p.UserID, b.Total, p.Score)
		}
		if got := b.BaseScore + b.BlueprintBonus + b.WorkerScore - b.ResourcePenalty; got != b.Total {
			t.Fatalf("player %d: breakdown components sum to %d, total says %d", p.UserID, got, b.Total)
		}
		if ranks[b.Rank] {
			t.Fatalf("rank %d assigned twice", b.Rank)
		}
		ranks[b.Rank] = true
	}
	for r := 1; r <= len(final.Players); r++ {
		if !ranks[r] {
			t.Fatalf("rank %d missing from final standings", r)
		}
	}

	winner, ok := final.Winner()
	if !ok {
		t.Fatal("expected a winner on a finished game")
	}
	for _, p := range final.Players {
		if p.Score > mustPlayer(t, final, winner).Score {
			t.Fatalf("player %d outscores the declared winner %d", p.UserID, winner)
		}
	}
}

func mustPlayer(t *testing.T, g *Game, userID int64) *PlayerState {
	t.Helper()
	p, ok := g.PlayerByUserID(userID)
	if !ok {
		t.Fatalf("player %d not found", userID)
	}
	return p
}

func TestRankTiesBreakOnBaseScoreThenTurnOrder(t *testing.T) {
	game := &Game{
		Players: []PlayerState{
			{UserID: 1, Position: 0, Score: 10, ScoreBreakdown: &ScoreBreakdown{BaseScore: 4, Total: 10}},
			{UserID: 2, Position: 1, Score: 10, ScoreBreakdown: &ScoreBreakdown{BaseScore: 7, Total: 10}},
			{UserID: 3, Position: 2, Score: 10, ScoreBreakdown: &ScoreBreakdown{BaseScore: 4, Total: 10}},
		},
	}
	rankPlayers(game)

	if got := mustRank(t, game, 2); got != 1 {
		t.Fatalf("higher base score should win the tie, got rank %d for player 2", got)
	}
	if got := mustRank(t, game, 1); got != 2 {
		t.Fatalf("equal base scores should fall back to earlier turn order, got rank %d for player 1", got)
	}
	if got := mustRank(t, game, 3); got != 3 {
		t.Fatalf("expected player 3 last, got rank %d", got)
	}
}

func mustRank(t *testing.T, g *Game, userID int64) int {
	t.Helper()
	p, ok := g.PlayerByUserID(userID)
	if !ok || p.ScoreBreakdown == nil {
		t.Fatalf("player %d has no breakdown", userID)
	}
	return p.ScoreBreakdown.Rank
}

func TestPublishExcludesActorFromPlayerAction(t *testing.T) {
	store := newMemStore()
	rec := &recordingBroadcaster{}
	e := New(tiles.Catalog, blueprints.Catalog, store, rec, DefaultConfig())
	game, _ := e.Create(testRoom(), 17)
	store.SaveGame(game)

	actorID := game.CurrentTurnUserID
	p, _ := game.PlayerByUserID(actorID)
	tileID := game.VisibleTiles()[0]
	p.Resources = e.TileCatalog[tileID].Cost
	store.SaveGame(game)

	if _, _, err := e.Submit(game.ID, actorID, Action{Kind: ActionPlaceTile, TileID: tileID, Row: 2, Col: 1}, time.Time{}); err != nil {
		t.Fatalf("place_tile failed: %v", err)
	}

	var sawPlayerAction bool
	for _, ev := range rec.broadcasts {
		if ev.kind == "player_action" {
			sawPlayerAction = true
			if ev.exclude == nil || *ev.exclude != actorID {
				t.Fatalf("player_action should exclude the actor, got exclude=%v", ev.exclude)
			}
		}
	}
	if !sawPlayerAction {
		t.Fatal("expected a player_action broadcast")
	}

	var sawActionResult bool
	for _, ev := range rec.sends {
		if ev.kind == "action_result" && ev.userID == actorID {
			sawActionResult = true
		}
	}
	if !sawActionResult {
		t.Fatal("expected an action_result sent to the actor")
	}
}

func TestPublishEndTurnEmitsTurnChangedAndYourTurn(t *testing.T) {
	store := newMemStore()
	rec := &recordingBroadcaster{}
	e := New(tiles.Catalog, blueprints.Catalog, store, rec, DefaultConfig())
	game, _ := e.Create(testRoom(), 19)
	store.SaveGame(game)

	first := game.CurrentTurnUserID
	after, _, err := e.Submit(game.ID, first, Action{Kind: ActionEndTurn}, time.Time{})
	if err != nil {
		t.Fatalf("end_turn failed: %v", err)
	}

	var sawTurnChanged bool
	for _, ev := range rec.broadcasts {
		if ev.kind == "turn_changed" {
			sawTurnChanged = true
		}
	}
	if !sawTurnChanged {
		t.Fatal("expected a turn_changed broadcast after end_turn")
	}

	var sawYourTurn bool
	for _, ev := range rec.sends {
		if ev.kind == "your_turn" && ev.userID == after.CurrentTurnUserID {
			sawYourTurn = true
		}
	}
	if !sawYourTurn {
		t.Fatalf("expected your_turn sent to the next holder %d", after.CurrentTurnUserID)
	}
}

func TestRecallAllClearsPoolsAndBoard(t *testing.T) {
	e, store := newTestEngine()
	game, _ := e.Create(testRoom(), 21)
	store.SaveGame(game)

	actorID := game.CurrentTurnUserID
	p, _ := game.PlayerByUserID(actorID)
	tileID := game.VisibleTiles()[0]
	p.Resources = e.TileCatalog[tileID].Cost
	store.SaveGame(game)

	if _, _, err := e.Submit(game.ID, actorID, Action{Kind: ActionPlaceTile, TileID: tileID, Row: 2, Col: 1}, time.Time{}); err != nil {
		t.Fatalf("place_tile failed: %v", err)
	}
	if _, _, err := e.Submit(game.ID, actorID, Action{Kind: ActionPlaceWorker, Row: 2, Col: 1, WorkerKind: workers.Apprentice, SlotIndex: 0}, time.Time{}); err != nil {
		t.Fatalf("place_worker failed: %v", err)
	}

	current, _ := store.LoadGame(game.ID)
	cp, _ := current.PlayerByUserID(actorID)
	if cp.Workers.Apprentices.Placed != 1 {
		t.Fatalf("expected 1 placed apprentice before recall, got %d", cp.Workers.Apprentices.Placed)
	}

	e.RecallAll(current)

	rp, _ := current.PlayerByUserID(actorID)
	if rp.Workers.Apprentices.Placed != 0 || rp.Workers.Apprentices.Available != rp.Workers.Apprentices.Total {
		t.Fatalf("recall left the pool inconsistent: %+v", rp.Workers.Apprentices)
	}
	cell, _ := current.Board.At(2, 1)
	if cell.Tile == nil {
		t.Fatal("recall must not remove the tile itself")
	}
	if len(cell.Tile.PlacedWorkers) != 0 {
		t.Fatalf("recall left %d workers on the board", len(cell.Tile.PlacedWorkers))
	}
}

func TestValidActionsForOmitsTurnGatedKindsOffTurn(t *testing.T) {
	e, store := newTestEngine()
	game, _ := e.Create(testRoom(), 9)
	store.SaveGame(game)

	waiting := game.TurnOrder[1]
	templates := e.ValidActionsFor(game, waiting)
	for _, tpl := range templates {
		if tpl.ActionKind != "select_blueprint" {
			t.Fatalf("expected only select_blueprint templates for a non-turn-holder, got %s", tpl.ActionKind)
		}
	}

	current := game.CurrentTurnUserID
	currentTemplates := e.ValidActionsFor(game, current)
	sawEndTurn := false
	for _, tpl := range currentTemplates {
		if tpl.ActionKind == "end_turn" {
			sawEndTurn = true
		}
	}
	if !sawEndTurn {
		t.Fatal("expected end_turn to always be a valid action for the current turn holder")
	}
}
