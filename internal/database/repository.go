package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"hanyang/internal/engine"
	"hanyang/pkg/logger"
)

// SQLiteStore implements engine.Store over a single-row-per-game aggregate
// table plus an append-only action log. Every nested document (board,
// players, tile pools) round-trips through typed structs, never opaque
// JSON text.
type SQLiteStore struct {
	db     *DB
	logger *logger.ColoredLogger
}

// NewSQLiteStore wraps db as an engine.Store.
func NewSQLiteStore(db *DB) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger.NewColoredLogger("DB", logger.ColorBrightYellow)}
}

type gameRow struct {
	ID                string
	RoomID            string
	Status            string
	CurrentRound      int
	TotalRounds       int
	CurrentTurnUserID int64
	TurnOrder         string
	Board             string
	Players           string
	AvailableTiles    string
	DiscardedTiles    string
	LastAction        sql.NullString
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func marshalGame(g *engine.Game) (gameRow, error) {
	turnOrder, err := json.Marshal(g.TurnOrder)
	if err != nil {
		return gameRow{}, err
	}
	board, err := json.Marshal(g.Board)
	if err != nil {
		return gameRow{}, err
	}
	players, err := json.Marshal(g.Players)
	if err != nil {
		return gameRow{}, err
	}
	available, err := json.Marshal(g.AvailableTiles)
	if err != nil {
		return gameRow{}, err
	}
	discarded, err := json.Marshal(g.DiscardedTiles)
	if err != nil {
		return gameRow{}, err
	}

	row := gameRow{
		ID:                g.ID,
		RoomID:            g.RoomID,
		Status:            string(g.Status),
		CurrentRound:      g.CurrentRound,
		TotalRounds:       g.TotalRounds,
		CurrentTurnUserID: g.CurrentTurnUserID,
		TurnOrder:         string(turnOrder),
		Board:             string(board),
		Players:           string(players),
		AvailableTiles:    string(available),
		DiscardedTiles:    string(discarded),
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
	}

	if g.LastAction != nil {
		last, err := json.Marshal(g.LastAction)
		if err != nil {
			return gameRow{}, err
		}
		row.LastAction = sql.NullString{String: string(last), Valid: true}
	}

	return row, nil
}

func unmarshalGame(row gameRow) (*engine.Game, error) {
	g := &engine.Game{
		ID:                row.ID,
		RoomID:            row.RoomID,
		Status:            engine.Status(row.Status),
		CurrentRound:      row.CurrentRound,
		TotalRounds:       row.TotalRounds,
		CurrentTurnUserID: row.CurrentTurnUserID,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(row.TurnOrder), &g.TurnOrder); err != nil {
		return nil, fmt.Errorf("decoding turn_order: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Board), &g.Board); err != nil {
		return nil, fmt.Errorf("decoding board: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Players), &g.Players); err != nil {
		return nil, fmt.Errorf("decoding players: %w", err)
	}
	if err := json.Unmarshal([]byte(row.AvailableTiles), &g.AvailableTiles); err != nil {
		return nil, fmt.Errorf("decoding available_tiles: %w", err)
	}
	if err := json.Unmarshal([]byte(row.DiscardedTiles), &g.DiscardedTiles); err != nil {
		return nil, fmt.Errorf("decoding discarded_tiles: %w", err)
	}
	if row.LastAction.Valid {
		var last engine.ActionSummary
		if err := json.Unmarshal([]byte(row.LastAction.String), &last); err != nil {
			return nil, fmt.Errorf("decoding last_action: %w", err)
		}
		g.LastAction = &last
	}
	return g, nil
}

const gameColumns = `id, room_id, status, current_round, total_rounds, current_turn_user_id,
	turn_order, board, players, available_tiles, discarded_tiles, last_action, created_at, updated_at`

func scanGameRow(scanner interface {
	Scan(dest ...interface{}) error
}) (*engine.Game, error) {
	var row gameRow
	err := scanner.Scan(
		&row.ID, &row.RoomID, &row.Status, &row.CurrentRound, &row.TotalRounds, &row.CurrentTurnUserID,
		&row.TurnOrder, &row.Board, &row.Players, &row.AvailableTiles, &row.DiscardedTiles,
		&row.LastAction, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return unmarshalGame(row)
}

// LoadGame fetches one game by its id.
func (s *SQLiteStore) LoadGame(id string) (*engine.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = ?`
	game, err := scanGameRow(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("game %s not found", id)
	}
	return game, err
}

// LoadGameByRoom fetches the game that originated from roomID.
func (s *SQLiteStore) LoadGameByRoom(roomID string) (*engine.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE room_id = ?`
	game, err := scanGameRow(s.db.QueryRow(query, roomID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no game for room %s", roomID)
	}
	return game, err
}

// SaveGame upserts the full game aggregate in one row.
func (s *SQLiteStore) SaveGame(game *engine.Game) error {
	row, err := marshalGame(game)
	if err != nil {
		return fmt.Errorf("encoding game %s: %w", game.ID, err)
	}
	return saveGameRow(s.db, row)
}

func saveGameRow(exec interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}, row gameRow) error {
	_, err := exec.Exec(`
		INSERT INTO games (`+gameColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			current_round = excluded.current_round,
			current_turn_user_id = excluded.current_turn_user_id,
			turn_order = excluded.turn_order,
			board = excluded.board,
			players = excluded.players,
			available_tiles = excluded.available_tiles,
			discarded_tiles = excluded.discarded_tiles,
			last_action = excluded.last_action,
			updated_at = excluded.updated_at`,
		row.ID, row.RoomID, row.Status, row.CurrentRound, row.TotalRounds, row.CurrentTurnUserID,
		row.TurnOrder, row.Board, row.Players, row.AvailableTiles, row.DiscardedTiles,
		row.LastAction, row.CreatedAt, row.UpdatedAt,
	)
	return err
}

// AppendAction inserts one immutable action-log row.
func (s *SQLiteStore) AppendAction(gameID string, record engine.ActionRecord) error {
	return appendActionRow(s.db, gameID, record)
}

func appendActionRow(exec interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}, gameID string, record engine.ActionRecord) error {
	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return fmt.Errorf("encoding action payload: %w", err)
	}
	_, err = exec.Exec(
		`INSERT INTO actions (id, game_id, actor_user_id, action_kind, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, gameID, record.ActorUserID, record.ActionKind, string(payload), record.Timestamp,
	)
	return err
}

// CommitAction persists game and record as a single transaction -- the
// atomicity guarantee engine.Store promises beyond SaveGame/AppendAction's
// individual calls.
func (s *SQLiteStore) CommitAction(game *engine.Game, record engine.ActionRecord) error {
	row, err := marshalGame(game)
	if err != nil {
		return fmt.Errorf("encoding game %s: %w", game.ID, err)
	}

	return s.db.WithTx(func(tx *sql.Tx) error {
		if err := saveGameRow(tx, row); err != nil {
			return fmt.Errorf("saving game: %w", err)
		}
		if err := appendActionRow(tx, game.ID, record); err != nil {
			return fmt.Errorf("appending action: %w", err)
		}
		return nil
	})
}
