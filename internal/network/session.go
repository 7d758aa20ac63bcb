// Package network is the broadcast fabric: one websocket Session per
// connected observer, grouped into per-game Rooms, fanning engine.Submit
// results back out to every session watching that game. It implements
// engine.Broadcaster without the engine package ever importing this one.
package network

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"hanyang/internal/engine"
	"hanyang/pkg/protocol"
)

// Session represents one connected observer of a single game.
type Session struct {
	ID          string
	GameID      string
	UserID      int64
	ConnectedAt time.Time
	LastActive  time.Time

	conn      *websocket.Conn
	sendQueue chan []byte
	mutex     sync.Mutex
}

// NewSession wraps an accepted websocket connection, registers it with hub
// under gameID/userID, and starts its read/write pumps. Returns nil if
// hub's room for gameID is already at its connection cap; the caller owns
// closing conn in that case.
func NewSession(conn *websocket.Conn, hub *Hub, gameID string, userID int64) *Session {
	s := &Session{
		ID:          uuid.New().String(),
		GameID:      gameID,
		UserID:      userID,
		ConnectedAt: time.Now(),
		LastActive:  time.Now(),
		conn:        conn,
		sendQueue:   make(chan []byte, 100),
	}

	if !hub.Register(gameID, s) {
		return nil
	}
	go s.writePump()
	go s.readPump(hub)

	return s
}

// Close tears down the session's connection and send queue. Safe to call
// more than once.
func (s *Session) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
		close(s.sendQueue)
	}
}

// SendEnvelope marshals and queues an envelope for delivery. Returns false
// if the session's outbound queue is full or already closed. The closed
// check and the enqueue happen under the same mutex Close holds while
// closing the queue, so a send can never race onto a closed channel.
func (s *Session) SendEnvelope(env protocol.Envelope) bool {
	data, err := json.Marshal(env)
	if err != nil {
		return false
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.conn == nil {
		return false
	}

	select {
	case s.sendQueue <- data:
		return true
	default:
		return false
	}
}

func (s *Session) sendError(message string) {
	env, err := protocol.NewEnvelope(string(protocol.EventError), protocol.ErrorResponse{
		ErrorKind: string(engine.Malformed),
		Message:   message,
	})
	if err != nil {
		return
	}
	s.SendEnvelope(env)
}

// readPump reads client frames off the websocket, dispatching ping/action
// messages through hub's engine. A malformed frame never closes the
// connection -- it gets an error event back and the session stays open.
func (s *Session) readPump(hub *Hub) {
	defer func() {
		hub.Deregister(s.GameID, s)
		s.Close()
	}()

	s.conn.SetReadLimit(32 * 1024)
	s.conn.SetReadDeadline(time.Now().Add(hub.PingInterval * 2))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(hub.PingInterval * 2))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.LastActive = time.Now()

		var env protocol.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.sendError("could not parse message envelope")
			continue
		}

		switch env.Type {
		case string(protocol.ClientPing):
			pong, _ := protocol.NewEnvelope(string(protocol.EventPong), nil)
			s.SendEnvelope(pong)
		case string(protocol.ClientAction):
			s.handleAction(hub, env)
		default:
			s.sendError("unrecognized message type")
		}
	}
}

func (s *Session) handleAction(hub *Hub, env protocol.Envelope) {
	var req protocol.ActionRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		s.sendError("could not parse action request")
		return
	}

	action, err := decodeAction(req)
	if err != nil {
		s.sendError(err.Error())
		return
	}

	game, result, err := hub.Engine.Submit(s.GameID, s.UserID, action, time.Time{})
	if err != nil {
		if engErr, ok := err.(*engine.Error); ok {
			errResp, _ := protocol.NewEnvelope(string(protocol.EventError), protocol.ErrorResponse{
				ErrorKind: string(engErr.Kind),
				Message:   engErr.Message,
			})
			s.SendEnvelope(errResp)
			return
		}
		s.sendError(err.Error())
		return
	}

	resp, _ := protocol.NewEnvelope(string(protocol.EventActionResult), protocol.ActionResponse{
		Success:      true,
		ActionResult: result,
	})
	s.SendEnvelope(resp)

	if next, ok := game.PlayerByUserID(game.CurrentTurnUserID); ok && next.IsAI && game.Status == engine.StatusInProgress {
		hub.scheduleAIPlay(s.GameID)
	}
}

func decodeAction(req protocol.ActionRequest) (engine.Action, error) {
	switch req.ActionKind {
	case protocol.ActionSelectBlueprint:
		var p protocol.SelectBlueprintPayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return engine.Action{}, err
		}
		return engine.Action{Kind: engine.ActionSelectBlueprint, BlueprintID: p.BlueprintID}, nil
	case protocol.ActionPlaceTile:
		var p protocol.PlaceTilePayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return engine.Action{}, err
		}
		return engine.Action{Kind: engine.ActionPlaceTile, TileID: p.TileID, Row: p.Position.Row, Col: p.Position.Col}, nil
	case protocol.ActionPlaceWorker:
		var p protocol.PlaceWorkerPayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return engine.Action{}, err
		}
		return engine.Action{
			Kind:       engine.ActionPlaceWorker,
			Row:        p.TargetPosition.Row,
			Col:        p.TargetPosition.Col,
			WorkerKind: workerKindFromString(p.WorkerKind),
			SlotIndex:  p.SlotIndex,
		}, nil
	case protocol.ActionEndTurn:
		return engine.Action{Kind: engine.ActionEndTurn}, nil
	default:
		return engine.Action{}, errUnknownActionKind(req.ActionKind)
	}
}

// writePump drains the session's outbound queue to the websocket connection
// and sends periodic pings to keep the connection alive through proxies.
func (s *Session) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case message, ok := <-s.sendQueue:
			s.mutex.Lock()
			conn := s.conn
			s.mutex.Unlock()
			if conn == nil {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			s.mutex.Lock()
			conn := s.conn
			s.mutex.Unlock()
			if conn == nil {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
