package network

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hanyang/pkg/logger"
)

// LogLevel mirrors pkg/logger.LogLevel as the string form that travels
// over the wire to a log-streaming client.
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
	LogLevelFatal LogLevel = "FATAL"
)

var logLevelOrder = []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelFatal}

// LogEntry is one streamed log line, shaped to match the map StreamingLogger
// builds in streamLog.
type LogEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Level     LogLevel          `json:"level"`
	Component string            `json:"component"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	PlayerID  string            `json:"player_id,omitempty"`
	GameID    string            `json:"game_id,omitempty"`
	CallSite  string            `json:"call_site,omitempty"`
}

// LogFilter narrows which entries a given log-streaming client receives.
type LogFilter struct {
	MinLevel   LogLevel `json:"min_level"`
	Components []string `json:"components,omitempty"`
	SessionID  string   `json:"session_id,omitempty"`
	PlayerID   string   `json:"player_id,omitempty"`
	GameID     string   `json:"game_id,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
}

// LogClient is one websocket subscriber to the log stream.
type LogClient struct {
	conn     *websocket.Conn
	filter   LogFilter
	buffer   chan LogEntry
	done     chan struct{}
	clientID string
}

// LogBroadcaster fans log entries out to subscribed clients over a bounded
// ring buffer, and implements pkg/logger.LogBroadcaster so every
// StreamingLogger in the process can feed it directly.
type LogBroadcaster struct {
	clients   map[string]*LogClient
	clientsMu sync.RWMutex

	logBuffer []LogEntry
	bufferMu  sync.RWMutex
	maxBuffer int

	upgrader websocket.Upgrader
	logger   *logger.ColoredLogger
}

// NewLogBroadcaster builds a LogBroadcaster retaining at most maxBuffer
// historical entries for clients that connect after the fact.
func NewLogBroadcaster(maxBuffer int) *LogBroadcaster {
	return &LogBroadcaster{
		clients:   make(map[string]*LogClient),
		logBuffer: make([]LogEntry, 0, maxBuffer),
		maxBuffer: maxBuffer,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.NewColoredLogger("LOG_STREAM", logger.ColorBrightCyan),
	}
}

// AddLogEntry implements logger.LogBroadcaster. StreamingLogger always
// hands it a map[string]interface{} built by streamLog; a bare LogEntry or
// anything else is accepted too so the broadcaster is never the reason a
// caller can't push an entry.
func (lb *LogBroadcaster) AddLogEntry(entryData interface{}) {
	var entry LogEntry

	switch v := entryData.(type) {
	case map[string]interface{}:
		entry.Timestamp, _ = v["timestamp"].(time.Time)
		if level, ok := v["level"].(string); ok {
			entry.Level = LogLevel(level)
		}
		entry.Component, _ = v["component"].(string)
		entry.Message, _ = v["message"].(string)
		entry.SessionID, _ = v["session_id"].(string)
		entry.PlayerID, _ = v["player_id"].(string)
		entry.GameID, _ = v["game_id"].(string)
		entry.CallSite, _ = v["call_site"].(string)
		if metadata, ok := v["metadata"].(map[string]string); ok {
			entry.Metadata = metadata
		}
	case LogEntry:
		entry = v
	default:
		entry = LogEntry{Timestamp: time.Now(), Level: LogLevelInfo, Component: "UNKNOWN", Message: fmt.Sprintf("%v", entryData)}
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	lb.bufferMu.Lock()
	lb.logBuffer = append(lb.logBuffer, entry)
	if len(lb.logBuffer) > lb.maxBuffer {
		lb.logBuffer = lb.logBuffer[len(lb.logBuffer)-lb.maxBuffer:]
	}
	lb.bufferMu.Unlock()

	lb.broadcastToClients(entry)
}

// AddClient registers conn as a log subscriber and starts its pumps.
func (lb *LogBroadcaster) AddClient(conn *websocket.Conn, clientID string, filter LogFilter) {
	client := &LogClient{
		conn:     conn,
		filter:   filter,
		buffer:   make(chan LogEntry, 100),
		done:     make(chan struct{}),
		clientID: clientID,
	}

	lb.clientsMu.Lock()
	lb.clients[clientID] = client
	lb.clientsMu.Unlock()

	lb.logger.Info("log client connected: %s", clientID)

	go lb.sendHistoricalLogs(client)
	go lb.handleClient(client)
}

// RemoveClient tears down clientID's connection and stops its pumps.
func (lb *LogBroadcaster) RemoveClient(clientID string) {
	lb.clientsMu.Lock()
	defer lb.clientsMu.Unlock()

	if client, ok := lb.clients[clientID]; ok {
		close(client.done)
		client.conn.Close()
		delete(lb.clients, clientID)
		lb.logger.Info("log client disconnected: %s", clientID)
	}
}

// GetHistoricalLogs returns up to limit buffered entries matching filter,
// most recent last.
func (lb *LogBroadcaster) GetHistoricalLogs(filter LogFilter, limit int) []LogEntry {
	lb.bufferMu.RLock()
	defer lb.bufferMu.RUnlock()

	var filtered []LogEntry
	for i := len(lb.logBuffer) - 1; i >= 0 && len(filtered) < limit; i-- {
		entry := lb.logBuffer[i]
		if lb.matchesFilter(entry, filter) {
			filtered = append([]LogEntry{entry}, filtered...)
		}
	}
	return filtered
}

func (lb *LogBroadcaster) broadcastToClients(entry LogEntry) {
	lb.clientsMu.RLock()
	defer lb.clientsMu.RUnlock()

	for _, client := range lb.clients {
		if !lb.matchesFilter(entry, client.filter) {
			continue
		}
		select {
		case client.buffer <- entry:
		default:
			lb.logger.Warn("log buffer full for client: %s", client.clientID)
		}
	}
}

func (lb *LogBroadcaster) sendHistoricalLogs(client *LogClient) {
	for _, entry := range lb.GetHistoricalLogs(client.filter, 100) {
		select {
		case client.buffer <- entry:
		case <-client.done:
			return
		}
	}
}

func (lb *LogBroadcaster) handleClient(client *LogClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case entry := <-client.buffer:
			if err := client.conn.WriteJSON(entry); err != nil {
				lb.RemoveClient(client.clientID)
				return
			}
		case <-ticker.C:
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				lb.RemoveClient(client.clientID)
				return
			}
		case <-client.done:
			return
		}
	}
}

func (lb *LogBroadcaster) matchesFilter(entry LogEntry, filter LogFilter) bool {
	if !lb.levelMatches(entry.Level, filter.MinLevel) {
		return false
	}
	if len(filter.Components) > 0 {
		found := false
		for _, c := range filter.Components {
			if c == entry.Component {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.SessionID != "" && filter.SessionID != entry.SessionID {
		return false
	}
	if filter.PlayerID != "" && filter.PlayerID != entry.PlayerID {
		return false
	}
	if filter.GameID != "" && filter.GameID != entry.GameID {
		return false
	}
	if len(filter.Keywords) > 0 {
		found := false
		for _, k := range filter.Keywords {
			if strings.Contains(entry.Message, k) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (lb *LogBroadcaster) levelMatches(entryLevel, minLevel LogLevel) bool {
	entryIdx, minIdx := -1, -1
	for i, level := range logLevelOrder {
		if level == entryLevel {
			entryIdx = i
		}
		if level == minLevel {
			minIdx = i
		}
	}
	return entryIdx >= minIdx
}

// GetClientCount returns the number of connected log-stream clients.
func (lb *LogBroadcaster) GetClientCount() int {
	lb.clientsMu.RLock()
	defer lb.clientsMu.RUnlock()
	return len(lb.clients)
}

// GetStats reports broadcaster occupancy for the admin surface.
func (lb *LogBroadcaster) GetStats() map[string]interface{} {
	lb.clientsMu.RLock()
	clientCount := len(lb.clients)
	lb.clientsMu.RUnlock()

	lb.bufferMu.RLock()
	bufferSize := len(lb.logBuffer)
	lb.bufferMu.RUnlock()

	return map[string]interface{}{
		"connected_clients": clientCount,
		"buffer_size":       bufferSize,
		"max_buffer":        lb.maxBuffer,
	}
}

// ServeLogStream upgrades r into a log-streaming websocket client keyed by
// clientID, applying an optional minimum level filter from the query string.
func (lb *LogBroadcaster) ServeLogStream(w http.ResponseWriter, r *http.Request, clientID string) error {
	conn, err := lb.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	filter := LogFilter{MinLevel: LogLevelInfo}
	if level := r.URL.Query().Get("level"); level != "" {
		filter.MinLevel = LogLevel(strings.ToUpper(level))
	}
	lb.AddClient(conn, clientID, filter)
	return nil
}
