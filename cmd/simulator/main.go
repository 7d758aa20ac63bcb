package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"hanyang/internal/actor"
	"hanyang/internal/ai"
	"hanyang/internal/blueprints"
	"hanyang/internal/engine"
	"hanyang/internal/tiles"
	"hanyang/models"
	"hanyang/pkg/logger"
)

var (
	difficulties = flag.String("difficulties", "easy,medium,hard,hard", "comma-separated AI difficulty per seat (2-4 seats)")
	gamePrefix   = flag.String("game-prefix", "sim", "prefix for generated game ids")
	logLevel     = flag.String("log-level", "info", "log level: debug, info, warn, error")
	showCaller   = flag.Bool("show-caller", false, "show caller information in logs")
	iterations   = flag.Int("iterations", 1, "number of games to simulate")
	concurrent   = flag.Bool("concurrent", false, "run games concurrently")
	reportStats  = flag.Bool("stats", true, "print a summary report at the end")
	maxAITurns   = flag.Int("max-ai-turns", 400, "upper bound on consecutive AI turns per game (runaway guard)")
	reportFile   = flag.String("report-file", "", "path to save the JSON report (default: logs/simulation_report_<timestamp>.json)")
)

// GameResult summarizes one completed all-AI simulation, run entirely
// in-process through the engine -- there is no human to observe it and no
// reason to round-trip through a websocket client to drive one.
type GameResult struct {
	GameID    string
	Duration  time.Duration
	Completed bool
	Error     error `json:"-"`
	ErrorText string
	Rounds    int
	Winner    int64
	Scores    map[int64]int
}

// SimulationStats aggregates results across every simulated game.
type SimulationStats struct {
	mu              sync.Mutex
	TotalGames      int
	CompletedGames  int
	FailedGames     int
	AverageDuration time.Duration
	WinsByPlayer    map[int64]int
	gameResults     []GameResult
}

func main() {
	flag.Parse()

	var level logger.LogLevel
	switch *logLevel {
	case "debug":
		level = logger.DEBUG
	case "warn":
		level = logger.WARN
	case "error":
		level = logger.ERROR
	default:
		level = logger.INFO
	}
	logger.InitLoggers(level, *showCaller)

	seats := parseDifficulties(*difficulties)
	if len(seats) < 2 || len(seats) > 4 {
		fmt.Println("difficulties must list between 2 and 4 seats")
		os.Exit(1)
	}

	logger.ServerLogger.Info("starting Hanyang AI simulation")
	logger.ServerLogger.Info("seats: %v, iterations: %d, concurrent: %v", seats, *iterations, *concurrent)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.ServerLogger.Info("shutting down simulation...")
		os.Exit(0)
	}()

	stats := &SimulationStats{WinsByPlayer: make(map[int64]int)}

	if *concurrent {
		runConcurrentSimulations(seats, stats)
	} else {
		runSequentialSimulations(seats, stats)
	}

	if *reportStats {
		generateReport(stats)
	}

	logger.ServerLogger.Info("simulation completed")
}

func runSequentialSimulations(seats []actor.Difficulty, stats *SimulationStats) {
	for i := 0; i < *iterations; i++ {
		logger.ServerLogger.Info("starting game %d/%d", i+1, *iterations)

		result := runSingleGame(fmt.Sprintf("%s_%d", *gamePrefix, i+1), seats)
		updateStats(stats, result)

		if !result.Completed {
			logger.ServerLogger.Error("game %d failed: %v", i+1, result.Error)
		} else {
			logger.ServerLogger.Info("game %d completed in %v over %d rounds, winner user_id=%d", i+1, result.Duration, result.Rounds, result.Winner)
		}
	}
}

func runConcurrentSimulations(seats []actor.Difficulty, stats *SimulationStats) {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 4) // limit concurrent games

	for i := 0; i < *iterations; i++ {
		wg.Add(1)
		go func(gameNum int) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			logger.ServerLogger.Info("starting concurrent game %d/%d", gameNum+1, *iterations)

			result := runSingleGame(fmt.Sprintf("%s_concurrent_%d", *gamePrefix, gameNum+1), seats)
			updateStats(stats, result)

			if !result.Completed {
				logger.ServerLogger.Error("game %d failed: %v", gameNum+1, result.Error)
			} else {
				logger.ServerLogger.Info("game %d completed in %v over %d rounds, winner user_id=%d", gameNum+1, result.Duration, result.Rounds, result.Winner)
			}
		}(i)
	}
	wg.Wait()
}

// runSingleGame builds an all-AI room and drives it to completion through
// internal/ai.RunAutoPlay -- the same engine.Submit entry point a human
// action would use, just called back to back by a decision engine instead
// of arriving over a websocket.
func runSingleGame(gameID string, seats []actor.Difficulty) GameResult {
	start := time.Now()

	store := newMemoryStore()
	eng := engine.New(tiles.Catalog, blueprints.Catalog, store, nil, engine.Config{MaxAITurns: *maxAITurns})

	participants := make([]models.Participant, len(seats))
	for i, d := range seats {
		participants[i] = models.Participant{
			UserID:       int64(-(i + 1)),
			Username:     fmt.Sprintf("%s-bot-%d", d, i+1),
			IsAI:         true,
			AIDifficulty: d,
		}
	}

	game, err := eng.Create(models.Room{ID: gameID, Participants: participants}, time.Now().UnixNano())
	if err != nil {
		return GameResult{GameID: gameID, Duration: time.Since(start), Error: err, ErrorText: err.Error()}
	}
	if err := store.SaveGame(game); err != nil {
		return GameResult{GameID: gameID, Duration: time.Since(start), Error: err, ErrorText: err.Error()}
	}

	final, err := ai.RunAutoPlay(eng, game.ID, *maxAITurns)
	if err != nil {
		return GameResult{GameID: gameID, Duration: time.Since(start), Error: err, ErrorText: err.Error()}
	}
	if final.Status != engine.StatusFinished {
		err := fmt.Errorf("game did not finish within %d AI turns", *maxAITurns)
		return GameResult{GameID: gameID, Duration: time.Since(start), Error: err, ErrorText: err.Error()}
	}

	scores := make(map[int64]int, len(final.Players))
	var winner int64
	best := -1
	for _, p := range final.Players {
		scores[p.UserID] = p.Score
		if p.Score > best {
			best = p.Score
			winner = p.UserID
		}
	}

	return GameResult{
		GameID:    gameID,
		Duration:  time.Since(start),
		Completed: true,
		Rounds:    final.CurrentRound,
		Winner:    winner,
		Scores:    scores,
	}
}

func parseDifficulties(raw string) []actor.Difficulty {
	var out []actor.Difficulty
	for _, s := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(s)
		if trimmed != "" {
			out = append(out, actor.Difficulty(trimmed))
		}
	}
	return out
}

func updateStats(stats *SimulationStats, result GameResult) {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	stats.TotalGames++
	stats.gameResults = append(stats.gameResults, result)

	if result.Completed {
		stats.CompletedGames++
		if stats.AverageDuration == 0 {
			stats.AverageDuration = result.Duration
		} else {
			stats.AverageDuration = (stats.AverageDuration + result.Duration) / 2
		}
		stats.WinsByPlayer[result.Winner]++
	} else {
		stats.FailedGames++
	}
}

func generateReport(stats *SimulationStats) {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	fmt.Println("\n=== Hanyang Simulation Report ===")
	fmt.Printf("Total games:     %d\n", stats.TotalGames)
	fmt.Printf("Completed:       %d\n", stats.CompletedGames)
	fmt.Printf("Failed:          %d\n", stats.FailedGames)
	fmt.Printf("Average duration: %v\n", stats.AverageDuration)
	fmt.Println("Wins by seat:")
	for userID, wins := range stats.WinsByPlayer {
		fmt.Printf("  user_id=%d: %d wins\n", userID, wins)
	}
	if stats.TotalGames > 0 && stats.CompletedGames*100/stats.TotalGames < 90 {
		fmt.Println("insight: completion rate below 90%, check max-ai-turns or AI stall behavior")
	}

	path := *reportFile
	if path == "" {
		path = filepath.Join("logs", fmt.Sprintf("simulation_report_%s.json", time.Now().Format("20060102_150405")))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logger.ServerLogger.Warn("could not create report directory: %v", err)
		return
	}
	data, err := json.MarshalIndent(stats.gameResults, "", "  ")
	if err != nil {
		logger.ServerLogger.Warn("could not encode report: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		logger.ServerLogger.Warn("could not write report to %s: %v", path, err)
	}
}
