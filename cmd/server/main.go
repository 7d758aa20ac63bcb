package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"hanyang/internal/blueprints"
	"hanyang/internal/database"
	"hanyang/internal/engine"
	"hanyang/internal/identity"
	"hanyang/internal/network"
	"hanyang/internal/tiles"
	"hanyang/pkg/config"
	"hanyang/pkg/logger"
)

var (
	addr       = flag.String("addr", "", "http service address (overrides config)")
	configFile = flag.String("config", "config.yml", "path to config file")
	logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, error")
	showCaller = flag.Bool("show-caller", false, "show caller information in logs")
	dataDir    = flag.String("data-dir", "./data", "directory for data files")
	tokenFile  = flag.String("token-file", "", "optional dev bearer-token table (token=user_id per line)")
)

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

	logBroadcaster := network.NewLogBroadcaster(1000)
	logger.InitLoggers(level, *showCaller)
	logger.InitStreamingLoggers(logBroadcaster, level, *showCaller)
	serverLogger := logger.ServerLogger

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		serverLogger.Warn("could not load config file %s: %v", *configFile, err)
		serverLogger.Info("using default configuration")
		cfg = &config.Config{
			Server:    config.ServerConfig{Host: "0.0.0.0", Port: 8080, Environment: "development"},
			Broadcast: config.BroadcastConfig{MaxConnectionsPerGame: 8, ReadTimeout: 30 * time.Second, WriteTimeout: 10 * time.Second, PingInterval: 25 * time.Second, MaxMessageSize: 8192},
			Engine:    config.EngineConfig{MinPlayersPerGame: 2, MaxPlayersPerGame: 4, TurnTimeout: 5 * time.Minute, MaxAITurns: 50},
			Database:  config.DatabaseConfig{Type: "sqlite3", ConnectionString: *dataDir, MaxConnections: 25, MaxIdleConnections: 10},
			Logging:   config.LoggingConfig{Level: *logLevel},
		}
	} else {
		serverLogger.Info("loaded configuration from %s", *configFile)
	}

	serverAddr := cfg.GetAddr()
	if *addr != "" {
		serverAddr = *addr
	}
	serverLogger.Info("starting Hanyang game server on %s (%s)", serverAddr, cfg.Server.Environment)

	dbConfig := database.DefaultConfig(*dataDir)
	db, err := database.NewConnection(dbConfig)
	if err != nil {
		serverLogger.Fatal("failed to initialize database: %v", err)
	}
	defer db.Close()
	store := database.NewSQLiteStore(db)

	pool := database.NewConnectionPool(db.DB, database.DefaultPoolConfig())
	defer pool.Close()

	optimizer := database.NewOptimizer(db.DB, pool, database.DefaultOptimizerConfig())
	optimizer.Start()
	defer optimizer.Stop()

	backups := database.NewBackupManager(db, database.DefaultBackupConfig(*dataDir))
	backups.Start()
	defer backups.Stop()

	resolver := loadIdentityResolver(*tokenFile)

	hub := network.NewHub(nil, cfg.Broadcast.PingInterval, cfg.Broadcast.MaxConnectionsPerGame)
	eng := engine.New(tiles.Catalog, blueprints.Catalog, store, hub, engine.Config{
		RecallWorkersEachRound: cfg.Engine.RecallWorkersEachRound,
		MaxAITurns:             cfg.Engine.MaxAITurns,
	})
	hub.Engine = eng

	wsHandler := network.NewHandler(hub, resolver)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", healthHandler(pool)).Methods(http.MethodGet)
	router.HandleFunc("/ws", wsHandler.ServeWS)
	router.HandleFunc("/logs", func(w http.ResponseWriter, r *http.Request) {
		clientID := r.URL.Query().Get("client_id")
		if clientID == "" {
			clientID = fmt.Sprintf("log-%d", time.Now().UnixNano())
		}
		if err := logBroadcaster.ServeLogStream(w, r, clientID); err != nil {
			serverLogger.Warn("log stream upgrade failed: %v", err)
		}
	})

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  cfg.Broadcast.ReadTimeout,
		WriteTimeout: cfg.Broadcast.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		serverLogger.Info("server listening on %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverLogger.Fatal("server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	serverLogger.Info("received shutdown signal: %v", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	serverLogger.Info("shutting down server...")
	if err := srv.Shutdown(ctx); err != nil {
		serverLogger.Warn("server forced to shutdown: %v", err)
	}
	serverLogger.Info("server gracefully stopped")
}

func healthHandler(pool *database.ConnectionPool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := pool.Health(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
		stats := pool.GetStats()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":             "healthy",
			"active_connections": stats.ActiveConnections,
			"idle_connections":   stats.IdleConnections,
			"query_count":        stats.QueryCount,
		})
	}
}

// loadIdentityResolver builds the bearer-token resolver. A real deployment
// points this at an external identity service; absent that collaborator,
// tokenFile (if given) seeds a StaticResolver for development and
// integration testing.
func loadIdentityResolver(tokenFile string) identity.Resolver {
	resolver := make(identity.StaticResolver)
	if tokenFile == "" {
		return resolver
	}

	data, err := os.ReadFile(tokenFile)
	if err != nil {
		logger.ServerLogger.Warn("could not read token file %s: %v", tokenFile, err)
		return resolver
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		token, rest, ok := strings.Cut(line, "=")
		if !ok || token == "" {
			continue
		}
		userID, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
		if err != nil {
			continue
		}
		resolver[token] = userID
	}
	return resolver
}
