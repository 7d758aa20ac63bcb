package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"hanyang/pkg/logger"
)

// Optimizer runs periodic SQLite maintenance (VACUUM, ANALYZE, WAL
// checkpoints) against the game store and exposes EXPLAIN QUERY PLAN
// introspection for the repository's hot paths (LoadGame, SaveGame).
type Optimizer struct {
	db     *sql.DB
	pool   *ConnectionPool
	config *OptimizerConfig
	logger *logger.ColoredLogger

	running    bool
	stopChan   chan struct{}
	runningMux sync.RWMutex

	stats *OptimizationStats
}

// OptimizerConfig controls the optimizer's maintenance cadence.
type OptimizerConfig struct {
	AutoOptimize     bool
	OptimizeInterval time.Duration
	VacuumInterval   time.Duration
	AnalyzeInterval  time.Duration

	WALCheckpointInterval time.Duration
	AutoWALCheckpoint     bool
}

// OptimizationStats tracks maintenance history.
type OptimizationStats struct {
	VacuumCount    int64
	LastVacuum     time.Time
	VacuumDuration time.Duration

	AnalyzeCount    int64
	LastAnalyze     time.Time
	AnalyzeDuration time.Duration

	WALCheckpointCount int64
	LastWALCheckpoint  time.Time

	QueryPlansAnalyzed int64

	StartTime          time.Time
	TotalOptimizations int64
	OptimizationErrors int64
}

// QueryPlan is the parsed result of an EXPLAIN QUERY PLAN call.
type QueryPlan struct {
	Query       string
	Plan        string
	Optimizable bool
	Suggestions []string
}

// DefaultOptimizerConfig returns the maintenance cadence used by cmd/server.
func DefaultOptimizerConfig() *OptimizerConfig {
	return &OptimizerConfig{
		AutoOptimize:     true,
		OptimizeInterval: 1 * time.Hour,
		VacuumInterval:   6 * time.Hour,
		AnalyzeInterval:  2 * time.Hour,

		WALCheckpointInterval: 15 * time.Minute,
		AutoWALCheckpoint:     true,
	}
}

// NewOptimizer wires maintenance routines to a pooled connection.
func NewOptimizer(db *sql.DB, pool *ConnectionPool, config *OptimizerConfig) *Optimizer {
	return &Optimizer{
		db:     db,
		pool:   pool,
		config: config,
		logger: logger.NewColoredLogger("Optimizer", logger.ColorBrightYellow),
		stats: &OptimizationStats{
			StartTime: time.Now(),
		},
		stopChan: make(chan struct{}),
	}
}

// Start begins the background optimization and WAL checkpoint loops.
func (o *Optimizer) Start() {
	o.runningMux.Lock()
	defer o.runningMux.Unlock()
	if o.running {
		return
	}
	o.running = true
	o.logger.Info("starting database optimizer")

	if o.config.AutoOptimize {
		go o.optimizationLoop()
	}
	if o.config.AutoWALCheckpoint {
		go o.walCheckpointLoop()
	}
}

// Stop halts the background loops.
func (o *Optimizer) Stop() {
	o.runningMux.Lock()
	defer o.runningMux.Unlock()
	if !o.running {
		return
	}
	o.running = false
	close(o.stopChan)
	o.logger.Info("database optimizer stopped")
}

// OptimizeNow runs the full maintenance pass immediately.
func (o *Optimizer) OptimizeNow() error {
	o.logger.Info("starting manual database optimization")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	var errs []error
	if err := o.pragmaOptimize(ctx); err != nil {
		errs = append(errs, fmt.Errorf("pragma optimize: %w", err))
	}
	if err := o.vacuum(ctx); err != nil {
		errs = append(errs, fmt.Errorf("vacuum: %w", err))
	}
	if err := o.analyze(ctx); err != nil {
		errs = append(errs, fmt.Errorf("analyze: %w", err))
	}
	if err := o.walCheckpoint(ctx); err != nil {
		errs = append(errs, fmt.Errorf("wal checkpoint: %w", err))
	}

	o.stats.TotalOptimizations++
	if len(errs) > 0 {
		o.stats.OptimizationErrors++
		return fmt.Errorf("optimization completed with errors: %v", errs)
	}
	o.logger.Info("database optimization completed")
	return nil
}

// VacuumDatabase reclaims free pages left by deleted finished games.
func (o *Optimizer) VacuumDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	return o.vacuum(ctx)
}

// AnalyzeDatabase refreshes the query planner's table statistics.
func (o *Optimizer) AnalyzeDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	return o.analyze(ctx)
}

// GetQueryPlan runs EXPLAIN QUERY PLAN and flags plans that scan instead of
// seek, which for the games/actions tables means a missing or unused index.
func (o *Optimizer) GetQueryPlan(query string, args ...interface{}) (*QueryPlan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := o.pool.QueryContext(ctx, "EXPLAIN QUERY PLAN "+query, args...)
	if err != nil {
		return nil, fmt.Errorf("get query plan: %w", err)
	}
	defer rows.Close()

	var planLines []string
	for rows.Next() {
		var id, parent, notused int
		var detail string
		if err := rows.Scan(&id, &parent, &notused, &detail); err != nil {
			return nil, fmt.Errorf("scan query plan: %w", err)
		}
		planLines = append(planLines, detail)
	}

	plan := &QueryPlan{Query: query, Plan: strings.Join(planLines, "\n")}
	o.analyzeQueryPlan(plan)
	o.stats.QueryPlansAnalyzed++
	return plan, nil
}

// GetStats returns a snapshot of maintenance history.
func (o *Optimizer) GetStats() *OptimizationStats {
	statsCopy := *o.stats
	return &statsCopy
}

func (o *Optimizer) optimizationLoop() {
	ticker := time.NewTicker(o.config.OptimizeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := o.OptimizeNow(); err != nil {
				o.logger.Error("automatic optimization failed: %v", err)
			}
		case <-o.stopChan:
			return
		}
	}
}

func (o *Optimizer) walCheckpointLoop() {
	ticker := time.NewTicker(o.config.WALCheckpointInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if err := o.walCheckpoint(ctx); err != nil {
				o.logger.Error("wal checkpoint failed: %v", err)
			}
			cancel()
		case <-o.stopChan:
			return
		}
	}
}

func (o *Optimizer) pragmaOptimize(ctx context.Context) error {
	_, err := o.pool.ExecContext(ctx, "PRAGMA optimize")
	return err
}

func (o *Optimizer) vacuum(ctx context.Context) error {
	start := time.Now()
	if _, err := o.pool.ExecContext(ctx, "VACUUM"); err != nil {
		return err
	}
	o.stats.VacuumCount++
	o.stats.LastVacuum = time.Now()
	o.stats.VacuumDuration = time.Since(start)
	return nil
}

func (o *Optimizer) analyze(ctx context.Context) error {
	start := time.Now()
	if _, err := o.pool.ExecContext(ctx, "ANALYZE"); err != nil {
		return err
	}
	o.stats.AnalyzeCount++
	o.stats.LastAnalyze = time.Now()
	o.stats.AnalyzeDuration = time.Since(start)
	return nil
}

func (o *Optimizer) walCheckpoint(ctx context.Context) error {
	if _, err := o.pool.ExecContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)"); err != nil {
		return err
	}
	o.stats.WALCheckpointCount++
	o.stats.LastWALCheckpoint = time.Now()
	return nil
}

func (o *Optimizer) analyzeQueryPlan(plan *QueryPlan) {
	lower := strings.ToLower(plan.Plan)
	if strings.Contains(lower, "scan") && !strings.Contains(lower, "scan using index") {
		plan.Optimizable = true
		plan.Suggestions = append(plan.Suggestions, "query performs a table scan; consider an index on the filtered column")
	}
}
