package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"hanyang/pkg/logger"
)

// ConnectionPool wraps a *sql.DB with retrying queries, slow-query logging,
// and a background health checker. The engine's per-room lock already
// serializes mutation of any single game, so this pool's job is purely
// operational: keep the SQLite handle healthy under concurrent games and
// surface query-latency signal.
type ConnectionPool struct {
	db     *sql.DB
	config *PoolConfig
	logger *logger.ColoredLogger

	stats     *PoolStats
	statsLock sync.RWMutex

	healthChecker *HealthChecker
	stopChan      chan struct{}
	stopped       int32
}

// PoolConfig holds connection pool tuning knobs.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	QueryTimeout        time.Duration
	TransactionTimeout  time.Duration
	HealthCheckInterval time.Duration
	SlowQueryThreshold  time.Duration

	MaxRetries int
	RetryDelay time.Duration

	EnableMetrics      bool
	MetricsInterval    time.Duration
	LogSlowQueries     bool
	LogConnectionStats bool
}

// PoolStats tracks connection pool statistics.
type PoolStats struct {
	TotalConnections  int64
	ActiveConnections int64
	IdleConnections   int64
	WaitCount         int64
	WaitDuration      time.Duration

	QueryCount       int64
	SlowQueryCount   int64
	ErrorCount       int64
	AvgQueryDuration time.Duration

	TransactionCount       int64
	TransactionErrors      int64
	AvgTransactionDuration time.Duration

	HealthCheckCount  int64
	HealthCheckErrors int64
	LastHealthCheck   time.Time

	StartTime       time.Time
	LastStatsUpdate time.Time
}

// HealthChecker periodically pings the pool's database.
type HealthChecker struct {
	pool     *ConnectionPool
	logger   *logger.ColoredLogger
	interval time.Duration
	stopChan chan struct{}
}

// DefaultPoolConfig returns the pool configuration used by cmd/server.
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 3 * time.Minute,

		QueryTimeout:        30 * time.Second,
		TransactionTimeout:  60 * time.Second,
		HealthCheckInterval: 30 * time.Second,
		SlowQueryThreshold:  1 * time.Second,

		MaxRetries: 3,
		RetryDelay: 100 * time.Millisecond,

		EnableMetrics:      true,
		MetricsInterval:    1 * time.Minute,
		LogSlowQueries:     true,
		LogConnectionStats: true,
	}
}

// NewConnectionPool wraps an open *sql.DB with health checking and retries.
func NewConnectionPool(db *sql.DB, config *PoolConfig) *ConnectionPool {
	pool := &ConnectionPool{
		db:     db,
		config: config,
		logger: logger.NewColoredLogger("Pool", logger.ColorBrightBlue),
		stats: &PoolStats{
			StartTime: time.Now(),
		},
		stopChan: make(chan struct{}),
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if config.HealthCheckInterval > 0 {
		pool.healthChecker = &HealthChecker{
			pool:     pool,
			logger:   logger.NewColoredLogger("Health", logger.ColorGreen),
			interval: config.HealthCheckInterval,
			stopChan: make(chan struct{}),
		}
		go pool.healthChecker.start()
	}

	if config.EnableMetrics && config.MetricsInterval > 0 {
		go pool.startMetricsCollector()
	}

	pool.logger.Info("Database connection pool initialized with %d max connections", config.MaxOpenConns)
	return pool
}

// QueryContext executes a query with a timeout, retry, and stats tracking.
func (p *ConnectionPool) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if p.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := p.executeWithRetry(ctx, func() (*sql.Rows, error) {
		return p.db.QueryContext(ctx, query, args...)
	})
	p.updateQueryStats(query, time.Since(start), err)
	return rows, err
}

// QueryRowContext executes a query that returns a single row.
func (p *ConnectionPool) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if p.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	row := p.db.QueryRowContext(ctx, query, args...)
	p.updateQueryStats(query, time.Since(start), nil)
	return row
}

// ExecContext executes a statement with a timeout, retry, and stats tracking.
func (p *ConnectionPool) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if p.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := p.executeExecWithRetry(ctx, func() (sql.Result, error) {
		return p.db.ExecContext(ctx, query, args...)
	})
	p.updateQueryStats(query, time.Since(start), err)
	return result, err
}

// WithTransaction runs fn inside a transaction, rolling back on error or panic.
// The repository's CommitAction does not go through the pool; it uses DB.WithTx.
func (p *ConnectionPool) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	if p.config.TransactionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.TransactionTimeout)
		defer cancel()
	}

	start := time.Now()
	tx, err := p.db.BeginTx(ctx, nil)
	atomic.AddInt64(&p.stats.TransactionCount, 1)
	if err != nil {
		atomic.AddInt64(&p.stats.TransactionErrors, 1)
		return fmt.Errorf("begin transaction: %w", err)
	}
	p.updateTransactionStats(time.Since(start))

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			p.logger.Error("rollback failed: %v", rbErr)
		}
		return err
	}

	return tx.Commit()
}

// GetStats returns a snapshot of current pool statistics.
func (p *ConnectionPool) GetStats() *PoolStats {
	p.statsLock.RLock()
	defer p.statsLock.RUnlock()

	dbStats := p.db.Stats()
	p.stats.TotalConnections = int64(dbStats.OpenConnections)
	p.stats.ActiveConnections = int64(dbStats.InUse)
	p.stats.IdleConnections = int64(dbStats.Idle)
	p.stats.WaitCount = dbStats.WaitCount
	p.stats.WaitDuration = dbStats.WaitDuration
	p.stats.LastStatsUpdate = time.Now()

	statsCopy := *p.stats
	return &statsCopy
}

// Health pings the database and round-trips a trivial query.
func (p *ConnectionPool) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := p.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("query test failed: %w", err)
	}
	return nil
}

// Close stops the health checker and metrics collector and closes the pool.
func (p *ConnectionPool) Close() error {
	if !atomic.CompareAndSwapInt32(&p.stopped, 0, 1) {
		return nil
	}
	if p.healthChecker != nil {
		close(p.healthChecker.stopChan)
	}
	close(p.stopChan)
	p.logger.Info("closing database connection pool")
	return p.db.Close()
}

func (p *ConnectionPool) executeWithRetry(ctx context.Context, fn func() (*sql.Rows, error)) (*sql.Rows, error) {
	var lastErr error
	for i := 0; i < p.config.MaxRetries; i++ {
		rows, err := fn()
		if err == nil {
			return rows, nil
		}
		lastErr = err
		if !p.shouldRetry(err) {
			break
		}
		if i < p.config.MaxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.config.RetryDelay):
			}
		}
	}
	return nil, lastErr
}

func (p *ConnectionPool) executeExecWithRetry(ctx context.Context, fn func() (sql.Result, error)) (sql.Result, error) {
	var lastErr error
	for i := 0; i < p.config.MaxRetries; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !p.shouldRetry(err) {
			break
		}
		if i < p.config.MaxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.config.RetryDelay):
			}
		}
	}
	return nil, lastErr
}

func (p *ConnectionPool) shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	for _, retryable := range []string{"database is locked", "connection reset", "connection refused", "timeout"} {
		if strings.Contains(errStr, retryable) {
			return true
		}
	}
	return false
}

func (p *ConnectionPool) updateQueryStats(query string, duration time.Duration, err error) {
	atomic.AddInt64(&p.stats.QueryCount, 1)
	if err != nil {
		atomic.AddInt64(&p.stats.ErrorCount, 1)
	}
	if duration > p.config.SlowQueryThreshold {
		atomic.AddInt64(&p.stats.SlowQueryCount, 1)
		if p.config.LogSlowQueries {
			p.logger.Warn("slow query: %s (%v)", truncateQuery(query), duration)
		}
	}
	p.statsLock.Lock()
	p.stats.AvgQueryDuration = (p.stats.AvgQueryDuration + duration) / 2
	p.statsLock.Unlock()
}

func (p *ConnectionPool) updateTransactionStats(duration time.Duration) {
	p.statsLock.Lock()
	p.stats.AvgTransactionDuration = (p.stats.AvgTransactionDuration + duration) / 2
	p.statsLock.Unlock()
}

func (p *ConnectionPool) startMetricsCollector() {
	ticker := time.NewTicker(p.config.MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if p.config.LogConnectionStats {
				p.logConnectionStats()
			}
		case <-p.stopChan:
			return
		}
	}
}

func (p *ConnectionPool) logConnectionStats() {
	stats := p.GetStats()
	p.logger.Info("pool stats - active:%d idle:%d wait:%d queries:%d errors:%d slow:%d",
		stats.ActiveConnections, stats.IdleConnections, stats.WaitCount,
		stats.QueryCount, stats.ErrorCount, stats.SlowQueryCount)
}

func (h *HealthChecker) start() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.performHealthCheck()
		case <-h.stopChan:
			return
		}
	}
}

func (h *HealthChecker) performHealthCheck() {
	atomic.AddInt64(&h.pool.stats.HealthCheckCount, 1)
	if err := h.pool.Health(); err != nil {
		atomic.AddInt64(&h.pool.stats.HealthCheckErrors, 1)
		h.logger.Error("health check failed: %v", err)
	} else {
		h.pool.stats.LastHealthCheck = time.Now()
		h.logger.Debug("health check passed")
	}
}

func truncateQuery(query string) string {
	if len(query) > 100 {
		return query[:100] + "..."
	}
	return query
}
