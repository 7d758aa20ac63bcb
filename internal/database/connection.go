package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"hanyang/pkg/logger"
)

// DB represents a database connection with additional functionality.
// NewConnectionPool (pool.go) wraps this with retries, health checks, and
// slow-query logging for cmd/server; DB itself stays a thin wrapper around
// *sql.DB plus the migrator so callers that don't need pooling (such as
// SQLiteStore) can use it directly.
type DB struct {
	*sql.DB
	logger   *logger.ColoredLogger
	migrator *Migrator
	path     string
}

// Config holds database configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool
	SeedOnMigrate   bool
}

// DefaultConfig returns a default database configuration
func DefaultConfig(dataDir string) *Config {
	return &Config{
		Path:            filepath.Join(dataDir, "hanyang.db"),
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 5 * time.Minute,
		MigrateOnStart:  true,
		SeedOnMigrate:   true,
	}
}

// NewConnection creates a new database connection
func NewConnection(config *Config) (*DB, error) {
	log := logger.NewColoredLogger("DB", logger.ColorBrightYellow)

	// Ensure directory exists
	dir := filepath.Dir(config.Path)
	if err := ensureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Connect to SQLite database
	sqlDB, err := sql.Open("sqlite3", config.Path+"?_foreign_keys=on&_journal_mode=WAL&_timeout=10000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		DB:     sqlDB,
		logger: log,
		path:   config.Path,
	}

	// Initialize migrator
	db.migrator = NewMigrator(sqlDB)

	// Run migrations if enabled
	if config.MigrateOnStart {
		if err := db.migrator.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		// Seed database if enabled
		if config.SeedOnMigrate {
			if err := db.migrator.Seed(); err != nil {
				log.Warn("Failed to seed database: %v", err)
			}
		}
	}

	log.Info("Connected to SQLite database: %s", config.Path)
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.DB != nil {
		db.logger.Info("Closing database connection")
		return db.DB.Close()
	}
	return nil
}

// GetMigrator returns the database migrator
func (db *DB) GetMigrator() *Migrator {
	return db.migrator
}

// Health checks database health
func (db *DB) Health() error {
	return db.Ping()
}

// GetStats returns database statistics
func (db *DB) GetStats() sql.DBStats {
	return db.Stats()
}

// BeginTx starts a new transaction with context
func (db *DB) BeginTx() (*sql.Tx, error) {
	return db.Begin()
}

// WithTx executes a function within a transaction
func (db *DB) WithTx(fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Failed to rollback transaction: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Backup creates a backup of the database using VACUUM INTO (SQLite
// 3.27+). VACUUM cannot run inside a transaction, so this goes straight
// through Exec.
func (db *DB) Backup(backupPath string) error {
	// Ensure backup directory exists
	dir := filepath.Dir(backupPath)
	if err := ensureDir(dir); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	if _, err := db.Exec("VACUUM INTO ?", backupPath); err != nil {
		return fmt.Errorf("failed to backup database: %w", err)
	}

	db.logger.Info("Database backed up to: %s", backupPath)
	return nil
}

// GetDatabaseSize returns the on-disk page accounting SQLite reports.
func (db *DB) GetDatabaseSize() (map[string]int64, error) {
	sizes := make(map[string]int64)
	var pageCount, pageSize int64

	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, fmt.Errorf("failed to get page size: %w", err)
	}

	sizes["total_size"] = pageCount * pageSize
	sizes["page_count"] = pageCount
	sizes["page_size"] = pageSize

	return sizes, nil
}

// ensureDir creates a directory if it doesn't exist
func ensureDir(dir string) error {
	if dir == "" {
		return nil
	}
	
	// Use os.MkdirAll to create directory structure
	return os.MkdirAll(dir, 0755)
}