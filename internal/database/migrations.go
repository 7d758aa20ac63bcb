package database

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"hanyang/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrator handles database migrations
type Migrator struct {
	db     *sql.DB
	logger *logger.ColoredLogger
}

// NewMigrator creates a new migrator
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger.NewColoredLogger("DB", logger.ColorBrightYellow),
	}
}

// Migrate runs all pending migrations
func (m *Migrator) Migrate() error {
	// Create migrations table if it doesn't exist
	if err := m.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get current version
	currentVersion, err := m.getCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	m.logger.Info("Current database version: %d", currentVersion)

	// Load migrations
	migrations, err := m.loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	// Filter migrations that need to be applied
	pendingMigrations := make([]Migration, 0)
	for _, migration := range migrations {
		if migration.Version > currentVersion {
			pendingMigrations = append(pendingMigrations, migration)
		}
	}

	if len(pendingMigrations) == 0 {
		m.logger.Info("Database is up to date")
		return nil
	}

	m.logger.Info("Found %d pending migrations", len(pendingMigrations))

	// Apply pending migrations
	for _, migration := range pendingMigrations {
		if err := m.applyMigration(migration); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", 
				migration.Version, migration.Name, err)
		}
		m.logger.Info("Applied migration %d: %s", migration.Version, migration.Name)
	}

	m.logger.Info("All migrations completed successfully")
	return nil
}

// GetCurrentVersion returns the current database version
func (m *Migrator) GetCurrentVersion() (int, error) {
	if err := m.createMigrationsTable(); err != nil {
		return 0, err
	}
	return m.getCurrentVersion()
}

// createMigrationsTable creates the migrations tracking table
func (m *Migrator) createMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := m.db.Exec(query)
	return err
}

// getCurrentVersion gets the latest applied migration version
func (m *Migrator) getCurrentVersion() (int, error) {
	query := "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"
	var version int
	err := m.db.QueryRow(query).Scan(&version)
	return version, err
}

// loadMigrations loads all migration files
func (m *Migrator) loadMigrations() ([]Migration, error) {
	migrations := make([]Migration, 0)

	// Load embedded migration files
	err := fs.WalkDir(migrationFiles, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}

		// Parse version and name from filename
		filename := filepath.Base(path)
		parts := strings.SplitN(filename, "_", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid migration filename format: %s", filename)
		}

		version, err := strconv.Atoi(parts[0])
		if err != nil {
			return fmt.Errorf("invalid version in filename %s: %w", filename, err)
		}

		name := strings.TrimSuffix(parts[1], ".sql")

		// Read migration content
		content, err := fs.ReadFile(migrationFiles, path)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", path, err)
		}

		migration := Migration{
			Version: version,
			Name:    name,
			SQL:     string(content),
		}

		migrations = append(migrations, migration)
		return nil
	})

	if err != nil {
		return nil, err
	}

	// Sort migrations by version
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// applyMigration applies a single migration
func (m *Migrator) applyMigration(migration Migration) error {
	// Start transaction
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// Execute migration SQL
	_, err = tx.Exec(migration.SQL)
	if err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	// Record migration in schema_migrations table
	_, err = tx.Exec(
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		migration.Version, migration.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	// Commit transaction
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

// Rollback rolls back to a specific version (dangerous operation)
func (m *Migrator) Rollback(targetVersion int) error {
	currentVersion, err := m.getCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if targetVersion >= currentVersion {
		return fmt.Errorf("target version %d is not less than current version %d", 
			targetVersion, currentVersion)
	}

	m.logger.Warn("Rolling back from version %d to %d", currentVersion, targetVersion)
	m.logger.Warn("This is a destructive operation that may result in data loss")

	// For SQLite, we'll need to rebuild the schema from scratch
	// This is a simplified rollback - in production, you'd want proper down migrations
	if targetVersion == 0 {
		return m.resetDatabase()
	}

	// For partial rollbacks, you'd need down migration scripts
	return fmt.Errorf("partial rollbacks not implemented - use version 0 to reset database")
}

// resetDatabase drops all tables and starts fresh
func (m *Migrator) resetDatabase() error {
	m.logger.Warn("Resetting database - all data will be lost")

	// Get all table names
	rows, err := m.db.Query(`
		SELECT name FROM sqlite_master 
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
	`)
	if err != nil {
		return fmt.Errorf("failed to get table names: %w", err)
	}
	defer rows.Close()

	tables := make([]string, 0)
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}

	// Drop all tables
	for _, table := range tables {
		_, err := m.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table))
		if err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
		m.logger.Debug("Dropped table: %s", table)
	}

	m.logger.Info("Database reset completed")
	return nil
}

// GetMigrationStatus returns the status of all migrations
func (m *Migrator) GetMigrationStatus() ([]MigrationStatus, error) {
	// Ensure migrations table exists
	if err := m.createMigrationsTable(); err != nil {
		return nil, err
	}

	// Get applied migrations
	appliedMigrations := make(map[int]time.Time)
	rows, err := m.db.Query("SELECT version, applied_at FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration record: %w", err)
		}
		appliedMigrations[version] = appliedAt
	}

	// Load all available migrations
	availableMigrations, err := m.loadMigrations()
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	// Build status list
	status := make([]MigrationStatus, len(availableMigrations))
	for i, migration := range availableMigrations {
		appliedAt, isApplied := appliedMigrations[migration.Version]
		status[i] = MigrationStatus{
			Version:   migration.Version,
			Name:      migration.Name,
			Applied:   isApplied,
			AppliedAt: appliedAt,
		}
	}

	return status, nil
}

// MigrationStatus represents the status of a migration
type MigrationStatus struct {
	Version   int       `json:"version"`
	Name      string    `json:"name"`
	Applied   bool      `json:"applied"`
	AppliedAt time.Time `json:"applied_at,omitempty"`
}

// Seed is a no-op: the tile and blueprint catalogs are immutable, in-code
// data (internal/tiles, internal/blueprints), not rows a migration seeds.
// Kept so callers that always run Migrate-then-Seed don't need a special case.
func (m *Migrator) Seed() error {
	return nil
}