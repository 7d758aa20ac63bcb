package database

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"hanyang/pkg/logger"
)

// BackupManager handles on-demand and scheduled backups of the game store.
// A Game aggregate is the entire persisted world for a room (§4.6); losing
// the SQLite file loses every in-progress game, so this exists even though
// the engine itself never calls it directly.
type BackupManager struct {
	db        *DB
	config    *BackupConfig
	logger    *logger.ColoredLogger
	scheduler *BackupScheduler
}

// BackupConfig holds backup configuration.
type BackupConfig struct {
	BackupDir          string
	MaxBackups         int
	CompressionEnabled bool

	AutoBackup     bool
	BackupInterval time.Duration

	VerifyAfterBackup bool
}

// BackupInfo describes a single backup artifact.
type BackupInfo struct {
	Filename     string    `json:"filename"`
	FullPath     string    `json:"full_path"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
	DatabaseSize int64     `json:"database_size"`
	Compressed   bool      `json:"compressed"`
	Verified     bool      `json:"verified"`
	BackupType   string    `json:"backup_type"`
	Description  string    `json:"description"`
}

// BackupScheduler runs CreateBackup on a fixed interval.
type BackupScheduler struct {
	manager  *BackupManager
	logger   *logger.ColoredLogger
	stopChan chan struct{}
	running  bool
}

// RestoreOptions configures a restore-from-backup operation.
type RestoreOptions struct {
	BackupPath         string
	TargetPath         string
	VerifyAfterRestore bool
	CreateBackup       bool
	Force              bool
}

// DefaultBackupConfig returns the backup configuration used by cmd/server.
func DefaultBackupConfig(dataDir string) *BackupConfig {
	return &BackupConfig{
		BackupDir:          filepath.Join(dataDir, "backups"),
		MaxBackups:         50,
		CompressionEnabled: true,
		AutoBackup:         true,
		BackupInterval:     6 * time.Hour,
		VerifyAfterBackup:  true,
	}
}

// NewBackupManager wires a backup manager to an open game database.
func NewBackupManager(db *DB, config *BackupConfig) *BackupManager {
	bm := &BackupManager{
		db:     db,
		config: config,
		logger: logger.NewColoredLogger("BACKUP", logger.ColorBrightPurple),
	}

	if err := os.MkdirAll(config.BackupDir, 0755); err != nil {
		bm.logger.Error("failed to create backup directory: %v", err)
	}

	if config.AutoBackup {
		bm.scheduler = &BackupScheduler{
			manager:  bm,
			logger:   logger.NewColoredLogger("SCHEDULER", logger.ColorPurple),
			stopChan: make(chan struct{}),
		}
	}

	return bm
}

// Start begins automatic backup scheduling.
func (bm *BackupManager) Start() {
	if bm.scheduler != nil && !bm.scheduler.running {
		go bm.scheduler.start()
		bm.logger.Info("backup scheduler started")
	}
}

// Stop halts automatic backup scheduling.
func (bm *BackupManager) Stop() {
	if bm.scheduler != nil && bm.scheduler.running {
		close(bm.scheduler.stopChan)
		bm.logger.Info("backup scheduler stopped")
	}
}

// CreateBackup snapshots the game store with a human description, e.g. "pre-migration".
func (bm *BackupManager) CreateBackup(description string) (*BackupInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	return bm.CreateBackupWithContext(ctx, description, "manual")
}

// CreateBackupWithContext snapshots the game store, recording a backup type
// ("manual", "scheduled", "pre-restore") alongside the description.
func (bm *BackupManager) CreateBackupWithContext(ctx context.Context, description, backupType string) (*BackupInfo, error) {
	start := time.Now()

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("hanyang_%s.db", timestamp)
	if bm.config.CompressionEnabled {
		filename += ".gz"
	}
	backupPath := filepath.Join(bm.config.BackupDir, filename)

	bm.logger.Info("creating backup: %s", filename)

	dbSizes, err := bm.db.GetDatabaseSize()
	if err != nil {
		return nil, fmt.Errorf("get database size: %w", err)
	}
	dbSize := dbSizes["total_size"]

	var backupSize int64
	if bm.config.CompressionEnabled {
		backupSize, err = bm.createCompressedBackup(ctx, backupPath)
	} else {
		backupSize, err = bm.createRegularBackup(ctx, backupPath)
	}
	if err != nil {
		return nil, fmt.Errorf("backup creation failed: %w", err)
	}

	info := &BackupInfo{
		Filename:     filename,
		FullPath:     backupPath,
		Size:         backupSize,
		CreatedAt:    start,
		DatabaseSize: dbSize,
		Compressed:   bm.config.CompressionEnabled,
		BackupType:   backupType,
		Description:  description,
	}

	if bm.config.VerifyAfterBackup {
		if err := bm.verifyBackup(info); err != nil {
			bm.logger.Error("backup verification failed: %v", err)
			info.Verified = false
		} else {
			info.Verified = true
		}
	}

	bm.logger.Info("backup completed: %s (%v)", filename, time.Since(start))

	if err := bm.cleanupOldBackups(); err != nil {
		bm.logger.Warn("failed to cleanup old backups: %v", err)
	}

	return info, nil
}

// RestoreBackup replaces the active game database with a prior backup.
func (bm *BackupManager) RestoreBackup(options RestoreOptions) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	return bm.RestoreBackupWithContext(ctx, options)
}

// RestoreBackupWithContext replaces the active game database with a prior backup.
func (bm *BackupManager) RestoreBackupWithContext(ctx context.Context, options RestoreOptions) error {
	bm.logger.Info("starting restore from: %s", options.BackupPath)

	if _, err := os.Stat(options.BackupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup file not found: %s", options.BackupPath)
	}

	if options.CreateBackup {
		if _, err := bm.CreateBackupWithContext(ctx, "pre-restore backup", "pre-restore"); err != nil {
			bm.logger.Warn("failed to create pre-restore backup: %v", err)
		}
	}

	targetPath := options.TargetPath
	if targetPath == "" {
		targetPath = bm.db.path
	}

	if _, err := os.Stat(targetPath); err == nil && !options.Force {
		return fmt.Errorf("target database exists and force=false: %s", targetPath)
	}

	if err := bm.restoreFile(options.BackupPath, targetPath); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	if options.VerifyAfterRestore {
		if _, err := os.Stat(targetPath); err != nil {
			return fmt.Errorf("restored database verification failed: %w", err)
		}
	}

	bm.logger.Info("restore completed")
	return nil
}

// ListBackups returns known backups, newest first.
func (bm *BackupManager) ListBackups() ([]*BackupInfo, error) {
	files, err := os.ReadDir(bm.config.BackupDir)
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	var backups []*BackupInfo
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		filename := file.Name()
		if !strings.HasPrefix(filename, "hanyang_") {
			continue
		}
		fileInfo, err := file.Info()
		if err != nil {
			continue
		}
		backups = append(backups, &BackupInfo{
			Filename:   filename,
			FullPath:   filepath.Join(bm.config.BackupDir, filename),
			Size:       fileInfo.Size(),
			CreatedAt:  fileInfo.ModTime(),
			Compressed: strings.HasSuffix(filename, ".gz"),
		})
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].CreatedAt.After(backups[j].CreatedAt) })
	return backups, nil
}

// DeleteBackup removes a single named backup.
func (bm *BackupManager) DeleteBackup(filename string) error {
	backupPath := filepath.Join(bm.config.BackupDir, filename)
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup not found: %s", filename)
	}
	if err := os.Remove(backupPath); err != nil {
		return fmt.Errorf("delete backup: %w", err)
	}
	bm.logger.Info("deleted backup: %s", filename)
	return nil
}

func (bm *BackupManager) createRegularBackup(ctx context.Context, backupPath string) (int64, error) {
	if _, err := bm.db.ExecContext(ctx, "VACUUM INTO ?", backupPath); err != nil {
		return 0, fmt.Errorf("VACUUM INTO failed: %w", err)
	}
	fileInfo, err := os.Stat(backupPath)
	if err != nil {
		return 0, fmt.Errorf("backup file info: %w", err)
	}
	return fileInfo.Size(), nil
}

func (bm *BackupManager) createCompressedBackup(ctx context.Context, backupPath string) (int64, error) {
	tempPath := backupPath + ".tmp"
	defer os.Remove(tempPath)

	if _, err := bm.createRegularBackup(ctx, tempPath); err != nil {
		return 0, err
	}

	srcFile, err := os.Open(tempPath)
	if err != nil {
		return 0, fmt.Errorf("open temp backup: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(backupPath)
	if err != nil {
		return 0, fmt.Errorf("create compressed backup: %w", err)
	}
	defer dstFile.Close()

	gz := gzip.NewWriter(dstFile)
	if _, err := io.Copy(gz, srcFile); err != nil {
		return 0, fmt.Errorf("write compressed backup: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("finish compressed backup: %w", err)
	}

	fileInfo, err := os.Stat(backupPath)
	if err != nil {
		return 0, fmt.Errorf("backup file info: %w", err)
	}
	return fileInfo.Size(), nil
}

func (bm *BackupManager) restoreFile(backupPath, targetPath string) error {
	srcFile, err := os.Open(backupPath)
	if err != nil {
		return fmt.Errorf("open backup file: %w", err)
	}
	defer srcFile.Close()

	var src io.Reader = srcFile
	if strings.HasSuffix(backupPath, ".gz") {
		gz, err := gzip.NewReader(srcFile)
		if err != nil {
			return fmt.Errorf("open compressed backup: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	dstFile, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("create target file: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, src); err != nil {
		return fmt.Errorf("copy backup: %w", err)
	}
	return nil
}

func (bm *BackupManager) verifyBackup(backup *BackupInfo) error {
	f, err := os.Open(backup.FullPath)
	if err != nil {
		return fmt.Errorf("cannot open backup file: %w", err)
	}
	return f.Close()
}

func (bm *BackupManager) cleanupOldBackups() error {
	backups, err := bm.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) <= bm.config.MaxBackups {
		return nil
	}
	for i := bm.config.MaxBackups; i < len(backups); i++ {
		if err := bm.DeleteBackup(backups[i].Filename); err != nil {
			bm.logger.Warn("failed to delete old backup %s: %v", backups[i].Filename, err)
		}
	}
	return nil
}

func (bs *BackupScheduler) start() {
	bs.running = true
	defer func() { bs.running = false }()

	ticker := time.NewTicker(bs.manager.config.BackupInterval)
	defer ticker.Stop()

	bs.performScheduledBackup()

	for {
		select {
		case <-ticker.C:
			bs.performScheduledBackup()
		case <-bs.stopChan:
			return
		}
	}
}

func (bs *BackupScheduler) performScheduledBackup() {
	description := fmt.Sprintf("scheduled backup - %s", time.Now().Format("2006-01-02 15:04:05"))
	if _, err := bs.manager.CreateBackupWithContext(context.Background(), description, "scheduled"); err != nil {
		bs.logger.Error("scheduled backup failed: %v", err)
	} else {
		bs.logger.Info("scheduled backup completed")
	}
}
