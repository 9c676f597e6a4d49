package archive

import (
	"log/slog"
	"path/filepath"
	"time"
)

// DefaultMaxBackups is the number of backups kept after a rotation.
const DefaultMaxBackups = 5

// Manager rotates, prunes and restores backups of dimension files.
type Manager struct {
	store      BackupStore
	maxBackups int
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore replaces the default FSStore.
func WithStore(store BackupStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithMaxBackups sets the retention threshold. Values below one are
// ignored so that a rotation never prunes the backup it just created.
func WithMaxBackups(n int) Option {
	return func(m *Manager) {
		if n >= 1 {
			m.maxBackups = n
		}
	}
}

// WithClock sets the time source used for backup names.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager. Without options it keeps DefaultMaxBackups
// backups on the local file system.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		store:      NewFSStore(),
		maxBackups: DefaultMaxBackups,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// MaxBackups returns the retention threshold.
func (m *Manager) MaxBackups() int {
	return m.maxBackups
}

// RotateResult reports what Rotate did.
type RotateResult struct {
	// Backup is the backup created from the live file, or nil when there
	// was no live file.
	Backup *Backup

	// Pruned lists backups removed by retention.
	Pruned []Backup
}

// Rotate moves the live dimension file into a new backup and prunes old
// backups. Without a live file it does nothing. A returned error means the
// live file is in an unknown state and the caller must not write.
func (m *Manager) Rotate(dir, name string) (*RotateResult, error) {
	logger := m.logger.With("dir", dir, "file", name)

	backup, err := m.store.Create(dir, name, m.now())
	if err != nil {
		logger.Error("failed to archive existing file", "op", "rotate", "error", err)
		return nil, err
	}
	if backup == nil {
		logger.Info("no existing file to archive")
		return &RotateResult{}, nil
	}
	logger.Info("archived existing file", "backup", backup.Name)

	return &RotateResult{
		Backup: backup,
		Pruned: m.Prune(dir, name),
	}, nil
}

// Prune removes the oldest backups beyond the retention threshold and
// returns the ones removed. Failures are logged and otherwise ignored.
func (m *Manager) Prune(dir, name string) []Backup {
	logger := m.logger.With("dir", dir, "file", name)

	result, err := m.store.Prune(dir, name, m.maxBackups)
	if err != nil {
		logger.Warn("failed to prune backups", "op", "prune", "error", err)
		return nil
	}
	if len(result.Removed) == 0 && len(result.Failed) == 0 {
		logger.Debug("backup threshold not reached", "max", m.maxBackups)
		return nil
	}

	for _, b := range result.Removed {
		logger.Info("deleted backup", "backup", b.Name, "reason", "max backup threshold reached")
	}
	for _, f := range result.Failed {
		logger.Warn("failed to delete backup",
			"op", "prune",
			"backup", f.Backup.Name,
			"path", f.Backup.Path,
			"error", f.Err,
		)
	}
	return result.Removed
}

// Rollback restores the newest backup as the live dimension file.
// It returns the restored backup, or nil when there is none to restore.
func (m *Manager) Rollback(dir, name string) (*Backup, error) {
	logger := m.logger.With("dir", dir, "file", name)

	backups, err := m.store.List(dir, name)
	if err != nil {
		logger.Error("failed to list backups", "op", "rollback", "error", err)
		return nil, err
	}
	if len(backups) == 0 {
		logger.Warn("no backup files found to roll back to")
		return nil, nil
	}

	latest := backups[len(backups)-1]
	logger.Info("rolling back", "backup", latest.Name)

	if err := m.store.Restore(dir, name, latest); err != nil {
		logger.Error("failed to roll back file from backup",
			"op", "rollback",
			"backup", latest.Name,
			"path", filepath.Join(dir, name),
			"error", err,
		)
		return nil, err
	}
	return &latest, nil
}

// List returns the backups of name in dir, oldest first.
func (m *Manager) List(dir, name string) ([]Backup, error) {
	return m.store.List(dir, name)
}
