package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// TimestampLayout is the layout of the timestamp suffix of a backup name.
const TimestampLayout = "2006-01-02.15-04-05"

// backupInfix separates the dimension file name from the timestamp.
const backupInfix = ".backup."

// Backup is one archived dimension file.
type Backup struct {
	// Name is the file name, e.g. "topics.xml.backup.2025-01-31.23-59-59".
	Name string `json:"name"`

	// Path is the full path of the backup file.
	Path string `json:"path"`

	// ModTime is the modification time used for ordering.
	ModTime time.Time `json:"mod_time"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`
}

// PruneFailure records a backup that could not be removed.
type PruneFailure struct {
	Backup Backup
	Err    error
}

// PruneResult reports what a prune removed and what it could not remove.
type PruneResult struct {
	Removed []Backup
	Failed  []PruneFailure
}

// BackupStore stores backups of a dimension file.
// List returns backups oldest first; what "oldest" means is up to the store.
type BackupStore interface {
	// List returns the backups of name in dir, oldest first.
	List(dir, name string) ([]Backup, error)

	// Create moves the live file name in dir into a backup stamped with at.
	// It returns nil and no error when there is no live file.
	Create(dir, name string, at time.Time) (*Backup, error)

	// Prune removes the oldest backups until at most keep remain.
	// Removal failures are reported in the result, not as an error.
	Prune(dir, name string, keep int) (PruneResult, error)

	// Restore moves backup b back to name in dir, replacing any file there.
	Restore(dir, name string, b Backup) error
}

// BackupName returns the backup file name of name taken at t.
func BackupName(name string, t time.Time) string {
	return name + backupInfix + t.Format(TimestampLayout)
}

// backupPattern matches backup names of name and nothing else.
func backupPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(name+backupInfix) +
		`[0-9]{4}-[0-9]{2}-[0-9]{2}\.[0-9]{2}-[0-9]{2}-[0-9]{2}$`)
}

// IsBackupOf reports whether fileName is a backup of name.
func IsBackupOf(fileName, name string) bool {
	return backupPattern(name).MatchString(fileName)
}

// FSStore is a BackupStore on the local file system. Backups live next to
// the dimension file and are ordered by modification time, then by name.
type FSStore struct{}

// NewFSStore creates an FSStore.
func NewFSStore() *FSStore {
	return &FSStore{}
}

// List implements BackupStore.
func (s *FSStore) List(dir, name string) ([]Backup, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list backups in %s: %w", dir, err)
	}

	pattern := backupPattern(name)
	var backups []Backup
	for _, entry := range entries {
		if entry.IsDir() || !pattern.MatchString(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		backups = append(backups, Backup{
			Name:    entry.Name(),
			Path:    filepath.Join(dir, entry.Name()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if !backups[i].ModTime.Equal(backups[j].ModTime) {
			return backups[i].ModTime.Before(backups[j].ModTime)
		}
		return strings.Compare(backups[i].Name, backups[j].Name) < 0
	})

	return backups, nil
}

// Create implements BackupStore.
func (s *FSStore) Create(dir, name string, at time.Time) (*Backup, error) {
	live := filepath.Join(dir, name)
	if _, err := os.Stat(live); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", live, err)
	}

	backupName := BackupName(name, at)
	backupPath := filepath.Join(dir, backupName)
	if err := os.Rename(live, backupPath); err != nil {
		return nil, fmt.Errorf("rename %s to %s: %w", live, backupName, err)
	}

	b := &Backup{Name: backupName, Path: backupPath}
	if info, err := os.Stat(backupPath); err == nil {
		b.ModTime = info.ModTime()
		b.Size = info.Size()
	}
	return b, nil
}

// Prune implements BackupStore.
func (s *FSStore) Prune(dir, name string, keep int) (PruneResult, error) {
	var result PruneResult

	backups, err := s.List(dir, name)
	if err != nil {
		return result, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(backups) <= keep {
		return result, nil
	}

	for _, b := range backups[:len(backups)-keep] {
		if err := os.Remove(b.Path); err != nil {
			result.Failed = append(result.Failed, PruneFailure{Backup: b, Err: err})
			continue
		}
		result.Removed = append(result.Removed, b)
	}
	return result, nil
}

// Restore implements BackupStore.
func (s *FSStore) Restore(dir, name string, b Backup) error {
	target := filepath.Join(dir, name)
	if err := os.Rename(b.Path, target); err != nil {
		return fmt.Errorf("rename %s to %s: %w", b.Name, name, err)
	}
	return nil
}
