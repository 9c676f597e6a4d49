package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/taxocrawl/internal/archive"
	"github.com/nao1215/taxocrawl/internal/config"
)

// writeBackups creates the live file and one backup per timestamp, each
// with its timestamp as modification time.
func writeBackups(t *testing.T, dir string, stamps ...time.Time) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, "topics.xml"), []byte("live"), 0600); err != nil {
		t.Fatal(err)
	}
	for _, stamp := range stamps {
		name := archive.BackupName("topics.xml", stamp)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(name), 0600); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, stamp, stamp); err != nil {
			t.Fatal(err)
		}
	}
}

// TestBackupsCmd tests listing and restoring backups.
func TestBackupsCmd(t *testing.T) {
	t.Parallel()

	older := time.Date(2026, 10, 1, 3, 0, 0, 0, time.Local)
	newer := time.Date(2026, 10, 2, 3, 0, 0, 0, time.Local)

	t.Run("lists newest first as JSON", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeBackups(t, dir, older, newer)

		stdout, _, err := execute(t, "backups", "-o", dir, "-f", "topics.xml", "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var backups []archive.Backup
		if err := json.Unmarshal([]byte(stdout), &backups); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, stdout)
		}
		if len(backups) != 2 {
			t.Fatalf("expected 2 backups, got %d", len(backups))
		}
		if backups[0].Name != archive.BackupName("topics.xml", newer) {
			t.Errorf("expected newest backup first, got %s", backups[0].Name)
		}
	})

	t.Run("lists as table", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeBackups(t, dir, older)

		stdout, _, err := execute(t, "backups", "-o", dir, "-f", "topics.xml")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "NAME") || !strings.Contains(stdout, archive.BackupName("topics.xml", older)) {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})

	t.Run("reports no backups", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		stdout, _, err := execute(t, "backups", "-o", dir, "-f", "topics.xml")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(stdout, "No backups of ") {
			t.Errorf("unexpected output %q", stdout)
		}

		stdout, _, err = execute(t, "backups", "-o", dir, "-f", "topics.xml", "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(stdout) != "[]" {
			t.Errorf("expected empty JSON array, got %q", stdout)
		}
	})

	t.Run("restores newest backup", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeBackups(t, dir, older, newer)

		stdout, _, err := execute(t, "backups", "-o", dir, "-f", "topics.xml", "--restore")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Restored") {
			t.Errorf("unexpected output %q", stdout)
		}

		content, err := os.ReadFile(filepath.Join(dir, "topics.xml"))
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != archive.BackupName("topics.xml", newer) {
			t.Errorf("expected newest backup content, got %q", content)
		}
		if _, err := os.Stat(filepath.Join(dir, archive.BackupName("topics.xml", newer))); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected restored backup to be moved, got %v", err)
		}
	})

	t.Run("restore without backups fails", func(t *testing.T) {
		t.Parallel()

		_, _, err := execute(t, "backups", "-o", t.TempDir(), "-f", "topics.xml", "--restore")
		if !errors.Is(err, errNoBackups) {
			t.Errorf("expected errNoBackups, got %v", err)
		}
	})

	t.Run("requires output location", func(t *testing.T) {
		t.Parallel()

		_, _, err := execute(t, "backups", "-o", t.TempDir())
		if !errors.Is(err, config.ErrNoFileName) {
			t.Errorf("expected ErrNoFileName, got %v", err)
		}
	})
}
