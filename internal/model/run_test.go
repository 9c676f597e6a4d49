package model

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// TestNewRun tests the Run constructor.
func TestNewRun(t *testing.T) {
	t.Parallel()

	run := NewRun("Topics", "https://taxonomy.example.com/terms", "/srv/dims", "topics.xml")

	if run.Status != RunStatusPending {
		t.Errorf("expected pending status, got %q", run.Status)
	}
	if run.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}
	if got, want := run.OutputPath(), filepath.Join("/srv/dims", "topics.xml"); got != want {
		t.Errorf("OutputPath() = %q, want %q", got, want)
	}
}

// TestRunFinish tests that the first terminal status wins.
func TestRunFinish(t *testing.T) {
	t.Parallel()

	run := NewRun("Topics", "", "dir", "file.xml")
	run.Finish(RunStatusRolledBack)
	finished := run.FinishedAt

	run.Finish(RunStatusCompleted)

	if run.Status != RunStatusRolledBack {
		t.Errorf("expected status to stay %q, got %q", RunStatusRolledBack, run.Status)
	}
	if !run.FinishedAt.Equal(finished) {
		t.Error("expected FinishedAt to be unchanged")
	}
	if run.Elapsed() < 0 {
		t.Error("expected non-negative elapsed time")
	}
}

// TestRunSetError tests error recording.
func TestRunSetError(t *testing.T) {
	t.Parallel()

	run := NewRun("Topics", "", "dir", "file.xml")
	run.SetError(errors.New("disk full"))

	if run.ErrorMessage != "disk full" {
		t.Errorf("expected error message, got %q", run.ErrorMessage)
	}

	run.SetError(nil)
	if run.Error != nil {
		t.Error("expected nil error")
	}
}

// TestRunStatusSucceeded tests the success predicate.
func TestRunStatusSucceeded(t *testing.T) {
	t.Parallel()

	for _, s := range []RunStatus{RunStatusPending, RunStatusNoData, RunStatusFetchFailed, RunStatusRolledBack, RunStatusFailed} {
		if s.Succeeded() {
			t.Errorf("%s: expected Succeeded() to be false", s)
		}
	}
	if !RunStatusCompleted.Succeeded() {
		t.Error("completed: expected Succeeded() to be true")
	}
}

// TestFormatElapsed tests elapsed time rendering.
func TestFormatElapsed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{d: 0, want: "0 millisecond(s)"},
		{d: 250 * time.Millisecond, want: "250 millisecond(s)"},
		{d: 1500 * time.Millisecond, want: "1 second(s)"},
		{d: 59 * time.Second, want: "59 second(s)"},
		{d: 61 * time.Second, want: "1 minute(s)"},
		{d: 2*time.Hour + 5*time.Minute, want: "125 minute(s)"},
	}

	for _, tt := range tests {
		if got := FormatElapsed(tt.d); got != tt.want {
			t.Errorf("FormatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
