package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/nao1215/taxocrawl/internal/model"
)

// discardLogger returns a logger that drops everything.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, run *model.Run) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, run *model.Run) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, run)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func newTestRun() *model.Run {
	return model.NewRun("Topics", "http://taxonomy.invalid/terms", "/tmp", "topics.xml")
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	p := New()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if p.StepCount() != 0 {
		t.Errorf("expected 0 steps, got %d", p.StepCount())
	}
	if p.logger == nil {
		t.Error("expected default logger")
	}
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "first"})
	p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

	if p.StepCount() != 3 {
		t.Fatalf("expected 3 steps, got %d", p.StepCount())
	}
	if got, want := p.StepNames(), []string{"first", "second", "third"}; !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order and completes the run", func(t *testing.T) {
		t.Parallel()

		executionOrder := make([]string, 0)
		record := func(name string) func(context.Context, *model.Run) error {
			return func(context.Context, *model.Run) error {
				executionOrder = append(executionOrder, name)
				return nil
			}
		}

		p := New(WithLogger(discardLogger()))
		p.AddSteps(
			&mockStep{name: "step-1", doFunc: record("step-1")},
			&mockStep{name: "step-2", doFunc: record("step-2")},
		)

		run := newTestRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !slices.Equal(executionOrder, []string{"step-1", "step-2"}) {
			t.Errorf("wrong execution order: %v", executionOrder)
		}
		if !slices.Equal(run.PerformedSteps, []string{"step-1", "step-2"}) {
			t.Errorf("unexpected performed steps: %v", run.PerformedSteps)
		}
		if run.Status != model.RunStatusCompleted {
			t.Errorf("expected completed, got %s", run.Status)
		}
		if run.FinishedAt.IsZero() {
			t.Error("expected FinishedAt to be set")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("step failed")
		second := &mockStep{name: "should-not-run"}

		p := New(WithLogger(discardLogger()))
		p.AddSteps(
			&mockStep{name: "failing-step", doFunc: func(context.Context, *model.Run) error { return expectedErr }},
			second,
		)

		run := newTestRun()
		err := p.Execute(context.Background(), run)

		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if second.callCount != 0 {
			t.Error("second step should not have been called")
		}
		if run.Status != model.RunStatusFailed {
			t.Errorf("expected failed, got %s", run.Status)
		}
		if run.ErrorMessage != expectedErr.Error() {
			t.Errorf("expected error message %q, got %q", expectedErr.Error(), run.ErrorMessage)
		}
	})

	t.Run("halt stops without error and keeps the step status", func(t *testing.T) {
		t.Parallel()

		second := &mockStep{name: "should-not-run"}

		p := New(WithLogger(discardLogger()))
		p.AddSteps(
			&mockStep{name: "halting-step", doFunc: func(_ context.Context, run *model.Run) error {
				run.Finish(model.RunStatusNoData)
				return ErrHalt
			}},
			second,
		)

		run := newTestRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if second.callCount != 0 {
			t.Error("second step should not have been called")
		}
		if run.Status != model.RunStatusNoData {
			t.Errorf("expected no_data, got %s", run.Status)
		}
		if !slices.Equal(run.PerformedSteps, []string{"halting-step"}) {
			t.Errorf("unexpected performed steps: %v", run.PerformedSteps)
		}
	})

	t.Run("fatal errors propagate", func(t *testing.T) {
		t.Parallel()

		p := New(WithLogger(discardLogger()))
		p.AddStep(&mockStep{name: "rotate", doFunc: func(context.Context, *model.Run) error {
			return &FatalError{Op: "rotate", Err: errors.New("permission denied")}
		}})

		err := p.Execute(context.Background(), newTestRun())
		if !IsFatal(err) {
			t.Fatalf("expected fatal error, got %v", err)
		}
		var fatal *FatalError
		if errors.As(err, &fatal) && fatal.Op != "rotate" {
			t.Errorf("expected op rotate, got %q", fatal.Op)
		}
	})

	t.Run("respects context cancellation before archiving", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "should-not-run"}
		p := New(WithLogger(discardLogger()))
		p.AddStep(step)

		run := newTestRun()
		err := p.Execute(ctx, run)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not have been called")
		}
		if run.Status != model.RunStatusFailed {
			t.Errorf("expected failed, got %s", run.Status)
		}
	})

	t.Run("ignores cancellation once a backup exists", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())

		write := &mockStep{name: "write"}
		p := New(WithLogger(discardLogger()))
		p.AddSteps(
			&mockStep{name: "archive", doFunc: func(_ context.Context, run *model.Run) error {
				run.BackupCreated = "topics.xml.backup.2026-10-19.08-30-00"
				cancel()
				return nil
			}},
			write,
		)

		if err := p.Execute(ctx, newTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if write.callCount != 1 {
			t.Error("write step should have run after archiving")
		}
	})
}

// TestFatalError tests FatalError formatting and unwrapping.
func TestFatalError(t *testing.T) {
	t.Parallel()

	cause := errors.New("device busy")
	err := error(&FatalError{Op: "rollback", Err: cause})

	if !errors.Is(err, cause) {
		t.Error("expected FatalError to unwrap to its cause")
	}
	if got, want := err.Error(), "fatal rollback failure: device busy"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if IsFatal(cause) {
		t.Error("plain error must not be fatal")
	}
}
