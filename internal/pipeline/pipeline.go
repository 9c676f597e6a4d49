package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/taxocrawl/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the run
// populated by the previous steps.
type Step interface {
	// Do executes the pipeline step.
	// Returning ErrHalt stops the pipeline without an error.
	Do(ctx context.Context, run *model.Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence and finishes the run.
//
// Cancellation is honoured between steps until the live dimension file
// has been archived. From then on the write is always attempted, since
// stopping there would leave no dimension file at all.
//
// Execute returns nil when every step completed or a step halted the
// run, and the step's error otherwise.
func (p *Pipeline) Execute(ctx context.Context, run *model.Run) error {
	logger := p.logger.With("dimension", run.Dimension)

	for _, step := range p.steps {
		if run.BackupCreated == "" {
			if err := ctx.Err(); err != nil {
				logger.Warn("pipeline cancelled", "step", step.Name(), "reason", err)
				run.SetError(err)
				run.Finish(model.RunStatusFailed)
				return err
			}
		}

		logger.Debug("executing step", "step", step.Name())

		err := step.Do(ctx, run)
		run.PerformedSteps = append(run.PerformedSteps, step.Name())

		if errors.Is(err, ErrHalt) {
			logger.Debug("pipeline halted", "step", step.Name(), "status", run.Status)
			run.Finish(model.RunStatusFailed)
			return nil
		}
		if err != nil {
			logger.Error("step failed", "step", step.Name(), "error", err)
			run.SetError(err)
			run.Finish(model.RunStatusFailed)
			return err
		}
		logger.Debug("step completed", "step", step.Name())
	}

	run.Finish(model.RunStatusCompleted)
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
