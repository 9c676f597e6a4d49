package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/taxocrawl/internal/archive"
	"github.com/nao1215/taxocrawl/internal/dimension"
	"github.com/nao1215/taxocrawl/internal/flatten"
	"github.com/nao1215/taxocrawl/internal/model"
)

// TaxonomyFetcher retrieves the taxonomy forest. *fetch.Fetcher
// implements it.
type TaxonomyFetcher interface {
	Fetch(ctx context.Context, url string) ([]*model.Term, error)
}

// Archiver rotates and restores dimension files. *archive.Manager
// implements it.
type Archiver interface {
	Rotate(dir, name string) (*archive.RotateResult, error)
	Rollback(dir, name string) (*archive.Backup, error)
}

// DimensionWriter serializes nodes under a dimension root to path.
type DimensionWriter func(path, dimensionName string, nodes []model.DimensionNode) (*dimension.WriteResult, error)

// WriteDocument is the default DimensionWriter.
func WriteDocument(path, dimensionName string, nodes []model.DimensionNode) (*dimension.WriteResult, error) {
	doc := dimension.New(dimensionName)
	doc.Append(nodes...)
	return doc.WriteFile(path)
}

// FetchStep downloads the taxonomy. A failed or empty fetch halts the run
// before anything on disk changes.
type FetchStep struct {
	fetcher TaxonomyFetcher
	logger  *slog.Logger
}

// NewFetchStep creates a new fetch step.
func NewFetchStep(fetcher TaxonomyFetcher, logger *slog.Logger) *FetchStep {
	return &FetchStep{fetcher: fetcher, logger: orDefault(logger)}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do executes the fetch step.
func (s *FetchStep) Do(ctx context.Context, run *model.Run) error {
	terms, err := s.fetcher.Fetch(ctx, run.SourceURL)
	if err != nil && ctx.Err() != nil {
		s.logger.Warn("taxonomy fetch cancelled", "url", run.SourceURL, "reason", ctx.Err())
		run.SetError(err)
		run.Finish(model.RunStatusFailed)
		return ctx.Err()
	}
	if err != nil {
		s.logger.Error("failed to fetch taxonomy",
			"op", "fetch",
			"url", run.SourceURL,
			"error", err,
		)
		run.SetError(err)
		run.Finish(model.RunStatusFetchFailed)
		return ErrHalt
	}

	visits := model.VisitCount(terms)
	if visits == 0 {
		s.logger.Warn("no taxonomy data returned, nothing to update",
			"url", run.SourceURL,
			"dimension", run.Dimension,
		)
		run.Finish(model.RunStatusNoData)
		return ErrHalt
	}

	run.Terms = terms
	run.TermCount = len(terms)
	s.logger.Info("taxonomy fetched", "terms", len(terms), "visits", visits)
	return nil
}

// FlattenStep turns the fetched forest into dimension nodes.
type FlattenStep struct {
	flattener *flatten.Flattener
}

// NewFlattenStep creates a new flatten step. A nil generator means random
// UUIDs.
func NewFlattenStep(ids flatten.IDGenerator) *FlattenStep {
	return &FlattenStep{flattener: flatten.New(ids)}
}

// Name returns the step name.
func (s *FlattenStep) Name() string {
	return "flatten"
}

// Do executes the flatten step.
func (s *FlattenStep) Do(_ context.Context, run *model.Run) error {
	run.Nodes = s.flattener.Flatten(run.Dimension, run.Terms)
	run.NodeCount = len(run.Nodes)
	return nil
}

// ArchiveStep moves the previous dimension file out of the way.
type ArchiveStep struct {
	archiver Archiver
	logger   *slog.Logger
}

// NewArchiveStep creates a new archive step.
func NewArchiveStep(archiver Archiver, logger *slog.Logger) *ArchiveStep {
	return &ArchiveStep{archiver: archiver, logger: orDefault(logger)}
}

// Name returns the step name.
func (s *ArchiveStep) Name() string {
	return "archive"
}

// Do executes the archive step. A rotation failure is fatal.
func (s *ArchiveStep) Do(_ context.Context, run *model.Run) error {
	result, err := s.archiver.Rotate(run.OutputDir, run.FileName)
	if err != nil {
		run.Finish(model.RunStatusFailed)
		return &FatalError{Op: "rotate", Err: err}
	}

	if result.Backup != nil {
		run.BackupCreated = result.Backup.Name
	}
	for _, b := range result.Pruned {
		run.BackupsPruned = append(run.BackupsPruned, b.Name)
	}
	return nil
}

// WriteStep writes the new dimension file and rolls back to the newest
// backup when that fails.
type WriteStep struct {
	archiver Archiver
	write    DimensionWriter
	logger   *slog.Logger
}

// NewWriteStep creates a new write step. A nil writer means WriteDocument.
func NewWriteStep(archiver Archiver, write DimensionWriter, logger *slog.Logger) *WriteStep {
	if write == nil {
		write = WriteDocument
	}
	return &WriteStep{archiver: archiver, write: write, logger: orDefault(logger)}
}

// Name returns the step name.
func (s *WriteStep) Name() string {
	return "write"
}

// Do executes the write step.
//
// A failed write followed by a successful rollback, or by a rollback that
// found no backup, halts the run. A failed rollback is fatal.
func (s *WriteStep) Do(_ context.Context, run *model.Run) error {
	path := run.OutputPath()

	result, err := s.write(path, run.Dimension, run.Nodes)
	if err == nil {
		run.Checksum = result.Checksum
		run.BytesWritten = result.Bytes
		s.logger.Info("dimension file written",
			"path", path,
			"nodes", run.NodeCount,
			"bytes", result.Bytes,
			"checksum", result.Checksum,
		)
		return nil
	}

	s.logger.Error("failed to write dimension file",
		"op", "write",
		"dir", run.OutputDir,
		"file", run.FileName,
		"path", path,
		"error", err,
	)
	run.SetError(err)

	restored, rbErr := s.archiver.Rollback(run.OutputDir, run.FileName)
	if rbErr != nil {
		run.Finish(model.RunStatusFailed)
		return &FatalError{Op: "rollback", Err: errors.Join(err, rbErr)}
	}
	if restored == nil {
		run.Finish(model.RunStatusFailed)
		return ErrHalt
	}

	run.RestoredFrom = restored.Name
	run.Finish(model.RunStatusRolledBack)
	s.logger.Info("previous dimension file restored", "backup", restored.Name, "path", path)
	return ErrHalt
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// IDGenerator supplies node ids. Nil means random UUIDs.
	IDGenerator flatten.IDGenerator

	// Writer serializes the dimension file. Nil means WriteDocument.
	Writer DimensionWriter
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineIDGenerator sets the node id generator.
func WithPipelineIDGenerator(ids flatten.IDGenerator) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.IDGenerator = ids
	}
}

// WithPipelineWriter replaces the dimension file writer.
func WithPipelineWriter(w DimensionWriter) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Writer = w
	}
}

// DefaultPipeline creates the crawl pipeline: fetch, flatten, archive and
// write.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineIDGenerator, etc).
func DefaultPipeline(fetcher TaxonomyFetcher, archiver Archiver, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p.AddSteps(
		NewFetchStep(fetcher, p.logger),
		NewFlattenStep(cfg.IDGenerator),
		NewArchiveStep(archiver, p.logger),
		NewWriteStep(archiver, cfg.Writer, p.logger),
	)
	return p
}
