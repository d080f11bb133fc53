// Package app wires configuration to the reader, the pipeline and the
// summary. The CLI and the HTTP API both go through Cleaner.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"studentetl/internal/config"
	"studentetl/internal/datasource"
	"studentetl/internal/parser"
	"studentetl/internal/pipeline"
	"studentetl/internal/schema"
	"studentetl/internal/summary"
	"studentetl/pkg/records"
)

// maxWarnings caps how many soft read problems an Outcome keeps verbatim.
const maxWarnings = 20

// Outcome is one cleaned upload.
type Outcome struct {
	Source string
	Kind   parser.Kind

	// Warnings lists the first soft read problems (malformed lines, extra
	// cells); WarningCount counts all of them.
	Warnings     []string
	WarningCount int

	Result  pipeline.Result
	Summary summary.Summary
}

// Recognized reports whether the dataset matched a schema and the run
// completed. A run stopped by its context is not recognized even when the
// tag was already decided.
func (o Outcome) Recognized() bool {
	return o.Result.Tag != schema.Unrecognized && o.Result.Diagnostic == nil
}

// Filtered narrows Records and recomputes Summary for f. Stats keep
// describing the whole run. An inactive filter returns o unchanged.
func (o Outcome) Filtered(f summary.Filter) Outcome {
	if !f.Active() || !o.Recognized() {
		return o
	}
	o.Result.Records = f.Apply(o.Result.Records)
	o.Summary = summary.Compute(o.Result.Tag, o.Result.Records)
	return o
}

// Cleaner runs uploads through the configured pipeline.
type Cleaner struct {
	parser config.Parser
	pipe   *pipeline.Pipeline
	log    *slog.Logger
}

// New builds a Cleaner from cfg. Extra options are applied after the ones
// derived from cfg.
func New(cfg config.Config, log *slog.Logger, extra ...pipeline.Option) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	opts := []pipeline.Option{
		pipeline.WithWorkers(cfg.Pipeline.Workers),
		pipeline.WithDedupe(cfg.Pipeline.Dedupe),
		pipeline.WithDedupeKeys(cfg.Pipeline.DedupeKeys...),
		pipeline.WithDefaultUniversity(cfg.Pipeline.DefaultUniversity),
		pipeline.WithJob(cfg.Job),
		pipeline.WithLogger(log),
	}
	return &Cleaner{
		parser: cfg.Parser,
		pipe:   pipeline.New(append(opts, extra...)...),
		log:    log.With(slog.String("component", "app")),
	}
}

// CleanSource opens src and cleans it.
func (c *Cleaner) CleanSource(ctx context.Context, src datasource.Source) (Outcome, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return Outcome{Source: src.Name()}, err
	}
	defer rc.Close()
	return c.Clean(ctx, src.Name(), rc)
}

// Clean reads the upload named name from body and runs the pipeline. The
// error covers only reading: an unrecognized dataset is a successful
// Outcome whose Result carries the Diagnostic.
func (c *Cleaner) Clean(ctx context.Context, name string, body io.Reader) (Outcome, error) {
	out := Outcome{Source: name}
	kind, err := parser.Resolve(c.parser.Kind, name)
	if err != nil {
		return out, err
	}
	out.Kind = kind

	var mu sync.Mutex
	p, err := parser.New(kind, c.parser.Bag(), func(n int, err error) {
		mu.Lock()
		defer mu.Unlock()
		out.WarningCount++
		if len(out.Warnings) < maxWarnings {
			out.Warnings = append(out.Warnings, fmt.Sprintf("line %d: %v", n, err))
		}
	})
	if err != nil {
		return out, err
	}

	rows, err := p.Parse(ctx, body)
	if err != nil {
		return out, fmt.Errorf("read %s: %w", name, err)
	}
	if out.WarningCount > 0 {
		c.log.WarnContext(ctx, "rows skipped or truncated while reading",
			slog.String("source", name),
			slog.Int("count", out.WarningCount))
	}

	return c.finish(ctx, out, rows), nil
}

// CleanRows runs already-parsed rows.
func (c *Cleaner) CleanRows(ctx context.Context, name string, rows []records.Record) Outcome {
	return c.finish(ctx, Outcome{Source: name}, rows)
}

func (c *Cleaner) finish(ctx context.Context, out Outcome, rows []records.Record) Outcome {
	out.Result = c.pipe.Run(ctx, rows)
	out.Summary = summary.Compute(out.Result.Tag, out.Result.Records)
	return out
}

// IsMismatch reports whether err says the columns fit no schema.
func IsMismatch(err error) bool {
	return errors.Is(err, schema.ErrSchemaMismatch) || errors.Is(err, schema.ErrEmptyInput)
}
