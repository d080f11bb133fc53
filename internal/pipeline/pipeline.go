// Package pipeline runs the student-record cleaning pipeline over an
// in-memory dataset:
//
//	normalize -> classify -> [dedupe] -> correct+validate -> [impute]
//
// Classification decides which correction rules apply: secondary rows are
// validated only, tertiary rows are validated and then get missing scores
// imputed from their department's median. The package does no I/O.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"studentetl/internal/metrics"
	"studentetl/internal/schema"
	"studentetl/internal/transformer"
	"studentetl/internal/transformer/builtin"
	"studentetl/pkg/records"
)

// Step names used in logs and metrics.
const (
	StepNormalize = "normalize"
	StepClassify  = "classify"
	StepDedupe    = "dedupe"
	StepValidate  = "validate"
	StepImpute    = "impute"
)

// DedupeNone disables duplicate removal.
const DedupeNone = "none"

const rejectSamples = 3

// Stats counts rows through one run.
type Stats struct {
	Input        int           `json:"input"`
	Deduplicated int           `json:"deduplicated"`
	Rejected     int           `json:"rejected"`
	Imputed      int           `json:"imputed"`
	ImputedZero  int           `json:"imputed_zero"`
	Output       int           `json:"output"`
	Samples      []string      `json:"reject_samples,omitempty"`
	Duration     time.Duration `json:"duration_ns"`
}

// Result is the outcome of a run. Records is never nil. Diagnostic is set
// when the dataset could not be processed: schema.ErrEmptyInput, a
// *schema.MismatchError or the context's error.
type Result struct {
	RunID      string
	Tag        schema.Tag
	Records    []records.Record
	Diagnostic error
	Stats      Stats
}

// Pipeline holds run options. It is safe for concurrent use.
type Pipeline struct {
	workers    int
	university string
	dedupe     string
	dedupeKeys []string
	reject     transformer.RejectFunc
	logger     *slog.Logger
	job        string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets how many goroutines the row-independent stages use.
// n <= 1 runs everything on the calling goroutine.
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// WithDefaultUniversity sets the value used for an empty tertiary
// universityname. Empty keeps builtin.DefaultUniversity.
func WithDefaultUniversity(name string) Option {
	return func(p *Pipeline) {
		if name = strings.TrimSpace(name); name != "" {
			p.university = name
		}
	}
}

// WithDedupe enables duplicate-row removal with the given builtin policy
// (keep-first, keep-last, most-complete). "" or DedupeNone disables it.
func WithDedupe(policy string) Option {
	return func(p *Pipeline) { p.dedupe = strings.ToLower(strings.TrimSpace(policy)) }
}

// WithDedupeKeys restricts the duplicate fingerprint to the given columns.
// Names are canonicalized like column headers; blanks are ignored. No keys
// means every column, so only identical rows collapse and the policies can
// only differ in which copy's position survives.
func WithDedupeKeys(keys ...string) Option {
	return func(p *Pipeline) {
		p.dedupeKeys = p.dedupeKeys[:0]
		for _, k := range keys {
			if k = builtin.NormalizeKey(k); k != "" {
				p.dedupeKeys = append(p.dedupeKeys, k)
			}
		}
	}
}

// WithReject installs a sink for rejected rows. It may be called from
// several goroutines when workers > 1. RejectedRow.Index is the position in
// the input slice and Raw the input row.
func WithReject(fn transformer.RejectFunc) Option {
	return func(p *Pipeline) { p.reject = fn }
}

// WithLogger sets the logger; nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithJob sets the job label attached to logs and metrics.
func WithJob(name string) Option {
	return func(p *Pipeline) {
		if name != "" {
			p.job = name
		}
	}
}

// New builds a Pipeline. Defaults: a single worker, no dedupe,
// builtin.DefaultUniversity, slog.Default() and job "studentetl".
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		workers:    1,
		university: builtin.DefaultUniversity,
		logger:     slog.Default(),
		job:        "studentetl",
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run cleans rows. The input rows are not modified. Run never fails: a
// dataset that cannot be processed yields an empty Records slice and a
// Diagnostic.
func (p *Pipeline) Run(ctx context.Context, rows []records.Record) (res Result) {
	started := time.Now()
	res = Result{RunID: uuid.NewString(), Records: []records.Record{}}
	res.Stats.Input = len(rows)
	log := p.logger.With(
		slog.String("component", "pipeline"),
		slog.String("job", p.job),
		slog.String("run_id", res.RunID),
	)

	defer func() {
		res.Stats.Output = len(res.Records)
		res.Stats.Duration = time.Since(started)
		p.report(log, &res)
	}()

	normalized, err := p.stage(ctx, StepNormalize, rows, builtin.Normalize{}, func(_ int, r records.Record) (records.Record, bool) {
		return builtin.NormalizeRow(r), true
	})
	if err != nil {
		res.Diagnostic = err
		return res
	}

	err = p.timed(StepClassify, func() error {
		var err error
		res.Tag, err = schema.ClassifyRows(normalized)
		return err
	})
	if err != nil {
		res.Diagnostic = err
		return res
	}

	// origin maps a position in the working batch back to the input row.
	var origin []int
	if p.dedupe != "" && p.dedupe != DedupeNone {
		_ = p.timed(StepDedupe, func() error {
			origin = builtin.Dedupe{Keys: p.dedupeKeys, Policy: p.dedupe}.Winners(normalized)
			kept := make([]records.Record, len(origin))
			for j, i := range origin {
				kept[j] = normalized[i]
			}
			res.Stats.Deduplicated = len(normalized) - len(kept)
			normalized = kept
			return nil
		})
	}

	samples := newRejectLog(rejectSamples)
	reject := func(r transformer.RejectedRow) {
		if origin != nil {
			r.Index = origin[r.Index]
		}
		r.Raw = rows[r.Index]
		samples.add(r)
		if p.reject != nil {
			p.reject(r)
		}
	}

	var valid []records.Record
	switch res.Tag {
	case schema.SecondaryEducation:
		v := builtin.Secondary{Reject: reject}
		valid, err = p.stage(ctx, StepValidate, normalized, v, v.Row)
	case schema.TertiaryEducation:
		v := builtin.Tertiary{University: p.university, Reject: reject}
		valid, err = p.stage(ctx, StepValidate, normalized, v, v.Row)
	}
	res.Stats.Rejected = samples.count()
	res.Stats.Samples = samples.first()
	if err != nil {
		res.Diagnostic = err
		return res
	}

	if res.Tag == schema.TertiaryEducation {
		impute := builtin.Impute{OnImpute: func(_ string, defined bool) {
			res.Stats.Imputed++
			if !defined {
				res.Stats.ImputedZero++
			}
		}}
		if valid, err = p.stage(ctx, StepImpute, valid, impute, nil); err != nil {
			res.Diagnostic = err
			return res
		}
	}

	// A sequential stage or a parallel chunk already past its last check
	// finishes its batch; the run still reports the cancellation.
	if err := ctx.Err(); err != nil {
		res.Diagnostic = err
		return res
	}
	res.Records = valid
	return res
}

// stage runs one row stage. With a single worker, or when the stage has no
// per-row form, t handles the whole batch on the calling goroutine;
// otherwise row is spread over the workers by transformer.MapRows. The
// context is checked before the stage starts.
func (p *Pipeline) stage(ctx context.Context, step string, in []records.Record, t transformer.Transformer, row transformer.MapFunc) ([]records.Record, error) {
	var out []records.Record
	err := p.timed(step, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.workers <= 1 || row == nil {
			out = t.Apply(in)
			return nil
		}
		var err error
		out, err = transformer.MapRows(ctx, p.workers, in, row)
		return err
	})
	return out, err
}

// timed runs fn as one pipeline step and records its metrics.
func (p *Pipeline) timed(step string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStep(p.job, step, err, time.Since(start))
	return err
}

// report emits the per-run counters and one summary log line.
func (p *Pipeline) report(log *slog.Logger, res *Result) {
	s := res.Stats
	metrics.RecordRow(p.job, "processed", int64(s.Input))
	metrics.RecordRow(p.job, "deduplicated", int64(s.Deduplicated))
	metrics.RecordRow(p.job, "rejected", int64(s.Rejected))
	metrics.RecordRow(p.job, "imputed", int64(s.Imputed))
	metrics.RecordRow(p.job, "imputed_zero", int64(s.ImputedZero))
	metrics.RecordRow(p.job, "output", int64(s.Output))
	metrics.RecordRun(p.job, res.Tag.String())

	for i, msg := range s.Samples {
		log.Debug("row rejected", slog.Int("sample", i+1), slog.String("reason", msg))
	}

	attrs := []any{
		slog.String("schema", res.Tag.String()),
		slog.Int("input", s.Input),
		slog.Int("deduplicated", s.Deduplicated),
		slog.Int("rejected", s.Rejected),
		slog.Int("imputed", s.Imputed),
		slog.Int("output", s.Output),
		slog.Duration("took", s.Duration),
	}
	if res.Diagnostic != nil {
		log.Warn("run finished without records", append(attrs, slog.String("diagnostic", res.Diagnostic.Error()))...)
		return
	}
	log.Info("run finished", attrs...)
}
