// Package pipeline runs a complete analysis: it loads an edge list, runs every
// estimator as a named stage, and hands the results to the configured sinks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/dd0wney/cluso-graphstats/pkg/algorithms"
	"github.com/dd0wney/cluso-graphstats/pkg/config"
	"github.com/dd0wney/cluso-graphstats/pkg/loader"
	"github.com/dd0wney/cluso-graphstats/pkg/logging"
	"github.com/dd0wney/cluso-graphstats/pkg/metrics"
	"github.com/dd0wney/cluso-graphstats/pkg/sink"
	"github.com/dd0wney/cluso-graphstats/pkg/telemetry"
)

// ErrNoInput is returned when no edge-list path is configured.
var ErrNoInput = errors.New("no input path configured")

// Runner executes analysis runs for one configuration.
type Runner struct {
	cfg     *config.Config
	logger  logging.Logger
	metrics *metrics.Registry
	tracer  *telemetry.Provider
	events  chan<- Event
	extra   []sink.Sink
	version string
	openers sinkOpeners
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics sets the metrics registry. The default is a private registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithTracer sets the tracing provider. The default records nothing.
func WithTracer(p *telemetry.Provider) Option {
	return func(r *Runner) { r.tracer = p }
}

// WithEvents makes the runner report stage transitions on ch. The runner
// never closes ch.
func WithEvents(ch chan<- Event) Option {
	return func(r *Runner) { r.events = ch }
}

// WithSinks adds sinks next to the ones the configuration asks for.
func WithSinks(s ...sink.Sink) Option {
	return func(r *Runner) { r.extra = append(r.extra, s...) }
}

// WithVersion records the program version in the manifest.
func WithVersion(v string) Option {
	return func(r *Runner) { r.version = v }
}

// New creates a runner for cfg.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		logger:  logging.NewNopLogger(),
		tracer:  telemetry.Noop(),
		openers: defaultOpeners(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = metrics.NewRegistry()
	}
	return r
}

// run is the state of one Run call.
type run struct {
	*Runner
	logger  logging.Logger
	res     *Result
	started time.Time
}

// stageFunc does the work of one stage and may return extra log fields.
type stageFunc func(ctx context.Context, span trace.Span) ([]logging.Field, error)

// stage runs fn as the named stage: it opens a span, times it for the log
// and the metrics, records it in the result, and reports it on the event
// channel.
func (r *run) stage(ctx context.Context, name string, fn stageFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.emit(ctx, Event{Stage: name, State: StateStarted})

	ctx, span := r.tracer.StartStage(ctx, name)
	defer span.End()

	timer := logging.StartTimer(r.logger, "stage finished", logging.Stage(name))
	fields, err := fn(ctx, span)

	var elapsed time.Duration
	status, state := metrics.StatusSuccess, StateDone
	timing := sink.StageTiming{Name: name}
	if err != nil {
		elapsed = timer.EndError(err)
		telemetry.RecordError(span, err)
		status, state = metrics.StatusError, StateFailed
		timing.Error = err.Error()
	} else {
		elapsed = timer.End(fields...)
	}

	timing.Status = status
	timing.Duration = elapsed
	r.res.Stages = append(r.res.Stages, timing)
	r.metrics.RecordStage(name, status, elapsed)
	r.emit(ctx, Event{Stage: name, State: state, Elapsed: elapsed, Err: err})
	return err
}

// skip records a stage that was not run.
func (r *run) skip(ctx context.Context, name, reason string) {
	r.logger.Info("stage skipped", logging.Stage(name), logging.String("reason", reason))
	r.res.Stages = append(r.res.Stages, sink.StageTiming{Name: name, Status: metrics.StatusSkipped})
	r.metrics.RecordStage(name, metrics.StatusSkipped, 0)
	r.emit(ctx, Event{Stage: name, State: StateSkipped})
}

func (r *Runner) loaderOptions(logger logging.Logger) loader.Options {
	in := r.cfg.Input
	delim, _ := utf8.DecodeRuneInString(in.Delimiter)
	return loader.Options{
		Delimiter:     delim,
		CommentPrefix: in.CommentPrefix,
		Compression:   in.Compression,
		Mmap:          in.Mmap,
		Logger:        logger,
	}
}

// seed returns the configured seed, or a fresh one when it is 0.
func (r *Runner) seed() uint64 {
	if s := r.cfg.Analysis.Seed; s != 0 {
		return s
	}
	for {
		if s := rand.Uint64(); s != 0 {
			return s
		}
	}
}

func (r *Runner) sampler(seed uint64) algorithms.Sampler {
	if r.cfg.Analysis.Sampler == "first" {
		return algorithms.FirstK{}
	}
	return algorithms.UniformSample{Seed: seed}
}

func (r *Runner) newRun(runID string) *run {
	return &run{
		Runner:  r,
		logger:  r.logger.With(logging.RunID(runID)),
		res:     newResult(runID, r.cfg.Input.Path),
		started: time.Now().UTC(),
	}
}

// load runs the load and info stages.
func (r *run) load(ctx context.Context) error {
	if r.cfg.Input.Path == "" {
		return ErrNoInput
	}

	err := r.stage(ctx, StageLoad, func(ctx context.Context, span trace.Span) ([]logging.Field, error) {
		g, stats, err := loader.LoadFile(ctx, r.cfg.Input.Path, r.loaderOptions(r.logger))
		r.res.LoadStats = stats
		if stats != nil {
			r.metrics.RecordLoad(stats.Edges, stats.Skipped, stats.Comments, stats.Bytes, stats.Duration)
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", r.cfg.Input.Path, err)
		}
		r.res.Graph = g
		return []logging.Field{logging.Count(stats.Edges), logging.Int("skipped", stats.Skipped)}, nil
	})
	if err != nil {
		return err
	}

	return r.stage(ctx, StageInfo, func(_ context.Context, span trace.Span) ([]logging.Field, error) {
		r.res.Info = r.res.Graph.Info()
		r.metrics.RecordGraph(r.res.Info)
		telemetry.RecordGraph(span, r.res.Info.Nodes, r.res.Info.Edges)
		return []logging.Field{
			logging.Int("nodes", r.res.Info.Nodes),
			logging.Int("edges", r.res.Info.Edges),
		}, nil
	})
}

// Info loads the graph and reports its shape without running any
// estimator.
func (r *Runner) Info(ctx context.Context) (*Result, error) {
	rn := r.newRun(uuid.NewString())
	if err := rn.load(ctx); err != nil {
		return rn.res, err
	}
	return rn.res, nil
}

// Run executes a full analysis. Analysis stages never fail on graph
// content; errors come from loading, from sinks, or from ctx.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	rn := r.newRun(runID)
	rn.res.Seed = r.seed()
	sampler := r.sampler(rn.res.Seed)
	rn.res.Sampler = sampler.String()

	ctx, span := r.tracer.StartRun(ctx, runID, r.cfg.Input.Path)
	defer span.End()

	rn.logger.Info("run started",
		logging.Path(r.cfg.Input.Path),
		logging.Seed(rn.res.Seed),
		logging.String("sampler", rn.res.Sampler))

	if err := rn.load(ctx); err != nil {
		telemetry.RecordError(span, err)
		return rn.res, err
	}

	if err := rn.analyze(ctx, sampler); err != nil {
		telemetry.RecordError(span, err)
		return rn.res, err
	}

	err := rn.publish(ctx)
	telemetry.RecordError(span, err)
	if err == nil {
		rn.logger.Info("run finished", logging.Duration("elapsed", time.Since(rn.started)))
	}
	return rn.res, err
}

func (r *Runner) workers() int {
	return r.cfg.Workers(runtime.NumCPU())
}
