package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/dd0wney/cluso-graphstats/pkg/algorithms"
	"github.com/dd0wney/cluso-graphstats/pkg/logging"
	"github.com/dd0wney/cluso-graphstats/pkg/report"
	"github.com/dd0wney/cluso-graphstats/pkg/sink"
	"github.com/dd0wney/cluso-graphstats/pkg/telemetry"
)

// analyze runs every estimator over the loaded graph. Estimators cannot
// fail, so the only error is a cancelled context.
func (r *run) analyze(ctx context.Context, sampler algorithms.Sampler) error {
	g := r.res.Graph
	a := r.cfg.Analysis
	opts := []algorithms.Option{
		algorithms.WithSampler(sampler),
		algorithms.WithWorkers(r.workers()),
	}

	err := r.stage(ctx, StagePath, func(_ context.Context, span trace.Span) ([]logging.Field, error) {
		total, pairs := algorithms.PathLengthTotals(g, a.PathSamples, opts...)
		r.res.PathPairs = pairs
		if pairs > 0 {
			r.res.AveragePathLength = float64(total) / float64(pairs)
		}
		sources := min(max(a.PathSamples, 0), g.NodeCount())
		r.metrics.RecordTraversals("path", sources)
		r.metrics.RecordPathLength(r.res.AveragePathLength)
		span.SetAttributes(telemetry.AttrSampleSize.Int(sources))
		return []logging.Field{
			logging.SampleSize(sources),
			logging.Float64("average", r.res.AveragePathLength),
		}, nil
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, StageDegree, func(context.Context, trace.Span) ([]logging.Field, error) {
		r.res.Degree = algorithms.DegreeDistribution(g)
		return []logging.Field{logging.Count(len(r.res.Degree))}, nil
	})
	if err != nil {
		return err
	}

	if err := r.plot(ctx); err != nil {
		return err
	}

	err = r.stage(ctx, StageCommunities, func(_ context.Context, span trace.Span) ([]logging.Field, error) {
		r.res.Labels = algorithms.DetectCommunities(g, a.CommunityRounds, r.res.Seed)
		r.res.Communities = algorithms.GroupCommunities(r.res.Labels)
		r.res.Modularity = algorithms.Modularity(g, r.res.Labels)
		r.metrics.RecordCommunities(len(r.res.Communities), r.res.Modularity)
		span.SetAttributes(telemetry.AttrCount.Int(len(r.res.Communities)))
		return []logging.Field{
			logging.Count(len(r.res.Communities)),
			logging.Float64("modularity", r.res.Modularity),
		}, nil
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, StageComponents, func(_ context.Context, span trace.Span) ([]logging.Field, error) {
		r.res.Components = algorithms.ConnectedComponents(g)
		span.SetAttributes(telemetry.AttrCount.Int(r.res.Components.Count))
		return []logging.Field{
			logging.Count(r.res.Components.Count),
			logging.Int("largest", r.res.Components.Largest),
		}, nil
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, StageClustering, func(_ context.Context, span trace.Span) ([]logging.Field, error) {
		scores := algorithms.ClusteringCoefficient(g, a.ClusteringSamples, opts...)
		r.res.Centrality[sink.KindClustering] = scores
		r.res.Clustering = report.Summarize(scores).Mean
		r.metrics.RecordClustering(r.res.Clustering)
		span.SetAttributes(telemetry.AttrSampleSize.Int(len(scores)))
		return []logging.Field{
			logging.SampleSize(len(scores)),
			logging.Float64("average", r.res.Clustering),
		}, nil
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, StageDegreeCent, func(context.Context, trace.Span) ([]logging.Field, error) {
		r.res.Centrality[sink.KindDegree] = algorithms.DegreeCentrality(g)
		return nil, nil
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, StageCloseness, func(_ context.Context, span trace.Span) ([]logging.Field, error) {
		scores := algorithms.ClosenessCentrality(g, a.ClosenessSamples, opts...)
		r.res.Centrality[sink.KindCloseness] = scores
		r.metrics.RecordTraversals("closeness", len(scores))
		span.SetAttributes(telemetry.AttrSampleSize.Int(len(scores)))
		return []logging.Field{logging.SampleSize(len(scores))}, nil
	})
	if err != nil {
		return err
	}

	return r.stage(ctx, StageBetweenness, func(_ context.Context, span trace.Span) ([]logging.Field, error) {
		r.res.Centrality[sink.KindBetweenness] = algorithms.BetweennessCentrality(g, a.BetweennessSamples, opts...)
		sources := min(max(a.BetweennessSamples, 0), g.NodeCount())
		r.metrics.RecordTraversals("betweenness", sources)
		span.SetAttributes(telemetry.AttrSampleSize.Int(sources))
		return []logging.Field{logging.SampleSize(sources)}, nil
	})
}

// plot renders the degree distribution next to the other output files. A
// distribution with nothing on log-log axes is skipped, not failed.
func (r *run) plot(ctx context.Context) error {
	if !r.cfg.Output.Plot {
		r.skip(ctx, StagePlot, "disabled")
		return nil
	}
	if len(r.res.Degree) == 0 {
		r.skip(ctx, StagePlot, "empty degree distribution")
		return nil
	}

	path := filepath.Join(r.cfg.Output.Dir, report.PlotFile)
	err := r.stage(ctx, StagePlot, func(context.Context, trace.Span) ([]logging.Field, error) {
		if err := ensureDir(r.cfg.Output.Dir); err != nil {
			return nil, err
		}
		err := report.PlotDegreeDistribution(path, r.res.Degree)
		if errors.Is(err, report.ErrNothingToPlot) {
			return []logging.Field{logging.String("note", "only isolated nodes")}, nil
		}
		if err != nil {
			return nil, err
		}
		r.res.PlotPath = path
		return []logging.Field{logging.Path(path)}, nil
	})
	if err != nil && ctx.Err() != nil {
		return err
	}
	// a failed plot is recorded on the stage and does not stop the run
	return nil
}

// publish writes every result to the sinks, then the manifest, closes the
// sinks and finally writes the metrics textfile. Sink errors do not stop
// later steps; they are all returned together.
func (r *run) publish(ctx context.Context) error {
	out, files, err := r.openSinks(ctx, r.res.RunID)
	if err != nil {
		_ = r.stage(ctx, StageSinks, func(context.Context, trace.Span) ([]logging.Field, error) {
			return nil, err
		})
		return err
	}
	if r.res.PlotPath != "" {
		files.Track(r.res.PlotPath)
	}
	out.Observe(r.metrics.RecordSinkWrite)

	var errs []error

	sinkErr := r.stage(ctx, StageSinks, func(ctx context.Context, _ trace.Span) ([]logging.Field, error) {
		var errs []error
		for _, kind := range centralityKinds {
			if scores, ok := r.res.Centrality[kind]; ok {
				errs = append(errs, out.WriteCentrality(ctx, kind, scores))
			}
		}
		errs = append(errs,
			out.WriteDegreeDistribution(ctx, r.res.Degree),
			out.WriteCommunities(ctx, r.res.Labels),
		)
		names := make([]string, 0, len(out.Sinks()))
		for _, s := range out.Sinks() {
			names = append(names, s.Name())
		}
		return []logging.Field{logging.Any("sinks", names)}, errors.Join(errs...)
	})
	errs = append(errs, sinkErr)

	manifestErr := r.stage(ctx, StageManifest, func(ctx context.Context, _ trace.Span) ([]logging.Field, error) {
		r.res.Manifest = r.manifest()
		return []logging.Field{logging.Path(filepath.Join(files.Dir(), sink.ManifestFile))},
			out.WriteManifest(ctx, r.res.Manifest)
	})
	errs = append(errs, manifestErr)

	// Close uploads to object storage, so it must follow the manifest.
	if err := out.Close(ctx); err != nil {
		r.logger.Error("closing sinks", logging.Error(err))
		errs = append(errs, err)
	}

	if path := r.cfg.Metrics.Textfile; path != "" {
		err := r.stage(ctx, StageMetrics, func(ctx context.Context, _ trace.Span) ([]logging.Field, error) {
			r.metrics.UpdateSystemMetrics(ctx)
			return []logging.Field{logging.Path(path)}, r.metrics.WriteTextfile(path)
		})
		errs = append(errs, err)
	} else {
		r.skip(ctx, StageMetrics, "no textfile configured")
	}

	return errors.Join(errs...)
}

// manifest snapshots the run. Stage timings cover everything up to the
// manifest stage itself.
func (r *run) manifest() *sink.Manifest {
	return &sink.Manifest{
		RunID:      r.res.RunID,
		Version:    r.version,
		StartedAt:  r.started,
		FinishedAt: time.Now().UTC(),
		Input:      r.res.Input,
		Sampler:    r.res.Sampler,
		Seed:       r.res.Seed,
		Graph:      r.res.Info,
		Loader:     r.res.LoadStats,
		Results:    r.res.results(),
		Stages:     append([]sink.StageTiming(nil), r.res.Stages...),
		Config:     r.cfg,
	}
}
