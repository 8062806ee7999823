package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dd0wney/cluso-graphstats/pkg/config"
	"github.com/dd0wney/cluso-graphstats/pkg/logging"
	"github.com/dd0wney/cluso-graphstats/pkg/sink"
)

// sinkOpeners builds the remote sinks. Tests replace them to avoid network
// access.
type sinkOpeners struct {
	postgres func(ctx context.Context, dsn, runID string) (sink.Sink, error)
	s3       func(ctx context.Context, local *sink.FileSink, out config.OutputConfig, runID string) (sink.Sink, error)
}

func defaultOpeners() sinkOpeners {
	return sinkOpeners{
		postgres: func(ctx context.Context, dsn, runID string) (sink.Sink, error) {
			return sink.NewPostgresSink(ctx, dsn, runID)
		},
		s3: func(ctx context.Context, local *sink.FileSink, out config.OutputConfig, runID string) (sink.Sink, error) {
			return sink.NewS3Sink(ctx, local, sink.S3Options{
				Bucket:          out.S3Bucket,
				Prefix:          out.S3Prefix,
				Region:          out.S3Region,
				Endpoint:        out.S3Endpoint,
				AccessKeyID:     out.S3AccessKeyID,
				SecretAccessKey: out.S3SecretAccessKey,
			}, runID)
		},
	}
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// openSinks assembles the configured sinks. Local files are always written;
// with an S3 bucket they are also uploaded, and with a Postgres DSN results
// are loaded into the database as well. The returned FileSink is the local
// one, for registering extra files.
func (r *run) openSinks(ctx context.Context, runID string) (*sink.Multi, *sink.FileSink, error) {
	out := r.cfg.Output

	files, err := sink.NewFileSink(out.Dir)
	if err != nil {
		return nil, nil, err
	}

	var sinks []sink.Sink
	if out.S3Bucket != "" {
		s3Sink, err := r.openers.s3(ctx, files, out, runID)
		if err != nil {
			return nil, nil, fmt.Errorf("open s3 sink: %w", err)
		}
		sinks = append(sinks, s3Sink)
	} else {
		sinks = append(sinks, files)
	}

	if out.PostgresDSN != "" {
		pg, err := r.openers.postgres(ctx, out.PostgresDSN, runID)
		if err != nil {
			closeErr := closeAll(ctx, sinks)
			return nil, nil, errors.Join(fmt.Errorf("open postgres sink: %w", err), closeErr)
		}
		sinks = append(sinks, pg)
	}

	sinks = append(sinks, r.extra...)
	for _, s := range sinks {
		r.logger.Debug("sink opened", logging.String("sink", s.Name()))
	}
	return sink.NewMulti(sinks...), files, nil
}

func closeAll(ctx context.Context, sinks []sink.Sink) error {
	var errs []error
	for _, s := range sinks {
		errs = append(errs, s.Close(ctx))
	}
	return errors.Join(errs...)
}
