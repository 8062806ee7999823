// Command graphstats computes sampled structural statistics of a large
// undirected graph read from an edge list.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-graphstats/pkg/config"
	"github.com/dd0wney/cluso-graphstats/pkg/graph"
	"github.com/dd0wney/cluso-graphstats/pkg/loader"
	"github.com/dd0wney/cluso-graphstats/pkg/logging"
	"github.com/dd0wney/cluso-graphstats/pkg/metrics"
	"github.com/dd0wney/cluso-graphstats/pkg/pipeline"
	"github.com/dd0wney/cluso-graphstats/pkg/report"
	"github.com/dd0wney/cluso-graphstats/pkg/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
	loader     *config.Loader
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{loader: config.NewLoader()}

	root := &cobra.Command{
		Use:           "graphstats",
		Short:         "Sampled structural analysis of large undirected graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newInfoCmd(opts),
		newVersionCmd(),
	)
	return root
}

// load binds the running command's flags and reads the configuration. An
// edge-list argument overrides input.path.
func (o *rootOptions) load(cmd *cobra.Command, args []string, bindings map[string]string) (*config.Config, error) {
	bindings["log.level"] = "log-level"
	for key, name := range bindings {
		if err := o.loader.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, err
		}
	}

	cfg, err := o.loader.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.Input.Path = args[0]
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if cfg.Input.Path == "" {
		return nil, errors.New("no edge list given: pass a path or set input.path")
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) logging.Logger {
	logger := logging.NewJSONLogger(w, logging.ParseLevel(cfg.Log.Level))
	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}
	return logger
}

func addInputFlags(cmd *cobra.Command, bindings map[string]string) {
	f := cmd.Flags()
	f.StringP("delimiter", "d", "\t", "Field delimiter of the edge list")
	f.String("comment-prefix", "#", "Lines starting with this prefix are ignored")
	f.String("compression", loader.CompressionAuto, "Input compression: auto, none or snappy")
	f.Bool("mmap", true, "Memory-map the input file")

	bindings["input.delimiter"] = "delimiter"
	bindings["input.comment_prefix"] = "comment-prefix"
	bindings["input.compression"] = "compression"
	bindings["input.mmap"] = "mmap"
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	bindings := map[string]string{}
	var useTUI bool

	cmd := &cobra.Command{
		Use:   "analyze [edge-list]",
		Short: "Run every estimator and write the results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd, args, bindings)
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), cfg, useTUI, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	addInputFlags(cmd, bindings)
	f := cmd.Flags()
	f.Int("path-samples", 100, "Sources for the average shortest path")
	f.Int("closeness-samples", 500, "Sources for closeness centrality")
	f.Int("betweenness-samples", 500, "Sources for betweenness centrality")
	f.Int("clustering-samples", 1000, "Nodes for the clustering coefficient")
	f.Int("community-rounds", 10, "Label propagation rounds")
	f.Uint64("seed", 0, "Random seed; 0 draws a fresh one")
	f.String("sampler", "uniform", "Source sampler: first or uniform")
	f.Int("workers", 0, "Worker goroutines; 0 uses every CPU")
	f.Int("top", 10, "Nodes listed per centrality in the summary")
	f.StringP("output", "o", "results", "Output directory")
	f.Bool("plot", true, "Render the degree distribution plot")
	f.String("postgres-dsn", "", "Also load results into this Postgres database")
	f.String("s3-bucket", "", "Also upload results to this S3 bucket")
	f.String("s3-prefix", "", "Key prefix inside the S3 bucket")
	f.String("s3-region", "", "Region of the S3 bucket")
	f.String("s3-endpoint", "", "Endpoint of an S3-compatible store")
	f.String("otlp-endpoint", "", "OTLP gRPC endpoint for traces")
	f.String("metrics-textfile", "", "Write Prometheus metrics to this file")
	f.BoolVar(&useTUI, "tui", false, "Show live progress in the terminal")

	for key, name := range map[string]string{
		"analysis.path_samples":        "path-samples",
		"analysis.closeness_samples":   "closeness-samples",
		"analysis.betweenness_samples": "betweenness-samples",
		"analysis.clustering_samples":  "clustering-samples",
		"analysis.community_rounds":    "community-rounds",
		"analysis.seed":                "seed",
		"analysis.sampler":             "sampler",
		"analysis.workers":             "workers",
		"analysis.top_n":               "top",
		"output.dir":                   "output",
		"output.plot":                  "plot",
		"output.postgres_dsn":          "postgres-dsn",
		"output.s3_bucket":             "s3-bucket",
		"output.s3_prefix":             "s3-prefix",
		"output.s3_region":             "s3-region",
		"output.s3_endpoint":           "s3-endpoint",
		"telemetry.endpoint":           "otlp-endpoint",
		"metrics.textfile":             "metrics-textfile",
	} {
		bindings[key] = name
	}
	return cmd
}

func runAnalyze(ctx context.Context, cfg *config.Config, useTUI bool, stdout, stderr io.Writer) error {
	logOut := stderr
	if useTUI {
		// JSON lines would tear the progress display apart
		logOut = io.Discard
	}
	logger := newLogger(cfg, logOut)

	tracer, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		SampleRate:     cfg.Telemetry.SampleRate,
		Insecure:       cfg.Telemetry.Insecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			logger.Warn("tracer shutdown", logging.Error(err))
		}
	}()

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics.DefaultRegistry()),
		pipeline.WithTracer(tracer),
		pipeline.WithVersion(version),
	}

	var res *pipeline.Result
	if useTUI {
		res, err = runWithProgress(ctx, cfg, opts)
	} else {
		res, err = pipeline.New(cfg, opts...).Run(ctx)
	}
	if res == nil || res.Graph == nil {
		return err
	}

	if renderErr := report.Render(stdout, res.Summary(cfg.Analysis.TopN, cfg.Output.Dir)); renderErr != nil {
		return errors.Join(err, renderErr)
	}
	return err
}

func newInfoCmd(opts *rootOptions) *cobra.Command {
	bindings := map[string]string{}

	cmd := &cobra.Command{
		Use:   "info [edge-list]",
		Short: "Load an edge list and print its size",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd, args, bindings)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			res, err := pipeline.New(cfg, pipeline.WithLogger(logger)).Info(cmd.Context())
			if err != nil {
				return err
			}
			return writeInfo(cmd.OutOrStdout(), res.Info, res.LoadStats)
		},
	}
	addInputFlags(cmd, bindings)
	return cmd
}

func writeInfo(w io.Writer, info graph.Info, stats *loader.Stats) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	doc := struct {
		Graph  graph.Info    `yaml:"graph"`
		Loader *loader.Stats `yaml:"loader"`
	}{info, stats}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode info: %w", err)
	}
	return enc.Close()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "graphstats", version)
		},
	}
}
