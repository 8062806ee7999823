package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dd0wney/cluso-graphstats/pkg/logging"
	"github.com/dd0wney/cluso-graphstats/pkg/validation"
)

// EnvPrefix is prepended to every environment override, e.g.
// GRAPHSTATS_ANALYSIS_SEED.
const EnvPrefix = "GRAPHSTATS"

// ErrInvalid wraps every configuration validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all run configuration.
type Config struct {
	Input     InputConfig     `mapstructure:"input" yaml:"input"`
	Analysis  AnalysisConfig  `mapstructure:"analysis" yaml:"analysis"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

// InputConfig describes the edge-list source.
type InputConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Delimiter     string `mapstructure:"delimiter" yaml:"delimiter" validate:"delimiter"`
	CommentPrefix string `mapstructure:"comment_prefix" yaml:"comment_prefix"`
	Compression   string `mapstructure:"compression" yaml:"compression" validate:"oneof=auto none snappy"`
	Mmap          bool   `mapstructure:"mmap" yaml:"mmap"`
}

// AnalysisConfig holds sample sizes and the knobs of the estimators.
type AnalysisConfig struct {
	PathSamples        int    `mapstructure:"path_samples" yaml:"path_samples" validate:"min=0"`
	ClosenessSamples   int    `mapstructure:"closeness_samples" yaml:"closeness_samples" validate:"min=0"`
	BetweennessSamples int    `mapstructure:"betweenness_samples" yaml:"betweenness_samples" validate:"min=0"`
	ClusteringSamples  int    `mapstructure:"clustering_samples" yaml:"clustering_samples" validate:"min=0"`
	CommunityRounds    int    `mapstructure:"community_rounds" yaml:"community_rounds" validate:"min=0"`
	Seed               uint64 `mapstructure:"seed" yaml:"seed"`
	Sampler            string `mapstructure:"sampler" yaml:"sampler" validate:"oneof=first uniform"`
	Workers            int    `mapstructure:"workers" yaml:"workers" validate:"min=0"`
	TopN               int    `mapstructure:"top_n" yaml:"top_n" validate:"min=0"`
}

// OutputConfig selects where results are written.
type OutputConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir" validate:"required"`
	Plot        bool   `mapstructure:"plot" yaml:"plot"`
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"-"`
	S3Bucket    string `mapstructure:"s3_bucket" yaml:"s3_bucket"`
	S3Prefix    string `mapstructure:"s3_prefix" yaml:"s3_prefix"`
	S3Region    string `mapstructure:"s3_region" yaml:"s3_region"`
	S3Endpoint  string `mapstructure:"s3_endpoint" yaml:"s3_endpoint"`

	// Static S3 credentials; normally supplied through the environment.
	S3AccessKeyID     string `mapstructure:"s3_access_key_id" yaml:"-"`
	S3SecretAccessKey string `mapstructure:"s3_secret_access_key" yaml:"-"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// TelemetryConfig configures tracing. An empty endpoint disables export.
type TelemetryConfig struct {
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	ServiceName string  `mapstructure:"service_name" yaml:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure" yaml:"insecure"`
}

// MetricsConfig configures the Prometheus textfile written after a run.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// Default returns the built-in configuration. The sample sizes match the
// reference runs: 100 path sources, 500 closeness and 500 betweenness
// sources.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Delimiter:     "\t",
			CommentPrefix: "#",
			Compression:   "auto",
			Mmap:          true,
		},
		Analysis: AnalysisConfig{
			PathSamples:        100,
			ClosenessSamples:   500,
			BetweennessSamples: 500,
			ClusteringSamples:  1000,
			CommunityRounds:    10,
			Sampler:            "uniform",
			TopN:               10,
		},
		Output: OutputConfig{
			Dir:  "results",
			Plot: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "graphstats",
			SampleRate:  1.0,
		},
	}
}

// setDefaults registers Default() with v so that environment variables are
// picked up for every key, not only for keys present in a config file.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("input.path", d.Input.Path)
	v.SetDefault("input.delimiter", d.Input.Delimiter)
	v.SetDefault("input.comment_prefix", d.Input.CommentPrefix)
	v.SetDefault("input.compression", d.Input.Compression)
	v.SetDefault("input.mmap", d.Input.Mmap)
	v.SetDefault("analysis.path_samples", d.Analysis.PathSamples)
	v.SetDefault("analysis.closeness_samples", d.Analysis.ClosenessSamples)
	v.SetDefault("analysis.betweenness_samples", d.Analysis.BetweennessSamples)
	v.SetDefault("analysis.clustering_samples", d.Analysis.ClusteringSamples)
	v.SetDefault("analysis.community_rounds", d.Analysis.CommunityRounds)
	v.SetDefault("analysis.seed", d.Analysis.Seed)
	v.SetDefault("analysis.sampler", d.Analysis.Sampler)
	v.SetDefault("analysis.workers", d.Analysis.Workers)
	v.SetDefault("analysis.top_n", d.Analysis.TopN)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.plot", d.Output.Plot)
	v.SetDefault("output.postgres_dsn", d.Output.PostgresDSN)
	v.SetDefault("output.s3_bucket", d.Output.S3Bucket)
	v.SetDefault("output.s3_prefix", d.Output.S3Prefix)
	v.SetDefault("output.s3_region", d.Output.S3Region)
	v.SetDefault("output.s3_endpoint", d.Output.S3Endpoint)
	v.SetDefault("output.s3_access_key_id", d.Output.S3AccessKeyID)
	v.SetDefault("output.s3_secret_access_key", d.Output.S3SecretAccessKey)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
	v.SetDefault("telemetry.sample_rate", d.Telemetry.SampleRate)
	v.SetDefault("telemetry.insecure", d.Telemetry.Insecure)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
}

// Loader reads configuration from, in increasing precedence: defaults, an
// optional YAML file, GRAPHSTATS_* environment variables, and bound flags.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults and environment binding set up.
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlag binds a command-line flag to a config key such as
// "analysis.seed". A flag the user did not set does not override lower
// layers.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: flag not found", key)
	}
	if err := l.v.BindPFlag(key, flag); err != nil {
		return fmt.Errorf("bind %s: %w", key, err)
	}
	return nil
}

// Load reads the config file at path (skipped when path is empty), merges
// all layers and validates the result.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is a convenience wrapper around NewLoader().Load(path).
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Validate checks struct tags first, then cross-field rules.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	cv := validation.NewConfigValidator("config")
	cv.RangeFloat("telemetry.sample_rate", c.Telemetry.SampleRate, 0, 1).
		When(c.Output.S3Bucket != "", func(v *validation.ConfigValidator) {
			v.Required("output.s3_region", c.Output.S3Region)
		}).
		When(c.Output.S3AccessKeyID != "", func(v *validation.ConfigValidator) {
			v.Required("output.s3_secret_access_key", c.Output.S3SecretAccessKey)
		}).
		Custom("log.level", func() error {
			_, err := logging.ParseLevelStrict(c.Log.Level)
			return err
		}).
		Custom("input.comment_prefix", func() error {
			if c.Input.CommentPrefix != "" && strings.Contains(c.Input.CommentPrefix, c.Input.Delimiter) {
				return errors.New("must not contain the delimiter")
			}
			return nil
		})
	if err := cv.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Workers returns the configured worker count, defaulting to NumCPU when
// unset.
func (c *Config) Workers(numCPU int) int {
	return validation.DefaultOrInt(c.Analysis.Workers, numCPU)
}

// Warnings returns non-fatal observations about the configuration, such as
// sample sizes of zero that turn an estimator into a no-op.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Analysis.PathSamples == 0 {
		warnings = append(warnings, "analysis.path_samples is 0; average path length will be 0")
	}
	if c.Analysis.ClosenessSamples == 0 {
		warnings = append(warnings, "analysis.closeness_samples is 0; closeness will be empty")
	}
	if c.Analysis.BetweennessSamples == 0 {
		warnings = append(warnings, "analysis.betweenness_samples is 0; betweenness will be all zero")
	}
	if c.Analysis.Seed == 0 {
		warnings = append(warnings, "analysis.seed is 0; a fresh seed is drawn for this run")
	}
	return warnings
}
