package sink

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-graphstats/pkg/graph"
	"github.com/dd0wney/cluso-graphstats/pkg/loader"
)

// Manifest records what a run did, for humans and for later comparison.
type Manifest struct {
	RunID      string        `yaml:"run_id"`
	Version    string        `yaml:"version,omitempty"`
	StartedAt  time.Time     `yaml:"started_at"`
	FinishedAt time.Time     `yaml:"finished_at"`
	Input      string        `yaml:"input"`
	Sampler    string        `yaml:"sampler"`
	Seed       uint64        `yaml:"seed"`
	Graph      graph.Info    `yaml:"graph"`
	Loader     *loader.Stats `yaml:"loader,omitempty"`
	Results    Results       `yaml:"results"`
	Stages     []StageTiming `yaml:"stages"`
	Config     any           `yaml:"config,omitempty"`
}

// Results holds the scalar outcomes of a run.
type Results struct {
	AveragePathLength float64 `yaml:"average_path_length"`
	PathPairs         int64   `yaml:"path_pairs"`
	Communities       int     `yaml:"communities"`
	Modularity        float64 `yaml:"modularity"`
	Clustering        float64 `yaml:"average_clustering"`
	Components        int     `yaml:"components"`
	LargestComponent  int     `yaml:"largest_component"`
}

// StageTiming is one executed stage.
type StageTiming struct {
	Name     string        `yaml:"name"`
	Status   string        `yaml:"status"`
	Duration time.Duration `yaml:"duration"`
	Error    string        `yaml:"error,omitempty"`
}

// Encode writes m as YAML.
func (m *Manifest) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return enc.Close()
}

// ReadManifest decodes a manifest written by Encode.
func ReadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}
