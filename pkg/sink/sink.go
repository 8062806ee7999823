// Package sink persists analysis results: delimited files, a communities
// listing, PostgreSQL tables and S3 objects.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-graphstats/pkg/graph"
)

// Centrality result kinds
const (
	KindDegree      = "degree"
	KindCloseness   = "closeness"
	KindBetweenness = "betweenness"
	KindClustering  = "clustering"
)

// ErrUnknownKind is returned for a centrality kind outside the known set.
var ErrUnknownKind = errors.New("unknown result kind")

// Sink accepts finished results. Implementations are used from a single
// goroutine.
type Sink interface {
	Name() string
	WriteCentrality(ctx context.Context, kind string, scores map[graph.NodeID]float64) error
	WriteDegreeDistribution(ctx context.Context, dist map[int]int) error
	WriteCommunities(ctx context.Context, labels map[graph.NodeID]graph.NodeID) error
	Close(ctx context.Context) error
}

// ManifestWriter is implemented by sinks that can record a run manifest.
type ManifestWriter interface {
	WriteManifest(ctx context.Context, m *Manifest) error
}

func checkKind(kind string) error {
	switch kind {
	case KindDegree, KindCloseness, KindBetweenness, KindClustering:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// WriteObserver is told about every write a Multi performs.
type WriteObserver func(sink, kind string, rows int, err error)

// Multi fans every result out to several sinks. A failing sink does not stop
// the others; all errors are returned joined.
type Multi struct {
	sinks    []Sink
	observer WriteObserver
}

// NewMulti creates a fan-out sink.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Observe registers fn to be called after every write to every sink.
func (m *Multi) Observe(fn WriteObserver) *Multi {
	m.observer = fn
	return m
}

// Name implements Sink.
func (m *Multi) Name() string { return "multi" }

// Sinks returns the wrapped sinks.
func (m *Multi) Sinks() []Sink { return m.sinks }

func (m *Multi) each(kind string, rows int, fn func(s Sink) error) error {
	var errs []error
	for _, s := range m.sinks {
		err := fn(s)
		if m.observer != nil {
			m.observer(s.Name(), kind, rows, err)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// WriteCentrality implements Sink.
func (m *Multi) WriteCentrality(ctx context.Context, kind string, scores map[graph.NodeID]float64) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	return m.each(kind, len(scores), func(s Sink) error {
		return s.WriteCentrality(ctx, kind, scores)
	})
}

// WriteDegreeDistribution implements Sink.
func (m *Multi) WriteDegreeDistribution(ctx context.Context, dist map[int]int) error {
	return m.each("degree_distribution", len(dist), func(s Sink) error {
		return s.WriteDegreeDistribution(ctx, dist)
	})
}

// WriteCommunities implements Sink.
func (m *Multi) WriteCommunities(ctx context.Context, labels map[graph.NodeID]graph.NodeID) error {
	return m.each("communities", len(labels), func(s Sink) error {
		return s.WriteCommunities(ctx, labels)
	})
}

// WriteManifest forwards to every wrapped sink that can record a manifest.
func (m *Multi) WriteManifest(ctx context.Context, manifest *Manifest) error {
	var errs []error
	for _, s := range m.sinks {
		if mw, ok := s.(ManifestWriter); ok {
			if err := mw.WriteManifest(ctx, manifest); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink, in order.
func (m *Multi) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
