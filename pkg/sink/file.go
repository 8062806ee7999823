package sink

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-graphstats/pkg/algorithms"
	"github.com/dd0wney/cluso-graphstats/pkg/graph"
)

// File names written by FileSink
const (
	DegreeDistributionFile = "degree_distribution.csv"
	CommunitiesFile        = "communities.txt"
	ManifestFile           = "manifest.yaml"
)

// CentralityFile returns the CSV name used for a centrality kind.
func CentralityFile(kind string) string {
	return kind + "_centrality.csv"
}

// FileSink writes results as CSV and text files under one directory. Rows
// are sorted by key so identical results give identical files.
type FileSink struct {
	dir   string
	files []string
}

// NewFileSink creates dir if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// Name implements Sink.
func (f *FileSink) Name() string { return "file" }

// Dir returns the output directory.
func (f *FileSink) Dir() string { return f.dir }

// Track registers a file produced elsewhere in the output directory, such as
// a plot, so that uploaders pick it up.
func (f *FileSink) Track(path string) {
	if !slices.Contains(f.files, path) {
		f.files = append(f.files, path)
	}
}

// Files returns the paths written so far, in write order.
func (f *FileSink) Files() []string { return slices.Clone(f.files) }

// WriteCentrality writes "Node,Centrality" rows ordered by node id.
func (f *FileSink) WriteCentrality(_ context.Context, kind string, scores map[graph.NodeID]float64) error {
	if err := checkKind(kind); err != nil {
		return err
	}

	nodes := make([]graph.NodeID, 0, len(scores))
	for id := range scores {
		nodes = append(nodes, id)
	}
	slices.Sort(nodes)

	return f.writeCSV(CentralityFile(kind), []string{"Node", "Centrality"}, func(w *csv.Writer) error {
		for _, id := range nodes {
			row := []string{
				strconv.FormatUint(uint64(id), 10),
				strconv.FormatFloat(scores[id], 'f', -1, 64),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteDegreeDistribution writes "Degree,Count" rows ordered by degree.
func (f *FileSink) WriteDegreeDistribution(_ context.Context, dist map[int]int) error {
	degrees := make([]int, 0, len(dist))
	for d := range dist {
		degrees = append(degrees, d)
	}
	slices.Sort(degrees)

	return f.writeCSV(DegreeDistributionFile, []string{"Degree", "Count"}, func(w *csv.Writer) error {
		for _, d := range degrees {
			if err := w.Write([]string{strconv.Itoa(d), strconv.Itoa(dist[d])}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteCommunities writes one "Community <label>: [members]" line per
// community, largest first.
func (f *FileSink) WriteCommunities(_ context.Context, labels map[graph.NodeID]graph.NodeID) error {
	return f.write(CommunitiesFile, func(w *bufio.Writer) error {
		for _, c := range algorithms.GroupCommunities(labels) {
			if _, err := fmt.Fprintf(w, "Community %d: %s\n", c.Label, formatMembers(c.Nodes)); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteManifest writes manifest.yaml.
func (f *FileSink) WriteManifest(_ context.Context, m *Manifest) error {
	return f.write(ManifestFile, func(w *bufio.Writer) error {
		return m.Encode(w)
	})
}

// Close implements Sink. Files are closed as they are written.
func (f *FileSink) Close(context.Context) error { return nil }

func (f *FileSink) writeCSV(name string, header []string, rows func(w *csv.Writer) error) error {
	return f.write(name, func(bw *bufio.Writer) error {
		w := csv.NewWriter(bw)
		if err := w.Write(header); err != nil {
			return err
		}
		if err := rows(w); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	})
}

func (f *FileSink) write(name string, body func(w *bufio.Writer) error) error {
	path := filepath.Join(f.dir, name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}

	w := bufio.NewWriter(file)
	if err := body(w); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("flush %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}

	f.Track(path)
	return nil
}

func formatMembers(nodes []graph.NodeID) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, id := range nodes {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	sb.WriteByte(']')
	return sb.String()
}
