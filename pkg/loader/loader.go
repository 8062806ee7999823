// Package loader reads undirected edge lists into a graph.Graph.
//
// Each record holds two node ids separated by a delimiter. Records are
// inserted symmetrically; anything that is not a well-formed pair is skipped
// and counted, never fatal.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang/snappy"
	"golang.org/x/exp/mmap"

	"github.com/dd0wney/cluso-graphstats/pkg/graph"
	"github.com/dd0wney/cluso-graphstats/pkg/logging"
)

// ErrNoEdges is returned when an input yields no usable edge.
var ErrNoEdges = errors.New("edge list contains no valid edges")

// Compression modes
const (
	CompressionAuto   = "auto"
	CompressionNone   = "none"
	CompressionSnappy = "snappy"
)

// cancelCheckInterval is how many records are read between context checks.
const cancelCheckInterval = 1 << 16

// maxLoggedSkips bounds per-line warnings; later skips are only counted.
const maxLoggedSkips = 20

// Options controls parsing.
type Options struct {
	Delimiter     rune   // field separator, '\t' by default
	CommentPrefix string // lines starting with this are ignored; empty disables
	Compression   string // auto, none or snappy
	Mmap          bool   // memory-map uncompressed and compressed files alike
	Logger        logging.Logger
}

// DefaultOptions returns tab-separated, '#'-commented, auto-detected input.
func DefaultOptions() Options {
	return Options{
		Delimiter:     '\t',
		CommentPrefix: "#",
		Compression:   CompressionAuto,
		Mmap:          true,
	}
}

func (o Options) withDefaults() Options {
	if o.Delimiter == 0 {
		o.Delimiter = '\t'
	}
	if o.Compression == "" {
		o.Compression = CompressionAuto
	}
	if o.Logger == nil {
		o.Logger = logging.NewNopLogger()
	}
	return o
}

// Stats describes what the loader saw.
type Stats struct {
	Records  int           `json:"records" yaml:"records"`
	Edges    int           `json:"edges" yaml:"edges"`
	Skipped  int           `json:"skipped" yaml:"skipped"`
	Comments int           `json:"comments" yaml:"comments"`
	Bytes    int64         `json:"bytes" yaml:"bytes"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// LoadFile opens path and loads it. With CompressionAuto, files ending in
// .sz or .snappy are read as framed snappy streams.
func LoadFile(ctx context.Context, path string, opts Options) (*graph.Graph, *Stats, error) {
	opts = opts.withDefaults()
	if opts.Compression == CompressionAuto {
		opts.Compression = detectCompression(path)
	}

	src, closeFn, err := open(path, opts.Mmap)
	if err != nil {
		return nil, nil, fmt.Errorf("open edge list: %w", err)
	}
	defer closeFn()

	opts.Logger = opts.Logger.With(logging.Path(path))
	return Load(ctx, src, opts)
}

// Load parses an edge list from r. opts.Compression must be none or snappy
// here; auto is treated as none.
func Load(ctx context.Context, r io.Reader, opts Options) (*graph.Graph, *Stats, error) {
	opts = opts.withDefaults()
	start := time.Now()

	if opts.Compression == CompressionSnappy {
		r = snappy.NewReader(r)
	}
	counter := &countingReader{r: r}

	cr := csv.NewReader(counter)
	cr.Comma = opts.Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = opts.Delimiter != ' '
	cr.ReuseRecord = true

	b := graph.NewBuilder()
	stats := &Stats{}

	for {
		if stats.Records%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		stats.Records++

		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, stats, fmt.Errorf("read edge list: %w", err)
			}
			skip(opts.Logger, stats, parseErr.StartLine, parseErr.Err.Error())
			continue
		}

		line, _ := cr.FieldPos(0)
		if opts.CommentPrefix != "" && strings.HasPrefix(strings.TrimSpace(record[0]), opts.CommentPrefix) {
			stats.Comments++
			continue
		}
		if opts.Delimiter == ' ' {
			record = dropEmpty(record)
		}
		if len(record) != 2 {
			skip(opts.Logger, stats, line, fmt.Sprintf("expected 2 fields, got %d", len(record)))
			continue
		}

		u, errU := parseNodeID(record[0])
		v, errV := parseNodeID(record[1])
		if errU != nil || errV != nil {
			skip(opts.Logger, stats, line, "invalid node id")
			continue
		}

		b.AddEdge(u, v)
		stats.Edges++
	}

	stats.Bytes = counter.n
	stats.Duration = time.Since(start)

	if stats.Skipped > maxLoggedSkips {
		opts.Logger.Warn("additional malformed records skipped",
			logging.Count(stats.Skipped-maxLoggedSkips))
	}
	if stats.Edges == 0 {
		return nil, stats, ErrNoEdges
	}

	g := b.Build()
	opts.Logger.Info("edge list loaded",
		logging.Int("nodes", g.NodeCount()),
		logging.Int("edges", stats.Edges),
		logging.Int("skipped", stats.Skipped),
		logging.Latency(stats.Duration),
	)
	return g, stats, nil
}

func skip(logger logging.Logger, stats *Stats, line int, reason string) {
	stats.Skipped++
	if stats.Skipped <= maxLoggedSkips {
		logger.Warn("skipping malformed record", logging.Line(line), logging.String("reason", reason))
	}
}

func parseNodeID(field string) (graph.NodeID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(field), 10, 32)
	if err != nil {
		return 0, err
	}
	return graph.NodeID(n), nil
}

func dropEmpty(record []string) []string {
	out := record[:0]
	for _, f := range record {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func detectCompression(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sz", ".snappy":
		return CompressionSnappy
	default:
		return CompressionNone
	}
}

// open returns a reader over the file, memory-mapped when requested.
func open(path string, useMmap bool) (io.Reader, func(), error) {
	if useMmap {
		m, err := mmap.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return io.NewSectionReader(m, 0, int64(m.Len())), func() { _ = m.Close() }, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
