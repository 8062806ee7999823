package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/cluso-graphstats/pkg/graph"
)

// pgConn is the subset of *pgxpool.Pool the sink uses.
type pgConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
	Close()
}

// PostgresSink bulk-loads results into PostgreSQL with COPY. Every row is
// tagged with the run id so several runs can share the tables.
type PostgresSink struct {
	conn  pgConn
	runID string
}

// NewPostgresSink connects to databaseURL and creates the result tables if
// they do not exist.
func NewPostgresSink(ctx context.Context, databaseURL, runID string) (*PostgresSink, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// A run writes a handful of large COPY batches
	config.MaxConns = 4
	config.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s, err := newPostgresSink(ctx, pool, runID)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func newPostgresSink(ctx context.Context, conn pgConn, runID string) (*PostgresSink, error) {
	s := &PostgresSink{conn: conn, runID: runID}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

// Name implements Sink.
func (s *PostgresSink) Name() string { return "postgres" }

// WriteCentrality implements Sink.
func (s *PostgresSink) WriteCentrality(ctx context.Context, kind string, scores map[graph.NodeID]float64) error {
	if err := checkKind(kind); err != nil {
		return err
	}

	rows := make([][]any, 0, len(scores))
	for id, score := range scores {
		rows = append(rows, []any{s.runID, kind, int64(id), score})
	}
	return s.copy(ctx, "graphstats_centrality", []string{"run_id", "kind", "node", "score"}, rows)
}

// WriteDegreeDistribution implements Sink.
func (s *PostgresSink) WriteDegreeDistribution(ctx context.Context, dist map[int]int) error {
	rows := make([][]any, 0, len(dist))
	for degree, count := range dist {
		rows = append(rows, []any{s.runID, int64(degree), int64(count)})
	}
	return s.copy(ctx, "graphstats_degree_distribution", []string{"run_id", "degree", "node_count"}, rows)
}

// WriteCommunities implements Sink.
func (s *PostgresSink) WriteCommunities(ctx context.Context, labels map[graph.NodeID]graph.NodeID) error {
	rows := make([][]any, 0, len(labels))
	for node, label := range labels {
		rows = append(rows, []any{s.runID, int64(node), int64(label)})
	}
	return s.copy(ctx, "graphstats_communities", []string{"run_id", "node", "label"}, rows)
}

// Close closes the connection pool.
func (s *PostgresSink) Close(context.Context) error {
	s.conn.Close()
	return nil
}

func (s *PostgresSink) copy(ctx context.Context, table string, columns []string, rows [][]any) error {
	n, err := s.conn.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy into %s: %w", table, err)
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("copy into %s: wrote %d of %d rows", table, n, len(rows))
	}
	return nil
}
