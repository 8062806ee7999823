package sink

import "context"

// migrate creates the result tables if they don't exist
func (s *PostgresSink) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS graphstats_centrality (
		run_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		node BIGINT NOT NULL,
		score DOUBLE PRECISION NOT NULL
	);

	CREATE TABLE IF NOT EXISTS graphstats_degree_distribution (
		run_id TEXT NOT NULL,
		degree BIGINT NOT NULL,
		node_count BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS graphstats_communities (
		run_id TEXT NOT NULL,
		node BIGINT NOT NULL,
		label BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_graphstats_centrality_run ON graphstats_centrality(run_id, kind);
	CREATE INDEX IF NOT EXISTS idx_graphstats_communities_run ON graphstats_communities(run_id, label);
	`

	_, err := s.conn.Exec(ctx, schema)
	return err
}
