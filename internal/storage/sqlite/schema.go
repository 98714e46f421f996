package sqlite

// initSchema creates the database schema if it doesn't exist.
func (db *DB) initSchema() error {
	schema := `
	-- Metric history table. key is '' for system-level metrics and the
	-- entity name for per-entity metrics. Timestamps are epoch seconds,
	-- matching the in-memory series.
	CREATE TABLE IF NOT EXISTS metrics_history (
		timestamp INTEGER NOT NULL,
		metric_name TEXT NOT NULL,
		key TEXT NOT NULL DEFAULT '',
		value REAL NOT NULL,
		PRIMARY KEY (metric_name, key, timestamp)
	);

	CREATE INDEX IF NOT EXISTS idx_metrics_history_time ON metrics_history(timestamp);
	`

	_, err := db.conn.Exec(schema)
	return err
}
