package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/swapwatch/swapwatch/internal/metrics"
)

// Store handles persistence of metric history to SQLite. One row is
// written per metric value; the primary key makes re-saving the same
// cycle idempotent.
type Store struct {
	db *DB
}

// NewStore creates a Store with the given database connection.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

const insertQuery = `INSERT OR REPLACE INTO metrics_history (timestamp, metric_name, key, value) VALUES (?, ?, ?, ?)`

// SaveLatest persists the newest sample of every series in the history,
// all in one transaction.
func (s *Store) SaveLatest(ctx context.Context, h *metrics.History) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	save := func(name, key string, series *metrics.TimeSeries) error {
		sample, ok := series.Latest()
		if !ok {
			return nil
		}
		if _, err := stmt.ExecContext(ctx, sample.Timestamp, name, key, sample.Value); err != nil {
			return fmt.Errorf("failed to insert %s/%s: %w", name, key, err)
		}
		return nil
	}

	for _, name := range systemMetricNames {
		if series := h.System(name); series != nil {
			if err := save(name, "", series); err != nil {
				return err
			}
		}
	}

	for _, entity := range h.Entities() {
		bundle, ok := h.Entity(entity)
		if !ok {
			continue
		}
		for _, name := range entityMetricNames {
			if err := save(name, entity, bundle.Series(name)); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

var systemMetricNames = []string{
	metrics.MetricCPUPercent,
	metrics.MetricMemoryPercent,
	metrics.MetricUsedMemoryGB,
	metrics.MetricServiceMemoryMB,
}

var entityMetricNames = []string{
	metrics.MetricGenTPS,
	metrics.MetricPromptTPS,
	metrics.MetricEntityMem,
	metrics.MetricQueueDepth,
}

// LoadInto replays persisted rows newer than since into the history, in
// timestamp order. The history's own capacity and retention bounds apply
// as usual, so loading can never overfill it.
func (s *Store) LoadInto(ctx context.Context, h *metrics.History, since uint64) error {
	query := `
		SELECT timestamp, metric_name, key, value
		FROM metrics_history
		WHERE timestamp >= ?
		ORDER BY timestamp ASC
	`
	rows, err := s.db.conn.QueryContext(ctx, query, since)
	if err != nil {
		return fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	// Per-entity rows sharing a timestamp are folded back into one
	// sample per cycle.
	type pending struct {
		ts     uint64
		sample metrics.EntitySample
	}
	entityPending := make(map[string]*pending)

	flush := func(entity string, p *pending) {
		h.PushFor(entity, p.sample, p.ts)
	}

	for rows.Next() {
		var ts uint64
		var name, key string
		var value float64
		if err := rows.Scan(&ts, &name, &key, &value); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}

		if key == "" {
			h.Record(name, value, ts)
			continue
		}

		p, ok := entityPending[key]
		if !ok || p.ts != ts {
			if ok {
				flush(key, p)
			}
			p = &pending{ts: ts}
			entityPending[key] = p
		}
		switch name {
		case metrics.MetricGenTPS:
			p.sample.GenTPS = value
		case metrics.MetricPromptTPS:
			p.sample.PromptTPS = value
		case metrics.MetricEntityMem:
			p.sample.MemoryMB = value
		case metrics.MetricQueueDepth:
			p.sample.QueueDepth = value
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}

	for entity, p := range entityPending {
		flush(entity, p)
	}
	return nil
}

// Prune removes rows with timestamps older than cutoff. Returns the
// number of rows deleted.
func (s *Store) Prune(ctx context.Context, cutoff uint64) (int64, error) {
	result, err := s.db.conn.ExecContext(ctx, `DELETE FROM metrics_history WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the total number of rows for a metric+key.
func (s *Store) Count(ctx context.Context, metricName, key string) (int64, error) {
	var count int64
	err := s.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM metrics_history WHERE metric_name = ? AND key = ?`, metricName, key).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return count, nil
}

// Latest returns the most recent persisted sample for a metric+key.
func (s *Store) Latest(ctx context.Context, metricName, key string) (metrics.Sample, bool, error) {
	query := `
		SELECT timestamp, value
		FROM metrics_history
		WHERE metric_name = ? AND key = ?
		ORDER BY timestamp DESC
		LIMIT 1
	`
	var sample metrics.Sample
	err := s.db.conn.QueryRowContext(ctx, query, metricName, key).Scan(&sample.Timestamp, &sample.Value)
	if err == sql.ErrNoRows {
		return metrics.Sample{}, false, nil
	}
	if err != nil {
		return metrics.Sample{}, false, fmt.Errorf("failed to get latest: %w", err)
	}
	return sample, true, nil
}
