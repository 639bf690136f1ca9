package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/banshee-data/trackreplay/internal/replay/records"
)

// StoredCluster is a persisted integrated cluster with its position in the
// replay.
type StoredCluster struct {
	Entry int
	Index int
	records.ClusterSummary
}

// ClusterStore persists integrated clusters.
type ClusterStore struct {
	db *sql.DB
}

// NewClusterStore creates a ClusterStore.
func NewClusterStore(db *DB) *ClusterStore {
	return &ClusterStore{db: db.DB}
}

// InsertBatch stores one entry's clusters in a single transaction.
func (s *ClusterStore) InsertBatch(ctx context.Context, runID string, entry int, sums []records.ClusterSummary) error {
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO replay_clusters (
				run_id, entry, idx, orbit, bc, nchan, sum_ampl, mean_ampl, std_ampl, max_ampl
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, c := range sums {
			if _, err := stmt.ExecContext(ctx, runID, entry, i, c.IR.Orbit, c.IR.BC,
				c.NChan, c.SumAmpl, c.MeanAmpl, c.StdAmpl, c.MaxAmpl); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("insert clusters: %w", err)
	}
	return nil
}

// ListByRun returns a run's clusters in replay order.
func (s *ClusterStore) ListByRun(ctx context.Context, runID string) ([]StoredCluster, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entry, idx, orbit, bc, nchan, sum_ampl, mean_ampl, std_ampl, max_ampl
		FROM replay_clusters
		WHERE run_id = ?
		ORDER BY entry, idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("query clusters: %w", err)
	}
	defer rows.Close()

	var out []StoredCluster
	for rows.Next() {
		var c StoredCluster
		if err := rows.Scan(&c.Entry, &c.Index, &c.IR.Orbit, &c.IR.BC, &c.NChan,
			&c.SumAmpl, &c.MeanAmpl, &c.StdAmpl, &c.MaxAmpl); err != nil {
			return nil, fmt.Errorf("scan cluster: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountByRun returns the number of clusters stored for a run.
func (s *ClusterStore) CountByRun(ctx context.Context, runID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM replay_clusters WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count clusters: %w", err)
	}
	return n, nil
}
