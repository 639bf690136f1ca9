package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// StreamSize is the record count of one published stream in one entry.
type StreamSize struct {
	Entry  int
	Stream string
	Count  int
}

// BundleStore persists per-entry collection sizes.
type BundleStore struct {
	db *sql.DB
}

// NewBundleStore creates a BundleStore.
func NewBundleStore(db *DB) *BundleStore {
	return &BundleStore{db: db.DB}
}

// InsertSizes stores the sizes of one entry, keyed by stream.
func (s *BundleStore) InsertSizes(ctx context.Context, runID string, entry int, sizes map[string]int) error {
	streams := make([]string, 0, len(sizes))
	for k := range sizes {
		streams = append(streams, k)
	}
	sort.Strings(streams)

	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()
		for _, stream := range streams {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO replay_bundle_sizes (run_id, entry, stream, count) VALUES (?, ?, ?, ?)`,
				runID, entry, stream, sizes[stream]); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("insert bundle sizes: %w", err)
	}
	return nil
}

// SizesByRun returns every stored size of a run ordered by entry and stream.
func (s *BundleStore) SizesByRun(ctx context.Context, runID string) ([]StreamSize, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entry, stream, count FROM replay_bundle_sizes
		WHERE run_id = ?
		ORDER BY entry, stream`, runID)
	if err != nil {
		return nil, fmt.Errorf("query bundle sizes: %w", err)
	}
	defer rows.Close()

	var out []StreamSize
	for rows.Next() {
		var sz StreamSize
		if err := rows.Scan(&sz.Entry, &sz.Stream, &sz.Count); err != nil {
			return nil, fmt.Errorf("scan bundle size: %w", err)
		}
		out = append(out, sz)
	}
	return out, rows.Err()
}
