package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"saldo/internal/domain/snapshot"
)

// SnapshotRepository implements the snapshot.Repository interface for PostgreSQL.
// The balance_snapshots table carries a UNIQUE (account_id, snapshot_date)
// constraint; concurrent generation runs for the same account surface here as
// snapshot.ErrSnapshotConflict.
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new PostgreSQL snapshot repository
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// ListRange returns the existing snapshots for an account within [from, to].
func (r *SnapshotRepository) ListRange(ctx context.Context, accountID string, from, to time.Time) ([]*snapshot.Snapshot, error) {
	query := `
		SELECT account_id, snapshot_date, balance, last_recalculated_at
		FROM balance_snapshots
		WHERE account_id = $1 AND snapshot_date BETWEEN $2 AND $3
		ORDER BY snapshot_date
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*snapshot.Snapshot
	for rows.Next() {
		var s snapshot.Snapshot
		if err := rows.Scan(&s.AccountID, &s.Date, &s.Balance, &s.LastRecalculatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.Date = snapshot.Day(s.Date)
		snapshots = append(snapshots, &s)
	}

	return snapshots, rows.Err()
}

// ApplyBatch persists inserts and updates in one transaction. The whole batch
// commits or none of it does, which is a deliberate strengthening over
// tolerating partial completion.
func (r *SnapshotRepository) ApplyBatch(ctx context.Context, accountID string, inserts, updates []*snapshot.Snapshot) error {
	if len(inserts) == 0 && len(updates) == 0 {
		return nil
	}

	insertQuery := `
		INSERT INTO balance_snapshots (account_id, snapshot_date, balance, last_recalculated_at)
		VALUES ($1, $2, $3, $4)
	`
	updateQuery := `
		UPDATE balance_snapshots
		SET balance = $3, last_recalculated_at = $4
		WHERE account_id = $1 AND snapshot_date = $2
	`

	return r.db.WithTx(ctx, "db.SnapshotBatch", func(tx *sql.Tx) error {
		for _, s := range inserts {
			if _, err := tx.ExecContext(ctx, insertQuery, accountID, s.Date, s.Balance, s.LastRecalculatedAt); err != nil {
				return mapSnapshotError(err)
			}
		}
		for _, s := range updates {
			if _, err := tx.ExecContext(ctx, updateQuery, accountID, s.Date, s.Balance, s.LastRecalculatedAt); err != nil {
				return mapSnapshotError(err)
			}
		}
		return nil
	})
}

// mapSnapshotError translates a unique-constraint violation into the domain
// conflict error so callers can treat a lost insert race as benign.
func mapSnapshotError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %v", snapshot.ErrSnapshotConflict, err)
	}
	return fmt.Errorf("failed to write snapshot: %w", err)
}
