package snapshot

import (
	"context"
	"time"
)

// ObservationSource is the read-only view of transaction data the generator
// needs. Implemented by the Postgres transaction repository.
type ObservationSource interface {
	// ListUpTo returns every observation for the account with a transaction date
	// on or before end, ordered by transaction date ascending and then by
	// arrival order ascending.
	ListUpTo(ctx context.Context, accountID string, end time.Time) ([]Observation, error)

	// DateBounds returns the earliest and latest transaction dates for the
	// account across all of its transactions. ok is false when the account has
	// no transactions at all.
	DateBounds(ctx context.Context, accountID string) (min, max time.Time, ok bool, err error)
}

// Repository is the write side for persisted snapshots.
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// ListRange returns the existing snapshots for the account whose dates fall
	// within [from, to] inclusive.
	ListRange(ctx context.Context, accountID string, from, to time.Time) ([]*Snapshot, error)

	// ApplyBatch persists the given inserts and updates in a single
	// transaction: either the whole batch commits or none of it does.
	ApplyBatch(ctx context.Context, accountID string, inserts, updates []*Snapshot) error
}
