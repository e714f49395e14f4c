package transaction

import (
	"context"
)

// Repository defines the interface for transaction data access.
// The Postgres implementation additionally satisfies snapshot.ObservationSource,
// exposing transactions as (date, balance) observations to the generator.
type Repository interface {
	// Create records a single transaction, assigning it the next arrival
	// sequence for its account
	Create(ctx context.Context, params CreateParams) (*Transaction, error)

	// CreateBatch records transactions in input order, preserving that order
	// as the arrival sequence
	CreateBatch(ctx context.Context, params []CreateParams) ([]*Transaction, error)

	// GetByID retrieves a transaction by its ID
	GetByID(ctx context.Context, id string) (*Transaction, error)

	// ListByAccountID retrieves transactions for an account ordered by
	// (transaction_date, seq) descending, newest first
	ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*Transaction, error)

	// CountByAccountID returns the number of transactions on an account
	CountByAccountID(ctx context.Context, accountID string) (int64, error)

	// Delete removes a transaction
	Delete(ctx context.Context, id string) error
}
