package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"saldo/internal/domain/snapshot"
	"saldo/internal/domain/transaction"
)

// TransactionRepository implements the transaction.Repository interface for
// PostgreSQL. It also implements snapshot.ObservationSource: transactions are
// the observation input for the snapshot generator, ordered by
// (transaction_date, seq) where seq is the per-account arrival order.
type TransactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const insertTransactionQuery = `
	INSERT INTO transactions (id, account_id, transaction_date, description, amount, balance, seq)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, account_id, transaction_date, description, amount, balance, seq, created_at
`

// Create records a single transaction with the next arrival sequence.
func (r *TransactionRepository) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var tx *transaction.Transaction
	err := r.db.WithTx(ctx, "db.TransactionCreate", func(sqlTx *sql.Tx) error {
		seq, err := nextSeq(ctx, sqlTx, params.AccountID)
		if err != nil {
			return err
		}
		tx, err = insertTransaction(ctx, sqlTx, params, seq)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// CreateBatch records transactions in input order within one transaction,
// preserving that order as the arrival sequence.
func (r *TransactionRepository) CreateBatch(ctx context.Context, params []transaction.CreateParams) ([]*transaction.Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}
	for _, p := range params {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	var created []*transaction.Transaction
	err := r.db.WithTx(ctx, "db.TransactionBatch", func(sqlTx *sql.Tx) error {
		seq, err := nextSeq(ctx, sqlTx, params[0].AccountID)
		if err != nil {
			return err
		}
		for i, p := range params {
			tx, err := insertTransaction(ctx, sqlTx, p, seq+int64(i))
			if err != nil {
				return err
			}
			created = append(created, tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func nextSeq(ctx context.Context, tx *sql.Tx, accountID string) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM transactions WHERE account_id = $1`,
		accountID,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next sequence: %w", err)
	}
	return seq, nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, params transaction.CreateParams, seq int64) (*transaction.Transaction, error) {
	var t transaction.Transaction
	err := tx.QueryRowContext(ctx, insertTransactionQuery,
		uuid.New().String(), params.AccountID, snapshot.Day(params.TransactionDate),
		params.Description, params.Amount, params.Balance, seq,
	).Scan(&t.ID, &t.AccountID, &t.TransactionDate, &t.Description, &t.Amount, &t.Balance, &t.Seq, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return &t, nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	query := `
		SELECT id, account_id, transaction_date, description, amount, balance, seq, created_at
		FROM transactions
		WHERE id = $1
	`

	var t transaction.Transaction
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.AccountID, &t.TransactionDate, &t.Description, &t.Amount, &t.Balance, &t.Seq, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &t, nil
}

// ListByAccountID retrieves transactions for an account, newest first.
func (r *TransactionRepository) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*transaction.Transaction, error) {
	query := `
		SELECT id, account_id, transaction_date, description, amount, balance, seq, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY transaction_date DESC, seq DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*transaction.Transaction
	for rows.Next() {
		var t transaction.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.TransactionDate, &t.Description, &t.Amount, &t.Balance, &t.Seq, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &t)
	}

	return transactions, rows.Err()
}

// CountByAccountID returns the number of transactions on an account
func (r *TransactionRepository) CountByAccountID(ctx context.Context, accountID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// Delete removes a transaction
func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deletion: %w", err)
	}
	if affected == 0 {
		return transaction.ErrTransactionNotFound
	}
	return nil
}

// ListUpTo returns the account's observations dated on or before end, ordered
// by (transaction_date, seq) ascending. Implements snapshot.ObservationSource.
func (r *TransactionRepository) ListUpTo(ctx context.Context, accountID string, end time.Time) ([]snapshot.Observation, error) {
	query := `
		SELECT transaction_date, balance
		FROM transactions
		WHERE account_id = $1 AND transaction_date <= $2
		ORDER BY transaction_date, seq
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	defer rows.Close()

	var observations []snapshot.Observation
	for rows.Next() {
		var o snapshot.Observation
		if err := rows.Scan(&o.Date, &o.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		observations = append(observations, o)
	}

	return observations, rows.Err()
}

// DateBounds returns the earliest and latest transaction dates for an
// account. Implements snapshot.ObservationSource.
func (r *TransactionRepository) DateBounds(ctx context.Context, accountID string) (time.Time, time.Time, bool, error) {
	var min, max sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT MIN(transaction_date), MAX(transaction_date) FROM transactions WHERE account_id = $1`,
		accountID,
	).Scan(&min, &max)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("failed to get date bounds: %w", err)
	}
	if !min.Valid || !max.Valid {
		return time.Time{}, time.Time{}, false, nil
	}
	return min.Time, max.Time, true, nil
}
