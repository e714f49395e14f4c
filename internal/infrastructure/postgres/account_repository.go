package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"saldo/internal/domain/account"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create creates a new account and enrolls the creator as its owner,
// atomically.
func (r *AccountRepository) Create(ctx context.Context, params account.CreateParams) (*account.Account, error) {
	insertAccount := `
		INSERT INTO accounts (id, name, currency, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, currency, created_by, created_at, updated_at
	`
	insertMember := `
		INSERT INTO account_members (account_id, user_id, role)
		VALUES ($1, $2, $3)
	`

	var acc account.Account
	err := r.db.WithTx(ctx, "db.AccountCreate", func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, insertAccount,
			uuid.New().String(), params.Name, params.Currency, params.CreatedBy,
		).Scan(&acc.ID, &acc.Name, &acc.Currency, &acc.CreatedBy, &acc.CreatedAt, &acc.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}

		if _, err := tx.ExecContext(ctx, insertMember, acc.ID, params.CreatedBy, account.RoleOwner); err != nil {
			return fmt.Errorf("failed to enroll account owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &acc, nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `
		SELECT id, name, currency, created_by, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var acc account.Account
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&acc.ID, &acc.Name, &acc.Currency, &acc.CreatedBy, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &acc, nil
}

// ListByUserID retrieves all accounts the user is a member of
func (r *AccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	query := `
		SELECT a.id, a.name, a.currency, a.created_by, a.created_at, a.updated_at
		FROM accounts a
		JOIN account_members m ON m.account_id = a.id
		WHERE m.user_id = $1
		ORDER BY a.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		var acc account.Account
		if err := rows.Scan(&acc.ID, &acc.Name, &acc.Currency, &acc.CreatedBy, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &acc)
	}

	return accounts, rows.Err()
}

// ListAllIDs returns the IDs of every account in the system
func (r *AccountRepository) ListAllIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list account IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan account ID: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// Delete removes an account. Members, transactions and snapshots cascade via
// foreign keys.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deletion: %w", err)
	}
	if affected == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}

// GetMember returns the membership row for a user on an account
func (r *AccountRepository) GetMember(ctx context.Context, accountID string, userID int64) (*account.Member, error) {
	query := `
		SELECT account_id, user_id, role, added_at
		FROM account_members
		WHERE account_id = $1 AND user_id = $2
	`

	var m account.Member
	err := r.db.QueryRowContext(ctx, query, accountID, userID).Scan(&m.AccountID, &m.UserID, &m.Role, &m.AddedAt)
	if err == sql.ErrNoRows {
		return nil, account.ErrNotMember
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return &m, nil
}

// ListMembers returns all members of an account
func (r *AccountRepository) ListMembers(ctx context.Context, accountID string) ([]*account.Member, error) {
	query := `
		SELECT account_id, user_id, role, added_at
		FROM account_members
		WHERE account_id = $1
		ORDER BY added_at
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*account.Member
	for rows.Next() {
		var m account.Member
		if err := rows.Scan(&m.AccountID, &m.UserID, &m.Role, &m.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, &m)
	}

	return members, rows.Err()
}

// AddMember enrolls a user on an account
func (r *AccountRepository) AddMember(ctx context.Context, accountID string, userID int64, role string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO account_members (account_id, user_id, role) VALUES ($1, $2, $3)`,
		accountID, userID, role,
	)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from an account
func (r *AccountRepository) RemoveMember(ctx context.Context, accountID string, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM account_members WHERE account_id = $1 AND user_id = $2`,
		accountID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check removal: %w", err)
	}
	if affected == 0 {
		return account.ErrNotMember
	}
	return nil
}
