package statement

import (
	"context"
	"fmt"
	"io"
	"log"

	"saldo/internal/domain/account"
	"saldo/internal/domain/transaction"
)

// Generator is the part of the snapshot generator the importer depends on.
type Generator interface {
	GenerateForAccountHistory(ctx context.Context, accountID string) (int, error)
}

// Notifier announces a finished import to the importing user's devices.
// Implementations must not fail the import.
type Notifier interface {
	ImportCompleted(ctx context.Context, userID int64, accountName string, imported, snapshotDays int)
}

// ImportResult contains the results of a statement import
type ImportResult struct {
	AccountID    string   `json:"accountId"`
	RowsFound    int      `json:"rowsFound"`
	Imported     int      `json:"imported"`
	SnapshotDays int      `json:"snapshotDays"`
	Errors       []string `json:"errors"`
}

// ImportService handles importing bank-exported statements into an account
type ImportService struct {
	accounts     *account.Service
	transactions transaction.Repository
	generator    Generator
	notifier     Notifier
}

// NewImportService creates a new statement import service. notifier may be nil.
func NewImportService(accounts *account.Service, transactions transaction.Repository, generator Generator, notifier Notifier) *ImportService {
	return &ImportService{
		accounts:     accounts,
		transactions: transactions,
		generator:    generator,
		notifier:     notifier,
	}
}

// Import parses the statement, persists its rows in file order (preserving
// arrival order for same-day transactions), and regenerates the account's
// full snapshot history. Full regeneration rather than a targeted range keeps
// backdated and corrected imports honest at the cost of recomputing
// unaffected days.
func (s *ImportService) Import(ctx context.Context, userID int64, accountID string, r io.Reader) (*ImportResult, error) {
	acc, err := s.accounts.GetAccount(ctx, accountID, userID)
	if err != nil {
		return nil, err
	}

	rows, rowErrs, err := Parse(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		AccountID: accountID,
		RowsFound: len(rows) + len(rowErrs),
		Errors:    []string{},
	}
	for _, re := range rowErrs {
		result.Errors = append(result.Errors, re.Error())
	}

	if len(rows) > 0 {
		params := make([]transaction.CreateParams, 0, len(rows))
		for _, row := range rows {
			params = append(params, transaction.CreateParams{
				AccountID:       accountID,
				TransactionDate: row.Date,
				Description:     row.Description,
				Amount:          row.Amount,
				Balance:         row.Balance,
			})
		}

		created, err := s.transactions.CreateBatch(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to store transactions: %w", err)
		}
		result.Imported = len(created)
	}

	days, err := s.generator.GenerateForAccountHistory(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to regenerate snapshots: %w", err)
	}
	result.SnapshotDays = days

	if s.notifier != nil {
		s.notifier.ImportCompleted(ctx, userID, acc.Name, result.Imported, days)
	}

	log.Printf("Statement import completed for account %s: rows=%d, imported=%d, snapshotDays=%d, errors=%d",
		accountID, result.RowsFound, result.Imported, days, len(result.Errors))

	return result, nil
}
