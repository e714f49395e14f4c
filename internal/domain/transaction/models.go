package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Transaction is one bank transaction imported from a statement. Balance is
// the account balance immediately after the transaction, as reported by the
// bank; it is the observation input for snapshot generation. Seq is the
// arrival order within the account and breaks ties between same-day rows.
type Transaction struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"accountId"`
	TransactionDate time.Time       `json:"transactionDate"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Balance         decimal.Decimal `json:"balance"`
	Seq             int64           `json:"seq"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// CreateParams contains parameters for recording a new transaction
type CreateParams struct {
	AccountID       string
	TransactionDate time.Time
	Description     string
	Amount          decimal.Decimal
	Balance         decimal.Decimal
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.AccountID == "" {
		return errors.New("account ID is required")
	}
	if p.TransactionDate.IsZero() {
		return errors.New("transaction date is required")
	}
	return nil
}
