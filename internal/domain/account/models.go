package account

import (
	"errors"
	"time"
)

// Common ISO 4217 currency codes accepted for account creation.
var validCurrencies = map[string]struct{}{
	"EUR": {}, "USD": {}, "GBP": {}, "BRL": {}, "JPY": {},
	"CHF": {}, "CAD": {}, "AUD": {}, "NZD": {}, "CNY": {},
	"INR": {}, "MXN": {}, "ZAR": {}, "SEK": {}, "NOK": {},
	"DKK": {}, "PLN": {}, "TRY": {}, "KRW": {}, "SGD": {},
}

// Membership roles. Owners can manage members and delete the account; every
// member can read it and import statements into it.
const (
	RoleOwner  = "OWNER"
	RoleMember = "MEMBER"
)

// Domain errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrForbidden       = errors.New("access forbidden")
	ErrInvalidCurrency = errors.New("valid ISO 4217 currency is required")
	ErrAlreadyMember   = errors.New("user is already a member of this account")
	ErrNotMember       = errors.New("user is not a member of this account")
	ErrLastOwner       = errors.New("cannot remove the last owner of an account")
)

// Account represents a bank account. Accounts are shared: any number of users
// can be members, and every member sees the same transactions and snapshots.
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	CreatedBy int64     `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Member links a user to a shared account with a role.
type Member struct {
	AccountID string    `json:"accountId"`
	UserID    int64     `json:"userId"`
	Role      string    `json:"role"`
	AddedAt   time.Time `json:"addedAt"`
}

// CreateParams contains parameters for creating a new account
type CreateParams struct {
	Name      string
	Currency  string
	CreatedBy int64
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.Name == "" {
		return errors.New("account name is required")
	}
	if p.CreatedBy <= 0 {
		return errors.New("valid user ID is required")
	}
	if !IsValidCurrency(p.Currency) {
		return ErrInvalidCurrency
	}
	return nil
}

// IsValidCurrency checks if the provided currency is a valid ISO 4217 code.
func IsValidCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	_, ok := validCurrencies[c]
	return ok
}
