package snapshot

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical format for snapshot dates in logs and API payloads.
const DateLayout = "2006-01-02"

// Domain errors
var (
	// ErrInvalidRange is returned when a caller asks for a range whose start is
	// after its end. No side effects occur in that case.
	ErrInvalidRange = errors.New("start date is after end date")

	// ErrSnapshotConflict is surfaced by the store when two generation runs race
	// to insert the same (account, date) snapshot. The generator does not retry;
	// callers may treat it as "already generated" and re-query.
	ErrSnapshotConflict = errors.New("snapshot already exists for this account and date")
)

// Snapshot is the persisted closing balance of one account on one calendar day.
// There is at most one snapshot per (account, date); the uniqueness constraint
// lives in the store.
type Snapshot struct {
	AccountID          string          `json:"accountId"`
	Date               time.Time       `json:"date"`
	Balance            decimal.Decimal `json:"balance"`
	LastRecalculatedAt time.Time       `json:"lastRecalculatedAt"`
}

// Observation is a (date, balance-after-transaction) pair derived from one
// transaction. Multiple observations may share a date; the last one in arrival
// order decides that day's closing balance.
type Observation struct {
	Date    time.Time
	Balance decimal.Decimal
}

// Day truncates a timestamp to its calendar day at UTC midnight. All snapshot
// dates are normalized through this before comparison or storage.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
