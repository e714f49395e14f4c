package snapshot

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Generator turns a sparse sequence of balance observations into a gap-free
// daily balance series and persists it idempotently. It holds no state between
// invocations; concurrent generation for different accounts is safe. Callers
// that generate for the same account concurrently must either serialize those
// calls or treat ErrSnapshotConflict from the store as benign.
type Generator struct {
	observations ObservationSource
	snapshots    Repository
}

// NewGenerator creates a new snapshot generator
func NewGenerator(observations ObservationSource, snapshots Repository) *Generator {
	return &Generator{observations: observations, snapshots: snapshots}
}

// GenerateRange computes and persists one snapshot per calendar day in
// [start, end] by forward-filling the last known balance. Days before the
// first observation get no snapshot and do not count toward the result.
// Returns the number of days for which a snapshot was written or confirmed.
func (g *Generator) GenerateRange(ctx context.Context, accountID string, start, end time.Time) (int, error) {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return 0, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start.Format(DateLayout), end.Format(DateLayout))
	}

	obs, err := g.observations.ListUpTo(ctx, accountID, end)
	if err != nil {
		return 0, fmt.Errorf("failed to load observations: %w", err)
	}
	if len(obs) == 0 {
		// Nothing on or before end: a no-op even if the account has
		// transactions dated after end.
		return 0, nil
	}

	// The source already orders by (date, arrival); the stable sort restates
	// the date ordering without disturbing arrival order for same-day ties.
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })

	pending := forwardFill(obs, start, end)
	if len(pending) == 0 {
		return 0, nil
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := g.reconcile(ctx, accountID, pending); err != nil {
		return 0, err
	}

	return len(pending), nil
}

// GenerateForAccountHistory regenerates the full snapshot history of an
// account, from its earliest transaction date to its latest. An account with
// no transactions yields 0 without touching the store.
func (g *Generator) GenerateForAccountHistory(ctx context.Context, accountID string) (int, error) {
	min, max, ok, err := g.observations.DateBounds(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve date bounds: %w", err)
	}
	if !ok {
		return 0, nil
	}

	return g.GenerateRange(ctx, accountID, min, max)
}

// RegenerateMany regenerates full histories for each account in order and
// returns the summed day count. The first failure aborts the whole batch and
// discards counts accumulated so far.
func (g *Generator) RegenerateMany(ctx context.Context, accountIDs []string) (int, error) {
	total := 0
	for _, id := range accountIDs {
		count, err := g.GenerateForAccountHistory(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("failed to regenerate snapshots for account %s: %w", id, err)
		}
		total += count
	}
	return total, nil
}

// forwardFill walks each calendar day in [start, end] consuming observations
// dated on or before that day. The last observation consumed per day wins, so
// same-day ties resolve to the latest arrival. Days with no prior observation
// produce nothing.
func forwardFill(obs []Observation, start, end time.Time) []*Snapshot {
	var pending []*Snapshot
	var balance decimal.Decimal
	known := false
	i := 0

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		for i < len(obs) && !Day(obs[i].Date).After(d) {
			balance = obs[i].Balance
			known = true
			i++
		}
		if !known {
			continue
		}
		pending = append(pending, &Snapshot{Date: d, Balance: balance})
	}

	return pending
}

// reconcile merges pending snapshots into the store: insert where missing,
// update where the balance differs, leave identical rows untouched so they do
// not look recalculated when nothing changed.
func (g *Generator) reconcile(ctx context.Context, accountID string, pending []*Snapshot) error {
	from, to := pending[0].Date, pending[len(pending)-1].Date

	existing, err := g.snapshots.ListRange(ctx, accountID, from, to)
	if err != nil {
		return fmt.Errorf("failed to load existing snapshots: %w", err)
	}

	byDate := make(map[time.Time]*Snapshot, len(existing))
	for _, s := range existing {
		byDate[Day(s.Date)] = s
	}

	now := time.Now().UTC()
	var inserts, updates []*Snapshot
	for _, p := range pending {
		p.AccountID = accountID
		current, found := byDate[p.Date]
		switch {
		case !found:
			p.LastRecalculatedAt = now
			inserts = append(inserts, p)
		case !current.Balance.Equal(p.Balance):
			// Exact decimal comparison: no rounding tolerance.
			current.Balance = p.Balance
			current.LastRecalculatedAt = now
			updates = append(updates, current)
		}
	}

	if len(inserts) == 0 && len(updates) == 0 {
		return nil
	}

	if err := g.snapshots.ApplyBatch(ctx, accountID, inserts, updates); err != nil {
		return fmt.Errorf("failed to persist snapshots: %w", err)
	}

	return nil
}
