package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return v
}

// fakeStore is an in-memory ObservationSource + Repository for generator tests.
type fakeStore struct {
	observations map[string][]Observation
	snapshots    map[string]map[time.Time]*Snapshot

	listObsErr  error
	listRangeErr error
	applyErr    error

	applyCalls  int
	lastInserts int
	lastUpdates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		observations: make(map[string][]Observation),
		snapshots:    make(map[string]map[time.Time]*Snapshot),
	}
}

// addObservation appends in arrival order, mirroring the store's
// (date, arrival) ordering contract for same-day transactions.
func (f *fakeStore) addObservation(accountID string, date time.Time, balance decimal.Decimal) {
	obs := append(f.observations[accountID], Observation{Date: date, Balance: balance})
	// keep date ascending, stable for ties
	for i := len(obs) - 1; i > 0 && obs[i].Date.Before(obs[i-1].Date); i-- {
		obs[i], obs[i-1] = obs[i-1], obs[i]
	}
	f.observations[accountID] = obs
}

func (f *fakeStore) ListUpTo(_ context.Context, accountID string, end time.Time) ([]Observation, error) {
	if f.listObsErr != nil {
		return nil, f.listObsErr
	}
	var out []Observation
	for _, o := range f.observations[accountID] {
		if !Day(o.Date).After(end) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) DateBounds(_ context.Context, accountID string) (time.Time, time.Time, bool, error) {
	obs := f.observations[accountID]
	if len(obs) == 0 {
		return time.Time{}, time.Time{}, false, nil
	}
	min, max := obs[0].Date, obs[0].Date
	for _, o := range obs[1:] {
		if o.Date.Before(min) {
			min = o.Date
		}
		if o.Date.After(max) {
			max = o.Date
		}
	}
	return min, max, true, nil
}

func (f *fakeStore) ListRange(_ context.Context, accountID string, from, to time.Time) ([]*Snapshot, error) {
	if f.listRangeErr != nil {
		return nil, f.listRangeErr
	}
	var out []*Snapshot
	for _, s := range f.snapshots[accountID] {
		if !s.Date.Before(from) && !s.Date.After(to) {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStore) ApplyBatch(_ context.Context, accountID string, inserts, updates []*Snapshot) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applyCalls++
	f.lastInserts = len(inserts)
	f.lastUpdates = len(updates)
	if f.snapshots[accountID] == nil {
		f.snapshots[accountID] = make(map[time.Time]*Snapshot)
	}
	for _, s := range append(inserts, updates...) {
		copied := *s
		f.snapshots[accountID][s.Date] = &copied
	}
	return nil
}

func (f *fakeStore) snapshotAt(accountID string, date time.Time) *Snapshot {
	return f.snapshots[accountID][date]
}

func TestGenerateRangeNoObservations(t *testing.T) {
	store := newFakeStore()
	gen := NewGenerator(store, store)

	count, err := gen.GenerateRange(context.Background(), "acct", day(2024, 1, 1), day(2024, 1, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if store.applyCalls != 0 {
		t.Errorf("expected no writes, got %d batches", store.applyCalls)
	}
}

func TestGenerateRangeFutureObservationsOnly(t *testing.T) {
	store := newFakeStore()
	store.addObservation("acct", day(2024, 2, 10), dec(t, "900.00"))
	gen := NewGenerator(store, store)

	// Future-dated data must not retroactively fill past days.
	count, err := gen.GenerateRange(context.Background(), "acct", day(2024, 1, 1), day(2024, 1, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if store.applyCalls != 0 {
		t.Errorf("expected no writes, got %d batches", store.applyCalls)
	}
}

func TestGenerateRangeSingleObservationForwardFill(t *testing.T) {
	store := newFakeStore()
	store.addObservation("acct", day(2024, 1, 15), dec(t, "1000.00"))
	gen := NewGenerator(store, store)

	count, err := gen.GenerateRange(context.Background(), "acct", day(2024, 1, 1), day(2024, 1, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 17 {
		t.Fatalf("expected 17 snapshots (Jan 15-31), got %d", count)
	}

	for d := day(2024, 1, 1); !d.After(day(2024, 1, 14)); d = d.AddDate(0, 0, 1) {
		if store.snapshotAt("acct", d) != nil {
			t.Errorf("day %s before first observation should have no snapshot", d.Format(DateLayout))
		}
	}
	for d := day(2024, 1, 15); !d.After(day(2024, 1, 31)); d = d.AddDate(0, 0, 1) {
		s := store.snapshotAt("acct", d)
		if s == nil {
			t.Fatalf("missing snapshot for %s", d.Format(DateLayout))
		}
		if !s.Balance.Equal(dec(t, "1000.00")) {
			t.Errorf("day %s: expected balance 1000.00, got %s", d.Format(DateLayout), s.Balance)
		}
	}
}

func TestGenerateRangeGapForwardFill(t *testing.T) {
	store := newFakeStore()
	store.addObservation("acct", day(2024, 1, 1), dec(t, "1000.00"))
	store.addObservation("acct", day(2024, 1, 2), dec(t, "1500.00"))
	store.addObservation("acct", day(2024, 1, 4), dec(t, "1300.00"))
	gen := NewGenerator(store, store)

	count, err := gen.GenerateRange(context.Background(), "acct", day(2024, 1, 1), day(2024, 1, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected 5 snapshots, got %d", count)
	}

	want := []string{"1000.00", "1500.00", "1500.00", "1300.00", "1300.00"}
	for i, balance := range want {
		d := day(2024, 1, 1+i)
		s := store.snapshotAt("acct", d)
		if s == nil {
			t.Fatalf("missing snapshot for %s", d.Format(DateLayout))
		}
		if !s.Balance.Equal(dec(t, balance)) {
			t.Errorf("day %s: expected %s, got %s", d.Format(DateLayout), balance, s.Balance)
		}
	}
}

func TestGenerateRangeSameDayTieBreak(t *testing.T) {
	store := newFakeStore()
	// Three same-day transactions in arrival order: the last one wins,
	// not the minimum, maximum, or sum.
	store.addObservation("acct", day(2024, 1, 10), dec(t, "1100.00"))
	store.addObservation("acct", day(2024, 1, 10), dec(t, "1150.00"))
	store.addObservation("acct", day(2024, 1, 10), dec(t, "1120.00"))
	gen := NewGenerator(store, store)

	count, err := gen.GenerateRange(context.Background(), "acct", day(2024, 1, 10), day(2024, 1, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 snapshot, got %d", count)
	}

	s := store.snapshotAt("acct", day(2024, 1, 10))
	if s == nil {
		t.Fatal("missing snapshot")
	}
	if !s.Balance.Equal(dec(t, "1120.00")) {
		t.Errorf("expected last arrival 1120.00 to win, got %s", s.Balance)
	}
}

func TestGenerateRangeInvalidRange(t *testing.T) {
	store := newFakeStore()
	store.addObservation("acct", day(2024, 1, 5), dec(t, "100.00"))
	gen := NewGenerator(store, store)

	_, err := gen.GenerateRange(context.Background(), "acct", day(2024, 1, 31), day(2024, 1, 1))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if store.applyCalls != 0 {
		t.Errorf("invalid range must leave the store unmodified")
	}
}

func TestGenerateRangeIdempotentUpdate(t *testing.T) {
	store := newFakeStore()
	target := day(2024, 1, 10)

	// Pre-existing stale snapshot at 500.00.
	stale := &Snapshot{
		AccountID:          "acct",
		Date:               target,
		Balance:            dec(t, "500.00"),
		LastRecalculatedAt: day(2023, 12, 1),
	}
	store.snapshots["acct"] = map[time.Time]*Snapshot{target: stale}

	store.addObservation("acct", target, dec(t, "1000.00"))
	gen := NewGenerator(store, store)

	// First run corrects the stale balance in place.
	count, err := gen.GenerateRange(context.Background(), "acct", target, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}
	if store.lastUpdates != 1 || store.lastInserts != 0 {
		t.Fatalf("expected 1 update and 0 inserts, got %d/%d", store.lastUpdates, store.lastInserts)
	}

	updated := store.snapshotAt("acct", target)
	if !updated.Balance.Equal(dec(t, "1000.00")) {
		t.Fatalf("expected corrected balance 1000.00, got %s", updated.Balance)
	}
	if !updated.LastRecalculatedAt.After(stale.LastRecalculatedAt) {
		t.Errorf("expected recalculation timestamp to be bumped")
	}
	firstRecalc := updated.LastRecalculatedAt

	// Second run with no new data must not touch the row at all.
	count, err = gen.GenerateRange(context.Background(), "acct", target, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1 on rerun, got %d", count)
	}
	if store.applyCalls != 1 {
		t.Errorf("unchanged snapshots must not trigger another write batch")
	}
	if got := store.snapshotAt("acct", target).LastRecalculatedAt; !got.Equal(firstRecalc) {
		t.Errorf("timestamp re-bumped on a no-change run")
	}
}

func TestGenerateRangeStorageFailure(t *testing.T) {
	storageErr := errors.New("connection reset")

	t.Run("observation load fails", func(t *testing.T) {
		store := newFakeStore()
		store.listObsErr = storageErr
		gen := NewGenerator(store, store)

		_, err := gen.GenerateRange(context.Background(), "acct", day(2024, 1, 1), day(2024, 1, 2))
		if !errors.Is(err, storageErr) {
			t.Fatalf("expected wrapped storage error, got %v", err)
		}
	})

	t.Run("batch write fails", func(t *testing.T) {
		store := newFakeStore()
		store.addObservation("acct", day(2024, 1, 1), dec(t, "10.00"))
		store.applyErr = storageErr
		gen := NewGenerator(store, store)

		count, err := gen.GenerateRange(context.Background(), "acct", day(2024, 1, 1), day(2024, 1, 2))
		if !errors.Is(err, storageErr) {
			t.Fatalf("expected wrapped storage error, got %v", err)
		}
		if count != 0 {
			t.Errorf("failed run must report count 0, got %d", count)
		}
	})
}

func TestGenerateForAccountHistory(t *testing.T) {
	t.Run("no transactions", func(t *testing.T) {
		store := newFakeStore()
		gen := NewGenerator(store, store)

		count, err := gen.GenerateForAccountHistory(context.Background(), "acct")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 0 {
			t.Errorf("expected count 0, got %d", count)
		}
	})

	t.Run("spans first to last transaction", func(t *testing.T) {
		store := newFakeStore()
		store.addObservation("acct", day(2024, 1, 1), dec(t, "100.00"))
		store.addObservation("acct", day(2024, 1, 15), dec(t, "200.00"))
		store.addObservation("acct", day(2024, 1, 31), dec(t, "300.00"))
		gen := NewGenerator(store, store)

		count, err := gen.GenerateForAccountHistory(context.Background(), "acct")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 31 {
			t.Errorf("expected 31 snapshots for Jan 1-31, got %d", count)
		}
	})

	t.Run("single future-dated transaction", func(t *testing.T) {
		store := newFakeStore()
		future := day(2030, 6, 1)
		store.addObservation("acct", future, dec(t, "50.00"))
		gen := NewGenerator(store, store)

		count, err := gen.GenerateForAccountHistory(context.Background(), "acct")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 1 {
			t.Errorf("expected a single snapshot on the transaction's own date, got %d", count)
		}
		if store.snapshotAt("acct", future) == nil {
			t.Errorf("missing snapshot at %s", future.Format(DateLayout))
		}
	})
}

func TestRegenerateMany(t *testing.T) {
	t.Run("accounts are independent", func(t *testing.T) {
		store := newFakeStore()
		store.addObservation("a", day(2024, 1, 5), dec(t, "10.00"))
		store.addObservation("b", day(2024, 3, 7), dec(t, "99.00"))
		gen := NewGenerator(store, store)

		total, err := gen.RegenerateMany(context.Background(), []string{"a", "b"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != 2 {
			t.Errorf("expected total 2, got %d", total)
		}
		if s := store.snapshotAt("a", day(2024, 1, 5)); s == nil || !s.Balance.Equal(dec(t, "10.00")) {
			t.Errorf("account a snapshot wrong: %+v", s)
		}
		if s := store.snapshotAt("b", day(2024, 3, 7)); s == nil || !s.Balance.Equal(dec(t, "99.00")) {
			t.Errorf("account b snapshot wrong: %+v", s)
		}
	})

	t.Run("first failure aborts the batch", func(t *testing.T) {
		store := newFakeStore()
		store.addObservation("a", day(2024, 1, 5), dec(t, "10.00"))
		store.addObservation("b", day(2024, 1, 6), dec(t, "20.00"))
		store.applyErr = errors.New("disk full")
		gen := NewGenerator(store, store)

		total, err := gen.RegenerateMany(context.Background(), []string{"a", "b"})
		if err == nil {
			t.Fatal("expected error")
		}
		if total != 0 {
			t.Errorf("aborted batch must report 0, got %d", total)
		}
	})
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	in := time.Date(2024, 3, 15, 23, 45, 1, 0, loc)
	got := Day(in)
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Day(%v) = %v, want %v", in, got, want)
	}
}
