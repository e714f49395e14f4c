package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/domain/account"
	"saldo/internal/domain/snapshot"
	"saldo/internal/shared/middleware"
)

// snapshotStore implements snapshot.ObservationSource and snapshot.Repository
// backed by in-memory slices.
type snapshotStore struct {
	observations []snapshot.Observation
	snapshots    []*snapshot.Snapshot
}

func (s *snapshotStore) ListUpTo(ctx context.Context, accountID string, end time.Time) ([]snapshot.Observation, error) {
	var out []snapshot.Observation
	for _, o := range s.observations {
		if !snapshot.Day(o.Date).After(snapshot.Day(end)) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *snapshotStore) DateBounds(ctx context.Context, accountID string) (time.Time, time.Time, bool, error) {
	if len(s.observations) == 0 {
		return time.Time{}, time.Time{}, false, nil
	}
	min, max := s.observations[0].Date, s.observations[0].Date
	for _, o := range s.observations[1:] {
		if o.Date.Before(min) {
			min = o.Date
		}
		if o.Date.After(max) {
			max = o.Date
		}
	}
	return min, max, true, nil
}

func (s *snapshotStore) ListRange(ctx context.Context, accountID string, from, to time.Time) ([]*snapshot.Snapshot, error) {
	var out []*snapshot.Snapshot
	for _, snap := range s.snapshots {
		if !snap.Date.Before(from) && !snap.Date.After(to) {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *snapshotStore) ApplyBatch(ctx context.Context, accountID string, inserts, updates []*snapshot.Snapshot) error {
	s.snapshots = append(s.snapshots, inserts...)
	return nil
}

func newSnapshotHandler(store *snapshotStore, repo *MockAccountRepo) *SnapshotHandler {
	service := account.NewService(repo)
	generator := snapshot.NewGenerator(store, store)
	return NewSnapshotHandler(service, store, generator)
}

func TestHandleGenerate_FullHistory(t *testing.T) {
	store := &snapshotStore{
		observations: []snapshot.Observation{
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Balance: decimal.NewFromInt(1000)},
			{Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), Balance: decimal.NewFromInt(1500)},
		},
	}
	repo := &MockAccountRepo{GetMemberFunc: memberOf("acc-1", 1, account.RoleMember)}
	handler := newSnapshotHandler(store, repo)

	req := authedRequest(http.MethodPost, "/api/accounts/acc-1/snapshots/generate", 1)
	req.SetPathValue("id", "acc-1")
	rr := httptest.NewRecorder()
	handler.HandleGenerate(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp GenerateSnapshotsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Days != 10 {
		t.Errorf("expected 10 days generated, got %d", resp.Days)
	}
}

func TestHandleGenerate_ExplicitRange(t *testing.T) {
	store := &snapshotStore{
		observations: []snapshot.Observation{
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Balance: decimal.NewFromInt(1000)},
		},
	}
	repo := &MockAccountRepo{GetMemberFunc: memberOf("acc-1", 1, account.RoleMember)}
	handler := newSnapshotHandler(store, repo)

	body, _ := json.Marshal(GenerateSnapshotsRequest{Start: "2024-01-01", End: "2024-01-05"})
	req := httptest.NewRequest(http.MethodPost, "/api/accounts/acc-1/snapshots/generate", bytes.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, int64(1)))
	req.SetPathValue("id", "acc-1")
	rr := httptest.NewRecorder()
	handler.HandleGenerate(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp GenerateSnapshotsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Days != 5 {
		t.Errorf("expected 5 days generated, got %d", resp.Days)
	}
}

func TestHandleGenerate_InvalidRange(t *testing.T) {
	store := &snapshotStore{}
	repo := &MockAccountRepo{GetMemberFunc: memberOf("acc-1", 1, account.RoleMember)}
	handler := newSnapshotHandler(store, repo)

	body, _ := json.Marshal(GenerateSnapshotsRequest{Start: "2024-02-01", End: "2024-01-01"})
	req := httptest.NewRequest(http.MethodPost, "/api/accounts/acc-1/snapshots/generate", bytes.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, int64(1)))
	req.SetPathValue("id", "acc-1")
	rr := httptest.NewRecorder()
	handler.HandleGenerate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for inverted range, got %d", rr.Code)
	}
}

func TestHandleGenerate_NotAMember(t *testing.T) {
	store := &snapshotStore{}
	repo := &MockAccountRepo{GetMemberFunc: memberOf("acc-1", 2, account.RoleOwner)}
	handler := newSnapshotHandler(store, repo)

	req := authedRequest(http.MethodPost, "/api/accounts/acc-1/snapshots/generate", 1)
	req.SetPathValue("id", "acc-1")
	rr := httptest.NewRecorder()
	handler.HandleGenerate(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-member, got %d", rr.Code)
	}
}

func TestHandleSnapshots_BadDates(t *testing.T) {
	store := &snapshotStore{}
	repo := &MockAccountRepo{GetMemberFunc: memberOf("acc-1", 1, account.RoleMember)}
	handler := newSnapshotHandler(store, repo)

	tests := []struct {
		name  string
		query string
	}{
		{"missing both", ""},
		{"missing end", "?start=2024-01-01"},
		{"malformed start", "?start=01/01/2024&end=2024-01-31"},
		{"inverted", "?start=2024-02-01&end=2024-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authedRequest(http.MethodGet, "/api/accounts/acc-1/snapshots"+tt.query, 1)
			req.SetPathValue("id", "acc-1")
			rr := httptest.NewRecorder()
			handler.HandleSnapshots(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestHandleSnapshots_ReturnsRange(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	store := &snapshotStore{
		snapshots: []*snapshot.Snapshot{
			{AccountID: "acc-1", Date: day(1), Balance: decimal.NewFromInt(1000)},
			{AccountID: "acc-1", Date: day(2), Balance: decimal.NewFromInt(1000)},
			{AccountID: "acc-1", Date: day(9), Balance: decimal.NewFromInt(1200)},
		},
	}
	repo := &MockAccountRepo{GetMemberFunc: memberOf("acc-1", 1, account.RoleMember)}
	handler := newSnapshotHandler(store, repo)

	req := authedRequest(http.MethodGet, "/api/accounts/acc-1/snapshots?start=2024-01-01&end=2024-01-05", 1)
	req.SetPathValue("id", "acc-1")
	rr := httptest.NewRecorder()
	handler.HandleSnapshots(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var snaps []*snapshot.Snapshot
	if err := json.NewDecoder(rr.Body).Decode(&snaps); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(snaps) != 2 {
		t.Errorf("expected 2 snapshots in range, got %d", len(snaps))
	}
}
