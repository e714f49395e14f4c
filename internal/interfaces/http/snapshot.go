package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"saldo/internal/domain/account"
	"saldo/internal/domain/snapshot"
	"saldo/internal/shared/middleware"
)

type SnapshotHandler struct {
	accountService *account.Service
	snapshots      snapshot.Repository
	generator      *snapshot.Generator
}

func NewSnapshotHandler(accountService *account.Service, snapshots snapshot.Repository, generator *snapshot.Generator) *SnapshotHandler {
	return &SnapshotHandler{
		accountService: accountService,
		snapshots:      snapshots,
		generator:      generator,
	}
}

type GenerateSnapshotsRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type GenerateSnapshotsResponse struct {
	AccountID string `json:"accountId"`
	Days      int    `json:"days"`
}

// HandleSnapshots returns an account's daily balance history within
// [start, end] (GET ?start=YYYY-MM-DD&end=YYYY-MM-DD)
func (h *SnapshotHandler) HandleSnapshots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accountID := r.PathValue("id")
	if accountID == "" {
		http.Error(w, "Account ID is required", http.StatusBadRequest)
		return
	}

	if err := h.accountService.RequireMember(r.Context(), accountID, userID); err != nil {
		writeAccountError(w, accountID, err)
		return
	}

	start, err := time.Parse(snapshot.DateLayout, r.URL.Query().Get("start"))
	if err != nil {
		http.Error(w, "start must be in YYYY-MM-DD format", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(snapshot.DateLayout, r.URL.Query().Get("end"))
	if err != nil {
		http.Error(w, "end must be in YYYY-MM-DD format", http.StatusBadRequest)
		return
	}
	if start.After(end) {
		http.Error(w, "start must not be after end", http.StatusBadRequest)
		return
	}

	snapshots, err := h.snapshots.ListRange(r.Context(), accountID, snapshot.Day(start), snapshot.Day(end))
	if err != nil {
		log.Printf("Error listing snapshots for account %s: %v", accountID, err)
		http.Error(w, "Failed to list snapshots", http.StatusInternalServerError)
		return
	}
	if snapshots == nil {
		snapshots = []*snapshot.Snapshot{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshots)
}

// HandleGenerate regenerates an account's snapshots (POST). With a start/end
// body the given range is generated; with an empty body the account's full
// transaction history is regenerated.
func (h *SnapshotHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accountID := r.PathValue("id")
	if accountID == "" {
		http.Error(w, "Account ID is required", http.StatusBadRequest)
		return
	}

	if err := h.accountService.RequireMember(r.Context(), accountID, userID); err != nil {
		writeAccountError(w, accountID, err)
		return
	}

	var req GenerateSnapshotsRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	var days int
	var err error
	if req.Start == "" && req.End == "" {
		days, err = h.generator.GenerateForAccountHistory(r.Context(), accountID)
	} else {
		var start, end time.Time
		start, err = time.Parse(snapshot.DateLayout, req.Start)
		if err != nil {
			http.Error(w, "start must be in YYYY-MM-DD format", http.StatusBadRequest)
			return
		}
		end, err = time.Parse(snapshot.DateLayout, req.End)
		if err != nil {
			http.Error(w, "end must be in YYYY-MM-DD format", http.StatusBadRequest)
			return
		}
		days, err = h.generator.GenerateRange(r.Context(), accountID, start, end)
	}
	if err != nil {
		switch {
		case errors.Is(err, snapshot.ErrInvalidRange):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, snapshot.ErrSnapshotConflict):
			http.Error(w, "Snapshot generation already in progress", http.StatusConflict)
		default:
			log.Printf("Error generating snapshots for account %s: %v", accountID, err)
			http.Error(w, "Failed to generate snapshots", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GenerateSnapshotsResponse{
		AccountID: accountID,
		Days:      days,
	})
}
