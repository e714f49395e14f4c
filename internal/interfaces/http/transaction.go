package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/domain/account"
	"saldo/internal/domain/snapshot"
	"saldo/internal/domain/transaction"
	"saldo/internal/shared/middleware"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 500
)

type TransactionHandler struct {
	accountService *account.Service
	transactions   transaction.Repository
	generator      *snapshot.Generator
}

func NewTransactionHandler(accountService *account.Service, transactions transaction.Repository, generator *snapshot.Generator) *TransactionHandler {
	return &TransactionHandler{
		accountService: accountService,
		transactions:   transactions,
		generator:      generator,
	}
}

type CreateTransactionRequest struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Balance     decimal.Decimal `json:"balance"`
}

type TransactionListResponse struct {
	Transactions []*transaction.Transaction `json:"transactions"`
	Total        int64                      `json:"total"`
}

// HandleAccountTransactions handles an account's transaction collection
// (GET list, POST create)
func (h *TransactionHandler) HandleAccountTransactions(w http.ResponseWriter, r *http.Request) {
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

	switch r.Method {
	case http.MethodGet:
		h.handleListTransactions(w, r, accountID)
	case http.MethodPost:
		h.handleCreateTransaction(w, r, accountID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TransactionHandler) handleListTransactions(w http.ResponseWriter, r *http.Request, accountID string) {
	limit := parseIntParam(r, "limit", defaultTransactionLimit)
	if limit <= 0 || limit > maxTransactionLimit {
		limit = defaultTransactionLimit
	}
	offset := parseIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	transactions, err := h.transactions.ListByAccountID(r.Context(), accountID, limit, offset)
	if err != nil {
		log.Printf("Error listing transactions for account %s: %v", accountID, err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []*transaction.Transaction{}
	}

	total, err := h.transactions.CountByAccountID(r.Context(), accountID)
	if err != nil {
		log.Printf("Error counting transactions for account %s: %v", accountID, err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TransactionListResponse{
		Transactions: transactions,
		Total:        total,
	})
}

func (h *TransactionHandler) handleCreateTransaction(w http.ResponseWriter, r *http.Request, accountID string) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	date, err := time.Parse(snapshot.DateLayout, req.Date)
	if err != nil {
		http.Error(w, "Date must be in YYYY-MM-DD format", http.StatusBadRequest)
		return
	}

	created, err := h.transactions.Create(r.Context(), transaction.CreateParams{
		AccountID:       accountID,
		TransactionDate: date,
		Description:     req.Description,
		Amount:          req.Amount,
		Balance:         req.Balance,
	})
	if err != nil {
		log.Printf("Error creating transaction for account %s: %v", accountID, err)
		http.Error(w, "Failed to create transaction", http.StatusBadRequest)
		return
	}

	// A new observation can change any later day, so refresh the whole series.
	if _, err := h.generator.GenerateForAccountHistory(r.Context(), accountID); err != nil {
		if errors.Is(err, snapshot.ErrSnapshotConflict) {
			log.Printf("Concurrent snapshot generation for account %s: %v", accountID, err)
		} else {
			log.Printf("Error regenerating snapshots for account %s: %v", accountID, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
