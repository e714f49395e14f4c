package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"saldo/internal/domain/account"
	"saldo/internal/shared/middleware"
)

type AccountHandler struct {
	accountService *account.Service
}

func NewAccountHandler(accountService *account.Service) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

type CreateAccountRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

type AddMemberRequest struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
}

// HandleAccounts handles the account collection (GET list, POST create)
func (h *AccountHandler) HandleAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleListAccounts(w, r, userID)
	case http.MethodPost:
		h.handleCreateAccount(w, r, userID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AccountHandler) handleListAccounts(w http.ResponseWriter, r *http.Request, userID int64) {
	accounts, err := h.accountService.ListAccountsByUserID(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing accounts for user %d: %v", userID, err)
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	if accounts == nil {
		accounts = []*account.Account{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accounts)
}

func (h *AccountHandler) handleCreateAccount(w http.ResponseWriter, r *http.Request, userID int64) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	acc, err := h.accountService.CreateAccount(r.Context(), account.CreateParams{
		Name:      req.Name,
		Currency:  req.Currency,
		CreatedBy: userID,
	})
	if err != nil {
		if errors.Is(err, account.ErrInvalidCurrency) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Error creating account for user %d: %v", userID, err)
		http.Error(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(acc)
}

// HandleAccountByID handles operations on a specific account (GET and DELETE)
func (h *AccountHandler) HandleAccountByID(w http.ResponseWriter, r *http.Request) {
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

	switch r.Method {
	case http.MethodGet:
		h.handleGetAccount(w, r, userID, accountID)
	case http.MethodDelete:
		h.handleDeleteAccount(w, r, userID, accountID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AccountHandler) handleGetAccount(w http.ResponseWriter, r *http.Request, userID int64, accountID string) {
	acc, err := h.accountService.GetAccount(r.Context(), accountID, userID)
	if err != nil {
		writeAccountError(w, accountID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(acc)
}

func (h *AccountHandler) handleDeleteAccount(w http.ResponseWriter, r *http.Request, userID int64, accountID string) {
	if err := h.accountService.DeleteAccount(r.Context(), accountID, userID); err != nil {
		writeAccountError(w, accountID, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleMembers handles the member collection of an account (GET list, POST add)
func (h *AccountHandler) HandleMembers(w http.ResponseWriter, r *http.Request) {
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

	switch r.Method {
	case http.MethodGet:
		h.handleListMembers(w, r, userID, accountID)
	case http.MethodPost:
		h.handleAddMember(w, r, userID, accountID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AccountHandler) handleListMembers(w http.ResponseWriter, r *http.Request, userID int64, accountID string) {
	members, err := h.accountService.ListMembers(r.Context(), accountID, userID)
	if err != nil {
		writeAccountError(w, accountID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(members)
}

func (h *AccountHandler) handleAddMember(w http.ResponseWriter, r *http.Request, userID int64, accountID string) {
	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID <= 0 {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}
	if req.Role == "" {
		req.Role = account.RoleMember
	}

	if err := h.accountService.AddMember(r.Context(), accountID, userID, req.UserID, req.Role); err != nil {
		writeAccountError(w, accountID, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// HandleMemberByID removes a member from an account (DELETE)
func (h *AccountHandler) HandleMemberByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accountID := r.PathValue("id")
	targetID, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if accountID == "" || err != nil {
		http.Error(w, "Account ID and user ID are required", http.StatusBadRequest)
		return
	}

	if err := h.accountService.RemoveMember(r.Context(), accountID, userID, targetID); err != nil {
		writeAccountError(w, accountID, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeAccountError maps account domain errors to HTTP status codes
func writeAccountError(w http.ResponseWriter, accountID string, err error) {
	switch {
	case errors.Is(err, account.ErrAccountNotFound):
		http.Error(w, "Account not found", http.StatusNotFound)
	case errors.Is(err, account.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, account.ErrNotMember):
		http.Error(w, "Member not found", http.StatusNotFound)
	case errors.Is(err, account.ErrAlreadyMember):
		http.Error(w, "User is already a member", http.StatusConflict)
	case errors.Is(err, account.ErrLastOwner):
		http.Error(w, "Cannot remove the last owner", http.StatusConflict)
	case errors.Is(err, account.ErrInvalidCurrency):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("Account operation failed for %s: %v", accountID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
