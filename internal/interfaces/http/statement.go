package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"saldo/internal/domain/account"
	"saldo/internal/domain/statement"
	"saldo/internal/shared/middleware"
)

// Statement uploads are capped well above what a year of daily banking
// produces.
const maxStatementSize = 10 << 20 // 10 MiB

type StatementHandler struct {
	importer *statement.ImportService
}

func NewStatementHandler(importer *statement.ImportService) *StatementHandler {
	return &StatementHandler{importer: importer}
}

// HandleImport imports a CSV statement uploaded as multipart form data
// (field name "file") into the account.
func (h *StatementHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
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

	r.Body = http.MaxBytesReader(w, r.Body, maxStatementSize)
	if err := r.ParseMultipartForm(maxStatementSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Statement file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := h.importer.Import(r.Context(), userID, accountID, file)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrAccountNotFound):
			http.Error(w, "Account not found", http.StatusNotFound)
		case errors.Is(err, account.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
		case errors.Is(err, statement.ErrEmptyStatement),
			errors.Is(err, statement.ErrColumnsNotFound),
			errors.Is(err, statement.ErrMalformedCSV):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.Printf("Error importing statement for account %s: %v", accountID, err)
			http.Error(w, "Failed to import statement", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
