package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"saldo/internal/domain/user"
	"saldo/internal/shared/auth"
	"saldo/internal/shared/middleware"
)

type AuthHandler struct {
	users      user.Repository
	tokens     user.TokenRepository
	jwt        *auth.JWT
	refreshTTL time.Duration
}

func NewAuthHandler(users user.Repository, tokens user.TokenRepository, jwt *auth.JWT, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		users:      users,
		tokens:     tokens,
		jwt:        jwt,
		refreshTTL: refreshTTL,
	}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type AuthResponse struct {
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
	User         *user.User `json:"user"`
}

// HandleRegister creates a new user with password authentication
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" || req.Name == "" {
		http.Error(w, "Email, password, and name are required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		http.Error(w, user.ErrWeakPassword.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password during registration: %v", err)
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	userModel, err := h.users.Create(ctx, user.CreateParams{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: passwordHash,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			http.Error(w, "User with this email already exists", http.StatusConflict)
		case errors.Is(err, user.ErrInvalidEmail):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.Printf("Error creating user: %v", err)
			http.Error(w, "Failed to create user", http.StatusInternalServerError)
		}
		return
	}

	h.respondWithTokens(w, r, userModel)
}

// HandleLogin authenticates a user with email and password
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	userModel, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := auth.VerifyPassword(userModel.PasswordHash, req.Password); err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	h.respondWithTokens(w, r, userModel)
}

// HandleRefresh rotates a refresh token: the presented token is marked used
// and a new access/refresh pair is issued. A token that was already used or
// revoked indicates theft or a replayed request, so the whole chain for that
// user is revoked.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		http.Error(w, "Refresh token is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	stored, err := h.tokens.GetToken(ctx, auth.HashRefreshToken(req.RefreshToken))
	if err != nil {
		http.Error(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	if err := stored.Valid(time.Now()); err != nil {
		if errors.Is(err, user.ErrTokenUsed) || errors.Is(err, user.ErrTokenRevoked) {
			log.Printf("Refresh token reuse detected for user %d, revoking all tokens", stored.UserID)
			if revokeErr := h.tokens.RevokeAllForUser(ctx, stored.UserID); revokeErr != nil {
				log.Printf("Failed to revoke tokens for user %d: %v", stored.UserID, revokeErr)
			}
		}
		http.Error(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	if err := h.tokens.MarkUsed(ctx, stored.ID); err != nil {
		log.Printf("Failed to mark refresh token used: %v", err)
		http.Error(w, "Failed to rotate token", http.StatusInternalServerError)
		return
	}

	userModel, err := h.users.GetByID(ctx, stored.UserID)
	if err != nil {
		http.Error(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	h.respondWithTokens(w, r, userModel)
}

// HandleLogout revokes the user's refresh tokens and clears the auth cookie
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if userID, ok := r.Context().Value(middleware.UserIDKey).(int64); ok {
		if err := h.tokens.RevokeAllForUser(r.Context(), userID); err != nil {
			log.Printf("Failed to revoke refresh tokens for user %d: %v", userID, err)
		}
	}

	secure := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"

	// Clear the cookie by setting MaxAge to -1
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) respondWithTokens(w http.ResponseWriter, r *http.Request, userModel *user.User) {
	ctx := r.Context()

	accessToken, err := h.jwt.Generate(userModel.ID, userModel.Email)
	if err != nil {
		log.Printf("Error generating JWT for user %d: %v", userModel.ID, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	refreshToken, err := auth.NewRefreshToken()
	if err != nil {
		log.Printf("Error generating refresh token for user %d: %v", userModel.ID, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	expiresAt := time.Now().Add(h.refreshTTL)
	if _, err := h.tokens.CreateToken(ctx, userModel.ID, auth.HashRefreshToken(refreshToken), expiresAt); err != nil {
		log.Printf("Error storing refresh token for user %d: %v", userModel.ID, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	setAuthCookie(w, r, accessToken)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthResponse{
		Token:        accessToken,
		RefreshToken: refreshToken,
		User:         userModel,
	})
}

// setAuthCookie sets the JWT as an HttpOnly cookie
func setAuthCookie(w http.ResponseWriter, r *http.Request, token string) {
	// Only set Secure flag when actually using HTTPS
	secure := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   900, // matches the access token TTL
	})
}
