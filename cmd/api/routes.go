package main

import (
	"log"
	"net/http"

	httphandlers "saldo/internal/interfaces/http"
	"saldo/internal/shared/config"
	"saldo/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	// Public auth routes
	mux.HandleFunc("/api/auth/register", deps.AuthHandler.HandleRegister)
	mux.HandleFunc("/api/auth/login", deps.AuthHandler.HandleLogin)
	mux.HandleFunc("/api/auth/refresh", deps.AuthHandler.HandleRefresh)
	mux.HandleFunc("/api/auth/logout", deps.AuthHandler.HandleLogout)

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT)

	mux.Handle("/api/users/me", authMiddleware(http.HandlerFunc(deps.UserHandler.HandleMe)))
	mux.Handle("/api/accounts", authMiddleware(http.HandlerFunc(deps.AccountHandler.HandleAccounts)))
	mux.Handle("/api/accounts/{id}", authMiddleware(http.HandlerFunc(deps.AccountHandler.HandleAccountByID)))
	mux.Handle("/api/accounts/{id}/members", authMiddleware(http.HandlerFunc(deps.AccountHandler.HandleMembers)))
	mux.Handle("/api/accounts/{id}/members/{userId}", authMiddleware(http.HandlerFunc(deps.AccountHandler.HandleMemberByID)))
	mux.Handle("/api/accounts/{id}/transactions", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleAccountTransactions)))
	mux.Handle("/api/accounts/{id}/snapshots", authMiddleware(http.HandlerFunc(deps.SnapshotHandler.HandleSnapshots)))
	mux.Handle("/api/accounts/{id}/snapshots/generate", authMiddleware(http.HandlerFunc(deps.SnapshotHandler.HandleGenerate)))
	mux.Handle("/api/accounts/{id}/statement", authMiddleware(http.HandlerFunc(deps.StatementHandler.HandleImport)))
	mux.Handle("/api/notifications/register-device", authMiddleware(http.HandlerFunc(deps.NotificationHandler.HandleRegisterDevice)))

	// Apply global middleware
	handler := middleware.Logging(middleware.CORS(cfg.Server.AllowedHosts)(mux))

	// Telemetry middleware when enabled (request metrics + distributed tracing)
	if cfg.Telemetry.Enabled {
		handler = middleware.Tracing(middleware.Telemetry(handler))
	}

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		log.Println("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}
