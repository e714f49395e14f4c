package main

import (
	"context"
	"log"

	"saldo/internal/domain/account"
	"saldo/internal/domain/notification"
	"saldo/internal/domain/snapshot"
	"saldo/internal/domain/statement"
	"saldo/internal/infrastructure/firebase"
	"saldo/internal/infrastructure/postgres"
	httphandlers "saldo/internal/interfaces/http"
	"saldo/internal/shared/auth"
	"saldo/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	AuthHandler         *httphandlers.AuthHandler
	UserHandler         *httphandlers.UserHandler
	AccountHandler      *httphandlers.AccountHandler
	TransactionHandler  *httphandlers.TransactionHandler
	SnapshotHandler     *httphandlers.SnapshotHandler
	StatementHandler    *httphandlers.StatementHandler
	NotificationHandler *httphandlers.NotificationHandler

	// Auth
	JWT *auth.JWT

	// Snapshot generator (for the scheduler job provider)
	Generator *snapshot.Generator

	// Repositories (for the scheduler job provider)
	AccountRepo *postgres.AccountRepository
	TokenRepo   *postgres.RefreshTokenRepository
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	tokenRepo := postgres.NewRefreshTokenRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	snapshotRepo := postgres.NewSnapshotRepository(db)
	deviceTokenRepo := postgres.NewDeviceTokenRepository(db)

	// Initialize domain services
	accountService := account.NewService(accountRepo)
	generator := snapshot.NewGenerator(transactionRepo, snapshotRepo)

	// Initialize push messaging (optional: no credentials means no pushes)
	var messenger notification.Messenger
	if cfg.Firebase.CredentialsFile != "" {
		fcmClient, err := firebase.NewClient(ctx, cfg.Firebase.CredentialsFile, deviceTokenRepo.DeactivateToken)
		if err != nil {
			log.Printf("Warning: Failed to initialize Firebase client: %v", err)
		} else {
			messenger = fcmClient
			log.Println("Firebase messaging initialized")
		}
	}
	notificationService := notification.NewService(deviceTokenRepo, messenger)

	importService := statement.NewImportService(accountService, transactionRepo, generator, notificationService)

	// Initialize auth components
	jwt := auth.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTTL)

	// Initialize handlers
	authHandler := httphandlers.NewAuthHandler(userRepo, tokenRepo, jwt, cfg.JWT.RefreshTTL)
	userHandler := httphandlers.NewUserHandler(userRepo)
	accountHandler := httphandlers.NewAccountHandler(accountService)
	transactionHandler := httphandlers.NewTransactionHandler(accountService, transactionRepo, generator)
	snapshotHandler := httphandlers.NewSnapshotHandler(accountService, snapshotRepo, generator)
	statementHandler := httphandlers.NewStatementHandler(importService)
	notificationHandler := httphandlers.NewNotificationHandler(notificationService)

	return &Dependencies{
		DB:                  db,
		AuthHandler:         authHandler,
		UserHandler:         userHandler,
		AccountHandler:      accountHandler,
		TransactionHandler:  transactionHandler,
		SnapshotHandler:     snapshotHandler,
		StatementHandler:    statementHandler,
		NotificationHandler: notificationHandler,
		JWT:                 jwt,
		Generator:           generator,
		AccountRepo:         accountRepo,
		TokenRepo:           tokenRepo,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
