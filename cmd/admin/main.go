package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"saldo/internal/domain/snapshot"
	"saldo/internal/infrastructure/postgres"
	"saldo/internal/shared/config"
)

const usage = `Saldo Admin CLI - Management commands for the Saldo API

Usage:
  admin <command> [options]

Commands:
  regenerate       Rebuild daily balance snapshots from stored transactions
  token-cleanup    Delete refresh tokens that expired past the retention window

Examples:
  # Regenerate snapshots for a specific account
  admin regenerate --account-id=9f1c...

  # Regenerate snapshots for multiple accounts
  admin regenerate --account-id=9f1c...,77ab...

  # Regenerate snapshots for every account
  admin regenerate --all

  # Run with a timeout
  admin regenerate --all --timeout=1h

  # Purge refresh tokens expired more than 30 days ago
  admin token-cleanup --retention=720h
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "regenerate":
		runRegenerate(os.Args[2:])
	case "token-cleanup":
		runTokenCleanup(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}
}

func runRegenerate(args []string) {
	fs := flag.NewFlagSet("regenerate", flag.ExitOnError)

	accountIDStr := fs.String("account-id", "", "Account ID(s) to regenerate (comma-separated for multiple)")
	allAccounts := fs.Bool("all", false, "Regenerate all accounts")
	timeoutStr := fs.String("timeout", "30m", "Timeout for the operation (e.g., 5m, 1h)")

	fs.Usage = func() {
		fmt.Println("Usage: admin regenerate [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  admin regenerate --account-id=9f1c...")
		fmt.Println("  admin regenerate --account-id=9f1c...,77ab...")
		fmt.Println("  admin regenerate --all --timeout=1h")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *accountIDStr == "" && !*allAccounts {
		fmt.Println("Error: must specify --account-id or --all")
		fs.Usage()
		os.Exit(1)
	}

	// Parse timeout
	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatalf("Invalid timeout format: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	// Initialize repositories and generator
	transactionRepo := postgres.NewTransactionRepository(db)
	snapshotRepo := postgres.NewSnapshotRepository(db)
	generator := snapshot.NewGenerator(transactionRepo, snapshotRepo)

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var accountIDs []string

	if *allAccounts {
		accountRepo := postgres.NewAccountRepository(db)
		accountIDs, err = accountRepo.ListAllIDs(ctx)
		if err != nil {
			log.Fatalf("Failed to list accounts: %v", err)
		}
		log.Printf("Found %d accounts", len(accountIDs))
	} else {
		for _, p := range strings.Split(*accountIDStr, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			accountIDs = append(accountIDs, p)
		}
	}

	if len(accountIDs) == 0 {
		log.Println("No accounts to process")
		return
	}

	log.Printf("Starting snapshot regeneration for %d account(s)", len(accountIDs))
	startTime := time.Now()

	days, err := generator.RegenerateMany(ctx, accountIDs)
	if err != nil {
		log.Fatalf("Snapshot regeneration failed: %v", err)
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\n=== Regeneration complete ===\n")
	fmt.Printf("  Accounts processed: %d\n", len(accountIDs))
	fmt.Printf("  Days written:       %d\n", days)
	fmt.Printf("  Elapsed:            %v\n", elapsed)
}

func runTokenCleanup(args []string) {
	fs := flag.NewFlagSet("token-cleanup", flag.ExitOnError)

	retentionStr := fs.String("retention", "720h", "How long expired tokens are kept before purge (e.g., 168h, 720h)")
	timeoutStr := fs.String("timeout", "5m", "Timeout for the operation")

	fs.Usage = func() {
		fmt.Println("Usage: admin token-cleanup [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	retention, err := time.ParseDuration(*retentionStr)
	if err != nil {
		log.Fatalf("Invalid retention format: %v", err)
	}
	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatalf("Invalid timeout format: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	tokenRepo := postgres.NewRefreshTokenRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cutoff := time.Now().Add(-retention)
	deleted, err := tokenRepo.DeleteExpired(ctx, cutoff)
	if err != nil {
		log.Fatalf("Token cleanup failed: %v", err)
	}

	fmt.Printf("Deleted %d refresh tokens expired before %s\n", deleted, cutoff.Format(time.RFC3339))
}
