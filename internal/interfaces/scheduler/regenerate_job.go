package scheduler

import (
	"context"
	"fmt"
	"log"

	"saldo/internal/domain/account"
	"saldo/internal/domain/snapshot"
)

// RegenerateJob implements the Job interface for rebuilding the daily
// balance snapshots of a single account.
type RegenerateJob struct {
	accountID string
	generator *snapshot.Generator
}

// NewRegenerateJob creates a new snapshot regeneration job for an account
func NewRegenerateJob(accountID string, generator *snapshot.Generator) *RegenerateJob {
	return &RegenerateJob{
		accountID: accountID,
		generator: generator,
	}
}

// Execute runs the snapshot regeneration job
func (j *RegenerateJob) Execute(ctx context.Context) error {
	log.Printf("Starting snapshot regeneration for account %s", j.accountID)

	days, err := j.generator.GenerateForAccountHistory(ctx, j.accountID)
	if err != nil {
		log.Printf("Snapshot regeneration failed for account %s: %v", j.accountID, err)
		return fmt.Errorf("regeneration failed: %w", err)
	}

	log.Printf("Snapshot regeneration for account %s completed: %d days written", j.accountID, days)

	return nil
}

// Subject returns the account ID associated with this job
func (j *RegenerateJob) Subject() string {
	return j.accountID
}

// Description returns a human-readable description of the job
func (j *RegenerateJob) Description() string {
	return fmt.Sprintf("Snapshot regeneration for account %s", j.accountID)
}

// NewRegenerateJobProvider returns a job provider that emits one
// regeneration job per known account. Intended to be plugged into
// SchedulerConfig.JobProvider.
func NewRegenerateJobProvider(accounts account.Repository, generator *snapshot.Generator) func(context.Context) ([]Job, error) {
	return func(ctx context.Context) ([]Job, error) {
		ids, err := accounts.ListAllIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list accounts: %w", err)
		}

		jobs := make([]Job, 0, len(ids))
		for _, id := range ids {
			jobs = append(jobs, NewRegenerateJob(id, generator))
		}
		return jobs, nil
	}
}
