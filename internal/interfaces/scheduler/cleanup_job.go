package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"saldo/internal/domain/user"
)

// TokenCleanupJob implements the Job interface for purging refresh
// tokens that expired more than the retention window ago.
type TokenCleanupJob struct {
	tokens    user.TokenRepository
	retention time.Duration
}

// NewTokenCleanupJob creates a cleanup job for expired refresh tokens
func NewTokenCleanupJob(tokens user.TokenRepository, retention time.Duration) *TokenCleanupJob {
	return &TokenCleanupJob{
		tokens:    tokens,
		retention: retention,
	}
}

// Execute runs the token cleanup job
func (j *TokenCleanupJob) Execute(ctx context.Context) error {
	cutoff := time.Now().Add(-j.retention)

	deleted, err := j.tokens.DeleteExpired(ctx, cutoff)
	if err != nil {
		log.Printf("Token cleanup failed: %v", err)
		return fmt.Errorf("cleanup failed: %w", err)
	}

	log.Printf("Token cleanup completed: %d tokens removed", deleted)

	return nil
}

// Subject returns the table this job operates on
func (j *TokenCleanupJob) Subject() string {
	return "refresh_tokens"
}

// Description returns a human-readable description of the job
func (j *TokenCleanupJob) Description() string {
	return "Expired refresh token cleanup"
}
