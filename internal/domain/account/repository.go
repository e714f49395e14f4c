package account

import "context"

// Repository defines the interface for account data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// Create creates a new account and enrolls the creator as its owner
	Create(ctx context.Context, params CreateParams) (*Account, error)

	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, id string) (*Account, error)

	// ListByUserID retrieves all accounts the user is a member of
	ListByUserID(ctx context.Context, userID int64) ([]*Account, error)

	// ListAllIDs returns the IDs of every account in the system
	ListAllIDs(ctx context.Context) ([]string, error)

	// Delete removes an account, its members, transactions and snapshots
	Delete(ctx context.Context, id string) error

	// GetMember returns the membership row for a user on an account,
	// or ErrNotMember when none exists
	GetMember(ctx context.Context, accountID string, userID int64) (*Member, error)

	// ListMembers returns all members of an account
	ListMembers(ctx context.Context, accountID string) ([]*Member, error)

	// AddMember enrolls a user on an account with the given role
	AddMember(ctx context.Context, accountID string, userID int64, role string) error

	// RemoveMember removes a user from an account
	RemoveMember(ctx context.Context, accountID string, userID int64) error
}
