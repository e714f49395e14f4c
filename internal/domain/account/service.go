package account

import (
	"context"
	"errors"
)

// Service contains the business logic for shared account operations
type Service struct {
	repo Repository
}

// NewService creates a new account service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateAccount creates a new account with business validation. The creator
// becomes the account's first owner.
func (s *Service) CreateAccount(ctx context.Context, params CreateParams) (*Account, error) {
	// Apply default currency if not provided
	if params.Currency == "" {
		params.Currency = "EUR"
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, params)
}

// GetAccount retrieves an account by ID and verifies the user is a member.
func (s *Service) GetAccount(ctx context.Context, accountID string, userID int64) (*Account, error) {
	acc, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := s.RequireMember(ctx, accountID, userID); err != nil {
		return nil, err
	}

	return acc, nil
}

// ListAccountsByUserID retrieves all accounts the user is a member of.
func (s *Service) ListAccountsByUserID(ctx context.Context, userID int64) ([]*Account, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}

	return s.repo.ListByUserID(ctx, userID)
}

// DeleteAccount deletes an account after verifying the caller owns it.
func (s *Service) DeleteAccount(ctx context.Context, accountID string, userID int64) error {
	if err := s.RequireOwner(ctx, accountID, userID); err != nil {
		return err
	}

	return s.repo.Delete(ctx, accountID)
}

// ListMembers returns an account's members; caller must be a member.
func (s *Service) ListMembers(ctx context.Context, accountID string, userID int64) ([]*Member, error) {
	if err := s.RequireMember(ctx, accountID, userID); err != nil {
		return nil, err
	}

	return s.repo.ListMembers(ctx, accountID)
}

// AddMember shares the account with another user. Only owners can share.
func (s *Service) AddMember(ctx context.Context, accountID string, ownerID, newUserID int64, role string) error {
	if role != RoleOwner && role != RoleMember {
		return errors.New("role must be OWNER or MEMBER")
	}

	if err := s.RequireOwner(ctx, accountID, ownerID); err != nil {
		return err
	}

	if _, err := s.repo.GetMember(ctx, accountID, newUserID); err == nil {
		return ErrAlreadyMember
	} else if !errors.Is(err, ErrNotMember) {
		return err
	}

	return s.repo.AddMember(ctx, accountID, newUserID, role)
}

// RemoveMember removes a user from the account. Owners can remove anyone;
// members can remove themselves. The last owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, accountID string, callerID, targetID int64) error {
	if callerID != targetID {
		if err := s.RequireOwner(ctx, accountID, callerID); err != nil {
			return err
		}
	} else if err := s.RequireMember(ctx, accountID, callerID); err != nil {
		return err
	}

	target, err := s.repo.GetMember(ctx, accountID, targetID)
	if err != nil {
		return err
	}

	if target.Role == RoleOwner {
		owners, err := s.countOwners(ctx, accountID)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return ErrLastOwner
		}
	}

	return s.repo.RemoveMember(ctx, accountID, targetID)
}

// RequireMember returns ErrForbidden unless the user is a member of the account.
func (s *Service) RequireMember(ctx context.Context, accountID string, userID int64) error {
	_, err := s.repo.GetMember(ctx, accountID, userID)
	if errors.Is(err, ErrNotMember) {
		return ErrForbidden
	}
	return err
}

// RequireOwner returns ErrForbidden unless the user owns the account.
func (s *Service) RequireOwner(ctx context.Context, accountID string, userID int64) error {
	m, err := s.repo.GetMember(ctx, accountID, userID)
	if errors.Is(err, ErrNotMember) {
		return ErrForbidden
	}
	if err != nil {
		return err
	}
	if m.Role != RoleOwner {
		return ErrForbidden
	}
	return nil
}

func (s *Service) countOwners(ctx context.Context, accountID string) (int, error) {
	members, err := s.repo.ListMembers(ctx, accountID)
	if err != nil {
		return 0, err
	}
	owners := 0
	for _, m := range members {
		if m.Role == RoleOwner {
			owners++
		}
	}
	return owners, nil
}
