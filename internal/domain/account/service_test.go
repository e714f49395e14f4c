package account

import (
	"context"
	"errors"
	"testing"
	"time"
)

// MockRepository is a mock implementation of Repository interface
type MockRepository struct {
	CreateFunc       func(ctx context.Context, params CreateParams) (*Account, error)
	GetByIDFunc      func(ctx context.Context, id string) (*Account, error)
	ListByUserIDFunc func(ctx context.Context, userID int64) ([]*Account, error)
	ListAllIDsFunc   func(ctx context.Context) ([]string, error)
	DeleteFunc       func(ctx context.Context, id string) error
	GetMemberFunc    func(ctx context.Context, accountID string, userID int64) (*Member, error)
	ListMembersFunc  func(ctx context.Context, accountID string) ([]*Member, error)
	AddMemberFunc    func(ctx context.Context, accountID string, userID int64, role string) error
	RemoveMemberFunc func(ctx context.Context, accountID string, userID int64) error
}

func (m *MockRepository) Create(ctx context.Context, params CreateParams) (*Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockRepository) ListByUserID(ctx context.Context, userID int64) ([]*Account, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockRepository) ListAllIDs(ctx context.Context) ([]string, error) {
	if m.ListAllIDsFunc != nil {
		return m.ListAllIDsFunc(ctx)
	}
	return nil, nil
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockRepository) GetMember(ctx context.Context, accountID string, userID int64) (*Member, error) {
	if m.GetMemberFunc != nil {
		return m.GetMemberFunc(ctx, accountID, userID)
	}
	return nil, ErrNotMember
}

func (m *MockRepository) ListMembers(ctx context.Context, accountID string) ([]*Member, error) {
	if m.ListMembersFunc != nil {
		return m.ListMembersFunc(ctx, accountID)
	}
	return nil, nil
}

func (m *MockRepository) AddMember(ctx context.Context, accountID string, userID int64, role string) error {
	if m.AddMemberFunc != nil {
		return m.AddMemberFunc(ctx, accountID, userID, role)
	}
	return nil
}

func (m *MockRepository) RemoveMember(ctx context.Context, accountID string, userID int64) error {
	if m.RemoveMemberFunc != nil {
		return m.RemoveMemberFunc(ctx, accountID, userID)
	}
	return nil
}

func memberOf(accountID string, userID int64, role string) func(ctx context.Context, a string, u int64) (*Member, error) {
	return func(_ context.Context, a string, u int64) (*Member, error) {
		if a == accountID && u == userID {
			return &Member{AccountID: a, UserID: u, Role: role, AddedAt: time.Now()}, nil
		}
		return nil, ErrNotMember
	}
}

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		params  CreateParams
		wantErr bool
		errType error
	}{
		{
			name:   "Success",
			params: CreateParams{Name: "Joint Checking", Currency: "EUR", CreatedBy: 1},
		},
		{
			name:   "Default Currency Applied",
			params: CreateParams{Name: "Savings", CreatedBy: 1},
		},
		{
			name:    "Invalid Currency",
			params:  CreateParams{Name: "Savings", Currency: "XXX", CreatedBy: 1},
			wantErr: true,
			errType: ErrInvalidCurrency,
		},
		{
			name:    "Missing Name",
			params:  CreateParams{Currency: "EUR", CreatedBy: 1},
			wantErr: true,
		},
		{
			name:    "Missing Creator",
			params:  CreateParams{Name: "Savings", Currency: "EUR"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockRepository{
				CreateFunc: func(_ context.Context, params CreateParams) (*Account, error) {
					return &Account{ID: "acc-1", Name: params.Name, Currency: params.Currency, CreatedBy: params.CreatedBy}, nil
				},
			}
			svc := NewService(repo)

			acc, err := svc.CreateAccount(ctx, tt.params)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errType != nil && !errors.Is(err, tt.errType) {
					t.Errorf("expected %v, got %v", tt.errType, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if acc.Currency == "" {
				t.Error("expected a currency to be set")
			}
		})
	}
}

func TestGetAccountMembership(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepository{
		GetByIDFunc: func(_ context.Context, id string) (*Account, error) {
			if id != "acc-1" {
				return nil, ErrAccountNotFound
			}
			return &Account{ID: "acc-1", Name: "Joint", Currency: "EUR"}, nil
		},
		GetMemberFunc: memberOf("acc-1", 7, RoleMember),
	}
	svc := NewService(repo)

	if _, err := svc.GetAccount(ctx, "acc-1", 7); err != nil {
		t.Errorf("member should read the account, got %v", err)
	}

	if _, err := svc.GetAccount(ctx, "acc-1", 99); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-member must get ErrForbidden, got %v", err)
	}

	if _, err := svc.GetAccount(ctx, "missing", 7); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAddMember(t *testing.T) {
	ctx := context.Background()

	t.Run("owner can share", func(t *testing.T) {
		added := false
		repo := &MockRepository{
			GetMemberFunc: memberOf("acc-1", 1, RoleOwner),
			AddMemberFunc: func(_ context.Context, _ string, userID int64, role string) error {
				added = userID == 2 && role == RoleMember
				return nil
			},
		}
		svc := NewService(repo)

		if err := svc.AddMember(ctx, "acc-1", 1, 2, RoleMember); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !added {
			t.Error("expected AddMember to be called with the new user")
		}
	})

	t.Run("member cannot share", func(t *testing.T) {
		repo := &MockRepository{GetMemberFunc: memberOf("acc-1", 1, RoleMember)}
		svc := NewService(repo)

		if err := svc.AddMember(ctx, "acc-1", 1, 2, RoleMember); !errors.Is(err, ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("duplicate member rejected", func(t *testing.T) {
		repo := &MockRepository{
			GetMemberFunc: func(_ context.Context, a string, u int64) (*Member, error) {
				return &Member{AccountID: a, UserID: u, Role: RoleOwner}, nil
			},
		}
		svc := NewService(repo)

		if err := svc.AddMember(ctx, "acc-1", 1, 2, RoleMember); !errors.Is(err, ErrAlreadyMember) {
			t.Errorf("expected ErrAlreadyMember, got %v", err)
		}
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		svc := NewService(&MockRepository{})
		if err := svc.AddMember(ctx, "acc-1", 1, 2, "ADMIN"); err == nil {
			t.Error("expected error for unknown role")
		}
	})
}

func TestRemoveMemberLastOwner(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepository{
		GetMemberFunc: memberOf("acc-1", 1, RoleOwner),
		ListMembersFunc: func(_ context.Context, _ string) ([]*Member, error) {
			return []*Member{{AccountID: "acc-1", UserID: 1, Role: RoleOwner}}, nil
		},
	}
	svc := NewService(repo)

	if err := svc.RemoveMember(ctx, "acc-1", 1, 1); !errors.Is(err, ErrLastOwner) {
		t.Errorf("expected ErrLastOwner, got %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("owner deletes", func(t *testing.T) {
		deleted := false
		repo := &MockRepository{
			GetMemberFunc: memberOf("acc-1", 1, RoleOwner),
			DeleteFunc: func(_ context.Context, id string) error {
				deleted = id == "acc-1"
				return nil
			},
		}
		svc := NewService(repo)

		if err := svc.DeleteAccount(ctx, "acc-1", 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !deleted {
			t.Error("expected Delete to be called")
		}
	})

	t.Run("member cannot delete", func(t *testing.T) {
		repo := &MockRepository{GetMemberFunc: memberOf("acc-1", 2, RoleMember)}
		svc := NewService(repo)

		if err := svc.DeleteAccount(ctx, "acc-1", 2); !errors.Is(err, ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})
}
