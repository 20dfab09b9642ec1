package repositories

import (
	"context"
	"time"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
)

// ChildAccountReader defines read operations for child account data.
type ChildAccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.ChildAccount, error)

	// ListAccountsByOwner retrieves all accounts registered by a parent.
	ListAccountsByOwner(ctx context.Context, ownerID string) ([]domain.ChildAccount, error)
}

// ChildAccountWriter defines write operations for child account data.
type ChildAccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.ChildAccount) error

	// DeactivateAccount marks an account as inactive. Accounts are never
	// physically deleted.
	DeactivateAccount(ctx context.Context, accountID string, actorID string, now time.Time) error
}

// ChildAccountRepository combines all account-related repository operations.
type ChildAccountRepository interface {
	ChildAccountReader
	ChildAccountWriter
}
