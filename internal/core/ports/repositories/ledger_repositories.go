package repositories

import (
	"context"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
)

// LedgerReader defines read operations against the transaction log.
type LedgerReader interface {
	// GetBalance returns the current Time Bucks balance for an account.
	GetBalance(ctx context.Context, accountID string) (int64, error)

	// FindTransactionByIdempotencyKey returns a previously applied
	// transaction for (accountID, key), or apperrors.ErrNotFound.
	FindTransactionByIdempotencyKey(ctx context.Context, accountID, key string) (*domain.Transaction, error)

	// ListTransactionsByAccount returns transactions newest first.
	ListTransactionsByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.Transaction, error)
}

// LedgerWriter defines the atomic mutation operations of the ledger.
type LedgerWriter interface {
	// ApplyTransaction applies balance += txn.Amount and inserts the
	// transaction record as one atomic unit. The balance update is a single
	// conditional UPDATE, so two concurrent spends can never both succeed
	// when only one can be afforded. Fails with ErrInsufficientFunds when
	// the resulting balance would be negative, ErrAccountFrozen when the
	// kind is SPENT and the account is frozen. When audit is non-nil it is
	// inserted in the same database transaction; an audit failure aborts
	// the whole mutation. Returns the new balance.
	ApplyTransaction(ctx context.Context, txn domain.Transaction, audit *domain.AuditEntry) (int64, error)

	// SetFreeze sets the freeze flag (idempotent) and writes the audit
	// entry in the same database transaction.
	SetFreeze(ctx context.Context, accountID string, frozen bool, audit domain.AuditEntry) error
}

// LedgerRepository combines all ledger repository operations.
type LedgerRepository interface {
	LedgerReader
	LedgerWriter
}
