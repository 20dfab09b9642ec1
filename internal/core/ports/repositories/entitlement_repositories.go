package repositories

import (
	"context"
	"time"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
)

// EntitlementReader defines read operations for rules and sessions.
type EntitlementReader interface {
	// FindActiveRule returns the active pricing rule for (account, app),
	// or apperrors.ErrNotFound.
	FindActiveRule(ctx context.Context, accountID, appRef string) (*domain.AppEntitlementRule, error)
	ListRulesByAccount(ctx context.Context, accountID string) ([]domain.AppEntitlementRule, error)

	FindSessionByID(ctx context.Context, sessionID string) (*domain.EntitlementSession, error)

	// FindActiveSessionByApp returns the active session for (account, app)
	// if one exists, or apperrors.ErrNotFound.
	FindActiveSessionByApp(ctx context.Context, accountID, appRef string) (*domain.EntitlementSession, error)
	ListSessionsByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.EntitlementSession, error)
}

// EntitlementWriter defines write operations for rules and sessions.
type EntitlementWriter interface {
	// UpsertRule creates or replaces the pricing rule for (account, app).
	UpsertRule(ctx context.Context, rule domain.AppEntitlementRule) error

	// OpenSessionAtomic debits the account and inserts the session, the
	// spend transaction and the audit entry in one database transaction.
	// Either all four writes land or none do. Error semantics match
	// LedgerWriter.ApplyTransaction. Returns the new balance.
	OpenSessionAtomic(ctx context.Context, session domain.EntitlementSession, txn domain.Transaction, audit domain.AuditEntry) (int64, error)

	// MarkSessionExpired flips an active session to expired, recording now
	// as the observed expiry time. Idempotent:
	// expiring an already-expired session is a no-op.
	MarkSessionExpired(ctx context.Context, sessionID string, now time.Time) error

	// ExpireDueSessions marks every active session whose expiry has passed
	// as expired and returns how many were flipped.
	ExpireDueSessions(ctx context.Context, now time.Time) (int64, error)
}

// EntitlementRepository combines all entitlement repository operations.
type EntitlementRepository interface {
	EntitlementReader
	EntitlementWriter
}
