package repositories

import (
	"context"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
)

// AuditRepository reads the append-only audit log. Writes happen inside the
// same database transaction as the privileged mutation they describe, via the
// ledger, task and entitlement repositories.
type AuditRepository interface {
	// ListByAccount returns audit entries for an account, newest first.
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.AuditEntry, error)
}
