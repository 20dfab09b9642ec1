package pgsql

import (
	portsrepo "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		UserRepo:        newPgxUserRepository(dbPool),
		AccountRepo:     newPgxAccountRepository(dbPool),
		LedgerRepo:      newPgxLedgerRepository(dbPool),
		TaskRepo:        newPgxTaskRepository(dbPool),
		EntitlementRepo: newPgxEntitlementRepository(dbPool),
		AuditRepo:       newPgxAuditRepository(dbPool),
	}
}
