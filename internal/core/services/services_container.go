package services

import (
	portsrepo "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/repositories"
	portssvc "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/services"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Billing = NewStaticBillingService(cfg.SubscriptionActive)
	container.User = NewUserService(repos.UserRepo)
	container.Account = NewAccountService(repos.AccountRepo, repos.UserRepo, container.Billing)
	container.Ledger = NewLedgerService(repos.AccountRepo, repos.LedgerRepo, repos.AuditRepo)
	container.Task = NewTaskService(repos.TaskRepo, repos.AccountRepo)
	container.Entitlement = NewEntitlementService(repos.EntitlementRepo, repos.AccountRepo, repos.LedgerRepo)
	container.Token = NewTokenService(cfg)

	return container
}
