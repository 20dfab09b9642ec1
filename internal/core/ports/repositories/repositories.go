package repositories

// RepositoryProvider bundles every repository implementation so service
// construction has a single injection point.
type RepositoryProvider struct {
	UserRepo        UserRepository
	AccountRepo     ChildAccountRepository
	LedgerRepo      LedgerRepository
	TaskRepo        TaskRepository
	EntitlementRepo EntitlementRepository
	AuditRepo       AuditRepository
}
