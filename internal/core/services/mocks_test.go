package services_test

import (
	"context"
	"time"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock type for the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockAccountRepository is a mock type for the ChildAccountRepository interface
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.ChildAccount, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChildAccount), args.Error(1)
}

func (m *MockAccountRepository) ListAccountsByOwner(ctx context.Context, ownerID string) ([]domain.ChildAccount, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChildAccount), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.ChildAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountID string, actorID string, now time.Time) error {
	args := m.Called(ctx, accountID, actorID, now)
	return args.Error(0)
}

// MockLedgerRepository is a mock type for the LedgerRepository interface
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) GetBalance(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) FindTransactionByIdempotencyKey(ctx context.Context, accountID, key string) (*domain.Transaction, error) {
	args := m.Called(ctx, accountID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) ListTransactionsByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.Transaction, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) ApplyTransaction(ctx context.Context, txn domain.Transaction, audit *domain.AuditEntry) (int64, error) {
	args := m.Called(ctx, txn, audit)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) SetFreeze(ctx context.Context, accountID string, frozen bool, audit domain.AuditEntry) error {
	args := m.Called(ctx, accountID, frozen, audit)
	return args.Error(0)
}

// MockTaskRepository is a mock type for the TaskRepository interface
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) FindTaskByID(ctx context.Context, taskID string) (*domain.Task, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) ListTasksByAccount(ctx context.Context, accountID string, includeArchived bool) ([]domain.Task, error) {
	args := m.Called(ctx, accountID, includeArchived)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Task), args.Error(1)
}

func (m *MockTaskRepository) FindCompletionByID(ctx context.Context, completionID string) (*domain.TaskCompletion, error) {
	args := m.Called(ctx, completionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaskCompletion), args.Error(1)
}

func (m *MockTaskRepository) FindPendingCompletionByTask(ctx context.Context, taskID string) (*domain.TaskCompletion, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaskCompletion), args.Error(1)
}

func (m *MockTaskRepository) ListPendingCompletionsByOwner(ctx context.Context, ownerID string) ([]domain.TaskCompletion, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TaskCompletion), args.Error(1)
}

func (m *MockTaskRepository) SaveTask(ctx context.Context, task domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) ArchiveTask(ctx context.Context, taskID string, actorID string, now time.Time) error {
	args := m.Called(ctx, taskID, actorID, now)
	return args.Error(0)
}

func (m *MockTaskRepository) SaveCompletion(ctx context.Context, completion domain.TaskCompletion) error {
	args := m.Called(ctx, completion)
	return args.Error(0)
}

func (m *MockTaskRepository) ApproveCompletionAndCredit(ctx context.Context, completionID string, reviewerID string, txn domain.Transaction, audit domain.AuditEntry, now time.Time) (int64, error) {
	args := m.Called(ctx, completionID, reviewerID, txn, audit, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) RejectCompletion(ctx context.Context, completionID string, reviewerID string, now time.Time) error {
	args := m.Called(ctx, completionID, reviewerID, now)
	return args.Error(0)
}

// MockEntitlementRepository is a mock type for the EntitlementRepository interface
type MockEntitlementRepository struct {
	mock.Mock
}

func (m *MockEntitlementRepository) FindActiveRule(ctx context.Context, accountID, appRef string) (*domain.AppEntitlementRule, error) {
	args := m.Called(ctx, accountID, appRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AppEntitlementRule), args.Error(1)
}

func (m *MockEntitlementRepository) ListRulesByAccount(ctx context.Context, accountID string) ([]domain.AppEntitlementRule, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AppEntitlementRule), args.Error(1)
}

func (m *MockEntitlementRepository) FindSessionByID(ctx context.Context, sessionID string) (*domain.EntitlementSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EntitlementSession), args.Error(1)
}

func (m *MockEntitlementRepository) FindActiveSessionByApp(ctx context.Context, accountID, appRef string) (*domain.EntitlementSession, error) {
	args := m.Called(ctx, accountID, appRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EntitlementSession), args.Error(1)
}

func (m *MockEntitlementRepository) ListSessionsByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.EntitlementSession, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EntitlementSession), args.Error(1)
}

func (m *MockEntitlementRepository) UpsertRule(ctx context.Context, rule domain.AppEntitlementRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockEntitlementRepository) OpenSessionAtomic(ctx context.Context, session domain.EntitlementSession, txn domain.Transaction, audit domain.AuditEntry) (int64, error) {
	args := m.Called(ctx, session, txn, audit)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEntitlementRepository) MarkSessionExpired(ctx context.Context, sessionID string, now time.Time) error {
	args := m.Called(ctx, sessionID, now)
	return args.Error(0)
}

func (m *MockEntitlementRepository) ExpireDueSessions(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditRepository is a mock type for the AuditRepository interface
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditEntry), args.Error(1)
}

// MockBillingSvc is a mock type for the BillingSvc interface
type MockBillingSvc struct {
	mock.Mock
}

func (m *MockBillingSvc) IsSubscriptionActive(ctx context.Context, ownerID string) (bool, error) {
	args := m.Called(ctx, ownerID)
	return args.Bool(0), args.Error(1)
}
