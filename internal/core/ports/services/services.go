package services

import (
	"context"
	"time"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/dto"
)

// UserSvcFacade manages actor records and credential checks.
type UserSvcFacade interface {
	RegisterParent(ctx context.Context, req dto.RegisterRequest) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}

// AccountSvcFacade manages child account lifecycle.
type AccountSvcFacade interface {
	CreateChild(ctx context.Context, actor domain.Actor, req dto.CreateChildRequest) (*domain.ChildAccount, error)
	GetChild(ctx context.Context, actor domain.Actor, accountID string) (*domain.ChildAccount, error)
	ListChildren(ctx context.Context, actor domain.Actor) ([]domain.ChildAccount, error)
	DeactivateChild(ctx context.Context, actor domain.Actor, accountID string) error
}

// LedgerSvcFacade exposes balance accounting and the transaction log.
type LedgerSvcFacade interface {
	GetBalance(ctx context.Context, actor domain.Actor, accountID string) (int64, error)
	AdjustBalance(ctx context.Context, actor domain.Actor, accountID string, req dto.AdjustBalanceRequest) (*domain.Transaction, int64, error)
	SetFreeze(ctx context.Context, actor domain.Actor, accountID string, frozen bool) error
	ListTransactions(ctx context.Context, actor domain.Actor, accountID string, limit, offset int) ([]domain.Transaction, error)
	ListAuditEntries(ctx context.Context, actor domain.Actor, accountID string, limit, offset int) ([]domain.AuditEntry, error)
}

// TaskSvcFacade exposes the task and approval workflow.
type TaskSvcFacade interface {
	CreateTask(ctx context.Context, actor domain.Actor, req dto.CreateTaskRequest) (*domain.Task, error)
	ArchiveTask(ctx context.Context, actor domain.Actor, taskID string) error
	ListTasks(ctx context.Context, actor domain.Actor, accountID string) ([]domain.Task, error)
	Submit(ctx context.Context, actor domain.Actor, taskID string) (*domain.TaskCompletion, error)
	Approve(ctx context.Context, actor domain.Actor, completionID string) (completion *domain.TaskCompletion, earned int64, newBalance int64, err error)
	Reject(ctx context.Context, actor domain.Actor, completionID string) (*domain.TaskCompletion, error)
	ListPendingApprovals(ctx context.Context, actor domain.Actor) ([]domain.TaskCompletion, error)
}

// EntitlementSvcFacade exposes unlock pricing rules and sessions.
type EntitlementSvcFacade interface {
	UpsertRule(ctx context.Context, actor domain.Actor, accountID string, req dto.UpsertRuleRequest) (*domain.AppEntitlementRule, error)
	ListRules(ctx context.Context, actor domain.Actor, accountID string) ([]domain.AppEntitlementRule, error)
	OpenSession(ctx context.Context, actor domain.Actor, req dto.OpenSessionRequest) (*domain.EntitlementSession, int64, error)
	MarkExpired(ctx context.Context, actor domain.Actor, sessionID string) error
	ListSessions(ctx context.Context, actor domain.Actor, accountID string, limit, offset int) ([]domain.EntitlementSession, error)

	// ExpireDueSessions is the reconciliation sweep; it needs no actor and
	// is driven by a background ticker.
	ExpireDueSessions(ctx context.Context, now time.Time) (int64, error)
}

// BillingSvc is the external billing collaborator, reduced to the single
// read the engine needs.
type BillingSvc interface {
	IsSubscriptionActive(ctx context.Context, ownerID string) (bool, error)
}

// TokenSvcFacade mints and verifies the two token kinds.
type TokenSvcFacade interface {
	IssueAccessToken(user *domain.User) (token string, expiresAt time.Time, err error)
	IssueReauthToken(userID string) (token string, expiresAt time.Time, err error)

	// ValidateReauthToken confirms a recent password re-confirmation for
	// the given user. Returns ErrUnauthorized when absent/expired/foreign.
	ValidateReauthToken(token string, userID string) error
}

// ServiceContainer bundles every service facade for handler wiring.
type ServiceContainer struct {
	User        UserSvcFacade
	Account     AccountSvcFacade
	Ledger      LedgerSvcFacade
	Task        TaskSvcFacade
	Entitlement EntitlementSvcFacade
	Billing     BillingSvc
	Token       TokenSvcFacade
}
