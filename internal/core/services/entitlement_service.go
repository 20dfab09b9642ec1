package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/apperrors"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
	portsrepo "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/repositories"
	portssvc "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/services"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/dto"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/middleware"
)

// entitlementService implements unlock pricing and the session lifecycle.
// The debit and the session insert are delegated to one repository call so
// they land (or roll back) together.
type entitlementService struct {
	entitlementRepo portsrepo.EntitlementRepository
	accountRepo     portsrepo.ChildAccountRepository
	ledgerRepo      portsrepo.LedgerRepository
}

// NewEntitlementService creates a new EntitlementService.
func NewEntitlementService(entitlementRepo portsrepo.EntitlementRepository, accountRepo portsrepo.ChildAccountRepository, ledgerRepo portsrepo.LedgerRepository) portssvc.EntitlementSvcFacade {
	return &entitlementService{
		entitlementRepo: entitlementRepo,
		accountRepo:     accountRepo,
		ledgerRepo:      ledgerRepo,
	}
}

var _ portssvc.EntitlementSvcFacade = (*entitlementService)(nil)

// UpsertRule creates or replaces the unlock price for (account, app).
func (s *entitlementService) UpsertRule(ctx context.Context, actor domain.Actor, accountID string, req dto.UpsertRuleRequest) (*domain.AppEntitlementRule, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := authorizeAccountOwner(ctx, s.accountRepo, actor, accountID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rule := domain.AppEntitlementRule{
		RuleID:        uuid.NewString(),
		AccountID:     accountID,
		AppRef:        req.AppRef,
		AppName:       req.AppName,
		RatePerMinute: req.RatePerMinute,
		Active:        *req.Active,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.ID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.ID,
		},
	}
	if err := s.entitlementRepo.UpsertRule(ctx, rule); err != nil {
		logger.Error("Failed to upsert entitlement rule", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Entitlement rule upserted", slog.String("app_ref", rule.AppRef), slog.Int64("rate", rule.RatePerMinute))
	return &rule, nil
}

// ListRules lists the pricing rules for an account readable by the actor.
func (s *entitlementService) ListRules(ctx context.Context, actor domain.Actor, accountID string) ([]domain.AppEntitlementRule, error) {
	if _, err := authorizeAccountRead(ctx, s.accountRepo, actor, accountID); err != nil {
		return nil, err
	}
	return s.entitlementRepo.ListRulesByAccount(ctx, accountID)
}

// OpenSession spends Time Bucks to lift an app block for a fixed duration.
// The debit, the session, the transaction record and the audit entry are one
// atomic unit; on any failure the caller observes the original error and no
// state changes.
//
// While an unexpired session exists for the same (account, app) a new open
// is rejected: there are no stacking or extension semantics.
func (s *entitlementService) OpenSession(ctx context.Context, actor domain.Actor, req dto.OpenSessionRequest) (*domain.EntitlementSession, int64, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Minutes <= 0 {
		return nil, 0, fmt.Errorf("%w: minutes must be greater than 0", apperrors.ErrValidation)
	}

	account, err := authorizeAccountRead(ctx, s.accountRepo, actor, req.AccountID)
	if err != nil {
		return nil, 0, err
	}
	if !account.IsActive {
		return nil, 0, fmt.Errorf("%w: account is deactivated", apperrors.ErrInvalidState)
	}

	rule, err := s.entitlementRepo.FindActiveRule(ctx, req.AccountID, req.AppRef)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, 0, fmt.Errorf("%w: app is not in the blocked list", apperrors.ErrNotFound)
		}
		return nil, 0, err
	}

	// Idempotent replay: a retried request returns the session the original
	// attempt created.
	if req.IdempotencyKey != "" {
		if existing, err := s.ledgerRepo.FindTransactionByIdempotencyKey(ctx, req.AccountID, req.IdempotencyKey); err == nil {
			session, serr := s.entitlementRepo.FindSessionByID(ctx, existing.ReferenceID)
			if serr != nil {
				return nil, 0, serr
			}
			balance, berr := s.ledgerRepo.GetBalance(ctx, req.AccountID)
			if berr != nil {
				return nil, 0, berr
			}
			logger.Info("Idempotent unlock replay", slog.String("session_id", session.SessionID))
			return session, balance, nil
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, 0, err
		}
	}

	now := time.Now().UTC()
	if existing, err := s.entitlementRepo.FindActiveSessionByApp(ctx, req.AccountID, req.AppRef); err == nil {
		if existing.ExpiresAt.After(now) {
			return nil, 0, fmt.Errorf("%w: an unlock session is already active for this app", apperrors.ErrInvalidState)
		}
		// Stale active row; the sweep has not caught up yet.
		if err := s.entitlementRepo.MarkSessionExpired(ctx, existing.SessionID, now); err != nil {
			return nil, 0, err
		}
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, 0, err
	}

	cost := int64(req.Minutes) * rule.RatePerMinute
	session := domain.EntitlementSession{
		SessionID:      uuid.NewString(),
		AccountID:      req.AccountID,
		AppRef:         req.AppRef,
		MinutesGranted: req.Minutes,
		Cost:           cost,
		Status:         domain.SessionActive,
		StartedAt:      now,
		ExpiresAt:      now.Add(time.Duration(req.Minutes) * time.Minute),
	}
	txn := domain.Transaction{
		TransactionID:  uuid.NewString(),
		AccountID:      req.AccountID,
		ActorID:        actor.ID,
		Kind:           domain.KindSpent,
		Amount:         -cost,
		Notes:          fmt.Sprintf("screen-time:%s:%dmin", rule.AppName, req.Minutes),
		ReferenceID:    session.SessionID,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      now,
	}
	audit := domain.AuditEntry{
		AuditID:   uuid.NewString(),
		ActorID:   actor.ID,
		AccountID: req.AccountID,
		Action:    domain.ActionOpenSession,
		Metadata: map[string]any{
			"app_ref":          req.AppRef,
			"minutes":          req.Minutes,
			"time_bucks_spent": cost,
			"session_id":       session.SessionID,
		},
		CreatedAt: now,
	}

	newBalance, err := s.entitlementRepo.OpenSessionAtomic(ctx, session, txn, audit)
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientFunds) || errors.Is(err, apperrors.ErrAccountFrozen) || errors.Is(err, apperrors.ErrInvalidState) {
			return nil, 0, err
		}
		logger.Error("Failed to open entitlement session", slog.String("error", err.Error()))
		return nil, 0, err
	}

	logger.Info("Entitlement session opened",
		slog.String("session_id", session.SessionID),
		slog.String("app_ref", req.AppRef),
		slog.Int("minutes", req.Minutes),
		slog.Int64("cost", cost),
		slog.Int64("new_balance", newBalance),
	)
	return &session, newBalance, nil
}

// MarkExpired records a device-reported expiry. Idempotent with respect to
// the reconciliation sweep.
func (s *entitlementService) MarkExpired(ctx context.Context, actor domain.Actor, sessionID string) error {
	session, err := s.entitlementRepo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, err := authorizeAccountRead(ctx, s.accountRepo, actor, session.AccountID); err != nil {
		return err
	}
	return s.entitlementRepo.MarkSessionExpired(ctx, sessionID, time.Now().UTC())
}

// ListSessions lists sessions for an account readable by the actor.
func (s *entitlementService) ListSessions(ctx context.Context, actor domain.Actor, accountID string, limit, offset int) ([]domain.EntitlementSession, error) {
	if _, err := authorizeAccountRead(ctx, s.accountRepo, actor, accountID); err != nil {
		return nil, err
	}
	return s.entitlementRepo.ListSessionsByAccount(ctx, accountID, normalizeLimit(limit), offset)
}

// ExpireDueSessions is the reconciliation sweep: any active session past its
// expiry is flipped to expired, covering devices that never reported back.
func (s *entitlementService) ExpireDueSessions(ctx context.Context, now time.Time) (int64, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	expired, err := s.entitlementRepo.ExpireDueSessions(ctx, now)
	if err != nil {
		logger.Error("Session expiry sweep failed", slog.String("error", err.Error()))
		return 0, err
	}
	if expired > 0 {
		logger.Info("Session expiry sweep completed", slog.Int64("expired", expired))
	}
	return expired, nil
}
