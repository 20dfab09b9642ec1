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

var (
	// ErrZeroAdjustment rejects adjustments that would record a no-op.
	ErrZeroAdjustment = errors.New("adjustment amount must not be zero")
)

// ledgerService implements balance accounting on top of the atomic
// repository operations. The repository guarantees per-account serialization
// of balance mutation; this layer adds authorization, idempotency replay and
// audit construction.
type ledgerService struct {
	accountRepo portsrepo.ChildAccountRepository
	ledgerRepo  portsrepo.LedgerRepository
	auditRepo   portsrepo.AuditRepository
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(accountRepo portsrepo.ChildAccountRepository, ledgerRepo portsrepo.LedgerRepository, auditRepo portsrepo.AuditRepository) portssvc.LedgerSvcFacade {
	return &ledgerService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		auditRepo:   auditRepo,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// GetBalance returns the current balance for an account the actor may read.
func (s *ledgerService) GetBalance(ctx context.Context, actor domain.Actor, accountID string) (int64, error) {
	if _, err := authorizeAccountRead(ctx, s.accountRepo, actor, accountID); err != nil {
		return 0, err
	}
	return s.ledgerRepo.GetBalance(ctx, accountID)
}

// AdjustBalance records a parent-only manual correction. When the request
// carries an idempotency key a replay returns the originally applied
// transaction without touching the balance again.
func (s *ledgerService) AdjustBalance(ctx context.Context, actor domain.Actor, accountID string, req dto.AdjustBalanceRequest) (*domain.Transaction, int64, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := authorizeAccountOwner(ctx, s.accountRepo, actor, accountID); err != nil {
		return nil, 0, err
	}
	if req.Amount == 0 {
		return nil, 0, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrZeroAdjustment)
	}

	if req.IdempotencyKey != "" {
		if existing, err := s.ledgerRepo.FindTransactionByIdempotencyKey(ctx, accountID, req.IdempotencyKey); err == nil {
			balance, berr := s.ledgerRepo.GetBalance(ctx, accountID)
			if berr != nil {
				return nil, 0, berr
			}
			logger.Info("Idempotent adjustment replay", slog.String("transaction_id", existing.TransactionID))
			return existing, balance, nil
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, 0, err
		}
	}

	now := time.Now().UTC()
	notes := req.Notes
	if notes == "" {
		notes = "Manual balance adjustment by parent"
	}
	txn := domain.Transaction{
		TransactionID:  uuid.NewString(),
		AccountID:      accountID,
		ActorID:        actor.ID,
		Kind:           domain.KindAdjusted,
		Amount:         req.Amount,
		Notes:          notes,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      now,
	}
	audit := domain.AuditEntry{
		AuditID:   uuid.NewString(),
		ActorID:   actor.ID,
		AccountID: accountID,
		Action:    domain.ActionAdjustBalance,
		Metadata: map[string]any{
			"amount": req.Amount,
			"notes":  notes,
		},
		CreatedAt: now,
	}

	newBalance, err := s.ledgerRepo.ApplyTransaction(ctx, txn, &audit)
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientFunds) {
			return nil, 0, fmt.Errorf("%w: balance cannot be negative", apperrors.ErrInsufficientFunds)
		}
		logger.Error("Failed to apply adjustment", slog.String("error", err.Error()))
		return nil, 0, err
	}

	logger.Info("Balance adjusted",
		slog.String("account_id", accountID),
		slog.Int64("amount", req.Amount),
		slog.Int64("new_balance", newBalance),
	)
	return &txn, newBalance, nil
}

// SetFreeze sets the per-account spend freeze. The operation is idempotent
// and always audited, with the previous value recorded in the metadata.
func (s *ledgerService) SetFreeze(ctx context.Context, actor domain.Actor, accountID string, frozen bool) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := authorizeAccountOwner(ctx, s.accountRepo, actor, accountID)
	if err != nil {
		return err
	}

	action := domain.ActionFreezeSpending
	if !frozen {
		action = domain.ActionUnfreezeSpending
	}
	audit := domain.AuditEntry{
		AuditID:   uuid.NewString(),
		ActorID:   actor.ID,
		AccountID: accountID,
		Action:    action,
		Metadata: map[string]any{
			"freeze":          frozen,
			"previous_freeze": account.Frozen,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.ledgerRepo.SetFreeze(ctx, accountID, frozen, audit); err != nil {
		logger.Error("Failed to set freeze flag", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Freeze flag set", slog.String("account_id", accountID), slog.Bool("frozen", frozen))
	return nil
}

// ListTransactions returns the transaction log, newest first.
func (s *ledgerService) ListTransactions(ctx context.Context, actor domain.Actor, accountID string, limit, offset int) ([]domain.Transaction, error) {
	if _, err := authorizeAccountRead(ctx, s.accountRepo, actor, accountID); err != nil {
		return nil, err
	}
	return s.ledgerRepo.ListTransactionsByAccount(ctx, accountID, normalizeLimit(limit), offset)
}

// ListAuditEntries returns the forensic log. Parent-only.
func (s *ledgerService) ListAuditEntries(ctx context.Context, actor domain.Actor, accountID string, limit, offset int) ([]domain.AuditEntry, error) {
	if _, err := authorizeAccountOwner(ctx, s.accountRepo, actor, accountID); err != nil {
		return nil, err
	}
	return s.auditRepo.ListByAccount(ctx, accountID, normalizeLimit(limit), offset)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
