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
	"github.com/ScreenBuddy/screenbuddy_backend/internal/utils"
)

// freeTierChildLimit is how many child accounts a parent may register
// without an active subscription.
const freeTierChildLimit = 1

// accountService manages child account lifecycle.
type accountService struct {
	accountRepo portsrepo.ChildAccountRepository
	userRepo    portsrepo.UserRepository
	billing     portssvc.BillingSvc
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo portsrepo.ChildAccountRepository, userRepo portsrepo.UserRepository, billing portssvc.BillingSvc) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: accountRepo, userRepo: userRepo, billing: billing}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateChild registers a child account and its login. The child's actor id
// is the account id, so child-scoped authorization is a direct comparison.
func (s *accountService) CreateChild(ctx context.Context, actor domain.Actor, req dto.CreateChildRequest) (*domain.ChildAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !actor.IsParent() {
		return nil, fmt.Errorf("%w: only parents can register children", apperrors.ErrForbidden)
	}

	existing, err := s.accountRepo.ListAccountsByOwner(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) >= freeTierChildLimit {
		active, err := s.billing.IsSubscriptionActive(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		if !active {
			return nil, fmt.Errorf("%w: free tier allows %d child account(s)", apperrors.ErrForbidden, freeTierChildLimit)
		}
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	accountID := uuid.NewString()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     actor.ID,
		LastUpdatedAt: now,
		LastUpdatedBy: actor.ID,
	}

	childUser := domain.User{
		UserID:       accountID,
		Username:     req.Username,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         domain.RoleChild,
		AuditFields:  audit,
	}
	if err := s.userRepo.SaveUser(ctx, childUser); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: username %s is taken", apperrors.ErrDuplicate, req.Username)
		}
		return nil, err
	}

	account := domain.ChildAccount{
		AccountID:   accountID,
		OwnerID:     actor.ID,
		Name:        req.Name,
		TimeBucks:   0,
		Frozen:      false,
		IsActive:    true,
		AuditFields: audit,
	}
	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save child account", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Child account created", slog.String("account_id", accountID))
	return &account, nil
}

// GetChild retrieves a child account readable by the actor.
func (s *accountService) GetChild(ctx context.Context, actor domain.Actor, accountID string) (*domain.ChildAccount, error) {
	return authorizeAccountRead(ctx, s.accountRepo, actor, accountID)
}

// ListChildren lists the accounts registered by a parent.
func (s *accountService) ListChildren(ctx context.Context, actor domain.Actor) ([]domain.ChildAccount, error) {
	if !actor.IsParent() {
		return nil, apperrors.ErrForbidden
	}
	return s.accountRepo.ListAccountsByOwner(ctx, actor.ID)
}

// DeactivateChild marks the account inactive. Accounts are never deleted.
func (s *accountService) DeactivateChild(ctx context.Context, actor domain.Actor, accountID string) error {
	if _, err := authorizeAccountOwner(ctx, s.accountRepo, actor, accountID); err != nil {
		return err
	}
	return s.accountRepo.DeactivateAccount(ctx, accountID, actor.ID, time.Now().UTC())
}

// authorizeAccountOwner loads the account and verifies the actor is the
// owning parent.
func authorizeAccountOwner(ctx context.Context, repo portsrepo.ChildAccountReader, actor domain.Actor, accountID string) (*domain.ChildAccount, error) {
	account, err := repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !actor.IsParent() || account.OwnerID != actor.ID {
		return nil, fmt.Errorf("%w: you do not own this child account", apperrors.ErrForbidden)
	}
	return account, nil
}

// authorizeAccountRead loads the account and verifies the actor may read it:
// the child itself or the owning parent.
func authorizeAccountRead(ctx context.Context, repo portsrepo.ChildAccountReader, actor domain.Actor, accountID string) (*domain.ChildAccount, error) {
	account, err := repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if actor.ID == accountID {
		return account, nil
	}
	if actor.IsParent() && account.OwnerID == actor.ID {
		return account, nil
	}
	return nil, fmt.Errorf("%w: account is not visible to this actor", apperrors.ErrForbidden)
}
