package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/apperrors"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
	portssvc "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/services"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/services"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func boolPtr(b bool) *bool { return &b }

type EntitlementServiceTestSuite struct {
	suite.Suite
	mockEntRepo     *MockEntitlementRepository
	mockAccountRepo *MockAccountRepository
	mockLedgerRepo  *MockLedgerRepository
	service         portssvc.EntitlementSvcFacade

	parent  domain.Actor
	child   domain.Actor
	account *domain.ChildAccount
	rule    *domain.AppEntitlementRule
}

func (suite *EntitlementServiceTestSuite) SetupTest() {
	suite.mockEntRepo = new(MockEntitlementRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.service = services.NewEntitlementService(suite.mockEntRepo, suite.mockAccountRepo, suite.mockLedgerRepo)

	parentID := uuid.NewString()
	accountID := uuid.NewString()
	suite.parent = domain.Actor{ID: parentID, Role: domain.RoleParent}
	suite.child = domain.Actor{ID: accountID, Role: domain.RoleChild}
	suite.account = &domain.ChildAccount{
		AccountID: accountID,
		OwnerID:   parentID,
		Name:      "Alex",
		TimeBucks: 100,
		IsActive:  true,
	}
	suite.rule = &domain.AppEntitlementRule{
		RuleID:        uuid.NewString(),
		AccountID:     accountID,
		AppRef:        "com.zhiliaoapp.musically",
		AppName:       "TikTok",
		RatePerMinute: 2,
		Active:        true,
	}
}

func (suite *EntitlementServiceTestSuite) TestOpenSession_Success() {
	ctx := context.Background()
	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(suite.account, nil).Once()
	suite.mockEntRepo.On("FindActiveRule", ctx, suite.account.AccountID, suite.rule.AppRef).Return(suite.rule, nil).Once()
	suite.mockEntRepo.On("FindActiveSessionByApp", ctx, suite.account.AccountID, suite.rule.AppRef).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockEntRepo.On("OpenSessionAtomic", ctx,
		mock.MatchedBy(func(s domain.EntitlementSession) bool {
			return s.MinutesGranted == 30 && s.Cost == 60 && s.Status == domain.SessionActive
		}),
		mock.MatchedBy(func(txn domain.Transaction) bool {
			return txn.Kind == domain.KindSpent && txn.Amount == -60
		}),
		mock.MatchedBy(func(a domain.AuditEntry) bool {
			return a.Action == domain.ActionOpenSession
		}),
	).Return(int64(40), nil).Once()

	session, newBalance, err := suite.service.OpenSession(ctx, suite.child, dto.OpenSessionRequest{
		AccountID: suite.account.AccountID,
		AppRef:    suite.rule.AppRef,
		Minutes:   30,
	})

	suite.Require().NoError(err)
	suite.Equal(int64(40), newBalance)
	suite.Equal(int64(60), session.Cost)
	suite.Equal(30, session.MinutesGranted)
	suite.WithinDuration(session.StartedAt.Add(30*time.Minute), session.ExpiresAt, time.Second)
	suite.mockEntRepo.AssertExpectations(suite.T())
}

func (suite *EntitlementServiceTestSuite) TestOpenSession_NoRule() {
	ctx := context.Background()
	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(suite.account, nil).Once()
	suite.mockEntRepo.On("FindActiveRule", ctx, suite.account.AccountID, "com.example.unknown").Return(nil, apperrors.ErrNotFound).Once()

	_, _, err := suite.service.OpenSession(ctx, suite.child, dto.OpenSessionRequest{
		AccountID: suite.account.AccountID,
		AppRef:    "com.example.unknown",
		Minutes:   10,
	})

	suite.Require().ErrorIs(err, apperrors.ErrNotFound)
	suite.mockEntRepo.AssertNotCalled(suite.T(), "OpenSessionAtomic")
}

func (suite *EntitlementServiceTestSuite) TestOpenSession_OverlapRejected() {
	ctx := context.Background()
	active := &domain.EntitlementSession{
		SessionID: uuid.NewString(),
		AccountID: suite.account.AccountID,
		AppRef:    suite.rule.AppRef,
		Status:    domain.SessionActive,
		ExpiresAt: time.Now().UTC().Add(10 * time.Minute),
	}
	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(suite.account, nil).Once()
	suite.mockEntRepo.On("FindActiveRule", ctx, suite.account.AccountID, suite.rule.AppRef).Return(suite.rule, nil).Once()
	suite.mockEntRepo.On("FindActiveSessionByApp", ctx, suite.account.AccountID, suite.rule.AppRef).Return(active, nil).Once()

	_, _, err := suite.service.OpenSession(ctx, suite.child, dto.OpenSessionRequest{
		AccountID: suite.account.AccountID,
		AppRef:    suite.rule.AppRef,
		Minutes:   5,
	})

	suite.Require().ErrorIs(err, apperrors.ErrInvalidState)
	suite.mockEntRepo.AssertNotCalled(suite.T(), "OpenSessionAtomic")
}

func (suite *EntitlementServiceTestSuite) TestOpenSession_ConcurrentOverlapLosesCleanly() {
	// A concurrent open can pass the active-session read before either row
	// lands; the partial unique index rejects the loser and the caller sees
	// the same conflict as the read-path rejection.
	ctx := context.Background()
	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(suite.account, nil).Once()
	suite.mockEntRepo.On("FindActiveRule", ctx, suite.account.AccountID, suite.rule.AppRef).Return(suite.rule, nil).Once()
	suite.mockEntRepo.On("FindActiveSessionByApp", ctx, suite.account.AccountID, suite.rule.AppRef).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockEntRepo.On("OpenSessionAtomic", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(0), fmt.Errorf("%w: an unlock session is already active for this app", apperrors.ErrInvalidState)).Once()

	_, _, err := suite.service.OpenSession(ctx, suite.child, dto.OpenSessionRequest{
		AccountID: suite.account.AccountID,
		AppRef:    suite.rule.AppRef,
		Minutes:   5,
	})

	suite.Require().ErrorIs(err, apperrors.ErrInvalidState)
	suite.mockEntRepo.AssertExpectations(suite.T())
}

func (suite *EntitlementServiceTestSuite) TestOpenSession_StaleActiveSessionLazilyExpired() {
	ctx := context.Background()
	stale := &domain.EntitlementSession{
		SessionID: uuid.NewString(),
		AccountID: suite.account.AccountID,
		AppRef:    suite.rule.AppRef,
		Status:    domain.SessionActive,
		ExpiresAt: time.Now().UTC().Add(-1 * time.Minute),
	}
	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(suite.account, nil).Once()
	suite.mockEntRepo.On("FindActiveRule", ctx, suite.account.AccountID, suite.rule.AppRef).Return(suite.rule, nil).Once()
	suite.mockEntRepo.On("FindActiveSessionByApp", ctx, suite.account.AccountID, suite.rule.AppRef).Return(stale, nil).Once()
	suite.mockEntRepo.On("MarkSessionExpired", ctx, stale.SessionID,
		mock.MatchedBy(func(ts time.Time) bool { return !ts.IsZero() })).Return(nil).Once()
	suite.mockEntRepo.On("OpenSessionAtomic", ctx, mock.Anything, mock.Anything, mock.Anything).Return(int64(90), nil).Once()

	_, newBalance, err := suite.service.OpenSession(ctx, suite.child, dto.OpenSessionRequest{
		AccountID: suite.account.AccountID,
		AppRef:    suite.rule.AppRef,
		Minutes:   5,
	})

	suite.Require().NoError(err)
	suite.Equal(int64(90), newBalance)
	suite.mockEntRepo.AssertExpectations(suite.T())
}

func (suite *EntitlementServiceTestSuite) TestOpenSession_InsufficientFunds() {
	ctx := context.Background()
	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(suite.account, nil).Once()
	suite.mockEntRepo.On("FindActiveRule", ctx, suite.account.AccountID, suite.rule.AppRef).Return(suite.rule, nil).Once()
	suite.mockEntRepo.On("FindActiveSessionByApp", ctx, suite.account.AccountID, suite.rule.AppRef).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockEntRepo.On("OpenSessionAtomic", ctx, mock.Anything, mock.Anything, mock.Anything).Return(int64(0), apperrors.ErrInsufficientFunds).Once()

	_, _, err := suite.service.OpenSession(ctx, suite.child, dto.OpenSessionRequest{
		AccountID: suite.account.AccountID,
		AppRef:    suite.rule.AppRef,
		Minutes:   500,
	})

	suite.Require().ErrorIs(err, apperrors.ErrInsufficientFunds)
}

func (suite *EntitlementServiceTestSuite) TestOpenSession_FrozenAccount() {
	ctx := context.Background()
	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(suite.account, nil).Once()
	suite.mockEntRepo.On("FindActiveRule", ctx, suite.account.AccountID, suite.rule.AppRef).Return(suite.rule, nil).Once()
	suite.mockEntRepo.On("FindActiveSessionByApp", ctx, suite.account.AccountID, suite.rule.AppRef).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockEntRepo.On("OpenSessionAtomic", ctx, mock.Anything, mock.Anything, mock.Anything).Return(int64(0), apperrors.ErrAccountFrozen).Once()

	_, _, err := suite.service.OpenSession(ctx, suite.child, dto.OpenSessionRequest{
		AccountID: suite.account.AccountID,
		AppRef:    suite.rule.AppRef,
		Minutes:   5,
	})

	suite.Require().ErrorIs(err, apperrors.ErrAccountFrozen)
}

func (suite *EntitlementServiceTestSuite) TestOpenSession_IdempotentReplay() {
	ctx := context.Background()
	key := uuid.NewString()
	existingSession := &domain.EntitlementSession{
		SessionID:      uuid.NewString(),
		AccountID:      suite.account.AccountID,
		AppRef:         suite.rule.AppRef,
		MinutesGranted: 10,
		Cost:           20,
		Status:         domain.SessionActive,
	}
	existingTxn := &domain.Transaction{
		TransactionID:  uuid.NewString(),
		AccountID:      suite.account.AccountID,
		Kind:           domain.KindSpent,
		Amount:         -20,
		ReferenceID:    existingSession.SessionID,
		IdempotencyKey: key,
	}
	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(suite.account, nil).Once()
	suite.mockEntRepo.On("FindActiveRule", ctx, suite.account.AccountID, suite.rule.AppRef).Return(suite.rule, nil).Once()
	suite.mockLedgerRepo.On("FindTransactionByIdempotencyKey", ctx, suite.account.AccountID, key).Return(existingTxn, nil).Once()
	suite.mockEntRepo.On("FindSessionByID", ctx, existingSession.SessionID).Return(existingSession, nil).Once()
	suite.mockLedgerRepo.On("GetBalance", ctx, suite.account.AccountID).Return(int64(80), nil).Once()

	session, newBalance, err := suite.service.OpenSession(ctx, suite.child, dto.OpenSessionRequest{
		AccountID:      suite.account.AccountID,
		AppRef:         suite.rule.AppRef,
		Minutes:        10,
		IdempotencyKey: key,
	})

	suite.Require().NoError(err)
	suite.Equal(existingSession.SessionID, session.SessionID)
	suite.Equal(int64(80), newBalance)

	// The account must not be debited a second time.
	suite.mockEntRepo.AssertNotCalled(suite.T(), "OpenSessionAtomic")
}

func (suite *EntitlementServiceTestSuite) TestOpenSession_DeactivatedAccount() {
	ctx := context.Background()
	inactive := *suite.account
	inactive.IsActive = false
	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(&inactive, nil).Once()

	_, _, err := suite.service.OpenSession(ctx, suite.child, dto.OpenSessionRequest{
		AccountID: suite.account.AccountID,
		AppRef:    suite.rule.AppRef,
		Minutes:   5,
	})

	suite.Require().ErrorIs(err, apperrors.ErrInvalidState)
}

func (suite *EntitlementServiceTestSuite) TestUpsertRule_ParentOnly() {
	ctx := context.Background()
	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(suite.account, nil).Once()

	_, err := suite.service.UpsertRule(ctx, suite.child, suite.account.AccountID, dto.UpsertRuleRequest{
		AppRef:        suite.rule.AppRef,
		AppName:       "TikTok",
		RatePerMinute: 2,
		Active:        boolPtr(true),
	})

	suite.Require().ErrorIs(err, apperrors.ErrForbidden)
	suite.mockEntRepo.AssertNotCalled(suite.T(), "UpsertRule")
}

func (suite *EntitlementServiceTestSuite) TestExpireDueSessions_ReturnsCount() {
	ctx := context.Background()
	now := time.Now().UTC()
	suite.mockEntRepo.On("ExpireDueSessions", ctx, now).Return(int64(3), nil).Once()

	expired, err := suite.service.ExpireDueSessions(ctx, now)

	suite.Require().NoError(err)
	suite.Equal(int64(3), expired)
}

func TestEntitlementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EntitlementServiceTestSuite))
}

// casEntitlementRepo is a balance-enforcing in-memory stand-in for the
// database. OpenSessionAtomic refuses to let the balance go negative under a
// lock, matching the conditional UPDATE the real repository issues.
type casEntitlementRepo struct {
	MockEntitlementRepository

	mu      sync.Mutex
	balance int64
}

func (r *casEntitlementRepo) FindActiveRule(ctx context.Context, accountID, appRef string) (*domain.AppEntitlementRule, error) {
	return &domain.AppEntitlementRule{
		RuleID:        "rule",
		AccountID:     accountID,
		AppRef:        appRef,
		AppName:       "TikTok",
		RatePerMinute: 2,
		Active:        true,
	}, nil
}

func (r *casEntitlementRepo) FindActiveSessionByApp(ctx context.Context, accountID, appRef string) (*domain.EntitlementSession, error) {
	return nil, apperrors.ErrNotFound
}

func (r *casEntitlementRepo) OpenSessionAtomic(ctx context.Context, session domain.EntitlementSession, txn domain.Transaction, audit domain.AuditEntry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.balance+txn.Amount < 0 {
		return 0, apperrors.ErrInsufficientFunds
	}
	r.balance += txn.Amount
	return r.balance, nil
}

type staticAccountRepo struct {
	MockAccountRepository
	account *domain.ChildAccount
}

func (r *staticAccountRepo) FindAccountByID(ctx context.Context, accountID string) (*domain.ChildAccount, error) {
	return r.account, nil
}

// TestOpenSession_ConcurrentSpendsNeverOverdraw races two unlocks that each
// cost 60 against a balance of 100: exactly one may win.
func TestOpenSession_ConcurrentSpendsNeverOverdraw(t *testing.T) {
	accountID := uuid.NewString()
	entRepo := &casEntitlementRepo{balance: 100}
	accountRepo := &staticAccountRepo{account: &domain.ChildAccount{
		AccountID: accountID,
		OwnerID:   "parent",
		TimeBucks: 100,
		IsActive:  true,
	}}
	svc := services.NewEntitlementService(entRepo, accountRepo, new(MockLedgerRepository))

	child := domain.Actor{ID: accountID, Role: domain.RoleChild}
	req := dto.OpenSessionRequest{
		AccountID: accountID,
		AppRef:    "com.zhiliaoapp.musically",
		Minutes:   30, // 30 * 2 = 60 Time Bucks
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.OpenSession(context.Background(), child, req)
		}(i)
	}
	wg.Wait()

	var successes, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		default:
			require.ErrorIs(t, err, apperrors.ErrInsufficientFunds)
			insufficient++
		}
	}
	require.Equal(t, 1, successes, "exactly one spend may win")
	require.Equal(t, 1, insufficient)
	require.Equal(t, int64(40), entRepo.balance)
}
