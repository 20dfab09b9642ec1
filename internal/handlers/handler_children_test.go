package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/apperrors"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
	portssvc "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/services"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/dto"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/handlers"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/platform/config"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock UserService ---
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) RegisterParent(ctx context.Context, req dto.RegisterRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

var _ portssvc.UserSvcFacade = (*MockUserService)(nil)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateChild(ctx context.Context, actor domain.Actor, req dto.CreateChildRequest) (*domain.ChildAccount, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChildAccount), args.Error(1)
}
func (m *MockAccountService) GetChild(ctx context.Context, actor domain.Actor, accountID string) (*domain.ChildAccount, error) {
	args := m.Called(ctx, actor, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChildAccount), args.Error(1)
}
func (m *MockAccountService) ListChildren(ctx context.Context, actor domain.Actor) ([]domain.ChildAccount, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChildAccount), args.Error(1)
}
func (m *MockAccountService) DeactivateChild(ctx context.Context, actor domain.Actor, accountID string) error {
	args := m.Called(ctx, actor, accountID)
	return args.Error(0)
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetBalance(ctx context.Context, actor domain.Actor, accountID string) (int64, error) {
	args := m.Called(ctx, actor, accountID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockLedgerService) AdjustBalance(ctx context.Context, actor domain.Actor, accountID string, req dto.AdjustBalanceRequest) (*domain.Transaction, int64, error) {
	args := m.Called(ctx, actor, accountID, req)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*domain.Transaction), args.Get(1).(int64), args.Error(2)
}
func (m *MockLedgerService) SetFreeze(ctx context.Context, actor domain.Actor, accountID string, frozen bool) error {
	args := m.Called(ctx, actor, accountID, frozen)
	return args.Error(0)
}
func (m *MockLedgerService) ListTransactions(ctx context.Context, actor domain.Actor, accountID string, limit, offset int) ([]domain.Transaction, error) {
	args := m.Called(ctx, actor, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}
func (m *MockLedgerService) ListAuditEntries(ctx context.Context, actor domain.Actor, accountID string, limit, offset int) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, actor, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditEntry), args.Error(1)
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

// --- Mock TaskService ---
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) CreateTask(ctx context.Context, actor domain.Actor, req dto.CreateTaskRequest) (*domain.Task, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}
func (m *MockTaskService) ArchiveTask(ctx context.Context, actor domain.Actor, taskID string) error {
	args := m.Called(ctx, actor, taskID)
	return args.Error(0)
}
func (m *MockTaskService) ListTasks(ctx context.Context, actor domain.Actor, accountID string) ([]domain.Task, error) {
	args := m.Called(ctx, actor, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Task), args.Error(1)
}
func (m *MockTaskService) Submit(ctx context.Context, actor domain.Actor, taskID string) (*domain.TaskCompletion, error) {
	args := m.Called(ctx, actor, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaskCompletion), args.Error(1)
}
func (m *MockTaskService) Approve(ctx context.Context, actor domain.Actor, completionID string) (*domain.TaskCompletion, int64, int64, error) {
	args := m.Called(ctx, actor, completionID)
	if args.Get(0) == nil {
		return nil, 0, 0, args.Error(3)
	}
	return args.Get(0).(*domain.TaskCompletion), args.Get(1).(int64), args.Get(2).(int64), args.Error(3)
}
func (m *MockTaskService) Reject(ctx context.Context, actor domain.Actor, completionID string) (*domain.TaskCompletion, error) {
	args := m.Called(ctx, actor, completionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaskCompletion), args.Error(1)
}
func (m *MockTaskService) ListPendingApprovals(ctx context.Context, actor domain.Actor) ([]domain.TaskCompletion, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TaskCompletion), args.Error(1)
}

var _ portssvc.TaskSvcFacade = (*MockTaskService)(nil)

// --- Mock EntitlementService ---
type MockEntitlementService struct {
	mock.Mock
}

func (m *MockEntitlementService) UpsertRule(ctx context.Context, actor domain.Actor, accountID string, req dto.UpsertRuleRequest) (*domain.AppEntitlementRule, error) {
	args := m.Called(ctx, actor, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AppEntitlementRule), args.Error(1)
}
func (m *MockEntitlementService) ListRules(ctx context.Context, actor domain.Actor, accountID string) ([]domain.AppEntitlementRule, error) {
	args := m.Called(ctx, actor, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AppEntitlementRule), args.Error(1)
}
func (m *MockEntitlementService) OpenSession(ctx context.Context, actor domain.Actor, req dto.OpenSessionRequest) (*domain.EntitlementSession, int64, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*domain.EntitlementSession), args.Get(1).(int64), args.Error(2)
}
func (m *MockEntitlementService) MarkExpired(ctx context.Context, actor domain.Actor, sessionID string) error {
	args := m.Called(ctx, actor, sessionID)
	return args.Error(0)
}
func (m *MockEntitlementService) ListSessions(ctx context.Context, actor domain.Actor, accountID string, limit, offset int) ([]domain.EntitlementSession, error) {
	args := m.Called(ctx, actor, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EntitlementSession), args.Error(1)
}
func (m *MockEntitlementService) ExpireDueSessions(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

var _ portssvc.EntitlementSvcFacade = (*MockEntitlementService)(nil)

// --- Mock BillingService ---
type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) IsSubscriptionActive(ctx context.Context, ownerID string) (bool, error) {
	args := m.Called(ctx, ownerID)
	return args.Bool(0), args.Error(1)
}

var _ portssvc.BillingSvc = (*MockBillingService)(nil)

// --- Mock TokenService ---
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) IssueAccessToken(user *domain.User) (string, time.Time, error) {
	args := m.Called(user)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}
func (m *MockTokenService) IssueReauthToken(userID string) (string, time.Time, error) {
	args := m.Called(userID)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}
func (m *MockTokenService) ValidateReauthToken(token string, userID string) error {
	args := m.Called(token, userID)
	return args.Error(0)
}

var _ portssvc.TokenSvcFacade = (*MockTokenService)(nil)

// --- Test Suite ---
type ChildrenHandlerTestSuite struct {
	suite.Suite
	router                 *gin.Engine
	mockAccountService     *MockAccountService
	mockLedgerService      *MockLedgerService
	mockEntitlementService *MockEntitlementService
	mockTokenService       *MockTokenService
	jwtSecret              string
}

func (suite *ChildrenHandlerTestSuite) generateTestToken(userID string, role domain.UserRole) string {
	token, _, err := utils.GenerateJWT(userID, string(role), suite.jwtSecret, "screenbuddy-test", time.Hour)
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return token
}

func (suite *ChildrenHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	dto.RegisterValidations()
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.mockAccountService = new(MockAccountService)
	suite.mockLedgerService = new(MockLedgerService)
	suite.mockEntitlementService = new(MockEntitlementService)
	suite.mockTokenService = new(MockTokenService)

	cfg := &config.Config{
		JWTSecret:    suite.jwtSecret,
		IsProduction: true, // no swagger routes in tests
	}
	services := &portssvc.ServiceContainer{
		User:        new(MockUserService),
		Account:     suite.mockAccountService,
		Ledger:      suite.mockLedgerService,
		Task:        new(MockTaskService),
		Entitlement: suite.mockEntitlementService,
		Billing:     new(MockBillingService),
		Token:       suite.mockTokenService,
	}
	handlers.RegisterRoutes(suite.router, cfg, services)
}

func (suite *ChildrenHandlerTestSuite) TestGetChild_Success() {
	accountID := uuid.NewString()
	parentID := uuid.NewString()
	account := &domain.ChildAccount{
		AccountID: accountID,
		OwnerID:   parentID,
		Name:      "Alex",
		TimeBucks: 42,
		IsActive:  true,
	}

	suite.mockAccountService.On("GetChild",
		mock.AnythingOfType("*context.valueCtx"),
		domain.Actor{ID: parentID, Role: domain.RoleParent},
		accountID,
	).Return(account, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/children/"+accountID, nil)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(parentID, domain.RoleParent))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)

	var body dto.ChildAccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal(accountID, body.AccountID)
	suite.Equal(int64(42), body.TimeBucks)
	suite.mockAccountService.AssertExpectations(suite.T())
}

func (suite *ChildrenHandlerTestSuite) TestGetChild_NoToken() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/children/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockAccountService.AssertNotCalled(suite.T(), "GetChild")
}

func (suite *ChildrenHandlerTestSuite) TestCreateChild_ChildRoleForbidden() {
	body, _ := json.Marshal(dto.CreateChildRequest{Name: "Alex", Username: "alex2016", Password: "secretpw"})
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/children", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(uuid.NewString(), domain.RoleChild))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	// RequireParent rejects before the handler runs.
	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockAccountService.AssertNotCalled(suite.T(), "CreateChild")
}

func (suite *ChildrenHandlerTestSuite) TestGetBalance_NotFound() {
	accountID := uuid.NewString()
	parentID := uuid.NewString()

	suite.mockLedgerService.On("GetBalance",
		mock.AnythingOfType("*context.valueCtx"),
		domain.Actor{ID: parentID, Role: domain.RoleParent},
		accountID,
	).Return(int64(0), apperrors.ErrNotFound).Once()

	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/children/%s/balance", accountID), nil)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(parentID, domain.RoleParent))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *ChildrenHandlerTestSuite) TestAdjustBalance_MissingReauthToken() {
	accountID := uuid.NewString()
	parentID := uuid.NewString()

	body, _ := json.Marshal(dto.AdjustBalanceRequest{Amount: 10, Notes: "bonus"})
	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/children/%s/adjust", accountID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(parentID, domain.RoleParent))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockLedgerService.AssertNotCalled(suite.T(), "AdjustBalance")
}

func (suite *ChildrenHandlerTestSuite) TestAdjustBalance_WithReauthToken() {
	accountID := uuid.NewString()
	parentID := uuid.NewString()
	txn := &domain.Transaction{
		TransactionID: uuid.NewString(),
		AccountID:     accountID,
		ActorID:       parentID,
		Kind:          domain.KindAdjusted,
		Amount:        10,
	}

	suite.mockTokenService.On("ValidateReauthToken", "valid-reauth-token", parentID).Return(nil).Once()
	suite.mockLedgerService.On("AdjustBalance",
		mock.AnythingOfType("*context.valueCtx"),
		domain.Actor{ID: parentID, Role: domain.RoleParent},
		accountID,
		mock.MatchedBy(func(r dto.AdjustBalanceRequest) bool { return r.Amount == 10 }),
	).Return(txn, int64(60), nil).Once()

	body, _ := json.Marshal(dto.AdjustBalanceRequest{Amount: 10, Notes: "bonus"})
	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/children/%s/adjust", accountID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(parentID, domain.RoleParent))
	req.Header.Set("X-Reauth-Token", "valid-reauth-token")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.AdjustBalanceResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(int64(60), resp.NewBalance)
	suite.Equal(txn.TransactionID, resp.Transaction.TransactionID)
	suite.mockTokenService.AssertExpectations(suite.T())
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *ChildrenHandlerTestSuite) TestOpenSession_InsufficientFunds() {
	accountID := uuid.NewString()
	childToken := suite.generateTestToken(accountID, domain.RoleChild)

	suite.mockEntitlementService.On("OpenSession",
		mock.AnythingOfType("*context.valueCtx"),
		domain.Actor{ID: accountID, Role: domain.RoleChild},
		mock.AnythingOfType("dto.OpenSessionRequest"),
	).Return(nil, int64(0), apperrors.ErrInsufficientFunds).Once()

	body, _ := json.Marshal(dto.OpenSessionRequest{
		AccountID: accountID,
		AppRef:    "com.zhiliaoapp.musically",
		Minutes:   30,
	})
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+childToken)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func TestChildrenHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ChildrenHandlerTestSuite))
}
