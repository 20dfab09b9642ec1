package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/services"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/dto"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// childrenHandler handles child account lifecycle, the ledger surface of an
// account and its entitlement rules.
type childrenHandler struct {
	accountService     portssvc.AccountSvcFacade
	ledgerService      portssvc.LedgerSvcFacade
	entitlementService portssvc.EntitlementSvcFacade
}

func newChildrenHandler(as portssvc.AccountSvcFacade, ls portssvc.LedgerSvcFacade, es portssvc.EntitlementSvcFacade) *childrenHandler {
	return &childrenHandler{
		accountService:     as,
		ledgerService:      ls,
		entitlementService: es,
	}
}

// registerChildrenRoutes registers all child-account scoped routes.
func registerChildrenRoutes(rg *gin.RouterGroup, svc *portssvc.ServiceContainer) {
	h := newChildrenHandler(svc.Account, svc.Ledger, svc.Entitlement)

	children := rg.Group("/children")
	{
		children.POST("", middleware.RequireParent(), h.createChild)
		children.GET("", middleware.RequireParent(), h.listChildren)
		children.GET("/:accountID", h.getChild)
		children.DELETE("/:accountID", middleware.RequireParent(), h.deactivateChild)

		children.GET("/:accountID/balance", h.getBalance)
		children.GET("/:accountID/transactions", h.listTransactions)
		children.POST("/:accountID/adjust", middleware.RequireParent(), middleware.RequireReauth(svc.Token), h.adjustBalance)
		children.POST("/:accountID/freeze", middleware.RequireParent(), h.toggleFreeze)
		children.GET("/:accountID/audit", middleware.RequireParent(), h.listAudit)

		children.PUT("/:accountID/rules", middleware.RequireParent(), h.upsertRule)
		children.GET("/:accountID/rules", h.listRules)
	}
}

// createChild godoc
// @Summary Create a child account
// @Description Creates a child account with a zero balance plus the child's login. The child's user id equals the account id.
// @Tags children
// @Accept json
// @Produce json
// @Param child body dto.CreateChildRequest true "Child details"
// @Success 201 {object} dto.ChildAccountResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 402 {object} map[string]string "Free tier limit reached"
// @Failure 409 {object} map[string]string "Username taken"
// @Security BearerAuth
// @Router /children [post]
func (h *childrenHandler) createChild(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req dto.CreateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	account, err := h.accountService.CreateChild(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Child account created", slog.String("account_id", account.AccountID))
	c.JSON(http.StatusCreated, dto.ToChildAccountResponse(account))
}

// listChildren godoc
// @Summary List child accounts
// @Tags children
// @Produce json
// @Success 200 {array} dto.ChildAccountResponse
// @Security BearerAuth
// @Router /children [get]
func (h *childrenHandler) listChildren(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	accounts, err := h.accountService.ListChildren(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToListChildAccountResponse(accounts))
}

// getChild godoc
// @Summary Get a child account
// @Tags children
// @Produce json
// @Param accountID path string true "Account ID"
// @Success 200 {object} dto.ChildAccountResponse
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /children/{accountID} [get]
func (h *childrenHandler) getChild(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	account, err := h.accountService.GetChild(c.Request.Context(), actor, c.Param("accountID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToChildAccountResponse(account))
}

// deactivateChild godoc
// @Summary Deactivate a child account
// @Description Marks the account inactive. History is retained; the account is never deleted.
// @Tags children
// @Produce json
// @Param accountID path string true "Account ID"
// @Success 204
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /children/{accountID} [delete]
func (h *childrenHandler) deactivateChild(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	actor, ok := mustActor(c)
	if !ok {
		return
	}

	accountID := c.Param("accountID")
	if err := h.accountService.DeactivateChild(c.Request.Context(), actor, accountID); err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Child account deactivated", slog.String("account_id", accountID))
	c.Status(http.StatusNoContent)
}

// getBalance godoc
// @Summary Get the current balance
// @Tags ledger
// @Produce json
// @Param accountID path string true "Account ID"
// @Success 200 {object} dto.BalanceResponse
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /children/{accountID}/balance [get]
func (h *childrenHandler) getBalance(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	accountID := c.Param("accountID")
	balance, err := h.ledgerService.GetBalance(c.Request.Context(), actor, accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{AccountID: accountID, TimeBucks: balance})
}

// listTransactions godoc
// @Summary List ledger transactions
// @Description Returns the account's transaction log, newest first.
// @Tags ledger
// @Produce json
// @Param accountID path string true "Account ID"
// @Param limit query int false "Page size (max 100)" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} dto.ListTransactionsResponse
// @Security BearerAuth
// @Router /children/{accountID}/transactions [get]
func (h *childrenHandler) listTransactions(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var params dto.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	txns, err := h.ledgerService.ListTransactions(c.Request.Context(), actor, c.Param("accountID"), params.Limit, params.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToListTransactionsResponse(txns))
}

// adjustBalance godoc
// @Summary Manually adjust the balance
// @Description Parent-only correction. Requires a re-authentication token in X-Reauth-Token. The amount may be negative but must not drive the balance below zero.
// @Tags ledger
// @Accept json
// @Produce json
// @Param accountID path string true "Account ID"
// @Param adjustment body dto.AdjustBalanceRequest true "Adjustment"
// @Success 200 {object} dto.AdjustBalanceResponse
// @Failure 400 {object} map[string]string "Invalid input or insufficient balance"
// @Failure 403 {object} map[string]string "Re-authentication required"
// @Failure 409 {object} map[string]string "Idempotency key reuse"
// @Security BearerAuth
// @Router /children/{accountID}/adjust [post]
func (h *childrenHandler) adjustBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req dto.AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	accountID := c.Param("accountID")
	txn, newBalance, err := h.ledgerService.AdjustBalance(c.Request.Context(), actor, accountID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Balance adjusted",
		slog.String("account_id", accountID),
		slog.Int64("amount", txn.Amount),
		slog.Int64("new_balance", newBalance),
	)
	c.JSON(http.StatusOK, dto.AdjustBalanceResponse{
		Transaction: dto.ToTransactionResponse(txn),
		NewBalance:  newBalance,
	})
}

// toggleFreeze godoc
// @Summary Freeze or unfreeze spending
// @Description Freezing blocks unlock spends. Earning and balance adjustments stay possible.
// @Tags ledger
// @Accept json
// @Produce json
// @Param accountID path string true "Account ID"
// @Param freeze body dto.ToggleFreezeRequest true "Freeze flag"
// @Success 204
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /children/{accountID}/freeze [post]
func (h *childrenHandler) toggleFreeze(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req dto.ToggleFreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	accountID := c.Param("accountID")
	if err := h.ledgerService.SetFreeze(c.Request.Context(), actor, accountID, *req.Frozen); err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Freeze flag set", slog.String("account_id", accountID), slog.Bool("frozen", *req.Frozen))
	c.Status(http.StatusNoContent)
}

// listAudit godoc
// @Summary List audit entries
// @Description Parent-only forensic view of privileged mutations, newest first.
// @Tags ledger
// @Produce json
// @Param accountID path string true "Account ID"
// @Param limit query int false "Page size (max 100)" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {array} dto.AuditEntryResponse
// @Security BearerAuth
// @Router /children/{accountID}/audit [get]
func (h *childrenHandler) listAudit(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var params dto.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	entries, err := h.ledgerService.ListAuditEntries(c.Request.Context(), actor, c.Param("accountID"), params.Limit, params.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToListAuditResponse(entries))
}

// upsertRule godoc
// @Summary Set an app unlock price
// @Description Creates or replaces the pricing rule for (account, app).
// @Tags entitlements
// @Accept json
// @Produce json
// @Param accountID path string true "Account ID"
// @Param rule body dto.UpsertRuleRequest true "Rule"
// @Success 200 {object} dto.RuleResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /children/{accountID}/rules [put]
func (h *childrenHandler) upsertRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req dto.UpsertRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	accountID := c.Param("accountID")
	rule, err := h.entitlementService.UpsertRule(c.Request.Context(), actor, accountID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Entitlement rule upserted", slog.String("account_id", accountID), slog.String("app_ref", rule.AppRef))
	c.JSON(http.StatusOK, dto.ToRuleResponse(rule))
}

// listRules godoc
// @Summary List app unlock prices
// @Tags entitlements
// @Produce json
// @Param accountID path string true "Account ID"
// @Success 200 {array} dto.RuleResponse
// @Security BearerAuth
// @Router /children/{accountID}/rules [get]
func (h *childrenHandler) listRules(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	rules, err := h.entitlementService.ListRules(c.Request.Context(), actor, c.Param("accountID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToListRuleResponse(rules))
}
