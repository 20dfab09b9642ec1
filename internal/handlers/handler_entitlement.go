package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/services"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/dto"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/middleware"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/platform/metrics"
	"github.com/gin-gonic/gin"
)

// entitlementHandler handles unlock sessions.
type entitlementHandler struct {
	entitlementService portssvc.EntitlementSvcFacade
}

func newEntitlementHandler(es portssvc.EntitlementSvcFacade) *entitlementHandler {
	return &entitlementHandler{entitlementService: es}
}

// registerSessionRoutes registers entitlement session routes.
func registerSessionRoutes(rg *gin.RouterGroup, svc *portssvc.ServiceContainer) {
	h := newEntitlementHandler(svc.Entitlement)

	sessions := rg.Group("/sessions")
	{
		sessions.POST("", h.openSession)
		sessions.GET("", h.listSessions)
		sessions.POST("/:sessionID/expire", h.expireSession)
	}
}

// openSession godoc
// @Summary Open an unlock session
// @Description Spends Time Bucks to unlock a blocked app for a number of minutes. The debit, the session, the transaction record and the audit entry are one atomic unit.
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body dto.OpenSessionRequest true "Unlock request"
// @Success 201 {object} dto.OpenSessionResponse
// @Failure 400 {object} map[string]string "Invalid input or insufficient balance"
// @Failure 403 {object} map[string]string "Spending frozen"
// @Failure 404 {object} map[string]string "No pricing rule for app"
// @Failure 409 {object} map[string]string "Session already active for app"
// @Security BearerAuth
// @Router /sessions [post]
func (h *entitlementHandler) openSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	session, newBalance, err := h.entitlementService.OpenSession(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.SessionsOpened.Inc()
	metrics.TimeBucksSpent.Add(float64(session.Cost))
	logger.Info("Session opened",
		slog.String("session_id", session.SessionID),
		slog.String("app_ref", session.AppRef),
		slog.Int64("cost", session.Cost),
		slog.Int64("new_balance", newBalance),
	)
	c.JSON(http.StatusCreated, dto.OpenSessionResponse{
		SessionID:      session.SessionID,
		AppRef:         session.AppRef,
		MinutesGranted: session.MinutesGranted,
		Cost:           session.Cost,
		ExpiresAt:      session.ExpiresAt,
		NewBalance:     newBalance,
	})
}

// listSessions godoc
// @Summary List sessions for an account
// @Tags sessions
// @Produce json
// @Param accountID query string true "Account ID"
// @Param limit query int false "Page size (max 100)" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {array} dto.SessionResponse
// @Security BearerAuth
// @Router /sessions [get]
func (h *entitlementHandler) listSessions(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	accountID := c.Query("accountID")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accountID query parameter is required"})
		return
	}

	var params dto.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	sessions, err := h.entitlementService.ListSessions(c.Request.Context(), actor, accountID, params.Limit, params.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToListSessionResponse(sessions))
}

// expireSession godoc
// @Summary Report session expiry
// @Description The device controller reports the timer elapsed. Idempotent: a session already expired by the sweep is a no-op.
// @Tags sessions
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 204
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /sessions/{sessionID}/expire [post]
func (h *entitlementHandler) expireSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	actor, ok := mustActor(c)
	if !ok {
		return
	}

	sessionID := c.Param("sessionID")
	if err := h.entitlementService.MarkExpired(c.Request.Context(), actor, sessionID); err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Session expiry reported", slog.String("session_id", sessionID))
	c.Status(http.StatusNoContent)
}
