package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/services"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/dto"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// authHandler handles login, parent registration and re-authentication.
type authHandler struct {
	userService  portssvc.UserSvcFacade
	tokenService portssvc.TokenSvcFacade
}

func newAuthHandler(us portssvc.UserSvcFacade, ts portssvc.TokenSvcFacade) *authHandler {
	return &authHandler{userService: us, tokenService: ts}
}

// registerAuthRoutes registers the public authentication routes.
func registerAuthRoutes(rg *gin.RouterGroup, svc *portssvc.ServiceContainer) {
	h := newAuthHandler(svc.User, svc.Token)

	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
	}
}

// registerReauthRoute registers the authenticated password re-confirmation
// route. It lives under the protected group because the caller must already
// hold a valid bearer token.
func registerReauthRoute(rg *gin.RouterGroup, svc *portssvc.ServiceContainer) {
	h := newAuthHandler(svc.User, svc.Token)
	rg.POST("/auth/reauth", h.reauth)
}

// register godoc
// @Summary Register a parent
// @Description Creates a parent login. Child logins are created via the children API.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body dto.RegisterRequest true "Parent details"
// @Success 201 {object} dto.LoginResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Username taken"
// @Router /auth/register [post]
func (h *authHandler) register(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	user, err := h.userService.RegisterParent(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	token, expiresAt, err := h.tokenService.IssueAccessToken(user)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Parent registered", slog.String("user_id", user.UserID))
	c.JSON(http.StatusCreated, dto.LoginResponse{
		Token:     token,
		UserID:    user.UserID,
		Name:      user.Name,
		Role:      string(user.Role),
		ExpiresAt: expiresAt,
	})
}

// login godoc
// @Summary Log in
// @Description Exchanges username/password for a bearer token. Works for both parent and child logins.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Bad credentials"
// @Router /auth/login [post]
func (h *authHandler) login(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		// Deliberately uniform: no hint whether the username exists.
		respondError(c, err)
		return
	}

	token, expiresAt, err := h.tokenService.IssueAccessToken(user)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Login succeeded", slog.String("user_id", user.UserID))
	c.JSON(http.StatusOK, dto.LoginResponse{
		Token:     token,
		UserID:    user.UserID,
		Name:      user.Name,
		Role:      string(user.Role),
		ExpiresAt: expiresAt,
	})
}

// reauth godoc
// @Summary Re-confirm password
// @Description Exchanges the caller's password for a short-lived re-authentication token required by privileged actions.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body dto.ReauthRequest true "Current password"
// @Success 200 {object} dto.ReauthResponse
// @Failure 401 {object} map[string]string "Bad password"
// @Security BearerAuth
// @Router /auth/reauth [post]
func (h *authHandler) reauth(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req dto.ReauthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	// Re-run the credential check against the stored hash.
	if _, err := h.userService.Authenticate(c.Request.Context(), user.Username, req.Password); err != nil {
		respondError(c, err)
		return
	}

	token, expiresAt, err := h.tokenService.IssueReauthToken(actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Re-authentication token issued", slog.String("user_id", actor.ID))
	c.JSON(http.StatusOK, dto.ReauthResponse{ReauthToken: token, ExpiresAt: expiresAt})
}
