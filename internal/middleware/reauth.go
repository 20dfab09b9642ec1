package middleware

import (
	"net/http"

	portssvc "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/services"
	"github.com/gin-gonic/gin"
)

// ReauthHeader carries the re-authentication token minted by /auth/reauth.
const ReauthHeader = "X-Reauth-Token"

// RequireReauth guards highly privileged actions (balance adjustment) behind
// proof of a recent password confirmation.
func RequireReauth(tokenSvc portssvc.TokenSvcFacade) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		actor, ok := GetActorFromCtx(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		token := c.GetHeader(ReauthHeader)
		if token == "" {
			logger.Warn("Re-authentication token missing for privileged action")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Re-authentication required for this action"})
			return
		}

		if err := tokenSvc.ValidateReauthToken(token, actor.ID); err != nil {
			logger.Warn("Re-authentication token rejected")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Re-authentication required for this action"})
			return
		}

		c.Next()
	}
}
