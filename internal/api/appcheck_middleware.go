// internal/api/appcheck_middleware.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/omasuaku/workcode-agent/internal/auth"
	"github.com/omasuaku/workcode-agent/internal/logging"
)

// AppCheckHeader carries the Firebase App Check token on requests.
const AppCheckHeader = "X-Firebase-AppCheck"

// AppCheckMiddleware rejects requests without a valid App Check
// token. Disabled deployments (local development) pass everything
// through.
func AppCheckMiddleware(verifier *auth.Verifier, disabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if disabled {
			c.Next()
			return
		}

		token := c.GetHeader(AppCheckHeader)
		if token == "" {
			// WebSocket clients cannot set custom headers from browsers;
			// accept the token as a query parameter there.
			token = c.Query("app_check_token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing App Check token",
			})
			return
		}

		claims, err := verifier.VerifyTokenSafe(c.Request.Context(), token)
		if err != nil {
			logging.L().Warn("App Check verification failed",
				zap.String("token", auth.SafeTokenDebug(auth.NormalizeToken(token))),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid App Check token",
			})
			return
		}

		if sub, ok := claims["sub"].(string); ok {
			c.Set("app_id", sub)
		}
		c.Next()
	}
}
