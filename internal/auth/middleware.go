package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CtxUsername is the gin context key holding the authenticated username.
const CtxUsername = "username"

// RequireAuth enforces Bearer auth for protected routes.
func RequireAuth(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			unauthorized(c, "missing authorization token")
			return
		}

		username, err := svc.ValidateToken(token)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				unauthorized(c, "Token has expired")
			case errors.Is(err, ErrMissingUserClaim):
				unauthorized(c, "Token payload missing 'user'")
			default:
				unauthorized(c, "Could not validate credentials")
			}
			return
		}

		c.Set(CtxUsername, username)
		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// extractToken pulls the Bearer token from the Authorization header.
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}

// Username returns the authenticated username stored by RequireAuth.
func Username(c *gin.Context) string {
	return c.GetString(CtxUsername)
}
