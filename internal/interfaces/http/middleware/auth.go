// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

const principalKey = "principal"

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*user.User, error)
}

// RequireAuth rejects requests without a valid bearer token
func RequireAuth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, "authorization header required")
			return
		}

		token := auth.ExtractTokenFromHeader(authHeader)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		u, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			status := apperror.HTTPStatus(err)
			if status >= http.StatusInternalServerError {
				_ = c.Error(err)
				response.Abort(c, status, "internal server error")
				return
			}
			response.Abort(c, status, err.Error())
			return
		}

		setPrincipal(c, u.Principal())
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if !p.IsAdmin() {
			response.Abort(c, http.StatusForbidden, "admin access required")
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}

		if u, err := authn.Authenticate(c.Request.Context(), token); err == nil {
			setPrincipal(c, u.Principal())
		}
		c.Next()
	}
}

// CurrentPrincipal returns the authenticated caller, if any.
func CurrentPrincipal(c *gin.Context) (auth.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

func setPrincipal(c *gin.Context, p auth.Principal) {
	c.Set(principalKey, p)
	c.Set("user_id", p.UserID)
}
