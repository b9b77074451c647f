package middleware

import (
	"errors"
	"net/http"
	"strings"

	"lexconnect/models"
	"lexconnect/services/account"
	"lexconnect/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Sources maps a role to the service that can load its session state.
type Sources map[string]account.SessionSource

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// AccountAuth accepts a bearer token issued to one of the allowed roles.
// The token hash must match the one stored on the account, so logging out
// or changing the password revokes older tokens. Session state is read
// through the cache and falls back to the role's source on a miss.
func AccountAuth(sources Sources, cache account.SessionCache, allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := utils.GetLogger()
		token := bearerToken(c)
		if token == "" {
			utils.JSONError(c, http.StatusUnauthorized, "Insufficient authorization", "missing bearer token")
			return
		}
		accountID, role, err := utils.ExtractClaims(token)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "Insufficient authorization", "invalid token")
			return
		}
		if !roleAllowed(role, allowed) {
			utils.JSONError(c, http.StatusForbidden, "Forbidden", "this endpoint is not available to "+role+" accounts")
			return
		}
		source, ok := sources[role]
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, "Insufficient authorization", "unknown role")
			return
		}

		ctx := c.Request.Context()
		var state *account.SessionState
		if cache != nil {
			state, err = cache.Get(ctx, role, accountID)
			if err != nil && !errors.Is(err, account.ErrCacheMiss) {
				logger.Warn("auth cache unavailable, falling back to database", zap.Error(err))
			}
		}
		if state == nil {
			state, err = source.SessionState(ctx, accountID)
			if err != nil {
				utils.JSONError(c, http.StatusUnauthorized, "Authentication error", "account not found")
				return
			}
			if cache != nil {
				if err := cache.Put(ctx, role, accountID, *state); err != nil {
					logger.Warn("failed to cache session", zap.String("id", accountID), zap.Error(err))
				}
			}
		}

		if state.TokenHash == "" || state.TokenHash != utils.HashToken(token) {
			utils.JSONError(c, http.StatusUnauthorized, "Token mismatch", "session was revoked, please sign in again")
			return
		}
		if state.Status == models.AccountSuspended {
			utils.JSONError(c, http.StatusForbidden, "Account suspended", "")
			return
		}

		c.Set(utils.CtxAccountID, accountID)
		c.Set(utils.CtxRole, role)
		c.Next()
	}
}

func roleAllowed(role string, allowed []string) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// AccountID returns the authenticated account id and role.
func AccountID(c *gin.Context) (string, string) {
	return c.GetString(utils.CtxAccountID), c.GetString(utils.CtxRole)
}
