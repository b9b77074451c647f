package middleware

import (
	"crypto/subtle"
	"net/http"

	"lexconnect/utils"

	"github.com/gin-gonic/gin"
)

// AdminAuth validates the static admin bearer token from configuration.
// An empty configured token disables the admin API.
func AdminAuth(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminToken == "" {
			utils.JSONError(c, http.StatusServiceUnavailable, "Admin API disabled", "")
			return
		}
		token := bearerToken(c)
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) != 1 {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized admin access", "")
			return
		}
		c.Set(utils.CtxAccountID, "admin")
		c.Set(utils.CtxRole, utils.RoleAdmin)
		c.Next()
	}
}
