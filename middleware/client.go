package middleware

import (
	"net"
	"strings"

	"lexconnect/models"
	"lexconnect/utils"

	"github.com/gin-gonic/gin"
)

func getClientIP(c *gin.Context) string {
	// The first X-Forwarded-For entry is the original client.
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 && strings.TrimSpace(ips[0]) != "" {
			return strings.TrimSpace(ips[0])
		}
	}
	if xri := c.GetHeader("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip := c.Request.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		return host
	}
	return ip
}

// RequestMeta collects the client details recorded in security logs.
func RequestMeta(c *gin.Context) models.RequestMeta {
	meta := models.RequestMeta{IP: getClientIP(c), UserAgent: c.Request.UserAgent()}
	if v, ok := c.Get(utils.CtxGeo); ok {
		if geo, ok := v.(*GeoLocation); ok {
			meta.Country = geo.Country
		}
	}
	return meta
}
