package handler

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// OriginGuard rejects browser requests made on behalf of another site: a request
// carrying an Origin header must come from the page this server serves. With
// loopbackOnly set, the Host header must also name a loopback address, which
// stops DNS-rebinding pages from reaching the API.
func OriginGuard(loopbackOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if loopbackOnly && !IsLoopbackHost(c.Request.Host) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "host not allowed",
			})
			return
		}

		if origin := c.GetHeader("Origin"); origin != "" {
			if !sameOrigin(origin, c.Request.Host) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "cross-origin request rejected",
				})
				return
			}
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// IsLoopbackHost reports whether host (optionally with a port) names this machine.
func IsLoopbackHost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func sameOrigin(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, host)
}
