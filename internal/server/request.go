package server

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const headerMemberID = "X-Member-Id"

// callerOrigin prefers the browser's Origin header and falls back to the
// request's own scheme and host.
func callerOrigin(c *gin.Context) string {
	if origin := strings.TrimSpace(c.GetHeader("Origin")); origin != "" && origin != "null" {
		return origin
	}
	return requestBaseURL(c)
}

func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := firstHeaderValue(c.GetHeader("X-Forwarded-Proto")); proto != "" {
		scheme = strings.ToLower(proto)
	}
	host := c.Request.Host
	if forwarded := firstHeaderValue(c.GetHeader("X-Forwarded-Host")); forwarded != "" {
		host = forwarded
	}
	return scheme + "://" + host
}

func firstHeaderValue(value string) string {
	if value == "" {
		return ""
	}
	first, _, _ := strings.Cut(value, ",")
	return strings.TrimSpace(first)
}

func memberID(c *gin.Context) string {
	if id := strings.TrimSpace(c.Query("member_id")); id != "" {
		return id
	}
	return strings.TrimSpace(c.GetHeader(headerMemberID))
}
