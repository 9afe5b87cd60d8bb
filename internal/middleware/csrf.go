package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CSRFCookieName holds the double-submit cookie. The same value must arrive
// in the X-CSRF-Token header (or request body for JSON endpoints that carry
// it inline) on every state-changing request.
const CSRFCookieName = "csrf_token"

// CSRF enforces the double-submit check using the request header.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CSRFTokenValid(c, "") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "invalid or missing CSRF token",
				"errorAr": "انتهت الجلسة، يرجى تحديث الصفحة",
			})
			return
		}
		c.Next()
	}
}

// CSRFTokenValid compares the cookie against the header token, or against
// the given body token when the header is absent.
func CSRFTokenValid(c *gin.Context, bodyToken string) bool {
	cookie, err := c.Cookie(CSRFCookieName)
	if err != nil || strings.TrimSpace(cookie) == "" {
		return false
	}

	token := strings.TrimSpace(c.GetHeader("X-CSRF-Token"))
	if token == "" {
		token = strings.TrimSpace(bodyToken)
	}

	return token != "" && token == cookie
}
