package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront/internal/middleware"
)

// IssueCSRFToken serves GET /api/csrf-token: mints a token, sets the
// double-submit cookie and returns the token for the client to echo in the
// X-CSRF-Token header.
func IssueCSRFToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := uuid.NewString()
		c.SetCookie(middleware.CSRFCookieName, token, 3600, "/", "", false, false)
		c.JSON(http.StatusOK, gin.H{"csrfToken": token})
	}
}

func csrfTokenValid(c *gin.Context, bodyToken string) bool {
	return middleware.CSRFTokenValid(c, bodyToken)
}
