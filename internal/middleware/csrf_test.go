package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func csrfTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/protected", CSRF(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func performCSRFRequest(router *gin.Engine, cookie, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: cookie})
	}
	if header != "" {
		req.Header.Set("X-CSRF-Token", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCSRFAllowsMatchingTokens(t *testing.T) {
	router := csrfTestRouter()
	w := performCSRFRequest(router, "tok-1", "tok-1")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestCSRFRejections(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
	}{
		{"missing cookie", "", "tok-1"},
		{"missing header", "tok-1", ""},
		{"mismatched tokens", "tok-1", "tok-2"},
		{"both missing", "", ""},
	}

	router := csrfTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performCSRFRequest(router, tt.cookie, tt.header)
			if w.Code != http.StatusForbidden {
				t.Errorf("expected 403, got %d", w.Code)
			}
		})
	}
}

func TestCSRFTokenValidAcceptsBodyToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "tok-1"})

	if !CSRFTokenValid(c, "tok-1") {
		t.Error("body token matching the cookie must pass")
	}
	if CSRFTokenValid(c, "tok-2") {
		t.Error("mismatched body token must fail")
	}
	if CSRFTokenValid(c, "") {
		t.Error("absent header and body token must fail")
	}
}
