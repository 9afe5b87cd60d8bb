package handlers

import (
	"fmt"
	"log"
	"net/http"
	"net/smtp"
	"strings"

	"github.com/gin-gonic/gin"
)

// SMTPConfig carries the outbound mail settings from the environment.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func (c SMTPConfig) configured() bool {
	return c.Host != "" && c.From != ""
}

type sendEmailRequest struct {
	To        string `json:"to" binding:"required,email"`
	Subject   string `json:"subject" binding:"required"`
	Body      string `json:"body" binding:"required"`
	CSRFToken string `json:"csrfToken"`
}

// SendEmail serves POST /api/send-email. Without SMTP configuration the
// request is acknowledged but reported as not delivered.
func SendEmail(cfg SMTPConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/send-email"
		defer handlePanic(c, route)

		var req sendEmailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "to, subject and body are required")
			return
		}

		if !csrfTokenValid(c, req.CSRFToken) {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid or missing CSRF token"})
			return
		}

		if !cfg.configured() {
			log.Printf("[%s] SMTP not configured, dropping mail to %s", route, req.To)
			c.JSON(http.StatusOK, gin.H{"accepted": false, "message": "email delivery is not configured"})
			return
		}

		msg := strings.Join([]string{
			"From: " + cfg.From,
			"To: " + req.To,
			"Subject: " + req.Subject,
			"MIME-Version: 1.0",
			"Content-Type: text/plain; charset=UTF-8",
			"",
			req.Body,
		}, "\r\n")

		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		var auth smtp.Auth
		if cfg.User != "" {
			auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
		}

		if err := smtp.SendMail(addr, auth, cfg.From, []string{req.To}, []byte(msg)); err != nil {
			log.Printf("[%s] send failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "email delivery failed")
			return
		}

		c.JSON(http.StatusOK, gin.H{"accepted": true})
	}
}
