package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

type analyticsRequest struct {
	Event    string                 `json:"event" binding:"required"`
	Page     string                 `json:"page"`
	Language string                 `json:"language"`
	Payload  map[string]interface{} `json:"payload"`
}

// TrackEvent serves POST /api/analytics. Events are fire-and-forget: the
// client always gets 202 and storage failures are only logged.
func TrackEvent(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/analytics"
		defer handlePanic(c, route)

		var req analyticsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusAccepted, gin.H{"accepted": false})
			return
		}

		event := models.AnalyticsEvent{
			Event:     strings.TrimSpace(req.Event),
			Page:      strings.TrimSpace(req.Page),
			Language:  strings.TrimSpace(req.Language),
			Payload:   req.Payload,
			CreatedAt: time.Now(),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if _, err := db.Collection("analytics").InsertOne(ctx, event); err != nil {
			log.Printf("[%s] insert failed: %v", route, err)
		}

		c.JSON(http.StatusAccepted, gin.H{"accepted": true})
	}
}
