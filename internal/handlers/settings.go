package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

// patchable settings sections. "store" carries the public checkout fields;
// the rest are admin-facing.
var allowedSettingsSections = map[string]struct{}{
	"store":    {},
	"sections": {},
	"email":    {},
}

// GetStoreSettings serves GET /api/settings/store: the public subset every
// storefront page reads before checkout.
func GetStoreSettings(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/settings/store"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var settings models.Settings
		err := db.Collection("settings").FindOne(ctx, bson.M{}).Decode(&settings)
		if err != nil && err != mongo.ErrNoDocuments {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"storeSettings": settings.Store})
	}
}

// GetAdminSettings serves GET /api/admin/settings with the full document in
// the success envelope.
func GetAdminSettings(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/settings"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var settings models.Settings
		err := db.Collection("settings").FindOne(ctx, bson.M{}).Decode(&settings)
		if err != nil && err != mongo.ErrNoDocuments {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "",
			"data":    gin.H{"settings": settings},
		})
	}
}

type patchSettingsRequest struct {
	Section   string                 `json:"section" binding:"required"`
	Data      map[string]interface{} `json:"data" binding:"required"`
	CSRFToken string                 `json:"csrfToken"`
}

// PatchAdminSettings serves PATCH /api/admin/settings: merges one section's
// fields into the settings document.
func PatchAdminSettings(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/admin/settings"
		defer handlePanic(c, route)

		var req patchSettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
			return
		}

		if !csrfTokenValid(c, req.CSRFToken) {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "invalid or missing CSRF token"})
			return
		}

		section := strings.TrimSpace(req.Section)
		if _, ok := allowedSettingsSections[section]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unknown settings section"})
			return
		}

		update := bson.M{"updatedAt": time.Now()}
		for key, value := range req.Data {
			update[section+"."+key] = value
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var settings models.Settings
		err := db.Collection("settings").FindOneAndUpdate(
			ctx,
			bson.M{},
			bson.M{"$set": update},
			options.FindOneAndUpdate().
				SetUpsert(true).
				SetReturnDocument(options.After),
		).Decode(&settings)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] section %s updated", route, section)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "settings updated",
			"data":    gin.H{"settings": settings},
		})
	}
}
