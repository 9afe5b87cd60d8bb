package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type sectionResponse struct {
	models.Section
	Products []models.Product `json:"products"`
}

// GetSections serves GET /api/sections: the enabled homepage sections in
// display order, each with its product selection resolved.
func GetSections(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/sections"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("sections").Find(
			ctx,
			bson.M{"isEnabled": true},
			options.Find().SetSort(bson.D{{Key: "position", Value: 1}}),
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		var sections []models.Section
		if err := cursor.All(ctx, &sections); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		resolved := make([]sectionResponse, 0, len(sections))
		for _, section := range sections {
			products, err := resolveSectionProducts(ctx, db, section)
			if err != nil {
				log.Printf("[%s] section %s resolve failed: %v", route, section.ID.Hex(), err)
				products = []models.Product{}
			}
			resolved = append(resolved, sectionResponse{Section: section, Products: products})
		}

		c.JSON(http.StatusOK, gin.H{"sections": resolved})
	}
}

func resolveSectionProducts(ctx context.Context, db *mongo.Database, section models.Section) ([]models.Product, error) {
	filter := bson.M{
		"isActive":  bson.M{"$ne": false},
		"isDeleted": bson.M{"$ne": true},
	}

	switch {
	case len(section.ProductIDs) > 0:
		filter["_id"] = bson.M{"$in": section.ProductIDs}
	case section.Category != "":
		filter["category"] = bson.M{"$in": []string{section.Category}}
	default:
		filter["isFeatured"] = true
	}

	limit := int64(section.Limit)
	if limit <= 0 {
		limit = 8
	}

	cursor, err := db.Collection("products").Find(
		ctx,
		filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeProducts(ctx, cursor)
}
