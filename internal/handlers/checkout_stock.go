package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

type stockCheckItem struct {
	ProductID     string `json:"productId" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required"`
	SelectedSize  string `json:"selectedSize"`
	SelectedColor string `json:"selectedColor"`
}

type stockCheckRequest struct {
	Items []stockCheckItem `json:"items" binding:"required"`
}

// ValidateStock serves POST /api/checkout/validate-stock. It never reserves
// anything; it only reports whether every requested line is currently
// satisfiable so the wizard can advance past the information step.
func ValidateStock(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/checkout/validate-stock"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var req stockCheckRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}
		if len(req.Items) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "at least one item is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		for _, item := range req.Items {
			productID, err := primitive.ObjectIDFromHex(item.ProductID)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid productId")
				return
			}
			if item.Quantity <= 0 {
				respondWithError(c, http.StatusBadRequest, route, "quantity must be greater than zero")
				return
			}

			var raw bson.M
			err = db.Collection("products").FindOne(ctx, bson.M{
				"_id":       productID,
				"isDeleted": bson.M{"$ne": true},
			}).Decode(&raw)
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusOK, gin.H{
					"valid":     false,
					"message":   "One of the products is no longer available",
					"messageAr": "أحد المنتجات لم يعد متاحاً",
				})
				return
			}
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}

			product, err := normalizeProductDocument(raw)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "decode error")
				return
			}

			available, name, nameAr := availableStock(product, item.SelectedSize, item.SelectedColor)
			if available < item.Quantity {
				c.JSON(http.StatusOK, gin.H{
					"valid":     false,
					"message":   fmt.Sprintf("Only %d of %s left in stock", available, name),
					"messageAr": fmt.Sprintf("متبقي %d فقط من %s", available, nameAr),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"valid": true})
	}
}

// availableStock prefers the variant combination stock when a size/color
// selection exists, falling back to the product-level count.
func availableStock(product models.Product, size, color string) (int, string, string) {
	name := product.Name
	nameAr := product.NameAr
	if nameAr == "" {
		nameAr = name
	}
	if stock, ok := product.VariantStock(size, color); ok {
		return stock, name, nameAr
	}
	return product.Stock, name, nameAr
}
