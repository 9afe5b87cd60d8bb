package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

// GetAllProducts serves GET /api/admin/products: every non-deleted product,
// inactive ones included.
func GetAllProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/products"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(
			ctx,
			bson.M{"isDeleted": bson.M{"$ne": true}},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products, err := decodeProducts(ctx, cursor)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, products)
	}
}

// CreateProduct serves POST /api/admin/products (multipart).
func CreateProduct(db *mongo.Database, publicRoot string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/products"
		defer handlePanic(c, route)

		input, err := parseMultipartProductRequest(c, publicRoot)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := validateNewProduct(input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		product := models.Product{
			Slug:          input.Slug,
			Name:          input.Name,
			NameAr:        input.NameAr,
			Description:   input.Description,
			DescriptionAr: input.DescriptionAr,
			Price:         input.Price,
			Category:      models.StringList(input.Categories),
			Sizes:         input.Sizes,
			Colors:        input.Colors,
			Variants:      input.Variants,
			ImagePath:     input.ImagePath,
			Stock:         input.Stock,
			IsActive:      true,
			CreatedAt:     time.Now(),
		}
		if input.IsActiveSet {
			product.IsActive = input.IsActive
		}
		if input.IsFeaturedSet {
			product.IsFeatured = input.IsFeatured
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "a product with this slug already exists"})
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			product.ID = id
		}

		log.Printf("[%s] product %s created", route, product.Slug)
		c.JSON(http.StatusCreated, product)
	}
}

func validateNewProduct(input MultipartProductInput) error {
	if !input.SlugSet || input.Slug == "" {
		return fmt.Errorf("slug is required")
	}
	if !input.NameSet || input.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !input.PriceSet || input.Price <= 0 {
		return fmt.Errorf("price must be greater than zero")
	}
	if input.StockSet && input.Stock < 0 {
		return fmt.Errorf("stock cannot be negative")
	}
	return nil
}

type productUpdateRequest struct {
	Slug          *string                      `json:"slug"`
	Name          *string                      `json:"name"`
	NameAr        *string                      `json:"nameAr"`
	Description   *string                      `json:"description"`
	DescriptionAr *string                      `json:"descriptionAr"`
	Price         *float64                     `json:"price"`
	SaleEnabled   *bool                        `json:"saleEnabled"`
	SalePrice     *float64                     `json:"salePrice"`
	Category      *[]string                    `json:"category"`
	Sizes         *[]string                    `json:"sizes"`
	Colors        *[]string                    `json:"colors"`
	Variants      *[]models.VariantCombination `json:"variants"`
	Stock         *int                         `json:"stock"`
	IsActive      *bool                        `json:"isActive"`
	IsFeatured    *bool                        `json:"isFeatured"`
}

// UpdateProduct serves PUT /api/admin/products/:id. Only fields present in
// the body are touched; sale fields are validated as the combination that
// would result.
func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		var req productUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var raw bson.M
		err = db.Collection("products").FindOne(ctx, bson.M{
			"_id":       productID,
			"isDeleted": bson.M{"$ne": true},
		}).Decode(&raw)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		existing, err := normalizeProductDocument(raw)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		sale, err := resolveSaleUpdate(existing.Price, existing.SaleEnabled, existing.SalePrice, saleUpdateInput{
			Price:       req.Price,
			SaleEnabled: req.SaleEnabled,
			SalePrice:   req.SalePrice,
		})
		if err != nil {
			var saleErr saleValidationError
			if errors.As(err, &saleErr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": saleErr.Error(), "errorAr": saleErr.Arabic()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		update := bson.M{"price": sale.Price}
		if sale.SetSaleEnabled {
			update["saleEnabled"] = sale.SaleEnabled
		}
		if sale.SetSalePrice {
			update["salePrice"] = sale.SalePrice
		}

		setString := func(key string, value *string) {
			if value != nil {
				update[key] = strings.TrimSpace(*value)
			}
		}
		setString("slug", req.Slug)
		setString("name", req.Name)
		setString("nameAr", req.NameAr)
		setString("description", req.Description)
		setString("descriptionAr", req.DescriptionAr)

		if req.Category != nil {
			update["category"] = models.StringList(*req.Category)
		}
		if req.Sizes != nil {
			update["sizes"] = *req.Sizes
		}
		if req.Colors != nil {
			update["colors"] = *req.Colors
		}
		if req.Variants != nil {
			for _, v := range *req.Variants {
				if v.Stock < 0 {
					c.JSON(http.StatusBadRequest, gin.H{"error": "variant stock cannot be negative"})
					return
				}
			}
			update["variants"] = *req.Variants
		}
		if req.Stock != nil {
			if *req.Stock < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "stock cannot be negative"})
				return
			}
			update["stock"] = *req.Stock
		}
		if req.IsActive != nil {
			update["isActive"] = *req.IsActive
		}
		if req.IsFeatured != nil {
			update["isFeatured"] = *req.IsFeatured
		}

		var updated bson.M
		err = db.Collection("products").FindOneAndUpdate(
			ctx,
			bson.M{"_id": productID},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		product, err := normalizeProductDocument(updated)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, product)
	}
}

// DeleteProduct serves DELETE /api/admin/products/:id (soft delete). The
// stored image is removed from disk on success.
func DeleteProduct(db *mongo.Database, publicRoot string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/admin/products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		var previous bson.M
		err = db.Collection("products").FindOneAndUpdate(
			ctx,
			bson.M{"_id": productID, "isDeleted": bson.M{"$ne": true}},
			bson.M{"$set": bson.M{"isDeleted": true, "isActive": false, "deletedAt": now}},
		).Decode(&previous)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if imagePath, ok := previous["imagePath"].(string); ok {
			if err := safeDeleteUpload(publicRoot, imagePath); err != nil {
				log.Printf("[%s] image cleanup failed: %v", route, err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}
