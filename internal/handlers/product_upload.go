package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

// MultipartProductInput distinguishes "field absent" from "field set to the
// zero value" so partial updates only touch what the form sent.
type MultipartProductInput struct {
	Slug             string
	SlugSet          bool
	Name             string
	NameSet          bool
	NameAr           string
	NameArSet        bool
	Description      string
	DescriptionSet   bool
	DescriptionAr    string
	DescriptionArSet bool
	Price            float64
	PriceSet         bool
	Categories       []string
	CategoriesSet    bool
	Sizes            []string
	SizesSet         bool
	Colors           []string
	ColorsSet        bool
	Variants         []models.VariantCombination
	VariantsSet      bool
	ImagePath        string
	ImageSet         bool
	Stock            int
	StockSet         bool
	IsActive         bool
	IsActiveSet      bool
	IsFeatured       bool
	IsFeaturedSet    bool
}

func parseMultipartProductRequest(c *gin.Context, publicRoot string) (MultipartProductInput, error) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		return MultipartProductInput{}, err
	}

	input := MultipartProductInput{}

	stringFields := []struct {
		key   string
		value *string
		set   *bool
	}{
		{"slug", &input.Slug, &input.SlugSet},
		{"name", &input.Name, &input.NameSet},
		{"nameAr", &input.NameAr, &input.NameArSet},
		{"description", &input.Description, &input.DescriptionSet},
		{"descriptionAr", &input.DescriptionAr, &input.DescriptionArSet},
	}
	for _, field := range stringFields {
		if value, ok := c.GetPostForm(field.key); ok {
			*field.value = strings.TrimSpace(value)
			*field.set = true
		}
	}

	if value, ok := c.GetPostForm("price"); ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return MultipartProductInput{}, err
		}
		input.Price = parsed
		input.PriceSet = true
	}

	if value, ok := c.GetPostForm("stock"); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return MultipartProductInput{}, err
		}
		input.Stock = parsed
		input.StockSet = true
	}

	if value, ok := c.GetPostForm("isActive"); ok {
		parsed, err := parseBoolValue(value)
		if err != nil {
			return MultipartProductInput{}, err
		}
		input.IsActive = parsed
		input.IsActiveSet = true
	}

	if value, ok := c.GetPostForm("isFeatured"); ok {
		parsed, err := parseBoolValue(value)
		if err != nil {
			return MultipartProductInput{}, err
		}
		input.IsFeatured = parsed
		input.IsFeaturedSet = true
	}

	if values := c.PostFormArray("category"); len(values) > 0 {
		input.Categories = values
		input.CategoriesSet = true
	}
	if values := c.PostFormArray("sizes"); len(values) > 0 {
		input.Sizes = values
		input.SizesSet = true
	}
	if values := c.PostFormArray("colors"); len(values) > 0 {
		input.Colors = values
		input.ColorsSet = true
	}

	// Variant combinations arrive as a JSON array in one form field.
	if value, ok := c.GetPostForm("variants"); ok && strings.TrimSpace(value) != "" {
		var variants []models.VariantCombination
		if err := json.Unmarshal([]byte(value), &variants); err != nil {
			return MultipartProductInput{}, fmt.Errorf("invalid variants payload: %w", err)
		}
		for _, v := range variants {
			if v.Stock < 0 {
				return MultipartProductInput{}, fmt.Errorf("variant stock cannot be negative")
			}
		}
		input.Variants = variants
		input.VariantsSet = true
	}

	file, err := c.FormFile("image")
	if err == nil {
		imagePath, err := saveProductImage(file, publicRoot)
		if err != nil {
			return MultipartProductInput{}, err
		}
		input.ImagePath = imagePath
		input.ImageSet = true
	} else if !errors.Is(err, http.ErrMissingFile) &&
		!strings.Contains(err.Error(), "no such file") {
		return MultipartProductInput{}, err
	}

	return input, nil
}

func saveProductImage(file *multipart.FileHeader, publicRoot string) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedProofExtensions[extension]; !ok {
		return "", fmt.Errorf("unsupported image type: %s", extension)
	}
	if file.Size > maxProofSize {
		return "", fmt.Errorf("image file too large (max 5MB)")
	}

	filename := primitive.NewObjectID().Hex() + extension

	dir := filepath.Join(publicRoot, "uploads", "products")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("[UPLOAD] saveProductImage: mkdir %s failed: %v", dir, err)
		return "", err
	}

	fullPath := filepath.Join(dir, filename)

	out, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	in, err := file.Open()
	if err != nil {
		return "", err
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", err
	}

	return filepath.ToSlash(filepath.Join("uploads", "products", filename)), nil
}

func parseBoolValue(value string) (bool, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "on" {
		return true, nil
	}
	return strconv.ParseBool(value)
}
