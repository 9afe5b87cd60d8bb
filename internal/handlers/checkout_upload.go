package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

const maxProofSize = 5 << 20

var allowedProofExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// UploadPaymentProof serves POST /api/checkout/upload-payment-proof.
// Storage mode "db" keeps the image in Mongo and responds with the base64
// paymentProof object; "disk" writes under publicRoot/uploads and responds
// with the legacy url form.
func UploadPaymentProof(db *mongo.Database, storageMode, publicRoot string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/checkout/upload-payment-proof"
		defer handlePanic(c, route)

		file, err := c.FormFile("file")
		if err != nil {
			respondLocalized(c, http.StatusBadRequest, route,
				"Payment proof file is required", "ملف إثبات الدفع مطلوب")
			return
		}

		contentType, err := validateProofFile(file)
		if err != nil {
			respondLocalized(c, http.StatusBadRequest, route, err.Error(),
				"ملف إثبات الدفع غير صالح")
			return
		}

		if storageMode == "db" {
			if err := ensureDBConnection(c.Request.Context(), db); err != nil {
				respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
				return
			}

			data, err := readUpload(file)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "upload failed")
				return
			}

			proof := models.PaymentProof{
				Data:        data,
				ContentType: contentType,
				Size:        file.Size,
				CreatedAt:   time.Now(),
			}

			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()

			if _, err := db.Collection("payment_proofs").InsertOne(ctx, proof); err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "upload failed")
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"paymentProof": gin.H{
					"data":        base64.StdEncoding.EncodeToString(data),
					"contentType": contentType,
				},
			})
			return
		}

		relPath, err := saveProofToDisk(file, publicRoot)
		if err != nil {
			log.Printf("[%s] save failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "upload failed")
			return
		}

		c.JSON(http.StatusOK, gin.H{"url": "/" + relPath})
	}
}

// validateProofFile enforces the image whitelist and size limit, returning
// the content type derived from the extension.
func validateProofFile(file *multipart.FileHeader) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	contentType, ok := allowedProofExtensions[extension]
	if !ok {
		return "", fmt.Errorf("unsupported image type: %s", extension)
	}
	if file.Size > maxProofSize {
		return "", fmt.Errorf("image file too large (max 5MB)")
	}
	return contentType, nil
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	in, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return io.ReadAll(in)
}

func saveProofToDisk(file *multipart.FileHeader, publicRoot string) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	filename := primitive.NewObjectID().Hex() + extension

	dir := filepath.Join(publicRoot, "uploads", "payment-proofs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
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

	return filepath.ToSlash(filepath.Join("uploads", "payment-proofs", filename)), nil
}
