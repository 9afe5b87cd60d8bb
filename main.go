package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureCouponIndexes(db); err != nil {
		log.Printf("coupon index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}
	if err := database.EnsureReviewIndexes(db); err != nil {
		log.Printf("review index warning: %v", err)
	}

	smtpCfg := handlers.SMTPConfig{
		Host: config.AppEnv.SMTPHost,
		Port: config.AppEnv.SMTPPort,
		User: config.AppEnv.SMTPUser,
		Pass: config.AppEnv.SMTPPass,
		From: config.AppEnv.SMTPFrom,
	}

	r := gin.Default()
	r.Static("/uploads", config.AppEnv.PublicRoot+"/uploads")

	r.GET("/api/csrf-token", handlers.IssueCSRFToken())
	r.GET("/api/settings/store", handlers.GetStoreSettings(db))

	r.GET("/api/products", handlers.GetProducts(db))
	r.GET("/api/products/:slug", handlers.GetProductBySlug(db))
	r.GET("/api/categories", handlers.GetCategories(db))
	r.GET("/api/sections", handlers.GetSections(db))

	r.GET("/api/customer-reviews", handlers.GetReviews(db))
	r.POST("/api/customer-reviews", handlers.CreateReview(db))
	r.POST("/api/analytics", handlers.TrackEvent(db))

	checkout := r.Group("/api/checkout")
	{
		checkout.POST("/validate-stock", handlers.ValidateStock(db))
		checkout.POST("/validate-coupon", handlers.ValidateCoupon(db))
		checkout.POST("/upload-payment-proof", middleware.CSRF(),
			handlers.UploadPaymentProof(db, config.AppEnv.UploadStorage, config.AppEnv.PublicRoot))
		checkout.POST("/create-order", handlers.CreateOrder(db))
	}

	r.POST("/api/admin/login", handlers.AdminLogin(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))

	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuth(config.AppEnv.JWTSecret))
	{
		admin.GET("/me", func(c *gin.Context) {
			c.JSON(200, gin.H{"ok": true})
		})

		admin.POST("/change-password", handlers.ChangeAdminPassword(db))

		admin.GET("/settings", handlers.GetAdminSettings(db))
		admin.PATCH("/settings", handlers.PatchAdminSettings(db))

		admin.GET("/products", handlers.GetAllProducts(db))
		admin.POST("/products", handlers.CreateProduct(db, config.AppEnv.PublicRoot))
		admin.PUT("/products/:id", handlers.UpdateProduct(db))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db, config.AppEnv.PublicRoot))

		admin.POST("/categories", handlers.CreateCategory(db))
		admin.DELETE("/categories/:id", handlers.DeleteCategory(db))
	}

	r.POST("/api/send-email", middleware.AdminAuth(config.AppEnv.JWTSecret), handlers.SendEmail(smtpCfg))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
