// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/auroraatelier/aurora-backend/internal/config"
	"github.com/auroraatelier/aurora-backend/internal/handlers"
	"github.com/auroraatelier/aurora-backend/internal/middleware"
	"github.com/auroraatelier/aurora-backend/internal/services"
	"github.com/auroraatelier/aurora-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)
	shippingService := services.NewShippingService(cfg.Shipping)
	paymentService := services.NewPaymentService(cfg)

	authService := services.NewAuthService(db, cfg)
	productService := services.NewProductService(db)
	cartService := services.NewCartService(db)
	orderService := services.NewOrderService(db, cfg, productService, shippingService, paymentService, notificationService)
	adminService := services.NewAdminService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(authService, orderService)
	productHandler := handlers.NewProductHandler(productService, storageService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	shippingHandler := handlers.NewShippingHandler(shippingService)
	adminHandler := handlers.NewAdminHandler(adminService, orderService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Ops endpoints
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
			auth.PUT("/me", middleware.AuthRequired(), authHandler.UpdateProfile)
		}

		// Public catalog
		products := v1.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.GET("/:id", productHandler.GetProduct)
		}

		// Orders: creation and tracking are open to guests, payment pages
		// are authenticated by the bearer token in the link.
		orders := v1.Group("/orders")
		{
			orders.POST("", middleware.OrderRateLimit(), middleware.OptionalAuth(), orderHandler.CreateOrder)
			orders.POST("/custom", middleware.OrderRateLimit(), middleware.OptionalAuth(), orderHandler.CreateCustomOrder)
			orders.GET("/track", orderHandler.TrackOrder)
			orders.GET("/:id/verify", orderHandler.VerifyPaymentToken)
			orders.POST("/:id/checkout-session", orderHandler.CreateCheckoutSession)
			orders.POST("/:id/cancel", middleware.AuthRequired(), orderHandler.CancelOrder)
		}

		v1.POST("/payments/verify-success", orderHandler.VerifyPaymentSuccess)

		// Shipping helpers
		shipping := v1.Group("/shipping")
		{
			shipping.POST("/validate-address", shippingHandler.ValidateAddress)
			shipping.POST("/calculate", shippingHandler.CalculateRates)
		}

		// Cart (authenticated)
		cart := v1.Group("/cart")
		cart.Use(middleware.AuthRequired())
		{
			cart.GET("", cartHandler.GetCart)
			cart.DELETE("", cartHandler.ClearCart)
			cart.POST("/items", cartHandler.AddItem)
			cart.PUT("/items/:id", cartHandler.UpdateItem)
			cart.DELETE("/items/:id", cartHandler.RemoveItem)
		}

		// User profile extras (authenticated)
		users := v1.Group("/users")
		users.Use(middleware.AuthRequired())
		{
			users.GET("/shipping-address", userHandler.GetShippingAddress)
			users.PUT("/shipping-address", userHandler.UpdateShippingAddress)
			users.GET("/orders", userHandler.ListOrders)
		}

		// Admin back-office
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard/stats", adminHandler.GetDashboardStats)

			adminOrders := admin.Group("/orders")
			{
				adminOrders.GET("", adminHandler.ListOrders)
				adminOrders.GET("/:id", adminHandler.GetOrder)
				adminOrders.POST("/:id/accept", adminHandler.AcceptOrder)
				adminOrders.POST("/:id/reject", adminHandler.RejectOrder)
				adminOrders.PUT("/:id/tax", adminHandler.SetTax)
				adminOrders.PUT("/:id/pricing", adminHandler.AdjustPricing)
				adminOrders.PUT("/:id/parcel", adminHandler.SetParcel)
				adminOrders.POST("/:id/shipping/rates", adminHandler.GetShippingRates)
				adminOrders.POST("/:id/shipping/label", adminHandler.PurchaseLabel)
				adminOrders.POST("/:id/payment-link", adminHandler.GeneratePaymentLink)
				adminOrders.POST("/:id/payment-link/regenerate", adminHandler.RegeneratePaymentLink)
				adminOrders.POST("/:id/request-adjustment", adminHandler.RequestAdjustment)
				adminOrders.POST("/:id/mark-shipped", adminHandler.MarkShipped)
				adminOrders.POST("/:id/mark-delivered", adminHandler.MarkDelivered)
				adminOrders.DELETE("/:id", adminHandler.RemoveOrder)
			}

			adminProducts := admin.Group("/products")
			{
				adminProducts.POST("", productHandler.CreateProduct)
				adminProducts.PUT("/:id", productHandler.UpdateProduct)
				adminProducts.DELETE("/:id", productHandler.DeleteProduct)
				adminProducts.POST("/:id/units", productHandler.AddUnit)
				adminProducts.PUT("/:id/units/:unitId", productHandler.UpdateUnit)
				adminProducts.DELETE("/:id/units/:unitId", productHandler.DeleteUnit)
				adminProducts.POST("/images", middleware.UploadRateLimit(), productHandler.UploadImage)
			}
		}
	}

	return r
}
