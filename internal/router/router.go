// internal/router/router.go
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/serramalhas/malhas-backend/internal/config"
	"github.com/serramalhas/malhas-backend/internal/handlers"
	"github.com/serramalhas/malhas-backend/internal/middleware"
	"github.com/serramalhas/malhas-backend/internal/services"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	calendar := services.NewPricingCalendar(cfg.Pricing)

	authService := services.NewAuthService(db, cfg)
	userService := services.NewUserService(db)
	settingsService := services.NewSettingsService(db)
	yarnService := services.NewYarnService(db, calendar)
	freightService := services.NewFreightService(db, calendar)
	colorService := services.NewColorService(db)
	productService := services.NewProductService(db)
	tinturariaService := services.NewTinturariaService(db)
	dyeingCostService := services.NewDyeingCostService(db, colorService)
	calculatorService := services.NewCalculatorService(
		db,
		cfg.Pricing,
		calendar,
		productService,
		tinturariaService,
		yarnService,
		freightService,
		dyeingCostService,
		settingsService,
	)
	quoteService := services.NewQuoteService(db, calculatorService)
	documentService := services.NewDocumentService(
		db,
		cfg.Documents,
		quoteService,
		productService,
		storageService,
		settingsService,
		calendar,
	)
	erpService := services.NewERPService(db, cfg.ERP, services.NewERPClient(cfg.ERP), quoteService, settingsService)
	leadService := services.NewLeadService(cfg.WhatsApp, cfg.Pricing, productService, colorService)
	adminService := services.NewAdminService(db, yarnService, calendar)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	adminHandler := handlers.NewAdminHandler(adminService, settingsService)
	productHandler := handlers.NewProductHandler(productService, storageService, documentService)
	colorHandler := handlers.NewColorHandler(colorService)
	yarnHandler := handlers.NewYarnHandler(yarnService, freightService)
	tinturariaHandler := handlers.NewTinturariaHandler(tinturariaService, dyeingCostService)
	calculationHandler := handlers.NewCalculationHandler(calculatorService)
	quoteHandler := handlers.NewQuoteHandler(quoteService, documentService, erpService, calendar)
	publicHandler := handlers.NewPublicHandler(productService, colorService, leadService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// limit wraps a rate limiter so it can be switched off in tests.
	limit := func(mw func() gin.HandlerFunc) gin.HandlerFunc {
		if !cfg.Server.RateLimit {
			return func(c *gin.Context) { c.Next() }
		}
		return mw()
	}

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend))
	r.Use(middleware.I18nMiddleware())
	r.Use(limit(middleware.GeneralRateLimit))
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": "1.0.0",
		})
	})

	if storageService.IsLocal() {
		r.Static("/documents", cfg.Documents.LocalDir)
	}

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(limit(middleware.AuthRateLimit))
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
			auth.POST("/admin-key/redeem", middleware.AuthRequired(), authHandler.RedeemAdminKey)
		}

		// User routes
		users := v1.Group("/users")
		users.Use(middleware.AuthRequired())
		{
			users.PUT("/profile", userHandler.UpdateProfile)
			users.PUT("/password", userHandler.ChangePassword)
		}

		// Calculator routes, any logged-in user
		v1.POST("/calculations", middleware.AuthRequired(), calculationHandler.Calculate)
		v1.GET("/dyeing-costs/colors", middleware.AuthRequired(), tinturariaHandler.GetAvailableColors)

		// Public catalog routes
		public := v1.Group("/public")
		public.Use(middleware.OptionalAuth())
		{
			public.GET("/products", publicHandler.GetProducts)
			public.POST("/product-group-colors", publicHandler.GetProductGroupColors)
			public.GET("/colors", colorHandler.GetGroupedColors)
			public.POST("/leads/whatsapp", limit(middleware.LeadRateLimit), publicHandler.CreateWhatsAppLead)
			public.GET("/contact", publicHandler.GetContact)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard/stats", adminHandler.GetDashboardStats)
			admin.GET("/users", adminHandler.GetUsers)
			admin.PUT("/users/:id/role", adminHandler.UpdateUserRole)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
			admin.GET("/analytics", adminHandler.GetAnalytics)
			admin.POST("/admin-keys", authHandler.CreateAdminKey)

			admin.GET("/settings", adminHandler.GetSettings)
			admin.GET("/settings/:name/history", adminHandler.GetSettingHistory)
			admin.PUT("/settings/:name", adminHandler.UpdateSetting)

			admin.GET("/products", productHandler.GetProducts)
			admin.POST("/products", productHandler.CreateProduct)
			admin.POST("/products/catalog", productHandler.ExportCatalog)
			admin.GET("/products/:id", productHandler.GetProduct)
			admin.PUT("/products/:id", productHandler.UpdateProduct)
			admin.DELETE("/products/:id", productHandler.DeleteProduct)
			admin.GET("/products/:id/composition", productHandler.GetComposition)
			admin.PUT("/products/:id/composition", productHandler.SetComposition)
			admin.POST("/products/:id/images", limit(middleware.UploadRateLimit), productHandler.UploadProductImages)

			admin.GET("/colors", colorHandler.GetColors)
			admin.POST("/colors", colorHandler.CreateColor)
			admin.PUT("/colors/:id", colorHandler.UpdateColor)

			admin.GET("/yarn-types", yarnHandler.GetYarnTypes)
			admin.POST("/yarn-types", yarnHandler.CreateYarnType)
			admin.GET("/yarn-types/:id/prices", yarnHandler.GetPriceHistory)
			admin.GET("/yarn-prices/today", yarnHandler.GetTodayPrices)
			admin.PUT("/yarn-prices/today", yarnHandler.SaveTodayPrices)
			admin.GET("/freight/today", yarnHandler.GetTodayFreight)
			admin.PUT("/freight/today", yarnHandler.SaveTodayFreight)

			admin.GET("/tinturarias", tinturariaHandler.GetTinturarias)
			admin.POST("/tinturarias", tinturariaHandler.CreateTinturaria)
			admin.PUT("/tinturarias/:id", tinturariaHandler.UpdateTinturaria)
			admin.DELETE("/tinturarias/:id", tinturariaHandler.DeleteTinturaria)

			admin.GET("/dyeing-costs", tinturariaHandler.GetDyeingCosts)
			admin.POST("/dyeing-costs", tinturariaHandler.AddDyeingCost)
			admin.PUT("/dyeing-costs/:id", tinturariaHandler.UpdateDyeingCost)
			admin.DELETE("/dyeing-costs/:id", tinturariaHandler.DeleteDyeingCost)
			admin.POST("/dyeing-costs/import", limit(middleware.UploadRateLimit), tinturariaHandler.ImportDyeingCostsText)
			admin.POST("/dyeing-costs/import/xlsx", limit(middleware.UploadRateLimit), tinturariaHandler.ImportDyeingCostsXLSX)

			admin.POST("/quotes", quoteHandler.SaveQuote)
			admin.GET("/quotes", quoteHandler.GetQuotes)
			admin.GET("/quotes/export", quoteHandler.ExportQuotes)
			admin.GET("/quotes/id/:id", quoteHandler.GetQuoteByID)
			admin.GET("/quotes/:order_number", quoteHandler.GetQuote)
			admin.POST("/quotes/:order_number/convert", quoteHandler.ConvertToOrder)
			admin.GET("/quotes/:order_number/pdf", quoteHandler.QuotePDF)
			admin.GET("/quotes/:order_number/documents", quoteHandler.GetDocuments)
			admin.POST("/quotes/:order_number/erp", quoteHandler.SubmitERP)
			admin.GET("/quotes/:order_number/erp", quoteHandler.GetERPHistory)
			admin.POST("/documents/preview", quoteHandler.PreviewDocument)
		}
	}

	return r, nil
}
