package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"stockly/cmd/fx/account_fx"
	"stockly/cmd/fx/catalog_fx"
	"stockly/cmd/fx/controllers_fx"
	"stockly/cmd/fx/db_fx"
	"stockly/cmd/fx/mail_fx"
	"stockly/cmd/fx/maintenance_fx"
	"stockly/cmd/fx/memcache_fx"
	"stockly/cmd/fx/tier_fx"
	"stockly/internal/api/controllers"
	"stockly/internal/models/db_models"
	"stockly/internal/repositories"
	"stockly/internal/services"
	"stockly/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	app := fx.New(
		db_fx.Module,
		mail_fx.Module,
		memcache_fx.Module,
		tier_fx.Module,
		account_fx.Module,
		catalog_fx.Module,
		controllers_fx.Module,
		maintenance_fx.Module,

		fx.Invoke(seedFeatureCatalog),
		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func seedFeatureCatalog(db *gorm.DB) error {
	return repositories.SeedDefaultDefinitions(db)
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := os.Getenv("PORT")
				if port == "" {
					port = "8080"
				}
				log.Println("Starting HTTP server at :" + port)
				if err := engine.Run(":" + port); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

func ProvideRouter(
	accountController *controllers.AccountController,
	tierController *controllers.TierController,
	productController *controllers.ProductController,
	categoryController *controllers.CategoryController,
	tierService services.TierServiceInterface) *gin.Engine {

	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.TraceIDMiddleware())

	RegisterRoutes(r, accountController, tierController, productController, categoryController, tierService)

	return r
}

func RegisterRoutes(r *gin.Engine,
	accountController *controllers.AccountController,
	tierController *controllers.TierController,
	productController *controllers.ProductController,
	categoryController *controllers.CategoryController,
	tierService services.TierServiceInterface) {

	accountGroup := r.Group("/accounts")
	accountGroup.POST("/register", accountController.Register)
	accountGroup.POST("/login", accountController.Login)
	accountGroup.POST("/forgot-password", accountController.ForgotPassword)
	accountGroup.POST("/reset-password", accountController.ResetPassword)

	r.GET("/tiers/plans", tierController.GetPlans)

	tierGroup := r.Group("/tiers")
	tierGroup.Use(middleware.JWTAuthMiddleware())
	tierGroup.GET("/status", tierController.GetStatus)
	tierGroup.GET("/features/:feature/access", tierController.CheckFeatureAccess)
	tierGroup.GET("/features/:feature/threshold", tierController.CheckUsageThreshold)
	tierGroup.POST("/upgrade", tierController.Upgrade)
	tierGroup.POST("/downgrade", tierController.Downgrade)
	tierGroup.GET("/history", tierController.GetHistory)
	tierGroup.POST("/usage/track", tierController.TrackUsage)

	productGroup := r.Group("/products")
	productGroup.Use(middleware.JWTAuthMiddleware())
	productGroup.POST("", productController.Create)
	productGroup.GET("", productController.List)
	productGroup.GET("/export",
		middleware.RequireFeature(tierService, db_models.FeatureCSVExport),
		productController.Export)
	productGroup.GET("/:id", productController.Get)
	productGroup.PUT("/:id", productController.Update)
	productGroup.DELETE("/:id", productController.Delete)

	categoryGroup := r.Group("/categories")
	categoryGroup.Use(middleware.JWTAuthMiddleware())
	categoryGroup.POST("", categoryController.Create)
	categoryGroup.GET("", categoryController.List)
	categoryGroup.PUT("/:id", categoryController.Update)
	categoryGroup.DELETE("/:id", categoryController.Delete)

	adminGroup := r.Group("/admin/tiers")
	adminGroup.Use(middleware.JWTAuthMiddleware(), middleware.RoleMiddleware("admin"))
	adminGroup.POST("/sweep", tierController.RunExpirySweep)
	adminGroup.POST("/reset-counters", tierController.ResetCounters)
}
