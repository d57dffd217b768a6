package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"product-import-service/internal/clients"
	"product-import-service/internal/config"
	"product-import-service/internal/events"
	"product-import-service/internal/handlers"
	"product-import-service/internal/importer"
	"product-import-service/internal/middleware"
	"product-import-service/internal/repository"
	"product-import-service/internal/services"
	"product-import-service/internal/storage"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/rbac"
	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

// @title Product Import API
// @version 1.0.0
// @description Bulk product upload: parse, review, select and submit product files per tenant

// @host localhost:8087
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Import sessions live in Redis; without Redis they are kept in process memory
	var sessionStore importer.SessionStore
	var redisClient *redis.Client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v", err)
	} else {
		redisOpts.Password = secrets.GetRedisPassword()
		redisClient = redis.NewClient(redisOpts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("WARNING: Failed to connect to Redis: %v (sessions kept in memory)", err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Println("✓ Redis connected successfully")
		}
		cancel()
	}
	if redisClient != nil {
		sessionStore = repository.NewRedisSessionStore(redisClient, cfg.SessionTTL)
	} else {
		sessionStore = repository.NewMemorySessionStore(cfg.SessionTTL)
	}

	productsRepo := repository.NewProductsRepository(db, redisClient)
	importRuns := repository.NewImportRunRepository(db)

	// Event publisher for product.created, only if NATS_URL is set
	var eventsPublisher *events.Publisher
	if cfg.NATSURL != "" {
		eventsPublisher, err = events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
			eventsPublisher = nil
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer func() {
		if eventsPublisher != nil {
			eventsPublisher.Close()
		}
	}()

	catalog := services.NewCatalogService(productsRepo, publisherOrNil(eventsPublisher), cfg.DefaultCurrency, logger)
	var creator importer.ProductCreator = catalog
	if cfg.CatalogServiceURL != "" {
		creator = clients.NewCatalogClient(cfg.CatalogServiceURL, logger)
		log.Printf("✓ Imported products are created through %s", cfg.CatalogServiceURL)
	}

	importOpts := []importer.Option{importer.WithRunRecorder(importRuns)}
	if cfg.ArchiveBucket != "" {
		s3Client, err := storage.NewS3Client(context.Background(), storage.S3Config{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			log.Printf("WARNING: Failed to initialize S3 client: %v (uploads will not be archived)", err)
		} else {
			importOpts = append(importOpts, importer.WithArchiver(storage.NewS3Archiver(s3Client, cfg.ArchiveBucket, cfg.ArchivePrefix)))
			log.Printf("✓ Import uploads archived to s3://%s/%s", cfg.ArchiveBucket, cfg.ArchivePrefix)
		}
	}
	importService := importer.NewService(sessionStore, creator, logger, importOpts...)

	productsHandler := handlers.NewProductsHandler(catalog, productsRepo, logger)
	importHandler := handlers.NewImportHandler(importService, importRuns, cfg.MaxUploadBytes, logger)
	healthHandler := handlers.NewHealthHandler(db, redisClient, productsRepo)

	var tracerProvider *tracing.TracerProvider
	if cfg.Environment == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("product-import-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("product-import-service"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	metrics := gosharedmw.InitGlobalMetrics("tesseract", "product_import_service")
	rbacMw := rbac.NewMiddlewareWithURL(cfg.StaffServiceURL, nil)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("product-import-service"))
	router.Use(gosharedmw.CompressionMiddleware())
	router.Use(middleware.CORS())

	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/metrics", gosharedmw.Handler())

	api := router.Group("/api/v1")
	if cfg.Environment == "development" {
		api.Use(middleware.DevelopmentAuthMiddleware())
		api.Use(middleware.TenantMiddleware())
	} else {
		api.Use(gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
			RequireAuth:        true,
			AllowLegacyHeaders: true,
			Logger:             logrus.NewEntry(logger).WithField("component", "istio_auth"),
		}))
		api.Use(middleware.TenantMiddleware())
	}

	products := api.Group("/products")
	{
		products.GET("", rbacMw.RequirePermission(rbac.PermissionProductsRead), productsHandler.GetProducts)
		products.POST("", rbacMw.RequirePermission(rbac.PermissionProductsCreate), productsHandler.CreateProduct)
		products.GET("/:id", rbacMw.RequirePermission(rbac.PermissionProductsRead), productsHandler.GetProduct)

		importPerm := rbacMw.RequirePermission(rbac.PermissionProductsImport)
		products.GET("/import/template", importPerm, importHandler.GetImportTemplate)

		imports := products.Group("/imports", importPerm)
		imports.POST("", importHandler.UploadImport)
		imports.GET("/history", importHandler.ListImportRuns)
		imports.GET("/:id", importHandler.GetImport)
		imports.DELETE("/:id", importHandler.DiscardImport)
		imports.POST("/:id/selection", importHandler.UpdateSelection)
		imports.POST("/:id/rows/:row/toggle", importHandler.ToggleRow)
		imports.POST("/:id/submit", importHandler.SubmitImport)
		imports.POST("/:id/reset", importHandler.ResetImport)
		imports.POST("/:id/file", importHandler.ReloadImport)
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Product import service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down product-import-service...")

	// Submissions in flight keep running until the timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		} else {
			log.Println("✓ Tracer provider shut down")
		}
	}
	if redisClient != nil {
		redisClient.Close()
	}

	log.Println("Product import service stopped")
}

// publisherOrNil keeps a nil *events.Publisher from becoming a non-nil interface
func publisherOrNil(p *events.Publisher) services.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}
