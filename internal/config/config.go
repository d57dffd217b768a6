package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Tesseract-Nexus/go-shared/secrets"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"product-import-service/internal/models"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisURL string

	// Server
	Port        string
	Environment string

	// Services
	CatalogServiceURL string // empty: products are created locally
	StaffServiceURL   string
	NATSURL           string

	// Import
	MaxUploadBytes  int64
	SessionTTL      time.Duration
	DefaultCurrency string

	// Upload archive (disabled when bucket is empty)
	ArchiveBucket      string
	ArchivePrefix      string
	AWSRegion          string
	S3Endpoint         string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	maxUploadBytes, err := strconv.ParseInt(getEnv("IMPORT_MAX_UPLOAD_BYTES", "10485760"), 10, 64)
	if err != nil || maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	sessionTTL, err := time.ParseDuration(getEnv("IMPORT_SESSION_TTL", "2h"))
	if err != nil || sessionTTL <= 0 {
		sessionTTL = 2 * time.Hour
	}

	return &Config{
		// Database - fetch password from GCP Secret Manager if enabled
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: secrets.GetDBPassword(),
		DBName:     getEnv("DB_NAME", "products_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisURL: getEnv("REDIS_URL", "redis://redis.redis-marketplace.svc.cluster.local:6379/0"),

		Port:        getEnv("PORT", "8087"),
		Environment: getEnv("ENVIRONMENT", "development"),

		CatalogServiceURL: os.Getenv("CATALOG_SERVICE_URL"),
		StaffServiceURL:   getEnv("STAFF_SERVICE_URL", "http://staff-service:8080"),
		NATSURL:           os.Getenv("NATS_URL"),

		MaxUploadBytes:  maxUploadBytes,
		SessionTTL:      sessionTTL,
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "USD"),

		ArchiveBucket:      os.Getenv("IMPORT_ARCHIVE_BUCKET"),
		ArchivePrefix:      getEnv("IMPORT_ARCHIVE_PREFIX", "product-imports"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:         os.Getenv("AWS_S3_ENDPOINT"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// AutoMigrate adds missing columns but never drops existing ones
	log.Println("Running auto-migrations...")
	if err := db.AutoMigrate(
		&models.Product{},
		&models.ImportRun{},
	); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "does not exist") && strings.Contains(errStr, "constraint") {
			log.Printf("Note: Migration constraint warning (safe to ignore): %v", err)
		} else {
			return nil, fmt.Errorf("failed to run auto-migrations: %w", err)
		}
	}
	log.Println("Auto-migrations completed successfully")

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
