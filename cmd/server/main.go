package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/zombar/prodscan"
	"github.com/zombar/prodscan/api"
	"github.com/zombar/prodscan/db"
	"github.com/zombar/prodscan/ollama"
	"github.com/zombar/prodscan/storage"
)

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("prodscan service initializing", "version", "1.0.0")

	// Default values
	defaultPort := getEnv("PORT", "8080")
	defaultStoragePath := getEnv("STORAGE_BASE_PATH", "./storage")
	defaultLanguageKey := getEnv("LANGUAGE_API_KEY", "")
	defaultLanguageURL := getEnv("LANGUAGE_API_URL", "")
	defaultOllamaURL := getEnv("OLLAMA_URL", ollama.DefaultBaseURL)
	defaultOllamaModel := getEnv("OLLAMA_MODEL", ollama.DefaultModel)
	defaultExcerptLimit := getEnv("ANNOTATION_EXCERPT_LIMIT", "5000")

	excerptLimit, err := strconv.Atoi(defaultExcerptLimit)
	if err != nil || excerptLimit < 1 {
		logger.Warn("invalid ANNOTATION_EXCERPT_LIMIT value, using default",
			"provided", defaultExcerptLimit,
			"default", 5000,
		)
		excerptLimit = 5000
	}

	// Command-line flags (override environment variables)
	port := flag.String("port", defaultPort, "Server port")
	languageKey := flag.String("language-api-key", defaultLanguageKey, "Natural Language API key")
	languageURL := flag.String("language-api-url", defaultLanguageURL, "Natural Language API base URL (empty for production)")
	ollamaURL := flag.String("ollama-url", defaultOllamaURL, "Ollama base URL for summary generation")
	ollamaModel := flag.String("ollama-model", defaultOllamaModel, "Ollama model for summary generation")
	disableCORS := flag.Bool("disable-cors", false, "Disable CORS")
	flag.Parse()

	if *languageKey == "" {
		logger.Warn("LANGUAGE_API_KEY is not set; extraction requests will fail until it is configured")
	}

	// PostgreSQL database configuration (required)
	dbHost := getEnv("DB_HOST", "")
	if dbHost == "" {
		logger.Error("DB_HOST environment variable is required")
		os.Exit(1)
	}

	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "prodscan")
	dbPassword := getEnv("DB_PASSWORD", "prodscan_dev_pass")
	dbName := getEnv("DB_NAME", "prodscan")

	dbConfig := db.Config{
		DSN: fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort, dbUser, dbPassword, dbName),
	}
	logger.Info("using PostgreSQL database", "host", dbHost, "port", dbPort, "database", dbName)

	// Optional S3-compatible archive; falls back to filesystem storage
	var s3Config *storage.S3Config
	if bucket := getEnv("S3_BUCKET", ""); bucket != "" {
		s3Config = &storage.S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          bucket,
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnv("S3_USE_PATH_STYLE", "") == "true",
		}
		logger.Info("using S3 archive storage", "bucket", bucket)
	} else {
		logger.Info("using filesystem archive storage", "path", defaultStoragePath)
	}

	extractorConfig := prodscan.DefaultConfig()
	extractorConfig.LanguageAPIKey = *languageKey
	extractorConfig.LanguageBaseURL = *languageURL
	extractorConfig.OllamaBaseURL = *ollamaURL
	extractorConfig.OllamaModel = *ollamaModel
	extractorConfig.AnnotationExcerptLimit = excerptLimit

	config := api.Config{
		Addr:            ":" + *port,
		DBConfig:        dbConfig,
		ExtractorConfig: extractorConfig,
		StorageConfig:   storage.Config{BasePath: defaultStoragePath},
		S3Config:        s3Config,
		CORSEnabled:     !*disableCORS,
	}

	server, err := api.NewServer(config)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Start server in a goroutine
	go func() {
		logger.Info("prodscan service starting",
			"port", *port,
			"database_host", dbHost,
			"database_name", dbName,
			"ollama_url", *ollamaURL,
			"ollama_model", *ollamaModel,
			"annotation_excerpt_limit", excerptLimit,
		)

		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
