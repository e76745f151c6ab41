package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/tradelog/tradelog-api/internal/ai"
	"github.com/tradelog/tradelog-api/internal/auth"
	"github.com/tradelog/tradelog-api/internal/brokers"
	"github.com/tradelog/tradelog-api/internal/config"
	"github.com/tradelog/tradelog-api/internal/database"
	"github.com/tradelog/tradelog-api/internal/importer"
	"github.com/tradelog/tradelog-api/internal/journal"
	"github.com/tradelog/tradelog-api/internal/notify"
	"github.com/tradelog/tradelog-api/pkg/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the trading journal API server with graceful
// shutdown support
func main() {
	cfg := config.Load()

	// Initialize database
	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Seed the supported broker rows
	if err := brokers.NewDatabase(db).Seed(); err != nil {
		zlog.Fatal().Err(err).Msg("Failed to seed brokers")
	}

	// Initialize router
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// CORS for the journal web frontend
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Initialize services and handlers
	authService := auth.NewService(cfg.JWTSecret)
	authHandlers := auth.NewGinHandlers(authService)
	authService.RegisterAPICredentials(cfg.APIKey, cfg.APISecret)

	feedbackClient := ai.NewClient(cfg.AIEndpoint, cfg.AIAPIKey)

	journalService := journal.NewService(db)
	journalHandlers := journal.NewGinHandlers(journalService, feedbackClient)

	syncWebhook := notify.NewWebhook(cfg.SyncWebhookURL)
	importService := importer.NewService(db, syncWebhook)
	importHandlers := importer.NewGinHandlers(importService)

	brokerService := brokers.NewService(db)
	brokerHandlers := brokers.NewGinHandlers(brokerService)

	// Create and start the import cleanup processor
	importProcessor := importer.NewProcessor(importService.GetDB())
	processorCtx, processorCancel := context.WithCancel(context.Background())
	defer processorCancel()

	go importProcessor.Start(processorCtx)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, cfg.JWTSecret, authHandlers, journalHandlers, importHandlers, brokerHandlers)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for authentication
// - Journal, dashboard, import and broker routes: Protected by JWT
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	journalHandlers *journal.GinHandlers,
	importHandlers *importer.GinHandlers,
	brokerHandlers *brokers.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Journal routes
		trades := v1.Group("/trades")
		trades.Use(middleware.JWTAuth(jwtSecret))
		{
			trades.GET("", journalHandlers.ListTradesHandler())
			trades.POST("", journalHandlers.CreateTradeHandler())
			trades.PUT("", journalHandlers.BulkUpdateTradesHandler())
			trades.PUT("/:trade_id", journalHandlers.UpdateTradeHandler())
			trades.POST("/:trade_id/feedback", journalHandlers.FeedbackHandler())
		}

		// Dashboard routes
		dashboard := v1.Group("/dashboard")
		dashboard.Use(middleware.JWTAuth(jwtSecret))
		{
			dashboard.GET("/metrics", journalHandlers.MetricsHandler())
			dashboard.GET("/groups", journalHandlers.GroupsHandler())
			dashboard.GET("/equity-curve", journalHandlers.EquityCurveHandler())
		}

		// Stats routes
		stats := v1.Group("/stats")
		stats.Use(middleware.JWTAuth(jwtSecret))
		{
			stats.GET("/strategies", journalHandlers.StrategyStatsHandler())
			stats.GET("/symbols", journalHandlers.SymbolStatsHandler())
		}

		// Strategy list and settings
		settings := v1.Group("")
		settings.Use(middleware.JWTAuth(jwtSecret))
		{
			settings.GET("/strategies", journalHandlers.GetStrategiesHandler())
			settings.PUT("/strategies", journalHandlers.PutStrategiesHandler())
			settings.GET("/settings", journalHandlers.GetSettingsHandler())
			settings.PUT("/settings", journalHandlers.PutSettingsHandler())
		}

		// Import routes
		importGroup := v1.Group("/import")
		importGroup.Use(middleware.JWTAuth(jwtSecret))
		{
			importGroup.POST("/:broker", importHandlers.ImportHandler())
			importGroup.GET("/batches/:batch_id", importHandlers.GetBatchHandler())
		}

		// Broker management routes
		brokerGroup := v1.Group("/brokers")
		brokerGroup.Use(middleware.JWTAuth(jwtSecret))
		{
			brokerGroup.GET("", brokerHandlers.ListBrokersHandler())
			brokerGroup.POST("/:broker/connect", brokerHandlers.ConnectBrokerHandler())
			brokerGroup.POST("/:broker/disconnect", brokerHandlers.DisconnectBrokerHandler())
		}
	}
}
