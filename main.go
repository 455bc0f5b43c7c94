// File: veridie/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"veridie/config"
	"veridie/cron"
	"veridie/database"
	bookingRepo "veridie/database/repository/booking"
	consultantRepo "veridie/database/repository/consultant"
	userRepoPkg "veridie/database/repository/user"
	"veridie/handlers"
	"veridie/middleware"
	"veridie/routes"
	"veridie/services/booking"
	"veridie/services/calendly"
	"veridie/services/diagnostics"
	"veridie/services/token"
	"veridie/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	utils.InitializeLogger()
	logger := utils.GetLogger()

	mongoClient, err := database.Connect(cfg)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to connect to MongoDB: %v", err)
	}

	cacheClient, err := utils.NewCacheClient(cfg)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to connect to Redis: %v", err)
	}

	// repositories.
	consultants := consultantRepo.NewMongoConsultantRepo(mongoClient, cfg.DatabaseName)
	bookings := bookingRepo.NewMongoBookingRepo(mongoClient, cfg.DatabaseName)
	users := userRepoPkg.NewMongoUserRepo(mongoClient, cfg.DatabaseName)

	if err := bookings.EnsureIndexes(); err != nil {
		logger.Sugar().Warnf("main: failed to ensure booking indexes: %v", err)
	}

	// services.
	calendlyClient := calendly.NewClient(
		cfg.CalendlyClientID,
		cfg.CalendlyClientSecret,
		cfg.CalendlyRedirectURI,
		logger,
	)

	tokenService := &token.DefaultTokenService{
		Repo:     consultants,
		Calendly: calendlyClient,
		Logger:   logger,
	}

	confirmationService := &booking.DefaultConfirmationService{
		Payments:    booking.NewStripeGateway(cfg.StripeKey),
		Bookings:    bookings,
		Consultants: consultants,
		Users:       users,
		Tokens:      tokenService,
		Calendly:    calendlyClient,
		Guard:       &booking.RedisConfirmationGuard{Client: cacheClient},
		Logger:      logger,
	}

	reporter := &diagnostics.DefaultReporter{
		Cfg:         cfg,
		DB:          mongoClient.Database(cfg.DatabaseName),
		Stripe:      diagnostics.NewStripeAccountClient(cfg.StripeKey),
		Consultants: consultants,
		Logger:      logger,
	}

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Booking:        handlers.NewBookingHandler(confirmationService, confirmationService, logger),
		Calendly:       handlers.NewCalendlyHandler(calendlyClient, tokenService, consultants, cacheClient, cfg.CalendlyWebhookURL, logger),
		Diagnostics:    handlers.NewDiagnosticsHandler(reporter),
		AdminJWTSecret: cfg.AdminJWTSecret,
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	routes.RegisterRoutes(router, handlerBundle)

	// Background refresh sweep keeps Calendly credentials warm.
	refreshWorker := cron.NewTokenRefreshWorker(cfg, consultants, tokenService, logger)
	refreshWorker.Start()

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	refreshWorker.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	if err := mongoClient.Disconnect(ctx); err != nil {
		logger.Sugar().Warnf("main: failed to disconnect MongoDB: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
