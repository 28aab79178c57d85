package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/anyulbade/ratecard-recon/internal/config"
	"github.com/anyulbade/ratecard-recon/internal/database"
	"github.com/anyulbade/ratecard-recon/internal/handler"
	"github.com/anyulbade/ratecard-recon/internal/middleware"
	"github.com/anyulbade/ratecard-recon/internal/repository"
	"github.com/anyulbade/ratecard-recon/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if err := godotenv.Load(); err == nil {
		log.Info().Msg("loaded .env")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL()); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		if err := database.SeedData(context.Background(), pool); err != nil {
			log.Fatal().Err(err).Msg("failed to seed data")
		}
	}

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())

	healthHandler := handler.NewHealthHandler(pool)
	router.GET("/health", healthHandler.Health)

	setupAPIRoutes(router, pool, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func setupAPIRoutes(router *gin.Engine, pool *pgxpool.Pool, cfg *config.Config) {
	cardRepo := repository.NewRateCardRepository(pool)

	importSvc := service.NewImportService(cardRepo, cfg.CommitChunk)
	cardSvc := service.NewRateCardService(cardRepo)
	summarySvc := service.NewSummaryService(cardRepo)

	uploadHandler := handler.NewUploadHandler(importSvc, cfg.MaxUploadRows)
	cardHandler := handler.NewRateCardHandler(cardSvc)
	summaryHandler := handler.NewSummaryHandler(summarySvc)

	api := router.Group("/api/v1")
	{
		api.POST("/rate-cards/uploads", uploadHandler.Preview)
		api.POST("/rate-cards/uploads/commit", uploadHandler.Commit)
		api.GET("/rate-cards", cardHandler.List)
		api.GET("/rate-cards/summary", summaryHandler.GetSummary)
		api.GET("/rate-cards/:id", cardHandler.Get)
		api.DELETE("/rate-cards/:id", cardHandler.Delete)
		api.POST("/rate-cards/:id/archive", cardHandler.Archive)
		api.POST("/rate-cards/:id/unarchive", cardHandler.Unarchive)
	}
}
