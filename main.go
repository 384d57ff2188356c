package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"textlens/internal/api"
	"textlens/internal/auth"
	"textlens/internal/config"
	"textlens/internal/directory"
	"textlens/internal/identity"
	"textlens/internal/logger"
	"textlens/internal/metrics"
	"textlens/internal/provider"
	"textlens/internal/storage"
	"textlens/internal/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; config must parse before anything else starts.
		panic("load config: " + err.Error())
	}
	log := logger.New(cfg.LogLevel)

	db, err := storage.Open(cfg.DBDriver, cfg.DBURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := storage.Migrate(db, cfg.DBDriver); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(registry)

	verifier := identity.NewVerifier(identity.Config{
		BaseURL:      "https://" + cfg.Auth0.Domain,
		ClientID:     cfg.Auth0.ClientID,
		ClientSecret: cfg.Auth0.ClientSecret,
		RedirectURI:  cfg.Auth0.RedirectURI,
	})
	userDirectory := directory.New(db)
	authService := auth.NewService(cfg.SecretKey, cfg.TokenTTL())

	ctx := context.Background()
	openaiAnalyzer, err := provider.NewOpenAIAnalyzer(ctx, cfg.OpenAI)
	if err != nil {
		log.Fatal().Err(err).Msg("init openai analyzer")
	}
	watsonAnalyzer := provider.NewWatsonAnalyzer(cfg.IBM)
	// Result order is fixed: openai first, ibm second.
	aggregator := provider.NewAggregator(cfg.ProviderTimeout(), collector, log,
		openaiAnalyzer, watsonAnalyzer)

	predictor, err := vision.NewONNXPredictor(cfg.Vision.ModelPath, cfg.Vision.LibraryPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load vision model")
	}
	defer predictor.Close()
	labels, err := vision.LoadLabels(cfg.Vision.LabelsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load vision labels")
	}
	classifier := vision.NewClassifier(vision.NewSafeClient(30*time.Second), predictor, labels)

	handler := api.NewHandler(verifier, userDirectory, authService, aggregator,
		classifier, collector, registry, db, log)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(logger.GinMiddleware(log), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: router,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.ServerAddress).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-shutdownCtx.Done()
	log.Info().Msg("shutting down")
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(timeoutCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
