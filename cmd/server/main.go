package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/artify/api/internal/auth"
	"github.com/artify/api/internal/client"
	"github.com/artify/api/internal/config"
	"github.com/artify/api/internal/inference"
	"github.com/artify/api/internal/logging"
	"github.com/artify/api/internal/server"
	"github.com/artify/api/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		base := logging.Base()
		base.Fatal().Err(err).Msg("failed to load config")
	}

	logging.Configure(logging.Config{
		Level:   cfg.Server.LogLevel,
		Env:     cfg.Server.Env,
		Service: "artify-functions",
	})
	logger := logging.Base()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis is optional; without it rate limits are kept in process
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis not available, rate limits fall back to local")
		}
	}

	policy := inference.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	}
	hfController := inference.NewController(
		inference.NewHTTPCaller(&http.Client{Timeout: cfg.HuggingFace.Timeout}),
		policy,
		inference.WithLogger(logging.WithComponent("retry")),
	)
	gatewayController := inference.NewController(
		inference.NewHTTPCaller(&http.Client{Timeout: cfg.Gateway.Timeout}),
		policy,
		inference.WithLogger(logging.WithComponent("retry")),
	)

	// Initialize clients
	hfClient := client.NewHuggingFaceClient(&cfg.HuggingFace, hfController)
	gatewayClient := client.NewGatewayClient(&cfg.Gateway, gatewayController)
	if !hfClient.IsConfigured() {
		logger.Warn().Msg("HUGGING_FACE_ACCESS_TOKEN not set, image and video generation are disabled")
	}
	if !gatewayClient.IsConfigured() {
		logger.Warn().Msg("LOVABLE_API_KEY not set, gemini, style transfer and upscale are disabled")
	}

	var store client.AssetStore
	if cfg.R2Enabled() {
		r2Client, err := client.NewR2Client(ctx, &cfg.R2)
		if err != nil {
			logger.Warn().Err(err).Msg("R2 unavailable, assets are returned inline")
		} else {
			store = r2Client
		}
	}
	publisher := service.NewPublisher(store)

	// Initialize services
	imageService := service.NewImageService(hfClient, gatewayClient, publisher)
	videoService := service.NewVideoService(hfClient, publisher)
	styleService := service.NewStyleService(gatewayClient)
	upscaleService := service.NewUpscaleService(gatewayClient)

	var verifiers auth.Chain
	if cfg.Auth.JWKSURL != "" {
		jwks, err := auth.NewJWKSVerifier(ctx, cfg.Auth.JWKSURL, cfg.Auth.Issuer)
		if err != nil {
			logger.Fatal().Err(err).Str("url", cfg.Auth.JWKSURL).Msg("failed to load JWKS")
		}
		verifiers = append(verifiers, jwks)
	}
	if cfg.Auth.JWTSecret != "" {
		verifiers = append(verifiers, auth.NewHMACVerifier(cfg.Auth.JWTSecret))
	}
	var verifier auth.Verifier
	if cfg.Auth.Enabled() {
		verifier = verifiers
	} else {
		logger.Warn().Msg("no JWT_SECRET or SUPABASE_JWKS_URL set, functions are open")
	}

	app := server.NewApp(server.Deps{
		Config:   cfg,
		Images:   imageService,
		Videos:   videoService,
		Styles:   styleService,
		Upscaler: upscaleService,
		Redis:    redisClient,
		Logger:   logging.WithComponent("http"),
		Verifier: verifier,
		Services: map[string]bool{
			"huggingface": hfClient.IsConfigured(),
			"gateway":     gatewayClient.IsConfigured(),
			"r2":          store != nil,
			"redis":       redisClient != nil,
			"auth":        verifier != nil,
		},
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + cfg.Server.Port
		logger.Info().Str("addr", addr).Msg("server starting")
		if err := app.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")
		return app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}
