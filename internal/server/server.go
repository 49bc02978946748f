// Package server assembles the Fiber app that serves the generation functions.
package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/artify/api/internal/auth"
	"github.com/artify/api/internal/config"
	"github.com/artify/api/internal/handler"
	"github.com/artify/api/internal/middleware"
	"github.com/artify/api/internal/model"
	"github.com/artify/api/internal/service"
	"github.com/artify/api/pkg/response"
)

// FunctionsPrefix is where the generation endpoints are mounted.
const FunctionsPrefix = "/functions/v1"

// Deps are the collaborators the app routes to. Redis may be nil.
type Deps struct {
	Config   *config.Config
	Images   *service.ImageService
	Videos   *service.VideoService
	Styles   *service.StyleService
	Upscaler *service.UpscaleService
	Redis    *redis.Client
	Logger   zerolog.Logger

	// Verifier checks bearer tokens; nil leaves the functions open.
	Verifier auth.Verifier

	// Services is reported by /health, e.g. {"huggingface": true}.
	Services map[string]bool
}

// NewApp builds the app with all middleware and routes registered.
func NewApp(d Deps) *fiber.App {
	cfg := d.Config

	bodyLimit := cfg.Server.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 50
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		BodyLimit:             bodyLimit * 1024 * 1024,
		DisableStartupMessage: true,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(d.Logger))
	app.Use(middleware.CORS())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"services": d.Services,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	validate := handler.NewValidator()
	generateHandler := handler.NewGenerateHandler(d.Images, d.Videos, validate)
	transformHandler := handler.NewTransformHandler(d.Styles, d.Upscaler, validate)

	var guards []fiber.Handler
	if d.Verifier != nil {
		guards = append(guards, middleware.NewAuthMiddleware(d.Verifier).Authenticate())
	}
	fn := app.Group(FunctionsPrefix, guards...)

	limiter := middleware.NewRateLimiter(d.Redis, d.Logger)
	limit := func(capability model.Capability, max int, window time.Duration) fiber.Handler {
		if !cfg.RateLimit.Enabled {
			max = 0
		}
		return limiter.Limit(string(capability), max, window)
	}

	fn.Post("/generate-image", limit(model.CapabilityImage, cfg.RateLimit.ImagePerMin, time.Minute), generateHandler.Image)
	fn.Post("/generate-video", limit(model.CapabilityVideo, cfg.RateLimit.VideoPerHour, time.Hour), generateHandler.Video)
	fn.Get("/style-transfer/styles", transformHandler.Styles)
	fn.Post("/style-transfer", limit(model.CapabilityStyle, cfg.RateLimit.StylePerMin, time.Minute), transformHandler.StyleTransfer)
	fn.Post("/upscale-image", limit(model.CapabilityUpscale, cfg.RateLimit.UpscalePerMin, time.Minute), transformHandler.Upscale)

	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	switch code {
	case fiber.StatusNotFound:
		return response.NotFound(c, message)
	case fiber.StatusRequestEntityTooLarge:
		return response.Error(c, code, response.CodeValidationError, "Request body too large", nil)
	case fiber.StatusBadRequest:
		return response.ValidationError(c, message, nil)
	}
	return response.Error(c, code, response.CodeServiceError, message, nil)
}
