package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/artify/api/internal/logging"
	"github.com/artify/api/internal/metrics"
	"github.com/artify/api/internal/model"
)

// UpscaleService handles AI image enhancement
type UpscaleService struct {
	backend ChatImageBackend
	logger  zerolog.Logger
}

// NewUpscaleService creates a new upscale service
func NewUpscaleService(backend ChatImageBackend) *UpscaleService {
	return &UpscaleService{
		backend: backend,
		logger:  logging.WithComponent("upscale"),
	}
}

// Upscale enhances a data URI image. The format is checked before any
// network call is made.
func (s *UpscaleService) Upscale(ctx context.Context, req *model.UpscaleRequest) (*model.UpscaleResponse, error) {
	image := strings.TrimSpace(req.Image)
	if image == "" {
		return nil, invalid("image", "Image is required")
	}
	if err := checkSourceImage("image", image, nil); err != nil {
		return nil, err
	}
	if s.backend == nil || !s.backend.IsConfigured() {
		return nil, &ConfigError{Provider: "AI gateway"}
	}

	scale := req.Scale
	if scale == 0 {
		scale = model.DefaultScale
	}

	s.logger.Info().Int("scale", scale).Msg("starting image enhancement")

	url, err := s.backend.GenerateImage(ctx, string(model.CapabilityUpscale), UpscalePrompt(scale, req.Prompt), image)
	if err != nil {
		metrics.Generations.WithLabelValues(string(model.CapabilityUpscale), "error").Inc()
		return nil, fmt.Errorf("image enhancement: %w", err)
	}

	metrics.Generations.WithLabelValues(string(model.CapabilityUpscale), "ok").Inc()
	return &model.UpscaleResponse{
		UpscaledImage: url,
		Scale:         scale,
	}, nil
}

// UpscalePrompt returns prompt when set, otherwise the default enhancement instruction for scale.
func UpscalePrompt(scale int, prompt string) string {
	if p := strings.TrimSpace(prompt); p != "" {
		return p
	}
	return fmt.Sprintf("Enhance this image to be %dx higher resolution. Make it high-resolution, sharp, and detailed while maintaining the original composition, colors, and style. Improve clarity and remove any artifacts.", scale)
}
