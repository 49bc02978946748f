package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/artify/api/internal/client"
	"github.com/artify/api/internal/logging"
	"github.com/artify/api/internal/metrics"
	"github.com/artify/api/internal/model"
)

// VideoBackend renders a prompt into a short clip
type VideoBackend interface {
	IsConfigured() bool
	GenerateVideo(ctx context.Context, prompt string) (*client.Asset, error)
}

// VideoService handles text-to-video requests
type VideoService struct {
	backend   VideoBackend
	publisher *Publisher
	logger    zerolog.Logger
}

// NewVideoService creates a new video service
func NewVideoService(backend VideoBackend, publisher *Publisher) *VideoService {
	return &VideoService{
		backend:   backend,
		publisher: publisher,
		logger:    logging.WithComponent("video"),
	}
}

// Generate creates one video clip
func (s *VideoService) Generate(ctx context.Context, req *model.VideoGenerateRequest) (*model.VideoGenerateResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, invalid("prompt", "Prompt is required")
	}
	if s.backend == nil || !s.backend.IsConfigured() {
		return nil, &ConfigError{Provider: "Hugging Face"}
	}

	s.logger.Info().Int("prompt_len", len(prompt)).Msg("generating video")

	asset, err := s.backend.GenerateVideo(ctx, prompt)
	if err != nil {
		metrics.Generations.WithLabelValues(string(model.CapabilityVideo), "error").Inc()
		return nil, fmt.Errorf("video generation: %w", err)
	}

	metrics.Generations.WithLabelValues(string(model.CapabilityVideo), "ok").Inc()
	return &model.VideoGenerateResponse{
		Video: s.publisher.Publish(ctx, string(model.CapabilityVideo), asset),
	}, nil
}
