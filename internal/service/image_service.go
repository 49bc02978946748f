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

// ImageBackend renders a prompt into image bytes (Hugging Face router).
type ImageBackend interface {
	IsConfigured() bool
	GenerateImage(ctx context.Context, prompt string) (*client.Asset, error)
}

// ChatImageBackend produces an image URL from text and an optional source image (AI gateway).
type ChatImageBackend interface {
	IsConfigured() bool
	GenerateImage(ctx context.Context, capability, text, imageURL string) (string, error)
}

const geminiPromptPrefix = "Generate a high-quality, detailed image based on this description: "

// ImageService handles text-to-image requests
type ImageService struct {
	flux      ImageBackend
	gemini    ChatImageBackend
	publisher *Publisher
	logger    zerolog.Logger
}

// NewImageService creates a new image service
func NewImageService(flux ImageBackend, gemini ChatImageBackend, publisher *Publisher) *ImageService {
	return &ImageService{
		flux:      flux,
		gemini:    gemini,
		publisher: publisher,
		logger:    logging.WithComponent("image"),
	}
}

// Generate creates one image. The response echoes the trimmed prompt as sent
// by the caller, without the negative prompt.
func (s *ImageService) Generate(ctx context.Context, req *model.ImageGenerateRequest) (*model.ImageGenerateResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, invalid("prompt", "Prompt is required")
	}

	m := req.Model
	if m == "" {
		m = model.ImageModelFlux
	}
	size := req.Size
	if size == "" {
		size = model.DefaultSize
	}
	quality := req.Quality
	if quality == "" {
		quality = model.DefaultQuality
	}

	s.logger.Info().
		Str("model", string(m)).
		Str("size", size).
		Str("quality", quality).
		Str("style", req.Style).
		Int("prompt_len", len(prompt)).
		Msg("generating image")

	var (
		url string
		err error
	)
	if m == model.ImageModelGemini {
		url, err = s.generateWithGemini(ctx, prompt)
	} else {
		url, err = s.generateWithFlux(ctx, prompt, strings.TrimSpace(req.NegativePrompt))
	}
	if err != nil {
		metrics.Generations.WithLabelValues(string(model.CapabilityImage), "error").Inc()
		return nil, err
	}

	metrics.Generations.WithLabelValues(string(model.CapabilityImage), "ok").Inc()
	return &model.ImageGenerateResponse{
		ImageURL: url,
		Model:    m.Label(),
		Prompt:   prompt,
	}, nil
}

func (s *ImageService) generateWithGemini(ctx context.Context, prompt string) (string, error) {
	if s.gemini == nil || !s.gemini.IsConfigured() {
		return "", &ConfigError{Provider: "AI gateway"}
	}
	url, err := s.gemini.GenerateImage(ctx, string(model.CapabilityImage), geminiPromptPrefix+prompt, "")
	if err != nil {
		return "", fmt.Errorf("gemini image generation: %w", err)
	}
	return url, nil
}

func (s *ImageService) generateWithFlux(ctx context.Context, prompt, negative string) (string, error) {
	if s.flux == nil || !s.flux.IsConfigured() {
		return "", &ConfigError{Provider: "Hugging Face"}
	}

	fullPrompt := prompt
	if negative != "" {
		fullPrompt = prompt + ", avoiding: " + negative
	}

	asset, err := s.flux.GenerateImage(ctx, fullPrompt)
	if err != nil {
		return "", fmt.Errorf("flux image generation: %w", err)
	}
	return s.publisher.Publish(ctx, string(model.CapabilityImage), asset), nil
}
