package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/artify/api/internal/config"
	"github.com/artify/api/internal/inference"
	"github.com/artify/api/internal/logging"
)

// HuggingFaceClient calls text-to-image and text-to-video models on the
// Hugging Face inference router. Cold models answer 503 or a "loading" body
// until they are up, so every call goes through the retry controller.
type HuggingFaceClient struct {
	controller *inference.Controller
	baseURL    string
	token      string
	imageModel string
	videoModel string
	logger     zerolog.Logger
}

type inferenceInput struct {
	Inputs string `json:"inputs"`
}

// NewHuggingFaceClient creates a new Hugging Face router client
func NewHuggingFaceClient(cfg *config.HuggingFaceConfig, controller *inference.Controller) *HuggingFaceClient {
	return &HuggingFaceClient{
		controller: controller,
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		imageModel: cfg.ImageModel,
		videoModel: cfg.VideoModel,
		logger:     logging.WithComponent("huggingface"),
	}
}

// GenerateImage renders prompt with the configured image model.
func (c *HuggingFaceClient) GenerateImage(ctx context.Context, prompt string) (*Asset, error) {
	return c.generate(ctx, inference.Request{
		Capability: "image",
		URL:        c.modelURL(c.imageModel),
		Accept:     "image/png",
		Expect:     inference.ExpectImage,
	}, prompt)
}

// GenerateVideo renders prompt with the configured video model.
func (c *HuggingFaceClient) GenerateVideo(ctx context.Context, prompt string) (*Asset, error) {
	return c.generate(ctx, inference.Request{
		Capability: "video",
		URL:        c.modelURL(c.videoModel),
		Accept:     "video/mp4",
		Expect:     inference.ExpectVideo,
	}, prompt)
}

func (c *HuggingFaceClient) generate(ctx context.Context, req inference.Request, prompt string) (*Asset, error) {
	body, err := json.Marshal(inferenceInput{Inputs: prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req.Body = body
	req.Token = c.token

	c.logger.Info().Str("capability", req.Capability).Str("url", req.URL).Msg("calling model")

	out, err := c.controller.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("capability", req.Capability).
		Str("mime", out.MIMEType).
		Int("bytes", len(out.Body)).
		Msg("model returned asset")

	return &Asset{Data: out.Body, MIMEType: out.MIMEType}, nil
}

func (c *HuggingFaceClient) modelURL(model string) string {
	return c.baseURL + "/" + model
}

// IsConfigured returns true if the client has valid configuration
func (c *HuggingFaceClient) IsConfigured() bool {
	return c.token != ""
}
