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

// GatewayClient talks to an OpenAI-compatible chat completions gateway that
// can answer with generated images (Gemini image preview models).
type GatewayClient struct {
	controller *inference.Controller
	baseURL    string
	apiKey     string
	model      string
	logger     zerolog.Logger
}

// ContentPart is one element of a multimodal message
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// ChatMessage content is either a string or a []ContentPart
type ChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ImageChatRequest is a chat completion asking for image output
type ImageChatRequest struct {
	Model      string        `json:"model"`
	Messages   []ChatMessage `json:"messages"`
	Modalities []string      `json:"modalities"`
}

// ImageChatResponse keeps only what image extraction needs
type ImageChatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Images  []struct {
				Type     string   `json:"type"`
				ImageURL ImageURL `json:"image_url"`
			} `json:"images"`
		} `json:"message"`
	} `json:"choices"`
}

// FirstImageURL returns choices[0].message.images[0].image_url.url.
func (r *ImageChatResponse) FirstImageURL() string {
	if len(r.Choices) == 0 || len(r.Choices[0].Message.Images) == 0 {
		return ""
	}
	return r.Choices[0].Message.Images[0].ImageURL.URL
}

// NewGatewayClient creates a new AI gateway client
func NewGatewayClient(cfg *config.GatewayConfig, controller *inference.Controller) *GatewayClient {
	return &GatewayClient{
		controller: controller,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     logging.WithComponent("gateway"),
	}
}

// GenerateImage sends text (and an optional source image) and returns the
// first image URL of the reply, usually a data URI. The gateway is called
// exactly once.
func (c *GatewayClient) GenerateImage(ctx context.Context, capability, text, imageURL string) (string, error) {
	msg := ChatMessage{Role: "user", Content: text}
	if imageURL != "" {
		msg.Content = []ContentPart{
			{Type: "text", Text: text},
			{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
		}
	}

	body, err := json.Marshal(ImageChatRequest{
		Model:      c.model,
		Messages:   []ChatMessage{msg},
		Modalities: []string{"image", "text"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	c.logger.Info().Str("capability", capability).Str("model", c.model).Bool("with_image", imageURL != "").Msg("calling gateway")

	out, err := c.controller.Once(ctx, inference.Request{
		Capability: capability,
		URL:        c.baseURL + "/chat/completions",
		Token:      c.apiKey,
		Body:       body,
		Expect:     inference.ExpectJSON,
	})
	if err != nil {
		return "", err
	}

	var chatResp ImageChatResponse
	if err := json.Unmarshal(out.Body, &chatResp); err != nil {
		c.logger.Error().Str("capability", capability).Str("body", string(out.Body)).Msg("unparseable gateway response")
		return "", &inference.UpstreamError{
			Capability: capability,
			Kind:       inference.ErrProtocol,
			StatusCode: out.StatusCode,
			Attempts:   1,
			Detail:     "failed to unmarshal response: " + err.Error(),
		}
	}

	url := chatResp.FirstImageURL()
	if url == "" {
		c.logger.Error().Str("capability", capability).Str("body", string(out.Body)).Msg("no image in gateway response")
		return "", &inference.UpstreamError{
			Capability: capability,
			Kind:       inference.ErrProtocol,
			StatusCode: out.StatusCode,
			Attempts:   1,
			Detail:     "no image in response",
		}
	}

	return url, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *GatewayClient) IsConfigured() bool {
	return c.apiKey != ""
}
