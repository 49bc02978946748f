package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/artify/api/internal/config"
	"github.com/artify/api/internal/model"
)

// FunctionsClient calls a running function server, the same way the web
// client does.
type FunctionsClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// FunctionError is a non-2xx answer from a function endpoint.
type FunctionError struct {
	Status  int
	Code    string
	Message string
}

func (e *FunctionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("function error (status %d, %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("function error (status %d): %s", e.Status, e.Message)
}

// NewFunctionsClient creates a new function server client
func NewFunctionsClient(cfg *config.ClientConfig) *FunctionsClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &FunctionsClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.FunctionsURL,
		apiKey:     cfg.APIKey,
	}
}

// GenerateImage calls POST /generate-image
func (c *FunctionsClient) GenerateImage(ctx context.Context, req *model.ImageGenerateRequest) (*model.ImageGenerateResponse, error) {
	var out model.ImageGenerateResponse
	if err := c.post(ctx, "/generate-image", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateVideo calls POST /generate-video
func (c *FunctionsClient) GenerateVideo(ctx context.Context, req *model.VideoGenerateRequest) (*model.VideoGenerateResponse, error) {
	var out model.VideoGenerateResponse
	if err := c.post(ctx, "/generate-video", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StyleTransfer calls POST /style-transfer
func (c *FunctionsClient) StyleTransfer(ctx context.Context, req *model.StyleTransferRequest) (*model.StyleTransferResponse, error) {
	var out model.StyleTransferResponse
	if err := c.post(ctx, "/style-transfer", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upscale calls POST /upscale-image
func (c *FunctionsClient) Upscale(ctx context.Context, req *model.UpscaleRequest) (*model.UpscaleResponse, error) {
	var out model.UpscaleResponse
	if err := c.post(ctx, "/upscale-image", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *FunctionsClient) post(ctx context.Context, path string, in, out any) error {
	bodyBytes, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fe := &FunctionError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var env struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(respBody, &env) == nil && env.Error != "" {
			fe.Message = env.Error
			fe.Code = env.Code
		}
		return fe
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
