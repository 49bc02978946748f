package inference

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Request describes one provider call. It is built once per proxy request and
// replayed unchanged on every attempt.
type Request struct {
	Capability string // "image", "video", "style", "upscale" (metrics and logs)
	URL        string
	Token      string
	Accept     string
	Body       []byte
	Expect     Expect
}

// Caller performs exactly one HTTP call and never retries.
type Caller interface {
	Call(ctx context.Context, req Request) Attempt
}

// maxResponseBytes caps what is buffered from a single response.
const maxResponseBytes = 128 << 20

// ErrResponseTooLarge is set on an Attempt whose body exceeds the buffer cap.
var ErrResponseTooLarge = errors.New("upstream response too large")

// HTTPCaller is the net/http implementation of Caller.
type HTTPCaller struct {
	httpClient *http.Client
	maxBytes   int64
}

// NewHTTPCaller wraps httpClient; nil gets a client with a 120s timeout.
func NewHTTPCaller(httpClient *http.Client) *HTTPCaller {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &HTTPCaller{httpClient: httpClient, maxBytes: maxResponseBytes}
}

func (c *HTTPCaller) Call(ctx context.Context, req Request) Attempt {
	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return Attempt{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Attempt{Err: fmt.Errorf("failed to send request: %w", err), Elapsed: time.Since(start)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return Attempt{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to read response: %w", err),
			Elapsed:    time.Since(start),
		}
	}
	if int64(len(body)) > c.maxBytes {
		return Attempt{
			StatusCode:  resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Err:         fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, c.maxBytes),
			Elapsed:     time.Since(start),
		}
	}

	return Attempt{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		Elapsed:     time.Since(start),
	}
}
