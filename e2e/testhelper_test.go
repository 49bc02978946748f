package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/artify/api/internal/auth"
	"github.com/artify/api/internal/client"
	"github.com/artify/api/internal/config"
	"github.com/artify/api/internal/inference"
	"github.com/artify/api/internal/logging"
	"github.com/artify/api/internal/server"
	"github.com/artify/api/internal/service"
)

const testJWTSecret = "test-secret-for-e2e"

// upstream is a fake model host that counts its calls.
type upstream struct {
	srv   *httptest.Server
	calls atomic.Int32
}

func newUpstream(t *testing.T, h http.HandlerFunc) *upstream {
	t.Helper()
	u := &upstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(u.srv.Close)
	return u
}

// testOptions controls which upstreams are configured. A nil handler leaves
// that provider without credentials.
type testOptions struct {
	hf      http.HandlerFunc
	gateway http.HandlerFunc
	auth    bool
	limits  config.RateLimitConfig
}

// testApp holds all components needed for testing
type testApp struct {
	app     *fiber.App
	hf      *upstream
	gateway *upstream
	delays  []time.Duration
}

// setupApp creates the app the way main.go does, pointed at fake upstreams
// and with backoff waits recorded instead of slept.
func setupApp(t *testing.T, opts testOptions) *testApp {
	t.Helper()
	ta := &testApp{}

	cfg := &config.Config{
		Server: config.ServerConfig{BodyLimitMB: 50},
		HuggingFace: config.HuggingFaceConfig{
			ImageModel: "black-forest-labs/FLUX.1-schnell",
			VideoModel: "ali-vilab/text-to-video-ms-1.7b",
		},
		Gateway:   config.GatewayConfig{Model: "google/gemini-2.5-flash-image-preview"},
		RateLimit: opts.limits,
	}
	if opts.hf != nil {
		ta.hf = newUpstream(t, opts.hf)
		cfg.HuggingFace.Token = "hf_test"
		cfg.HuggingFace.BaseURL = ta.hf.srv.URL + "/models"
	}
	if opts.gateway != nil {
		ta.gateway = newUpstream(t, opts.gateway)
		cfg.Gateway.APIKey = "gw_test"
		cfg.Gateway.BaseURL = ta.gateway.srv.URL + "/v1"
	}
	var verifier auth.Verifier
	if opts.auth {
		verifier = auth.NewHMACVerifier(testJWTSecret)
	}

	sleeper := func(ctx context.Context, d time.Duration) error {
		ta.delays = append(ta.delays, d)
		return ctx.Err()
	}
	controller := inference.NewController(
		inference.NewHTTPCaller(nil),
		inference.DefaultPolicy(),
		inference.WithSleeper(sleeper),
		inference.WithLogger(logging.Nop()),
	)

	hfClient := client.NewHuggingFaceClient(&cfg.HuggingFace, controller)
	gatewayClient := client.NewGatewayClient(&cfg.Gateway, controller)
	publisher := service.NewPublisher(nil)

	ta.app = server.NewApp(server.Deps{
		Config:   cfg,
		Images:   service.NewImageService(hfClient, gatewayClient, publisher),
		Videos:   service.NewVideoService(hfClient, publisher),
		Styles:   service.NewStyleService(gatewayClient),
		Upscaler: service.NewUpscaleService(gatewayClient),
		Logger:   logging.Nop(),
		Verifier: verifier,
		Services: map[string]bool{
			"huggingface": hfClient.IsConfigured(),
			"gateway":     gatewayClient.IsConfigured(),
		},
	})
	return ta
}

func (ta *testApp) hfCalls() int {
	if ta.hf == nil {
		return 0
	}
	return int(ta.hf.calls.Load())
}

func (ta *testApp) gatewayCalls() int {
	if ta.gateway == nil {
		return 0
	}
	return int(ta.gateway.calls.Load())
}

// generateToken creates a user token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	signed, err := auth.SignToken("test-user-123", "authenticated", testJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// post sends a JSON body to one of the functions.
func post(t *testing.T, app *fiber.App, fn, body string) *http.Response {
	t.Helper()
	resp, err := doRequest(app, http.MethodPost, server.FunctionsPrefix+"/"+fn, body, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// assertError checks the flat error envelope.
func assertError(t *testing.T, body map[string]interface{}, code, message string) {
	t.Helper()
	if body["code"] != code {
		t.Errorf("expected error code %s, got %v", code, body["code"])
	}
	if message != "" && body["error"] != message {
		t.Errorf("expected error %q, got %v", message, body["error"])
	}
}

// assertCORS checks the headers every function response carries.
func assertCORS(t *testing.T, resp *http.Response) {
	t.Helper()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected Access-Control-Allow-Origin *, got %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Headers"); got != "authorization, x-client-info, apikey, content-type" {
		t.Errorf("unexpected Access-Control-Allow-Headers %q", got)
	}
}

// Upstream handlers

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake-image")

func serveBinary(contentType string, data []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	}
}

func serveStatus(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// sequence serves handlers in order, repeating the last one.
func sequence(handlers ...http.HandlerFunc) http.HandlerFunc {
	var n atomic.Int32
	return func(w http.ResponseWriter, r *http.Request) {
		i := int(n.Add(1)) - 1
		if i >= len(handlers) {
			i = len(handlers) - 1
		}
		handlers[i](w, r)
	}
}

// chatImage answers like the gateway with one image.
func chatImage(url string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{
				"message": map[string]any{
					"role":    "assistant",
					"content": "Here is your image",
					"images": []any{map[string]any{
						"type":      "image_url",
						"image_url": map[string]any{"url": url},
					}},
				},
			}},
		})
	}
}

// recordJSON decodes each request body into dst before calling next.
func recordJSON(dst *map[string]any, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(dst)
		next(w, r)
	}
}
