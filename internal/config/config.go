package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	filePath := os.Getenv(envKey + "_FILE")
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	os.Setenv(envKey, strings.TrimSpace(string(data)))
}

type Config struct {
	Server      ServerConfig
	HuggingFace HuggingFaceConfig
	Gateway     GatewayConfig
	Retry       RetryConfig
	Redis       RedisConfig
	RateLimit   RateLimitConfig
	Auth        AuthConfig
	R2          R2Config
	Gallery     GalleryConfig
	Client      ClientConfig
}

type ServerConfig struct {
	Port            string
	Env             string
	LogLevel        string
	BodyLimitMB     int
	ShutdownTimeout time.Duration
}

type HuggingFaceConfig struct {
	Token      string
	BaseURL    string
	ImageModel string
	VideoModel string
	Timeout    time.Duration
}

type GatewayConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// RetryConfig tunes the backoff used against cold-starting models.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

type RedisConfig struct {
	Addr     string // empty disables Redis
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled       bool
	ImagePerMin   int
	VideoPerHour  int
	StylePerMin   int
	UpscalePerMin int
}

// AuthConfig enables bearer auth when either the secret or the JWKS URL is set.
type AuthConfig struct {
	JWTSecret string
	JWKSURL   string
	Issuer    string
}

// Enabled reports whether function calls need a bearer token.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" || a.JWKSURL != ""
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
	Endpoint        string // overrides the account endpoint
}

type GalleryConfig struct {
	Backend  string // file, redis or memory
	Dir      string
	MaxBytes int
	Capacity int
	Fallback int
}

// ClientConfig is used by the CLI to reach a running function server.
type ClientConfig struct {
	FunctionsURL string
	APIKey       string
	Timeout      time.Duration
}

func Load() (*Config, error) {
	// .env is optional; real env vars win
	_ = godotenv.Load()

	// Docker Swarm secrets from _FILE env vars, before Viper binds
	readSecret("HUGGING_FACE_ACCESS_TOKEN")
	readSecret("LOVABLE_API_KEY")
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")
	readSecret("ARTIFY_API_KEY")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()

	// Bind environment variables to nested config keys
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("server.body_limit_mb", "BODY_LIMIT_MB")
	_ = v.BindEnv("server.shutdown_timeout", "SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("huggingface.token", "HUGGING_FACE_ACCESS_TOKEN")
	_ = v.BindEnv("huggingface.base_url", "HUGGING_FACE_BASE_URL")
	_ = v.BindEnv("huggingface.image_model", "HUGGING_FACE_IMAGE_MODEL")
	_ = v.BindEnv("huggingface.video_model", "HUGGING_FACE_VIDEO_MODEL")
	_ = v.BindEnv("huggingface.timeout", "HUGGING_FACE_TIMEOUT")
	_ = v.BindEnv("gateway.api_key", "LOVABLE_API_KEY")
	_ = v.BindEnv("gateway.base_url", "GATEWAY_BASE_URL")
	_ = v.BindEnv("gateway.model", "GATEWAY_MODEL")
	_ = v.BindEnv("gateway.timeout", "GATEWAY_TIMEOUT")
	_ = v.BindEnv("retry.max_attempts", "RETRY_MAX_ATTEMPTS")
	_ = v.BindEnv("retry.base_delay", "RETRY_BASE_DELAY")
	_ = v.BindEnv("retry.max_delay", "RETRY_MAX_DELAY")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("ratelimit.enabled", "RATELIMIT_ENABLED")
	_ = v.BindEnv("ratelimit.image_per_min", "RATELIMIT_IMAGE_PER_MIN")
	_ = v.BindEnv("ratelimit.video_per_hour", "RATELIMIT_VIDEO_PER_HOUR")
	_ = v.BindEnv("ratelimit.style_per_min", "RATELIMIT_STYLE_PER_MIN")
	_ = v.BindEnv("ratelimit.upscale_per_min", "RATELIMIT_UPSCALE_PER_MIN")
	_ = v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("auth.jwks_url", "SUPABASE_JWKS_URL")
	_ = v.BindEnv("auth.issuer", "JWT_ISSUER")
	_ = v.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = v.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = v.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = v.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = v.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = v.BindEnv("r2.endpoint", "R2_ENDPOINT")
	_ = v.BindEnv("gallery.backend", "GALLERY_BACKEND")
	_ = v.BindEnv("gallery.dir", "GALLERY_DIR")
	_ = v.BindEnv("gallery.max_bytes", "GALLERY_MAX_BYTES")
	_ = v.BindEnv("client.functions_url", "ARTIFY_FUNCTIONS_URL")
	_ = v.BindEnv("client.api_key", "ARTIFY_API_KEY")
	_ = v.BindEnv("client.timeout", "ARTIFY_TIMEOUT")

	// Defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.body_limit_mb", 50)
	v.SetDefault("server.shutdown_timeout", "10s")

	// Hugging Face router defaults
	v.SetDefault("huggingface.base_url", "https://router.huggingface.co/hf-inference/models")
	v.SetDefault("huggingface.image_model", "black-forest-labs/FLUX.1-schnell")
	v.SetDefault("huggingface.video_model", "ali-vilab/text-to-video-ms-1.7b")
	v.SetDefault("huggingface.timeout", "120s")

	// AI gateway defaults
	v.SetDefault("gateway.base_url", "https://ai.gateway.lovable.dev/v1")
	v.SetDefault("gateway.model", "google/gemini-2.5-flash-image-preview")
	v.SetDefault("gateway.timeout", "120s")

	v.SetDefault("retry.max_attempts", 8)
	v.SetDefault("retry.base_delay", "1s")
	v.SetDefault("retry.max_delay", "8s")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.image_per_min", 20)
	v.SetDefault("ratelimit.video_per_hour", 10)
	v.SetDefault("ratelimit.style_per_min", 10)
	v.SetDefault("ratelimit.upscale_per_min", 10)

	v.SetDefault("gallery.backend", "file")
	v.SetDefault("gallery.dir", ".artify")
	v.SetDefault("gallery.max_bytes", 5*1024*1024)
	v.SetDefault("gallery.capacity", 10)
	v.SetDefault("gallery.fallback", 3)

	v.SetDefault("client.functions_url", "http://localhost:8000/functions/v1")
	v.SetDefault("client.timeout", "5m")

	// Try to read config file (optional)
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("server.port"),
			Env:             v.GetString("server.env"),
			LogLevel:        v.GetString("server.log_level"),
			BodyLimitMB:     v.GetInt("server.body_limit_mb"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		HuggingFace: HuggingFaceConfig{
			Token:      v.GetString("huggingface.token"),
			BaseURL:    strings.TrimRight(v.GetString("huggingface.base_url"), "/"),
			ImageModel: v.GetString("huggingface.image_model"),
			VideoModel: v.GetString("huggingface.video_model"),
			Timeout:    v.GetDuration("huggingface.timeout"),
		},
		Gateway: GatewayConfig{
			APIKey:  v.GetString("gateway.api_key"),
			BaseURL: strings.TrimRight(v.GetString("gateway.base_url"), "/"),
			Model:   v.GetString("gateway.model"),
			Timeout: v.GetDuration("gateway.timeout"),
		},
		Retry: RetryConfig{
			MaxAttempts: v.GetInt("retry.max_attempts"),
			BaseDelay:   v.GetDuration("retry.base_delay"),
			MaxDelay:    v.GetDuration("retry.max_delay"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("ratelimit.enabled"),
			ImagePerMin:   v.GetInt("ratelimit.image_per_min"),
			VideoPerHour:  v.GetInt("ratelimit.video_per_hour"),
			StylePerMin:   v.GetInt("ratelimit.style_per_min"),
			UpscalePerMin: v.GetInt("ratelimit.upscale_per_min"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			JWKSURL:   v.GetString("auth.jwks_url"),
			Issuer:    v.GetString("auth.issuer"),
		},
		R2: R2Config{
			AccountID:       v.GetString("r2.account_id"),
			AccessKeyID:     v.GetString("r2.access_key_id"),
			SecretAccessKey: v.GetString("r2.secret_access_key"),
			BucketName:      v.GetString("r2.bucket_name"),
			PublicURL:       strings.TrimRight(v.GetString("r2.public_url"), "/"),
			Endpoint:        v.GetString("r2.endpoint"),
		},
		Gallery: GalleryConfig{
			Backend:  strings.ToLower(v.GetString("gallery.backend")),
			Dir:      v.GetString("gallery.dir"),
			MaxBytes: v.GetInt("gallery.max_bytes"),
			Capacity: v.GetInt("gallery.capacity"),
			Fallback: v.GetInt("gallery.fallback"),
		},
		Client: ClientConfig{
			FunctionsURL: strings.TrimRight(v.GetString("client.functions_url"), "/"),
			APIKey:       v.GetString("client.api_key"),
			Timeout:      v.GetDuration("client.timeout"),
		},
	}

	return cfg, nil
}

// R2Enabled reports whether asset offload has enough configuration to run.
func (c *Config) R2Enabled() bool {
	return c.R2.AccessKeyID != "" && c.R2.SecretAccessKey != "" && c.R2.BucketName != "" &&
		(c.R2.AccountID != "" || c.R2.Endpoint != "")
}
