// Command artify drives a running function server from the terminal and
// keeps a local gallery of the results.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/artify/api/internal/client"
	"github.com/artify/api/internal/config"
	"github.com/artify/api/internal/gallery"
	"github.com/artify/api/internal/logging"
)

// env is what every subcommand needs.
type env struct {
	cfg       *config.Config
	functions *client.FunctionsClient
	stdout    io.Writer
	stderr    io.Writer
	backend   gallery.Backend
	closeFn   func()
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(os.Stdout)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		return 1
	}
	logging.Configure(logging.Config{
		Level:   cfg.Server.LogLevel,
		Env:     "development",
		Service: "artify-cli",
		Output:  os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := &env{
		cfg:       cfg,
		functions: client.NewFunctionsClient(&cfg.Client),
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
	defer e.close()

	switch args[0] {
	case "generate":
		return runGenerate(ctx, e, args[1:])
	case "video":
		return runVideo(ctx, e, args[1:])
	case "style":
		return runStyle(ctx, e, args[1:])
	case "upscale":
		return runUpscale(ctx, e, args[1:])
	case "gallery":
		return runGallery(ctx, e, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printUsage(os.Stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  artify <command> [flags]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Commands:")
	_, _ = fmt.Fprintln(w, "  generate   Generate 1-4 image variations for a prompt")
	_, _ = fmt.Fprintln(w, "  video      Generate a short video clip")
	_, _ = fmt.Fprintln(w, "  style      Restyle a local image")
	_, _ = fmt.Fprintln(w, "  upscale    Enhance a local image")
	_, _ = fmt.Fprintln(w, "  gallery    List, delete or clear saved results")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "The function server is read from ARTIFY_FUNCTIONS_URL and ARTIFY_API_KEY.")
}

// gallery opens the result cache stored under key, using the configured backend.
func (e *env) gallery(key string) (*gallery.Cache, error) {
	if e.backend == nil {
		b, closeFn, err := openBackend(&e.cfg.Gallery, &e.cfg.Redis)
		if err != nil {
			return nil, err
		}
		e.backend = b
		e.closeFn = closeFn
	}
	return gallery.NewCache(e.backend, key,
		gallery.WithCapacity(e.cfg.Gallery.Capacity),
		gallery.WithFallback(e.cfg.Gallery.Fallback),
	), nil
}

func (e *env) close() {
	if e.closeFn != nil {
		e.closeFn()
	}
}

func openBackend(cfg *config.GalleryConfig, redisCfg *config.RedisConfig) (gallery.Backend, func(), error) {
	switch cfg.Backend {
	case "", "file":
		b, err := gallery.NewFileBackend(cfg.Dir, cfg.MaxBytes)
		if err != nil {
			return nil, nil, err
		}
		return b, func() {}, nil
	case "memory":
		return gallery.NewMemoryBackend(cfg.MaxBytes), func() {}, nil
	case "redis":
		if redisCfg.Addr == "" {
			return nil, nil, fmt.Errorf("gallery backend redis needs REDIS_ADDR")
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		return gallery.NewRedisBackend(rdb, "artify:gallery:", cfg.MaxBytes), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown gallery backend %q", cfg.Backend)
	}
}
