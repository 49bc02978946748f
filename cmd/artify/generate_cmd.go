package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/artify/api/internal/batch"
	"github.com/artify/api/internal/client"
	"github.com/artify/api/internal/gallery"
	"github.com/artify/api/internal/model"
)

func runGenerate(ctx context.Context, e *env, args []string) int {
	fs := flag.NewFlagSet("artify generate", flag.ContinueOnError)
	fs.SetOutput(e.stderr)

	var req batch.Request
	var modelName, outDir string

	fs.IntVar(&req.Count, "n", 1, "Number of variations (1-4)")
	fs.StringVar(&modelName, "model", string(model.ImageModelFlux), "Image model: flux or gemini")
	fs.StringVar(&req.Size, "size", model.DefaultSize, "Size hint")
	fs.StringVar(&req.Quality, "quality", model.DefaultQuality, "Quality hint")
	fs.StringVar(&req.Style, "style", "", "Style hint")
	fs.StringVar(&req.NegativePrompt, "negative", "", "Things the image should avoid")
	fs.StringVar(&outDir, "out", "", "Also write decoded images to this directory")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	req.Prompt = strings.Join(fs.Args(), " ")
	req.Model = model.ImageModel(modelName)

	cache, err := e.gallery(gallery.KeyGeneratedImages)
	if err != nil {
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return 1
	}

	orchestrator := batch.New(e.functions)
	report, err := orchestrator.Run(ctx, req, func(s batch.State) {
		fmt.Fprintf(e.stderr, "  %d/%d done, %d remaining\n", s.Completed, s.Requested, s.Remaining())
	})
	if err != nil && report == nil {
		if errors.Is(err, batch.ErrEmptyPrompt) || errors.Is(err, batch.ErrInvalidCount) {
			fmt.Fprintf(e.stderr, "Error: %v\n", err)
			return 2
		}
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return 1
	}
	if err != nil {
		fmt.Fprintf(e.stderr, "Interrupted: %v\n", err)
	}

	for _, ferr := range report.Errors {
		fmt.Fprintf(e.stderr, "  %s\n", describeError(ferr))
	}
	fmt.Fprintln(e.stdout, report.Message)
	if report.Status == batch.StatusFailed {
		return 1
	}

	// finished variations are kept even when the batch was interrupted
	cache.Prepend(context.WithoutCancel(ctx), report.Results...)
	for _, r := range report.Results {
		fmt.Fprintf(e.stdout, "%s  %s\n", r.ID, summarizeURL(r.URL))
	}

	if outDir != "" {
		for i, r := range report.Results {
			name := downloadName(r.Prompt, i, len(report.Results), ".png")
			if err := writeAsset(outDir, name, r.URL); err != nil {
				fmt.Fprintf(e.stderr, "Error: %v\n", err)
				return 1
			}
			fmt.Fprintf(e.stdout, "wrote %s\n", filepath.Join(outDir, name))
		}
	}
	if err != nil {
		return 1
	}
	return 0
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9]`)

// downloadName is artify-{first 30 chars of prompt, non-alphanumerics
// dashed}{ext}, numbered when a batch has several images.
func downloadName(prompt string, i, total int, ext string) string {
	slug := prompt
	if len(slug) > 30 {
		slug = slug[:30]
	}
	slug = unsafeName.ReplaceAllString(slug, "-")
	if total > 1 {
		return fmt.Sprintf("artify-%s-%d%s", slug, i+1, ext)
	}
	return "artify-" + slug + ext
}

// writeAsset decodes a data URI into dir/name. Remote URLs are left alone.
func writeAsset(dir, name, url string) error {
	if !client.IsDataURI(url) {
		return fmt.Errorf("%s is a remote URL, download it from %s", name, url)
	}
	asset, err := client.DecodeDataURI(url)
	if err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), asset.Data, 0o644)
}

func summarizeURL(url string) string {
	if mimeType, payload, err := client.ParseDataURI(url); err == nil {
		return fmt.Sprintf("[%s, %d base64 bytes]", mimeType, len(payload))
	}
	return url
}

func describeError(err error) string {
	var fe *client.FunctionError
	if errors.As(err, &fe) {
		return fmt.Sprintf("failed: %s (%d)", fe.Message, fe.Status)
	}
	return "failed: " + err.Error()
}
