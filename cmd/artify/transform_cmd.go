package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artify/api/internal/client"
	"github.com/artify/api/internal/gallery"
	"github.com/artify/api/internal/model"
)

func runVideo(ctx context.Context, e *env, args []string) int {
	fs := flag.NewFlagSet("artify video", flag.ContinueOnError)
	fs.SetOutput(e.stderr)

	var outDir string
	fs.StringVar(&outDir, "out", "", "Write the decoded clip to this directory")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	prompt := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if prompt == "" {
		fmt.Fprintln(e.stderr, "Error: prompt is required")
		return 2
	}

	fmt.Fprintln(e.stderr, "Generating video, this can take a few minutes while the model loads...")
	resp, err := e.functions.GenerateVideo(ctx, &model.VideoGenerateRequest{Prompt: prompt})
	if err != nil {
		fmt.Fprintf(e.stderr, "Error: %s\n", describeError(err))
		return 1
	}

	fmt.Fprintf(e.stdout, "Video generated %s\n", summarizeURL(resp.Video))
	if outDir != "" {
		name := downloadName(prompt, 0, 1, ".mp4")
		if err := writeAsset(outDir, name, resp.Video); err != nil {
			fmt.Fprintf(e.stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(e.stdout, "wrote %s\n", filepath.Join(outDir, name))
	}
	return 0
}

func runStyle(ctx context.Context, e *env, args []string) int {
	fs := flag.NewFlagSet("artify style", flag.ContinueOnError)
	fs.SetOutput(e.stderr)

	var style, customPrompt, outDir string
	fs.StringVar(&style, "style", "", "Style id, e.g. ghibli or van_gogh")
	fs.StringVar(&customPrompt, "prompt", "", "Custom instruction instead of the style preset")
	fs.StringVar(&outDir, "out", "", "Also write the result to this directory")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 || style == "" {
		fmt.Fprintln(e.stderr, "Usage: artify style -style ID [-prompt TEXT] [-out DIR] IMAGE")
		return 2
	}

	source, err := readImage(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return 2
	}

	cache, err := e.gallery(gallery.KeyStyledImages)
	if err != nil {
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return 1
	}

	resp, err := e.functions.StyleTransfer(ctx, &model.StyleTransferRequest{
		Image:        source,
		Style:        style,
		CustomPrompt: customPrompt,
	})
	if err != nil {
		fmt.Fprintf(e.stderr, "Error: %s\n", describeError(err))
		return 1
	}

	result := model.GenerationResult{
		ID:          uuid.NewString(),
		URL:         resp.StyledImage,
		Prompt:      customPrompt,
		Style:       resp.Style,
		OriginalURL: source,
		CreatedAt:   time.Now(),
	}
	cache.Prepend(ctx, result)
	fmt.Fprintf(e.stdout, "Style applied: %s\n%s  %s\n", resp.Style, result.ID, summarizeURL(result.URL))

	if outDir != "" {
		name := downloadName(resp.Style, 0, 1, ".png")
		if err := writeAsset(outDir, name, resp.StyledImage); err != nil {
			fmt.Fprintf(e.stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(e.stdout, "wrote %s\n", filepath.Join(outDir, name))
	}
	return 0
}

func runUpscale(ctx context.Context, e *env, args []string) int {
	fs := flag.NewFlagSet("artify upscale", flag.ContinueOnError)
	fs.SetOutput(e.stderr)

	var scale int
	var prompt, outDir string
	fs.IntVar(&scale, "scale", model.DefaultScale, "Enhancement factor")
	fs.StringVar(&prompt, "prompt", "", "Custom enhancement instruction")
	fs.StringVar(&outDir, "out", "", "Write the result to this directory")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(e.stderr, "Usage: artify upscale [-scale N] [-prompt TEXT] [-out DIR] IMAGE")
		return 2
	}

	source, err := readImage(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return 2
	}

	resp, err := e.functions.Upscale(ctx, &model.UpscaleRequest{Image: source, Scale: scale, Prompt: prompt})
	if err != nil {
		fmt.Fprintf(e.stderr, "Error: %s\n", describeError(err))
		return 1
	}

	fmt.Fprintf(e.stdout, "Image enhanced %dx %s\n", resp.Scale, summarizeURL(resp.UpscaledImage))
	if outDir != "" {
		name := downloadName(fmt.Sprintf("upscaled-%dx", resp.Scale), 0, 1, ".png")
		if err := writeAsset(outDir, name, resp.UpscaledImage); err != nil {
			fmt.Fprintf(e.stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(e.stdout, "wrote %s\n", filepath.Join(outDir, name))
	}
	return 0
}

// readImage loads a local file as a data URI. An argument that already is a
// data URI or an http(s) URL is passed through.
func readImage(arg string) (string, error) {
	if client.IsDataURI(arg) || strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return arg, nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mimeType, _, _ := strings.Cut(http.DetectContentType(data), ";")
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", arg, mimeType)
	}
	asset := &client.Asset{Data: data, MIMEType: mimeType}
	return asset.DataURI(), nil
}
