package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/artify/api/internal/gallery"
)

func runGallery(ctx context.Context, e *env, args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printGalleryUsage(e.stdout)
		return 0
	}

	fs := flag.NewFlagSet("artify gallery "+args[0], flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	var styled bool
	fs.BoolVar(&styled, "styled", false, "Use the style transfer gallery")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	key := gallery.KeyGeneratedImages
	if styled {
		key = gallery.KeyStyledImages
	}
	cache, err := e.gallery(key)
	if err != nil {
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return 1
	}

	switch args[0] {
	case "list":
		return galleryList(ctx, e.stdout, cache)
	case "delete":
		if fs.NArg() != 1 {
			fmt.Fprintln(e.stderr, "Usage: artify gallery delete [-styled] ID")
			return 2
		}
		if !cache.Delete(ctx, fs.Arg(0)) {
			fmt.Fprintf(e.stderr, "Error: no result with id %s\n", fs.Arg(0))
			return 1
		}
		fmt.Fprintln(e.stdout, "Image removed from gallery")
		return 0
	case "clear":
		if err := cache.Clear(ctx); err != nil {
			fmt.Fprintf(e.stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintln(e.stdout, "All images removed from gallery")
		return 0
	default:
		fmt.Fprintf(e.stderr, "Unknown subcommand: %s\n\n", args[0])
		printGalleryUsage(e.stderr)
		return 2
	}
}

func galleryList(ctx context.Context, w io.Writer, cache *gallery.Cache) int {
	results := cache.Load(ctx)
	if len(results) == 0 {
		fmt.Fprintln(w, "Gallery is empty")
		return 0
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tMODEL/STYLE\tPROMPT\tASSET")
	for _, r := range results {
		label := r.Model
		if r.Style != "" {
			label = r.Style
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.CreatedAt.Local().Format(time.DateTime), label, r.Prompt, summarizeURL(r.URL))
	}
	_ = tw.Flush()
	return 0
}

func printGalleryUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  artify gallery list|delete|clear [-styled] [ID]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Flags:")
	_, _ = fmt.Fprintln(w, "  -styled   Use the style transfer gallery instead of generated images")
}
