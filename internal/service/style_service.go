package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/artify/api/internal/logging"
	"github.com/artify/api/internal/metrics"
	"github.com/artify/api/internal/model"
)

type artStyle struct {
	model.StyleInfo
	instruction string
}

// styles is the catalog in display order.
var styles = []artStyle{
	{model.StyleInfo{ID: "pixel_art", Name: "Pixel Art", Description: "Retro gaming aesthetic"},
		"COMPLETELY TRANSFORM this image into retro pixel art style. Use visible chunky pixels, limited 8-bit color palette, no anti-aliasing. Make it look like classic Nintendo or arcade game graphics."},
	{model.StyleInfo{ID: "disney", Name: "Disney", Description: "Classic 2D animation"},
		"COMPLETELY TRANSFORM this image into classic Disney 2D animation style. Use smooth clean outlines, exaggerated expressions, vibrant saturated colors. Make it look like a frame from a Disney animated movie."},
	{model.StyleInfo{ID: "ghibli", Name: "Ghibli", Description: "Studio Ghibli style"},
		"COMPLETELY TRANSFORM this image into Studio Ghibli anime style. Use soft hand-painted watercolor backgrounds, gentle colors, whimsical dreamy atmosphere like Spirited Away or Totoro."},
	{model.StyleInfo{ID: "simpsons", Name: "Simpsons", Description: "Yellow cartoon style"},
		"COMPLETELY TRANSFORM this image into The Simpsons cartoon style. Make skin yellow, use thick black outlines, overbite on characters, simplified cartoon features, bright flat colors. Make it look like a Simpsons episode frame."},
	{model.StyleInfo{ID: "3d_render", Name: "3D Render", Description: "Hyper-realistic 3D"},
		"COMPLETELY TRANSFORM this image into Pixar/Disney 3D animation style. Use smooth plastic-like textures, exaggerated proportions, dramatic cinematic lighting like a modern animated movie."},
	{model.StyleInfo{ID: "van_gogh", Name: "Van Gogh", Description: "Starry Night style"},
		"COMPLETELY TRANSFORM this image into Van Gogh painting style. Use thick swirling brushstrokes like Starry Night. Apply vibrant yellows, deep blues, and visible paint texture. Make it look like an actual Van Gogh oil painting, NOT a photo."},
	{model.StyleInfo{ID: "picasso", Name: "Picasso", Description: "Cubist geometric shapes"},
		"COMPLETELY TRANSFORM this image into Pablo Picasso cubist style. Break down the subject into geometric angular shapes. Use bold flat colors. Make faces and objects fragmented and abstract like Guernica or Les Demoiselles d'Avignon. NOT realistic."},
	{model.StyleInfo{ID: "monet", Name: "Monet", Description: "Impressionist soft light"},
		"COMPLETELY TRANSFORM this image into Claude Monet impressionist painting. Use soft dappled brushstrokes, dreamy light effects, pastel colors blending together. Make it look like a Water Lilies painting. NOT a photograph."},
	{model.StyleInfo{ID: "anime", Name: "Anime", Description: "Japanese animation"},
		"COMPLETELY TRANSFORM this image into Japanese anime style. Use clean bold outlines, flat cel-shaded colors, large expressive eyes, simplified features. Make it look like a Studio anime screenshot. NOT realistic."},
	{model.StyleInfo{ID: "oil_painting", Name: "Oil Painting", Description: "Classic oil texture"},
		"COMPLETELY TRANSFORM this image into classical Renaissance oil painting style. Add rich textures, dramatic chiaroscuro lighting, visible brushwork like Rembrandt or Vermeer. Make it look like an old master painting."},
	{model.StyleInfo{ID: "watercolor", Name: "Watercolor", Description: "Soft bleeding effects"},
		"COMPLETELY TRANSFORM this image into watercolor painting. Use translucent washes of color that bleed and blend, soft edges, paper texture showing through. Make it look hand-painted with watercolors, NOT digital."},
}

const (
	genericStyleInstruction = "COMPLETELY TRANSFORM this image into an artistic masterpiece with a distinctive style."
	styleSuffix             = " Keep the same subject and composition but COMPLETELY change the visual style. This must look like art, NOT like the original photo."
)

// StyleService handles artistic style transfer
type StyleService struct {
	backend ChatImageBackend
	logger  zerolog.Logger
}

// NewStyleService creates a new style transfer service
func NewStyleService(backend ChatImageBackend) *StyleService {
	return &StyleService{
		backend: backend,
		logger:  logging.WithComponent("style"),
	}
}

// ListStyles returns the style catalog
func (s *StyleService) ListStyles() []model.StyleInfo {
	out := make([]model.StyleInfo, len(styles))
	for i, st := range styles {
		out[i] = st.StyleInfo
	}
	return out
}

// Transfer restyles the source image with a single gateway call.
func (s *StyleService) Transfer(ctx context.Context, req *model.StyleTransferRequest) (*model.StyleTransferResponse, error) {
	image := strings.TrimSpace(req.Image)
	style := strings.TrimSpace(req.Style)
	if image == "" || style == "" {
		return nil, invalid("image", "Image and style are required")
	}
	if !isRemoteURL(image) {
		if err := checkSourceImage("image", image, styleImageTypes); err != nil {
			return nil, err
		}
	}
	if s.backend == nil || !s.backend.IsConfigured() {
		return nil, &ConfigError{Provider: "AI gateway"}
	}

	prompt := StylePrompt(style, req.CustomPrompt)
	s.logger.Info().Str("style", style).Bool("custom", strings.TrimSpace(req.CustomPrompt) != "").Msg("processing style transfer")

	url, err := s.backend.GenerateImage(ctx, string(model.CapabilityStyle), prompt, image)
	if err != nil {
		metrics.Generations.WithLabelValues(string(model.CapabilityStyle), "error").Inc()
		return nil, fmt.Errorf("style transfer: %w", err)
	}

	metrics.Generations.WithLabelValues(string(model.CapabilityStyle), "ok").Inc()
	return &model.StyleTransferResponse{
		StyledImage: url,
		Style:       style,
	}, nil
}

// StylePrompt builds the instruction sent upstream. A custom prompt wins over
// the catalog entry; unknown styles get the generic instruction.
func StylePrompt(style, customPrompt string) string {
	instruction := strings.TrimSpace(customPrompt)
	if instruction == "" {
		instruction = genericStyleInstruction
		for _, st := range styles {
			if st.ID == style {
				instruction = st.instruction
				break
			}
		}
	}
	return instruction + styleSuffix
}
