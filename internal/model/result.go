package model

import "time"

// GenerationResult is one gallery entry kept by the result cache.
// Prompt is the user's original prompt, never a variation.
type GenerationResult struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Prompt      string    `json:"prompt"`
	Model       string    `json:"model,omitempty"`
	Style       string    `json:"style,omitempty"`
	OriginalURL string    `json:"originalUrl,omitempty"` // source image of a style transfer
	CreatedAt   time.Time `json:"timestamp"`
}
