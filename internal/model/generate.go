package model

// ImageGenerateRequest represents the request body for image generation
type ImageGenerateRequest struct {
	Prompt         string     `json:"prompt" validate:"required"`
	Model          ImageModel `json:"model,omitempty" validate:"omitempty,oneof=flux gemini"`
	Size           string     `json:"size,omitempty" validate:"omitempty,max=32"`
	Quality        string     `json:"quality,omitempty" validate:"omitempty,max=32"`
	Style          string     `json:"style,omitempty" validate:"omitempty,max=64"`
	NegativePrompt string     `json:"negative_prompt,omitempty"`
}

// ImageGenerateResponse represents the response for image generation
type ImageGenerateResponse struct {
	ImageURL string `json:"image_url"`
	Model    string `json:"model"`
	Prompt   string `json:"prompt"`
}

// VideoGenerateRequest represents the request body for video generation
type VideoGenerateRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// VideoGenerateResponse represents the response for video generation
type VideoGenerateResponse struct {
	Video string `json:"video"`
}
