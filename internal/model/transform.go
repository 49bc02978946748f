package model

// StyleTransferRequest represents the request body for style transfer
type StyleTransferRequest struct {
	Image        string `json:"image" validate:"required"`
	Style        string `json:"style" validate:"required"`
	CustomPrompt string `json:"customPrompt,omitempty"`
}

// StyleTransferResponse represents the response for style transfer
type StyleTransferResponse struct {
	StyledImage string `json:"styledImage"`
	Style       string `json:"style"`
}

// StyleInfo describes one entry of the style catalog
type StyleInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StyleListResponse represents the response for the style catalog
type StyleListResponse struct {
	Styles []StyleInfo `json:"styles"`
}

// UpscaleRequest represents the request body for image enhancement
type UpscaleRequest struct {
	Image  string `json:"image" validate:"required"`
	Scale  int    `json:"scale,omitempty" validate:"omitempty,min=1,max=8"`
	Prompt string `json:"prompt,omitempty"`
}

// UpscaleResponse represents the response for image enhancement
type UpscaleResponse struct {
	UpscaledImage string `json:"upscaledImage"`
	Scale         int    `json:"scale"`
}
