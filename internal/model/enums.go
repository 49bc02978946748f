package model

// Image backends
type ImageModel string

const (
	ImageModelFlux   ImageModel = "flux"
	ImageModelGemini ImageModel = "gemini"
)

var ValidImageModels = []ImageModel{ImageModelFlux, ImageModelGemini}

// Labels echoed back to callers
const (
	LabelFlux   = "FLUX.1-schnell"
	LabelGemini = "Gemini Flash"
)

// Label returns the display name for m.
func (m ImageModel) Label() string {
	if m == ImageModelGemini {
		return LabelGemini
	}
	return LabelFlux
}

// Capabilities, used for routing, metrics and rate-limit scopes
type Capability string

const (
	CapabilityImage   Capability = "image"
	CapabilityVideo   Capability = "video"
	CapabilityStyle   Capability = "style"
	CapabilityUpscale Capability = "upscale"
)

// Request defaults
const (
	DefaultSize    = "1024x1024"
	DefaultQuality = "hd"
	DefaultScale   = 2
)
