package service

import (
	"encoding/base64"
	"strings"

	"github.com/artify/api/internal/client"
)

// MaxSourceImageBytes is the largest decoded upload accepted for style transfer and upscaling.
const MaxSourceImageBytes = 10 << 20

// styleImageTypes are the upload formats the style picker accepts.
var styleImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
}

// checkSourceImage validates an uploaded data URI before it is forwarded
// upstream. A nil types set accepts any media type.
func checkSourceImage(field, image string, types map[string]bool) error {
	mimeType, payload, err := client.ParseDataURI(image)
	if err != nil {
		return invalid(field, "Invalid image format. Expected base64 data URL.")
	}
	if types != nil && !types[mimeType] {
		return invalid(field, "Please upload a PNG or JPG image.")
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxSourceImageBytes+2 {
		return invalid(field, "Please select an image smaller than 10MB.")
	}
	return nil
}

func isRemoteURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
