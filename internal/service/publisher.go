package service

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/artify/api/internal/client"
	"github.com/artify/api/internal/logging"
)

// Publisher turns a binary asset into the URL returned to callers: a data
// URI, or a public object URL when an AssetStore is configured.
type Publisher struct {
	store  client.AssetStore
	now    func() time.Time
	logger zerolog.Logger
}

// NewPublisher accepts a nil store, in which case assets are inlined.
func NewPublisher(store client.AssetStore) *Publisher {
	return &Publisher{
		store:  store,
		now:    time.Now,
		logger: logging.WithComponent("publisher"),
	}
}

// Publish returns the URL for asset. Upload failures fall back to a data URI.
func (p *Publisher) Publish(ctx context.Context, capability string, asset *client.Asset) string {
	if p == nil || p.store == nil {
		return asset.DataURI()
	}

	key := fmt.Sprintf("%s/%s/%s%s", capability, p.now().UTC().Format("2006/01/02"), uuid.New().String(), extension(asset.MIMEType))
	url, err := p.store.Upload(ctx, key, bytes.NewReader(asset.Data), asset.MIMEType)
	if err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("asset upload failed, returning inline data")
		return asset.DataURI()
	}
	return url
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "video/mp4":
		return ".mp4"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
