// Package gallery keeps the most recent generation results in a small
// key-value store.
package gallery

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/artify/api/internal/logging"
	"github.com/artify/api/internal/metrics"
	"github.com/artify/api/internal/model"
)

// Keys used by the clients
const (
	KeyGeneratedImages = "generated-images"
	KeyStyledImages    = "styled-images"
)

const (
	DefaultCapacity = 10
	DefaultFallback = 3
)

// Cache is a bounded, newest-first list of results persisted under one key.
// Save never fails: when the store refuses the full list it retries with the
// newest Fallback entries, then clears the key.
type Cache struct {
	backend  Backend
	key      string
	capacity int
	fallback int
	logger   zerolog.Logger
}

type Option func(*Cache)

func WithCapacity(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

func WithFallback(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.fallback = n
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

func NewCache(backend Backend, key string, opts ...Option) *Cache {
	c := &Cache{
		backend:  backend,
		key:      key,
		capacity: DefaultCapacity,
		fallback: DefaultFallback,
		logger:   logging.WithComponent("gallery"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fallback > c.capacity {
		c.fallback = c.capacity
	}
	return c
}

// Load returns at most Capacity results, newest first. A corrupt value is
// removed and treated as empty.
func (c *Cache) Load(ctx context.Context) []model.GenerationResult {
	data, err := c.backend.Read(ctx, c.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn().Err(err).Str("key", c.key).Msg("failed to read gallery")
		}
		return nil
	}

	var results []model.GenerationResult
	if err := json.Unmarshal(data, &results); err != nil {
		c.logger.Warn().Err(err).Str("key", c.key).Msg("corrupt gallery, clearing")
		if err := c.backend.Remove(ctx, c.key); err != nil {
			c.logger.Warn().Err(err).Str("key", c.key).Msg("failed to clear corrupt gallery")
		}
		return nil
	}

	if len(results) > c.capacity {
		results = results[:c.capacity]
	}
	return results
}

// Save persists results (newest first) and returns how many were kept:
// min(len, Capacity), Fallback, or 0 when the key had to be cleared.
// Saving an empty list removes the key.
func (c *Cache) Save(ctx context.Context, results []model.GenerationResult) int {
	if len(results) > c.capacity {
		results = results[:c.capacity]
	}
	if len(results) == 0 {
		if err := c.backend.Remove(ctx, c.key); err != nil {
			c.logger.Warn().Err(err).Str("key", c.key).Msg("failed to clear gallery")
		}
		return 0
	}

	err := c.write(ctx, results)
	if err == nil {
		return len(results)
	}
	c.logger.Warn().Err(err).Str("key", c.key).Int("count", len(results)).Msg("gallery save failed, keeping fewer results")
	metrics.GallerySaveFallback.WithLabelValues(c.key, "shrink").Inc()

	if len(results) > c.fallback {
		results = results[:c.fallback]
	}
	if err := c.write(ctx, results); err != nil {
		c.logger.Warn().Err(err).Str("key", c.key).Msg("gallery save failed again, clearing")
	} else {
		return len(results)
	}

	metrics.GallerySaveFallback.WithLabelValues(c.key, "clear").Inc()
	if err := c.backend.Remove(ctx, c.key); err != nil {
		c.logger.Error().Err(err).Str("key", c.key).Msg("failed to clear gallery")
	}
	return 0
}

func (c *Cache) write(ctx context.Context, results []model.GenerationResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return c.backend.Write(ctx, c.key, data)
}

// Prepend puts block ahead of the stored history, evicting the oldest
// entries beyond Capacity, and returns the new list.
func (c *Cache) Prepend(ctx context.Context, block ...model.GenerationResult) []model.GenerationResult {
	history := c.Load(ctx)
	merged := make([]model.GenerationResult, 0, len(block)+len(history))
	merged = append(merged, block...)
	merged = append(merged, history...)
	if len(merged) > c.capacity {
		merged = merged[:c.capacity]
	}
	c.Save(ctx, merged)
	return merged
}

// Delete removes the result with the given id. It reports whether it was found.
func (c *Cache) Delete(ctx context.Context, id string) bool {
	history := c.Load(ctx)
	kept := history[:0:0]
	for _, r := range history {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(history) {
		return false
	}
	c.Save(ctx, kept)
	return true
}

// Clear removes every stored result.
func (c *Cache) Clear(ctx context.Context) error {
	return c.backend.Remove(ctx, c.key)
}
