package gallery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned by Read when nothing is stored under the key.
	ErrNotFound = errors.New("gallery: key not found")
	// ErrQuotaExceeded is returned by Write when the value does not fit.
	ErrQuotaExceeded = errors.New("gallery: storage quota exceeded")
)

// Backend is a small string-keyed store, the shape of browser localStorage.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
}

// MemoryBackend keeps values in process. A positive quota caps the total
// size of all values, like a browser storage budget.
type MemoryBackend struct {
	mu    sync.Mutex
	data  map[string][]byte
	quota int
}

func NewMemoryBackend(quota int) *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte), quota: quota}
}

func (m *MemoryBackend) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryBackend) Write(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.quota > 0 {
		used := 0
		for k, v := range m.data {
			if k != key {
				used += len(v)
			}
		}
		if used+len(data) > m.quota {
			return ErrQuotaExceeded
		}
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileBackend stores each key as {dir}/{key}.json, replaced atomically.
type FileBackend struct {
	dir      string
	maxBytes int
}

// NewFileBackend creates dir if needed. A positive maxBytes caps each value.
func NewFileBackend(dir string, maxBytes int) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create gallery dir: %w", err)
	}
	return &FileBackend{dir: dir, maxBytes: maxBytes}, nil
}

func (f *FileBackend) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("gallery: invalid key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

func (f *FileBackend) Read(_ context.Context, key string) ([]byte, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (f *FileBackend) Write(_ context.Context, key string, data []byte) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if f.maxBytes > 0 && len(data) > f.maxBytes {
		return ErrQuotaExceeded
	}
	return renameio.WriteFile(p, data, 0o644)
}

func (f *FileBackend) Remove(_ context.Context, key string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RedisBackend stores values under {prefix}{key}.
type RedisBackend struct {
	client   *redis.Client
	prefix   string
	maxBytes int
}

func NewRedisBackend(client *redis.Client, prefix string, maxBytes int) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix, maxBytes: maxBytes}
}

func (r *RedisBackend) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

func (r *RedisBackend) Write(ctx context.Context, key string, data []byte) error {
	if r.maxBytes > 0 && len(data) > r.maxBytes {
		return ErrQuotaExceeded
	}
	return r.client.Set(ctx, r.prefix+key, data, 0).Err()
}

func (r *RedisBackend) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
