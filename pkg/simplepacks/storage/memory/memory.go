package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tendant/simple-packs/pkg/simplepacks"
)

// ErrInjected is returned for keys registered with FailOn
var ErrInjected = errors.New("injected failure")

// Object is a stored blob and its content type
type Object struct {
	Data        []byte
	ContentType string
}

// Backend is an in-memory implementation of the simplepacks.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]Object
	failOn  map[string]error
	latency map[string]time.Duration
	puts    int
	opens   int
	closes  int
	open    bool
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string]Object),
		failOn:  make(map[string]error),
		latency: make(map[string]time.Duration),
	}
}

var _ simplepacks.BlobStore = (*Backend)(nil)

// Open marks the backend open; repeated calls are no-ops
func (b *Backend) Open(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		b.open = true
		b.opens++
	}
	return nil
}

// Close marks the backend closed
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.open {
		b.open = false
		b.closes++
	}
	return nil
}

// PutObject stores data under key, replacing any existing object
func (b *Backend) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	b.mu.RLock()
	delay := b.latency[key]
	failure := b.failOn[key]
	b.mu.RUnlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if failure != nil {
		return failure
	}

	stored := make([]byte, len(data))
	copy(stored, data)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = true
	b.objects[key] = Object{Data: stored, ContentType: contentType}
	b.puts++
	return nil
}

// PresignGetObject returns a fake signed URL for key
func (b *Backend) PresignGetObject(ctx context.Context, key string, expires time.Duration) (string, error) {
	b.mu.RLock()
	failure := b.failOn[key]
	b.mu.RUnlock()
	if failure != nil {
		return "", failure
	}
	return fmt.Sprintf("memory://%s?expires=%d", key, int64(expires.Seconds())), nil
}

// FailOn makes every operation on key fail with ErrInjected
func (b *Backend) FailOn(key string) {
	b.FailWith(key, ErrInjected)
}

// FailWith makes every operation on key fail with err; nil clears the fault
func (b *Backend) FailWith(key string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failOn, key)
		return
	}
	b.failOn[key] = err
}

// SetLatency delays PutObject for key by d
func (b *Backend) SetLatency(key string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latency[key] = d
}

// Get returns the stored object for key
func (b *Backend) Get(key string) (Object, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[key]
	return obj, ok
}

// Keys returns the number of distinct stored keys
func (b *Backend) Keys() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

// Puts returns the number of successful PutObject calls
func (b *Backend) Puts() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.puts
}

// IsOpen reports whether the backend is currently open
func (b *Backend) IsOpen() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.open
}
