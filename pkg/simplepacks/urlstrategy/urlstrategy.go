package urlstrategy

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultPresignExpiry is the validity of presigned GET URLs (one year)
const DefaultPresignExpiry = 365 * 24 * time.Hour

// Strategy turns an object key into the URL stored with the pack
type Strategy interface {
	ObjectURL(ctx context.Context, key string) (string, error)
}

// Presigner is the subset of the blob store used for presigned URLs (to avoid circular imports)
type Presigner interface {
	PresignGetObject(ctx context.Context, key string, expires time.Duration) (string, error)
}

// PublicBaseStrategy returns direct URLs under a public bucket domain or CDN
type PublicBaseStrategy struct {
	BaseURL string
}

// NewPublicBase creates a strategy producing base + "/" + key
func NewPublicBase(baseURL string) *PublicBaseStrategy {
	return &PublicBaseStrategy{BaseURL: strings.TrimSuffix(baseURL, "/")}
}

// ObjectURL returns the public URL for key
func (s *PublicBaseStrategy) ObjectURL(ctx context.Context, key string) (string, error) {
	if s.BaseURL == "" {
		return "", fmt.Errorf("public base URL not configured")
	}
	return fmt.Sprintf("%s/%s", s.BaseURL, key), nil
}

// PresignedStrategy delegates to the blob store's presigned GET URLs
type PresignedStrategy struct {
	Store  Presigner
	Expiry time.Duration
}

// NewPresigned creates a presigning strategy; a zero expiry uses DefaultPresignExpiry
func NewPresigned(store Presigner, expiry time.Duration) *PresignedStrategy {
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}
	return &PresignedStrategy{Store: store, Expiry: expiry}
}

// ObjectURL returns a presigned GET URL for key
func (s *PresignedStrategy) ObjectURL(ctx context.Context, key string) (string, error) {
	if s.Store == nil {
		return "", fmt.Errorf("presigner not configured")
	}
	return s.Store.PresignGetObject(ctx, key, s.Expiry)
}

// New picks the public base strategy when publicBase is set, presigned URLs otherwise
func New(publicBase string, store Presigner, expiry time.Duration) Strategy {
	if strings.TrimSpace(publicBase) != "" {
		return NewPublicBase(publicBase)
	}
	return NewPresigned(store, expiry)
}
