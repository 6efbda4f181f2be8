package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/tendant/simple-packs/pkg/simplepacks"
)

// MaxPresignExpiry is the longest validity minio-go accepts for presigned URLs
const MaxPresignExpiry = 7 * 24 * time.Hour

// Config options for the MinIO backend
type Config struct {
	Endpoint     string // host:port, an http(s):// prefix selects UseSSL
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	UseSSL       bool
	PathStyle    bool
	CreateBucket bool

	Logger *slog.Logger
}

// Backend is a minio-go implementation of the simplepacks.BlobStore interface
type Backend struct {
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	client *minio.Client
}

var _ simplepacks.BlobStore = (*Backend)(nil)

// New creates a MinIO backend; the client is created on Open
func New(config Config) (*Backend, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if config.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	switch {
	case strings.HasPrefix(config.Endpoint, "https://"):
		config.Endpoint = strings.TrimPrefix(config.Endpoint, "https://")
		config.UseSSL = true
	case strings.HasPrefix(config.Endpoint, "http://"):
		config.Endpoint = strings.TrimPrefix(config.Endpoint, "http://")
		config.UseSSL = false
	}
	config.Endpoint = strings.TrimSuffix(config.Endpoint, "/")

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{config: config, logger: logger}, nil
}

// Open creates the client if needed and optionally ensures the bucket exists
func (b *Backend) Open(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.openLocked(ctx)
	return err
}

func (b *Backend) openLocked(ctx context.Context) (*minio.Client, error) {
	if b.client != nil {
		return b.client, nil
	}

	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(b.config.AccessKey, b.config.SecretKey, ""),
		Secure: b.config.UseSSL,
		Region: b.config.Region,
	}
	if b.config.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}

	client, err := minio.New(b.config.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	if b.config.CreateBucket {
		exists, err := client.BucketExists(ctx, b.config.Bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to check bucket existence: %w", err)
		}
		if !exists {
			b.logger.Info("Creating bucket", "bucket", b.config.Bucket)
			if err := client.MakeBucket(ctx, b.config.Bucket, minio.MakeBucketOptions{Region: b.config.Region}); err != nil {
				return nil, fmt.Errorf("failed to create bucket: %w", err)
			}
		}
	}

	b.client = client
	return client, nil
}

// Close drops the client; minio-go keeps no resources that need explicit release
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.client = nil
	return nil
}

func (b *Backend) handle(ctx context.Context) (*minio.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openLocked(ctx)
}

// PutObject uploads data under key with the given content type
func (b *Backend) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	client, err := b.handle(ctx)
	if err != nil {
		return err
	}

	_, err = client.PutObject(ctx, b.config.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		b.logger.Error("Failed to upload object", "bucket", b.config.Bucket, "key", key, "code", resp.Code, "err", err)
		return fmt.Errorf("failed to upload to MinIO: %w", err)
	}
	return nil
}

// PresignGetObject returns a presigned GET URL for key. Expiries above
// MaxPresignExpiry are clamped.
func (b *Backend) PresignGetObject(ctx context.Context, key string, expires time.Duration) (string, error) {
	client, err := b.handle(ctx)
	if err != nil {
		return "", err
	}

	if expires > MaxPresignExpiry {
		b.logger.Warn("Presign expiry clamped", "requested", expires, "max", MaxPresignExpiry)
		expires = MaxPresignExpiry
	}

	u, err := client.PresignedGetObject(ctx, b.config.Bucket, key, expires, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return u.String(), nil
}
