package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/tendant/simple-packs/pkg/simplepacks"
)

// DefaultRegion is used for R2 and other S3-compatible services that ignore regions
const DefaultRegion = "auto"

// DefaultMaxAttempts bounds SDK retries per request
const DefaultMaxAttempts = 3

// Config options for the S3 backend
type Config struct {
	Region          string // "auto" for Cloudflare R2
	Bucket          string // Bucket name
	AccessKeyID     string // Access key ID
	SecretAccessKey string // Secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (MinIO)
	MaxAttempts     int    // Attempts per request including the first (default: 3)

	// MinIO/S3-compatible service options
	CreateBucketIfNotExist bool // Create bucket on first Open

	Logger *slog.Logger
}

// Backend is an S3-compatible implementation of the simplepacks.BlobStore interface.
// The client is built lazily by Open and shared by all callers until Close.
type Backend struct {
	config Config
	logger *slog.Logger

	mu            sync.Mutex
	client        *s3.Client
	presignClient *s3.PresignClient
	uploader      *manager.Uploader
	transport     *http.Transport
}

var _ simplepacks.BlobStore = (*Backend)(nil)

// New creates a new S3-compatible storage backend. No connection is made until Open.
func New(config Config) (*Backend, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if config.Region == "" {
		config.Region = DefaultRegion
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Backend{config: config, logger: logger}, nil
}

// Open builds the client if it is not already open
func (b *Backend) Open(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openLocked(ctx)
}

func (b *Backend) openLocked(ctx context.Context) error {
	if b.client != nil {
		return nil
	}

	httpClient := awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
		tr.MaxIdleConnsPerHost = 100
	})

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(b.config.Region),
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithRetryer(func() aws.Retryer {
			return retry.NewStandard(func(o *retry.StandardOptions) {
				o.MaxAttempts = b.config.MaxAttempts
			})
		}),
	}
	if b.config.AccessKeyID != "" && b.config.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			b.config.AccessKeyID,
			b.config.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	// LoadDefaultConfig returns a derived client when it applies settings
	// such as AWS_CA_BUNDLE. BuildableClient copies its transport on every
	// build, so the final transport is pinned here to keep a handle for Close.
	transport := httpClient.GetTransport()
	if resolved, ok := awsCfg.HTTPClient.(*awshttp.BuildableClient); ok {
		transport = resolved.GetTransport()
	}
	awsCfg.HTTPClient = &http.Client{Transport: transport}

	var s3Options []func(*s3.Options)
	if b.config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(b.config.Endpoint)
		})
	}
	s3Options = append(s3Options, func(o *s3.Options) {
		o.UsePathStyle = b.config.UsePathStyle
	})

	client := s3.NewFromConfig(awsCfg, s3Options...)

	if b.config.CreateBucketIfNotExist {
		if err := createBucketIfNotExists(ctx, client, b.config); err != nil {
			transport.CloseIdleConnections()
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	b.client = client
	b.presignClient = s3.NewPresignClient(client)
	b.uploader = manager.NewUploader(client)
	b.transport = transport
	return nil
}

// Close releases the client and its idle pooled connections. A later call
// reopens lazily.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		return nil
	}
	b.transport.CloseIdleConnections()
	b.client = nil
	b.presignClient = nil
	b.uploader = nil
	b.transport = nil
	return nil
}

func (b *Backend) handles(ctx context.Context) (*manager.Uploader, *s3.PresignClient, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.openLocked(ctx); err != nil {
		return nil, nil, err
	}
	return b.uploader, b.presignClient, nil
}

// PutObject uploads data under key with the given content type
func (b *Backend) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	uploader, _, err := b.handles(ctx)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(b.config.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := uploader.Upload(ctx, input); err != nil {
		b.logger.Error("Failed to upload object", "bucket", b.config.Bucket, "key", key, "code", errorCode(err), "err", err)
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// PresignGetObject returns a presigned GET URL for key valid for expires
func (b *Backend) PresignGetObject(ctx context.Context, key string, expires time.Duration) (string, error) {
	_, presignClient, err := b.handles(ctx)
	if err != nil {
		return "", err
	}

	result, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.config.Bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return result.URL, nil
}

// createBucketIfNotExists creates the bucket if it doesn't exist
func createBucketIfNotExists(ctx context.Context, client *s3.Client, config Config) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(config.Bucket),
	})
	if err == nil {
		return nil
	}

	// MinIO reports missing buckets in several ways
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	code := errorCode(err)
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) &&
		code != "BadRequest" && code != "NoSuchBucket" && code != "NotFound" {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	createInput := &s3.CreateBucketInput{
		Bucket: aws.String(config.Bucket),
	}
	if config.Region != "us-east-1" && config.Region != DefaultRegion {
		createInput.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(config.Region),
		}
	}

	_, err = client.CreateBucket(ctx, createInput)
	if err != nil {
		code := errorCode(err)
		if code == "BucketAlreadyExists" || code == "BucketAlreadyOwnedByYou" {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// errorCode extracts the service error code, or "" for transport errors
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	if errors.Is(err, context.Canceled) {
		return "Canceled"
	}
	return ""
}
