// Package uploader places pack assets in object storage and resolves their URLs.
package uploader

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tendant/simple-packs/pkg/simplepacks"
	"github.com/tendant/simple-packs/pkg/simplepacks/contenttype"
	"github.com/tendant/simple-packs/pkg/simplepacks/objectkey"
	"github.com/tendant/simple-packs/pkg/simplepacks/urlstrategy"
)

var tracer = otel.Tracer("github.com/tendant/simple-packs/pkg/simplepacks/uploader")

// Uploader implements simplepacks.Uploader over a BlobStore
type Uploader struct {
	store  simplepacks.BlobStore
	urls   urlstrategy.Strategy
	keys   *objectkey.Generator
	logger *slog.Logger
}

// Option configures an Uploader
type Option func(*Uploader)

// WithKeyGenerator overrides the object key policy
func WithKeyGenerator(g *objectkey.Generator) Option {
	return func(u *Uploader) {
		u.keys = g
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(u *Uploader) {
		u.logger = logger
	}
}

// New creates an uploader writing to store and resolving URLs with urls
func New(store simplepacks.BlobStore, urls urlstrategy.Strategy, opts ...Option) (*Uploader, error) {
	if store == nil {
		return nil, errors.New("blob store is required")
	}
	if urls == nil {
		return nil, errors.New("url strategy is required")
	}

	u := &Uploader{
		store: store,
		urls:  urls,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.keys == nil {
		u.keys = objectkey.NewGenerator()
	}
	if u.logger == nil {
		u.logger = slog.Default()
	}
	return u, nil
}

var _ simplepacks.Uploader = (*Uploader)(nil)

// Upload stores one object and returns its key, URL and content type.
// Store failures are returned as *simplepacks.UploadError.
func (u *Uploader) Upload(ctx context.Context, data []byte, filename string, opts simplepacks.UploadOptions) (simplepacks.UploadedAsset, error) {
	key := opts.Key
	if key == "" {
		key = u.keys.Key(filename, opts.PackName)
	}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = contenttype.Resolve(filename)
	}

	ctx, span := tracer.Start(ctx, "uploader.upload",
		trace.WithAttributes(
			attribute.String("object_key", key),
			attribute.Int("size_bytes", len(data)),
			attribute.String("content_type", contentType),
		),
	)
	defer span.End()

	if err := u.store.PutObject(ctx, key, data, contentType); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "put failed")
		u.logger.ErrorContext(ctx, "Failed to upload asset", "key", key, "err", err)
		return simplepacks.UploadedAsset{}, &simplepacks.UploadError{Key: key, Op: "put", Err: err}
	}

	url, err := u.urls.ObjectURL(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "presign failed")
		u.logger.ErrorContext(ctx, "Failed to resolve asset URL", "key", key, "err", err)
		return simplepacks.UploadedAsset{}, &simplepacks.UploadError{Key: key, Op: "presign", Err: err}
	}

	return simplepacks.UploadedAsset{Key: key, URL: url, ContentType: contentType}, nil
}

// UploadBulk uploads files concurrently under packName and returns results in
// input order. The first failure fails the whole call; the other uploads run
// to completion and stored objects are left in place.
func (u *Uploader) UploadBulk(ctx context.Context, files []simplepacks.File, packName string) ([]simplepacks.UploadedAsset, error) {
	results := make([]simplepacks.UploadedAsset, len(files))
	if len(files) == 0 {
		return results, nil
	}

	if err := u.store.Open(ctx); err != nil {
		return nil, &simplepacks.UploadError{Op: "open", Err: err}
	}

	var g errgroup.Group
	for i, f := range files {
		g.Go(func() error {
			asset, err := u.Upload(ctx, f.Data, f.Filename, simplepacks.UploadOptions{PackName: packName})
			if err != nil {
				return err
			}
			results[i] = asset
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
