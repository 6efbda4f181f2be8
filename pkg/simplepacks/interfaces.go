package simplepacks

import (
	"context"
	"time"
)

// BlobStore defines the interface for S3-compatible storage backends.
// Implementations hold one long-lived client bound to a single bucket and
// must be safe for concurrent use.
type BlobStore interface {
	// Open acquires the underlying client. Calling Open on an open store is a no-op.
	Open(ctx context.Context) error

	// Close releases the client and its pooled connections
	Close() error

	// PutObject writes data under key, overwriting any existing object
	PutObject(ctx context.Context, key string, data []byte, contentType string) error

	// PresignGetObject returns a time-limited read URL for key
	PresignGetObject(ctx context.Context, key string, expires time.Duration) (string, error)
}

// File is one item of a bulk upload
type File struct {
	Data     []byte
	Filename string
}

// UploadOptions override the derived key and content type of an upload
type UploadOptions struct {
	Key         string
	ContentType string
	PackName    string
}

// Uploader places assets in the bucket and returns their URLs
type Uploader interface {
	// Upload stores a single asset
	Upload(ctx context.Context, data []byte, filename string, opts UploadOptions) (UploadedAsset, error)

	// UploadBulk stores all files concurrently. The result has the same order
	// as files; any failure fails the whole call.
	UploadBulk(ctx context.Context, files []File, packName string) ([]UploadedAsset, error)
}

// Repository defines the relational persistence gateway
type Repository interface {
	// InsertOne inserts a single row in its own transaction and returns the
	// row as stored, including generated columns.
	InsertOne(ctx context.Context, table Table, row Row) (Row, error)

	// InsertMany inserts all rows with one statement in a single transaction.
	// All rows must share the same column set. An empty slice is a no-op.
	InsertMany(ctx context.Context, table Table, rows []Row) error
}

// EventSink receives notifications about created packs
type EventSink interface {
	// PackCreated is fired after the pack and its sounds are persisted
	PackCreated(ctx context.Context, pack PackRecord, result *PackCreateResult) error
}
