package simplepacks

import "context"

// Service is the main interface for registering sound packs
type Service interface {
	// CreatePack uploads the six assets of req and persists the pack and its
	// sound rows. Errors are tagged with ErrValidation, ErrUpload or
	// ErrPersistence.
	CreatePack(ctx context.Context, req PackCreateRequest) (*PackCreateResult, error)
}
