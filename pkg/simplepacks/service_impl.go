package simplepacks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/tendant/simple-packs/pkg/simplepacks")

// service implements the Service interface
type service struct {
	uploader   Uploader
	repository Repository
	eventSink  EventSink
	logger     *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithUploader sets the asset uploader
func WithUploader(uploader Uploader) Option {
	return func(s *service) {
		s.uploader = uploader
	}
}

// WithRepository sets the persistence gateway
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger used for failure reports
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.uploader == nil {
		return nil, fmt.Errorf("uploader is required")
	}
	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

func (s *service) CreatePack(ctx context.Context, req PackCreateRequest) (*PackCreateResult, error) {
	ctx, span := tracer.Start(ctx, "simplepacks.create_pack")
	defer span.End()
	span.SetAttributes(attribute.String("pack.name", req.Name))

	result, err := s.createPack(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, Kind(err))
		return nil, err
	}
	span.SetAttributes(attribute.String("pack.id", result.ID))
	return result, nil
}

func (s *service) createPack(ctx context.Context, req PackCreateRequest) (*PackCreateResult, error) {
	if err := ValidateRequest(&req); err != nil {
		s.logFailure(ctx, "validate", req.Name, err)
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Rarity == "" {
		req.Rarity = DefaultRarity
	}

	images, sounds, err := s.uploadAssets(ctx, &req)
	if err != nil {
		return nil, err
	}

	pack := PackRecord{
		Name:            req.Name,
		Description:     req.Description,
		CategoryID:      req.CategoryID,
		CoinPrice:       req.CoinPrice,
		PremiumPrice:    req.PremiumPrice,
		IsFree:          req.IsFree,
		IsStarterPack:   req.IsStarterPack,
		IsPremium:       req.IsPremium,
		Rarity:          req.Rarity,
		Tags:            req.Tags,
		SortOrder:       req.SortOrder,
		PreviewImageURL: images[0].URL,
		WaitingImageURL: images[1].URL,
		ActionImageURL:  images[2].URL,
	}

	stored, err := s.repository.InsertOne(ctx, PacksTable, pack.Row())
	if err != nil {
		err = asPersistenceError(PacksTable, "insert", err)
		s.logFailure(ctx, "insert_pack", req.Name, err)
		return nil, err
	}
	created, err := PackRecordFromRow(stored)
	if err != nil {
		err = &PersistenceError{Table: PacksTable.Name, Op: "read_returning", Err: err}
		s.logFailure(ctx, "insert_pack", req.Name, err)
		return nil, err
	}

	soundRows := make([]Row, len(sounds))
	soundURLs := make([]string, len(sounds))
	for i, sound := range sounds {
		soundRows[i] = SoundRecord{PackID: created.ID, FileURL: sound.URL, SortOrder: i}.Row()
		soundURLs[i] = sound.URL
	}

	if err := s.repository.InsertMany(ctx, PackSoundsTable, soundRows); err != nil {
		err = asPersistenceError(PackSoundsTable, "insert_many", err)
		// The pack row is already committed and stays without sounds.
		s.logFailure(ctx, "insert_sounds", req.Name, err, "pack_id", created.ID)
		return nil, err
	}

	result := &PackCreateResult{
		ID:              created.ID,
		PreviewImageURL: images[0].URL,
		WaitingImageURL: images[1].URL,
		ActionImageURL:  images[2].URL,
		SoundURLs:       soundURLs,
	}

	if err := s.eventSink.PackCreated(ctx, created, result); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish pack created event", "pack_id", created.ID, "err", err)
	}

	return result, nil
}

// uploadAssets stores the image group and the sound group concurrently
func (s *service) uploadAssets(ctx context.Context, req *PackCreateRequest) ([]UploadedAsset, []UploadedAsset, error) {
	var (
		g      errgroup.Group
		images []UploadedAsset
		sounds []UploadedAsset
	)

	g.Go(func() error {
		var err error
		images, err = s.uploader.UploadBulk(ctx, toFiles(req.Images()), req.Name)
		if err != nil {
			err = asUploadError(err)
			s.logFailure(ctx, "upload_images", req.Name, err)
		}
		return err
	})
	g.Go(func() error {
		var err error
		sounds, err = s.uploader.UploadBulk(ctx, toFiles(req.Sounds()), req.Name)
		if err != nil {
			err = asUploadError(err)
			s.logFailure(ctx, "upload_sounds", req.Name, err)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if len(images) != 3 || len(sounds) != 3 {
		return nil, nil, &UploadError{Op: "bulk", Err: fmt.Errorf("expected 3 images and 3 sounds, got %d and %d", len(images), len(sounds))}
	}
	return images, sounds, nil
}

func (s *service) logFailure(ctx context.Context, stage, packName string, err error, args ...any) {
	attrs := append([]any{"stage", stage, "pack_name", packName, "kind", Kind(err), "err", err}, args...)
	s.logger.ErrorContext(ctx, "Failed to create pack", attrs...)
}

func toFiles(assets []Asset) []File {
	files := make([]File, len(assets))
	for i, a := range assets {
		files[i] = File{Data: a.Data, Filename: a.Filename}
	}
	return files
}

func asUploadError(err error) error {
	if errors.Is(err, ErrUpload) {
		return err
	}
	return &UploadError{Op: "bulk", Err: err}
}

func asPersistenceError(table Table, op string, err error) error {
	if errors.Is(err, ErrPersistence) {
		return err
	}
	return &PersistenceError{Table: table.Name, Op: op, Err: err}
}
