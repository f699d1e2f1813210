// Package upload implements the gateway's upload pipeline: MIME
// classification, per-category size ceilings, storage key derivation and the
// hand-off to the object store.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scribe/internal/assets"
	"scribe/internal/events"
	"scribe/internal/storage"
)

// Service validates uploads and hands them to the storage backend. The asset
// registry and event publisher are optional collaborators: when nil the
// upload flow runs without them, and their failures never fail an upload.
type Service struct {
	storage  storage.Service
	registry assets.Repository
	events   events.Publisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates an upload service. registry and publisher may be nil.
func NewService(st storage.Service, registry assets.Repository, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		storage:  st,
		registry: registry,
		events:   publisher,
		logger:   logger,
		now:      time.Now,
	}
}

// Store validates the upload and writes it to the object store. Validation
// failures are returned before any storage call is made.
func (s *Service) Store(ctx context.Context, in Input) (*StoredFile, error) {
	category, ok := Classify(in.ContentType)
	if !ok {
		return nil, &UnsupportedTypeError{ContentType: in.ContentType}
	}

	if limit := MaxBytes(category); in.Size > limit {
		return nil, &TooLargeError{Category: category, Size: in.Size, Limit: limit}
	}

	key := MakeKey(category, in.Name, s.now())

	publicURL, err := s.storage.Upload(ctx, key, in.ContentType, in.Body, in.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", key, err)
	}

	stored := &StoredFile{
		Key:       key,
		PublicURL: publicURL,
		Category:  category,
		Name:      in.Name,
		Size:      in.Size,
	}

	s.recordAsset(ctx, stored, in.ContentType)
	s.publishEvent(stored, in.ContentType)

	return stored, nil
}

// Remove deletes an object and, when a registry is configured, its asset row.
func (s *Service) Remove(ctx context.Context, key string) error {
	if err := s.storage.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	if s.registry != nil {
		if err := s.registry.DeleteByKey(ctx, key); err != nil && err != assets.ErrAssetNotFound {
			s.logger.Warn("Failed to remove asset record", "key", key, "error", err)
		}
	}

	return nil
}

// HealthCheck reports storage backend availability.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.storage.Health(ctx)
}

func (s *Service) recordAsset(ctx context.Context, stored *StoredFile, contentType string) {
	if s.registry == nil {
		return
	}

	err := s.registry.Record(ctx, &assets.Asset{
		Key:         stored.Key,
		PublicURL:   stored.PublicURL,
		Category:    string(stored.Category),
		ContentType: contentType,
		Size:        stored.Size,
		Name:        stored.Name,
	})
	if err != nil {
		s.logger.Warn("Failed to record asset", "key", stored.Key, "error", err)
	}
}

func (s *Service) publishEvent(stored *StoredFile, contentType string) {
	if s.events == nil {
		return
	}

	err := s.events.PublishAssetUploaded(events.AssetUploaded{
		Key:         stored.Key,
		PublicURL:   stored.PublicURL,
		Category:    string(stored.Category),
		ContentType: contentType,
		Size:        stored.Size,
		Name:        stored.Name,
		UploadedAt:  s.now(),
	})
	if err != nil {
		s.logger.Warn("Failed to publish asset event", "key", stored.Key, "error", err)
	}
}
