package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	apperrors "mediashare/internal/errors"
	"mediashare/internal/events"
	"mediashare/internal/model"
	"mediashare/internal/repository"
)

// DefaultMaxUploadBytes caps an image payload.
const DefaultMaxUploadBytes int64 = 5 << 20

// ObjectStore is the object storage the image service writes through.
type ObjectStore interface {
	Put(ctx context.Context, r io.Reader, size int64, contentType, key string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFor(originalName string) string
}

// UploadInput is one image upload by a creator.
type UploadInput struct {
	CreatorID   uuid.UUID
	FileName    string
	File        io.Reader
	Title       string
	Description string
	Location    *model.Location
	Tags        []string
	Metadata    map[string]any
}

// ImageService creates, lists and deletes images across the object store and
// the metadata store.
type ImageService interface {
	Upload(ctx context.Context, in UploadInput) (*model.Image, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]model.Image, error)
	ListAll(ctx context.Context) ([]model.Image, error)
	Delete(ctx context.Context, requesterID, imageID uuid.UUID) error
}

type imageService struct {
	imageRepo repository.ImageRepository
	objects   ObjectStore
	publisher events.Publisher
	maxBytes  int64
}

// NewImageService creates an image service. maxBytes <= 0 selects DefaultMaxUploadBytes.
func NewImageService(imageRepo repository.ImageRepository, objects ObjectStore, publisher events.Publisher, maxBytes int64) ImageService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &imageService{
		imageRepo: imageRepo,
		objects:   objects,
		publisher: publisher,
		maxBytes:  maxBytes,
	}
}

// Upload stores the object first and the record second. A failed object write
// leaves nothing behind; a failed record write leaves one orphaned object,
// which is logged and announced but not removed.
func (s *imageService) Upload(ctx context.Context, in UploadInput) (*model.Image, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if err := validateLocation(in.Location); err != nil {
		return nil, err
	}
	if in.File == nil {
		return nil, fmt.Errorf("%w: image file is required", apperrors.ErrValidation)
	}

	data, err := io.ReadAll(io.LimitReader(in.File, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", apperrors.ErrValidation, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, apperrors.ErrPayloadTooLarge
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image file is empty", apperrors.ErrValidation)
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedMedia, mime.String())
	}

	key := s.objects.KeyFor(in.FileName)
	url, err := s.objects.Put(ctx, bytes.NewReader(data), int64(len(data)), mime.String(), key)
	if err != nil {
		return nil, err
	}

	image := &model.Image{
		CreatorID:   in.CreatorID,
		StorageKey:  key,
		URL:         url,
		ContentType: mime.String(),
		Size:        int64(len(data)),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Location:    in.Location,
		Tags:        cleanTags(in.Tags),
		Metadata:    in.Metadata,
	}
	if err := s.imageRepo.Create(ctx, image); err != nil {
		log.Errorj(log.JSON{
			"message":     "image record write failed after object was stored",
			"orphan":      events.OrphanObject,
			"storage_key": key,
			"creator_id":  in.CreatorID.String(),
			"error":       err.Error(),
		})
		s.publish(ctx, events.Event{
			Type:       events.ImageOrphaned,
			Kind:       events.OrphanObject,
			StorageKey: key,
			UserID:     in.CreatorID.String(),
			Reason:     err.Error(),
		})
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:       events.ImageCreated,
		ImageID:    image.ID.String(),
		UserID:     in.CreatorID.String(),
		StorageKey: key,
	})
	return image, nil
}

func (s *imageService) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]model.Image, error) {
	return s.imageRepo.FindByCreator(ctx, creatorID)
}

func (s *imageService) ListAll(ctx context.Context) ([]model.Image, error) {
	return s.imageRepo.FindAll(ctx)
}

// Delete removes an owned image: object first, then record. A failed record
// delete leaves an orphaned record, which a repeated delete cleans up.
func (s *imageService) Delete(ctx context.Context, requesterID, imageID uuid.UUID) error {
	image, err := s.imageRepo.FindByID(ctx, imageID)
	if err != nil {
		return err
	}
	if image.CreatorID != requesterID {
		return apperrors.ErrForbidden
	}

	if err := s.objects.Delete(ctx, image.StorageKey); err != nil {
		return err
	}

	if err := s.imageRepo.Delete(ctx, imageID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// deleted concurrently; the object is gone either way
			return err
		}
		log.Errorj(log.JSON{
			"message":     "image record delete failed after object was removed",
			"orphan":      events.OrphanRecord,
			"image_id":    imageID.String(),
			"storage_key": image.StorageKey,
			"error":       err.Error(),
		})
		s.publish(ctx, events.Event{
			Type:       events.ImageOrphaned,
			Kind:       events.OrphanRecord,
			ImageID:    imageID.String(),
			StorageKey: image.StorageKey,
			Reason:     err.Error(),
		})
		return err
	}

	s.publish(ctx, events.Event{
		Type:       events.ImageDeleted,
		ImageID:    imageID.String(),
		UserID:     requesterID.String(),
		StorageKey: image.StorageKey,
	})
	return nil
}

func (s *imageService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warnf("publish %s: %v", event.Type, err)
	}
}

func validateLocation(loc *model.Location) error {
	if loc == nil {
		return nil
	}
	if loc.Latitude != nil && (*loc.Latitude < -90 || *loc.Latitude > 90) {
		return fmt.Errorf("%w: latitude must be between -90 and 90", apperrors.ErrValidation)
	}
	if loc.Longitude != nil && (*loc.Longitude < -180 || *loc.Longitude > 180) {
		return fmt.Errorf("%w: longitude must be between -180 and 180", apperrors.ErrValidation)
	}
	return nil
}

// cleanTags trims tags and drops empty ones, keeping order.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
