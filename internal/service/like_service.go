package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	apperrors "mediashare/internal/errors"
	"mediashare/internal/events"
	"mediashare/internal/repository"
)

// DefaultLikeMaxAttempts bounds the compare-and-swap loop of Like.
const DefaultLikeMaxAttempts = 5

// LikeService increments image like counters.
type LikeService interface {
	// Like adds one like and returns the new count.
	Like(ctx context.Context, imageID uuid.UUID) (int64, error)
}

type likeService struct {
	imageRepo   repository.ImageRepository
	publisher   events.Publisher
	maxAttempts int
}

// NewLikeService creates a like service. maxAttempts <= 0 selects DefaultLikeMaxAttempts.
func NewLikeService(imageRepo repository.ImageRepository, publisher events.Publisher, maxAttempts int) LikeService {
	if maxAttempts <= 0 {
		maxAttempts = DefaultLikeMaxAttempts
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &likeService{
		imageRepo:   imageRepo,
		publisher:   publisher,
		maxAttempts: maxAttempts,
	}
}

// Like reads the current count and swaps in count+1 only if nobody changed it
// meanwhile, re-reading on conflict. It gives up with ErrConflict after
// maxAttempts lost races.
func (s *likeService) Like(ctx context.Context, imageID uuid.UUID) (int64, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		image, err := s.imageRepo.FindByID(ctx, imageID)
		if err != nil {
			return 0, err
		}

		next := image.Likes + 1
		swapped, err := s.imageRepo.UpdateLikes(ctx, imageID, image.Likes, next)
		if err != nil {
			return 0, err
		}
		if swapped {
			if err := s.publisher.Publish(ctx, events.Event{
				Type:    events.ImageLiked,
				ImageID: imageID.String(),
				Likes:   &next,
			}); err != nil {
				log.Warnf("publish %s: %v", events.ImageLiked, err)
			}
			return next, nil
		}
		log.Debugf("like on %s lost race at %d (attempt %d)", imageID, image.Likes, attempt)
	}
	return 0, apperrors.ErrConflict
}
