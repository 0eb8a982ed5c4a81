package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "mediashare/internal/errors"
	"mediashare/internal/model"
)

// ImageRepository defines image metadata persistence operations.
type ImageRepository interface {
	Create(ctx context.Context, image *model.Image) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Image, error)
	FindByCreator(ctx context.Context, creatorID uuid.UUID) ([]model.Image, error)
	FindAll(ctx context.Context) ([]model.Image, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// UpdateLikes sets likes to next only if it still equals expected.
	// A lost race reports (false, nil), not an error.
	UpdateLikes(ctx context.Context, id uuid.UUID, expected, next int64) (bool, error)
	StorageKeys(ctx context.Context) ([]string, error)
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository creates a new image repository.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

// Create creates a new image record.
func (r *imageRepository) Create(ctx context.Context, image *model.Image) error {
	return translate(r.db.WithContext(ctx).Create(image).Error)
}

// FindByID finds an image by ID.
func (r *imageRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Image, error) {
	var image model.Image
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&image).Error; err != nil {
		return nil, translate(err)
	}
	return &image, nil
}

// FindByCreator lists a creator's images, newest first.
func (r *imageRepository) FindByCreator(ctx context.Context, creatorID uuid.UUID) ([]model.Image, error) {
	images := []model.Image{}
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").Order("id DESC").
		Find(&images).Error
	if err != nil {
		return nil, translate(err)
	}
	return images, nil
}

// FindAll lists every image, newest first.
func (r *imageRepository) FindAll(ctx context.Context) ([]model.Image, error) {
	images := []model.Image{}
	err := r.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Find(&images).Error
	if err != nil {
		return nil, translate(err)
	}
	return images, nil
}

// Delete removes an image record.
func (r *imageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Image{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *imageRepository) UpdateLikes(ctx context.Context, id uuid.UUID, expected, next int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Image{}).
		Where("id = ? AND likes = ?", id, expected).
		Update("likes", next)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// StorageKeys returns the storage key of every image record.
func (r *imageRepository) StorageKeys(ctx context.Context) ([]string, error) {
	keys := []string{}
	if err := r.db.WithContext(ctx).Model(&model.Image{}).Pluck("storage_key", &keys).Error; err != nil {
		return nil, translate(err)
	}
	return keys, nil
}
