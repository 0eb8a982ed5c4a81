package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location is where an image was taken. Name is free text; coordinates are optional.
type Location struct {
	Name      string   `json:"name,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Image is the metadata record for one stored object. StorageKey and URL are
// immutable; Likes changes only through the conditional like update.
type Image struct {
	ID          uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	CreatorID   uuid.UUID      `json:"creatorId" gorm:"type:char(36);not null;index"`
	StorageKey  string         `json:"storageKey" gorm:"size:255;not null;uniqueIndex"`
	URL         string         `json:"url" gorm:"size:1024;not null"`
	ContentType string         `json:"contentType" gorm:"size:100"`
	Size        int64          `json:"size"`
	Title       string         `json:"title" gorm:"size:255;not null"`
	Description string         `json:"description,omitempty" gorm:"type:text"`
	Location    *Location      `json:"location,omitempty" gorm:"type:text;serializer:json"`
	Tags        []string       `json:"tags" gorm:"type:text;serializer:json"`
	Metadata    map[string]any `json:"metadata,omitempty" gorm:"type:text;serializer:json"`
	Likes       int64          `json:"likes" gorm:"not null;default:0"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Tags == nil {
		i.Tags = []string{}
	}
	return nil
}
