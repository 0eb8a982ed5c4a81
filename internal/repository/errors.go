package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "mediashare/internal/errors"
)

// translate maps GORM failures onto the domain error taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrNotFound
	default:
		return fmt.Errorf("%w: %v", apperrors.ErrMetadataUnavailable, err)
	}
}
