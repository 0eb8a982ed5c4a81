package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "mediashare/internal/errors"
	"mediashare/internal/middleware"
	"mediashare/internal/model"
	"mediashare/internal/service"
)

// CreatorHandler serves the creator-only image endpoints.
type CreatorHandler struct {
	imageService service.ImageService
}

// NewCreatorHandler creates a new creator handler.
func NewCreatorHandler(imageService service.ImageService) *CreatorHandler {
	return &CreatorHandler{imageService: imageService}
}

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	Message string       `json:"message"`
	Image   *model.Image `json:"image"`
}

// Upload godoc
// @Summary Upload an image
// @Tags creator
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image file (max 5 MiB)"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param location formData string false "Location as JSON {name,latitude,longitude} or free text"
// @Param tags formData []string false "Tags, repeated or as a JSON array"
// @Param metadata formData string false "Free-form JSON object"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 413 {object} errors.ErrorResponse
// @Failure 415 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /creator/upload [post]
func (h *CreatorHandler) Upload(c echo.Context) error {
	creatorID, err := currentUser(c)
	if err != nil {
		return httpError(err)
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return httpError(fmt.Errorf("%w: image file is required", apperrors.ErrValidation))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return httpError(fmt.Errorf("%w: open upload: %v", apperrors.ErrValidation, err))
	}
	defer file.Close()

	location, err := parseLocation(c.FormValue("location"))
	if err != nil {
		return httpError(err)
	}
	tags, err := parseTags(c)
	if err != nil {
		return httpError(err)
	}
	metadata, err := parseMetadata(c.FormValue("metadata"))
	if err != nil {
		return httpError(err)
	}

	image, err := h.imageService.Upload(c.Request().Context(), service.UploadInput{
		CreatorID:   creatorID,
		FileName:    fileHeader.Filename,
		File:        file,
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Location:    location,
		Tags:        tags,
		Metadata:    metadata,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, UploadResponse{
		Message: "Image uploaded successfully",
		Image:   image,
	})
}

// MyImages godoc
// @Summary List the caller's images
// @Tags creator
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Image
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /creator/my-images [get]
func (h *CreatorHandler) MyImages(c echo.Context) error {
	creatorID, err := currentUser(c)
	if err != nil {
		return httpError(err)
	}

	images, err := h.imageService.ListByCreator(c.Request().Context(), creatorID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, images)
}

// DeleteImage godoc
// @Summary Delete one of the caller's images
// @Tags creator
// @Produce json
// @Security BearerAuth
// @Param id path string true "Image ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /creator/images/{id} [delete]
func (h *CreatorHandler) DeleteImage(c echo.Context) error {
	creatorID, err := currentUser(c)
	if err != nil {
		return httpError(err)
	}
	imageID, err := imageIDParam(c)
	if err != nil {
		return httpError(err)
	}

	if err := h.imageService.Delete(c.Request().Context(), creatorID, imageID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Image deleted successfully"})
}

func currentUser(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(middleware.UserID(c))
	if err != nil {
		return uuid.Nil, apperrors.ErrUnauthenticated
	}
	return id, nil
}

// imageIDParam parses :id. A malformed id cannot name an image, so it is NotFound.
func imageIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.ErrNotFound
	}
	return id, nil
}

// parseLocation accepts a JSON object or, failing that, a free-text place name.
func parseLocation(raw string) (*model.Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !strings.HasPrefix(raw, "{") {
		return &model.Location{Name: raw}, nil
	}
	var loc model.Location
	if err := json.Unmarshal([]byte(raw), &loc); err != nil {
		return nil, fmt.Errorf("%w: location must be a JSON object", apperrors.ErrValidation)
	}
	return &loc, nil
}

// parseTags accepts repeated "tags" fields or a single JSON array.
func parseTags(c echo.Context) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	values := form.Value["tags"]
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var tags []string
		if err := json.Unmarshal([]byte(values[0]), &tags); err != nil {
			return nil, fmt.Errorf("%w: tags must be a JSON array of strings", apperrors.ErrValidation)
		}
		return tags, nil
	}
	return values, nil
}

func parseMetadata(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var metadata map[string]any
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil, fmt.Errorf("%w: metadata must be a JSON object", apperrors.ErrValidation)
	}
	return metadata, nil
}
