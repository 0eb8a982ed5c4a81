package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mediashare/internal/service"
)

// ConsumerHandler serves the consumer-only browsing endpoints.
type ConsumerHandler struct {
	imageService service.ImageService
	likeService  service.LikeService
}

// NewConsumerHandler creates a new consumer handler.
func NewConsumerHandler(imageService service.ImageService, likeService service.LikeService) *ConsumerHandler {
	return &ConsumerHandler{imageService: imageService, likeService: likeService}
}

// LikeResponse is the like count after a like.
type LikeResponse struct {
	ID    string `json:"id"`
	Likes int64  `json:"likes"`
}

// ListImages godoc
// @Summary List all images, newest first
// @Tags consumer
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Image
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /consumer/images [get]
func (h *ConsumerHandler) ListImages(c echo.Context) error {
	images, err := h.imageService.ListAll(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, images)
}

// LikeImage godoc
// @Summary Like an image
// @Tags consumer
// @Produce json
// @Security BearerAuth
// @Param id path string true "Image ID"
// @Success 200 {object} LikeResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /consumer/images/{id}/like [post]
func (h *ConsumerHandler) LikeImage(c echo.Context) error {
	imageID, err := imageIDParam(c)
	if err != nil {
		return httpError(err)
	}

	likes, err := h.likeService.Like(c.Request().Context(), imageID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, LikeResponse{ID: imageID.String(), Likes: likes})
}
