package uploads

import (
	"errors"

	uploadsvc "nexar-backend/internal/application/uploads"
	"nexar-backend/internal/middleware"
	"nexar-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers bundles upload handlers with the service.
type Handlers struct {
	Service *uploadsvc.Service
}

type uploadRequest struct {
	FileName string `json:"file_name"`
}

// UploadListingImage POST /api/v1/uploads/listing-image: signed upload URL for one listing photo.
func (h *Handlers) UploadListingImage(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req uploadRequest
	if err := c.BodyParser(&req); err != nil || req.FileName == "" {
		return response.Error(c, "file_name is required", fiber.StatusBadRequest, nil)
	}

	res, err := h.Service.GetSignedUploadURL(c.UserContext(), u.UserID, req.FileName)
	if err != nil {
		if errors.Is(err, uploadsvc.ErrFileNameRequired) {
			return response.Error(c, "file_name is required", fiber.StatusBadRequest, nil)
		}
		log.Error().Err(err).Str("bucket", h.Service.Bucket).Msg("upload: failed to generate signed URL")
		return response.Error(c, "Failed to generate upload URL", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Upload URL generated", res, nil)
}
