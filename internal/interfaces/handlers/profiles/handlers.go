package profiles

import (
	"encoding/json"
	"errors"

	profilesvc "nexar-backend/internal/application/profiles"
	"nexar-backend/internal/middleware"
	"nexar-backend/internal/pkg/response"
	"nexar-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *profilesvc.Service
}

// GetProfile GET /api/v1/profile
func (h *Handlers) GetProfile(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	p, err := h.Service.GetProfile(c.UserContext(), u.UserID)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Profile fetched", p, nil)
}

// UpdateProfile PUT /api/v1/profile: refreshes the session summary with the new name and seller type.
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body map[string]interface{}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.UpdateProfile(c.UserContext(), u.UserID, body)
	if err != nil {
		return fail(c, err)
	}
	if middleware.GetSessionID(c) != "" {
		u.Name = p.Name
		u.SellerType = p.SellerType
		middleware.SetSessionUser(c, *u)
	}
	return response.Success(c, "Profile updated", p, nil)
}

func fail(c *fiber.Ctx, err error) error {
	var verr validation.Errors
	switch {
	case errors.As(err, &verr):
		return response.ValidationFailed(c, verr)
	case errors.Is(err, profilesvc.ErrProfileNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, profilesvc.ErrNoUpdateFields), errors.Is(err, profilesvc.ErrMissingUserID):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("profiles: request failed")
	return response.InternalError(c)
}
