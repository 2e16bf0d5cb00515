package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	adminsvc "nexar-backend/internal/application/admin"
	policies "nexar-backend/internal/application/policies/user"
	"nexar-backend/internal/middleware"
	"nexar-backend/internal/pkg/response"
	"nexar-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers serve the admin dashboard. Every route except Check sits behind AuthorizePermission.
type Handlers struct {
	Service *adminsvc.Service
}

// Check GET /api/v1/admin/check: {is_admin} for any authenticated caller.
func (h *Handlers) Check(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	ok, err := h.Service.IsAdmin(c.UserContext(), u.UserID)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Admin check", fiber.Map{"is_admin": ok}, nil)
}

// GET /api/v1/admin/listings?search=&status=
func (h *Handlers) Listings(c *fiber.Ctx) error {
	ls, err := h.Service.GetAllListings(c.UserContext(), c.Query("search"), c.Query("status", "all"))
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listings fetched", ls, fiber.Map{"count": len(ls)})
}

// GET /api/v1/admin/users?search=&seller_type=
func (h *Handlers) Users(c *fiber.Ctx) error {
	ps, err := h.Service.GetAllUsers(c.UserContext(), c.Query("search"), c.Query("seller_type", "all"))
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Users fetched", ps, fiber.Map{"count": len(ps)})
}

// PATCH /api/v1/admin/listings/:id/status {status}
func (h *Handlers) UpdateListingStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil || body.Status == "" {
		return response.Error(c, "status is required", fiber.StatusBadRequest, nil)
	}
	actor, err := h.actor(c)
	if err != nil {
		return fail(c, err)
	}
	l, err := h.Service.UpdateListingStatus(c.UserContext(), actor, id, body.Status)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listing status updated", l, nil)
}

// PUT /api/v1/admin/listings/:id: admin edit of any listing field.
func (h *Handlers) UpdateListing(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	actor, err := h.actor(c)
	if err != nil {
		return fail(c, err)
	}
	l, err := h.Service.UpdateListing(c.UserContext(), actor, id, body)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listing updated successfully", l, nil)
}

// DELETE /api/v1/admin/listings/:id
func (h *Handlers) DeleteListing(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	actor, err := h.actor(c)
	if err != nil {
		return fail(c, err)
	}
	if err := h.Service.DeleteListing(c.UserContext(), actor, id); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listing deleted successfully", fiber.Map{"id": id}, nil)
}

// GET /api/v1/admin/listings/:id/events
func (h *Handlers) ListingEvents(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	events, err := h.Service.ListingEvents(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listing events fetched", events, nil)
}

// PATCH /api/v1/admin/users/:user_id/status {suspended}
func (h *Handlers) ToggleUserStatus(c *fiber.Ctx) error {
	target, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return response.Error(c, "Invalid user id", fiber.StatusBadRequest, nil)
	}
	var body struct {
		Suspended *bool `json:"suspended"`
	}
	if err := c.BodyParser(&body); err != nil || body.Suspended == nil {
		return response.Error(c, "suspended is required", fiber.StatusBadRequest, nil)
	}
	actor, err := h.actor(c)
	if err != nil {
		return fail(c, err)
	}
	p, err := h.Service.ToggleUserStatus(c.UserContext(), actor, target, *body.Suspended)
	if err != nil {
		return fail(c, err)
	}
	msg := "User reinstated"
	if p.Suspended {
		msg = "User suspended"
	}
	return response.Success(c, msg, p, nil)
}

// DELETE /api/v1/admin/users/:user_id
func (h *Handlers) DeleteUser(c *fiber.Ctx) error {
	target, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return response.Error(c, "Invalid user id", fiber.StatusBadRequest, nil)
	}
	actor, err := h.actor(c)
	if err != nil {
		return fail(c, err)
	}
	if err := h.Service.DeleteUser(c.UserContext(), actor, target); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "User deleted successfully", fiber.Map{"user_id": target}, nil)
}

// GET /api/v1/admin/stats
func (h *Handlers) Stats(c *fiber.Ctx) error {
	st, err := h.Service.Stats(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Stats fetched", st, nil)
}

// GET /api/v1/admin/export/listings.xlsx
func (h *Handlers) ExportListings(c *fiber.Ctx) error {
	return h.sendWorkbook(c, "nexar-listings", func(ctx context.Context, w io.Writer) error {
		return h.Service.ExportListings(ctx, w, c.Query("search"), c.Query("status", "all"))
	})
}

// GET /api/v1/admin/export/users.xlsx
func (h *Handlers) ExportUsers(c *fiber.Ctx) error {
	return h.sendWorkbook(c, "nexar-users", func(ctx context.Context, w io.Writer) error {
		return h.Service.ExportUsers(ctx, w, c.Query("search"), c.Query("seller_type", "all"))
	})
}

func (h *Handlers) sendWorkbook(c *fiber.Ctx, name string, write func(context.Context, io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(c.UserContext(), &buf); err != nil {
		return fail(c, err)
	}
	c.Attachment(name + "-" + time.Now().UTC().Format("20060102") + ".xlsx")
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(buf.Bytes())
}

func (h *Handlers) actor(c *fiber.Ctx) (adminsvc.Actor, error) {
	u := middleware.CurrentUser(c)
	if u == nil {
		return adminsvc.Actor{}, adminsvc.ErrUserNotFound
	}
	return h.Service.ActorFor(c.UserContext(), u.UserID)
}

func fail(c *fiber.Ctx, err error) error {
	var verr validation.Errors
	switch {
	case errors.As(err, &verr):
		return response.ValidationFailed(c, verr)
	case errors.Is(err, adminsvc.ErrListingNotFound), errors.Is(err, adminsvc.ErrUserNotFound),
		errors.Is(err, policies.ErrTargetUserNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, adminsvc.ErrInvalidStatus), errors.Is(err, adminsvc.ErrNoUpdateFields):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, policies.ErrCannotModerateYourself), errors.Is(err, policies.ErrAdminsCannotModerateAdmins):
		return response.Forbidden(c, err.Error())
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("admin: request failed")
	return response.InternalError(c)
}
