package listings

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	listsvc "nexar-backend/internal/application/listings"
	"nexar-backend/internal/middleware"
	"nexar-backend/internal/pkg/response"
	"nexar-backend/internal/pkg/search"
	"nexar-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxLimit = 100

type Handlers struct {
	Service *listsvc.Service
}

// GET /api/v1/listings: public search over active listings.
func (h *Handlers) Browse(c *fiber.Ctx) error {
	q := search.ListingQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Location: c.Query("location"),
		MinPrice: c.Query("min_price"),
		MaxPrice: c.Query("max_price"),
		SortBy:   c.Query("sort"),
		SortDesc: !strings.EqualFold(c.Query("order"), "asc"),
	}
	if q.SortBy != "" && !search.IsSortField(q.SortBy) {
		return response.Error(c, "Invalid sort field", fiber.StatusBadRequest, nil)
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		q.Limit = n
		if q.Limit > maxLimit {
			q.Limit = maxLimit
		}
	}
	ls, err := h.Service.Browse(c.UserContext(), q)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listings fetched", ls, fiber.Map{"count": len(ls)})
}

// GET /api/v1/listings/options: option lists for the listing forms.
func (h *Handlers) Options(c *fiber.Ctx) error {
	return response.Success(c, "Listing options", listsvc.Options(), nil)
}

// GET /api/v1/listings/:id: public detail; hidden listings only for owner or admin.
func (h *Handlers) GetListing(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	viewer := ""
	if u := middleware.CurrentUser(c); u != nil {
		viewer = u.UserID
	}
	detail, err := h.Service.GetListing(c.UserContext(), id, viewer)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listing fetched", detail, nil)
}

// GET /api/v1/listings/mine
func (h *Handlers) Mine(c *fiber.Ctx) error {
	sellerID, err := h.sellerID(c)
	if err != nil {
		return fail(c, err)
	}
	ls, err := h.Service.MyListings(c.UserContext(), sellerID)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Your listings", ls, fiber.Map{"count": len(ls)})
}

// POST /api/v1/listings
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body CreateListingRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	sellerID, err := h.sellerID(c)
	if err != nil {
		return fail(c, err)
	}
	l, err := h.Service.CreateListing(c.UserContext(), sellerID, body.Input())
	if err != nil {
		return fail(c, err)
	}
	return response.SuccessCreated(c, "Listing created successfully", l, nil)
}

// GET /api/v1/listings/:id/edit: owner-only load for the edit form.
func (h *Handlers) GetForEdit(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	sellerID, err := h.sellerID(c)
	if err != nil {
		return fail(c, err)
	}
	l, err := h.Service.GetForEdit(c.UserContext(), id, sellerID)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listing fetched", fiber.Map{"listing": l, "options": listsvc.Options()}, nil)
}

// PUT /api/v1/listings/:id: edit form submit. Values may arrive as strings or numbers.
func (h *Handlers) Edit(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	sellerID, err := h.sellerID(c)
	if err != nil {
		return fail(c, err)
	}
	l, err := h.Service.EditListing(c.UserContext(), id, sellerID, listsvc.EditForm{
		Title:       asString(body["title"]),
		Price:       asString(body["price"]),
		Description: asString(body["description"]),
		Mileage:     asString(body["mileage"]),
		Year:        asString(body["year"]),
		Location:    asString(body["location"]),
		Condition:   asString(body["condition"]),
	})
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listing updated successfully", l, nil)
}

// DELETE /api/v1/listings/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	sellerID, err := h.sellerID(c)
	if err != nil {
		return fail(c, err)
	}
	if err := h.Service.DeleteListing(c.UserContext(), id, sellerID); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listing deleted successfully", fiber.Map{"id": id}, nil)
}

// CreateListingRequest is the create body.
type CreateListingRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Price          *float64 `json:"price"`
	Year           *int     `json:"year"`
	Mileage        *int     `json:"mileage"`
	EngineCapacity *int     `json:"engine_capacity"`
	Category       string   `json:"category"`
	Brand          string   `json:"brand"`
	Model          string   `json:"model"`
	FuelType       string   `json:"fuel_type"`
	Transmission   string   `json:"transmission"`
	Condition      string   `json:"condition"`
	Color          string   `json:"color"`
	Location       string   `json:"location"`
	Images         []string `json:"images"`
}

func (r CreateListingRequest) Input() listsvc.ListingInput {
	return listsvc.ListingInput{
		Title:          r.Title,
		Description:    r.Description,
		Price:          r.Price,
		Year:           r.Year,
		Mileage:        r.Mileage,
		EngineCapacity: r.EngineCapacity,
		Category:       r.Category,
		Brand:          r.Brand,
		Model:          r.Model,
		FuelType:       r.FuelType,
		Transmission:   r.Transmission,
		Condition:      r.Condition,
		Color:          r.Color,
		Location:       r.Location,
		Images:         r.Images,
	}
}

func (h *Handlers) sellerID(c *fiber.Ctx) (uuid.UUID, error) {
	u := middleware.CurrentUser(c)
	if u == nil {
		return uuid.Nil, listsvc.ErrProfileNotFound
	}
	return h.Service.SellerID(c.UserContext(), u.UserID)
}

func fail(c *fiber.Ctx, err error) error {
	var verr validation.Errors
	switch {
	case errors.As(err, &verr):
		return response.ValidationFailed(c, verr)
	case errors.Is(err, listsvc.ErrListingNotFound), errors.Is(err, listsvc.ErrProfileNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, listsvc.ErrCannotEdit), errors.Is(err, listsvc.ErrCannotDelete):
		return response.Forbidden(c, err.Error())
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("listings: request failed")
	return response.InternalError(c)
}

// asString renders a JSON value the way a form field would hold it.
func asString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprintf("%v", v)
}
