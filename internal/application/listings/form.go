package listings

import (
	"regexp"
	"strconv"
	"strings"

	"nexar-backend/internal/pkg/constants"
	"nexar-backend/internal/pkg/validation"
)

var leadingFloatRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseLeadingFloat reads the decimal prefix of s after trimming ("15000 EUR" -> 15000).
func ParseLeadingFloat(s string) (float64, bool) {
	m := leadingFloatRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// EditForm is the owner edit form as submitted: every field is the raw input string.
type EditForm struct {
	Title       string
	Price       string
	Description string
	Mileage     string
	Year        string
	Location    string
	Condition   string
}

// ListingInput is a full listing as created by its owner or edited by an admin.
// Nil numeric pointers mean "not provided".
type ListingInput struct {
	Title          string
	Description    string
	Price          *float64
	Year           *int
	Mileage        *int
	EngineCapacity *int
	Category       string
	Brand          string
	Model          string
	FuelType       string
	Transmission   string
	Condition      string
	Color          string
	Location       string
	Images         []string
}

// Normalize trims the free-text fields and lower-cases the option fields.
func (in *ListingInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Brand = strings.TrimSpace(in.Brand)
	in.Model = strings.TrimSpace(in.Model)
	in.FuelType = strings.ToLower(strings.TrimSpace(in.FuelType))
	in.Transmission = strings.ToLower(strings.TrimSpace(in.Transmission))
	in.Condition = strings.ToLower(strings.TrimSpace(in.Condition))
	in.Color = strings.TrimSpace(in.Color)
	in.Location = strings.TrimSpace(in.Location)
}

// Validate checks required fields and option lists. errs may already hold entries.
func (in *ListingInput) Validate(errs validation.Errors) {
	if in.Title == "" {
		errs.Add("title", "Title is required")
	}
	if in.Description == "" {
		errs.Add("description", "Description is required")
	}
	if in.Price == nil {
		errs.Add("price", "Price is required")
	} else if *in.Price < 0 {
		errs.Add("price", "Price must not be negative")
	}
	if in.Category == "" {
		errs.Add("category", "Category is required")
	} else if !constants.IsValidCategory(in.Category) {
		errs.Add("category", "Unknown category")
	}
	if in.Brand == "" {
		errs.Add("brand", "Brand is required")
	}
	if in.Model == "" {
		errs.Add("model", "Model is required")
	}
	if in.Year == nil || *in.Year <= 0 {
		errs.Add("year", "Year is required")
	}
	if in.Mileage != nil && *in.Mileage < 0 {
		errs.Add("mileage", "Mileage must not be negative")
	}
	if !constants.IsValidFuelType(in.FuelType) {
		errs.Add("fuel_type", "Unknown fuel type")
	}
	if !constants.IsValidTransmission(in.Transmission) {
		errs.Add("transmission", "Unknown transmission")
	}
	if !constants.IsValidCondition(in.Condition) {
		errs.Add("condition", "Unknown condition")
	}
}

// FormOptions are the option lists the listing forms render.
type FormOptions struct {
	Categories    []string `json:"categories"`
	FuelTypes     []string `json:"fuel_types"`
	Transmissions []string `json:"transmissions"`
	Conditions    []string `json:"conditions"`
	Cities        []string `json:"cities"`
	Statuses      []string `json:"statuses"`
}

func Options() FormOptions {
	return FormOptions{
		Categories:    constants.Categories,
		FuelTypes:     constants.FuelTypes,
		Transmissions: constants.Transmissions,
		Conditions:    constants.Conditions,
		Cities:        constants.Cities,
		Statuses:      constants.ListingStatuses,
	}
}
