// Package search holds the in-memory filters used by the public browser and the admin dashboard.
// Every filter keeps input order unless a sort is requested, and never mutates its input.
package search

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"nexar-backend/internal/domain"
	"nexar-backend/internal/pkg/constants"
)

// Sortable listing fields.
const (
	SortCreatedAt = "created_at"
	SortPrice     = "price"
	SortYear      = "year"
	SortMileage   = "mileage"
	SortTitle     = "title"
)

// ListingQuery is the public browse filter. Empty fields do not filter.
type ListingQuery struct {
	Search   string
	Category string
	Location string
	MinPrice string
	MaxPrice string
	Status   string
	SortBy   string
	SortDesc bool
	Limit    int
}

// FilterListings returns the listings matching q. Min/max price bounds are read from their
// leading integer ("1500 EUR" -> 1500) and ignored when there is none. The search term is
// matched as typed, case-insensitively.
func FilterListings(listings []domain.Listing, q ListingQuery) []domain.Listing {
	term := strings.ToLower(q.Search)
	category := fold(q.Category)
	location := fold(q.Location)
	minPrice, hasMin := ParseLeadingInt(q.MinPrice)
	maxPrice, hasMax := ParseLeadingInt(q.MaxPrice)

	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if term != "" && !containsAny(term, l.Title, l.Brand, l.Model, l.Description) {
			continue
		}
		if category != "" && fold(l.Category) != category {
			continue
		}
		if location != "" && !strings.Contains(fold(l.Location), location) {
			continue
		}
		if hasMin && l.Price < float64(minPrice) {
			continue
		}
		if hasMax && l.Price > float64(maxPrice) {
			continue
		}
		if !statusMatches(l.Status, q.Status) {
			continue
		}
		out = append(out, l)
	}

	if q.SortBy != "" {
		SortListings(out, q.SortBy, q.SortDesc)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// SortListings sorts in place and is stable. Unknown fields fall back to created_at.
func SortListings(listings []domain.Listing, field string, desc bool) {
	less := func(a, b *domain.Listing) bool {
		switch field {
		case SortPrice:
			return a.Price < b.Price
		case SortYear:
			return a.Year < b.Year
		case SortMileage:
			return a.Mileage < b.Mileage
		case SortTitle:
			return fold(a.Title) < fold(b.Title)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(listings, func(i, j int) bool {
		if desc {
			return less(&listings[j], &listings[i])
		}
		return less(&listings[i], &listings[j])
	})
}

// IsSortField reports whether field can be passed to SortListings.
func IsSortField(field string) bool {
	switch field {
	case SortCreatedAt, SortPrice, SortYear, SortMileage, SortTitle:
		return true
	}
	return false
}

// AdminListing is a listing joined with its seller's display name.
type AdminListing struct {
	domain.Listing
	SellerName  string `json:"seller_name"`
	SellerEmail string `json:"seller_email"`
}

// FilterAdminListings matches search against title, seller name and listing id, and status
// exactly unless it is empty or "all".
func FilterAdminListings(listings []AdminListing, term, status string) []AdminListing {
	term = strings.ToLower(term)
	out := make([]AdminListing, 0, len(listings))
	for _, l := range listings {
		if term != "" && !containsAny(term, l.Title, l.SellerName, l.ID.String()) {
			continue
		}
		if !statusMatches(l.Status, status) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// FilterProfiles matches search against name and email, and seller type exactly unless empty or "all".
func FilterProfiles(profiles []domain.Profile, term, sellerType string) []domain.Profile {
	term = strings.ToLower(term)
	out := make([]domain.Profile, 0, len(profiles))
	for _, p := range profiles {
		if term != "" && !containsAny(term, p.Name, p.Email) {
			continue
		}
		if sellerType != "" && sellerType != constants.StatusAll && p.SellerType != sellerType {
			continue
		}
		out = append(out, p)
	}
	return out
}

func statusMatches(status, want string) bool {
	return want == "" || want == constants.StatusAll || status == want
}

func containsAny(term string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var leadingIntRe = regexp.MustCompile(`^[+-]?\d+`)

// ParseLeadingInt reads the integer prefix of s after trimming ("2015 model" -> 2015).
func ParseLeadingInt(s string) (int, bool) {
	m := leadingIntRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}
