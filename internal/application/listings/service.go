package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nexar-backend/internal/application/uploads"
	"nexar-backend/internal/domain"
	"nexar-backend/internal/pkg/constants"
	"nexar-backend/internal/pkg/search"
	"nexar-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Service struct {
	DB              *gorm.DB
	Cleaner         uploads.ImageCleaner
	Images          uploads.ImageOwnership
	RequireApproval bool
}

// SellerSummary is the public part of the seller's profile shown on a listing page.
type SellerSummary struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	SellerType string    `json:"seller_type"`
	Location   string    `json:"location"`
	Phone      string    `json:"phone"`
	Verified   bool      `json:"verified"`
	Since      time.Time `json:"member_since"`
}

// ListingDetail is one listing with its seller.
type ListingDetail struct {
	domain.Listing
	Seller *SellerSummary `json:"seller"`
}

// Browse returns active listings matching q, newest first unless q asks for another order.
func (s *Service) Browse(ctx context.Context, q search.ListingQuery) ([]domain.Listing, error) {
	var all []domain.Listing
	if err := s.DB.WithContext(ctx).
		Where("status = ?", constants.StatusActive).
		Order("created_at DESC").
		Find(&all).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch listings: %w", err)
	}
	q.Status = constants.StatusActive
	return search.FilterListings(all, q), nil
}

// GetListing returns a listing with its seller. Non-active listings are visible only to their
// owner and to admins; anyone else gets ErrListingNotFound.
func (s *Service) GetListing(ctx context.Context, id uuid.UUID, viewerUserID string) (*ListingDetail, error) {
	l, err := s.find(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	var seller domain.Profile
	sellerErr := s.DB.WithContext(ctx).Where("id = ?", l.SellerID).First(&seller).Error
	if sellerErr != nil && !errors.Is(sellerErr, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load seller: %w", sellerErr)
	}

	if l.Status != constants.StatusActive {
		ok, err := s.canSeeHidden(ctx, viewerUserID, l)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrListingNotFound
		}
	}

	detail := &ListingDetail{Listing: *l}
	if sellerErr == nil {
		detail.Seller = &SellerSummary{
			ID:         seller.ID,
			Name:       seller.Name,
			SellerType: seller.SellerType,
			Location:   seller.Location,
			Phone:      seller.Phone,
			Verified:   seller.Verified,
			Since:      seller.CreatedAt,
		}
	}
	return detail, nil
}

func (s *Service) canSeeHidden(ctx context.Context, viewerUserID string, l *domain.Listing) (bool, error) {
	if viewerUserID == "" {
		return false, nil
	}
	var viewer domain.Profile
	if err := s.DB.WithContext(ctx).Where("user_id = ?", viewerUserID).First(&viewer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load viewer: %w", err)
	}
	if viewer.ID == l.SellerID {
		return true, nil
	}
	return viewer.IsAdmin && !viewer.Suspended, nil
}

// CreateListing validates in and stores a new listing for the seller, with its CREATED event.
func (s *Service) CreateListing(ctx context.Context, sellerID uuid.UUID, in ListingInput) (*domain.Listing, error) {
	in.Normalize()
	errs := validation.Errors{}
	in.Validate(errs)
	if s.Images != nil && len(in.Images) > 0 {
		ownerID, err := s.ownerUserID(ctx, s.DB, sellerID)
		if err != nil {
			return nil, err
		}
		for _, u := range in.Images {
			if !s.Images.OwnedBy(ownerID, u) {
				errs.Add("images", "Images must be uploaded from your account")
				break
			}
		}
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	status := constants.StatusActive
	if s.RequireApproval {
		status = constants.StatusPending
	}
	listing := &domain.Listing{
		Title:        in.Title,
		Description:  in.Description,
		Price:        *in.Price,
		Year:         *in.Year,
		Category:     in.Category,
		Brand:        in.Brand,
		Model:        in.Model,
		FuelType:     in.FuelType,
		Transmission: in.Transmission,
		Condition:    in.Condition,
		Color:        in.Color,
		Location:     in.Location,
		Status:       status,
		SellerID:     sellerID,
	}
	if in.Mileage != nil {
		listing.Mileage = *in.Mileage
	}
	if in.EngineCapacity != nil {
		listing.EngineCapacity = *in.EngineCapacity
	}
	listing.SetImages(in.Images)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(listing).Error; err != nil {
			return err
		}
		return tx.Create(domain.NewListingEvent(listing.ID, domain.ListingEventCreated, sellerID, map[string]interface{}{
			"status": listing.Status,
			"price":  listing.Price,
		})).Error
	})
	if err != nil {
		return nil, fmt.Errorf("Failed to create listing: %w", err)
	}
	return listing, nil
}

// MyListings returns every listing of the seller, newest first.
func (s *Service) MyListings(ctx context.Context, sellerID uuid.UUID) ([]domain.Listing, error) {
	var out []domain.Listing
	if err := s.DB.WithContext(ctx).Where("seller_id = ?", sellerID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch listings: %w", err)
	}
	return out, nil
}

// GetForEdit loads a listing for its owner's edit form.
func (s *Service) GetForEdit(ctx context.Context, id, sellerID uuid.UUID) (*domain.Listing, error) {
	l, err := s.find(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if l.SellerID != sellerID {
		return nil, ErrCannotEdit
	}
	return l, nil
}

// ValidateEditForm checks the owner form: title, price and description are required and the
// price must start with a number.
func ValidateEditForm(f EditForm) error {
	errs := validation.Errors{}
	if strings.TrimSpace(f.Title) == "" {
		errs.Add("title", "Title is required")
	}
	if strings.TrimSpace(f.Price) == "" {
		errs.Add("price", "Price is required")
	} else if p, ok := ParseLeadingFloat(f.Price); !ok {
		errs.Add("price", "Price must be a valid number")
	} else if p < 0 {
		errs.Add("price", "Price must not be negative")
	}
	if strings.TrimSpace(f.Description) == "" {
		errs.Add("description", "Description is required")
	}
	if c := strings.TrimSpace(f.Condition); c != "" && !constants.IsValidCondition(c) {
		errs.Add("condition", "Unknown condition")
	}
	return errs.OrNil()
}

// editUpdates builds the column set for an owner edit. Year and mileage keep the stored value
// when the input does not parse or parses to 0; location and condition keep it when empty.
func editUpdates(f EditForm, original *domain.Listing, now time.Time) map[string]interface{} {
	price, _ := ParseLeadingFloat(f.Price)
	mileage, ok := search.ParseLeadingInt(f.Mileage)
	if !ok || mileage == 0 {
		mileage = original.Mileage
	}
	year, ok := search.ParseLeadingInt(f.Year)
	if !ok || year == 0 {
		year = original.Year
	}
	location := strings.TrimSpace(f.Location)
	if location == "" {
		location = original.Location
	}
	condition := strings.TrimSpace(f.Condition)
	if condition == "" {
		condition = original.Condition
	}
	return map[string]interface{}{
		"title":       strings.TrimSpace(f.Title),
		"price":       price,
		"description": strings.TrimSpace(f.Description),
		"mileage":     mileage,
		"year":        year,
		"location":    location,
		"condition":   condition,
		"updated_at":  now,
	}
}

// EditListing applies the owner edit form with a single UPDATE (last write wins) plus its
// UPDATED event. Ownership is checked before validation.
func (s *Service) EditListing(ctx context.Context, id, sellerID uuid.UUID, f EditForm) (*domain.Listing, error) {
	var updated domain.Listing
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		original, err := s.find(ctx, tx, id)
		if err != nil {
			return err
		}
		if original.SellerID != sellerID {
			return ErrCannotEdit
		}
		if err := ValidateEditForm(f); err != nil {
			return err
		}
		updates := editUpdates(f, original, time.Now().UTC())
		if err := tx.Model(&domain.Listing{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Create(domain.NewListingEvent(id, domain.ListingEventUpdated, sellerID, changedFields(original, updates))).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&updated).Error
	})
	if err != nil {
		var verr validation.Errors
		if errors.Is(err, ErrListingNotFound) || errors.Is(err, ErrCannotEdit) || errors.As(err, &verr) {
			return nil, err
		}
		return nil, fmt.Errorf("Failed to update listing: %w", err)
	}
	return &updated, nil
}

// DeleteListing removes the owner's listing, records a DELETED event and schedules cleanup of
// its images.
func (s *Service) DeleteListing(ctx context.Context, id, sellerID uuid.UUID) error {
	var images []string
	var ownerID string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l, err := s.find(ctx, tx, id)
		if err != nil {
			return err
		}
		if l.SellerID != sellerID {
			return ErrCannotDelete
		}
		if ownerID, err = s.ownerUserID(ctx, tx, sellerID); err != nil {
			return err
		}
		images = l.ImageURLs()
		if err := tx.Delete(&domain.Listing{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Create(domain.NewListingEvent(id, domain.ListingEventDeleted, sellerID, map[string]interface{}{
			"title": l.Title,
		})).Error
	})
	if err != nil {
		if errors.Is(err, ErrListingNotFound) || errors.Is(err, ErrCannotDelete) {
			return err
		}
		return fmt.Errorf("Failed to delete listing: %w", err)
	}
	s.cleanup(ctx, ownerID, images)
	return nil
}

func (s *Service) cleanup(ctx context.Context, ownerID string, images []string) {
	if s.Cleaner == nil || len(images) == 0 {
		return
	}
	if err := s.Cleaner.CleanupImages(ctx, ownerID, images); err != nil {
		log.Warn().Err(err).Int("count", len(images)).Msg("listings: image cleanup failed")
	}
}

// SellerID returns the profile id of the auth identity userID.
func (s *Service) SellerID(ctx context.Context, userID string) (uuid.UUID, error) {
	var p domain.Profile
	if err := s.DB.WithContext(ctx).Select("id").Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrProfileNotFound
		}
		return uuid.Nil, fmt.Errorf("load profile: %w", err)
	}
	return p.ID, nil
}

// ownerUserID returns the auth identity behind seller profile sellerID; uploads are keyed by it.
func (s *Service) ownerUserID(ctx context.Context, db *gorm.DB, sellerID uuid.UUID) (string, error) {
	var p domain.Profile
	if err := db.WithContext(ctx).Select("user_id").Where("id = ?", sellerID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrProfileNotFound
		}
		return "", fmt.Errorf("load profile: %w", err)
	}
	return p.UserID.String(), nil
}

func (s *Service) find(ctx context.Context, db *gorm.DB, id uuid.UUID) (*domain.Listing, error) {
	var l domain.Listing
	if err := db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &l, nil
}

// changedFields reports old/new pairs for the columns an update actually changes.
func changedFields(original *domain.Listing, updates map[string]interface{}) map[string]interface{} {
	before := map[string]interface{}{
		"title":       original.Title,
		"price":       original.Price,
		"description": original.Description,
		"mileage":     original.Mileage,
		"year":        original.Year,
		"location":    original.Location,
		"condition":   original.Condition,
		"status":      original.Status,
		"featured":    original.Featured,
	}
	out := map[string]interface{}{}
	for k, v := range updates {
		old, tracked := before[k]
		if !tracked || fmt.Sprint(old) == fmt.Sprint(v) {
			continue
		}
		out[k] = map[string]interface{}{"from": old, "to": v}
	}
	return out
}
