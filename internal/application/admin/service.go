package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nexar-backend/internal/application/emails"
	"nexar-backend/internal/application/listings"
	policies "nexar-backend/internal/application/policies/user"
	"nexar-backend/internal/application/uploads"
	"nexar-backend/internal/domain"
	"nexar-backend/internal/pkg/constants"
	"nexar-backend/internal/pkg/search"
	"nexar-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service backs the admin dashboard. Callers are already authorized by the permission guard.
type Service struct {
	DB      *gorm.DB
	Rdb     *redis.Client
	Mailer  emails.Sender
	Cleaner uploads.ImageCleaner
	Now     func() time.Time
}

// Actor identifies the admin performing an action.
type Actor struct {
	UserID    uuid.UUID
	ProfileID uuid.UUID
}

// Stats are the dashboard counters.
type Stats struct {
	TotalListings  int64 `json:"total_listings"`
	ActiveListings int64 `json:"active_listings"`
	TotalUsers     int64 `json:"total_users"`
	Dealers        int64 `json:"dealers"`
	NewListings7d  int64 `json:"new_listings_7d"`
}

const newListingsWindow = 7 * 24 * time.Hour

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// ActorFor loads the acting admin's ids from their auth identity.
func (s *Service) ActorFor(ctx context.Context, userID string) (Actor, error) {
	var p domain.Profile
	if err := s.DB.WithContext(ctx).Select("id", "user_id").Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Actor{}, ErrUserNotFound
		}
		return Actor{}, fmt.Errorf("load profile: %w", err)
	}
	return Actor{UserID: p.UserID, ProfileID: p.ID}, nil
}

// IsAdmin reports whether userID belongs to a non-suspended admin. Unknown users are not admins.
func (s *Service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var p domain.Profile
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load profile: %w", err)
	}
	return policies.RoleOf(&p) == constants.RoleAdmin, nil
}

// GetAllListings returns every listing joined with its seller, newest first, filtered by term and status.
func (s *Service) GetAllListings(ctx context.Context, term, status string) ([]search.AdminListing, error) {
	var rows []search.AdminListing
	err := s.DB.WithContext(ctx).
		Table("listings").
		Select("listings.*, profiles.name AS seller_name, profiles.email AS seller_email").
		Joins("LEFT JOIN profiles ON profiles.id = listings.seller_id").
		Order("listings.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch listings: %w", err)
	}
	return search.FilterAdminListings(rows, term, status), nil
}

// GetAllUsers returns every profile, newest first, filtered by term and seller type.
func (s *Service) GetAllUsers(ctx context.Context, term, sellerType string) ([]domain.Profile, error) {
	var ps []domain.Profile
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&ps).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch users: %w", err)
	}
	return search.FilterProfiles(ps, term, sellerType), nil
}

// UpdateListingStatus sets any of the four statuses, from any status, on one listing.
func (s *Service) UpdateListingStatus(ctx context.Context, actor Actor, id uuid.UUID, status string) (*domain.Listing, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !constants.IsValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	return s.applyListingUpdate(ctx, actor, id, map[string]interface{}{"status": status})
}

// UpdateListing applies an admin edit. fields holds decoded JSON values; unknown keys are ignored.
func (s *Service) UpdateListing(ctx context.Context, actor Actor, id uuid.UUID, fields map[string]interface{}) (*domain.Listing, error) {
	upd, err := adminUpdates(fields)
	if err != nil {
		return nil, err
	}
	return s.applyListingUpdate(ctx, actor, id, upd)
}

func (s *Service) applyListingUpdate(ctx context.Context, actor Actor, id uuid.UUID, upd map[string]interface{}) (*domain.Listing, error) {
	upd["updated_at"] = s.now()
	var out domain.Listing
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var before domain.Listing
		if err := tx.Where("id = ?", id).First(&before).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return err
		}
		if err := tx.Model(&domain.Listing{}).Where("id = ?", id).Updates(upd).Error; err != nil {
			return err
		}
		if err := tx.Create(listingEvent(&before, upd, actor.ProfileID)).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&out).Error
	})
	if err != nil {
		if errors.Is(err, ErrListingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("Failed to update listing: %w", err)
	}
	return &out, nil
}

// listingEvent records a status-only change as STATUS_CHANGED and anything else as UPDATED.
func listingEvent(before *domain.Listing, upd map[string]interface{}, actor uuid.UUID) *domain.ListingEvent {
	if st, ok := upd["status"]; ok && len(upd) == 2 {
		return domain.NewListingEvent(before.ID, domain.ListingEventStatusChanged, actor, map[string]interface{}{
			"from": before.Status,
			"to":   st,
		})
	}
	data := map[string]interface{}{}
	for k, v := range upd {
		if k == "updated_at" {
			continue
		}
		data[k] = v
	}
	return domain.NewListingEvent(before.ID, domain.ListingEventUpdated, actor, data)
}

// DeleteListing removes any listing and schedules cleanup of its images.
func (s *Service) DeleteListing(ctx context.Context, actor Actor, id uuid.UUID) error {
	var images []string
	var ownerID string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var l domain.Listing
		if err := tx.Where("id = ?", id).First(&l).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return err
		}
		var seller domain.Profile
		if err := tx.Select("user_id").Where("id = ?", l.SellerID).First(&seller).Error; err == nil {
			ownerID = seller.UserID.String()
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		images = l.ImageURLs()
		if err := tx.Delete(&domain.Listing{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Create(domain.NewListingEvent(id, domain.ListingEventDeleted, actor.ProfileID, map[string]interface{}{
			"title": l.Title,
			"by":    "admin",
		})).Error
	})
	if err != nil {
		if errors.Is(err, ErrListingNotFound) {
			return err
		}
		return fmt.Errorf("Failed to delete listing: %w", err)
	}
	if ownerID != "" {
		s.cleanup(ctx, ownerID, images)
	}
	return nil
}

// ToggleUserStatus suspends or reinstates a user. Suspending destroys every session of the
// target and notifies them by email.
func (s *Service) ToggleUserStatus(ctx context.Context, actor Actor, targetUserID uuid.UUID, suspended bool) (*domain.Profile, error) {
	target, err := policies.ValidateAccountModeration(ctx, s.DB, actor.UserID, targetUserID)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&domain.Profile{}).Where("id = ?", target.ID).
		Updates(map[string]interface{}{"suspended": suspended, "updated_at": s.now()}).Error; err != nil {
		return nil, fmt.Errorf("Failed to update user status: %w", err)
	}
	target.Suspended = suspended

	if suspended {
		policies.DestroyUserSessions(ctx, s.Rdb, targetUserID.String())
		if s.Mailer != nil {
			if err := s.Mailer.SendAccountSuspended(ctx, target.Email, target.Name); err != nil {
				log.Warn().Err(err).Str("user_id", targetUserID.String()).Msg("admin: suspension email failed")
			}
		}
	}
	log.Info().
		Str("actor", actor.UserID.String()).
		Str("target", targetUserID.String()).
		Bool("suspended", suspended).
		Msg("admin: user status changed")
	return target, nil
}

// DeleteUser removes the user's listings, profile and auth identity in one transaction, then
// destroys their sessions and schedules cleanup of the listings' images.
func (s *Service) DeleteUser(ctx context.Context, actor Actor, targetUserID uuid.UUID) error {
	target, err := policies.ValidateAccountModeration(ctx, s.DB, actor.UserID, targetUserID)
	if err != nil {
		return err
	}

	var images []string
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []domain.Listing
		if err := tx.Where("seller_id = ?", target.ID).Find(&owned).Error; err != nil {
			return err
		}
		for i := range owned {
			images = append(images, owned[i].ImageURLs()...)
			if err := tx.Create(domain.NewListingEvent(owned[i].ID, domain.ListingEventDeleted, actor.ProfileID, map[string]interface{}{
				"title":  owned[i].Title,
				"reason": "account_deleted",
			})).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("seller_id = ?", target.ID).Delete(&domain.Listing{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.Profile{}, "id = ?", target.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.User{}, "id = ?", targetUserID).Error
	})
	if err != nil {
		return fmt.Errorf("Failed to delete user: %w", err)
	}

	policies.DestroyUserSessions(ctx, s.Rdb, targetUserID.String())
	s.cleanup(ctx, targetUserID.String(), images)
	log.Info().Str("actor", actor.UserID.String()).Str("target", targetUserID.String()).Msg("admin: user deleted")
	return nil
}

// Stats counts listings and users. New listings are those created in the last 7 days.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	db := s.DB.WithContext(ctx)
	since := s.now().Add(-newListingsWindow)

	var st Stats
	counts := []struct {
		dst   *int64
		model interface{}
		where []interface{}
	}{
		{&st.TotalListings, &domain.Listing{}, nil},
		{&st.ActiveListings, &domain.Listing{}, []interface{}{"status = ?", constants.StatusActive}},
		{&st.TotalUsers, &domain.Profile{}, nil},
		{&st.Dealers, &domain.Profile{}, []interface{}{"seller_type = ?", constants.SellerDealer}},
		{&st.NewListings7d, &domain.Listing{}, []interface{}{"created_at >= ?", since}},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if len(c.where) > 0 {
			q = q.Where(c.where[0], c.where[1:]...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("Failed to compute stats: %w", err)
		}
	}
	return &st, nil
}

// ListingEvents returns the audit trail of a listing, oldest first. Events outlive the listing.
func (s *Service) ListingEvents(ctx context.Context, listingID uuid.UUID) ([]domain.ListingEvent, error) {
	var events []domain.ListingEvent
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listingID).Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch listing events: %w", err)
	}
	return events, nil
}

// SetAdmin grants or revokes admin on the profile of the account with email.
func (s *Service) SetAdmin(ctx context.Context, email string, admin bool) (*domain.Profile, error) {
	email = validation.NormalizeEmail(email)
	var p domain.Profile
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if err := s.DB.WithContext(ctx).Model(&p).Update("is_admin", admin).Error; err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	p.IsAdmin = admin
	return &p, nil
}

func (s *Service) cleanup(ctx context.Context, ownerID string, images []string) {
	if s.Cleaner == nil || len(images) == 0 {
		return
	}
	if err := s.Cleaner.CleanupImages(ctx, ownerID, images); err != nil {
		log.Warn().Err(err).Int("count", len(images)).Msg("admin: image cleanup failed")
	}
}

var (
	adminStringFields = map[string]bool{
		"title": true, "description": true, "status": true, "category": true, "brand": true,
		"model": true, "fuel_type": true, "transmission": true, "condition": true, "color": true,
		"location": true,
	}
	adminIntFields = map[string]bool{"year": true, "mileage": true, "engine_capacity": true}
)

// adminUpdates validates an admin edit body into a column map.
func adminUpdates(fields map[string]interface{}) (map[string]interface{}, error) {
	upd := map[string]interface{}{}
	errs := validation.Errors{}
	for k, v := range fields {
		switch {
		case adminStringFields[k]:
			str, ok := v.(string)
			if !ok {
				errs.Add(k, "Must be a string")
				continue
			}
			upd[k] = strings.TrimSpace(str)
		case adminIntFields[k]:
			n, ok := toNumber(v)
			if !ok || n < 0 {
				errs.Add(k, "Must be a non-negative number")
				continue
			}
			upd[k] = int(n)
		case k == "price":
			n, ok := toNumber(v)
			if !ok {
				errs.Add("price", "Price must be a valid number")
				continue
			}
			if n < 0 {
				errs.Add("price", "Price must not be negative")
				continue
			}
			upd["price"] = n
		case k == "featured":
			b, ok := v.(bool)
			if !ok {
				errs.Add("featured", "Must be a boolean")
				continue
			}
			upd["featured"] = b
		}
	}
	if len(upd) == 0 && len(errs) == 0 {
		return nil, ErrNoUpdateFields
	}

	if t, ok := upd["title"].(string); ok && t == "" {
		errs.Add("title", "Title is required")
	}
	if d, ok := upd["description"].(string); ok && d == "" {
		errs.Add("description", "Description is required")
	}
	checkOption(upd, errs, "status", constants.IsValidStatus, "Invalid status")
	checkOption(upd, errs, "category", constants.IsValidCategory, "Unknown category")
	checkOption(upd, errs, "fuel_type", constants.IsValidFuelType, "Unknown fuel type")
	checkOption(upd, errs, "transmission", constants.IsValidTransmission, "Unknown transmission")
	checkOption(upd, errs, "condition", constants.IsValidCondition, "Unknown condition")
	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	return upd, nil
}

func checkOption(upd map[string]interface{}, errs validation.Errors, field string, valid func(string) bool, msg string) {
	v, ok := upd[field].(string)
	if !ok {
		return
	}
	v = strings.ToLower(v)
	upd[field] = v
	if !valid(v) {
		errs.Add(field, msg)
	}
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		return listings.ParseLeadingFloat(n)
	}
	return 0, false
}
