package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nexar-backend/internal/domain"
	"nexar-backend/internal/pkg/constants"
	"nexar-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrMissingUserID   = errors.New("Missing user ID")
	ErrNoUpdateFields  = errors.New("No valid update fields provided")
	ErrProfileNotFound = errors.New("Profile not found")
)

type Service struct {
	DB *gorm.DB
}

// updatable lists the profile columns a user may change on their own profile.
var updatable = map[string]bool{
	"name": true, "phone": true, "location": true, "avatar_url": true, "seller_type": true,
}

// GetProfile returns the profile of the auth identity userID.
func (s *Service) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	var p domain.Profile
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &p, nil
}

// UpdateProfile applies the allowed fields. Unknown keys are ignored; string values are trimmed.
func (s *Service) UpdateProfile(ctx context.Context, userID string, fields map[string]interface{}) (*domain.Profile, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, ErrMissingUserID
	}

	upd := map[string]interface{}{}
	errs := validation.Errors{}
	for k, v := range fields {
		if !updatable[k] {
			continue
		}
		str, ok := v.(string)
		if !ok {
			errs.Add(k, "Must be a string")
			continue
		}
		upd[k] = strings.TrimSpace(str)
	}
	if len(upd) == 0 && len(errs) == 0 {
		return nil, ErrNoUpdateFields
	}

	if name, ok := upd["name"].(string); ok {
		if name == "" {
			errs.Add("name", "Name is required")
		} else if !validation.IsValidName(name) {
			errs.Add("name", "Name contains invalid characters")
		}
	}
	if st, ok := upd["seller_type"].(string); ok {
		st = strings.ToLower(st)
		if !constants.IsValidSellerType(st) {
			errs.Add("seller_type", "Seller type must be individual or dealer")
		}
		upd["seller_type"] = st
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	upd["updated_at"] = time.Now().UTC()

	result := s.DB.WithContext(ctx).Model(&domain.Profile{}).Where("user_id = ?", userID).Updates(upd)
	if result.Error != nil {
		return nil, fmt.Errorf("update profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrProfileNotFound
	}
	return s.GetProfile(ctx, userID)
}
