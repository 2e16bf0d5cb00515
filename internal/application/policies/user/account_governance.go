package policies

import (
	"context"
	"errors"
	"fmt"

	"nexar-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidateAccountModeration checks that actor may suspend, reinstate or delete target.
// An admin may not act on their own account nor on another admin. Returns the target profile.
func ValidateAccountModeration(ctx context.Context, db *gorm.DB, actorUserID, targetUserID uuid.UUID) (*domain.Profile, error) {
	if actorUserID == targetUserID {
		return nil, ErrCannotModerateYourself
	}
	var target domain.Profile
	if err := db.WithContext(ctx).Where("user_id = ?", targetUserID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTargetUserNotFound
		}
		return nil, fmt.Errorf("load target profile: %w", err)
	}
	if target.IsAdmin {
		return nil, ErrAdminsCannotModerateAdmins
	}
	return &target, nil
}
