package policies

import (
	"context"
	"errors"
	"fmt"

	"nexar-backend/internal/domain"
	"nexar-backend/internal/middleware"
	"nexar-backend/internal/pkg/constants"

	"gorm.io/gorm"
)

// ProfileRoleResolver derives the caller's role from the profiles table on every request, so a
// suspension or admin revocation takes effect without waiting for the session to expire.
type ProfileRoleResolver struct {
	DB *gorm.DB
}

func (r *ProfileRoleResolver) ResolveRole(ctx context.Context, userID string) (string, error) {
	var p domain.Profile
	if err := r.DB.WithContext(ctx).Select("is_admin", "suspended").Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", middleware.ErrUnknownAccount
		}
		return "", fmt.Errorf("resolve role: %w", err)
	}
	return RoleOf(&p), nil
}

// RoleOf maps a profile to its role. Suspension overrides admin.
func RoleOf(p *domain.Profile) string {
	switch {
	case p.Suspended:
		return constants.RoleSuspended
	case p.IsAdmin:
		return constants.RoleAdmin
	default:
		return constants.RoleUser
	}
}
