package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile is the public-facing account record (table "profiles"). Listings reference Profile.ID.
type Profile struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex" json:"user_id"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	Email      string    `gorm:"column:email;not null" json:"email"`
	Phone      string    `gorm:"column:phone" json:"phone"`
	Location   string    `gorm:"column:location" json:"location"`
	AvatarURL  string    `gorm:"column:avatar_url" json:"avatar_url"`
	SellerType string    `gorm:"column:seller_type;type:varchar(20);not null;default:'individual'" json:"seller_type"`
	IsAdmin    bool      `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	Suspended  bool      `gorm:"column:suspended;not null;default:false" json:"suspended"`
	Verified   bool      `gorm:"column:verified;not null;default:false" json:"verified"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
