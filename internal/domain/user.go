package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the authentication identity (table "users"). Email is stored lower-cased.
type User struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email            string     `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash     string     `gorm:"column:password_hash;not null" json:"-"`
	EmailConfirmedAt *time.Time `gorm:"column:email_confirmed_at" json:"email_confirmed_at"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Confirmed reports whether the email address was verified.
func (u *User) Confirmed() bool {
	return u.EmailConfirmedAt != nil
}
