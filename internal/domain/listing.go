package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Listing is one vehicle ad (table "listings").
type Listing struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	Description    string         `gorm:"column:description;type:text;not null" json:"description"`
	Price          float64        `gorm:"column:price;type:decimal(12,2);not null" json:"price"`
	Year           int            `gorm:"column:year" json:"year"`
	Mileage        int            `gorm:"column:mileage" json:"mileage"`
	EngineCapacity int            `gorm:"column:engine_capacity" json:"engine_capacity"`
	Category       string         `gorm:"column:category;type:varchar(40)" json:"category"`
	Brand          string         `gorm:"column:brand" json:"brand"`
	Model          string         `gorm:"column:model" json:"model"`
	FuelType       string         `gorm:"column:fuel_type;type:varchar(20)" json:"fuel_type"`
	Transmission   string         `gorm:"column:transmission;type:varchar(20)" json:"transmission"`
	Condition      string         `gorm:"column:condition;type:varchar(20)" json:"condition"`
	Color          string         `gorm:"column:color" json:"color"`
	Location       string         `gorm:"column:location" json:"location"`
	Images         datatypes.JSON `gorm:"column:images" json:"images"`
	Status         string         `gorm:"column:status;type:varchar(20);not null;default:'active';index" json:"status"`
	SellerID       uuid.UUID      `gorm:"column:seller_id;type:uuid;not null;index" json:"seller_id"`
	Featured       bool           `gorm:"column:featured;not null;default:false" json:"featured"`
	CreatedAt      time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (Listing) TableName() string {
	return "listings"
}

// BeforeCreate sets id if not already set and normalizes an empty image list to [].
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if len(l.Images) == 0 {
		l.Images = datatypes.JSON("[]")
	}
	return nil
}

// ImageURLs decodes the images column. A malformed column yields no images.
func (l *Listing) ImageURLs() []string {
	if len(l.Images) == 0 {
		return nil
	}
	var urls []string
	if err := json.Unmarshal(l.Images, &urls); err != nil {
		return nil
	}
	return urls
}

// SetImages replaces the images column, keeping order.
func (l *Listing) SetImages(urls []string) {
	if urls == nil {
		urls = []string{}
	}
	b, _ := json.Marshal(urls)
	l.Images = datatypes.JSON(b)
}
