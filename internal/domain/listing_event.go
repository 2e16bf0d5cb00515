package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ListingEventCreated       = "CREATED"
	ListingEventUpdated       = "UPDATED"
	ListingEventStatusChanged = "STATUS_CHANGED"
	ListingEventDeleted       = "DELETED"
)

// ListingEvent is the append-only audit trail for listing mutations (table "listing_events").
type ListingEvent struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ListingID      uuid.UUID      `gorm:"column:listing_id;type:uuid;not null;index" json:"listing_id"`
	EventType      string         `gorm:"column:event_type;type:varchar(20);not null" json:"event_type"`
	EventData      datatypes.JSON `gorm:"column:event_data" json:"event_data"`
	ActorProfileID *uuid.UUID     `gorm:"column:actor_profile_id;type:uuid" json:"actor_profile_id"`
	CreatedAt      time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (ListingEvent) TableName() string {
	return "listing_events"
}

func (e *ListingEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// NewListingEvent builds an event row; actor may be uuid.Nil for system actions.
func NewListingEvent(listingID uuid.UUID, eventType string, actor uuid.UUID, data map[string]interface{}) *ListingEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	b, _ := json.Marshal(data)
	ev := &ListingEvent{
		ListingID: listingID,
		EventType: eventType,
		EventData: datatypes.JSON(b),
	}
	if actor != uuid.Nil {
		a := actor
		ev.ActorProfileID = &a
	}
	return ev
}

// Models lists every table managed by AutoMigrate.
func Models() []interface{} {
	return []interface{}{&User{}, &Profile{}, &Listing{}, &ListingEvent{}}
}
