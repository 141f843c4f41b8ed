package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodshare-backend/pkg/enums"
)

// Listing represents a single food-sharing offer.
//
// owner_id and the status/request columns are engine-managed: the general
// update path never touches them. requester_email, request_date, and
// request_notes are set in the same statement that flips status to
// requested, and cleared nowhere (a delete removes the row entirely).
type Listing struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID     uuid.UUID           `gorm:"column:owner_id;type:uuid;not null;index"`
	OwnerEmail  string              `gorm:"column:owner_email;not null"`
	Title       string              `gorm:"column:title;not null"`
	Description *string             `gorm:"column:description"`
	Quantity    string              `gorm:"column:quantity;not null;default:''"`
	Location    *string             `gorm:"column:location"`
	ImageURL    *string             `gorm:"column:image_url"`
	Expiry      *time.Time          `gorm:"column:expiry"`
	Tags        pq.StringArray      `gorm:"column:tags;type:text[]"`
	Status      enums.ListingStatus `gorm:"column:status;not null;default:'available';index"`

	RequesterEmail *string    `gorm:"column:requester_email"`
	RequestDate    *time.Time `gorm:"column:request_date"`
	RequestNotes   *string    `gorm:"column:request_notes"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the listing id when the caller did not.
func (l *Listing) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
