package listings

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/foodshare-backend/pkg/db/models"
	"github.com/angelmondragon/foodshare-backend/pkg/enums"
)

// ListingDTO is the transport shape for a listing.
type ListingDTO struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	OwnerEmail  string          `json:"owner_email"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Quantity    string          `json:"quantity"`
	Location    *string         `json:"location,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty"`
	Expiry      *time.Time      `json:"expiry,omitempty"`
	Tags        []string        `json:"tags"`
	Status      string          `json:"status"`
	RequestInfo *RequestInfoDTO `json:"request_info,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RequestInfoDTO carries claim details, present only on requested listings.
type RequestInfoDTO struct {
	RequesterEmail string    `json:"requester_email"`
	RequestDate    time.Time `json:"request_date"`
	Notes          *string   `json:"notes,omitempty"`
}

// CreateListingInput holds the validated payload to publish a listing.
type CreateListingInput struct {
	Title       string
	Description *string
	Quantity    string
	Location    *string
	ImageURL    *string
	Expiry      *time.Time
	Tags        []string
}

// UpdateListingInput holds optional mutation values for the descriptive fields.
// Ownership, status, and request details are engine-managed and have no
// representation here.
type UpdateListingInput struct {
	Title       *string
	Description *string
	Quantity    *string
	Location    *string
	ImageURL    *string
	Expiry      *time.Time
	Tags        *[]string
}

// ClaimInput carries the optional claim metadata supplied by a requester.
type ClaimInput struct {
	RequestDate *time.Time
	Notes       *string
}

// ListResult is a page of listings plus the cursor for the next page, when any.
type ListResult struct {
	Listings   []ListingDTO `json:"listings"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// FromModel converts a persisted listing into its transport shape.
func FromModel(l *models.Listing) *ListingDTO {
	if l == nil {
		return nil
	}

	dto := &ListingDTO{
		ID:          l.ID,
		OwnerID:     l.OwnerID,
		OwnerEmail:  l.OwnerEmail,
		Title:       l.Title,
		Description: l.Description,
		Quantity:    l.Quantity,
		Location:    l.Location,
		ImageURL:    l.ImageURL,
		Expiry:      l.Expiry,
		Tags:        append([]string(nil), l.Tags...),
		Status:      l.Status.String(),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	if dto.Tags == nil {
		dto.Tags = []string{}
	}

	if l.Status == enums.ListingStatusRequested && l.RequesterEmail != nil && l.RequestDate != nil {
		dto.RequestInfo = &RequestInfoDTO{
			RequesterEmail: *l.RequesterEmail,
			RequestDate:    *l.RequestDate,
			Notes:          l.RequestNotes,
		}
	}

	return dto
}

func fromModels(rows []models.Listing) []ListingDTO {
	out := make([]ListingDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
