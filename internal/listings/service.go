package listings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodshare-backend/pkg/db/models"
	"github.com/angelmondragon/foodshare-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodshare-backend/pkg/errors"
	"github.com/angelmondragon/foodshare-backend/pkg/pagination"
)

// featuredLimit caps how many listings the featured feed returns.
const featuredLimit = 6

// Identity is the verified caller, established by the auth layer. Core
// operations take it as an explicit argument, never from request state.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// Service exposes the listing lifecycle and claim operations.
type Service interface {
	Create(ctx context.Context, ident Identity, input CreateListingInput) (*ListingDTO, error)
	ListAll(ctx context.Context, page *pagination.Params) (*ListResult, error)
	ListFeatured(ctx context.Context) ([]ListingDTO, error)
	ListAvailable(ctx context.Context) ([]ListingDTO, error)
	ListMine(ctx context.Context, ident Identity) ([]ListingDTO, error)
	ListRequested(ctx context.Context, ident Identity) ([]ListingDTO, error)
	Get(ctx context.Context, rawID string) (*ListingDTO, error)
	Update(ctx context.Context, ident Identity, rawID string, input UpdateListingInput) (*ListingDTO, error)
	Delete(ctx context.Context, ident Identity, rawID string) error
	Claim(ctx context.Context, ident Identity, rawID string, input ClaimInput) (*ListingDTO, error)
}

type service struct {
	store Store
	clock func() time.Time
}

// NewService constructs the listing service.
func NewService(store Store) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("listing store required")
	}
	return &service{store: store, clock: time.Now}, nil
}

// Create publishes a new listing owned by the caller. Owner fields always
// come from the verified identity, whatever the request body said.
func (s *service) Create(ctx context.Context, ident Identity, input CreateListingInput) (*ListingDTO, error) {
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}

	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	listing := &models.Listing{
		OwnerID:     ident.UserID,
		OwnerEmail:  ident.Email,
		Title:       title,
		Description: input.Description,
		Quantity:    strings.TrimSpace(input.Quantity),
		Location:    input.Location,
		ImageURL:    input.ImageURL,
		Expiry:      input.Expiry,
		Tags:        tags,
		Status:      enums.ListingStatusAvailable,
	}

	created, err := s.store.Create(ctx, listing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert listing")
	}
	return FromModel(created), nil
}

// ListAll returns listings without any status or ownership filter. A nil
// page returns the entire set.
func (s *service) ListAll(ctx context.Context, page *pagination.Params) (*ListResult, error) {
	rows, nextCursor, err := s.store.List(ctx, ListQuery{Pagination: page})
	if err != nil {
		return nil, wrapListErr(err)
	}
	return &ListResult{Listings: fromModels(rows), NextCursor: nextCursor}, nil
}

// ListFeatured returns at most six listings ordered by numeric quantity,
// largest first. Quantity is free-form text; values that do not parse as a
// number sort as zero.
func (s *service) ListFeatured(ctx context.Context) ([]ListingDTO, error) {
	rows, _, err := s.store.List(ctx, ListQuery{})
	if err != nil {
		return nil, wrapListErr(err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return quantityValue(rows[i].Quantity) > quantityValue(rows[j].Quantity)
	})
	if len(rows) > featuredLimit {
		rows = rows[:featuredLimit]
	}
	return fromModels(rows), nil
}

// ListAvailable returns every listing still open for claims.
func (s *service) ListAvailable(ctx context.Context) ([]ListingDTO, error) {
	status := enums.ListingStatusAvailable
	rows, _, err := s.store.List(ctx, ListQuery{Status: &status})
	if err != nil {
		return nil, wrapListErr(err)
	}
	return fromModels(rows), nil
}

// ListMine returns the caller's own listings.
func (s *service) ListMine(ctx context.Context, ident Identity) ([]ListingDTO, error) {
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}
	ownerID := ident.UserID
	rows, _, err := s.store.List(ctx, ListQuery{OwnerID: &ownerID})
	if err != nil {
		return nil, wrapListErr(err)
	}
	return fromModels(rows), nil
}

// ListRequested returns listings the caller has claimed.
func (s *service) ListRequested(ctx context.Context, ident Identity) ([]ListingDTO, error) {
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}
	status := enums.ListingStatusRequested
	email := ident.Email
	rows, _, err := s.store.List(ctx, ListQuery{Status: &status, RequesterEmail: &email})
	if err != nil {
		return nil, wrapListErr(err)
	}
	return fromModels(rows), nil
}

// Get loads a single listing. Request details are returned as stored, with
// no redaction of the requester identity.
func (s *service) Get(ctx context.Context, rawID string) (*ListingDTO, error) {
	id, err := parseListingID(rawID)
	if err != nil {
		return nil, err
	}

	listing, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load listing")
	}
	return FromModel(listing), nil
}

// Update mutates the descriptive fields of a listing the caller owns.
// Ownership, status, and request details never pass through this path.
func (s *service) Update(ctx context.Context, ident Identity, rawID string, input UpdateListingInput) (*ListingDTO, error) {
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}
	id, err := parseListingID(rawID)
	if err != nil {
		return nil, err
	}

	// Advisory read for error shaping. The ownership check that matters is
	// folded into the WHERE clause of the write below.
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load listing")
	}
	if current.OwnerID != ident.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing does not belong to caller")
	}

	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
	}

	updates := buildUpdateColumns(input)
	if len(updates) == 0 {
		return FromModel(current), nil
	}

	affected, err := s.store.UpdateOwned(ctx, id, ident.UserID, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update listing")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}

	updated, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload listing")
	}
	return FromModel(updated), nil
}

// Delete removes a listing the caller owns. Legal from any status; a pending
// request dies with the row. A non-owner observes NotFound, the same as a
// missing listing, so existence is not leaked.
func (s *service) Delete(ctx context.Context, ident Identity, rawID string) error {
	if err := requireIdentity(ident); err != nil {
		return err
	}
	id, err := parseListingID(rawID)
	if err != nil {
		return err
	}

	affected, err := s.store.DeleteOwned(ctx, id, ident.UserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete listing")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	return nil
}

func requireIdentity(ident Identity) error {
	if ident.UserID == uuid.Nil || strings.TrimSpace(ident.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "verified identity required")
	}
	return nil
}

func parseListingID(rawID string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid listing id")
	}
	return id, nil
}

func wrapListErr(err error) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list listings")
}

func buildUpdateColumns(input UpdateListingInput) map[string]any {
	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		updates["description"] = input.Description
	}
	if input.Quantity != nil {
		updates["quantity"] = strings.TrimSpace(*input.Quantity)
	}
	if input.Location != nil {
		updates["location"] = input.Location
	}
	if input.ImageURL != nil {
		updates["image_url"] = input.ImageURL
	}
	if input.Expiry != nil {
		updates["expiry"] = input.Expiry
	}
	if input.Tags != nil {
		updates["tags"] = pq.StringArray(*input.Tags)
	}
	return updates
}

// quantityValue coerces free-form quantity text the way a loose numeric cast
// would: leading/trailing space ignored, anything unparsable counts as zero.
func quantityValue(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}
