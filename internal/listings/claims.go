package listings

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/foodshare-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodshare-backend/pkg/errors"
)

// Claim transitions a listing from available to requested on behalf of the
// caller. Two phases: an advisory read that shapes the error for the common
// failure cases, then a conditional write whose status precondition is
// re-checked by the database. Only the write decides the race; two callers
// that both saw an available listing cannot both win it.
func (s *service) Claim(ctx context.Context, ident Identity, rawID string, input ClaimInput) (*ListingDTO, error) {
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}
	id, err := parseListingID(rawID)
	if err != nil {
		return nil, err
	}

	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load listing")
	}
	if current.OwnerID == ident.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot claim your own listing")
	}
	if current.Status != enums.ListingStatusAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "listing is no longer available")
	}

	requestDate := s.clock().UTC()
	if input.RequestDate != nil {
		requestDate = input.RequestDate.UTC()
	}

	affected, err := s.store.MarkRequested(ctx, id, ident.Email, requestDate, input.Notes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: claim listing")
	}
	if affected == 0 {
		// Lost the race, or the listing vanished between read and write.
		// Either way the caller did not get the claim.
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "listing is no longer available")
	}

	claimed, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload listing")
	}
	return FromModel(claimed), nil
}
