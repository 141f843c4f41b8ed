package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/foodshare-backend/api/middleware"
	"github.com/angelmondragon/foodshare-backend/api/responses"
	"github.com/angelmondragon/foodshare-backend/api/validators"
	listingsvc "github.com/angelmondragon/foodshare-backend/internal/listings"
	pkgerrors "github.com/angelmondragon/foodshare-backend/pkg/errors"
	"github.com/angelmondragon/foodshare-backend/pkg/logger"
	"github.com/angelmondragon/foodshare-backend/pkg/metrics"
	"github.com/angelmondragon/foodshare-backend/pkg/pagination"
)

func callerIdentity(r *http.Request) (listingsvc.Identity, error) {
	rawID := middleware.UserIDFromContext(r.Context())
	email := middleware.UserEmailFromContext(r.Context())
	if rawID == "" || email == "" {
		return listingsvc.Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return listingsvc.Identity{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return listingsvc.Identity{UserID: userID, Email: email}, nil
}

type createListingRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description,omitempty"`
	Quantity    string     `json:"quantity,omitempty"`
	Location    *string    `json:"location,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	Expiry      *time.Time `json:"expiry,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// updateListingRequest names only the caller-mutable fields. The decoder is
// lenient here so reserved fields in a payload are dropped, not rejected.
type updateListingRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Quantity    *string    `json:"quantity,omitempty"`
	Location    *string    `json:"location,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	Expiry      *time.Time `json:"expiry,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
}

type claimListingRequest struct {
	RequestDate *time.Time `json:"request_date,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// CreateListing publishes a surplus listing owned by the caller.
func CreateListing(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		ident, err := callerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createListingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Create(r.Context(), ident, listingsvc.CreateListingInput{
			Title:       payload.Title,
			Description: payload.Description,
			Quantity:    payload.Quantity,
			Location:    payload.Location,
			ImageURL:    payload.ImageURL,
			Expiry:      payload.Expiry,
			Tags:        payload.Tags,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

// ListListings returns a page of every listing, newest first.
func ListListings(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := &pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}

		result, err := svc.ListAll(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// FeaturedListings returns the listings with the largest quantities.
func FeaturedListings(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		result, err := svc.ListFeatured(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AvailableListings returns every listing still open for claims.
func AvailableListings(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		result, err := svc.ListAvailable(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// MyListings returns the caller's own listings.
func MyListings(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		ident, err := callerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListMine(r.Context(), ident)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// RequestedListings returns the listings the caller has claimed.
func RequestedListings(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		ident, err := callerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListRequested(r.Context(), ident)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// GetListing fetches a single listing by id.
func GetListing(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		listing, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listing)
	}
}

// UpdateListing mutates the descriptive fields of a listing the caller owns.
func UpdateListing(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		ident, err := callerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateListingRequest
		if err := validators.DecodeJSONBodyLenient(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Update(r.Context(), ident, chi.URLParam(r, "id"), listingsvc.UpdateListingInput{
			Title:       payload.Title,
			Description: payload.Description,
			Quantity:    payload.Quantity,
			Location:    payload.Location,
			ImageURL:    payload.ImageURL,
			Expiry:      payload.Expiry,
			Tags:        payload.Tags,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listing)
	}
}

// DeleteListing removes a listing the caller owns.
func DeleteListing(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		ident, err := callerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), ident, chi.URLParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ClaimListing requests a listing on behalf of the caller. At most one
// claim ever succeeds per listing.
func ClaimListing(svc listingsvc.Service, httpMetrics *metrics.HTTPMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		ident, err := callerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Lenient decode: older clients patch the raw status fields along
		// with their claim details, and those are engine-owned anyway.
		var payload claimListingRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBodyLenient(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		listing, err := svc.Claim(r.Context(), ident, chi.URLParam(r, "id"), listingsvc.ClaimInput{
			RequestDate: payload.RequestDate,
			Notes:       payload.Notes,
		})
		if err != nil {
			httpMetrics.IncClaim(claimOutcome(err))
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		httpMetrics.IncClaim("granted")
		responses.WriteSuccess(w, listing)
	}
}

func claimOutcome(err error) string {
	if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeConflict {
		return "conflict"
	}
	return "error"
}
