package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/foodshare-backend/api/middleware"
	listingsvc "github.com/angelmondragon/foodshare-backend/internal/listings"
	pkgerrors "github.com/angelmondragon/foodshare-backend/pkg/errors"
	"github.com/angelmondragon/foodshare-backend/pkg/logger"
	"github.com/angelmondragon/foodshare-backend/pkg/metrics"
	"github.com/angelmondragon/foodshare-backend/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func authedContext(userID uuid.UUID, email string) context.Context {
	ctx := middleware.WithUserID(context.Background(), userID.String())
	return middleware.WithUserEmail(ctx, email)
}

func withListingID(ctx context.Context, id string) context.Context {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", id)
	return context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
}

func TestCreateListing(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()

	t.Run("missing user context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(`{"title":"Bread"}`))
		rec := httptest.NewRecorder()
		CreateListing(&stubListingService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 without identity, got %d", rec.Code)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(`{"quantity":"3"}`))
		req = req.WithContext(authedContext(userID, "owner@example.com"))
		rec := httptest.NewRecorder()
		CreateListing(&stubListingService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for missing title, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		stub := &stubListingService{}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(`{"title":"Bread","quantity":"3 loaves","tags":["bakery"]}`))
		req = req.WithContext(authedContext(userID, "owner@example.com"))
		rec := httptest.NewRecorder()
		CreateListing(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
		}
		if stub.createdInput == nil {
			t.Fatal("expected Create to be invoked")
		}
		if stub.createdInput.Title != "Bread" {
			t.Fatalf("unexpected title %q", stub.createdInput.Title)
		}
		if stub.createdIdent.UserID != userID {
			t.Fatalf("expected identity forwarded, got %s", stub.createdIdent.UserID)
		}
	})
}

func TestUpdateListingDropsReservedFields(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()
	listingID := uuid.New()

	stub := &stubListingService{}
	body := `{"title":"Updated","owner_id":"` + uuid.NewString() + `","status":"completed","request_info":{"requester_email":"x@y.z"}}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/listings/"+listingID.String(), strings.NewReader(body))
	ctx := withListingID(authedContext(userID, "owner@example.com"), listingID.String())
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	UpdateListing(stub, logg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if stub.updatedInput == nil || stub.updatedInput.Title == nil || *stub.updatedInput.Title != "Updated" {
		t.Fatalf("expected title update forwarded, got %+v", stub.updatedInput)
	}
}

func TestClaimListingOutcomes(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()
	listingID := uuid.New()

	makeRequest := func(stub *stubListingService, m *metrics.HTTPMetrics, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/listings/"+listingID.String(), reader)
		ctx := withListingID(authedContext(userID, "claimer@example.com"), listingID.String())
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()
		ClaimListing(stub, m, logg).ServeHTTP(rec, req)
		return rec
	}

	t.Run("granted", func(t *testing.T) {
		stub := &stubListingService{}
		rec := makeRequest(stub, nil, `{"notes":"pickup after 5"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
		}
		if stub.claimInput == nil || stub.claimInput.Notes == nil || *stub.claimInput.Notes != "pickup after 5" {
			t.Fatalf("expected notes forwarded, got %+v", stub.claimInput)
		}
	})

	t.Run("empty body allowed", func(t *testing.T) {
		stub := &stubListingService{}
		rec := makeRequest(stub, nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for bodyless claim, got %d", rec.Code)
		}
	})

	t.Run("conflict", func(t *testing.T) {
		stub := &stubListingService{claimErr: pkgerrors.New(pkgerrors.CodeConflict, "listing is no longer available")}
		rec := makeRequest(stub, nil, "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		var payload struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if payload.Error.Code != string(pkgerrors.CodeConflict) {
			t.Fatalf("unexpected code %s", payload.Error.Code)
		}
	})

	t.Run("forbidden self claim", func(t *testing.T) {
		stub := &stubListingService{claimErr: pkgerrors.New(pkgerrors.CodeForbidden, "cannot claim your own listing")}
		rec := makeRequest(stub, nil, "")
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestListListingsPagination(t *testing.T) {
	logg := testLogger()

	t.Run("forwards limit and cursor", func(t *testing.T) {
		stub := &stubListingService{}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?limit=10&cursor=abc", nil)
		rec := httptest.NewRecorder()
		ListListings(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if stub.listPage == nil || stub.listPage.Limit != 10 || stub.listPage.Cursor != "abc" {
			t.Fatalf("unexpected page params %+v", stub.listPage)
		}
	})

	t.Run("rejects non numeric limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?limit=ten", nil)
		rec := httptest.NewRecorder()
		ListListings(&stubListingService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestDeleteListingRequiresIdentity(t *testing.T) {
	logg := testLogger()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/listings/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	DeleteListing(&stubListingService{}, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

type stubListingService struct {
	createdIdent listingsvc.Identity
	createdInput *listingsvc.CreateListingInput
	updatedInput *listingsvc.UpdateListingInput
	claimInput   *listingsvc.ClaimInput
	listPage     *pagination.Params
	claimErr     error
}

func (s *stubListingService) Create(ctx context.Context, ident listingsvc.Identity, input listingsvc.CreateListingInput) (*listingsvc.ListingDTO, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	s.createdIdent = ident
	s.createdInput = &input
	return &listingsvc.ListingDTO{ID: uuid.New(), OwnerID: ident.UserID, Title: input.Title}, nil
}

func (s *stubListingService) ListAll(ctx context.Context, page *pagination.Params) (*listingsvc.ListResult, error) {
	s.listPage = page
	return &listingsvc.ListResult{Listings: []listingsvc.ListingDTO{}}, nil
}

func (s *stubListingService) ListFeatured(ctx context.Context) ([]listingsvc.ListingDTO, error) {
	return []listingsvc.ListingDTO{}, nil
}

func (s *stubListingService) ListAvailable(ctx context.Context) ([]listingsvc.ListingDTO, error) {
	return []listingsvc.ListingDTO{}, nil
}

func (s *stubListingService) ListMine(ctx context.Context, ident listingsvc.Identity) ([]listingsvc.ListingDTO, error) {
	return []listingsvc.ListingDTO{}, nil
}

func (s *stubListingService) ListRequested(ctx context.Context, ident listingsvc.Identity) ([]listingsvc.ListingDTO, error) {
	return []listingsvc.ListingDTO{}, nil
}

func (s *stubListingService) Get(ctx context.Context, rawID string) (*listingsvc.ListingDTO, error) {
	return &listingsvc.ListingDTO{}, nil
}

func (s *stubListingService) Update(ctx context.Context, ident listingsvc.Identity, rawID string, input listingsvc.UpdateListingInput) (*listingsvc.ListingDTO, error) {
	s.updatedInput = &input
	return &listingsvc.ListingDTO{}, nil
}

func (s *stubListingService) Delete(ctx context.Context, ident listingsvc.Identity, rawID string) error {
	return nil
}

func (s *stubListingService) Claim(ctx context.Context, ident listingsvc.Identity, rawID string, input listingsvc.ClaimInput) (*listingsvc.ListingDTO, error) {
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	s.claimInput = &input
	return &listingsvc.ListingDTO{}, nil
}
