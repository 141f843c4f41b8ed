package listings

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodshare-backend/pkg/db/models"
	"github.com/angelmondragon/foodshare-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodshare-backend/pkg/errors"
)

// stubStore is an in-memory Store. MarkRequested applies the status
// precondition under a lock, matching the atomicity the real database
// provides for a single-row conditional update.
type stubStore struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]*models.Listing
	listErr  error
	findErr  error
	writeErr error
}

func newStubStore() *stubStore {
	return &stubStore{rows: map[uuid.UUID]*models.Listing{}}
}

func (s *stubStore) Create(_ context.Context, listing *models.Listing) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	now := time.Now().UTC()
	listing.CreatedAt = now
	listing.UpdatedAt = now
	clone := *listing
	s.rows[listing.ID] = &clone
	return listing, nil
}

func (s *stubStore) FindByID(_ context.Context, id uuid.UUID) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *row
	return &clone, nil
}

func (s *stubStore) List(_ context.Context, query ListQuery) ([]models.Listing, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, "", s.listErr
	}
	var out []models.Listing
	for _, row := range s.rows {
		if query.Status != nil && row.Status != *query.Status {
			continue
		}
		if query.OwnerID != nil && row.OwnerID != *query.OwnerID {
			continue
		}
		if query.RequesterEmail != nil {
			if row.RequesterEmail == nil || *row.RequesterEmail != *query.RequesterEmail {
				continue
			}
		}
		out = append(out, *row)
	}
	return out, "", nil
}

func (s *stubStore) UpdateOwned(_ context.Context, id, ownerID uuid.UUID, updates map[string]any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	row, ok := s.rows[id]
	if !ok || row.OwnerID != ownerID {
		return 0, nil
	}
	if v, ok := updates["title"].(string); ok {
		row.Title = v
	}
	if v, ok := updates["quantity"].(string); ok {
		row.Quantity = v
	}
	row.UpdatedAt = time.Now().UTC()
	return 1, nil
}

func (s *stubStore) DeleteOwned(_ context.Context, id, ownerID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	row, ok := s.rows[id]
	if !ok || row.OwnerID != ownerID {
		return 0, nil
	}
	delete(s.rows, id)
	return 1, nil
}

func (s *stubStore) MarkRequested(_ context.Context, id uuid.UUID, requesterEmail string, requestDate time.Time, notes *string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	row, ok := s.rows[id]
	if !ok || row.Status != enums.ListingStatusAvailable {
		return 0, nil
	}
	row.Status = enums.ListingStatusRequested
	email := requesterEmail
	date := requestDate
	row.RequesterEmail = &email
	row.RequestDate = &date
	row.RequestNotes = notes
	row.UpdatedAt = time.Now().UTC()
	return 1, nil
}

func newTestService(t *testing.T, store Store) Service {
	t.Helper()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func testIdentity() Identity {
	return Identity{UserID: uuid.New(), Email: "owner@example.com"}
}

func assertCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	coded := pkgerrors.As(err)
	if coded == nil {
		t.Fatalf("expected coded error %s, got %v", want, err)
	}
	if coded.Code() != want {
		t.Fatalf("error code = %s, want %s", coded.Code(), want)
	}
}

func TestCreateForcesOwnerFromIdentity(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	ident := testIdentity()

	dto, err := svc.Create(context.Background(), ident, CreateListingInput{
		Title:    "Sourdough loaves",
		Quantity: "4",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if dto.OwnerID != ident.UserID || dto.OwnerEmail != ident.Email {
		t.Fatalf("owner = (%s, %s), want identity values", dto.OwnerID, dto.OwnerEmail)
	}
	if dto.Status != enums.ListingStatusAvailable.String() {
		t.Fatalf("status = %s, want available", dto.Status)
	}
	if dto.RequestInfo != nil {
		t.Fatal("new listing should carry no request info")
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	svc := newTestService(t, newStubStore())
	_, err := svc.Create(context.Background(), testIdentity(), CreateListingInput{Title: "   "})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateRequiresIdentity(t *testing.T) {
	svc := newTestService(t, newStubStore())
	_, err := svc.Create(context.Background(), Identity{}, CreateListingInput{Title: "Bread"})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestListFeaturedOrdersByNumericQuantity(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	ident := testIdentity()

	quantities := []string{"3", "10", "not-a-number", "7.5", "", "2", "100", "42"}
	for _, q := range quantities {
		if _, err := svc.Create(context.Background(), ident, CreateListingInput{Title: "Box", Quantity: q}); err != nil {
			t.Fatalf("Create(%q): %v", q, err)
		}
	}

	featured, err := svc.ListFeatured(context.Background())
	if err != nil {
		t.Fatalf("ListFeatured returned error: %v", err)
	}
	if len(featured) != featuredLimit {
		t.Fatalf("len = %d, want %d", len(featured), featuredLimit)
	}

	want := []string{"100", "42", "10", "7.5", "3", "2"}
	for i, dto := range featured {
		if dto.Quantity != want[i] {
			t.Fatalf("featured[%d].Quantity = %q, want %q", i, dto.Quantity, want[i])
		}
	}
}

func TestListFeaturedNonNumericSortsAsZero(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	ident := testIdentity()

	for _, q := range []string{"a few", "1"} {
		if _, err := svc.Create(context.Background(), ident, CreateListingInput{Title: "Box", Quantity: q}); err != nil {
			t.Fatalf("Create(%q): %v", q, err)
		}
	}

	featured, err := svc.ListFeatured(context.Background())
	if err != nil {
		t.Fatalf("ListFeatured returned error: %v", err)
	}
	if len(featured) != 2 {
		t.Fatalf("len = %d, want 2", len(featured))
	}
	if featured[0].Quantity != "1" {
		t.Fatalf("featured[0].Quantity = %q, want numeric listing first", featured[0].Quantity)
	}
}

func TestGetRejectsMalformedID(t *testing.T) {
	svc := newTestService(t, newStubStore())
	_, err := svc.Get(context.Background(), "not-a-uuid")
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestGetMissingListing(t *testing.T) {
	svc := newTestService(t, newStubStore())
	_, err := svc.Get(context.Background(), uuid.NewString())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestGetReturnsRequestInfo(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	owner := testIdentity()
	claimer := Identity{UserID: uuid.New(), Email: "claimer@example.com"}

	created, err := svc.Create(context.Background(), owner, CreateListingInput{Title: "Apples", Quantity: "9"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Claim(context.Background(), claimer, created.ID.String(), ClaimInput{}); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	got, err := svc.Get(context.Background(), created.ID.String())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.RequestInfo == nil {
		t.Fatal("expected request info on requested listing")
	}
	if got.RequestInfo.RequesterEmail != claimer.Email {
		t.Fatalf("requester = %s, want %s", got.RequestInfo.RequesterEmail, claimer.Email)
	}
}

func TestUpdateByNonOwnerIsForbidden(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	owner := testIdentity()
	intruder := Identity{UserID: uuid.New(), Email: "intruder@example.com"}

	created, err := svc.Create(context.Background(), owner, CreateListingInput{Title: "Pears", Quantity: "3"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	newTitle := "Stolen pears"
	_, err = svc.Update(context.Background(), intruder, created.ID.String(), UpdateListingInput{Title: &newTitle})
	assertCode(t, err, pkgerrors.CodeForbidden)

	got, err := svc.Get(context.Background(), created.ID.String())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Pears" {
		t.Fatalf("title = %q, listing mutated by non-owner", got.Title)
	}
}

func TestUpdateAppliesDescriptiveFields(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	owner := testIdentity()

	created, err := svc.Create(context.Background(), owner, CreateListingInput{Title: "Pears", Quantity: "3"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	newTitle := "Ripe pears"
	newQuantity := "5"
	updated, err := svc.Update(context.Background(), owner, created.ID.String(), UpdateListingInput{
		Title:    &newTitle,
		Quantity: &newQuantity,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != newTitle || updated.Quantity != newQuantity {
		t.Fatalf("got (%q, %q), want (%q, %q)", updated.Title, updated.Quantity, newTitle, newQuantity)
	}
	if updated.OwnerID != owner.UserID {
		t.Fatal("owner changed through update")
	}
	if updated.Status != enums.ListingStatusAvailable.String() {
		t.Fatal("status changed through update")
	}
}

func TestUpdateMissingListing(t *testing.T) {
	svc := newTestService(t, newStubStore())
	title := "Anything"
	_, err := svc.Update(context.Background(), testIdentity(), uuid.NewString(), UpdateListingInput{Title: &title})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestDeleteByNonOwnerLooksLikeMissing(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	owner := testIdentity()
	intruder := Identity{UserID: uuid.New(), Email: "intruder@example.com"}

	created, err := svc.Create(context.Background(), owner, CreateListingInput{Title: "Milk", Quantity: "2"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = svc.Delete(context.Background(), intruder, created.ID.String())
	assertCode(t, err, pkgerrors.CodeNotFound)

	if _, err := svc.Get(context.Background(), created.ID.String()); err != nil {
		t.Fatalf("listing should survive a non-owner delete: %v", err)
	}
}

func TestDeleteByOwner(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	owner := testIdentity()

	created, err := svc.Create(context.Background(), owner, CreateListingInput{Title: "Milk", Quantity: "2"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(context.Background(), owner, created.ID.String()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = svc.Get(context.Background(), created.ID.String())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestListAvailableExcludesClaimed(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	owner := testIdentity()
	claimer := Identity{UserID: uuid.New(), Email: "claimer@example.com"}

	first, err := svc.Create(context.Background(), owner, CreateListingInput{Title: "Rice", Quantity: "1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(context.Background(), owner, CreateListingInput{Title: "Beans", Quantity: "1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Claim(context.Background(), claimer, first.ID.String(), ClaimInput{}); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	available, err := svc.ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(available) != 1 {
		t.Fatalf("available = %d listings, want 1", len(available))
	}
	for _, dto := range available {
		if dto.ID == first.ID {
			t.Fatal("claimed listing still reported available")
		}
	}

	requested, err := svc.ListRequested(context.Background(), claimer)
	if err != nil {
		t.Fatalf("ListRequested: %v", err)
	}
	if len(requested) != 1 || requested[0].ID != first.ID {
		t.Fatalf("requested = %v, want the claimed listing", requested)
	}
}

func TestListMineScopedToCaller(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	alice := Identity{UserID: uuid.New(), Email: "alice@example.com"}
	bob := Identity{UserID: uuid.New(), Email: "bob@example.com"}

	if _, err := svc.Create(context.Background(), alice, CreateListingInput{Title: "Alice bread", Quantity: "1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(context.Background(), bob, CreateListingInput{Title: "Bob bread", Quantity: "1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	mine, err := svc.ListMine(context.Background(), alice)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 1 || mine[0].OwnerID != alice.UserID {
		t.Fatalf("ListMine leaked another owner's listings: %v", mine)
	}
}
