package listings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodshare-backend/pkg/db/models"
	"github.com/angelmondragon/foodshare-backend/pkg/enums"
	"github.com/angelmondragon/foodshare-backend/pkg/pagination"
)

// Store defines the persistence capability the lifecycle engine depends on.
// The single-row conditional write in MarkRequested is the only primitive the
// claim path relies on for correctness.
type Store interface {
	Create(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	List(ctx context.Context, query ListQuery) ([]models.Listing, string, error)
	UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, updates map[string]any) (int64, error)
	DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (int64, error)
	MarkRequested(ctx context.Context, id uuid.UUID, requesterEmail string, requestDate time.Time, notes *string) (int64, error)
}

// ListQuery narrows a listing scan. Nil fields apply no filter. When
// Pagination is nil the full matching set is returned in creation order.
type ListQuery struct {
	Status         *enums.ListingStatus
	OwnerID        *uuid.UUID
	RequesterEmail *string
	Pagination     *pagination.Params
}

// Repository is the GORM-backed Store implementation.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new listing row.
func (r *Repository) Create(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// FindByID loads a listing by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// List scans listings matching the query, newest first. The second return
// value is the cursor for the next page, empty when the result set ends.
func (r *Repository) List(ctx context.Context, query ListQuery) ([]models.Listing, string, error) {
	qb := r.db.WithContext(ctx).Model(&models.Listing{})

	if query.Status != nil {
		qb = qb.Where("status = ?", *query.Status)
	}
	if query.OwnerID != nil {
		qb = qb.Where("owner_id = ?", *query.OwnerID)
	}
	if query.RequesterEmail != nil {
		qb = qb.Where("requester_email = ?", *query.RequesterEmail)
	}

	qb = qb.Order("created_at DESC").Order("id DESC")

	if query.Pagination == nil {
		var rows []models.Listing
		if err := qb.Find(&rows).Error; err != nil {
			return nil, "", err
		}
		return rows, "", nil
	}

	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Listing
	if err := qb.Limit(pagination.LimitWithBuffer(query.Pagination.Limit)).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// UpdateOwned applies updates to the listing only when it belongs to ownerID.
// The ownership check rides in the WHERE clause so a non-owner's write
// matches zero rows instead of succeeding.
func (r *Repository) UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, updates map[string]any) (int64, error) {
	if len(updates) == 0 {
		updates = map[string]any{}
	}
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// DeleteOwned removes the listing only when it belongs to ownerID.
func (r *Repository) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Listing{})
	return res.RowsAffected, res.Error
}

// MarkRequested performs the conditional available-to-requested transition.
// The status precondition is evaluated by the database in the same statement
// as the write, so concurrent claimers race on a single atomic row update
// and at most one of them can match.
func (r *Repository) MarkRequested(ctx context.Context, id uuid.UUID, requesterEmail string, requestDate time.Time, notes *string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND status = ?", id, enums.ListingStatusAvailable).
		Updates(map[string]any{
			"status":          enums.ListingStatusRequested,
			"requester_email": requesterEmail,
			"request_date":    requestDate,
			"request_notes":   notes,
			"updated_at":      time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
