package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"marketplace-api/internal/database"
)

var ErrNotFound = errors.New("listing not found")

// Repository handles listing persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// List returns one page of listings matching the filter plus the total
// match count. The count runs with the same filters but without the page
// slice so pagination metadata stays accurate.
func (r *Repository) List(ctx context.Context, f Filter) ([]*Listing, int, error) {
	total, err := r.db.NewSelect().
		Model((*database.Listing)(nil)).
		Apply(f.Apply).
		Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	var dbListings []*database.Listing
	err = r.db.NewSelect().
		Model(&dbListings).
		Apply(f.Apply).
		OrderExpr("created_at DESC, id DESC").
		Limit(f.Limit).
		Offset(f.Offset()).
		Scan(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list listings: %w", err)
	}

	listings := make([]*Listing, 0, len(dbListings))
	for _, dbl := range dbListings {
		listings = append(listings, mapDBListingToModel(dbl))
	}

	return listings, total, nil
}

// GetByID retrieves a single listing
func (r *Repository) GetByID(ctx context.Context, id int64) (*Listing, error) {
	dbListing := new(database.Listing)
	err := r.db.NewSelect().
		Model(dbListing).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	return mapDBListingToModel(dbListing), nil
}

// Create inserts a new listing and returns it with the generated id
func (r *Repository) Create(ctx context.Context, title, category, price, description, imagePath string, createdAt, ownerID int64) (*Listing, error) {
	dbListing := &database.Listing{
		Title:       title,
		Category:    category,
		Price:       price,
		Description: description,
		ImagePath:   imagePath,
		CreatedAt:   createdAt,
		OwnerID:     &ownerID,
	}

	if _, err := r.db.NewInsert().Model(dbListing).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	return mapDBListingToModel(dbListing), nil
}

// FieldUpdates holds the partial column updates for a listing. Nil
// pointers mean "leave unchanged".
type FieldUpdates struct {
	Title       *string
	Category    *string
	Price       *string
	Description *string
	ImagePath   *string
}

// Empty reports whether no field was supplied
func (u FieldUpdates) Empty() bool {
	return u.Title == nil && u.Category == nil && u.Price == nil &&
		u.Description == nil && u.ImagePath == nil
}

// Update applies the supplied field updates to a listing row
func (r *Repository) Update(ctx context.Context, id int64, updates FieldUpdates) (*Listing, error) {
	q := r.db.NewUpdate().Model((*database.Listing)(nil))

	if updates.Title != nil {
		q = q.Set("title = ?", *updates.Title)
	}
	if updates.Category != nil {
		q = q.Set("category = ?", *updates.Category)
	}
	if updates.Price != nil {
		q = q.Set("price = ?", *updates.Price)
	}
	if updates.Description != nil {
		q = q.Set("description = ?", *updates.Description)
	}
	if updates.ImagePath != nil {
		q = q.Set("image_path = ?", *updates.ImagePath)
	}

	result, err := q.Where("id = ?", id).Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes a listing row
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.NewDelete().
		Model((*database.Listing)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
