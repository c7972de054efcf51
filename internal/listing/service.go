package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-api/internal/logging"
	"marketplace-api/internal/upload"
)

var (
	ErrTitleAndPriceRequired = errors.New("title and price are required")
	ErrForbidden             = errors.New("listing belongs to another user")
	ErrNoFieldsToUpdate      = errors.New("no fields to update")
)

// Service orchestrates listing CRUD, owner authorization and image
// lifecycle (write on create, replace-and-delete-old on update, delete
// on remove).
type Service struct {
	repo          *Repository
	uploads       *upload.Store
	logger        *logging.Logger
	maxImageBytes int64
}

func NewService(repo *Repository, uploads *upload.Store, logger *logging.Logger, maxImageBytes int64) *Service {
	return &Service{
		repo:          repo,
		uploads:       uploads,
		logger:        logger,
		maxImageBytes: maxImageBytes,
	}
}

// List returns a page of listings and the total match count, with image
// paths rewritten to public URLs
func (s *Service) List(ctx context.Context, f Filter) ([]*Listing, int, error) {
	listings, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	for _, l := range listings {
		l.ImagePath = s.uploads.PublicPath(l.ImagePath)
	}
	return listings, total, nil
}

// Get returns a single listing with its public image path
func (s *Service) Get(ctx context.Context, id int64) (*Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	l.ImagePath = s.uploads.PublicPath(l.ImagePath)
	return l, nil
}

// CreateInput carries the fields for a new listing
type CreateInput struct {
	Title       string
	Category    string
	Price       string
	Description string
	ImageBase64 string
}

// Create stores a new listing owned by the caller. An optional image is
// ingested first; if the row insert then fails the file stays orphaned
// on disk, which is accepted.
func (s *Service) Create(ctx context.Context, ownerID int64, in CreateInput) (*Listing, error) {
	if in.Title == "" || in.Price == "" {
		return nil, ErrTitleAndPriceRequired
	}

	imagePath := ""
	if in.ImageBase64 != "" {
		filename, err := s.uploads.Ingest(in.ImageBase64, s.maxImageBytes, "listing")
		if err != nil {
			return nil, err
		}
		imagePath = filename
	}

	created, err := s.repo.Create(ctx, in.Title, in.Category, in.Price, in.Description, imagePath, time.Now().UnixMilli(), ownerID)
	if err != nil {
		return nil, err
	}

	created.ImagePath = s.uploads.PublicPath(created.ImagePath)
	return created, nil
}

// UpdateInput carries partial field updates. Nil pointers leave the
// field unchanged; ImageBase64 replaces the stored image when non-empty.
type UpdateInput struct {
	Title       *string
	Category    *string
	Price       *string
	Description *string
	ImageBase64 string
}

// Update applies a partial update to a listing the caller owns. A new
// image replaces the stored one and the previous file is best-effort
// removed after the row update succeeds.
func (s *Service) Update(ctx context.Context, callerID, id int64, in UpdateInput) (*Listing, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID == nil || *existing.OwnerID != callerID {
		return nil, ErrForbidden
	}

	updates := FieldUpdates{
		Title:       in.Title,
		Category:    in.Category,
		Price:       in.Price,
		Description: in.Description,
	}

	oldImage := ""
	if in.ImageBase64 != "" {
		filename, err := s.uploads.Ingest(in.ImageBase64, s.maxImageBytes, "listing")
		if err != nil {
			return nil, err
		}
		updates.ImagePath = &filename
		oldImage = existing.ImagePath
	}

	if updates.Empty() {
		return nil, ErrNoFieldsToUpdate
	}

	updated, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	if oldImage != "" && updates.ImagePath != nil && oldImage != *updates.ImagePath {
		s.uploads.Remove(oldImage)
	}

	updated.ImagePath = s.uploads.PublicPath(updated.ImagePath)
	return updated, nil
}

// Delete removes a listing the caller owns along with its image file
func (s *Service) Delete(ctx context.Context, callerID, id int64) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.OwnerID == nil || *existing.OwnerID != callerID {
		return ErrForbidden
	}

	s.uploads.Remove(existing.ImagePath)

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete listing %d: %w", id, err)
	}
	return nil
}
