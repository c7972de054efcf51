package listing

import (
	"strings"

	"marketplace-api/internal/database"
)

// Listing is the API-facing listing record. ImagePath holds the public
// servable path, not the stored relative filename.
type Listing struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Category     string   `json:"category"`
	Price        string   `json:"price"`
	Description  string   `json:"description"`
	ImagePath    string   `json:"imagePath"`
	CreatedAt    int64    `json:"created_at"` // epoch ms
	OwnerID      *int64   `json:"owner_id"`
	Discount     int      `json:"discount"`
	Rating       float64  `json:"rating"`
	ReviewsCount int      `json:"reviewsCount"`
	InStock      bool     `json:"in_stock"`
	IsHot        bool     `json:"is_hot"`
	Tags         []string `json:"tags"`
}

// mapDBListingToModel converts the database model to the domain model.
// in_stock is NULL on rows that predate the column; those stay visible,
// so NULL maps to true.
func mapDBListingToModel(dbl *database.Listing) *Listing {
	inStock := dbl.InStock == nil || *dbl.InStock == 1

	var tags []string
	if dbl.Tags != "" {
		for _, t := range strings.Split(dbl.Tags, ",") {
			if trimmed := strings.TrimSpace(t); trimmed != "" {
				tags = append(tags, trimmed)
			}
		}
	}

	return &Listing{
		ID:           dbl.ID,
		Title:        dbl.Title,
		Category:     dbl.Category,
		Price:        dbl.Price,
		Description:  dbl.Description,
		ImagePath:    dbl.ImagePath, // rewritten to a public path by the service
		CreatedAt:    dbl.CreatedAt,
		OwnerID:      dbl.OwnerID,
		Discount:     dbl.Discount,
		Rating:       dbl.Rating,
		ReviewsCount: dbl.ReviewsCount,
		InStock:      inStock,
		IsHot:        dbl.IsHot == 1,
		Tags:         tags,
	}
}
