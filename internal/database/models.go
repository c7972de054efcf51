package database

import "github.com/uptrace/bun"

// User is the bun model backing the users table.
// Reset and profile columns are nullable because they were added to the
// schema after the first release.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID               int64   `bun:"id,pk,autoincrement"`
	Name             string  `bun:"name,notnull,default:''"`
	Email            string  `bun:"email,notnull,unique"`
	PasswordHash     string  `bun:"password_hash,notnull"`
	ResetCode        *string `bun:"reset_code"`
	ResetRequestedAt *int64  `bun:"reset_requested_at"` // epoch ms
	CreatedAt        *int64  `bun:"created_at"`         // epoch ms
	AvatarPath       *string `bun:"avatar_path"`        // relative filename
}

// Listing is the bun model backing the listings table.
// OwnerID is nullable: rows created before ownership was introduced have
// no owner and can never be mutated through the API.
type Listing struct {
	bun.BaseModel `bun:"table:listings,alias:l"`

	ID           int64   `bun:"id,pk,autoincrement"`
	Title        string  `bun:"title,notnull"`
	Category     string  `bun:"category,notnull,default:''"`
	Price        string  `bun:"price,notnull,default:''"`
	Description  string  `bun:"description,notnull,default:''"`
	ImagePath    string  `bun:"image_path,notnull,default:''"` // relative filename, '' if none
	CreatedAt    int64   `bun:"created_at,notnull"`            // epoch ms
	OwnerID      *int64  `bun:"owner_id"`
	Discount     int     `bun:"discount,notnull,default:0"` // percent
	Rating       float64 `bun:"rating,notnull,default:0"`
	ReviewsCount int     `bun:"reviews_count,notnull,default:0"`
	InStock      *int    `bun:"in_stock"` // NULL on legacy rows, treated as in stock
	IsHot        int     `bun:"is_hot,notnull,default:0"`
	Tags         string  `bun:"tags,notnull,default:''"` // comma-joined
}
