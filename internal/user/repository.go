package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"marketplace-api/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, name, email, passwordHash string) (*User, error) {
	now := time.Now().UnixMilli()
	dbUser := &database.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    &now,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email. The lookup is case-sensitive:
// emails are stored and matched exactly as registered.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByResetCode retrieves the user a password reset code was issued to
func (r *Repository) GetByResetCode(ctx context.Context, code string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("reset_code = ?", code).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by reset code: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// SetResetCode stores a fresh reset code and its issuance time,
// overwriting any previous one.
func (r *Repository) SetResetCode(ctx context.Context, userID int64, code string, requestedAt int64) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("reset_code = ?", code).
		Set("reset_requested_at = ?", requestedAt).
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set reset code: %w", err)
	}

	return requireRowsAffected(result)
}

// UpdatePasswordAndClearResetCode replaces the password hash and clears
// the reset fields in one statement so a used code can't be replayed.
func (r *Repository) UpdatePasswordAndClearResetCode(ctx context.Context, userID int64, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("reset_code = ?", nil).
		Set("reset_requested_at = ?", nil).
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return requireRowsAffected(result)
}

// UpdateAvatarPath stores the relative filename of the user's avatar
func (r *Repository) UpdateAvatarPath(ctx context.Context, userID int64, avatarPath string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("avatar_path = ?", avatarPath).
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update avatar path: %w", err)
	}

	return requireRowsAffected(result)
}

func requireRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// mapDBUserToModel converts the database model to the domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:               dbu.ID,
		Name:             dbu.Name,
		Email:            dbu.Email,
		PasswordHash:     dbu.PasswordHash,
		ResetCode:        dbu.ResetCode,
		ResetRequestedAt: dbu.ResetRequestedAt,
		CreatedAt:        dbu.CreatedAt,
		AvatarPath:       dbu.AvatarPath,
	}
}
