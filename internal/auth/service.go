package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"time"

	"golang.org/x/crypto/bcrypt"

	"marketplace-api/internal/email"
	"marketplace-api/internal/logging"
	"marketplace-api/internal/upload"
	"marketplace-api/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrInvalidResetCode   = errors.New("invalid reset code")
	ErrResetCodeExpired   = errors.New("reset code has expired")
)

// Service handles account business logic: registration, login, password
// reset and avatar upload.
type Service struct {
	userRepo       *user.Repository
	tokenService   TokenService
	mailer         email.Mailer
	uploads        *upload.Store
	logger         *logging.Logger
	tokenDuration  time.Duration
	resetCodeTTL   time.Duration
	maxAvatarBytes int64
}

func NewService(
	userRepo *user.Repository,
	tokenService TokenService,
	mailer email.Mailer,
	uploads *upload.Store,
	logger *logging.Logger,
	tokenDuration time.Duration,
	resetCodeTTL time.Duration,
	maxAvatarBytes int64,
) *Service {
	return &Service{
		userRepo:       userRepo,
		tokenService:   tokenService,
		mailer:         mailer,
		uploads:        uploads,
		logger:         logger,
		tokenDuration:  tokenDuration,
		resetCodeTTL:   resetCodeTTL,
		maxAvatarBytes: maxAvatarBytes,
	}
}

// Register creates a new user account and returns it with a session token
func (s *Service) Register(ctx context.Context, name, email, password string) (*user.User, string, error) {
	if email == "" {
		return nil, "", ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, "", ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, "", ErrPasswordRequired
	}
	if len(password) < 6 {
		return nil, "", ErrPasswordTooShort
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.userRepo.Create(ctx, name, email, string(passwordHash))
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, "", user.ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokenService.CreateToken(newUser.ID, newUser.Name, newUser.Email, s.tokenDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}

	return newUser, token, nil
}

// Login authenticates a user and returns it with a session token.
// Unknown email and wrong password produce the same error so callers
// can't probe which accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	if email == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(existingUser.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokenService.CreateToken(existingUser.ID, existingUser.Name, existingUser.Email, s.tokenDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}

	return existingUser, token, nil
}

// RequestPasswordReset issues a one-time reset code for the account.
// Always returns nil so the response can't be used to enumerate accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	existingUser, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		s.logger.Warn("failed to get user for password reset", "error", err.Error())
		return nil
	}

	code, err := generateResetCode()
	if err != nil {
		s.logger.Warn("failed to generate reset code", "error", err.Error())
		return nil
	}

	if err := s.userRepo.SetResetCode(ctx, existingUser.ID, code, time.Now().UnixMilli()); err != nil {
		s.logger.Warn("failed to store reset code", "error", err.Error())
		return nil
	}

	// Deliver in the background; a fresh context avoids request cancellation
	go func() {
		if err := s.mailer.SendPasswordResetCode(context.Background(), emailAddr, code); err != nil {
			s.logger.Warn("failed to send reset code", "email", emailAddr, "error", err.Error())
		}
	}()

	return nil
}

// ResetPassword replaces the password for the account a valid, unexpired
// reset code was issued to. The code is single-use: it is cleared together
// with the issuance timestamp on success.
func (s *Service) ResetPassword(ctx context.Context, code, newPassword string) error {
	if code == "" {
		return ErrInvalidResetCode
	}
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if len(newPassword) < 6 {
		return ErrPasswordTooShort
	}

	existingUser, err := s.userRepo.GetByResetCode(ctx, code)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidResetCode
		}
		return fmt.Errorf("failed to get user by reset code: %w", err)
	}

	// An expired code stays on the row until a new forgot-password request
	// overwrites it; the reset itself is simply rejected.
	if existingUser.ResetRequestedAt == nil {
		return ErrInvalidResetCode
	}
	issuedAt := time.UnixMilli(*existingUser.ResetRequestedAt)
	if time.Since(issuedAt) > s.resetCodeTTL {
		return ErrResetCodeExpired
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePasswordAndClearResetCode(ctx, existingUser.ID, string(passwordHash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// Profile returns the account of the authenticated caller
func (s *Service) Profile(ctx context.Context, userID int64) (*user.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateAvatar ingests a new avatar image for the user and returns its
// public path. The previous avatar file is best-effort removed.
func (s *Service) UpdateAvatar(ctx context.Context, userID int64, imageDataURL string) (string, error) {
	existingUser, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	filename, err := s.uploads.Ingest(imageDataURL, s.maxAvatarBytes, fmt.Sprintf("avatar_%d", userID))
	if err != nil {
		return "", err
	}

	if err := s.userRepo.UpdateAvatarPath(ctx, userID, filename); err != nil {
		return "", fmt.Errorf("failed to update avatar path: %w", err)
	}

	if existingUser.AvatarPath != nil && *existingUser.AvatarPath != filename {
		s.uploads.Remove(*existingUser.AvatarPath)
	}

	return s.uploads.PublicPath(filename), nil
}

// generateResetCode produces a 6-digit numeric one-time code
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
