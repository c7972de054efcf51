package auth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"marketplace-api/internal/httputil"
	"marketplace-api/internal/logging"
	"marketplace-api/internal/ratelimit"
	"marketplace-api/internal/upload"
	"marketplace-api/internal/user"
)

// genericResetMessage is returned for every forgot-password request,
// whether or not the account exists. Must stay byte-identical across
// both branches to prevent account enumeration.
const genericResetMessage = "If an account with that email exists, a reset code has been sent."

// Handler contains HTTP handlers for account endpoints
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
	uploads     *upload.Store
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, uploads *upload.Store, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		uploads:     uploads,
		logger:      logger,
	}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type AvatarRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type SessionResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
	Token   string       `json:"token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ProfileResponse struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	CreatedAt  *int64 `json:"created_at"`
	AvatarPath string `json:"avatar_path"`
}

type AvatarResponse struct {
	AvatarPath string `json:"avatarPath"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limited(w, r, "register") {
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	newUser, token, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("registration failed: email already exists", "email", req.Email)
			httputil.RespondErrorWithCode(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusBadRequest)
		case errors.Is(err, ErrEmailRequired),
			errors.Is(err, ErrPasswordRequired),
			errors.Is(err, ErrPasswordTooShort),
			errors.Is(err, ErrInvalidEmailFormat):
			logger.Warn("registration failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidation, http.StatusBadRequest)
		default:
			logger.Error("registration failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered", "user_id", newUser.ID)

	httputil.RespondJSON(w, SessionResponse{
		Success: true,
		User:    UserResponse{ID: newUser.ID, Name: newUser.Name, Email: newUser.Email},
		Token:   token,
	}, http.StatusOK)
}

// Login handles user login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limited(w, r, "login") {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	existingUser, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials", "email", req.Email)
			httputil.RespondErrorWithCode(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in", "user_id", existingUser.ID)

	httputil.RespondJSON(w, SessionResponse{
		Success: true,
		User:    UserResponse{ID: existingUser.ID, Name: existingUser.Name, Email: existingUser.Email},
		Token:   token,
	}, http.StatusOK)
}

// ForgotPassword issues a reset code. The response is identical whether
// or not the account exists.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limited(w, r, "forgot") {
		return
	}

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		// The service swallows lookup failures itself; anything surfacing
		// here is unexpected but still must not alter the response.
		logger.Error("password reset request failed", "error", err.Error())
	}

	httputil.RespondJSON(w, MessageResponse{Message: genericResetMessage}, http.StatusOK)
}

// ResetPassword consumes a reset code and replaces the password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, ErrResetCodeExpired):
			httputil.RespondErrorWithCode(w, "reset code has expired", httputil.CodeResetCodeExpired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidResetCode):
			httputil.RespondErrorWithCode(w, "invalid reset code", httputil.CodeInvalidResetCode, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired), errors.Is(err, ErrPasswordTooShort):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidation, http.StatusBadRequest)
		default:
			logger.Error("password reset failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to reset password", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	httputil.RespondJSON(w, MessageResponse{Message: "Password updated successfully."}, http.StatusOK)
}

// Me returns the authenticated caller's profile
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	profile, err := h.service.Profile(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to load profile", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	avatarPath := ""
	if profile.AvatarPath != nil {
		avatarPath = h.uploads.PublicPath(*profile.AvatarPath)
	}

	httputil.RespondJSON(w, ProfileResponse{
		Name:       profile.Name,
		Email:      profile.Email,
		CreatedAt:  profile.CreatedAt,
		AvatarPath: avatarPath,
	}, http.StatusOK)
}

// Avatar uploads a new avatar image for the authenticated caller
func (h *Handler) Avatar(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req AvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if req.ImageBase64 == "" {
		httputil.RespondErrorWithCode(w, "imageBase64 is required", httputil.CodeValidation, http.StatusBadRequest)
		return
	}

	avatarPath, err := h.service.UpdateAvatar(r.Context(), identity.UserID, req.ImageBase64)
	if err != nil {
		switch {
		case upload.IsValidationError(err):
			logger.Warn("avatar upload rejected", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidImage, http.StatusBadRequest)
		case errors.Is(err, user.ErrNotFound):
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
		default:
			logger.Error("avatar upload failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to upload avatar", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	httputil.RespondJSON(w, AvatarResponse{AvatarPath: avatarPath}, http.StatusOK)
}

// limited applies the rate limiter and writes a 429 when exceeded
func (h *Handler) limited(w http.ResponseWriter, r *http.Request, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := clientIP(r)
	allowed, err := h.rateLimiter.Allow(r.Context(), ip, purpose)
	if err != nil {
		// Fail open: a rate limiter outage must not take auth down
		logger.Error("rate limiter check failed", "error", err.Error())
		return false
	}
	if !allowed {
		logger.Warn("rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}
	return false
}

// clientIP returns the caller address without the port. chi's RealIP
// middleware has already resolved proxy headers into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
