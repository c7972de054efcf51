package listing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"marketplace-api/internal/auth"
	"marketplace-api/internal/httputil"
	"marketplace-api/internal/logging"
	"marketplace-api/internal/upload"
)

// TotalCountHeader carries the filter-wide match count on list responses
const TotalCountHeader = "X-Total-Count"

// Handler contains HTTP handlers for listing endpoints
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type CreateRequest struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Description string `json:"description"`
	ImageBase64 string `json:"imageBase64"`
}

type UpdateRequest struct {
	Title       *string `json:"title"`
	Category    *string `json:"category"`
	Price       *string `json:"price"`
	Description *string `json:"description"`
	ImageBase64 string  `json:"imageBase64"`
}

type DeleteResponse struct {
	Success bool `json:"success"`
}

// List returns a filtered page of listings. The total match count goes
// into the X-Total-Count header so clients can paginate.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var callerID int64
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		callerID = identity.UserID
	}

	f := ParseFilter(r.URL.Query(), callerID)

	listings, total, err := h.service.List(r.Context(), f)
	if err != nil {
		logger.Error("failed to list listings", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list listings", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	w.Header().Set(TotalCountHeader, strconv.Itoa(total))
	httputil.RespondJSON(w, listings, http.StatusOK)
}

// Get returns a single listing by id
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := parseID(r)
	if err != nil {
		httputil.RespondErrorWithCode(w, "listing not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}

	l, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "listing not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get listing", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get listing", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, l, http.StatusOK)
}

// Create stores a new listing owned by the authenticated caller
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), identity.UserID, CreateInput{
		Title:       req.Title,
		Category:    req.Category,
		Price:       req.Price,
		Description: req.Description,
		ImageBase64: req.ImageBase64,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrTitleAndPriceRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidation, http.StatusBadRequest)
		case upload.IsValidationError(err):
			logger.Warn("listing image rejected", "error", err.Error())
			httputil.RespondErrorWithCode(w, "invalid image upload", httputil.CodeInvalidImage, http.StatusBadRequest)
		default:
			logger.Error("failed to create listing", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to create listing", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("listing created", "listing_id", created.ID, "owner_id", identity.UserID)
	httputil.RespondJSON(w, created, http.StatusCreated)
}

// Update applies a partial update to a listing the caller owns
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	id, err := parseID(r)
	if err != nil {
		httputil.RespondErrorWithCode(w, "listing not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.Update(r.Context(), identity.UserID, id, UpdateInput{
		Title:       req.Title,
		Category:    req.Category,
		Price:       req.Price,
		Description: req.Description,
		ImageBase64: req.ImageBase64,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httputil.RespondErrorWithCode(w, "listing not found", httputil.CodeNotFound, http.StatusNotFound)
		case errors.Is(err, ErrForbidden):
			httputil.RespondErrorWithCode(w, "forbidden", httputil.CodeForbidden, http.StatusForbidden)
		case errors.Is(err, ErrNoFieldsToUpdate):
			httputil.RespondErrorWithCode(w, "no fields to update", httputil.CodeNoFieldsToUpdate, http.StatusBadRequest)
		case upload.IsValidationError(err):
			logger.Warn("listing image rejected", "error", err.Error())
			httputil.RespondErrorWithCode(w, "invalid image upload", httputil.CodeInvalidImage, http.StatusBadRequest)
		default:
			logger.Error("failed to update listing", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to update listing", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	httputil.RespondJSON(w, updated, http.StatusOK)
}

// Delete removes a listing the caller owns
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	id, err := parseID(r)
	if err != nil {
		httputil.RespondErrorWithCode(w, "listing not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}

	if err := h.service.Delete(r.Context(), identity.UserID, id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httputil.RespondErrorWithCode(w, "listing not found", httputil.CodeNotFound, http.StatusNotFound)
		case errors.Is(err, ErrForbidden):
			httputil.RespondErrorWithCode(w, "forbidden", httputil.CodeForbidden, http.StatusForbidden)
		default:
			logger.Error("failed to delete listing", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to delete listing", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	httputil.RespondJSON(w, DeleteResponse{Success: true}, http.StatusOK)
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
