package listing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-api/internal/auth"
	"marketplace-api/internal/logging"
	"marketplace-api/internal/upload"
)

var testPasetoKey = []byte("0123456789abcdef0123456789abcdef")

type listingTestEnv struct {
	router *chi.Mux
	tokens *auth.PasetoService
}

func setupListingRouter(t *testing.T) *listingTestEnv {
	t.Helper()

	db := setupDB(t)
	logger := logging.NewLogger(true)
	uploads := upload.NewStore(t.TempDir(), logger)

	pasetoService, err := auth.NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	svc := NewService(NewRepository(db), uploads, logger, 5*1024*1024)
	handler := NewHandler(svc, logger)
	middleware := auth.NewMiddleware(pasetoService)

	r := chi.NewRouter()
	r.Route("/listings", func(r chi.Router) {
		r.With(middleware.OptionalAuth).Get("/", handler.List)
		r.Get("/{id}", handler.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/", handler.Create)
			r.Put("/{id}", handler.Update)
			r.Delete("/{id}", handler.Delete)
		})
	})

	return &listingTestEnv{router: r, tokens: pasetoService}
}

func (env *listingTestEnv) tokenFor(t *testing.T, userID int64, name string) string {
	t.Helper()
	token, err := env.tokens.CreateToken(userID, name, fmt.Sprintf("%s@example.com", name), time.Hour)
	require.NoError(t, err)
	return token
}

func (env *listingTestEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *listingTestEnv) create(t *testing.T, token string, body map[string]string) *Listing {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/listings", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return &created
}

func TestCreateRequiresAuth(t *testing.T) {
	env := setupListingRouter(t)

	rec := env.do(t, http.MethodPost, "/listings", "", map[string]string{"title": "Bike", "price": "100"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndGet(t *testing.T) {
	env := setupListingRouter(t)
	token := env.tokenFor(t, 1, "alice")

	created := env.create(t, token, map[string]string{
		"title": "Bike", "category": "sport", "price": "2000", "description": "good bike",
	})
	require.NotNil(t, created.OwnerID)
	assert.Equal(t, int64(1), *created.OwnerID)

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/listings/%d", created.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Bike", got.Title)
}

func TestCreateValidatesTitleAndPrice(t *testing.T) {
	env := setupListingRouter(t)
	token := env.tokenFor(t, 1, "alice")

	rec := env.do(t, http.MethodPost, "/listings", token, map[string]string{"title": "Bike"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMissingListing(t *testing.T) {
	env := setupListingRouter(t)

	rec := env.do(t, http.MethodGet, "/listings/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/listings/not-a-number", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSetsTotalCountHeader(t *testing.T) {
	env := setupListingRouter(t)
	token := env.tokenFor(t, 1, "alice")

	for i := 0; i < 7; i++ {
		env.create(t, token, map[string]string{"title": fmt.Sprintf("item-%d", i), "price": "10"})
	}

	rec := env.do(t, http.MethodGet, "/listings?limit=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", rec.Header().Get(TotalCountHeader))

	var page []Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page, 5)
}

func TestListMineFilter(t *testing.T) {
	env := setupListingRouter(t)
	alice := env.tokenFor(t, 1, "alice")
	bob := env.tokenFor(t, 2, "bob")

	env.create(t, alice, map[string]string{"title": "alices-bike", "price": "10"})
	env.create(t, bob, map[string]string{"title": "bobs-bike", "price": "10"})

	rec := env.do(t, http.MethodGet, "/listings?mine=true", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page []Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page, 1)
	assert.Equal(t, "alices-bike", page[0].Title)

	// Anonymous mine=true falls back to everything
	rec = env.do(t, http.MethodGet, "/listings?mine=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page, 2)
}

func TestUpdateByNonOwnerForbidden(t *testing.T) {
	env := setupListingRouter(t)
	alice := env.tokenFor(t, 1, "alice")
	bob := env.tokenFor(t, 2, "bob")

	created := env.create(t, alice, map[string]string{"title": "Bike", "price": "100"})

	rec := env.do(t, http.MethodPut, fmt.Sprintf("/listings/%d", created.ID), bob,
		map[string]string{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Row unchanged
	getRec := env.do(t, http.MethodGet, fmt.Sprintf("/listings/%d", created.ID), "", nil)
	var got Listing
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &got))
	assert.Equal(t, "Bike", got.Title)
}

func TestUpdateByOwner(t *testing.T) {
	env := setupListingRouter(t)
	alice := env.tokenFor(t, 1, "alice")

	created := env.create(t, alice, map[string]string{"title": "Bike", "price": "2000"})

	rec := env.do(t, http.MethodPut, fmt.Sprintf("/listings/%d", created.ID), alice,
		map[string]string{"price": "2500"})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "2500", updated.Price)
	assert.Equal(t, "Bike", updated.Title)
}

func TestUpdateWithoutFields(t *testing.T) {
	env := setupListingRouter(t)
	alice := env.tokenFor(t, 1, "alice")

	created := env.create(t, alice, map[string]string{"title": "Bike", "price": "2000"})

	rec := env.do(t, http.MethodPut, fmt.Sprintf("/listings/%d", created.ID), alice, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteByNonOwnerForbidden(t *testing.T) {
	env := setupListingRouter(t)
	alice := env.tokenFor(t, 1, "alice")
	bob := env.tokenFor(t, 2, "bob")

	created := env.create(t, alice, map[string]string{"title": "Bike", "price": "100"})

	rec := env.do(t, http.MethodDelete, fmt.Sprintf("/listings/%d", created.ID), bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	getRec := env.do(t, http.MethodGet, fmt.Sprintf("/listings/%d", created.ID), "", nil)
	assert.Equal(t, http.StatusOK, getRec.Code)
}

func TestDeleteByOwner(t *testing.T) {
	env := setupListingRouter(t)
	alice := env.tokenFor(t, 1, "alice")

	created := env.create(t, alice, map[string]string{"title": "Bike", "price": "100"})

	rec := env.do(t, http.MethodDelete, fmt.Sprintf("/listings/%d", created.ID), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DeleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	getRec := env.do(t, http.MethodGet, fmt.Sprintf("/listings/%d", created.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, getRec.Code)
}
