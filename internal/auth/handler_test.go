package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-api/internal/logging"
	"marketplace-api/internal/ratelimit"
	"marketplace-api/internal/upload"
	"marketplace-api/internal/user"
)

func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()

	db := setupDB(t)
	logger := logging.NewLogger(true)
	uploads := upload.NewStore(t.TempDir(), logger)
	userRepo := user.NewRepository(db)

	pasetoService, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	svc := NewService(
		userRepo,
		pasetoService,
		newCaptureMailer(),
		uploads,
		logger,
		7*24*time.Hour,
		15*time.Minute,
		2*1024*1024,
	)

	handler := NewHandler(svc, ratelimit.NewLimiter(nil), uploads, logger)
	middleware := NewMiddleware(pasetoService)

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
		r.Post("/forgot-password", handler.ForgotPassword)
		r.Post("/reset-password", handler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/me", handler.Me)
			r.Post("/avatar", handler.Avatar)
		})
	})
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	router := setupRouter(t)

	rec := postJSON(t, router, "/auth/register", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "secret12",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotZero(t, resp.User.ID)
	assert.Equal(t, "Alice", resp.User.Name)
	assert.NotEmpty(t, resp.Token)
}

func TestRegisterDuplicateEmailEndpoint(t *testing.T) {
	router := setupRouter(t)

	body := map[string]string{"email": "alice@example.com", "password": "secret12"}
	rec := postJSON(t, router, "/auth/register", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, router, "/auth/register", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginEndpointUniformFailure(t *testing.T) {
	router := setupRouter(t)

	rec := postJSON(t, router, "/auth/register", map[string]string{
		"email": "alice@example.com", "password": "secret12",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	unknown := postJSON(t, router, "/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "secret12",
	})
	wrongPass := postJSON(t, router, "/auth/login", map[string]string{
		"email": "alice@example.com", "password": "wrong-pass",
	})

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, unknown.Body.Bytes(), wrongPass.Body.Bytes(),
		"login failures must not reveal whether the account exists")
}

func TestForgotPasswordResponseIsUniform(t *testing.T) {
	router := setupRouter(t)

	rec := postJSON(t, router, "/auth/register", map[string]string{
		"email": "alice@example.com", "password": "secret12",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	known := postJSON(t, router, "/auth/forgot-password", map[string]string{"email": "alice@example.com"})
	unknown := postJSON(t, router, "/auth/forgot-password", map[string]string{"email": "nobody@example.com"})

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, known.Body.Bytes(), unknown.Body.Bytes(),
		"forgot-password bodies must be byte-identical for known and unknown emails")
}

func TestMeRequiresToken(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeReturnsProfile(t *testing.T) {
	router := setupRouter(t)

	rec := postJSON(t, router, "/auth/register", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret12",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var session SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	meRec := httptest.NewRecorder()
	router.ServeHTTP(meRec, req)

	require.Equal(t, http.StatusOK, meRec.Code)

	var profile ProfileResponse
	require.NoError(t, json.Unmarshal(meRec.Body.Bytes(), &profile))
	assert.Equal(t, "Alice", profile.Name)
	assert.Equal(t, "alice@example.com", profile.Email)
	require.NotNil(t, profile.CreatedAt)
	assert.Equal(t, "", profile.AvatarPath)
}

func TestMeRejectsGarbageToken(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAvatarEndpoint(t *testing.T) {
	router := setupRouter(t)

	rec := postJSON(t, router, "/auth/register", map[string]string{
		"email": "alice@example.com", "password": "secret12",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var session SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))

	const tinyPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

	payload, _ := json.Marshal(map[string]string{"imageBase64": tinyPNG})
	req := httptest.NewRequest(http.MethodPost, "/auth/avatar", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+session.Token)
	avatarRec := httptest.NewRecorder()
	router.ServeHTTP(avatarRec, req)

	require.Equal(t, http.StatusOK, avatarRec.Code)

	var resp AvatarResponse
	require.NoError(t, json.Unmarshal(avatarRec.Body.Bytes(), &resp))
	assert.Contains(t, resp.AvatarPath, "/uploads/avatar_")
}

func TestAvatarRejectsRenamedTextFile(t *testing.T) {
	router := setupRouter(t)

	rec := postJSON(t, router, "/auth/register", map[string]string{
		"email": "alice@example.com", "password": "secret12",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var session SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))

	// Declared mime says PNG, payload is text
	payload, _ := json.Marshal(map[string]string{"imageBase64": "data:image/png;base64,bm90IGFuIGltYWdl"})
	req := httptest.NewRequest(http.MethodPost, "/auth/avatar", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+session.Token)
	avatarRec := httptest.NewRecorder()
	router.ServeHTTP(avatarRec, req)

	assert.Equal(t, http.StatusBadRequest, avatarRec.Code)
}
