package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloud-analytics/cloud-analytics-backend/internal/auth"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/users"
)

type fakeUserStore struct {
	hashes map[string]string
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{hashes: make(map[string]string)}
}

func (s *fakeUserStore) Create(_ context.Context, username, passwordHash string) error {
	if _, ok := s.hashes[username]; ok {
		return users.ErrExists
	}
	s.hashes[username] = passwordHash
	return nil
}

func (s *fakeUserStore) GetPasswordHash(_ context.Context, username string) (string, error) {
	hash, ok := s.hashes[username]
	if !ok {
		return "", users.ErrNotFound
	}
	return hash, nil
}

func setupAuthRouter(store UserStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := auth.NewService("test-secret", 15*time.Minute)
	NewHandler(svc, store).RegisterRoutes(r.Group("/auth"))
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestRegisterAndLogin(t *testing.T) {
	store := newFakeUserStore()
	r := setupAuthRouter(store)

	rr := postJSON(r, "/auth/register", `{"username":"alice","password":"p@ssw0rd"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = postJSON(r, "/auth/token", `{"username":"alice","password":"p@ssw0rd"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	store := newFakeUserStore()
	r := setupAuthRouter(store)

	rr := postJSON(r, "/auth/register", `{"username":"alice","password":"p@ssw0rd"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = postJSON(r, "/auth/register", `{"username":"alice","password":"other"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRegisterMissingFields(t *testing.T) {
	r := setupAuthRouter(newFakeUserStore())

	rr := postJSON(r, "/auth/register", `{"username":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegisterSanitizesUsername(t *testing.T) {
	store := newFakeUserStore()
	r := setupAuthRouter(store)

	rr := postJSON(r, "/auth/register", `{"username":"al ice!","password":"p@ssw0rd"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	_, ok := store.hashes["alice"]
	assert.True(t, ok, "expected sanitized username to be stored")
}

func TestLoginWrongPassword(t *testing.T) {
	store := newFakeUserStore()
	r := setupAuthRouter(store)

	rr := postJSON(r, "/auth/register", `{"username":"alice","password":"p@ssw0rd"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = postJSON(r, "/auth/token", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
}

func TestLoginUnknownUser(t *testing.T) {
	r := setupAuthRouter(newFakeUserStore())

	rr := postJSON(r, "/auth/token", `{"username":"ghost","password":"p@ssw0rd"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAuthGuardsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := auth.NewService("test-secret", 15*time.Minute)

	r := gin.New()
	protected := r.Group("/protected")
	protected.Use(auth.RequireAuth(svc))
	protected.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": auth.Username(c)})
	})

	// No token.
	req := httptest.NewRequest(http.MethodGet, "/protected/ping", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))

	// Valid token.
	token, err := svc.GenerateToken("alice", 15*time.Minute)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/protected/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "alice")

	// Garbage token.
	req = httptest.NewRequest(http.MethodGet, "/protected/ping", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
