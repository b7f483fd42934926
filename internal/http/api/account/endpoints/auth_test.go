package endpoints_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daygrid/daygrid/internal/db/dbtest"
	"github.com/daygrid/daygrid/internal/http/api"
	"github.com/daygrid/daygrid/internal/http/api/account/endpoints"
	"github.com/daygrid/daygrid/internal/http/middleware"
)

const testSecret = "test-secret"

func setupRouter(store *dbtest.MemStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
		Auth:   false,
	},
		endpoints.AuthPublicModule(testSecret, store),
	)
	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api",
		Auth:      true,
		SecretKey: testSecret,
		Store:     store,
	},
		endpoints.AuthSessionModule(testSecret, store),
	)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload any, token string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignupLoginAndProfile(t *testing.T) {
	store := dbtest.NewMemStore()
	router := setupRouter(store)

	w := postJSON(t, router, "/api/auth/signup", map[string]string{
		"username": "morning-person",
		"email":    "test@example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var signup struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signup))
	assert.NotEmpty(t, signup.Token)

	// duplicate email is rejected
	w = postJSON(t, router, "/api/auth/signup", map[string]string{
		"username": "someone-else",
		"email":    "test@example.com",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	// login with the same credentials
	w = postJSON(t, router, "/api/auth/login", map[string]string{
		"email":    "test@example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	// profile requires the token
	req := httptest.NewRequest(http.MethodGet, "/api/auth/current_profile", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/current_profile", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var profile struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "morning-person", profile.Username)
	assert.Equal(t, "test@example.com", profile.Email)
	assert.Equal(t, "user", profile.Role)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	store := dbtest.NewMemStore()
	hashed, err := middleware.HashPassword("correct-horse")
	require.NoError(t, err)
	store.SeedUser("alice", "alice@example.com", hashed, "user")

	router := setupRouter(store)

	w := postJSON(t, router, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-horse",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfileRejectsTakenEmail(t *testing.T) {
	store := dbtest.NewMemStore()
	hashed, err := middleware.HashPassword("password123")
	require.NoError(t, err)
	aliceID := store.SeedUser("alice", "alice@example.com", hashed, "user")
	store.SeedUser("bob", "bob@example.com", hashed, "user")

	router := setupRouter(store)
	token, err := middleware.GenerateJWT(aliceID, testSecret)
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]string{
		"username": "alice",
		"email":    "bob@example.com",
	})
	req := httptest.NewRequest(http.MethodPut, "/api/auth/current_profile", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}
