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
	"github.com/daygrid/daygrid/internal/http/api/schedule/endpoints"
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
		endpoints.SchedulerPublicModule(store),
		endpoints.ViewModule(store),
		endpoints.OccurrencePublicModule(store),
	)
	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api",
		Auth:      true,
		SecretKey: testSecret,
		Store:     store,
	},
		endpoints.SchedulerModule(store, nil),
		endpoints.OccurrenceModule(store, nil),
	)
	return r
}

func seedUser(t *testing.T, store *dbtest.MemStore, username, email, role string) (int, string) {
	t.Helper()
	hashed, err := middleware.HashPassword("password123")
	require.NoError(t, err)
	id := store.SeedUser(username, email, hashed, role)
	token, err := middleware.GenerateJWT(id, testSecret)
	require.NoError(t, err)
	return id, token
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func weeklyRunPayload() map[string]any {
	return map[string]any{
		"title":    "Marathon prep",
		"category": "fitness",
		"items": []map[string]any{
			{
				"title":           "Long run",
				"start_time":      "07:00",
				"end_time":        "08:30",
				"recurrence_type": "weekly",
				"day_of_week":     1,
				"target_date":     "2024-01-03",
			},
			{
				"title":           "Race day",
				"start_time":      "09:00",
				"recurrence_type": "one-time",
				"target_date":     "2024-01-10",
			},
		},
	}
}

func TestCreateAndGetScheduler(t *testing.T) {
	store := dbtest.NewMemStore()
	_, token := seedUser(t, store, "runner", "runner@example.com", "user")
	router := setupRouter(store)

	w := doJSON(t, router, http.MethodPost, "/api/schedulers", weeklyRunPayload(), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created struct {
		ID    int `json:"id"`
		Items []struct {
			ID            int     `json:"id"`
			Recurrence    string  `json:"recurrence_type"`
			DayOfWeek     *int    `json:"day_of_week"`
			ItemStartDate *string `json:"item_start_date"`
			NextOccur     *string `json:"next_occurrence"`
			Color         string  `json:"color"`
			Priority      int     `json:"priority"`
		} `json:"items"`
	}
	decode(t, w, &created)
	require.Len(t, created.Items, 2)

	weekly := created.Items[0]
	assert.Equal(t, "weekly", weekly.Recurrence)
	require.NotNil(t, weekly.DayOfWeek)
	assert.Equal(t, 1, *weekly.DayOfWeek)
	require.NotNil(t, weekly.ItemStartDate)
	assert.Equal(t, "2024-01-03", *weekly.ItemStartDate)
	assert.Equal(t, "blue", weekly.Color)
	assert.Equal(t, 1, weekly.Priority)

	// public detail read works without a token
	w = doJSON(t, router, http.MethodGet, "/api/schedulers/1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var detail struct {
		Title string `json:"title"`
		Items []any  `json:"items"`
	}
	decode(t, w, &detail)
	assert.Equal(t, "Marathon prep", detail.Title)
	assert.Len(t, detail.Items, 2)
}

func TestCreateSchedulerRejectsMalformedItem(t *testing.T) {
	store := dbtest.NewMemStore()
	_, token := seedUser(t, store, "runner", "runner@example.com", "user")
	router := setupRouter(store)

	payload := map[string]any{
		"title": "Broken",
		"items": []map[string]any{
			{
				"title":           "No anchor",
				"recurrence_type": "weekly",
			},
		},
	}
	w := doJSON(t, router, http.MethodPost, "/api/schedulers", payload, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateSchedulerRequiresOwnership(t *testing.T) {
	store := dbtest.NewMemStore()
	_, ownerToken := seedUser(t, store, "owner", "owner@example.com", "user")
	_, otherToken := seedUser(t, store, "other", "other@example.com", "user")
	_, adminToken := seedUser(t, store, "boss", "boss@example.com", "admin")
	router := setupRouter(store)

	w := doJSON(t, router, http.MethodPost, "/api/schedulers", weeklyRunPayload(), ownerToken)
	require.Equal(t, http.StatusOK, w.Code)

	update := map[string]any{"title": "Renamed"}

	w = doJSON(t, router, http.MethodPut, "/api/schedulers/1", update, otherToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodPut, "/api/schedulers/1", update, ownerToken)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// admins may edit any scheduler
	w = doJSON(t, router, http.MethodPut, "/api/schedulers/1", map[string]any{"title": "Moderated"}, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/schedulers/1", nil, otherToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/schedulers/1", nil, ownerToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLikeIsIdempotentAndUnlikeReverts(t *testing.T) {
	store := dbtest.NewMemStore()
	_, ownerToken := seedUser(t, store, "owner", "owner@example.com", "user")
	_, fanToken := seedUser(t, store, "fan", "fan@example.com", "user")
	router := setupRouter(store)

	w := doJSON(t, router, http.MethodPost, "/api/schedulers", weeklyRunPayload(), ownerToken)
	require.Equal(t, http.StatusOK, w.Code)

	likeCount := func() int {
		w := doJSON(t, router, http.MethodGet, "/api/schedulers/1", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			LikeCount int `json:"like_count"`
		}
		decode(t, w, &resp)
		return resp.LikeCount
	}

	doJSON(t, router, http.MethodPost, "/api/schedulers/1/like", nil, fanToken)
	assert.Equal(t, 1, likeCount())

	// a second like from the same user does not double-count
	doJSON(t, router, http.MethodPost, "/api/schedulers/1/like", nil, fanToken)
	assert.Equal(t, 1, likeCount())

	doJSON(t, router, http.MethodDelete, "/api/schedulers/1/like", nil, fanToken)
	assert.Equal(t, 0, likeCount())
}

func TestBrowseFiltersByCategoryAndVisibility(t *testing.T) {
	store := dbtest.NewMemStore()
	_, token := seedUser(t, store, "owner", "owner@example.com", "user")
	router := setupRouter(store)

	private := false
	payloads := []map[string]any{
		{"title": "Morning routine", "category": "fitness"},
		{"title": "Study plan", "category": "study"},
		{"title": "Secret plan", "category": "fitness", "is_public": private},
	}
	for _, p := range payloads {
		w := doJSON(t, router, http.MethodPost, "/api/schedulers", p, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := doJSON(t, router, http.MethodGet, "/api/schedulers?category=fitness", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var list []struct {
		Title string `json:"title"`
	}
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Morning routine", list[0].Title)
}
