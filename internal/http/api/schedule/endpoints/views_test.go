package endpoints_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daygrid/daygrid/internal/db/dbtest"
	"github.com/daygrid/daygrid/internal/recurrence"
)

type occurrencesBody struct {
	From        string                  `json:"from"`
	To          string                  `json:"to"`
	Occurrences []recurrence.Occurrence `json:"occurrences"`
}

func TestWeeklyViewExpandsAlignedMondays(t *testing.T) {
	store := dbtest.NewMemStore()
	_, token := seedUser(t, store, "runner", "runner@example.com", "user")
	router := setupRouter(store)

	w := doJSON(t, router, http.MethodPost, "/api/schedulers", weeklyRunPayload(), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// the week of Mon 2024-01-08: the weekly item lands on Monday (first
	// aligned date at or after its Wednesday anchor), the one-time item on
	// its own date
	w = doJSON(t, router, http.MethodGet, "/api/schedulers/1/views/weekly/2024-01-10", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body occurrencesBody
	decode(t, w, &body)
	assert.Equal(t, "2024-01-08", body.From)
	assert.Equal(t, "2024-01-14", body.To)
	require.Len(t, body.Occurrences, 2)
	assert.Equal(t, "2024-01-08", body.Occurrences[0].Date)
	assert.Equal(t, "Long run", body.Occurrences[0].Title)
	assert.Equal(t, "2024-01-10", body.Occurrences[1].Date)
	assert.Equal(t, "Race day", body.Occurrences[1].Title)
}

func TestMonthlyViewAndExplicitWindowAgree(t *testing.T) {
	store := dbtest.NewMemStore()
	_, token := seedUser(t, store, "runner", "runner@example.com", "user")
	router := setupRouter(store)

	w := doJSON(t, router, http.MethodPost, "/api/schedulers", weeklyRunPayload(), token)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/schedulers/1/views/monthly/2024-01", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var monthly occurrencesBody
	decode(t, w, &monthly)

	w = doJSON(t, router, http.MethodGet, "/api/schedulers/1/occurrences?from=2024-01-01&to=2024-01-31", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var explicit occurrencesBody
	decode(t, w, &explicit)

	assert.Equal(t, explicit.Occurrences, monthly.Occurrences)

	// Mondays at or after the Wednesday anchor: 8th, 15th, 22nd, 29th, plus
	// the one-time item
	assert.Len(t, monthly.Occurrences, 5)
}

func TestViewRejectsMalformedDates(t *testing.T) {
	store := dbtest.NewMemStore()
	_, token := seedUser(t, store, "runner", "runner@example.com", "user")
	router := setupRouter(store)

	w := doJSON(t, router, http.MethodPost, "/api/schedulers", weeklyRunPayload(), token)
	require.Equal(t, http.StatusOK, w.Code)

	for _, path := range []string{
		"/api/schedulers/1/views/daily/2024-13-01",
		"/api/schedulers/1/views/daily/01-02-2024",
		"/api/schedulers/1/views/monthly/202401",
		"/api/schedulers/1/occurrences?from=2024-01-01",
		"/api/schedulers/1/occurrences?from=bad&to=2024-01-31",
	} {
		w := doJSON(t, router, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}

	w = doJSON(t, router, http.MethodGet, "/api/schedulers/99/views/daily/2024-01-08", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletedOccurrenceDisappearsFromViews(t *testing.T) {
	store := dbtest.NewMemStore()
	_, token := seedUser(t, store, "runner", "runner@example.com", "user")
	router := setupRouter(store)

	w := doJSON(t, router, http.MethodPost, "/api/schedulers", weeklyRunPayload(), token)
	require.Equal(t, http.StatusOK, w.Code)
	weeklyID := itemIDByTitle(t, router, 1, "Long run")

	w = doJSON(t, router, http.MethodDelete,
		fmt.Sprintf("/api/scheduler-items/%d/occurrence/2024-01-08", weeklyID), nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/schedulers/1/views/weekly/2024-01-08", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var body occurrencesBody
	decode(t, w, &body)
	require.Len(t, body.Occurrences, 1)
	assert.Equal(t, "Race day", body.Occurrences[0].Title)

	// the following Monday is untouched
	w = doJSON(t, router, http.MethodGet, "/api/schedulers/1/views/daily/2024-01-15", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	require.Len(t, body.Occurrences, 1)
	assert.Equal(t, "Long run", body.Occurrences[0].Title)

	// restore brings the date back
	w = doJSON(t, router, http.MethodPut,
		fmt.Sprintf("/api/scheduler-items/%d/occurrence/2024-01-08", weeklyID),
		map[string]any{"restore": true}, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/schedulers/1/views/daily/2024-01-08", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	assert.Len(t, body.Occurrences, 1)
}

func TestModifiedOccurrenceAppliesOnlyToItsDate(t *testing.T) {
	store := dbtest.NewMemStore()
	_, token := seedUser(t, store, "runner", "runner@example.com", "user")
	router := setupRouter(store)

	w := doJSON(t, router, http.MethodPost, "/api/schedulers", weeklyRunPayload(), token)
	require.Equal(t, http.StatusOK, w.Code)
	weeklyID := itemIDByTitle(t, router, 1, "Long run")

	w = doJSON(t, router, http.MethodPut,
		fmt.Sprintf("/api/scheduler-items/%d/occurrence/2024-01-15", weeklyID),
		map[string]any{"modifications": map[string]any{
			"title":      "Recovery jog",
			"start_time": "08:00",
		}}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body occurrencesBody
	w = doJSON(t, router, http.MethodGet, "/api/schedulers/1/views/daily/2024-01-15", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	require.Len(t, body.Occurrences, 1)
	occ := body.Occurrences[0]
	assert.Equal(t, "Recovery jog", occ.Title)
	assert.Equal(t, "08:00", occ.StartTime)
	assert.Equal(t, "08:30", occ.EndTime) // unset fields fall through
	assert.True(t, occ.Modified)

	// other dates keep the base fields
	w = doJSON(t, router, http.MethodGet, "/api/schedulers/1/views/daily/2024-01-08", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	require.Len(t, body.Occurrences, 1)
	assert.Equal(t, "Long run", body.Occurrences[0].Title)
	assert.False(t, body.Occurrences[0].Modified)
}

func TestOccurrenceEditRequiresOwnershipAndAnAction(t *testing.T) {
	store := dbtest.NewMemStore()
	_, ownerToken := seedUser(t, store, "owner", "owner@example.com", "user")
	_, otherToken := seedUser(t, store, "other", "other@example.com", "user")
	router := setupRouter(store)

	w := doJSON(t, router, http.MethodPost, "/api/schedulers", weeklyRunPayload(), ownerToken)
	require.Equal(t, http.StatusOK, w.Code)
	weeklyID := itemIDByTitle(t, router, 1, "Long run")

	path := fmt.Sprintf("/api/scheduler-items/%d/occurrence/2024-01-08", weeklyID)

	w = doJSON(t, router, http.MethodDelete, path, nil, otherToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// neither restore nor modifications
	w = doJSON(t, router, http.MethodPut, path, map[string]any{}, ownerToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPut, path,
		map[string]any{"modifications": map[string]any{}}, ownerToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// malformed date in the path
	w = doJSON(t, router, http.MethodDelete,
		fmt.Sprintf("/api/scheduler-items/%d/occurrence/notadate", weeklyID), nil, ownerToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOverridesFiltersDeleted(t *testing.T) {
	store := dbtest.NewMemStore()
	_, token := seedUser(t, store, "runner", "runner@example.com", "user")
	router := setupRouter(store)

	w := doJSON(t, router, http.MethodPost, "/api/schedulers", weeklyRunPayload(), token)
	require.Equal(t, http.StatusOK, w.Code)
	weeklyID := itemIDByTitle(t, router, 1, "Long run")

	doJSON(t, router, http.MethodDelete,
		fmt.Sprintf("/api/scheduler-items/%d/occurrence/2024-01-08", weeklyID), nil, token)
	doJSON(t, router, http.MethodPut,
		fmt.Sprintf("/api/scheduler-items/%d/occurrence/2024-01-15", weeklyID),
		map[string]any{"modifications": map[string]any{"notes": "take it easy"}}, token)

	var rows []struct {
		OccurrenceDate string `json:"occurrence_date"`
		IsDeleted      bool   `json:"is_deleted"`
	}

	w = doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/api/scheduler-items/%d/occurrences", weeklyID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-01-15", rows[0].OccurrenceDate)

	w = doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/api/scheduler-items/%d/occurrences?include_deleted=true", weeklyID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &rows)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-08", rows[0].OccurrenceDate)
	assert.True(t, rows[0].IsDeleted)
}

// itemIDByTitle reads the public detail endpoint and returns the id of the
// item with the given title.
func itemIDByTitle(t *testing.T, router *gin.Engine, schedulerID int, title string) int {
	t.Helper()
	w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/schedulers/%d", schedulerID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Items []struct {
			ID    int    `json:"id"`
			Title string `json:"title"`
		} `json:"items"`
	}
	decode(t, w, &detail)
	for _, item := range detail.Items {
		if item.Title == title {
			return item.ID
		}
	}
	t.Fatalf("no item titled %q", title)
	return 0
}
