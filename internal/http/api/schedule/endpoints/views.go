package endpoints

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/daygrid/daygrid/internal/db"
	"github.com/daygrid/daygrid/internal/http/api"
	"github.com/daygrid/daygrid/internal/http/api/schedule/packets"
	"github.com/daygrid/daygrid/internal/recurrence"
)

type ViewController struct {
	store db.Store
}

func NewViewController(store db.Store) *ViewController {
	return &ViewController{store: store}
}

// ViewModule mounts the calendar read path: every layout funnels through the
// same expansion, so the daily, weekly and monthly views can never disagree
// about which dates an item occurs on.
func ViewModule(store db.Store) api.Module {
	ctl := NewViewController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/schedulers/:id/occurrences", ctl.listOccurrences)
		c.PUBLIC_GET("/schedulers/:id/views/daily/:date", ctl.dailyView)
		c.PUBLIC_GET("/schedulers/:id/views/weekly/:date", ctl.weeklyView)
		c.PUBLIC_GET("/schedulers/:id/views/monthly/:month", ctl.monthlyView)
	})
}

// GET /schedulers/:id/occurrences?from=YYYY-MM-DD&to=YYYY-MM-DD
func (v *ViewController) listOccurrences(ctx *gin.Context) (any, *api.APIError) {
	var query packets.ListOccurrencesQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	from, err := recurrence.ParseLocalDate(query.From)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	to, err := recurrence.ParseLocalDate(query.To)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	return v.expand(ctx, recurrence.Window{From: from, To: to})
}

// GET /schedulers/:id/views/daily/:date
func (v *ViewController) dailyView(ctx *gin.Context) (any, *api.APIError) {
	date, err := recurrence.ParseLocalDate(ctx.Param("date"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	return v.expand(ctx, recurrence.DayWindow(date))
}

// GET /schedulers/:id/views/weekly/:date
// Expands the ISO week (Monday start) containing the given date.
func (v *ViewController) weeklyView(ctx *gin.Context) (any, *api.APIError) {
	date, err := recurrence.ParseLocalDate(ctx.Param("date"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	return v.expand(ctx, recurrence.WeekWindow(date))
}

// GET /schedulers/:id/views/monthly/:month (month is "YYYY-MM")
func (v *ViewController) monthlyView(ctx *gin.Context) (any, *api.APIError) {
	window, err := recurrence.MonthWindow(ctx.Param("month"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	return v.expand(ctx, window)
}

func (v *ViewController) expand(ctx *gin.Context, window recurrence.Window) (any, *api.APIError) {
	schedulerID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid scheduler id"}
	}

	if _, err := v.store.GetScheduler(schedulerID); err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "scheduler not found"}
	}

	rows, err := v.store.ListSchedulerItems(schedulerID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to load items"}
	}

	items := make([]recurrence.Item, 0, len(rows))
	itemIDs := make([]int, 0, len(rows))
	for i := range rows {
		item, err := rows[i].ExpansionItem()
		if err != nil {
			// a stored row the normalizer rejects means the data drifted
			// past what ingestion should have allowed; skip it rather than
			// blank the whole calendar
			log.Error().Err(err).Int("item_id", rows[i].ID).Msg("stored item has unusable recurrence fields")
			continue
		}
		items = append(items, item)
		itemIDs = append(itemIDs, rows[i].ID)
	}

	// deleted rows are requested too: the expander needs them to suppress
	// dates
	overrideRows, err := v.store.ListOccurrenceOverrides(
		itemIDs, recurrence.FormatDate(window.From), recurrence.FormatDate(window.To), true)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to load occurrence overrides"}
	}

	overrides := make(map[recurrence.OverrideKey]recurrence.Override, len(overrideRows))
	for i := range overrideRows {
		row := &overrideRows[i]
		key := recurrence.OverrideKey{ItemID: row.SchedulerItemID, Date: row.OccurrenceDate}
		overrides[key] = row.Override()
	}

	occurrences, err := recurrence.ExpandMany(items, overrides, window.From, window.To)
	if err != nil {
		if errors.Is(err, recurrence.ErrUnboundedWindow) {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "expansion failed"}
	}

	return packets.OccurrencesResponse{
		From:        recurrence.FormatDate(window.From),
		To:          recurrence.FormatDate(window.To),
		Occurrences: occurrences,
	}, nil
}
