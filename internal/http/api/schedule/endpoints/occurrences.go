package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/daygrid/daygrid/internal/db"
	"github.com/daygrid/daygrid/internal/http/api"
	"github.com/daygrid/daygrid/internal/http/api/schedule/packets"
	"github.com/daygrid/daygrid/internal/model"
	"github.com/daygrid/daygrid/internal/notify"
	"github.com/daygrid/daygrid/internal/recurrence"
)

type OccurrenceController struct {
	store    db.Store
	notifier notify.Publisher
}

func NewOccurrenceController(store db.Store, notifier notify.Publisher) *OccurrenceController {
	return &OccurrenceController{store: store, notifier: notifier}
}

// OccurrenceModule mounts the per-occurrence exception surface. Edits never
// rewrite the item's rule: a delete or a modification stays pinned to one
// (item, date) pair.
func OccurrenceModule(store db.Store, notifier notify.Publisher) api.Module {
	ctl := NewOccurrenceController(store, notifier)
	return api.ModuleFunc(func(c *api.Controller) {
		c.DELETE("/scheduler-items/:id/occurrence/:date", ctl.deleteOccurrence)
		c.PUT("/scheduler-items/:id/occurrence/:date", ctl.updateOccurrence)
	})
}

// OccurrencePublicModule exposes the override listing read-only.
func OccurrencePublicModule(store db.Store) api.Module {
	ctl := NewOccurrenceController(store, nil)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/scheduler-items/:id/occurrences", ctl.listOverrides)
	})
}

// DELETE /scheduler-items/:id/occurrence/:date
func (o *OccurrenceController) deleteOccurrence(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	itemID, date, schedulerID, apiErr := o.requireItem(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	if err := o.store.MarkOccurrenceDeleted(itemID, date); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to delete occurrence"}
	}
	o.publish(schedulerID)
	return gin.H{"item_id": itemID, "date": date, "deleted": true}, nil
}

// PUT /scheduler-items/:id/occurrence/:date
func (o *OccurrenceController) updateOccurrence(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	itemID, date, schedulerID, apiErr := o.requireItem(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.UpdateOccurrenceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	switch {
	case request.Restore:
		if err := o.store.RestoreOccurrence(itemID, date); err != nil {
			return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to restore occurrence"}
		}
	case request.Modifications != nil && !request.Modifications.Empty():
		if err := o.store.ModifyOccurrence(itemID, date, *request.Modifications); err != nil {
			return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to modify occurrence"}
		}
	default:
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "nothing to apply: set restore or supply modifications"}
	}

	o.publish(schedulerID)
	return gin.H{"item_id": itemID, "date": date}, nil
}

// GET /scheduler-items/:id/occurrences?start_date&end_date&include_deleted
func (o *OccurrenceController) listOverrides(ctx *gin.Context) (any, *api.APIError) {
	itemID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid item id"}
	}
	if _, _, err := o.store.GetItemWithOwner(itemID); err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "item not found"}
	}

	var query packets.ListOverridesQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	from, to := query.StartDate, query.EndDate
	if from == "" {
		from = "0001-01-01"
	}
	if to == "" {
		to = "9999-12-31"
	}
	for _, raw := range []string{from, to} {
		if _, err := recurrence.ParseLocalDate(raw); err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
		}
	}

	rows, err := o.store.ListOccurrenceOverrides([]int{itemID}, from, to, query.IncludeDeleted)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list overrides"}
	}
	if rows == nil {
		rows = []model.ItemOccurrence{}
	}
	return rows, nil
}

// requireItem resolves the path params and enforces that the caller owns the
// scheduler the item belongs to (admins pass). Returns the item id, the
// validated date string, and the owning scheduler id.
func (o *OccurrenceController) requireItem(ctx *gin.Context, user *model.User) (int, string, int, *api.APIError) {
	itemID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, "", 0, &api.APIError{Code: http.StatusBadRequest, Message: "invalid item id"}
	}

	parsed, err := recurrence.ParseLocalDate(ctx.Param("date"))
	if err != nil {
		return 0, "", 0, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	date := recurrence.FormatDate(parsed)

	item, ownerID, err := o.store.GetItemWithOwner(itemID)
	if err != nil {
		return 0, "", 0, &api.APIError{Code: http.StatusNotFound, Message: "item not found"}
	}
	if ownerID != user.ID && !user.IsAdmin() {
		return 0, "", 0, &api.APIError{Code: http.StatusForbidden, Message: "forbidden"}
	}
	return itemID, date, item.SchedulerID, nil
}

func (o *OccurrenceController) publish(schedulerID int) {
	if o.notifier != nil {
		o.notifier.SchedulerChanged(schedulerID, notify.EventOccurrenceEdited)
	}
}
