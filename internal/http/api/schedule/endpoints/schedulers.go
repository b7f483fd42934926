package endpoints

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/daygrid/daygrid/internal/db"
	"github.com/daygrid/daygrid/internal/http/api"
	"github.com/daygrid/daygrid/internal/http/api/schedule/packets"
	"github.com/daygrid/daygrid/internal/model"
	"github.com/daygrid/daygrid/internal/notify"
	"github.com/daygrid/daygrid/internal/redis"
)

const (
	popularCacheKey = "schedulers:popular"
	popularCacheTTL = 5 * time.Minute
)

type SchedulerController struct {
	store    db.Store
	notifier notify.Publisher
}

func NewSchedulerController(store db.Store, notifier notify.Publisher) *SchedulerController {
	return &SchedulerController{store: store, notifier: notifier}
}

// SchedulerPublicModule mounts the unauthenticated browse/read endpoints.
func SchedulerPublicModule(store db.Store) api.Module {
	ctl := NewSchedulerController(store, nil)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/schedulers", ctl.browseSchedulers)
		c.PUBLIC_GET("/schedulers/popular", ctl.popularSchedulers)
		c.PUBLIC_GET("/schedulers/:id", ctl.getScheduler)
	})
}

// SchedulerModule mounts the authenticated CRUD and interaction endpoints.
func SchedulerModule(store db.Store, notifier notify.Publisher) api.Module {
	ctl := NewSchedulerController(store, notifier)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/schedulers/my", ctl.listMySchedulers)
		c.POST("/schedulers", ctl.createScheduler)
		c.PUT("/schedulers/:id", ctl.updateScheduler)
		c.DELETE("/schedulers/:id", ctl.deleteScheduler)

		c.POST("/schedulers/:id/like", ctl.likeScheduler)
		c.DELETE("/schedulers/:id/like", ctl.unlikeScheduler)
		c.POST("/schedulers/:id/use", ctl.useScheduler)
		c.POST("/schedulers/:id/share", ctl.shareScheduler)
	})
}

func (s *SchedulerController) browseSchedulers(ctx *gin.Context) (any, *api.APIError) {
	var query packets.BrowseQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	list, err := s.store.BrowseSchedulers(query.Category, query.Limit, query.Offset)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list schedulers"}
	}
	return packets.NewSchedulerList(list), nil
}

func (s *SchedulerController) popularSchedulers(ctx *gin.Context) (any, *api.APIError) {
	var cached []packets.SchedulerResponse
	if redis.GetJSON(ctx, popularCacheKey, &cached) {
		return cached, nil
	}

	list, err := s.store.PopularSchedulers(20)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list popular schedulers"}
	}

	response := packets.NewSchedulerList(list)
	redis.SetJSON(ctx, popularCacheKey, response, popularCacheTTL)
	return response, nil
}

func (s *SchedulerController) getScheduler(ctx *gin.Context) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	sc, err := s.store.GetScheduler(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "scheduler not found"}
	}

	items, err := s.store.ListSchedulerItems(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to load items"}
	}

	return packets.SchedulerDetailResponse{
		SchedulerResponse: packets.NewSchedulerResponse(sc),
		Items:             items,
	}, nil
}

func (s *SchedulerController) listMySchedulers(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	list, err := s.store.ListSchedulersByUser(user.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list schedulers"}
	}
	return packets.NewSchedulerList(list), nil
}

func (s *SchedulerController) createScheduler(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateSchedulerRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	isPublic := true
	if request.IsPublic != nil {
		isPublic = *request.IsPublic
	}

	sc, err := s.store.CreateScheduler(user.ID, request.Title, request.Description, request.Category, isPublic)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create scheduler"}
	}

	items, err := s.store.ReplaceSchedulerItems(sc.ID, request.Items, time.Now())
	if err != nil {
		// the scheduler row exists but its items were rejected; surface the
		// validation error and let the client retry the full save
		log.Error().Err(err).Int("scheduler_id", sc.ID).Msg("createScheduler item insert failed")
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	s.publish(sc.ID, notify.EventCreated)
	return packets.SchedulerDetailResponse{
		SchedulerResponse: packets.NewSchedulerResponse(&sc),
		Items:             items,
	}, nil
}

func (s *SchedulerController) updateScheduler(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	owned, apiErr := s.requireOwned(id, user)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.UpdateSchedulerRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	isPublic := owned.IsPublic
	if request.IsPublic != nil {
		isPublic = *request.IsPublic
	}

	sc, err := s.store.UpdateScheduler(id, request.Title, request.Description, request.Category, isPublic)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update scheduler"}
	}

	items, err := s.store.ReplaceSchedulerItems(id, request.Items, time.Now())
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	s.publish(id, notify.EventUpdated)
	return packets.SchedulerDetailResponse{
		SchedulerResponse: packets.NewSchedulerResponse(&sc),
		Items:             items,
	}, nil
}

func (s *SchedulerController) deleteScheduler(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	if _, apiErr := s.requireOwned(id, user); apiErr != nil {
		return nil, apiErr
	}

	if err := s.store.DeleteScheduler(id); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete scheduler"}
	}

	s.publish(id, notify.EventDeleted)
	return gin.H{"message": "deleted"}, nil
}

func (s *SchedulerController) likeScheduler(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	return s.recordInteraction(ctx, user, model.InteractionLike)
}

func (s *SchedulerController) unlikeScheduler(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}
	removed, err := s.store.RemoveInteraction(user.ID, id, model.InteractionLike)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not remove like"}
	}
	if removed {
		redis.Invalidate(context.Background(), popularCacheKey)
	}
	return gin.H{"removed": removed}, nil
}

func (s *SchedulerController) useScheduler(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	return s.recordInteraction(ctx, user, model.InteractionUse)
}

func (s *SchedulerController) shareScheduler(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	return s.recordInteraction(ctx, user, model.InteractionShare)
}

func (s *SchedulerController) recordInteraction(ctx *gin.Context, user *model.User, kind string) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	if _, err := s.store.GetScheduler(id); err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "scheduler not found"}
	}

	created, err := s.store.RecordInteraction(user.ID, id, kind)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not record " + kind}
	}
	if created {
		redis.Invalidate(context.Background(), popularCacheKey)
	}
	return gin.H{"recorded": created}, nil
}

func (s *SchedulerController) requireOwned(id int, user *model.User) (*model.Scheduler, *api.APIError) {
	sc, err := s.store.GetScheduler(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "scheduler not found"}
	}
	if sc.UserID != user.ID && !user.IsAdmin() {
		return nil, &api.APIError{Code: http.StatusForbidden, Message: "forbidden"}
	}
	return sc, nil
}

func (s *SchedulerController) publish(schedulerID int, event string) {
	if s.notifier != nil {
		s.notifier.SchedulerChanged(schedulerID, event)
	}
}
