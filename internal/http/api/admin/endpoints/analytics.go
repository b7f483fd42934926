package endpoints

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/daygrid/daygrid/internal/db"
	"github.com/daygrid/daygrid/internal/http/api"
	adminpackets "github.com/daygrid/daygrid/internal/http/api/admin/packets"
	"github.com/daygrid/daygrid/internal/http/api/schedule/packets"
	"github.com/daygrid/daygrid/internal/redis"
)

const trendingCacheTTL = 10 * time.Minute

type AnalyticsController struct {
	store db.Store
}

func NewAnalyticsController(store db.Store) *AnalyticsController {
	return &AnalyticsController{store: store}
}

// AnalyticsModule mounts the public discovery aggregates.
func AnalyticsModule(store db.Store) api.Module {
	ctl := NewAnalyticsController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/analytics/trending", ctl.trending)
		c.PUBLIC_GET("/analytics/categories", ctl.categories)
	})
}

// GET /analytics/trending?days=7&limit=10
func (a *AnalyticsController) trending(ctx *gin.Context) (any, *api.APIError) {
	var query adminpackets.TrendingQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if query.Days < 1 || query.Days > 90 {
		query.Days = 7
	}
	if query.Limit < 1 || query.Limit > 50 {
		query.Limit = 10
	}

	cacheKey := fmt.Sprintf("schedulers:trending:%d:%d", query.Days, query.Limit)
	var cached []packets.SchedulerResponse
	if redis.GetJSON(ctx, cacheKey, &cached) {
		return cached, nil
	}

	since := time.Now().AddDate(0, 0, -query.Days)
	list, err := a.store.TrendingSchedulers(since, query.Limit)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to load trending schedulers"}
	}

	response := packets.NewSchedulerList(list)
	redis.SetJSON(ctx, cacheKey, response, trendingCacheTTL)
	return response, nil
}

// GET /analytics/categories
func (a *AnalyticsController) categories(ctx *gin.Context) (any, *api.APIError) {
	counts, err := a.store.CategoryCounts()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to load category counts"}
	}
	return counts, nil
}
