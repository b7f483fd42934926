package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/daygrid/daygrid/internal/db"
	"github.com/daygrid/daygrid/internal/http/api"
	adminapi "github.com/daygrid/daygrid/internal/http/api/admin/endpoints"
	authapi "github.com/daygrid/daygrid/internal/http/api/account/endpoints"
	scheduleapi "github.com/daygrid/daygrid/internal/http/api/schedule/endpoints"
	"github.com/daygrid/daygrid/internal/notify"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, env Environment, store db.Store, notifier notify.Publisher) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
		Auth:   false,
	},
		authapi.AuthPublicModule(env.SecretKey, store),
		scheduleapi.SchedulerPublicModule(store),
		scheduleapi.ViewModule(store),
		scheduleapi.OccurrencePublicModule(store),
		adminapi.AnalyticsModule(store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api",
		Auth:      true,
		SecretKey: env.SecretKey,
		Store:     store,
	},
		authapi.AuthSessionModule(env.SecretKey, store),
		scheduleapi.SchedulerModule(store, notifier),
		scheduleapi.OccurrenceModule(store, notifier),
		adminapi.AdminModule(store),
	)
}
