package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Cedarline-Labs/civichub/internal/db"
	"github.com/Cedarline-Labs/civichub/internal/http/api"
	adminapi "github.com/Cedarline-Labs/civichub/internal/http/api/admin/endpoints"
	"github.com/Cedarline-Labs/civichub/internal/schedule"
	"github.com/Cedarline-Labs/civichub/internal/scheduler"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, env Environment, store db.Store, executor *scheduler.Executor, clock schedule.Clock) {
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
		Prefix: "/api/admin",
		Auth:   false,
	},
		adminapi.AuthPublicModule(env.SecretKey, store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: env.SecretKey,
		Store:     store,
	},
		adminapi.ScheduleModule(store, executor, clock),
		adminapi.HouseholdModule(store),
		// session endpoints that require auth
		adminapi.AuthSessionModule(env.SecretKey, store),
	)
}
