package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/shuankun/shuankun-api/internal/handler"
	"github.com/shuankun/shuankun-api/internal/middleware"
	"github.com/shuankun/shuankun-api/internal/models"
	"github.com/shuankun/shuankun-api/internal/service"
	"github.com/shuankun/shuankun-api/pkg/config"
	"github.com/shuankun/shuankun-api/pkg/logger"
	corsmiddleware "github.com/shuankun/shuankun-api/pkg/middleware/cors"
	reqidmiddleware "github.com/shuankun/shuankun-api/pkg/middleware/requestid"
)

type routeHandlers struct {
	profile    *handler.ProfileHandler
	catalog    *handler.CatalogHandler
	schedule   *handler.ScheduleHandler
	events     *handler.EventHandler
	weeklyPlan *handler.WeeklyPlanHandler
	hours      *handler.HoursHandler
	exports    *handler.ExportHandler
	system     *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, auth middleware.TokenValidator, metrics *service.MetricsService, h routeHandlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.system.Health)
	r.GET("/ready", h.system.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", h.system.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	if h.exports != nil {
		api.GET("/exports/download/:token", h.exports.Download)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(auth))
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	secured.GET("/profile", h.profile.Get)
	secured.PUT("/profile", h.profile.Update)
	secured.GET("/profile/subjects", h.profile.ListSubjects)
	secured.PUT("/profile/subjects", h.profile.ReplaceSubjects)

	secured.GET("/subjects", h.catalog.ListSubjects)
	secured.GET("/publishers", h.catalog.ListPublishers)
	secured.POST("/publishers", adminOnly, h.catalog.CreatePublisher)
	secured.GET("/textbook-units", h.catalog.ListTextbookUnits)
	secured.POST("/textbook-units", adminOnly, h.catalog.CreateTextbookUnit)

	secured.GET("/schedules/default", h.schedule.GetDefault)
	secured.PUT("/schedules/default", h.schedule.SaveDefault)

	secured.GET("/events", h.events.List)
	secured.POST("/events", h.events.Create)
	secured.DELETE("/events/:id", h.events.Delete)

	plans := secured.Group("/weekly-plans")
	plans.POST("/initialize", h.weeklyPlan.Initialize)
	plans.POST("/auto-suggest", h.weeklyPlan.AutoSuggest)
	plans.POST("/adjust", h.weeklyPlan.Adjust)
	plans.POST("/detect-events", h.weeklyPlan.DetectEvents)
	plans.POST("/summary", h.weeklyPlan.Summary)
	plans.PUT("", h.weeklyPlan.Save)
	plans.GET("", h.weeklyPlan.List)
	plans.GET("/week/:date", h.weeklyPlan.GetByWeek)
	plans.GET("/:id", h.weeklyPlan.GetByID)
	plans.DELETE("/:id", h.weeklyPlan.Delete)

	secured.GET("/hours/report", h.hours.Report)
	secured.GET("/hours/standard", h.hours.Standard)

	if h.exports != nil {
		secured.POST("/exports", h.exports.Create)
		secured.GET("/exports/:id", h.exports.Status)
	}

	return r
}
