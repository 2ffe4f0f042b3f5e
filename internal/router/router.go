package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/childcare-incidents-api/internal/handler"
	"github.com/noah-isme/childcare-incidents-api/internal/middleware"
	"github.com/noah-isme/childcare-incidents-api/internal/models"
	"github.com/noah-isme/childcare-incidents-api/pkg/config"
	"github.com/noah-isme/childcare-incidents-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/childcare-incidents-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/childcare-incidents-api/pkg/middleware/requestid"
)

// Dependencies groups everything the HTTP layer needs.
type Dependencies struct {
	Incidents *handler.IncidentHandler
	Reports   *handler.ReportHandler
	Metrics   *handler.MetricsHandler
	Tokens    middleware.TokenValidator
	Observer  middleware.RequestObserver
	Audit     middleware.AuditWriter
	Logger    *zap.Logger
}

// closers may move an incident to closed and export the register.
var closers = []models.UserRole{models.RoleOwner, models.RoleDirector, models.RoleAdmin}

// Setup builds the gin engine with every route registered.
func Setup(cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Observer))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.Metrics.Health)
	r.GET("/ready", deps.Metrics.Ready)
	r.GET("/metrics", deps.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		// Authorised by the signed token rather than a session.
		api.GET("/reports/download", deps.Reports.GuardianDownload)

		authorized := api.Group("")
		authorized.Use(middleware.JWT(deps.Tokens))

		incidents := authorized.Group("/incidents")
		{
			incidents.GET("", deps.Incidents.List)
			incidents.POST("", deps.Incidents.Create)
			incidents.GET("/stats", deps.Incidents.Stats)
			incidents.GET("/templates", deps.Incidents.Templates)
			incidents.POST("/from-template", deps.Incidents.CreateFromTemplate)
			incidents.GET("/export",
				middleware.RequireRoles(closers...),
				middleware.AuditAccess(deps.Audit, deps.Logger, models.AuditActionIncidentRegisterExport),
				deps.Reports.Export)

			incidents.GET("/:id", deps.Incidents.Get)
			incidents.PATCH("/:id", deps.Incidents.Update)
			incidents.GET("/:id/history", deps.Incidents.History)
			incidents.POST("/:id/notify-parent", deps.Incidents.NotifyParent)
			incidents.POST("/:id/signature", deps.Incidents.Sign)
			incidents.POST("/:id/close", middleware.RequireRoles(closers...), deps.Incidents.Close)
			incidents.POST("/:id/follow-up/complete", deps.Incidents.CompleteFollowUp)

			incidents.GET("/:id/report",
				middleware.AuditAccess(deps.Audit, deps.Logger, models.AuditActionIncidentReportView),
				deps.Reports.View)
			incidents.GET("/:id/report/download",
				middleware.AuditAccess(deps.Audit, deps.Logger, models.AuditActionIncidentReportDownload),
				deps.Reports.Download)
			incidents.POST("/:id/report/share", deps.Reports.Share)
		}
	}

	return r
}
