package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/univ-portal-api/internal/middleware"
	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/internal/service"
	"github.com/noah-isme/univ-portal-api/pkg/config"
	"github.com/noah-isme/univ-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/univ-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/univ-portal-api/pkg/middleware/requestid"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Config        *config.Config
	Logger        *zap.Logger
	Tokens        *service.TokenService
	Metrics       *service.MetricsService
	AcademicYears *AcademicYearHandler
	Enrollments   *EnrollmentHandler
	System        *MetricsHandler
}

// NewRouter assembles the gin engine with middleware and every route.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	r.GET("/health", deps.System.Health)
	r.GET("/ready", deps.System.Ready)
	r.GET("/metrics", deps.System.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admins := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleLecturer)

	api := r.Group(cfg.APIPrefix, middleware.JWT(deps.Tokens))

	years := api.Group("/academic-years")
	years.GET("", deps.AcademicYears.List)
	years.GET("/current", deps.AcademicYears.Current)
	years.GET("/:id", deps.AcademicYears.Get)
	years.POST("/validate", admins, deps.AcademicYears.Validate)
	years.POST("", admins, deps.AcademicYears.Create)
	years.PUT("/:id", admins, deps.AcademicYears.Update)
	years.POST("/:id/set-current", admins, deps.AcademicYears.SetCurrent)
	years.POST("/:id/active", admins, deps.AcademicYears.SetActive)
	years.DELETE("/:id", admins, deps.AcademicYears.Delete)

	enrollments := api.Group("/enrollments")
	enrollments.GET("", deps.Enrollments.List)
	enrollments.GET("/years/:code/semesters/:semester", staff, deps.Enrollments.ListByYear)
	enrollments.GET("/:id", deps.Enrollments.Get)
	enrollments.POST("", admins, deps.Enrollments.Create)
	enrollments.PUT("/:id", admins, deps.Enrollments.Update)
	enrollments.POST("/:id/transition", admins, deps.Enrollments.Transition)
	enrollments.PUT("/:id/grades", staff, deps.Enrollments.RecordGrades)
	enrollments.DELETE("/:id", admins, deps.Enrollments.Delete)

	api.GET("/students/:id/enrollments",
		middleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), string(models.RoleLecturer), "SELF"),
		deps.Enrollments.ListByStudent)

	api.GET("/system/metrics", admins, deps.System.Summary)

	return r
}
