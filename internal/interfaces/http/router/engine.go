package router

import (
	"errors"

	"github.com/atency/backend/internal/domain/identity"
	"github.com/atency/backend/internal/infrastructure/cache"
	"github.com/atency/backend/internal/infrastructure/config"
	"github.com/atency/backend/internal/infrastructure/logger"
	"github.com/atency/backend/internal/interfaces/http/handler"
	"github.com/atency/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by NewEngine
type Handlers struct {
	Auth       *handler.AuthHandler
	Attendance *handler.AttendanceHandler
	Admin      *handler.AdminAttendanceHandler
	Health     *handler.HealthHandler
}

// EngineConfig selects the optional parts of the middleware chain
type EngineConfig struct {
	ServiceName      string
	HTTP             config.HTTPConfig
	Swagger          config.SwaggerConfig
	TracingEnabled   bool
	ProfilingEnabled bool
}

// Deps are the collaborators the engine needs besides handlers
type Deps struct {
	Handlers       Handlers
	Auth           middleware.AuthConfig
	RateLimitStore cache.RateLimitStore
	// Meter is optional; nil disables HTTP metrics
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewEngine builds the gin engine with the full middleware chain and every
// route. Order matters: the request id must exist before the logger and the
// span enricher read it.
func NewEngine(cfg EngineConfig, deps Deps) (*gin.Engine, error) {
	if deps.Logger == nil {
		return nil, errors.New("router: logger is required")
	}
	log := deps.Logger
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	httpMetrics, err := middleware.HTTPMetrics(deps.Meter)
	if err != nil {
		return nil, err
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
		middleware.Tracing(cfg.ServiceName, cfg.TracingEnabled),
		middleware.SpanEnricher(),
		httpMetrics,
		middleware.Profiling(cfg.ProfilingEnabled),
	)
	h := deps.Handlers
	authenticate := middleware.Authenticate(deps.Auth)

	engine.GET("/health", h.Health.Health)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, authenticate),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	authRoutes := NewDomainGroup("auth", "/auth")
	if cfg.HTTP.AuthRateLimitEnabled && deps.RateLimitStore != nil {
		authRoutes.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Store:  deps.RateLimitStore,
			Limit:  cfg.HTTP.AuthRateLimitRequests,
			Window: cfg.HTTP.AuthRateLimitWindow,
			Scope:  "auth",
			Logger: log,
		}))
		log.Info("Auth rate limiting enabled",
			zap.Int("requests", cfg.HTTP.AuthRateLimitRequests),
			zap.Duration("window", cfg.HTTP.AuthRateLimitWindow),
		)
	}
	authRoutes.POST("/register", h.Auth.Register)
	authRoutes.POST("/login", h.Auth.Login)

	attendanceRoutes := NewDomainGroup("attendance", "/attendance").
		Use(authenticate, middleware.RequireRole(identity.RoleEmployee, identity.RoleAdmin))
	attendanceRoutes.POST("/check-in", h.Attendance.CheckIn)
	attendanceRoutes.POST("/check-out", h.Attendance.CheckOut)
	attendanceRoutes.GET("/my-records", h.Attendance.GetMyRecords)
	attendanceRoutes.GET("/my-summary", h.Attendance.GetMySummary)

	adminRoutes := NewDomainGroup("admin", "/admin").
		Use(authenticate, middleware.RequireRole(identity.RoleAdmin))
	adminAttendance := adminRoutes.Group("admin-attendance", "/attendance")
	adminAttendance.GET("/all", h.Admin.GetAllRecords)
	adminAttendance.GET("/export", h.Admin.ExportRecords)
	adminAttendance.POST("/backfill", h.Admin.Backfill)
	adminAttendance.GET("/schedule", h.Admin.ScheduleStatus)
	adminAttendance.GET("/:userId", h.Admin.GetRecordsByUser)

	api := NewRouter(engine, WithAPIVersion("v1"))
	if cfg.HTTP.MaxBodySize > 0 {
		api.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	api.Register(authRoutes).
		Register(attendanceRoutes).
		Register(adminRoutes).
		Setup()

	log.Info("HTTP routes registered", zap.Int("routes", len(engine.Routes())))
	return engine, nil
}
