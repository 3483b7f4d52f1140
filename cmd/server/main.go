package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	attendanceapp "github.com/atency/backend/internal/application/attendance"
	identityapp "github.com/atency/backend/internal/application/identity"
	"github.com/atency/backend/internal/domain/attendance"
	"github.com/atency/backend/internal/domain/shared"
	"github.com/atency/backend/internal/infrastructure/auth"
	"github.com/atency/backend/internal/infrastructure/cache"
	"github.com/atency/backend/internal/infrastructure/config"
	"github.com/atency/backend/internal/infrastructure/export"
	"github.com/atency/backend/internal/infrastructure/logger"
	"github.com/atency/backend/internal/infrastructure/persistence"
	"github.com/atency/backend/internal/infrastructure/scheduler"
	"github.com/atency/backend/internal/infrastructure/storage"
	"github.com/atency/backend/internal/infrastructure/telemetry"
	"github.com/atency/backend/internal/interfaces/http/handler"
	"github.com/atency/backend/internal/interfaces/http/middleware"
	"github.com/atency/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/atency/backend/docs"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Attendance Tracker API
//	@version		1.0
//	@description	Employee check-in/check-out, attendance history and absence tracking.

//	@contact.name	API Support

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// The OTEL log bridge has to exist before the logger so the two cores can be teed
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry)
	if err != nil {
		panic("Failed to initialize log exporter: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, loggerProvider.ZapCore())
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting attendance backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	loc, err := cfg.Attendance.Location()
	if err != nil {
		log.Fatal("Invalid attendance timezone", zap.String("timezone", cfg.Attendance.Timezone), zap.Error(err))
	}
	weekdays, err := attendance.ParseWeekdays(cfg.Attendance.WorkingDays)
	if err != nil {
		log.Fatal("Invalid working days", zap.Strings("working_days", cfg.Attendance.WorkingDays), zap.Error(err))
	}
	policy, err := attendance.NewWorkingDayPolicy(weekdays...)
	if err != nil {
		log.Fatal("Invalid working days", zap.Error(err))
	}
	clock := shared.NewSystemClock(loc)

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", db.Driver()))

	// postgres schemas are owned by cmd/migrate
	if db.Driver() != config.DriverPostgres {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
	}
	if tracerProvider.IsEnabled() && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterDBTracing(db.DB, db.Driver(), cfg.Database.SlowThreshold, log); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}

	backends := cache.NewBackends(ctx, cfg.Redis, log)
	defer func() {
		if err := backends.Close(); err != nil {
			log.Warn("Error closing cache backends", zap.Error(err))
		}
	}()

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	attendanceRepo := persistence.NewGormAttendanceRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	// Application services
	tokens, err := auth.NewTokenService(cfg.JWT)
	if err != nil {
		log.Fatal("Failed to initialize token service", zap.Error(err))
	}
	authService := identityapp.NewAuthService(userRepo, tokens, clock, log)

	meter := meterProvider.Meter("atency")
	attendanceMetrics, err := telemetry.NewAttendanceMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create attendance metrics", zap.Error(err))
	}

	serviceOpts := []attendanceapp.Option{
		attendanceapp.WithMetrics(attendanceMetrics),
		attendanceapp.WithReportRenderer(export.NewXLSXWriter()),
		attendanceapp.WithBackfillWorkers(cfg.Attendance.BackfillWorkers),
	}
	if cfg.Export.ArchiveEnabled {
		archive, err := storage.NewS3ReportArchive(ctx, cfg.Export, log)
		if err != nil {
			log.Fatal("Failed to initialize report archive", zap.Error(err))
		}
		serviceOpts = append(serviceOpts, attendanceapp.WithReportArchive(archive))
	}
	attendanceService := attendanceapp.NewService(userRepo, attendanceRepo, txManager, policy, clock, log, serviceOpts...)

	seeder := identityapp.NewSeeder(userRepo, cfg.Seed, clock, log)
	if _, err := seeder.SeedAdmin(ctx); err != nil {
		log.Fatal("Failed to seed admin account", zap.Error(err))
	}

	// Background jobs
	schedulerCfg, err := scheduler.NewAbsenceSchedulerConfig(cfg.Scheduler)
	if err != nil {
		log.Fatal("Invalid absence schedule", zap.String("cron", cfg.Scheduler.AbsenceCron), zap.Error(err))
	}
	absenceScheduler := scheduler.NewAbsenceScheduler(schedulerCfg, attendanceService, backends.JobLock, clock, log)
	if err := absenceScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start absence scheduler", zap.Error(err))
	}

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.NewEngine(router.EngineConfig{
		ServiceName:      cfg.Telemetry.ServiceName,
		HTTP:             cfg.HTTP,
		Swagger:          cfg.Swagger,
		TracingEnabled:   tracerProvider.IsEnabled(),
		ProfilingEnabled: profiler.IsEnabled(),
	}, router.Deps{
		Handlers: router.Handlers{
			Auth:       handler.NewAuthHandler(authService),
			Attendance: handler.NewAttendanceHandler(attendanceService),
			Admin:      handler.NewAdminAttendanceHandler(attendanceService, clock).WithSchedule(absenceScheduler),
			Health:     handler.NewHealthHandler(db, version),
		},
		Auth: middleware.AuthConfig{
			Tokens:     tokens,
			Principals: authService,
			Logger:     log,
		},
		RateLimitStore: backends.RateLimitStore,
		Meter:          meter,
		Logger:         log,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := absenceScheduler.Stop(shutdownCtx); err != nil {
		log.Warn("Absence scheduler did not stop cleanly", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush traces", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Failed to stop profiler", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx, log); err != nil {
		log.Warn("Failed to flush logs", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
