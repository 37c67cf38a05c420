package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/citasalud/citasalud-api/api/swagger"
	"github.com/citasalud/citasalud-api/internal/handler"
	"github.com/citasalud/citasalud-api/internal/middleware"
	"github.com/citasalud/citasalud-api/internal/models"
	"github.com/citasalud/citasalud-api/internal/repository"
	"github.com/citasalud/citasalud-api/internal/service"
	"github.com/citasalud/citasalud-api/pkg/cache"
	"github.com/citasalud/citasalud-api/pkg/config"
	"github.com/citasalud/citasalud-api/pkg/database"
	"github.com/citasalud/citasalud-api/pkg/logger"
	corsmiddleware "github.com/citasalud/citasalud-api/pkg/middleware/cors"
	reqidmiddleware "github.com/citasalud/citasalud-api/pkg/middleware/requestid"
)

// @title CitaSalud API
// @version 1.0.0
// @description Medical appointment availability and booking service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	location, err := time.LoadLocation(cfg.Scheduling.Timezone)
	if err != nil {
		logr.Sugar().Warnw("invalid scheduling timezone, falling back to UTC",
			"timezone", cfg.Scheduling.Timezone, "error", err)
		location = time.UTC
	}

	// Redis is optional: without it calendar views are computed per request.
	var cacheRepo *repository.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, calendar caching disabled", "error", err)
	} else {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	specialtyRepo := repository.NewSpecialtyRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	configRepo := repository.NewConfigAvailabilityRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)

	metricsSvc := service.NewMetricsService()
	calendarSvc := service.NewCalendarService(availabilityRepo, cacheRepo, metricsSvc, logr, location,
		cfg.Calendar.CacheEnabled && cacheRepo != nil, cfg.Calendar.CacheTTL)
	authSvc := service.NewAuthService(userRepo, doctorRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		Expiration: cfg.JWT.Expiration,
	})
	specialtySvc := service.NewSpecialtyService(specialtyRepo, doctorRepo, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, doctorRepo, calendarSvc, validate, logr)
	configSvc := service.NewConfigAvailabilityService(configRepo, availabilityRepo, doctorRepo,
		calendarSvc, metricsSvc, validate, logr, location, cfg.Scheduling.MaterializationDays)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, availabilityRepo, calendarSvc, metricsSvc, validate, logr)
	agendaSvc := service.NewAgendaService(availabilityRepo, validate, logr, location)

	authHandler := handler.NewAuthHandler(authSvc)
	specialtyHandler := handler.NewSpecialtyHandler(specialtySvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	configHandler := handler.NewConfigAvailabilityHandler(configSvc)
	appointmentHandler := handler.NewAppointmentHandler(appointmentSvc)
	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	agendaHandler := handler.NewAgendaHandler(agendaSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/specialties", specialtyHandler.ListSpecialties)
	protected.GET("/doctors", specialtyHandler.ListDoctors)
	protected.GET("/doctors/:id", specialtyHandler.GetDoctor)

	scheduleOwners := middleware.RequireRoles(models.RoleAdmin, models.RoleDoctor)

	availabilities := protected.Group("/availabilities")
	availabilities.GET("/search", availabilityHandler.Search)
	availabilities.GET("/:id", availabilityHandler.Get)
	availabilities.POST("", scheduleOwners, availabilityHandler.Create)
	availabilities.DELETE("/:id", scheduleOwners, availabilityHandler.Delete)

	configs := protected.Group("/config-availabilities")
	configs.Use(scheduleOwners)
	configs.POST("", configHandler.Create)
	configs.GET("", configHandler.List)
	configs.GET("/:id", configHandler.Get)
	configs.DELETE("/:id", configHandler.Delete)
	configs.GET("/:id/appointments-count", configHandler.AppointmentsCount)
	configs.POST("/:id/rematerialize", configHandler.Rematerialize)

	appointments := protected.Group("/appointments")
	appointments.POST("", appointmentHandler.Book)
	appointments.GET("", appointmentHandler.Search)
	appointments.PATCH("/:id/cancel", appointmentHandler.Cancel)
	appointments.PATCH("/:id/complete", appointmentHandler.Complete)

	protected.GET("/calendar", calendarHandler.MonthView)
	protected.GET("/agenda/export", scheduleOwners, agendaHandler.Export)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
