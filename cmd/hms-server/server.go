package main

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/medisys/hms/internal/config"
	"github.com/medisys/hms/internal/domain/clinic"
	"github.com/medisys/hms/internal/domain/hospital"
	"github.com/medisys/hms/internal/domain/notification"
	"github.com/medisys/hms/internal/domain/user"
	"github.com/medisys/hms/internal/platform/auth"
	"github.com/medisys/hms/internal/platform/db"
	"github.com/medisys/hms/internal/platform/middleware"
	"github.com/medisys/hms/internal/platform/reporting"
	"github.com/medisys/hms/internal/platform/telemetry"
	"github.com/medisys/hms/internal/platform/websocket"
	"github.com/medisys/hms/pkg/pagination"
)

const version = "0.1.0"

func jwtConfig(cfg *config.Config) auth.JWTConfig {
	return auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		SigningKey: cfg.SigningKey(),
		TTL:        cfg.AuthTokenTTL,
	}
}

// newServer wires middleware, services and routes. The pool is only used
// once requests arrive.
func newServer(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (*echo.Echo, error) {
	policy, err := cfg.FieldPolicy()
	if err != nil {
		return nil, err
	}
	pagination.SetLimits(pagination.Limits{
		DefaultPerPage: cfg.ListDefaultPerPage,
		MaxPerPage:     cfg.ListMaxPerPage,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	if cfg.MetricsEnabled {
		e.Use(telemetry.Middleware())
	}
	e.Use(middleware.BodyLimit("1M", "20M"))
	e.Use(middleware.RequestTimeout(30*time.Second, 5*time.Minute))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	jwt := jwtConfig(cfg)
	if cfg.IsDev() {
		logger.Warn().Msg("development mode: unauthenticated requests run as ADMIN")
		e.Use(auth.DevAuthMiddleware(jwt))
	} else {
		e.Use(auth.JWTMiddleware(jwt))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	if cfg.MetricsEnabled {
		e.GET("/metrics", telemetry.Handler())
	}

	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rateLimitCfg.RequestsPerSecond = cfg.RateLimitRPS
		rateLimitCfg.BurstSize = cfg.RateLimitBurst
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	lister := db.NewLister(pool, policy, telemetry.ListObserver{}, logger)
	tx := db.Transactor(pool)

	// Hospitals and medical services
	hospitalSvc := hospital.NewService(hospital.NewHospitalRepo(pool, lister), hospital.NewServiceRepo(pool, lister), tx, logger)
	hospital.NewHandler(hospitalSvc).RegisterRoutes(apiV1)

	// Users and login
	userSvc := user.NewService(user.NewRepo(pool, lister), jwt, tx, logger)
	user.NewHandler(userSvc).RegisterRoutes(apiV1)

	// Patients and doctors
	clinicSvc := clinic.NewService(clinic.NewPatientRepo(pool, lister), clinic.NewDoctorRepo(pool, lister))
	clinic.NewHandler(clinicSvc).RegisterRoutes(apiV1)

	// Notifications, stored and pushed live over /api/v1/ws
	hub := websocket.NewHub(logger)
	websocket.NewHandler(hub, cfg.CORSOrigins).RegisterRoutes(apiV1)
	notificationSvc := notification.NewService(notification.NewRepo(pool, lister), hub, logger)
	notification.NewHandler(notificationSvc).RegisterRoutes(apiV1)

	// Role dashboards
	reporting.NewHandler(pool, logger).RegisterRoutes(apiV1)

	return e, nil
}
