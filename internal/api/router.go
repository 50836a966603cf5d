package api

import (
	"net/url"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aymen-fh/bmo-care/internal/api/handler"
	"github.com/aymen-fh/bmo-care/internal/api/middleware"
	portalsession "github.com/aymen-fh/bmo-care/internal/api/session"
	"github.com/aymen-fh/bmo-care/internal/core/ports"
	"github.com/aymen-fh/bmo-care/internal/core/service"
	"github.com/aymen-fh/bmo-care/internal/infrastructure/config"
	"github.com/aymen-fh/bmo-care/internal/web"
)

// Deps bundles the wired collaborators the router needs. Redis and Mongo are
// nil when the corresponding store is not configured.
type Deps struct {
	Verifier *service.Verifier
	Codec    *portalsession.Codec
	Monitor  *service.Monitor
	Backend  ports.IdentityAPI
	Prober   ports.HealthProber
	Recorder ports.ActivityRecorder
	Redis    *redis.Client
	Mongo    *mongo.Database
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
//
// Middleware order matters: the availability gate annotates before the
// identity middleware re-hydrates, so a degraded backend is already known
// when the session refresh keeps a stale principal.
func NewRouter(cfg *config.Config, d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Renderer = web.NewRenderer()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("portal"))

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	e.Use(echosession.Middleware(store))
	e.Use(middleware.Availability(d.Monitor))
	e.Use(middleware.Identity(d.Codec))

	// --- API pass-through (business operations live in the backend) ---
	if target, err := url.Parse(cfg.BackendURL); err == nil {
		e.Group("/api", echomiddleware.Proxy(echomiddleware.NewRoundRobinBalancer(
			[]*echomiddleware.ProxyTarget{{URL: target}},
		)))
	}

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Verifier, d.Codec, d.Backend, d.Recorder, d.Log)
	portalHandler := handler.NewPortalHandler()
	healthHandler := handler.NewHealthHandler()
	readyHandler := handler.NewReadinessHandler(d.Prober, cfg.BackendURL, d.Redis, d.Mongo)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.GET("/login", authHandler.LoginPage, middleware.EnsureGuest)
	auth.POST("/login", authHandler.Login)
	auth.GET("/logout", authHandler.Logout)
	auth.GET("/forgot-password", authHandler.ForgotPasswordPage, middleware.EnsureGuest)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.GET("/verify-reset", authHandler.VerifyResetPage, middleware.EnsureGuest)
	auth.POST("/verify-reset", authHandler.VerifyReset)
	auth.GET("/reset-password", authHandler.ResetPasswordPage, middleware.EnsureGuest)
	auth.POST("/reset-password", authHandler.ResetPassword)

	// --- Role landing pages ---
	e.GET("/", portalHandler.Home)
	e.GET("/superadmin", portalHandler.SuperAdmin, middleware.EnsureSuperAdmin)
	e.GET("/admin", portalHandler.Admin, middleware.EnsureAdmin)
	e.GET("/specialist", portalHandler.Specialist, middleware.EnsureSpecialist)

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", healthHandler.Liveness)           // liveness  – is the portal alive?
	e.GET("/health/ready", readyHandler.Readiness)     // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
