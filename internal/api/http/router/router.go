package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtroode/community-board-server/internal/api/http/handler"
	"github.com/dtroode/community-board-server/internal/api/http/middleware"
	"github.com/dtroode/community-board-server/internal/logger"
	"github.com/dtroode/community-board-server/internal/model"
)

// Options tunes the HTTP surface. Zero values disable the optional parts.
type Options struct {
	CORSOrigins []string
	// BodyLimit caps request bodies; fiber's default applies when zero.
	BodyLimit      int
	LoginPerMinute int
	Limiter        middleware.RateLimiter
	Metrics        *middleware.Metrics
	Gatherer       prometheus.Gatherer
}

// Router wires HTTP handlers and middleware into a fiber app.
type Router struct {
	authService    handler.AuthService
	usersService   handler.UsersService
	authenticator  middleware.Authenticator
	contextManager model.ContextManager
	logger         *logger.Logger
	opts           Options
}

// New creates new HTTP Router instance.
func New(
	authService handler.AuthService,
	usersService handler.UsersService,
	authenticator middleware.Authenticator,
	contextManager model.ContextManager,
	logger *logger.Logger,
	opts Options,
) *Router {
	return &Router{
		authService:    authService,
		usersService:   usersService,
		authenticator:  authenticator,
		contextManager: contextManager,
		logger:         logger,
		opts:           opts,
	}
}

// Register builds the fiber app with every route and middleware.
func (r *Router) Register() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "community-board",
		ErrorHandler:          handler.ErrorHandler(r.logger),
		BodyLimit:             r.opts.BodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if r.opts.Metrics != nil {
		app.Use(r.opts.Metrics.Handle)
	}
	app.Use(middleware.NewLogging(r.logger).Handle)
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(r.opts.CORSOrigins),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	if r.opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(r.opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	api.Get("/", handler.Index)

	authenticate := middleware.NewAuthenticate(r.authenticator, r.contextManager, r.logger)
	r.registerAuthRoutes(api, authenticate)
	r.registerUserRoutes(api, authenticate)

	return app
}

func corsOrigins(origins []string) string {
	cleaned := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			cleaned = append(cleaned, o)
		}
	}
	if len(cleaned) == 0 {
		return "*"
	}
	return strings.Join(cleaned, ",")
}

func (r *Router) registerAuthRoutes(api fiber.Router, authenticate *middleware.Authenticate) {
	authHandler := handler.NewAuth(r.authService, r.contextManager, r.logger)

	loginLimit := middleware.RateLimit("auth_login", r.opts.LoginPerMinute, time.Minute, r.opts.Limiter, r.opts.Metrics)
	googleLimit := middleware.RateLimit("auth_google", r.opts.LoginPerMinute, time.Minute, r.opts.Limiter, r.opts.Metrics)

	auth := api.Group("/auth")
	auth.Post("/login", loginLimit, authHandler.Login)
	auth.Get("/verify", authHandler.VerifyQuery)
	auth.Post("/verify", authHandler.VerifyBody)
	auth.Post("/google", googleLimit, authHandler.Google)
	auth.Post("/logout", authenticate.Handle, authHandler.Logout)
}

func (r *Router) registerUserRoutes(api fiber.Router, authenticate *middleware.Authenticate) {
	usersHandler := handler.NewUsers(r.usersService, r.contextManager, r.logger)

	users := api.Group("/users")
	users.Get("/", usersHandler.List)
	users.Post("/import", authenticate.Handle, usersHandler.Import)
	users.Post("/delete", authenticate.Handle, usersHandler.Delete)
	users.Get("/:id", usersHandler.Get)
	users.Put("/:id", authenticate.Handle, usersHandler.Update)
	users.Get("/:id/avatar", usersHandler.Avatar)
	users.Put("/:id/avatar", authenticate.Handle, usersHandler.UploadAvatar)
	users.Post("/:id/toggle-admin", authenticate.Handle, usersHandler.ToggleAdmin)

	api.Get("/tags", usersHandler.Tags)
}
