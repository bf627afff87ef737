// Package server assembles the Fiber application: middleware, handlers and
// routes.
package server

import (
	"sort"
	"time"

	"formflow/internal/handlers"
	"formflow/internal/middleware"
	"formflow/internal/repositories"
	"formflow/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps are the collaborators of the HTTP application. Optional pieces are
// left nil to disable them.
type Deps struct {
	DB  *gorm.DB
	Log *logrus.Logger

	JWTSecret string
	JWTExpiry time.Duration

	// Publisher receives domain events. Optional.
	Publisher services.EventPublisher
	// Revoker stores logged-out tokens. Optional.
	Revoker services.TokenRevoker
	// SubmitLimiter and AuthLimiter throttle public endpoints. Optional.
	SubmitLimiter middleware.Limiter
	AuthLimiter   middleware.Limiter

	Location           *time.Location
	ProtectAdminRoutes bool

	// Clock overrides time.Now for the dashboard.
	Clock func() time.Time
}

// New wires repositories, services and handlers into a Fiber app.
func New(d Deps) *fiber.App {
	log := d.Log

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(d.DB)
	formRepo := repositories.NewGORMFormRepository(d.DB)
	subRepo := repositories.NewGORMSubmissionRepository(d.DB)

	// --- Services ---
	authService := services.NewAuthService(userRepo, d.Revoker, d.JWTSecret, d.JWTExpiry, log)
	formService := services.NewFormService(formRepo, d.Publisher, log)
	submissionService := services.NewSubmissionService(formRepo, subRepo, d.Publisher, log)
	dashboardService := services.NewDashboardService(formRepo, subRepo, d.Location, log)
	if d.Clock != nil {
		dashboardService.WithClock(d.Clock)
	}

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService, log)
	formHandler := handlers.NewFormHandler(formService, log)
	submissionHandler := handlers.NewSubmissionHandler(submissionService, log)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	app := fiber.New(fiber.Config{
		AppName:      "FormFlow",
		ErrorHandler: handlers.ErrorHandler(log),
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{Output: log.Writer()}))

	var admin, submitLimit, authLimit fiber.Handler
	if d.ProtectAdminRoutes {
		admin = middleware.AuthRequired(authService, log)
	}
	if d.SubmitLimiter != nil {
		submitLimit = middleware.RateLimit(d.SubmitLimiter)
	}
	if d.AuthLimiter != nil {
		authLimit = middleware.RateLimit(d.AuthLimiter)
	}

	// --- API Routes ---
	api := app.Group("/api")
	authHandler.RegisterRoutes(api, authLimit)
	formHandler.RegisterRoutes(api, admin)
	submissionHandler.RegisterRoutes(api, admin, submitLimit)
	dashboardHandler.RegisterRoutes(api, admin)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		status, code := "healthy", fiber.StatusOK
		if err := ping(c, d.DB); err != nil {
			log.WithError(err).Warn("health check: database unreachable")
			status, code = "unhealthy", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":   "FormFlow Backend API is running",
			"endpoints": endpoints(app),
		})
	})

	return app
}

func ping(c *fiber.Ctx, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(c.UserContext())
}

// Endpoint is one registered route in the service banner.
type Endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

func endpoints(app *fiber.App) []Endpoint {
	seen := make(map[Endpoint]bool)
	out := make([]Endpoint, 0)
	for _, r := range app.GetRoutes(true) {
		if r.Method == fiber.MethodHead {
			continue
		}
		ep := Endpoint{Method: r.Method, Path: r.Path}
		if seen[ep] {
			continue
		}
		seen[ep] = true
		out = append(out, ep)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}
