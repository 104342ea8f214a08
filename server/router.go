package server

import (
	"net/http"

	"timesheet/config"
	"timesheet/handlers"
	"timesheet/logger"
	"timesheet/middleware"
	"timesheet/models"
	"timesheet/response"
	"timesheet/services"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

// Server owns the HTTP router and the background state behind it.
type Server struct {
	router  chi.Router
	limiter *middleware.RateLimiter
}

func New(cfg *config.Config, db *gorm.DB) *Server {
	middleware.SetJWTSecret(cfg.JWT.Secret)

	userService := services.NewUserService(db)

	authHandler := handlers.NewAuthHandler(cfg, userService)
	userHandler := handlers.NewUserHandler(userService)
	projectHandler := handlers.NewProjectHandler(services.NewProjectService(db))
	timesheetHandler := handlers.NewTimesheetHandler(services.NewTimesheetService(db))
	entryHandler := handlers.NewEntryHandler(services.NewEntryService(db), services.NewReportService(db))
	healthHandler := handlers.NewHealthHandler(db)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst)

	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(logger.RequestLogger)
	router.Use(chimiddleware.Recoverer)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Message(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Message(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Public routes
	router.Get("/health", healthHandler.Health)
	router.With(limiter.Middleware).Post("/login", authHandler.Login)

	authenticate := middleware.AuthMiddleware(db)

	router.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.Register)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", userHandler.List)
			r.Get("/me", userHandler.Me)
			r.Put("/me/password", userHandler.ChangePassword)
			r.Get("/manager/{id}/team", userHandler.Team)
			r.Get("/{id}", userHandler.Get)
		})
	})

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectHandler.List)
			r.Get("/{id}", projectHandler.Get)
			r.With(middleware.RequireRole(models.RoleManager)).Post("/", projectHandler.Create)
		})

		r.Route("/timesheets", func(r chi.Router) {
			r.Post("/", timesheetHandler.Create)
			r.Get("/my-timesheets", timesheetHandler.MyTimesheets)
			r.Get("/pending-approvals", timesheetHandler.PendingApprovals)
			r.Get("/{id}", timesheetHandler.Get)
			r.Delete("/{id}", timesheetHandler.Delete)
			r.Post("/{id}/submit", timesheetHandler.Submit)
			r.Put("/{id}/approve", timesheetHandler.Approve)
			r.Put("/{id}/reject", timesheetHandler.Reject)
		})

		r.Route("/timesheet-entries", func(r chi.Router) {
			r.Post("/", entryHandler.Create)
			r.Get("/my-entries", entryHandler.MyEntries)
			r.Get("/team-entries", entryHandler.TeamEntries)
			r.Get("/team-entries/export", entryHandler.ExportTeamEntries)
			r.Get("/{id}", entryHandler.Get)
			r.Put("/{id}", entryHandler.Update)
			r.Delete("/{id}", entryHandler.Delete)
		})
	})

	return &Server{router: router, limiter: limiter}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops background work started by New.
func (s *Server) Close() {
	s.limiter.Stop()
}
