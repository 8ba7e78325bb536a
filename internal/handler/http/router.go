package http

import (
	"log/slog"
	"os"

	"github.com/careroute/tour-backend-go/internal/handler/http/middleware"
	"github.com/careroute/tour-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	AllowedOrigins []string
	LogLevel       slog.Level
}

func NewRouter(
	cfg RouterConfig,
	logger *slog.Logger,
	JWTService jwt.Service,
	tourHandler TourHandler,
	sessionHandler SessionHandler,
	eventHandler EventHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Browsers cannot set headers on EventSource, the stream takes a
		// short-lived token in the query instead.
		r.Get("/events/routes", eventHandler.StreamRoutes)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(chiMiddleware.AllowContentType("application/json"))

			r.Post("/events/token", eventHandler.GetSSEToken)

			r.Get("/appointments/weekday/{day}", tourHandler.ListAppointments)

			r.Route("/routes", func(r chi.Router) {
				r.Get("/", tourHandler.ListRoutes)
				r.Post("/optimize", tourHandler.OptimizeRoutes)
				r.Put("/{routeID}", tourHandler.UpdateRouteOrder)
			})

			r.Get("/stops", tourHandler.ListStops)
			r.Get("/weekend-areas", tourHandler.ListWeekendAreas)

			r.Route("/session", func(r chi.Router) {
				r.Get("/", sessionHandler.Get)
				r.Put("/actor", sessionHandler.SelectActor)
				r.Put("/weekday", sessionHandler.SelectWeekday)

				r.Route("/completions", func(r chi.Router) {
					r.Delete("/", sessionHandler.ClearCompletions)
					r.Put("/{appointmentID}", sessionHandler.SetCompleted)
					r.Post("/{appointmentID}/toggle", sessionHandler.ToggleCompleted)
				})
			})
		})
	})
	return r
}

// NewLogger builds the JSON logger used for request logs and the app.
func NewLogger(level slog.Level, env string) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(env != "development")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "tour-backend"),
		slog.String("version", "v1.0.0"),
		slog.String("env", env),
	)
}
