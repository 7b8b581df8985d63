package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-user-accounts/internal/api/user"
)

// Config contains dependencies needed for the router setup
type Config struct {
	UserHandler user.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Heartbeat endpoint
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/signup", cfg.UserHandler.SignUp)
		r.Post("/login", cfg.UserHandler.Login)

		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}", cfg.UserHandler.Read)
			r.Put("/{id}", cfg.UserHandler.Update)
			r.Delete("/{id}", cfg.UserHandler.Delete)
		})
	})

	return r
}
