package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/localbizsite/localbiz/internal/server/auth"
	"github.com/localbizsite/localbiz/internal/server/metrics"
)

// Routes builds the full handler tree.
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.config.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.NotFound(s.notFound)
	r.MethodNotAllowed(s.methodNotAllowed)

	registerPolicy := auth.Policy{
		Name:           "register",
		Limit:          s.config.RegisterLimit,
		Window:         s.config.RegisterWindow,
		SkipSuccessful: s.config.RegisterSkipSuccessful,
	}
	loginPolicy := auth.Policy{
		Name:           "login",
		Limit:          s.config.LoginLimit,
		Window:         s.config.LoginWindow,
		SkipSuccessful: s.config.LoginSkipSuccessful,
	}

	r.Get("/health", s.health)
	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.registry))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit(registerPolicy))
			r.Post("/register", s.register)
			r.Post("/signup", s.register)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit(loginPolicy))
			r.Post("/login", s.login)
		})
		r.Post("/validate-token", s.validateToken)
		r.Post("/logout", s.logout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/me", s.me)
			r.Get("/profile", s.me)
			r.Patch("/profile", s.updateProfile)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Patch("/accounts/{id}/role", s.changeRole)
	})

	r.Route("/businesses", func(r chi.Router) {
		r.Get("/", s.listBusinesses)
		r.Get("/{id}", s.getBusiness)
		r.Get("/{id}/reviews", s.listReviews)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.createBusiness)
			r.Put("/{id}", s.updateBusiness)
			r.Delete("/{id}", s.deleteBusiness)
			r.Post("/{id}/images/upload-url", s.imageUploadURL)
			r.Post("/{id}/reviews", s.createReview)
		})
	})

	r.Route("/leads", func(r chi.Router) {
		r.Post("/", s.createLead)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/my", s.myLeads)
			r.Patch("/{id}/status", s.updateLeadStatus)
		})
	})

	return r
}
