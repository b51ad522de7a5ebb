package server

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/shareack/shareack/internal/components/api"
	httpmw "github.com/shareack/shareack/internal/platform/http/middleware"
)

// setupRoutes creates the chi router with all endpoint groups mounted.
// Order of the transport middleware is invariant:
// RequestID -> access log -> recoverer.
func (s *Server) setupRoutes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(httpmw.AccessLog(s.logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", api.HealthHandler(s.handlers.DriverName))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handlers.Auth.HandleLogin)
		r.Post("/auth/logout", s.handlers.Auth.HandleLogout)

		// Everything below requires a valid session.
		r.Group(func(r chi.Router) {
			r.Use(s.handlers.Auth.RequireSession)

			r.Get("/invitations", s.handlers.Invitations.HandleListMine)

			r.Route("/shares/{shareID}/invitations", func(r chi.Router) {
				r.Post("/", s.handlers.Invitations.HandleCreate)
				r.Get("/", s.handlers.Invitations.HandleListForShare)
				r.Delete("/", s.handlers.Invitations.HandleDeleteAll)
				r.Patch("/{userID}", s.handlers.Invitations.HandleSetStatus)
			})
		})
	})

	return r
}
