// internal/web/router.go
//
// Route table for the whole service.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the http.Handler for the service.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(securityHeaders)

	// Public parking surface.
	r.Get("/", s.handleIndex)
	r.Post("/", s.handlePublicAction)

	// Back office.
	r.Post("/admin/login", s.handleLogin)
	r.Get("/admin/logout", s.handleLogout)
	r.With(requireAdmin, requireCSRF).Post("/admin/api", s.handleAdminAPI)

	// Open JSON endpoints.
	r.Get("/api/stats", s.handleStatsAPI)
	r.Get("/api/whois", s.handleWhoisAPI)

	// Operational surface.
	r.Handle("/metrics", promhttp.Handler())

	// Unknown paths on a parked host still show the landing page, so deep
	// links keep working after a domain changes hands.
	r.NotFound(s.handleIndex)

	return r
}
