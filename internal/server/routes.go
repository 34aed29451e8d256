package server

import (
	"github.com/RimvydasPet/tech-doc-assistant/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	// Health endpoints
	s.router.Get("/health", handlers.HealthHandler)
	s.router.Get("/health/live", handlers.LivenessHandler)
	s.router.Get("/health/ready", handlers.ReadinessHandler)

	// Version endpoint
	s.router.Get("/version", handlers.VersionHandler)

	// Metrics endpoint (in server package to access HandleError)
	s.router.Get("/metrics", MetricsHandler)

	// Assistant API
	s.router.Post("/api/chat", handlers.ChatHandler)
	s.router.Get("/api/usage/{session}", handlers.UsageHandler)
	s.router.Post("/api/usage/{session}/reset", handlers.UsageResetHandler)
	s.router.Get("/api/languages", handlers.LanguagesHandler)
	s.router.Get("/api/cache/stats", handlers.CacheStatsHandler)
	s.router.Post("/api/cache/clear", handlers.CacheClearHandler)
}
