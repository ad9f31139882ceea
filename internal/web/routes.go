package web

import (
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", handlers.HealthCheck)

	// Gallery
	s.router.Post("/register", s.handler.Register)
	s.router.Get("/users/{email}", s.handler.UserStatus)

	// Attendance
	s.router.Post("/authenticate", s.handler.Authenticate)
	s.router.Get("/history", s.handler.History)

	s.router.NotFound(handlers.NotFound)
	s.router.MethodNotAllowed(handlers.MethodNotAllowed)
}
