// Package api exposes the contact form and the admin panel over HTTP.
package api

import (
	"context"
	"net/http"

	"menumakers/internal/ratelimit"
	"menumakers/internal/services"

	goahttp "goa.design/goa/v3/http"
	"goa.design/goa/v3/http/middleware"
	goamiddleware "goa.design/goa/v3/middleware"
)

// CookieConfig describes the admin session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Deps are the services the HTTP layer calls into.
type Deps struct {
	Health    *services.HealthService
	Contact   *services.ContactService
	Auth      *services.AuthService
	Inquiries *services.InquiryService
	// ContactLimiter guards POST /api/contact. Nil disables admission control.
	ContactLimiter *ratelimit.Limiter
	Cookie         CookieConfig
	// Debug mounts the /api/dev routes.
	Debug bool
}

// Server routes HTTP requests to the services
type Server struct {
	health    *services.HealthService
	contact   *services.ContactService
	auth      *services.AuthService
	inquiries *services.InquiryService
	limiter   *ratelimit.Limiter
	cookie    CookieConfig
	debug     bool

	mux goahttp.Muxer
}

// New creates a server and mounts its routes.
func New(d Deps) *Server {
	s := &Server{
		health:    d.Health,
		contact:   d.Contact,
		auth:      d.Auth,
		inquiries: d.Inquiries,
		limiter:   d.ContactLimiter,
		cookie:    d.Cookie,
		debug:     d.Debug,
		mux:       goahttp.NewMuxer(),
	}
	if s.cookie.Name == "" {
		s.cookie.Name = "admin_session"
	}
	s.mount()
	return s
}

func (s *Server) mount() {
	s.mux.Handle(http.MethodGet, "/health", s.handleHealth)

	contact := http.Handler(http.HandlerFunc(s.handleContact))
	if s.limiter != nil {
		contact = s.limiter.Middleware(s.rejectContact)(contact)
	}
	s.mux.Handle(http.MethodPost, "/api/contact", contact.ServeHTTP)

	s.mux.Handle(http.MethodPost, "/api/admin/login", s.handleLogin)
	s.mux.Handle(http.MethodPost, "/api/admin/logout", s.handleLogout)
	s.mux.Handle(http.MethodGet, "/api/admin/auth-status", s.handleAuthStatus)

	s.mux.Handle(http.MethodGet, "/api/admin/inquiries", s.requireSession(s.handleListInquiries))
	s.mux.Handle(http.MethodGet, "/api/admin/inquiries/{id}", s.requireSession(s.handleGetInquiry))
	s.mux.Handle(http.MethodPut, "/api/admin/inquiries/{id}/status", s.requireSession(s.handleSetStatus))
	s.mux.Handle(http.MethodGet, "/api/admin/stats", s.requireSession(s.handleStats))
	s.mux.Handle(http.MethodPost, "/api/admin/send-email", s.requireSession(s.handleSendEmail))

	if s.debug {
		s.mux.Handle(http.MethodPost, "/api/dev/sample-inquiries", s.requireSession(s.handleSeedSamples))
		s.mux.Handle(http.MethodPost, "/api/dev/clean-database", s.requireSession(s.handleCleanDatabase))
	}
}

// Handler returns the routes wrapped with request id propagation and logging.
func (s *Server) Handler() http.Handler {
	h := requestLogging(s.mux)
	h = middleware.PopulateRequestContext()(h)
	h = middleware.RequestID(middleware.UseXRequestIDHeaderOption(true))(h)
	return h
}

// requestID returns the id assigned by the goa RequestID middleware.
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(goamiddleware.RequestIDKey).(string)
	if id == "" {
		return "-"
	}
	return id
}
