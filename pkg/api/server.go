// Package api exposes the task service over HTTP. Routes live under
// /api/v1; every route except user registration requires a bearer token.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/taskhive/pkg/access"
	"github.com/platinummonkey/taskhive/pkg/audit"
	"github.com/platinummonkey/taskhive/pkg/auth"
	"github.com/platinummonkey/taskhive/pkg/comments"
	"github.com/platinummonkey/taskhive/pkg/contextkeys"
	"github.com/platinummonkey/taskhive/pkg/httputil"
	"github.com/platinummonkey/taskhive/pkg/invites"
	"github.com/platinummonkey/taskhive/pkg/lists"
	"github.com/platinummonkey/taskhive/pkg/middleware"
	"github.com/platinummonkey/taskhive/pkg/observability"
	"github.com/platinummonkey/taskhive/pkg/tags"
	"github.com/platinummonkey/taskhive/pkg/tasks"
	"github.com/platinummonkey/taskhive/pkg/users"
)

const maxRequestBody = 1 << 20 // 1 MiB

// Services bundles the domain services the server fronts.
type Services struct {
	Users    *users.Service
	Lists    *lists.Service
	Tasks    *tasks.Service
	Comments *comments.Service
	Tags     *tags.Service
	Invites  *invites.Service
	Access   *access.Service
	Tokens   *auth.Store
	Audit    *audit.DBRecorder
}

// Server represents our API server
type Server struct {
	router    *mux.Router
	services  Services
	gate      access.Checker
	logger    *observability.Logger
	accessLog *logrus.Logger
}

// NewServer creates a new API server. metrics may be nil to disable
// instrumentation (tests do this).
func NewServer(services Services, gate access.Checker, metrics *observability.Metrics, logger *observability.Logger) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		services:  services,
		gate:      gate,
		logger:    logger,
		accessLog: newAccessLogger(),
	}

	s.router.Use(mux.MiddlewareFunc(httputil.RequestIDMiddleware))
	s.router.Use(mux.MiddlewareFunc(httputil.RecoveryMiddleware(logger)))
	if metrics != nil {
		s.router.Use(mux.MiddlewareFunc(metrics.Middleware))
	}
	s.router.Use(mux.MiddlewareFunc(s.accessLogMiddleware))
	s.router.Use(mux.MiddlewareFunc(httputil.MaxBytesMiddleware(maxRequestBody)))

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	userHandlers := NewUserHandlers(s.services.Users, s.services.Tokens)

	// Registration is the only unauthenticated route.
	s.router.HandleFunc("/api/v1/users", userHandlers.Register).Methods("POST")

	protected := s.router.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.NewAuthMiddleware(s.services.Tokens).Handler)

	userHandlers.RegisterRoutes(protected)
	NewListHandlers(s.services.Lists).RegisterRoutes(protected)
	NewAccessHandlers(s.services.Access, s.gate).RegisterRoutes(protected)
	NewTaskHandlers(s.services.Tasks, s.services.Tags).RegisterRoutes(protected)
	NewCommentHandlers(s.services.Comments).RegisterRoutes(protected)
	NewTagHandlers(s.services.Tags).RegisterRoutes(protected)
	NewInviteHandlers(s.services.Invites).RegisterRoutes(protected)
	if s.services.Audit != nil {
		NewAuditHandlers(s.services.Audit, s.gate).RegisterRoutes(protected)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// RegisterRoutes registers routes from a RouteRegistrar
func (s *Server) RegisterRoutes(registrar RouteRegistrar) {
	registrar.RegisterRoutes(s.router)
}

func newAccessLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	return log
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// accessLogMiddleware writes one request log line per request.
func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		fields := logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      sw.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if requestID, ok := contextkeys.GetRequestID(r.Context()); ok {
			fields["request_id"] = requestID
		}
		s.accessLog.WithFields(fields).Info("request")
	})
}

// requireUser pulls the authenticated user id out of the context. The auth
// middleware guarantees it for protected routes; this guards against a
// handler being mounted without it.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := contextkeys.GetUserID(r.Context())
	if !ok || userID == "" {
		httputil.WriteUnauthorized(w, "authentication required")
		return "", false
	}
	return userID, true
}
