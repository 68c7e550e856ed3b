package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mlaurel/hearthledger/internal/auth"
	"github.com/mlaurel/hearthledger/internal/config"
	"github.com/mlaurel/hearthledger/internal/docstore"
	"github.com/mlaurel/hearthledger/internal/email"
	"github.com/mlaurel/hearthledger/internal/environment"
	"github.com/mlaurel/hearthledger/internal/family"
	"github.com/mlaurel/hearthledger/internal/handler"
	"github.com/mlaurel/hearthledger/internal/middleware"
	ws "github.com/mlaurel/hearthledger/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	authSvc     *auth.Service
	familySvc   *family.Service
	authH       *handler.AuthHandler
	familyH     *handler.FamilyHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	resolver := environment.NewResolver(cfg)
	store := docstore.NewSQLite(db)
	mail := email.NewClient(cfg.PostmarkToken, cfg.EmailFrom, logger.With("component", "email"))

	authSvc := auth.NewService(store, resolver, mail, cfg.BaseURL, logger.With("component", "auth"))
	familySvc := family.NewService(store, resolver, cfg.BaseURL, logger.With("component", "family"))

	return &Server{
		db:          db,
		hub:         hub,
		authSvc:     authSvc,
		familySvc:   familySvc,
		authH:       handler.NewAuthHandler(authSvc, logger.With("component", "auth_handler")),
		familyH:     handler.NewFamilyHandler(familySvc, hub, logger.With("component", "family_handler")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /api/auth/password-reset", s.rateLimitedHandler(s.authH.RequestPasswordReset))
	outerMux.HandleFunc("POST /api/auth/reset-password", s.rateLimitedHandler(s.authH.ResetPassword))
	outerMux.HandleFunc("GET /api/invites/{id}", s.familyH.GetInvite)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.authSvc)
	outerMux.Handle("/", authMiddleware(protectedMux))

	// Apply request logging middleware
	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)

	// Family API routes
	mux.HandleFunc("POST /api/families", s.familyH.Create)
	mux.HandleFunc("GET /api/families", s.familyH.List)
	mux.HandleFunc("GET /api/families/{id}", s.familyH.Get)
	mux.HandleFunc("POST /api/families/{id}/invites", s.familyH.CreateInvite)
	mux.HandleFunc("DELETE /api/families/{id}/members/{member_id}", s.familyH.RemoveMember)
	mux.HandleFunc("POST /api/families/{id}/leave", s.familyH.Leave)

	// Invite API routes
	mux.HandleFunc("POST /api/invites/{id}/accept", s.familyH.AcceptInvite)

	// Live updates
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
