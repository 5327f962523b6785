// Package web provides the HTTP API server for the market tracker.
package web

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/rumfor/market-tracker/internal/auth"
	"github.com/rumfor/market-tracker/internal/comment"
	"github.com/rumfor/market-tracker/internal/config"
	"github.com/rumfor/market-tracker/internal/logging"
	"github.com/rumfor/market-tracker/internal/market"
	"github.com/rumfor/market-tracker/internal/tracking"
)

// Server is the JSON API server.
type Server struct {
	cfg config.Config

	marketRepo   *market.Repository
	trackingRepo *tracking.Repository
	commentRepo  *comment.Repository

	users    *auth.UserStore
	jwt      *auth.JWTManager
	refresh  *auth.RefreshStore
	tokens   *auth.TokenStore
	sessions *auth.SessionStore
	apiKeys  *auth.APIKeyStore
	passkeys *auth.PasskeyStore
	mailer   *auth.Mailer

	webAuthn *webauthn.WebAuthn

	mu              sync.Mutex
	passkeySessions map[string]*webauthn.SessionData

	mux     *http.ServeMux
	handler http.Handler
}

// NewServer creates an API server with the given database and config.
func NewServer(db *sql.DB, cfg config.Config) (*Server, error) {
	authCfg := auth.ConfigFrom(cfg)

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	wa, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "Rumfor Market Tracker",
		RPID:          base.Hostname(),
		RPOrigins:     []string{cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("configuring webauthn: %w", err)
	}

	s := &Server{
		cfg:             cfg,
		marketRepo:      market.NewRepository(db),
		trackingRepo:    tracking.NewRepository(db),
		commentRepo:     comment.NewRepository(db),
		users:           auth.NewUserStore(db, cfg.AdminEmail),
		jwt:             auth.NewJWTManager(cfg.JWTSecret),
		refresh:         auth.NewRefreshStore(db),
		tokens:          auth.NewTokenStore(db),
		sessions:        auth.NewSessionStore(db),
		apiKeys:         auth.NewAPIKeyStore(db),
		passkeys:        auth.NewPasskeyStore(db),
		mailer:          auth.NewMailer(authCfg),
		webAuthn:        wa,
		passkeySessions: make(map[string]*webauthn.SessionData),
		mux:             http.NewServeMux(),
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/markets", s.handleAPIMarkets)
	s.mux.HandleFunc("/api/markets/", s.handleAPIMarkets)
	s.mux.HandleFunc("/api/trackings", s.handleAPITrackings)
	s.mux.HandleFunc("/api/trackings/", s.handleAPITrackings)
	s.mux.HandleFunc("/api/auth/", s.handleAPIAuth)
	s.mux.HandleFunc("/api/keys", s.handleAPIKeys)
	s.mux.HandleFunc("/api/keys/", s.handleAPIKeys)
	s.mux.HandleFunc("/passkey/", s.handlePasskey)

	// Built once so middleware state (the auth failure limiter) spans
	// requests.
	middleware := auth.NewMiddleware(s.jwt, s.apiKeys, s.sessions, s.users)
	s.handler = logging.RequestLogger(middleware.Wrap(s.mux))

	return s, nil
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	fmt.Printf("Starting API server on http://localhost%s\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// identity returns the authenticated caller or writes a 401.
func (s *Server) identity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	id := auth.FromContext(r.Context())
	if id == nil {
		apiError(w, "authentication required", http.StatusUnauthorized)
		return nil, false
	}
	return id, true
}
