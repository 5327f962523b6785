package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rumfor/market-tracker/internal/auth"
)

// handleAPIAuth routes /api/auth requests.
func (s *Server) handleAPIAuth(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/auth/")

	switch {
	case path == "register" && r.Method == http.MethodPost:
		s.apiRegister(w, r)
	case path == "login" && r.Method == http.MethodPost:
		s.apiLogin(w, r)
	case path == "refresh" && r.Method == http.MethodPost:
		s.apiRefresh(w, r)
	case path == "logout" && r.Method == http.MethodPost:
		s.apiLogout(w, r)
	case path == "verify" && r.Method == http.MethodGet:
		s.apiVerifyEmail(w, r)
	case path == "password-reset/request" && r.Method == http.MethodPost:
		s.apiPasswordResetRequest(w, r)
	case path == "password-reset/confirm" && r.Method == http.MethodPost:
		s.apiPasswordResetConfirm(w, r)
	case path == "me" && r.Method == http.MethodGet:
		s.apiMe(w, r)
	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}

// tokenPair is the login/refresh response payload.
type tokenPair struct {
	User         *auth.User `json:"user,omitempty"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

// apiRegister creates an account and sends a verification email.
func (s *Server) apiRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	// Admins are provisioned out of band, never self-registered.
	if auth.Role(req.Role) == auth.RoleAdmin {
		apiError(w, "invalid role: \"admin\"", http.StatusBadRequest)
		return
	}

	u, err := s.users.Register(req.Email, req.Name, req.Password, auth.Role(req.Role))
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			apiError(w, err.Error(), http.StatusConflict)
			return
		}
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	token, err := s.tokens.Create(u.Email, auth.PurposeVerify)
	if err != nil {
		apiError(w, fmt.Sprintf("creating verification token: %v", err), http.StatusInternalServerError)
		return
	}
	if _, err := s.mailer.SendVerification(u.Email, token); err != nil {
		apiError(w, fmt.Sprintf("sending verification email: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, u, http.StatusCreated)
}

// apiLogin authenticates and issues an access/refresh token pair.
func (s *Server) apiLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	u, err := s.users.Authenticate(req.Email, req.Password)
	if err != nil {
		apiError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	access, err := s.jwt.IssueAccess(u)
	if err != nil {
		apiError(w, fmt.Sprintf("issuing token: %v", err), http.StatusInternalServerError)
		return
	}
	refresh, err := s.refresh.Issue(u.ID)
	if err != nil {
		apiError(w, fmt.Sprintf("issuing refresh token: %v", err), http.StatusInternalServerError)
		return
	}

	// Also set a cookie session for browser callers.
	if sessionID, err := s.sessions.Create(u.Email); err == nil {
		auth.SetCookie(w, sessionID, !s.cfg.DevMode)
	}

	apiJSON(w, tokenPair{User: u, AccessToken: access, RefreshToken: refresh}, http.StatusOK)
}

// apiRefresh rotates a refresh token and issues a new access token.
func (s *Server) apiRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	userID, next, err := s.refresh.Rotate(req.RefreshToken)
	if err != nil {
		apiError(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	u, err := s.users.GetByID(userID)
	if err != nil {
		apiError(w, "user not found", http.StatusUnauthorized)
		return
	}

	access, err := s.jwt.IssueAccess(u)
	if err != nil {
		apiError(w, fmt.Sprintf("issuing token: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, tokenPair{AccessToken: access, RefreshToken: next}, http.StatusOK)
}

// apiLogout revokes the refresh token and clears the session cookie.
func (s *Server) apiLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	// Body is optional; cookie-only logout is fine.
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.RefreshToken != "" {
		// Best effort; an already-revoked token still logs out.
		_ = s.refresh.Revoke(req.RefreshToken)
	}

	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		_ = s.sessions.Delete(cookie.Value)
	}
	auth.ClearCookie(w)

	apiMessage(w, "logged out", http.StatusOK)
}

// apiVerifyEmail consumes a verification token from the emailed link.
func (s *Server) apiVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		apiError(w, "token is required", http.StatusBadRequest)
		return
	}

	email, err := s.tokens.Verify(token, auth.PurposeVerify)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.users.MarkVerified(email); err != nil {
		apiError(w, fmt.Sprintf("marking verified: %v", err), http.StatusInternalServerError)
		return
	}

	apiMessage(w, "email verified", http.StatusOK)
}

// apiPasswordResetRequest emails a reset link. The response never
// reveals whether the account exists.
func (s *Server) apiPasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if _, err := s.users.GetByEmail(req.Email); err == nil {
		token, err := s.tokens.Create(strings.ToLower(strings.TrimSpace(req.Email)), auth.PurposeReset)
		if err != nil {
			apiError(w, fmt.Sprintf("creating reset token: %v", err), http.StatusInternalServerError)
			return
		}
		if _, err := s.mailer.SendPasswordReset(req.Email, token); err != nil {
			apiError(w, fmt.Sprintf("sending reset email: %v", err), http.StatusInternalServerError)
			return
		}
	}

	apiMessage(w, "if the account exists, a reset link has been sent", http.StatusOK)
}

// apiPasswordResetConfirm consumes a reset token and sets the new
// password. All refresh tokens are revoked.
func (s *Server) apiPasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	email, err := s.tokens.Verify(req.Token, auth.PurposeReset)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.users.SetPassword(email, req.Password); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if u, err := s.users.GetByEmail(email); err == nil {
		_ = s.refresh.RevokeAll(u.ID)
	}

	apiMessage(w, "password updated", http.StatusOK)
}

// apiMe returns the authenticated caller's account.
func (s *Server) apiMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}

	u, err := s.users.GetByID(caller.UserID)
	if err != nil {
		apiError(w, "user not found", http.StatusNotFound)
		return
	}

	apiJSON(w, u, http.StatusOK)
}

// handleAPIKeys routes /api/keys requests for CLI credential management.
func (s *Server) handleAPIKeys(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/keys")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			s.apiListKeys(w, caller)
		case http.MethodPost:
			s.apiCreateKey(w, r, caller)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil {
		apiError(w, "invalid key ID", http.StatusBadRequest)
		return
	}
	if r.Method != http.MethodDelete {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.apiKeys.Delete(id, caller.Email); err != nil {
		apiError(w, "api key not found", http.StatusNotFound)
		return
	}
	apiMessage(w, "api key deleted", http.StatusOK)
}

func (s *Server) apiListKeys(w http.ResponseWriter, caller *auth.Identity) {
	keys, err := s.apiKeys.ListByEmail(caller.Email)
	if err != nil {
		apiError(w, fmt.Sprintf("listing api keys: %v", err), http.StatusInternalServerError)
		return
	}
	if keys == nil {
		keys = make([]*auth.APIKey, 0)
	}
	apiJSON(w, keys, http.StatusOK)
}

func (s *Server) apiCreateKey(w http.ResponseWriter, r *http.Request, caller *auth.Identity) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	record, key, err := s.apiKeys.Create(req.Name, caller.Email)
	if err != nil {
		if strings.Contains(err.Error(), "required") {
			apiError(w, err.Error(), http.StatusBadRequest)
			return
		}
		apiError(w, fmt.Sprintf("creating api key: %v", err), http.StatusInternalServerError)
		return
	}

	// The plaintext key appears in this response only.
	type response struct {
		*auth.APIKey
		Key string `json:"key"`
	}
	apiJSON(w, response{APIKey: record, Key: key}, http.StatusCreated)
}
