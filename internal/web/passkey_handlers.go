package web

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/rumfor/market-tracker/internal/auth"
)

// Session data for in-flight WebAuthn ceremonies lives in memory on
// the server; registration is keyed by email, login ceremonies by the
// challenge embedded in the session data.
const loginSessionKey = "__login"

// handlePasskey routes /passkey requests.
func (s *Server) handlePasskey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch strings.TrimPrefix(r.URL.Path, "/passkey/") {
	case "register/begin":
		s.passkeyBeginRegistration(w, r)
	case "register/finish":
		s.passkeyFinishRegistration(w, r)
	case "login/begin":
		s.passkeyBeginLogin(w, r)
	case "login/finish":
		s.passkeyFinishLogin(w, r)
	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}

// sessionEmail resolves the caller's email from the session cookie.
func (s *Server) sessionEmail(r *http.Request) (string, error) {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil {
		return "", err
	}
	return s.sessions.Validate(cookie.Value)
}

// passkeyBeginRegistration starts passkey registration. Requires an
// active browser session.
func (s *Server) passkeyBeginRegistration(w http.ResponseWriter, r *http.Request) {
	email, err := s.sessionEmail(r)
	if err != nil {
		apiError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	u, err := s.users.GetByEmail(email)
	if err != nil {
		apiError(w, "user not found", http.StatusUnauthorized)
		return
	}

	creds, err := s.passkeys.WebAuthnCredentials(email)
	if err != nil {
		slog.Error("loading credentials", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	user := auth.NewPasskeyUser(email, u.Name, creds)

	// Exclude existing credentials so the same key isn't re-registered.
	excludeList := make([]protocol.CredentialDescriptor, len(creds))
	for i, c := range creds {
		excludeList[i] = c.Descriptor()
	}

	creation, session, err := s.webAuthn.BeginRegistration(user,
		webauthn.WithExclusions(excludeList),
	)
	if err != nil {
		slog.Error("beginning registration", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	s.passkeySessions[email] = session
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(creation); err != nil {
		slog.Error("encoding registration options", "err", err)
	}
}

// passkeyFinishRegistration completes passkey registration.
func (s *Server) passkeyFinishRegistration(w http.ResponseWriter, r *http.Request) {
	email, err := s.sessionEmail(r)
	if err != nil {
		apiError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	session, ok := s.passkeySessions[email]
	if ok {
		delete(s.passkeySessions, email)
	}
	s.mu.Unlock()

	if !ok {
		apiError(w, "no registration in progress", http.StatusBadRequest)
		return
	}

	u, err := s.users.GetByEmail(email)
	if err != nil {
		apiError(w, "user not found", http.StatusUnauthorized)
		return
	}

	creds, err := s.passkeys.WebAuthnCredentials(email)
	if err != nil {
		slog.Error("loading credentials", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	user := auth.NewPasskeyUser(email, u.Name, creds)

	credential, err := s.webAuthn.FinishRegistration(user, *session, r)
	if err != nil {
		slog.Error("finishing registration", "err", err)
		apiError(w, "registration failed", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Passkey"
	}

	if err := s.passkeys.Save(email, name, credential); err != nil {
		slog.Error("saving credential", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	apiMessage(w, "passkey registered", http.StatusOK)
}

// passkeyBeginLogin starts a discoverable passkey login.
func (s *Server) passkeyBeginLogin(w http.ResponseWriter, r *http.Request) {
	assertion, session, err := s.webAuthn.BeginDiscoverableLogin()
	if err != nil {
		slog.Error("beginning passkey login", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	s.passkeySessions[loginSessionKey] = session
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(assertion); err != nil {
		slog.Error("encoding login options", "err", err)
	}
}

// passkeyFinishLogin completes passkey login, creates a browser
// session, and returns a token pair for API use.
func (s *Server) passkeyFinishLogin(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	session := s.passkeySessions[loginSessionKey]
	delete(s.passkeySessions, loginSessionKey)
	s.mu.Unlock()

	if session == nil {
		apiError(w, "no login in progress", http.StatusBadRequest)
		return
	}

	var loggedInEmail string

	handler := func(rawID, userHandle []byte) (webauthn.User, error) {
		sc, err := s.passkeys.GetByCredentialID(hex.EncodeToString(rawID))
		if err != nil {
			return nil, protocol.ErrBadRequest.WithDetails("unknown credential")
		}

		creds, err := s.passkeys.WebAuthnCredentials(sc.Email)
		if err != nil {
			return nil, err
		}

		loggedInEmail = sc.Email
		return auth.NewPasskeyUser(sc.Email, "", creds), nil
	}

	if _, _, err := s.webAuthn.FinishPasskeyLogin(handler, *session, r); err != nil {
		slog.Error("finishing passkey login", "err", err)
		apiError(w, "login failed", http.StatusUnauthorized)
		return
	}

	u, err := s.users.GetByEmail(loggedInEmail)
	if err != nil {
		apiError(w, "user not found", http.StatusUnauthorized)
		return
	}

	sessionID, err := s.sessions.Create(u.Email)
	if err != nil {
		slog.Error("creating session", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}
	auth.SetCookie(w, sessionID, !s.cfg.DevMode)

	access, err := s.jwt.IssueAccess(u)
	if err != nil {
		apiError(w, "issuing token failed", http.StatusInternalServerError)
		return
	}
	refresh, err := s.refresh.Issue(u.ID)
	if err != nil {
		apiError(w, "issuing refresh token failed", http.StatusInternalServerError)
		return
	}

	slog.Info("login success", "email", u.Email, "method", "passkey")
	apiJSON(w, tokenPair{User: u, AccessToken: access, RefreshToken: refresh}, http.StatusOK)
}
