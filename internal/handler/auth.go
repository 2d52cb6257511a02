package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/apperror"
	"github.com/sakif/repo-explainer/internal/auth"
	"github.com/sakif/repo-explainer/internal/service"
)

const stateCookieName = "oauth_state"

// AuthHandler manages sign-in and sessions.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister / HandleLogin → credentials, sets the session cookie
//   - HandleLogout / HandleSignOut → clears the session cookie
//   - HandleMe                     → identity of the current session
//   - HandleOAuthLogin             → redirect to Google or GitHub
//   - HandleOAuthCallback          → exchange the code, set the cookie
type AuthHandler struct {
	auth      *service.AuthService
	providers map[string]*auth.Provider
	secure    bool // HTTPS-only cookies
	logger    *zap.Logger
}

func NewAuthHandler(
	authService *service.AuthService,
	providers []*auth.Provider,
	secure bool,
	logger *zap.Logger,
) *AuthHandler {
	byName := make(map[string]*auth.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &AuthHandler{
		auth:      authService,
		providers: byName,
		secure:    secure,
		logger:    logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	Success bool          `json:"success,omitempty"`
	User    auth.Identity `json:"user"`
}

// HandleRegister answers POST /api/auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req, "Email and password are required"); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setSession(w, res.Token)
	writeJSON(w, h.logger, http.StatusOK, successBody)
}

// HandleLogin answers POST /api/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req, "Email and password are required"); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setSession(w, res.Token)
	writeJSON(w, h.logger, http.StatusOK, userResponse{Success: true, User: res.Identity})
}

// HandleLogout clears the session cookie. Tokens are not tracked
// server-side, so the old token stays valid until it expires.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, auth.CookieName)
	writeJSON(w, h.logger, http.StatusOK, successBody)
}

// HandleSignOut is the browser variant of HandleLogout: it clears the
// cookie and goes back to the home page.
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, auth.CookieName)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleMe answers GET /api/auth/me behind RequireAuth.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("Unauthorized"))
		return
	}
	writeJSON(w, h.logger, http.StatusOK, userResponse{User: id})
}

// HandleOAuthLogin redirects to the provider named in the path.
//
// HTTP: GET /auth/{provider}/login
//
// A random state goes into a short-lived cookie and into the authorization
// URL; the callback only proceeds when both match.
func (h *AuthHandler) HandleOAuthLogin(w http.ResponseWriter, r *http.Request) {
	p, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		writeError(w, h.logger, apperror.NotFoundMessage("Unknown sign-in provider"))
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, p.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleOAuthCallback completes the code flow.
//
// HTTP: GET /auth/{provider}/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter against the cookie
//  2. Exchange the code for the provider profile
//  3. Resolve the local account and issue a session cookie
//  4. Redirect to the home page
func (h *AuthHandler) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	p, ok := h.providers[name]
	if !ok {
		writeError(w, h.logger, apperror.NotFoundMessage("Unknown sign-in provider"))
		return
	}

	// --- Step 1: state ---
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch", zap.String("provider", name))
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	h.clearCookie(w, stateCookieName)

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth callback: authorization denied",
			zap.String("provider", name),
			zap.String("error", errParam),
		)
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	// --- Step 2: exchange ---
	pu, err := p.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", zap.String("provider", name), zap.Error(err))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	// --- Step 3: session ---
	res, err := h.auth.OAuthLogin(r.Context(), pu)
	if err != nil {
		h.logger.Error("oauth callback: sign-in failed", zap.String("provider", name), zap.Error(err))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}
	h.setSession(w, res.Token)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) setSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
