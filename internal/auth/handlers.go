package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/FilmPriceGuide/FPG-Gateway/internal/utils"
)

// Handlers exposes the auth service over HTTP. Error bodies stay generic;
// the service already collapses failure causes into single error values.
type Handlers struct {
	service *Service
	// secureCookies controls the Secure flag on the session cookie.
	// Off during local HTTP development, on behind TLS.
	secureCookies bool
}

func NewHandlers(service *Service, secureCookies bool) *Handlers {
	return &Handlers{service: service, secureCookies: secureCookies}
}

const sessionCookieName = "session_id"

func (h *Handlers) sessionCookie(value string, expiresAt time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies,
	}
	if value == "" {
		c.MaxAge = -1
	} else if !expiresAt.IsZero() {
		c.Expires = expiresAt
	}
	return c
}

type userResponse struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	IsAdmin   bool   `json:"is_admin"`
}

func sessionResponse(s utils.SessionData) userResponse {
	return userResponse{
		UserID:    s.UserID,
		Username:  s.Username,
		Email:     s.Email,
		FirstName: s.FirstName,
		IsAdmin:   s.IsAdmin,
	}
}

func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	// Logging in over a live session re-issues it rather than stacking
	// a second one.
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		h.service.Logout(cookie.Value)
	}

	session, err := h.service.Login(creds.Login, creds.Password)
	if err != nil {
		http.Error(w, "Invalid email/username or password.", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, h.sessionCookie(session.SessionID, session.ExpiresAt))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessionResponse(session))
}

func (h *Handlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	user, err := h.service.Register(req)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

func (h *Handlers) BootstrapAdminHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	user, err := h.service.CreateBootstrapAdmin(req.Username, req.Email, req.Password)
	if errors.Is(err, ErrConflict) {
		http.Error(w, "Setup already completed", http.StatusConflict)
		return
	}
	if err != nil {
		writeAuthError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

func (h *Handlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		h.service.Logout(cookie.Value)
	}

	// Always succeed: logging out while anonymous is a no-op.
	http.SetCookie(w, h.sessionCookie("", time.Time{}))
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Logout successful")
}

func (h *Handlers) MeHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := utils.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Couldn't find session", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessionResponse(session))
}

func (h *Handlers) UpdatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := utils.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Couldn't find session", http.StatusUnauthorized)
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Current and new password are required", http.StatusBadRequest)
		return
	}

	if err := h.service.ChangePassword(session.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			http.Error(w, "Invalid current password", http.StatusUnauthorized)
			return
		}
		writeAuthError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Password updated")
}

// SetupStatusHandler reports whether the initial admin setup is still
// pending, so the frontend can route first-time visitors to the setup
// screen instead of the login form.
func (h *Handlers) SetupStatusHandler(w http.ResponseWriter, r *http.Request) {
	hasUsers, err := h.service.HasUsers()
	if err != nil {
		http.Error(w, "Request failed. Please try again.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"setup_required": !hasUsers})
}

// ListUsersHandler returns every account for the admin user screen.
// Password hashes never serialize.
func (h *Handlers) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers()
	if err != nil {
		http.Error(w, "Request failed. Please try again.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

func writeAuthError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		http.Error(w, vErr.Message, http.StatusBadRequest)
	case errors.Is(err, ErrConflict):
		http.Error(w, "Username or email already exists", http.StatusConflict)
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthorized):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	default:
		http.Error(w, "Request failed. Please try again.", http.StatusInternalServerError)
	}
}
