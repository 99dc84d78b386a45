package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"tineghir-cms/internal/auth"
	"tineghir-cms/internal/middleware"
	"tineghir-cms/internal/store"
)

// AuthHandler handles login, logout, and the current-session endpoint.
type AuthHandler struct {
	queries        *store.Queries
	sessionManager *scs.SessionManager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, sm *scs.SessionManager) *AuthHandler {
	return &AuthHandler{
		queries:        store.New(db),
		sessionManager: sm,
	}
}

// loginRequest is the POST /api/login body.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and establishes a session.
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, w, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	if req.Email == "" || req.Password == "" {
		WriteValidationError(w, "Email and password are required", nil)
		return
	}

	// Same extraction the limiter keys on, so event log entries line up
	// with the rate-limited address.
	clientIP := middleware.ClientIP(r)

	user, err := h.queries.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Warn("login failed: unknown email", "category", "auth", "ip", clientIP)
		} else {
			logStorageError("looking up user during login", err)
		}
		// Uniform failure shape regardless of whether the email existed.
		WriteInvalidCredentials(w)
		return
	}

	if !user.IsActive() {
		slog.Warn("login attempt on inactive account", "category", "auth", "user_id", user.ID, "ip", clientIP)
		WriteInvalidCredentials(w)
		return
	}

	valid, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "category", "auth", "error", err)
		WriteInvalidCredentials(w)
		return
	}
	if !valid {
		slog.Warn("login failed: invalid password", "category", "auth", "user_id", user.ID, "ip", clientIP)
		WriteInvalidCredentials(w)
		return
	}

	// Re-hash if the stored hash uses a lower cost than the current default
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(req.Password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), user.ID, newHash); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			}
		}
	}

	now := time.Now()
	if err := h.queries.UpdateUserLastActive(r.Context(), user.ID, now); err != nil {
		// Don't block login on this error
		slog.Error("failed to update last active time", "error", err, "user_id", user.ID)
	} else {
		user.LastActive = sql.NullTime{Time: now, Valid: true}
	}

	// Regenerate the session token to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("session renewal error", "error", err)
		WriteInternalError(w)
		return
	}

	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)

	WriteJSON(w, http.StatusOK, map[string]any{"user": user.View()})
}

// Logout destroys the session. Logging out without a session is not an
// error; the operation is idempotent.
// POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID)

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	if userID > 0 {
		slog.Info("user logged out", "user_id", userID)
	}

	WriteSuccess(w)
}

// Me returns the account snapshot bound to the current session.
// GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthenticated(w)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user": user.View()})
}
