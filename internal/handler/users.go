package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"tineghir-cms/internal/auth"
	"tineghir-cms/internal/middleware"
	"tineghir-cms/internal/model"
	"tineghir-cms/internal/store"
)

// UsersHandler serves the user roster. All routes are protected.
type UsersHandler struct {
	db      *sql.DB
	queries *store.Queries
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(db *sql.DB) *UsersHandler {
	return &UsersHandler{
		db:      db,
		queries: store.New(db),
	}
}

// List returns all accounts as snapshots without password hashes.
// GET /api/users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.queries.ListUsers(r.Context())
	if err != nil {
		logStorageError("listing users", err)
		WriteInternalError(w)
		return
	}

	views := make([]model.UserView, 0, len(users))
	for i := range users {
		views = append(views, users[i].View())
	}
	WriteJSON(w, http.StatusOK, views)
}

// createUserRequest is the POST /api/users body.
type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Create adds a new account. The role defaults to Editor; granting the
// Administrator role requires the caller to be an Administrator.
// POST /api/users
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, w, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	fieldErrors := make(map[string]string)
	if req.Name == "" {
		fieldErrors["name"] = "required"
	}
	if req.Email == "" {
		fieldErrors["email"] = "required"
	}
	if req.Password == "" {
		fieldErrors["password"] = "required"
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, "Name, email, and password are required", fieldErrors)
		return
	}

	role := req.Role
	if role == "" {
		role = model.RoleEditor
	}
	if !model.ValidRole(role) {
		WriteValidationError(w, "Unknown role", map[string]string{"role": "must be Administrator, Editor, or Viewer"})
		return
	}

	if role == model.RoleAdministrator {
		caller := middleware.GetUser(r)
		if caller == nil || !caller.IsAdmin() {
			slog.Warn("administrator grant refused", "category", "auth", "user_id", middleware.GetUserID(r))
			WriteForbidden(w, "Only administrators may grant the Administrator role")
			return
		}
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("hashing password", "error", err)
		WriteInternalError(w)
		return
	}

	id, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       model.StatusActive,
	})
	if err != nil {
		if store.IsUniqueConstraint(err) {
			WriteError(w, http.StatusConflict, "duplicate_email", "An account with this email already exists", nil)
			return
		}
		logStorageError("creating user", err)
		WriteInternalError(w)
		return
	}

	slog.Info("user created", "id", id, "role", role, "created_by", middleware.GetUserID(r))
	WriteJSON(w, http.StatusOK, map[string]any{"id": id})
}

// Delete removes an account by id, irreversibly. Deleting a nonexistent
// id is a successful no-op; deleting the last remaining Administrator is
// refused.
// DELETE /api/users/{id}
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid user ID")
		return
	}

	if err := store.DeleteUserGuarded(r.Context(), h.db, id); err != nil {
		if errors.Is(err, store.ErrLastAdmin) {
			WriteValidationError(w, "Cannot delete the last administrator account", nil)
			return
		}
		logStorageError("deleting user", err, "id", id)
		WriteInternalError(w)
		return
	}

	slog.Info("user deleted", "id", id, "deleted_by", middleware.GetUserID(r))
	WriteSuccess(w)
}
