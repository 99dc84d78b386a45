package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"tineghir-cms/internal/model"
	"tineghir-cms/internal/store"
)

// MessagesHandler serves visitor-submitted contact messages: public
// create, protected list.
type MessagesHandler struct {
	queries   *store.Queries
	sanitizer *bluemonday.Policy
}

// NewMessagesHandler creates a new MessagesHandler.
func NewMessagesHandler(db *sql.DB) *MessagesHandler {
	return &MessagesHandler{
		queries: store.New(db),
		// Messages are plain text: strip all HTML from visitor input.
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// createMessageRequest is the POST /api/messages body.
type createMessageRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Create stores a visitor message. Fields are stripped of HTML and must
// be non-empty after sanitization.
// POST /api/messages
func (h *MessagesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := decodeJSON(r, w, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	name := strings.TrimSpace(h.sanitizer.Sanitize(req.Name))
	email := strings.TrimSpace(h.sanitizer.Sanitize(req.Email))
	body := strings.TrimSpace(h.sanitizer.Sanitize(req.Message))

	fieldErrors := make(map[string]string)
	if name == "" {
		fieldErrors["name"] = "required"
	}
	if email == "" {
		fieldErrors["email"] = "required"
	}
	if body == "" {
		fieldErrors["message"] = "required"
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, "All fields are required", fieldErrors)
		return
	}

	id, err := h.queries.CreateMessage(r.Context(), store.CreateMessageParams{
		Name:    name,
		Email:   email,
		Message: body,
	})
	if err != nil {
		logStorageError("creating message", err)
		WriteInternalError(w)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"id": id})
}

// List returns all messages, newest first.
// GET /api/messages
func (h *MessagesHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.queries.ListMessages(r.Context())
	if err != nil {
		logStorageError("listing messages", err)
		WriteInternalError(w)
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}
	WriteJSON(w, http.StatusOK, messages)
}
