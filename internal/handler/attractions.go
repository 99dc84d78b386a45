package handler

import (
	"database/sql"
	"net/http"

	"tineghir-cms/internal/model"
	"tineghir-cms/internal/store"
)

// AttractionsHandler serves the attraction cards: public read, protected
// create and delete.
type AttractionsHandler struct {
	queries *store.Queries
}

// NewAttractionsHandler creates a new AttractionsHandler.
func NewAttractionsHandler(db *sql.DB) *AttractionsHandler {
	return &AttractionsHandler{queries: store.New(db)}
}

// List returns all attractions.
// GET /api/attractions
func (h *AttractionsHandler) List(w http.ResponseWriter, r *http.Request) {
	attractions, err := h.queries.ListAttractions(r.Context())
	if err != nil {
		logStorageError("listing attractions", err)
		WriteInternalError(w)
		return
	}
	if attractions == nil {
		attractions = []model.Attraction{}
	}
	WriteJSON(w, http.StatusOK, attractions)
}

// createAttractionRequest is the POST /api/attractions body.
type createAttractionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Tag         string `json:"tag"`
}

// Create inserts a new attraction.
// POST /api/attractions
func (h *AttractionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAttractionRequest
	if err := decodeJSON(r, w, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	if req.Title == "" {
		WriteValidationError(w, "Title is required", map[string]string{"title": "required"})
		return
	}

	id, err := h.queries.CreateAttraction(r.Context(), store.CreateAttractionParams{
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		Tag:         req.Tag,
	})
	if err != nil {
		logStorageError("creating attraction", err)
		WriteInternalError(w)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"id": id})
}

// Delete removes an attraction by id. Deleting a nonexistent id is a
// successful no-op.
// DELETE /api/attractions/{id}
func (h *AttractionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid attraction ID")
		return
	}

	if err := h.queries.DeleteAttraction(r.Context(), id); err != nil {
		logStorageError("deleting attraction", err, "id", id)
		WriteInternalError(w)
		return
	}

	WriteSuccess(w)
}
