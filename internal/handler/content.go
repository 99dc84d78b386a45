package handler

import (
	"database/sql"
	"net/http"

	"tineghir-cms/internal/cache"
	"tineghir-cms/internal/middleware"
	"tineghir-cms/internal/store"
)

// ContentHandler serves the schemaless page-content key/value store.
type ContentHandler struct {
	db      *sql.DB
	queries *store.Queries
	cache   *cache.ContentCache
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(db *sql.DB, contentCache *cache.ContentCache) *ContentHandler {
	return &ContentHandler{
		db:      db,
		queries: store.New(db),
		cache:   contentCache,
	}
}

// Get returns the full key/value mapping. Public; served from cache when
// warm.
// GET /api/content
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if content, ok := h.cache.Get(r.Context()); ok {
		WriteJSON(w, http.StatusOK, content)
		return
	}

	// Snapshot the generation before the read: if an update lands in
	// between, Set refuses to cache the now-stale mapping.
	gen := h.cache.Generation()

	content, err := h.queries.AllContent(r.Context())
	if err != nil {
		logStorageError("loading content", err)
		WriteInternalError(w)
		return
	}

	h.cache.Set(r.Context(), content, gen)
	WriteJSON(w, http.StatusOK, content)
}

// Update applies a bulk upsert of content entries. The whole mapping is
// applied in one transaction; readers never observe a partial update.
// Unknown keys are accepted (the store is schemaless; the admin UI and
// frontend agree on key names out of band).
// POST /api/content
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var updates map[string]string
	if err := decodeJSON(r, w, &updates); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	if err := store.BulkUpsertContent(r.Context(), h.db, updates); err != nil {
		logStorageError("bulk content upsert", err, "user_id", middleware.GetUserID(r), "keys", len(updates))
		WriteInternalError(w)
		return
	}

	h.cache.Invalidate(r.Context())
	WriteSuccess(w)
}
