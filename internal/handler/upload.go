package handler

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"tineghir-cms/internal/middleware"
)

// maxUploadBytes caps multipart uploads at 10MB.
const maxUploadBytes = 10 << 20

// UploadHandler accepts binary file uploads and returns a stable reference
// path under /uploads/. Consumed by the content-update and
// attraction-create flows.
type UploadHandler struct {
	uploadsDir string
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploadsDir string) *UploadHandler {
	return &UploadHandler{uploadsDir: uploadsDir}
}

// Upload stores a multipart file under a generated name. Only the
// extension is taken from the client-supplied filename.
// POST /api/upload
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("image")
	if err != nil {
		WriteBadRequest(w, "No file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	// Reject anything that isn't a plain extension (defense against
	// path tricks in the client filename).
	if ext != "" && (len(ext) > 10 || strings.ContainsAny(ext, "/\\")) {
		WriteBadRequest(w, "Invalid file name")
		return
	}

	if err := os.MkdirAll(h.uploadsDir, 0o755); err != nil {
		slog.Error("creating uploads directory", "error", err, "dir", h.uploadsDir)
		WriteInternalError(w)
		return
	}

	name := uuid.New().String() + ext
	dstPath := filepath.Join(h.uploadsDir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		slog.Error("creating upload file", "error", err, "path", dstPath)
		WriteInternalError(w)
		return
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, file); err != nil {
		_ = os.Remove(dstPath)
		slog.Error("writing upload file", "error", err, "path", dstPath)
		WriteInternalError(w)
		return
	}

	slog.Info("file uploaded", "name", name, "size", header.Size, "user_id", middleware.GetUserID(r))

	// Path relative to the server root, served by the /uploads/ static route.
	WriteJSON(w, http.StatusOK, map[string]any{"filePath": "uploads/" + name})
}
