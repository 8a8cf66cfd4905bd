package screening

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/neuroscreen/internal/auth"
	"github.com/redmonkez12/neuroscreen/internal/httputil"
	"github.com/redmonkez12/neuroscreen/internal/logging"
	"github.com/redmonkez12/neuroscreen/internal/storage"
)

// Per-kind upload limits. A hung or oversized body is cut off by
// MaxBytesReader before it reaches the object store.
const (
	maxVideoSize = 100 << 20 // 100 MB
	maxImageSize = 10 << 20  // 10 MB
	maxEEGSize   = 25 << 20  // 25 MB
)

// ObjectStore is the object storage surface the handler needs
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
}

// RecordRepository is the persistence surface the handler needs
type RecordRepository interface {
	Create(ctx context.Context, userID uuid.UUID, kind, storageKey string) error
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// Handler contains HTTP handlers for the screening upload endpoints
type Handler struct {
	store  ObjectStore
	repo   RecordRepository
	logger *logging.Logger
}

func NewHandler(store ObjectStore, repo RecordRepository, logger *logging.Logger) *Handler {
	return &Handler{
		store:  store,
		repo:   repo,
		logger: logger,
	}
}

// UploadResponse carries the storage key of an accepted artifact
type UploadResponse struct {
	Key string `json:"key"`
}

// CountResponse carries the number of stored screening records
type CountResponse struct {
	Count int `json:"count"`
}

// Upload handles POST /api/upload/{kind}
// @Summary      Upload a screening artifact
// @Description  Accept a multipart file for one screening kind (video, image or eeg) and return its storage key
// @Tags         screening
// @Accept       multipart/form-data
// @Produce      json
// @Param        kind path string true "Artifact kind" Enums(video, image, eeg)
// @Param        file formData file true "Artifact file"
// @Success      200 {object} UploadResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing or invalid file"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Security     BearerAuth
// @Router       /api/upload/{kind} [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	kind := chi.URLParam(r, "kind")
	maxSize, ok := uploadLimit(kind)
	if !ok {
		logger.Warn("upload rejected: unsupported kind", "kind", kind)
		httputil.RespondErrorWithCode(w, "unsupported upload kind", httputil.CodeUnsupportedKind, http.StatusBadRequest)
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			logger.Warn("upload rejected: file too large", "kind", kind)
			httputil.RespondErrorWithCode(w, "file too large", httputil.CodeFileTooLarge, http.StatusBadRequest)
			return
		}
		logger.Warn("upload rejected: missing file field", "kind", kind, "error", err.Error())
		httputil.RespondErrorWithCode(w, "multipart field 'file' is required", httputil.CodeMissingFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	// EEG uploads must be the clinician-provided CSV
	if kind == KindEEG && !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		logger.Warn("upload rejected: eeg file is not csv", "filename", header.Filename)
		httputil.RespondErrorWithCode(w, "only .csv files are accepted for eeg uploads", httputil.CodeInvalidFileType, http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.ObjectKey(kind)
	if err := h.store.Put(r.Context(), key, file, contentType); err != nil {
		logger.Error("upload failed: object store error", "kind", kind, "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to store file", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if err := h.repo.Create(r.Context(), userID, kind, key); err != nil {
		logger.Error("upload failed: record insert error", "kind", kind, "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to record upload", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("artifact uploaded", "kind", kind, "key", key, "user_id", userID)

	httputil.RespondJSON(w, UploadResponse{Key: key}, http.StatusOK)
}

// GetCount handles GET /api/get-count
// @Summary      Get screening record count
// @Description  Return the number of screening records stored for a user
// @Tags         screening
// @Produce      json
// @Param        userId query string true "User ID"
// @Success      200 {object} CountResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing or malformed userId"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Security     BearerAuth
// @Router       /api/get-count [get]
func (h *Handler) GetCount(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	rawID := r.URL.Query().Get("userId")
	if rawID == "" {
		httputil.RespondErrorWithCode(w, "userId query parameter is required", httputil.CodeUserIDRequired, http.StatusBadRequest)
		return
	}

	userID, err := uuid.Parse(rawID)
	if err != nil {
		logger.Warn("get-count rejected: malformed userId", "user_id", rawID)
		httputil.RespondErrorWithCode(w, "userId must be a valid UUID", httputil.CodeInvalidUserID, http.StatusBadRequest)
		return
	}

	count, err := h.repo.CountByUser(r.Context(), userID)
	if err != nil {
		logger.Error("get-count failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to count records", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, CountResponse{Count: count}, http.StatusOK)
}

func uploadLimit(kind string) (int64, bool) {
	switch kind {
	case KindVideo:
		return maxVideoSize, true
	case KindImage:
		return maxImageSize, true
	case KindEEG:
		return maxEEGSize, true
	}
	return 0, false
}
