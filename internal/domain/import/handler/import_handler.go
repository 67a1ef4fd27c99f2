package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/bizpulse/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/bizpulse/internal/domain/import/service"
	"github.com/FACorreiaa/bizpulse/internal/domain/records"
	"github.com/FACorreiaa/bizpulse/pkg/interceptors"
	"github.com/FACorreiaa/bizpulse/pkg/respond"
	"github.com/FACorreiaa/bizpulse/pkg/storage"
)

const defaultMaxUploadBytes = 10 << 20

// ImportHandler serves the import, template and upload routes
type ImportHandler struct {
	importSvc      *importservice.ImportService
	files          storage.Storage // Optional: nil disables upload archiving
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(importSvc *importservice.ImportService, files storage.Storage, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importSvc:      importSvc,
		files:          files,
		maxUploadBytes: defaultMaxUploadBytes,
		logger:         logger,
	}
}

// WithMaxUploadBytes caps the accepted upload size
func (h *ImportHandler) WithMaxUploadBytes(n int64) *ImportHandler {
	if n > 0 {
		h.maxUploadBytes = n
	}
	return h
}

// Routes registers the handler on an authenticated router
func (h *ImportHandler) Routes(r chi.Router) {
	r.Route("/imports/{kind}", func(r chi.Router) {
		r.Post("/", h.SelectFile)
		r.Get("/", h.GetBatch)
		r.Delete("/", h.ResetBatch)
		r.Post("/commit", h.Commit)
	})
	r.Get("/templates/{kind}", h.Template)
	r.Get("/uploads", h.ListUploads)
	r.Get("/uploads/{id}", h.DownloadUpload)
}

func (h *ImportHandler) owner(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	ownerID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
	}
	return ownerID, ok
}

func (h *ImportHandler) kind(w http.ResponseWriter, r *http.Request) (records.Kind, bool) {
	kind, err := records.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return kind, true
}

// SelectFile accepts a multipart "file" field or a raw request body
func (h *ImportHandler) SelectFile(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}

	name, contentType, data, err := h.readUpload(w, r, kind)
	if err != nil {
		h.logger.Warn("failed to read upload", "owner_id", ownerID, "kind", kind, slog.Any("error", err))
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.importSvc.SelectFile(r.Context(), ownerID, kind, name, data)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.files != nil {
		_, err := h.files.Save(r.Context(), ownerID, storage.Upload{
			Name:        name,
			Kind:        string(kind),
			Fingerprint: view.Fingerprint,
			ContentType: contentType,
			Body:        bytes.NewReader(data),
		})
		if err != nil {
			h.logger.Warn("failed to archive upload", "owner_id", ownerID, "file", name, slog.Any("error", err))
		}
	}

	respond.JSON(w, http.StatusOK, view)
}

func (h *ImportHandler) readUpload(w http.ResponseWriter, r *http.Request, kind records.Kind) (string, string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", "", nil, fmt.Errorf("failed to retrieve file from request, use the 'file' field: %w", err)
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return "", "", nil, fmt.Errorf("failed to read file: %w", err)
		}
		return header.Filename, header.Header.Get("Content-Type"), data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to read request body: %w", err)
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = string(kind) + ".csv"
	}
	return name, mediaType, data, nil
}

// GetBatch returns the current batch for the kind
func (h *ImportHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, h.importSvc.Batch(ownerID, kind))
}

// ResetBatch discards the current batch for the kind
func (h *ImportHandler) ResetBatch(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	if err := h.importSvc.Reset(ownerID, kind); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Commit writes the pending batch to the record store
func (h *ImportHandler) Commit(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}

	result, err := h.importSvc.Commit(r.Context(), ownerID, kind)
	if err != nil {
		var ce *importservice.CommitError
		if errors.As(err, &ce) {
			respond.JSON(w, http.StatusBadGateway, map[string]any{
				"error":    ce.Error(),
				"inserted": ce.Inserted,
			})
			return
		}
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

// Template downloads the example file for a kind, as CSV or with ?format=xlsx
func (h *ImportHandler) Template(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}

	name, data, err := parser.Template(kind)
	contentType := "text/csv"
	if strings.EqualFold(r.URL.Query().Get("format"), "xlsx") {
		name, data, err = parser.TemplateXLSX(kind)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		h.logger.Error("failed to build template", "kind", kind, slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "failed to build template")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	_, _ = w.Write(data)
}

// ListUploads lists the archived uploads of the owner
func (h *ImportHandler) ListUploads(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.files == nil {
		respond.JSON(w, http.StatusOK, []*storage.FileInfo{})
		return
	}

	files, err := h.files.List(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("failed to list uploads", "owner_id", ownerID, slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "failed to list uploads")
		return
	}
	respond.JSON(w, http.StatusOK, files)
}

// DownloadUpload streams an archived upload back
func (h *ImportHandler) DownloadUpload(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	fileID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil || h.files == nil {
		respond.Error(w, http.StatusNotFound, "file not found")
		return
	}

	rc, info, err := h.files.Open(r.Context(), ownerID, fileID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "file not found")
			return
		}
		h.logger.Error("failed to open upload", "owner_id", ownerID, "file_id", fileID, slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "failed to open file")
		return
	}
	defer rc.Close()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.Name}))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream upload", "file_id", fileID, slog.Any("error", err))
	}
}

func (h *ImportHandler) writeError(w http.ResponseWriter, err error) {
	var pe *parser.ParseError
	switch {
	case errors.As(err, &pe):
		respond.Error(w, http.StatusBadRequest, pe.Error())
	case errors.Is(err, records.ErrUnknownKind):
		respond.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, importservice.ErrNotCommittable), errors.Is(err, importservice.ErrCommitInProgress):
		respond.Error(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("import request failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
