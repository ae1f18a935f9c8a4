package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/BerylCAtieno/twin-documents/internal/models"
	"github.com/BerylCAtieno/twin-documents/internal/services"
	"github.com/BerylCAtieno/twin-documents/internal/tabular"
	"github.com/BerylCAtieno/twin-documents/internal/utils"
	"github.com/gorilla/mux"
)

const (
	DefaultMaxFileSize = 5 << 20 // 5MB
	maxChatBodySize    = 64 << 10
)

// Recorder receives domain events for metrics. A nil Recorder is allowed.
type Recorder interface {
	RecordUpload(documentType, structureType string, size int64)
	RecordTableQuery(search, filtered, sorted bool, matched int)
	RecordExport(format string)
}

type Options struct {
	MaxFileSize        int64
	DefaultRowsPerPage int
	MaxRowsPerPage     int
	Recorder           Recorder
}

type DocumentHandler struct {
	service services.DocumentService
	logger  *utils.Logger
	opts    Options
}

func NewDocumentHandler(service services.DocumentService, logger *utils.Logger, opts Options) *DocumentHandler {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.DefaultRowsPerPage <= 0 {
		opts.DefaultRowsPerPage = tabular.DefaultRowsPerPage
	}
	if opts.MaxRowsPerPage < opts.DefaultRowsPerPage {
		opts.MaxRowsPerPage = opts.DefaultRowsPerPage
	}
	return &DocumentHandler{
		service: service,
		logger:  logger,
		opts:    opts,
	}
}

func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	limit := h.opts.MaxFileSize
	sizeMessage := fmt.Sprintf("File size exceeds %dMB limit", limit>>20)

	// Reject oversized requests before reading the body.
	if r.ContentLength > limit {
		h.respondError(w, utils.NewBadRequestError(sizeMessage))
		return
	}

	// Leave headroom for the multipart envelope.
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, utils.NewBadRequestError(sizeMessage))
			return
		}
		h.respondError(w, utils.NewBadRequestError("Invalid form data"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, utils.NewBadRequestError("No file provided"))
		return
	}
	defer file.Close()

	contentType := determineContentType(header.Filename, header.Header.Get("Content-Type"))

	h.logger.Info("File upload attempt",
		"twin_id", mux.Vars(r)["twinId"],
		"filename", header.Filename,
		"reported_content_type", header.Header.Get("Content-Type"),
		"determined_content_type", contentType)

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		h.respondError(w, utils.NewInternalError("Failed to read file"))
		return
	}
	if int64(len(data)) > limit {
		h.respondError(w, utils.NewBadRequestError(sizeMessage))
		return
	}
	if len(data) == 0 {
		h.respondError(w, utils.NewBadRequestError("Uploaded file is empty"))
		return
	}

	resp, err := h.service.UploadDocument(r.Context(), &models.UploadRequest{
		TwinID:      mux.Vars(r)["twinId"],
		File:        data,
		Filename:    header.Filename,
		ContentType: contentType,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	if h.opts.Recorder != nil {
		h.opts.Recorder.RecordUpload(resp.DocumentType, resp.StructureType, resp.FileSize)
	}

	status := http.StatusCreated
	if resp.Replaced {
		status = http.StatusOK
	}
	h.respondJSON(w, status, resp)
}

func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.service.ListDocuments(r.Context(), mux.Vars(r)["twinId"], models.ListFilter{
		DocumentType:  strings.TrimSpace(q.Get("document_type")),
		StructureType: strings.TrimSpace(q.Get("structure_type")),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	doc, err := h.service.GetDocument(r.Context(), vars["twinId"], vars["filename"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	resp, err := h.service.DeleteDocument(r.Context(), vars["twinId"], vars["filename"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) GetStructuredContent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	resp, err := h.service.GetStructuredContent(r.Context(), vars["twinId"], vars["filename"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) QueryTable(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	state, err := parseTableState(r.URL.Query(), h.opts.DefaultRowsPerPage, h.opts.MaxRowsPerPage)
	if err != nil {
		h.respondError(w, err)
		return
	}

	resp, err := h.service.QueryTable(r.Context(), vars["twinId"], vars["filename"], state)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if h.opts.Recorder != nil {
		h.opts.Recorder.RecordTableQuery(state.Search != "", state.Filters.Active(), state.Sort != nil, resp.Total)
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) ExportTable(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	q := r.URL.Query()

	state, err := parseTableState(q, h.opts.DefaultRowsPerPage, h.opts.MaxRowsPerPage)
	if err != nil {
		h.respondError(w, err)
		return
	}
	format := models.ExportFormat(strings.ToLower(strings.TrimSpace(q.Get("format"))))

	result, err := h.service.ExportTable(r.Context(), vars["twinId"], vars["filename"], state, format)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if h.opts.Recorder != nil {
		h.opts.Recorder.RecordExport(string(format))
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		h.logger.Warn("Failed to write export", "error", err)
	}
}

func (h *DocumentHandler) AnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	resp, err := h.service.AnalyzeDocument(r.Context(), vars["twinId"], vars["filename"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) ChatWithDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req models.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodySize)).Decode(&req); err != nil {
		h.respondError(w, utils.NewBadRequestError("Invalid JSON body"))
		return
	}

	resp, err := h.service.ChatWithDocument(r.Context(), vars["twinId"], vars["filename"], req.Question)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// determineContentType prefers the file extension and falls back to the
// part's Content-Type header.
func determineContentType(filename, headerContentType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return models.ContentTypePDF
	case ".docx":
		return models.ContentTypeDOCX
	case ".txt":
		return models.ContentTypeTXT
	case ".csv":
		return models.ContentTypeCSV
	case ".json":
		return models.ContentTypeJSON
	case ".xml":
		return models.ContentTypeXML
	}

	mediaType, _, err := mime.ParseMediaType(headerContentType)
	if err != nil {
		return headerContentType
	}
	if canonical, ok := contentTypeAliases[mediaType]; ok {
		return canonical
	}
	return mediaType
}

// Some browsers send these variants.
var contentTypeAliases = map[string]string{
	"application/vnd.openxmlformats-officedocument.wordprocessingml": models.ContentTypeDOCX,
	"text/txt":          models.ContentTypeTXT,
	"application/txt":   models.ContentTypeTXT,
	"application/x-txt": models.ContentTypeTXT,
	"application/csv":   models.ContentTypeCSV,
	"text/x-csv":        models.ContentTypeCSV,
	"text/json":         models.ContentTypeJSON,
	"text/xml":          models.ContentTypeXML,
}

func (h *DocumentHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *DocumentHandler) respondError(w http.ResponseWriter, err error) {
	status, message := utils.StatusOf(err)

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request error", "status", status, "error", err)
	} else {
		h.logger.Warn("Request error", "status", status, "error", message)
	}

	h.respondJSON(w, status, map[string]string{"error": message})
}
