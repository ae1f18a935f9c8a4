package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/BerylCAtieno/twin-documents/internal/analyzer"
	"github.com/BerylCAtieno/twin-documents/internal/classifier"
	"github.com/BerylCAtieno/twin-documents/internal/extractor"
	"github.com/BerylCAtieno/twin-documents/internal/models"
	"github.com/BerylCAtieno/twin-documents/internal/repository"
	"github.com/BerylCAtieno/twin-documents/internal/storage"
	"github.com/BerylCAtieno/twin-documents/internal/tabular"
	"github.com/BerylCAtieno/twin-documents/internal/utils"
)

type DocumentService interface {
	UploadDocument(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error)
	ListDocuments(ctx context.Context, twinID string, filter models.ListFilter) (*models.ListResponse, error)
	GetDocument(ctx context.Context, twinID, filename string) (*models.Document, error)
	DeleteDocument(ctx context.Context, twinID, filename string) (*models.DeleteResponse, error)
	GetStructuredContent(ctx context.Context, twinID, filename string) (*models.StructuredContent, error)
	QueryTable(ctx context.Context, twinID, filename string, state tabular.State) (*models.TableResponse, error)
	ExportTable(ctx context.Context, twinID, filename string, state tabular.State, format models.ExportFormat) (*models.ExportResult, error)
	AnalyzeDocument(ctx context.Context, twinID, filename string) (*models.AnalysisResponse, error)
	ChatWithDocument(ctx context.Context, twinID, filename, question string) (*models.ChatResponse, error)
}

type documentService struct {
	repo     repository.Repository
	storage  storage.Storage
	analyzer analyzer.Analyzer
	logger   *utils.Logger
	now      func() time.Time
}

func NewService(repo repository.Repository, store storage.Storage, llm analyzer.Analyzer, logger *utils.Logger) DocumentService {
	return &documentService{
		repo:     repo,
		storage:  store,
		analyzer: llm,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *documentService) UploadDocument(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error) {
	twinID := strings.TrimSpace(req.TwinID)
	if twinID == "" {
		return nil, utils.NewBadRequestError("Twin ID is required")
	}

	filename := cleanFilename(req.Filename)
	if filename == "" {
		return nil, utils.NewBadRequestError("Filename is required")
	}

	if !extractor.Supported(req.ContentType) {
		s.logger.Warn("Unsupported content type", "content_type", req.ContentType, "filename", filename)
		return nil, utils.NewBadRequestError(fmt.Sprintf("Unsupported file type '%s'. Allowed: PDF, DOCX, TXT, CSV, JSON, XML", req.ContentType))
	}

	extracted, err := extractor.Extract(req.ContentType, req.File)
	if err != nil {
		s.logger.Warn("Failed to extract text", "error", err, "content_type", req.ContentType, "filename", filename)
		return nil, utils.NewBadRequestError(fmt.Sprintf("Could not read document: %v", err))
	}
	if strings.TrimSpace(extracted.Text) == "" {
		return nil, utils.NewBadRequestError("No text could be extracted from the document. The file may be empty or corrupted")
	}

	labels := classifier.Classify(classifier.Input{
		Filename:       filename,
		HasInvoiceData: extracted.HasInvoiceData,
	}, classifier.Fallback(filename, extracted.Structured))

	existing, err := s.repo.GetByFilename(ctx, twinID, filename)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("Failed to look up document", "error", err, "twin_id", twinID, "filename", filename)
		return nil, utils.NewInternalError("Failed to retrieve document")
	}

	docID := utils.GenerateID()
	blobKey := storage.BlobKey(twinID, docID, filename)
	if err := s.storage.Upload(ctx, blobKey, req.File, req.ContentType); err != nil {
		s.logger.Error("Failed to upload blob", "error", err, "blob_key", blobKey)
		return nil, utils.NewInternalError("Failed to store document")
	}

	now := s.now()
	doc := &models.Document{
		ID:            docID,
		TwinID:        twinID,
		Filename:      filename,
		FileSize:      int64(len(req.File)),
		ContentType:   req.ContentType,
		BlobKey:       blobKey,
		DocumentType:  labels.DocumentType,
		StructureType: labels.StructureType,
		SubCategory:   labels.SubCategory,
		ExtractedText: extracted.Text,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if existing != nil {
		err = s.repo.Replace(ctx, existing.ID, doc)
	} else {
		err = s.repo.Create(ctx, doc)
	}
	if err != nil {
		s.logger.Error("Failed to save document metadata", "error", err, "doc_id", docID)
		_ = s.storage.Delete(ctx, blobKey)
		return nil, utils.NewInternalError("Failed to save document metadata")
	}

	if existing != nil {
		if err := s.storage.Delete(ctx, existing.BlobKey); err != nil {
			s.logger.Warn("Failed to delete replaced blob", "error", err, "blob_key", existing.BlobKey)
		}
	}

	s.logger.Info("Document uploaded",
		"id", docID,
		"twin_id", twinID,
		"filename", filename,
		"content_type", req.ContentType,
		"document_type", labels.DocumentType,
		"replaced", existing != nil,
		"text_length", len(extracted.Text))

	return &models.UploadResponse{
		ID:            docID,
		TwinID:        twinID,
		Filename:      filename,
		FileSize:      doc.FileSize,
		ContentType:   doc.ContentType,
		DocumentType:  doc.DocumentType,
		StructureType: doc.StructureType,
		SubCategory:   doc.SubCategory,
		Replaced:      existing != nil,
		CreatedAt:     now,
		Message:       "Document uploaded successfully",
	}, nil
}

func (s *documentService) ListDocuments(ctx context.Context, twinID string, filter models.ListFilter) (*models.ListResponse, error) {
	docs, err := s.repo.List(ctx, twinID, filter)
	if err != nil {
		s.logger.Error("Failed to list documents", "error", err, "twin_id", twinID)
		return nil, utils.NewInternalError("Failed to list documents")
	}

	summaries := make([]models.DocumentSummary, 0, len(docs))
	for _, d := range docs {
		summaries = append(summaries, models.DocumentSummary{
			ID:            d.ID,
			Filename:      d.Filename,
			FileSize:      d.FileSize,
			ContentType:   d.ContentType,
			DocumentType:  d.DocumentType,
			StructureType: d.StructureType,
			SubCategory:   d.SubCategory,
			Analyzed:      d.AnalyzedAt != nil,
			CreatedAt:     d.CreatedAt,
		})
	}

	return &models.ListResponse{
		TwinID:    twinID,
		Documents: summaries,
		Total:     len(summaries),
	}, nil
}

func (s *documentService) GetDocument(ctx context.Context, twinID, filename string) (*models.Document, error) {
	doc, err := s.repo.GetByFilename(ctx, twinID, filename)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, utils.NewNotFoundError("Document not found")
	}
	if err != nil {
		s.logger.Error("Failed to get document", "error", err, "twin_id", twinID, "filename", filename)
		return nil, utils.NewInternalError("Failed to retrieve document")
	}

	return doc, nil
}

func (s *documentService) DeleteDocument(ctx context.Context, twinID, filename string) (*models.DeleteResponse, error) {
	doc, err := s.GetDocument(ctx, twinID, filename)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, doc.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.NewNotFoundError("Document not found")
		}
		s.logger.Error("Failed to delete document", "error", err, "id", doc.ID)
		return nil, utils.NewInternalError("Failed to delete document")
	}

	// Metadata is authoritative; an orphaned blob is only logged.
	if err := s.storage.Delete(ctx, doc.BlobKey); err != nil {
		s.logger.Warn("Failed to delete blob", "error", err, "blob_key", doc.BlobKey)
	}

	s.logger.Info("Document deleted", "id", doc.ID, "twin_id", twinID, "filename", filename)

	return &models.DeleteResponse{Filename: doc.Filename, Deleted: true}, nil
}

func (s *documentService) GetStructuredContent(ctx context.Context, twinID, filename string) (*models.StructuredContent, error) {
	doc, err := s.GetDocument(ctx, twinID, filename)
	if err != nil {
		return nil, err
	}

	content, err := s.structuredText(ctx, doc)
	if err != nil {
		return nil, err
	}

	return &models.StructuredContent{
		Success:     true,
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		Content:     content,
	}, nil
}

// structuredText reads the blob and falls back to the text stored at
// upload time when object storage is unreachable.
func (s *documentService) structuredText(ctx context.Context, doc *models.Document) (string, error) {
	if doc.StructureType != "structured" && !isStructuredContentType(doc.ContentType) {
		return "", utils.NewBadRequestError("Document is not a structured document")
	}

	data, err := s.storage.Download(ctx, doc.BlobKey)
	if err == nil {
		res, extractErr := extractor.Extract(doc.ContentType, data)
		if extractErr == nil {
			return res.Text, nil
		}
		err = extractErr
	}

	if doc.ExtractedText != "" {
		s.logger.Warn("Serving stored text for structured document", "error", err, "id", doc.ID)
		return doc.ExtractedText, nil
	}

	s.logger.Error("Failed to load structured content", "error", err, "id", doc.ID)
	return "", utils.NewUnavailableError("Document content is temporarily unavailable")
}

func (s *documentService) loadTable(ctx context.Context, twinID, filename string) (*models.Document, *tabular.Table, error) {
	doc, err := s.GetDocument(ctx, twinID, filename)
	if err != nil {
		return nil, nil, err
	}
	if !doc.IsTabular() {
		return nil, nil, utils.NewBadRequestError("Document is not a CSV table")
	}

	content, err := s.structuredText(ctx, doc)
	if err != nil {
		return nil, nil, err
	}

	return doc, tabular.Parse(content), nil
}

func (s *documentService) QueryTable(ctx context.Context, twinID, filename string, state tabular.State) (*models.TableResponse, error) {
	doc, table, err := s.loadTable(ctx, twinID, filename)
	if err != nil {
		return nil, err
	}

	view := tabular.NewView(table, state)
	page := view.Result()
	st := view.State()

	return &models.TableResponse{
		Filename: doc.Filename,
		Headers:  table.Headers,
		Rows:     page.Rows,
		Page:     page.CurrentPage,
		Pages:    page.TotalPages,
		Total:    page.TotalRows,
		PerPage:  page.RowsPerPage,
		Search:   st.Search,
		Filters:  st.Filters,
		Sort:     st.Sort,
	}, nil
}

func (s *documentService) ExportTable(ctx context.Context, twinID, filename string, state tabular.State, format models.ExportFormat) (*models.ExportResult, error) {
	doc, table, err := s.loadTable(ctx, twinID, filename)
	if err != nil {
		return nil, err
	}

	rows := tabular.NewView(table, state).Filtered()
	base := strings.TrimSuffix(doc.Filename, filepath.Ext(doc.Filename))

	switch format {
	case models.ExportCSV, "":
		return &models.ExportResult{
			Filename:    base + "-filtered.csv",
			ContentType: models.ContentTypeCSV,
			Data:        []byte(tabular.ExportCSV(table.Headers, rows)),
		}, nil
	case models.ExportXLSX:
		data, err := tabular.ExportXLSX(table.Headers, rows)
		if err != nil {
			s.logger.Error("Failed to build workbook", "error", err, "id", doc.ID)
			return nil, utils.NewInternalError("Failed to export table")
		}
		return &models.ExportResult{
			Filename:    base + "-filtered.xlsx",
			ContentType: models.ContentTypeXLSX,
			Data:        data,
		}, nil
	default:
		return nil, utils.NewBadRequestError(fmt.Sprintf("Unsupported export format '%s'", format))
	}
}

func (s *documentService) AnalyzeDocument(ctx context.Context, twinID, filename string) (*models.AnalysisResponse, error) {
	doc, err := s.GetDocument(ctx, twinID, filename)
	if err != nil {
		return nil, err
	}

	if doc.AnalyzedAt != nil && doc.Summary != nil {
		s.logger.Info("Document already analyzed, returning cached results", "id", doc.ID)
		analysisType := ""
		if doc.AnalysisType != nil {
			analysisType = *doc.AnalysisType
		}
		return &models.AnalysisResponse{
			ID:           doc.ID,
			Summary:      *doc.Summary,
			DocumentType: analysisType,
			Metadata:     doc.Metadata,
			AnalyzedAt:   *doc.AnalyzedAt,
		}, nil
	}

	s.logger.Info("Starting document analysis", "id", doc.ID, "text_length", len(doc.ExtractedText))
	result, err := s.analyzer.Analyze(ctx, doc.ExtractedText)
	if err != nil {
		s.logger.Error("Failed to analyze document", "error", err, "id", doc.ID)
		return nil, utils.NewInternalError("Failed to analyze document with LLM")
	}

	if err := s.repo.UpdateAnalysis(ctx, doc.ID, result.Summary, result.DocumentType, result.Metadata); err != nil {
		s.logger.Error("Failed to update analysis", "error", err, "id", doc.ID)
		return nil, utils.NewInternalError("Failed to save analysis results")
	}

	s.logger.Info("Document analyzed",
		"id", doc.ID,
		"type", result.DocumentType,
		"summary_length", len(result.Summary))

	return &models.AnalysisResponse{
		ID:           doc.ID,
		Summary:      result.Summary,
		DocumentType: result.DocumentType,
		Metadata:     result.Metadata,
		AnalyzedAt:   s.now(),
	}, nil
}

func (s *documentService) ChatWithDocument(ctx context.Context, twinID, filename, question string) (*models.ChatResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, utils.NewBadRequestError("Question is required")
	}

	doc, err := s.GetDocument(ctx, twinID, filename)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.ExtractedText) == "" {
		return nil, utils.NewBadRequestError("Document has no text to chat about")
	}

	answer, err := s.analyzer.Chat(ctx, doc.ExtractedText, question)
	if err != nil {
		s.logger.Error("Failed to chat with document", "error", err, "id", doc.ID)
		return nil, utils.NewInternalError("Failed to get an answer from the LLM")
	}

	return &models.ChatResponse{
		Filename: doc.Filename,
		Question: question,
		Answer:   answer,
		AskedAt:  s.now(),
	}, nil
}

// cleanFilename drops any directory part a client may have sent.
func cleanFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

func isStructuredContentType(contentType string) bool {
	switch contentType {
	case models.ContentTypeCSV, models.ContentTypeJSON, models.ContentTypeXML:
		return true
	default:
		return false
	}
}
