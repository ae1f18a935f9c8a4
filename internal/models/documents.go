package models

import (
	"time"

	"github.com/BerylCAtieno/twin-documents/internal/tabular"
)

type Document struct {
	ID            string                 `json:"id" db:"id"`
	TwinID        string                 `json:"twin_id" db:"twin_id"`
	Filename      string                 `json:"filename" db:"filename"`
	FileSize      int64                  `json:"file_size" db:"file_size"`
	ContentType   string                 `json:"content_type" db:"content_type"`
	BlobKey       string                 `json:"blob_key" db:"blob_key"`
	DocumentType  string                 `json:"document_type" db:"document_type"`
	StructureType string                 `json:"structure_type" db:"structure_type"`
	SubCategory   string                 `json:"sub_category" db:"sub_category"`
	ExtractedText string                 `json:"extracted_text,omitempty" db:"extracted_text"`
	Summary       *string                `json:"summary,omitempty" db:"summary"`
	AnalysisType  *string                `json:"analysis_type,omitempty" db:"analysis_type"`
	Metadata      map[string]interface{} `json:"metadata,omitempty" db:"-"`
	CreatedAt     time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at" db:"updated_at"`
	AnalyzedAt    *time.Time             `json:"analyzed_at,omitempty" db:"analyzed_at"`
}

// IsTabular reports whether the document can be opened in a table view.
func (d *Document) IsTabular() bool {
	return d.ContentType == ContentTypeCSV
}

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeTXT  = "text/plain"
	ContentTypeCSV  = "text/csv"
	ContentTypeJSON = "application/json"
	ContentTypeXML  = "application/xml"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type DocumentSummary struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	FileSize      int64     `json:"file_size"`
	ContentType   string    `json:"content_type"`
	DocumentType  string    `json:"document_type"`
	StructureType string    `json:"structure_type"`
	SubCategory   string    `json:"sub_category"`
	Analyzed      bool      `json:"analyzed"`
	CreatedAt     time.Time `json:"created_at"`
}

type ListFilter struct {
	DocumentType  string
	StructureType string
}

type ListResponse struct {
	TwinID    string            `json:"twin_id"`
	Documents []DocumentSummary `json:"documents"`
	Total     int               `json:"total"`
}

type UploadRequest struct {
	TwinID      string
	File        []byte
	Filename    string
	ContentType string
}

type UploadResponse struct {
	ID            string    `json:"id"`
	TwinID        string    `json:"twin_id"`
	Filename      string    `json:"filename"`
	FileSize      int64     `json:"file_size"`
	ContentType   string    `json:"content_type"`
	DocumentType  string    `json:"document_type"`
	StructureType string    `json:"structure_type"`
	SubCategory   string    `json:"sub_category"`
	Replaced      bool      `json:"replaced"`
	CreatedAt     time.Time `json:"created_at"`
	Message       string    `json:"message"`
}

// StructuredContent is the raw text of a structured document. Success is
// false only when the document exists but its content could not be read.
type StructuredContent struct {
	Success     bool   `json:"success"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
	Error       string `json:"error,omitempty"`
}

type TableResponse struct {
	Filename string               `json:"filename"`
	Headers  []string             `json:"headers"`
	Rows     []tabular.Row        `json:"rows"`
	Page     int                  `json:"current_page"`
	Pages    int                  `json:"total_pages"`
	Total    int                  `json:"total_rows"`
	PerPage  int                  `json:"rows_per_page"`
	Search   string               `json:"search,omitempty"`
	Filters  tabular.ColumnFilter `json:"filters,omitempty"`
	Sort     *tabular.SortSpec    `json:"sort,omitempty"`
}

type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type AnalysisResponse struct {
	ID           string                 `json:"id"`
	Summary      string                 `json:"summary"`
	DocumentType string                 `json:"document_type"`
	Metadata     map[string]interface{} `json:"metadata"`
	AnalyzedAt   time.Time              `json:"analyzed_at"`
}

type LLMAnalysisResult struct {
	Summary      string                 `json:"summary"`
	DocumentType string                 `json:"document_type"`
	Metadata     map[string]interface{} `json:"metadata"`
}

type ChatRequest struct {
	Question string `json:"question"`
}

type ChatResponse struct {
	Filename string    `json:"filename"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}

type DeleteResponse struct {
	Filename string `json:"filename"`
	Deleted  bool   `json:"deleted"`
}
