package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BerylCAtieno/twin-documents/internal/models"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when no document matches.
var ErrNotFound = errors.New("document not found")

type Repository interface {
	Create(ctx context.Context, doc *models.Document) error
	Replace(ctx context.Context, oldID string, doc *models.Document) error
	GetByFilename(ctx context.Context, twinID, filename string) (*models.Document, error)
	List(ctx context.Context, twinID string, filter models.ListFilter) ([]models.Document, error)
	Delete(ctx context.Context, id string) error
	UpdateAnalysis(ctx context.Context, id, summary, docType string, metadata map[string]interface{}) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// documentRow adds the raw metadata column, stored as JSON text.
type documentRow struct {
	models.Document
	MetadataJSON sql.NullString `db:"metadata"`
}

func (r documentRow) toDocument() (*models.Document, error) {
	doc := r.Document
	if r.MetadataJSON.Valid && r.MetadataJSON.String != "" {
		if err := json.Unmarshal([]byte(r.MetadataJSON.String), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for %s: %w", doc.ID, err)
		}
	}
	return &doc, nil
}

const selectColumns = `id, twin_id, filename, file_size, content_type, blob_key,
	document_type, structure_type, sub_category, extracted_text,
	summary, analysis_type, metadata, created_at, updated_at, analyzed_at`

const insertQuery = `
	INSERT INTO documents (id, twin_id, filename, file_size, content_type, blob_key,
		document_type, structure_type, sub_category, extracted_text, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertDocument(ctx context.Context, ex execer, doc *models.Document) error {
	_, err := ex.ExecContext(ctx, insertQuery,
		doc.ID,
		doc.TwinID,
		doc.Filename,
		doc.FileSize,
		doc.ContentType,
		doc.BlobKey,
		doc.DocumentType,
		doc.StructureType,
		doc.SubCategory,
		doc.ExtractedText,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

func (r *repository) Create(ctx context.Context, doc *models.Document) error {
	return insertDocument(ctx, r.db, doc)
}

// Replace swaps the document oldID for doc in one transaction.
func (r *repository) Replace(ctx context.Context, oldID string, doc *models.Document) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, oldID); err != nil {
		return fmt.Errorf("failed to delete previous document: %w", err)
	}
	if err := insertDocument(ctx, tx, doc); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	return tx.Commit()
}

func (r *repository) GetByFilename(ctx context.Context, twinID, filename string) (*models.Document, error) {
	var row documentRow

	query := `SELECT ` + selectColumns + `
		FROM documents
		WHERE twin_id = ? AND filename = ?
	`

	err := r.db.GetContext(ctx, &row, query, twinID, filename)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return row.toDocument()
}

func (r *repository) List(ctx context.Context, twinID string, filter models.ListFilter) ([]models.Document, error) {
	var (
		clauses = []string{"twin_id = ?"}
		args    = []any{twinID}
	)
	if filter.DocumentType != "" {
		clauses = append(clauses, "document_type = ?")
		args = append(args, filter.DocumentType)
	}
	if filter.StructureType != "" {
		clauses = append(clauses, "structure_type = ?")
		args = append(args, filter.StructureType)
	}

	query := `SELECT ` + selectColumns + `
		FROM documents
		WHERE ` + strings.Join(clauses, " AND ") + `
		ORDER BY created_at DESC, filename ASC
	`

	var rows []documentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	docs := make([]models.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.toDocument()
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) UpdateAnalysis(ctx context.Context, id, summary, docType string, metadata map[string]interface{}) error {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE documents
		SET summary = ?, analysis_type = ?, metadata = ?, analyzed_at = ?, updated_at = ?
		WHERE id = ?
	`

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, summary, docType, string(metadataJSON), now, now, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
