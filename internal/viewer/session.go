// Package viewer drives the table view of a single structured document:
// it loads the CSV once and keeps the user's search, filters, sort and page.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/BerylCAtieno/twin-documents/internal/models"
	"github.com/BerylCAtieno/twin-documents/internal/tabular"
	"github.com/BerylCAtieno/twin-documents/internal/utils"
)

type Status int

const (
	StateIdle Status = iota
	StateReady
	StateNoResults
	StateFailed
)

func (s Status) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateNoResults:
		return "no_results"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ErrNotLoaded is returned by operations that need a loaded table.
var ErrNotLoaded = errors.New("viewer: document not loaded")

// ContentSource fetches raw document text. *client.Client satisfies it.
type ContentSource interface {
	GetStructuredDocumentContent(ctx context.Context, twinID, filename string) (*models.StructuredContent, error)
}

type Session struct {
	source   ContentSource
	twinID   string
	filename string
	logger   *utils.Logger

	mu      sync.Mutex
	initial tabular.State
	view    *tabular.View
	loadErr error
}

// NewSession prepares a session; nothing is fetched until Load.
func NewSession(source ContentSource, twinID, filename string, initial tabular.State, logger *utils.Logger) *Session {
	if logger == nil {
		logger = utils.NopLogger()
	}
	return &Session{
		source:   source,
		twinID:   twinID,
		filename: filename,
		logger:   logger,
		initial:  initial,
	}
}

func (s *Session) Filename() string { return s.filename }

// Load fetches and parses the document. On failure no table is kept, so
// a failed session never shows stale or partial rows.
func (s *Session) Load(ctx context.Context) error {
	content, err := s.source.GetStructuredDocumentContent(ctx, s.twinID, s.filename)
	if err == nil && (content == nil || !content.Success) {
		msg := "request was not successful"
		if content != nil && content.Error != "" {
			msg = content.Error
		}
		err = errors.New(msg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.logger.Warn("Failed to load document content", "twin_id", s.twinID, "filename", s.filename, "error", err)
		if s.view != nil {
			s.initial = s.view.State()
		}
		s.view = nil
		s.loadErr = fmt.Errorf("load %s: %w", s.filename, err)
		return s.loadErr
	}

	st := s.initial
	if s.view != nil {
		st = s.view.State()
	}
	table := tabular.Parse(content.Content)
	s.view = tabular.NewView(table, st)
	s.loadErr = nil

	s.logger.Debug("Document loaded", "filename", s.filename, "columns", len(table.Headers), "rows", len(table.Rows))
	return nil
}

// Retry reloads the document keeping the current view settings.
func (s *Session) Retry(ctx context.Context) error {
	return s.Load(ctx)
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.loadErr != nil:
		return StateFailed
	case s.view == nil:
		return StateIdle
	case len(s.view.Filtered()) == 0:
		return StateNoResults
	default:
		return StateReady
	}
}

// Err is the last load error, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Update applies fn to the loaded view under the session lock.
func (s *Session) Update(fn func(v *tabular.View)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view == nil {
		return ErrNotLoaded
	}
	fn(s.view)
	return nil
}

// Page returns the visible page together with the headers.
func (s *Session) Page() ([]string, tabular.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view == nil {
		return nil, tabular.Page{}, ErrNotLoaded
	}
	return s.view.Table().Headers, s.view.Result(), nil
}

// Export renders every row of the current filtered and sorted view.
func (s *Session) Export(format models.ExportFormat) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view == nil {
		return nil, ErrNotLoaded
	}

	headers := s.view.Table().Headers
	rows := s.view.Filtered()
	switch format {
	case models.ExportCSV, "":
		return []byte(tabular.ExportCSV(headers, rows)), nil
	case models.ExportXLSX:
		return tabular.ExportXLSX(headers, rows)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
