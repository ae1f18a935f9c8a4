// Package client talks to the document service's REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/BerylCAtieno/twin-documents/internal/models"
	"github.com/BerylCAtieno/twin-documents/internal/resilience"
	"github.com/BerylCAtieno/twin-documents/internal/utils"
)

const maxErrorBody = 2048

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
	resCfg     resilience.Config
	limiter    *rate.Limiter
	logger     *utils.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithResilience(cfg resilience.Config) Option {
	return func(c *Client) { c.resCfg = cfg }
}

// WithRateLimit throttles outgoing requests. rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

func WithLogger(logger *utils.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		resCfg:     resilience.DefaultConfig(),
		limiter:    rate.NewLimiter(rate.Limit(10), 20),
		logger:     utils.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.executor = resilience.NewExecutor(c.resCfg, c.logger)
	return c
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var statusErr *resilience.HTTPStatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

func documentsPath(twinID string) string {
	return "/api/v1/twins/" + url.PathEscape(twinID) + "/documents"
}

func documentPath(twinID, filename string) string {
	return documentsPath(twinID) + "/" + url.PathEscape(filename)
}

func (c *Client) ListDocuments(ctx context.Context, twinID string, filter models.ListFilter) (*models.ListResponse, error) {
	q := url.Values{}
	if filter.DocumentType != "" {
		q.Set("document_type", filter.DocumentType)
	}
	if filter.StructureType != "" {
		q.Set("structure_type", filter.StructureType)
	}
	path := documentsPath(twinID)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out models.ListResponse
	if err := c.doJSON(ctx, "list_documents", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDocument(ctx context.Context, twinID, filename string) (*models.Document, error) {
	var out models.Document
	if err := c.doJSON(ctx, "get_document", http.MethodGet, documentPath(twinID, filename), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, twinID, filename string) (*models.DeleteResponse, error) {
	var out models.DeleteResponse
	if err := c.doJSON(ctx, "delete_document", http.MethodDelete, documentPath(twinID, filename), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStructuredDocumentContent fetches the raw text of a CSV, JSON or XML
// document.
func (c *Client) GetStructuredDocumentContent(ctx context.Context, twinID, filename string) (*models.StructuredContent, error) {
	var out models.StructuredContent
	if err := c.doJSON(ctx, "get_structured_content", http.MethodGet, documentPath(twinID, filename)+"/content", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AnalyzeDocument(ctx context.Context, twinID, filename string) (*models.AnalysisResponse, error) {
	var out models.AnalysisResponse
	if err := c.doJSON(ctx, "analyze_document", http.MethodPost, documentPath(twinID, filename)+"/analyze", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChatWithDocument(ctx context.Context, twinID, filename, question string) (*models.ChatResponse, error) {
	payload, err := json.Marshal(models.ChatRequest{Question: question})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	var out models.ChatResponse
	body := func() (io.Reader, string, error) {
		return bytes.NewReader(payload), "application/json", nil
	}
	if err := c.doJSON(ctx, "chat_with_document", http.MethodPost, documentPath(twinID, filename)+"/chat", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UploadDocument(ctx context.Context, twinID, filename string, data []byte) (*models.UploadResponse, error) {
	body := func() (io.Reader, string, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", err
		}
		if err := mw.Close(); err != nil {
			return nil, "", err
		}
		return &buf, mw.FormDataContentType(), nil
	}

	var out models.UploadResponse
	if err := c.doJSON(ctx, "upload_document", http.MethodPost, documentsPath(twinID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// bodyFunc builds a fresh request body for every attempt.
type bodyFunc func() (io.Reader, string, error)

func (c *Client) doJSON(ctx context.Context, operation, method, path string, body bodyFunc, out any) error {
	return c.executor.Execute(ctx, operation, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		var (
			reader      io.Reader
			contentType string
		)
		if body != nil {
			var err error
			if reader, contentType, err = body(); err != nil {
				return fmt.Errorf("build %s request: %w", operation, err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s request: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return statusError(operation, resp)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
		return nil
	}, resilience.ClassifyHTTPError)
}

func statusError(operation string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		message = payload.Error
	}

	return &resilience.HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}
