package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BerylCAtieno/twin-documents/internal/models"
	"github.com/BerylCAtieno/twin-documents/internal/resilience"
	"github.com/BerylCAtieno/twin-documents/internal/utils"
)

const (
	maxAnalysisChars = 4000
	maxChatChars     = 12000
)

type Analyzer interface {
	Analyze(ctx context.Context, text string) (*models.LLMAnalysisResult, error)
	Chat(ctx context.Context, documentText, question string) (string, error)
}

type openRouterAnalyzer struct {
	apiKey   string
	model    string
	baseURL  string
	logger   *utils.Logger
	client   *http.Client
	executor *resilience.Executor
}

type Option func(*openRouterAnalyzer)

// WithExecutor replaces the default retry and circuit breaker policy.
func WithExecutor(exec *resilience.Executor) Option {
	return func(a *openRouterAnalyzer) { a.executor = exec }
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

func NewOpenRouterAnalyzer(apiKey, model, baseURL string, logger *utils.Logger, opts ...Option) Analyzer {
	a := &openRouterAnalyzer{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.executor == nil {
		a.executor = resilience.NewExecutor(resilience.DefaultConfig(), logger)
	}
	return a
}

func (a *openRouterAnalyzer) Analyze(ctx context.Context, text string) (*models.LLMAnalysisResult, error) {
	prompt := fmt.Sprintf(`Analyze the following document and provide a structured response in JSON format only.

Document text:
%s

Respond ONLY with a valid JSON object (no markdown, no code blocks) with the following structure:
{
  "summary": "A concise 2-3 sentence summary of the document",
  "document_type": "The type of document (invoice, contract, report, statement, letter, memo, dataset, etc.)",
  "metadata": {
    "date": "Extracted date if found (format: YYYY-MM-DD) or null",
    "sender": "Sender name if found or null",
    "recipient": "Recipient name if found or null",
    "amount": "Total amount if invoice/financial document or null",
    "currency": "Currency code if amount found or null",
    "company": "Company name if found or null"
  }
}`, truncate(text, maxAnalysisChars))

	content, err := a.complete(ctx, []message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, err
	}

	var result models.LLMAnalysisResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		content = extractJSON(content)
		if err := json.Unmarshal([]byte(content), &result); err != nil {
			a.logger.Error("Failed to parse LLM response", "content", content)
			return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
		}
	}

	return &result, nil
}

func (a *openRouterAnalyzer) Chat(ctx context.Context, documentText, question string) (string, error) {
	system := "You answer questions about a single document belonging to the user's digital twin. " +
		"Use only the document content below. If the answer is not in the document, say so.\n\nDocument:\n" +
		truncate(documentText, maxChatChars)

	answer, err := a.complete(ctx, []message{
		{Role: "system", Content: system},
		{Role: "user", Content: question},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func (a *openRouterAnalyzer) complete(ctx context.Context, messages []message) (string, error) {
	jsonData, err := json.Marshal(chatRequest{Model: a.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var content string
	err = a.executor.Execute(ctx, "openrouter_chat_completion", func(ctx context.Context) error {
		var callErr error
		content, callErr = a.post(ctx, jsonData)
		return callErr
	}, resilience.ClassifyHTTPError)
	return content, err
}

func (a *openRouterAnalyzer) post(ctx context.Context, jsonData []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		a.logger.Error("OpenRouter API error", "status", resp.StatusCode, "body", string(body))
		return "", &resilience.HTTPStatusError{
			Operation:  "OpenRouter API",
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body), 200),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("OpenRouter API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return parsed.Choices[0].Message.Content, nil
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

// extractJSON strips a surrounding markdown code fence, if any.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	if nl := strings.Index(content, "\n"); nl >= 0 {
		content = content[nl+1:]
	} else {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSpace(content)
	content = strings.TrimSuffix(content, "```")

	return strings.TrimSpace(content)
}
