package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	status, msg := StatusOf(NewNotFoundError("Document not found"))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Document not found", msg)

	wrapped := fmt.Errorf("handler: %w", NewBadRequestError("bad"))
	status, msg = StatusOf(wrapped)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bad", msg)

	status, msg = StatusOf(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", msg)
}

func TestWrapInternalKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapInternal("Failed to store document", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to store document: disk full", err.Error())

	_, msg := StatusOf(err)
	assert.Equal(t, "Failed to store document", msg)
}

func TestGenerateID(t *testing.T) {
	id := GenerateID()

	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, GenerateID())
}

func TestLoggerLevelAndService(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "twin-documents", "WARNING")

	logger.Info("hidden")
	logger.Warn("shown", "doc_id", "d1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "shown", record["msg"])
	assert.Equal(t, "twin-documents", record["service"])
	assert.Equal(t, "d1", record["doc_id"])
}
