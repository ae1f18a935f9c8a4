package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/twin-documents/internal/models"
)

type fakeAPI struct {
	content    *models.StructuredContent
	contentErr error
	uploaded   []byte
	deleted    string
	question   string
}

func (f *fakeAPI) ListDocuments(_ context.Context, twinID string, filter models.ListFilter) (*models.ListResponse, error) {
	docs := []models.DocumentSummary{
		{Filename: "sales.csv", DocumentType: "document", StructureType: "structured", SubCategory: "csv", FileSize: 2048, CreatedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)},
		{Filename: "factura-01.pdf", DocumentType: "factura", StructureType: "semi-structured", SubCategory: "invoice", FileSize: 10, Analyzed: true},
	}
	if filter.DocumentType != "" {
		docs = docs[1:]
	}
	return &models.ListResponse{TwinID: twinID, Documents: docs, Total: len(docs)}, nil
}

func (f *fakeAPI) GetDocument(context.Context, string, string) (*models.Document, error) {
	return &models.Document{}, nil
}

func (f *fakeAPI) DeleteDocument(_ context.Context, _, filename string) (*models.DeleteResponse, error) {
	f.deleted = filename
	return &models.DeleteResponse{Filename: filename, Deleted: true}, nil
}

func (f *fakeAPI) UploadDocument(_ context.Context, _, filename string, data []byte) (*models.UploadResponse, error) {
	f.uploaded = data
	return &models.UploadResponse{Filename: filename, FileSize: int64(len(data)), DocumentType: "document", StructureType: "structured", SubCategory: "csv", Replaced: true}, nil
}

func (f *fakeAPI) GetStructuredDocumentContent(context.Context, string, string) (*models.StructuredContent, error) {
	return f.content, f.contentErr
}

func (f *fakeAPI) ChatWithDocument(_ context.Context, _, _, question string) (*models.ChatResponse, error) {
	f.question = question
	return &models.ChatResponse{Answer: "North sold the most."}, nil
}

const salesCSV = "region,amount,rep\nnorth,120,ana\nsouth,80,bo\nnorth,15,cy\neast,300,di\n"

func run(t *testing.T, api *fakeAPI, args ...string) (string, error) {
	t.Helper()

	documentAPI = api
	viewOpts = viewFlags{page: 1, rows: 10}
	exportFormat, exportOut = "csv", ""
	listDocumentType, listStructureType = "", ""

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		documentAPI = nil
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func csvAPI() *fakeAPI {
	return &fakeAPI{content: &models.StructuredContent{Success: true, Content: salesCSV}}
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"list", "view", "export", "delete", "upload", "chat", "classify"} {
		assert.Contains(t, names, want)
	}
}

func TestViewCmd_RequiresTwoArgs(t *testing.T) {
	_, err := run(t, csvAPI(), "view", "twin-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestViewCmd_RendersPageAndIndicator(t *testing.T) {
	out, err := run(t, csvAPI(), "view", "twin-1", "sales.csv", "--sort", "amount", "--desc", "--rows", "2")

	require.NoError(t, err)
	assert.Contains(t, out, "amount ▼")
	assert.Contains(t, out, "Page 1/2 (4 rows)")
	assert.Less(t, strings.Index(out, "east"), strings.Index(out, "ana"))
	assert.NotContains(t, out, "cy")
}

func TestViewCmd_FiltersByColumnName(t *testing.T) {
	out, err := run(t, csvAPI(), "view", "twin-1", "sales.csv", "--filter", "region=NORTH", "--search", "cy")

	require.NoError(t, err)
	assert.Contains(t, out, "cy")
	assert.NotContains(t, out, "ana")
	assert.Contains(t, out, "Page 1/1 (1 rows)")
}

func TestViewCmd_NoResults(t *testing.T) {
	out, err := run(t, csvAPI(), "view", "twin-1", "sales.csv", "--search", "zzz")

	require.NoError(t, err)
	assert.Contains(t, out, "No rows match the current search and filters.")
	assert.NotContains(t, out, "Page ")
}

func TestViewCmd_LoadFailureSuggestsRetry(t *testing.T) {
	api := &fakeAPI{contentErr: errors.New("service unavailable")}

	_, err := run(t, api, "view", "twin-1", "sales.csv")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry")
}

func TestViewCmd_UnknownColumn(t *testing.T) {
	_, err := run(t, csvAPI(), "view", "twin-1", "sales.csv", "--sort", "price")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown column "price"`)
}

func TestExportCmd_WritesFilteredCSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "north.csv")

	_, err := run(t, csvAPI(), "export", "twin-1", "sales.csv", "--filter", "0=north", "--sort", "1", "--out", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "region,amount,rep\nnorth,15,cy\nnorth,120,ana", string(data))
}

func TestExportCmd_RejectsUnknownFormat(t *testing.T) {
	_, err := run(t, csvAPI(), "export", "twin-1", "sales.csv", "--format", "pdf")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestListCmd(t *testing.T) {
	out, err := run(t, csvAPI(), "list", "twin-1")

	require.NoError(t, err)
	assert.Contains(t, out, "sales.csv")
	assert.Contains(t, out, "2.0 kB")
	assert.Contains(t, out, "Total: 2 documents")
}

func TestUploadDeleteAndChat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(salesCSV), 0o600))
	api := csvAPI()

	out, err := run(t, api, "upload", "twin-1", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Replaced sales.csv")
	assert.Equal(t, salesCSV, string(api.uploaded))

	out, err = run(t, api, "delete", "twin-1", "sales.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted sales.csv")
	assert.Equal(t, "sales.csv", api.deleted)

	out, err = run(t, api, "chat", "twin-1", "sales.csv", "who", "sold", "most?")
	require.NoError(t, err)
	assert.Equal(t, "who sold most?", api.question)
	assert.Contains(t, out, "North sold the most.")
}

func TestClassifyCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"factura_id":1}]`), 0o600))

	out, err := run(t, csvAPI(), "classify", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Type:      factura")
	assert.Contains(t, out, "Rule:      invoice-data")
}
