package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *HTTPServerMetrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMiddlewareLabelsByRouteTemplate(t *testing.T) {
	m := NewHTTPServerMetrics("test")

	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/twins/{twinId}/documents", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, twin := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/twins/"+twin+"/documents", nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	body := scrape(t, m)
	assert.Contains(t, body, `twin_http_requests_total{method="GET",route="/twins/{twinId}/documents",service="test",status="418"} 2`)
	assert.Contains(t, body, `twin_http_in_flight_requests{service="test"} 0`)
	assert.NotContains(t, body, "/twins/a/documents")
}

func TestDomainCountersAreExposed(t *testing.T) {
	m := NewHTTPServerMetrics("test")
	m.RecordUpload("factura", "semi-structured", 2048)
	m.RecordTableQuery(true, false, true, 12)
	m.RecordExport("xlsx")
	m.RecordExport("")

	body := scrape(t, m)
	assert.Contains(t, body, `twin_documents_uploads_total{document_type="factura",service="test",structure_type="semi-structured"} 1`)
	assert.Contains(t, body, `twin_table_queries_total{filtered="false",search="true",service="test",sorted="true"} 1`)
	assert.Contains(t, body, `twin_table_exports_total{format="unknown",service="test"} 1`)
	assert.Contains(t, body, "twin_documents_upload_bytes_count")
	assert.Contains(t, body, "twin_table_rows_matched_sum")
}
