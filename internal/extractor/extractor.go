package extractor

import (
	"fmt"

	"github.com/BerylCAtieno/twin-documents/internal/models"
)

// Result is the text pulled out of an uploaded file.
type Result struct {
	Text string
	// Structured is true for CSV, JSON and XML, whose text is kept verbatim.
	Structured bool
	// HasInvoiceData is set when a structured payload carries invoice fields.
	HasInvoiceData bool
}

type extractFunc func(data []byte) (Result, error)

var extractors = map[string]extractFunc{
	models.ContentTypePDF:  unstructured(ExtractPDF),
	models.ContentTypeDOCX: unstructured(ExtractDOCX),
	models.ContentTypeTXT:  unstructured(ExtractTXT),
	models.ContentTypeCSV:  ExtractCSV,
	models.ContentTypeJSON: ExtractJSON,
	models.ContentTypeXML:  ExtractXML,
}

// Supported reports whether Extract can handle contentType.
func Supported(contentType string) bool {
	_, ok := extractors[contentType]
	return ok
}

func Extract(contentType string, data []byte) (Result, error) {
	fn, ok := extractors[contentType]
	if !ok {
		return Result{}, fmt.Errorf("unsupported content type %q", contentType)
	}
	return fn(data)
}

func unstructured(fn func([]byte) (string, error)) extractFunc {
	return func(data []byte) (Result, error) {
		text, err := fn(data)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: text}, nil
	}
}
