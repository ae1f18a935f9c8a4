package extractor

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var invoiceMarkers = []string{"invoice", "factura"}

// decodeStructured decodes text while keeping every line, so row positions
// in CSV files survive. Only line endings are normalised.
func decodeStructured(data []byte, kind string) (string, error) {
	if err := ValidateText(data); err != nil {
		return "", fmt.Errorf("%s file: %w", kind, err)
	}

	text, err := decodeText(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s file: %w", kind, err)
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s file is empty", kind)
	}
	return text, nil
}

func ExtractCSV(data []byte) (Result, error) {
	text, err := decodeStructured(data, "CSV")
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text, Structured: true}, nil
}

func ExtractJSON(data []byte) (Result, error) {
	text, err := decodeStructured(data, "JSON")
	if err != nil {
		return Result{}, err
	}

	var payload interface{}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return Result{}, fmt.Errorf("invalid JSON document: %w", err)
	}

	return Result{
		Text:           text,
		Structured:     true,
		HasInvoiceData: jsonHasInvoiceData(payload),
	}, nil
}

// jsonHasInvoiceData looks at the keys of the top-level object, or of the
// first element when the payload is an array.
func jsonHasInvoiceData(payload interface{}) bool {
	if arr, ok := payload.([]interface{}); ok {
		if len(arr) == 0 {
			return false
		}
		payload = arr[0]
	}

	obj, ok := payload.(map[string]interface{})
	if !ok {
		return false
	}
	for key := range obj {
		if hasInvoiceMarker(key) {
			return true
		}
	}
	return false
}

func ExtractXML(data []byte) (Result, error) {
	text, err := decodeStructured(data, "XML")
	if err != nil {
		return Result{}, err
	}

	root, err := xmlRootElement(text)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Text:           text,
		Structured:     true,
		HasInvoiceData: hasInvoiceMarker(root),
	}, nil
}

// xmlRootElement walks the whole document so malformed XML is rejected, and
// returns the local name of the root element.
func xmlRootElement(text string) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader([]byte(text)))
	// text is already UTF-8 whatever the prolog claims.
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	root := ""
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("invalid XML document: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok && root == "" {
			root = start.Name.Local
		}
	}
	if root == "" {
		return "", fmt.Errorf("invalid XML document: no root element")
	}
	return root, nil
}

func hasInvoiceMarker(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range invoiceMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
