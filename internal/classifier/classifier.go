// Package classifier assigns UI grouping labels to uploaded documents from
// their filename and any structured data already extracted from them.
package classifier

import (
	"path/filepath"
	"strings"
)

type Result struct {
	DocumentType  string `json:"document_type"`
	StructureType string `json:"structure_type"`
	SubCategory   string `json:"sub_category"`
}

// Unknown is the usual fallback when nothing else applies.
var Unknown = Result{DocumentType: "document", StructureType: "unknown", SubCategory: "unknown"}

// Fallback is the result used when no rule fires: structured files are
// labelled by their extension, everything else is Unknown.
func Fallback(filename string, structured bool) Result {
	if !structured {
		return Unknown
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		ext = "unknown"
	}
	return Result{DocumentType: "document", StructureType: "structured", SubCategory: ext}
}

// Input is what the rules look at.
type Input struct {
	Filename       string
	HasInvoiceData bool
}

type rule struct {
	name   string
	match  func(in Input, name, ext string) bool
	result Result
}

var (
	invoiceResult  = Result{DocumentType: "factura", StructureType: "semi-structured", SubCategory: "invoice"}
	contractResult = Result{DocumentType: "contract", StructureType: "structured", SubCategory: "contract"}
	reportResult   = Result{DocumentType: "report", StructureType: "structured", SubCategory: "report"}
	pdfResult      = Result{DocumentType: "document", StructureType: "semi-structured", SubCategory: "document"}
)

// rules are evaluated top to bottom; the first match wins.
var rules = []rule{
	{
		name:   "invoice-data",
		match:  func(in Input, _, _ string) bool { return in.HasInvoiceData },
		result: invoiceResult,
	},
	{
		name:   "contract-name",
		match:  func(_ Input, name, _ string) bool { return containsAny(name, "contract", "contrato") },
		result: contractResult,
	},
	{
		name:   "report-name",
		match:  func(_ Input, name, _ string) bool { return containsAny(name, "report", "reporte") },
		result: reportResult,
	},
	{
		name:   "invoice-name",
		match:  func(_ Input, name, _ string) bool { return containsAny(name, "invoice", "factura") },
		result: invoiceResult,
	},
	{
		name:   "pdf-extension",
		match:  func(_ Input, _, ext string) bool { return ext == ".pdf" },
		result: pdfResult,
	},
}

// Classify returns the result of the first matching rule, or fallback.
func Classify(in Input, fallback Result) Result {
	r, _ := classify(in, fallback)
	return r
}

// Explain is Classify plus the name of the rule that fired ("default" when
// none did).
func Explain(in Input, fallback Result) (Result, string) {
	return classify(in, fallback)
}

func classify(in Input, fallback Result) (Result, string) {
	name := strings.ToLower(in.Filename)
	ext := strings.ToLower(filepath.Ext(in.Filename))

	for _, r := range rules {
		if r.match(in, name, ext) {
			return r.result, r.name
		}
	}
	return fallback, "default"
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
