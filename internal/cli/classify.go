package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/twin-documents/internal/classifier"
	"github.com/BerylCAtieno/twin-documents/internal/extractor"
	"github.com/BerylCAtieno/twin-documents/internal/models"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [path]",
	Short: "Show how a local file would be labelled on upload",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	path := args[0]
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	contentType := contentTypeFor(name)
	if !extractor.Supported(contentType) {
		return fmt.Errorf("unsupported file type %q", filepath.Ext(name))
	}

	res, err := extractor.Extract(contentType, data)
	if err != nil {
		return fmt.Errorf("could not read document: %w", err)
	}

	labels, rule := classifier.Explain(
		classifier.Input{Filename: name, HasInvoiceData: res.HasInvoiceData},
		classifier.Fallback(name, res.Structured),
	)

	cmd.Printf("%s\n", name)
	cmd.Printf("  Type:      %s\n", labels.DocumentType)
	cmd.Printf("  Structure: %s\n", labels.StructureType)
	cmd.Printf("  Category:  %s\n", labels.SubCategory)
	cmd.Printf("  Rule:      %s\n", rule)
	return nil
}

var extensionTypes = map[string]string{
	".pdf":  models.ContentTypePDF,
	".docx": models.ContentTypeDOCX,
	".txt":  models.ContentTypeTXT,
	".csv":  models.ContentTypeCSV,
	".json": models.ContentTypeJSON,
	".xml":  models.ContentTypeXML,
}

func contentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := extensionTypes[ext]; ok {
		return ct
	}
	mediaType, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil {
		return ""
	}
	return mediaType
}
