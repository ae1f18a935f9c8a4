package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/twin-documents/internal/models"
)

var listCmd = &cobra.Command{
	Use:   "list [twin-id]",
	Short: "List a twin's documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [twin-id] [filename]",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(2),
	RunE:  runDelete,
}

var uploadCmd = &cobra.Command{
	Use:   "upload [twin-id] [path]",
	Short: "Upload a document, replacing any with the same filename",
	Args:  cobra.ExactArgs(2),
	RunE:  runUpload,
}

var chatCmd = &cobra.Command{
	Use:   "chat [twin-id] [filename] [question...]",
	Short: "Ask a question about a document",
	Args:  cobra.MinimumNArgs(3),
	RunE:  runChat,
}

var (
	listDocumentType  string
	listStructureType string
)

func init() {
	listCmd.Flags().StringVar(&listDocumentType, "type", "", "Only documents of this type (e.g. factura, contract)")
	listCmd.Flags().StringVar(&listStructureType, "structure", "", "Only documents with this structure type")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(chatCmd)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func runList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	twinID := args[0]
	resp, err := documentAPI.ListDocuments(ctx, twinID, models.ListFilter{
		DocumentType:  listDocumentType,
		StructureType: listStructureType,
	})
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(resp.Documents) == 0 {
		cmd.Printf("No documents found for twin: %s\n", twinID)
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("FILENAME", "TYPE", "STRUCTURE", "CATEGORY", "SIZE", "ANALYZED", "UPLOADED")

	for _, d := range resp.Documents {
		analyzed := "no"
		if d.Analyzed {
			analyzed = "yes"
		}
		t.Row(d.Filename, d.DocumentType, d.StructureType, d.SubCategory,
			humanize.Bytes(uint64(max(d.FileSize, 0))), analyzed, d.CreatedAt.Format("2006-01-02 15:04"))
	}

	cmd.Println(t.String())
	cmd.Printf("Total: %d documents\n", resp.Total)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	resp, err := documentAPI.DeleteDocument(ctx, args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted %s\n", resp.Filename)
	return nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	resp, err := documentAPI.UploadDocument(ctx, args[0], filepath.Base(args[1]), data)
	if err != nil {
		return fmt.Errorf("failed to upload document: %w", err)
	}

	verb := "Uploaded"
	if resp.Replaced {
		verb = "Replaced"
	}
	cmd.Printf("%s %s (%s)\n", verb, resp.Filename, humanize.Bytes(uint64(max(resp.FileSize, 0))))
	cmd.Printf("  Type:      %s\n", resp.DocumentType)
	cmd.Printf("  Structure: %s\n", resp.StructureType)
	cmd.Printf("  Category:  %s\n", resp.SubCategory)
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	question := strings.Join(args[2:], " ")

	ctx, cancel := commandContext(cmd)
	defer cancel()

	resp, err := documentAPI.ChatWithDocument(ctx, args[0], args[1], question)
	if err != nil {
		return fmt.Errorf("failed to chat with document: %w", err)
	}

	cmd.Println(resp.Answer)
	return nil
}
