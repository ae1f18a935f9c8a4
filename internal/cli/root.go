// Package cli implements the twindocs command line client.
package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/twin-documents/internal/client"
	"github.com/BerylCAtieno/twin-documents/internal/models"
	"github.com/BerylCAtieno/twin-documents/internal/utils"
)

// DocumentAPI is the subset of the REST client the commands use.
type DocumentAPI interface {
	ListDocuments(ctx context.Context, twinID string, filter models.ListFilter) (*models.ListResponse, error)
	GetDocument(ctx context.Context, twinID, filename string) (*models.Document, error)
	DeleteDocument(ctx context.Context, twinID, filename string) (*models.DeleteResponse, error)
	UploadDocument(ctx context.Context, twinID, filename string, data []byte) (*models.UploadResponse, error)
	GetStructuredDocumentContent(ctx context.Context, twinID, filename string) (*models.StructuredContent, error)
	ChatWithDocument(ctx context.Context, twinID, filename, question string) (*models.ChatResponse, error)
}

const defaultServerURL = "http://localhost:8080"

var (
	serverURL      string
	requestTimeout time.Duration
	verbose        bool

	// documentAPI is built from the flags unless a test injected one.
	documentAPI DocumentAPI
	logger      = utils.NopLogger()
)

var rootCmd = &cobra.Command{
	Use:           "twindocs",
	Short:         "Browse and manage a twin's documents",
	Long:          `Upload, list and delete documents stored for a twin, and page through CSV documents with search, column filters and sorting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if verbose {
			logger = utils.NewLoggerTo(cmd.ErrOrStderr(), "twindocs", "debug")
		}
		if documentAPI == nil {
			documentAPI = client.New(serverURL, client.WithLogger(logger))
		}
		return nil
	},
}

func init() {
	defaultURL := os.Getenv("TWIN_API_URL")
	if defaultURL == "" {
		defaultURL = defaultServerURL
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultURL, "Document service base URL (env TWIN_API_URL)")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 60*time.Second, "Timeout for each command")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and retries to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, requestTimeout)
}
