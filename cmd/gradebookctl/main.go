// Command gradebookctl lists, imports, evaluates and prints student records
// against the same spreadsheet store as the web screen.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gradebook/internal/adapters/sheetapi"
	"gradebook/internal/application/roster"
	"gradebook/internal/config"
)

// Global flags
var (
	apiURL     string
	apiTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "gradebookctl",
	Short: "Manage the gradebook from a terminal",
	Long: `gradebookctl talks to the spreadsheet store used by the gradebook screen.

Examples:
  gradebookctl list --class CM1
  gradebookctl import eleves.xlsx
  gradebookctl report 4 --pdf dupont.pdf
  gradebookctl behavior 4 --bavardage --retards 2`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if apiURL == "" {
			return fmt.Errorf("--api or GRADEBOOK_API_URL is required")
		}
		return nil
	},
}

func init() {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Config{APITimeout: config.DefaultAPITimeout}
	}
	slog.SetDefault(cfg.NewLogger(os.Stderr))

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", cfg.APIURL, "URL of the spreadsheet store")
	rootCmd.PersistentFlags().DurationVar(&apiTimeout, "timeout", cfg.APITimeout, "Timeout of a single store call")
}

// newClient returns a store client for the global flags.
func newClient() *sheetapi.Client {
	return sheetapi.NewClient(apiURL, &http.Client{Timeout: apiTimeout})
}

// loadRoster fetches every record.
func loadRoster(ctx context.Context, client *sheetapi.Client) (*roster.Roster, error) {
	r := roster.New(client)
	if err := r.Load(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
