package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"gradebook/internal/adapters/document"
	"gradebook/internal/adapters/present"
	"gradebook/internal/application/orchestrators"
)

// Report flags
var (
	reportHTML string
	reportPDF  string
)

var reportCmd = &cobra.Command{
	Use:   "report <index>",
	Short: "Write the report of one student as HTML or PDF",
	Long: `Build the report of the student at <index> (see "list").

--pdf prints through a headless Chromium; the Playwright driver must be
installed. Without any flag the HTML goes to stdout.

Examples:
  gradebookctl report 4 --html dupont.html
  gradebookctl report 4 --pdf dupont.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportHTML, "html", "", "Write the HTML document to this file")
	reportCmd.Flags().StringVar(&reportPDF, "pdf", "", "Print the report to this PDF file")
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("index invalide: %q", s)
	}
	return i, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	r, err := loadRoster(cmd.Context(), newClient())
	if err != nil {
		return err
	}

	html, err := orchestrators.ExecuteBuildDocument(cmd.Context(),
		orchestrators.BuildDocumentInput{Index: index, Kind: document.KindReport},
		orchestrators.BuildDocumentDeps{Records: r})
	if err != nil {
		return err
	}

	if reportHTML == "" && reportPDF == "" {
		_, err := cmd.OutOrStdout().Write(html)
		return err
	}
	if reportHTML != "" {
		if err := os.WriteFile(reportHTML, html, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "HTML: %s\n", reportHTML)
	}
	if reportPDF != "" {
		pdf, err := printPDF(cmd, html)
		if err != nil {
			return err
		}
		if err := os.WriteFile(reportPDF, pdf, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "PDF: %s\n", reportPDF)
	}
	return nil
}

func printPDF(cmd *cobra.Command, html []byte) ([]byte, error) {
	browser, err := present.Launch()
	if err != nil {
		return nil, err
	}
	defer browser.Close()

	h, err := present.New(browser, nil, "").Present(cmd.Context(), html)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return h.PDF(cmd.Context())
}
