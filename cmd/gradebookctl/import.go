package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gradebook/internal/adapters/spreadsheet"
	"gradebook/internal/application/orchestrators"
	"gradebook/internal/application/roster"
)

var importYes bool

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import students from a .xlsx, .xls or .csv file",
	Long: `Import every row of the first sheet of a spreadsheet. The first row is
the header. Without --yes the row count must be typed to confirm.

Examples:
  gradebookctl import eleves.xlsx
  gradebookctl import export.csv --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importYes, "yes", false, "Skip the confirmation prompt")
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := spreadsheet.ReadRows(f, filepath.Base(args[0]))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d ligne(s) à importer\n", filepath.Base(args[0]), len(rows))

	confirmed := len(rows)
	if !importYes {
		fmt.Fprintf(out, "Saisissez %d pour confirmer: ", len(rows))
		line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		confirmed, err = strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			confirmed = -1
		}
	}

	client := newClient()
	res, err := orchestrators.ExecuteImportStudents(cmd.Context(),
		orchestrators.ImportStudentsInput{Rows: rows, Confirmed: confirmed},
		orchestrators.ImportStudentsDeps{Store: client, Roster: roster.New(client)})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d élève(s) importé(s) sur %d\n", res.Created, res.Total)
	for _, e := range res.Errors {
		fmt.Fprintf(out, "  ligne %d (%s): %s\n", e.Row, e.Name, e.Message)
	}
	if len(res.Errors) > 0 {
		return fmt.Errorf("%d ligne(s) en erreur", len(res.Errors))
	}
	return nil
}
