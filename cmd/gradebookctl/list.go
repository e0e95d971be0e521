package main

import (
	"fmt"
	"net/url"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gradebook/internal/application/listutil"
	"gradebook/internal/application/projections"
	"gradebook/internal/application/roster"
)

// List flags
var (
	listQuery string
	listClass string
	listSort  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List students with their mean and behavior score",
	Long: `List every student matching the filters, in the same order as the screen.

Examples:
  gradebookctl list
  gradebookctl list --q dupont
  gradebookctl list --class CM2 --sort name-desc`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listQuery, "q", "", "Search on the full name")
	listCmd.Flags().StringVar(&listClass, "class", roster.AllClasses, "Class filter")
	listCmd.Flags().StringVar(&listSort, "sort", string(roster.SortNameAsc), "Sort order (name-asc, name-desc, class-asc, class-desc)")
}

func runList(cmd *cobra.Command, args []string) error {
	r, err := loadRoster(cmd.Context(), newClient())
	if err != nil {
		return err
	}

	perPage := listutil.PerPageOptions[len(listutil.PerPageOptions)-1]
	q := url.Values{
		listutil.ParamQuery:   {listQuery},
		listutil.ParamClass:   {listClass},
		listutil.ParamSort:    {listSort},
		listutil.ParamPerPage: {strconv.Itoa(perPage)},
	}
	deps := projections.GetStudentListDeps{Records: r, View: roster.NewView()}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNOM\tCLASSE\tMOYENNE\tCOMPORTEMENT")
	total := 0
	for page := 1; ; page++ {
		q.Set(listutil.ParamPage, strconv.Itoa(page))
		res, err := projections.QueryGetStudentList(cmd.Context(),
			projections.GetStudentListQuery{Params: listutil.ParseListParams(q)}, deps)
		if err != nil {
			return err
		}
		for _, row := range res.Rows {
			behavior := "-"
			if row.HasBehavior {
				behavior = strconv.Itoa(row.Behavior)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", row.Index, row.FullName, row.ClassName,
				strconv.FormatFloat(row.Mean, 'f', -1, 64), behavior)
		}
		total = res.PageInfo.Total
		if page >= res.PageInfo.TotalPages {
			break
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d élève(s) sur %d\n", total, r.Len())
	return nil
}
