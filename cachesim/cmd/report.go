package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/fatih/structs"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/trace"
)

type reportTable struct {
	name   string
	sample any
	order  string
}

var reportTables = map[string]reportTable{
	"steps":     {name: trace.StepTable, sample: trace.StepRow{}, order: "Step"},
	"evictions": {name: trace.EvictionTable, sample: trace.EvictionRow{}, order: "Step"},
	"runs":      {name: datarecording.RunInfoTable, sample: datarecording.RunInfo{}},
}

type reportOptions struct {
	table  string
	runID  string
	where  string
	order  string
	limit  int
	offset int
}

var reportOpts reportOptions

var reportCmd = &cobra.Command{
	Use:   "report <recording.sqlite3>",
	Short: "Print the rows of a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return report(cmd.Context(), args[0], reportOpts, cmd.OutOrStdout())
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOpts.table, "table", "t", "steps",
		"table to print: steps, evictions, or runs")
	reportCmd.Flags().StringVar(&reportOpts.runID, "run", "",
		"only print the rows of this run ID")
	reportCmd.Flags().StringVar(&reportOpts.where, "where", "",
		`SQL condition over the columns, e.g. "IsHit = 0"`)
	reportCmd.Flags().StringVar(&reportOpts.order, "order", "",
		`columns to sort by, e.g. "Energy DESC"`)
	reportCmd.Flags().IntVar(&reportOpts.limit, "limit", 0,
		"print at most this many rows")
	reportCmd.Flags().IntVar(&reportOpts.offset, "offset", 0,
		"skip this many rows")

	rootCmd.AddCommand(reportCmd)
}

func report(
	ctx context.Context,
	filename string,
	opts reportOptions,
	out io.Writer,
) error {
	t, ok := reportTables[opts.table]
	if !ok {
		names := slices.Sorted(maps.Keys(reportTables))
		return fmt.Errorf("unknown table %q, want one of %s",
			opts.table, strings.Join(names, ", "))
	}

	reader, err := datarecording.Open(filename)
	if err != nil {
		return err
	}
	defer reader.Close()

	present, err := reader.Tables(ctx)
	if err != nil {
		return err
	}

	if !slices.Contains(present, t.name) {
		return fmt.Errorf("%s has no %s table", filename, t.name)
	}

	if err := reader.Register(t.name, t.sample); err != nil {
		return err
	}

	page, err := reader.Select(ctx, t.name, selection(t, opts))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(page.Columns, "\t"))

	for _, row := range page.Rows {
		values := structs.Values(row)

		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = fmt.Sprint(v)
		}

		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}

	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d of %d rows\n", len(page.Rows), page.Total)

	return nil
}

func selection(t reportTable, opts reportOptions) datarecording.Selection {
	sel := datarecording.Selection{
		OrderBy: opts.order,
		Limit:   opts.limit,
		Offset:  opts.offset,
	}

	if sel.OrderBy == "" {
		sel.OrderBy = t.order
	}

	var conds []string

	if opts.runID != "" {
		conds = append(conds, "RunID = ?")
		sel.Args = append(sel.Args, opts.runID)
	}

	if opts.where != "" {
		conds = append(conds, "("+opts.where+")")
	}

	sel.Where = strings.Join(conds, " AND ")

	return sel
}
