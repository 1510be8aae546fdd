package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/gridview/internal/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Faint(true)
)

type showOptions struct {
	viewOptions
	limit int
}

func newShowCmd(a *app) *cobra.Command {
	opts := &showOptions{}
	cmd := &cobra.Command{
		Use:   "show <dataset>",
		Short: "Print a dataset view as a table",
		Long: `Fetches the dataset, applies the given filters and sort, and prints the
view with the same columns an export would contain.

Example:
  gridctl show products --sort qty --desc --limit 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShow(cmd.Context(), args[0], opts)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().IntVar(&opts.limit, "limit", 50, "maximum rows to print (0 for all)")
	return cmd
}

func (a *app) runShow(ctx context.Context, key string, opts *showOptions) error {
	if opts.limit < 0 {
		return fmt.Errorf("--limit must be non-negative")
	}
	v, err := a.buildView(ctx, key, &opts.viewOptions)
	if err != nil {
		return err
	}

	rows := v.table.View()
	shown := rows
	if opts.limit > 0 && len(shown) > opts.limit {
		shown = shown[:opts.limit]
	}

	fmt.Fprintln(a.out, renderView(v.table.Columns(), shown))
	fmt.Fprintln(a.out, footerStyle.Render(fmt.Sprintf("%s: %d of %d rows", v.def.DisplayTitle(), len(shown), len(rows))))
	return nil
}

// renderView lays out records under the non-action columns.
func renderView(columns []table.Column, rows []table.Record) string {
	cols := make([]table.Column, 0, len(columns))
	headers := make([]string, 0, len(columns))
	for _, c := range columns {
		if c.Key == table.ActionsKey {
			continue
		}
		cols = append(cols, c)
		headers = append(headers, c.Header)
	}

	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = c.Text(r)
		}
		t.Row(cells...)
	}
	return t.String()
}
