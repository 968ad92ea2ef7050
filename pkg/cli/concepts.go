package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"financial_sankey/pkg/core/match"
	"financial_sankey/pkg/core/report"
)

func newConceptsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "concepts [file]",
		Short: "Show how statement line items are resolved",
		Long: `Without a file, lists the line items of a report type and their synonyms.
With a file, shows the row each line item resolved to, the matching tier and the value.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, kind, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			r := lipgloss.NewRenderer(cmd.OutOrStdout())

			if len(args) == 0 {
				rows := [][]string{{"KEY", "SYNONYMS"}}
				for _, c := range report.Concepts(kind) {
					rows = append(rows, []string{c.Key, strings.Join(c.Synonyms, " | ")})
				}
				writeTable(cmd.OutOrStdout(), r, rows)
				return nil
			}

			t, err := opts.readTable(cmd, args[0])
			if err != nil {
				return err
			}
			matches, err := gen.Inspect(kind, t)
			if err != nil {
				return err
			}
			writeTable(cmd.OutOrStdout(), r, matchRows(matches))
			return nil
		},
	}
}

func matchRows(matches []match.Match) [][]string {
	rows := [][]string{{"KEY", "VALUE", "MATCH", "LABEL"}}
	for _, m := range matches {
		if m.Row < 0 {
			rows = append(rows, []string{m.Key, "-", "-", "-"})
			continue
		}
		rows = append(rows, []string{
			m.Key,
			strconv.FormatInt(m.Value, 10),
			m.Strategy.String(),
			m.Label,
		})
	}
	return rows
}

// writeTable prints rows with columns aligned by display width. The first row
// is the header.
func writeTable(w io.Writer, r *lipgloss.Renderer, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	header := r.NewStyle().Bold(true)
	key := r.NewStyle().Foreground(keyColor)
	missing := r.NewStyle().Foreground(dimColor)

	for n, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i < len(row)-1 {
				cell = runewidth.FillRight(cell, widths[i])
			}
			switch {
			case n == 0:
				cell = header.Render(cell)
			case i == 0:
				cell = key.Render(cell)
			case strings.TrimSpace(cell) == "-":
				cell = missing.Render(cell)
			}
			cells[i] = cell
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}
