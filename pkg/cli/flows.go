package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"financial_sankey/pkg/core/flow"
)

func newFlowsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "flows [file]",
		Short: "Print the Sankey flows of a statement",
		Long: `Reads a statement table and prints one "Source [Value] Target" line per flow.
Use "-" to read from standard input.`,
		Example: `  sankey flows -t balance vnm_balance.csv
  sankey flows -t income -c 2 -s thousands income.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, kind, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			t, err := opts.readTable(cmd, args[0])
			if err != nil {
				return err
			}
			out, err := gen.Generate(kind, t)
			if err != nil {
				return err
			}
			return printFlows(cmd, out)
		},
	}
}

// printFlows writes the flow text, styling error lines. An error line also
// fails the command.
func printFlows(cmd *cobra.Command, out string) error {
	r := lipgloss.NewRenderer(cmd.OutOrStdout())
	errStyle := r.NewStyle().Foreground(errorColor).Bold(true)

	if out == "" {
		fmt.Fprintln(cmd.OutOrStdout(), r.NewStyle().Foreground(dimColor).Render("no flows above the materiality threshold"))
		return nil
	}

	failed := false
	for _, line := range strings.Split(out, "\n") {
		if flow.IsError(line) {
			failed = true
			line = errStyle.Render(line)
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	if failed {
		return errors.New("statement could not be converted")
	}
	return nil
}
