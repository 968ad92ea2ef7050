// Package cli implements the sankey command line tool.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"financial_sankey/pkg/config"
	"financial_sankey/pkg/core/report"
	"financial_sankey/pkg/core/table"
	"financial_sankey/pkg/logging"
)

var (
	errorColor = lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"}
	keyColor   = lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"}
	dimColor   = lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"}
)

// options are shared by every command.
type options struct {
	configPath string
	kind       string
	format     string
	column     int
	scale      string
	verbose    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "sankey",
		Short:         "Turn financial statements into Sankey flows",
		Long:          `Reads a balance sheet, income statement or cash flow statement from a CSV, HTML, Markdown or JSON table and prints it as "Source [Value] Target" flow lines.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (YAML or TOML)")
	pf.StringVarP(&opts.kind, "type", "t", "", "Report type: "+kindNames())
	pf.StringVarP(&opts.format, "format", "f", "", "Table format: csv, html, md or json (default from file extension)")
	pf.IntVarP(&opts.column, "column", "c", 1, "Column holding the figures")
	pf.StringVarP(&opts.scale, "scale", "s", "units", "Unit of the figures: units, thousands, millions, billions or auto (read from the column header)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log matching details")

	root.AddCommand(newFlowsCmd(opts), newConceptsCmd(opts))
	return root
}

// Execute runs the command line tool.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		r := lipgloss.NewRenderer(os.Stderr)
		fmt.Fprintln(os.Stderr, r.NewStyle().Foreground(errorColor).Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// setup loads config and the logger for a command run.
func (o *options) setup(cmd *cobra.Command) (*report.Generator, report.Kind, error) {
	kind, err := report.ParseKind(o.kind)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, "", err
	}
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	log := logging.NewWithOutput(cmd.ErrOrStderr(), level, cfg.Log.Format)
	return report.NewGenerator(cfg.Settings(), log), kind, nil
}

// readTable reads path and reduces it to the label column and the selected
// figure column, rescaled to base units.
func (o *options) readTable(cmd *cobra.Command, path string) (*table.RawTable, error) {
	format, err := o.tableFormat(path)
	if err != nil {
		return nil, err
	}
	auto := strings.EqualFold(o.scale, "auto")
	scale := table.ScaleUnits
	if !auto {
		if scale, err = table.ParseScale(o.scale); err != nil {
			return nil, err
		}
	}

	r := cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	t, err := table.Parse(r, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(t.Columns) < 2 {
		// Let the builder report it in-band.
		return t, nil
	}
	if o.column < 1 || o.column >= len(t.Columns) {
		return nil, fmt.Errorf("column %d out of range, table has %d columns", o.column, len(t.Columns))
	}
	header := t.Columns[o.column]
	if auto {
		scale = table.DetectScale(header)
	}
	out := t.Project(o.column, header)
	out.Rescale(1, scale.Multiplier())
	return out, nil
}

func (o *options) tableFormat(path string) (table.Format, error) {
	if o.format != "" {
		return table.ParseFormat(o.format)
	}
	if path == "-" {
		return table.FormatCSV, nil
	}
	f, err := table.FormatFromPath(path)
	if err != nil {
		return "", fmt.Errorf("%w; use --format", err)
	}
	return f, nil
}

func kindNames() string {
	names := make([]string, len(report.Kinds))
	for i, k := range report.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
