package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"financial_sankey/pkg/core/report"
	"financial_sankey/pkg/core/table"
)

// DirSource reads long-format statements exported to disk, one file per
// company and statement kind:
//
//	<root>/<SYMBOL>/<kind>.csv   (or .json, .md, .html)
//
// It serves the same requests as PostgresSource when no database is configured.
type DirSource struct {
	root  string
	scale table.Scale
	log   logrus.FieldLogger
}

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string, scale table.Scale, log logrus.FieldLogger) *DirSource {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DirSource{root: dir, scale: scale, log: log}
}

// Fetch implements report.Fetcher.
func (s *DirSource) Fetch(_ context.Context, symbol string, kind report.Kind, period string, year int) (*table.RawTable, error) {
	path, format, err := s.locate(symbol, kind)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	long, err := table.Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if long.Len() == 0 {
		return nil, fmt.Errorf("%w for %s - %s - %s", ErrNoStatement, symbol, kind, period)
	}

	col, fellBack, err := SelectColumn(long.Columns, period, year)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", symbol, kind, err)
	}
	if fellBack {
		s.log.WithFields(logrus.Fields{
			"symbol": symbol,
			"kind":   kind,
			"wanted": PeriodColumn(period, year),
			"using":  long.Columns[col],
		}).Warn("period not found, using closest available")
	}
	return ReduceColumn(long, col, s.scale), nil
}

func (s *DirSource) locate(symbol string, kind report.Kind) (string, table.Format, error) {
	dir := filepath.Join(s.root, strings.ToUpper(symbol))
	for _, format := range table.Formats {
		path := filepath.Join(dir, string(kind)+"."+string(format))
		if _, err := os.Stat(path); err == nil {
			return path, format, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", "", fmt.Errorf("checking %s: %w", path, err)
		}
	}
	return "", "", fmt.Errorf("%w for %s - %s", ErrNoStatement, symbol, kind)
}
