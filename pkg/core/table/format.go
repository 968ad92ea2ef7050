package table

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format is a document format a statement table can be read from.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// Formats lists the supported formats in lookup order.
var Formats = []Format{FormatCSV, FormatHTML, FormatMarkdown, FormatJSON}

// ParseFormat reads a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "csv":
		return FormatCSV, nil
	case "html", "htm":
		return FormatHTML, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json", "hjson":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported table format %q", s)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Parse reads a table in format from r.
func Parse(r io.Reader, format Format) (*RawTable, error) {
	switch format {
	case FormatCSV:
		return ParseCSV(r)
	case FormatHTML:
		return ParseHTML(r)
	case FormatMarkdown, FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading %s table: %w", format, err)
		}
		if format == FormatMarkdown {
			return ParseMarkdown(data)
		}
		return ParseJSON(data)
	}
	return nil, fmt.Errorf("unsupported table format %q", string(format))
}
