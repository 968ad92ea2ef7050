package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML extracts the first <table> of an HTML document. The first row is the
// header; the first cell of every following row is the label.
func ParseHTML(r io.Reader) (*RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNoTable
	}

	var header []string
	var records [][]string

	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		var cells []string
		row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cleanCellText(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}
		if header == nil {
			header = cells
			return
		}
		records = append(records, cells)
	})

	if header == nil {
		return nil, ErrNoTable
	}
	return FromRecords(header, records), nil
}

func cleanCellText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
