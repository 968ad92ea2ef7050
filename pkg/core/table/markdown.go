package table

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// ParseMarkdown extracts the first GFM pipe table of a Markdown document, the
// format statements take after an HTML filing has been converted to Markdown.
func ParseMarkdown(src []byte) (*RawTable, error) {
	doc := markdown.Parser().Parse(text.NewReader(src))

	var found *east.Table
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if tbl, ok := n.(*east.Table); ok && entering {
			found = tbl
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if found == nil {
		return nil, ErrNoTable
	}

	var header []string
	var records [][]string
	for child := found.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.(type) {
		case *east.TableHeader:
			header = rowCells(child, src)
		case *east.TableRow:
			records = append(records, rowCells(child, src))
		}
	}
	if header == nil {
		return nil, ErrNoTable
	}
	return FromRecords(header, records), nil
}

func rowCells(row ast.Node, src []byte) []string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*east.TableCell); ok {
			cells = append(cells, inlineText(c, src))
		}
	}
	return cells
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return cleanCellText(b.String())
}
