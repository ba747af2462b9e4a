// Package output prints result sets for Show.
//
// Plain mode writes a header line and one line per row, fields joined by
// the delimiter. Pretty mode draws a table with olekukonko/tablewriter and
// truncates cells to a maximum display width.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"

	"github.com/roach88/grizzly/internal/frame"
	"github.com/roach88/grizzly/internal/ir"
)

// Ellipsis marks a truncated cell.
const Ellipsis = "…"

// Printer writes result sets to a writer.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// SetOutput changes the output writer.
func (p *Printer) SetOutput(w io.Writer) {
	p.w = w
}

// Print writes rs according to opts.
func (p *Printer) Print(rs *ir.ResultSet, opts frame.ShowOptions) error {
	if rs == nil {
		return fmt.Errorf("nil result set")
	}
	if opts.Pretty {
		return p.printTable(rs, opts.MaxColWidth)
	}
	return p.printPlain(rs, opts.Delimiter)
}

func (p *Printer) printPlain(rs *ir.ResultSet, delim string) error {
	if delim == "" {
		delim = ","
	}
	if _, err := fmt.Fprintln(p.w, strings.Join(rs.Columns, delim)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rs.Rows {
		if _, err := fmt.Fprintln(p.w, strings.Join(formatRow(row), delim)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return nil
}

func (p *Printer) printTable(rs *ir.ResultSet, maxWidth int) error {
	table := tablewriter.NewWriter(p.w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	header := make([]string, len(rs.Columns))
	for i, c := range rs.Columns {
		header[i] = Truncate(c, maxWidth)
	}
	table.SetHeader(header)

	for _, row := range rs.Rows {
		cells := formatRow(row)
		for i, c := range cells {
			cells[i] = Truncate(c, maxWidth)
		}
		table.Append(cells)
	}
	table.Render()
	return nil
}

func formatRow(row []ir.Value) []string {
	cells := make([]string, len(row))
	for i, v := range row {
		cells[i] = ir.Format(v)
	}
	return cells
}

// Truncate shortens s to at most width display cells, ending in Ellipsis
// when cut. A width <= 0 disables truncation.
func Truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, Ellipsis)
}
