package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// PlainTableWriter provides kubectl-style plain table output without
// box-drawing characters, for lists that get piped to grep, awk or cut.
// Column widths are measured in terminal cells so CJK content lines up.
type PlainTableWriter struct {
	headers      []string
	rows         [][]string
	columnWidths []int
	minPadding   int
	showHeaders  bool
	output       io.Writer
}

// NewPlainTableWriter creates a new plain table writer with kubectl-style formatting.
// By default, headers are shown. Use SetNoHeaders(true) to suppress them.
func NewPlainTableWriter(output io.Writer) *PlainTableWriter {
	return &PlainTableWriter{
		minPadding:  3,
		showHeaders: true,
		output:      output,
	}
}

// SetHeaders sets the column headers for the table. Headers are uppercased.
func (w *PlainTableWriter) SetHeaders(headers []string) {
	w.headers = make([]string, len(headers))
	w.columnWidths = make([]int, len(headers))
	for i, h := range headers {
		upper := strings.ToUpper(h)
		w.headers[i] = upper
		w.columnWidths[i] = cellWidth(upper)
	}
}

// SetNoHeaders controls whether to suppress the header row.
func (w *PlainTableWriter) SetNoHeaders(noHeaders bool) {
	w.showHeaders = !noHeaders
}

// AppendRow adds a row, padding or truncating it to the header count.
func (w *PlainTableWriter) AppendRow(row []string) {
	normalized := make([]string, len(w.headers))
	for i := range w.headers {
		if i >= len(row) {
			continue
		}
		normalized[i] = row[i]
		if width := cellWidth(row[i]); width > w.columnWidths[i] {
			w.columnWidths[i] = width
		}
	}
	w.rows = append(w.rows, normalized)
}

// Len returns the number of data rows.
func (w *PlainTableWriter) Len() int {
	return len(w.rows)
}

// Render writes the table.
func (w *PlainTableWriter) Render() {
	if len(w.headers) == 0 {
		return
	}
	if len(w.rows) == 0 && !w.showHeaders {
		return
	}

	if w.showHeaders {
		w.printRow(w.headers)
	}
	for _, row := range w.rows {
		w.printRow(row)
	}
}

func (w *PlainTableWriter) printRow(row []string) {
	var sb strings.Builder
	for i, cell := range row {
		sb.WriteString(cell)
		if i < len(row)-1 {
			sb.WriteString(strings.Repeat(" ", w.columnWidths[i]-cellWidth(cell)+w.minPadding))
		}
	}
	fmt.Fprintln(w.output, strings.TrimRight(sb.String(), " "))
}

func cellWidth(s string) int {
	return text.RuneWidthWithoutEscSequences(s)
}

// NewDetailTable creates a rounded go-pretty table for key/value detail
// views, writing to out.
func NewDetailTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	return t
}

// Field is one row of a detail view.
type Field struct {
	Key   string
	Value string
}

// RenderDetails prints fields as a two-column rounded table under title.
func RenderDetails(out io.Writer, title string, fields []Field) {
	t := NewDetailTable(out)
	if title != "" {
		t.SetTitle(text.FgHiCyan.Sprint(title))
	}
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("KEY"), text.FgHiCyan.Sprint("VALUE")})
	for _, f := range fields {
		value := f.Value
		if value == "" {
			value = "-"
		}
		t.AppendRow(table.Row{f.Key, value})
	}
	t.Render()
}
