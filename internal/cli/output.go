package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"sigs.k8s.io/yaml"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable formats output as a kubectl-style plain table
	OutputFormatTable OutputFormat = "table"
	// OutputFormatWide formats output as a table with additional columns
	OutputFormatWide OutputFormat = "wide"
	// OutputFormatJSON formats output as indented JSON
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML formats output as YAML converted from JSON
	OutputFormatYAML OutputFormat = "yaml"
	// OutputFormatTemplate renders output through a Go template
	OutputFormatTemplate OutputFormat = "template"
)

// ValidOutputFormats contains all valid output format values.
var ValidOutputFormats = []OutputFormat{
	OutputFormatTable,
	OutputFormatWide,
	OutputFormatJSON,
	OutputFormatYAML,
	OutputFormatTemplate,
}

var errMissingTemplate = errors.New("-o template requires --template")

// ValidateOutputFormat validates that the given format string is a supported output format.
func ValidateOutputFormat(format string) error {
	for _, f := range ValidOutputFormats {
		if OutputFormat(format) == f {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format: %q (valid: table, wide, json, yaml, template)", format)
}

// PrinterOptions control how a Printer renders results.
type PrinterOptions struct {
	Format    OutputFormat
	Template  string
	NoHeaders bool
	Quiet     bool
}

// TableFunc fills a table for the table and wide formats.
type TableFunc func(tw *PlainTableWriter, wide bool)

// Printer writes command results in the selected format.
type Printer struct {
	options PrinterOptions
	out     io.Writer
	errOut  io.Writer
}

// NewPrinter creates a printer writing results to out and progress to
// stderr.
func NewPrinter(options PrinterOptions, out io.Writer) *Printer {
	if options.Format == "" {
		options.Format = OutputFormatTable
	}
	return &Printer{options: options, out: out, errOut: os.Stderr}
}

// Options returns the printer options.
func (p *Printer) Options() PrinterOptions {
	return p.options
}

// Out returns the result writer.
func (p *Printer) Out() io.Writer {
	return p.out
}

// IsStructured reports whether output is meant for machines.
func (p *Printer) IsStructured() bool {
	switch p.options.Format {
	case OutputFormatJSON, OutputFormatYAML, OutputFormatTemplate:
		return true
	}
	return false
}

// Print renders data. For table formats fill builds the rows; the other
// formats serialize data directly.
func (p *Printer) Print(data any, fill TableFunc) error {
	switch p.options.Format {
	case OutputFormatJSON:
		return p.printJSON(data)
	case OutputFormatYAML:
		return p.printYAML(data)
	case OutputFormatTemplate:
		return p.printTemplate(data)
	case OutputFormatTable, OutputFormatWide:
		if fill == nil {
			return p.printYAML(data)
		}
		tw := NewPlainTableWriter(p.out)
		tw.SetNoHeaders(p.options.NoHeaders)
		fill(tw, p.options.Format == OutputFormatWide)
		tw.Render()
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", p.options.Format)
	}
}

func (p *Printer) printJSON(data any) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(p.out, string(out))
	return err
}

// printYAML goes through JSON so that json tags and custom marshalers apply.
func (p *Printer) printYAML(data any) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to convert to YAML: %w", err)
	}
	_, err = p.out.Write(out)
	return err
}

func (p *Printer) printTemplate(data any) error {
	tmpl, err := template.New("output").Funcs(sprig.TxtFuncMap()).Parse(p.options.Template)
	if err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	// Templates see the JSON form so field names match -o json.
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, generic); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	out := sb.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err = io.WriteString(p.out, out)
	return err
}

// Success prints a success message unless output is quiet or structured.
func (p *Printer) Success(format string, args ...any) {
	if p.options.Quiet || p.IsStructured() {
		return
	}
	fmt.Fprintln(p.out, FormatSuccess(fmt.Sprintf(format, args...)))
}

// Warn prints a warning to stderr unless output is quiet.
func (p *Printer) Warn(format string, args ...any) {
	if p.options.Quiet {
		return
	}
	fmt.Fprintln(p.errOut, FormatWarning(fmt.Sprintf(format, args...)))
}

// StartSpinner shows a spinner on stderr with the given suffix. The returned
// stop function clears it and, when failed is true, prints failMsg in red.
// Quiet and structured output get a no-op.
func (p *Printer) StartSpinner(suffix string) (stop func(failed bool, failMsg string)) {
	if p.options.Quiet || p.IsStructured() {
		return func(bool, string) {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(p.errOut))
	s.Suffix = " " + suffix
	s.Start()
	return func(failed bool, failMsg string) {
		if failed && failMsg != "" {
			s.FinalMSG = text.FgRed.Sprint("❌ "+failMsg) + "\n"
		}
		s.Stop()
	}
}

// FormatError formats an error message for CLI output
func FormatError(err error) string {
	return fmt.Sprintf("Error: %v", err)
}

// FormatSuccess formats a success message for CLI output
func FormatSuccess(msg string) string {
	return fmt.Sprintf("✓ %s", msg)
}

// FormatWarning formats a warning message for CLI output
func FormatWarning(msg string) string {
	return fmt.Sprintf("⚠ %s", msg)
}
