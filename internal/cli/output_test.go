package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleJob struct {
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	Status   string `json:"status"`
}

var sampleJobs = []sampleJob{
	{Name: "daily-report", Schedule: "0 9 * * *", Status: "running"},
	{Name: "cleanup", Schedule: "@hourly", Status: "paused"},
}

func fillJobs(tw *PlainTableWriter, wide bool) {
	headers := []string{"NAME", "STATUS"}
	if wide {
		headers = append(headers, "SCHEDULE")
	}
	tw.SetHeaders(headers)
	for _, j := range sampleJobs {
		row := []string{j.Name, j.Status}
		if wide {
			row = append(row, j.Schedule)
		}
		tw.AppendRow(row)
	}
}

func TestPrinter_Formats(t *testing.T) {
	tests := []struct {
		name     string
		options  PrinterOptions
		contains []string
		excludes []string
	}{
		{
			name:     "table",
			options:  PrinterOptions{Format: OutputFormatTable},
			contains: []string{"NAME", "daily-report", "paused"},
			excludes: []string{"SCHEDULE"},
		},
		{
			name:     "wide",
			options:  PrinterOptions{Format: OutputFormatWide},
			contains: []string{"SCHEDULE", "@hourly"},
		},
		{
			name:     "no headers",
			options:  PrinterOptions{Format: OutputFormatTable, NoHeaders: true},
			contains: []string{"cleanup"},
			excludes: []string{"NAME"},
		},
		{
			name:     "json",
			options:  PrinterOptions{Format: OutputFormatJSON},
			contains: []string{`"name": "daily-report"`, `"schedule": "@hourly"`},
		},
		{
			name:     "yaml",
			options:  PrinterOptions{Format: OutputFormatYAML},
			contains: []string{"- name: daily-report", "schedule: '@hourly'"},
		},
		{
			name: "template with sprig",
			options: PrinterOptions{
				Format:   OutputFormatTemplate,
				Template: `{{range .}}{{.name | upper}} {{end}}`,
			},
			contains: []string{"DAILY-REPORT CLEANUP"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			p := NewPrinter(tt.options, &buf)
			require.NoError(t, p.Print(sampleJobs, fillJobs))

			out := buf.String()
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestPrinter_TableWithoutFillFallsBackToYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(PrinterOptions{}, &buf).Print(map[string]int{"agents": 2}, nil))
	assert.Equal(t, "agents: 2\n", buf.String())
}

func TestPrinter_BadTemplate(t *testing.T) {
	p := NewPrinter(PrinterOptions{Format: OutputFormatTemplate, Template: "{{.name"}, &bytes.Buffer{})
	err := p.Print(sampleJobs, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid template")
}

func TestPrinter_SuccessIsSuppressed(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(PrinterOptions{Format: OutputFormatTable}, &buf).Success("saved %s", "config")
	assert.Equal(t, "✓ saved config\n", buf.String())

	buf.Reset()
	NewPrinter(PrinterOptions{Format: OutputFormatJSON}, &buf).Success("saved")
	NewPrinter(PrinterOptions{Format: OutputFormatTable, Quiet: true}, &buf).Success("saved")
	assert.Empty(t, buf.String())
}

func TestPrinter_SpinnerNoopWhenStructured(t *testing.T) {
	p := NewPrinter(PrinterOptions{Format: OutputFormatJSON}, &bytes.Buffer{})
	var errBuf bytes.Buffer
	p.errOut = &errBuf

	stop := p.StartSpinner("Loading...")
	stop(true, "failed")
	assert.Empty(t, errBuf.String())
}

func TestValidateOutputFormat(t *testing.T) {
	for _, f := range ValidOutputFormats {
		assert.NoError(t, ValidateOutputFormat(string(f)))
	}
	err := ValidateOutputFormat("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestFormatHelpers(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "-", FormatAge(time.Time{}, now))
	assert.Equal(t, "30s", FormatAge(now.Add(-30*time.Second), now))
	assert.Equal(t, "5m", FormatAge(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h", FormatAge(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d", FormatAge(now.Add(-49*time.Hour), now))

	assert.Equal(t, "250ms", FormatDuration(250))
	assert.Equal(t, "1.5s", FormatDuration(1500))
	assert.Equal(t, "2.0m", FormatDuration(120000))

	assert.Equal(t, "hello wor...", Truncate("hello   world again", 12))
	assert.Equal(t, "短消息", Truncate("短消息", 5))
	assert.Equal(t, "-", OrDash(""))
	assert.Equal(t, "yes", FormatBool(true))
	assert.Equal(t, "-", FormatTime(time.Time{}))
	assert.Equal(t, "-", ColorStatus(""))
}
