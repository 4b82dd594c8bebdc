package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainTableWriter_SetHeaders(t *testing.T) {
	tw := NewPlainTableWriter(&bytes.Buffer{})
	tw.SetHeaders([]string{"name", "Schedule", "STATUS"})

	assert.Equal(t, []string{"NAME", "SCHEDULE", "STATUS"}, tw.headers)
	assert.Equal(t, []int{4, 8, 6}, tw.columnWidths)
	assert.True(t, tw.showHeaders)
}

func TestPlainTableWriter_AppendRow(t *testing.T) {
	tw := NewPlainTableWriter(&bytes.Buffer{})
	tw.SetHeaders([]string{"AGENT", "MODEL"})

	tw.AppendRow([]string{"default", "gpt-4o"})
	tw.AppendRow([]string{"research-agent", "qwen-max-longcontext"})
	tw.AppendRow([]string{"only-one"})
	tw.AppendRow([]string{"a", "b", "dropped"})

	require.Equal(t, 4, tw.Len())
	assert.Equal(t, []int{14, 20}, tw.columnWidths)
	assert.Equal(t, []string{"only-one", ""}, tw.rows[2])
	assert.Equal(t, []string{"a", "b"}, tw.rows[3])
}

func TestPlainTableWriter_Render(t *testing.T) {
	tests := []struct {
		name      string
		noHeaders bool
		rows      [][]string
		want      []string
	}{
		{
			name: "headers and rows",
			rows: [][]string{{"feishuTest", "feishu"}, {"web", "web"}},
			want: []string{
				"NAME         TYPE",
				"feishuTest   feishu",
				"web          web",
			},
		},
		{
			name:      "no headers",
			noHeaders: true,
			rows:      [][]string{{"web", "web"}},
			want:      []string{"web    web"},
		},
		{
			name: "headers only",
			want: []string{"NAME   TYPE"},
		},
		{
			name:      "nothing at all",
			noHeaders: true,
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tw := NewPlainTableWriter(&buf)
			tw.SetHeaders([]string{"NAME", "TYPE"})
			tw.SetNoHeaders(tt.noHeaders)
			for _, row := range tt.rows {
				tw.AppendRow(row)
			}
			tw.Render()

			assert.Equal(t, tt.want, splitLines(buf.String()))
		})
	}
}

func TestPlainTableWriter_WideCharacters(t *testing.T) {
	var buf bytes.Buffer
	tw := NewPlainTableWriter(&buf)
	tw.SetHeaders([]string{"NAME", "STATUS"})
	tw.AppendRow([]string{"日报", "running"})
	tw.AppendRow([]string{"weekly", "paused"})
	tw.Render()

	lines := splitLines(buf.String())
	require.Len(t, lines, 3)

	// "日报" takes four terminal cells, so the second column starts at the
	// same cell offset as for "weekly".
	assert.Equal(t, "日报     running", lines[1])
	assert.Equal(t, "weekly   paused", lines[2])
}

func TestPlainTableWriter_EmptyHeaders(t *testing.T) {
	var buf bytes.Buffer
	NewPlainTableWriter(&buf).Render()
	assert.Empty(t, buf.String())
}

func TestRenderDetails(t *testing.T) {
	var buf bytes.Buffer
	RenderDetails(&buf, "Instance", []Field{
		{Key: "Running", Value: "yes"},
		{Key: "PID", Value: ""},
	})

	out := buf.String()
	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "Running")
	assert.Contains(t, out, "PID")
	assert.Contains(t, out, "-")
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
