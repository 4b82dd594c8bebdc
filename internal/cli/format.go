package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
)

// Truncate shortens s to max runes, ending with "...".
func Truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if max <= 3 || len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// FormatTime renders t in local time, or "-" when zero.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// FormatAge renders the time since t the way kubectl does (5s, 3m, 2h, 4d).
func FormatAge(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// FormatDuration renders a duration in milliseconds.
func FormatDuration(durationMs float64) string {
	switch {
	case durationMs < 1000:
		return fmt.Sprintf("%.0fms", durationMs)
	case durationMs < 60000:
		return fmt.Sprintf("%.1fs", durationMs/1000)
	case durationMs < 3600000:
		return fmt.Sprintf("%.1fm", durationMs/60000)
	}
	return fmt.Sprintf("%.1fh", durationMs/3600000)
}

// FormatBool renders a flag as yes/no.
func FormatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// ColorStatus colors a status word for detail views: running and
// completed states green, paused and pending yellow, failures red.
func ColorStatus(status string) string {
	switch strings.ToLower(status) {
	case "running", "active", "completed", "done", "success", "connected", "open", "ready":
		return text.FgGreen.Sprint(status)
	case "paused", "pending", "starting", "stopping", "connecting", "queued":
		return text.FgYellow.Sprint(status)
	case "failed", "error", "stopped", "closed", "disconnected":
		return text.FgRed.Sprint(status)
	case "":
		return "-"
	}
	return status
}

// OrDash returns "-" for an empty string.
func OrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
