package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yockii/yoctl/internal/api"
	yoctx "github.com/yockii/yoctl/internal/context"
	"github.com/yockii/yoctl/internal/editor"
)

// AgentCronJobs groups the cron jobs of one agent.
type AgentCronJobs struct {
	Agent string        `json:"agent"`
	Jobs  []api.CronJob `json:"jobs"`
}

// CronJobsTable lists cron jobs. The AGENT column appears when more than one
// agent is shown.
func CronJobsTable(groups []AgentCronJobs, now time.Time) TableFunc {
	multi := len(groups) > 1
	return func(tw *PlainTableWriter, wide bool) {
		headers := []string{"ID", "STATUS", "SCHEDULE", "NEXT RUN", "LAST RUN"}
		if multi {
			headers = append([]string{"AGENT"}, headers...)
		}
		if wide {
			headers = append(headers, "CHANNEL", "CHAT", "DESCRIPTION")
		}
		tw.SetHeaders(headers)

		for _, g := range groups {
			for _, job := range g.Jobs {
				next := "-"
				if t, err := job.NextRunFrom(now); err != nil {
					next = "invalid schedule"
				} else if !t.IsZero() {
					next = FormatTime(t)
				}
				row := []string{job.ID, OrDash(job.Status), job.Schedule, next, job.LastRun.String()}
				if multi {
					row = append([]string{g.Agent}, row...)
				}
				if wide {
					row = append(row, OrDash(job.Channel), OrDash(job.ChatID), OrDash(Truncate(job.Description, 60)))
				}
				tw.AppendRow(row)
			}
		}
	}
}

// AgentTasks groups the tasks of one agent.
type AgentTasks struct {
	Agent string     `json:"agent"`
	Tasks []api.Task `json:"tasks"`
}

// TasksTable lists background tasks.
func TasksTable(groups []AgentTasks) TableFunc {
	multi := len(groups) > 1
	return func(tw *PlainTableWriter, wide bool) {
		headers := []string{"ID", "NAME", "STATUS", "PRIORITY", "LAST RESULT"}
		if multi {
			headers = append([]string{"AGENT"}, headers...)
		}
		if wide {
			headers = append(headers, "CHANNEL", "CHAT", "HISTORY")
		}
		tw.SetHeaders(headers)

		for _, g := range groups {
			for _, task := range g.Tasks {
				row := []string{task.ID, OrDash(task.Name), OrDash(task.Status), OrDash(task.Priority), OrDash(Truncate(task.LastResult, 40))}
				if multi {
					row = append([]string{g.Agent}, row...)
				}
				if wide {
					row = append(row, OrDash(task.Channel), OrDash(task.ChatID), strconv.Itoa(len(task.History)))
				}
				tw.AppendRow(row)
			}
		}
	}
}

// AgentSessions groups the sessions of one agent.
type AgentSessions struct {
	Agent    string        `json:"agent"`
	Sessions []api.Session `json:"sessions"`
}

// SessionsTable lists conversations with their latest message.
func SessionsTable(groups []AgentSessions, now time.Time) TableFunc {
	multi := len(groups) > 1
	return func(tw *PlainTableWriter, wide bool) {
		headers := []string{"CHANNEL", "CHAT ID", "MESSAGES", "LAST ACTIVITY", "LAST MESSAGE"}
		if multi {
			headers = append([]string{"AGENT"}, headers...)
		}
		if wide {
			headers = append(headers, "TOOL CALLS")
		}
		tw.SetHeaders(headers)

		for _, g := range groups {
			for _, s := range g.Sessions {
				age, last := "-", "-"
				if m := s.LastMessage(); m != nil {
					age = FormatAge(m.Timestamp.Time, now)
					last = fmt.Sprintf("%s: %s", m.Role, Truncate(m.Content, 50))
				}
				row := []string{OrDash(s.Channel), OrDash(s.ChatID), strconv.Itoa(len(s.Messages)), age, last}
				if multi {
					row = append([]string{g.Agent}, row...)
				}
				if wide {
					calls := 0
					for _, m := range s.Messages {
						calls += len(m.ToolCalls)
					}
					row = append(row, strconv.Itoa(calls))
				}
				tw.AppendRow(row)
			}
		}
	}
}

// SessionTranscript renders the messages of one session, oldest first.
func SessionTranscript(s api.Session) []string {
	lines := make([]string, 0, len(s.Messages))
	for _, m := range s.Messages {
		line := fmt.Sprintf("[%s] %s: %s", m.Timestamp, m.Role, m.Content)
		for _, call := range m.ToolCalls {
			line += fmt.Sprintf("\n    ↳ %s(%s)", call.Name, Truncate(call.Arguments, 80))
		}
		lines = append(lines, line)
	}
	return lines
}

// InstanceFields describes the runtime process for a detail view.
func InstanceFields(st *api.InstanceStatus) []Field {
	state := "stopped"
	if st.Running {
		state = "running"
	}
	pid := ""
	if st.PID > 0 {
		pid = strconv.Itoa(st.PID)
	}
	return []Field{
		{Key: "Status", Value: ColorStatus(state)},
		{Key: "PID", Value: pid},
		{Key: "Uptime", Value: st.Uptime},
		{Key: "Started", Value: st.StartTime.String()},
		{Key: "Auto-started", Value: FormatBool(st.AutoStarted)},
		{Key: "Executable", Value: st.Executable},
		{Key: "Config", Value: st.ConfigPath},
	}
}

// ContextsTable lists stored contexts, marking the current one.
func ContextsTable(cfg *yoctx.ContextConfig) TableFunc {
	return func(tw *PlainTableWriter, wide bool) {
		headers := []string{"CURRENT", "NAME", "ENDPOINT", "TOKEN"}
		if wide {
			headers = append(headers, "OUTPUT", "AGENT")
		}
		tw.SetHeaders(headers)

		for _, ctx := range cfg.Contexts {
			current := ""
			if ctx.Name == cfg.CurrentContext {
				current = "*"
			}
			token := "-"
			if ctx.Token != "" {
				token = "set"
			}
			row := []string{current, ctx.Name, ctx.Endpoint, token}
			if wide {
				output, agent := "-", "-"
				if ctx.Settings != nil {
					output, agent = OrDash(ctx.Settings.Output), OrDash(ctx.Settings.Agent)
				}
				row = append(row, output, agent)
			}
			tw.AppendRow(row)
		}
	}
}

// ConfigSectionTable lists the entries of one configuration section from
// the editor form. Secrets are masked unless reveal is set.
func ConfigSectionTable(form *editor.Form, section editor.Section, reveal bool) TableFunc {
	return func(tw *PlainTableWriter, wide bool) {
		blocks := form.Section(section)
		switch section {
		case editor.SectionChannels:
			headers := []string{"NAME", "TYPE", "ENABLED", "AGENT"}
			if wide {
				headers = append(headers, "DETAILS")
			}
			tw.SetHeaders(headers)
			for _, b := range blocks {
				row := []string{b.Name}
				var details []string
				for _, spec := range b.Fields() {
					v := form.Display(b, spec, reveal)
					switch spec.Key {
					case "type", "enabled", "agent":
						row = append(row, OrDash(v))
					default:
						if v != "" {
							details = append(details, spec.Key+"="+v)
						}
					}
				}
				if wide {
					row = append(row, OrDash(strings.Join(details, " ")))
				}
				tw.AppendRow(row)
			}
		default:
			kind := editor.KindAgent
			switch section {
			case editor.SectionProviders:
				kind = editor.KindProvider
			case editor.SectionSkill:
				kind = editor.KindSkill
			}
			specs := editor.SchemaFor(kind)
			headers := []string{"NAME"}
			for _, spec := range specs {
				headers = append(headers, spec.Label)
			}
			tw.SetHeaders(headers)
			for _, b := range blocks {
				row := []string{b.Name}
				for _, spec := range specs {
					row = append(row, OrDash(form.Display(b, spec, reveal)))
				}
				tw.AppendRow(row)
			}
		}
	}
}

// BlockFields describes one form block for a detail view.
func BlockFields(form *editor.Form, b *editor.Block, reveal bool) []Field {
	specs := b.Fields()
	fields := make([]Field, 0, len(specs))
	for _, spec := range specs {
		fields = append(fields, Field{Key: spec.Label, Value: form.Display(b, spec, reveal)})
	}
	return fields
}
