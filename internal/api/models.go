package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Action is an instance control verb.
type Action string

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
)

// IsValid reports whether a is one of start, stop or restart.
func (a Action) IsValid() bool {
	return a == ActionStart || a == ActionStop || a == ActionRestart
}

// Timestamp accepts the timestamp encodings the manager emits: epoch
// milliseconds as a number, RFC 3339 strings, and numeric strings. Strings
// it cannot parse are kept verbatim in Raw.
type Timestamp struct {
	time.Time
	Raw string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*t = Timestamp{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] != '"' {
		ms, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid timestamp %s: %w", data, err)
		}
		if ms != 0 {
			t.Time = time.UnixMilli(int64(ms))
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		t.Time = time.UnixMilli(ms)
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Raw = s
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	switch {
	case !t.Time.IsZero():
		return json.Marshal(t.Time.Format(time.RFC3339Nano))
	case t.Raw != "":
		return json.Marshal(t.Raw)
	default:
		return []byte("null"), nil
	}
}

// IsZero reports whether the timestamp carries no information.
func (t Timestamp) IsZero() bool {
	return t.Time.IsZero() && t.Raw == ""
}

// String formats the timestamp for display in local time, or "-".
func (t Timestamp) String() string {
	switch {
	case !t.Time.IsZero():
		return t.Time.Local().Format("2006-01-02 15:04:05")
	case t.Raw != "":
		return t.Raw
	default:
		return "-"
	}
}

// CronJob is a scheduled job of an agent.
type CronJob struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Schedule    string    `json:"schedule"`
	Description string    `json:"description,omitempty"`
	Channel     string    `json:"channel,omitempty"`
	ChatID      string    `json:"chat_id,omitempty"`
	LastRun     Timestamp `json:"last_run"`
	NextRun     Timestamp `json:"next_run"`
	CreatedAt   Timestamp `json:"created_at"`
	UpdatedAt   Timestamp `json:"updated_at"`
}

// Cron job statuses.
const (
	CronRunning = "running"
	CronPaused  = "paused"
	CronStopped = "stopped"
)

var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NextRunFrom returns the job's next run. The manager's value wins when it
// reports one; otherwise it is computed from the schedule. Jobs that are not
// running have no next run.
func (j CronJob) NextRunFrom(now time.Time) (time.Time, error) {
	if j.Status != "" && j.Status != CronRunning {
		return time.Time{}, nil
	}
	if !j.NextRun.Time.IsZero() {
		return j.NextRun.Time, nil
	}
	sched, err := scheduleParser.Parse(j.Schedule)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule %q: %w", j.Schedule, err)
	}
	return sched.Next(now), nil
}

// Message is one entry of a session or task history.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp Timestamp  `json:"timestamp"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a tool invocation recorded in a message.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result,omitempty"`
}

// Task is a background task of an agent.
type Task struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	LastResult  string    `json:"last_result"`
	Channel     string    `json:"channel"`
	ChatID      string    `json:"chat_id"`
	History     []Message `json:"history,omitempty"`
}

// Session is one conversation on a channel.
type Session struct {
	ChatID   string    `json:"chat_id"`
	Channel  string    `json:"channel"`
	Messages []Message `json:"messages"`
}

// LastMessage returns the most recent message, or nil.
func (s Session) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// InstanceStatus describes the runtime process.
type InstanceStatus struct {
	Running     bool      `json:"running"`
	PID         int       `json:"pid,omitempty"`
	Executable  string    `json:"executable,omitempty"`
	ConfigPath  string    `json:"config_path,omitempty"`
	StartTime   Timestamp `json:"start_time"`
	Uptime      string    `json:"uptime,omitempty"`
	AutoStarted bool      `json:"auto_started"`
}
