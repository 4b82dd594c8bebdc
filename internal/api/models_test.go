package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected time.Time
		rawText  string
		zero     bool
	}{
		{name: "null", raw: `null`, zero: true},
		{name: "empty string", raw: `""`, zero: true},
		{name: "epoch milliseconds", raw: `1700000000000`, expected: time.UnixMilli(1700000000000)},
		{name: "numeric string", raw: `"1700000000000"`, expected: time.UnixMilli(1700000000000)},
		{name: "rfc3339", raw: `"2024-05-01T10:00:00Z"`, expected: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{name: "space separated", raw: `"2024-05-01 10:00:00"`, expected: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{name: "go zero time", raw: `"0001-01-01T00:00:00Z"`, zero: true},
		{name: "unparseable is kept", raw: `"yesterday"`, rawText: "yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &ts))
			if tt.zero {
				assert.True(t, ts.IsZero())
				assert.Equal(t, "-", ts.String())
				return
			}
			if tt.rawText != "" {
				assert.Equal(t, tt.rawText, ts.Raw)
				assert.Equal(t, tt.rawText, ts.String())
				return
			}
			assert.True(t, tt.expected.Equal(ts.Time), "got %v", ts.Time)
		})
	}
}

func TestTimestamp_UnmarshalInvalidNumber(t *testing.T) {
	var ts Timestamp
	assert.Error(t, ts.UnmarshalJSON([]byte(`tru`)))
}

func TestTimestamp_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	data, err = json.Marshal(Timestamp{Raw: "soon"})
	require.NoError(t, err)
	assert.Equal(t, `"soon"`, string(data))

	data, err = json.Marshal(Timestamp{Time: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, `"2024-05-01T10:00:00Z"`, string(data))
}

func TestCronJob_NextRunFrom(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

	t.Run("computed from five-field schedule", func(t *testing.T) {
		next, err := CronJob{Status: CronRunning, Schedule: "0 9 * * *"}.NextRunFrom(now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), next)
	})

	t.Run("computed from six-field schedule", func(t *testing.T) {
		next, err := CronJob{Schedule: "30 * * * * *"}.NextRunFrom(now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 5, 1, 8, 30, 30, 0, time.UTC), next)
	})

	t.Run("descriptor", func(t *testing.T) {
		next, err := CronJob{Schedule: "@hourly"}.NextRunFrom(now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), next)
	})

	t.Run("manager value wins", func(t *testing.T) {
		reported := time.UnixMilli(1700000000000)
		next, err := CronJob{Schedule: "0 9 * * *", NextRun: Timestamp{Time: reported}}.NextRunFrom(now)
		require.NoError(t, err)
		assert.Equal(t, reported, next)
	})

	t.Run("paused job has no next run", func(t *testing.T) {
		next, err := CronJob{Status: CronPaused, Schedule: "0 9 * * *"}.NextRunFrom(now)
		require.NoError(t, err)
		assert.True(t, next.IsZero())
	})

	t.Run("invalid schedule", func(t *testing.T) {
		_, err := CronJob{Schedule: "every day"}.NextRunFrom(now)
		assert.Error(t, err)
	})
}

func TestAction_IsValid(t *testing.T) {
	assert.True(t, ActionStart.IsValid())
	assert.True(t, ActionStop.IsValid())
	assert.True(t, ActionRestart.IsValid())
	assert.False(t, Action("kill").IsValid())
}

func TestSession_LastMessage(t *testing.T) {
	assert.Nil(t, Session{}.LastMessage())
	s := Session{Messages: []Message{{Content: "a"}, {Content: "b"}}}
	assert.Equal(t, "b", s.LastMessage().Content)
}
