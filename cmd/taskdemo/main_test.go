package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// isolate clears ASYNCTASK_ variables and restores the default logger,
// which run replaces
func isolate(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"ASYNCTASK_POOL_WORKER_COUNT",
		"ASYNCTASK_POOL_QUEUE_SIZE",
		"ASYNCTASK_LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })
}

func TestRun_Text(t *testing.T) {
	isolate(t)
	var out bytes.Buffer

	err := run([]string{"--workers=2", "--queue-size=4", "--burst=3", "--log-level=error"}, &out)

	require.NoError(t, err)
	text := out.String()
	assert.Contains(t, text, "workers=2 queue_size=4")
	assert.Contains(t, text, "points=start,finish,finalize")
	assert.Contains(t, text, "escalated: task unobserved")
	assert.Contains(t, text, "indicator: show(cancelable=true), dismiss, hide")
}

func TestRun_JSON(t *testing.T) {
	isolate(t)
	var out bytes.Buffer

	err := run([]string{"--workers=1", "--burst=2", "--format=json", "--log-level=error"}, &out)
	require.NoError(t, err)

	var decoded struct {
		Config struct {
			Pool struct {
				WorkerCount int `json:"worker_count"`
			} `json:"pool"`
		} `json:"config"`
		Scenarios []struct {
			Name  string `json:"name"`
			Tasks []struct {
				State  string   `json:"state"`
				Points []string `json:"points"`
			} `json:"tasks"`
		} `json:"scenarios"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))

	assert.Equal(t, 1, decoded.Config.Pool.WorkerCount)
	require.NotEmpty(t, decoded.Scenarios)
	assert.Equal(t, "success", decoded.Scenarios[0].Name)
	assert.Equal(t, "finalized", decoded.Scenarios[0].Tasks[0].State)
	assert.Equal(t, []string{"start", "finish", "finalize"}, decoded.Scenarios[0].Tasks[0].Points)
}

func TestRun_YAML(t *testing.T) {
	isolate(t)
	var out bytes.Buffer

	err := run([]string{"--burst=1", "--format=yaml", "--log-level=error"}, &out)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	assert.Contains(t, decoded, "scenarios")
	assert.Contains(t, decoded, "events")
	assert.Contains(t, out.String(), "state: finalized")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		errorSubstring string
	}{
		{name: "unknown format", args: []string{"--format=xml"}, errorSubstring: "unknown output format"},
		{name: "zero burst", args: []string{"--burst=0"}, errorSubstring: "burst must be positive"},
		{name: "invalid workers", args: []string{"--workers=0"}, errorSubstring: "failed to load configuration"},
		{name: "unknown flag", args: []string{"--frobnicate"}, errorSubstring: "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			err := run(tt.args, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorSubstring)
		})
	}

	t.Run("help", func(t *testing.T) {
		err := run([]string{"--help"}, &bytes.Buffer{})
		assert.ErrorIs(t, err, pflag.ErrHelp)
	})
}
