package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/bitcode/asynctask/internal/config"
	"github.com/bitcode/asynctask/internal/events"
	"github.com/bitcode/asynctask/internal/task"
)

type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

func parseFormat(name string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(name)); f {
	case formatText, formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", name)
	}
}

// Report is the outcome of a demo run
type Report struct {
	Config    config.Config           `json:"config" yaml:"config"`
	Scenarios []ScenarioReport        `json:"scenarios" yaml:"scenarios"`
	Events    []events.LifecycleEvent `json:"events" yaml:"events"`
}

// ScenarioReport describes one scenario and the tasks it ran
type ScenarioReport struct {
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
	Tasks       []TaskReport `json:"tasks" yaml:"tasks"`
	Indicator   []string     `json:"indicator,omitempty" yaml:"indicator,omitempty"`
}

// TaskReport is the final state of a single task
type TaskReport struct {
	ID        uuid.UUID      `json:"id" yaml:"id"`
	Name      string         `json:"name" yaml:"name"`
	State     task.State     `json:"state" yaml:"state"`
	Cancelled bool           `json:"cancelled" yaml:"cancelled"`
	Result    int            `json:"result" yaml:"result"`
	Error     string         `json:"error,omitempty" yaml:"error,omitempty"`
	Escalated string         `json:"escalated,omitempty" yaml:"escalated,omitempty"`
	Points    []events.Point `json:"points" yaml:"points"`
}

func (app *application) buildReport(runs []scenarioRun) *Report {
	report := &Report{
		Config:    *app.config,
		Scenarios: make([]ScenarioReport, 0, len(runs)),
		Events:    app.recorder.Events(),
	}

	for _, r := range runs {
		sr := ScenarioReport{
			Name:        r.scenario.name,
			Description: r.scenario.description,
			Tasks:       make([]TaskReport, 0, len(r.tasks)),
		}
		if r.indicator != nil {
			sr.Indicator = r.indicator.Calls()
		}

		for _, t := range r.tasks {
			result, err := t.Result()
			tr := TaskReport{
				ID:        t.ID(),
				Name:      t.Name(),
				State:     t.State(),
				Cancelled: t.Cancelled(),
				Result:    result,
				Escalated: app.escalation(t.ID()),
				Points:    app.recorder.Points(t.ID()),
			}
			if err != nil {
				tr.Error = err.Error()
			}
			sr.Tasks = append(sr.Tasks, tr)
		}

		report.Scenarios = append(report.Scenarios, sr)
	}

	return report
}

// writeReport encodes report to w in the given format
func writeReport(w io.Writer, report *Report, format outputFormat) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report as json: %w", err)
		}
		return nil
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report as yaml: %w", err)
		}
		return enc.Close()
	default:
		return writeText(w, report)
	}
}

func writeText(w io.Writer, report *Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "workers=%d queue_size=%d\n",
		report.Config.Pool.WorkerCount, report.Config.Pool.QueueSize)

	for _, sr := range report.Scenarios {
		fmt.Fprintf(&b, "\n%s: %s\n", sr.Name, sr.Description)
		for _, tr := range sr.Tasks {
			fmt.Fprintf(&b, "  %-16s %-10s result=%d points=%s\n",
				tr.Name, tr.State, tr.Result, joinPoints(tr.Points))
			if tr.Error != "" {
				fmt.Fprintf(&b, "  %-16s error: %s\n", "", tr.Error)
			}
			if tr.Escalated != "" {
				fmt.Fprintf(&b, "  %-16s escalated: %s\n", "", tr.Escalated)
			}
		}
		if len(sr.Indicator) > 0 {
			fmt.Fprintf(&b, "  indicator: %s\n", strings.Join(sr.Indicator, ", "))
		}
	}

	fmt.Fprintf(&b, "\n%d lifecycle events recorded\n", len(report.Events))

	_, err := io.WriteString(w, b.String())
	return err
}

func joinPoints(points []events.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = string(p)
	}
	return strings.Join(parts, ",")
}
