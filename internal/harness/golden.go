package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/apphost/internal/event"
)

// Snapshot renders a result as canonical JSON lines: a header naming the
// scenario and host, one line per trace event, and a footer with the
// final lifecycle state and phase. Every line ends in a newline.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	var buf bytes.Buffer

	lines := make([]map[string]any, 0, len(result.Trace)+2)
	lines = append(lines, map[string]any{
		"host_id":       result.HostID,
		"scenario_name": scenarioName,
	})
	for _, ev := range result.Trace {
		line, err := traceLine(ev)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	lines = append(lines, map[string]any{
		"final_state": result.FinalState,
		"phase":       result.Phase,
	})

	for _, line := range lines {
		data, err := event.MarshalCanonical(line)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// traceLine decodes the stored payload so it nests as an object rather
// than as an escaped string.
func traceLine(ev TraceEvent) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(ev.Payload)))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("event %d: decode payload: %w", ev.ID, err)
	}

	line := map[string]any{"event": payload}
	if ev.Delivered > 0 {
		line["delivered"] = ev.Delivered
	}
	if ev.Ack != "" {
		line["ack"] = ev.Ack
	}
	return line, nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshot)

	return nil
}
