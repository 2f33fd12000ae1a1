package baseline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/hollowspectre/internal/report"
	"github.com/ppiankov/hollowspectre/internal/scan"
)

// Finding is one empty resource, comparable across runs.
type Finding struct {
	Kind   scan.Kind `json:"kind"`
	Name   string    `json:"name"`
	Region string    `json:"region,omitempty"`
}

func (f Finding) key() string {
	return fmt.Sprintf("%s|%s|%s", f.Kind, f.Name, f.Region)
}

// DiffResult holds the outcome of comparing current findings against a baseline.
type DiffResult struct {
	New       []Finding
	Resolved  []Finding
	Unchanged []Finding
}

// Flatten converts a report into its finding list, in report order.
func Flatten(data report.Data) []Finding {
	findings := make([]Finding, 0, len(data.Empty))
	for _, r := range data.Empty {
		kind := r.Kind
		if kind == "" {
			kind = data.Kind
		}
		findings = append(findings, Finding{Kind: kind, Name: r.Name, Region: r.Region})
	}
	return findings
}

// Load reads a previous JSON report and extracts its findings.
func Load(path string) ([]Finding, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read baseline: %w", err)
	}
	var data report.Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse baseline: %w", err)
	}
	return Flatten(data), nil
}

// Diff compares current findings against a baseline.
func Diff(current, baseline []Finding) DiffResult {
	baseMap := make(map[string]struct{}, len(baseline))
	for _, f := range baseline {
		baseMap[f.key()] = struct{}{}
	}
	curMap := make(map[string]struct{}, len(current))
	for _, f := range current {
		curMap[f.key()] = struct{}{}
	}

	var result DiffResult
	for _, f := range current {
		if _, exists := baseMap[f.key()]; exists {
			result.Unchanged = append(result.Unchanged, f)
		} else {
			result.New = append(result.New, f)
		}
	}
	for _, f := range baseline {
		if _, exists := curMap[f.key()]; !exists {
			result.Resolved = append(result.Resolved, f)
		}
	}
	return result
}
