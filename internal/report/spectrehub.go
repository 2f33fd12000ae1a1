package report

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/hollowspectre/internal/scan"
)

// spectre/v1 envelope types

type spectreEnvelope struct {
	Schema    string           `json:"schema"`
	Tool      string           `json:"tool"`
	Version   string           `json:"version"`
	Timestamp string           `json:"timestamp"`
	Target    spectreTarget    `json:"target"`
	Findings  []spectreFinding `json:"findings"`
	Summary   spectreSummary   `json:"summary"`
}

type spectreTarget struct {
	Type    string `json:"type"`
	URIHash string `json:"uri_hash"`
}

type spectreFinding struct {
	ID       string         `json:"id"`
	Severity string         `json:"severity"`
	Location string         `json:"location"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type spectreSummary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Info   int `json:"info"`
}

// HashTarget produces a sha256 hash of the account and regions for target identification.
func HashTarget(account string, regions []string) string {
	input := account + ":" + strings.Join(regions, ",")
	h := sha256.Sum256([]byte(input))
	return fmt.Sprintf("sha256:%x", h)
}

// SpectreHubReporter generates spectre/v1 JSON envelope output.
type SpectreHubReporter struct {
	writer io.Writer
}

// NewSpectreHubReporter creates a new SpectreHub reporter.
func NewSpectreHubReporter(w io.Writer) *SpectreHubReporter {
	return &SpectreHubReporter{writer: w}
}

// Generate writes one low-severity finding per empty resource and one info
// finding per resource that could not be checked.
func (r *SpectreHubReporter) Generate(data Data) error {
	envelope := spectreEnvelope{
		Schema:    "spectre/v1",
		Tool:      data.Tool,
		Version:   data.Version,
		Timestamp: data.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		Target: spectreTarget{
			Type:    targetType(data.Kind),
			URIHash: HashTarget(data.Config.AccountID, data.Config.Regions),
		},
		Findings: []spectreFinding{},
	}

	for _, res := range data.Empty {
		location := res.ARN
		if location == "" {
			location = res.Name
		}
		meta := map[string]any{"name": res.Name}
		if res.Region != "" {
			meta["region"] = res.Region
		}
		if !res.CreatedAt.IsZero() {
			meta["created_at"] = res.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		envelope.Findings = append(envelope.Findings, spectreFinding{
			ID:       emptyFindingID(data.Kind),
			Severity: "low",
			Location: location,
			Message:  fmt.Sprintf("%s %s contains no items", data.Kind, res.Name),
			Metadata: meta,
		})
		countSeverity(&envelope.Summary, "low")
	}

	for _, f := range data.Failures {
		envelope.Findings = append(envelope.Findings, spectreFinding{
			ID:       "UNCHECKED_" + strings.ToUpper(string(data.Kind)),
			Severity: "info",
			Location: f.Name,
			Message:  f.Error,
		})
		countSeverity(&envelope.Summary, "info")
	}

	envelope.Summary.Total = len(envelope.Findings)

	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(envelope)
}

func targetType(kind scan.Kind) string {
	if kind == scan.KindBucket {
		return "s3"
	}
	return "ecr"
}

func emptyFindingID(kind scan.Kind) string {
	if kind == scan.KindBucket {
		return "EMPTY_BUCKET"
	}
	return "EMPTY_REPOSITORY"
}

func countSeverity(s *spectreSummary, severity string) {
	switch severity {
	case "high":
		s.High++
	case "medium":
		s.Medium++
	case "low":
		s.Low++
	case "info":
		s.Info++
	}
}
