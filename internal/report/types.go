package report

import (
	"time"

	"github.com/ppiankov/hollowspectre/internal/s3"
	"github.com/ppiankov/hollowspectre/internal/scan"
)

// Reporter renders the outcome of an empty-resource scan.
type Reporter interface {
	Generate(data Data) error
}

// SizeReporter renders a bucket size report.
type SizeReporter interface {
	GenerateSize(data SizeData) error
}

// Data contains all report data for one scan
type Data struct {
	Tool      string          `json:"tool"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      scan.Kind       `json:"kind"`
	Config    Config          `json:"config"`
	Summary   Summary         `json:"summary"`
	Empty     []scan.Resource `json:"empty"`
	Failures  []scan.Failure  `json:"failures,omitempty"`
}

// Config records where the scan ran
type Config struct {
	AWSProfile string   `json:"aws_profile,omitempty"`
	AccountID  string   `json:"account_id,omitempty"`
	Regions    []string `json:"regions,omitempty"`
}

// Summary holds the classification tallies.
type Summary struct {
	Total    int `json:"total"`
	Empty    int `json:"empty"`
	NotEmpty int `json:"not_empty"`
	Unknown  int `json:"unknown"`
	Skipped  int `json:"skipped,omitempty"`
}

// SizeData contains a bucket size report
type SizeData struct {
	Tool      string        `json:"tool"`
	Version   string        `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
	Report    s3.SizeReport `json:"report"`
	Human     string        `json:"human"`
}

// FromResults merges per-region scan results, keeping region order.
func FromResults(results ...scan.Result) (Summary, []scan.Resource, []scan.Failure) {
	var summary Summary
	empty := []scan.Resource{}
	var failures []scan.Failure

	for _, r := range results {
		summary.Total += r.Total
		summary.Empty += r.EmptyCount()
		summary.NotEmpty += r.NotEmpty
		summary.Unknown += r.Unknown
		summary.Skipped += r.Skipped
		empty = append(empty, r.Empty...)
		failures = append(failures, r.Failures...)
	}
	return summary, empty, failures
}
