package report

import (
	"encoding/json"
	"io"
)

// JSONReporter writes reports as indented JSON with UTC timestamps.
type JSONReporter struct {
	writer io.Writer
}

// NewJSONReporter creates a new JSON reporter
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{writer: w}
}

func (r *JSONReporter) Generate(data Data) error {
	data.Timestamp = data.Timestamp.UTC()
	return r.encode(data)
}

func (r *JSONReporter) GenerateSize(data SizeData) error {
	data.Timestamp = data.Timestamp.UTC()
	return r.encode(data)
}

func (r *JSONReporter) encode(v any) error {
	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
