package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const sizeRuleWidth = 50

// TextReporter generates human-readable text reports
type TextReporter struct {
	writer io.Writer
}

// NewTextReporter creates a new text reporter
func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{writer: w}
}

// Banner prints the header shown before a scan starts.
func Banner(w io.Writer, title string) {
	fmt.Fprintf(w, "%s\n%s\n%s\n\n", rule("="), title, rule("="))
}

// Generate prints the summary line followed by one block per empty resource.
func (r *TextReporter) Generate(data Data) error {
	fmt.Fprintf(r.writer, "\n%s\n", rule("="))
	fmt.Fprintf(r.writer, "Summary: Found %d empty %s\n", data.Summary.Empty, data.Kind.Plural())
	fmt.Fprintf(r.writer, "%s\n", rule("="))

	if data.Summary.Unknown > 0 || data.Summary.Skipped > 0 {
		fmt.Fprintf(r.writer, "Checked: %d, not empty: %d, %s: %d, skipped: %d\n",
			data.Summary.Total, data.Summary.NotEmpty,
			color.RedString("unknown"), data.Summary.Unknown, data.Summary.Skipped)
	}

	if len(data.Empty) == 0 {
		return nil
	}

	fmt.Fprintf(r.writer, "\n%s\n", detailsHeading(data.Kind))
	for _, res := range data.Empty {
		fmt.Fprintf(r.writer, "\n")
		for _, field := range Fields(res) {
			fmt.Fprintf(r.writer, "%s: %s\n", field.Key, field.Value)
		}
	}
	return nil
}

// GenerateSize prints a bucket size report. The object count and byte total
// only cover the first page of results.
func (r *TextReporter) GenerateSize(data SizeData) error {
	p := message.NewPrinter(language.English)
	rep := data.Report
	line := strings.Repeat("=", sizeRuleWidth)

	fmt.Fprintf(r.writer, "\n%s\n", line)
	fmt.Fprintf(r.writer, "Bucket: %s\n", rep.Bucket)
	fmt.Fprintf(r.writer, "%s\n", line)
	p.Fprintf(r.writer, "Total Objects: %d\n", rep.Objects)
	fmt.Fprintf(r.writer, "Total Size: %s\n", data.Human)
	p.Fprintf(r.writer, "  - %d bytes\n", rep.Bytes)
	fmt.Fprintf(r.writer, "  - %.2f MB\n", rep.Megabytes())
	fmt.Fprintf(r.writer, "  - %.2f GB\n", rep.Gigabytes())
	if rep.Truncated {
		fmt.Fprintf(r.writer, "%s\n", color.YellowString("More objects exist beyond the first page; totals are partial."))
	}
	fmt.Fprintf(r.writer, "%s\n", line)
	return nil
}
