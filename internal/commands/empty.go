package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/ppiankov/hollowspectre/internal/baseline"
	"github.com/ppiankov/hollowspectre/internal/report"
	"github.com/ppiankov/hollowspectre/internal/scan"
	"golang.org/x/term"
)

// emptyFlags are shared by "ecr empty" and "s3 empty".
type emptyFlags struct {
	outputFormat string
	outputFile   string
	noFile       bool
	noProgress   bool
	baselinePath string
	timeout      time.Duration
}

// emptyJob is one empty-resource run across one or more scanners.
type emptyJob struct {
	kind        scan.Kind
	scanners    []*scan.Scanner
	regions     []string
	profile     string
	accountID   string
	flags       emptyFlags
	fileDefault string
}

// reportPath returns where the text report goes.
func (j emptyJob) reportPath() string {
	if j.flags.outputFile != "" {
		return j.flags.outputFile
	}
	if j.fileDefault != "" {
		return j.fileDefault
	}
	return report.DefaultFileName(j.kind)
}

// runEmptyJob scans, prints the report, and writes the report file. Scan
// and file failures are logged, never returned; only bad CLI input is.
func runEmptyJob(ctx context.Context, out, errOut io.Writer, job emptyJob) error {
	reporter, err := selectReporter(job.flags.outputFormat, out)
	if err != nil {
		return err
	}

	progress := progressWriter(job.flags, out, errOut)
	if progress != nil {
		report.Banner(progress, report.ToolTitle(job.kind))
	}

	start := time.Now()
	results := make([]scan.Result, 0, len(job.scanners))
	for _, s := range job.scanners {
		s.Progress = progress
		results = append(results, s.Run(ctx))
	}

	summary, empty, failures := report.FromResults(results...)
	data := report.Data{
		Tool:      toolName,
		Version:   GetVersion(),
		Timestamp: time.Now(),
		Kind:      job.kind,
		Config: report.Config{
			AWSProfile: job.profile,
			AccountID:  job.accountID,
			Regions:    job.regions,
		},
		Summary:  summary,
		Empty:    empty,
		Failures: failures,
	}

	if err := reporter.Generate(data); err != nil {
		slog.Warn("Failed to render report", "error", err)
	}

	if len(empty) > 0 && !job.flags.noFile {
		path := job.reportPath()
		if err := report.WriteFile(path, data); err != nil {
			slog.Warn("Failed to save report", "path", path, "error", err)
		} else if progress != nil {
			fmt.Fprintf(progress, "\nResults saved to: %s\n", path)
		}
	}

	if job.flags.baselinePath != "" {
		compareBaseline(progress, data, job.flags.baselinePath)
	}

	slog.Info("Scan complete",
		slog.String("kind", string(job.kind)),
		slog.Int("total", summary.Total),
		slog.Int("empty", summary.Empty),
		slog.Int("unknown", summary.Unknown),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// progressWriter picks the stream for progress lines. Text output shares
// stdout; machine formats keep stdout clean and only print progress to an
// interactive stderr.
func progressWriter(flags emptyFlags, out, errOut io.Writer) io.Writer {
	if flags.noProgress {
		return nil
	}
	if flags.outputFormat == "text" {
		return out
	}
	if f, ok := errOut.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return errOut
	}
	return nil
}

func compareBaseline(w io.Writer, data report.Data, path string) {
	previous, err := baseline.Load(path)
	if err != nil {
		slog.Warn("Failed to load baseline", "path", path, "error", err)
		return
	}
	diff := baseline.Diff(baseline.Flatten(data), previous)
	slog.Info("Baseline comparison",
		slog.Int("new", len(diff.New)),
		slog.Int("resolved", len(diff.Resolved)),
		slog.Int("unchanged", len(diff.Unchanged)),
	)
	if w == nil {
		return
	}

	fmt.Fprintf(w, "\nBaseline: %d new, %d resolved, %d unchanged\n", len(diff.New), len(diff.Resolved), len(diff.Unchanged))
	for _, f := range diff.New {
		fmt.Fprintf(w, "  %s %s\n", color.YellowString("[NEW]"), f.Name)
	}
	for _, f := range diff.Resolved {
		fmt.Fprintf(w, "  %s %s\n", color.GreenString("[RESOLVED]"), f.Name)
	}
}
