package scan

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
)

// Enumerator lists every resource of one kind, following pagination to the end.
// A failed page must fail the whole call.
type Enumerator interface {
	Enumerate(ctx context.Context) ([]Resource, error)
}

// Prober runs a bounded existence check against a single resource.
type Prober interface {
	Probe(ctx context.Context, r Resource) (Classification, error)
}

// Annotator enriches a resource that was classified Empty, for example with
// its region. It must not fail the scan.
type Annotator interface {
	Annotate(ctx context.Context, r *Resource)
}

// Scanner walks resources sequentially, one probe at a time.
type Scanner struct {
	Kind       Kind
	Label      string
	Enumerator Enumerator
	Prober     Prober
	Annotator  Annotator
	Exclude    []string
	Progress   io.Writer
}

// Run enumerates, probes and aggregates. It never returns an error: listing
// failures are logged and surface as an empty Result with EnumerationErr set.
func (s *Scanner) Run(ctx context.Context) Result {
	result := Result{Kind: s.Kind, Empty: []Resource{}}

	s.printf("Fetching all %s...\n", s.Label)
	resources, err := s.Enumerator.Enumerate(ctx)
	if err != nil {
		slog.Warn("Failed to list resources", "kind", string(s.Kind), "error", err)
		s.printf("Error fetching %s: %v\n", s.Kind.Plural(), err)
		result.EnumerationErr = err
		return result
	}

	resources, result.Skipped = s.filter(resources)
	if len(resources) == 0 {
		s.printf("No %s found.\n", s.Kind.Plural())
		return result
	}

	s.printf("Found %d %s. Checking for empty ones...\n\n", len(resources), s.Kind.Plural())

	for _, r := range resources {
		result.Total++

		class, err := s.Prober.Probe(ctx, r)
		if err != nil {
			class = Unknown
		}

		switch class {
		case Empty:
			if s.Annotator != nil {
				s.Annotator.Annotate(ctx, &r)
			}
			result.Empty = append(result.Empty, r)
			if r.Region != "" {
				s.printf("%s %s (Region: %s)\n", color.YellowString("[EMPTY]"), r.Name, r.Region)
			} else {
				s.printf("%s %s\n", color.YellowString("[EMPTY]"), r.Name)
			}
		case NotEmpty:
			result.NotEmpty++
			s.printf("%s %s\n", color.GreenString("[NOT EMPTY]"), r.Name)
		default:
			result.Unknown++
			msg := "probe returned no classification"
			if err != nil {
				msg = err.Error()
			}
			slog.Warn("Failed to check resource", "kind", string(s.Kind), "resource", r.Name, "error", msg)
			result.Failures = append(result.Failures, Failure{Name: r.Name, Error: msg})
			s.printf("%s %s\n", color.RedString("[UNKNOWN]"), r.Name)
		}
	}

	return result
}

func (s *Scanner) filter(resources []Resource) ([]Resource, int) {
	if len(s.Exclude) == 0 {
		return resources, 0
	}
	excluded := make(map[string]bool, len(s.Exclude))
	for _, name := range s.Exclude {
		excluded[name] = true
	}

	kept := make([]Resource, 0, len(resources))
	skipped := 0
	for _, r := range resources {
		if excluded[r.Name] {
			slog.Debug("Skipping excluded resource", "resource", r.Name)
			skipped++
			continue
		}
		kept = append(kept, r)
	}
	return kept, skipped
}

func (s *Scanner) printf(format string, args ...any) {
	if s.Progress == nil {
		return
	}
	fmt.Fprintf(s.Progress, format, args...)
}
