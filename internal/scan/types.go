package scan

import "time"

// Kind identifies the family of resources a scan walks.
type Kind string

const (
	KindRepository Kind = "repository"
	KindBucket     Kind = "bucket"
)

// Plural returns the noun used in summary lines.
func (k Kind) Plural() string {
	switch k {
	case KindRepository:
		return "repositories"
	case KindBucket:
		return "buckets"
	default:
		return string(k) + "s"
	}
}

// Resource is one enumerated cloud object. Values are not mutated after
// enumeration except for Region, which the bucket workflow fills in.
type Resource struct {
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	ARN       string    `json:"arn,omitempty"`
	URI       string    `json:"uri,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Region    string    `json:"region,omitempty"`
}

// Classification is the outcome of probing one resource.
type Classification int

const (
	Unknown Classification = iota
	Empty
	NotEmpty
)

func (c Classification) String() string {
	switch c {
	case Empty:
		return "EMPTY"
	case NotEmpty:
		return "NOT EMPTY"
	default:
		return "UNKNOWN"
	}
}

// Failure records a probe that could not classify a resource.
type Failure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Result is the outcome of a full scan.
type Result struct {
	Kind     Kind       `json:"kind"`
	Total    int        `json:"total"`
	Empty    []Resource `json:"empty"`
	NotEmpty int        `json:"not_empty"`
	Unknown  int        `json:"unknown"`
	Skipped  int        `json:"skipped,omitempty"`
	Failures []Failure  `json:"failures,omitempty"`

	// EnumerationErr is set when listing failed; the result is then empty.
	EnumerationErr error `json:"-"`
}

// EmptyCount returns the number of resources classified Empty.
func (r Result) EmptyCount() int {
	return len(r.Empty)
}
