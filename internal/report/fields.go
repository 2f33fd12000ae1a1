package report

import (
	"strings"

	"github.com/ppiankov/hollowspectre/internal/scan"
)

const (
	ruleWidth    = 60
	timeLayout   = "2006-01-02 15:04:05-07:00"
	ECRFileName  = "empty_ecr_repositories.txt"
	S3FileName   = "empty_s3_buckets.txt"
	ecrTitle     = "Empty ECR Repositories"
	s3Title      = "Empty S3 Buckets"
	ecrToolTitle = "AWS ECR Empty Repository Finder"
	s3ToolTitle  = "AWS S3 Empty Bucket Finder"
)

// Field is one "key: value" line of a resource block.
type Field struct {
	Key   string
	Value string
}

// Fields returns the attributes printed for an empty resource, in order.
func Fields(r scan.Resource) []Field {
	created := ""
	if !r.CreatedAt.IsZero() {
		created = r.CreatedAt.Format(timeLayout)
	}

	if r.Kind == scan.KindBucket {
		return []Field{
			{"Bucket Name", r.Name},
			{"Region", r.Region},
			{"Created At", created},
		}
	}

	fields := []Field{
		{"Repository Name", r.Name},
		{"ARN", r.ARN},
		{"URI", r.URI},
	}
	if r.Region != "" {
		fields = append(fields, Field{"Region", r.Region})
	}
	return append(fields, Field{"Created At", created})
}

// DefaultFileName returns the fixed report path for a kind.
func DefaultFileName(kind scan.Kind) string {
	if kind == scan.KindBucket {
		return S3FileName
	}
	return ECRFileName
}

// ToolTitle returns the banner shown at the top of a scan.
func ToolTitle(kind scan.Kind) string {
	if kind == scan.KindBucket {
		return s3ToolTitle
	}
	return ecrToolTitle
}

func fileTitle(kind scan.Kind) string {
	if kind == scan.KindBucket {
		return s3Title
	}
	return ecrTitle
}

func detailsHeading(kind scan.Kind) string {
	if kind == scan.KindBucket {
		return "Empty Buckets Details:"
	}
	return "Empty Repositories Details:"
}

func rule(ch string) string {
	return strings.Repeat(ch, ruleWidth)
}
