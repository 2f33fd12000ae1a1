package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ppiankov/hollowspectre/internal/config"
	"github.com/ppiankov/hollowspectre/internal/report"
	"github.com/ppiankov/hollowspectre/internal/session"
)

func printStatus(format string, args ...interface{}) {
	slog.Info(fmt.Sprintf(format, args...))
}

// enhanceError enhances an error with additional context and helpful suggestions
func enhanceError(operation string, err error) error {
	if err == nil {
		return nil
	}

	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		return err
	}

	errMsg := err.Error()
	var reqErr *session.RequestError
	if errors.As(err, &reqErr) {
		errMsg = reqErr.Describe()
	}

	if strings.Contains(errMsg, "NoCredentialProviders") || strings.Contains(errMsg, "no valid credentials") ||
		strings.Contains(errMsg, "failed to retrieve credentials") {
		return fmt.Errorf("%s failed: No AWS credentials found.\n"+
			"Solutions:\n"+
			"  - Add AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY to your .env file\n"+
			"  - Set AWS_PROFILE or use --profile\n"+
			"  - Configure AWS credentials with 'aws configure'\n"+
			"Original error: %w", operation, err)
	}

	if strings.Contains(errMsg, "AccessDenied") || strings.Contains(errMsg, "Access Denied") {
		return fmt.Errorf("%s failed: Access Denied.\n"+
			"Solutions:\n"+
			"  - For ECR, grant ecr:DescribeRepositories and ecr:ListImages\n"+
			"  - For S3, grant s3:ListAllMyBuckets, s3:ListBucket and s3:GetBucketLocation\n"+
			"  - Verify the correct AWS profile is being used\n"+
			"Original error: %w", operation, err)
	}

	if strings.Contains(errMsg, "Rate limit exceeded") || strings.Contains(errMsg, "Throttling") ||
		strings.Contains(errMsg, "RequestLimitExceeded") || strings.Contains(errMsg, "SlowDown") {
		return fmt.Errorf("%s failed: AWS rate limit exceeded.\n"+
			"Solutions:\n"+
			"  - Wait a few seconds and try again\n"+
			"  - Narrow the scan with --regions\n"+
			"Original error: %w", operation, err)
	}

	// Default error with context
	return fmt.Errorf("%s failed: %w", operation, err)
}

func selectReporter(format string, writer io.Writer) (report.Reporter, error) {
	switch format {
	case "json":
		return report.NewJSONReporter(writer), nil
	case "spectrehub":
		return report.NewSpectreHubReporter(writer), nil
	case "text":
		return report.NewTextReporter(writer), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: text, json, spectrehub)", format)
	}
}

func selectSizeReporter(format string, writer io.Writer) (report.SizeReporter, error) {
	switch format {
	case "json":
		return report.NewJSONReporter(writer), nil
	case "text":
		return report.NewTextReporter(writer), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: text, json)", format)
	}
}
