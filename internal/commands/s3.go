package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ppiankov/hollowspectre/internal/config"
	"github.com/ppiankov/hollowspectre/internal/report"
	"github.com/ppiankov/hollowspectre/internal/s3"
	"github.com/ppiankov/hollowspectre/internal/scan"
	"github.com/ppiankov/hollowspectre/internal/session"
	"github.com/spf13/cobra"
)

var s3EmptyFlags struct {
	emptyFlags
}

var s3SizeFlags struct {
	bucket       string
	outputFormat string
	timeout      time.Duration
}

var s3Cmd = &cobra.Command{
	Use:   "s3",
	Short: "Inspect S3 buckets",
}

var s3EmptyCmd = &cobra.Command{
	Use:   "empty",
	Short: "Find S3 buckets that contain no objects",
	Long: `Lists every S3 bucket, asks each one for a single key, and reports the
buckets that have none along with their region. Empty buckets are written to
empty_s3_buckets.txt in the working directory.`,
	RunE: runS3Empty,
}

var s3SizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Total the size of the first page of objects in a bucket",
	Long: `Lists one page of objects (up to 1000) in a bucket and sums their sizes.
Buckets with more objects than one page are under-reported.

The bucket comes from --bucket or S3_BUCKET_NAME.`,
	RunE: runS3Size,
}

func init() {
	addEmptyFlags(s3EmptyCmd, &s3EmptyFlags.emptyFlags)

	f := s3SizeCmd.Flags()
	f.StringVarP(&s3SizeFlags.bucket, "bucket", "b", "", "Bucket to measure (default: S3_BUCKET_NAME)")
	f.StringVarP(&s3SizeFlags.outputFormat, "format", "f", "text", "Output format: text or json")
	f.DurationVar(&s3SizeFlags.timeout, "timeout", 0, "Total operation timeout (e.g. 5m, 30s). 0 means no timeout")

	s3Cmd.AddCommand(s3EmptyCmd)
	s3Cmd.AddCommand(s3SizeCmd)
}

func runS3Empty(cmd *cobra.Command, args []string) error {
	applyConfigToEmptyFlags(cmd, &s3EmptyFlags.emptyFlags)
	if _, err := selectReporter(s3EmptyFlags.outputFormat, io.Discard); err != nil {
		return err
	}

	ctx, cancel := commandContext(s3EmptyFlags.timeout)
	defer cancel()

	printStatus("Initializing AWS S3 client...")
	awsCfg, err := loadAWSConfig(ctx)
	if err != nil {
		return enhanceError("S3 client initialization", err)
	}

	client := s3.NewFromConfig(awsCfg, cfg.DefaultRegion)
	job := emptyJob{
		kind: scan.KindBucket,
		scanners: []*scan.Scanner{{
			Kind:       scan.KindBucket,
			Label:      "S3 buckets",
			Enumerator: client,
			Prober:     client,
			Annotator:  client,
			Exclude:    cfg.Excludes(scan.KindBucket),
		}},
		regions:     []string{awsCfg.Region},
		profile:     sessionOptions().Profile,
		flags:       s3EmptyFlags.emptyFlags,
		fileDefault: cfg.S3Report,
	}
	if s3EmptyFlags.outputFormat != "text" {
		job.accountID = session.AccountID(ctx, awsCfg)
	}
	return runEmptyJob(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), job)
}

func runS3Size(cmd *cobra.Command, args []string) error {
	bucket, err := env.RequireBucket(s3SizeFlags.bucket)
	if err != nil {
		return err
	}
	reporter, err := selectSizeReporter(s3SizeFlags.outputFormat, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	warnEnv(env, globalFlags.envFile)

	ctx, cancel := commandContext(s3SizeFlags.timeout)
	defer cancel()

	awsCfg, err := loadAWSConfig(ctx)
	if err != nil {
		return enhanceError("S3 client initialization", err)
	}

	var notes io.Writer = cmd.OutOrStdout()
	if s3SizeFlags.outputFormat != "text" {
		notes = cmd.ErrOrStderr()
	}
	return measureBucket(ctx, notes, reporter, s3.NewFromConfig(awsCfg, cfg.DefaultRegion), bucket)
}

// warnEnv reports a missing env file or missing static keys. Neither is
// fatal: the default credential chain still applies.
func warnEnv(e config.Env, path string) {
	if !e.FileFound {
		slog.Warn("Env file not found, using process environment only", "path", path)
	}
	if !e.HasCredentials() {
		slog.Warn("AWS credentials not found in env file, using default credentials")
	}
}

// bucketSizer is satisfied by *s3.Client.
type bucketSizer interface {
	Size(ctx context.Context, bucket string) (s3.SizeReport, error)
}

func measureBucket(ctx context.Context, notes io.Writer, reporter report.SizeReporter, sizer bucketSizer, bucket string) error {
	fmt.Fprintf(notes, "Calculating size for bucket: %s\n", bucket)
	fmt.Fprintf(notes, "Note: Processing first %d objects only\n", s3.FirstPageLimit)

	rep, err := sizer.Size(ctx, bucket)
	if err != nil {
		return enhanceError("bucket size", err)
	}

	return reporter.GenerateSize(report.SizeData{
		Tool:      toolName,
		Version:   GetVersion(),
		Timestamp: time.Now(),
		Report:    rep,
		Human:     report.FormatSize(rep.Bytes),
	})
}
