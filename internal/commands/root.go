package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/ppiankov/hollowspectre/internal/config"
	"github.com/ppiankov/hollowspectre/internal/logging"
	"github.com/ppiankov/hollowspectre/internal/session"
	"github.com/spf13/cobra"
)

const (
	toolName      = "hollowspectre"
	defaultRegion = "us-east-1"
)

var (
	verbose bool
	version string
	commit  string
	date    string
	cfg     config.Config
	env     config.Env

	globalFlags struct {
		profile string
		region  string
		envFile string
	}
)

var rootCmd = &cobra.Command{
	Use:   "hollowspectre",
	Short: "hollowspectre - find empty ECR repositories and S3 buckets",
	Long: `hollowspectre walks the ECR repositories and S3 buckets of an AWS account,
checks each one for contents, and reports the empty ones. It can also total
the size of the first page of objects in a bucket.

Part of the Spectre family of infrastructure cleanup tools.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)
		loaded, err := config.Load(".")
		if err != nil {
			slog.Warn("Failed to load config file", "error", err)
		} else {
			cfg = loaded
			if err := cfg.Validate(); err != nil {
				slog.Warn("Ignoring invalid config values", "path", cfg.Source, "error", err)
			}
		}
		loadedEnv, err := config.LoadEnv(globalFlags.envFile)
		if err != nil {
			slog.Warn("Failed to load env file", "path", globalFlags.envFile, "error", err)
		}
		env = loadedEnv
	},
}

// Execute runs the root command with injected build info.
func Execute(v, c, d string) error {
	version = v
	commit = c
	date = d
	return rootCmd.Execute()
}

// GetVersion returns the current version.
func GetVersion() string {
	return version
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalFlags.profile, "profile", "", "AWS profile to use")
	rootCmd.PersistentFlags().StringVar(&globalFlags.region, "region", "", "AWS region (default: AWS_REGION, config file, then us-east-1)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.envFile, "env-file", ".env", "Path to a dotenv file with AWS credentials")
	rootCmd.AddCommand(ecrCmd)
	rootCmd.AddCommand(s3Cmd)
	rootCmd.AddCommand(versionCmd)
}

// sessionOptions merges flags, environment and config file, in that order.
func sessionOptions() session.Options {
	return session.Options{
		Profile:         config.First(globalFlags.profile, env.Profile, cfg.Profile),
		Region:          config.First(globalFlags.region, env.Region, cfg.Region, defaultRegion),
		AccessKeyID:     env.AccessKeyID,
		SecretAccessKey: env.SecretAccessKey,
		SessionToken:    env.SessionToken,
	}
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	opts := sessionOptions()
	if opts.StaticCredentials() {
		slog.Debug("Using static credentials from environment")
	}
	return session.Load(ctx, opts)
}

// commandContext applies the configured timeout, if any.
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = cfg.TimeoutDuration()
	}
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}
