package commands

import (
	"fmt"
	"io"
	"strings"

	awsecr "github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/ppiankov/hollowspectre/internal/registry"
	"github.com/ppiankov/hollowspectre/internal/scan"
	"github.com/ppiankov/hollowspectre/internal/session"
	"github.com/spf13/cobra"
)

var ecrEmptyFlags struct {
	emptyFlags
	regions    []string
	allRegions bool
}

var ecrReposFlags struct {
	names []string
}

var ecrCmd = &cobra.Command{
	Use:   "ecr",
	Short: "Inspect ECR repositories",
}

var ecrEmptyCmd = &cobra.Command{
	Use:   "empty",
	Short: "Find ECR repositories that contain no images",
	Long: `Lists every ECR repository, asks each one for a single image id, and
reports the repositories that have none. Empty repositories are written to
empty_ecr_repositories.txt in the working directory.`,
	RunE: runECREmpty,
}

var ecrReposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List ECR repositories with their creation date",
	RunE:  runECRRepos,
}

func init() {
	f := ecrEmptyCmd.Flags()
	f.StringSliceVar(&ecrEmptyFlags.regions, "regions", nil, "Specific regions to scan (comma-separated)")
	f.BoolVar(&ecrEmptyFlags.allRegions, "all-regions", false, "Scan all enabled AWS regions")
	addEmptyFlags(ecrEmptyCmd, &ecrEmptyFlags.emptyFlags)

	ecrReposCmd.Flags().StringSliceVar(&ecrReposFlags.names, "name", nil, "Only describe these repositories")

	ecrCmd.AddCommand(ecrEmptyCmd)
	ecrCmd.AddCommand(ecrReposCmd)
}

func addEmptyFlags(cmd *cobra.Command, flags *emptyFlags) {
	f := cmd.Flags()
	f.StringVarP(&flags.outputFormat, "format", "f", "text", "Output format: text, json, or spectrehub")
	f.StringVarP(&flags.outputFile, "output", "o", "", "Report file path (default: fixed name in the working directory)")
	f.BoolVar(&flags.noFile, "no-file", false, "Do not write the report file")
	f.BoolVar(&flags.noProgress, "no-progress", false, "Disable per-resource progress lines")
	f.StringVar(&flags.baselinePath, "baseline", "", "Path to previous JSON report for diff comparison")
	f.DurationVar(&flags.timeout, "timeout", 0, "Total operation timeout (e.g. 5m, 30s). 0 means no timeout")
}

func applyConfigToEmptyFlags(cmd *cobra.Command, flags *emptyFlags) {
	if !cmd.Flags().Lookup("format").Changed && cfg.Format != "" {
		flags.outputFormat = cfg.Format
	}
}

func runECREmpty(cmd *cobra.Command, args []string) error {
	applyConfigToEmptyFlags(cmd, &ecrEmptyFlags.emptyFlags)
	if _, err := selectReporter(ecrEmptyFlags.outputFormat, io.Discard); err != nil {
		return err
	}

	ctx, cancel := commandContext(ecrEmptyFlags.timeout)
	defer cancel()

	printStatus("Initializing AWS ECR client...")
	awsCfg, err := loadAWSConfig(ctx)
	if err != nil {
		return enhanceError("ECR client initialization", err)
	}

	regions := ecrEmptyFlags.regions
	switch {
	case len(regions) > 0:
		printStatus("Scanning regions: %s", strings.Join(regions, ", "))
	case ecrEmptyFlags.allRegions:
		regions, err = session.ListRegions(ctx, session.RegionsClient(awsCfg))
		if err != nil {
			return enhanceError("region discovery", err)
		}
		printStatus("Scanning %d enabled regions", len(regions))
	default:
		regions = []string{awsCfg.Region}
	}

	multiRegion := len(regions) > 1
	scanners := make([]*scan.Scanner, 0, len(regions))
	for _, region := range regions {
		regionCfg := session.ForRegion(awsCfg, region)
		label := "ECR repositories"
		stamp := ""
		if multiRegion {
			label = fmt.Sprintf("ECR repositories in %s", region)
			stamp = region
		}
		client := registry.NewClient(awsecr.NewFromConfig(regionCfg), stamp)
		scanners = append(scanners, &scan.Scanner{
			Kind:       scan.KindRepository,
			Label:      label,
			Enumerator: client,
			Prober:     client,
			Exclude:    cfg.Excludes(scan.KindRepository),
		})
	}

	job := emptyJob{
		kind:        scan.KindRepository,
		scanners:    scanners,
		regions:     regions,
		profile:     sessionOptions().Profile,
		flags:       ecrEmptyFlags.emptyFlags,
		fileDefault: cfg.ECRReport,
	}
	if ecrEmptyFlags.outputFormat != "text" {
		job.accountID = session.AccountID(ctx, awsCfg)
	}
	return runEmptyJob(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), job)
}

func runECRRepos(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(0)
	defer cancel()

	awsCfg, err := loadAWSConfig(ctx)
	if err != nil {
		return enhanceError("ECR client initialization", err)
	}
	client := registry.NewFromConfig(awsCfg)

	var repos []scan.Resource
	if len(ecrReposFlags.names) > 0 {
		repos, err = client.Describe(ctx, ecrReposFlags.names...)
	} else {
		repos, err = client.Enumerate(ctx)
	}
	if err != nil {
		return enhanceError("repository listing", err)
	}

	printRepos(cmd.OutOrStdout(), repos)
	return nil
}

// printRepos lists repositories with their creation date and year.
func printRepos(w io.Writer, repos []scan.Resource) {
	for _, r := range repos {
		fmt.Fprintf(w, "Repository: %s\n", r.Name)
		if r.CreatedAt.IsZero() {
			fmt.Fprintf(w, "Created At: unknown\n")
		} else {
			fmt.Fprintf(w, "Created At: %s\n", r.CreatedAt.Format("2006-01-02 15:04:05-07:00"))
			fmt.Fprintf(w, "Year: %d\n", r.CreatedAt.Year())
		}
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", 40))
	}
}
