// Package registry enumerates ECR repositories and probes them for images.
package registry

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsecr "github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/ppiankov/hollowspectre/internal/scan"
	"github.com/ppiankov/hollowspectre/internal/session"
)

// ECRAPI is the subset of the ECR client used here.
type ECRAPI interface {
	DescribeRepositories(ctx context.Context, params *awsecr.DescribeRepositoriesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeRepositoriesOutput, error)
	ListImages(ctx context.Context, params *awsecr.ListImagesInput, optFns ...func(*awsecr.Options)) (*awsecr.ListImagesOutput, error)
}

// Client enumerates and probes repositories in one region.
type Client struct {
	api    ECRAPI
	region string
}

// NewClient wraps an ECR API. region is stamped on returned repositories and
// may be empty.
func NewClient(api ECRAPI, region string) *Client {
	return &Client{api: api, region: region}
}

// NewFromConfig builds a Client for cfg.Region.
func NewFromConfig(cfg aws.Config) *Client {
	return NewClient(awsecr.NewFromConfig(cfg), cfg.Region)
}

// Region returns the region this client targets.
func (c *Client) Region() string {
	return c.region
}

// Enumerate lists every repository, following NextToken to the end. Any page
// failure discards what was collected so far.
func (c *Client) Enumerate(ctx context.Context) ([]scan.Resource, error) {
	var repos []scan.Resource

	p := awsecr.NewDescribeRepositoriesPaginator(c.api, &awsecr.DescribeRepositoriesInput{})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, session.Wrap("describe repositories", "", err)
		}
		for _, r := range out.Repositories {
			repos = append(repos, c.toResource(r))
		}
	}

	return repos, nil
}

// Describe fetches the named repositories in a single call.
func (c *Client) Describe(ctx context.Context, names ...string) ([]scan.Resource, error) {
	out, err := c.api.DescribeRepositories(ctx, &awsecr.DescribeRepositoriesInput{
		RepositoryNames: names,
	})
	if err != nil {
		return nil, session.Wrap("describe repositories", strings.Join(names, ","), err)
	}

	repos := make([]scan.Resource, 0, len(out.Repositories))
	for _, r := range out.Repositories {
		repos = append(repos, c.toResource(r))
	}
	return repos, nil
}

// Probe asks for at most one image id; none means the repository is empty.
func (c *Client) Probe(ctx context.Context, r scan.Resource) (scan.Classification, error) {
	out, err := c.api.ListImages(ctx, &awsecr.ListImagesInput{
		RepositoryName: aws.String(r.Name),
		MaxResults:     aws.Int32(1),
	})
	if err != nil {
		return scan.Unknown, session.Wrap("list images", r.Name, err)
	}
	if len(out.ImageIds) == 0 {
		return scan.Empty, nil
	}
	return scan.NotEmpty, nil
}

func (c *Client) toResource(r ecrtypes.Repository) scan.Resource {
	var createdAt time.Time
	if r.CreatedAt != nil {
		createdAt = *r.CreatedAt
	}
	return scan.Resource{
		Kind:      scan.KindRepository,
		Name:      aws.ToString(r.RepositoryName),
		ARN:       aws.ToString(r.RepositoryArn),
		URI:       aws.ToString(r.RepositoryUri),
		CreatedAt: createdAt,
		Region:    c.region,
	}
}
