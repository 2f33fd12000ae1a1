package s3

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/ppiankov/hollowspectre/internal/scan"
	"github.com/ppiankov/hollowspectre/internal/session"
)

// API is the subset of the S3 client used here.
type API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetBucketLocation(ctx context.Context, params *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error)
}

// Client wraps the AWS S3 client
type Client struct {
	api           API
	defaultRegion string

	// regionAPI builds a client for a bucket that lives in another region.
	// Nil disables redirect handling.
	regionAPI func(region string) API
	regional  map[string]API
	locations map[string]string
}

// NewClient wraps api. defaultRegion replaces an empty location constraint;
// when blank, us-east-1 is used.
func NewClient(api API, defaultRegion string) *Client {
	if defaultRegion == "" {
		defaultRegion = DefaultRegion
	}
	return &Client{
		api:           api,
		defaultRegion: defaultRegion,
		regional:      map[string]API{},
		locations:     map[string]string{},
	}
}

// NewFromConfig creates a Client from an AWS config. Buckets outside
// cfg.Region are listed through a client pinned to their own region.
func NewFromConfig(cfg aws.Config, defaultRegion string) *Client {
	return NewClient(s3.NewFromConfig(cfg), defaultRegion).WithRegionalClients(func(region string) API {
		return s3.NewFromConfig(session.ForRegion(cfg, region))
	})
}

// WithRegionalClients sets the constructor used when S3 redirects a request
// to the bucket's home region.
func (c *Client) WithRegionalClients(fn func(region string) API) *Client {
	c.regionAPI = fn
	return c
}

// DefaultRegion returns the region reported for buckets without a location constraint.
func (c *Client) DefaultRegion() string {
	return c.defaultRegion
}

// Enumerate lists all buckets in the account.
func (c *Client) Enumerate(ctx context.Context) ([]scan.Resource, error) {
	var buckets []scan.Resource

	p := s3.NewListBucketsPaginator(c.api, &s3.ListBucketsInput{})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, session.Wrap("list buckets", "", err)
		}
		for _, b := range out.Buckets {
			var createdAt time.Time
			if b.CreationDate != nil {
				createdAt = *b.CreationDate
			}
			buckets = append(buckets, scan.Resource{
				Kind:      scan.KindBucket,
				Name:      aws.ToString(b.Name),
				ARN:       "arn:aws:s3:::" + aws.ToString(b.Name),
				URI:       "s3://" + aws.ToString(b.Name),
				CreatedAt: createdAt,
			})
		}
	}

	return buckets, nil
}

// Probe lists at most one key. A missing KeyCount counts as zero.
func (c *Client) Probe(ctx context.Context, r scan.Resource) (scan.Classification, error) {
	out, err := c.listObjects(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(r.Name),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return scan.Unknown, session.Wrap("list objects", r.Name, err)
	}
	if aws.ToInt32(out.KeyCount) == 0 {
		return scan.Empty, nil
	}
	return scan.NotEmpty, nil
}

// ResolveRegion returns the bucket's region. An empty location constraint
// means the default region; any failure yields UnknownRegion.
func (c *Client) ResolveRegion(ctx context.Context, bucket string) string {
	region, err := c.bucketRegion(ctx, bucket)
	if err != nil {
		slog.Debug("Failed to get bucket location", "bucket", bucket, "error", err)
		return UnknownRegion
	}
	return region
}

// bucketRegion looks up and caches a bucket's location.
func (c *Client) bucketRegion(ctx context.Context, bucket string) (string, error) {
	if region, ok := c.locations[bucket]; ok {
		return region, nil
	}
	out, err := c.api.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return "", err
	}
	region := string(out.LocationConstraint)
	if region == "" {
		region = c.defaultRegion
	}
	c.locations[bucket] = region
	return region, nil
}

// listObjects runs ListObjectsV2 and, when S3 answers that the bucket lives
// elsewhere, repeats the call once in the bucket's own region.
func (c *Client) listObjects(ctx context.Context, in *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
	out, err := c.api.ListObjectsV2(ctx, in)
	if err == nil || c.regionAPI == nil || !isRegionRedirect(err) {
		return out, err
	}

	bucket := aws.ToString(in.Bucket)
	region, lerr := c.bucketRegion(ctx, bucket)
	if lerr != nil {
		slog.Debug("Failed to get bucket location after redirect", "bucket", bucket, "error", lerr)
		return nil, err
	}
	slog.Debug("Bucket is in another region, retrying", "bucket", bucket, "region", region)
	return c.clientFor(region).ListObjectsV2(ctx, in)
}

func (c *Client) clientFor(region string) API {
	api, ok := c.regional[region]
	if !ok {
		api = c.regionAPI(region)
		c.regional[region] = api
	}
	return api
}

// isRegionRedirect reports whether err means the request hit the wrong
// regional endpoint.
func isRegionRedirect(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PermanentRedirect", "AuthorizationHeaderMalformed", "IllegalLocationConstraintException":
			return true
		}
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusMovedPermanently {
		return true
	}
	return false
}

// Annotate fills in the region of an empty bucket.
func (c *Client) Annotate(ctx context.Context, r *scan.Resource) {
	r.Region = c.ResolveRegion(ctx, r.Name)
}

// Size sums object sizes on the first ListObjectsV2 page only, using the
// provider's default page size.
func (c *Client) Size(ctx context.Context, bucket string) (SizeReport, error) {
	out, err := c.listObjects(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return SizeReport{}, session.Wrap("list objects", bucket, err)
	}

	r := SizeReport{
		Bucket:    bucket,
		Truncated: aws.ToBool(out.IsTruncated),
	}
	for _, obj := range out.Contents {
		r.Bytes += aws.ToInt64(obj.Size)
		r.Objects++
	}
	return r, nil
}
