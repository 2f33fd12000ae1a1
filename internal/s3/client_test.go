package s3

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/ppiankov/hollowspectre/internal/scan"
	"github.com/ppiankov/hollowspectre/internal/session"
)

type fakeAPI struct {
	bucketPages   []*s3.ListBucketsOutput
	listBucketErr error
	listCalls     int

	objects    map[string]*s3.ListObjectsV2Output
	objectErrs map[string]error
	lastList   *s3.ListObjectsV2Input

	locations   map[string]types.BucketLocationConstraint
	locationErr error
}

func (f *fakeAPI) ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	idx := f.listCalls
	f.listCalls++
	if f.listBucketErr != nil && idx == len(f.bucketPages)-1 {
		return nil, f.listBucketErr
	}
	return f.bucketPages[idx], nil
}

func (f *fakeAPI) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.lastList = params
	name := aws.ToString(params.Bucket)
	if err, ok := f.objectErrs[name]; ok {
		return nil, err
	}
	return f.objects[name], nil
}

func (f *fakeAPI) GetBucketLocation(ctx context.Context, params *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error) {
	if f.locationErr != nil {
		return nil, f.locationErr
	}
	return &s3.GetBucketLocationOutput{LocationConstraint: f.locations[aws.ToString(params.Bucket)]}, nil
}

func TestNewClient_DefaultRegion(t *testing.T) {
	if got := NewClient(&fakeAPI{}, "").DefaultRegion(); got != "us-east-1" {
		t.Fatalf("expected us-east-1, got %q", got)
	}
	if got := NewClient(&fakeAPI{}, "ap-south-1").DefaultRegion(); got != "ap-south-1" {
		t.Fatalf("expected ap-south-1, got %q", got)
	}
}

func TestEnumerate_FollowsContinuationToken(t *testing.T) {
	created := time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC)
	api := &fakeAPI{bucketPages: []*s3.ListBucketsOutput{
		{
			Buckets:           []types.Bucket{{Name: aws.String("alpha"), CreationDate: &created}},
			ContinuationToken: aws.String("page-2"),
		},
		{
			Buckets: []types.Bucket{{Name: aws.String("beta")}},
		},
	}}

	buckets, err := NewClient(api, "").Enumerate(context.Background())
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}
	if len(buckets) != 2 || buckets[0].Name != "alpha" || buckets[1].Name != "beta" {
		t.Fatalf("unexpected buckets: %+v", buckets)
	}
	if buckets[0].Kind != scan.KindBucket {
		t.Fatalf("expected bucket kind, got %q", buckets[0].Kind)
	}
	if !buckets[0].CreatedAt.Equal(created) {
		t.Fatalf("expected creation date %v, got %v", created, buckets[0].CreatedAt)
	}
	if buckets[0].URI != "s3://alpha" || buckets[0].ARN != "arn:aws:s3:::alpha" {
		t.Fatalf("unexpected locator fields: %+v", buckets[0])
	}
	if api.listCalls != 2 {
		t.Fatalf("expected 2 list calls, got %d", api.listCalls)
	}
}

func TestEnumerate_PageFailure(t *testing.T) {
	api := &fakeAPI{
		bucketPages: []*s3.ListBucketsOutput{
			{Buckets: []types.Bucket{{Name: aws.String("alpha")}}, ContinuationToken: aws.String("next")},
			nil,
		},
		listBucketErr: errors.New("AccessDenied"),
	}

	buckets, err := NewClient(api, "").Enumerate(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if buckets != nil {
		t.Fatalf("expected no partial result, got %+v", buckets)
	}
	var reqErr *session.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %T", err)
	}
}

func TestProbe(t *testing.T) {
	api := &fakeAPI{
		objects: map[string]*s3.ListObjectsV2Output{
			"empty":   {KeyCount: aws.Int32(0)},
			"nocount": {},
			"full":    {KeyCount: aws.Int32(1)},
		},
		objectErrs: map[string]error{"denied": errors.New("AccessDenied")},
	}
	client := NewClient(api, "")

	tests := []struct {
		bucket  string
		want    scan.Classification
		wantErr bool
	}{
		{"empty", scan.Empty, false},
		{"nocount", scan.Empty, false},
		{"full", scan.NotEmpty, false},
		{"denied", scan.Unknown, true},
	}

	for _, tt := range tests {
		got, err := client.Probe(context.Background(), scan.Resource{Name: tt.bucket})
		if got != tt.want {
			t.Fatalf("%s: expected %v, got %v", tt.bucket, tt.want, got)
		}
		if (err != nil) != tt.wantErr {
			t.Fatalf("%s: unexpected error state: %v", tt.bucket, err)
		}
		if aws.ToInt32(api.lastList.MaxKeys) != 1 {
			t.Fatalf("%s: expected MaxKeys 1, got %d", tt.bucket, aws.ToInt32(api.lastList.MaxKeys))
		}
	}
}

func TestResolveRegion(t *testing.T) {
	api := &fakeAPI{locations: map[string]types.BucketLocationConstraint{
		"eu": types.BucketLocationConstraintEuWest1,
	}}

	if got := NewClient(api, "").ResolveRegion(context.Background(), "eu"); got != "eu-west-1" {
		t.Fatalf("expected eu-west-1, got %q", got)
	}
	if got := NewClient(api, "").ResolveRegion(context.Background(), "legacy"); got != "us-east-1" {
		t.Fatalf("expected null location to map to us-east-1, got %q", got)
	}
	if got := NewClient(api, "us-gov-west-1").ResolveRegion(context.Background(), "legacy"); got != "us-gov-west-1" {
		t.Fatalf("expected configured default region, got %q", got)
	}

	api.locationErr = errors.New("AccessDenied")
	if got := NewClient(api, "").ResolveRegion(context.Background(), "eu"); got != UnknownRegion {
		t.Fatalf("expected %q on error, got %q", UnknownRegion, got)
	}
}

func TestAnnotate(t *testing.T) {
	api := &fakeAPI{locations: map[string]types.BucketLocationConstraint{"b": types.BucketLocationConstraintApSouth1}}
	r := scan.Resource{Name: "b"}
	NewClient(api, "").Annotate(context.Background(), &r)
	if r.Region != "ap-south-1" {
		t.Fatalf("expected ap-south-1, got %q", r.Region)
	}
}

func TestSize(t *testing.T) {
	api := &fakeAPI{objects: map[string]*s3.ListObjectsV2Output{
		"data": {
			Contents: []types.Object{
				{Key: aws.String("a"), Size: aws.Int64(1024)},
				{Key: aws.String("b"), Size: aws.Int64(512)},
				{Key: aws.String("c")},
			},
			IsTruncated: aws.Bool(true),
		},
		"empty": {},
	}}
	client := NewClient(api, "")

	r, err := client.Size(context.Background(), "data")
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if r.Bytes != 1536 || r.Objects != 3 || !r.Truncated {
		t.Fatalf("unexpected report: %+v", r)
	}
	if api.lastList.MaxKeys != nil {
		t.Fatalf("expected provider default page size, got MaxKeys %d", *api.lastList.MaxKeys)
	}

	r, err = client.Size(context.Background(), "empty")
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if r.Bytes != 0 || r.Objects != 0 || r.Truncated {
		t.Fatalf("unexpected report for empty bucket: %+v", r)
	}
}

func TestSizeReport_Units(t *testing.T) {
	r := SizeReport{Bytes: 1073741824}
	if r.Gigabytes() != 1 {
		t.Fatalf("expected 1 GB, got %v", r.Gigabytes())
	}
	if r.Megabytes() != 1024 {
		t.Fatalf("expected 1024 MB, got %v", r.Megabytes())
	}
}

func TestProbe_FollowsRegionRedirect(t *testing.T) {
	redirect := &smithy.GenericAPIError{Code: "PermanentRedirect", Message: "use the bucket's endpoint"}
	home := &fakeAPI{
		objectErrs: map[string]error{"eu-bucket": redirect},
		locations:  map[string]types.BucketLocationConstraint{"eu-bucket": types.BucketLocationConstraintEuWest1},
	}
	eu := &fakeAPI{objects: map[string]*s3.ListObjectsV2Output{"eu-bucket": {KeyCount: aws.Int32(0)}}}

	var built []string
	client := NewClient(home, "").WithRegionalClients(func(region string) API {
		built = append(built, region)
		return eu
	})

	got, err := client.Probe(context.Background(), scan.Resource{Name: "eu-bucket"})
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if got != scan.Empty {
		t.Fatalf("expected Empty, got %v", got)
	}
	if len(built) != 1 || built[0] != "eu-west-1" {
		t.Fatalf("expected one eu-west-1 client, got %v", built)
	}

	// Region lookup is cached for Annotate and the regional client is reused.
	r := scan.Resource{Name: "eu-bucket"}
	client.Annotate(context.Background(), &r)
	if r.Region != "eu-west-1" {
		t.Fatalf("expected eu-west-1, got %q", r.Region)
	}
	if _, err := client.Size(context.Background(), "eu-bucket"); err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if len(built) != 1 {
		t.Fatalf("expected regional client reuse, built %v", built)
	}
}

func TestProbe_RedirectWithoutRegionalClients(t *testing.T) {
	redirect := &smithy.GenericAPIError{Code: "PermanentRedirect"}
	api := &fakeAPI{objectErrs: map[string]error{"eu-bucket": redirect}}

	got, err := NewClient(api, "").Probe(context.Background(), scan.Resource{Name: "eu-bucket"})
	if got != scan.Unknown || err == nil {
		t.Fatalf("expected Unknown with error, got %v, %v", got, err)
	}
}

func TestProbe_RedirectLocationFailureKeepsOriginalError(t *testing.T) {
	redirect := &smithy.GenericAPIError{Code: "PermanentRedirect"}
	api := &fakeAPI{
		objectErrs:  map[string]error{"eu-bucket": redirect},
		locationErr: errors.New("AccessDenied"),
	}
	client := NewClient(api, "").WithRegionalClients(func(region string) API {
		t.Fatalf("no regional client expected, got request for %q", region)
		return nil
	})

	_, err := client.Probe(context.Background(), scan.Resource{Name: "eu-bucket"})
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorCode() != "PermanentRedirect" {
		t.Fatalf("expected the redirect error, got %v", err)
	}
}

func TestIsRegionRedirect(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&smithy.GenericAPIError{Code: "PermanentRedirect"}, true},
		{&smithy.GenericAPIError{Code: "AuthorizationHeaderMalformed"}, true},
		{&smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{errors.New("PermanentRedirect"), false},
	}
	for _, tt := range tests {
		if got := isRegionRedirect(tt.err); got != tt.want {
			t.Fatalf("isRegionRedirect(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
