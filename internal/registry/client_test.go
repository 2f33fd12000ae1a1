package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsecr "github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/ppiankov/hollowspectre/internal/scan"
	"github.com/ppiankov/hollowspectre/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockECRAPI struct {
	describeRepositoriesFunc func(ctx context.Context, params *awsecr.DescribeRepositoriesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeRepositoriesOutput, error)
	listImagesFunc           func(ctx context.Context, params *awsecr.ListImagesInput, optFns ...func(*awsecr.Options)) (*awsecr.ListImagesOutput, error)
}

func (m *mockECRAPI) DescribeRepositories(ctx context.Context, params *awsecr.DescribeRepositoriesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeRepositoriesOutput, error) {
	return m.describeRepositoriesFunc(ctx, params, optFns...)
}

func (m *mockECRAPI) ListImages(ctx context.Context, params *awsecr.ListImagesInput, optFns ...func(*awsecr.Options)) (*awsecr.ListImagesOutput, error) {
	return m.listImagesFunc(ctx, params, optFns...)
}

func repo(name string, created time.Time) ecrtypes.Repository {
	return ecrtypes.Repository{
		RepositoryName: awssdk.String(name),
		RepositoryArn:  awssdk.String("arn:aws:ecr:us-east-1:123456789012:repository/" + name),
		RepositoryUri:  awssdk.String("123456789012.dkr.ecr.us-east-1.amazonaws.com/" + name),
		CreatedAt:      &created,
	}
}

func TestEnumerate(t *testing.T) {
	created := time.Date(2021, 6, 15, 10, 25, 30, 0, time.UTC)

	tests := []struct {
		name       string
		pages      [][]ecrtypes.Repository
		nextTokens []*string
		wantNames  []string
	}{
		{
			name:       "single page",
			pages:      [][]ecrtypes.Repository{{repo("my-app", created)}},
			nextTokens: []*string{nil},
			wantNames:  []string{"my-app"},
		},
		{
			name: "three pages keep order",
			pages: [][]ecrtypes.Repository{
				{repo("repo-1", created), repo("repo-2", created)},
				{repo("repo-3", created)},
				{repo("repo-4", created)},
			},
			nextTokens: []*string{awssdk.String("t2"), awssdk.String("t3"), nil},
			wantNames:  []string{"repo-1", "repo-2", "repo-3", "repo-4"},
		},
		{
			name:       "no repositories",
			pages:      [][]ecrtypes.Repository{{}},
			nextTokens: []*string{nil},
			wantNames:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			callIdx := 0
			var seenTokens []*string
			mock := &mockECRAPI{
				describeRepositoriesFunc: func(ctx context.Context, params *awsecr.DescribeRepositoriesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeRepositoriesOutput, error) {
					seenTokens = append(seenTokens, params.NextToken)
					idx := callIdx
					callIdx++
					return &awsecr.DescribeRepositoriesOutput{
						Repositories: tt.pages[idx],
						NextToken:    tt.nextTokens[idx],
					}, nil
				},
			}

			client := NewClient(mock, "us-east-1")
			repos, err := client.Enumerate(context.Background())
			require.NoError(t, err)

			var names []string
			for _, r := range repos {
				names = append(names, r.Name)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, len(tt.pages), callIdx)
			assert.Nil(t, seenTokens[0])
			if len(repos) > 0 {
				assert.Equal(t, scan.KindRepository, repos[0].Kind)
				assert.Equal(t, created, repos[0].CreatedAt)
				assert.Equal(t, "us-east-1", repos[0].Region)
				assert.Contains(t, repos[0].ARN, "repository/")
				assert.Contains(t, repos[0].URI, ".dkr.ecr.")
			}
		})
	}
}

func TestEnumerate_PageFailureDiscardsPartial(t *testing.T) {
	callIdx := 0
	mock := &mockECRAPI{
		describeRepositoriesFunc: func(ctx context.Context, params *awsecr.DescribeRepositoriesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeRepositoriesOutput, error) {
			callIdx++
			if callIdx == 2 {
				return nil, errors.New("AccessDeniedException")
			}
			return &awsecr.DescribeRepositoriesOutput{
				Repositories: []ecrtypes.Repository{repo("first", time.Now())},
				NextToken:    awssdk.String("next"),
			}, nil
		},
	}

	repos, err := NewClient(mock, "").Enumerate(context.Background())
	require.Error(t, err)
	assert.Nil(t, repos)

	var reqErr *session.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "describe repositories", reqErr.Operation)
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name    string
		ids     []ecrtypes.ImageIdentifier
		err     error
		want    scan.Classification
		wantErr bool
	}{
		{name: "no images", want: scan.Empty},
		{name: "one image", ids: []ecrtypes.ImageIdentifier{{ImageTag: awssdk.String("latest")}}, want: scan.NotEmpty},
		{name: "api error", err: errors.New("RepositoryNotFoundException"), want: scan.Unknown, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotInput *awsecr.ListImagesInput
			mock := &mockECRAPI{
				listImagesFunc: func(ctx context.Context, params *awsecr.ListImagesInput, optFns ...func(*awsecr.Options)) (*awsecr.ListImagesOutput, error) {
					gotInput = params
					if tt.err != nil {
						return nil, tt.err
					}
					return &awsecr.ListImagesOutput{ImageIds: tt.ids}, nil
				},
			}

			got, err := NewClient(mock, "").Probe(context.Background(), scan.Resource{Name: "my-app"})
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "my-app")
			} else {
				require.NoError(t, err)
			}
			require.NotNil(t, gotInput)
			assert.Equal(t, "my-app", awssdk.ToString(gotInput.RepositoryName))
			assert.Equal(t, int32(1), awssdk.ToInt32(gotInput.MaxResults))
		})
	}
}

func TestDescribe(t *testing.T) {
	created := time.Date(2023, 2, 10, 8, 12, 11, 0, time.UTC)
	var gotNames []string
	mock := &mockECRAPI{
		describeRepositoriesFunc: func(ctx context.Context, params *awsecr.DescribeRepositoriesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeRepositoriesOutput, error) {
			gotNames = params.RepositoryNames
			return &awsecr.DescribeRepositoriesOutput{Repositories: []ecrtypes.Repository{repo("frontend-ui", created)}}, nil
		},
	}

	repos, err := NewClient(mock, "ap-south-1").Describe(context.Background(), "frontend-ui")
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, []string{"frontend-ui"}, gotNames)
	assert.Equal(t, 2023, repos[0].CreatedAt.Year())

	failing := &mockECRAPI{
		describeRepositoriesFunc: func(ctx context.Context, params *awsecr.DescribeRepositoriesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeRepositoriesOutput, error) {
			return nil, errors.New("RepositoryNotFoundException")
		},
	}
	_, err = NewClient(failing, "").Describe(context.Background(), "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a,b")
}
