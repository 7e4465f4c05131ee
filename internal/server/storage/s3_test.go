package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/securevault/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *sc.Config {
	return &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "vault",
	}
}

func restoreSeams(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	origPut := putObject
	origPresign := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
		putObject = origPut
		presignGetObject = origPresign
	})
}

func TestClient_AppliesConfig(t *testing.T) {
	restoreSeams(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "minioadmin", creds.AccessKeyID)
		return aws.Config{Region: lo.Region}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return s3.NewFromConfig(cfg, optFns...)
	}

	_, err := NewS3Store(testConfig()).client(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}

func TestClient_LoadError(t *testing.T) {
	restoreSeams(t)
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	err := NewS3Store(testConfig()).Put(context.Background(), "k", []byte("x"), "application/octet-stream")
	require.ErrorContains(t, err, "no config")

	_, err = NewS3Store(testConfig()).PresignGet(context.Background(), "k", time.Minute)
	require.ErrorContains(t, err, "no config")
}

func TestPut(t *testing.T) {
	restoreSeams(t)

	var got *s3.PutObjectInput
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		got = in
		return nil
	}

	require.NoError(t, NewS3Store(testConfig()).Put(context.Background(), "exports/u1/a.age", []byte("payload"), "application/age"))
	require.NotNil(t, got)
	assert.Equal(t, "vault", aws.ToString(got.Bucket))
	assert.Equal(t, "exports/u1/a.age", aws.ToString(got.Key))
	assert.Equal(t, int64(7), aws.ToInt64(got.ContentLength))
	body, _ := io.ReadAll(got.Body)
	assert.Equal(t, "payload", string(body))

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		return errors.New("denied")
	}
	err := NewS3Store(testConfig()).Put(context.Background(), "k", nil, "x")
	require.ErrorContains(t, err, "uploading k: denied")
}

func TestPresignGet(t *testing.T) {
	restoreSeams(t)

	presignGetObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		assert.Equal(t, 5*time.Minute, po.Expires)
		return &v4.PresignedHTTPRequest{URL: "http://127.0.0.1:9000/vault/" + aws.ToString(in.Key) + "?sig"}, nil
	}

	url, err := NewS3Store(testConfig()).PresignGet(context.Background(), "exports/a", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, "vault/exports/a?sig"))
}
