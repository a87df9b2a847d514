package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ismrmrd-go/mrdstream/internal/dataset"
	"github.com/ismrmrd-go/mrdstream/internal/dataset/localstore"
	"github.com/ismrmrd-go/mrdstream/internal/dataset/s3store"
)

// openDataset resolves path to a Dataset backend: an "s3://bucket/prefix"
// URI selects s3store, anything else is a local directory for localstore.
func openDataset(ctx context.Context, path string) (dataset.Dataset, error) {
	if strings.HasPrefix(path, "s3://") {
		rest := strings.TrimPrefix(path, "s3://")
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return nil, fmt.Errorf("dataset: s3 path %q missing bucket", path)
		}
		return openS3Dataset(ctx, bucket, prefix)
	}
	store, err := localstore.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open local store %q: %w", path, err)
	}
	return store, nil
}

func openS3Dataset(ctx context.Context, bucket, keyPrefix string) (dataset.Dataset, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if accessKey, secretKey := envS3AccessKeyID(), envS3SecretAccessKey(); accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("dataset: load aws config: %w", err)
	}

	endpoint := envS3Endpoint()
	var client *s3.Client
	if endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return s3store.Open(client, bucket, keyPrefix), nil
}

func envS3Endpoint() string        { return os.Getenv("MRD_S3_ENDPOINT") }
func envS3AccessKeyID() string     { return os.Getenv("MRD_S3_ACCESS_KEY_ID") }
func envS3SecretAccessKey() string { return os.Getenv("MRD_S3_SECRET_ACCESS_KEY") }
