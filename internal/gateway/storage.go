package gateway

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the slice of the S3 client the bucket handle uses; tests provide
// a fake.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Seams for testing the client construction.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

func newStorageClient(ctx context.Context, cfg Config) (s3API, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.StorageRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.StorageEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.StorageEndpoint)
		}
		// The storage service's S3 endpoint does not support virtual-hosted
		// bucket addressing.
		o.UsePathStyle = true
	})
	return client, nil
}

// UploadOptions mirror the storage API's upload flags.
type UploadOptions struct {
	// Upsert allows overwriting an existing object at the same path.
	Upsert bool
	// ContentType is stored with the object and served on download.
	ContentType string
}

// BucketClient is a handle on one bucket of the blob store.
type BucketClient struct {
	name       string
	api        s3API
	projectURL string
}

// Name returns the bucket identifier.
func (c *BucketClient) Name() string { return c.name }

// Upload writes body to path. Without Upsert the call fails with
// ErrObjectExists when the path is already taken.
func (c *BucketClient) Upload(ctx context.Context, path string, body io.Reader, opts UploadOptions) error {
	if !opts.Upsert {
		if _, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(c.name),
			Key:    aws.String(path),
		}); err == nil {
			return ErrObjectExists
		}
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(c.name),
		Key:    aws.String(path),
		Body:   body,
	}
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}

	if _, err := c.api.PutObject(ctx, in); err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}

// PublicURL computes the public download URL for an object. The shape is
// fixed by the storage service and the path-derivation below depends on it.
func (c *BucketClient) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		strings.TrimRight(c.projectURL, "/"), c.name, path)
}

// Remove deletes objects by path. Removing a path that no longer exists is
// not an error; the storage service treats it as a successful no-op and so
// do we.
func (c *BucketClient) Remove(ctx context.Context, paths ...string) error {
	for _, p := range paths {
		if _, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(c.name),
			Key:    aws.String(p),
		}); err != nil {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

// StoragePathFromPublicURL recovers the object path from a public URL by
// locating the literal public-object marker for the bucket. Everything after
// the marker is returned untouched, query strings and encoding included, so
// the result round-trips with the path used at upload time. Returns "" when
// the marker is absent.
func StoragePathFromPublicURL(url, bucket string) string {
	marker := "/storage/v1/object/public/" + bucket + "/"
	idx := strings.Index(url, marker)
	if idx == -1 {
		return ""
	}
	return url[idx+len(marker):]
}
