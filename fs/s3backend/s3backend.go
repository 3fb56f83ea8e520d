// Package s3backend implements the config store's Filesystem Adapter
// (fs.FileIO) on top of AWS S3, for tables whose metadata directory lives in
// an object store rather than a POSIX filesystem (SPEC_FULL.md §5.2).
// Modeled on the teacher's aws_s3 package: client construction via
// credentials.NewStaticCredentialsProvider and an endpoint override
// (aws_s3/connect.go), object CRUD via the s3.Client (aws_s3/manage_bucket.go,
// aws_s3/cached_bucket.go).
package s3backend

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/sharedcode/tableconfig/internal/retry"
)

// Config describes how to reach the bucket's S3-compatible endpoint.
// HostEndpointUrl may be left empty to use AWS's own endpoint resolution.
type Config struct {
	HostEndpointUrl string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// Connect builds an s3.Client from Config, overriding the endpoint when
// HostEndpointUrl is set (for S3-compatible stores such as MinIO) and the
// credentials when AccessKeyID is set, matching the teacher's Connect helper.
func Connect(cfg Config) *s3.Client {
	return s3.NewFromConfig(aws.Config{Region: cfg.Region}, func(o *s3.Options) {
		if cfg.HostEndpointUrl != "" {
			o.BaseEndpoint = aws.String(cfg.HostEndpointUrl)
		}
		if cfg.AccessKeyID != "" {
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		}
	})
}

// api is the slice of *s3.Client this backend actually calls, narrowed so
// tests can supply a fake without a live S3 endpoint.
type api interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, opts ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
}

// Backend is a fs.FileIO backed by a single S3 bucket. Paths are used
// directly as object keys; the metadata "directory" a caller passes to the
// config store is simply an object key prefix.
type Backend struct {
	client api
	bucket string
}

// New returns a Backend that stores objects in bucket via client.
func New(client *s3.Client, bucket string) *Backend {
	return &Backend{client: client, bucket: bucket}
}

// Exists reports whether key is present in the bucket via HeadObject.
func (b *Backend) Exists(ctx context.Context, key string) bool {
	err := retry.IO(ctx, func(ctx context.Context) error {
		_, e := b.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key)})
		return e
	})
	return err == nil
}

// Read fetches the full object body for key.
func (b *Backend) Read(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := retry.IO(ctx, func(ctx context.Context) error {
		out, e := b.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key)})
		if e != nil {
			return e
		}
		defer out.Body.Close()
		buf, e := io.ReadAll(out.Body)
		if e != nil {
			return e
		}
		data = buf
		return nil
	})
	return data, err
}

// Write overwrites (or creates) key with data.
func (b *Backend) Write(ctx context.Context, key string, data []byte) error {
	return retry.IO(ctx, func(ctx context.Context) error {
		_, e := b.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		})
		return e
	})
}

// Rename has no native S3 equivalent, so it is implemented as the
// teacher's blob stores implement cross-object moves: CopyObject followed by
// DeleteObject on the source. This still satisfies the Filesystem Adapter's
// Rename postcondition — after a successful return, newKey holds oldKey's
// content and oldKey no longer exists — it is simply not atomic the way
// os.Rename is, which is why the Update Protocol never depends on rename's
// atomicity, only on its postcondition.
func (b *Backend) Rename(ctx context.Context, oldKey, newKey string) error {
	source := b.bucket + "/" + oldKey
	if err := retry.IO(ctx, func(ctx context.Context) error {
		_, e := b.client.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:     aws.String(b.bucket),
			Key:        aws.String(newKey),
			CopySource: aws.String(source),
		})
		return e
	}); err != nil {
		return err
	}
	return b.Remove(ctx, oldKey)
}

// Remove deletes key; a missing object is not an error.
func (b *Backend) Remove(ctx context.Context, key string) error {
	err := retry.IO(ctx, func(ctx context.Context) error {
		_, e := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key)})
		return e
	})
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return nil
	}
	return err
}
