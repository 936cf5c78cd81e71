package objectstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Config contains the bucket and connection settings for S3Gateway.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for S3-compatible stores
	AccessKeyID     string // optional, falls back to the SDK credential chain
	SecretAccessKey string
	ForcePathStyle  bool
}

// S3Gateway stores blobs in an S3 bucket. Locators are object URLs.
type S3Gateway struct {
	bucket   string
	client   *s3.S3
	uploader *s3manager.Uploader
}

// NewS3Gateway creates a gateway for cfg.Bucket. No network call is made.
func NewS3Gateway(cfg S3Config) (*S3Gateway, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("objectstore: s3 bucket is required")
	}

	awsCfg := aws.NewConfig().
		WithRegion(cfg.Region).
		WithS3ForcePathStyle(cfg.ForcePathStyle)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		awsCfg = awsCfg.WithCredentials(
			credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("creating aws session: %w", err)
	}

	client := s3.New(sess)
	return &S3Gateway{
		bucket:   cfg.Bucket,
		client:   client,
		uploader: s3manager.NewUploaderWithClient(client),
	}, nil
}

// Put uploads blob and returns the object URL.
func (g *S3Gateway) Put(ctx context.Context, blob Blob) (string, error) {
	if len(blob.Data) == 0 {
		return "", ErrEmptyBlob
	}

	input := &s3manager.UploadInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(ObjectKey(blob.Filename)),
		Body:   bytes.NewReader(blob.Data),
	}
	if blob.ContentType != "" {
		input.ContentType = aws.String(blob.ContentType)
	}

	out, err := g.uploader.UploadWithContext(ctx, input)
	if err != nil {
		return "", fmt.Errorf("uploading %q to s3: %w", blob.Filename, err)
	}
	return out.Location, nil
}

// Delete removes the object named by the locator's last path segment.
func (g *S3Gateway) Delete(ctx context.Context, locator string) error {
	key, err := KeyFromLocator(locator)
	if err != nil {
		return err
	}

	_, err = g.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting %q from s3: %w", key, err)
	}
	return nil
}
