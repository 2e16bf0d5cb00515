package uploads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignExpiry = 15 * time.Minute

// S3Config configures the S3 backend. Endpoint is optional (MinIO, R2).
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

// S3Client is an ObjectStore backed by S3 presigned PUT URLs.
type S3Client struct {
	api       *s3.Client
	presigner *s3.PresignClient
}

// NewS3Client loads AWS config with static credentials when given, else the default chain.
func NewS3Client(ctx context.Context, cfg S3Config) (*S3Client, error) {
	opts := []func(*aws_config.LoadOptions) error{aws_config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, aws_config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := aws_config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Client{api: client, presigner: s3.NewPresignClient(client)}, nil
}

func (c *S3Client) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	req, err := c.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign PUT for key %s: %w", path, err)
	}
	return req.URL, nil
}

// DeleteObject removes one object. S3 deletes are idempotent.
func (c *S3Client) DeleteObject(ctx context.Context, bucket, path string) error {
	if _, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	}); err != nil {
		return fmt.Errorf("s3 delete %s: %w", path, err)
	}
	return nil
}

// S3PublicBase is the virtual-hosted URL prefix for objects in bucket, or endpoint/bucket when a
// custom endpoint is configured.
func S3PublicBase(cfg S3Config, bucket string) string {
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, cfg.Region)
}
