// Package storage archives rendered attendance reports in S3-compatible
// object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	attendanceapp "github.com/atency/backend/internal/application/attendance"
	"github.com/atency/backend/internal/infrastructure/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

var _ attendanceapp.ReportArchive = (*S3ReportArchive)(nil)

// S3ReportArchive writes reports under a key prefix in one bucket. Works
// with AWS S3, MinIO and other S3-compatible servers.
type S3ReportArchive struct {
	client *s3.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewS3ReportArchive builds a client from cfg. Static credentials are used
// when both keys are set; otherwise the default AWS credential chain applies.
func NewS3ReportArchive(ctx context.Context, cfg config.ExportConfig, logger *zap.Logger) (*S3ReportArchive, error) {
	if cfg.S3Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.S3AccessKeyID == "") != (cfg.S3SecretAccessKey == "") {
		return nil, errors.New("storage access key and secret key must be set together")
	}

	endpoint, err := normalizeEndpoint(cfg.S3Endpoint)
	if err != nil {
		return nil, err
	}

	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.S3AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3ReportArchive{
		client: client,
		bucket: cfg.S3Bucket,
		prefix: strings.Trim(cfg.S3Prefix, "/"),
		logger: logger,
	}, nil
}

// Put uploads body under the archive prefix.
func (a *S3ReportArchive) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	objectKey := a.ObjectKey(key)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", objectKey, err)
	}

	a.logger.Debug("Report archived",
		zap.String("bucket", a.bucket),
		zap.String("key", objectKey),
		zap.Int("bytes", len(body)))
	return nil
}

// ObjectKey joins key onto the configured prefix
func (a *S3ReportArchive) ObjectKey(key string) string {
	key = strings.TrimLeft(key, "/")
	if a.prefix == "" {
		return key
	}
	return path.Join(a.prefix, key)
}

// Bucket returns the bucket name
func (a *S3ReportArchive) Bucket() string {
	return a.bucket
}

// normalizeEndpoint adds a scheme to bare host:port endpoints. An empty
// endpoint means the AWS default resolver.
func normalizeEndpoint(endpoint string) (string, error) {
	if endpoint == "" {
		return "", nil
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid storage endpoint %q", endpoint)
	}
	return endpoint, nil
}
