// Package artifact stores generated visit reports.
package artifact

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// DefaultBaseURL prefixes placeholder report links.
const DefaultBaseURL = "https://example.com"

// Placeholder does not keep the report; it hands out a stable link per
// visit.
type Placeholder struct {
	BaseURL string
}

func (p Placeholder) Put(ctx context.Context, visitID, report string) (string, error) {
	base := strings.TrimRight(p.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return fmt.Sprintf("%s/laudo-%s.pdf", base, visitID), nil
}

// S3API is the slice of the S3 client used here.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads report text to a bucket.  The returned reference is
// BaseURL/key when BaseURL is set, otherwise the virtual-hosted object URL.
type S3Store struct {
	Client  S3API
	Bucket  string
	BaseURL string
	logger  *zap.Logger
}

func NewS3Store(client S3API, bucket, baseURL string, logger *zap.Logger) *S3Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Store{Client: client, Bucket: bucket, BaseURL: baseURL, logger: logger}
}

// Key is the object key of a visit's report.
func Key(visitID string) string {
	return "reports/laudo-" + visitID + ".txt"
}

func (s *S3Store) Put(ctx context.Context, visitID, report string) (string, error) {
	key := Key(visitID)
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader([]byte(report)),
		ContentType: aws.String("text/plain; charset=utf-8"),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", s.Bucket, key, err)
	}
	s.logger.Info("report uploaded", zap.String("bucket", s.Bucket), zap.String("key", key))
	if s.BaseURL != "" {
		return strings.TrimRight(s.BaseURL, "/") + "/" + key, nil
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.Bucket, key), nil
}

// NewS3Client builds a client from the default AWS credential chain.  Path
// style addressing keeps local endpoints such as MinIO or LocalStack working.
func NewS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  cfg.Credentials,
		HTTPClient:   cfg.HTTPClient,
		BaseEndpoint: cfg.BaseEndpoint,
		UsePathStyle: true,
	}), nil
}
