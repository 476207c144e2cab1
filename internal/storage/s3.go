package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// s3API is the subset of the S3 client used by the store.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config contains the settings for an S3-backed store.
type S3Config struct {
	Bucket string
	// Prefix is prepended to every document path.
	Prefix string
	// Region falls back to the AWS default chain when empty.
	Region string
	// UsePathStyle forces path-style addressing for S3-compatible providers.
	UsePathStyle bool
}

// S3 implements Store on an S3 bucket. ETags act as revisions and writes use
// conditional PUTs, so a stale revision is rejected by the bucket itself.
// The bucket should have versioning enabled to keep the history.
type S3 struct {
	client s3API
	bucket string
	prefix string
}

// NewS3 creates an S3 store using the default AWS configuration chain.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Close is a no-op.
func (s *S3) Close() error { return nil }

// Get downloads path and returns its ETag as the revision.
func (s *S3) Get(ctx context.Context, path string) (*Document, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + path),
	})
	if err != nil {
		if isS3Code(err, http.StatusNotFound, "NoSuchKey", "NotFound") {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer func() { _ = out.Body.Close() }()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return &Document{Content: body, Revision: aws.ToString(out.ETag)}, nil
}

// Create uploads path only if no object exists there yet.
func (s *S3) Create(ctx context.Context, path string, content []byte, message string) error {
	in := s.putInput(path, content, message)
	in.IfNoneMatch = aws.String("*")
	return s.put(ctx, "create object", in)
}

// Update uploads path only if its ETag still equals revision.
func (s *S3) Update(ctx context.Context, path string, content []byte, message, revision string) error {
	in := s.putInput(path, content, message)
	in.IfMatch = aws.String(revision)
	return s.put(ctx, "update object", in)
}

func (s *S3) putInput(path string, content []byte, message string) *s3.PutObjectInput {
	return &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + path),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"message": message},
	}
}

func (s *S3) put(ctx context.Context, op string, in *s3.PutObjectInput) error {
	_, err := s.client.PutObject(ctx, in)
	if err == nil {
		return nil
	}
	if isS3Code(err, http.StatusPreconditionFailed, "PreconditionFailed", "ConditionalRequestConflict") ||
		isS3Code(err, http.StatusConflict) {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isS3Code reports whether err carries the HTTP status or one of the API error codes.
func isS3Code(err error, status int, codes ...string) bool {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == status {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		for _, c := range codes {
			if apiErr.ErrorCode() == c {
				return true
			}
		}
	}
	return false
}
