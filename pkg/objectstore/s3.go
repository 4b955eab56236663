package objectstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"TripMate/pkg/errors"
)

type S3Options struct {
	Bucket         string
	Region         string
	PresignMinutes int
}

// S3Client 上传到 S3，返回预签名的 GET 链接
type S3Client struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	expires time.Duration
}

func NewS3Client(ctx context.Context, opts S3Options) (*S3Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	expires := time.Duration(opts.PresignMinutes) * time.Minute
	if expires <= 0 {
		expires = time.Hour
	}

	client := s3.NewFromConfig(cfg)
	return &S3Client{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  opts.Bucket,
		expires: expires,
	}, nil
}

func (c *S3Client) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := c.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("%w: failed to put object %s: %v", errors.StorageUnavailable, key, err)
	}

	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = c.expires
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to presign object %s: %v", errors.StorageUnavailable, key, err)
	}

	return req.URL, nil
}
