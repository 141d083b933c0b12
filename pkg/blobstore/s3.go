package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/pair-scraper/pkg/config"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

// s3API is the subset of the S3 client used by S3Store
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads to an S3-compatible bucket
type S3Store struct {
	client  s3API
	bucket  string
	baseURL string // Public prefix; object keys are appended
	log     *logrus.Entry
}

// NewS3Store configures an S3 client from cfg. Static keys from creds take
// precedence over the default AWS credential chain.
func NewS3Store(ctx context.Context, cfg config.S3Config, creds config.Credentials, log *logrus.Entry) (*S3Store, error) {
	opts := []func(*awsConfig.LoadOptions) error{awsConfig.WithRegion(cfg.Region)}
	if creds.HasStaticS3Keys() {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.S3AccessKeyID, creds.S3SecretAccessKey, creds.S3SessionToken)))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: loading AWS config: %w", utils.ErrConfigValidation, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	baseURL, err := publicBaseURL(cfg)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"bucket": cfg.Bucket, "base_url": baseURL}).Info("S3 content store ready")
	return newS3Store(client, cfg.Bucket, baseURL, log), nil
}

func newS3Store(client s3API, bucket, baseURL string, log *logrus.Entry) *S3Store {
	return &S3Store{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// Upload implements ContentStore
func (s *S3Store) Upload(ctx context.Context, data []byte, folder, id, contentType string) (string, error) {
	key := ObjectKey(folder, id, contentType)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("%w: put s3://%s/%s: %w", utils.ErrContentStore, s.bucket, key, err)
	}
	s.log.WithFields(logrus.Fields{"key": key, "bytes": len(data)}).Debug("Stored object")
	return s.baseURL + "/" + key, nil
}

// publicBaseURL derives the URL prefix objects are served from
func publicBaseURL(cfg config.S3Config) (string, error) {
	if cfg.PublicBaseURL != "" {
		return cfg.PublicBaseURL, nil
	}
	if cfg.Endpoint == "" {
		if cfg.UsePathStyle {
			return fmt.Sprintf("https://s3.%s.amazonaws.com/%s", cfg.Region, cfg.Bucket), nil
		}
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region), nil
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: invalid upload.s3.endpoint '%s'", utils.ErrConfigValidation, cfg.Endpoint)
	}
	base := strings.TrimRight(u.String(), "/")
	if cfg.UsePathStyle {
		return base + "/" + cfg.Bucket, nil
	}
	u.Host = cfg.Bucket + "." + u.Host
	return strings.TrimRight(u.String(), "/"), nil
}
