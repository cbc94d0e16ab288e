package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type CloudflareR2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	// Prefix is prepended to every key, e.g. "recalculations".
	Prefix string
	// Endpoint overrides https://<account>.r2.cloudflarestorage.com.
	Endpoint string
}

type cloudflareR2Archiver struct {
	s3Client   *s3.Client
	bucketName string
	prefix     string
}

func NewCloudflareR2Archiver(ctx context.Context, cfg CloudflareR2Config) (ReportArchiver, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.BucketName == "" {
		return nil, errors.New("invalid Cloudflare R2 configuration: access key, secret and bucket are required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.AccountID == "" {
			return nil, errors.New("invalid Cloudflare R2 configuration: account id or endpoint is required")
		}
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		config.WithRegion("auto"), // R2 signs with the special "auto" region
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for R2: %w", err)
	}

	s3Client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return &cloudflareR2Archiver{
		s3Client:   s3Client,
		bucketName: cfg.BucketName,
		prefix:     strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (a *cloudflareR2Archiver) Archive(ctx context.Context, key string, report interface{}) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report %s: %w", key, err)
	}
	if a.prefix != "" {
		key = path.Join(a.prefix, key)
	}

	_, err = a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object to R2 (key: %s): %w", key, err)
	}
	return nil
}
