// Package s3 archives materialized products to an S3 bucket. Archival is an
// optional post-download step; its failures are surfaced as warnings by the
// pipeline and never fail a download.
package s3

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/koenigleon/oads-download/internal/config"
	"github.com/koenigleon/oads-download/internal/observability"
)

// Archiver implements pipeline.Archiver against S3.
type Archiver struct {
	client  *s3.Client
	bucket  string
	prefix  string
	logger  observability.Logger
	metrics observability.Metrics
}

// New creates an Archiver and verifies the bucket is reachable. Static
// credentials and a custom endpoint (path-style, for S3-compatible object
// stores) are supported for setups outside AWS.
func New(ctx context.Context, cfg config.ArchiveConfig, logger observability.Logger, metrics observability.Metrics) (*Archiver, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	a := &Archiver{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		logger:  logger,
		metrics: metrics,
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := client.HeadBucket(checkCtx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("archive bucket %q is not reachable: %w", cfg.Bucket, err)
	}

	logger.Info(ctx, "S3 archiver initialized", observability.Fields{
		"bucket": cfg.Bucket,
		"prefix": cfg.Prefix,
	})
	return a, nil
}

// Archive uploads a file or an extracted product directory under
// prefix/key. Directory contents are uploaded one object per file.
func (a *Archiver) Archive(ctx context.Context, localPath, key string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stat %q: %w", localPath, err)
	}

	start := time.Now()
	defer func() {
		a.metrics.RecordDuration("archive", time.Since(start).Seconds())
	}()

	if !info.IsDir() {
		return a.putFile(ctx, localPath, path.Join(a.prefix, key))
	}

	return filepath.WalkDir(localPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localPath, p)
		if err != nil {
			return err
		}
		return a.putFile(ctx, p, path.Join(a.prefix, key, filepath.ToSlash(rel)))
	})
}

func (a *Archiver) putFile(ctx context.Context, localPath, objectKey string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %q: %w", localPath, err)
	}
	defer file.Close()

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(objectKey),
		Body:   file,
	})
	if err != nil {
		return fmt.Errorf("put %q: %w", objectKey, err)
	}

	a.logger.Debug(ctx, "Archived object", observability.Fields{
		"bucket": a.bucket,
		"key":    objectKey,
	})
	a.metrics.RecordSuccess("archive")
	return nil
}
