package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"product-import-service/internal/importer"
)

// ObjectPutter is the part of the S3 API the archiver uses
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config configures the upload archive
type S3Config struct {
	Region          string
	Endpoint        string // e.g. http://localstack:4566
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Prefix          string
}

// S3Archiver stores raw import uploads in an S3-compatible bucket
type S3Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
	now    func() time.Time
}

var _ importer.Archiver = (*S3Archiver)(nil)

// NewS3Client builds an S3 client, targeting a custom endpoint when one is set
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	cfgOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(region),
	}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		cfgOpts = append(cfgOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewS3Archiver creates an archiver writing under bucket/prefix
func NewS3Archiver(client ObjectPutter, bucket, prefix string) *S3Archiver {
	return &S3Archiver{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
	}
}

// Archive uploads the file and returns its object key
func (a *S3Archiver) Archive(ctx context.Context, tenantID, sessionID, filename string, data []byte) (string, error) {
	key := a.objectKey(tenantID, sessionID, filename)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(filename)),
		Metadata: map[string]string{
			"tenant-id":  tenantID,
			"session-id": sessionID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", filename, err)
	}
	return key, nil
}

func (a *S3Archiver) objectKey(tenantID, sessionID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = "upload"
	}
	key := path.Join(tenantID, a.now().UTC().Format("2006/01/02"), sessionID, name)
	if a.prefix != "" {
		key = a.prefix + "/" + key
	}
	return key
}

func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".txt":
		return "text/plain"
	}
	return "text/csv"
}
