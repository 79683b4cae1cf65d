package services

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Archiver keeps the raw body of each inbound delivery.
type Archiver interface {
	Archive(ctx context.Context, id uuid.UUID, receivedAt time.Time, contentType string, raw []byte) (string, error)
}

// ArchiveSettings configures the S3 archive.
type ArchiveSettings struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3Archiver writes raw inbound payloads to an S3 compatible bucket under
// inbound/YYYY/MM/DD/<id>.
type S3Archiver struct {
	client *s3.Client
	bucket string
	log    zerolog.Logger
}

func NewS3Archiver(ctx context.Context, settings ArchiveSettings, log zerolog.Logger) (*S3Archiver, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(settings.Region)}
	if settings.AccessKey != "" && settings.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(settings.AccessKey, settings.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if settings.Endpoint != "" {
			o.BaseEndpoint = aws.String(settings.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Archiver{
		client: client,
		bucket: settings.Bucket,
		log:    log.With().Str("service", "S3Archiver").Logger(),
	}, nil
}

func ArchiveKey(id uuid.UUID, receivedAt time.Time) string {
	return path.Join("inbound", receivedAt.UTC().Format("2006/01/02"), id.String())
}

func (a *S3Archiver) Archive(ctx context.Context, id uuid.UUID, receivedAt time.Time, contentType string, raw []byte) (string, error) {
	key := ArchiveKey(id, receivedAt)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive inbound payload %s: %w", key, err)
	}
	a.log.Debug().Str("key", key).Int("bytes", len(raw)).Msg("Archived inbound payload")
	return key, nil
}

// NopArchiver is used when no bucket is configured.
type NopArchiver struct{}

func (NopArchiver) Archive(context.Context, uuid.UUID, time.Time, string, []byte) (string, error) {
	return "", nil
}
