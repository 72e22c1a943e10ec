package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	cfg "github.com/khatapro/khata-backend/internal/config"
	"github.com/khatapro/khata-backend/internal/domain"
)

// S3SnapshotArchive implements SnapshotArchive using AWS S3
type S3SnapshotArchive struct {
	client *s3.Client
	bucket string
}

// NewS3SnapshotArchive creates a new S3 snapshot archive
func NewS3SnapshotArchive(ctx context.Context, s3cfg cfg.S3Config) (*S3SnapshotArchive, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(s3cfg.Region),
	}
	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				s3cfg.AccessKeyID,
				s3cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Endpoint override supports MinIO/LocalStack in development
	var client *s3.Client
	if s3cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	archive := &S3SnapshotArchive{
		client: client,
		bucket: s3cfg.Bucket,
	}
	if err := archive.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return archive, nil
}

// ensureBucket creates the bucket if it doesn't exist. The bucket stays
// private; archived ledgers are never publicly readable.
func (a *S3SnapshotArchive) ensureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		var noSuchBucket *types.NoSuchBucket
		if !errors.As(err, &noSuchBucket) {
			return fmt.Errorf("failed to check bucket (may be permission denied): %w", err)
		}
	}

	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// archivedDay is the serialized form of a locked day and its entries.
type archivedDay struct {
	Day          *domain.BusinessDay   `json:"day"`
	Transactions []*domain.Transaction `json:"transactions"`
}

// ArchiveDay pushes a locked day's full ledger to object storage and returns
// the object key.
func (a *S3SnapshotArchive) ArchiveDay(ctx context.Context, day *domain.BusinessDay, transactions []*domain.Transaction) (string, error) {
	body, err := json.Marshal(archivedDay{Day: day, Transactions: transactions})
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("days/%s/%s.json", day.OutletID, day.Date.Format("2006-01-02"))
	return key, a.put(ctx, key, body)
}

// ArchiveClosure pushes one closure snapshot version to object storage and
// returns the object key.
func (a *S3SnapshotArchive) ArchiveClosure(ctx context.Context, snapshot *domain.MonthlyClosureSnapshot) (string, error) {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("closures/%s/%s/v%d.json",
		snapshot.OutletID, snapshot.MonthDate.Format("2006-01"), snapshot.Version)
	return key, a.put(ctx, key, body)
}

func (a *S3SnapshotArchive) put(ctx context.Context, key string, body []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}
