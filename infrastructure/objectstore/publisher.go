package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"video-processing/domain/video"
)

// ObjectAPI is the subset of *minio.Client the publisher uses
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Config holds the S3-compatible endpoint settings
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
	Prefix    string
}

// Publisher uploads finished outputs to an S3-compatible bucket
type Publisher struct {
	api    ObjectAPI
	bucket string
	prefix string
	region string
}

// PublisherOption is a functional option for configuring Publisher
type PublisherOption func(*Publisher)

// WithObjectAPI sets a custom object API (for testing)
func WithObjectAPI(api ObjectAPI) PublisherOption {
	return func(p *Publisher) {
		p.api = api
	}
}

// NewPublisher connects to the endpoint in cfg unless an API is injected
func NewPublisher(cfg Config, opts ...PublisherOption) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("object store bucket is required")
	}

	p := &Publisher{bucket: cfg.Bucket, prefix: cfg.Prefix, region: cfg.Region}
	for _, opt := range opts {
		opt(p)
	}

	if p.api == nil {
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("minio connection: %w", err)
		}
		p.api = client
	}
	return p, nil
}

// EnsureBucket creates the bucket when it does not exist yet
func (p *Publisher) EnsureBucket(ctx context.Context) error {
	exists, err := p.api.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if exists {
		return nil
	}
	if err := p.api.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", p.bucket, err)
	}
	return nil
}

// Save implements video.Library. It returns an s3:// location.
func (p *Publisher) Save(ctx context.Context, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", err
	}

	object := path.Join(p.prefix, filepath.Base(localPath))
	info, err := p.api.PutObject(ctx, p.bucket, object, file, stat.Size(), minio.PutObjectOptions{
		ContentType: "video/mp4",
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	return fmt.Sprintf("s3://%s/%s", info.Bucket, info.Key), nil
}

// Ensure Publisher implements video.Library
var _ video.Library = (*Publisher)(nil)
