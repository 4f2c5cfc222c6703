package objectstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
)

type mockObjectAPI struct {
	exists    bool
	existsErr error
	putErr    error
	made      []string
	puts      []putCall
}

type putCall struct {
	bucket, object, contentType string
	size                        int64
	body                        string
}

func (m *mockObjectAPI) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return m.exists, m.existsErr
}

func (m *mockObjectAPI) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	m.made = append(m.made, bucketName)
	return nil
}

func (m *mockObjectAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if m.putErr != nil {
		return minio.UploadInfo{}, m.putErr
	}
	body, _ := io.ReadAll(reader)
	m.puts = append(m.puts, putCall{bucketName, objectName, opts.ContentType, objectSize, string(body)})
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: objectSize}, nil
}

func TestPublisher_Save(t *testing.T) {
	api := &mockObjectAPI{}
	p, err := NewPublisher(Config{Bucket: "videos", Prefix: "trims"}, WithObjectAPI(api))
	if err != nil {
		t.Fatalf("NewPublisher() error: %v", err)
	}

	local := filepath.Join(t.TempDir(), "trim-x.mp4")
	if err := os.WriteFile(local, []byte("movie"), 0644); err != nil {
		t.Fatal(err)
	}

	location, err := p.Save(context.Background(), local)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if location != "s3://videos/trims/trim-x.mp4" {
		t.Errorf("Save() = %q", location)
	}

	if len(api.puts) != 1 {
		t.Fatalf("PutObject called %d times, want 1", len(api.puts))
	}
	put := api.puts[0]
	if put.contentType != "video/mp4" || put.size != 5 || put.body != "movie" {
		t.Errorf("put = %+v", put)
	}
}

func TestPublisher_SaveErrors(t *testing.T) {
	api := &mockObjectAPI{putErr: errors.New("access denied")}
	p, _ := NewPublisher(Config{Bucket: "videos"}, WithObjectAPI(api))

	if _, err := p.Save(context.Background(), filepath.Join(t.TempDir(), "missing.mp4")); err == nil {
		t.Error("Save() expected error for a missing file")
	}

	local := filepath.Join(t.TempDir(), "out.mp4")
	if err := os.WriteFile(local, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Save(context.Background(), local); err == nil {
		t.Error("Save() expected error when the upload fails")
	}
}

func TestPublisher_EnsureBucket(t *testing.T) {
	api := &mockObjectAPI{}
	p, _ := NewPublisher(Config{Bucket: "videos"}, WithObjectAPI(api))

	if err := p.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("EnsureBucket() error: %v", err)
	}
	if len(api.made) != 1 || api.made[0] != "videos" {
		t.Errorf("MakeBucket calls = %v, want [videos]", api.made)
	}

	api.exists = true
	api.made = nil
	if err := p.EnsureBucket(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(api.made) != 0 {
		t.Error("MakeBucket called for an existing bucket")
	}
}

func TestNewPublisher_RequiresBucket(t *testing.T) {
	if _, err := NewPublisher(Config{}); err == nil {
		t.Error("NewPublisher() expected error without a bucket")
	}
}
