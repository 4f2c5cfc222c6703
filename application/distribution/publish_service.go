package distribution

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"video-processing/domain/storage"
	"video-processing/domain/video"
)

// FileLister lists working directory entries, oldest first
type FileLister interface {
	List() ([]storage.Entry, error)
}

// PublishService publishes working directory files to the media library
type PublishService struct {
	library video.Library
	files   FileLister
	output  io.Writer
}

// NewPublishService creates a new publish service
func NewPublishService(library video.Library, files FileLister, output io.Writer) *PublishService {
	if output == nil {
		output = io.Discard
	}
	return &PublishService{
		library: library,
		files:   files,
		output:  output,
	}
}

// PublishResult describes one published file
type PublishResult struct {
	Path     string
	Size     int64
	Location string
}

// Publish uploads one file to the library
func (s *PublishService) Publish(ctx context.Context, path string) (*PublishResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, video.NewError(video.KindInvalidInput, video.CodeFileNotFound,
			fmt.Sprintf("file does not exist: %s", path), err)
	}
	if info.IsDir() {
		return nil, video.NewError(video.KindInvalidInput, video.CodeFileUnreadable,
			fmt.Sprintf("%s is a directory", path), nil)
	}

	fmt.Fprintf(s.output, "Uploading %s (%.1f MB)...\n", filepath.Base(path), float64(info.Size())/1024/1024)

	location, err := s.library.Save(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to publish %s: %w", filepath.Base(path), err)
	}

	return &PublishResult{Path: path, Size: info.Size(), Location: location}, nil
}

// PublishLatest uploads the most recent working directory file
func (s *PublishService) PublishLatest(ctx context.Context) (*PublishResult, error) {
	entries, err := s.files.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list working directory: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no files in working directory")
	}
	return s.Publish(ctx, entries[len(entries)-1].Path)
}
