package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"video-processing/domain/storage"
	"video-processing/domain/video"
)

// SupportedExtensions is the allow-list of source container extensions
var SupportedExtensions = []string{
	".mp4", ".m4v", ".mov", ".mkv", ".avi", ".webm", ".3gp",
	".ts", ".mts", ".mpg", ".mpeg", ".wmv", ".flv",
}

// maxAllocateAttempts bounds the EEXIST retry loop
const maxAllocateAttempts = 16

// Store implements storage.FileStore on a local working directory
type Store struct {
	dir    string
	now    func() time.Time
	remove func(string) error
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithClock sets the time source used for output names
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithRemoveFunc sets the function used to delete files
func WithRemoveFunc(remove func(string) error) StoreOption {
	return func(s *Store) {
		s.remove = remove
	}
}

// NewStore creates the working directory if needed and returns a store on it
func NewStore(dir string, opts ...StoreOption) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	s := &Store{
		dir:    abs,
		now:    time.Now,
		remove: os.Remove,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the absolute working directory
func (s *Store) Dir() string {
	return s.dir
}

// Validate checks that path names a readable file with a supported
// extension. http and https URLs are checked on extension alone.
func (s *Store) Validate(path string) error {
	if path == "" {
		return video.NewError(video.KindInvalidInput, video.CodeFileNotFound, "path is empty", nil)
	}

	if isRemote(path) {
		u, err := url.Parse(path)
		if err != nil {
			return video.NewError(video.KindInvalidInput, video.CodeFileNotFound, fmt.Sprintf("invalid url %s", path), err)
		}
		if !supported(u.Path) {
			return unsupported(path)
		}
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return video.NewError(video.KindInvalidInput, video.CodeFileNotFound, fmt.Sprintf("%s does not exist", path), err)
		}
		return video.NewError(video.KindInvalidInput, video.CodeFileUnreadable, fmt.Sprintf("cannot stat %s", path), err)
	}
	if info.IsDir() {
		return video.NewError(video.KindInvalidInput, video.CodeFileUnreadable, fmt.Sprintf("%s is a directory", path), nil)
	}
	if !supported(path) {
		return unsupported(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return video.NewError(video.KindInvalidInput, video.CodeFileUnreadable, fmt.Sprintf("cannot open %s", path), err)
	}
	return f.Close()
}

// AllocateOutputPath reserves <dir>/<kind>-<yyyymmdd-hhmmss>-<id>.mp4 by
// creating it exclusively, so two allocations never return the same path
func (s *Store) AllocateOutputPath(origin storage.Origin) (string, error) {
	prefix, err := prefixFor(origin)
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < maxAllocateAttempts; attempt++ {
		name := fmt.Sprintf("%s-%s-%s.mp4", prefix, s.now().Format("20060102-150405"), uuid.NewString()[:8])
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", video.NewError(video.KindIOFailure, video.CodeIOFailure, "failed to reserve output path", err)
		}
		if err := f.Close(); err != nil {
			return "", video.NewError(video.KindIOFailure, video.CodeIOFailure, "failed to reserve output path", err)
		}
		return path, nil
	}
	return "", video.NewError(video.KindIOFailure, video.CodeIOFailure,
		fmt.Sprintf("no free output name after %d attempts", maxAllocateAttempts), nil)
}

// Register stats a finished output. A missing or empty file is an error.
func (s *Store) Register(path string, origin storage.Origin) (storage.Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return storage.Entry{}, video.NewError(video.KindIOFailure, video.CodeIOFailure, fmt.Sprintf("output %s missing", path), err)
	}
	if info.Size() == 0 {
		return storage.Entry{}, video.NewError(video.KindIOFailure, video.CodeIOFailure, fmt.Sprintf("output %s is empty", path), nil)
	}
	return storage.Entry{
		Path:      path,
		CreatedAt: info.ModTime(),
		Origin:    origin,
		Size:      info.Size(),
	}, nil
}

// List returns every regular file in the working directory, oldest first
func (s *Store) List() ([]storage.Entry, error) {
	var entries []storage.Entry
	for e, err := range s.All() {
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// All yields working directory entries in directory order. Files removed
// between the directory read and their stat are skipped.
func (s *Store) All() iter.Seq2[storage.Entry, error] {
	return func(yield func(storage.Entry, error) bool) {
		dirEntries, err := os.ReadDir(s.dir)
		if err != nil {
			yield(storage.Entry{}, video.NewError(video.KindIOFailure, video.CodeIOFailure, "failed to read working directory", err))
			return
		}

		for _, de := range dirEntries {
			if !de.Type().IsRegular() {
				continue
			}
			info, err := de.Info()
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				if !yield(storage.Entry{}, fmt.Errorf("failed to stat %s: %w", de.Name(), err)) {
					return
				}
				continue
			}
			entry := storage.Entry{
				Path:      filepath.Join(s.dir, de.Name()),
				CreatedAt: info.ModTime(),
				Origin:    OriginOf(de.Name()),
				Size:      info.Size(),
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// Delete removes one file inside the working directory. Relative paths are
// resolved against it.
func (s *Store) Delete(path string) error {
	resolved, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := s.remove(resolved); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return video.NewError(video.KindInvalidInput, video.CodeFileNotFound, fmt.Sprintf("%s does not exist", path), err)
		}
		return video.NewError(video.KindIOFailure, video.CodeIOFailure, fmt.Sprintf("failed to delete %s", path), err)
	}
	return nil
}

// Remove deletes a partial output; a file that is already gone is fine
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := s.remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// CleanAll deletes every entry it can. It never stops at the first failure;
// per-entry errors are joined into the returned error.
func (s *Store) CleanAll() (int, error) {
	var (
		removed int
		errs    []error
	)
	for e, err := range s.All() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.remove(e.Path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", filepath.Base(e.Path), err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func (s *Store) resolve(path string) (string, error) {
	if path == "" {
		return "", video.NewError(video.KindInvalidInput, video.CodeFileNotFound, "path is empty", nil)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	clean := filepath.Clean(path)
	rel, err := filepath.Rel(s.dir, clean)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", video.NewError(video.KindInvalidInput, video.CodeInvalidOptions,
			fmt.Sprintf("%s: %v", path, storage.ErrOutsideWorkDir), storage.ErrOutsideWorkDir)
	}
	return clean, nil
}

// OriginOf derives an entry origin from its file name prefix
func OriginOf(name string) storage.Origin {
	base := filepath.Base(name)
	switch {
	case strings.HasPrefix(base, "trim-"):
		return storage.OriginTrimOutput
	case strings.HasPrefix(base, "compress-"):
		return storage.OriginCompressOutput
	default:
		return storage.OriginUserInput
	}
}

func prefixFor(origin storage.Origin) (string, error) {
	switch origin {
	case storage.OriginTrimOutput:
		return "trim", nil
	case storage.OriginCompressOutput:
		return "compress", nil
	default:
		return "", fmt.Errorf("cannot allocate output for origin %q", origin)
	}
}

func supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

func unsupported(path string) error {
	return video.NewError(video.KindInvalidInput, video.CodeUnsupportedFormat,
		fmt.Sprintf("%s has an unsupported extension", path), nil)
}

func isRemote(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Ensure Store implements storage.FileStore
var _ storage.FileStore = (*Store)(nil)
