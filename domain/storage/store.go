package storage

import (
	"errors"
	"iter"
	"time"
)

// Origin records how an entry came to be in the working directory
type Origin string

const (
	OriginUserInput      Origin = "user_input"
	OriginTrimOutput     Origin = "trim_output"
	OriginCompressOutput Origin = "compress_output"
)

// Entry is one file in the working directory
type Entry struct {
	Path      string
	CreatedAt time.Time
	Origin    Origin
	Size      int64
}

// ErrOutsideWorkDir is returned for paths the store does not own
var ErrOutsideWorkDir = errors.New("path is outside the working directory")

// FileStore manages the working directory. It keeps no cached view of the
// directory; every call reads the file system.
type FileStore interface {
	// Validate reports why a source path cannot be used, or nil
	Validate(path string) error

	// AllocateOutputPath reserves a fresh, unused output path
	AllocateOutputPath(origin Origin) (string, error)

	// Register records a finished output and returns its entry
	Register(path string, origin Origin) (Entry, error)

	// List returns the entries sorted by creation time
	List() ([]Entry, error)

	// All yields entries lazily
	All() iter.Seq2[Entry, error]

	// Delete removes one entry
	Delete(path string) error

	// Remove deletes a partial output, tolerating a missing file
	Remove(path string) error

	// CleanAll deletes every entry and returns how many were removed
	CleanAll() (int, error)

	// Dir is the working directory
	Dir() string
}
