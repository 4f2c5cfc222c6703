package distribution

import (
	"fmt"

	"video-processing/domain/storage"
)

// Store is the part of the file store retention needs
type Store interface {
	List() ([]storage.Entry, error)
	Delete(path string) error
}

// CleanupResult contains information about files deleted during cleanup
type CleanupResult struct {
	DeletedFiles []DeletedFile
	FreedBytes   int64
	// RemainingBytes is the working directory size after cleanup
	RemainingBytes int64
}

// DeletedFile represents a file that was deleted
type DeletedFile struct {
	Name string
	Size int64
}

// RetentionService keeps the working directory under a size budget
type RetentionService struct {
	store Store
}

// NewRetentionService creates a new retention service
func NewRetentionService(store Store) *RetentionService {
	return &RetentionService{store: store}
}

// EnforceLimit deletes the oldest outputs until the working directory holds
// at most maxBytes. User inputs and empty files are never deleted; an empty
// file is the reservation of a job that has not written output yet.
func (s *RetentionService) EnforceLimit(maxBytes int64) (*CleanupResult, error) {
	if maxBytes < 0 {
		return nil, fmt.Errorf("size limit must not be negative")
	}

	entries, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list working directory: %w", err)
	}

	result := &CleanupResult{}
	for _, e := range entries {
		result.RemainingBytes += e.Size
	}

	// entries are oldest first
	for _, e := range entries {
		if result.RemainingBytes <= maxBytes {
			return result, nil
		}
		if e.Origin == storage.OriginUserInput || e.Size == 0 {
			continue
		}

		if err := s.store.Delete(e.Path); err != nil {
			return result, fmt.Errorf("failed to delete %s: %w", e.Path, err)
		}

		result.DeletedFiles = append(result.DeletedFiles, DeletedFile{Name: e.Path, Size: e.Size})
		result.FreedBytes += e.Size
		result.RemainingBytes -= e.Size
	}

	if result.RemainingBytes > maxBytes {
		return result, fmt.Errorf("working directory still holds %d bytes, over the %d byte limit", result.RemainingBytes, maxBytes)
	}
	return result, nil
}
