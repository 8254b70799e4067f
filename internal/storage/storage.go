package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrNoList is returned when a user has no archived shopping list.
var ErrNoList = errors.New("no archived shopping list")

const stampLayout = "20060102T150405Z"

// ListStore keeps the latest rendered shopping list of every user on disk.
type ListStore struct {
	basePath string
}

// NewListStore creates a new ListStore and ensures the base directory exists.
func NewListStore(basePath string) (*ListStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &ListStore{basePath: basePath}, nil
}

// getVersionedPath returns the full path for a user's list rendered at stamp.
func (s *ListStore) getVersionedPath(userID int64, stamp time.Time) string {
	filename := fmt.Sprintf("user-%d_%s.pdf", userID, stamp.UTC().Format(stampLayout))
	return filepath.Join(s.basePath, filename)
}

func (s *ListStore) versions(userID int64) ([]string, error) {
	pattern := filepath.Join(s.basePath, fmt.Sprintf("user-%d_*.pdf", userID))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob archived lists: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Save writes content as the user's current list, replacing older versions.
// It returns the path written.
func (s *ListStore) Save(userID int64, stamp time.Time, content io.Reader) (string, error) {
	if err := s.RemoveStaleVersions(userID); err != nil {
		return "", err
	}

	path := s.getVersionedPath(userID, stamp)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create list file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write list file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close list file: %w", err)
	}
	return path, nil
}

// Latest returns the path of the user's most recent list.
func (s *ListStore) Latest(userID int64) (string, error) {
	matches, err := s.versions(userID)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", ErrNoList
	}
	return matches[len(matches)-1], nil
}

// RemoveStaleVersions removes every archived list of userID.
func (s *ListStore) RemoveStaleVersions(userID int64) error {
	matches, err := s.versions(userID)
	if err != nil {
		return err
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("failed to remove stale file %s: %w", match, err)
		}
	}
	return nil
}
