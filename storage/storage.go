package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Archive stores readable-content and report artifacts produced by an
// extraction. Archive failures are surfaced to callers as warnings, never
// as pipeline errors.
type Archive interface {
	// SaveContent stores the readable text of a page and returns its key.
	SaveContent(text, slug string) (string, error)
	// SaveReport stores the Markdown report and returns its key.
	SaveReport(report, slug string) (string, error)
	// ReadReport returns a previously stored report.
	ReadReport(key string) ([]byte, error)
	// Delete removes a stored object.
	Delete(key string) error
}

// Config contains filesystem storage configuration
type Config struct {
	BasePath string // Base directory for all stored files
}

// DefaultConfig returns default storage configuration
func DefaultConfig() Config {
	return Config{
		BasePath: "./storage",
	}
}

// FileStore archives artifacts on the local filesystem. It is the default
// backend when no object store is configured.
type FileStore struct {
	config Config
}

// NewFileStore creates a new FileStore instance
func NewFileStore(config Config) (*FileStore, error) {
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory: %w", err)
	}

	return &FileStore{config: config}, nil
}

// SaveContent saves readable text under content/YYYY/MM/slug.txt and
// returns the path relative to the base directory.
func (s *FileStore) SaveContent(text, slug string) (string, error) {
	return s.save([]byte(text), "content", slug, ".txt")
}

// SaveReport saves a report under reports/YYYY/MM/slug.md and returns the
// path relative to the base directory.
func (s *FileStore) SaveReport(report, slug string) (string, error) {
	return s.save([]byte(report), "reports", slug, ".md")
}

// ReadReport reads a stored report by its relative key
func (s *FileStore) ReadReport(key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.config.BasePath, key))
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return data, nil
}

// Delete removes a stored object by its relative key
func (s *FileStore) Delete(key string) error {
	if err := os.Remove(filepath.Join(s.config.BasePath, key)); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// save writes data under prefix/YYYY/MM/slug+ext, making the filename
// unique when a file with the same slug already exists that month.
func (s *FileStore) save(data []byte, prefix, slug, ext string) (string, error) {
	now := time.Now()
	dirPath := filepath.Join(s.config.BasePath, prefix, fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())))

	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	filename := slug + ext
	filePath := filepath.Join(dirPath, filename)

	counter := 1
	for fileExists(filePath) {
		filename = fmt.Sprintf("%s-%d%s", slug, counter, ext)
		filePath = filepath.Join(dirPath, filename)
		counter++
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	relPath, err := filepath.Rel(s.config.BasePath, filePath)
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}

	return filepath.ToSlash(relPath), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
