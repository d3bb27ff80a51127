// Package storage keeps each job's uploaded deck and output decks in a
// per-job directory under the data dir.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Store manages job files on the local filesystem.
type Store struct {
	baseDir string
}

// New creates a store rooted at baseDir.
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, "jobs"), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// JobDir returns the directory holding a job's files.
func (s *Store) JobDir(jobID int64) string {
	return filepath.Join(s.baseDir, "jobs", strconv.FormatInt(jobID, 10))
}

// SaveUpload writes the uploaded deck and returns its path.
func (s *Store) SaveUpload(jobID int64, fileName string, data []byte) (string, error) {
	dir := filepath.Join(s.JobDir(jobID), "upload")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(dir, SanitizeFileName(fileName))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}

// OutputPath returns where an output deck should be written, creating
// the output directory on first use.
func (s *Store) OutputPath(jobID int64, fileName string) (string, error) {
	dir := filepath.Join(s.JobDir(jobID), "output")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return filepath.Join(dir, SanitizeFileName(fileName)), nil
}

// RemoveJob deletes everything stored for a job.
func (s *Store) RemoveJob(jobID int64) error {
	if err := os.RemoveAll(s.JobDir(jobID)); err != nil {
		return fmt.Errorf("remove job dir: %w", err)
	}
	return nil
}

var unsafeFileChars = regexp.MustCompile(`[^\p{L}\p{N}._ -]+`)

// SanitizeFileName strips path components and characters that are
// unsafe in a stored file name.
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = unsafeFileChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		name = "file"
	}
	return name
}

// OutputFileName derives the per-language output name from the source
// deck name: "deck.pptx" -> "deck_es.pptx".
func OutputFileName(sourceName, langCode string) string {
	base := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	return fmt.Sprintf("%s_%s.pptx", base, langCode)
}
