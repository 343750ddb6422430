package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrFileTooLarge    = errors.New("file size exceeds maximum limit")
	ErrUnsupportedType = errors.New("only PDF and plain text files are supported")
	ErrEmptyFile       = errors.New("file is empty")
)

// FileService validates uploads and persists them under the storage
// directory, partitioned per user.
type FileService struct {
	storageDir  string
	maxFileSize int64
}

func NewFileService(storageDir string, maxFileSize int64) *FileService {
	return &FileService{storageDir: storageDir, maxFileSize: maxFileSize}
}

// Validate rejects oversized, empty, and unsupported uploads before any
// bytes are written to disk.
func (s *FileService) Validate(header *multipart.FileHeader) error {
	if header.Size == 0 {
		return ErrEmptyFile
	}
	if header.Size > s.maxFileSize {
		return ErrFileTooLarge
	}

	name := strings.ToLower(header.Filename)
	ct := header.Header.Get("Content-Type")
	switch {
	case strings.HasSuffix(name, ".pdf") || strings.Contains(ct, "pdf"):
		return nil
	case strings.HasSuffix(name, ".txt") || strings.HasPrefix(ct, "text/plain"):
		return nil
	}
	return ErrUnsupportedType
}

// Save streams the upload to disk and returns the absolute file path. The
// stored name must already be collision-free.
func (s *FileService) Save(file multipart.File, userID, storedName string) (string, error) {
	dir := filepath.Join(s.storageDir, "documents", userID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(dir, storedName)
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to open destination: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, s.maxFileSize)); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return path, nil
}

// Remove deletes a stored upload. Used to roll back failed registrations.
func (s *FileService) Remove(path string) {
	if path == "" {
		return
	}
	os.Remove(path)
}
