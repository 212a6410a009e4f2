package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage writes exported meeting documents to the local filesystem
type LocalStorage struct {
	outputDir string
}

// NewLocalStorage creates a new local export writer
func NewLocalStorage(outputDir string) *LocalStorage {
	return &LocalStorage{
		outputDir: outputDir,
	}
}

// Dir returns the export directory
func (ls *LocalStorage) Dir() string {
	return ls.outputDir
}

// SaveExport writes content under filename and returns the full path.
// An existing file with the same name is overwritten.
func (ls *LocalStorage) SaveExport(ctx context.Context, filename, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := sanitizeFilename(filename)
	if name == "" {
		return "", fmt.Errorf("invalid export filename: %q", filename)
	}

	if err := os.MkdirAll(ls.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(ls.outputDir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to save export: %w", err)
	}

	return path, nil
}

// sanitizeFilename strips directory components and caps the length
func sanitizeFilename(name string) string {
	result := filepath.Base(strings.TrimSpace(name))
	if result == "." || result == string(filepath.Separator) {
		return ""
	}
	if len(result) > 200 {
		ext := filepath.Ext(result)
		result = result[:200-len(ext)] + ext
	}
	return result
}
