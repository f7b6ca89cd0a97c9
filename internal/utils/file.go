// Package utils holds small file helpers shared by the CLI input path.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extensions the CLI treats as plain-text resume or job description input
var textExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".text":     true,
}

// ValidateInputFile checks that a resume or job description file exists,
// is a regular file, and can be opened for reading.
func ValidateInputFile(path string) error {
	if path == "" {
		return fmt.Errorf("input path cannot be empty")
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("input file does not exist: %s", path)
	case err != nil:
		return fmt.Errorf("cannot access input file %s: %w", path, err)
	case info.IsDir():
		return fmt.Errorf("input path is a directory: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open input file %s: %w", path, err)
	}
	return f.Close()
}

// ValidateOutputFile prepares the destination for analysis output. An empty
// path means stdout and needs no preparation. Missing parent directories
// are created.
func ValidateOutputFile(path string) error {
	if path == "" {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("cannot create output directory %s: %w", dir, err)
		}
	}
	return nil
}

// IsTextFile reports whether the path carries a plain-text extension
func IsTextFile(path string) bool {
	return textExtensions[strings.ToLower(filepath.Ext(path))]
}

// FormatFileSize renders a byte count for user-facing size limit messages
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	value := float64(size)
	exp := -1
	for value >= unit && exp < 5 {
		value /= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", value, "KMGTPE"[exp])
}
