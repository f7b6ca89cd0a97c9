package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(path, []byte("John Doe, 5 years React"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := ValidateInputFile(path); err != nil {
		t.Errorf("expected readable file to validate, got %v", err)
	}
	if err := ValidateInputFile(""); err == nil {
		t.Error("expected error for empty path")
	}
	if err := ValidateInputFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
	if err := ValidateInputFile(dir); err == nil {
		t.Error("expected error for directory path")
	}
}

func TestValidateOutputFile(t *testing.T) {
	if err := ValidateOutputFile(""); err != nil {
		t.Errorf("stdout output should need no preparation, got %v", err)
	}

	dir := t.TempDir()
	nested := filepath.Join(dir, "out", "analysis.json")
	if err := ValidateOutputFile(nested); err != nil {
		t.Fatalf("expected parent directory to be created, got %v", err)
	}
	if info, err := os.Stat(filepath.Join(dir, "out")); err != nil || !info.IsDir() {
		t.Error("output directory was not created")
	}
}

func TestIsTextFile(t *testing.T) {
	for path, want := range map[string]bool{
		"resume.txt":     true,
		"job.MD":         true,
		"notes.markdown": true,
		"resume.pdf":     false,
		"no-extension":   false,
	} {
		if got := IsTextFile(path); got != want {
			t.Errorf("IsTextFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{2 * 1024 * 1024 * 1024, "2.0 GB"},
	}
	for _, tt := range tests {
		if got := FormatFileSize(tt.size); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}
