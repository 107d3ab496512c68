// Package validation checks user-supplied source paths before any
// processing starts, so failures surface as prompt feedback instead of a
// mid-run tool error.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// Maximum file size in bytes (500MB)
	MaxFileSizeBytes = 500 * 1024 * 1024
)

// SupportedInputFormats defines all supported input video formats
var SupportedInputFormats = []string{".mp4", ".mkv", ".mov", ".avi", ".webm", ".flv", ".wmv"}

// CleanPath normalizes raw prompt input: trims whitespace and strips the
// surrounding quotes that file managers add when copying a path.
func CleanPath(input string) string {
	cleaned := strings.TrimSpace(input)
	if len(cleaned) >= 2 {
		if (cleaned[0] == '\'' && cleaned[len(cleaned)-1] == '\'') ||
			(cleaned[0] == '"' && cleaned[len(cleaned)-1] == '"') {
			cleaned = cleaned[1 : len(cleaned)-1]
		}
	}
	return strings.TrimSpace(cleaned)
}

// ValidateInputPath validates a source video path: the file must exist, be
// a regular readable file in a supported container, and fit the size cap.
func ValidateInputPath(input string) error {
	cleaned := CleanPath(input)
	if cleaned == "" {
		return fmt.Errorf("path cannot be empty")
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return fmt.Errorf("invalid path format: %v", err)
	}

	fileInfo, err := os.Stat(absPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", absPath)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %v", err)
	}
	if fileInfo.IsDir() {
		return fmt.Errorf("path points to a directory, not a file: %s", absPath)
	}

	ext := strings.ToLower(filepath.Ext(absPath))
	supported := false
	for _, supportedExt := range SupportedInputFormats {
		if ext == supportedExt {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported file format: %s. Supported formats: %s",
			ext, strings.Join(SupportedInputFormats, ", "))
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty")
	}
	if fileInfo.Size() > MaxFileSizeBytes {
		sizeMB := float64(fileInfo.Size()) / (1024 * 1024)
		return fmt.Errorf("file size (%.1f MB) exceeds maximum allowed size of %d MB",
			sizeMB, MaxFileSizeBytes/(1024*1024))
	}

	file, err := os.Open(absPath)
	if err != nil {
		return fmt.Errorf("cannot read file (permission denied): %v", err)
	}
	file.Close()

	return nil
}
