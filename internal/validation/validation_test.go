package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  /videos/a.mp4  ", "/videos/a.mp4"},
		{`"/videos/a.mp4"`, "/videos/a.mp4"},
		{"'/videos/a.mp4'", "/videos/a.mp4"},
		{`" /videos/a.mp4 "`, "/videos/a.mp4"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanPath(tt.input); got != tt.want {
			t.Errorf("CleanPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateInputPathAcceptsSupportedVideo(t *testing.T) {
	path := writeFile(t, "clip.mp4", 1024)
	if err := ValidateInputPath(path); err != nil {
		t.Errorf("ValidateInputPath: %v", err)
	}
}

func TestValidateInputPathAcceptsQuotedInput(t *testing.T) {
	path := writeFile(t, "clip.mkv", 64)
	if err := ValidateInputPath(`"` + path + `"`); err != nil {
		t.Errorf("quoted path rejected: %v", err)
	}
}

func TestValidateInputPathRejectsEmpty(t *testing.T) {
	if err := ValidateInputPath("   "); err == nil {
		t.Error("empty input accepted")
	}
}

func TestValidateInputPathRejectsMissingFile(t *testing.T) {
	err := ValidateInputPath(filepath.Join(t.TempDir(), "nope.mp4"))
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("missing file: %v", err)
	}
}

func TestValidateInputPathRejectsDirectory(t *testing.T) {
	if err := ValidateInputPath(t.TempDir()); err == nil {
		t.Error("directory accepted")
	}
}

func TestValidateInputPathRejectsUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "notes.txt", 10)
	err := ValidateInputPath(path)
	if err == nil || !strings.Contains(err.Error(), "unsupported file format") {
		t.Errorf("unsupported extension: %v", err)
	}
}

func TestValidateInputPathRejectsEmptyFile(t *testing.T) {
	path := writeFile(t, "clip.mov", 0)
	err := ValidateInputPath(path)
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("empty file: %v", err)
	}
}
