package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ahmad66-rgb/upscaler/internal/config"
)

// resolveOutputPath determines the final output location from the export
// settings. The name is `{rename override or "<source-stem>_upscaled"}`
// with the lowercased container extension. When a file of that name
// already exists and auto-overwrite is disabled, a timestamp suffix is
// appended so the earlier file is never clobbered.
func resolveOutputPath(cfg config.Config, sourcePath string, now time.Time) (string, error) {
	exportDir := cfg.Export.OutputFolder
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	stem := strings.TrimSpace(cfg.Export.RenameFile)
	if stem == "" {
		base := filepath.Base(sourcePath)
		stem = strings.TrimSuffix(base, filepath.Ext(base)) + "_upscaled"
	}
	ext := strings.ToLower(cfg.Export.FileFormat)

	outputPath := filepath.Join(exportDir, stem+"."+ext)
	if _, err := os.Stat(outputPath); err == nil && !cfg.Export.AutoOverwrite {
		outputPath = filepath.Join(exportDir, fmt.Sprintf("%s_%d.%s", stem, now.Unix(), ext))
	}
	return outputPath, nil
}
