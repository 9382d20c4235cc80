package scanner

import (
	"io/fs"
	"path/filepath"
	"strings"

	"bucketcrop/config"
	"bucketcrop/logging"
)

// IsImageFile checks the file extension against the configured allowlist, ignoring case
func IsImageFile(cfg config.Config, path string) bool {
	return cfg.IsSupportedExt(filepath.Ext(path))
}

// GetFileFormat returns the lowercase file extension without the dot
func GetFileFormat(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// collectImageFiles walks folder recursively and returns the supported image files.
// Entries that cannot be read are logged and skipped.
func collectImageFiles(cfg config.Config, folder string) ([]string, FileStats) {
	stats := FileStats{byFormat: make(map[string]int)}
	var files []string

	filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.LogWarning("Error accessing path %s: %v", path, err)
			if d != nil && d.IsDir() && path != folder {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsImageFile(cfg, path) {
			return nil
		}

		files = append(files, path)
		stats.totalFiles++
		stats.byFormat[GetFileFormat(path)]++
		return nil
	})

	return files, stats
}
