package exporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bucketcrop/logging"
)

// findCompanionFiles returns the sidecar files that share imagePath's base name
func findCompanionFiles(imagePath string, exts []string) []string {
	base := strings.TrimSuffix(imagePath, filepath.Ext(imagePath))

	var companions []string
	for _, ext := range exts {
		candidate := base + ext
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			companions = append(companions, candidate)
		}
	}
	return companions
}

// copyCompanionFiles copies every sidecar of imagePath into outputDir,
// overwriting existing files. Failures are logged and never returned.
func copyCompanionFiles(imagePath, outputDir string, exts []string) []string {
	var copied []string
	for _, companion := range findCompanionFiles(imagePath, exts) {
		dst := filepath.Join(outputDir, filepath.Base(companion))
		if err := copyFile(companion, dst); err != nil {
			logging.LogWarning("Failed to copy companion file %s: %v", companion, err)
			continue
		}
		copied = append(copied, dst)
	}
	return copied
}

// copyFile copies src to dst and keeps the source modification time
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
