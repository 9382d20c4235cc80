package imageprocessor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Failure kinds for a single image. Callers tell them apart with errors.Is.
var (
	ErrNotFound    = errors.New("file not found")
	ErrPermission  = errors.New("permission denied")
	ErrDecode      = errors.New("cannot decode image")
	ErrWrite       = errors.New("cannot write image")
	ErrUnsupported = errors.New("unsupported image format")
)

// checkReadable stats and opens path so a missing or unreadable file is
// reported as such instead of as a decode failure.
func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return classifyFSError(path, err)
	}
	f.Close()
	return nil
}

// classifyFSError maps an os error onto ErrNotFound/ErrPermission
func classifyFSError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermission, path)
	default:
		return fmt.Errorf("cannot open %s: %w", path, err)
	}
}
