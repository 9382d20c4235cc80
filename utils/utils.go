package utils

import (
	"os"
	"path/filepath"
)

// DefaultSessionFile is the session file name used when --session is not given
const DefaultSessionFile = "bucketcrop-session.yaml"

// GetDefaultJournalPath returns the default path for the export journal
func GetDefaultJournalPath() string {
	// Get the executable path
	exePath, err := os.Executable()
	if err != nil {
		// Fallback to current directory if executable path can't be determined
		return "bucketcrop.db"
	}

	// Return the default journal path in the same directory
	return filepath.Join(filepath.Dir(exePath), "bucketcrop.db")
}

// ResolveJournalPath picks the flag value, then the configured path, then the default
func ResolveJournalPath(flagValue, configured string) string {
	switch {
	case flagValue != "":
		return flagValue
	case configured != "":
		return configured
	default:
		return GetDefaultJournalPath()
	}
}

// ResolveSessionPath returns flagValue, or the default session file inside folder
func ResolveSessionPath(flagValue, folder string) string {
	if flagValue != "" {
		return flagValue
	}
	return filepath.Join(folder, DefaultSessionFile)
}
