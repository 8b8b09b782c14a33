package config

import (
	"os"
	"path/filepath"
)

// UserConfigDir returns ~/.parley, honoring PARLEY_DIR for tests and
// multi-profile setups.
func UserConfigDir() (string, error) {
	if dir := os.Getenv("PARLEY_DIR"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".parley"), nil
}

// JournalPath returns the sqlite journal location inside dir.
func JournalPath(dir string) string {
	return filepath.Join(dir, "journal.db")
}
