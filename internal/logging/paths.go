package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogPath returns the default log file location under the user's
// home directory.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".ragmcp", "logs", "ragmcp.log")
}

// EnsureLogDir creates the default log directory if it does not exist.
func EnsureLogDir() error {
	dir := filepath.Dir(DefaultLogPath())
	return os.MkdirAll(dir, 0o755)
}
