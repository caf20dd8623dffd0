package filesystem

import (
	"os"
	"path/filepath"
)

// AppDirName is the per-user directory holding configuration, history and logs.
const AppDirName = ".typing-copilot"

// UserHomeDir returns the current user's home directory.
// If the home directory cannot be determined, it returns "." as a fallback.
func UserHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// AppDir returns ~/.typing-copilot.
func AppDir() string {
	return filepath.Join(UserHomeDir(), AppDirName)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" {
		return UserHomeDir()
	}
	if len(path) > 1 && path[0] == '~' && (path[1] == '/' || path[1] == filepath.Separator) {
		return filepath.Join(UserHomeDir(), path[2:])
	}
	return path
}
