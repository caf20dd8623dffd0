// Package lock provides the file lock that lets one typecopilot process at a
// time drive the clipboard and the synthetic keyboard.
package lock

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/ports"
)

// File is an advisory lock on a file. The operating system releases it when the
// holding process exits, so a crashed correction never leaves it stuck.
type File struct {
	fl *flock.Flock
}

// New returns an unlocked lock on path. The file is created on first TryLock.
func New(path string) *File {
	return &File{fl: flock.New(path, flock.SetPermissions(domain.SecureFilePermissions))}
}

// InDir returns the correction lock inside dir.
func InDir(dir string) *File {
	return New(filepath.Join(dir, domain.CorrectionLockFileName))
}

// TryLock takes the lock if no other holder has it.
func (f *File) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(f.fl.Path()), domain.DirectoryPermissions); err != nil {
		return false, err
	}
	return f.fl.TryLock()
}

// Unlock releases the lock.
func (f *File) Unlock() error {
	return f.fl.Unlock()
}

// Path returns the lock file location.
func (f *File) Path() string {
	return f.fl.Path()
}

var _ ports.ProcessLock = (*File)(nil)
