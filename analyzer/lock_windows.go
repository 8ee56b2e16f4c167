//go:build windows

package analyzer

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

// TryLock takes the exclusive watcher lock in stateDir without blocking.
// It fails with ErrLocked when another process holds it.
func TryLock(stateDir string) (*os.File, error) {
	f, err := os.OpenFile(filepath.Join(stateDir, lockFileName), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	// LOCKFILE_FAIL_IMMEDIATELY is the LOCK_NB counterpart
	err = windows.LockFileEx(
		windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0,
		1,
		0,
		&windows.Overlapped{},
	)
	if err != nil {
		f.Close()
		return nil, ErrLocked
	}

	writePID(f)
	return f, nil
}

// Unlock releases the lock and closes the file.
func Unlock(f *os.File) {
	if f != nil {
		// closing releases the lock anyway
		windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, &windows.Overlapped{})
		f.Close()
	}
}
