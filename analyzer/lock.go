package analyzer

import (
	"errors"
	"fmt"
	"os"
)

const lockFileName = "watcher.lock"

// ErrLocked is returned by TryLock when another watcher owns the directory.
var ErrLocked = errors.New("another watcher is already running on this directory")

// writePID records the owner for debugging.
func writePID(f *os.File) {
	f.Truncate(0)
	f.Seek(0, 0)
	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Sync()
}
