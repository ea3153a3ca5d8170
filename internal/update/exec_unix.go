//go:build unix

package update

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// markExecutable sets rwxr-xr-x so the staged binary can be launched.
func markExecutable(path string) error {
	return os.Chmod(path, 0o755)
}

func isCrossDevice(err error) bool {
	return errors.Is(err, unix.EXDEV)
}

// canReplaceRunning reports whether a running executable's path can be
// renamed over. Unix keeps the old inode alive for the running process.
func canReplaceRunning() bool {
	return true
}
