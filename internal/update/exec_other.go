//go:build !unix && !windows

package update

import "os"

func markExecutable(path string) error {
	return os.Chmod(path, 0o755)
}

func isCrossDevice(error) bool {
	return false
}

func canReplaceRunning() bool {
	return false
}
