//go:build windows

package update

import (
	"errors"

	"golang.org/x/sys/windows"
)

// markExecutable is a no-op: Windows decides executability by extension.
func markExecutable(string) error {
	return nil
}

func isCrossDevice(err error) bool {
	return errors.Is(err, windows.ERROR_NOT_SAME_DEVICE)
}

// canReplaceRunning is false: Windows locks the image of a running process.
func canReplaceRunning() bool {
	return false
}
